// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

// TorrentFile is one file within a Torrent's payload.
type TorrentFile struct {
	// Path is a pure POSIX-style relative path rooted at the torrent name.
	Path string
	Size int64

	// Engine is this file's piece-engine slice, positioned at the file's
	// cumulative byte offset within the torrent.
	Engine *PieceEngine

	// Offset is the cumulative byte offset (Σ size_j for j < i) at which
	// this file's data begins within the torrent's overall byte stream.
	Offset int64

	IsLastFile bool
}

// Offsets computes this file's piece boundaries, honoring last-file
// semantics for the final file in the torrent.
func (f *TorrentFile) Offsets() FileOffsets {
	return f.Engine.CalculateOffsets(f.Size, f.IsLastFile)
}

// Torrent is the immutable, in-memory model of a parsed .torrent's
// metainfo, built by internal/torrentfile from a decoded bencode tree.
type Torrent struct {
	Name        string
	InfoHash    string // 40-char lowercase hex
	TotalSize   int64
	PieceLength int64
	Pieces      []PieceHash

	FileList []TorrentFile
	Trackers []string

	// Source is info.source, if present (used for {torrent_source}).
	Source string
}

// Engine returns the root piece engine shared by the torrent's files.
func (t *Torrent) Engine() *PieceEngine {
	return NewPieceEngine(t.PieceLength, t.Pieces)
}

// PieceCount returns ⌈TotalSize / PieceLength⌉, the number of pieces the
// metainfo's concatenated piece-hash blob should contain.
func (t *Torrent) PieceCount() int {
	if t.PieceLength <= 0 {
		return 0
	}
	return int((t.TotalSize + t.PieceLength - 1) / t.PieceLength)
}

// BuildFileList constructs the ordered filelist for files of the given
// sizes, assigning each a piece-engine slice starting at its cumulative
// byte offset, and marking the last file. paths must be parallel to sizes.
func BuildFileList(engine *PieceEngine, paths []string, sizes []int64) []TorrentFile {
	files := make([]TorrentFile, len(paths))
	var offset int64
	for i := range paths {
		files[i] = TorrentFile{
			Path:       paths[i],
			Size:       sizes[i],
			Offset:     offset,
			Engine:     engine.SliceFrom(offset),
			IsLastFile: i == len(paths)-1,
		}
		offset += sizes[i]
	}
	return files
}
