// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

// PieceHash is a single piece's expected SHA-1 digest.
type PieceHash [20]byte

// PieceEngine holds the full piece-hash list for a torrent and supports a
// zero-copy projection ("slice") so each TorrentFile can compute its own
// piece boundaries without copying the digest array. Only an open-ended
// [start:] projection is needed in practice, so SliceFrom is the only
// slicing operation offered rather than a general two-sided slice type.
type PieceEngine struct {
	PieceLength int64
	pieces      []PieceHash // immutable, shared across slices
	// startOffset is the byte offset, within the torrent's overall byte
	// stream, that piece index 0 of this slice corresponds to.
	startOffset int64
}

// NewPieceEngine builds the root piece engine for a torrent from its full,
// ordered list of 20-byte digests.
func NewPieceEngine(pieceLength int64, pieces []PieceHash) *PieceEngine {
	return &PieceEngine{
		PieceLength: pieceLength,
		pieces:      pieces,
		startOffset: 0,
	}
}

// NumPieces returns the number of pieces visible from this slice's start.
func (e *PieceEngine) NumPieces() int {
	return len(e.pieces) - e.indexOffset()
}

// indexOffset is the number of leading pieces hidden by this slice's
// startOffset, i.e. the piece index (relative to the root engine) that
// index 0 of this slice corresponds to.
func (e *PieceEngine) indexOffset() int {
	if e.PieceLength <= 0 {
		return 0
	}
	return int(e.startOffset / e.PieceLength)
}

// SliceFrom returns a new PieceEngine that shares the same underlying
// digest array but whose piece index 0 begins at byte offset `start`
// within the torrent's overall byte stream. This is the only slicing
// operation the piece engine supports (see type doc).
func (e *PieceEngine) SliceFrom(start int64) *PieceEngine {
	return &PieceEngine{
		PieceLength: e.PieceLength,
		pieces:      e.pieces,
		startOffset: start,
	}
}

// PieceAt returns the digest for the given piece index, relative to this
// slice's start offset.
func (e *PieceEngine) PieceAt(index int) (PieceHash, bool) {
	abs := e.indexOffset() + index
	if index < 0 || abs < 0 || abs >= len(e.pieces) {
		return PieceHash{}, false
	}
	return e.pieces[abs], true
}

// AbsoluteIndex converts a piece index relative to this slice into a piece
// index relative to the root engine (useful for building shared-piece sets
// across files, since all slices reference the same underlying array).
func (e *PieceEngine) AbsoluteIndex(index int) int {
	return e.indexOffset() + index
}

// FileOffsets describes where a file's bytes begin and end within the
// piece stream. Last-file semantics treat a short final piece as "fully
// contained" even though it falls short of a full PieceLength.
type FileOffsets struct {
	// FirstPiece/LastPiece are the first and last piece indices (relative
	// to this file's piece-engine slice) touched by any byte of the file,
	// including partially-overlapping edge pieces.
	FirstPiece, LastPiece int

	// FirstFullPiece/LastFullPiece are the first and last piece indices
	// that are *entirely* contained within the file (no other file's bytes
	// share that piece). For the last file in a torrent, a short final
	// piece counts as fully contained.
	FirstFullPiece, LastFullPiece int

	// HasFullPiece is false for files smaller than a single piece length
	// that don't align on a piece boundary, i.e. there is no piece fully
	// owned by this file.
	HasFullPiece bool
}

// CalculateOffsets computes FileOffsets for a file of the given size whose
// piece-engine slice has already been positioned at the file's start via
// SliceFrom. isLastFile enables last-file semantics for the final piece.
func (e *PieceEngine) CalculateOffsets(size int64, isLastFile bool) FileOffsets {
	if e.PieceLength <= 0 || size <= 0 {
		return FileOffsets{}
	}

	lastByte := size - 1
	firstPiece := 0
	lastPiece := int((e.startOffset+lastByte)/e.PieceLength) - e.indexOffset()

	offsets := FileOffsets{
		FirstPiece: firstPiece,
		LastPiece:  lastPiece,
	}

	// A piece is "fully contained" in this file if the file's own bytes
	// span the piece's entire length. The first piece is fully contained
	// only if this file's data starts exactly at the piece boundary, i.e.
	// startOffset is piece-aligned.
	firstFull := firstPiece
	startsAligned := e.startOffset%e.PieceLength == 0
	if !startsAligned {
		firstFull++
	}

	lastFull := lastPiece
	endsAligned := (e.startOffset+size)%e.PieceLength == 0
	if !endsAligned && !isLastFile {
		lastFull--
	}
	// Last-file semantics: a short final piece is treated as fully owned
	// by the last file even though it doesn't reach PieceLength bytes.

	offsets.FirstFullPiece = firstFull
	offsets.LastFullPiece = lastFull
	offsets.HasFullPiece = firstFull <= lastFull

	return offsets
}
