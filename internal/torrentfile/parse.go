// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package torrentfile parses a decoded .torrent bencode tree into a
// domain.Torrent: validating the info dictionary, computing the infohash,
// building the file list with piece-engine slices, and flattening the
// announce/announce-list trackers per BEP-12.
package torrentfile

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"path"
	"strings"

	"github.com/autoseed/autoseed/internal/domain"
	"github.com/autoseed/autoseed/pkg/bencode"
	"github.com/autoseed/autoseed/pkg/hashutil"
)

// Parse decodes raw .torrent bytes into a domain.Torrent.
func Parse(raw []byte) (*domain.Torrent, error) {
	tree, err := bencode.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParseTorrent, err)
	}
	return FromTree(tree)
}

// FromTree builds a domain.Torrent from an already-decoded bencode tree,
// e.g. one read back from a cached copy of the .torrent.
func FromTree(tree bencode.Dict) (*domain.Torrent, error) {
	info, ok := bencode.SubDict(tree, "info")
	if !ok {
		return nil, fmt.Errorf("%w: missing info dict", domain.ErrParseTorrent)
	}

	infoHash, err := computeInfoHash(info)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParseTorrent, err)
	}

	name, ok := bencode.String(info, "name")
	if !ok || name == "" {
		return nil, fmt.Errorf("%w: missing info.name", domain.ErrParseTorrent)
	}

	pieceLength, ok := bencode.Int(info, "piece length")
	if !ok || pieceLength <= 0 {
		return nil, fmt.Errorf("%w: invalid info.piece length", domain.ErrParseTorrent)
	}

	piecesRaw, ok := bencode.String(info, "pieces")
	if !ok || len(piecesRaw)%20 != 0 {
		return nil, fmt.Errorf("%w: invalid info.pieces", domain.ErrParseTorrent)
	}
	pieces := make([]domain.PieceHash, len(piecesRaw)/20)
	for i := range pieces {
		copy(pieces[i][:], piecesRaw[i*20:i*20+20])
	}

	paths, sizes, err := fileList(info)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParseTorrent, err)
	}

	var totalSize int64
	for _, s := range sizes {
		totalSize += s
	}

	source, _ := bencode.String(info, "source")

	t := &domain.Torrent{
		Name:        name,
		InfoHash:    infoHash,
		TotalSize:   totalSize,
		PieceLength: pieceLength,
		Pieces:      pieces,
		Trackers:    trackers(tree),
		Source:      source,
	}
	t.FileList = domain.BuildFileList(t.Engine(), paths, sizes)

	if expected := t.PieceCount(); expected != len(pieces) {
		return nil, fmt.Errorf("%w: piece count mismatch: have %d pieces, expected %d for total size %d",
			domain.ErrParseTorrent, len(pieces), expected, totalSize)
	}

	return t, nil
}

// computeInfoHash re-encodes the info dict and returns sha1(bencode(info))
// as lowercase hex.
func computeInfoHash(info bencode.Dict) (string, error) {
	encoded, err := bencode.Encode(info)
	if err != nil {
		return "", fmt.Errorf("re-encode info dict: %w", err)
	}
	sum := sha1.Sum(encoded)
	return hashutil.Normalize(hex.EncodeToString(sum[:])), nil
}

// fileList returns the torrent's relative file paths (POSIX-joined,
// rooted at the torrent name) and their sizes, in filelist order, for
// both single-file and multi-file torrents.
func fileList(info bencode.Dict) ([]string, []int64, error) {
	name, _ := bencode.String(info, "name")

	if filesRaw, ok := bencode.List(info, "files"); ok {
		paths := make([]string, 0, len(filesRaw))
		sizes := make([]int64, 0, len(filesRaw))
		for i, entryRaw := range filesRaw {
			entry, ok := entryRaw.(bencode.Dict)
			if !ok {
				return nil, nil, fmt.Errorf("files[%d]: not a dict", i)
			}
			size, ok := bencode.Int(entry, "length")
			if !ok {
				return nil, nil, fmt.Errorf("files[%d]: missing length", i)
			}
			pathList, ok := bencode.List(entry, "path")
			if !ok || len(pathList) == 0 {
				return nil, nil, fmt.Errorf("files[%d]: missing path", i)
			}
			segments := make([]string, 0, len(pathList)+1)
			segments = append(segments, name)
			for _, segRaw := range pathList {
				seg, ok := segRaw.(string)
				if !ok {
					return nil, nil, fmt.Errorf("files[%d]: non-string path segment", i)
				}
				segments = append(segments, seg)
			}
			paths = append(paths, path.Join(segments...))
			sizes = append(sizes, size)
		}
		return paths, sizes, nil
	}

	length, ok := bencode.Int(info, "length")
	if !ok {
		return nil, nil, fmt.Errorf("single-file torrent missing info.length")
	}
	return []string{name}, []int64{length}, nil
}

// trackers flattens announce and announce-list (BEP-12) into a single,
// order-preserving, de-duplicated list.
func trackers(tree bencode.Dict) []string {
	seen := make(map[string]struct{})
	var out []string

	add := func(url string) {
		url = strings.TrimSpace(url)
		if url == "" {
			return
		}
		if _, ok := seen[url]; ok {
			return
		}
		seen[url] = struct{}{}
		out = append(out, url)
	}

	if announce, ok := bencode.String(tree, "announce"); ok {
		add(announce)
	}

	if tiers, ok := bencode.List(tree, "announce-list"); ok {
		for _, tierRaw := range tiers {
			tier, ok := tierRaw.([]any)
			if !ok {
				continue
			}
			for _, urlRaw := range tier {
				if url, ok := urlRaw.(string); ok {
					add(url)
				}
			}
		}
	}

	return out
}
