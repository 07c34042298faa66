// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package pieceverify

import (
	"crypto/sha1"

	"github.com/autoseed/autoseed/internal/domain"
)

// ProbeResult is the tri-state outcome of ProbeHash.
type ProbeResult int

const (
	ProbeUnknown ProbeResult = iota
	ProbeMatch
	ProbeMismatch
)

// ProbeHash hashes only the first and last fully-contained piece of a
// candidate file against the torrent's expected digests for file (as it
// would sit in the torrent's filelist), returning ProbeUnknown when the
// file has no fully-contained piece to probe.
func ProbeHash(pieces []domain.PieceHash, file domain.TorrentFile, candidate ReadAtCloser) (ProbeResult, error) {
	offsets := file.Offsets()
	if !offsets.HasFullPiece {
		return ProbeUnknown, nil
	}

	check := func(relIdx int) (bool, error) {
		absIdx := file.Engine.AbsoluteIndex(relIdx)
		if absIdx < 0 || absIdx >= len(pieces) {
			return false, nil
		}

		pieceStart := int64(absIdx)*file.Engine.PieceLength - file.Offset
		pieceLen := file.Engine.PieceLength
		if pieceStart+pieceLen > file.Size {
			pieceLen = file.Size - pieceStart
		}

		buf := make([]byte, pieceLen)
		if _, err := readFull(candidate, buf, pieceStart); err != nil {
			return false, err
		}

		sum := sha1.Sum(buf)
		var got domain.PieceHash
		copy(got[:], sum[:])
		return got == pieces[absIdx], nil
	}

	firstOK, err := check(offsets.FirstFullPiece)
	if err != nil {
		return ProbeUnknown, err
	}
	lastOK, err := check(offsets.LastFullPiece)
	if err != nil {
		return ProbeUnknown, err
	}

	if firstOK && lastOK {
		return ProbeMatch, nil
	}
	return ProbeMismatch, nil
}

func readFull(r ReadAtCloser, buf []byte, offset int64) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.ReadAt(buf[total:], offset+int64(total))
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}
