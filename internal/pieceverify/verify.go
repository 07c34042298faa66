// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package pieceverify implements the piece-boundary hash verifier:
// VerifyHash checks always-verified files against their expected piece
// hashes, attributing edge-piece failures to whichever neighbor actually
// owns interior data, and ProbeHash is the cheap two-piece variant used
// while matching candidates.
package pieceverify

import (
	"crypto/sha1"
	"hash"
	"io"
	"os"
	"path"
	"strings"

	"github.com/autoseed/autoseed/internal/domain"
)

const readBlockSize = 256 * 1024

// ReadAtCloser is the minimal random-access file handle the verifier
// needs; *os.File satisfies it.
type ReadAtCloser interface {
	io.ReaderAt
	io.Closer
}

// FileAccessor opens actual on-disk files for verification. Tests supply
// an in-memory fake; production wires OSAccessor.
type FileAccessor interface {
	Open(path string) (ReadAtCloser, error)
}

// OSAccessor is the production FileAccessor, backed by os.Open.
type OSAccessor struct{}

func (OSAccessor) Open(p string) (ReadAtCloser, error) {
	return os.Open(p)
}

type pieceAccumulator struct {
	h        hash.Hash
	bytesFed int64
	fullLen  int64
}

// VerifyHash runs the two-pass piece verifier. mapping maps each
// torrent-relative path to its actual on-disk path; an absent or empty
// value marks the file as missing. alwaysVerifyPatterns are fnmatch-style
// basename patterns (as accepted by path.Match).
func VerifyHash(t *domain.Torrent, mapping map[string]string, alwaysVerifyPatterns []string, accessor FileAccessor) (domain.VerifyResult, error) {
	result := domain.VerifyResult{
		HashStatus:  make(map[string]domain.HashStatus),
		TouchStatus: make(map[string]domain.TouchStatus),
	}

	type fileRange struct {
		offsets   domain.FileOffsets
		absFirst  int
		absLast   int
		checked   bool
		missing   bool
	}
	ranges := make(map[string]fileRange, len(t.FileList))

	pieceStatus := make(map[int]domain.PieceStatus)
	piecesToVerify := make(map[int]struct{})
	missingPieces := make(map[int]struct{})

	for _, f := range t.FileList {
		offsets := f.Offsets()
		absFirst := f.Engine.AbsoluteIndex(offsets.FirstPiece)
		absLast := f.Engine.AbsoluteIndex(offsets.LastPiece)

		checked := matchesAny(path.Base(f.Path), alwaysVerifyPatterns)
		actual, present := mapping[f.Path]
		missing := !present || actual == ""

		ranges[f.Path] = fileRange{offsets: offsets, absFirst: absFirst, absLast: absLast, checked: checked, missing: missing}

		if checked {
			for idx := absFirst; idx <= absLast; idx++ {
				piecesToVerify[idx] = struct{}{}
			}
		}
		if missing {
			for idx := absFirst; idx <= absLast; idx++ {
				missingPieces[idx] = struct{}{}
				pieceStatus[idx] = domain.PieceUnknown
			}
		}
	}

	accumulators := make(map[int]*pieceAccumulator)

	for _, f := range t.FileList {
		fr := ranges[f.Path]
		if fr.missing {
			continue
		}
		actual := mapping[f.Path]

		rc, err := accessor.Open(actual)
		if err != nil {
			// Treat an unreadable mapped file as missing for hash purposes;
			// the caller's mapping should not have offered it.
			for idx := fr.absFirst; idx <= fr.absLast; idx++ {
				if _, already := pieceStatus[idx]; !already {
					pieceStatus[idx] = domain.PieceUnknown
				}
			}
			continue
		}

		for idx := fr.offsets.FirstPiece; idx <= fr.offsets.LastPiece; idx++ {
			absIdx := f.Engine.AbsoluteIndex(idx)
			if _, wanted := piecesToVerify[absIdx]; !wanted {
				continue
			}
			if _, isMissing := missingPieces[absIdx]; isMissing {
				continue
			}
			if _, decided := pieceStatus[absIdx]; decided {
				continue
			}

			globalPieceStart := int64(absIdx) * t.PieceLength
			globalPieceEnd := globalPieceStart + t.PieceLength
			if globalPieceEnd > t.TotalSize {
				globalPieceEnd = t.TotalSize
			}
			fileGlobalStart := f.Offset
			fileGlobalEnd := f.Offset + f.Size

			overlapStart := maxInt64(globalPieceStart, fileGlobalStart)
			overlapEnd := minInt64(globalPieceEnd, fileGlobalEnd)
			if overlapEnd <= overlapStart {
				continue
			}
			localStart := overlapStart - fileGlobalStart
			length := overlapEnd - overlapStart

			acc, ok := accumulators[absIdx]
			if !ok {
				acc = &pieceAccumulator{fullLen: globalPieceEnd - globalPieceStart}
				accumulators[absIdx] = acc
			}
			if err := feedAccumulator(acc, rc, localStart, length); err != nil {
				pieceStatus[absIdx] = domain.PieceFail
				delete(accumulators, absIdx)
				continue
			}
			if acc.bytesFed >= acc.fullLen {
				expected := t.Pieces[absIdx]
				var got domain.PieceHash
				copy(got[:], acc.h.Sum(nil))
				if got == expected {
					pieceStatus[absIdx] = domain.PiecePass
				} else {
					pieceStatus[absIdx] = domain.PieceFail
				}
				delete(accumulators, absIdx)
			}
		}
		rc.Close()
	}

	for i, f := range t.FileList {
		fr := ranges[f.Path]
		if !fr.checked {
			classifyTouch(result, f.Path, fr.absFirst, fr.absLast, pieceStatus)
			continue
		}

		var prevHasInterior, nextHasInterior bool
		if i > 0 {
			prevHasInterior = t.FileList[i-1].Offsets().HasFullPiece
		}
		if i < len(t.FileList)-1 {
			nextHasInterior = t.FileList[i+1].Offsets().HasFullPiece
		}

		result.HashStatus[f.Path] = classifyHash(fr.offsets, fr.absFirst, fr.absLast, pieceStatus, prevHasInterior, nextHasInterior)
	}

	return result, nil
}

func classifyHash(offsets domain.FileOffsets, absFirst, absLast int, pieceStatus map[int]domain.PieceStatus, prevHasInterior, nextHasInterior bool) domain.HashStatus {
	statusAt := func(absIdx int) domain.PieceStatus {
		if s, ok := pieceStatus[absIdx]; ok {
			return s
		}
		return domain.PieceUnknown
	}

	if !offsets.HasFullPiece {
		// No interior piece exists: success requires both edge pieces
		// (which may be the same single piece) to have passed.
		if statusAt(absFirst) == domain.PiecePass && statusAt(absLast) == domain.PiecePass {
			return domain.HashSuccess
		}
		return domain.HashFailed
	}

	absFirstFull := absFirst + (offsets.FirstFullPiece - offsets.FirstPiece)
	absLastFull := absLast - (offsets.LastPiece - offsets.LastFullPiece)

	interiorAllPass := true
	for idx := absFirstFull; idx <= absLastFull; idx++ {
		if statusAt(idx) != domain.PiecePass {
			interiorAllPass = false
			break
		}
	}
	if !interiorAllPass {
		return domain.HashFailed
	}

	firstIsEdge := offsets.FirstPiece != offsets.FirstFullPiece
	lastIsEdge := offsets.LastPiece != offsets.LastFullPiece

	edgesOK := true
	firstAttributable := true
	lastAttributable := true
	if firstIsEdge {
		if statusAt(absFirst) == domain.PieceFail {
			edgesOK = false
			firstAttributable = prevHasInterior
		}
	}
	if lastIsEdge {
		if statusAt(absLast) == domain.PieceFail {
			edgesOK = false
			lastAttributable = nextHasInterior
		}
	}

	if edgesOK {
		return domain.HashSuccess
	}
	if firstAttributable && lastAttributable {
		return domain.HashSuccess
	}
	return domain.HashFailed
}

func classifyTouch(result domain.VerifyResult, relPath string, absFirst, absLast int, pieceStatus map[int]domain.PieceStatus) {
	anyFail := false
	anyUnknown := false
	for idx := absFirst; idx <= absLast; idx++ {
		s, involved := pieceStatus[idx]
		if !involved {
			continue // never hashed and not shared with an absent file
		}
		switch s {
		case domain.PieceFail:
			anyFail = true
		case domain.PieceUnknown:
			anyUnknown = true
		}
	}
	switch {
	case anyFail:
		result.TouchStatus[relPath] = domain.TouchFailed
	case anyUnknown:
		result.TouchStatus[relPath] = domain.TouchSuccess
	}
}

func feedAccumulator(acc *pieceAccumulator, r io.ReaderAt, localStart, length int64) error {
	if acc.h == nil {
		acc.h = sha1.New()
	}

	buf := make([]byte, readBlockSize)
	remaining := length
	offset := localStart
	for remaining > 0 {
		n := int64(len(buf))
		if remaining < n {
			n = remaining
		}
		read, err := r.ReadAt(buf[:n], offset)
		if read > 0 {
			acc.h.Write(buf[:read])
			acc.bytesFed += int64(read)
			offset += int64(read)
			remaining -= int64(read)
		}
		if err != nil && err != io.EOF {
			return err
		}
		if err == io.EOF {
			break
		}
	}
	return nil
}

func matchesAny(basename string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := path.Match(strings.ToLower(p), strings.ToLower(basename)); ok {
			return true
		}
	}
	return false
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
