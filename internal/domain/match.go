// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

// ExactMatchResult is the outcome of the exact matcher: a single root
// directory where every torrent file exists at its literal relative path
// with a matching size.
type ExactMatchResult struct {
	Matched bool
	Root    string
}

// FileMapping records, for one torrent-relative path, whether a matching
// file was found on disk and where. A present key with an empty Path
// (Present=false) represents "unmatched" per the dynamic matcher's
// contract that matched_files always covers every torrent file.
type FileMapping struct {
	Present bool
	Path    string
}

// DynamicMatchResult is the outcome of the dynamic matcher.
type DynamicMatchResult struct {
	Success bool

	// MissingSize is the total size of torrent bytes that could not be
	// matched to any file on disk.
	MissingSize int64

	// MatchedFiles covers exactly the torrent's filelist: every torrent
	// file path is a key, whether or not it was matched.
	MatchedFiles map[string]FileMapping

	// TouchedFiles are torrent-relative paths that must be copied rather
	// than linked because they share a piece boundary with an absent or
	// failed file.
	TouchedFiles map[string]struct{}
}

// HashStatus is the per-file verdict of a piece-boundary hash check.
type HashStatus int

const (
	HashUnknown HashStatus = iota
	HashSuccess
	HashFailed
)

func (s HashStatus) String() string {
	switch s {
	case HashSuccess:
		return "hash-success"
	case HashFailed:
		return "hash-failed"
	default:
		return "hash-unknown"
	}
}

// TouchStatus is the per-file verdict for files that were not directly
// hash-checked but share a piece with one that was absent or failed.
type TouchStatus int

const (
	TouchUnknown TouchStatus = iota
	TouchSuccess
	TouchFailed
)

func (s TouchStatus) String() string {
	switch s {
	case TouchSuccess:
		return "touch-success"
	case TouchFailed:
		return "touch-failed"
	default:
		return "touch-unknown"
	}
}

// PieceStatus is the tri-state verdict for a single piece during
// verification: unknown (not yet decided, or touches an absent file),
// or a definite pass/fail.
type PieceStatus int

const (
	PieceUnknown PieceStatus = iota
	PiecePass
	PieceFail
)

// VerifyResult is the combined output of the piece-boundary hash verifier.
type VerifyResult struct {
	HashStatus  map[string]HashStatus  // keyed by torrent-relative path
	TouchStatus map[string]TouchStatus // keyed by torrent-relative path
}
