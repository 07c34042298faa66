// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

import "errors"

// Sentinel errors identifying the taxonomy from the error-handling design:
// each is meant to be wrapped with context via fmt.Errorf("...: %w", ...)
// and tested for with errors.Is.
var (
	// ErrParseTorrent marks a malformed .torrent; the add request for this
	// torrent aborts, but a batch of adds continues with the next one.
	ErrParseTorrent = errors.New("failed to parse torrent")

	// ErrIndexing marks a per-directory OS error encountered by the
	// indexer; the scan logs it and continues into the next directory.
	ErrIndexing = errors.New("indexing error")

	// ErrMatchMiss marks a match attempt that didn't clear the
	// missing-size threshold.
	ErrMatchMiss = errors.New("no match: missing data exceeds threshold")

	// ErrStageConflict marks a store directory that already exists --
	// used as the staging concurrency guard (another instance won the
	// race, or a stale store from a previous attempt).
	ErrStageConflict = errors.New("store path already exists")

	// ErrStagePermission marks a store directory the process could not
	// create or write to.
	ErrStagePermission = errors.New("store path inaccessible")

	// ErrClientRejected marks a download client that rejected an add
	// request; the store directory that was already staged is not rolled
	// back.
	ErrClientRejected = errors.New("client rejected torrent")

	// ErrHashMismatch marks a file that failed its always-verified piece
	// hash check.
	ErrHashMismatch = errors.New("hash mismatch on verified file")
)
