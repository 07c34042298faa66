// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package client defines the download-client driver contract consumed by
// the indexer's client scan and by the add/stage pipeline, plus an
// in-memory fake for tests and the production qBittorrent driver under
// internal/client/qbittorrent.
package client

import "context"

// TorrentSummary is one row from a client's torrent list.
type TorrentSummary struct {
	InfoHash string
	Name     string
}

// TorrentFile is one file reported by a client for a given torrent.
type TorrentFile struct {
	RelativePath string
	Size         int64
}

// Client is the capability surface every download-client driver must
// implement.
type Client interface {
	// List returns every torrent currently known to the client.
	List(ctx context.Context) ([]TorrentSummary, error)

	// GetDownloadPath returns the torrent's save path (root under which
	// its files live).
	GetDownloadPath(ctx context.Context, infoHash string) (string, error)

	// GetFiles returns the torrent's file list, relative paths and sizes.
	GetFiles(ctx context.Context, infoHash string) ([]TorrentFile, error)

	// Add submits a new torrent. fastResume hints the client to skip
	// re-checking; stopped adds the torrent without starting it.
	Add(ctx context.Context, torrentBytes []byte, rootPath string, fastResume, stopped bool) error

	// Remove deletes a torrent from the client (not its on-disk data).
	Remove(ctx context.Context, infoHash string) error

	// TestConnection verifies the client is reachable and authenticated.
	TestConnection(ctx context.Context) (bool, error)
}
