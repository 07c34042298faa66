// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package inmemory is a test double implementing internal/client.Client
// entirely in memory, standing in for a download client during unit tests
// of the indexer and add pipeline.
package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/autoseed/autoseed/internal/client"
)

type torrentState struct {
	summary      client.TorrentSummary
	downloadPath string
	files        []client.TorrentFile
}

// Client is an in-memory client.Client fake. Zero value is ready to use.
type Client struct {
	mu       sync.Mutex
	torrents map[string]torrentState
	Added    []AddedTorrent
	Reachable bool
}

// AddedTorrent records a call to Add, for assertions in tests.
type AddedTorrent struct {
	TorrentBytes []byte
	RootPath     string
	FastResume   bool
	Stopped      bool
}

// New returns a ready-to-use fake, reachable by default.
func New() *Client {
	return &Client{
		torrents:  make(map[string]torrentState),
		Reachable: true,
	}
}

// Seed registers a torrent the fake should report via List/GetFiles.
func (c *Client) Seed(infoHash, name, downloadPath string, files []client.TorrentFile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.torrents[infoHash] = torrentState{
		summary:      client.TorrentSummary{InfoHash: infoHash, Name: name},
		downloadPath: downloadPath,
		files:        files,
	}
}

// Forget removes a previously seeded torrent, simulating the user removing
// it from the client out-of-band.
func (c *Client) Forget(infoHash string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.torrents, infoHash)
}

func (c *Client) List(ctx context.Context) ([]client.TorrentSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]client.TorrentSummary, 0, len(c.torrents))
	for _, t := range c.torrents {
		out = append(out, t.summary)
	}
	return out, nil
}

func (c *Client) GetDownloadPath(ctx context.Context, infoHash string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.torrents[infoHash]
	if !ok {
		return "", fmt.Errorf("unknown torrent %s", infoHash)
	}
	return t.downloadPath, nil
}

func (c *Client) GetFiles(ctx context.Context, infoHash string) ([]client.TorrentFile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.torrents[infoHash]
	if !ok {
		return nil, fmt.Errorf("unknown torrent %s", infoHash)
	}
	return t.files, nil
}

func (c *Client) Add(ctx context.Context, torrentBytes []byte, rootPath string, fastResume, stopped bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Added = append(c.Added, AddedTorrent{TorrentBytes: torrentBytes, RootPath: rootPath, FastResume: fastResume, Stopped: stopped})
	return nil
}

func (c *Client) Remove(ctx context.Context, infoHash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.torrents, infoHash)
	return nil
}

func (c *Client) TestConnection(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Reachable, nil
}
