// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package qbittorrent is the production internal/client.Client driver,
// backed by github.com/autobrr/go-qbittorrent. Network calls are wrapped
// with github.com/avast/retry-go since the client scan and add pipeline
// must tolerate transient qBittorrent WebUI hiccups without failing a
// whole batch.
package qbittorrent

import (
	"context"
	"fmt"
	"time"

	qbt "github.com/autobrr/go-qbittorrent"
	"github.com/avast/retry-go"
	"github.com/rs/zerolog/log"

	"github.com/autoseed/autoseed/internal/client"
)

// Driver adapts a qbt.Client to internal/client.Client.
type Driver struct {
	name string
	qb   *qbt.Client
}

// Config is the subset of domain.ClientConfig the driver needs to connect.
type Config struct {
	Name     string
	Host     string
	Username string
	Password string
}

// New dials and authenticates against a qBittorrent WebUI instance.
func New(ctx context.Context, cfg Config) (*Driver, error) {
	qb := qbt.NewClient(qbt.Config{
		Host:     cfg.Host,
		Username: cfg.Username,
		Password: cfg.Password,
		Timeout:  30,
	})

	if err := withRetry(ctx, func() error {
		return qb.LoginCtx(ctx)
	}); err != nil {
		return nil, fmt.Errorf("login to qbittorrent %s (%s): %w", cfg.Name, cfg.Host, err)
	}

	return &Driver{name: cfg.Name, qb: qb}, nil
}

func (d *Driver) List(ctx context.Context) ([]client.TorrentSummary, error) {
	var torrents []qbt.Torrent
	err := withRetry(ctx, func() error {
		var listErr error
		torrents, listErr = d.qb.GetTorrentsCtx(ctx, qbt.TorrentFilterOptions{})
		return listErr
	})
	if err != nil {
		return nil, fmt.Errorf("list torrents from %s: %w", d.name, err)
	}

	out := make([]client.TorrentSummary, 0, len(torrents))
	for _, t := range torrents {
		out = append(out, client.TorrentSummary{InfoHash: t.Hash, Name: t.Name})
	}
	return out, nil
}

func (d *Driver) GetDownloadPath(ctx context.Context, infoHash string) (string, error) {
	var torrents []qbt.Torrent
	err := withRetry(ctx, func() error {
		var listErr error
		torrents, listErr = d.qb.GetTorrentsCtx(ctx, qbt.TorrentFilterOptions{Hashes: []string{infoHash}})
		return listErr
	})
	if err != nil {
		return "", fmt.Errorf("resolve download path for %s on %s: %w", infoHash, d.name, err)
	}
	if len(torrents) == 0 {
		return "", fmt.Errorf("torrent %s not found on %s", infoHash, d.name)
	}
	return torrents[0].SavePath, nil
}

func (d *Driver) GetFiles(ctx context.Context, infoHash string) ([]client.TorrentFile, error) {
	var files qbt.TorrentFiles
	err := withRetry(ctx, func() error {
		f, filesErr := d.qb.GetFilesInformationCtx(ctx, infoHash)
		if f != nil {
			files = *f
		}
		return filesErr
	})
	if err != nil {
		return nil, fmt.Errorf("get files for %s on %s: %w", infoHash, d.name, err)
	}

	out := make([]client.TorrentFile, 0, len(files))
	for _, f := range files {
		out = append(out, client.TorrentFile{RelativePath: f.Name, Size: f.Size})
	}
	return out, nil
}

func (d *Driver) Add(ctx context.Context, torrentBytes []byte, rootPath string, fastResume, stopped bool) error {
	options := map[string]string{
		"savepath": rootPath,
	}
	if stopped {
		options["stopped"] = "true"
	}
	if fastResume {
		options["skip_checking"] = "true"
	}

	err := withRetry(ctx, func() error {
		return d.qb.AddTorrentFromMemoryCtx(ctx, torrentBytes, options)
	})
	if err != nil {
		return fmt.Errorf("add torrent to %s: %w", d.name, err)
	}
	return nil
}

func (d *Driver) Remove(ctx context.Context, infoHash string) error {
	err := withRetry(ctx, func() error {
		return d.qb.DeleteTorrentsCtx(ctx, []string{infoHash}, false)
	})
	if err != nil {
		return fmt.Errorf("remove torrent %s from %s: %w", infoHash, d.name, err)
	}
	return nil
}

func (d *Driver) TestConnection(ctx context.Context) (bool, error) {
	err := withRetry(ctx, func() error {
		return d.qb.LoginCtx(ctx)
	})
	if err != nil {
		log.Warn().Err(err).Str("client", d.name).Msg("qbittorrent connection test failed")
		return false, nil
	}
	return true, nil
}

func withRetry(ctx context.Context, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(200*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
	)
}
