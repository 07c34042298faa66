// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/autoseed/autoseed/internal/client"
	"github.com/autoseed/autoseed/internal/domain"
	"github.com/autoseed/autoseed/internal/searchindex"
)

// NamedClient pairs a configured driver with the name it is indexed under.
type NamedClient struct {
	Name   string
	Client client.Client
}

// ScanClients indexes every configured client's reported torrents. If
// fullScan, each client's existing rows are truncated first; if fastScan,
// a torrent already present (with an unchanged download path) is skipped
// without re-fetching its file list.
func (x *Indexer) ScanClients(ctx context.Context, clients []NamedClient, fullScan, fastScan bool) error {
	for _, nc := range clients {
		if err := x.scanOneClient(ctx, nc, fullScan, fastScan); err != nil {
			log.Error().Err(err).Str("client", nc.Name).Msg("client scan failed")
		}
	}
	return nil
}

func (x *Indexer) scanOneClient(ctx context.Context, nc NamedClient, fullScan, fastScan bool) error {
	if fullScan {
		if err := searchindex.RemoveNonExisting(ctx, x.idx, nc.Name, nil); err != nil {
			return fmt.Errorf("truncate client %s: %w", nc.Name, err)
		}
	}

	summaries, err := nc.Client.List(ctx)
	if err != nil {
		return fmt.Errorf("list torrents from %s: %w", nc.Name, err)
	}

	observed := make([]string, 0, len(summaries))
	var toInsert []domain.ClientTorrent

	for _, s := range summaries {
		observed = append(observed, s.InfoHash)

		if fastScan {
			exists, storedPath, err := searchindex.HasTorrent(ctx, x.idx, nc.Name, s.InfoHash)
			if err != nil {
				log.Warn().Err(err).Str("client", nc.Name).Str("infohash", s.InfoHash).Msg("fast-scan lookup failed")
			} else if exists {
				downloadPath, err := nc.Client.GetDownloadPath(ctx, s.InfoHash)
				if err == nil && downloadPath == storedPath {
					continue
				}
			}
		}

		downloadPath, err := nc.Client.GetDownloadPath(ctx, s.InfoHash)
		if err != nil {
			log.Warn().Err(err).Str("client", nc.Name).Str("infohash", s.InfoHash).Msg("could not resolve download path")
			continue
		}

		files, err := nc.Client.GetFiles(ctx, s.InfoHash)
		if err != nil {
			log.Warn().Err(err).Str("client", nc.Name).Str("infohash", s.InfoHash).Msg("could not fetch file list")
			continue
		}

		torrentFiles := make([]domain.ClientTorrentFile, 0, len(files))
		for _, f := range files {
			abs := filepath.Join(downloadPath, f.RelativePath)
			resolved := abs
			if real, err := filepath.EvalSymlinks(abs); err == nil {
				resolved = real
			} else if !os.IsNotExist(err) {
				log.Debug().Err(err).Str("path", abs).Msg("symlink resolution failed")
			}
			torrentFiles = append(torrentFiles, domain.ClientTorrentFile{
				Path:         abs,
				ResolvedPath: resolved,
				Size:         f.Size,
			})
		}

		toInsert = append(toInsert, domain.ClientTorrent{
			ClientName:   nc.Name,
			InfoHash:     s.InfoHash,
			Name:         s.Name,
			DownloadPath: downloadPath,
			Files:        torrentFiles,
		})
	}

	if len(toInsert) > 0 {
		if err := searchindex.InsertClientTorrents(ctx, x.idx, nc.Name, toInsert); err != nil {
			return fmt.Errorf("insert client torrents for %s: %w", nc.Name, err)
		}
	}

	if err := searchindex.RemoveNonExisting(ctx, x.idx, nc.Name, observed); err != nil {
		return fmt.Errorf("remove stale torrents for %s: %w", nc.Name, err)
	}

	return nil
}
