// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package core wires the search index, indexer, matchers, verifier,
// stager, and RW cache into the add_torrent control flow: torrent bytes
// -> decode -> Torrent -> (exact or dynamic) match against Index ->
// piece-boundary verify -> classify each matched file as link /
// cache-link / copy -> staging -> hand staged root to external client.
package core

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/autoseed/autoseed/internal/client"
	"github.com/autoseed/autoseed/internal/database"
	"github.com/autoseed/autoseed/internal/domain"
	"github.com/autoseed/autoseed/internal/indexer"
	"github.com/autoseed/autoseed/internal/match"
	"github.com/autoseed/autoseed/internal/pieceverify"
	"github.com/autoseed/autoseed/internal/rwcache"
	"github.com/autoseed/autoseed/internal/searchindex"
	"github.com/autoseed/autoseed/internal/stage"
	"github.com/autoseed/autoseed/internal/torrentfile"
)

// Engine is the process-wide handle onto the matching/staging core.
type Engine struct {
	cfg     *domain.Config
	db      *database.DB
	index   *searchindex.Index
	indexer *indexer.Indexer
	cache   *rwcache.Cache
	clients map[string]client.Client
}

// Open opens the search index database and builds an Engine ready to
// scan, match, and stage against cfg. clients is keyed by the client name
// used in config and in client_torrents rows.
func Open(cfg *domain.Config, clients map[string]client.Client) (*Engine, error) {
	dbPath := filepath.Join(cfg.DataDir, "autoseed.db")
	db, err := database.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open search index: %w", err)
	}

	idx := searchindex.New(db)
	ix := indexer.New(idx, cfg.IgnoreDirectoryPatterns, cfg.IgnoreFilePatterns, cfg.CompatibilityMode)
	cache := rwcache.New(cfg.CachePath)

	return &Engine{cfg: cfg, db: db, index: idx, indexer: ix, cache: cache, clients: clients}, nil
}

// Close releases the search index database.
func (e *Engine) Close() error {
	return e.db.Close()
}

// Scan walks every configured root and (re)indexes its files.
func (e *Engine) Scan(ctx context.Context, fullScan bool) error {
	return e.indexer.ScanPaths(ctx, e.cfg.ScanPaths, fullScan)
}

// Watch runs an fsnotify-driven re-scan loop over the configured roots
// until ctx is cancelled.
func (e *Engine) Watch(ctx context.Context, delay time.Duration) error {
	w, err := indexer.NewWatcher(e.indexer, e.cfg.ScanPaths, delay)
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	return w.Run(ctx)
}

// ScanClients indexes every configured client's reported torrents.
func (e *Engine) ScanClients(ctx context.Context, fullScan, fastScan bool) error {
	named := make([]indexer.NamedClient, 0, len(e.clients))
	for name, c := range e.clients {
		named = append(named, indexer.NamedClient{Name: name, Client: c})
	}
	return e.indexer.ScanClients(ctx, named, fullScan, fastScan)
}

// CleanupCache reverts and deletes RW-cache entries idle longer than the
// configured TTL.
func (e *Engine) CleanupCache() error {
	ttl := time.Duration(e.cfg.CacheTTLSeconds) * time.Second
	return e.cache.Cleanup(ttl)
}

// AddResult is the outcome of a single AddTorrent call.
type AddResult struct {
	InfoHash  string
	StorePath string
	Matched   bool
	// MissingSize is non-zero only for a dynamic match with tolerated gaps.
	MissingSize int64
}

// AddOptions carries the per-request template variables and target client.
type AddOptions struct {
	ClientName    string
	TemplateVars  stage.TemplateVars
	FastResume    bool
	Stopped       bool
	DryRun        bool
}

// AddTorrent runs the full control flow for one torrent: parse, match
// (exact, falling back to dynamic), verify, classify, stage, and hand the
// staged root to the named client.
func (e *Engine) AddTorrent(ctx context.Context, torrentBytes []byte, opts AddOptions) (*AddResult, error) {
	t, err := torrentfile.Parse(torrentBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrParseTorrent, err)
	}

	c, ok := e.clients[opts.ClientName]
	if !ok {
		return nil, fmt.Errorf("unknown client %q", opts.ClientName)
	}

	idx := match.NewIndex(e.index)

	mapping, missingSize, err := e.resolveMapping(ctx, idx, t)
	if err != nil {
		return nil, err
	}

	if err := e.warnIfAlreadySeeded(ctx, mapping); err != nil {
		log.Warn().Err(err).Str("infohash", t.InfoHash).Msg("could not check for already-seeded paths")
	}

	verifyResult, err := pieceverify.VerifyHash(t, mapping, e.cfg.AlwaysVerifyPatterns, pieceverify.OSAccessor{})
	if err != nil {
		return nil, fmt.Errorf("piece verify: %w", err)
	}

	fileMapping := e.classifyFiles(t, mapping, verifyResult)

	if opts.DryRun {
		return &AddResult{InfoHash: t.InfoHash, Matched: true, MissingSize: missingSize}, nil
	}

	result, err := stage.Stage(stage.Request{
		Root:              e.cfg.DataDir,
		StoreTemplate:     e.cfg.StoreTemplate,
		Vars:              opts.TemplateVars,
		TorrentBytes:      torrentBytes,
		FileMapping:       fileMapping,
		LinkType:          stage.LinkType(e.cfg.LinkType),
		SkipStoreMetadata: e.cfg.SkipStoreMetadata,
		Cache:             e.cache,
	})
	if err != nil {
		return nil, fmt.Errorf("stage: %w", err)
	}

	if err := c.Add(ctx, torrentBytes, result.DataRoot, opts.FastResume, opts.Stopped); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrClientRejected, err)
	}

	return &AddResult{InfoHash: t.InfoHash, StorePath: result.StorePath, Matched: true, MissingSize: missingSize}, nil
}

// resolveMapping tries the exact matcher first, falling back to the
// dynamic matcher, and returns a torrent-relative-path -> absolute-path
// mapping covering every present file.
func (e *Engine) resolveMapping(ctx context.Context, idx match.Index, t *domain.Torrent) (map[string]string, int64, error) {
	exact, err := match.ExactMatch(ctx, idx, t)
	if err != nil {
		return nil, 0, fmt.Errorf("exact match: %w", err)
	}
	if exact.Matched {
		mapping := make(map[string]string, len(t.FileList))
		for _, f := range t.FileList {
			mapping[f.Path] = filepath.Join(exact.Root, filepath.FromSlash(f.Path))
		}
		return mapping, 0, nil
	}

	dyn, err := match.DynamicMatch(ctx, idx, t, match.DynamicOptions{
		MatchHashSize:   e.cfg.MatchHashSize,
		AddLimitSize:    e.cfg.AddLimitSize,
		AddLimitPercent: e.cfg.AddLimitPercent,
		HashProbe:       e.cfg.HashProbe,
		Accessor:        pieceverify.OSAccessor{},
	})
	if err != nil {
		return nil, 0, fmt.Errorf("dynamic match: %w", err)
	}
	if !dyn.Success {
		return nil, dyn.MissingSize, fmt.Errorf("%w: missing %d bytes", domain.ErrMatchMiss, dyn.MissingSize)
	}

	mapping := make(map[string]string, len(dyn.MatchedFiles))
	for relPath, fm := range dyn.MatchedFiles {
		if fm.Present {
			mapping[relPath] = fm.Path
		}
	}
	return mapping, dyn.MissingSize, nil
}

// classifyFiles turns a resolved mapping plus verify result into the
// stage.FileAction set: touched files that failed verification go through
// the RW cache instead of being linked directly, since the link would
// otherwise have to be hash-fix-copied and would mutate the shared source.
func (e *Engine) classifyFiles(t *domain.Torrent, mapping map[string]string, verify domain.VerifyResult) map[string]stage.FileAction {
	out := make(map[string]stage.FileAction, len(t.FileList))
	for _, f := range t.FileList {
		source, ok := mapping[f.Path]
		if !ok {
			continue
		}

		action := stage.ActionLink
		if verify.TouchStatus[f.Path] == domain.TouchFailed || verify.HashStatus[f.Path] == domain.HashFailed {
			action = stage.ActionCacheLink
		}

		out[f.Path] = stage.FileAction{Action: action, Source: source}
	}
	return out
}

// warnIfAlreadySeeded logs a warning for any matched file already tracked
// as seeded by a client, so operators notice before a duplicate add wastes
// disk space relinking a file another torrent is already responsible for.
func (e *Engine) warnIfAlreadySeeded(ctx context.Context, mapping map[string]string) error {
	paths := make([]string, 0, len(mapping))
	for _, p := range mapping {
		paths = append(paths, p)
	}

	seeded, err := searchindex.GetSeededPaths(ctx, e.index, paths)
	if err != nil {
		return err
	}
	for _, s := range seeded {
		log.Warn().
			Str("path", s.Path).
			Str("client", s.ClientName).
			Str("existing_torrent", s.Name).
			Msg("file already seeded by another client torrent")
	}
	return nil
}
