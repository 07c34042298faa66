// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package rwcache

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/autoseed/autoseed/internal/stage"
)

// Cleanup implements cleanup_cache(): for every entry whose mtime is older
// than ttl, re-point every recorded target back at the original source and
// remove the entry. A missing or corrupt sidecar is a per-entry warning,
// not a fatal error, so one bad entry never blocks the rest of the sweep.
func (c *Cache) Cleanup(ttl time.Duration) error {
	entries, err := os.ReadDir(c.CachePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	cutoff := time.Now().Add(-ttl)

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(c.CachePath, entry.Name())

		info, err := entry.Info()
		if err != nil {
			log.Warn().Err(err).Str("entry", dir).Msg("rwcache cleanup: could not stat entry")
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		c.evict(dir)
	}

	return nil
}

// evict reverts every target recorded for dir's sidecar back to a direct
// link at the original source, then removes the cache entry.
func (c *Cache) evict(dir string) {
	sidecarPath := filepath.Join(dir, "autotorrent.json")
	sidecar, err := stage.ReadSidecar(sidecarPath)
	if err != nil {
		log.Warn().Err(err).Str("entry", dir).Msg("rwcache cleanup: missing or corrupt sidecar, skipping revert")
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			log.Warn().Err(rmErr).Str("entry", dir).Msg("rwcache cleanup: could not remove entry")
		}
		return
	}

	for _, target := range sidecar.TargetPaths {
		if _, err := os.Stat(target.Path); err != nil {
			continue
		}
		if err := os.Remove(target.Path); err != nil {
			log.Warn().Err(err).Str("target", target.Path).Msg("rwcache cleanup: could not remove stale link")
			continue
		}
		if err := relinkFromSource(target.Path, sidecar.SourcePath, target.LinkType); err != nil {
			log.Warn().Err(err).Str("target", target.Path).Msg("rwcache cleanup: could not revert link to source")
		}
	}

	if err := os.RemoveAll(dir); err != nil {
		log.Warn().Err(err).Str("entry", dir).Msg("rwcache cleanup: could not remove entry")
	}
}

func relinkFromSource(target, source, linkType string) error {
	return stage.CreateLink(target, source, stage.LinkType(linkType))
}
