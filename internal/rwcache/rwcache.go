// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package rwcache implements the read-write (touched-file) cache: files
// that straddle a piece boundary with absent data are copied once into a
// cache entry, then linked from there into every staged torrent that
// references them, so the original on-disk file is never mutated.
package rwcache

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/autoseed/autoseed/internal/stage"
)

// Cache is the RW touched-file cache rooted at CachePath.
type Cache struct {
	CachePath string
}

// New builds a Cache rooted at cachePath.
func New(cachePath string) *Cache {
	return &Cache{CachePath: cachePath}
}

// entryDir derives cache_path/<name_fingerprint>__<sha1_of_full_path>/ for
// source, so repeated cache_file calls for the same source resolve to the
// same entry.
func (c *Cache) entryDir(source string) string {
	sum := sha1.Sum([]byte(source))
	fingerprint := filepath.Base(source)
	if len(fingerprint) > 48 {
		fingerprint = fingerprint[:48]
	}
	return filepath.Join(c.CachePath, fmt.Sprintf("%s__%s", fingerprint, hex.EncodeToString(sum[:])))
}

// CacheFile implements cache_file(path, target, link_type): ensures source
// is copied into its cache entry (creating the entry on first use),
// records target as one of its linked-from paths, refreshes the entry's
// mtime, and returns the cache's data-file path to link from.
func (c *Cache) CacheFile(source, targetPath string, linkType string) (string, error) {
	dir := c.entryDir(source)
	dataPath := filepath.Join(dir, "data", filepath.Base(source))
	sidecarPath := filepath.Join(dir, "autotorrent.json")

	created := false
	if err := os.MkdirAll(filepath.Join(dir, "data"), 0o755); err != nil {
		return "", fmt.Errorf("create cache entry dir: %w", err)
	}
	if _, err := os.Stat(dataPath); errors.Is(err, os.ErrNotExist) {
		if err := copyFile(dataPath, source); err != nil {
			return "", fmt.Errorf("populate cache entry: %w", err)
		}
		created = true
	} else if err != nil {
		return "", fmt.Errorf("stat cache entry: %w", err)
	}

	sidecar := stage.Sidecar{SourcePath: source}
	if !created {
		if existing, err := stage.ReadSidecar(sidecarPath); err == nil {
			sidecar = existing
		}
	}
	sidecar.TargetPaths = append(sidecar.TargetPaths, stage.SidecarTarget{Path: targetPath, LinkType: linkType})
	if err := stage.WriteSidecar(sidecarPath, sidecar); err != nil {
		return "", err
	}

	now := time.Now()
	if err := os.Chtimes(dir, now, now); err != nil {
		log.Warn().Err(err).Str("entry", dir).Msg("rwcache: could not refresh entry mtime")
	}

	return dataPath, nil
}

func copyFile(dst, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
