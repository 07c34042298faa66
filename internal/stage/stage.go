// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package stage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/autoseed/autoseed/internal/domain"
	"github.com/autoseed/autoseed/pkg/pathutil"
)

// Action selects how a single torrent-relative file is materialized into
// the store.
type Action int

const (
	// ActionLink creates a link of the configured LinkType pointing at
	// Source.
	ActionLink Action = iota
	// ActionCacheLink copies Source into the RW cache and links from the
	// cache entry into the store.
	ActionCacheLink
	// ActionCopy performs a physical byte copy of Source.
	ActionCopy
)

// FileAction is what to do for one torrent-relative path, and where its
// bytes currently live on disk.
type FileAction struct {
	Action Action
	Source string
}

// CacheLinker resolves a cache_link action to an actual on-disk source
// path, caching the file first if needed. Implemented by
// internal/rwcache.Cache.
type CacheLinker interface {
	CacheFile(source, targetPath string, linkType string) (cachedPath string, err error)
}

// Request describes one staging operation: render the store path, lay
// down metadata, and materialize every file in FileMapping.
type Request struct {
	Root          string // base directory the rendered store template is joined to
	StoreTemplate string
	Vars          TemplateVars

	TorrentFilePath string // path to the source .torrent file, for the metadata copy
	TorrentBytes    []byte

	FileMapping map[string]FileAction // torrent-relative path -> action/source

	LinkType          LinkType
	SkipStoreMetadata bool

	Cache CacheLinker // required when FileMapping contains ActionCacheLink
}

// Result is the outcome of a successful Stage call.
type Result struct {
	StorePath string
	DataRoot  string
}

// Stage renders the store template, creates the store directory as a
// concurrency guard, lays down metadata, and materializes every file.
func Stage(req Request) (Result, error) {
	storePath := filepath.Join(req.Root, Render(req.StoreTemplate, req.Vars))

	if err := createStoreDir(storePath); err != nil {
		return Result{}, err
	}

	dataRoot := storePath
	if !req.SkipStoreMetadata {
		dataRoot = filepath.Join(storePath, "data")
		if err := os.MkdirAll(dataRoot, 0o755); err != nil {
			return Result{}, fmt.Errorf("%w: create data dir: %v", domain.ErrStagePermission, err)
		}

		if req.TorrentFilePath != "" {
			torrentCopyPath := filepath.Join(storePath, filepath.Base(req.TorrentFilePath))
			if err := copyFile(torrentCopyPath, req.TorrentFilePath); err != nil {
				return Result{}, fmt.Errorf("copy .torrent metadata: %w", err)
			}
		} else if len(req.TorrentBytes) > 0 {
			name := pathutil.SanitizePathSegment(req.Vars.TorrentName)
			if name == "" {
				name = "torrent"
			}
			torrentCopyPath := filepath.Join(storePath, name+".torrent")
			if err := os.WriteFile(torrentCopyPath, req.TorrentBytes, 0o644); err != nil {
				return Result{}, fmt.Errorf("write .torrent metadata: %w", err)
			}
		}

		sidecar := buildSidecar(req)
		if err := WriteSidecar(filepath.Join(storePath, "autotorrent.json"), sidecar); err != nil {
			return Result{}, err
		}
	}

	for relPath, action := range req.FileMapping {
		if err := EnsureRelative(relPath); err != nil {
			return Result{}, err
		}
		target := filepath.Join(dataRoot, filepath.FromSlash(relPath))
		if err := materialize(target, action, req); err != nil {
			return Result{}, fmt.Errorf("materialize %s: %w", relPath, err)
		}
	}

	return Result{StorePath: storePath, DataRoot: dataRoot}, nil
}

// createStoreDir creates path via MkdirAll for its parents and a final
// Mkdir for path itself, so an existing store directory (another instance
// winning the race, or a stale store) is reported as ErrStageConflict.
func createStoreDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStagePermission, err)
	}
	if err := os.Mkdir(path, 0o755); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", domain.ErrStageConflict, path)
		}
		return fmt.Errorf("%w: %v", domain.ErrStagePermission, err)
	}
	return nil
}

func materialize(target string, action FileAction, req Request) error {
	switch action.Action {
	case ActionLink:
		return createLink(target, action.Source, req.LinkType)

	case ActionCacheLink:
		if req.Cache == nil {
			return fmt.Errorf("cache_link action requires a configured cache")
		}
		cachedPath, err := req.Cache.CacheFile(action.Source, target, string(req.LinkType))
		if err != nil {
			return fmt.Errorf("cache file: %w", err)
		}
		return createLink(target, cachedPath, req.LinkType)

	case ActionCopy:
		return copyFile(target, action.Source)

	default:
		return fmt.Errorf("unknown action %d", action.Action)
	}
}

func buildSidecar(req Request) Sidecar {
	sc := Sidecar{SourcePath: req.TorrentFilePath}
	for relPath, action := range req.FileMapping {
		sc.TargetPaths = append(sc.TargetPaths, SidecarTarget{
			Path:     relPath,
			LinkType: linkTypeForAction(action, req.LinkType),
		})
	}
	return sc
}

func linkTypeForAction(action FileAction, linkType LinkType) string {
	if action.Action == ActionCopy {
		return "copy"
	}
	return string(linkType)
}

// EnsureRelative rejects a torrent-relative path that attempts to escape
// its data root via ".." segments, guarding the filesystem writes above.
func EnsureRelative(relPath string) error {
	for _, seg := range strings.Split(filepath.ToSlash(relPath), "/") {
		if seg == ".." {
			return fmt.Errorf("path %q escapes its data root", relPath)
		}
	}
	return nil
}
