// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package indexer implements the filesystem and client scans: one worker
// per configured root walking concurrently via golang.org/x/sync/errgroup,
// aggregating file and directory observations so unsplittable release roots can be
// assigned once a directory's children are fully known, then flattened
// into batched search-index inserts.
package indexer

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/autoseed/autoseed/internal/normalize"
	"github.com/autoseed/autoseed/internal/searchindex"
)

// deadWorkerTimeout is how long a root walker may go without visiting a
// new directory before it's logged as possibly stuck.
const deadWorkerTimeout = 10 * time.Second

// Indexer walks configured roots and download-client torrent lists into
// the search index.
type Indexer struct {
	idx                *searchindex.Index
	ignoreDirPatterns  []string
	ignoreFilePatterns []string
	compatibilityMode  bool
}

// New builds an Indexer writing into idx.
func New(idx *searchindex.Index, ignoreDirPatterns, ignoreFilePatterns []string, compatibilityMode bool) *Indexer {
	return &Indexer{
		idx:                idx,
		ignoreDirPatterns:  ignoreDirPatterns,
		ignoreFilePatterns: ignoreFilePatterns,
		compatibilityMode:  compatibilityMode,
	}
}

// ScanPaths walks every root concurrently (one worker per root) and
// inserts discovered files into the search index. If fullScan, all
// existing file entries are truncated first.
func (x *Indexer) ScanPaths(ctx context.Context, roots []string, fullScan bool) error {
	if fullScan {
		if err := searchindex.TruncateFiles(ctx, x.idx); err != nil {
			return err
		}
	}

	agg := newAggregator()
	now := time.Now()
	for _, root := range roots {
		agg.touch(filepath.Clean(root), now)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, root := range roots {
		root := filepath.Clean(root)
		g.Go(func() error {
			x.walkDir(gctx, root, root, agg)
			return nil
		})
	}

	watchdogDone := make(chan struct{})
	go watchDeadWorkers(roots, agg, watchdogDone)
	err := g.Wait()
	close(watchdogDone)
	if err != nil {
		return err
	}

	records := agg.finalize()
	if x.compatibilityMode {
		for i := range records {
			records[i].Name = normalize.RepairUTF8(records[i].Name)
			records[i].ParentPath = normalize.RepairUTF8(records[i].ParentPath)
		}
	}

	return searchindex.InsertFiles(ctx, x.idx, records, 1000)
}

// walkDir recurses into dir, tolerating per-directory OS errors by logging
// and continuing rather than aborting the whole scan. root identifies
// which top-level worker this call belongs to, for dead-worker detection.
func (x *Indexer) walkDir(ctx context.Context, root, dir string, agg *aggregator) {
	if ctx.Err() != nil {
		return
	}
	agg.touch(root, time.Now())

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("indexing error, skipping subtree")
		return
	}

	var fileNames []string
	var subdirs []string

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			if matchesAnyFold(name, x.ignoreDirPatterns) {
				continue
			}
			subdirs = append(subdirs, filepath.Join(dir, name))
			continue
		}
		if matchesAny(name, x.ignoreFilePatterns) {
			continue
		}
		fileNames = append(fileNames, name)

		info, infoErr := e.Info()
		if infoErr != nil {
			log.Warn().Err(infoErr).Str("path", filepath.Join(dir, name)).Msg("indexing error, skipping file")
			continue
		}
		agg.addFile(pendingFile{name: name, parentPath: dir, size: info.Size()})
	}

	if normalize.IsUnsplittableDirectory(fileNames) {
		root := joinParts(normalize.UnsplittableRoot(splitPath(dir)))
		agg.addUnsplittableDir(dir, root)
	}

	for _, sd := range subdirs {
		x.walkDir(ctx, root, sd, agg)
	}
}

// watchDeadWorkers polls every deadWorkerTimeout for root walkers that
// haven't visited a new directory since the last tick, logs them, and
// stops tracking them so a genuinely slow (but alive) walker isn't
// re-logged on every subsequent tick. It does not cancel the walker;
// its results are still collected normally once it eventually finishes.
func watchDeadWorkers(roots []string, agg *aggregator, done <-chan struct{}) {
	live := make(map[string]struct{}, len(roots))
	for _, root := range roots {
		live[filepath.Clean(root)] = struct{}{}
	}

	ticker := time.NewTicker(deadWorkerTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-deadWorkerTimeout)
			for root := range live {
				if agg.lastTouch(root).Before(cutoff) {
					log.Warn().Str("root", root).Dur("timeout", deadWorkerTimeout).
						Msg("indexer worker made no progress within timeout, dropping from liveness tracking")
					delete(live, root)
				}
			}
		}
	}
}

type pendingFile struct {
	name       string
	parentPath string
	size       int64
}

type unsplittableDir struct {
	dirPath  string
	rootPath string
}

// aggregator is the mutex-guarded collection point: root-walker goroutines
// append file and unsplittable-directory observations independently;
// finalize resolves each file's unsplittable_root once every root has
// finished, so a root discovered deep in a subtree still reaches files
// recorded earlier under it.
type aggregator struct {
	mu               sync.Mutex
	files            []pendingFile
	unsplittableDirs []unsplittableDir
	lastTouched      map[string]time.Time
}

func newAggregator() *aggregator {
	return &aggregator{lastTouched: make(map[string]time.Time)}
}

// touch records that root's walker made progress at t.
func (a *aggregator) touch(root string, t time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastTouched[root] = t
}

// lastTouch returns the last time root's walker made progress.
func (a *aggregator) lastTouch(root string) time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastTouched[root]
}

func (a *aggregator) addFile(f pendingFile) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.files = append(a.files, f)
}

func (a *aggregator) addUnsplittableDir(dirPath, rootPath string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.unsplittableDirs = append(a.unsplittableDirs, unsplittableDir{dirPath: dirPath, rootPath: rootPath})
}

func (a *aggregator) finalize() []searchindex.FileRecord {
	a.mu.Lock()
	defer a.mu.Unlock()

	records := make([]searchindex.FileRecord, 0, len(a.files))
	for _, f := range a.files {
		records = append(records, searchindex.FileRecord{
			Name:             f.name,
			ParentPath:       f.parentPath,
			Size:             f.size,
			UnsplittableRoot: a.unsplittableRootFor(f.parentPath),
		})
	}
	return records
}

// unsplittableRootFor returns the release root recorded for the deepest
// (longest-path) unsplittable directory that is an ancestor of, or equal
// to, parentPath.
func (a *aggregator) unsplittableRootFor(parentPath string) string {
	best := ""
	bestLen := -1
	for _, u := range a.unsplittableDirs {
		if u.dirPath == parentPath || strings.HasPrefix(parentPath, u.dirPath+string(filepath.Separator)) {
			if len(u.dirPath) > bestLen {
				best = u.rootPath
				bestLen = len(u.dirPath)
			}
		}
	}
	return best
}

func matchesAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := path.Match(p, name); ok {
			return true
		}
	}
	return false
}

func matchesAnyFold(name string, patterns []string) bool {
	lower := strings.ToLower(name)
	for _, p := range patterns {
		if ok, _ := path.Match(strings.ToLower(p), lower); ok {
			return true
		}
	}
	return false
}

func splitPath(p string) []string {
	slashed := filepath.ToSlash(filepath.Clean(p))
	return strings.Split(strings.TrimPrefix(slashed, "/"), "/")
}

func joinParts(parts []string) string {
	return "/" + strings.Join(parts, "/")
}
