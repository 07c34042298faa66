// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoseed/autoseed/internal/database"
	"github.com/autoseed/autoseed/internal/domain"
	"github.com/autoseed/autoseed/internal/searchindex"
)

func newTestIndexer(t *testing.T, ignoreDirs, ignoreFiles []string) (*Indexer, *searchindex.Index) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "autoseed.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	idx := searchindex.New(db)
	return New(idx, ignoreDirs, ignoreFiles, false), idx
}

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func TestScanPaths_BasicDiscovery(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "testfiles", "file_a.txt"), 16)
	writeFile(t, filepath.Join(root, "testfiles", "file_b.txt"), 16)

	x, idx := newTestIndexer(t, nil, nil)
	require.NoError(t, x.ScanPaths(context.Background(), []string{root}, true))

	results, err := searchindex.Search(context.Background(), idx, domain.SearchQuery{Filename: "file_a.txt"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(16), results[0].Size)
}

func TestScanPaths_UnsplittableRootPropagatesToSubdirectories(t *testing.T) {
	root := t.TempDir()
	bdmvDir := filepath.Join(root, "Release.2024", "BDMV")
	writeFile(t, filepath.Join(bdmvDir, "MovieObject.bdmv"), 4)
	writeFile(t, filepath.Join(bdmvDir, "STREAM", "00000.m2ts"), 1024)

	x, idx := newTestIndexer(t, nil, nil)
	require.NoError(t, x.ScanPaths(context.Background(), []string{root}, true))

	results, err := searchindex.Search(context.Background(), idx, domain.SearchQuery{Filename: "00000.m2ts"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, filepath.Join(root, "Release.2024"), results[0].UnsplittableRoot)
}

func TestScanPaths_IgnorePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep", "a.txt"), 1)
	writeFile(t, filepath.Join(root, ".git", "b.txt"), 1)
	writeFile(t, filepath.Join(root, "keep", "skip.tmp"), 1)

	x, idx := newTestIndexer(t, []string{".git"}, []string{"*.tmp"})
	require.NoError(t, x.ScanPaths(context.Background(), []string{root}, true))

	results, err := searchindex.Search(context.Background(), idx, domain.SearchQuery{Parent: filepath.Join(root, "keep")})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a.txt", results[0].Name)
}

func TestAggregator_LastTouchTracksMostRecentProgress(t *testing.T) {
	agg := newAggregator()
	stale := time.Now().Add(-1 * time.Hour)
	fresh := time.Now()

	agg.touch("/roots/a", stale)
	agg.touch("/roots/b", fresh)

	assert.True(t, agg.lastTouch("/roots/a").Before(time.Now().Add(-deadWorkerTimeout)))
	assert.False(t, agg.lastTouch("/roots/b").Before(time.Now().Add(-deadWorkerTimeout)))

	// Re-touching the same root advances its progress.
	agg.touch("/roots/a", fresh)
	assert.False(t, agg.lastTouch("/roots/a").Before(time.Now().Add(-deadWorkerTimeout)))
}
