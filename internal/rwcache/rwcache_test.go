// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package rwcache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoseed/autoseed/internal/stage"
)

func TestCacheFile_CreatesEntryAndAppendsTargets(t *testing.T) {
	cacheRoot := t.TempDir()
	sourceDir := t.TempDir()
	source := filepath.Join(sourceDir, "a.bin")
	require.NoError(t, os.WriteFile(source, []byte("payload"), 0o644))

	c := New(cacheRoot)

	dataPath1, err := c.CacheFile(source, "/store1/a.bin", "hardlink")
	require.NoError(t, err)
	dataPath2, err := c.CacheFile(source, "/store2/a.bin", "hardlink")
	require.NoError(t, err)

	assert.Equal(t, dataPath1, dataPath2, "repeated cache_file for the same source resolves to the same entry")

	contents, err := os.ReadFile(dataPath1)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(contents))

	entryDir := c.entryDir(source)
	sidecar, err := stage.ReadSidecar(filepath.Join(entryDir, "autotorrent.json"))
	require.NoError(t, err)
	assert.Equal(t, source, sidecar.SourcePath)
	require.Len(t, sidecar.TargetPaths, 2)
}

func TestCleanup_RevertsExpiredEntryLinksToSource(t *testing.T) {
	cacheRoot := t.TempDir()
	sourceDir := t.TempDir()
	targetDir := t.TempDir()

	source := filepath.Join(sourceDir, "a.bin")
	require.NoError(t, os.WriteFile(source, []byte("payload"), 0o644))
	target := filepath.Join(targetDir, "a.bin")

	c := New(cacheRoot)
	_, err := c.CacheFile(source, target, "symlink")
	require.NoError(t, err)
	require.NoError(t, stage.CreateLink(target, source, stage.LinkSymlink))

	entryDir := c.entryDir(source)
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(entryDir, old, old))

	require.NoError(t, c.Cleanup(time.Hour))

	resolved, err := os.Readlink(target)
	require.NoError(t, err)
	assert.Equal(t, source, resolved)

	_, err = os.Stat(entryDir)
	assert.True(t, os.IsNotExist(err))
}

func TestCleanup_MissingSidecarIsWarnAndSkip(t *testing.T) {
	cacheRoot := t.TempDir()
	entryDir := filepath.Join(cacheRoot, "orphan__deadbeef")
	require.NoError(t, os.MkdirAll(filepath.Join(entryDir, "data"), 0o755))

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(entryDir, old, old))

	c := New(cacheRoot)
	require.NoError(t, c.Cleanup(time.Hour))

	_, err := os.Stat(entryDir)
	assert.True(t, os.IsNotExist(err))
}
