// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package searchindex

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoseed/autoseed/internal/database"
	"github.com/autoseed/autoseed/internal/domain"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "autoseed.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db)
}

func TestInsertFiles_IdempotentOnParentName(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	records := []FileRecord{
		{Name: "file_a.txt", ParentPath: "/data/testfiles", Size: 16},
		{Name: "file_a.txt", ParentPath: "/data/testfiles", Size: 32},
	}
	require.NoError(t, InsertFiles(ctx, idx, records, 10))

	results, err := Search(ctx, idx, domain.SearchQuery{Filename: "file_a.txt"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(32), results[0].Size)
	assert.Equal(t, "file a.txt", results[0].NormalizedName)
}

func TestSearch_ParentPostfix(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, InsertFiles(ctx, idx, []FileRecord{
		{Name: "movie.mkv", ParentPath: "/data/Release.2024.BDMV/STREAM", Size: 100},
	}, 10))

	results, err := Search(ctx, idx, domain.SearchQuery{ParentPostfix: "STREAM"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "movie.mkv", results[0].Name)
}

func TestSearch_RequiresAtLeastOneConstraint(t *testing.T) {
	idx := newTestIndex(t)
	_, err := Search(context.Background(), idx, domain.SearchQuery{})
	assert.Error(t, err)
}

func TestClientTorrents_InsertRemoveAndSeededPaths(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	torrents := []domain.ClientTorrent{
		{
			ClientName:   "qbit1",
			InfoHash:     "aaaa",
			Name:         "release",
			DownloadPath: "/downloads/release",
			Files: []domain.ClientTorrentFile{
				{Path: "/downloads/release/a.bin", Size: 10},
			},
		},
		{
			ClientName:   "qbit1",
			InfoHash:     "bbbb",
			Name:         "other",
			DownloadPath: "/downloads/other",
		},
	}
	require.NoError(t, InsertClientTorrents(ctx, idx, "qbit1", torrents))

	seeded, err := GetSeededPaths(ctx, idx, []string{"/downloads/release/a.bin"})
	require.NoError(t, err)
	require.Len(t, seeded, 1)
	assert.Equal(t, "aaaa", seeded[0].InfoHash)

	require.NoError(t, RemoveNonExisting(ctx, idx, "qbit1", []string{"aaaa"}))

	exists, _, err := HasTorrent(ctx, idx, "qbit1", "bbbb")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, path, err := HasTorrent(ctx, idx, "qbit1", "aaaa")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "/downloads/release", path)
}
