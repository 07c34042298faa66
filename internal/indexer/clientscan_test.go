// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package indexer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoseed/autoseed/internal/client"
	"github.com/autoseed/autoseed/internal/client/inmemory"
	"github.com/autoseed/autoseed/internal/searchindex"
)

func TestScanClients_InsertsAndPrunesStale(t *testing.T) {
	x, idx := newTestIndexer(t, nil, nil)
	fake := inmemory.New()
	fake.Seed("aaaa", "release-a", "/downloads/a", []client.TorrentFile{
		{RelativePath: "a.bin", Size: 10},
	})

	ctx := context.Background()
	require.NoError(t, x.ScanClients(ctx, []NamedClient{{Name: "qbit1", Client: fake}}, true, false))

	seeded, err := searchindex.GetSeededPaths(ctx, idx, []string{"/downloads/a/a.bin"})
	require.NoError(t, err)
	require.Len(t, seeded, 1)
	assert.Equal(t, "aaaa", seeded[0].InfoHash)

	fake.Forget("aaaa")
	require.NoError(t, x.ScanClients(ctx, []NamedClient{{Name: "qbit1", Client: fake}}, false, false))

	exists, _, err := searchindex.HasTorrent(ctx, idx, "qbit1", "aaaa")
	require.NoError(t, err)
	assert.False(t, exists)
}
