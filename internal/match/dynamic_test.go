// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package match

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoseed/autoseed/internal/domain"
	"github.com/autoseed/autoseed/internal/pieceverify"
)

// memFileAccessor is an in-memory pieceverify.FileAccessor stand-in so
// hash-probe tests don't need real files on disk.
type memFileAccessor struct {
	files map[string][]byte
}

func (a memFileAccessor) Open(path string) (pieceverify.ReadAtCloser, error) {
	data, ok := a.files[path]
	if !ok {
		return nil, assertErr("no such file: " + path)
	}
	return &memReadAtCloser{data: data}, nil
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

type memReadAtCloser struct {
	data []byte
}

func (m *memReadAtCloser) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(m.data)) {
		return 0, assertErr("EOF")
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, assertErr("EOF")
	}
	return n, nil
}

func (m *memReadAtCloser) Close() error { return nil }

func looseTorrent(pieceLength int64) *domain.Torrent {
	return buildTorrent("release", pieceLength, []struct {
		Path string
		Size int64
	}{
		{"release/a.bin", 10},
		{"release/b.bin", 6},
	})
}

func TestDynamicMatch_LooseFilesAllPresent(t *testing.T) {
	idx := newFakeIndex()
	idx.add("/downloads/release", "a.bin", 10, "")
	idx.add("/downloads/release", "b.bin", 6, "")

	torrent := looseTorrent(16)
	result, err := DynamicMatch(context.Background(), idx, torrent, DynamicOptions{AddLimitPercent: 100})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, int64(0), result.MissingSize)
	assert.True(t, result.MatchedFiles["release/a.bin"].Present)
	assert.True(t, result.MatchedFiles["release/b.bin"].Present)
	assert.Empty(t, result.TouchedFiles)
}

func TestDynamicMatch_MissingWithinLimitMarksSharedPieceTouched(t *testing.T) {
	idx := newFakeIndex()
	idx.add("/downloads/release", "a.bin", 10, "")
	// b.bin is absent from disk entirely.

	torrent := looseTorrent(16) // a.bin and b.bin share piece 0
	result, err := DynamicMatch(context.Background(), idx, torrent, DynamicOptions{AddLimitPercent: 50})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, int64(6), result.MissingSize)
	assert.True(t, result.MatchedFiles["release/a.bin"].Present)
	assert.False(t, result.MatchedFiles["release/b.bin"].Present)

	_, aTouched := result.TouchedFiles["release/a.bin"]
	_, bTouched := result.TouchedFiles["release/b.bin"]
	assert.True(t, aTouched, "a.bin shares piece 0 with the missing b.bin")
	assert.True(t, bTouched)
}

func TestDynamicMatch_MissingExceedsAddLimitPercentFails(t *testing.T) {
	idx := newFakeIndex()
	idx.add("/downloads/release", "a.bin", 10, "")
	// b.bin is absent; 6 bytes missing out of 16 exceeds a 10% cap (1 byte).

	torrent := looseTorrent(16)
	result, err := DynamicMatch(context.Background(), idx, torrent, DynamicOptions{AddLimitPercent: 10})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, int64(6), result.MissingSize)
}

func TestDynamicMatch_UnsplittableSubtreeRelocated(t *testing.T) {
	idx := newFakeIndex()
	// The release lives on disk under a differently-named parent directory
	// than the torrent's internal root, simulating a user-renamed folder;
	// the BDMV/STREAM structure underneath is preserved as-is.
	idx.add("/media/Renamed/BDMV", "movieobject.bdmv", 4, "/media/Renamed")
	idx.add("/media/Renamed/BDMV/STREAM", "00000.m2ts", 4096, "/media/Renamed")

	torrent := buildTorrent("Movie.2024", 16*1024, []struct {
		Path string
		Size int64
	}{
		{"Movie.2024/BDMV/MovieObject.bdmv", 4},
		{"Movie.2024/BDMV/STREAM/00000.m2ts", 4096},
	})

	result, err := DynamicMatch(context.Background(), idx, torrent, DynamicOptions{AddLimitPercent: 100})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, int64(0), result.MissingSize)
	assert.True(t, result.MatchedFiles["Movie.2024/BDMV/MovieObject.bdmv"].Present)
	assert.True(t, result.MatchedFiles["Movie.2024/BDMV/STREAM/00000.m2ts"].Present)
}

// TestDynamicMatch_CorruptedSoleCandidateRejectedWithHashProbe covers the
// case where exactly one on-disk candidate matches a loose file's name and
// size, but its bytes don't hash to the torrent's expected pieces. With
// hash_probe enabled the probe must still run against a single-candidate
// pool and reject it, rather than accepting the match on name/size alone.
func TestDynamicMatch_CorruptedSoleCandidateRejectedWithHashProbe(t *testing.T) {
	idx := newFakeIndex()
	idx.add("/downloads/release", "a.bin", 16, "")

	torrent := buildTorrent("release", 16, []struct {
		Path string
		Size int64
	}{
		{"release/a.bin", 16},
	})

	accessor := memFileAccessor{files: map[string][]byte{
		"/downloads/release/a.bin": []byte("0123456789abcdef"), // wrong bytes, won't hash-match
	}}

	result, err := DynamicMatch(context.Background(), idx, torrent, DynamicOptions{
		AddLimitPercent: 0,
		HashProbe:       true,
		Accessor:        accessor,
	})
	require.NoError(t, err)
	assert.False(t, result.Success, "sole corrupted candidate must be rejected, not accepted on name/size alone")
	assert.Equal(t, int64(16), result.MissingSize)
}
