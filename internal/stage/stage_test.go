// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package stage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoseed/autoseed/internal/domain"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestStage_SymlinkWithMetadata(t *testing.T) {
	root := t.TempDir()
	sourceDir := t.TempDir()

	fileA := writeTempFile(t, sourceDir, "file_a.txt", "hello")
	torrentFile := writeTempFile(t, sourceDir, "release.torrent", "d4:name4:teste")

	req := Request{
		Root:            root,
		StoreTemplate:   "{client}/{torrent_name}",
		Vars:            TemplateVars{Client: "qbit1", TorrentName: "release"},
		TorrentFilePath: torrentFile,
		FileMapping: map[string]FileAction{
			"release/file_a.txt": {Action: ActionLink, Source: fileA},
		},
		LinkType: LinkSymlink,
	}

	result, err := Stage(req)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "qbit1", "release"), result.StorePath)
	assert.Equal(t, filepath.Join(result.StorePath, "data"), result.DataRoot)

	linkPath := filepath.Join(result.DataRoot, "release", "file_a.txt")
	target, err := os.Readlink(linkPath)
	require.NoError(t, err)
	assert.Equal(t, fileA, target)

	_, err = os.Stat(filepath.Join(result.StorePath, "release.torrent"))
	require.NoError(t, err)

	sidecar, err := ReadSidecar(filepath.Join(result.StorePath, "autotorrent.json"))
	require.NoError(t, err)
	assert.Equal(t, torrentFile, sidecar.SourcePath)
	require.Len(t, sidecar.TargetPaths, 1)
	assert.Equal(t, "release/file_a.txt", sidecar.TargetPaths[0].Path)
	assert.Equal(t, "symlink", sidecar.TargetPaths[0].LinkType)
}

func TestStage_SkipStoreMetadataOmitsDataDir(t *testing.T) {
	root := t.TempDir()
	sourceDir := t.TempDir()
	fileA := writeTempFile(t, sourceDir, "file_a.txt", "hello")

	req := Request{
		Root:              root,
		StoreTemplate:     "{torrent_name}",
		Vars:              TemplateVars{TorrentName: "release"},
		SkipStoreMetadata: true,
		FileMapping: map[string]FileAction{
			"release/file_a.txt": {Action: ActionLink, Source: fileA},
		},
		LinkType: LinkSymlink,
	}

	result, err := Stage(req)
	require.NoError(t, err)
	assert.Equal(t, result.StorePath, result.DataRoot)

	_, err = os.Stat(filepath.Join(result.StorePath, "data"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(result.StorePath, "autotorrent.json"))
	assert.True(t, os.IsNotExist(err))

	_, err = os.Lstat(filepath.Join(result.DataRoot, "release", "file_a.txt"))
	require.NoError(t, err)
}

func TestStage_ExistingStoreDirIsConflict(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "release"), 0o755))

	req := Request{
		Root:          root,
		StoreTemplate: "{torrent_name}",
		Vars:          TemplateVars{TorrentName: "release"},
		LinkType:      LinkSymlink,
	}

	_, err := Stage(req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStageConflict))
}

func TestStage_CopyAction(t *testing.T) {
	root := t.TempDir()
	sourceDir := t.TempDir()
	fileA := writeTempFile(t, sourceDir, "file_a.txt", "payload")

	req := Request{
		Root:              root,
		StoreTemplate:     "{torrent_name}",
		Vars:              TemplateVars{TorrentName: "release"},
		SkipStoreMetadata: true,
		FileMapping: map[string]FileAction{
			"release/file_a.txt": {Action: ActionCopy, Source: fileA},
		},
	}

	result, err := Stage(req)
	require.NoError(t, err)

	copied, err := os.ReadFile(filepath.Join(result.DataRoot, "release", "file_a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(copied))
}

func TestEnsureRelative_RejectsEscape(t *testing.T) {
	assert.Error(t, EnsureRelative("../escape.txt"))
	assert.NoError(t, EnsureRelative("sub/dir/file.txt"))
}
