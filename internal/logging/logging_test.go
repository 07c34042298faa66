// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoseed/autoseed/internal/domain"
)

func TestInitConsoleOnly(t *testing.T) {
	closer, err := Init(&domain.Config{LogLevel: "debug"})
	require.NoError(t, err)
	assert.Nil(t, closer)
}

func TestInitWithLogPathCreatesFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "nested", "autoseed.log")

	closer, err := Init(&domain.Config{LogLevel: "info", LogPath: logPath, LogMaxSize: 10, LogMaxBackups: 2})
	require.NoError(t, err)
	require.NotNil(t, closer)
	defer closer.Close()

	log.Info().Msg("hello")

	_, err = os.Stat(logPath)
	require.NoError(t, err)
}

func TestInitUnknownLevelDefaultsToInfo(t *testing.T) {
	_, err := Init(&domain.Config{LogLevel: "not-a-level"})
	require.NoError(t, err)
}
