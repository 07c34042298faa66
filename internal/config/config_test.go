// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeneratesDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")

	cfg, err := New(configPath)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Config.LogLevel)
	assert.Equal(t, 50, cfg.Config.LogMaxSize)
	assert.Equal(t, "hardlink", cfg.Config.LinkType)
	assert.Equal(t, "{client}/{torrent_name}", cfg.Config.StoreTemplate)
	assert.Equal(t, dir, cfg.Config.DataDir)
	assert.Equal(t, filepath.Join(dir, "cache"), cfg.Config.CachePath)

	_, err = os.Stat(configPath)
	require.NoError(t, err)
}

func TestNewReadsExistingConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")

	content := `
logLevel = "debug"
scanPaths = ["/data/movies", "/data/tv"]
addLimitPercent = 10
linkType = "symlink"
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	cfg, err := New(configPath)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Config.LogLevel)
	assert.Equal(t, []string{"/data/movies", "/data/tv"}, cfg.Config.ScanPaths)
	assert.Equal(t, 10.0, cfg.Config.AddLimitPercent)
	assert.Equal(t, "symlink", cfg.Config.LinkType)
}

func TestNewEnvOverride(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")

	require.NoError(t, os.WriteFile(configPath, []byte(`logLevel = "info"`), 0o644))

	os.Setenv("AUTOSEED_LOGLEVEL", "trace")
	defer os.Unsetenv("AUTOSEED_LOGLEVEL")

	cfg, err := New(configPath)
	require.NoError(t, err)
	assert.Equal(t, "trace", cfg.Config.LogLevel)
}

func TestUpdateLogSettingsUpdatesInPlace(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")

	cfg, err := New(configPath)
	require.NoError(t, err)

	require.NoError(t, cfg.UpdateLogSettings("debug", "/var/log/autoseed.log", 100, 5))

	raw, err := os.ReadFile(configPath)
	require.NoError(t, err)

	assert.Contains(t, string(raw), `logLevel = "debug"`)
	assert.Contains(t, string(raw), `logPath = "/var/log/autoseed.log"`)
	assert.Contains(t, string(raw), "logMaxSize = 100")
	assert.Contains(t, string(raw), "logMaxBackups = 5")

	assert.Equal(t, "debug", cfg.Config.LogLevel)
}

func TestUpdateLogSettingsInTOMLUpdatesCommentedKeysInPlace(t *testing.T) {
	content := `# config.toml - Auto-generated on first run

# Log file path
#logPath = ""

# Log rotation
#logMaxSize = 50

#logMaxBackups = 3

logLevel = "info"

[httpTimeouts]
#readTimeout = 60
`
	updated := updateLogSettingsInTOML(content, "debug", "/config/autoseed.log", 50, 3)

	assert.NotContains(t, updated, "# Log settings")

	httpIndex := strings.Index(updated, "[httpTimeouts]")
	require.GreaterOrEqual(t, httpIndex, 0)
	lastLogPath := strings.LastIndex(updated, "logPath")
	require.GreaterOrEqual(t, lastLogPath, 0)
	assert.Less(t, lastLogPath, httpIndex)

	assert.Contains(t, updated, `logPath = "/config/autoseed.log"`)
	assert.Contains(t, updated, "logMaxSize = 50")
	assert.Contains(t, updated, "logMaxBackups = 3")
	assert.Contains(t, updated, `logLevel = "debug"`)
}
