// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

// Config represents the application configuration: where the search index
// lives, which directories to scan, the matching/gating thresholds, the
// staging layout, and the configured download clients.
type Config struct {
	Version string

	DataDir  string `toml:"dataDir" mapstructure:"dataDir"`
	LogLevel string `toml:"logLevel" mapstructure:"logLevel"`
	LogPath  string `toml:"logPath" mapstructure:"logPath"`

	LogMaxSize    int `toml:"logMaxSize" mapstructure:"logMaxSize"`
	LogMaxBackups int `toml:"logMaxBackups" mapstructure:"logMaxBackups"`

	// ScanPaths are the roots walked by the indexer during scan_paths.
	ScanPaths []string `toml:"scanPaths" mapstructure:"scanPaths"`

	// IgnoreDirectoryPatterns are case-insensitive glob patterns matched
	// against directory basenames during a scan.
	IgnoreDirectoryPatterns []string `toml:"ignoreDirectoryPatterns" mapstructure:"ignoreDirectoryPatterns"`

	// IgnoreFilePatterns are case-sensitive glob patterns matched against
	// file basenames during a scan.
	IgnoreFilePatterns []string `toml:"ignoreFilePatterns" mapstructure:"ignoreFilePatterns"`

	// CompatibilityMode enables best-effort handling of non-UTF-8 paths
	// during scanning (chardet-style detection + fsdecode/replace fallback).
	CompatibilityMode bool `toml:"compatibilityMode" mapstructure:"compatibilityMode"`

	// AddLimitSize is the maximum absolute number of missing bytes a dynamic
	// match may tolerate.
	AddLimitSize int64 `toml:"addLimitSize" mapstructure:"addLimitSize"`

	// AddLimitPercent is the maximum percentage of a torrent's total size
	// that may be missing for a dynamic match to succeed.
	AddLimitPercent float64 `toml:"addLimitPercent" mapstructure:"addLimitPercent"`

	// MatchHashSize makes the dynamic matcher look up loose files by size
	// alone instead of by normalized name and size.
	MatchHashSize bool `toml:"matchHashSize" mapstructure:"matchHashSize"`

	// HashProbe enables piece-hash probing of dynamic-match candidates.
	HashProbe bool `toml:"hashProbe" mapstructure:"hashProbe"`

	// AlwaysVerifyPatterns are fnmatch-style basename patterns that are
	// always piece-hash verified, regardless of the matcher used.
	AlwaysVerifyPatterns []string `toml:"alwaysVerifyPatterns" mapstructure:"alwaysVerifyPatterns"`

	// StoreTemplate is rendered to build the staged directory path.
	StoreTemplate string `toml:"storeTemplate" mapstructure:"storeTemplate"`

	// SkipStoreMetadata, when true, produces the torrent-relative tree
	// directly at the expanded store path with no data/ indirection.
	SkipStoreMetadata bool `toml:"skipStoreMetadata" mapstructure:"skipStoreMetadata"`

	// LinkType selects symlink, hardlink, or reflink for matched files.
	LinkType string `toml:"linkType" mapstructure:"linkType"`

	// CachePath is the root of the read-write touched-file cache.
	CachePath string `toml:"cachePath" mapstructure:"cachePath"`

	// CacheTTLSeconds controls how long an idle RW-cache entry survives before
	// cleanup_cache reverts it back to linking the original source.
	CacheTTLSeconds int `toml:"cacheTtlSeconds" mapstructure:"cacheTtlSeconds"`

	Clients []ClientConfig `toml:"clients" mapstructure:"clients"`
}

// ClientConfig describes one configured download-client driver instance.
type ClientConfig struct {
	Name     string `toml:"name" mapstructure:"name"`
	Type     string `toml:"type" mapstructure:"type"`
	Host     string `toml:"host" mapstructure:"host"`
	Username string `toml:"username" mapstructure:"username"`
	Password string `toml:"password" mapstructure:"password"`
}

// DefaultConfig returns a Config populated with the same defaults the CLI
// writes into a freshly generated config.toml.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:        "info",
		LogMaxSize:      50,
		LogMaxBackups:   3,
		AddLimitPercent: 5,
		MatchHashSize:   false,
		HashProbe:       true,
		AlwaysVerifyPatterns: []string{
			"*.nfo", "*.sfv", "*.mp3", "*.flac",
		},
		StoreTemplate:     "{client}/{torrent_name}",
		SkipStoreMetadata: false,
		LinkType:          "hardlink",
		CacheTTLSeconds:   3600,
	}
}
