// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package config loads and persists the application's config.toml, layering
// defaults, file contents, and AUTOSEED_-prefixed environment overrides via
// viper the same way the rest of the ambient stack expects.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/autoseed/autoseed/internal/domain"
)

// AppConfig wraps the resolved domain.Config alongside the path it was
// loaded from, so later persist operations know where to write back to.
type AppConfig struct {
	Config *domain.Config

	configPath string
	viper      *viper.Viper
}

// New loads configPath, writing a fresh default config.toml first if the
// file does not yet exist, then applies AUTOSEED_-prefixed environment
// overrides on top.
func New(configPath string) (*AppConfig, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
			return nil, fmt.Errorf("create config dir: %w", err)
		}
		if err := os.WriteFile(configPath, []byte(generateDefaultTOML(configPath)), 0o644); err != nil {
			return nil, fmt.Errorf("write default config: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	v.SetEnvPrefix("AUTOSEED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := domain.DefaultConfig()
	v.SetDefault("logLevel", defaults.LogLevel)
	v.SetDefault("logMaxSize", defaults.LogMaxSize)
	v.SetDefault("logMaxBackups", defaults.LogMaxBackups)
	v.SetDefault("addLimitPercent", defaults.AddLimitPercent)
	v.SetDefault("matchHashSize", defaults.MatchHashSize)
	v.SetDefault("hashProbe", defaults.HashProbe)
	v.SetDefault("alwaysVerifyPatterns", defaults.AlwaysVerifyPatterns)
	v.SetDefault("storeTemplate", defaults.StoreTemplate)
	v.SetDefault("skipStoreMetadata", defaults.SkipStoreMetadata)
	v.SetDefault("linkType", defaults.LinkType)
	v.SetDefault("cacheTtlSeconds", defaults.CacheTTLSeconds)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg domain.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.DataDir == "" {
		cfg.DataDir = filepath.Dir(configPath)
	}
	if cfg.CachePath == "" {
		cfg.CachePath = filepath.Join(cfg.DataDir, "cache")
	}

	return &AppConfig{Config: &cfg, configPath: configPath, viper: v}, nil
}

// Path returns the config file path this AppConfig was loaded from.
func (c *AppConfig) Path() string {
	return c.configPath
}
