// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/autoseed/autoseed/internal/client"
	"github.com/autoseed/autoseed/internal/client/qbittorrent"
	"github.com/autoseed/autoseed/internal/config"
	"github.com/autoseed/autoseed/internal/core"
	"github.com/autoseed/autoseed/internal/domain"
	"github.com/autoseed/autoseed/internal/logging"
)

func newRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "autoseed",
		Short: "Match torrents against an existing library and stage them for seeding",
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "Path to config.toml")

	cmd.AddCommand(
		runScanCommand(&configPath),
		runWatchCommand(&configPath),
		runScanClientsCommand(&configPath),
		runAddCommand(&configPath),
		runCacheCommand(&configPath),
		runConfigCommand(&configPath),
		runVersionCommand(),
	)

	return cmd
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(dir, "autoseed", "config.toml")
}

// loadApp loads configPath, initializes logging, and returns the resolved
// domain.Config ready for use by a command.
func loadApp(configPath string) (*domain.Config, error) {
	appCfg, err := config.New(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	if _, err := logging.Init(appCfg.Config); err != nil {
		return nil, errors.Wrap(err, "init logging")
	}
	return appCfg.Config, nil
}

// openEngine loads config, logging, and every configured client driver, and
// returns a ready-to-use core.Engine. Callers must Close it.
func openEngine(ctx context.Context, configPath string) (*core.Engine, error) {
	cfg, err := loadApp(configPath)
	if err != nil {
		return nil, err
	}

	clients, err := buildClients(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return core.Open(cfg, clients)
}

// buildClients dials every configured download client and returns them
// keyed by name. Only the qbittorrent driver is currently implemented.
func buildClients(ctx context.Context, cfg *domain.Config) (map[string]client.Client, error) {
	out := make(map[string]client.Client, len(cfg.Clients))
	for _, cc := range cfg.Clients {
		switch cc.Type {
		case "", "qbittorrent":
			d, err := qbittorrent.New(ctx, qbittorrent.Config{
				Name:     cc.Name,
				Host:     cc.Host,
				Username: cc.Username,
				Password: cc.Password,
			})
			if err != nil {
				return nil, errors.Wrapf(err, "connect client %q", cc.Name)
			}
			out[cc.Name] = d
		default:
			return nil, errors.Errorf("client %q: unknown client type %q", cc.Name, cc.Type)
		}
	}
	return out, nil
}
