// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"github.com/spf13/cobra"

	"github.com/autoseed/autoseed/internal/config"
)

func runConfigCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration file operations",
	}

	cmd.AddCommand(runConfigInitCommand(configPath))
	return cmd
}

func runConfigInitCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config.toml if one does not already exist",
		RunE: func(cmd *cobra.Command, _ []string) error {
			appCfg, err := config.New(*configPath)
			if err != nil {
				return err
			}
			cmd.Printf("Config ready at %s\n", appCfg.Path())
			return nil
		},
	}
}
