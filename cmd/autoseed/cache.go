// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"github.com/spf13/cobra"
)

func runCacheCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "RW-cache maintenance",
	}

	cmd.AddCommand(runCacheCleanupCommand(configPath))
	return cmd
}

func runCacheCleanupCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Revert and delete RW-cache entries idle past their TTL",
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := openEngine(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer engine.Close()

			if err := engine.CleanupCache(); err != nil {
				return err
			}
			cmd.Println("Cache cleanup complete.")
			return nil
		},
	}
}
