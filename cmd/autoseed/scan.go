// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"time"

	"github.com/spf13/cobra"
)

func runScanCommand(configPath *string) *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Walk the configured scan paths and (re)index their files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := openEngine(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer engine.Close()

			if err := engine.Scan(cmd.Context(), full); err != nil {
				return err
			}
			cmd.Println("Scan complete.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Clear the file index and re-index every file from scratch")
	return cmd
}

func runWatchCommand(configPath *string) *cobra.Command {
	var delay time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Scan once, then keep re-scanning on filesystem changes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := openEngine(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer engine.Close()

			if err := engine.Scan(cmd.Context(), false); err != nil {
				return err
			}
			cmd.Println("Watching for changes, press Ctrl+C to stop.")
			return engine.Watch(cmd.Context(), delay)
		},
	}

	cmd.Flags().DurationVar(&delay, "delay", 2*time.Second, "Debounce delay applied after a filesystem event")
	return cmd
}

func runScanClientsCommand(configPath *string) *cobra.Command {
	var full, fast bool

	cmd := &cobra.Command{
		Use:   "scan-clients",
		Short: "Index every configured download client's known torrents",
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := openEngine(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer engine.Close()

			if err := engine.ScanClients(cmd.Context(), full, fast); err != nil {
				return err
			}
			cmd.Println("Client scan complete.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Drop each client's indexed torrents and re-fetch every file list")
	cmd.Flags().BoolVar(&fast, "fast", false, "Skip torrents already indexed with an unchanged download path")
	return cmd
}
