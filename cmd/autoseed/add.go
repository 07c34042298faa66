// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/autoseed/autoseed/internal/core"
	"github.com/autoseed/autoseed/internal/stage"
)

func runAddCommand(configPath *string) *cobra.Command {
	var (
		clientName string
		fastResume bool
		stopped    bool
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "add <torrent-file>",
		Short: "Match a .torrent against the index and stage it for the named client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if clientName == "" {
				return fmt.Errorf("--client is required")
			}

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read torrent file: %w", err)
			}

			engine, err := openEngine(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer engine.Close()

			torrentName := strings.TrimSuffix(filepath.Base(args[0]), ".torrent")

			result, err := engine.AddTorrent(cmd.Context(), raw, core.AddOptions{
				ClientName: clientName,
				TemplateVars: stage.TemplateVars{
					Client:      clientName,
					TorrentName: torrentName,
				},
				FastResume: fastResume,
				Stopped:    stopped,
				DryRun:     dryRun,
			})
			if err != nil {
				return err
			}

			if dryRun {
				cmd.Printf("Matched %s, missing %d bytes (dry run, nothing staged)\n", result.InfoHash, result.MissingSize)
				return nil
			}

			cmd.Printf("Staged %s at %s\n", result.InfoHash, result.StorePath)
			return nil
		},
	}

	cmd.Flags().StringVar(&clientName, "client", "", "Name of the configured client to add the torrent to")
	cmd.Flags().BoolVar(&fastResume, "fast-resume", true, "Skip the client's own recheck on add")
	cmd.Flags().BoolVar(&stopped, "stopped", false, "Add the torrent without starting it")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Match and verify without staging or adding")

	return cmd
}
