// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"github.com/spf13/cobra"

	"github.com/autoseed/autoseed/internal/buildinfo"
	"github.com/autoseed/autoseed/pkg/version"
)

func runVersionCommand() *cobra.Command {
	var checkUpdate bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Print(buildinfo.String())

			if !checkUpdate {
				return nil
			}

			checker := version.NewChecker("autoseed", "autoseed", buildinfo.UserAgent)
			newer, release, err := checker.CheckNewVersion(cmd.Context(), buildinfo.Version)
			if err != nil {
				return err
			}
			if !newer {
				cmd.Println("Up to date.")
				return nil
			}
			cmd.Printf("A newer release is available: %s (%s)\n", release.TagName, release.HTMLURL)
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkUpdate, "check-update", false, "Check GitHub for a newer release")
	return cmd
}
