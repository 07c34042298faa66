// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package stage

import (
	"encoding/json"
	"fmt"
	"os"
)

// Sidecar is the autotorrent.json metadata written alongside a staged
// torrent's data directory (unless skip_store_metadata is set), and also
// the shape used by the read-write cache's per-entry sidecar.
type Sidecar struct {
	SourcePath  string          `json:"source_path"`
	TargetPaths []SidecarTarget `json:"target_paths"`
}

// SidecarTarget records one materialized file within a staged torrent.
type SidecarTarget struct {
	Path     string `json:"path"`
	LinkType string `json:"link_type"`
}

// WriteSidecar marshals sc as indented JSON to path.
func WriteSidecar(path string, sc Sidecar) error {
	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal autotorrent.json: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadSidecar parses the autotorrent.json at path.
func ReadSidecar(path string) (Sidecar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Sidecar{}, fmt.Errorf("read %s: %w", path, err)
	}
	var sc Sidecar
	if err := json.Unmarshal(data, &sc); err != nil {
		return Sidecar{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return sc, nil
}
