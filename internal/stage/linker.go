// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package stage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/autoseed/autoseed/pkg/fsutil"
	"github.com/autoseed/autoseed/pkg/hardlink"
	"github.com/autoseed/autoseed/pkg/reflinktree"
)

// LinkType selects how a matched file is materialized into the store.
type LinkType string

const (
	LinkSymlink LinkType = "symlink"
	LinkHard    LinkType = "hardlink"
	LinkReflink LinkType = "reflink"
)

// CreateLink materializes source at target using linkType, creating
// target's parent directory first. Exported for internal/rwcache's
// cleanup path, which re-links expired cache entries back at their
// original source.
func CreateLink(target, source string, linkType LinkType) error {
	return createLink(target, source, linkType)
}

// createLink materializes source at target using linkType, creating target's
// parent directory first.
func createLink(target, source string, linkType LinkType) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create parent dir for %s: %w", target, err)
	}

	switch linkType {
	case LinkSymlink:
		if err := os.Symlink(source, target); err != nil {
			return fmt.Errorf("symlink %s -> %s: %w", target, source, err)
		}
		return nil

	case LinkHard:
		same, err := fsutil.SameFilesystem(source, filepath.Dir(target))
		if err != nil {
			return fmt.Errorf("hardlink %s -> %s: %w", target, source, err)
		}
		if !same {
			return fmt.Errorf("hardlink %s -> %s: source and target are on different filesystems", target, source)
		}
		if err := os.Link(source, target); err != nil {
			return fmt.Errorf("hardlink %s -> %s: %w", target, source, err)
		}
		return verifySameInode(target, source)

	case LinkReflink:
		if err := reflinktree.Clone(source, target); err != nil {
			return fmt.Errorf("reflink %s -> %s: %w", target, source, err)
		}
		return nil

	default:
		return fmt.Errorf("unknown link type %q", linkType)
	}
}

// verifySameInode confirms target and source share a device/inode pair
// after os.Link, catching filesystems (overlayfs, some network mounts)
// that silently copy instead of linking.
func verifySameInode(target, source string) error {
	ti, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("stat hardlink target %s: %w", target, err)
	}
	si, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("stat hardlink source %s: %w", source, err)
	}

	tid, _, err := hardlink.GetFileID(ti, target)
	if err != nil {
		return fmt.Errorf("hardlink identity %s: %w", target, err)
	}
	sid, _, err := hardlink.GetFileID(si, source)
	if err != nil {
		return fmt.Errorf("hardlink identity %s: %w", source, err)
	}

	if tid != sid {
		return fmt.Errorf("hardlink %s -> %s: target is not the same inode as source", target, source)
	}
	return nil
}

// copyFile performs a physical byte copy of source to target, creating
// target's parent directory first.
func copyFile(target, source string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create parent dir for %s: %w", target, err)
	}

	src, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("open source %s: %w", source, err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return fmt.Errorf("stat source %s: %w", source, err)
	}

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return fmt.Errorf("create target %s: %w", target, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copy %s -> %s: %w", source, target, err)
	}
	return nil
}
