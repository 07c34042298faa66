//go:build !linux

// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package reflinktree

import "fmt"

// Clone always fails on platforms without a wired clone syscall. Darwin's
// clonefile(2) is a plausible future implementation but is not wired here.
func Clone(src, dst string) error {
	return fmt.Errorf("reflink: not supported on this platform")
}

// SupportsReflink always reports unsupported on this platform.
func SupportsReflink(dir string) (bool, string) {
	return false, "reflink not supported on this platform"
}
