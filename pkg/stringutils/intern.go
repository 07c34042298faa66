// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package stringutils provides string interning via Go 1.23's unique
// package, for memory-efficient deduplication of commonly repeated
// strings such as normalized filenames and hex torrent hashes.
package stringutils

import (
	"strings"
	"unique"
)

// Intern returns a canonical representation of the string using Go's
// unique package. Identical strings share the same underlying memory,
// reducing allocations for values that repeat across many index rows.
//
// The returned string is semantically identical to the input.
func Intern(s string) string {
	if s == "" {
		return ""
	}
	return unique.Make(s).Value()
}

// InternNormalized interns a trimmed and lowercased version of the
// string. This is the canonical form for case-insensitive matching.
func InternNormalized(s string) string {
	normalized := strings.ToLower(strings.TrimSpace(s))
	if normalized == "" {
		return ""
	}
	return unique.Make(normalized).Value()
}

// InternNormalizedUpper interns a trimmed and uppercased version of the
// string, used for hex digests where uppercase is the display form.
func InternNormalizedUpper(s string) string {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	if normalized == "" {
		return ""
	}
	return unique.Make(normalized).Value()
}
