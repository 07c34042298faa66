// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package normalize implements filename/path normalization and
// unsplittable-release detection: case- and separator-insensitive
// filename equivalence, unsplittable release root discovery, and the
// "potentially missable" file predicate.
package normalize

import (
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/autoseed/autoseed/pkg/stringutils"
)

var collapseRunsPattern = regexp.MustCompile(`[ _.\-]+`)

// Filename lowercases and trims name, collapses runs of " _.-" in the stem
// into a single space, and preserves the extension. It is idempotent:
// Filename(Filename(x)) == Filename(x) for any UTF-8 string.
func Filename(name string) string {
	name = RepairUTF8(strings.TrimSpace(name))
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	stem = strings.ToLower(stem)
	stem = collapseRunsPattern.ReplaceAllString(stem, " ")
	stem = strings.TrimSpace(stem)

	ext = strings.ToLower(ext)

	return stringutils.Intern(stem + ext)
}

// RepairUTF8 replaces invalid UTF-8 byte sequences with the Unicode
// replacement rune, so downstream normalization never panics or silently
// truncates on corrupt filenames encountered during a filesystem walk.
func RepairUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "�")
}

// unsplittableExtensionSets are the file-extension sets (case-insensitive)
// that, if all present among a directory's immediate files, mark it as an
// unsplittable release.
var unsplittableExtensionSets = [][]string{
	{".rar", ".sfv"},
	{".rar", ".r00"},
	{".mp3", ".sfv"},
	{".vob", ".ifo"},
}

const bdmvMarkerFile = "movieobject.bdmv"

// IsUnsplittableDirectory reports whether a directory is "unsplittable"
// given the basenames of its immediate files (not subdirectories).
func IsUnsplittableDirectory(fileNames []string) bool {
	exts := make(map[string]struct{}, len(fileNames))
	for _, name := range fileNames {
		exts[strings.ToLower(path.Ext(name))] = struct{}{}
		if strings.EqualFold(name, bdmvMarkerFile) {
			return true
		}
	}

	for _, set := range unsplittableExtensionSets {
		allPresent := true
		for _, ext := range set {
			if _, ok := exts[ext]; !ok {
				allPresent = false
				break
			}
		}
		if allPresent {
			return true
		}
	}
	return false
}

// skippableAncestorPatterns match directory names that are walked through
// (but skipped over) when climbing from an unsplittable directory to find
// its enclosing release root.
var skippableAncestorPatterns = regexp.MustCompile(`(?i)^(cd[1-9]|samples?|proofs?|(vob)?sub(title)?s?|bdmv|disc\d*|video_ts)$`)

// UnsplittableRoot walks upward from dirParts (a directory's path segments,
// in order from the filesystem root) skipping ancestor directories whose
// name matches the configured skip patterns, and returns the path segments
// (inclusive) of the enclosing release root.
//
// "backup" is only skippable when its parent is "bdmv" -- evaluated here by
// looking at the segment immediately below it in the climbed path.
func UnsplittableRoot(dirParts []string) []string {
	end := len(dirParts)
	for end > 1 {
		name := dirParts[end-1]
		if strings.EqualFold(name, "backup") {
			if end >= 2 && strings.EqualFold(dirParts[end-2], "bdmv") {
				end--
				continue
			}
			break
		}
		if skippableAncestorPatterns.MatchString(name) {
			end--
			continue
		}
		break
	}
	return dirParts[:end]
}

// potentiallyMissableParent matches a file's immediate parent directory
// name for the "potentially missable" predicate.
var potentiallyMissableParent = regexp.MustCompile(`(?i)^(samples?|proofs?|(vob)?sub(title)?s?)$`)

// potentiallyMissableBasename matches a file's basename for the
// "potentially missable" predicate.
var potentiallyMissableBasename = regexp.MustCompile(`(?i)\.(nfo|sfv|diz|txt)$`)

// PotentiallyMissable reports whether a torrent file may be absent from a
// candidate unsplittable match without disqualifying the candidate.
func PotentiallyMissable(relPath string) bool {
	dir, base := path.Split(relPath)
	dir = strings.TrimSuffix(dir, "/")
	parent := path.Base(dir)

	if parent != "." && parent != "" && potentiallyMissableParent.MatchString(parent) {
		return true
	}
	return potentiallyMissableBasename.MatchString(base)
}
