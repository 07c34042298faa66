// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

// FileEntry is a single indexed file on disk, as persisted by the search
// index. Keys are unique on (Name, ParentPath); NormalizedName and Size
// are secondary indices.
type FileEntry struct {
	Name           string
	ParentPath     string
	Size           int64
	NormalizedName string

	// UnsplittableRoot is the absolute path of the enclosing unsplittable
	// release directory, if this file lives inside one.
	UnsplittableRoot string
}

// HasUnsplittableRoot reports whether this entry belongs to an unsplittable
// release directory.
func (f FileEntry) HasUnsplittableRoot() bool {
	return f.UnsplittableRoot != ""
}

// ClientTorrent is one torrent as reported by a configured download client.
type ClientTorrent struct {
	ClientName   string
	InfoHash     string
	Name         string
	DownloadPath string
	Files        []ClientTorrentFile
}

// ClientTorrentFile is one file within a ClientTorrent, recording both the
// literal reported path and its symlink-resolved form when they differ.
type ClientTorrentFile struct {
	Path         string
	ResolvedPath string
	Size         int64
}

// SeededPath is a row returned by get_seeded_paths: a file, as reported by
// a client, matched against a candidate on-disk path.
type SeededPath struct {
	ClientName   string
	InfoHash     string
	Path         string
	Size         int64
	Name         string
	DownloadPath string
}

// SearchQuery is the conjunction of constraints accepted by the search
// index's Search operation. At least one field must be set.
type SearchQuery struct {
	Filename         string
	NormalizedName   string
	Size             *int64
	Parent           string
	ParentPostfix    string
	Unsplittable     *bool
	UnsplittableRoot string
}

// IsEmpty reports whether the query has no constraints set, which is
// invalid: a Search call must always narrow by at least one field.
func (q SearchQuery) IsEmpty() bool {
	return q.Filename == "" && q.NormalizedName == "" && q.Size == nil &&
		q.Parent == "" && q.ParentPostfix == "" && q.Unsplittable == nil && q.UnsplittableRoot == ""
}

// ConflictsUnsplittable reports whether the query illegally combines
// Unsplittable with UnsplittableRoot.
func (q SearchQuery) ConflictsUnsplittable() bool {
	return q.Unsplittable != nil && q.UnsplittableRoot != ""
}
