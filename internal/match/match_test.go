// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package match

import (
	"context"
	"strings"

	"github.com/autoseed/autoseed/internal/domain"
	"github.com/autoseed/autoseed/internal/normalize"
)

// fakeIndex is an in-memory stand-in for the search index, used so matcher
// tests don't need a real SQLite-backed index.
type fakeIndex struct {
	entries []domain.FileEntry
}

func newFakeIndex() *fakeIndex { return &fakeIndex{} }

// add registers a file at parent/name with the given size, deriving
// NormalizedName the same way the indexer would and storing
// unsplittableRoot as given.
func (f *fakeIndex) add(parent, name string, size int64, unsplittableRoot string) {
	f.entries = append(f.entries, domain.FileEntry{
		Name:             name,
		ParentPath:       parent,
		Size:             size,
		NormalizedName:   normalize.Filename(name),
		UnsplittableRoot: unsplittableRoot,
	})
}

func (f *fakeIndex) Search(ctx context.Context, q domain.SearchQuery) ([]domain.FileEntry, error) {
	var out []domain.FileEntry
	for _, e := range f.entries {
		if q.Filename != "" && e.Name != q.Filename {
			continue
		}
		if q.NormalizedName != "" && e.NormalizedName != q.NormalizedName {
			continue
		}
		if q.Size != nil && e.Size != *q.Size {
			continue
		}
		if q.Parent != "" && e.ParentPath != q.Parent {
			continue
		}
		if q.ParentPostfix != "" && !strings.HasSuffix(e.ParentPath, q.ParentPostfix) {
			continue
		}
		if q.UnsplittableRoot != "" && e.UnsplittableRoot != q.UnsplittableRoot {
			continue
		}
		if q.Unsplittable != nil && (e.UnsplittableRoot != "") != *q.Unsplittable {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// buildTorrent constructs a minimal domain.Torrent from a flat list of
// (relative path, size) pairs and the given piece length. Files share a
// piece wherever a file boundary falls inside one.
func buildTorrent(name string, pieceLength int64, files []struct {
	Path string
	Size int64
}) *domain.Torrent {
	var paths []string
	var sizes []int64
	var total int64
	for _, f := range files {
		paths = append(paths, f.Path)
		sizes = append(sizes, f.Size)
		total += f.Size
	}

	engine := domain.NewPieceEngine(pieceLength, nil)
	fileList := domain.BuildFileList(engine, paths, sizes)

	numPieces := int((total + pieceLength - 1) / pieceLength)
	pieces := make([]domain.PieceHash, numPieces)

	t := &domain.Torrent{
		Name:        name,
		TotalSize:   total,
		PieceLength: pieceLength,
		Pieces:      pieces,
		FileList:    fileList,
	}
	return t
}
