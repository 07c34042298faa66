// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package match implements the exact and dynamic matchers: given a
// parsed torrent and a search index, find where its payload already
// lives on disk.
package match

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/autoseed/autoseed/internal/domain"
	"github.com/autoseed/autoseed/internal/normalize"
	"github.com/autoseed/autoseed/internal/searchindex"
	"github.com/autoseed/autoseed/pkg/pathcmp"
)

// Index is the subset of searchindex operations the matchers depend on,
// so tests can substitute an in-memory stub.
type Index interface {
	Search(ctx context.Context, q domain.SearchQuery) ([]domain.FileEntry, error)
}

type indexAdapter struct {
	idx *searchindex.Index
}

// NewIndex adapts a *searchindex.Index to the Index interface.
func NewIndex(idx *searchindex.Index) Index {
	return indexAdapter{idx: idx}
}

func (a indexAdapter) Search(ctx context.Context, q domain.SearchQuery) ([]domain.FileEntry, error) {
	return searchindex.Search(ctx, a.idx, q)
}

// anchorFraction is the "top 5%" anchor sample used by both matchers.
const anchorFraction = 0.05

// anchors returns the top ceil(5%) of files sorted by
// (not potentially_missable, size) descending, with a floor of one file
// so even a tiny torrent gets an anchor.
func anchors(files []domain.TorrentFile) []domain.TorrentFile {
	sorted := make([]domain.TorrentFile, len(files))
	copy(sorted, files)
	sort.SliceStable(sorted, func(i, j int) bool {
		iMissable := normalize.PotentiallyMissable(sorted[i].Path)
		jMissable := normalize.PotentiallyMissable(sorted[j].Path)
		if iMissable != jMissable {
			return !iMissable // not-missable (false) sorts first
		}
		return sorted[i].Size > sorted[j].Size
	})

	n := int(float64(len(sorted))*anchorFraction + 0.999999)
	if n < 1 {
		n = 1
	}
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// ExactMatch finds a single directory R such that every torrent file
// exists at R/f.path with matching size.
func ExactMatch(ctx context.Context, idx Index, t *domain.Torrent) (domain.ExactMatchResult, error) {
	if len(t.FileList) == 0 {
		return domain.ExactMatchResult{}, fmt.Errorf("exact match: torrent has no files")
	}

	// Keyed by normalized form so roots that differ only by separator
	// style or case (possible under CompatibilityMode) are probed once.
	candidateRoots := make(map[string]string)
	for _, anchor := range anchors(t.FileList) {
		parentPostfix := path.Dir(anchor.Path)
		if parentPostfix == "." {
			// A top-level file puts no constraint on its parent directory.
			parentPostfix = ""
		}
		results, err := idx.Search(ctx, domain.SearchQuery{
			Filename:      path.Base(anchor.Path),
			Size:          &anchor.Size,
			ParentPostfix: parentPostfix,
		})
		if err != nil {
			return domain.ExactMatchResult{}, fmt.Errorf("exact match: anchor search: %w", err)
		}

		depth := len(strings.Split(anchor.Path, "/")) - 1
		for _, hit := range results {
			root := climb(hit.ParentPath, depth)
			candidateRoots[pathcmp.NormalizePathFold(root)] = root
		}
	}

	for _, root := range candidateRoots {
		if ok, err := probeCandidateRoot(ctx, idx, t, root); err != nil {
			return domain.ExactMatchResult{}, err
		} else if ok {
			return domain.ExactMatchResult{Matched: true, Root: root}, nil
		}
	}

	return domain.ExactMatchResult{}, nil
}

// probeCandidateRoot checks every torrent file's exact (filename, size,
// parent) against root; any miss discards the candidate.
func probeCandidateRoot(ctx context.Context, idx Index, t *domain.Torrent, root string) (bool, error) {
	for _, f := range t.FileList {
		parent := path.Join(root, path.Dir(f.Path))
		size := f.Size
		results, err := idx.Search(ctx, domain.SearchQuery{
			Filename: path.Base(f.Path),
			Size:     &size,
			Parent:   parent,
		})
		if err != nil {
			return false, fmt.Errorf("exact match: probe %s: %w", f.Path, err)
		}
		if len(results) == 0 {
			return false, nil
		}
	}
	return true, nil
}

// climb removes `depth` trailing path segments from p, i.e. walks up from
// a hit's parent directory to the release root implied by a file found
// `depth` levels below that root.
func climb(p string, depth int) string {
	for i := 0; i < depth; i++ {
		p = path.Dir(p)
	}
	return p
}
