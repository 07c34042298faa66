// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package match

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/autoseed/autoseed/internal/domain"
	"github.com/autoseed/autoseed/internal/normalize"
	"github.com/autoseed/autoseed/internal/pieceverify"
)

// DynamicOptions configures a DynamicMatch run.
type DynamicOptions struct {
	MatchHashSize   bool
	AddLimitSize    int64
	AddLimitPercent float64
	HashProbe       bool
	Accessor        pieceverify.FileAccessor // only used when HashProbe is true
}

type unsplittableGroup struct {
	root  string // torrent-relative root directory
	files []domain.TorrentFile
}

type rootCandidate struct {
	path    string
	matched map[string]string // torrent-relative path -> actual path
	score   int64
	allNonMissablePresent bool
}

// DynamicMatch partitions the torrent into unsplittable subtrees and
// loose files, matches each independently, then gates and resolves a
// final mapping.
func DynamicMatch(ctx context.Context, idx Index, t *domain.Torrent, opts DynamicOptions) (domain.DynamicMatchResult, error) {
	groups, loose := partition(t.FileList)

	rootCandidates := make(map[string][]rootCandidate, len(groups))
	for _, g := range groups {
		cands, err := matchUnsplittableGroup(ctx, idx, g)
		if err != nil {
			return domain.DynamicMatchResult{}, err
		}
		rootCandidates[g.root] = cands
	}

	looseCandidates := make(map[string][]domain.FileEntry, len(loose))
	for _, f := range loose {
		hits, err := matchLooseFile(ctx, idx, f, opts.MatchHashSize)
		if err != nil {
			return domain.DynamicMatchResult{}, err
		}
		looseCandidates[f.Path] = hits
	}

	maxMissing := opts.AddLimitSize
	percentLimit := int64(float64(t.TotalSize) * opts.AddLimitPercent / 100)
	if percentLimit < maxMissing || maxMissing == 0 {
		maxMissing = percentLimit
	}

	var bestPossible int64
	bestRootCandidate := make(map[string]rootCandidate, len(groups))
	for _, g := range groups {
		best, ok := pickBest(rootCandidates[g.root])
		if ok {
			bestRootCandidate[g.root] = best
			bestPossible += best.score
		}
	}
	for _, f := range loose {
		if len(looseCandidates[f.Path]) > 0 {
			bestPossible += f.Size
		}
	}

	if missing := t.TotalSize - bestPossible; missing > maxMissing {
		return domain.DynamicMatchResult{Success: false, MissingSize: missing}, nil
	}

	matchedFiles := make(map[string]domain.FileMapping, len(t.FileList))
	for _, g := range groups {
		best, ok := bestRootCandidate[g.root]
		for _, f := range g.files {
			if ok {
				if actual, present := best.matched[f.Path]; present {
					matchedFiles[f.Path] = domain.FileMapping{Present: true, Path: actual}
					continue
				}
			}
			matchedFiles[f.Path] = domain.FileMapping{Present: false}
		}
	}
	for _, f := range loose {
		chosen, ok := matchBestFile(t, f, looseCandidates[f.Path], opts)
		if ok {
			matchedFiles[f.Path] = domain.FileMapping{Present: true, Path: chosen}
		} else {
			matchedFiles[f.Path] = domain.FileMapping{Present: false}
		}
	}

	var currentMissing int64
	for _, f := range t.FileList {
		if !matchedFiles[f.Path].Present {
			currentMissing += f.Size
		}
	}
	if currentMissing > maxMissing {
		return domain.DynamicMatchResult{Success: false, MissingSize: currentMissing}, nil
	}

	touched := touchedFiles(t, matchedFiles)

	return domain.DynamicMatchResult{
		Success:      true,
		MissingSize:  currentMissing,
		MatchedFiles: matchedFiles,
		TouchedFiles: touched,
	}, nil
}

// partition splits the torrent's filelist into unsplittable-release groups
// (keyed by their torrent-relative root) and the remaining loose files.
func partition(files []domain.TorrentFile) ([]unsplittableGroup, []domain.TorrentFile) {
	byDir := make(map[string][]string)
	for _, f := range files {
		dir := path.Dir(f.Path)
		byDir[dir] = append(byDir[dir], path.Base(f.Path))
	}

	var roots []string
	for dir, names := range byDir {
		if normalize.IsUnsplittableDirectory(names) {
			rootParts := normalize.UnsplittableRoot(strings.Split(dir, "/"))
			roots = append(roots, strings.Join(rootParts, "/"))
		}
	}
	sort.Strings(roots)

	rootFor := func(p string) string {
		best := ""
		for _, r := range roots {
			if p == r || strings.HasPrefix(p, r+"/") {
				if len(r) > len(best) {
					best = r
				}
			}
		}
		return best
	}

	groupsByRoot := make(map[string]*unsplittableGroup)
	var loose []domain.TorrentFile
	for _, f := range files {
		dir := path.Dir(f.Path)
		root := rootFor(dir)
		if root == "" && !contains(roots, f.Path) {
			loose = append(loose, f)
			continue
		}
		if root == "" {
			root = f.Path
		}
		g, ok := groupsByRoot[root]
		if !ok {
			g = &unsplittableGroup{root: root}
			groupsByRoot[root] = g
		}
		g.files = append(g.files, f)
	}

	groups := make([]unsplittableGroup, 0, len(groupsByRoot))
	for _, g := range groupsByRoot {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].root < groups[j].root })

	return groups, loose
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// matchUnsplittableGroup finds and scores candidate disk roots for a
// single unsplittable release subtree.
func matchUnsplittableGroup(ctx context.Context, idx Index, g unsplittableGroup) ([]rootCandidate, error) {
	uBase := path.Base(g.root)

	candidateRoots := make(map[string]struct{})
	for _, anchor := range anchors(g.files) {
		rel := strings.TrimPrefix(strings.TrimPrefix(anchor.Path, g.root), "/")
		parentPostfix := path.Dir(rel)
		size := anchor.Size

		results, err := idx.Search(ctx, domain.SearchQuery{
			NormalizedName: normalize.Filename(path.Base(anchor.Path)),
			Size:           &size,
			ParentPostfix:  parentPostfix,
		})
		if err != nil {
			return nil, fmt.Errorf("dynamic match: anchor search for %s: %w", anchor.Path, err)
		}

		depth := len(strings.Split(rel, "/"))
		for _, hit := range results {
			candidateRoots[climb(hit.ParentPath, depth-1)] = struct{}{}
		}
	}

	var out []rootCandidate
	for root := range candidateRoots {
		cand, err := scoreUnsplittableCandidate(ctx, idx, g, root, uBase)
		if err != nil {
			return nil, err
		}
		if cand != nil {
			out = append(out, *cand)
		}
	}
	return out, nil
}

func scoreUnsplittableCandidate(ctx context.Context, idx Index, g unsplittableGroup, candidateRoot, uBase string) (*rootCandidate, error) {
	matched := make(map[string]string, len(g.files))
	var score int64
	allNonMissablePresent := true

	for _, f := range g.files {
		rel := strings.TrimPrefix(strings.TrimPrefix(f.Path, g.root), "/")
		parent := path.Join(candidateRoot, path.Dir(rel))
		size := f.Size

		results, err := idx.Search(ctx, domain.SearchQuery{
			NormalizedName: normalize.Filename(path.Base(f.Path)),
			Size:           &size,
			Parent:         parent,
		})
		if err != nil {
			return nil, fmt.Errorf("dynamic match: probe %s against %s: %w", f.Path, candidateRoot, err)
		}

		if len(results) > 0 {
			matched[f.Path] = path.Join(parent, results[0].Name)
			score += f.Size
		} else if !normalize.PotentiallyMissable(f.Path) {
			allNonMissablePresent = false
		}
	}

	if path.Base(candidateRoot) != uBase && !allNonMissablePresent {
		return nil, nil
	}

	return &rootCandidate{path: candidateRoot, matched: matched, score: score, allNonMissablePresent: allNonMissablePresent}, nil
}

func pickBest(candidates []rootCandidate) (rootCandidate, bool) {
	if len(candidates) == 0 {
		return rootCandidate{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.score > best.score {
			best = c
		}
	}
	return best, true
}

// matchLooseFile searches for candidates of a single file outside any
// unsplittable root.
func matchLooseFile(ctx context.Context, idx Index, f domain.TorrentFile, matchHashSize bool) ([]domain.FileEntry, error) {
	if matchHashSize {
		size := f.Size
		return idx.Search(ctx, domain.SearchQuery{Size: &size})
	}
	size := f.Size
	return idx.Search(ctx, domain.SearchQuery{NormalizedName: normalize.Filename(path.Base(f.Path)), Size: &size})
}

// matchBestFile implements _match_best_file: prefer exact filename
// matches, optionally probe piece hashes to disambiguate, and return the
// single chosen actual path.
func matchBestFile(t *domain.Torrent, f domain.TorrentFile, candidates []domain.FileEntry, opts DynamicOptions) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}

	exactName := path.Base(f.Path)
	var exact []domain.FileEntry
	for _, c := range candidates {
		if c.Name == exactName {
			exact = append(exact, c)
		}
	}
	pool := candidates
	if len(exact) > 0 {
		pool = exact
	}
	sort.Slice(pool, func(i, j int) bool {
		return path.Join(pool[i].ParentPath, pool[i].Name) < path.Join(pool[j].ParentPath, pool[j].Name)
	})

	if opts.HashProbe {
		var fallback string
		haveFallback := false

		for _, c := range pool {
			if opts.Accessor == nil {
				continue
			}
			actual := path.Join(c.ParentPath, c.Name)
			rc, err := opts.Accessor.Open(actual)
			if err != nil {
				continue
			}
			result, err := pieceverify.ProbeHash(t.Pieces, f, rc)
			rc.Close()
			if err != nil {
				continue
			}

			switch result {
			case pieceverify.ProbeMatch:
				return actual, true
			case pieceverify.ProbeUnknown:
				if !opts.MatchHashSize && !haveFallback {
					fallback, haveFallback = actual, true
				}
			case pieceverify.ProbeMismatch:
				// corrupted or otherwise wrong candidate, try the next one
			}
		}

		if haveFallback {
			return fallback, true
		}
		return "", false
	}

	chosen := pool[0]
	return path.Join(chosen.ParentPath, chosen.Name), true
}

// touchedFiles marks every torrent file that shares a piece (via index-set
// intersection) with a file that ended up absent in matchedFiles.
func touchedFiles(t *domain.Torrent, matchedFiles map[string]domain.FileMapping) map[string]struct{} {
	absentPieces := make(map[int]struct{})
	for _, f := range t.FileList {
		if matchedFiles[f.Path].Present {
			continue
		}
		offsets := f.Offsets()
		for i := offsets.FirstPiece; i <= offsets.LastPiece; i++ {
			absentPieces[f.Engine.AbsoluteIndex(i)] = struct{}{}
		}
	}

	touched := make(map[string]struct{})
	for _, f := range t.FileList {
		offsets := f.Offsets()
		for i := offsets.FirstPiece; i <= offsets.LastPiece; i++ {
			if _, hit := absentPieces[f.Engine.AbsoluteIndex(i)]; hit {
				touched[f.Path] = struct{}{}
				break
			}
		}
	}
	return touched
}
