// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Watch mode is not part of the distilled scan model, but reuses the same
// aggregator and walk machinery to keep the index warm between scheduled
// full scans: fsnotify events are debounced per root and trigger a partial
// re-scan of the affected root.
package indexer

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/autoseed/autoseed/pkg/debounce"
)

// Watcher re-scans configured roots shortly after fsnotify reports activity
// under them, rather than waiting for the next scheduled full scan.
type Watcher struct {
	indexer *Indexer
	roots   []string
	delay   time.Duration

	watcher    *fsnotify.Watcher
	debouncers map[string]*debounce.Debouncer
}

// NewWatcher builds a Watcher for roots, debouncing repeated events on the
// same root within delay into a single re-scan.
func NewWatcher(x *Indexer, roots []string, delay time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		indexer:    x,
		roots:      roots,
		delay:      delay,
		watcher:    fsw,
		debouncers: make(map[string]*debounce.Debouncer, len(roots)),
	}

	for _, root := range roots {
		if err := fsw.Add(root); err != nil {
			log.Warn().Err(err).Str("root", root).Msg("watch mode: could not watch root")
			continue
		}
		w.debouncers[root] = debounce.New(delay)
	}

	return w, nil
}

// Run processes fsnotify events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			for _, d := range w.debouncers {
				d.Stop()
			}
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			root := w.rootFor(event.Name)
			if root == "" {
				continue
			}
			d := w.debouncers[root]
			d.Do(func() {
				log.Info().Str("root", root).Msg("watch mode: re-scanning root after activity")
				if err := w.indexer.ScanPaths(context.Background(), []string{root}, false); err != nil {
					log.Error().Err(err).Str("root", root).Msg("watch mode: re-scan failed")
				}
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("watch mode: fsnotify error")
		}
	}
}

func (w *Watcher) rootFor(path string) string {
	for _, root := range w.roots {
		if len(path) >= len(root) && path[:len(root)] == root {
			return root
		}
	}
	return ""
}
