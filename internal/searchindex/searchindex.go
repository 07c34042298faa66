// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package searchindex is the persistent file/torrent index built atop
// internal/database: two tables (files; client_torrents with child
// client_torrentfiles) sized to sustain millions of rows with
// constant-factor lookups on normalized name or size.
package searchindex

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/autoseed/autoseed/internal/database"
	"github.com/autoseed/autoseed/internal/domain"
	"github.com/autoseed/autoseed/internal/normalize"
)

// Index wraps a database.DB with the search-index operations.
type Index struct {
	db *database.DB
}

// New builds an Index over an already-opened database.
func New(db *database.DB) *Index {
	return &Index{db: db}
}

// FileRecord is one entry submitted to InsertFiles.
type FileRecord struct {
	Name             string
	ParentPath       string
	Size             int64
	UnsplittableRoot string
}

// InsertFiles batches record inserts into transactions of at most
// batchSize rows (the concurrency model requires ≥1,000 rows per
// transaction); idempotent on (parent_path, name).
func InsertFiles(ctx context.Context, idx *Index, records []FileRecord, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 1000
	}

	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		err := idx.db.WriteTx(ctx, func(tx *sql.Tx) error {
			stmt, err := tx.PrepareContext(ctx, `
				INSERT INTO files (name, parent_path, size, normalized_name, unsplittable_root)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT (parent_path, name) DO UPDATE SET
					size = excluded.size,
					normalized_name = excluded.normalized_name,
					unsplittable_root = excluded.unsplittable_root
			`)
			if err != nil {
				return fmt.Errorf("prepare insert_files: %w", err)
			}
			defer stmt.Close()

			for _, r := range batch {
				if _, err := stmt.ExecContext(ctx, r.Name, r.ParentPath, r.Size,
					normalize.Filename(r.Name), r.UnsplittableRoot); err != nil {
					return fmt.Errorf("insert file %s/%s: %w", r.ParentPath, r.Name, err)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// TruncateFiles removes all file entries, for a full scan.
func TruncateFiles(ctx context.Context, idx *Index) error {
	_, err := idx.db.ExecWrite(ctx, "DELETE FROM files")
	if err != nil {
		return fmt.Errorf("truncate_files: %w", err)
	}
	return nil
}

// Search runs the conjunction of constraints in q against the files
// table, returning matching FileEntry rows.
func Search(ctx context.Context, idx *Index, q domain.SearchQuery) ([]domain.FileEntry, error) {
	if q.IsEmpty() {
		return nil, fmt.Errorf("search: at least one constraint must be present")
	}
	if q.ConflictsUnsplittable() {
		return nil, fmt.Errorf("search: unsplittable and unsplittable_root are mutually exclusive")
	}

	var clauses []string
	var args []any

	if q.Filename != "" {
		clauses = append(clauses, "name = ?")
		args = append(args, q.Filename)
	}
	if q.NormalizedName != "" {
		clauses = append(clauses, "normalized_name = ?")
		args = append(args, q.NormalizedName)
	}
	if q.Size != nil {
		clauses = append(clauses, "size = ?")
		args = append(args, *q.Size)
	}
	if q.Parent != "" {
		clauses = append(clauses, "parent_path = ?")
		args = append(args, q.Parent)
	}
	if q.ParentPostfix != "" {
		clauses = append(clauses, "(parent_path = ? OR parent_path LIKE ?)")
		args = append(args, q.ParentPostfix, "%/"+q.ParentPostfix)
	}
	if q.Unsplittable != nil {
		if *q.Unsplittable {
			clauses = append(clauses, "unsplittable_root != ''")
		} else {
			clauses = append(clauses, "unsplittable_root = ''")
		}
	}
	if q.UnsplittableRoot != "" {
		clauses = append(clauses, "unsplittable_root = ?")
		args = append(args, q.UnsplittableRoot)
	}

	query := "SELECT name, parent_path, size, normalized_name, unsplittable_root FROM files WHERE " +
		strings.Join(clauses, " AND ")

	rows, err := idx.db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	var out []domain.FileEntry
	for rows.Next() {
		var e domain.FileEntry
		if err := rows.Scan(&e.Name, &e.ParentPath, &e.Size, &e.NormalizedName, &e.UnsplittableRoot); err != nil {
			return nil, fmt.Errorf("search: scan row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
