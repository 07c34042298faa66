// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package searchindex

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/autoseed/autoseed/internal/domain"
)

// InsertClientTorrents first removes any existing rows for
// (client, infohash) of every torrent being inserted, then inserts the
// torrent rows and their files in a single transaction.
func InsertClientTorrents(ctx context.Context, idx *Index, client string, torrents []domain.ClientTorrent) error {
	return idx.db.WriteTx(ctx, func(tx *sql.Tx) error {
		for _, t := range torrents {
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM client_torrents WHERE client_name = ? AND infohash = ?", client, t.InfoHash); err != nil {
				return fmt.Errorf("delete existing torrent %s: %w", t.InfoHash, err)
			}

			res, err := tx.ExecContext(ctx,
				"INSERT INTO client_torrents (client_name, infohash, name, download_path) VALUES (?, ?, ?, ?)",
				client, t.InfoHash, t.Name, t.DownloadPath)
			if err != nil {
				return fmt.Errorf("insert torrent %s: %w", t.InfoHash, err)
			}
			torrentID, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("read torrent id for %s: %w", t.InfoHash, err)
			}

			stmt, err := tx.PrepareContext(ctx,
				"INSERT INTO client_torrentfiles (torrent_id, file_path, resolved_path, file_size) VALUES (?, ?, ?, ?)")
			if err != nil {
				return fmt.Errorf("prepare client_torrentfiles insert: %w", err)
			}
			for _, f := range t.Files {
				resolved := f.ResolvedPath
				if resolved == "" {
					resolved = f.Path
				}
				if _, err := stmt.ExecContext(ctx, torrentID, f.Path, resolved, f.Size); err != nil {
					stmt.Close()
					return fmt.Errorf("insert torrent file %s: %w", f.Path, err)
				}
			}
			stmt.Close()
		}
		return nil
	})
}

// RemoveNonExisting deletes every client_torrents row for client whose
// infohash is not in observedInfoHashes.
func RemoveNonExisting(ctx context.Context, idx *Index, client string, observedInfoHashes []string) error {
	if len(observedInfoHashes) == 0 {
		_, err := idx.db.ExecWrite(ctx, "DELETE FROM client_torrents WHERE client_name = ?", client)
		if err != nil {
			return fmt.Errorf("remove_non_existing: %w", err)
		}
		return nil
	}

	placeholders := strings.Repeat("?,", len(observedInfoHashes))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(observedInfoHashes)+1)
	args = append(args, client)
	for _, h := range observedInfoHashes {
		args = append(args, h)
	}

	query := fmt.Sprintf("DELETE FROM client_torrents WHERE client_name = ? AND infohash NOT IN (%s)", placeholders)
	_, err := idx.db.ExecWrite(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("remove_non_existing: %w", err)
	}
	return nil
}

// HasTorrent reports whether a (client, infohash) row already exists,
// used by scan_clients' fast-scan skip.
func HasTorrent(ctx context.Context, idx *Index, client, infoHash string) (bool, string, error) {
	var downloadPath string
	err := idx.db.Conn().QueryRowContext(ctx,
		"SELECT download_path FROM client_torrents WHERE client_name = ? AND infohash = ?", client, infoHash).
		Scan(&downloadPath)
	if err == sql.ErrNoRows {
		return false, "", nil
	}
	if err != nil {
		return false, "", fmt.Errorf("has_torrent: %w", err)
	}
	return true, downloadPath, nil
}

// GetSeededPaths returns every (client, infohash, path, size, name,
// download_path) row whose stored file_path or resolved_path is in paths.
func GetSeededPaths(ctx context.Context, idx *Index, paths []string) ([]domain.SeededPath, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(paths))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(paths)*2)
	for _, p := range paths {
		args = append(args, p)
	}
	for _, p := range paths {
		args = append(args, p)
	}

	query := fmt.Sprintf(`
		SELECT ct.client_name, ct.infohash, ctf.file_path, ctf.file_size, ct.name, ct.download_path
		FROM client_torrentfiles ctf
		JOIN client_torrents ct ON ct.id = ctf.torrent_id
		WHERE ctf.file_path IN (%s) OR ctf.resolved_path IN (%s)
	`, placeholders, placeholders)

	rows, err := idx.db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get_seeded_paths: %w", err)
	}
	defer rows.Close()

	var out []domain.SeededPath
	for rows.Next() {
		var s domain.SeededPath
		if err := rows.Scan(&s.ClientName, &s.InfoHash, &s.Path, &s.Size, &s.Name, &s.DownloadPath); err != nil {
			return nil, fmt.Errorf("get_seeded_paths: scan row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
