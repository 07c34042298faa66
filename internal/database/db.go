// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package database is the single-writer SQLite layer backing the search
// index: a connection pool for concurrent reads, and one dedicated write
// connection fed by a buffered channel so every write is serialized
// without blocking readers.
package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	defaultBusyTimeoutMillis = 5000
	connectionSetupTimeout   = 10 * time.Second
	writeChannelBuffer       = 256
)

type writeReq struct {
	ctx   context.Context
	query string
	args  []any
	resCh chan writeRes
}

type writeRes struct {
	result sql.Result
	err    error
}

// DB is the process-wide handle onto the search index database.
type DB struct {
	conn      *sql.DB
	writeConn *sql.Conn
	writeCh   chan writeReq

	stop      chan struct{}
	closeOnce sync.Once
	writerWG  sync.WaitGroup
}

func applyConnectionPragmas(ctx context.Context, conn interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		fmt.Sprintf("PRAGMA busy_timeout = %d", defaultBusyTimeoutMillis),
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("apply connection pragma %q: %w", pragma, err)
		}
	}
	return nil
}

// Open opens (creating if necessary) the database at path, runs pending
// migrations, and starts the single writer goroutine.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create database directory %s: %w", dir, err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database at %s: %w", path, err)
	}

	// Single connection during migrations avoids stale-schema races.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), connectionSetupTimeout)
	defer cancel()
	if err := applyConnectionPragmas(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{
		conn:    conn,
		writeCh: make(chan writeReq, writeChannelBuffer),
		stop:    make(chan struct{}),
	}

	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	conn.SetMaxOpenConns(0)
	conn.SetMaxIdleConns(4)

	writeCtx, writeCancel := context.WithTimeout(context.Background(), connectionSetupTimeout)
	defer writeCancel()
	writeConn, err := conn.Conn(writeCtx)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("acquire write connection: %w", err)
	}
	db.writeConn = writeConn

	db.writerWG.Add(1)
	go db.writerLoop()

	log.Info().Str("path", path).Msg("search index database ready")
	return db, nil
}

// Conn exposes the read pool for callers building their own queries
// (internal/searchindex).
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// ExecWrite enqueues a write query onto the single writer and blocks for
// its result. Safe for concurrent callers; writes are still serialized.
func (db *DB) ExecWrite(ctx context.Context, query string, args ...any) (sql.Result, error) {
	resCh := make(chan writeRes, 1)
	req := writeReq{ctx: ctx, query: query, args: args, resCh: resCh}

	select {
	case db.writeCh <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-resCh:
		return res.result, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// WriteTx runs fn against a transaction on the dedicated write connection,
// serialized through the writer goroutine. Callers should batch at least
// 1,000 rows per transaction per the concurrency model.
func (db *DB) WriteTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	resCh := make(chan writeRes, 1)
	done := make(chan struct{})

	req := writeReq{ctx: ctx, query: "__tx__", resCh: resCh}
	req.args = []any{func() error {
		tx, err := db.writeConn.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			tx.Rollback()
			return err
		}
		return tx.Commit()
	}}

	go func() {
		defer close(done)
		select {
		case db.writeCh <- req:
		case <-ctx.Done():
		}
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case res := <-resCh:
		return res.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (db *DB) writerLoop() {
	defer db.writerWG.Done()

	draining := false
	for {
		if draining {
			select {
			case req, ok := <-db.writeCh:
				if !ok {
					return
				}
				db.processWrite(req)
			default:
				return
			}
			continue
		}

		select {
		case req, ok := <-db.writeCh:
			if !ok {
				return
			}
			db.processWrite(req)
		case <-db.stop:
			draining = true
		}
	}
}

func (db *DB) processWrite(req writeReq) {
	if req.query == "__tx__" {
		fn := req.args[0].(func() error)
		err := fn()
		select {
		case req.resCh <- writeRes{err: err}:
		default:
		}
		return
	}

	res, err := db.writeConn.ExecContext(req.ctx, req.query, req.args...)
	select {
	case req.resCh <- writeRes{result: res, err: err}:
	default:
	}
}

// Close drains pending writes and releases both connections.
func (db *DB) Close() error {
	var closeErr error
	db.closeOnce.Do(func() {
		close(db.stop)
		db.writerWG.Wait()
		if db.writeConn != nil {
			closeErr = db.writeConn.Close()
		}
		if err := db.conn.Close(); err != nil && closeErr == nil {
			closeErr = err
		}
	})
	return closeErr
}

func (db *DB) migrate(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS migrations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			filename TEXT NOT NULL UNIQUE,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read embedded migrations: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin migration transaction: %w", err)
	}
	defer tx.Rollback()

	for _, filename := range files {
		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM migrations WHERE filename = ?", filename).Scan(&count); err != nil {
			return fmt.Errorf("check migration status for %s: %w", filename, err)
		}
		if count > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + filename)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", filename, err)
		}
		if _, err := tx.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", filename, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO migrations (filename) VALUES (?)", filename); err != nil {
			return fmt.Errorf("record migration %s: %w", filename, err)
		}
		log.Debug().Str("migration", filename).Msg("applied migration")
	}

	return tx.Commit()
}
