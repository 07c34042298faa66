// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package logging configures the global zerolog logger from a domain.Config,
// rotating to disk via lumberjack when a log path is configured.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/autoseed/autoseed/internal/domain"
)

// Init sets the global zerolog logger's level and output according to cfg.
// When cfg.LogPath is empty, logs go to a human-readable console writer on
// stderr; otherwise they also rotate into cfg.LogPath via lumberjack. The
// returned io.Closer flushes the rotator and must be closed on shutdown; it
// is nil when no log file is configured.
func Init(cfg *domain.Config) (io.Closer, error) {
	setLevel(cfg.LogLevel)

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}

	if cfg.LogPath == "" {
		log.Logger = log.Output(console)
		return nil, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0o750); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	maxSize := cfg.LogMaxSize
	if maxSize <= 0 {
		maxSize = 50
	}
	maxBackups := cfg.LogMaxBackups
	if maxBackups < 0 {
		maxBackups = 0
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.LogPath,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
	}

	log.Logger = log.Output(zerolog.MultiLevelWriter(console, rotator))
	return rotator, nil
}

func setLevel(level string) {
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}
