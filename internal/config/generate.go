// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import "fmt"

// generateDefaultTOML renders the commented config.toml written on first
// run. configPath is only used in the header comment.
func generateDefaultTOML(configPath string) string {
	return fmt.Sprintf(`# config.toml - Auto-generated on first run
# %s

# Directory holding the search index and run state.
# Default: directory containing this file
#dataDir = ""

# Log level
# Default: "info"
# Options: "error", "warn", "info", "debug", "trace"
logLevel = "info"

# Log file path
# If not defined, logs to stdout
# Optional
#logPath = ""

# Log rotation
# Maximum log file size in megabytes before rotation
# Default: 50
#logMaxSize = 50

# Number of rotated log files to retain (0 keeps all)
# Default: 3
#logMaxBackups = 3

# Directories to scan and index.
scanPaths = []

# Case-insensitive glob patterns matched against directory basenames
# during a scan. Matching directories are skipped entirely.
ignoreDirectoryPatterns = []

# Case-sensitive glob patterns matched against file basenames during
# a scan. Matching files are skipped.
ignoreFilePatterns = []

# Best-effort handling of non-UTF-8 paths during scanning.
# Default: false
compatibilityMode = false

# Maximum absolute number of missing bytes a dynamic match may tolerate.
# 0 defers entirely to addLimitPercent.
# Default: 0
addLimitSize = 0

# Maximum percentage of a torrent's total size that may be missing for
# a dynamic match to still succeed.
# Default: 5
addLimitPercent = 5

# Look up dynamic-match files by size alone instead of by normalized
# name and size.
# Default: false
matchHashSize = false

# Verify dynamic-match candidates by probing piece hashes.
# Default: true
hashProbe = true

# Basename patterns that are always piece-hash verified, regardless of
# which matcher produced the candidate.
alwaysVerifyPatterns = ["*.nfo", "*.sfv", "*.mp3", "*.flac"]

# Template rendered to build the staged directory for a matched torrent.
# Default: "{client}/{torrent_name}"
storeTemplate = "{client}/{torrent_name}"

# Skip the data/ indirection and torrent/sidecar copies, staging the
# torrent's relative tree directly at the expanded store path.
# Default: false
skipStoreMetadata = false

# How matched files are materialized into the store.
# Options: "symlink", "hardlink", "reflink"
linkType = "hardlink"

# Root of the read-write touched-file cache.
# Default: dataDir/cache
#cachePath = ""

# How long an idle cache entry survives before cleanup_cache reverts it.
# Default: 3600
cacheTtlSeconds = 3600

# Configured download clients.
#[[clients]]
#name = "qbit1"
#type = "qbittorrent"
#host = "http://localhost:8080"
#username = "admin"
#password = "adminadmin"
`, configPath)
}
