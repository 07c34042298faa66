// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"fmt"
	"os"
	"strings"
)

// UpdateLogSettings rewrites the persisted logLevel/logPath/logMaxSize/
// logMaxBackups keys in place, uncommenting them if necessary, without
// disturbing the rest of the file's comments or key ordering.
func (c *AppConfig) UpdateLogSettings(level, logPath string, maxSize, maxBackups int) error {
	raw, err := os.ReadFile(c.configPath)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	updated := updateLogSettingsInTOML(string(raw), level, logPath, maxSize, maxBackups)

	if err := os.WriteFile(c.configPath, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	c.Config.LogLevel = level
	c.Config.LogPath = logPath
	c.Config.LogMaxSize = maxSize
	c.Config.LogMaxBackups = maxBackups
	return nil
}

// updateLogSettingsInTOML sets logLevel/logPath/logMaxSize/logMaxBackups
// in content, updating an existing (possibly commented-out) key in place
// and appending the key at the end of the file only if it's missing
// entirely.
func updateLogSettingsInTOML(content, level, logPath string, maxSize, maxBackups int) string {
	replacements := map[string]string{
		"logLevel":      fmt.Sprintf("logLevel = %q", level),
		"logPath":       fmt.Sprintf("logPath = %q", logPath),
		"logMaxSize":    fmt.Sprintf("logMaxSize = %d", maxSize),
		"logMaxBackups": fmt.Sprintf("logMaxBackups = %d", maxBackups),
	}
	applied := make(map[string]bool, len(replacements))

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		key, ok := tomlKeyOf(line)
		if !ok {
			continue
		}
		if replacement, wanted := replacements[key]; wanted {
			lines[i] = replacement
			applied[key] = true
		}
	}

	var missing []string
	for key := range replacements {
		if !applied[key] {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return strings.Join(lines, "\n")
	}

	var out strings.Builder
	out.WriteString(strings.Join(lines, "\n"))
	out.WriteString("\n")
	for _, key := range []string{"logLevel", "logPath", "logMaxSize", "logMaxBackups"} {
		if applied[key] {
			continue
		}
		out.WriteString(replacements[key])
		out.WriteString("\n")
	}
	return out.String()
}

// tomlKeyOf extracts the bare key name from a TOML assignment line,
// tolerating a single leading '#' (a commented-out default). Blank lines,
// [section] header lines and lines without '=' return ok=false.
func tomlKeyOf(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	trimmed = strings.TrimPrefix(trimmed, "#")
	trimmed = strings.TrimSpace(trimmed)

	if trimmed == "" || strings.HasPrefix(trimmed, "[") {
		return "", false
	}

	idx := strings.Index(trimmed, "=")
	if idx < 0 {
		return "", false
	}

	key := strings.TrimSpace(trimmed[:idx])
	if key == "" {
		return "", false
	}
	return key, true
}
