// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package stage implements the link materializer: rendering the store
// template, creating the staged directory layout, and populating it with
// links or copies of the matched payload.
package stage

import (
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/autoseed/autoseed/pkg/pathutil"
)

// TemplateVars supplies the built-in substitutions for a store template,
// plus any user-defined key=value pairs.
type TemplateVars struct {
	Client        string
	TorrentName   string // stem of the .torrent filename
	TrackerDomain string // registrable domain of the first tracker
	TorrentSource string // info.source, if present

	Extra map[string]string
}

// Render expands a store_template like "{client}/{torrent_name}" against
// vars, sanitizing every substituted segment so the result is always a
// safe relative path.
func Render(tmpl string, vars TemplateVars) string {
	replacements := map[string]string{
		"{client}":         vars.Client,
		"{torrent_name}":   vars.TorrentName,
		"{tracker_domain}": vars.TrackerDomain,
		"{torrent_source}": vars.TorrentSource,
	}
	for k, v := range vars.Extra {
		replacements["{"+k+"}"] = v
	}

	out := tmpl
	for placeholder, value := range replacements {
		out = strings.ReplaceAll(out, placeholder, pathutil.SanitizePathSegment(value))
	}
	return path.Clean(out)
}

// TrackerDomain extracts the registrable-ish domain from a tracker URL,
// replacing path separators with "_" so it's safe to use as a single
// path segment in a rendered store template.
func TrackerDomain(trackerURL string) string {
	u, err := url.Parse(trackerURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := u.Hostname()
	if h, _, err := splitHostPort(host); err == nil {
		host = h
	}
	return strings.ReplaceAll(host, "/", "_")
}

func splitHostPort(host string) (string, string, error) {
	idx := strings.LastIndex(host, ":")
	if idx < 0 {
		return host, "", nil
	}
	if _, err := strconv.Atoi(host[idx+1:]); err != nil {
		return host, "", nil
	}
	return host[:idx], host[idx+1:], nil
}
