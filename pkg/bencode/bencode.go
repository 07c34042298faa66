// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package bencode is the reusable bencode codec consumed by the matching
// core. It decodes arbitrary bencoded blobs into a generic tree
// (map[string]any / []any / string / int64) and re-encodes sub-trees, the
// same shape the core's torrent parser expects to receive already decoded.
package bencode

import (
	"bytes"
	"fmt"

	"github.com/zeebo/bencode"
)

// Dict is a decoded bencode dictionary with byte-string keys.
type Dict = map[string]any

// Decode decodes a bencoded blob into a generic tree. Dictionaries decode
// to Dict, lists to []any, byte strings to string, and integers to int64.
func Decode(data []byte) (Dict, error) {
	var tree Dict
	if err := bencode.NewDecoder(bytes.NewReader(data)).Decode(&tree); err != nil {
		return nil, fmt.Errorf("decode bencode: %w", err)
	}
	return tree, nil
}

// Encode re-encodes a decoded tree (or sub-tree) back into canonical
// bencode form. The core uses this only to re-encode the info dictionary
// for infohash computation.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := bencode.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("encode bencode: %w", err)
	}
	return buf.Bytes(), nil
}

// String extracts a string-valued key from a dict, returning ok=false if
// the key is absent or not a string.
func String(d Dict, key string) (string, bool) {
	v, ok := d[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Int extracts an integer-valued key from a dict, returning ok=false if the
// key is absent or not numeric.
func Int(d Dict, key string) (int64, bool) {
	v, ok := d[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}

// List extracts a list-valued key from a dict.
func List(d Dict, key string) ([]any, bool) {
	v, ok := d[key]
	if !ok {
		return nil, false
	}
	l, ok := v.([]any)
	return l, ok
}

// SubDict extracts a dict-valued key from a dict.
func SubDict(d Dict, key string) (Dict, bool) {
	v, ok := d[key]
	if !ok {
		return nil, false
	}
	sub, ok := v.(Dict)
	return sub, ok
}
