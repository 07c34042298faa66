// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package pieceverify

import (
	"bytes"
	"crypto/sha1"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoseed/autoseed/internal/domain"
)

type memFile struct {
	data []byte
}

func (m *memFile) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(m.data)) {
		return 0, errEOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, errEOF
	}
	return n, nil
}
func (m *memFile) Close() error { return nil }

var errEOF = bytesEOF{}

type bytesEOF struct{}

func (bytesEOF) Error() string { return "EOF" }

type memAccessor struct {
	files map[string][]byte
}

func (a memAccessor) Open(path string) (ReadAtCloser, error) {
	data, ok := a.files[path]
	if !ok {
		return nil, errNotFound{path}
	}
	return &memFile{data: data}, nil
}

type errNotFound struct{ path string }

func (e errNotFound) Error() string { return "not found: " + e.path }

func buildTorrent(t *testing.T, pieceLength int64, fileContents [][]byte, fileNames []string) *domain.Torrent {
	t.Helper()

	var all []byte
	for _, c := range fileContents {
		all = append(all, c...)
	}

	var pieces []domain.PieceHash
	for off := 0; off < len(all); off += int(pieceLength) {
		end := off + int(pieceLength)
		if end > len(all) {
			end = len(all)
		}
		sum := sha1.Sum(all[off:end])
		var ph domain.PieceHash
		copy(ph[:], sum[:])
		pieces = append(pieces, ph)
	}

	sizes := make([]int64, len(fileContents))
	for i, c := range fileContents {
		sizes[i] = int64(len(c))
	}

	tr := &domain.Torrent{
		Name:        "testfiles",
		InfoHash:    "deadbeef",
		TotalSize:   int64(len(all)),
		PieceLength: pieceLength,
		Pieces:      pieces,
	}
	tr.FileList = domain.BuildFileList(tr.Engine(), fileNames, sizes)
	return tr
}

func TestVerifyHash_AllPresent(t *testing.T) {
	contents := [][]byte{
		bytes.Repeat([]byte{'a'}, 16),
		bytes.Repeat([]byte{'b'}, 16),
		bytes.Repeat([]byte{'c'}, 16),
	}
	names := []string{"testfiles/file_a.txt", "testfiles/file_b.txt", "testfiles/file_c.txt"}
	tr := buildTorrent(t, 16, contents, names)

	mapping := map[string]string{
		names[0]: "/disk/file_a.txt",
		names[1]: "/disk/file_b.txt",
		names[2]: "/disk/file_c.txt",
	}
	accessor := memAccessor{files: map[string][]byte{
		"/disk/file_a.txt": contents[0],
		"/disk/file_b.txt": contents[1],
		"/disk/file_c.txt": contents[2],
	}}

	result, err := VerifyHash(tr, mapping, []string{"*.txt"}, accessor)
	require.NoError(t, err)

	for _, n := range names {
		assert.Equal(t, domain.HashSuccess, result.HashStatus[n], n)
	}
}

func TestVerifyHash_CorruptedFileFailsTouchesNeighbor(t *testing.T) {
	a := bytes.Repeat([]byte{'a'}, 16)
	b := bytes.Repeat([]byte{'b'}, 16)
	contents := [][]byte{a, b}
	names := []string{"testfiles/file_a.txt", "testfiles/file_b.txt"}
	tr := buildTorrent(t, 16, contents, names)

	corrupted := append([]byte{}, a...)
	corrupted[0] ^= 0xFF

	mapping := map[string]string{
		names[0]: "/disk/file_a.txt",
		names[1]: "/disk/file_b.txt",
	}
	accessor := memAccessor{files: map[string][]byte{
		"/disk/file_a.txt": corrupted,
		"/disk/file_b.txt": b,
	}}

	result, err := VerifyHash(tr, mapping, []string{"*.txt"}, accessor)
	require.NoError(t, err)

	assert.Equal(t, domain.HashFailed, result.HashStatus[names[0]])
	assert.Equal(t, domain.HashSuccess, result.HashStatus[names[1]])
}

func TestVerifyHash_MissingFileTouchesNeighborSharingPiece(t *testing.T) {
	a := bytes.Repeat([]byte{'a'}, 10)
	b := bytes.Repeat([]byte{'b'}, 10)
	contents := [][]byte{a, b}
	names := []string{"testfiles/file_a.txt", "testfiles/file_b.txt"}
	tr := buildTorrent(t, 16, contents, names)

	mapping := map[string]string{
		names[1]: "/disk/file_b.txt",
	}
	accessor := memAccessor{files: map[string][]byte{
		"/disk/file_b.txt": b,
	}}

	result, err := VerifyHash(tr, mapping, []string{}, accessor)
	require.NoError(t, err)

	assert.Equal(t, domain.TouchSuccess, result.TouchStatus[names[1]])
}
