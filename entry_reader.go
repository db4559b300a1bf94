// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/gmarc

package gmarc

import (
	"bytes"
	"fmt"
	"io"
)

// nopCloser wraps a reader and provides a no-op close.
type nopCloser struct {
	io.Reader
}

// Close closes nopCloser (no-op).
func (nopCloser) Close() error {
	return nil
}

// entryBytes returns payload slice of already resolved entry without copying.
func (a *Archive) entryBytes(offset uint32, size uint32) []byte {
	return a.data[offset : offset+size : offset+size]
}

// OpenEntry opens payload stream of one entry.
func (a *Archive) OpenEntry(tag Tag, index int) (io.ReadCloser, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: archive is nil", ErrValidation)
	}

	e := a.dir.findEntry(tag, index)
	if e == nil {
		return nil, fmt.Errorf("%w: %s[%d]", ErrEntryNotFound, tag, index)
	}

	return nopCloser{Reader: bytes.NewReader(a.entryBytes(e.Offset, e.Size))}, nil
}

// ReadEntry returns a copy of one entry payload.
func (a *Archive) ReadEntry(tag Tag, index int) ([]byte, error) {
	rc, err := a.OpenEntry(tag, index)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	return io.ReadAll(rc)
}

// ReadSection returns a copy of one section payload without its 8-byte header.
func (a *Archive) ReadSection(tag Tag) ([]byte, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: archive is nil", ErrValidation)
	}

	s := a.dir.findSection(tag)
	if s == nil {
		return nil, fmt.Errorf("%w: section %s", ErrEntryNotFound, tag)
	}

	return bytes.Clone(a.entryBytes(s.DataOffset(), s.Size)), nil
}
