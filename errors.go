// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/gmarc

package gmarc

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by this package wraps exactly one of them.
var (
	// ErrIO means an open, read, write, or rename failed.
	ErrIO = errors.New("i/o error")
	// ErrFormat means the archive structure is invalid.
	ErrFormat = errors.New("invalid archive format")
	// ErrImageFormat means a replacement image has a bad signature or truncated header.
	ErrImageFormat = errors.New("invalid image format")
	// ErrValidation means the request is inconsistent with the archive or configuration.
	ErrValidation = errors.New("validation failed")
)

// Sentinel errors for archive operations. Use errors.Is in callers.
var (
	// ErrInvalidHeader means the archive is missing or has a bad FORM header.
	ErrInvalidHeader = fmt.Errorf("%w: missing or bad FORM header", ErrFormat)
	// ErrTruncatedSection means a declared section length reads past the end of the archive.
	ErrTruncatedSection = fmt.Errorf("%w: truncated section", ErrFormat)
	// ErrInvalidSectionTag means a section tag is not 4 ASCII alphanumeric characters.
	ErrInvalidSectionTag = fmt.Errorf("%w: invalid section tag", ErrFormat)
	// ErrArchiveTooLarge means the archive exceeds the uint32 offset range.
	ErrArchiveTooLarge = fmt.Errorf("%w: archive exceeds 4 GiB offset limit", ErrFormat)
	// ErrInvalidEntryTable means an entry table is out of bounds, overlapping, or not ascending.
	ErrInvalidEntryTable = fmt.Errorf("%w: inconsistent entry table", ErrFormat)
	// ErrNotPNG means the PNG signature does not match.
	ErrNotPNG = fmt.Errorf("%w: not a PNG file", ErrImageFormat)
	// ErrTruncatedImage means the PNG header or chunk list is truncated.
	ErrTruncatedImage = fmt.Errorf("%w: truncated PNG", ErrImageFormat)
	// ErrInvalidImageHeader means IHDR fields hold unexpected values.
	ErrInvalidImageHeader = fmt.Errorf("%w: bad IHDR chunk", ErrImageFormat)
	// ErrMissingInputs means the archive or every replacement image is missing.
	ErrMissingInputs = fmt.Errorf("%w: missing required inputs", ErrValidation)
	// ErrUnknownAsset means a supplied file name is not in the slot table.
	ErrUnknownAsset = fmt.Errorf("%w: unknown asset name", ErrValidation)
	// ErrDuplicateTarget means two patches target the same entry.
	ErrDuplicateTarget = fmt.Errorf("%w: duplicate patch target", ErrValidation)
	// ErrEntryNotFound means the target entry does not exist in the directory.
	ErrEntryNotFound = fmt.Errorf("%w: entry not found", ErrValidation)
	// ErrStalePatch means a patch no longer matches the directory it is applied to.
	ErrStalePatch = fmt.Errorf("%w: stale patch", ErrValidation)
	// ErrUnsupportedSection means patching is not supported for the target section.
	ErrUnsupportedSection = fmt.Errorf("%w: unsupported patch section", ErrValidation)
	// ErrSizeOverflow means resulting archive exceeds the uint32 offset range.
	ErrSizeOverflow = fmt.Errorf("%w: size exceeds 4 GiB offset limit", ErrValidation)
	// ErrInvalidSlotTable means the slot table configuration is malformed.
	ErrInvalidSlotTable = fmt.Errorf("%w: invalid slot table", ErrValidation)
	// ErrArchiveNotFound means automatic archive discovery found nothing.
	ErrArchiveNotFound = fmt.Errorf("%w: game archive not found", ErrIO)
)
