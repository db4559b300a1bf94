// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/gmarc

package gmarc

import (
	"path"
	"strings"
)

// AssetName returns the file name part of a path that may use "/" or "\" separators.
func AssetName(raw string) string {
	raw = normalizePathForMatching(raw)
	raw = strings.TrimSuffix(raw, "/")
	if raw == "" {
		return ""
	}

	return path.Base(raw)
}

// normalizePathForMatching normalizes user/input paths for matcher use.
func normalizePathForMatching(p string) string {
	p = strings.TrimSpace(p)
	p = strings.ReplaceAll(p, `\`, `/`)
	p = strings.TrimPrefix(p, "./")
	return p
}
