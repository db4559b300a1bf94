// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/gmarc

package gmarc

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"
)

// Manifest describes one extraction run.
type Manifest struct {
	// Archive is source archive path, empty for in-memory archives.
	Archive string `json:"archive,omitempty" yaml:"archive,omitempty"`
	// Size is source archive size in bytes.
	Size int64 `json:"size" yaml:"size"`
	// Items lists extracted files in directory order.
	Items []ManifestItem `json:"items" yaml:"items"`
}

// ManifestItem is one extracted file record.
type ManifestItem struct {
	ExtractItem `yaml:",inline"`

	// Width is image width for PNG entries.
	Width uint32 `json:"width,omitempty" yaml:"width,omitempty"`
	// Height is image height for PNG entries.
	Height uint32 `json:"height,omitempty" yaml:"height,omitempty"`
	// BLAKE3 is hex-encoded BLAKE3-256 digest of the payload.
	BLAKE3 string `json:"blake3" yaml:"blake3"`
}

// BuildManifest describes items with payload digests and media details.
func (a *Archive) BuildManifest(items []ExtractItem) Manifest {
	m := Manifest{
		Archive: a.path,
		Size:    a.Size(),
		Items:   make([]ManifestItem, 0, len(items)),
	}

	for _, item := range items {
		rec := ManifestItem{
			ExtractItem: item,
			BLAKE3:      Digest(a.entryBytes(item.Offset, item.Size)),
		}

		if item.Kind == KindPNG {
			info := a.Describe(item)
			rec.Width = info.Width
			rec.Height = info.Height
		}

		m.Items = append(m.Items, rec)
	}

	return m
}

// WriteManifest writes manifest as YAML to path.
func WriteManifest(path string, m Manifest) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("%w: encode manifest: %w", ErrIO, err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("%w: encode manifest: %w", ErrIO, err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("%w: write manifest: %w", ErrIO, err)
	}

	return nil
}

// ReadManifest loads manifest written by WriteManifest.
func ReadManifest(path string) (Manifest, error) {
	var m Manifest

	data, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("%w: read manifest: %w", ErrIO, err)
	}

	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("%w: decode manifest: %w", ErrFormat, err)
	}

	return m, nil
}

// Digest returns hex-encoded BLAKE3-256 digest of data, the form used in manifests.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
