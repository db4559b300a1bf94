// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/gmarc

package gmarc

import (
	"time"

	"github.com/woozymasta/pathrules"
)

// Internal binary layout and format limits.
const (
	formHeaderSize    = 8                   // "FORM" magic + total size
	sectionHeaderSize = 8                   // 4-byte tag + payload size
	txtrInfoSize      = 8                   // texture info record: flags + data offset
	txtrInfoDataField = 4                   // position of data offset inside texture info record
	pngSignatureSize  = 8                   // PNG file signature size
	pngChunkOverhead  = 12                  // chunk length + type + CRC
	maxArchiveSize    = 1<<32 - 1           // offsets are stored as uint32
	maxPNGChunkSize   = 1<<31 - 1           // PNG chunk length limit
	formMagic         = "FORM"              // leading archive signature
	pngSignature      = "\x89PNG\r\n\x1a\n" // leading PNG signature
)

// Default tuning values.
const (
	DefaultMaxWorkers   = 1
	DefaultManifestName = "manifest.yaml"
)

// Tag is a 4-character section identifier.
type Tag string

// Known section tags.
const (
	// TagTXTR holds embedded PNG texture pages.
	TagTXTR Tag = "TXTR"
	// TagAUDO holds embedded audio files.
	TagAUDO Tag = "AUDO"
	// TagSTRG holds the string table.
	TagSTRG Tag = "STRG"
	// TagGEN8 holds general game information.
	TagGEN8 Tag = "GEN8"
)

// Kind identifies payload content detected from its leading bytes.
type Kind string

// Payload kinds. Values double as dump file extensions.
const (
	KindPNG Kind = "png"
	KindWAV Kind = "wav"
	KindOgg Kind = "ogg"
	KindRaw Kind = "bin"
)

// Entry is one addressable payload inside an entry-bearing section.
type Entry struct {
	// Section is the tag of the owning section.
	Section Tag `json:"section" yaml:"section"`
	// Index is position within the section table and is stable identity for addressing.
	Index int `json:"index" yaml:"index"`
	// Offset is absolute byte offset of payload start.
	Offset uint32 `json:"offset" yaml:"offset"`
	// Size is payload size in bytes.
	Size uint32 `json:"size" yaml:"size"`
	// Kind is detected payload kind.
	Kind Kind `json:"kind" yaml:"kind"`
}

// End returns absolute offset one past the last payload byte.
func (e *Entry) End() uint32 {
	return e.Offset + e.Size
}

// Section is one named top-level region of the archive.
type Section struct {
	// Tag is the 4-character section name.
	Tag Tag `json:"tag" yaml:"tag"`
	// Offset is absolute offset of the section header.
	Offset uint32 `json:"offset" yaml:"offset"`
	// Size is payload size without the 8-byte section header.
	Size uint32 `json:"size" yaml:"size"`
	// Entries are sub-entries in table order for TXTR and AUDO; nil otherwise.
	Entries []Entry `json:"entries,omitempty" yaml:"entries,omitempty"`
}

// DataOffset returns absolute offset of the first payload byte.
func (s *Section) DataOffset() uint32 {
	return s.Offset + sectionHeaderSize
}

// End returns absolute offset one past the last payload byte.
func (s *Section) End() uint32 {
	return s.DataOffset() + s.Size
}

// PatchKind identifies replacement content type.
type PatchKind string

// Patch content kinds.
const (
	// PatchKindImage replaces a texture page with a PNG image.
	PatchKindImage PatchKind = "image"
)

// Patch requests replacement of one entry payload.
type Patch struct {
	// Section is the target section tag (TXTR when empty).
	Section Tag `json:"section" yaml:"section"`
	// Kind is replacement content kind.
	Kind PatchKind `json:"kind" yaml:"kind"`
	// Path is source file path; ignored when Data is set.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	// Data is in-memory replacement payload.
	Data []byte `json:"-" yaml:"-"`
	// Index is target entry index.
	Index int `json:"index" yaml:"index"`
	// Size is replacement payload length in bytes.
	Size uint32 `json:"size" yaml:"size"`
	// Width is image width in pixels.
	Width uint32 `json:"width,omitempty" yaml:"width,omitempty"`
	// Height is image height in pixels.
	Height uint32 `json:"height,omitempty" yaml:"height,omitempty"`
	// Offset is original target payload offset, resolved during planning.
	Offset uint32 `json:"offset" yaml:"offset"`
	// OriginalSize is original target payload size, resolved during planning.
	OriginalSize uint32 `json:"original_size" yaml:"original_size"`
}

// Delta returns payload length change introduced by this patch.
func (p *Patch) Delta() int64 {
	return int64(p.Size) - int64(p.OriginalSize)
}

// source returns a printable source name for error messages.
func (p *Patch) source() string {
	if p.Data != nil || p.Path == "" {
		return "<memory>"
	}

	return p.Path
}

// PatchSet is a validated patch list ordered by ascending original target offset.
type PatchSet []Patch

// Delta returns total archive length change of the whole set.
func (s PatchSet) Delta() int64 {
	var total int64
	for i := range s {
		total += s[i].Delta()
	}

	return total
}

// ExtractItem describes one output file produced by Extract.
type ExtractItem struct {
	// Name is output file name relative to destination directory.
	Name string `json:"name" yaml:"name"`
	// Section is the source section tag.
	Section Tag `json:"section" yaml:"section"`
	// Index is entry index, or -1 when the item is a whole section.
	Index int `json:"index" yaml:"index"`
	// Offset is absolute payload offset.
	Offset uint32 `json:"offset" yaml:"offset"`
	// Size is payload size in bytes.
	Size uint32 `json:"size" yaml:"size"`
	// Kind is detected payload kind.
	Kind Kind `json:"kind" yaml:"kind"`
}

// ExtractOptions configures Extract behavior.
type ExtractOptions struct {
	// OnEntryDone is called after one item is fully written to disk.
	OnEntryDone func(item ExtractItem, outputPath string) `json:"-" yaml:"-"`
	// FileMode controls output file creation policy.
	FileMode ExtractFileMode `json:"file_mode,omitempty" yaml:"file_mode,omitempty"`
	// Filter defines ordered output name rules; empty means all items.
	Filter []pathrules.Rule `json:"filter,omitempty" yaml:"filter,omitempty"`
	// FilterMatcherOptions control filter rule matching.
	FilterMatcherOptions pathrules.MatcherOptions `json:"filter_matcher_options,omitzero" yaml:"filter_matcher_options,omitzero"`
	// MaxWorkers is number of extraction workers (default 1, sequential).
	MaxWorkers int `json:"max_workers,omitempty" yaml:"max_workers,omitempty"`
	// EntriesOnly skips sections without entry tables.
	EntriesOnly bool `json:"entries_only,omitempty" yaml:"entries_only,omitempty"`
	// Manifest writes manifest.yaml describing extracted items.
	Manifest bool `json:"manifest,omitempty" yaml:"manifest,omitempty"`
}

// ExtractFileMode controls output file open behavior during extraction.
type ExtractFileMode string

// Output file creation policies for extraction.
const (
	// ExtractFileModeAuto first tries create-only, then falls back to truncate for existing files.
	ExtractFileModeAuto ExtractFileMode = "auto"
	// ExtractFileModeTruncate opens existing files with truncate and creates missing files.
	ExtractFileModeTruncate ExtractFileMode = "truncate"
	// ExtractFileModeCreateOnly creates files only when absent and fails on existing files.
	ExtractFileModeCreateOnly ExtractFileMode = "create_only"
)

// PatchProgress contains one applied patch event from commit flow.
type PatchProgress struct {
	// Patch is the applied patch.
	Patch Patch `json:"patch" yaml:"patch"`
	// NewOffset is payload offset in resulting archive.
	NewOffset uint32 `json:"new_offset" yaml:"new_offset"`
}

// EditOptions configures file-based archive patch flow.
type EditOptions struct {
	// OnPatchDone is called for every patch after the new archive is in place.
	OnPatchDone func(progress PatchProgress) `json:"-" yaml:"-"`
	// BackupKeep controls how many backup generations are kept after successful commit.
	// 0 means no backup, 1 keeps only `<archive>.bak`, N keeps `.bak` + `.bak.1..N-1`.
	BackupKeep int `json:"backup_keep,omitempty" yaml:"backup_keep,omitempty"`
}

// PatchResult contains patch commit statistics.
type PatchResult struct {
	// Patched is number of replaced entries.
	Patched int `json:"patched" yaml:"patched"`
	// OldSize is original archive size in bytes.
	OldSize int64 `json:"old_size" yaml:"old_size"`
	// NewSize is resulting archive size in bytes.
	NewSize int64 `json:"new_size" yaml:"new_size"`
	// BackupPath is written backup path; empty when backups are disabled.
	BackupPath string `json:"backup_path,omitempty" yaml:"backup_path,omitempty"`
	// Duration is end-to-end commit duration.
	Duration time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// applyDefaults fills zero-valued extract options with defaults.
func (opts *ExtractOptions) applyDefaults() {
	if opts.MaxWorkers < 1 {
		opts.MaxWorkers = DefaultMaxWorkers
	}

	if opts.FileMode == "" {
		opts.FileMode = ExtractFileModeAuto
	}

	if opts.FilterMatcherOptions == (pathrules.MatcherOptions{}) {
		opts.FilterMatcherOptions = pathrules.MatcherOptions{
			CaseInsensitive: true,
			DefaultAction:   pathrules.ActionInclude,
		}
	}

	if opts.FilterMatcherOptions.DefaultAction == pathrules.ActionUnknown {
		opts.FilterMatcherOptions.DefaultAction = pathrules.ActionInclude
	}
}

// applyDefaults fills zero-valued edit options with defaults.
func (opts *EditOptions) applyDefaults() {
	if opts.BackupKeep < 0 {
		opts.BackupKeep = 0
	}
}
