// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/gmarc

package gmarc

import (
	"fmt"
	"strings"
)

// ListSections reads an archive and returns its parsed sections.
func ListSections(path string) ([]Section, error) {
	a, err := Open(path)
	if err != nil {
		return nil, err
	}

	return a.dir.Sections(), nil
}

// ListItems reads an archive and returns every item Extract would write.
func ListItems(path string) ([]ExtractItem, error) {
	a, err := Open(path)
	if err != nil {
		return nil, err
	}

	return a.dir.Items(false), nil
}

// Items returns dump items in directory order. Sections with entry tables yield one
// item per entry; other sections yield one whole-section item unless entriesOnly.
func (d *Directory) Items(entriesOnly bool) []ExtractItem {
	if d == nil {
		return nil
	}

	items := make([]ExtractItem, 0, len(d.sections))
	for i := range d.sections {
		s := &d.sections[i]
		if s.Entries == nil {
			if entriesOnly {
				continue
			}

			items = append(items, ExtractItem{
				Name:    sectionFileName(s.Tag),
				Section: s.Tag,
				Index:   -1,
				Offset:  s.DataOffset(),
				Size:    s.Size,
				Kind:    KindRaw,
			})

			continue
		}

		for _, e := range s.Entries {
			items = append(items, ExtractItem{
				Name:    entryFileName(e.Section, e.Index, e.Kind),
				Section: e.Section,
				Index:   e.Index,
				Offset:  e.Offset,
				Size:    e.Size,
				Kind:    e.Kind,
			})
		}
	}

	return items
}

// Describe returns media details for one item (PNG dimensions, RIFF form type).
func (a *Archive) Describe(item ExtractItem) MediaInfo {
	if a == nil || item.Index < 0 {
		return MediaInfo{Kind: item.Kind}
	}

	return DetectMedia(a.entryBytes(item.Offset, item.Size))
}

// entryFileName returns deterministic dump file name for one entry.
func entryFileName(tag Tag, index int, kind Kind) string {
	if kind == "" {
		kind = KindRaw
	}

	return fmt.Sprintf("%s_%05d.%s", strings.ToLower(string(tag)), index, kind)
}

// sectionFileName returns deterministic dump file name for a whole section.
func sectionFileName(tag Tag) string {
	return strings.ToLower(string(tag)) + "." + string(KindRaw)
}
