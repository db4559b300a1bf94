// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/gmarc

package gmarc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/woozymasta/pathrules"
	"gopkg.in/yaml.v3"
)

// Slot maps one logical asset file name to a texture entry index.
type Slot struct {
	// Name is file name or glob pattern matched case-insensitively against the base name.
	Name string `json:"name" yaml:"name"`
	// Index is target entry index in the table section.
	Index int `json:"index" yaml:"index"`
}

// SlotTable is the name to entry index configuration for one game layout.
type SlotTable struct {
	// Section is the patched section tag (TXTR when empty).
	Section Tag `json:"section,omitempty" yaml:"section,omitempty"`
	// Archives are file names recognized as the game archive (game.unx and data.win when empty).
	Archives []string `json:"archives" yaml:"archives"`
	// Slots are asset name to index mappings, matched in order.
	Slots []Slot `json:"slots" yaml:"slots"`
}

// Inputs is a classified command line file list.
type Inputs struct {
	// Archive is the game archive path, empty when none was supplied.
	Archive string
	// Images are replacement images in supplied order.
	Images []SlotFile
}

// SlotFile is one supplied replacement image resolved to its slot.
type SlotFile struct {
	// Path is the supplied file path.
	Path string
	// Slot is the matched slot.
	Slot Slot
}

// slotMatcher holds compiled slot and archive name rules.
type slotMatcher struct {
	archives *pathrules.Matcher
	slots    []*pathrules.Matcher
}

// DefaultSlotTable returns the Cook, Serve, Hoomans texture layout.
func DefaultSlotTable() *SlotTable {
	return &SlotTable{
		Section:  TagTXTR,
		Archives: []string{"game.unx", "data.win"},
		Slots: []Slot{
			{Name: "catering.png", Index: 17},
			{Name: "icons.png", Index: 42},
			{Name: "hoomans.png", Index: 47},
		},
	}
}

// LoadSlotTable reads slot table YAML from path.
func LoadSlotTable(path string) (*SlotTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read slot table: %w", ErrIO, err)
	}

	t, err := ParseSlotTable(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return t, nil
}

// ParseSlotTable decodes slot table YAML. Unknown keys are rejected.
func ParseSlotTable(data []byte) (*SlotTable, error) {
	var t SlotTable

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSlotTable, err)
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	return &t, nil
}

// Validate checks names, indices, and rule syntax, and fills the default section
// and archive names.
func (t *SlotTable) Validate() error {
	if t.Section == "" {
		t.Section = TagTXTR
	}

	if len(t.Archives) == 0 {
		t.Archives = DefaultSlotTable().Archives
	}

	if len(t.Slots) == 0 {
		return fmt.Errorf("%w: no slots", ErrInvalidSlotTable)
	}

	seen := make(map[string]struct{}, len(t.Slots))
	for i, slot := range t.Slots {
		name := strings.TrimSpace(slot.Name)
		if name == "" {
			return fmt.Errorf("%w: slot %d has empty name", ErrInvalidSlotTable, i)
		}

		if slot.Index < 0 {
			return fmt.Errorf("%w: slot %q has negative index %d", ErrInvalidSlotTable, name, slot.Index)
		}

		key := strings.ToLower(name)
		if _, exists := seen[key]; exists {
			return fmt.Errorf("%w: duplicate slot name %q", ErrInvalidSlotTable, name)
		}
		seen[key] = struct{}{}
	}

	if _, err := t.compile(); err != nil {
		return err
	}

	return nil
}

// Lookup returns slot matching the base name of path.
func (t *SlotTable) Lookup(path string) (Slot, bool, error) {
	m, err := t.compile()
	if err != nil {
		return Slot{}, false, err
	}

	slot, ok := m.lookup(t, AssetName(path))
	return slot, ok, nil
}

// Classify splits supplied paths into the game archive and replacement images by base name.
// It does not require inputs to be complete; use Inputs.Validate for that.
func (t *SlotTable) Classify(paths []string) (Inputs, error) {
	var in Inputs

	m, err := t.compile()
	if err != nil {
		return in, err
	}

	for _, p := range paths {
		name := AssetName(p)
		if name == "" {
			return in, fmt.Errorf("%w: empty file name", ErrUnknownAsset)
		}

		if m.archives != nil && m.archives.Included(name, false) {
			in.Archive = p
			continue
		}

		slot, ok := m.lookup(t, name)
		if !ok {
			return in, fmt.Errorf("%w: don't know what to do with a file named %q (expected %s)", ErrUnknownAsset, name, t.expectedNames())
		}

		in.Images = append(in.Images, SlotFile{Path: p, Slot: slot})
	}

	return in, nil
}

// Validate reports ErrMissingInputs unless an archive and at least one image are present.
func (in Inputs) Validate() error {
	if in.Archive == "" {
		return fmt.Errorf("%w: no game archive", ErrMissingInputs)
	}

	if len(in.Images) == 0 {
		return fmt.Errorf("%w: no replacement images", ErrMissingInputs)
	}

	return nil
}

// compile builds pathrules matchers for archive names and every slot.
func (t *SlotTable) compile() (*slotMatcher, error) {
	opts := pathrules.MatcherOptions{
		CaseInsensitive: true,
		DefaultAction:   pathrules.ActionExclude,
	}

	m := &slotMatcher{slots: make([]*pathrules.Matcher, len(t.Slots))}
	if len(t.Archives) > 0 {
		rules := make([]pathrules.Rule, 0, len(t.Archives))
		for _, name := range t.Archives {
			rules = append(rules, pathrules.Rule{Action: pathrules.ActionInclude, Pattern: strings.TrimSpace(name)})
		}

		matcher, err := pathrules.NewMatcher(normalizeFilterRules(rules), opts)
		if err != nil {
			return nil, fmt.Errorf("%w: archive names: %w", ErrInvalidSlotTable, err)
		}
		m.archives = matcher
	}

	for i, slot := range t.Slots {
		matcher, err := pathrules.NewMatcher([]pathrules.Rule{
			{Action: pathrules.ActionInclude, Pattern: strings.TrimSpace(slot.Name)},
		}, opts)
		if err != nil {
			return nil, fmt.Errorf("%w: slot %q: %w", ErrInvalidSlotTable, slot.Name, err)
		}
		m.slots[i] = matcher
	}

	return m, nil
}

// lookup returns first slot whose rule includes name.
func (m *slotMatcher) lookup(t *SlotTable, name string) (Slot, bool) {
	for i, matcher := range m.slots {
		if matcher.Included(name, false) {
			return t.Slots[i], true
		}
	}

	return Slot{}, false
}

// expectedNames returns human readable list of accepted file names.
func (t *SlotTable) expectedNames() string {
	names := make([]string, 0, len(t.Archives)+len(t.Slots))
	names = append(names, t.Archives...)
	for _, slot := range t.Slots {
		names = append(names, slot.Name)
	}

	return strings.Join(names, ", ")
}
