// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/gmarc

package gmarc

import (
	"fmt"
	"math"
	"sort"
)

// ImagePatchFromFile reads PNG header metadata of path and builds a texture patch.
// Pixel data is not read.
func ImagePatchFromFile(index int, path string) (Patch, error) {
	info, err := ReadPNGInfoFile(path)
	if err != nil {
		return Patch{}, err
	}

	return newImagePatch(index, info, path, nil)
}

// ImagePatchFromBytes builds a texture patch from in-memory PNG data.
func ImagePatchFromBytes(index int, data []byte) (Patch, error) {
	info, err := ReadPNGInfoBytes(data)
	if err != nil {
		return Patch{}, err
	}

	return newImagePatch(index, info, "", data[:info.Size:info.Size])
}

// newImagePatch fills patch fields from PNG metadata.
func newImagePatch(index int, info PNGInfo, path string, data []byte) (Patch, error) {
	if info.Size > math.MaxUint32 {
		return Patch{}, fmt.Errorf("%w: image of %d bytes", ErrSizeOverflow, info.Size)
	}

	return Patch{
		Section: TagTXTR,
		Kind:    PatchKindImage,
		Index:   index,
		Path:    path,
		Data:    data,
		Size:    uint32(info.Size),
		Width:   info.Width,
		Height:  info.Height,
	}, nil
}

// PlanFiles classifies replacement images through the slot table, extracts their
// metadata, and builds a patch set against dir. The archive is not touched.
func PlanFiles(dir *Directory, table *SlotTable, imagePaths []string) (PatchSet, error) {
	patches, err := patchesFromFiles(table, imagePaths)
	if err != nil {
		return nil, err
	}

	return NewPatchSet(dir, patches)
}

// patchesFromFiles resolves every image path to its slot and reads its PNG metadata.
func patchesFromFiles(table *SlotTable, imagePaths []string) ([]Patch, error) {
	if table == nil {
		table = DefaultSlotTable()
	}

	if len(imagePaths) == 0 {
		return nil, fmt.Errorf("%w: no replacement images", ErrMissingInputs)
	}

	patches := make([]Patch, 0, len(imagePaths))
	for _, path := range imagePaths {
		slot, ok, err := table.Lookup(path)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %q (expected %s)", ErrUnknownAsset, AssetName(path), table.expectedNames())
		}

		patch, err := table.ImagePatch(slot, path)
		if err != nil {
			return nil, err
		}

		patches = append(patches, patch)
	}

	return patches, nil
}

// ImagePatch reads PNG header metadata of path and builds a patch targeting slot
// in the table's section.
func (t *SlotTable) ImagePatch(slot Slot, path string) (Patch, error) {
	patch, err := ImagePatchFromFile(slot.Index, path)
	if err != nil {
		return Patch{}, err
	}

	if t != nil && t.Section != "" {
		patch.Section = t.Section
	}

	return patch, nil
}

// NewPatchSet validates patches against dir, resolves original target offsets, and
// orders them by ascending offset independent of supplied order.
func NewPatchSet(dir *Directory, patches []Patch) (PatchSet, error) {
	if dir == nil {
		return nil, fmt.Errorf("%w: directory is nil", ErrValidation)
	}

	set := make(PatchSet, 0, len(patches))
	seen := make(map[int]string, len(patches))
	for _, p := range patches {
		if p.Section == "" {
			p.Section = TagTXTR
		}
		if p.Kind == "" {
			p.Kind = PatchKindImage
		}

		if p.Section != TagTXTR {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedSection, p.Section)
		}

		if prev, exists := seen[p.Index]; exists {
			return nil, fmt.Errorf("%w: %s[%d] from %s and %s", ErrDuplicateTarget, p.Section, p.Index, prev, p.source())
		}
		seen[p.Index] = p.source()

		entry := dir.findEntry(p.Section, p.Index)
		if entry == nil {
			return nil, fmt.Errorf("%w: %s[%d]", ErrEntryNotFound, p.Section, p.Index)
		}

		if p.Data != nil && uint32(len(p.Data)) != p.Size { //nolint:gosec // length compared, not truncated in practice
			return nil, fmt.Errorf("%w: %s[%d] data length %d does not match size %d", ErrValidation, p.Section, p.Index, len(p.Data), p.Size)
		}

		p.Offset = entry.Offset
		p.OriginalSize = entry.Size
		set = append(set, p)
	}

	sort.Slice(set, func(i, j int) bool { return set[i].Offset < set[j].Offset })

	return set, nil
}

// checkPatchSet re-validates order and staleness of set against dir.
func checkPatchSet(dir *Directory, set PatchSet) error {
	var prevEnd uint32
	for i := range set {
		p := &set[i]
		if p.Section != TagTXTR {
			return fmt.Errorf("%w: %s", ErrUnsupportedSection, p.Section)
		}

		entry := dir.findEntry(p.Section, p.Index)
		if entry == nil {
			return fmt.Errorf("%w: %s[%d]", ErrStalePatch, p.Section, p.Index)
		}

		if entry.Offset != p.Offset || entry.Size != p.OriginalSize {
			return fmt.Errorf("%w: %s[%d] planned at %d+%d, directory has %d+%d",
				ErrStalePatch, p.Section, p.Index, p.Offset, p.OriginalSize, entry.Offset, entry.Size)
		}

		if i > 0 && p.Offset < prevEnd {
			return fmt.Errorf("%w: %s[%d] is out of order or overlaps previous patch", ErrValidation, p.Section, p.Index)
		}

		prevEnd = p.Offset + p.OriginalSize
	}

	return nil
}
