// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/gmarc

package gmarc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// shifter maps original archive offsets to offsets in the rewritten archive.
type shifter struct {
	set PatchSet
}

// position returns new location of original offset x. Patches that end at or before
// x move it by their delta; a patch starting at x does not.
func (s shifter) position(x uint32) uint32 {
	shift := int64(0)
	for i := range s.set {
		p := &s.set[i]
		if p.Offset+p.OriginalSize > x {
			break
		}

		shift += p.Delta()
	}

	return uint32(int64(x) + shift) //nolint:gosec // result bounded by checked archive size
}

// inside reports whether x lies strictly inside a replaced payload.
func (s shifter) inside(x uint32) bool {
	for i := range s.set {
		p := &s.set[i]
		if x > p.Offset && x < p.Offset+p.OriginalSize {
			return true
		}
	}

	return false
}

// deltaWithin returns total delta of patches fully inside [start, end).
func (s shifter) deltaWithin(start uint32, end uint32) int64 {
	var delta int64
	for i := range s.set {
		p := &s.set[i]
		if p.Offset >= start && p.Offset+p.OriginalSize <= end {
			delta += p.Delta()
		}
	}

	return delta
}

// Rewrite applies set and returns complete new archive content. The archive itself is
// not modified. Bytes outside replaced payloads are copied verbatim to their shifted
// position; every known offset field and size field is corrected for the shift.
func (a *Archive) Rewrite(set PatchSet) ([]byte, error) {
	if a == nil || a.dir == nil {
		return nil, fmt.Errorf("%w: archive is nil", ErrValidation)
	}

	if err := checkPatchSet(a.dir, set); err != nil {
		return nil, err
	}

	payloads := make([][]byte, len(set))
	for i := range set {
		payload, err := loadPatchPayload(&set[i])
		if err != nil {
			return nil, err
		}

		payloads[i] = payload
	}

	src := a.data
	newSize := int64(len(src)) + set.Delta()
	if newSize > maxArchiveSize {
		return nil, fmt.Errorf("%w: patched archive would be %d bytes", ErrSizeOverflow, newSize)
	}

	out := make([]byte, 0, newSize)
	var cursor uint32
	for i := range set {
		p := &set[i]
		out = append(out, src[cursor:p.Offset]...)
		out = append(out, payloads[i]...)
		cursor = p.Offset + p.OriginalSize
	}
	out = append(out, src[cursor:]...)

	if int64(len(out)) != newSize {
		return nil, fmt.Errorf("%w: rewritten size %d, want %d", ErrValidation, len(out), newSize)
	}

	sh := shifter{set: set}
	for _, ref := range a.dir.refs {
		if sh.inside(ref.at) || sh.inside(ref.value) {
			return nil, fmt.Errorf("%w: offset field at %d references replaced payload", ErrValidation, ref.at)
		}

		binary.LittleEndian.PutUint32(out[sh.position(ref.at):], sh.position(ref.value))
	}

	formSize := int64(a.dir.formSize) + set.Delta()
	binary.LittleEndian.PutUint32(out[4:8], uint32(formSize)) //nolint:gosec // bounded by newSize check

	for i := range a.dir.sections {
		s := &a.dir.sections[i]
		delta := sh.deltaWithin(s.DataOffset(), s.End())
		if delta == 0 {
			continue
		}

		sizeField := sh.position(s.Offset + 4)
		binary.LittleEndian.PutUint32(out[sizeField:], uint32(int64(s.Size)+delta)) //nolint:gosec // bounded by newSize check
	}

	if err := verifyRewritten(out, set, sh); err != nil {
		return nil, err
	}

	return out, nil
}

// verifyRewritten re-reads rewritten content and checks every replaced entry.
func verifyRewritten(out []byte, set PatchSet, sh shifter) error {
	dir, err := ReadDirectory(out)
	if err != nil {
		return fmt.Errorf("%w: rewritten archive does not parse: %v", ErrValidation, err)
	}

	for i := range set {
		p := &set[i]
		entry := dir.findEntry(p.Section, p.Index)
		if entry == nil || entry.Offset != sh.position(p.Offset) || entry.Size != p.Size {
			return fmt.Errorf("%w: rewritten %s[%d] does not match patch", ErrValidation, p.Section, p.Index)
		}
	}

	return nil
}

// loadPatchPayload returns replacement payload of exactly p.Size bytes.
func loadPatchPayload(p *Patch) ([]byte, error) {
	if p.Data != nil {
		if uint32(len(p.Data)) != p.Size { //nolint:gosec // compared, not converted for use
			return nil, fmt.Errorf("%w: %s[%d] data length %d does not match size %d", ErrValidation, p.Section, p.Index, len(p.Data), p.Size)
		}

		return p.Data, nil
	}

	f, err := os.Open(p.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrIO, p.Path, err)
	}
	defer func() { _ = f.Close() }()

	payload := make([]byte, p.Size)
	if _, err := io.ReadFull(f, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%s: %w: shorter than planned %d bytes", p.Path, ErrTruncatedImage, p.Size)
		}

		return nil, fmt.Errorf("%w: read %s: %w", ErrIO, p.Path, err)
	}

	if p.Kind == PatchKindImage && (len(payload) < pngSignatureSize || string(payload[:pngSignatureSize]) != pngSignature) {
		return nil, fmt.Errorf("%s: %w", p.Path, ErrNotPNG)
	}

	return payload, nil
}
