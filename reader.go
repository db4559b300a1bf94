// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/gmarc

package gmarc

import (
	"encoding/binary"
	"fmt"
	"os"
)

// Archive is an immutable in-memory archive image plus its parsed directory.
type Archive struct {
	// dir is the directory parsed from data.
	dir *Directory
	// path is source file path when opened via Open.
	path string
	// data is the complete archive content and is never modified.
	data []byte
}

// Directory is the parsed archive index.
type Directory struct {
	// sections are kept in on-disk order.
	sections []Section
	// refs are every absolute offset field the reader understands.
	refs []offsetRef
	// size is total archive size in bytes.
	size int64
	// formSize is stored FORM payload size.
	formSize uint32
}

// offsetRef is one stored uint32 field that holds an absolute archive offset.
type offsetRef struct {
	// at is absolute position of the field.
	at uint32
	// value is stored offset.
	value uint32
}

// Open reads archive file by path and parses its directory.
func Open(path string) (*Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read archive: %w", ErrIO, err)
	}

	a, err := OpenBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	a.path = path
	return a, nil
}

// OpenBytes parses archive from in-memory data. The slice must not be modified afterwards.
func OpenBytes(data []byte) (*Archive, error) {
	dir, err := ReadDirectory(data)
	if err != nil {
		return nil, err
	}

	return &Archive{data: data, dir: dir}, nil
}

// Directory returns parsed archive directory.
func (a *Archive) Directory() *Directory {
	if a == nil {
		return nil
	}

	return a.dir
}

// Size returns total archive size in bytes.
func (a *Archive) Size() int64 {
	if a == nil {
		return 0
	}

	return int64(len(a.data))
}

// Path returns source file path, empty for archives opened from memory.
func (a *Archive) Path() string {
	if a == nil {
		return ""
	}

	return a.path
}

// Sections returns a copy of parsed sections in on-disk order.
func (d *Directory) Sections() []Section {
	if d == nil {
		return nil
	}

	out := make([]Section, len(d.sections))
	for i := range d.sections {
		out[i] = d.sections[i]
		if d.sections[i].Entries != nil {
			out[i].Entries = make([]Entry, len(d.sections[i].Entries))
			copy(out[i].Entries, d.sections[i].Entries)
		}
	}

	return out
}

// Section returns first section with tag.
func (d *Directory) Section(tag Tag) (Section, bool) {
	s := d.findSection(tag)
	if s == nil {
		return Section{}, false
	}

	return *s, true
}

// Entry returns one entry by section tag and index.
func (d *Directory) Entry(tag Tag, index int) (Entry, bool) {
	e := d.findEntry(tag, index)
	if e == nil {
		return Entry{}, false
	}

	return *e, true
}

// Entries returns a copy of entries of one section.
func (d *Directory) Entries(tag Tag) []Entry {
	s := d.findSection(tag)
	if s == nil {
		return nil
	}

	out := make([]Entry, len(s.Entries))
	copy(out, s.Entries)
	return out
}

// Size returns total archive size the directory was parsed from.
func (d *Directory) Size() int64 {
	if d == nil {
		return 0
	}

	return d.size
}

// findSection resolves one section by tag.
func (d *Directory) findSection(tag Tag) *Section {
	if d == nil {
		return nil
	}

	for i := range d.sections {
		if d.sections[i].Tag == tag {
			return &d.sections[i]
		}
	}

	return nil
}

// findEntry resolves one entry by section tag and index.
func (d *Directory) findEntry(tag Tag, index int) *Entry {
	s := d.findSection(tag)
	if s == nil || index < 0 || index >= len(s.Entries) {
		return nil
	}

	return &s.Entries[index]
}

// checkArchiveSize rejects archives too short for a FORM header or beyond uint32 offsets.
func checkArchiveSize(size int64) error {
	if size < formHeaderSize {
		return fmt.Errorf("%w: short header", ErrInvalidHeader)
	}
	if size > maxArchiveSize {
		return fmt.Errorf("%w: archive size %d", ErrArchiveTooLarge, size)
	}

	return nil
}

// ReadDirectory parses archive data into a directory. It never returns a partial directory.
func ReadDirectory(data []byte) (*Directory, error) {
	size := int64(len(data))
	if err := checkArchiveSize(size); err != nil {
		return nil, err
	}

	if string(data[0:4]) != formMagic {
		return nil, fmt.Errorf("%w: magic %q", ErrInvalidHeader, data[0:4])
	}

	d := &Directory{
		size:     size,
		formSize: binary.LittleEndian.Uint32(data[4:8]),
	}

	formEnd := int64(formHeaderSize) + int64(d.formSize)
	if formEnd > size {
		return nil, fmt.Errorf("%w: FORM size %d exceeds archive size %d", ErrTruncatedSection, d.formSize, size)
	}

	off := int64(formHeaderSize)
	for off < formEnd {
		if off+sectionHeaderSize > formEnd {
			return nil, fmt.Errorf("%w: section header at %d", ErrTruncatedSection, off)
		}

		rawTag := data[off : off+4]
		if !isSectionTag(rawTag) {
			return nil, fmt.Errorf("%w: %q at %d", ErrInvalidSectionTag, rawTag, off)
		}

		sec := Section{
			Tag:    Tag(rawTag),
			Offset: uint32(off), //nolint:gosec // bounded by maxArchiveSize
			Size:   binary.LittleEndian.Uint32(data[off+4 : off+8]),
		}

		if int64(sec.DataOffset())+int64(sec.Size) > formEnd {
			return nil, fmt.Errorf("%w: %s declares %d bytes at %d", ErrTruncatedSection, sec.Tag, sec.Size, off)
		}

		var err error
		switch sec.Tag {
		case TagTXTR:
			err = d.parseTextureSection(data, &sec)
		case TagAUDO:
			err = d.parseAudioSection(data, &sec)
		}
		if err != nil {
			return nil, err
		}

		d.sections = append(d.sections, sec)
		off = int64(sec.End())
	}

	return d, nil
}

// parseTextureSection reads TXTR pointer table, info records, and PNG payload lengths.
func (d *Directory) parseTextureSection(data []byte, sec *Section) error {
	table, err := d.parsePointerTable(data, sec, txtrInfoSize)
	if err != nil {
		return err
	}

	start := sec.DataOffset()
	end := sec.End()
	sec.Entries = make([]Entry, 0, len(table))

	prevEnd := start
	for i, infoOffset := range table {
		dataField := infoOffset + txtrInfoDataField
		dataOffset := binary.LittleEndian.Uint32(data[dataField : dataField+4])
		if dataOffset < start || dataOffset >= end {
			return fmt.Errorf("%w: %s entry %d payload offset %d outside section", ErrInvalidEntryTable, sec.Tag, i, dataOffset)
		}

		if dataOffset < prevEnd {
			return fmt.Errorf("%w: %s entry %d offset %d overlaps previous entry ending at %d", ErrInvalidEntryTable, sec.Tag, i, dataOffset, prevEnd)
		}

		length, err := pngLength(data[dataOffset:end])
		if err != nil {
			return fmt.Errorf("%w: %s entry %d: %v", ErrInvalidEntryTable, sec.Tag, i, err)
		}

		d.refs = append(d.refs, offsetRef{at: dataField, value: dataOffset})
		sec.Entries = append(sec.Entries, Entry{
			Section: sec.Tag,
			Index:   i,
			Offset:  dataOffset,
			Size:    length,
			Kind:    KindPNG,
		})

		prevEnd = dataOffset + length
	}

	return nil
}

// parseAudioSection reads AUDO pointer table and length-prefixed audio records.
func (d *Directory) parseAudioSection(data []byte, sec *Section) error {
	table, err := d.parsePointerTable(data, sec, 4)
	if err != nil {
		return err
	}

	end := int64(sec.End())
	sec.Entries = make([]Entry, 0, len(table))

	for i, recordOffset := range table {
		length := binary.LittleEndian.Uint32(data[recordOffset : recordOffset+4])
		payloadOffset := recordOffset + 4
		if int64(payloadOffset)+int64(length) > end {
			return fmt.Errorf("%w: %s entry %d length %d exceeds section", ErrInvalidEntryTable, sec.Tag, i, length)
		}

		sec.Entries = append(sec.Entries, Entry{
			Section: sec.Tag,
			Index:   i,
			Offset:  payloadOffset,
			Size:    length,
			Kind:    DetectMedia(data[payloadOffset : payloadOffset+length]).Kind,
		})
	}

	return nil
}

// parsePointerTable reads count-prefixed absolute pointer list and validates that every
// pointed record of recordSize bytes lies inside the section after the table.
func (d *Directory) parsePointerTable(data []byte, sec *Section, recordSize uint32) ([]uint32, error) {
	start := int64(sec.DataOffset())
	end := int64(sec.End())
	if start+4 > end {
		return nil, fmt.Errorf("%w: %s has no entry count", ErrInvalidEntryTable, sec.Tag)
	}

	count := int64(binary.LittleEndian.Uint32(data[start : start+4]))
	tableEnd := start + 4 + count*4
	if tableEnd > end {
		return nil, fmt.Errorf("%w: %s table of %d entries exceeds section", ErrInvalidEntryTable, sec.Tag, count)
	}

	table := make([]uint32, 0, count)
	for i := int64(0); i < count; i++ {
		at := start + 4 + i*4
		ptr := binary.LittleEndian.Uint32(data[at : at+4])
		if int64(ptr) < tableEnd || int64(ptr)+int64(recordSize) > end {
			return nil, fmt.Errorf("%w: %s entry %d record offset %d outside section", ErrInvalidEntryTable, sec.Tag, i, ptr)
		}

		d.refs = append(d.refs, offsetRef{at: uint32(at), value: ptr}) //nolint:gosec // bounded by maxArchiveSize
		table = append(table, ptr)
	}

	return table, nil
}

// isSectionTag reports whether tag is 4 ASCII letters or digits.
func isSectionTag(tag []byte) bool {
	if len(tag) != 4 {
		return false
	}

	for _, ch := range tag {
		if !isASCIIAlpha(ch) && (ch < '0' || ch > '9') {
			return false
		}
	}

	return true
}
