package gmarc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_ParsesSectionsAndEntries(t *testing.T) {
	t.Parallel()

	textures := testTextures(4)
	audio := testAudio()
	path := writeTestArchive(t, "data.win", buildTestArchive(textures, audio))

	a, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	wantTags := []Tag{TagGEN8, TagSTRG, TagTXTR, TagAUDO, "FONT"}
	sections := a.Directory().Sections()
	if len(sections) != len(wantTags) {
		t.Fatalf("sections=%d, want %d", len(sections), len(wantTags))
	}
	for i, s := range sections {
		if s.Tag != wantTags[i] {
			t.Fatalf("section %d tag=%q, want %q", i, s.Tag, wantTags[i])
		}
	}

	for i, tex := range textures {
		got, err := a.ReadEntry(TagTXTR, i)
		if err != nil {
			t.Fatalf("ReadEntry TXTR[%d]: %v", i, err)
		}
		if !bytes.Equal(got, tex) {
			t.Fatalf("TXTR[%d] payload mismatch", i)
		}
	}

	entries := a.Directory().Entries(TagAUDO)
	if len(entries) != 2 {
		t.Fatalf("AUDO entries=%d, want 2", len(entries))
	}
	if entries[0].Kind != KindWAV || entries[1].Kind != KindOgg {
		t.Fatalf("AUDO kinds=%q,%q, want wav,ogg", entries[0].Kind, entries[1].Kind)
	}

	got, err := a.ReadEntry(TagAUDO, 1)
	if err != nil {
		t.Fatalf("ReadEntry AUDO[1]: %v", err)
	}
	if !bytes.Equal(got, audio[1]) {
		t.Fatal("AUDO[1] payload mismatch")
	}

	if a.Path() != path {
		t.Fatalf("Path=%q, want %q", a.Path(), path)
	}
}

func TestOpen_EntryInvariants(t *testing.T) {
	t.Parallel()

	a, err := OpenBytes(buildTestArchive(testTextures(6), testAudio()))
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}

	for _, s := range a.Directory().Sections() {
		for i := 1; i < len(s.Entries); i++ {
			if s.Entries[i-1].End() > s.Entries[i].Offset {
				t.Fatalf("%s entries %d and %d overlap", s.Tag, i-1, i)
			}
		}

		for _, e := range s.Entries {
			if e.Offset < s.DataOffset() || e.End() > s.End() {
				t.Fatalf("%s[%d] outside section", s.Tag, e.Index)
			}
		}
	}
}

func TestOpen_InvalidHeader(t *testing.T) {
	t.Parallel()

	data := buildTestArchive(testTextures(1), nil)
	copy(data[0:4], "MROF")

	_, err := OpenBytes(data)
	if !errors.Is(err, ErrInvalidHeader) {
		t.Fatalf("expected ErrInvalidHeader, got %v", err)
	}
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat category, got %v", err)
	}
}

func TestCheckArchiveSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		size int64
		want error
	}{
		{name: "short", size: formHeaderSize - 1, want: ErrInvalidHeader},
		{name: "header only", size: formHeaderSize},
		{name: "uint32 limit", size: maxArchiveSize},
		{name: "past uint32 limit", size: maxArchiveSize + 1, want: ErrArchiveTooLarge},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := checkArchiveSize(tc.size)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("checkArchiveSize(%d): %v", tc.size, err)
				}
				return
			}

			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !errors.Is(err, ErrFormat) {
				t.Fatalf("expected ErrFormat category, got %v", err)
			}
			if errors.Is(err, ErrValidation) {
				t.Fatalf("size error must not be a validation error: %v", err)
			}
		})
	}
}

func TestOpen_EmptyFile(t *testing.T) {
	t.Parallel()

	path := writeTestArchive(t, "empty.win", nil)
	_, err := Open(path)
	if !errors.Is(err, ErrInvalidHeader) {
		t.Fatalf("expected ErrInvalidHeader, got %v", err)
	}
}

func TestOpen_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Open(filepath.Join(t.TempDir(), "missing.win"))
	if !errors.Is(err, ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist in chain, got %v", err)
	}
}

func TestReadDirectory_FormSizeExceedsData(t *testing.T) {
	t.Parallel()

	data := buildTestArchive(testTextures(1), nil)
	binary.LittleEndian.PutUint32(data[4:8], uint32(len(data)))

	_, err := ReadDirectory(data)
	if !errors.Is(err, ErrTruncatedSection) {
		t.Fatalf("expected ErrTruncatedSection, got %v", err)
	}
}

func TestReadDirectory_TruncatedSection(t *testing.T) {
	t.Parallel()

	data := buildTestArchive(testTextures(2), nil)
	dir, err := ReadDirectory(data)
	if err != nil {
		t.Fatalf("ReadDirectory: %v", err)
	}

	txtr, _ := dir.Section(TagTXTR)
	binary.LittleEndian.PutUint32(data[txtr.Offset+4:], uint32(len(data)))

	_, err = ReadDirectory(data)
	if !errors.Is(err, ErrTruncatedSection) {
		t.Fatalf("expected ErrTruncatedSection, got %v", err)
	}
}

func TestReadDirectory_InvalidSectionTag(t *testing.T) {
	t.Parallel()

	data := buildTestArchive(testTextures(1), nil)
	copy(data[formHeaderSize:], "G\x00N8")

	_, err := ReadDirectory(data)
	if !errors.Is(err, ErrInvalidSectionTag) {
		t.Fatalf("expected ErrInvalidSectionTag, got %v", err)
	}
}

func TestReadDirectory_OverlappingTextures(t *testing.T) {
	t.Parallel()

	data := buildTestArchive(testTextures(3), nil)
	dir, err := ReadDirectory(data)
	if err != nil {
		t.Fatalf("ReadDirectory: %v", err)
	}

	first, _ := dir.Entry(TagTXTR, 0)
	txtr, _ := dir.Section(TagTXTR)
	info := readU32(data, txtr.DataOffset()+4+4)
	binary.LittleEndian.PutUint32(data[info+txtrInfoDataField:], first.Offset)

	_, err = ReadDirectory(data)
	if !errors.Is(err, ErrInvalidEntryTable) {
		t.Fatalf("expected ErrInvalidEntryTable, got %v", err)
	}
}

func TestReadDirectory_PointerOutsideSection(t *testing.T) {
	t.Parallel()

	data := buildTestArchive(testTextures(2), testAudio())
	dir, err := ReadDirectory(data)
	if err != nil {
		t.Fatalf("ReadDirectory: %v", err)
	}

	audo, _ := dir.Section(TagAUDO)
	binary.LittleEndian.PutUint32(data[audo.DataOffset()+4:], 4)

	_, err = ReadDirectory(data)
	if !errors.Is(err, ErrInvalidEntryTable) {
		t.Fatalf("expected ErrInvalidEntryTable, got %v", err)
	}
}

func TestReadDirectory_TexturePayloadNotPNG(t *testing.T) {
	t.Parallel()

	data := buildTestArchive(testTextures(2), nil)
	dir, err := ReadDirectory(data)
	if err != nil {
		t.Fatalf("ReadDirectory: %v", err)
	}

	second, _ := dir.Entry(TagTXTR, 1)
	data[second.Offset+1] = 'X'

	_, err = ReadDirectory(data)
	if !errors.Is(err, ErrInvalidEntryTable) {
		t.Fatalf("expected ErrInvalidEntryTable, got %v", err)
	}
	if errors.Is(err, ErrImageFormat) {
		t.Fatalf("archive errors must not carry image category: %v", err)
	}
}

func TestReadEntry_NotFound(t *testing.T) {
	t.Parallel()

	a, err := OpenBytes(buildTestArchive(testTextures(2), nil))
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}

	if _, err := a.ReadEntry(TagTXTR, 2); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
	if _, err := a.ReadEntry(TagAUDO, 0); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound for absent section, got %v", err)
	}
	if _, err := a.ReadSection("SPRT"); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound for section, got %v", err)
	}
}

func TestReadSection_ReturnsCopy(t *testing.T) {
	t.Parallel()

	data := buildTestArchive(testTextures(1), nil)
	a, err := OpenBytes(data)
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}

	got, err := a.ReadSection(TagSTRG)
	if err != nil {
		t.Fatalf("ReadSection: %v", err)
	}
	if string(got) != "strings\x00" {
		t.Fatalf("STRG=%q", got)
	}

	got[0] = 'X'
	again, _ := a.ReadSection(TagSTRG)
	if again[0] != 's' {
		t.Fatal("ReadSection must not alias archive data")
	}
}

func TestDirectorySections_ReturnsCopy(t *testing.T) {
	t.Parallel()

	a, err := OpenBytes(buildTestArchive(testTextures(2), nil))
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}

	sections := a.Directory().Sections()
	for i := range sections {
		for j := range sections[i].Entries {
			sections[i].Entries[j].Size = 0
		}
	}

	e, ok := a.Directory().Entry(TagTXTR, 0)
	if !ok || e.Size == 0 {
		t.Fatal("Sections must return deep copy")
	}
}

func TestListSections(t *testing.T) {
	t.Parallel()

	path := writeTestArchive(t, "game.unx", buildTestArchive(testTextures(2), testAudio()))
	sections, err := ListSections(path)
	if err != nil {
		t.Fatalf("ListSections: %v", err)
	}
	if len(sections) != 5 {
		t.Fatalf("sections=%d, want 5", len(sections))
	}

	items, err := ListItems(path)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}

	// GEN8, STRG, FONT whole + 2 textures + 2 sounds.
	if len(items) != 7 {
		t.Fatalf("items=%d, want 7", len(items))
	}
}
