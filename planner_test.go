package gmarc

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewPatchSet_SortsByOffset(t *testing.T) {
	t.Parallel()

	a, err := OpenBytes(buildTestArchive(testTextures(5), nil))
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}

	var patches []Patch
	for _, index := range []int{4, 0, 2} {
		p, err := ImagePatchFromBytes(index, makeTestPNG(8, 8, index))
		if err != nil {
			t.Fatalf("ImagePatchFromBytes: %v", err)
		}
		patches = append(patches, p)
	}

	set, err := NewPatchSet(a.Directory(), patches)
	if err != nil {
		t.Fatalf("NewPatchSet: %v", err)
	}

	for i, want := range []int{0, 2, 4} {
		if set[i].Index != want {
			t.Fatalf("set[%d].Index=%d, want %d", i, set[i].Index, want)
		}

		e, _ := a.Directory().Entry(TagTXTR, want)
		if set[i].Offset != e.Offset || set[i].OriginalSize != e.Size {
			t.Fatalf("set[%d] target %d+%d, want %d+%d", i, set[i].Offset, set[i].OriginalSize, e.Offset, e.Size)
		}
	}
}

func TestNewPatchSet_Errors(t *testing.T) {
	t.Parallel()

	a, err := OpenBytes(buildTestArchive(testTextures(3), testAudio()))
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}

	png := makeTestPNG(2, 2, 1)
	p := func(index int) Patch {
		patch, err := ImagePatchFromBytes(index, png)
		if err != nil {
			t.Fatalf("ImagePatchFromBytes: %v", err)
		}

		return patch
	}

	audio := p(0)
	audio.Section = TagAUDO

	badData := p(1)
	badData.Data = badData.Data[:len(badData.Data)-1]

	tests := []struct {
		name    string
		patches []Patch
		want    error
	}{
		{name: "duplicate", patches: []Patch{p(1), p(1)}, want: ErrDuplicateTarget},
		{name: "missing entry", patches: []Patch{p(3)}, want: ErrEntryNotFound},
		{name: "negative index", patches: []Patch{p(-1)}, want: ErrEntryNotFound},
		{name: "unsupported section", patches: []Patch{audio}, want: ErrUnsupportedSection},
		{name: "data length", patches: []Patch{badData}, want: ErrValidation},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPatchSet(a.Directory(), tc.patches)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestImagePatchFromBytes_TrimsTrailingBytes(t *testing.T) {
	t.Parallel()

	png := makeTestPNG(3, 5, 4)
	p, err := ImagePatchFromBytes(7, append(append([]byte{}, png...), 1, 2, 3))
	if err != nil {
		t.Fatalf("ImagePatchFromBytes: %v", err)
	}

	if int(p.Size) != len(png) || len(p.Data) != len(png) {
		t.Fatalf("size=%d data=%d, want %d", p.Size, len(p.Data), len(png))
	}
	if p.Width != 3 || p.Height != 5 || p.Index != 7 || p.Section != TagTXTR {
		t.Fatalf("unexpected patch: %+v", p)
	}
}

func TestSlotTableImagePatch(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tiles.png")
	if err := os.WriteFile(path, makeTestPNG(24, 12, 40), 0o600); err != nil {
		t.Fatalf("write image: %v", err)
	}

	table := &SlotTable{Section: TagAUDO, Slots: []Slot{{Name: "tiles.png", Index: 3}}}
	p, err := table.ImagePatch(table.Slots[0], path)
	if err != nil {
		t.Fatalf("ImagePatch: %v", err)
	}
	if p.Section != TagAUDO || p.Index != 3 || p.Path != path || p.Width != 24 || p.Height != 12 {
		t.Fatalf("unexpected patch: %+v", p)
	}

	var empty *SlotTable
	p, err = empty.ImagePatch(Slot{Name: "tiles.png", Index: 5}, path)
	if err != nil {
		t.Fatalf("ImagePatch nil table: %v", err)
	}
	if p.Section != TagTXTR || p.Index != 5 {
		t.Fatalf("nil table patch: %+v", p)
	}
}

func TestPlanFiles(t *testing.T) {
	t.Parallel()

	a, err := OpenBytes(buildTestArchive(testTextures(48), nil))
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}

	dir := t.TempDir()
	icons := filepath.Join(dir, "icons.png")
	catering := filepath.Join(dir, "Catering.png")
	if err := os.WriteFile(icons, makeTestPNG(64, 64, 300), 0o600); err != nil {
		t.Fatalf("write icons: %v", err)
	}
	if err := os.WriteFile(catering, makeTestPNG(32, 32, 10), 0o600); err != nil {
		t.Fatalf("write catering: %v", err)
	}

	set, err := PlanFiles(a.Directory(), nil, []string{icons, catering})
	if err != nil {
		t.Fatalf("PlanFiles: %v", err)
	}

	if len(set) != 2 || set[0].Index != 17 || set[1].Index != 42 {
		t.Fatalf("set=%+v", set)
	}
	if set[0].Path != catering || set[0].Width != 32 {
		t.Fatalf("catering patch=%+v", set[0])
	}
}

func TestPlanFiles_Errors(t *testing.T) {
	t.Parallel()

	a, err := OpenBytes(buildTestArchive(testTextures(48), nil))
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}

	dir := t.TempDir()
	notPNG := filepath.Join(dir, "hoomans.png")
	if err := os.WriteFile(notPNG, []byte("GIF89a............................"), 0o600); err != nil {
		t.Fatalf("write image: %v", err)
	}

	if _, err := PlanFiles(a.Directory(), nil, []string{notPNG}); !errors.Is(err, ErrNotPNG) {
		t.Fatalf("expected ErrNotPNG, got %v", err)
	}

	if _, err := PlanFiles(a.Directory(), nil, []string{filepath.Join(dir, "other.png")}); !errors.Is(err, ErrUnknownAsset) {
		t.Fatalf("expected ErrUnknownAsset, got %v", err)
	}

	if _, err := PlanFiles(a.Directory(), nil, nil); !errors.Is(err, ErrMissingInputs) {
		t.Fatalf("expected ErrMissingInputs, got %v", err)
	}

	small, err := OpenBytes(buildTestArchive(testTextures(10), nil))
	if err != nil {
		t.Fatalf("OpenBytes: %v", err)
	}

	icons := filepath.Join(dir, "icons.png")
	if err := os.WriteFile(icons, makeTestPNG(4, 4, 4), 0o600); err != nil {
		t.Fatalf("write icons: %v", err)
	}
	if _, err := PlanFiles(small.Directory(), nil, []string{icons}); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}
