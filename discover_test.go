package gmarc

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFindArchiveIn_IgnoresCase(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	assets := filepath.Join(home, ".steam", "steam", "steamapps", "common", "CookServeDelicious", "Assets")
	if err := os.MkdirAll(assets, 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	archive := filepath.Join(assets, "GAME.UNX")
	if err := os.WriteFile(archive, []byte("FORM"), 0o600); err != nil {
		t.Fatalf("write archive: %v", err)
	}

	got, err := findArchiveIn(home, linuxArchivePaths)
	if err != nil {
		t.Fatalf("findArchiveIn: %v", err)
	}
	if got != archive {
		t.Fatalf("found %q, want %q", got, archive)
	}
}

func TestFindArchiveIn_PrefersFirstCandidate(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	var paths []string
	for _, components := range linuxArchivePaths {
		path := filepath.Join(append([]string{home}, components...)...)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
		paths = append(paths, path)
	}

	got, err := findArchiveIn(home, linuxArchivePaths)
	if err != nil {
		t.Fatalf("findArchiveIn: %v", err)
	}
	if got != paths[0] {
		t.Fatalf("found %q, want %q", got, paths[0])
	}
}

func TestFindArchiveIn_NotFound(t *testing.T) {
	t.Parallel()

	home := t.TempDir()

	// Directory named like the archive does not count.
	dirLikeArchive := filepath.Join(home, ".local", "share", "Steam", "SteamApps", "common", "CookServeDelicious", "assets", "game.unx")
	if err := os.MkdirAll(dirLikeArchive, 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	_, err := findArchiveIn(home, linuxArchivePaths)
	if !errors.Is(err, ErrArchiveNotFound) {
		t.Fatalf("expected ErrArchiveNotFound, got %v", err)
	}
	if !errors.Is(err, ErrIO) {
		t.Fatalf("expected ErrIO category, got %v", err)
	}
}
