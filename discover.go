// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/gmarc

package gmarc

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// linuxArchivePaths are Steam install locations relative to the home directory.
var linuxArchivePaths = [][]string{
	{".local", "share", "Steam", "SteamApps", "common", "CookServeDelicious", "assets", "game.unx"},
	{".steam", "Steam", "SteamApps", "common", "CookServeDelicious", "assets", "game.unx"},
}

// FindArchive searches known Steam install locations under home for the game archive.
// Path components are matched case-insensitively. Empty home means $HOME.
// Only Linux layouts are known; other systems get ErrArchiveNotFound.
func FindArchive(home string) (string, error) {
	if runtime.GOOS != "linux" {
		return "", fmt.Errorf("%w: automatic discovery is not supported on %s, pass the archive path", ErrArchiveNotFound, runtime.GOOS)
	}

	if home == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrArchiveNotFound, err)
		}
		home = h
	}

	return findArchiveIn(home, linuxArchivePaths)
}

// findArchiveIn returns first candidate that resolves to a regular file under root.
func findArchiveIn(root string, candidates [][]string) (string, error) {
	for _, components := range candidates {
		found, err := findPathIgnoreCase(root, components)
		if err == nil {
			return found, nil
		}

		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %w", ErrIO, err)
		}
	}

	return "", fmt.Errorf("%w under %s", ErrArchiveNotFound, root)
}

// findPathIgnoreCase resolves components below prefix, choosing directory entries whose
// names match case-insensitively. Last component must be a regular file.
func findPathIgnoreCase(prefix string, components []string) (string, error) {
	if len(components) == 0 {
		return "", os.ErrNotExist
	}

	entries, err := os.ReadDir(prefix)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
			return "", os.ErrNotExist
		}

		return "", err
	}

	want := components[0]
	last := len(components) == 1
	for _, entry := range entries {
		if !strings.EqualFold(entry.Name(), want) {
			continue
		}

		entryPath := filepath.Join(prefix, entry.Name())
		info, err := os.Stat(entryPath)
		if err != nil {
			continue
		}

		if last {
			if info.Mode().IsRegular() {
				return entryPath, nil
			}

			continue
		}

		if !info.IsDir() {
			continue
		}

		found, err := findPathIgnoreCase(entryPath, components[1:])
		if err == nil {
			return found, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}

	return "", os.ErrNotExist
}
