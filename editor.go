// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/gmarc

package gmarc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Editor accumulates texture replacements and applies them to an archive file on Commit.
type Editor struct {
	path    string
	patches []Patch
	opts    EditOptions
}

// OpenEditor creates staged editor for file-based archive patch workflow.
func OpenEditor(path string, opts EditOptions) (*Editor, error) {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return nil, fmt.Errorf("%w: archive path is empty", ErrMissingInputs)
	}

	opts.applyDefaults()

	return &Editor{
		path:    trimmedPath,
		opts:    opts,
		patches: make([]Patch, 0, 4),
	}, nil
}

// Replace schedules replacement patches. Targets are validated on Commit.
func (e *Editor) Replace(patches ...Patch) error {
	if e == nil {
		return fmt.Errorf("%w: editor is nil", ErrValidation)
	}

	e.patches = append(e.patches, patches...)
	return nil
}

// ReplaceFile reads PNG header metadata of path and schedules it for texture index.
// Image format errors are reported here, before the archive is read.
func (e *Editor) ReplaceFile(index int, path string) error {
	patch, err := ImagePatchFromFile(index, path)
	if err != nil {
		return err
	}

	return e.Replace(patch)
}

// Pending returns number of staged patches.
func (e *Editor) Pending() int {
	if e == nil {
		return 0
	}

	return len(e.patches)
}

// Commit plans staged patches against the current archive, rewrites it in memory, and
// atomically replaces the archive file. The original file is untouched on any failure.
func (e *Editor) Commit(ctx context.Context) (*PatchResult, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: editor is nil", ErrValidation)
	}

	if ctx == nil {
		ctx = context.Background()
	}

	startedAt := time.Now()

	a, err := Open(e.path)
	if err != nil {
		return nil, err
	}

	set, err := NewPatchSet(a.dir, e.patches)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := a.Rewrite(set)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &PatchResult{
		Patched: len(set),
		OldSize: a.Size(),
		NewSize: int64(len(out)),
	}

	if e.opts.BackupKeep > 0 {
		backupPath := e.path + ".bak"
		if err := prepareBackupSlot(backupPath, e.opts.BackupKeep); err != nil {
			return nil, err
		}

		if err := writeFileAtomic(backupPath, a.data); err != nil {
			return nil, fmt.Errorf("write backup: %w", err)
		}

		res.BackupPath = backupPath
	}

	if err := writeFileAtomic(e.path, out); err != nil {
		return nil, err
	}

	e.patches = e.patches[:0]

	if e.opts.OnPatchDone != nil {
		sh := shifter{set: set}
		for _, p := range set {
			e.opts.OnPatchDone(PatchProgress{Patch: p, NewOffset: sh.position(p.Offset)})
		}
	}

	res.Duration = time.Since(startedAt)
	return res, nil
}

// PatchFile plans image files through the slot table and patches the archive at path.
func PatchFile(ctx context.Context, path string, table *SlotTable, imagePaths []string, opts EditOptions) (*PatchResult, error) {
	editor, err := OpenEditor(path, opts)
	if err != nil {
		return nil, err
	}

	patches, err := patchesFromFiles(table, imagePaths)
	if err != nil {
		return nil, err
	}

	if err := editor.Replace(patches...); err != nil {
		return nil, err
	}

	return editor.Commit(ctx)
}

// writeFileAtomic writes data to a temp file in the destination directory and renames it
// over path. The temp file is removed on failure.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return fmt.Errorf("%w: %s is a directory", ErrIO, path)
		}

		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", ErrIO, err)
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("%w: write temp file: %w", ErrIO, err)
	}

	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("%w: sync temp file: %w", ErrIO, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp file: %w", ErrIO, err)
	}

	if err := os.Chmod(tmpPath, mode); err != nil {
		return fmt.Errorf("%w: chmod temp file: %w", ErrIO, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("%w: replace %s: %w", ErrIO, path, err)
	}

	success = true
	return nil
}

// prepareBackupSlot rotates/removes existing backup generations before new commit.
func prepareBackupSlot(backupPath string, keep int) error {
	if keep < 0 {
		keep = 0
	}

	switch keep {
	case 0, 1:
		return removeIfExists(backupPath)
	default:
		oldest := fmt.Sprintf("%s.%d", backupPath, keep-1)
		if err := removeIfExists(oldest); err != nil {
			return err
		}

		for i := keep - 2; i >= 1; i-- {
			from := fmt.Sprintf("%s.%d", backupPath, i)
			to := fmt.Sprintf("%s.%d", backupPath, i+1)
			if err := renameIfExists(from, to); err != nil {
				return err
			}
		}

		return renameIfExists(backupPath, backupPath+".1")
	}
}

// renameIfExists renames source to destination when source exists.
func renameIfExists(from string, to string) error {
	_, err := os.Stat(from)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: stat %s: %w", ErrIO, from, err)
	}

	if err := removeIfExists(to); err != nil {
		return err
	}

	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("%w: rename %s to %s: %w", ErrIO, from, to, err)
	}

	return nil
}

// removeIfExists removes file when present.
func removeIfExists(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) || err == nil {
		return nil
	}

	return fmt.Errorf("%w: remove %s: %w", ErrIO, path, err)
}
