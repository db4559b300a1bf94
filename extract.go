// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/gmarc

package gmarc

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// Extract writes every selected entry (and whole non-entry section) of the archive
// into dstDir, one file per item. dstDir is created when absent. Files written before
// a failure are left in place; extraction is additive and can be re-run.
func (a *Archive) Extract(ctx context.Context, dstDir string, opts ExtractOptions) error {
	if a == nil || a.dir == nil {
		return fmt.Errorf("%w: archive is nil", ErrValidation)
	}

	if ctx == nil {
		ctx = context.Background()
	}

	opts.applyDefaults()

	matcher, err := newItemMatcher(opts.Filter, opts.FilterMatcherOptions)
	if err != nil {
		return err
	}

	items := filterExtractItems(a.dir.Items(opts.EntriesOnly), matcher)

	dstRootAbs, err := filepath.Abs(dstDir)
	if err != nil {
		return fmt.Errorf("%w: resolve output dir: %w", ErrIO, err)
	}

	if err := os.MkdirAll(dstRootAbs, 0o750); err != nil {
		return fmt.Errorf("%w: create output dir: %w", ErrIO, err)
	}

	if len(items) > 0 {
		if err := a.extractItems(ctx, dstRootAbs, items, opts); err != nil {
			return err
		}
	}

	if opts.Manifest {
		manifest := a.BuildManifest(items)
		if err := WriteManifest(filepath.Join(dstRootAbs, DefaultManifestName), manifest); err != nil {
			return err
		}
	}

	return nil
}

// extractItems writes items sequentially or with a bounded worker group.
func (a *Archive) extractItems(ctx context.Context, dstRootAbs string, items []ExtractItem, opts ExtractOptions) error {
	if opts.MaxWorkers == 1 {
		for _, item := range items {
			if err := ctx.Err(); err != nil {
				return err
			}

			if err := a.extractItem(dstRootAbs, item, opts); err != nil {
				return err
			}
		}

		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.MaxWorkers)
	for _, item := range items {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			return a.extractItem(dstRootAbs, item, opts)
		})
	}

	return g.Wait()
}

// extractItem writes one item payload to destination root.
func (a *Archive) extractItem(dstRootAbs string, item ExtractItem, opts ExtractOptions) error {
	outPath := filepath.Join(dstRootAbs, item.Name)

	file, err := openExtractFile(outPath, opts.FileMode)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrIO, item.Name, err)
	}

	written, writeErr := file.Write(a.entryBytes(item.Offset, item.Size))
	if writeErr == nil && written != int(item.Size) {
		writeErr = io.ErrShortWrite
	}

	closeErr := file.Close()
	if writeErr != nil {
		return fmt.Errorf("%w: write %s: %w", ErrIO, item.Name, writeErr)
	}

	if closeErr != nil {
		return fmt.Errorf("%w: close %s: %w", ErrIO, item.Name, closeErr)
	}

	if opts.OnEntryDone != nil {
		opts.OnEntryDone(item, outPath)
	}

	return nil
}

// openExtractFile opens output path according to selected extract file mode.
func openExtractFile(path string, mode ExtractFileMode) (*os.File, error) {
	switch mode {
	case ExtractFileModeAuto:
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return file, nil
		}

		if !os.IsExist(err) {
			return nil, err
		}

		return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	case ExtractFileModeTruncate:
		return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	case ExtractFileModeCreateOnly:
		return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	default:
		return nil, fmt.Errorf("unknown extract file mode %q", mode)
	}
}
