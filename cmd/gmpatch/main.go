// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/gmarc

// gmpatch replaces texture entries of a GameMaker FORM archive with PNG files.
// Every argument is classified by its file name: archive names select the
// archive, slot names select the texture entry replaced by that image.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"github.com/woozymasta/gmarc"
)

// slotsEnv names environment variable holding default slot table path.
const slotsEnv = "GMPATCH_SLOTS"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// options holds parsed command line flags.
type options struct {
	slots       string
	backup      int
	findArchive bool
	logLevel    string
}

func run(args []string, stdout io.Writer, stderr io.Writer) int {
	var opts options

	flagSet := pflag.NewFlagSet("gmpatch", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&opts.slots, "slots", os.Getenv(slotsEnv), "slot table YAML file (env "+slotsEnv+")")
	flagSet.IntVar(&opts.backup, "backup", 0, "number of archive backups to keep (0 disables)")
	flagSet.BoolVar(&opts.findArchive, "find-archive", false, "locate the Steam game archive when none is given")
	flagSet.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flagSet.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "Usage: gmpatch [flags] ARCHIVE IMAGE...\n\nFlags:\n")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}

		_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
		flagSet.Usage()
		return 1
	}

	logger, err := newLogger(stderr, opts.logLevel)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := patch(ctx, logger, flagSet.Args(), opts); err != nil {
		logger.Error("patch failed", "error", err)
		return 1
	}

	_, _ = fmt.Fprintln(stdout, "Successfully patched game.")
	return 0
}

// patch classifies files, plans replacements and commits them to the archive.
func patch(ctx context.Context, logger *slog.Logger, files []string, opts options) error {
	table := gmarc.DefaultSlotTable()
	if opts.slots != "" {
		loaded, err := gmarc.LoadSlotTable(opts.slots)
		if err != nil {
			return err
		}

		table = loaded
		logger.Debug("slot table loaded", "path", opts.slots, "slots", len(table.Slots))
	}

	inputs, err := table.Classify(files)
	if err != nil {
		return err
	}

	if inputs.Archive == "" && opts.findArchive {
		found, err := gmarc.FindArchive("")
		if err != nil {
			return err
		}

		logger.Info("found game archive", "path", found)
		inputs.Archive = found
	}

	if err := inputs.Validate(); err != nil {
		return err
	}

	editor, err := gmarc.OpenEditor(inputs.Archive, gmarc.EditOptions{
		BackupKeep: opts.backup,
		OnPatchDone: func(progress gmarc.PatchProgress) {
			logger.Debug("patched",
				"section", progress.Patch.Section,
				"index", progress.Patch.Index,
				"source", progress.Patch.Path,
				"size", progress.Patch.Size,
				"offset", progress.NewOffset)
		},
	})
	if err != nil {
		return err
	}

	for _, image := range inputs.Images {
		p, err := table.ImagePatch(image.Slot, image.Path)
		if err != nil {
			return err
		}

		logger.Debug("planned", "image", image.Path, "slot", image.Slot.Name, "index", image.Slot.Index,
			"width", p.Width, "height", p.Height, "size", p.Size)

		if err := editor.Replace(p); err != nil {
			return err
		}
	}

	res, err := editor.Commit(ctx)
	if err != nil {
		return err
	}

	logger.Info("archive rewritten",
		"path", inputs.Archive,
		"patched", res.Patched,
		"old_size", res.OldSize,
		"new_size", res.NewSize,
		"backup", res.BackupPath,
		"duration", res.Duration)

	return nil
}

// newLogger returns text logger at named level.
func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}
