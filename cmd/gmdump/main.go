// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/gmarc

// gmdump writes every section and entry of a GameMaker FORM archive to
// individual files, or lists the archive directory with --list.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/woozymasta/gmarc"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// options holds parsed command line flags.
type options struct {
	include     []string
	exclude     []string
	entriesOnly bool
	manifest    bool
	list        bool
	workers     int
	noClobber   bool
	logLevel    string
}

func run(args []string, stdout io.Writer, stderr io.Writer) int {
	var opts options

	flagSet := pflag.NewFlagSet("gmdump", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringSliceVarP(&opts.include, "include", "i", nil, "only dump items whose file name matches glob (repeatable)")
	flagSet.StringSliceVarP(&opts.exclude, "exclude", "e", nil, "skip items whose file name matches glob (repeatable)")
	flagSet.BoolVar(&opts.entriesOnly, "entries-only", false, "skip sections without an entry table")
	flagSet.BoolVar(&opts.manifest, "manifest", false, "write "+gmarc.DefaultManifestName+" with sizes and BLAKE3 digests")
	flagSet.BoolVarP(&opts.list, "list", "l", false, "print archive directory instead of dumping")
	flagSet.IntVarP(&opts.workers, "workers", "j", gmarc.DefaultMaxWorkers, "number of parallel writers")
	flagSet.BoolVarP(&opts.noClobber, "no-clobber", "n", false, "fail instead of replacing existing output files")
	flagSet.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flagSet.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "Usage: gmdump [flags] ARCHIVE [OUTDIR]\n\nFlags:\n")
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

	rest := flagSet.Args()
	if len(rest) < 1 || len(rest) > 2 {
		flagSet.Usage()
		return 1
	}

	archivePath := rest[0]
	outDir := "."
	if len(rest) == 2 {
		outDir = rest[1]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := dump(ctx, logger, stdout, archivePath, outDir, opts); err != nil {
		logger.Error("dump failed", "archive", archivePath, "error", err)
		return 1
	}

	return 0
}

// dump opens the archive and either lists or extracts it.
func dump(ctx context.Context, logger *slog.Logger, stdout io.Writer, archivePath string, outDir string, opts options) error {
	a, err := gmarc.Open(archivePath)
	if err != nil {
		return err
	}

	logger.Debug("archive opened", "path", archivePath, "size", a.Size(), "sections", len(a.Directory().Sections()))

	if opts.list {
		return printListing(stdout, a, opts.entriesOnly)
	}

	rules, matchOpts := gmarc.FilterRules(opts.include, opts.exclude)
	extractOpts := gmarc.ExtractOptions{
		Filter:               rules,
		FilterMatcherOptions: matchOpts,
		MaxWorkers:           opts.workers,
		EntriesOnly:          opts.entriesOnly,
		Manifest:             opts.manifest,
		FileMode:             gmarc.ExtractFileModeAuto,
		OnEntryDone: func(item gmarc.ExtractItem, outputPath string) {
			logger.Debug("written", "file", outputPath, "size", item.Size)
		},
	}
	if opts.noClobber {
		extractOpts.FileMode = gmarc.ExtractFileModeCreateOnly
	}

	if err := a.Extract(ctx, outDir, extractOpts); err != nil {
		return err
	}

	logger.Info("dump complete", "archive", archivePath, "out", outDir)
	return nil
}

// printListing writes one row per dump item.
func printListing(w io.Writer, a *gmarc.Archive, entriesOnly bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tSECTION\tINDEX\tOFFSET\tSIZE\tKIND\tDETAILS")
	for _, item := range a.Directory().Items(entriesOnly) {
		info := a.Describe(item)
		index := "-"
		if item.Index >= 0 {
			index = fmt.Sprint(item.Index)
		}

		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			item.Name, item.Section, index, item.Offset, item.Size, item.Kind, info.Details)
	}

	return tw.Flush()
}

// newLogger returns text logger at named level.
func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}
