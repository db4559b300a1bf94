// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/gmarc

/*
Package gmarc provides index, dump, and texture patch operations for
GameMaker FORM archives (data.win, game.unx).

An archive is a "FORM" header followed by tagged sections. TXTR holds
embedded PNG textures and AUDO holds embedded sounds; both are indexed
through absolute offset tables. Patching replaces whole TXTR payloads and
shifts every later byte, so every known offset and size field is rewritten
and the result is re-read before it replaces the original file.

Rewrite rules (summary):
  - bytes outside replaced payloads are copied verbatim;
  - an offset x moves by the delta of every patch ending at or before x;
  - FORM and section sizes grow by the deltas of patches they contain;
  - the archive file is replaced by rename only after verification.

# Reading

Open an archive and list its sections:

	a, err := gmarc.Open("game.unx")
	if err != nil {
	    return err
	}
	for _, s := range a.Directory().Sections() {
	    fmt.Println(s.Tag, s.Offset, s.Size, len(s.Entries))
	}

Read a copy of one texture:

	data, err := a.ReadEntry(gmarc.TagTXTR, 17)
	if err != nil {
	    return err
	}
	_ = data

OpenEntry streams the same payload straight from the archive buffer
without copying it.

# Dumping

Dump every entry to a directory with a manifest:

	err := a.Extract(ctx, "out/", gmarc.ExtractOptions{
	    EntriesOnly: true,
	    Manifest:    true,
	})

Limit output with github.com/woozymasta/pathrules rules:

	rules, matchOpts := gmarc.FilterRules([]string{"txtr_*.png"}, nil)
	err := a.Extract(ctx, "out/", gmarc.ExtractOptions{
	    Filter:               rules,
	    FilterMatcherOptions: matchOpts,
	})

# Patching

Replace textures by file name through the slot table:

	res, err := gmarc.PatchFile(ctx, "game.unx", gmarc.DefaultSlotTable(),
	    []string{"catering.png", "icons.png"}, gmarc.EditOptions{BackupKeep: 1})
	if err != nil {
	    return err
	}
	_ = res.NewSize

Or stage replacements by entry index:

	editor, err := gmarc.OpenEditor("game.unx", gmarc.EditOptions{})
	if err != nil {
	    return err
	}
	if err := editor.ReplaceFile(17, "catering.png"); err != nil {
	    return err
	}
	if _, err := editor.Commit(ctx); err != nil {
	    return err
	}
*/
package gmarc
