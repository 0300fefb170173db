/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	flag "github.com/spf13/pflag"

	"gofountain/internal/export"
	"gofountain/internal/textlayout"
)

type convertFlags struct {
	output      string
	format      string
	workers     int
	pageSize    string
	noTitlePage bool
}

func (f *convertFlags) bind(fs *flag.FlagSet) {
	fs.StringVarP(&f.output, "output", "o", "", "output directory (default: next to each input)")
	fs.StringVarP(&f.format, "format", "f", "pdf", "output format: pdf, json, text")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel conversions (0 = auto)")
	fs.StringVarP(&f.pageSize, "page-size", "p", "", "page size: letter, a4")
	fs.BoolVar(&f.noTitlePage, "no-title-page", false, "omit the title page")
}

func (f *convertFlags) run(ctx context.Context, a *app, args []string) error {
	if err := requireFiles(args, "convert"); err != nil {
		return err
	}
	if f.workers < 0 {
		return usageErrorf("--workers must not be negative")
	}
	format, err := export.ParseFormat(f.format)
	if err != nil {
		return usageErrorf("%v", err)
	}
	if f.pageSize != "" {
		a.cfg.Render.PageSize = f.pageSize
	}
	if f.noTitlePage {
		a.cfg.Render.TitlePage = false
	}
	opt, err := a.exportOptions(format)
	if err != nil {
		return err
	}

	jobs := make([]export.Job, 0, len(args))
	for _, in := range args {
		out := export.OutputPath(in, f.output, format)
		if sameFile(in, out) {
			return usageErrorf("%s would overwrite its input", in)
		}
		jobs = append(jobs, export.Job{Input: in, Output: out})
	}
	start := time.Now()
	results := export.ConvertAll(ctx, jobs, f.workers, opt)
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(a.errOut, "FAIL %s: %v\n", r.Input, r.Err)
			continue
		}
		fmt.Fprintf(a.out, "%s -> %s (%d lines, %s)\n", r.Input, r.Output, r.Tokens, r.Duration.Round(time.Millisecond))
	}
	a.log.Info("convert finished", slog.Int("files", len(jobs)), slog.Int("failed", failed), slog.Duration("took", time.Since(start)))
	if failed > 0 {
		return fmt.Errorf("%d of %d conversions failed", failed, len(jobs))
	}
	return nil
}

// exportOptions builds renderer options from the render section of the
// configuration. Fonts are looked up once for the whole batch.
func (a *app) exportOptions(format export.Format) (export.Options, error) {
	r := a.cfg.Render
	styles, err := textlayout.NewStyleSheet().WithConfig(r.Styles)
	if err != nil {
		return export.Options{}, usageErrorf("render.styles: %v", err)
	}
	opt := export.Options{
		Format:   format,
		Encoding: a.cfg.Parser.Encoding,
		Classify: a.classifyOptions(),
		PDF: export.PDFOptions{
			PageSize:    r.PageSize,
			FontSize:    r.FontSize,
			TitlePage:   r.TitlePage,
			PageNumbers: r.PageNumbers,
			Styles:      styles,
		},
		Text: export.TextOptions{
			PageSize:  r.PageSize,
			TitlePage: r.TitlePage,
			Styles:    styles,
		},
	}
	if format == export.FormatJSON {
		return opt, nil
	}
	set := a.discoverFonts()
	opt.PDF.Fonts = set
	if set.Path(textlayout.Regular) != "" {
		lib := textlayout.NewFontLibrary()
		if err := lib.LoadSet(set); err != nil {
			a.log.Warn("font not usable for text layout", slog.Any("err", err))
		} else {
			opt.Text.Provider = textlayout.OTProvider{Lib: lib}
			opt.Text.Font = textlayout.FontSpec{Family: set.Family, SizePt: float32(r.FontSize)}
		}
	}
	return opt, nil
}

// discoverFonts looks for the configured family in the configured and
// platform font directories. An empty set selects the built-in Courier.
func (a *app) discoverFonts() textlayout.FontSet {
	r := a.cfg.Render
	if r.FontFamily == "" {
		return textlayout.FontSet{}
	}
	dirs := append(append([]string{}, r.FontDirs...), textlayout.DefaultFontDirs()...)
	set, err := textlayout.DiscoverFamily(dirs, r.FontFamily)
	if err != nil {
		a.log.Debug("font family not found, using built-in Courier", slog.String("family", r.FontFamily), slog.Any("err", err))
		return textlayout.FontSet{}
	}
	if !set.Complete() {
		a.log.Debug("font family incomplete, missing styles fall back to regular", slog.String("family", set.Family))
	}
	return set
}

func sameFile(a, b string) bool {
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	return err1 == nil && err2 == nil && aa == bb
}
