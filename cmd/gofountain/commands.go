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
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	flag "github.com/spf13/pflag"

	"gofountain/internal/backend"
	"gofountain/internal/export"
	"gofountain/internal/script"
	"gofountain/internal/storage"
)

type tokensFlags struct {
	all bool
}

func (f *tokensFlags) bind(fs *flag.FlagSet) {
	fs.BoolVarP(&f.all, "all", "a", false, "include blank lines")
}

// run prints one "LINE KIND text" row per classified line, then the title page.
func (f *tokensFlags) run(_ context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return usageErrorf("tokens requires exactly one file")
	}
	doc, _, err := export.LoadFile(args[0], a.cfg.Parser.Encoding, a.classifyOptions()...)
	if err != nil {
		return err
	}
	for _, t := range doc.Tokens {
		if !f.all && t.Kind == script.KindBlank {
			continue
		}
		dual := ""
		if t.Dual {
			dual = " ^"
		}
		fmt.Fprintf(a.out, "%5d %-14s %s%s\n", t.Line, t.Kind, t.Text, dual)
	}
	for _, m := range doc.Metadata {
		fmt.Fprintf(a.out, "%s: %s\n", m.Label, strings.ReplaceAll(m.Text, "\n", " / "))
	}
	return nil
}

type indexFlags struct {
	db string
}

func (f *indexFlags) bind(fs *flag.FlagSet) {
	fs.StringVar(&f.db, "db", "", "index database (default from config)")
}

func (a *app) openIndex(ctx context.Context, path string) (*storage.Index, error) {
	if path == "" {
		path = a.cfg.IndexPath()
	}
	ix, recovered, err := storage.OpenOrRecover(ctx, path)
	if err != nil {
		return nil, err
	}
	if recovered {
		fmt.Fprintf(a.errOut, "index %s was unusable and has been rebuilt\n", path)
	}
	return ix, nil
}

func (f *indexFlags) run(ctx context.Context, a *app, args []string) error {
	if err := requireFiles(args, "index"); err != nil {
		return err
	}
	ix, err := a.openIndex(ctx, f.db)
	if err != nil {
		return err
	}
	defer func() { _ = ix.Close() }()
	var failed int
	for _, p := range args {
		e, stored, err := indexOne(ctx, a, ix, p)
		if err != nil {
			failed++
			fmt.Fprintf(a.errOut, "FAIL %s: %v\n", p, err)
			continue
		}
		state := "unchanged"
		if stored {
			state = "indexed"
		}
		fmt.Fprintf(a.out, "%-9s %s (%d lines, %d scenes)\n", state, e.Path, e.Tokens, e.Scenes)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

// indexOne stores one file. Unchanged content is not stored again.
func indexOne(ctx context.Context, a *app, ix *storage.Index, p string) (storage.Entry, bool, error) {
	enc := a.cfg.Parser.Encoding
	if enc == "" && !strings.EqualFold(filepath.Ext(p), ".json") {
		return ix.IndexFile(ctx, p, a.classifyOptions()...)
	}
	doc, data, err := export.LoadFile(p, enc, a.classifyOptions()...)
	if err != nil {
		return storage.Entry{}, false, err
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		abs = p
	}
	hash := storage.Hash(data)
	if e, err := ix.Lookup(ctx, abs); err == nil && e.Hash == hash {
		return e, false, nil
	} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return storage.Entry{}, false, err
	}
	e, err := ix.Put(ctx, abs, hash, doc)
	return e, err == nil, err
}

type reportFlags struct {
	db         string
	scenes     bool
	characters bool
}

func (f *reportFlags) bind(fs *flag.FlagSet) {
	fs.StringVar(&f.db, "db", "", "index database (default from config)")
	fs.BoolVar(&f.scenes, "scenes", false, "list scene headings (default)")
	fs.BoolVar(&f.characters, "characters", false, "list characters by dialogue lines")
}

func (f *reportFlags) run(ctx context.Context, a *app, args []string) error {
	if f.scenes && f.characters {
		return usageErrorf("--scenes and --characters are exclusive")
	}
	if len(args) > 1 {
		return usageErrorf("report takes at most one file")
	}
	ix, err := a.openIndex(ctx, f.db)
	if err != nil {
		return err
	}
	defer func() { _ = ix.Close() }()

	if f.characters {
		rows, err := ix.CharacterReport(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%-24s %6s %6s %6s %5s\n", "CHARACTER", "CUES", "LINES", "SCENES", "DOCS")
		for _, r := range rows {
			fmt.Fprintf(a.out, "%-24s %6d %6d %6d %5d\n", r.Name, r.Cues, r.DialogLines, r.Scenes, r.Documents)
		}
		return nil
	}
	var path string
	if len(args) == 1 {
		if path, err = filepath.Abs(args[0]); err != nil {
			return err
		}
	}
	rows, err := ix.SceneReport(ctx, path)
	if err != nil {
		return err
	}
	last := ""
	for _, r := range rows {
		if r.Path != last {
			fmt.Fprintln(a.out, r.Path)
			last = r.Path
		}
		fmt.Fprintf(a.out, "%4d. %-48s line %-5d dialogue %d\n", r.SceneNo, r.Heading, r.Line, r.DialogLines)
	}
	return nil
}

type searchFlags struct {
	db        string
	kinds     []string
	character string
	limit     int
	offset    int
	backend   bool
}

func (f *searchFlags) bind(fs *flag.FlagSet) {
	fs.StringVar(&f.db, "db", "", "index database (default from config)")
	fs.StringSliceVarP(&f.kinds, "kind", "k", nil, "restrict to element kinds, e.g. DIALOG,SCENE")
	fs.StringVar(&f.character, "character", "", "restrict to lines of one character")
	fs.IntVarP(&f.limit, "limit", "n", 100, "maximum results")
	fs.IntVar(&f.offset, "offset", 0, "skip the first results")
	fs.BoolVar(&f.backend, "backend", false, "search the Postgres backend instead of the local index")
}

func (f *searchFlags) run(ctx context.Context, a *app, args []string) error {
	q := storage.SearchQuery{
		Text:      strings.Join(args, " "),
		Kinds:     f.kinds,
		Character: f.character,
		Limit:     f.limit,
		Offset:    f.offset,
	}
	if q.Text == "" && len(q.Kinds) == 0 && q.Character == "" {
		return usageErrorf("search needs a query, --kind or --character")
	}
	var (
		res []storage.SearchResult
		err error
	)
	if f.backend {
		db, oerr := backend.Open(ctx, a.cfg.Backend.DSN, a.password, a.cfg.Backend.Timeout())
		if oerr != nil {
			return oerr
		}
		defer func() { _ = db.Close() }()
		res, err = db.Search(ctx, q)
	} else {
		ix, oerr := a.openIndex(ctx, f.db)
		if oerr != nil {
			return oerr
		}
		defer func() { _ = ix.Close() }()
		res, err = ix.Search(ctx, q)
	}
	if err != nil {
		return err
	}
	for _, r := range res {
		who := ""
		if r.Speaker != "" && r.Kind != "CHARACTER" {
			who = r.Speaker + ": "
		}
		fmt.Fprintf(a.out, "%s:%d [%s scene %d] %s%s\n", r.Path, r.Line, r.Kind, r.SceneNo, who, r.Text)
	}
	return nil
}

type publishFlags struct {
	dsn string
}

func (f *publishFlags) bind(fs *flag.FlagSet) {
	fs.StringVar(&f.dsn, "dsn", "", "Postgres connection string (default from config)")
}

func (f *publishFlags) run(ctx context.Context, a *app, args []string) error {
	if err := requireFiles(args, "publish"); err != nil {
		return err
	}
	dsn := a.cfg.Backend.DSN
	if f.dsn != "" {
		dsn = f.dsn
	}
	if dsn == "" {
		return usageErrorf("no backend configured: pass --dsn or set backend.dsn")
	}
	db, err := backend.Open(ctx, dsn, a.password, a.cfg.Backend.Timeout())
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	var failed int
	for _, p := range args {
		doc, data, err := export.LoadFile(p, a.cfg.Parser.Encoding, a.classifyOptions()...)
		if err == nil {
			abs, aerr := filepath.Abs(p)
			if aerr != nil {
				abs = p
			}
			var res backend.Published
			if res, err = db.Publish(ctx, abs, storage.Hash(data), doc); err == nil {
				state := "published"
				if res.Skipped {
					state = "unchanged"
				}
				fmt.Fprintf(a.out, "%-9s %s (%d lines, run %s)\n", state, res.Path, res.Tokens, res.RunID)
				continue
			}
		}
		failed++
		fmt.Fprintf(a.errOut, "FAIL %s: %v\n", p, err)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}
