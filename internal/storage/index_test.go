/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"gofountain/internal/script"
)

const kitchenScript = `Title: Kitchen
Author: Jo Writer

INT. KITCHEN - NIGHT

MARY
(quietly)
Is it over?

JOHN (V.O.)
It never is.

EXT. GARDEN - DAY

MARY
Come outside.
Now.
`

func writeScript(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := OpenIndex(filepath.Join(t.TempDir(), "idx", "index.sqlite"))
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	t.Cleanup(func() { _ = ix.Close() })
	return ix
}

func TestOpenIndexCreatesWALAndSchema(t *testing.T) {
	ix := openTestIndex(t)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	var mode string
	if err := ix.db.QueryRowContext(ctx, "PRAGMA journal_mode;").Scan(&mode); err != nil {
		t.Fatalf("read journal_mode: %v", err)
	}
	if !strings.EqualFold(mode, "wal") {
		t.Fatalf("expected WAL mode, got %s", mode)
	}
	var cnt int
	if err := ix.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('meta','version','documents','tokens','metadata','fts_tokens')").Scan(&cnt); err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	if cnt != 6 {
		t.Fatalf("expected 6 tables, got %d", cnt)
	}
	var schema int
	if err := ix.db.QueryRowContext(ctx, "SELECT schema FROM version WHERE id=1").Scan(&schema); err != nil || schema != schemaVersion {
		t.Fatalf("schema = %d (%v), want %d", schema, err, schemaVersion)
	}
	if err := ix.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name IN ('idx_tokens_speaker','idx_tokens_scene')").Scan(&cnt); err != nil || cnt != 2 {
		t.Fatalf("expected migration indexes, got %d (%v)", cnt, err)
	}
}

func TestMigrations_UpgradeV1ToV2(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.sqlite")
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s", filepath.ToSlash(path)))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	ctx := context.Background()
	stmts := []string{
		`CREATE TABLE meta (key TEXT PRIMARY KEY, value TEXT NOT NULL);`,
		`CREATE TABLE version (id INTEGER PRIMARY KEY CHECK(id=1), schema INTEGER NOT NULL, app TEXT, created_at TEXT NOT NULL, updated_at TEXT NOT NULL);`,
		`INSERT INTO version VALUES(1, 1, 'test', '2020-01-01T00:00:00Z', '2020-01-01T00:00:00Z');`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			t.Fatalf("seed v1 schema: %v (q=%s)", err, q)
		}
	}
	_ = db.Close()

	ix, err := OpenIndex(path)
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	defer ix.Close()
	var schema int
	if err := ix.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&schema); err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if schema != 2 {
		t.Fatalf("expected schema 2 after migration, got %d", schema)
	}
}

func TestIndexFileSkipsUnchangedAndReplacesChanged(t *testing.T) {
	ix := openTestIndex(t)
	ctx := context.Background()
	dir := t.TempDir()
	p := writeScript(t, dir, "kitchen.fountain", kitchenScript)

	e1, stored, err := ix.IndexFile(ctx, p)
	if err != nil || !stored {
		t.Fatalf("first IndexFile: stored=%v err=%v", stored, err)
	}
	if e1.Title != "Kitchen" || e1.Scenes != 2 || e1.RunID == "" || e1.Hash != Hash([]byte(kitchenScript)) {
		t.Fatalf("unexpected entry: %+v", e1)
	}
	e2, stored, err := ix.IndexFile(ctx, p)
	if err != nil || stored {
		t.Fatalf("unchanged file should be skipped: stored=%v err=%v", stored, err)
	}
	if e2.RunID != e1.RunID {
		t.Fatalf("skipped file should keep its run id")
	}

	writeScript(t, dir, "kitchen.fountain", kitchenScript+"\nINT. CELLAR - NIGHT\n")
	e3, stored, err := ix.IndexFile(ctx, p)
	if err != nil || !stored {
		t.Fatalf("changed file should be stored: stored=%v err=%v", stored, err)
	}
	if e3.Scenes != 3 || e3.RunID == e1.RunID {
		t.Fatalf("unexpected replacement entry: %+v", e3)
	}
	docs, err := ix.Documents(ctx)
	if err != nil || len(docs) != 1 {
		t.Fatalf("expected a single document, got %d (%v)", len(docs), err)
	}
}

func TestLoadReturnsStoredDocument(t *testing.T) {
	ix := openTestIndex(t)
	ctx := context.Background()
	doc := script.Classify(strings.Split(strings.TrimSuffix(kitchenScript, "\n"), "\n"))
	e, err := ix.Put(ctx, "/scripts/kitchen.fountain", "h1", doc)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := ix.Load(ctx, e.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got.Tokens, doc.Tokens) || !reflect.DeepEqual(got.Metadata, doc.Metadata) {
		t.Fatalf("loaded document differs:\n%+v\n%+v", got, doc)
	}
	if _, err := ix.Lookup(ctx, "/scripts/other.fountain"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := ix.Remove(ctx, "/scripts/kitchen.fountain"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := ix.Lookup(ctx, "/scripts/kitchen.fountain"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("document should be gone, got %v", err)
	}
}

func TestOpenOrRecover_OnCorruption(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.sqlite")
	if err := os.WriteFile(path, []byte("THIS IS NOT SQLITE"), 0o644); err != nil {
		t.Fatalf("write corrupt: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ix, recovered, err := OpenOrRecover(ctx, path)
	if err != nil {
		t.Fatalf("OpenOrRecover: %v", err)
	}
	defer ix.Close()
	if !recovered {
		t.Fatalf("expected recovery to occur")
	}
	entries, _ := os.ReadDir(filepath.Join(dir, "backups"))
	if len(entries) == 0 {
		t.Fatalf("expected backup file")
	}
	if _, err := ix.Documents(ctx); err != nil {
		t.Fatalf("recovered index unusable: %v", err)
	}
}

func TestOpenOrRecover_HealthyIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.sqlite")
	ix, err := OpenIndex(path)
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	_ = ix.Close()
	ix, recovered, err := OpenOrRecover(context.Background(), path)
	if err != nil || recovered {
		t.Fatalf("healthy index should open as is: recovered=%v err=%v", recovered, err)
	}
	_ = ix.Close()
}

func TestAttribute(t *testing.T) {
	toks := []script.Token{
		{Kind: script.KindCharacter, Text: "NARRATOR"},
		{Kind: script.KindDialog, Text: "Once."},
		{Kind: script.KindScene, Text: "INT. A"},
		{Kind: script.KindCharacter, Text: "BOB (CONT'D)"},
		{Kind: script.KindParenthetical, Text: "(sighs)"},
		{Kind: script.KindDialog, Text: "Hi."},
		{Kind: script.KindBlank},
		{Kind: script.KindAction, Text: "He leaves."},
	}
	rows := Attribute(toks)
	want := []struct {
		scene   int
		speaker string
	}{{0, "NARRATOR"}, {0, "NARRATOR"}, {1, ""}, {1, "BOB"}, {1, "BOB"}, {1, "BOB"}, {1, ""}, {1, ""}}
	for i, w := range want {
		if rows[i].SceneNo != w.scene || rows[i].Speaker != w.speaker {
			t.Fatalf("row %d = scene %d speaker %q, want %d %q", i, rows[i].SceneNo, rows[i].Speaker, w.scene, w.speaker)
		}
	}
}

func TestCueName(t *testing.T) {
	for in, want := range map[string]string{
		"MARY":            "MARY",
		"JOHN (V.O.)":     "JOHN",
		"<b>ANNA</b>":     "ANNA",
		"BOB ^":           "BOB",
		"mcclane":         "MCCLANE",
		"DR. NO (CONT'D)": "DR. NO",
	} {
		if got := CueName(in); got != want {
			t.Fatalf("CueName(%q) = %q, want %q", in, got, want)
		}
	}
}
