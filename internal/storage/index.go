/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	applog "gofountain/internal/log"
	"gofountain/internal/script"
	"gofountain/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

// schemaVersion tracks the local SQLite schema. Fresh databases start at
// baseSchema and are brought up to date by runMigrations.
// Bump this when you perform breaking schema changes and add migrations.
const (
	baseSchema    = 1
	schemaVersion = 2
)

// Index is an open screenplay index.
type Index struct {
	db   *sql.DB
	path string
}

// Entry describes one indexed screenplay.
type Entry struct {
	ID        int64
	RunID     string
	Path      string
	Hash      string
	Title     string
	Tokens    int
	Scenes    int
	IndexedAt time.Time
}

// Hash returns the hex BLAKE3 digest used to key documents.
func Hash(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// OpenIndex ensures that the SQLite index exists at path, opens the database,
// enables WAL mode, and ensures the meta/version tables and schema exist.
func OpenIndex(path string) (*Index, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_open").With(slog.String("path", path))
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("index path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		l.Error("create index dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		l.Warn("enable foreign_keys failed", slog.Any("err", err))
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure index schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("index ready")
	return &Index{db: db, path: path}, nil
}

// OpenOrRecover opens the index at path. When the file cannot be opened or
// fails an integrity check, it is moved to a timestamped backup and a fresh
// index is created. recovered reports whether that happened.
func OpenOrRecover(ctx context.Context, path string) (ix *Index, recovered bool, err error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_recover")
	ix, err = OpenIndex(path)
	if err == nil {
		var chk string
		if qerr := ix.db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); qerr == nil && strings.EqualFold(strings.TrimSpace(chk), "ok") {
			return ix, false, nil
		}
		_ = ix.Close()
	}
	l.Warn("index unusable, rebuilding", slog.String("path", path), slog.Any("err", err))
	backupIndexFile(path)
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		_ = os.Remove(p)
	}
	ix, err = OpenIndex(path)
	if err != nil {
		return nil, false, fmt.Errorf("recreate index: %w", err)
	}
	return ix, true, nil
}

// Close releases the database.
func (ix *Index) Close() error {
	if ix == nil || ix.db == nil {
		return nil
	}
	return ix.db.Close()
}

// Path returns the database file path.
func (ix *Index) Path() string { return ix.path }

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, baseSchema, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// keep existing schema for migrations
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if cur > schemaVersion {
		// never downgrade
		return nil
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			// report lookups by speaker and scene
			stmts = []string{
				`CREATE INDEX IF NOT EXISTS idx_tokens_speaker ON tokens(speaker) WHERE speaker IS NOT NULL;`,
				`CREATE INDEX IF NOT EXISTS idx_tokens_scene ON tokens(doc_id, scene_no);`,
			}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// ensureIndexSchema creates the v1 tables and FTS structures if they do not exist.
func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			doc_id      INTEGER PRIMARY KEY,
			run_id      TEXT    NOT NULL,
			path        TEXT    NOT NULL UNIQUE,
			hash        TEXT    NOT NULL,
			title       TEXT,
			token_count INTEGER NOT NULL,
			scene_count INTEGER NOT NULL,
			indexed_at  TEXT    NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_hash ON documents(hash);`,

		// One row per classified line. speaker is the cue owning dialog lines.
		`CREATE TABLE IF NOT EXISTS tokens (
			tok_id   INTEGER PRIMARY KEY,
			doc_id   INTEGER NOT NULL REFERENCES documents(doc_id) ON DELETE CASCADE,
			line     INTEGER NOT NULL,
			kind     TEXT    NOT NULL,
			text     TEXT    NOT NULL,
			dual     INTEGER NOT NULL DEFAULT 0,
			scene_no INTEGER NOT NULL DEFAULT 0,
			speaker  TEXT,
			UNIQUE(doc_id, line)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tokens_kind ON tokens(kind);`,

		`CREATE TABLE IF NOT EXISTS metadata (
			doc_id INTEGER NOT NULL REFERENCES documents(doc_id) ON DELETE CASCADE,
			seq    INTEGER NOT NULL,
			label  TEXT    NOT NULL,
			text   TEXT    NOT NULL,
			PRIMARY KEY(doc_id, seq)
		);`,

		// Contentless FTS5 index fed from tokens via triggers.
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_tokens USING fts5(
			text,
			content='',
			tokenize = 'unicode61'
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS tokens_ai AFTER INSERT ON tokens BEGIN
			INSERT INTO fts_tokens(rowid, text) VALUES (new.tok_id, new.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS tokens_ad AFTER DELETE ON tokens BEGIN
			INSERT INTO fts_tokens(fts_tokens, rowid, text) VALUES ('delete', old.tok_id, old.text);
		END;`,
	}
	for _, q := range triggers {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure fts triggers: %w", err)
		}
	}
	return nil
}

// backupIndexFile copies the current index file into a timestamped backup next to it.
func backupIndexFile(indexPath string) {
	bdir := filepath.Join(filepath.Dir(indexPath), "backups")
	_ = os.MkdirAll(bdir, 0o755)
	stamp := time.Now().Format("20060102-150405")
	bak := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(indexPath), stamp))
	if data, err := os.ReadFile(indexPath); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
}

// IndexFile classifies the file at path and stores it. A file whose content
// hash is already indexed under the same path is skipped (stored=false).
func (ix *Index) IndexFile(ctx context.Context, path string, opts ...script.Option) (Entry, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, false, fmt.Errorf("read %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	hash := Hash(data)
	if e, err := ix.Lookup(ctx, abs); err == nil && e.Hash == hash {
		return e, false, nil
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return Entry{}, false, err
	}
	doc, err := script.ClassifyReader(bytes.NewReader(data), opts...)
	if err != nil {
		return Entry{}, false, fmt.Errorf("classify %s: %w", path, err)
	}
	e, err := ix.Put(ctx, abs, hash, doc)
	return e, err == nil, err
}

// Put stores doc under path, replacing any previous version of that path.
func (ix *Index) Put(ctx context.Context, path, hash string, doc script.Document) (Entry, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_put")
	title, _ := doc.Meta(script.KindTitle)
	rows := Attribute(doc.Tokens)
	e := Entry{
		RunID:     uuid.NewString(),
		Path:      path,
		Hash:      hash,
		Title:     title,
		Tokens:    len(doc.Tokens),
		IndexedAt: time.Now().UTC().Truncate(time.Second),
	}
	for _, r := range rows {
		e.Scenes = max(e.Scenes, r.SceneNo)
	}

	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return Entry{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM tokens WHERE doc_id IN (SELECT doc_id FROM documents WHERE path=?)`, path); err != nil {
		return Entry{}, fmt.Errorf("clear tokens: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE path=?`, path); err != nil {
		return Entry{}, fmt.Errorf("clear document: %w", err)
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO documents(run_id, path, hash, title, token_count, scene_count, indexed_at) VALUES(?,?,?,?,?,?,?)`,
		e.RunID, e.Path, e.Hash, nullString(e.Title), e.Tokens, e.Scenes, e.IndexedAt.Format(time.RFC3339))
	if err != nil {
		return Entry{}, fmt.Errorf("insert document: %w", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return Entry{}, fmt.Errorf("document id: %w", err)
	}
	ins, err := tx.PrepareContext(ctx, `INSERT INTO tokens(doc_id, line, kind, text, dual, scene_no, speaker) VALUES(?,?,?,?,?,?,?)`)
	if err != nil {
		return Entry{}, fmt.Errorf("prepare insert: %w", err)
	}
	defer ins.Close()
	for _, r := range rows {
		if _, err := ins.ExecContext(ctx, e.ID, r.Token.Line, r.Token.Kind.String(), r.Token.Text, r.Token.Dual, r.SceneNo, nullString(r.Speaker)); err != nil {
			return Entry{}, fmt.Errorf("insert token line %d: %w", r.Token.Line, err)
		}
	}
	for i, m := range doc.Metadata {
		if _, err := tx.ExecContext(ctx, `INSERT INTO metadata(doc_id, seq, label, text) VALUES(?,?,?,?)`, e.ID, i, m.Label.String(), m.Text); err != nil {
			return Entry{}, fmt.Errorf("insert metadata: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return Entry{}, fmt.Errorf("commit: %w", err)
	}
	l.Info("document indexed", slog.String("path", path), slog.String("run", e.RunID), slog.Int("tokens", e.Tokens))
	return e, nil
}

// Line is a token with the scene number and speaker derived from its position.
type Line struct {
	Token   script.Token
	SceneNo int
	Speaker string
}

// Attribute numbers scenes from 1 and assigns each dialog and parenthetical
// line to the cue that opened its block. Lines before the first scene get 0.
func Attribute(toks []script.Token) []Line {
	rows := make([]Line, len(toks))
	scene, speaker := 0, ""
	for i, t := range toks {
		switch t.Kind {
		case script.KindScene:
			scene++
			speaker = ""
		case script.KindCharacter:
			speaker = CueName(t.Text)
		case script.KindBlank:
			speaker = ""
		}
		rows[i] = Line{Token: t, SceneNo: scene}
		switch t.Kind {
		case script.KindCharacter, script.KindDialog, script.KindParenthetical:
			rows[i].Speaker = speaker
		}
	}
	return rows
}

// CueName normalizes a character cue: markup and extensions such as
// "(V.O.)" or "(CONT'D)" are removed.
func CueName(cue string) string {
	s := cue
	for _, tag := range []string{"<b>", "</b>", "<i>", "</i>", "<u>", "</u>"} {
		s = strings.ReplaceAll(s, tag, "")
	}
	if i := strings.Index(s, "("); i > 0 {
		s = s[:i]
	}
	return strings.ToUpper(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "^")))
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// ErrNotFound is returned when a document is not in the index.
var ErrNotFound = errors.New("document not indexed")

// Lookup returns the entry stored for path.
func (ix *Index) Lookup(ctx context.Context, path string) (Entry, error) {
	row := ix.db.QueryRowContext(ctx, `SELECT doc_id, run_id, path, hash, COALESCE(title,''), token_count, scene_count, indexed_at FROM documents WHERE path=?`, path)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

// Documents lists all indexed screenplays ordered by path.
func (ix *Index) Documents(ctx context.Context) ([]Entry, error) {
	rows, err := ix.db.QueryContext(ctx, `SELECT doc_id, run_id, path, hash, COALESCE(title,''), token_count, scene_count, indexed_at FROM documents ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface{ Scan(dest ...any) error }

func scanEntry(s scanner) (Entry, error) {
	var e Entry
	var ts string
	if err := s.Scan(&e.ID, &e.RunID, &e.Path, &e.Hash, &e.Title, &e.Tokens, &e.Scenes, &ts); err != nil {
		return Entry{}, err
	}
	if t, err := time.Parse(time.RFC3339, ts); err == nil {
		e.IndexedAt = t
	}
	return e, nil
}

// Load reconstructs the classified document stored under docID.
func (ix *Index) Load(ctx context.Context, docID int64) (script.Document, error) {
	var doc script.Document
	rows, err := ix.db.QueryContext(ctx, `SELECT line, kind, text, dual FROM tokens WHERE doc_id=? ORDER BY line`, docID)
	if err != nil {
		return doc, fmt.Errorf("load tokens: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t script.Token
		var kind string
		if err := rows.Scan(&t.Line, &kind, &t.Text, &t.Dual); err != nil {
			return doc, fmt.Errorf("scan token: %w", err)
		}
		t.Kind, _ = script.ParseKind(kind)
		doc.Tokens = append(doc.Tokens, t)
	}
	if err := rows.Err(); err != nil {
		return doc, err
	}
	mrows, err := ix.db.QueryContext(ctx, `SELECT label, text FROM metadata WHERE doc_id=? ORDER BY seq`, docID)
	if err != nil {
		return doc, fmt.Errorf("load metadata: %w", err)
	}
	defer mrows.Close()
	for mrows.Next() {
		var m script.MetadataEntry
		var label string
		if err := mrows.Scan(&label, &m.Text); err != nil {
			return doc, fmt.Errorf("scan metadata: %w", err)
		}
		m.Label, _ = script.ParseKind(label)
		doc.Metadata = append(doc.Metadata, m)
	}
	return doc, mrows.Err()
}

// Remove deletes the document stored for path. Missing documents are not an error.
func (ix *Index) Remove(ctx context.Context, path string) error {
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM tokens WHERE doc_id IN (SELECT doc_id FROM documents WHERE path=?)`, path); err != nil {
		return fmt.Errorf("remove tokens: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE path=?`, path); err != nil {
		return fmt.Errorf("remove document: %w", err)
	}
	return tx.Commit()
}
