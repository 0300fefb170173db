/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	applog "gofountain/internal/log"
	"gofountain/internal/script"
	"gofountain/internal/storage"
)

// ErrNotPublished is returned by Lookup for unknown paths.
var ErrNotPublished = errors.New("screenplay not published")

// Published describes one screenplay row on the backend.
// Skipped is set when Publish found the same content hash already stored.
type Published struct {
	ID          int64
	RunID       string
	Path        string
	Hash        string
	Title       string
	Tokens      int
	PublishedAt time.Time
	Skipped     bool
}

// Lookup returns the published row for path.
func (b *DB) Lookup(ctx context.Context, path string) (Published, error) {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()
	var p Published
	err := b.db.QueryRowContext(ctx, `SELECT id, run_id::text, path, hash, COALESCE(title,''), token_count, published_at FROM screenplays WHERE path=$1`, path).
		Scan(&p.ID, &p.RunID, &p.Path, &p.Hash, &p.Title, &p.Tokens, &p.PublishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Published{}, ErrNotPublished
	}
	if err != nil {
		return Published{}, fmt.Errorf("lookup %s: %w", path, err)
	}
	return p, nil
}

// Publish replaces the rows stored for path with doc. Tokens are streamed
// with COPY on the underlying pgx connection. Publishing an unchanged hash
// is a no-op that reports Skipped.
func (b *DB) Publish(ctx context.Context, path, hash string, doc script.Document) (Published, error) {
	l := applog.WithOperation(applog.WithComponent("backend"), "publish").With(slog.String("path", path))
	if prev, err := b.Lookup(ctx, path); err == nil && prev.Hash == hash {
		prev.Skipped = true
		l.Debug("publish skipped", slog.String("hash", hash))
		return prev, nil
	} else if err != nil && !errors.Is(err, ErrNotPublished) {
		return Published{}, err
	}

	ctx, cancel := b.withTimeout(ctx)
	defer cancel()
	title, _ := doc.Meta(script.KindTitle)
	p := Published{
		RunID:  uuid.NewString(),
		Path:   path,
		Hash:   hash,
		Title:  title,
		Tokens: len(doc.Tokens),
	}
	lines := storage.Attribute(doc.Tokens)

	conn, err := b.db.Conn(ctx)
	if err != nil {
		return Published{}, fmt.Errorf("acquire conn: %w", err)
	}
	defer func() { _ = conn.Close() }()
	err = conn.Raw(func(dc any) error {
		pc := dc.(*stdlib.Conn).Conn()
		return pgx.BeginFunc(ctx, pc, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, `DELETE FROM screenplays WHERE path=$1`, path); err != nil {
				return fmt.Errorf("clear screenplay: %w", err)
			}
			if err := tx.QueryRow(ctx,
				`INSERT INTO screenplays(path, hash, run_id, title, token_count) VALUES($1,$2,$3::text::uuid,NULLIF($4,''),$5) RETURNING id, published_at`,
				path, hash, p.RunID, title, p.Tokens).Scan(&p.ID, &p.PublishedAt); err != nil {
				return fmt.Errorf("insert screenplay: %w", err)
			}
			n, err := tx.CopyFrom(ctx, pgx.Identifier{"tokens"},
				[]string{"screenplay_id", "line", "kind", "text", "dual", "scene_no", "speaker"},
				pgx.CopyFromSlice(len(lines), func(i int) ([]any, error) {
					r := lines[i]
					var speaker any
					if r.Speaker != "" {
						speaker = r.Speaker
					}
					return []any{p.ID, r.Token.Line, r.Token.Kind.String(), r.Token.Text, r.Token.Dual, r.SceneNo, speaker}, nil
				}))
			if err != nil {
				return fmt.Errorf("copy tokens: %w", err)
			}
			if int(n) != len(lines) {
				return fmt.Errorf("copy tokens: wrote %d of %d rows", n, len(lines))
			}
			batch := &pgx.Batch{}
			for i, m := range doc.Metadata {
				batch.Queue(`INSERT INTO metadata(screenplay_id, seq, label, text) VALUES($1,$2,$3,$4)`, p.ID, i, m.Label.String(), m.Text)
			}
			if batch.Len() > 0 {
				if err := tx.SendBatch(ctx, batch).Close(); err != nil {
					return fmt.Errorf("insert metadata: %w", err)
				}
			}
			return nil
		})
	})
	if err != nil {
		l.Error("publish failed", slog.Any("err", err))
		return Published{}, err
	}
	l.Info("screenplay published", slog.String("run", p.RunID), slog.Int("tokens", p.Tokens))
	return p, nil
}

// Unpublish removes path and its lines from the backend.
func (b *DB) Unpublish(ctx context.Context, path string) error {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()
	res, err := b.db.ExecContext(ctx, `DELETE FROM screenplays WHERE path=$1`, path)
	if err != nil {
		return fmt.Errorf("unpublish %s: %w", path, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotPublished
	}
	return nil
}
