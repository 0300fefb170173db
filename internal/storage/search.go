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
	"fmt"
	"strings"
)

// SearchQuery describes a search over indexed lines.
// Text uses SQLite FTS5 syntax (simple terms, phrases in quotes, AND/OR/NOT).
// Kinds restricts to element kinds such as DIALOG or SCENE.
// Character restricts to lines owned by a speaker.
// Limit/Offset implement pagination; reasonable defaults applied if zero.
type SearchQuery struct {
	Text      string
	Kinds     []string
	Character string
	Limit     int
	Offset    int
}

// SearchResult represents a single matching line.
// The FTS table is contentless, so Text comes from the tokens table.
type SearchResult struct {
	Path    string
	Line    int
	Kind    string
	SceneNo int
	Speaker string
	Text    string
}

// Search performs full-text search with optional filters over the index.
// When q.Text is empty, it falls back to a plain scan with filters applied.
func (ix *Index) Search(ctx context.Context, q SearchQuery) ([]SearchResult, error) {
	var args []any
	var sb strings.Builder
	if strings.TrimSpace(q.Text) != "" {
		sb.WriteString("SELECT d.path, t.line, t.kind, t.scene_no, COALESCE(t.speaker,''), t.text\n")
		sb.WriteString("FROM fts_tokens JOIN tokens t ON fts_tokens.rowid = t.tok_id JOIN documents d ON d.doc_id = t.doc_id\n")
		sb.WriteString("WHERE fts_tokens MATCH ?\n")
		args = append(args, q.Text)
	} else {
		sb.WriteString("SELECT d.path, t.line, t.kind, t.scene_no, COALESCE(t.speaker,''), t.text\n")
		sb.WriteString("FROM tokens t JOIN documents d ON d.doc_id = t.doc_id\nWHERE 1=1\n")
	}
	if len(q.Kinds) > 0 {
		sb.WriteString(" AND t.kind IN (" + placeholders(len(q.Kinds)) + ")\n")
		for _, k := range q.Kinds {
			args = append(args, strings.ToUpper(strings.TrimSpace(k)))
		}
	}
	if s := strings.TrimSpace(q.Character); s != "" {
		sb.WriteString(" AND t.speaker = ?\n")
		args = append(args, CueName(s))
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	sb.WriteString("ORDER BY d.path, t.line\nLIMIT ? OFFSET ?")
	args = append(args, limit, q.Offset)

	rows, err := ix.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Path, &r.Line, &r.Kind, &r.SceneNo, &r.Speaker, &r.Text); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
