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
	"fmt"
	"strings"

	"gofountain/internal/storage"
)

// Search runs q against the published lines and maps rows to
// storage.SearchResult so local and shared results compare directly.
// Text is matched with plainto_tsquery over the simple configuration.
func (b *DB) Search(ctx context.Context, q storage.SearchQuery) ([]storage.SearchResult, error) {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()
	var (
		args []any
		sb   strings.Builder
	)
	place := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	sb.WriteString("SELECT s.path, t.line, t.kind, t.scene_no, COALESCE(t.speaker,''), t.text ")
	sb.WriteString("FROM tokens t JOIN screenplays s ON s.id = t.screenplay_id WHERE true ")
	if s := strings.TrimSpace(q.Text); s != "" {
		sb.WriteString(" AND t.search_vector @@ plainto_tsquery('simple', " + place(s) + ") ")
	}
	if len(q.Kinds) > 0 {
		kinds := make([]string, 0, len(q.Kinds))
		for _, k := range q.Kinds {
			kinds = append(kinds, strings.ToUpper(strings.TrimSpace(k)))
		}
		sb.WriteString(" AND t.kind = ANY (" + place(kinds) + ") ")
	}
	if s := strings.TrimSpace(q.Character); s != "" {
		sb.WriteString(" AND t.speaker = " + place(storage.CueName(s)) + " ")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := max(q.Offset, 0)
	sb.WriteString(" ORDER BY s.path, t.line ")
	sb.WriteString(" LIMIT " + place(limit) + " OFFSET " + place(offset))

	rows, err := b.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search pg query: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []storage.SearchResult
	for rows.Next() {
		var r storage.SearchResult
		if err := rows.Scan(&r.Path, &r.Line, &r.Kind, &r.SceneNo, &r.Speaker, &r.Text); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
