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
)

// SceneRow is one scene heading of an indexed screenplay.
type SceneRow struct {
	Path        string
	SceneNo     int
	Line        int
	Heading     string
	DialogLines int
}

// CharacterRow aggregates the dialogue of one speaker across the index.
type CharacterRow struct {
	Name        string
	Cues        int
	DialogLines int
	Scenes      int
	Documents   int
}

// SceneReport lists scene headings in document and line order with the number
// of dialog lines spoken in each scene. An empty path selects all documents.
func (ix *Index) SceneReport(ctx context.Context, path string) ([]SceneRow, error) {
	q := `SELECT d.path, s.scene_no, s.line, s.text,
			(SELECT COUNT(*) FROM tokens t WHERE t.doc_id = s.doc_id AND t.scene_no = s.scene_no AND t.kind = 'DIALOG')
		FROM tokens s JOIN documents d ON d.doc_id = s.doc_id
		WHERE s.kind = 'SCENE' AND (? = '' OR d.path = ?)
		ORDER BY d.path, s.line`
	rows, err := ix.db.QueryContext(ctx, q, path, path)
	if err != nil {
		return nil, fmt.Errorf("scene report: %w", err)
	}
	defer rows.Close()
	var out []SceneRow
	for rows.Next() {
		var r SceneRow
		if err := rows.Scan(&r.Path, &r.SceneNo, &r.Line, &r.Heading, &r.DialogLines); err != nil {
			return nil, fmt.Errorf("scan scene: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CharacterReport lists speakers ordered by dialog lines, most first.
func (ix *Index) CharacterReport(ctx context.Context) ([]CharacterRow, error) {
	q := `SELECT speaker,
			SUM(CASE WHEN kind = 'CHARACTER' THEN 1 ELSE 0 END),
			SUM(CASE WHEN kind = 'DIALOG' THEN 1 ELSE 0 END),
			COUNT(DISTINCT CASE WHEN scene_no > 0 THEN doc_id || ':' || scene_no END),
			COUNT(DISTINCT doc_id)
		FROM tokens
		WHERE speaker IS NOT NULL
		GROUP BY speaker
		ORDER BY 3 DESC, 1`
	rows, err := ix.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("character report: %w", err)
	}
	defer rows.Close()
	var out []CharacterRow
	for rows.Next() {
		var r CharacterRow
		if err := rows.Scan(&r.Name, &r.Cues, &r.DialogLines, &r.Scenes, &r.Documents); err != nil {
			return nil, fmt.Errorf("scan character: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
