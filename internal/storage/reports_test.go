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
	"strings"
	"testing"

	"gofountain/internal/script"
)

func seedKitchen(t *testing.T, ix *Index, path string) {
	t.Helper()
	doc := script.Classify(strings.Split(strings.TrimSuffix(kitchenScript, "\n"), "\n"))
	if _, err := ix.Put(context.Background(), path, Hash([]byte(path)), doc); err != nil {
		t.Fatalf("Put: %v", err)
	}
}

func TestSceneReport(t *testing.T) {
	ix := openTestIndex(t)
	seedKitchen(t, ix, "/a.fountain")
	seedKitchen(t, ix, "/b.fountain")
	ctx := context.Background()

	rows, err := ix.SceneReport(ctx, "/a.fountain")
	if err != nil {
		t.Fatalf("SceneReport: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 scenes, got %+v", rows)
	}
	if rows[0].Heading != "INT. KITCHEN - NIGHT" || rows[0].SceneNo != 1 || rows[0].DialogLines != 2 {
		t.Fatalf("unexpected first scene: %+v", rows[0])
	}
	if rows[1].Heading != "EXT. GARDEN - DAY" || rows[1].DialogLines != 2 {
		t.Fatalf("unexpected second scene: %+v", rows[1])
	}
	all, err := ix.SceneReport(ctx, "")
	if err != nil || len(all) != 4 {
		t.Fatalf("expected 4 scenes over both documents, got %d (%v)", len(all), err)
	}
}

func TestCharacterReport(t *testing.T) {
	ix := openTestIndex(t)
	seedKitchen(t, ix, "/a.fountain")
	rows, err := ix.CharacterReport(context.Background())
	if err != nil {
		t.Fatalf("CharacterReport: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected MARY and JOHN, got %+v", rows)
	}
	mary := rows[0]
	if mary.Name != "MARY" || mary.Cues != 2 || mary.DialogLines != 3 || mary.Scenes != 2 || mary.Documents != 1 {
		t.Fatalf("unexpected MARY row: %+v", mary)
	}
	if rows[1].Name != "JOHN" || rows[1].DialogLines != 1 {
		t.Fatalf("unexpected JOHN row: %+v", rows[1])
	}
}

func TestSearch(t *testing.T) {
	ix := openTestIndex(t)
	seedKitchen(t, ix, "/a.fountain")
	ctx := context.Background()

	res, err := ix.Search(ctx, SearchQuery{Text: "outside"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res) != 1 || res[0].Speaker != "MARY" || res[0].Kind != "DIALOG" || res[0].SceneNo != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	res, err = ix.Search(ctx, SearchQuery{Kinds: []string{"scene"}})
	if err != nil || len(res) != 2 {
		t.Fatalf("kind filter: %d results (%v)", len(res), err)
	}
	res, err = ix.Search(ctx, SearchQuery{Character: "john", Kinds: []string{"DIALOG"}})
	if err != nil || len(res) != 1 || res[0].Text != "It never is." {
		t.Fatalf("character filter: %+v (%v)", res, err)
	}
	res, err = ix.Search(ctx, SearchQuery{Limit: 2, Offset: 1})
	if err != nil || len(res) != 2 {
		t.Fatalf("pagination: %d results (%v)", len(res), err)
	}
}
