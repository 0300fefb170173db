/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"strings"
	"testing"
)

func TestExportText_Indents(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportText(sampleDoc(), &buf, TextOptions{}); err != nil {
		t.Fatalf("ExportText: %v", err)
	}
	out := buf.String()
	want := []string{
		"INT. KITCHEN - NIGHT",
		"Rain hammers the window.",
		strings.Repeat(" ", 20) + "MARY",
		strings.Repeat(" ", 15) + "(quietly)",
		strings.Repeat(" ", 10) + "Is it over?",
		strings.Repeat(" ", 40) + "CUT TO:",
	}
	for _, w := range want {
		if !strings.Contains(out, w+"\n") {
			t.Fatalf("missing line %q in:\n%s", w, out)
		}
	}
	for _, hidden := range []string{"Act Two", "morning after", "timeline", "Title:"} {
		if strings.Contains(out, hidden) {
			t.Fatalf("%q should not be printed:\n%s", hidden, out)
		}
	}
	if !strings.Contains(out, "THE END") {
		t.Fatalf("centered text missing:\n%s", out)
	}
}

func TestExportText_TitlePage(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportText(sampleDoc(), &buf, TextOptions{TitlePage: true}); err != nil {
		t.Fatalf("ExportText: %v", err)
	}
	title, body, ok := strings.Cut(buf.String(), "\f")
	if !ok {
		t.Fatalf("title page should end with a form feed")
	}
	if !strings.Contains(title, "The Long Night") || strings.Contains(body, "Jo Writer") {
		t.Fatalf("title page content misplaced:\n%s", buf.String())
	}
}

func TestExportText_WrapsDialog(t *testing.T) {
	doc := sampleDoc()
	for i := range doc.Tokens {
		if doc.Tokens[i].Text == "It never is." {
			doc.Tokens[i].Text = strings.Repeat("word ", 20)
		}
	}
	var buf bytes.Buffer
	if err := ExportText(doc, &buf, TextOptions{}); err != nil {
		t.Fatalf("ExportText: %v", err)
	}
	for _, ln := range strings.Split(buf.String(), "\n") {
		if strings.HasPrefix(ln, strings.Repeat(" ", 10)+"word") && len(ln) > 10+35 {
			t.Fatalf("dialog line exceeds 3.5in: %q", ln)
		}
	}
}
