/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"strings"
	"testing"
)

func TestWrapColumns(t *testing.T) {
	l := NewWordWrap(BasicProvider{})
	lines := l.WrapColumns("The quick brown fox jumps over the lazy dog", 10)
	if len(lines) < 4 {
		t.Fatalf("expected wrapping into several lines, got %q", lines)
	}
	for _, ln := range lines {
		if len(ln) > 10 {
			t.Fatalf("line %q exceeds 10 columns", ln)
		}
	}
	if got := strings.Join(lines, " "); got != "The quick brown fox jumps over the lazy dog" {
		t.Fatalf("wrap lost words: %q", got)
	}
}

func TestWrapSplitsLongWords(t *testing.T) {
	l := NewWordWrap(nil)
	lines := l.WrapColumns("AAAAAAAAAAAAAAAAAAAAAAAAA", 10)
	if len(lines) != 3 || lines[0] != "AAAAAAAAAA" || lines[2] != "AAAAA" {
		t.Fatalf("unexpected split: %q", lines)
	}
}

func TestWrapKeepsEmptyParagraph(t *testing.T) {
	l := NewWordWrap(BasicProvider{})
	lines := l.Wrap("", 100)
	if len(lines) != 1 || lines[0] != "" {
		t.Fatalf("expected single empty line, got %q", lines)
	}
}

func TestColumns(t *testing.T) {
	if got := Columns(6.0); got != 60 {
		t.Fatalf("Columns(6.0) = %d", got)
	}
	if got := Columns(0); got != 1 {
		t.Fatalf("Columns(0) = %d", got)
	}
}

func TestMeasure_Deterministic(t *testing.T) {
	w1, h1 := Measure(BasicProvider{}, FontSpec{}, "ABC")
	w2, h2 := Measure(nil, FontSpec{}, "ABC")
	if w1 != w2 || h1 != h2 || w1 != 21 {
		t.Fatalf("expected 21px for three 7px glyphs, got w1=%v w2=%v", w1, w2)
	}
}

func TestOTProvider_Fallback(t *testing.T) {
	otp := OTProvider{Lib: NewFontLibrary()}
	w, h := Measure(otp, FontSpec{Family: "Nonexistent", SizePt: 12}, "Hello")
	if w <= 0 || h <= 0 {
		t.Fatalf("expected positive measure with fallback: w=%v h=%v", w, h)
	}
}
