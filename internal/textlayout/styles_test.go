/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"testing"

	"gofountain/internal/script"
)

func TestBuiltinStyles(t *testing.T) {
	cases := []struct {
		kind        script.Kind
		left, right float64
		align       Align
		hidden      bool
	}{
		{script.KindAction, 0, 0, AlignLeft, false},
		{script.KindCharacter, 2.0, 0, AlignLeft, false},
		{script.KindDialog, 1.0, 1.5, AlignLeft, false},
		{script.KindParenthetical, 1.5, 2.0, AlignLeft, false},
		{script.KindTransition, 4.0, 0, AlignLeft, false},
		{script.KindCentered, 0, 0, AlignCenter, false},
		{script.KindNote, 0, 0, AlignLeft, true},
	}
	for _, c := range cases {
		st, ok := GetStyle(c.kind)
		if !ok {
			t.Fatalf("%s style missing", c.kind)
		}
		if st.LeftIndent != c.left || st.RightIndent != c.right || st.Align != c.align || st.Hidden != c.hidden {
			t.Fatalf("%s style = %+v", c.kind, st)
		}
	}
	if _, ok := GetStyle(script.KindTitle); ok {
		t.Fatalf("title-page labels have no body style")
	}
}

func TestListStylesCoversPrintableKinds(t *testing.T) {
	seen := map[script.Kind]bool{}
	for _, k := range ListStyles() {
		seen[k] = true
	}
	for k := script.KindBlank; k <= script.KindSynopse; k++ {
		if !seen[k] {
			t.Fatalf("no builtin style for %s", k)
		}
	}
}

func TestParseAlign(t *testing.T) {
	for in, want := range map[string]Align{"": AlignLeft, "Center": AlignCenter, "centre": AlignCenter, "RIGHT": AlignRight} {
		got, ok := ParseAlign(in)
		if !ok || got != want {
			t.Fatalf("ParseAlign(%q) = %v,%v", in, got, ok)
		}
	}
	if _, ok := ParseAlign("justify"); ok {
		t.Fatalf("justify should be rejected")
	}
}
