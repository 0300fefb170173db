/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"strings"
	"unicode"
)

// forcedMarker assigns a kind unconditionally when it matches the untrimmed line.
type forcedMarker struct {
	kind  Kind
	match func(line string) bool
}

// Checked in order; first match wins.
var forcedMarkers = []forcedMarker{
	{kind: KindCharacter, match: hasPrefix("@")},
	{kind: KindScene, match: hasPrefix(".")},
	{kind: KindAction, match: hasPrefix("!")},
	{kind: KindLyric, match: hasPrefix("~")},
	{kind: KindNote, match: isNote},
	{kind: KindSynopse, match: hasPrefix("=")},
	{kind: KindTransition, match: isForcedTransition},
}

// contextRule is one predicate of the contextual chain. line, prev and next
// are already trimmed.
type contextRule struct {
	name  string
	kind  Kind
	match func(line, prev, next string) bool
}

// Evaluated in order after the blank check; first match wins.
// Lines matching none become DIALOG or ACTION depending on the dialog flag.
var contextRules = []contextRule{
	{name: "scene", kind: KindScene, match: isSceneHeading},
	{name: "character", kind: KindCharacter, match: isCharacterCue},
	{name: "transition", kind: KindTransition, match: isTransition},
	{name: "section", kind: KindSection, match: isSectionHeader},
	{name: "parenthetical", kind: KindParenthetical, match: isParenthetical},
}

// ContextRules returns the names of the contextual rules in evaluation order.
func ContextRules() []string {
	out := make([]string, len(contextRules))
	for i, r := range contextRules {
		out[i] = r.name
	}
	return out
}

func forcedKind(line string) (Kind, bool) {
	for _, m := range forcedMarkers {
		if m.match(line) {
			return m.kind, true
		}
	}
	return KindBlank, false
}

func contextualKind(st State, line, prev, next string) Kind {
	for _, r := range contextRules {
		if r.match(line, prev, next) {
			return r.kind
		}
	}
	if st.DialogActive {
		return KindDialog
	}
	return KindAction
}

func hasPrefix(p string) func(string) bool {
	return func(line string) bool { return strings.HasPrefix(line, p) }
}

// isNote matches a [[...]] pair anywhere in the line.
func isNote(line string) bool {
	i := strings.Index(line, "[[")
	return i >= 0 && strings.Contains(line[i+2:], "]]")
}

// isForcedTransition matches ">" followed by at least one character, not ending in "<".
func isForcedTransition(line string) bool {
	return len(line) >= 2 && line[0] == '>' && !strings.HasSuffix(line, "<")
}

func isCentered(line string) bool {
	return len(line) >= 2 && line[0] == '>' && strings.HasSuffix(line, "<")
}

func isSceneHeading(line, prev, next string) bool {
	return isUpper(line) && (strings.HasPrefix(line, "INT.") || strings.HasPrefix(line, "EXT.")) && prev == "" && next == ""
}

func isCharacterCue(line, prev, next string) bool {
	return isUpper(line) && !strings.HasPrefix(line, ">") && prev == "" && next != ""
}

func isTransition(line, prev, next string) bool {
	return isUpper(line) && strings.HasSuffix(line, "TO:") && prev == "" && next == ""
}

func isSectionHeader(line, _, _ string) bool { return strings.HasPrefix(line, "#") }

func isParenthetical(line, _, _ string) bool {
	return strings.HasPrefix(line, "(") && strings.HasSuffix(line, ")")
}

// isUpper reports whether s has at least one cased letter and no lower-case
// or title-case letters. Digits and punctuation are ignored.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		switch {
		case unicode.IsLower(r), unicode.IsTitle(r):
			return false
		case unicode.IsUpper(r):
			cased = true
		}
	}
	return cased
}
