/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import "strings"

// EscapeChar disables span detection for the marker that follows it.
const EscapeChar = '\\'

// Markup tags produced by Translate.
const (
	TagBold      = "b"
	TagItalic    = "i"
	TagUnderline = "u"
)

type emphasisRule struct {
	marker string
	open   string
	close  string
}

// Tested in order; only the first category with a match is applied to a line.
var emphasisRules = []emphasisRule{
	{marker: "***", open: "<b><i>", close: "</i></b>"},
	{marker: "**", open: "<b>", close: "</b>"},
	{marker: "*", open: "<i>", close: "</i>"},
	{marker: "_", open: "<u>", close: "</u>"},
}

// Translate converts emphasis spans in one line of classified text into markup.
//
//	***x*** -> <b><i>x</i></b>
//	**x**   -> <b>x</b>
//	*x*     -> <i>x</i>
//	_x_     -> <u>x</u>
//
// Escaped markers and unbalanced markers are left as they are.
func Translate(text string) string {
	for _, r := range emphasisRules {
		if out, ok := r.apply(text); ok {
			return out
		}
	}
	return text
}

func (r emphasisRule) apply(s string) (string, bool) {
	n := len(r.marker)
	var b strings.Builder
	last := 0
	matched := false
	for i := 0; i+n <= len(s); {
		if !r.opensAt(s, i) {
			i++
			continue
		}
		j := r.closeFrom(s, i+n+1)
		if j < 0 {
			i++
			continue
		}
		if !matched {
			b.Grow(len(s) + 16)
			matched = true
		}
		b.WriteString(s[last:i])
		b.WriteString(r.open)
		b.WriteString(s[i+n : j])
		b.WriteString(r.close)
		last = j + n
		i = last
	}
	if !matched {
		return s, false
	}
	b.WriteString(s[last:])
	return b.String(), true
}

func (r emphasisRule) opensAt(s string, i int) bool {
	if !strings.HasPrefix(s[i:], r.marker) {
		return false
	}
	return i == 0 || s[i-1] != EscapeChar
}

// closeFrom returns the index of the first closing marker at or after from.
// A closing marker must not follow a space or the escape character.
func (r emphasisRule) closeFrom(s string, from int) int {
	for j := from; j+len(r.marker) <= len(s); j++ {
		if !strings.HasPrefix(s[j:], r.marker) {
			continue
		}
		if c := s[j-1]; c != ' ' && c != EscapeChar {
			return j
		}
	}
	return -1
}
