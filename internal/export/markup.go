/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"strings"

	"gofountain/internal/script"
)

// Run is a stretch of text with uniform emphasis.
type Run struct {
	Text      string
	Bold      bool
	Italic    bool
	Underline bool
}

// Style returns the gofpdf font style string ("", "B", "I", "BIU", ...).
func (r Run) Style() string {
	var b strings.Builder
	if r.Bold {
		b.WriteByte('B')
	}
	if r.Italic {
		b.WriteByte('I')
	}
	if r.Underline {
		b.WriteByte('U')
	}
	return b.String()
}

var markupTags = []struct {
	tag   string
	apply func(*Run, bool)
}{
	{script.TagBold, func(r *Run, on bool) { r.Bold = on }},
	{script.TagItalic, func(r *Run, on bool) { r.Italic = on }},
	{script.TagUnderline, func(r *Run, on bool) { r.Underline = on }},
}

// ParseMarkup splits translated text into runs. Only the tags produced by
// script.Translate are recognized; any other "<" is literal text.
func ParseMarkup(s string) []Run {
	var runs []Run
	cur := Run{}
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			r := cur
			r.Text = text.String()
			runs = append(runs, r)
			text.Reset()
		}
	}
	for i := 0; i < len(s); {
		if s[i] == '<' {
			if n, fn, on := matchTag(s[i:]); n > 0 {
				flush()
				fn(&cur, on)
				i += n
				continue
			}
		}
		text.WriteByte(s[i])
		i++
	}
	flush()
	return runs
}

func matchTag(s string) (int, func(*Run, bool), bool) {
	for _, t := range markupTags {
		open := "<" + t.tag + ">"
		if strings.HasPrefix(s, open) {
			return len(open), t.apply, true
		}
		closing := "</" + t.tag + ">"
		if strings.HasPrefix(s, closing) {
			return len(closing), t.apply, false
		}
	}
	return 0, nil, false
}

// StripMarkup removes emphasis tags and returns the plain text.
func StripMarkup(s string) string {
	var b strings.Builder
	for _, r := range ParseMarkup(s) {
		b.WriteString(r.Text)
	}
	return b.String()
}
