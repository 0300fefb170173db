/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

// Measurement and line breaking for screenplay elements. Screenplays are
// set in a fixed-pitch face, so widths are usually expressed in columns.

import (
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// CharsPerInch is the pitch of 12pt Courier.
const CharsPerInch = 10

// FontSpec describes a requested font.
type FontSpec struct {
	Family string
	SizePt float32
	Bold   bool
	Italic bool
}

// Metrics provides font metrics in pixels for the resolved face.
type Metrics struct {
	Ascent, Descent, LineGap float32
}

// Provider maps FontSpec to a concrete font.Face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// BasicProvider uses x/image/basicfont Face7x13, a fixed-pitch face.
type BasicProvider struct{}

func (BasicProvider) Resolve(FontSpec) (font.Face, Metrics) {
	f := basicfont.Face7x13
	m := f.Metrics()
	return f, Metrics{
		Ascent:  float32(m.Ascent.Round()),
		Descent: float32(m.Descent.Round()),
		LineGap: float32(m.Height.Round() - m.Ascent.Round() - m.Descent.Round()),
	}
}

// Columns returns how many characters of 12pt Courier fit in width inches.
func Columns(widthIn float64) int {
	n := int(widthIn*CharsPerInch + 1e-9)
	if n < 1 {
		return 1
	}
	return n
}

// WordWrapLayouter breaks text on spaces so that no line exceeds a width.
// Words longer than a line are split. It does not hyphenate.
type WordWrapLayouter struct {
	Provider Provider
	Font     FontSpec
}

func NewWordWrap(provider Provider) *WordWrapLayouter { return &WordWrapLayouter{Provider: provider} }

// WrapColumns wraps text to at most cols characters of the face's widest glyph "M".
func (l *WordWrapLayouter) WrapColumns(text string, cols int) []string {
	d := l.drawer()
	return l.wrap(d, text, advance(d, "M")*float32(cols))
}

// Wrap wraps text to maxWidth pixels. A maxWidth <= 0 disables wrapping.
func (l *WordWrapLayouter) Wrap(text string, maxWidth float32) []string {
	return l.wrap(l.drawer(), text, maxWidth)
}

func (l *WordWrapLayouter) drawer() *font.Drawer {
	if l.Provider == nil {
		l.Provider = BasicProvider{}
	}
	face, _ := l.Provider.Resolve(l.Font)
	return &font.Drawer{Face: face}
}

func (l *WordWrapLayouter) wrap(d *font.Drawer, text string, maxWidth float32) []string {
	var out []string
	for _, para := range strings.Split(text, "\n") {
		out = append(out, wrapParagraph(d, para, maxWidth)...)
	}
	return out
}

func wrapParagraph(d *font.Drawer, text string, maxWidth float32) []string {
	words := strings.Fields(text)
	if len(words) == 0 || maxWidth <= 0 {
		return []string{strings.TrimSpace(text)}
	}
	space := advance(d, " ")
	var lines []string
	var cur strings.Builder
	var curW float32
	flush := func() {
		lines = append(lines, cur.String())
		cur.Reset()
		curW = 0
	}
	for _, w := range words {
		ww := advance(d, w)
		if cur.Len() > 0 && curW+space+ww > maxWidth {
			flush()
		}
		// split words that cannot fit on an empty line
		for cur.Len() == 0 && ww > maxWidth {
			head, rest := splitToWidth(d, w, maxWidth)
			lines = append(lines, head)
			w, ww = rest, advance(d, rest)
		}
		if w == "" {
			continue
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
			curW += space
		}
		cur.WriteString(w)
		curW += ww
	}
	if cur.Len() > 0 {
		flush()
	}
	return lines
}

func splitToWidth(d *font.Drawer, w string, maxWidth float32) (string, string) {
	var width float32
	for i, r := range w {
		rw := advance(d, string(r))
		if width+rw > maxWidth && i > 0 {
			return w[:i], w[i:]
		}
		width += rw
	}
	return w, ""
}

func advance(d *font.Drawer, s string) float32 {
	return float32(d.MeasureString(s) >> 6) // fixed.Int26_6 to px
}

// Measure returns the width and line height of text without line breaks.
func Measure(provider Provider, spec FontSpec, text string) (w, h float32) {
	if provider == nil {
		provider = BasicProvider{}
	}
	face, met := provider.Resolve(spec)
	return advance(&font.Drawer{Face: face}, text), met.Ascent + met.Descent
}
