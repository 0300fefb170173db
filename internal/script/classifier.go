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
	"unicode/utf8"
)

// Option tweaks classification behavior.
type Option func(*options)

type options struct {
	dualDialogue    bool
	flushFinalLabel bool
}

// WithDualDialogue marks character cues ending in "^" as dual dialogue and
// strips the caret from their text.
func WithDualDialogue(on bool) Option { return func(o *options) { o.dualDialogue = on } }

// WithFlushFinalLabel also emits the last label of a title page, which is
// dropped by default.
func WithFlushFinalLabel(on bool) Option { return func(o *options) { o.flushFinalLabel = on } }

func buildOptions(opts []Option) options {
	var o options
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// Classify classifies a whole document. Lines must have their terminators removed.
// Every line outside the title page yields exactly one token, in source order.
func Classify(lines []string, opts ...Option) Document {
	doc := Document{Tokens: make([]Token, 0, len(lines))}
	c := NewClassifier(func(t Token) { doc.Tokens = append(doc.Tokens, t) }, opts...)
	for _, l := range lines {
		c.Push(l)
	}
	doc.Metadata = c.Close()
	return doc
}

// ClassifyLine performs one step of the fold for a line outside the title page.
// It returns the token and the state to carry into the next line.
func ClassifyLine(st State, w Window) (Token, State) {
	return classifyLine(st, w, options{})
}

func classifyLine(st State, w Window, o options) (Token, State) {
	line := w.Line
	kind, forced := forcedKind(line)
	if forced {
		// One character is stripped for every forced marker, NOTE included.
		_, size := utf8.DecodeRuneInString(line)
		line = line[size:]
	}
	trimmed := strings.TrimSpace(line)
	if !forced {
		// Only a zero-length line is blank; whitespace-only lines fall through.
		if w.Line == "" {
			st.DialogActive = false
			return Token{Kind: KindBlank}, st
		}
		kind = contextualKind(st, trimmed, strings.TrimSpace(w.Prev), strings.TrimSpace(w.Next))
	}

	text := trimmed
	if kind == KindAction {
		text = line
		if isCentered(line) {
			kind = KindCentered
			text = strings.TrimSpace(line[1 : len(line)-1])
		}
	}

	tok := Token{Kind: kind}
	if kind == KindCharacter {
		if o.dualDialogue && strings.HasSuffix(text, "^") {
			tok.Dual = true
			text = strings.TrimSpace(strings.TrimSuffix(text, "^"))
		}
		st.DialogActive = true
	}
	if kind.Printable() {
		text = Translate(text)
	}
	tok.Text = text
	return tok, st
}

// Classifier is the streaming form of Classify. It keeps a rolling window of
// previous, current and next line, so the token for a line is emitted once
// the following line has been pushed (or on Close).
type Classifier struct {
	opts    options
	emit    func(Token)
	state   State
	meta    []MetadataEntry
	prev    string
	cur     string
	idx     int
	pending bool
	closed  bool
}

// NewClassifier returns a classifier delivering tokens to emit.
func NewClassifier(emit func(Token), opts ...Option) *Classifier {
	if emit == nil {
		emit = func(Token) {}
	}
	return &Classifier{opts: buildOptions(opts), emit: emit}
}

// State returns the carried state after the lines emitted so far.
func (c *Classifier) State() State { return c.state }

// Push feeds the next line of the document.
func (c *Classifier) Push(line string) {
	if c.closed {
		return
	}
	if !c.pending {
		c.cur = line
		c.pending = true
		return
	}
	c.step(line)
	c.prev, c.cur = c.cur, line
	c.idx++
}

// Close classifies the last pending line and returns the title-page metadata.
// A title page still open at the end of input is reduced here.
func (c *Classifier) Close() []MetadataEntry {
	if c.closed {
		return c.meta
	}
	if c.pending {
		c.step("")
		c.pending = false
	}
	if c.state.MetadataActive {
		c.closeTitlePage()
	}
	c.closed = true
	return c.meta
}

func (c *Classifier) step(next string) {
	if c.idx == 0 && opensTitlePage(c.cur) {
		c.state.MetadataActive = true
	}
	if c.state.MetadataActive {
		if c.cur != "" {
			c.state.MetadataBuffer = append(c.state.MetadataBuffer, c.cur)
			return
		}
		// The blank line closing the title page is consumed with it.
		c.closeTitlePage()
		return
	}
	tok, st := classifyLine(c.state, Window{Prev: c.prev, Line: c.cur, Next: next}, c.opts)
	tok.Line = c.idx + 1
	c.state = st
	c.emit(tok)
}

func (c *Classifier) closeTitlePage() {
	c.meta = append(c.meta, reduceTitlePage(c.state.MetadataBuffer, c.opts.flushFinalLabel)...)
	c.state.MetadataActive = false
	c.state.MetadataBuffer = nil
}
