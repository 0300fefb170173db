/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package script classifies the lines of a Fountain-style screenplay into
// typed elements (scene heading, character cue, dialog, action, ...).
// It also extracts the title-page metadata block and translates inline
// emphasis markers into <b>/<i>/<u> markup for the renderers.
package script

// Kind indicates the element kind of a classified line.
type Kind int

const (
	KindBlank Kind = iota
	KindScene
	KindCharacter
	KindTransition
	KindSection
	KindParenthetical
	KindDialog
	KindAction
	KindCentered
	KindLyric
	KindNote
	KindSynopse

	// Title-page kinds, only used as MetadataEntry labels.
	KindTitle
	KindAuthor
	KindCredit
	KindSource
	KindDraftDate
	KindContact
)

var kindNames = [...]string{
	KindBlank:         "BLANK",
	KindScene:         "SCENE",
	KindCharacter:     "CHARACTER",
	KindTransition:    "TRANSITION",
	KindSection:       "SECTION",
	KindParenthetical: "PARENTHETICAL",
	KindDialog:        "DIALOG",
	KindAction:        "ACTION",
	KindCentered:      "CENTERED",
	KindLyric:         "LYRIC",
	KindNote:          "NOTE",
	KindSynopse:       "SYNOPSE",
	KindTitle:         "TITLE",
	KindAuthor:        "AUTHOR",
	KindCredit:        "CREDIT",
	KindSource:        "SOURCE",
	KindDraftDate:     "DRAFT_DATE",
	KindContact:       "CONTACT",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "UNKNOWN"
	}
	return kindNames[k]
}

// ParseKind maps a kind name as returned by String back to its Kind.
func ParseKind(name string) (Kind, bool) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), true
		}
	}
	return KindBlank, false
}

// Printable reports whether renderers produce visible output for the kind.
// Sections, synopses and notes are emitted by the classifier but never printed.
func (k Kind) Printable() bool {
	switch k {
	case KindSection, KindSynopse, KindNote:
		return false
	}
	return !k.IsTitlePage()
}

// IsTitlePage reports whether k is one of the title-page metadata labels.
func (k Kind) IsTitlePage() bool { return k >= KindTitle && k <= KindContact }

// Token is one classified physical line.
// Line is the 1-based line number in the source.
// Dual is only set for character cues when dual dialogue is enabled.
type Token struct {
	Text string
	Kind Kind
	Line int
	Dual bool
}

// MetadataEntry is one reduced title-page field. Text holds the trimmed,
// newline-joined lines contributed to the label.
type MetadataEntry struct {
	Label Kind
	Text  string
}

// State is the carried state of one classification run.
// It is threaded through every step and never shared across documents.
type State struct {
	DialogActive   bool
	MetadataActive bool
	MetadataBuffer []string
}

// Window is the one-line lookback/lookahead context of the line being classified.
type Window struct {
	Prev string
	Line string
	Next string
}

// Document is the result of classifying a whole screenplay.
type Document struct {
	Tokens   []Token
	Metadata []MetadataEntry
}

// Meta returns the text of the first metadata entry with the given label.
func (d Document) Meta(label Kind) (string, bool) {
	for _, m := range d.Metadata {
		if m.Label == label {
			return m.Text, true
		}
	}
	return "", false
}
