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

	"gofountain/internal/script"
)

// Align is the horizontal alignment of an element inside its indented column.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

func (a Align) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return "left"
	}
}

// ParseAlign accepts "left", "center"/"centre" and "right".
func ParseAlign(s string) (Align, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "":
		return AlignLeft, true
	case "center", "centre":
		return AlignCenter, true
	case "right":
		return AlignRight, true
	}
	return AlignLeft, false
}

// ElementStyle is the page layout of one element kind.
// Indents are in inches, measured from the page margins.
type ElementStyle struct {
	Kind        script.Kind
	LeftIndent  float64
	RightIndent float64
	Align       Align
	Uppercase   bool
	Italic      bool
	Hidden      bool // element takes no space on the page
}

// Industry layout for 12pt Courier on a Letter page with a 1.5in left margin.
var builtinStyles = map[script.Kind]ElementStyle{
	script.KindBlank:         {Kind: script.KindBlank},
	script.KindScene:         {Kind: script.KindScene, Uppercase: true},
	script.KindAction:        {Kind: script.KindAction},
	script.KindCharacter:     {Kind: script.KindCharacter, LeftIndent: 2.0},
	script.KindDialog:        {Kind: script.KindDialog, LeftIndent: 1.0, RightIndent: 1.5},
	script.KindParenthetical: {Kind: script.KindParenthetical, LeftIndent: 1.5, RightIndent: 2.0},
	script.KindTransition:    {Kind: script.KindTransition, LeftIndent: 4.0},
	script.KindCentered:      {Kind: script.KindCentered, Align: AlignCenter},
	script.KindLyric:         {Kind: script.KindLyric, Italic: true},
	script.KindSection:       {Kind: script.KindSection, Hidden: true},
	script.KindSynopse:       {Kind: script.KindSynopse, Hidden: true},
	script.KindNote:          {Kind: script.KindNote, Hidden: true},
}

// GetStyle returns the builtin style of a kind. The second return value is false
// for kinds without a body style (title-page labels).
func GetStyle(k script.Kind) (ElementStyle, bool) { s, ok := builtinStyles[k]; return s, ok }

// ListStyles lists the kinds with builtin styles in stable order.
func ListStyles() []script.Kind {
	return []script.Kind{
		script.KindBlank, script.KindScene, script.KindAction, script.KindCharacter,
		script.KindDialog, script.KindParenthetical, script.KindTransition,
		script.KindCentered, script.KindLyric, script.KindSection, script.KindSynopse, script.KindNote,
	}
}
