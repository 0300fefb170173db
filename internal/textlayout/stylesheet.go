/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"fmt"
	"strings"

	"gofountain/internal/config"
	"gofountain/internal/script"
)

// StyleSheet resolves ElementStyle per kind with two scopes:
//   - Global: user configuration
//   - Document: overrides for a single screenplay
//
// Resolution precedence is Document > Global > Builtin.
type StyleSheet struct {
	Global   map[script.Kind]ElementStyle
	Document map[script.Kind]ElementStyle
}

// NewStyleSheet creates a stylesheet seeded with the builtin styles.
func NewStyleSheet() *StyleSheet {
	ss := &StyleSheet{
		Global:   map[script.Kind]ElementStyle{},
		Document: map[script.Kind]ElementStyle{},
	}
	for _, k := range ListStyles() {
		if st, ok := GetStyle(k); ok {
			ss.Global[k] = st
		}
	}
	return ss
}

// WithDocument returns a copy with the provided document-level overrides merged.
func (s *StyleSheet) WithDocument(over map[script.Kind]ElementStyle) *StyleSheet {
	cp := s.clone()
	for k, v := range over {
		v.Kind = k
		cp.Document[k] = v
	}
	return cp
}

// WithConfig returns a copy with configured overrides applied to the global scope.
// Keys are kind names (DIALOG, CHARACTER, ...); fields left unset keep their value.
func (s *StyleSheet) WithConfig(over map[string]config.StyleOverride) (*StyleSheet, error) {
	cp := s.clone()
	for name, o := range over {
		k, ok := script.ParseKind(strings.ToUpper(strings.TrimSpace(name)))
		if !ok {
			return nil, fmt.Errorf("style override: unknown element %q", name)
		}
		st, _ := cp.Resolve(k)
		st.Kind = k
		if o.LeftIndent != nil {
			st.LeftIndent = *o.LeftIndent
		}
		if o.RightIndent != nil {
			st.RightIndent = *o.RightIndent
		}
		if o.Align != "" {
			a, ok := ParseAlign(o.Align)
			if !ok {
				return nil, fmt.Errorf("style override %s: bad align %q", name, o.Align)
			}
			st.Align = a
		}
		if o.Uppercase != nil {
			st.Uppercase = *o.Uppercase
		}
		if st.LeftIndent < 0 || st.RightIndent < 0 {
			return nil, fmt.Errorf("style override %s: negative indent", name)
		}
		cp.Global[k] = st
	}
	return cp, nil
}

// Resolve returns the effective style of a kind. Unknown kinds fall back to ACTION
// and report false.
func (s *StyleSheet) Resolve(k script.Kind) (ElementStyle, bool) {
	if s != nil {
		if st, ok := s.Document[k]; ok {
			return st, true
		}
		if st, ok := s.Global[k]; ok {
			return st, true
		}
	}
	if st, ok := GetStyle(k); ok {
		return st, true
	}
	st, _ := GetStyle(script.KindAction)
	st.Kind = k
	return st, false
}

func (s *StyleSheet) clone() *StyleSheet {
	cp := &StyleSheet{Global: map[script.Kind]ElementStyle{}, Document: map[script.Kind]ElementStyle{}}
	if s == nil {
		return cp
	}
	for k, v := range s.Global {
		cp.Global[k] = v
	}
	for k, v := range s.Document {
		cp.Document[k] = v
	}
	return cp
}
