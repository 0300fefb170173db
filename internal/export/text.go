/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"gofountain/internal/script"
	"gofountain/internal/textlayout"
)

// TextOptions controls plain-text export.
type TextOptions struct {
	PageSize  string // selects the body width like the PDF export
	TitlePage bool
	Styles    *textlayout.StyleSheet
	Provider  textlayout.Provider // fixed-pitch face used for measuring, basicfont when nil
	Font      textlayout.FontSpec // face requested from Provider
}

var bodyWidths = map[string]float64{"": 6.0, "letter": 6.0, "a4": 8.27 - marginLeft - marginOther}

// ExportText writes doc as a fixed-pitch plain-text screenplay with element
// indents expressed in columns. Emphasis markup is removed.
func ExportText(doc script.Document, w io.Writer, opt TextOptions) error {
	body, ok := bodyWidths[strings.ToLower(strings.TrimSpace(opt.PageSize))]
	if !ok {
		return fmt.Errorf("unsupported page size %q", opt.PageSize)
	}
	styles := opt.Styles
	if styles == nil {
		styles = textlayout.NewStyleSheet()
	}
	wrap := textlayout.NewWordWrap(opt.Provider)
	wrap.Font = opt.Font
	cols := textlayout.Columns(body)
	bw := bufio.NewWriter(w)

	if opt.TitlePage && len(doc.Metadata) > 0 {
		for _, m := range doc.Metadata {
			for _, ln := range strings.Split(m.Text, "\n") {
				fmt.Fprintln(bw, center(ln, cols))
			}
			fmt.Fprintln(bw)
		}
		fmt.Fprint(bw, "\f")
	}

	for _, tok := range doc.Tokens {
		if tok.Kind == script.KindBlank {
			fmt.Fprintln(bw)
			continue
		}
		st, _ := styles.Resolve(tok.Kind)
		if st.Hidden || !tok.Kind.Printable() {
			continue
		}
		text := StripMarkup(tok.Text)
		if st.Uppercase {
			text = strings.ToUpper(text)
		}
		indent := int(st.LeftIndent*textlayout.CharsPerInch + 1e-9)
		width := textlayout.Columns(body - st.LeftIndent - st.RightIndent)
		for _, ln := range wrap.WrapColumns(text, width) {
			switch st.Align {
			case textlayout.AlignCenter:
				ln = center(ln, width)
			case textlayout.AlignRight:
				ln = strings.Repeat(" ", max(0, width-len([]rune(ln)))) + ln
			}
			fmt.Fprintln(bw, strings.TrimRight(strings.Repeat(" ", indent)+ln, " "))
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write text: %w", err)
	}
	return nil
}

func center(s string, width int) string {
	pad := (width - len([]rune(s))) / 2
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}
