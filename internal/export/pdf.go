/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"gofountain/internal/script"
	"gofountain/internal/textlayout"
)

// PDFOptions controls PDF export behavior. Lengths are inches.
//
// Page geometry follows the usual screenplay layout: 1.5in left margin for
// binding, 1in on the other sides. Element indents come from Styles.
type PDFOptions struct {
	PageSize    string             // "letter" (default) or "a4"
	Fonts       textlayout.FontSet // embedded when at least the regular face is present
	FontSize    float64            // points, default 12
	TitlePage   bool
	PageNumbers bool
	Styles      *textlayout.StyleSheet
	Title       string // document info, defaults to the TITLE metadata
}

const (
	marginLeft   = 1.5
	marginOther  = 1.0
	pageNumX     = 7.5
	pageNumY     = 0.5
	coreFontName = "Courier"
)

var pageSizes = map[string]string{"": "Letter", "letter": "Letter", "a4": "A4"}

type pdfWriter struct {
	pdf    *gofpdf.Fpdf
	opt    PDFOptions
	family string
	size   float64
	lineH  float64
	tr     func(string) string
	styles *textlayout.StyleSheet
}

// ExportPDFFile renders doc into a PDF file at outPath, creating its directory.
func ExportPDFFile(doc script.Document, outPath string, opt PDFOptions) error {
	if dir := filepath.Dir(outPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure out dir: %w", err)
		}
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create pdf: %w", err)
	}
	if err := ExportPDF(doc, f, opt); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ExportPDF renders doc as a formatted screenplay PDF.
func ExportPDF(doc script.Document, w io.Writer, opt PDFOptions) error {
	size, ok := pageSizes[strings.ToLower(strings.TrimSpace(opt.PageSize))]
	if !ok {
		return fmt.Errorf("unsupported page size %q", opt.PageSize)
	}
	pw := &pdfWriter{opt: opt, styles: opt.Styles, size: opt.FontSize}
	if pw.size <= 0 {
		pw.size = 12
	}
	pw.lineH = pw.size / 72
	if pw.styles == nil {
		pw.styles = textlayout.NewStyleSheet()
	}
	pw.pdf = gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "in", SizeStr: size, OrientationStr: "P"})
	pw.pdf.SetMargins(marginLeft, marginOther, marginOther)
	pw.pdf.SetAutoPageBreak(true, marginOther)
	pw.setupFonts()

	title := opt.Title
	if title == "" {
		title, _ = doc.Meta(script.KindTitle)
	}
	if title != "" {
		pw.pdf.SetTitle(firstLine(title), true)
	}
	if author, ok := doc.Meta(script.KindAuthor); ok {
		pw.pdf.SetAuthor(firstLine(author), true)
	}
	pw.pdf.SetCreator("gofountain", false)

	bodyStart := 1
	if opt.TitlePage && len(doc.Metadata) > 0 {
		pw.titlePage(doc)
		bodyStart = 2
	}
	if opt.PageNumbers {
		pw.pdf.SetHeaderFunc(func() {
			n := pw.pdf.PageNo() - bodyStart + 1
			if n < 2 {
				return
			}
			pw.pdf.SetFont(pw.family, "", pw.size)
			pw.pdf.Text(pageNumX, pageNumY, fmt.Sprintf("%d.", n))
		})
	}
	pw.pdf.AddPage()
	for _, tok := range doc.Tokens {
		pw.element(tok)
	}
	if err := pw.pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// setupFonts embeds the discovered family or falls back to the core Courier font.
func (pw *pdfWriter) setupFonts() {
	fs := pw.opt.Fonts
	if fs.Paths[textlayout.Regular] == "" {
		pw.family = coreFontName
		pw.tr = pw.pdf.UnicodeTranslatorFromDescriptor("")
		return
	}
	pw.family = fs.Family
	pw.tr = func(s string) string { return s }
	for _, v := range []struct {
		variant textlayout.Variant
		style   string
	}{{textlayout.Regular, ""}, {textlayout.Bold, "B"}, {textlayout.Italic, "I"}, {textlayout.BoldItalic, "BI"}} {
		pw.pdf.AddUTF8Font(fs.Family, v.style, fs.Path(v.variant))
	}
}

func (pw *pdfWriter) element(tok script.Token) {
	pdf := pw.pdf
	if tok.Kind == script.KindBlank {
		pdf.Ln(pw.lineH)
		return
	}
	st, _ := pw.styles.Resolve(tok.Kind)
	if st.Hidden || !tok.Kind.Printable() {
		return
	}
	pageW, _ := pdf.GetPageSize()
	left := marginLeft + st.LeftIndent
	right := marginOther + st.RightIndent
	pdf.SetLeftMargin(left)
	pdf.SetRightMargin(right)
	defer func() {
		pdf.SetLeftMargin(marginLeft)
		pdf.SetRightMargin(marginOther)
	}()
	pdf.SetX(left)

	runs := ParseMarkup(tok.Text)
	if st.Uppercase {
		for i := range runs {
			runs[i].Text = strings.ToUpper(runs[i].Text)
		}
	}
	if st.Align != textlayout.AlignLeft {
		// aligned paragraphs are set as one cell in the element's base style
		align := "C"
		if st.Align == textlayout.AlignRight {
			align = "R"
		}
		pdf.SetFont(pw.family, baseStyle(st), pw.size)
		pdf.MultiCell(pageW-left-right, pw.lineH, pw.tr(joinRuns(runs)), "", align, false)
		return
	}
	if len(runs) == 0 {
		pdf.Ln(pw.lineH)
		return
	}
	for _, r := range runs {
		style := r.Style()
		if st.Italic && !r.Italic {
			style += "I"
		}
		pdf.SetFont(pw.family, style, pw.size)
		pdf.Write(pw.lineH, pw.tr(r.Text))
	}
	pdf.Ln(pw.lineH)
}

func (pw *pdfWriter) titlePage(doc script.Document) {
	pdf := pw.pdf
	pdf.AddPage()
	pdf.SetAutoPageBreak(false, 0)
	defer pdf.SetAutoPageBreak(true, marginOther)
	pageW, pageH := pdf.GetPageSize()
	width := pageW - marginLeft - marginOther
	pdf.SetFont(pw.family, "", pw.size)

	pdf.SetY(pageH / 3)
	for _, label := range []script.Kind{script.KindTitle, script.KindCredit, script.KindAuthor, script.KindSource} {
		text, ok := doc.Meta(label)
		if !ok {
			continue
		}
		if label == script.KindTitle {
			text = strings.ToUpper(text)
		}
		pdf.SetX(marginLeft)
		pdf.MultiCell(width, pw.lineH, pw.tr(text), "", "C", false)
		pdf.Ln(pw.lineH)
	}

	var bottom []string
	for _, label := range []script.Kind{script.KindDraftDate, script.KindContact} {
		if text, ok := doc.Meta(label); ok {
			bottom = append(bottom, text)
		}
	}
	if len(bottom) == 0 {
		return
	}
	block := strings.Join(bottom, "\n\n")
	lines := strings.Count(block, "\n") + 1
	pdf.SetY(pageH - marginOther - float64(lines)*pw.lineH)
	pdf.SetX(marginLeft)
	pdf.MultiCell(width/2, pw.lineH, pw.tr(block), "", "L", false)
}

func baseStyle(st textlayout.ElementStyle) string {
	if st.Italic {
		return "I"
	}
	return ""
}

func joinRuns(runs []Run) string {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

func firstLine(s string) string {
	first, _, _ := strings.Cut(s, "\n")
	return first
}
