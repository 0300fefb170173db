/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// Variant selects one face of a font family.
type Variant int

const (
	Regular Variant = iota
	Bold
	Italic
	BoldItalic
)

func (v Variant) String() string {
	return [...]string{"Regular", "Bold", "Italic", "Bold Italic"}[v]
}

// ErrFamilyNotFound is returned when no face of the requested family was found.
var ErrFamilyNotFound = errors.New("font family not found")

// FontSet holds the file paths of the four faces of a family. Missing faces are "".
type FontSet struct {
	Family string
	Paths  [4]string
}

// Complete reports whether all four faces were found.
func (fs FontSet) Complete() bool {
	for _, p := range fs.Paths {
		if p == "" {
			return false
		}
	}
	return true
}

// Path returns the file of a variant, falling back to the regular face.
func (fs FontSet) Path(v Variant) string {
	if fs.Paths[v] != "" {
		return fs.Paths[v]
	}
	return fs.Paths[Regular]
}

// DefaultFontDirs returns the usual system and user font directories for the platform.
func DefaultFontDirs() []string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		dirs := []string{filepath.Join(os.Getenv("WINDIR"), "Fonts")}
		if la := os.Getenv("LOCALAPPDATA"); la != "" {
			dirs = append(dirs, filepath.Join(la, "Microsoft", "Windows", "Fonts"))
		}
		return dirs
	case "darwin":
		return []string{"/System/Library/Fonts", "/Library/Fonts", filepath.Join(home, "Library", "Fonts")}
	default:
		return []string{"/usr/share/fonts", "/usr/local/share/fonts", filepath.Join(home, ".local", "share", "fonts"), filepath.Join(home, ".fonts")}
	}
}

// DiscoverFamily walks dirs for TrueType/OpenType files of the given family.
// Faces are identified from the font's name table; when that cannot be read
// the file name "<Family> <Variant>.ttf" is used instead.
func DiscoverFamily(dirs []string, family string) (FontSet, error) {
	set := FontSet{Family: family}
	want := strings.ToLower(family)
	var buf sfnt.Buffer
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// unreadable subtrees are skipped
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			ext := strings.ToLower(filepath.Ext(path))
			if ext != ".ttf" && ext != ".otf" {
				return nil
			}
			fam, v, ok := faceFromNames(path, &buf)
			if !ok {
				fam, v, ok = faceFromFileName(path)
			}
			if ok && strings.ToLower(fam) == want && set.Paths[v] == "" {
				set.Paths[v] = path
			}
			return nil
		})
	}
	if set.Paths == [4]string{} {
		return set, fmt.Errorf("%w: %s", ErrFamilyNotFound, family)
	}
	return set, nil
}

func faceFromNames(path string, buf *sfnt.Buffer) (string, Variant, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", Regular, false
	}
	f, err := sfnt.Parse(data)
	if err != nil {
		return "", Regular, false
	}
	fam, err := f.Name(buf, sfnt.NameIDTypographicFamily)
	if err != nil || fam == "" {
		fam, err = f.Name(buf, sfnt.NameIDFamily)
	}
	if err != nil || fam == "" {
		return "", Regular, false
	}
	sub, err := f.Name(buf, sfnt.NameIDTypographicSubfamily)
	if err != nil || sub == "" {
		sub, _ = f.Name(buf, sfnt.NameIDSubfamily)
	}
	return fam, variantOf(sub), true
}

// faceFromFileName parses names like "Courier Prime Bold Italic.ttf".
func faceFromFileName(path string) (string, Variant, bool) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	base = strings.ReplaceAll(base, "-", " ")
	for _, v := range []Variant{BoldItalic, Bold, Italic, Regular} {
		suffix := " " + v.String()
		if strings.HasSuffix(strings.ToLower(base), strings.ToLower(suffix)) {
			return strings.TrimSpace(base[:len(base)-len(suffix)]), v, true
		}
	}
	return base, Regular, base != ""
}

func variantOf(sub string) Variant {
	s := strings.ToLower(sub)
	bold := strings.Contains(s, "bold")
	italic := strings.Contains(s, "italic") || strings.Contains(s, "oblique")
	switch {
	case bold && italic:
		return BoldItalic
	case bold:
		return Bold
	case italic:
		return Italic
	}
	return Regular
}

// FontLibrary stores loaded OpenType fonts mapped by family and variant.
type FontLibrary struct {
	fonts map[fontKey]*opentype.Font
}

type fontKey struct {
	family  string
	variant Variant
}

func NewFontLibrary() *FontLibrary { return &FontLibrary{fonts: make(map[fontKey]*opentype.Font)} }

// LoadTTF loads a font file into the library under the given family and variant.
func (fl *FontLibrary) LoadTTF(family string, v Variant, path string) error {
	if fl.fonts == nil {
		fl.fonts = make(map[fontKey]*opentype.Font)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s: %w", path, err)
	}
	fl.fonts[fontKey{family: family, variant: v}] = f
	return nil
}

// LoadSet loads every face present in set.
func (fl *FontLibrary) LoadSet(set FontSet) error {
	for v, p := range set.Paths {
		if p == "" {
			continue
		}
		if err := fl.LoadTTF(set.Family, Variant(v), p); err != nil {
			return err
		}
	}
	return nil
}

func (fl *FontLibrary) find(spec FontSpec) *opentype.Font {
	if fl == nil || fl.fonts == nil {
		return nil
	}
	v := Regular
	switch {
	case spec.Bold && spec.Italic:
		v = BoldItalic
	case spec.Bold:
		v = Bold
	case spec.Italic:
		v = Italic
	}
	if f, ok := fl.fonts[fontKey{family: spec.Family, variant: v}]; ok {
		return f
	}
	if f, ok := fl.fonts[fontKey{family: spec.Family, variant: Regular}]; ok {
		return f
	}
	return nil
}

// OTProvider resolves FontSpec using a FontLibrary and falls back to another Provider.
type OTProvider struct {
	Lib      *FontLibrary
	DPI      float64 // default 72 if zero
	Fallback Provider
}

func (p OTProvider) Resolve(spec FontSpec) (font.Face, Metrics) {
	if spec.SizePt <= 0 {
		spec.SizePt = 12
	}
	dpi := p.DPI
	if dpi <= 0 {
		dpi = 72
	}
	if p.Lib != nil {
		if f := p.Lib.find(spec); f != nil {
			face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: float64(spec.SizePt), DPI: dpi, Hinting: font.HintingFull})
			if err == nil {
				m := face.Metrics()
				return face, Metrics{
					Ascent:  float32(m.Ascent.Round()),
					Descent: float32(m.Descent.Round()),
					LineGap: float32(m.Height.Round() - m.Ascent.Round() - m.Descent.Round()),
				}
			}
		}
	}
	fb := p.Fallback
	if fb == nil {
		fb = BasicProvider{}
	}
	return fb.Resolve(spec)
}
