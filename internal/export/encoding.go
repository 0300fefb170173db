/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrUnknownEncoding is returned for an input encoding name that is not supported.
var ErrUnknownEncoding = errors.New("unknown input encoding")

var legacyEncodings = map[string]encoding.Encoding{
	"latin1":       charmap.ISO8859_1,
	"iso-8859-1":   charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"macroman":     charmap.Macintosh,
}

// Encodings lists the accepted input encoding names.
func Encodings() []string {
	names := []string{"utf-8", "utf-16"}
	for n := range legacyEncodings {
		names = append(names, n)
	}
	return names
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	case "utf-16", "utf16":
		return unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), nil
	default:
		if e, ok := legacyEncodings[n]; ok {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownEncoding, name)
}

// Decode converts data in the named encoding to UTF-8. A byte order mark
// always wins over the name and is removed, so "Title:" on the first line
// of a BOM-prefixed file still starts the title page.
func Decode(data []byte, name string) ([]byte, error) {
	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(enc.NewDecoder()), data)
	if err != nil {
		return nil, fmt.Errorf("decode %s input: %w", name, err)
	}
	return out, nil
}
