/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ReadLines splits r into lines, removing "\n" and "\r\n" terminators only.
// Leading and trailing whitespace is preserved. A final terminator does not
// produce an extra empty line.
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string
	err := eachLine(r, func(l string) { lines = append(lines, l) })
	return lines, err
}

// ClassifyReader streams r through a Classifier without materializing the document.
func ClassifyReader(r io.Reader, opts ...Option) (Document, error) {
	var doc Document
	c := NewClassifier(func(t Token) { doc.Tokens = append(doc.Tokens, t) }, opts...)
	if err := eachLine(r, c.Push); err != nil {
		return Document{}, err
	}
	doc.Metadata = c.Close()
	return doc, nil
}

func eachLine(r io.Reader, fn func(string)) error {
	br := bufio.NewReader(r)
	lineNo := 0
	for {
		s, err := br.ReadString('\n')
		if s != "" {
			lineNo++
			s = strings.TrimSuffix(s, "\n")
			s = strings.TrimSuffix(s, "\r")
			fn(s)
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read line %d: %w", lineNo+1, err)
		}
	}
}
