/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import "strings"

// titlePagePrefix must open line 0 exactly for a title page to be recognized.
const titlePagePrefix = "Title:"

var titleLabels = map[string]Kind{
	"Title":      KindTitle,
	"Author":     KindAuthor,
	"Credit":     KindCredit,
	"Source":     KindSource,
	"Draft date": KindDraftDate,
	"Contact":    KindContact,
}

// opensTitlePage reports whether the first line of a document starts a title page.
func opensTitlePage(first string) bool { return strings.HasPrefix(first, titlePagePrefix) }

// reduceTitlePage turns the buffered lines of a title page into metadata entries.
// An entry is emitted when a line with a different label follows it; the last
// label is only emitted when flushFinal is set.
func reduceTitlePage(buf []string, flushFinal bool) []MetadataEntry {
	var (
		out    []MetadataEntry
		acc    []string
		active Kind
		have   bool
	)
	flush := func() {
		out = append(out, MetadataEntry{Label: active, Text: joinTrimmed(acc)})
		acc = nil
	}
	for _, line := range buf {
		if name, rest, ok := strings.Cut(line, ":"); ok {
			if label, known := titleLabels[name]; known {
				if have && label != active {
					flush()
				}
				active, have = label, true
				acc = append(acc, rest)
				continue
			}
		}
		if have {
			acc = append(acc, line)
		}
	}
	if flushFinal && have {
		flush()
	}
	return out
}

func joinTrimmed(lines []string) string {
	kept := make([]string, 0, len(lines))
	for _, l := range lines {
		if t := strings.TrimSpace(l); t != "" {
			kept = append(kept, t)
		}
	}
	return strings.Join(kept, "\n")
}
