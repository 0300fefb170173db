/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestExportJSON_ConformsAndRoundTrips(t *testing.T) {
	doc := sampleDoc()
	var buf bytes.Buffer
	if err := ExportJSON(doc, "night.fountain", &buf); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	if err := ValidateJSON(buf.Bytes()); err != nil {
		t.Fatalf("exported json invalid: %v", err)
	}
	got, src, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if src != "night.fountain" {
		t.Fatalf("source = %q", src)
	}
	if !reflect.DeepEqual(got.Tokens, doc.Tokens) || !reflect.DeepEqual(got.Metadata, doc.Metadata) {
		t.Fatalf("document changed through json")
	}
}

func TestExportJSON_Shape(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportJSON(sampleDoc(), "", &buf); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if raw["format_version"].(float64) != JSONFormatVersion {
		t.Fatalf("format_version = %v", raw["format_version"])
	}
	if _, ok := raw["source"]; ok {
		t.Fatalf("empty source should be omitted")
	}
	if !strings.Contains(buf.String(), `"kind": "SCENE"`) {
		t.Fatalf("kinds should be exported by name:\n%s", buf.String())
	}
}

func TestValidateJSON_Rejects(t *testing.T) {
	bad := []string{
		`{"tokens": [], "metadata": []}`,
		`{"format_version": 1, "tokens": [{"line": 1, "kind": "MONTAGE", "text": ""}], "metadata": []}`,
		`{"format_version": 1, "tokens": [], "metadata": [{"label": "DIALOG", "text": "x"}]}`,
		`{"format_version": 1, "tokens": [{"line": 0, "kind": "ACTION", "text": ""}], "metadata": []}`,
	}
	for _, b := range bad {
		if err := ValidateJSON([]byte(b)); !errors.Is(err, ErrSchema) {
			t.Fatalf("ValidateJSON(%s) = %v, want ErrSchema", b, err)
		}
	}
	if len(Schema()) == 0 {
		t.Fatalf("schema not embedded")
	}
}
