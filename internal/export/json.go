/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"gofountain/internal/script"
)

// JSONFormatVersion is bumped when the exported structure changes incompatibly.
const JSONFormatVersion = 1

//go:embed schema/document.schema.json
var documentSchema []byte

// ErrSchema is returned when a JSON document does not conform to the export schema.
var ErrSchema = errors.New("document does not conform to schema")

type jsonDocument struct {
	FormatVersion int            `json:"format_version"`
	Source        string         `json:"source,omitempty"`
	Tokens        []jsonToken    `json:"tokens"`
	Metadata      []jsonMetadata `json:"metadata"`
}

type jsonToken struct {
	Line int    `json:"line"`
	Kind string `json:"kind"`
	Text string `json:"text"`
	Dual bool   `json:"dual,omitempty"`
}

type jsonMetadata struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Schema returns the JSON schema of the export format.
func Schema() []byte { return append([]byte(nil), documentSchema...) }

// ExportJSON writes doc as indented JSON. The output is validated against the
// embedded schema before anything is written.
func ExportJSON(doc script.Document, source string, w io.Writer) error {
	out := jsonDocument{
		FormatVersion: JSONFormatVersion,
		Source:        source,
		Tokens:        make([]jsonToken, 0, len(doc.Tokens)),
		Metadata:      make([]jsonMetadata, 0, len(doc.Metadata)),
	}
	for _, t := range doc.Tokens {
		out.Tokens = append(out.Tokens, jsonToken{Line: t.Line, Kind: t.Kind.String(), Text: t.Text, Dual: t.Dual})
	}
	for _, m := range doc.Metadata {
		out.Metadata = append(out.Metadata, jsonMetadata{Label: m.Label.String(), Text: m.Text})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	if err := ValidateJSON(data); err != nil {
		return err
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// ValidateJSON checks data against the export schema.
func ValidateJSON(data []byte) error {
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(documentSchema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("schema validate: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrSchema, strings.Join(msgs, "; "))
	}
	return nil
}

// ReadJSON decodes a document previously written by ExportJSON.
// It returns the document and its recorded source.
func ReadJSON(r io.Reader) (script.Document, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return script.Document{}, "", fmt.Errorf("read json: %w", err)
	}
	if err := ValidateJSON(data); err != nil {
		return script.Document{}, "", err
	}
	var in jsonDocument
	if err := json.Unmarshal(data, &in); err != nil {
		return script.Document{}, "", fmt.Errorf("decode json: %w", err)
	}
	doc := script.Document{Tokens: make([]script.Token, 0, len(in.Tokens))}
	for _, t := range in.Tokens {
		k, ok := script.ParseKind(t.Kind)
		if !ok {
			return script.Document{}, "", fmt.Errorf("%w: unknown kind %q", ErrSchema, t.Kind)
		}
		doc.Tokens = append(doc.Tokens, script.Token{Line: t.Line, Kind: k, Text: t.Text, Dual: t.Dual})
	}
	for _, m := range in.Metadata {
		k, ok := script.ParseKind(m.Label)
		if !ok {
			return script.Document{}, "", fmt.Errorf("%w: unknown label %q", ErrSchema, m.Label)
		}
		doc.Metadata = append(doc.Metadata, script.MetadataEntry{Label: k, Text: m.Text})
	}
	return doc, in.Source, nil
}
