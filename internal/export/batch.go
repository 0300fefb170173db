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
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	applog "gofountain/internal/log"
	"gofountain/internal/script"
)

// Format is an output format of the convert command.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// ParseFormat accepts pdf, json, text (or txt).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pdf":
		return FormatPDF, nil
	case "json":
		return FormatJSON, nil
	case "text", "txt":
		return FormatText, nil
	}
	return "", fmt.Errorf("unknown format: %s", s)
}

// Extension returns the file extension for the format, including the dot.
func (f Format) Extension() string {
	if f == FormatText {
		return ".txt"
	}
	return "." + string(f)
}

// OutputPath derives the output file for input. An empty outDir writes next to the input.
func OutputPath(input, outDir string, f Format) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + f.Extension()
	if outDir == "" {
		return filepath.Join(filepath.Dir(input), base)
	}
	return filepath.Join(outDir, base)
}

// Options bundles the renderer settings used by Convert and ConvertAll.
type Options struct {
	Format   Format
	PDF      PDFOptions
	Text     TextOptions
	Encoding string // input encoding, UTF-8 when empty
	Classify []script.Option
}

// Write renders doc in the selected format.
func Write(doc script.Document, source string, w io.Writer, opt Options) error {
	switch opt.Format {
	case FormatPDF, "":
		return ExportPDF(doc, w, opt.PDF)
	case FormatJSON:
		return ExportJSON(doc, source, w)
	case FormatText:
		return ExportText(doc, w, opt.Text)
	}
	return fmt.Errorf("unknown format: %s", opt.Format)
}

// LoadFile reads the screenplay at path and returns it with the raw file
// content. A .json file is read back as an exported document, anything
// else is decoded from enc (see Decode) and classified.
func LoadFile(path, enc string, opts ...script.Option) (script.Document, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return script.Document{}, nil, fmt.Errorf("open input: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		doc, _, err := ReadJSON(bytes.NewReader(data))
		if err != nil {
			return script.Document{}, nil, fmt.Errorf("read %s: %w", path, err)
		}
		return doc, data, nil
	}
	text, err := Decode(data, enc)
	if err != nil {
		return script.Document{}, nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := script.ClassifyReader(bytes.NewReader(text), opts...)
	if err != nil {
		return script.Document{}, nil, fmt.Errorf("classify %s: %w", path, err)
	}
	return doc, data, nil
}

// Job is one file conversion.
type Job struct {
	Input  string
	Output string
}

// Result holds the outcome of a single conversion.
type Result struct {
	Job
	Tokens   int
	Err      error
	Duration time.Duration
}

// ConvertFile classifies one screenplay and writes it in the selected format.
func ConvertFile(ctx context.Context, job Job, opt Options) (res Result) {
	start := time.Now()
	res = Result{Job: job}
	defer func() { res.Duration = time.Since(start) }()
	l := applog.WithOperation(applog.WithComponent("export"), "convert")

	doc, _, err := LoadFile(job.Input, opt.Encoding, opt.Classify...)
	if err != nil {
		res.Err = err
		return res
	}
	res.Tokens = len(doc.Tokens)
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	if err := os.MkdirAll(filepath.Dir(job.Output), 0o755); err != nil {
		res.Err = fmt.Errorf("ensure out dir: %w", err)
		return res
	}
	tmp := job.Output + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		res.Err = fmt.Errorf("create output: %w", err)
		return res
	}
	if err := Write(doc, job.Input, out, opt); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		res.Err = err
		return res
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		res.Err = fmt.Errorf("close output: %w", err)
		return res
	}
	if err := os.Rename(tmp, job.Output); err != nil {
		res.Err = fmt.Errorf("finalize output: %w", err)
		return res
	}
	l.DebugContext(applog.WithDocument(ctx, job.Input), "converted", slog.String("out", job.Output), slog.Int("tokens", res.Tokens))
	return res
}

// ResolveWorkers returns the worker count: an explicit value, else half of
// GOMAXPROCS clamped to [1, 8].
func ResolveWorkers(n int) int {
	if n > 0 {
		return n
	}
	n = runtime.GOMAXPROCS(0) / 2
	return min(max(n, 1), 8)
}

// ConvertAll converts jobs concurrently with at most workers in flight.
// A failing file does not stop the others; results keep the order of jobs.
func ConvertAll(ctx context.Context, jobs []Job, workers int, opt Options) []Result {
	results := make([]Result, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ResolveWorkers(workers))
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = Result{Job: job, Err: err}
				return nil
			}
			results[i] = ConvertFile(gctx, job, opt)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
