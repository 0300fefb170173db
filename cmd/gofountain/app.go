/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	flag "github.com/spf13/pflag"

	"gofountain/internal/config"
	"gofountain/internal/export"
	applog "gofountain/internal/log"
	"gofountain/internal/script"
	"gofountain/internal/version"
)

// Exit codes follow Unix conventions: 1 for failures, 2 for usage errors.
// A recovered panic exits with crash.ExitCode.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

const usageText = `gofountain - Fountain screenplay tools

Usage:
  gofountain convert [-o dir] [--format pdf|json|text] [--workers N] files...
  gofountain tokens file
  gofountain index [--db path] files...
  gofountain report [--db path] [--scenes|--characters] [file]
  gofountain search [--db path] [--kind K]... [--character NAME] [--limit N] [--backend] [query]
  gofountain publish [--dsn dsn] files...
  gofountain config path|show|init|password
  gofountain version

Common flags:
  -c, --config path   configuration file (default ~/.config/gofountain/config.yaml)
  -v, --verbose       debug logging
      --encoding name  input encoding (default utf-8)
`

// errUsage marks errors caused by bad invocation.
var errUsage = errors.New("usage")

func usageErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config   string
	verbose  bool
	encoding string
}

func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file path")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging")
	fs.StringVar(&f.encoding, "encoding", "", "input encoding: utf-8, utf-16, windows-1252, latin1, macroman")
}

// app carries the loaded configuration into a command.
type app struct {
	cfg      config.AppConfig
	password string
	cfgPath  string // explicit --config, empty for the per-user file
	in       io.Reader
	out      io.Writer
	errOut   io.Writer
	log      *slog.Logger
}

type command func(ctx context.Context, a *app, args []string) error

// run dispatches args to a command and maps its error to an exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usageText)
		return exitUsage
	}
	var cmd command
	var bind func(*flag.FlagSet)
	switch args[0] {
	case "version", "--version":
		fmt.Fprintln(stdout, "gofountain", version.String())
		return exitOK
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usageText)
		return exitOK
	case "convert":
		f := &convertFlags{}
		cmd, bind = f.run, f.bind
	case "tokens":
		f := &tokensFlags{}
		cmd, bind = f.run, f.bind
	case "index":
		f := &indexFlags{}
		cmd, bind = f.run, f.bind
	case "report":
		f := &reportFlags{}
		cmd, bind = f.run, f.bind
	case "search":
		f := &searchFlags{}
		cmd, bind = f.run, f.bind
	case "publish":
		f := &publishFlags{}
		cmd, bind = f.run, f.bind
	case "config":
		f := &configFlags{}
		cmd, bind = f.run, f.bind
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usageText)
		return exitUsage
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(stderr)
	var common commonFlags
	addCommonFlags(fs, &common)
	bind(fs)
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	a, err := newApp(common, stdin, stdout, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "gofountain:", err)
		return exitUsage
	}
	a.log.Debug("start", slog.String("cmd", args[0]), slog.Int("args", fs.NArg()))
	if err := cmd(ctx, a, fs.Args()); err != nil {
		fmt.Fprintf(stderr, "gofountain %s: %v\n", args[0], err)
		if errors.Is(err, errUsage) {
			return exitUsage
		}
		a.log.Error("command failed", slog.String("cmd", args[0]), slog.Any("err", err))
		return exitFailure
	}
	return exitOK
}

// newApp loads the configuration and initializes logging from it.
func newApp(common commonFlags, stdin io.Reader, stdout, stderr io.Writer) (*app, error) {
	var (
		cfg config.AppConfig
		pw  string
		err error
	)
	if common.config != "" {
		cfg, pw, err = config.LoadFile(common.config)
	} else {
		cfg, pw, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	lo := applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
		Console:   stderr,
	}
	if common.verbose {
		lo.Level = "debug"
	}
	if common.encoding != "" {
		cfg.Parser.Encoding = common.encoding
	}
	if _, err := export.Decode(nil, cfg.Parser.Encoding); err != nil {
		return nil, err
	}
	applog.Init(lo)
	return &app{cfg: cfg, password: pw, cfgPath: common.config, in: stdin, out: stdout, errOut: stderr, log: applog.WithComponent("cli")}, nil
}

// classifyOptions maps the parser section of the configuration.
func (a *app) classifyOptions() []script.Option {
	return []script.Option{
		script.WithDualDialogue(a.cfg.Parser.DualDialogue),
		script.WithFlushFinalLabel(a.cfg.Parser.FlushFinalLabel),
	}
}

func requireFiles(args []string, what string) error {
	if len(args) == 0 {
		return usageErrorf("%s requires at least one file", what)
	}
	for _, a := range args {
		if strings.TrimSpace(a) == "" {
			return usageErrorf("empty file name")
		}
	}
	return nil
}
