/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type memStore struct{ m map[string]string }

func (s *memStore) Get(service, key string) (string, error) { return s.m[service+"/"+key], nil }
func (s *memStore) Set(service, key, value string) error {
	s.m[service+"/"+key] = value
	return nil
}
func (s *memStore) Delete(service, key string) error {
	delete(s.m, service+"/"+key)
	return nil
}

func stubKeyring(t *testing.T) *memStore {
	t.Helper()
	old := tokenStore
	s := &memStore{m: map[string]string{}}
	tokenStore = s
	t.Cleanup(func() { tokenStore = old })
	return s
}

func TestLoadFileMissingUsesDefaults(t *testing.T) {
	stubKeyring(t)
	cfg, pw, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if pw != "" {
		t.Fatalf("password = %q, want empty", pw)
	}
	if cfg.Render.PageSize != "letter" || cfg.Render.FontSize != 12 {
		t.Fatalf("defaults not applied: %+v", cfg.Render)
	}
}

func TestEnvOverridesBackendDSN(t *testing.T) {
	stubKeyring(t)
	t.Setenv(EnvBackendDSN, "postgres://u@localhost/fountain")
	cfg, _, err := LoadFile(filepath.Join(t.TempDir(), "c.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if got, want := cfg.Backend.DSN, "postgres://u@localhost/fountain"; got != want {
		t.Fatalf("Backend.DSN = %q, want %q", got, want)
	}
	if env, ok := EnvOverrideFor("backend.dsn"); !ok || env != EnvBackendDSN {
		t.Fatalf("EnvOverrideFor(backend.dsn) = %q,%v", env, ok)
	}
}

func TestEnvOverridesParser(t *testing.T) {
	stubKeyring(t)
	t.Setenv(EnvDualDialogue, "yes")
	t.Setenv(EnvFlushFinalLabel, "1")
	t.Setenv(EnvEncoding, "windows-1252")
	cfg, _, err := LoadFile(filepath.Join(t.TempDir(), "c.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if !cfg.Parser.DualDialogue || !cfg.Parser.FlushFinalLabel || cfg.Parser.Encoding != "windows-1252" {
		t.Fatalf("parser overrides not applied: %+v", cfg.Parser)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := stubKeyring(t)
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := Defaults()
	cfg.Render.PageSize = "a4"
	cfg.Render.Styles = map[string]StyleOverride{"dialog": {Align: "center"}}
	cfg.Index.Path = "/tmp/idx.sqlite"
	if err := SaveFile(path, cfg, "s3cret"); err != nil {
		t.Fatalf("SaveFile() error: %v", err)
	}
	if store.m[keyringService+"/"+keyringPassword] != "s3cret" {
		t.Fatalf("password not stored in keyring")
	}
	got, pw, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if pw != "s3cret" {
		t.Fatalf("password = %q", pw)
	}
	if got.Render.PageSize != "a4" || got.Index.Path != "/tmp/idx.sqlite" {
		t.Fatalf("round trip lost values: %+v", got)
	}
	if _, ok := got.Render.Styles["DIALOG"]; !ok {
		t.Fatalf("style keys should be upper-cased, got %v", got.Render.Styles)
	}
	data, _ := os.ReadFile(path)
	if len(data) == 0 {
		t.Fatalf("config file empty")
	}
}

func TestLoadFileRejectsBadYAML(t *testing.T) {
	stubKeyring(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("render: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, _, err := LoadFile(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "DEBUG"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "/tmp/gfn.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "/tmp/gfn.log" {
		t.Fatalf("logging not merged: %+v", dst.Logging)
	}
}

func TestConfigPathFromEnv(t *testing.T) {
	t.Setenv(EnvConfigPath, "/etc/gfn.yaml")
	p, err := ConfigPath()
	if err != nil || p != "/etc/gfn.yaml" {
		t.Fatalf("ConfigPath() = %q, %v", p, err)
	}
}

func TestBackendTimeoutDefault(t *testing.T) {
	if got := (BackendConfig{}).Timeout(); got != 10*time.Second {
		t.Fatalf("Timeout() = %v", got)
	}
	if got := (BackendConfig{TimeoutMs: 250}).Timeout(); got != 250*time.Millisecond {
		t.Fatalf("Timeout() = %v", got)
	}
}

func TestIndexPathFallback(t *testing.T) {
	cfg := Defaults()
	if cfg.IndexPath() == "" {
		t.Fatalf("IndexPath() empty")
	}
	cfg.Index.Path = "x.sqlite"
	if cfg.IndexPath() != "x.sqlite" {
		t.Fatalf("IndexPath() = %q", cfg.IndexPath())
	}
}
