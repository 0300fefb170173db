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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type ParserConfig struct {
	DualDialogue    bool   `yaml:"dual_dialogue"`
	FlushFinalLabel bool   `yaml:"flush_final_label"`
	Encoding        string `yaml:"encoding,omitempty"` // input encoding, e.g. windows-1252; UTF-8 when empty
}

// StyleOverride adjusts the layout of one element kind. Indents are in inches.
type StyleOverride struct {
	LeftIndent  *float64 `yaml:"left_indent,omitempty"`
	RightIndent *float64 `yaml:"right_indent,omitempty"`
	Align       string   `yaml:"align,omitempty"` // "left" | "center" | "right"
	Uppercase   *bool    `yaml:"uppercase,omitempty"`
}

type RenderConfig struct {
	PageSize    string                   `yaml:"page_size"` // "letter" | "a4"
	FontFamily  string                   `yaml:"font_family"`
	FontSize    float64                  `yaml:"font_size"`
	FontDirs    []string                 `yaml:"font_dirs"`
	TitlePage   bool                     `yaml:"title_page"`
	PageNumbers bool                     `yaml:"page_numbers"`
	Styles      map[string]StyleOverride `yaml:"styles,omitempty"` // keyed by element kind name, e.g. DIALOG
}

type IndexConfig struct {
	Path string `yaml:"path"`
}

type BackendConfig struct {
	DSN       string `yaml:"dsn"`
	TimeoutMs int    `yaml:"timeout_ms"`
	// The database password is not stored on disk; it lives in the OS keychain.
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Parser        ParserConfig  `yaml:"parser"`
	Render        RenderConfig  `yaml:"render"`
	Index         IndexConfig   `yaml:"index"`
	Backend       BackendConfig `yaml:"backend"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Parser:        ParserConfig{},
		Render: RenderConfig{
			PageSize:    "letter",
			FontFamily:  "Courier Prime",
			FontSize:    12,
			TitlePage:   true,
			PageNumbers: true,
		},
		Index:   IndexConfig{Path: ""},
		Backend: BackendConfig{DSN: "", TimeoutMs: 10000},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvDualDialogue    = "GFN_DUAL_DIALOGUE"
	EnvFlushFinalLabel = "GFN_FLUSH_FINAL_LABEL"
	EnvEncoding        = "GFN_ENCODING"
	EnvPageSize        = "GFN_PAGE_SIZE"
	EnvFontFamily      = "GFN_FONT_FAMILY"
	EnvFontDirs        = "GFN_FONT_DIRS" // os.PathListSeparator separated
	EnvIndexPath       = "GFN_INDEX_PATH"
	EnvBackendDSN      = "GFN_PG_DSN"
	EnvBackendTimeout  = "GFN_PG_TIMEOUT_MS"
	EnvConfigPath      = "GFN_CONFIG"

	EnvLogLevel  = "GFN_LOG_LEVEL"
	EnvLogFormat = "GFN_LOG_FORMAT"
	EnvLogSource = "GFN_LOG_SOURCE"
	EnvLogFile   = "GFN_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService  = "GoFountain"
	keyringPassword = "backend_password"
)

// tokenStore abstracts keyring, so we can stub in tests.
var tokenStore TokenStore = osKeyring{}

type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// osKeyring implements TokenStore using the OS keyring via github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) {
	v, err := keyring.Get(service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return v, err
}
func (osKeyring) Set(service, key, value string) error { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error {
	err := keyring.Delete(service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// ConfigPath returns the per-user config file path. GFN_CONFIG takes precedence.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "GoFountain")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "GoFountain")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "gofountain")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "gofountain")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
// It also loads the backend password from the keyring (returned separately, never kept in the struct).
func Load() (AppConfig, string, error) {
	path, err := ConfigPath()
	if err != nil {
		return Defaults(), "", err
	}
	return LoadFile(path)
}

// LoadFile is Load with an explicit config file path. A missing file is not an error;
// a file that cannot be parsed is.
func LoadFile(path string) (AppConfig, string, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return cfg, "", fmt.Errorf("parse config %s: %w", path, err)
		}
		mergeInto(&cfg, &fileCfg)
	case !errors.Is(err, os.ErrNotExist):
		return cfg, "", fmt.Errorf("read config %s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	pw, _ := tokenStore.Get(keyringService, keyringPassword)
	return cfg, pw, nil
}

// Save writes the user config YAML and persists the password into the OS keyring (if non-empty).
func Save(cfg AppConfig, password string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg, password)
}

// SaveFile is Save with an explicit config file path.
func SaveFile(path string, cfg AppConfig, password string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if password != "" {
		if err := tokenStore.Set(keyringService, keyringPassword, password); err != nil {
			return fmt.Errorf("store password in keyring: %w", err)
		}
	}
	return nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.Parser = src.Parser

	if s := strings.ToLower(strings.TrimSpace(src.Render.PageSize)); s != "" {
		dst.Render.PageSize = s
	}
	if s := strings.TrimSpace(src.Render.FontFamily); s != "" {
		dst.Render.FontFamily = s
	}
	if src.Render.FontSize > 0 {
		dst.Render.FontSize = src.Render.FontSize
	}
	if len(src.Render.FontDirs) > 0 {
		dst.Render.FontDirs = append([]string(nil), src.Render.FontDirs...)
	}
	dst.Render.TitlePage = src.Render.TitlePage
	dst.Render.PageNumbers = src.Render.PageNumbers
	if len(src.Render.Styles) > 0 {
		dst.Render.Styles = make(map[string]StyleOverride, len(src.Render.Styles))
		for k, v := range src.Render.Styles {
			dst.Render.Styles[strings.ToUpper(strings.TrimSpace(k))] = v
		}
	}

	if s := strings.TrimSpace(src.Index.Path); s != "" {
		dst.Index.Path = s
	}
	if s := strings.TrimSpace(src.Backend.DSN); s != "" {
		dst.Backend.DSN = s
	}
	if src.Backend.TimeoutMs != 0 {
		dst.Backend.TimeoutMs = src.Backend.TimeoutMs
	}

	if s := strings.TrimSpace(src.Logging.Level); s != "" {
		dst.Logging.Level = strings.ToLower(s)
	}
	if s := strings.TrimSpace(src.Logging.Format); s != "" {
		dst.Logging.Format = strings.ToLower(s)
	}
	dst.Logging.Source = src.Logging.Source
	if s := strings.TrimSpace(src.Logging.File); s != "" {
		dst.Logging.File = s
	}
}

func parseBool(v string) bool {
	lv := strings.ToLower(strings.TrimSpace(v))
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvDualDialogue)); v != "" {
		cfg.Parser.DualDialogue = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvFlushFinalLabel)); v != "" {
		cfg.Parser.FlushFinalLabel = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvEncoding)); v != "" {
		cfg.Parser.Encoding = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvPageSize)); v != "" {
		cfg.Render.PageSize = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvFontFamily)); v != "" {
		cfg.Render.FontFamily = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvFontDirs)); v != "" {
		cfg.Render.FontDirs = filepath.SplitList(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvIndexPath)); v != "" {
		cfg.Index.Path = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendDSN)); v != "" {
		cfg.Backend.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendTimeout)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backend.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env := map[string]string{
		"parser.dual_dialogue":     EnvDualDialogue,
		"parser.flush_final_label": EnvFlushFinalLabel,
		"parser.encoding":          EnvEncoding,
		"render.page_size":         EnvPageSize,
		"render.font_family":       EnvFontFamily,
		"render.font_dirs":         EnvFontDirs,
		"index.path":               EnvIndexPath,
		"backend.dsn":              EnvBackendDSN,
		"backend.timeout_ms":       EnvBackendTimeout,
		"logging.level":            EnvLogLevel,
		"logging.format":           EnvLogFormat,
		"logging.source":           EnvLogSource,
		"logging.file":             EnvLogFile,
	}[key]
	if env != "" && os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}

// Timeout returns the backend timeout, falling back to the default when unset.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutMs <= 0 {
		return time.Duration(Defaults().Backend.TimeoutMs) * time.Millisecond
	}
	return time.Duration(b.TimeoutMs) * time.Millisecond
}

// DefaultIndexPath returns the index database path used when none is configured.
func DefaultIndexPath() string {
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "gofountain", "index.sqlite")
	}
	return filepath.Join(os.TempDir(), "gofountain", "index.sqlite")
}

// IndexPath returns the configured index path or the default one.
func (c AppConfig) IndexPath() string {
	if strings.TrimSpace(c.Index.Path) != "" {
		return c.Index.Path
	}
	return DefaultIndexPath()
}
