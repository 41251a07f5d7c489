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

	"gopkg.in/yaml.v3"

	applog "competencematrix/internal/log"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Export        ExportConfig  `yaml:"export"`
	Assets        AssetsConfig  `yaml:"assets"`
	Store         StoreConfig   `yaml:"store"`
	Backend       BackendConfig `yaml:"backend"`
	Server        ServerConfig  `yaml:"server"`
	Logging       LoggingConfig `yaml:"logging"`
}

type GeneralConfig struct {
	TelemetryOptIn bool `yaml:"telemetry_opt_in"`
}

// ExportConfig holds the defaults of the export commands.
type ExportConfig struct {
	Format   string `yaml:"format"`   // pdf | docx
	Language string `yaml:"language"` // en | sv
	OutDir   string `yaml:"out_dir"`
}

// AssetsConfig controls how remote avatar images are fetched.
type AssetsConfig struct {
	TimeoutMs int    `yaml:"timeout_ms"`
	UserAgent string `yaml:"user_agent"`
	MaxBytes  int64  `yaml:"max_bytes"`
}

// StoreConfig selects the profile document store. An empty DSN means <config dir>/profiles.sqlite.
type StoreConfig struct {
	Driver string `yaml:"driver"` // sqlite | pgx
	DSN    string `yaml:"dsn"`
}

type BackendConfig struct {
	BaseURL   string `yaml:"base_url"`
	TimeoutMs int    `yaml:"timeout_ms"`
	// Token is not stored on disk; it lives in the OS keychain.
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Export:        ExportConfig{Format: "pdf", Language: "en", OutDir: "."},
		Assets:        AssetsConfig{TimeoutMs: 10000, UserAgent: "cvexport", MaxBytes: 10 << 20},
		Store:         StoreConfig{Driver: "sqlite"},
		Backend:       BackendConfig{TimeoutMs: 15000},
		Server:        ServerConfig{Addr: ":8080"},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath       = "CMX_CONFIG"
	EnvExportFormat     = "CMX_EXPORT_FORMAT"
	EnvExportLang       = "CMX_EXPORT_LANG"
	EnvExportOutDir     = "CMX_EXPORT_OUT_DIR"
	EnvAssetTimeoutMs   = "CMX_ASSET_TIMEOUT_MS"
	EnvStoreDriver      = "CMX_STORE_DRIVER"
	EnvStoreDSN         = "CMX_STORE_DSN"
	EnvBackendURL       = "CMX_BACKEND_URL"
	EnvBackendTimeoutMs = "CMX_BACKEND_TIMEOUT_MS"
	EnvServerAddr       = "CMX_SERVER_ADDR"
	EnvTelemetryOptIn   = "CMX_TELEMETRY_OPT_IN"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "CMX_LOG_LEVEL"
	EnvLogFormat = "CMX_LOG_FORMAT"
	EnvLogSource = "CMX_LOG_SOURCE"
	EnvLogFile   = "CMX_LOG_FILE"
)

// envBinding ties an env var to the config key it overrides.
type envBinding struct {
	env   string
	key   string
	apply func(cfg *AppConfig, v string)
}

var envBindings = []envBinding{
	{EnvExportFormat, "export.format", func(c *AppConfig, v string) { c.Export.Format = strings.ToLower(v) }},
	{EnvExportLang, "export.language", func(c *AppConfig, v string) { c.Export.Language = strings.ToLower(v) }},
	{EnvExportOutDir, "export.out_dir", func(c *AppConfig, v string) { c.Export.OutDir = v }},
	{EnvAssetTimeoutMs, "assets.timeout_ms", func(c *AppConfig, v string) {
		if n, err := strconv.Atoi(v); err == nil {
			c.Assets.TimeoutMs = n
		}
	}},
	{EnvStoreDriver, "store.driver", func(c *AppConfig, v string) { c.Store.Driver = strings.ToLower(v) }},
	{EnvStoreDSN, "store.dsn", func(c *AppConfig, v string) { c.Store.DSN = v }},
	{EnvBackendURL, "backend.base_url", func(c *AppConfig, v string) { c.Backend.BaseURL = v }},
	{EnvBackendTimeoutMs, "backend.timeout_ms", func(c *AppConfig, v string) {
		if n, err := strconv.Atoi(v); err == nil {
			c.Backend.TimeoutMs = n
		}
	}},
	{EnvServerAddr, "server.addr", func(c *AppConfig, v string) { c.Server.Addr = v }},
	{EnvTelemetryOptIn, "general.telemetry_opt_in", func(c *AppConfig, v string) { c.General.TelemetryOptIn = truthy(v) }},
	{EnvLogLevel, "logging.level", func(c *AppConfig, v string) { c.Logging.Level = strings.ToLower(v) }},
	{EnvLogFormat, "logging.format", func(c *AppConfig, v string) { c.Logging.Format = strings.ToLower(v) }},
	{EnvLogSource, "logging.source", func(c *AppConfig, v string) { c.Logging.Source = truthy(v) }},
	{EnvLogFile, "logging.file", func(c *AppConfig, v string) { c.Logging.File = v }},
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

// Dir returns the per-user config directory.
func Dir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "CVExport")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "CVExport")
	default: // linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "cvexport")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "cvexport")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// ConfigPath returns the config file path; CMX_CONFIG takes precedence.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads user config file (if present), applies defaults, and merges environment overrides.
// It also loads the backend token from keyring (not kept inside the struct; returned separately).
// A malformed file is reported as an error together with the defaults.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	var loadErr error
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			loadErr = fmt.Errorf("parse %s: %w", path, err)
		} else {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	tok, _ := LoadToken()
	return cfg, tok, loadErr
}

// Save writes the user config YAML and persists the token into OS keyring (if non-empty).
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
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
	if token != "" {
		return SaveToken(token)
	}
	return nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	set := func(d *string, s string, lower bool) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if lower {
			s = strings.ToLower(s)
		}
		*d = s
	}
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn

	set(&dst.Export.Format, src.Export.Format, true)
	set(&dst.Export.Language, src.Export.Language, true)
	set(&dst.Export.OutDir, src.Export.OutDir, false)

	if src.Assets.TimeoutMs != 0 {
		dst.Assets.TimeoutMs = src.Assets.TimeoutMs
	}
	set(&dst.Assets.UserAgent, src.Assets.UserAgent, false)
	if src.Assets.MaxBytes != 0 {
		dst.Assets.MaxBytes = src.Assets.MaxBytes
	}

	set(&dst.Store.Driver, src.Store.Driver, true)
	set(&dst.Store.DSN, src.Store.DSN, false)

	set(&dst.Backend.BaseURL, src.Backend.BaseURL, false)
	if src.Backend.TimeoutMs != 0 {
		dst.Backend.TimeoutMs = src.Backend.TimeoutMs
	}
	set(&dst.Server.Addr, src.Server.Addr, false)

	set(&dst.Logging.Level, src.Logging.Level, true)
	set(&dst.Logging.Format, src.Logging.Format, true)
	dst.Logging.Source = src.Logging.Source
	set(&dst.Logging.File, src.Logging.File, false)
}

func applyEnvOverrides(cfg *AppConfig) {
	for _, b := range envBindings {
		if v := strings.TrimSpace(os.Getenv(b.env)); v != "" {
			b.apply(cfg, v)
		}
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	for _, b := range envBindings {
		if b.key == key && os.Getenv(b.env) != "" {
			return b.env, true
		}
	}
	return "", false
}

// Timeout returns the asset fetch timeout, falling back to the default.
func (a AssetsConfig) Timeout() time.Duration {
	return millis(a.TimeoutMs, Defaults().Assets.TimeoutMs)
}

// Timeout returns the backend request timeout, falling back to the default.
func (b BackendConfig) Timeout() time.Duration {
	return millis(b.TimeoutMs, Defaults().Backend.TimeoutMs)
}

func millis(ms, def int) time.Duration {
	if ms <= 0 {
		ms = def
	}
	return time.Duration(ms) * time.Millisecond
}

// StoreDSN returns the configured DSN or the default SQLite file in the config directory.
func (c AppConfig) StoreDSN() (string, error) {
	if strings.TrimSpace(c.Store.DSN) != "" {
		return c.Store.DSN, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "profiles.sqlite"), nil
}

// LogOptions converts the logging section for log.Init.
func (l LoggingConfig) LogOptions() applog.Options {
	return applog.Options{Level: l.Level, Format: l.Format, AddSource: l.Source, File: l.File}
}
