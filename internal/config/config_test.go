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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zalando/go-keyring"
)

// isolate points the config file at a temp dir and mocks the keyring.
func isolate(t *testing.T) string {
	t.Helper()
	keyring.MockInit()
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigPath, path)
	for _, b := range envBindings {
		t.Setenv(b.env, "")
	}
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	isolate(t)
	cfg, tok, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if tok != "" {
		t.Fatalf("unexpected token %q", tok)
	}
	if cfg.Export.Format != "pdf" || cfg.Export.Language != "en" || cfg.Store.Driver != "sqlite" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Assets.Timeout() != 10*time.Second {
		t.Fatalf("asset timeout = %v", cfg.Assets.Timeout())
	}
}

func TestLoadMergesFile(t *testing.T) {
	path := isolate(t)
	data := []byte("export:\n  format: DOCX\n  language: sv\nassets:\n  timeout_ms: 2500\nstore:\n  driver: pgx\n  dsn: postgres://localhost/cv\nlogging:\n  level: DEBUG\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Export.Format != "docx" || cfg.Export.Language != "sv" || cfg.Export.OutDir != "." {
		t.Fatalf("export section not merged: %+v", cfg.Export)
	}
	if cfg.Assets.Timeout() != 2500*time.Millisecond || cfg.Assets.MaxBytes != 10<<20 {
		t.Fatalf("assets section not merged: %+v", cfg.Assets)
	}
	if dsn, _ := cfg.StoreDSN(); cfg.Store.Driver != "pgx" || dsn != "postgres://localhost/cv" {
		t.Fatalf("store section not merged: %+v", cfg.Store)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("logging level = %q", cfg.Logging.Level)
	}
}

func TestLoadReportsMalformedFile(t *testing.T) {
	path := isolate(t)
	if err := os.WriteFile(path, []byte("export: [unclosed"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, _, err := Load()
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if cfg.Export.Format != "pdf" {
		t.Fatalf("defaults should still be returned")
	}
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv(EnvExportFormat, "DOCX")
	t.Setenv(EnvExportLang, "sv")
	t.Setenv(EnvAssetTimeoutMs, "750")
	t.Setenv(EnvBackendURL, "https://example.test:8443")
	t.Setenv(EnvTelemetryOptIn, "yes")
	t.Setenv(EnvLogSource, "1")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Export.Format != "docx" || cfg.Export.Language != "sv" {
		t.Fatalf("export overrides not applied: %+v", cfg.Export)
	}
	if cfg.Assets.TimeoutMs != 750 || cfg.Backend.BaseURL != "https://example.test:8443" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if !cfg.General.TelemetryOptIn || !cfg.Logging.Source {
		t.Fatalf("boolean overrides not applied")
	}
	if env, ok := EnvOverrideFor("assets.timeout_ms"); !ok || env != EnvAssetTimeoutMs {
		t.Fatalf("EnvOverrideFor = %q, %v", env, ok)
	}
	if _, ok := EnvOverrideFor("store.dsn"); ok {
		t.Fatalf("store.dsn is not overridden")
	}
}

func TestSaveRoundTripAndToken(t *testing.T) {
	path := isolate(t)
	cfg := Defaults()
	cfg.Export.OutDir = "/tmp/cv"
	if err := Save(cfg, "s3cret"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	got, tok, err := Load()
	if err != nil || got.Export.OutDir != "/tmp/cv" || tok != "s3cret" {
		t.Fatalf("round trip: %+v, %q, %v", got.Export, tok, err)
	}
	if err := DeleteToken(); err != nil {
		t.Fatalf("DeleteToken: %v", err)
	}
	if _, err := LoadToken(); !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
	if err := DeleteToken(); err != nil {
		t.Fatalf("deleting a missing token should succeed: %v", err)
	}
	if err := SaveToken(""); err == nil {
		t.Fatalf("empty token must be rejected")
	}
}

func TestKeyringErrorsPropagate(t *testing.T) {
	isolate(t)
	boom := errors.New("keychain locked")
	keyring.MockInitWithError(boom)
	if err := SaveToken("x"); !errors.Is(err, boom) {
		t.Fatalf("expected keyring error, got %v", err)
	}
}

func TestLogOptions(t *testing.T) {
	o := LoggingConfig{Level: "warn", Format: "json", Source: true, File: "x.log"}.LogOptions()
	if o.Level != "warn" || o.Format != "json" || !o.AddSource || o.File != "x.log" {
		t.Fatalf("unexpected options: %+v", o)
	}
}
