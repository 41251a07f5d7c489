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
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"competencematrix/internal/assets"
	"competencematrix/internal/config"
	"competencematrix/internal/domain"
	"competencematrix/internal/export"
	applog "competencematrix/internal/log"
	"competencematrix/internal/storage"
	"competencematrix/internal/telemetry"
)

// storePrefix marks a --profile value as a store document id instead of a file path.
const storePrefix = "store:"

// appEnv is the per-invocation state prepared before any subcommand runs.
type appEnv struct {
	cfg     config.AppConfig
	token   string
	log     *slog.Logger
	metrics *telemetry.Client
}

var env appEnv

func setup(cmd *cobra.Command, _ []string) error {
	cfg, token, err := config.Load()
	applog.Init(cfg.Logging.LogOptions())
	env.log = applog.WithComponent("cli")
	if err != nil {
		env.log.Warn("config load failed, using defaults", slog.Any("err", err))
	}
	env.cfg = cfg
	env.token = token

	tcfg := telemetry.FromEnv()
	tcfg.OptIn = tcfg.OptIn || cfg.General.TelemetryOptIn
	env.metrics = telemetry.New(tcfg)
	telemetry.SetDefault(env.metrics)

	crashCtx.Command = cmd.CommandPath()
	if dir, err := config.Dir(); err == nil {
		crashCtx.Dir = filepath.Join(dir, "crash")
	}
	env.log.Debug("start", slog.String("command", cmd.CommandPath()))
	return nil
}

func teardown(*cobra.Command, []string) {
	if env.metrics == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	env.metrics.Flush(ctx)
	env.metrics.Close()
}

// exportOptions wires the configured asset fetcher and loggers into the exporters.
// allowFiles lets avatar references name local files; only commands run by the
// file's owner set it.
func (e *appEnv) exportOptions(allowFiles bool) []export.Option {
	f := assets.NewHTTPFetcher(e.cfg.Assets.Timeout())
	f.AllowFiles = allowFiles
	f.UserAgent = e.cfg.Assets.UserAgent
	if e.cfg.Assets.MaxBytes > 0 {
		f.MaxBytes = e.cfg.Assets.MaxBytes
	}
	return []export.Option{
		export.WithResolver(assets.NewResolver(f, applog.WithComponent("assets"))),
		export.WithLogger(applog.WithComponent("export")),
	}
}

func (e *appEnv) openStore(ctx context.Context) (*storage.SQLStore, error) {
	d, err := storage.ParseDriver(e.cfg.Store.Driver)
	if err != nil {
		return nil, err
	}
	dsn, err := e.cfg.StoreDSN()
	if err != nil {
		return nil, err
	}
	return storage.Open(ctx, d, dsn)
}

// loadProfile reads a profile from a JSON file or, for "store:<id>", from the document store.
func (e *appEnv) loadProfile(ctx context.Context, ref string) (domain.Profile, error) {
	var (
		p   domain.Profile
		err error
	)
	if id, ok := strings.CutPrefix(ref, storePrefix); ok {
		var st *storage.SQLStore
		st, err = e.openStore(ctx)
		if err != nil {
			return domain.Profile{}, err
		}
		defer st.Close()
		var doc storage.Document
		doc, err = st.Get(ctx, id)
		p = doc.Profile
	} else {
		p, err = storage.LoadProfileFile(ref)
	}
	if err != nil {
		return domain.Profile{}, err
	}
	crashCtx.SetProfile(ref, p)
	return p, nil
}

// record reports a finished export to telemetry.
func (e *appEnv) record(res export.BatchResult, lang string, took time.Duration) {
	e.metrics.Export(telemetry.ExportEvent{
		Format:   string(res.Format),
		Language: lang,
		Pages:    res.Document.Pages,
		Bytes:    len(res.Document.Data),
		Duration: took,
	})
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func telemetryFailure(f export.Format, lang string) telemetry.ExportEvent {
	return telemetry.ExportEvent{Format: string(f), Language: lang, Failed: true}
}
