/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	applog "competencematrix/internal/log"
	"competencematrix/internal/server"
	"competencematrix/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the export HTTP API",
	Long:  "Serves POST /api/export for inline profiles and GET /api/profiles/{id}/export for stored ones.",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var (
	serveAddr    string
	serveNoStore bool
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveNoStore, "no-store", false, "Serve inline exports only")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store storage.DocumentStore
	if !serveNoStore {
		st, err := env.openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		store = st
	}
	addr := firstNonEmpty(serveAddr, env.cfg.Server.Addr, ":8080")
	env.log.Info("serving exports", slog.String("addr", addr), slog.Bool("store", store != nil))
	srv := server.New(store, applog.WithComponent("server"), env.exportOptions(false)...).WithTelemetry(env.metrics)
	return srv.ListenAndServe(ctx, addr)
}
