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
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"competencematrix/internal/export"
	applog "competencematrix/internal/log"
	"competencematrix/internal/storage"
)

var watchCmd = &cobra.Command{
	Use:   "watch <id>",
	Short: "Re-export a stored profile whenever it changes",
	Long:  "Exports the stored profile, then exports again after every new version. Writes from this process are picked up through store notifications, writes from other processes by polling.",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

var watchPoll time.Duration

func init() {
	watchCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Output format: pdf or docx (default from config)")
	watchCmd.Flags().StringVarP(&exportLang, "lang", "l", "", "Output language: en or sv (default from config)")
	watchCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output directory (default from config)")
	watchCmd.Flags().DurationVar(&watchPoll, "poll", 2*time.Second, "Version poll interval; 0 relies on notifications only")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	f, err := export.ParseFormat(firstNonEmpty(exportFormat, env.cfg.Export.Format))
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := env.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	id := args[0]
	lang := firstNonEmpty(exportLang, env.cfg.Export.Language)
	outDir := firstNonEmpty(exportOut, env.cfg.Export.OutDir, ".")
	return watchDocument(ctx, st, id, watchPoll, func(doc storage.Document) {
		crashCtx.SetProfile(storePrefix+id, doc.Profile)
		results, err := writeExports(ctx, doc.Profile, lang, outDir, []export.Format{f})
		if err != nil {
			return
		}
		for _, r := range results {
			fmt.Fprintf(cmd.OutOrStdout(), "v%d %s\n", doc.Version, r.Path)
		}
	})
}

// watchDocument calls onVersion with the current document and then once per
// newer version until ctx ends or the store closes. A missing document is
// waited for rather than treated as an error.
func watchDocument(ctx context.Context, st storage.DocumentStore, id string, poll time.Duration, onVersion func(storage.Document)) error {
	changes, cancel := st.Subscribe(id)
	defer cancel()

	var last int64
	check := func() error {
		doc, err := st.Get(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if doc.Version == last {
			return nil
		}
		last = doc.Version
		onVersion(doc)
		return nil
	}
	if err := check(); err != nil {
		return err
	}

	var tick <-chan time.Time
	if poll > 0 {
		t := time.NewTicker(poll)
		defer t.Stop()
		tick = t.C
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case c, ok := <-changes:
			if !ok {
				return nil
			}
			if c.Kind == storage.ChangeDelete {
				applog.WithComponent("watch").Warn("watched profile deleted", slog.String("id", id))
				continue
			}
		case <-tick:
		}
		if err := check(); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}
