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
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"competencematrix/internal/domain"
	"competencematrix/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render a profile as PDF or DOCX",
	Long:  "Renders one profile in one format and writes it to the output directory under a filename derived from the display name.",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Render a profile in several formats at once",
	Args:  cobra.NoArgs,
	RunE:  runBatch,
}

var (
	exportProfile string
	exportFormat  string
	exportLang    string
	exportOut     string
	batchPreset   string
)

func init() {
	for _, c := range []*cobra.Command{exportCmd, batchCmd} {
		c.Flags().StringVarP(&exportProfile, "profile", "p", "", "Profile JSON file, or store:<id> (required)")
		c.Flags().StringVarP(&exportLang, "lang", "l", "", "Output language: en or sv (default from config)")
		c.Flags().StringVarP(&exportOut, "out", "o", "", "Output directory (default from config)")
		if err := c.MarkFlagRequired("profile"); err != nil {
			panic(fmt.Sprintf("failed to mark profile flag as required: %v", err))
		}
	}
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Output format: pdf or docx (default from config)")
	batchCmd.Flags().StringVar(&batchPreset, "preset", string(export.PresetAll), "Format preset: all, print or edit")

	rootCmd.AddCommand(exportCmd, batchCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	f, err := export.ParseFormat(firstNonEmpty(exportFormat, env.cfg.Export.Format))
	if err != nil {
		return err
	}
	return exportProfileTo(cmd.Context(), cmd, exportProfile, []export.Format{f})
}

func runBatch(cmd *cobra.Command, _ []string) error {
	return exportProfileTo(cmd.Context(), cmd, exportProfile, export.PresetFormats(export.PresetName(batchPreset)))
}

func exportProfileTo(ctx context.Context, cmd *cobra.Command, ref string, formats []export.Format) error {
	if ctx == nil {
		ctx = context.Background()
	}
	p, err := env.loadProfile(ctx, ref)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	lang := firstNonEmpty(exportLang, env.cfg.Export.Language)
	outDir := firstNonEmpty(exportOut, env.cfg.Export.OutDir, ".")
	results, err := writeExports(ctx, p, lang, outDir, formats)
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Fprintln(cmd.OutOrStdout(), r.Path)
	}
	return nil
}

// writeExports renders and writes the formats, reporting each result to telemetry.
func writeExports(ctx context.Context, p domain.Profile, lang, outDir string, formats []export.Format) ([]export.BatchResult, error) {
	start := time.Now()
	results, err := export.BatchExport(ctx, domain.ExportData{Profile: p, Language: lang}, formats, outDir, env.exportOptions(true)...)
	took := time.Since(start)
	if err != nil {
		for _, f := range formats {
			env.metrics.Export(telemetryFailure(f, lang))
		}
		env.log.Error("export failed", slog.Any("err", err))
		return nil, err
	}
	for _, r := range results {
		env.record(r, lang, took)
		env.log.Info("exported", slog.String("format", string(r.Format)), slog.String("path", r.Path),
			slog.Int("pages", r.Document.Pages), slog.Duration("took", took))
	}
	return results, nil
}
