/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"competencematrix/internal/domain"
)

// PresetName names a common set of output formats.
type PresetName string

const (
	PresetAll   PresetName = "all"
	PresetPrint PresetName = "print"
	PresetEdit  PresetName = "edit"
)

// PresetFormats returns the formats of a preset; unknown names mean all formats.
func PresetFormats(p PresetName) []Format {
	switch PresetName(strings.ToLower(string(p))) {
	case PresetPrint:
		return []Format{FormatPDF}
	case PresetEdit:
		return []Format{FormatDOCX}
	default:
		return []Format{FormatPDF, FormatDOCX}
	}
}

// BatchResult is one written file.
type BatchResult struct {
	Format   Format
	Path     string
	Document *Document
}

// BatchExport renders data once per format, concurrently, and writes each
// document to outDir under its suggested filename. Results follow the order of
// formats. When any format fails nothing is written.
func BatchExport(ctx context.Context, data domain.ExportData, formats []Format, outDir string, opts ...Option) ([]BatchResult, error) {
	if len(formats) == 0 {
		formats = PresetFormats(PresetAll)
	}
	exporters := make([]Exporter, len(formats))
	for i, f := range formats {
		ex, err := NewExporter(f, opts...)
		if err != nil {
			return nil, err
		}
		exporters[i] = ex
	}

	docs := make([]*Document, len(formats))
	g, gctx := errgroup.WithContext(ctx)
	for i, ex := range exporters {
		g.Go(func() error {
			doc, err := ex.Generate(gctx, data)
			if err != nil {
				return fmt.Errorf("%s: %w", ex.Format(), err)
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure out dir: %w", err)
	}
	results := make([]BatchResult, len(formats))
	for i, doc := range docs {
		path := filepath.Join(outDir, doc.Filename)
		if err := WriteFile(path, doc.Data); err != nil {
			return nil, err
		}
		results[i] = BatchResult{Format: formats[i], Path: path, Document: doc}
	}
	return results, nil
}

// WriteFile writes b to path through a temporary sibling file and a rename, so
// readers never observe a partial document.
func WriteFile(path string, b []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".cvexport-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	name := tmp.Name()
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
