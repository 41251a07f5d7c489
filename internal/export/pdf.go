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
	"log/slog"
	"strings"

	"competencematrix/internal/assets"
	"competencematrix/internal/domain"
	"competencematrix/internal/locale"
	applog "competencematrix/internal/log"
)

// avatarPixelsPerPoint oversamples the circle-cropped avatar for print.
const avatarPixelsPerPoint = 3

// PDFExporter renders the four-page CV with gofpdf. Vector text uses the
// built-in Helvetica family so no font files are needed.
type PDFExporter struct {
	opts options
}

// NewPDFExporter returns a PDF exporter.
func NewPDFExporter(opts ...Option) *PDFExporter { return &PDFExporter{opts: buildOptions(opts)} }

func (e *PDFExporter) Format() Format { return FormatPDF }

// Generate renders data. The result is byte-identical for identical input.
func (e *PDFExporter) Generate(ctx context.Context, data domain.ExportData) (*Document, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	p := data.Profile
	str := locale.For(data.Language)
	ctx = applog.WithExport(ctx, string(FormatPDF), str.Lang)
	logger := e.opts.logger

	avatar := e.prepareAvatar(ctx, logger, p.Avatar)

	s := newPDFSurface(e.opts.metrics, pdfInfo{Title: documentTitle(p), Author: p.DisplayName, Subject: p.Title})
	l := &layout{ctx: ctx, s: s, m: e.opts.metrics, str: str, log: logger}
	l.compose(p, avatar)

	out, err := s.output()
	if err != nil {
		return nil, &GenerateError{Format: FormatPDF, Message: "write document", Cause: err}
	}
	doc := &Document{
		Data:     out,
		MIMEType: MIMEPDF,
		Filename: FilenameFor(p.DisplayName, FormatPDF.Ext()),
		Pages:    s.PageCount(),
	}
	logger.InfoContext(ctx, "export complete", slog.Int("bytes", len(out)), slog.Int("pages", doc.Pages))
	return doc, nil
}

// prepareAvatar resolves, circle-crops and normalizes the avatar. Any failure
// leaves the sidebar without a picture.
func (e *PDFExporter) prepareAvatar(ctx context.Context, logger *slog.Logger, ref string) *avatarImage {
	raw := e.opts.resolver.Load(ctx, ref)
	if raw == nil || assets.IsPlaceholder(raw) {
		return nil
	}
	px := int(e.opts.metrics.AvatarDiameter * avatarPixelsPerPoint)
	b, typ, err := assets.Normalize(assets.CircleCrop(raw, px))
	if err != nil {
		logger.WarnContext(ctx, "avatar skipped", slog.Any("err", err))
		return nil
	}
	return &avatarImage{data: b, typ: typ}
}

func documentTitle(p domain.Profile) string {
	if name := strings.TrimSpace(p.DisplayName); name != "" {
		return name + " - CV"
	}
	return "CV"
}
