/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders an ExportData record into a finished CV document.
// Two formats are supported: PDF, laid out on absolute coordinates page by page,
// and DOCX, built as a WordprocessingML tree. Every Generate call is
// self-contained; exporters hold configuration only, never document state.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"competencematrix/internal/assets"
	"competencematrix/internal/domain"
	applog "competencematrix/internal/log"
)

// Format selects an output format.
type Format string

const (
	FormatPDF  Format = "PDF"
	FormatDOCX Format = "DOCX"
)

const (
	MIMEPDF  = "application/pdf"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ErrUnsupportedFormat is returned for any format tag other than PDF or DOCX.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat accepts "pdf" or "docx" in any case, with an optional leading dot.
func ParseFormat(s string) (Format, error) {
	switch strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "PDF":
		return FormatPDF, nil
	case "DOCX":
		return FormatDOCX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Ext is the lower-case file extension without a dot.
func (f Format) Ext() string { return strings.ToLower(string(f)) }

// MIMEType of documents in this format.
func (f Format) MIMEType() string {
	if f == FormatDOCX {
		return MIMEDOCX
	}
	return MIMEPDF
}

// Document is a finished export.
type Document struct {
	Data     []byte
	MIMEType string
	Filename string
	// Pages is the page count for PDF output and 0 for DOCX, whose pagination
	// is decided by the reading application.
	Pages int
}

// Exporter turns export data into a document. Implementations are safe for
// concurrent use.
type Exporter interface {
	Format() Format
	// Generate renders data. ctx bounds image fetching only; layout itself runs to completion.
	Generate(ctx context.Context, data domain.ExportData) (*Document, error)
}

// GenerateError reports a failure of the underlying document writer. No partial
// document accompanies it.
type GenerateError struct {
	Format  Format
	Message string
	Cause   error
}

func (e *GenerateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("generate %s: %s: %v", e.Format, e.Message, e.Cause)
	}
	return fmt.Sprintf("generate %s: %s", e.Format, e.Message)
}

func (e *GenerateError) Unwrap() error { return e.Cause }

// fixedTime is stamped wherever a writer insists on a date so that output bytes
// depend on input only.
var fixedTime = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

type options struct {
	resolver *assets.Resolver
	logger   *slog.Logger
	metrics  Metrics
}

// Option configures an exporter.
type Option func(*options)

// WithResolver sets the image resolver used for the avatar.
func WithResolver(r *assets.Resolver) Option { return func(o *options) { o.resolver = r } }

// WithLogger sets the logger; the default discards output.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// WithMetrics overrides the page geometry (PDF only).
func WithMetrics(m Metrics) Option { return func(o *options) { o.metrics = m } }

func buildOptions(opts []Option) options {
	o := options{metrics: ComputeMetrics()}
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = applog.Discard()
	}
	if o.resolver == nil {
		o.resolver = assets.NewResolver(assets.NewHTTPFetcher(10*time.Second), o.logger)
	}
	return o
}

// NewExporter returns the exporter for format.
func NewExporter(format Format, opts ...Option) (Exporter, error) {
	switch format {
	case FormatPDF:
		return NewPDFExporter(opts...), nil
	case FormatDOCX:
		return NewDOCXExporter(opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(format))
	}
}
