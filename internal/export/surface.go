/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"

	"github.com/jung-kurt/gofpdf"

	"competencematrix/internal/textlayout"
)

// Color is an 8-bit RGB triple.
type Color struct{ R, G, B int }

var (
	colorBlack       = Color{0, 0, 0}
	colorWhite       = Color{255, 255, 255}
	colorMuted       = Color{90, 90, 90}
	colorRule        = Color{170, 170, 170}
	colorSidebar     = Color{38, 50, 72}
	colorSidebarRule = Color{150, 165, 185}
)

// Surface is the drawing target of the section builders. Coordinates are points
// from the top-left corner of the current page; Text takes a baseline y.
type Surface interface {
	AddPage()
	PageCount() int
	SetStyle(st textlayout.TextStyle)
	SetTextColor(c Color)
	SetDrawColor(c Color)
	SetFillColor(c Color)
	SetLineWidth(w float64)
	// StringWidth measures s in the current style.
	StringWidth(s string) float64
	Text(x, baseline float64, s string)
	Line(x1, y1, x2, y2 float64)
	// Rect and Circle take gofpdf style strings: "D" stroke, "F" fill, "FD" both.
	Rect(x, y, w, h float64, style string)
	Circle(x, y, r float64, style string)
	// Image places PNG, JPEG or GIF bytes; imageType is "png", "jpg" or "gif".
	Image(name string, data []byte, imageType string, x, y, w, h float64)
	Err() error
}

// pdfSurface draws onto a gofpdf document with the standard Helvetica family.
// Text is translated to cp1252, the encoding of the core fonts.
type pdfSurface struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

type pdfInfo struct {
	Title   string
	Author  string
	Subject string
}

func newPDFSurface(m Metrics, info pdfInfo) *pdfSurface {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: m.PageWidth, Ht: m.PageHeight},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreationDate(fixedTime)
	pdf.SetModificationDate(fixedTime)
	pdf.SetCatalogSort(true)
	pdf.SetCreator("cvexport", false)
	pdf.SetProducer("cvexport", false)
	pdf.SetTitle(info.Title, true)
	pdf.SetAuthor(info.Author, true)
	if info.Subject != "" {
		pdf.SetSubject(info.Subject, true)
	}
	body := textlayout.MustStyle(textlayout.StyleBody)
	pdf.SetFont(body.Font.Family, body.Font.StyleString(), body.Font.SizePt)
	return &pdfSurface{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (p *pdfSurface) AddPage()       { p.pdf.AddPage() }
func (p *pdfSurface) PageCount() int { return p.pdf.PageCount() }

func (p *pdfSurface) SetStyle(st textlayout.TextStyle) {
	p.pdf.SetFont(st.Font.Family, st.Font.StyleString(), st.Font.SizePt)
}

func (p *pdfSurface) SetTextColor(c Color) { p.pdf.SetTextColor(c.R, c.G, c.B) }
func (p *pdfSurface) SetDrawColor(c Color) { p.pdf.SetDrawColor(c.R, c.G, c.B) }
func (p *pdfSurface) SetFillColor(c Color) { p.pdf.SetFillColor(c.R, c.G, c.B) }
func (p *pdfSurface) SetLineWidth(w float64) {
	p.pdf.SetLineWidth(w)
}

func (p *pdfSurface) StringWidth(s string) float64 { return p.pdf.GetStringWidth(p.tr(s)) }

func (p *pdfSurface) Text(x, baseline float64, s string) { p.pdf.Text(x, baseline, p.tr(s)) }

func (p *pdfSurface) Line(x1, y1, x2, y2 float64) { p.pdf.Line(x1, y1, x2, y2) }

func (p *pdfSurface) Rect(x, y, w, h float64, style string) { p.pdf.Rect(x, y, w, h, style) }

func (p *pdfSurface) Circle(x, y, r float64, style string) { p.pdf.Circle(x, y, r, style) }

func (p *pdfSurface) Image(name string, data []byte, imageType string, x, y, w, h float64) {
	opts := gofpdf.ImageOptions{ImageType: imageType}
	p.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	p.pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
}

func (p *pdfSurface) Err() error { return p.pdf.Error() }

// output serializes the document; gofpdf's sticky error is reported first.
func (p *pdfSurface) output() ([]byte, error) {
	if err := p.pdf.Error(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := p.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
