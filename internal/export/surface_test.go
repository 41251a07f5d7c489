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
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"strings"
	"testing"
	"unicode/utf8"

	"competencematrix/internal/domain"
	"competencematrix/internal/locale"
	applog "competencematrix/internal/log"
	"competencematrix/internal/textlayout"
)

type textOp struct {
	Page  int
	X, Y  float64
	Text  string
	Style string
	Color Color
}

type lineOp struct {
	Page           int
	X1, Y1, X2, Y2 float64
}

// recordingSurface records draw calls and measures with fixed-width metrics.
type recordingSurface struct {
	pages   int
	style   textlayout.TextStyle
	color   Color
	texts   []textOp
	lines   []lineOp
	circles int
	images  []string
}

func (r *recordingSurface) AddPage() { r.pages++ }
func (r *recordingSurface) PageCount() int { return r.pages }
func (r *recordingSurface) SetStyle(st textlayout.TextStyle) { r.style = st }
func (r *recordingSurface) SetTextColor(c Color) { r.color = c }
func (r *recordingSurface) SetDrawColor(Color) {}
func (r *recordingSurface) SetFillColor(Color) {}
func (r *recordingSurface) SetLineWidth(float64) {}
func (r *recordingSurface) Rect(_, _, _, _ float64, _ string) {}
func (r *recordingSurface) Circle(_, _, _ float64, _ string) { r.circles++ }
func (r *recordingSurface) Err() error { return nil }
func (r *recordingSurface) Line(x1, y1, x2, y2 float64) { r.lines = append(r.lines, lineOp{r.pages, x1, y1, x2, y2}) }
func (r *recordingSurface) Image(name string, _ []byte, _ string, _, _, _, _ float64) {
	r.images = append(r.images, name)
}

// StringWidth advances 7/13 of the font size per rune, the metrics of a 7x13 bitmap face.
func (r *recordingSurface) StringWidth(s string) float64 {
	return float64(utf8.RuneCountInString(s)) * r.style.Font.SizePt * 7 / 13
}

func (r *recordingSurface) Text(x, y float64, s string) {
	r.texts = append(r.texts, textOp{Page: r.pages, X: x, Y: y, Text: s, Style: r.style.Name, Color: r.color})
}

func (r *recordingSurface) all() string {
	parts := make([]string, len(r.texts))
	for i, t := range r.texts {
		parts[i] = t.Text
	}
	return strings.Join(parts, "\n")
}

func (r *recordingSurface) where(keep func(textOp) bool) []textOp {
	var out []textOp
	for _, t := range r.texts {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func newTestLayout(s Surface, logBuf *bytes.Buffer) *layout {
	logger := applog.Discard()
	if logBuf != nil {
		logger = slog.New(slog.NewTextHandler(logBuf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return &layout{ctx: context.Background(), s: s, m: ComputeMetrics(), str: locale.For(domain.LangEnglish), log: logger}
}

func sampleProfile() domain.Profile {
	return domain.Profile{
		DisplayName: "Anna Berg",
		Title:       "Senior Backend Engineer",
		Summary:     "Backend engineer with a decade of experience building distributed systems.",
		Email:       "anna@example.com",
		Phone:       "+46 70 123 45 67",
		Location:    "Stockholm",
		Roles:       []string{"Tech lead", "Architect"},
		Languages:   []string{"Swedish", "English"},
		Expertise:   []string{"Distributed systems", "Observability"},
		Projects: []domain.Project{
			{Customer: "Northwind", Title: "Payments platform", Description: "Rebuilt settlement pipeline."},
		},
		Experiences: []domain.Experience{
			{Title: "Staff Engineer", Employer: "Acme", Description: "Leads the platform team.", StartMonth: 3, StartYear: 2019, EndMonth: 5, EndYear: 2020, Ongoing: true, Competences: []string{"Go", "Kafka"}},
			{Title: "Developer", Employer: "Initech", Description: "Built reporting services.", StartMonth: 8, StartYear: 2014, EndMonth: 2, EndYear: 2019},
		},
		Educations: []domain.Education{
			{School: "KTH", Degree: "MSc", FieldOfStudy: "Computer Science", StartYear: 2009, EndYear: 2014},
		},
		Courses:     []domain.Course{{Name: "Kubernetes Administrator", Organization: "CNCF", Year: 2021}},
		Engagements: []domain.EngagementPublication{{Kind: domain.KindPublication, Title: "Tracing at scale", Year: 2022, Venue: "GopherCon"}},
		Competences: []domain.Competence{
			{Name: "Go", Level: domain.LevelExpert},
			{Name: "Haskell", Level: domain.LevelWantToLearn},
			{Name: "SQL", Level: domain.LevelProficient},
			{Name: "Terraform", Level: domain.LevelBeginner},
			{Name: "Docker", Level: domain.LevelExpert},
		},
	}
}

func words(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "word%04d", i)
	}
	return b.String()
}

func testImagePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 48, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 48; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(4 * x), G: uint8(6 * y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}
