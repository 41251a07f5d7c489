/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"competencematrix/internal/assets"
	"competencematrix/internal/domain"
	"competencematrix/internal/locale"
	applog "competencematrix/internal/log"
)

// DOCXExporter builds a WordprocessingML package. The first page is a
// borderless two-cell table: a light gray-blue sidebar with dark text (dark
// fills render unreliably in word processors) next to a white main cell.
type DOCXExporter struct {
	opts options
}

// NewDOCXExporter returns a DOCX exporter.
func NewDOCXExporter(opts ...Option) *DOCXExporter { return &DOCXExporter{opts: buildOptions(opts)} }

func (e *DOCXExporter) Format() Format { return FormatDOCX }

// Generate renders data. The result is byte-identical for identical input.
func (e *DOCXExporter) Generate(ctx context.Context, data domain.ExportData) (*Document, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	p := data.Profile
	str := locale.For(data.Language)
	ctx = applog.WithExport(ctx, string(FormatDOCX), str.Lang)
	logger := e.opts.logger

	var img *avatarImage
	if raw := e.opts.resolver.Load(ctx, p.Avatar); raw != nil && !assets.IsPlaceholder(raw) {
		px := int(e.opts.metrics.AvatarDiameter * avatarPixelsPerPoint)
		if b, typ, err := assets.Normalize(assets.CircleCrop(raw, px)); err == nil {
			img = &avatarImage{data: b, typ: typ}
		} else {
			logger.WarnContext(ctx, "avatar skipped", slog.Any("err", err))
		}
	}

	body := docxBody(p, str, img != nil, e.opts.metrics.AvatarDiameter)
	out, err := writeDOCXPackage(documentTitle(p), p.DisplayName, str.Lang, body, img)
	if err != nil {
		return nil, &GenerateError{Format: FormatDOCX, Message: "write package", Cause: err}
	}
	logger.InfoContext(ctx, "export complete", slog.Int("bytes", len(out)))
	return &Document{
		Data:     out,
		MIMEType: MIMEDOCX,
		Filename: FilenameFor(p.DisplayName, FormatDOCX.Ext()),
	}, nil
}

func docxBody(p domain.Profile, str locale.Strings, withAvatar bool, avatarPt float64) string {
	var left, right, rest strings.Builder

	side := runProps{Color: docxSidebarText}
	if withAvatar {
		left.WriteString(paragraph(paraProps{SpacingAfter: 200}, inlinePicture("rIdAvatar", avatarPt)))
	}
	sideList := func(title string, items []string, bullets bool) {
		items = nonEmpty(items)
		if len(items) == 0 {
			return
		}
		left.WriteString(docxHeading(title, 24, docxSidebarText))
		for _, it := range items {
			left.WriteString(paragraph(paraProps{Bullet: bullets, SpacingAfter: 40}, textRun(it, side)))
		}
	}
	sideList(str.ContactTitle, []string{p.Email, p.Phone, p.Location, p.LinkedIn}, false)
	sideList(str.RolesTitle, p.Roles, true)
	sideList(str.LanguagesTitle, p.Languages, true)
	sideList(str.ExpertiseTitle, p.Expertise, true)

	if domain.HasText(p.DisplayName) {
		right.WriteString(paragraph(paraProps{SpacingAfter: 40}, textRun(p.DisplayName, runProps{Bold: true, Size: 40})))
	}
	if domain.HasText(p.Title) {
		right.WriteString(paragraph(paraProps{SpacingAfter: 240}, textRun(p.Title, runProps{Size: 24, Color: docxMutedText})))
	}
	if domain.HasText(p.Summary) {
		right.WriteString(docxHeading(str.Summary, 28, ""))
		right.WriteString(docxParagraphs(p.Summary, runProps{}))
	}
	var projects []domain.Project
	for _, pr := range p.Projects {
		if domain.HasText(pr.Title) || domain.HasText(pr.Customer) || domain.HasText(pr.Description) {
			projects = append(projects, pr)
		}
	}
	if len(projects) > 0 {
		right.WriteString(docxHeading(str.SelectedProjectsTitle, 28, ""))
		for _, pr := range projects {
			right.WriteString(docxEntry(
				docxLine{pr.Title, runProps{Bold: true}},
				docxLine{pr.Customer, runProps{Italic: true, Color: docxMutedText}},
				docxLine{pr.Description, runProps{}},
			))
		}
	}

	if len(p.Experiences) > 0 {
		rest.WriteString(docxHeading(str.ExperienceTitle, 28, ""))
		for _, e := range p.Experiences {
			meta := joinNonEmpty(", ", DateRange(str, e), e.Employer)
			lines := []docxLine{
				{e.Title, runProps{Bold: true}},
				{meta, runProps{Italic: true, Color: docxMutedText}},
				{e.Description, runProps{}},
			}
			if comp := nonEmpty(e.Competences); len(comp) > 0 {
				lines = append(lines, docxLine{strings.Join(comp, " • "), runProps{Italic: true, Size: 18, Color: docxMutedText}})
			}
			rest.WriteString(docxEntry(lines...))
		}
	}
	if len(p.Educations) > 0 {
		rest.WriteString(docxHeading(str.EducationTitle, 28, ""))
		for _, ed := range p.Educations {
			rest.WriteString(docxEntry(
				docxLine{joinNonEmpty(", ", ed.Degree, ed.FieldOfStudy), runProps{Bold: true}},
				docxLine{joinNonEmpty(", ", ed.School, YearRange(str, ed.StartYear, ed.EndYear, ed.Ongoing)), runProps{Italic: true, Color: docxMutedText}},
				docxLine{ed.Description, runProps{}},
			))
		}
	}
	if len(p.Courses) > 0 {
		rest.WriteString(docxHeading(str.CoursesTitle, 28, ""))
		for _, c := range p.Courses {
			rest.WriteString(docxEntry(
				docxLine{c.Name, runProps{Bold: true}},
				docxLine{joinNonEmpty(", ", c.Organization, yearString(c.Year)), runProps{Color: docxMutedText}},
			))
		}
	}
	if len(p.Engagements) > 0 {
		rest.WriteString(docxHeading(str.EngagementsPublicationsTitle, 28, ""))
		for _, it := range p.Engagements {
			rest.WriteString(docxEntry(
				docxLine{it.Title, runProps{Bold: true}},
				docxLine{joinNonEmpty(", ", str.KindName(it.Kind), it.Venue, yearString(it.Year)), runProps{Italic: true, Color: docxMutedText}},
				docxLine{it.Description, runProps{}},
				docxLine{it.URL, runProps{Size: 18, Color: docxMutedText}},
			))
		}
	}
	if cats := p.ExportCategories(str.LevelName); len(cats) > 0 {
		rest.WriteString(docxHeading(str.CompetencesTitle, 28, ""))
		for _, cat := range cats {
			rest.WriteString(paragraph(paraProps{SpacingBefore: 120, SpacingAfter: 40, KeepNext: true}, textRun(cat.Label, runProps{Bold: true})))
			for _, c := range cat.Items {
				rest.WriteString(paragraph(paraProps{Bullet: true, SpacingAfter: 20}, textRun(c.Name, runProps{})))
			}
		}
	}

	return sidebarTable(left.String(), right.String()) + pageBreak + rest.String()
}

func docxHeading(title string, size int, color string) string {
	return paragraph(paraProps{SpacingBefore: 240, SpacingAfter: 120, BottomRule: true, KeepNext: true},
		textRun(title, runProps{Bold: true, Size: size, Color: color}))
}

type docxLine struct {
	text  string
	props runProps
}

// docxEntry writes the non-empty lines of one record as consecutive paragraphs.
func docxEntry(lines ...docxLine) string {
	var b strings.Builder
	for _, ln := range lines {
		if !domain.HasText(ln.text) {
			continue
		}
		b.WriteString(docxParagraphs(ln.text, ln.props))
	}
	if b.Len() == 0 {
		return ""
	}
	return b.String() + paragraph(paraProps{SpacingAfter: 120})
}

// docxParagraphs splits text on blank-line boundaries into paragraphs.
func docxParagraphs(text string, rp runProps) string {
	var b strings.Builder
	for _, part := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b.WriteString(paragraph(paraProps{SpacingAfter: 60}, textRun(part, rp)))
	}
	return b.String()
}

func joinNonEmpty(sep string, parts ...string) string {
	return strings.Join(nonEmpty(parts), sep)
}

// writeDOCXPackage zips the parts in a fixed order with a fixed modification time.
func writeDOCXPackage(title, creator, lang, body string, img *avatarImage) ([]byte, error) {
	imgExt, imgMIME, imgTarget := "", "", ""
	if img != nil {
		imgExt = img.typ
		imgMIME = "image/" + img.typ
		if img.typ == "jpg" {
			imgMIME = "image/jpeg"
		}
		imgTarget = "media/avatar." + img.typ
	}
	type part struct {
		name string
		data []byte
	}
	parts := []part{
		{"[Content_Types].xml", []byte(contentTypesXML(imgExt, imgMIME))},
		{"_rels/.rels", []byte(rootRelsXML)},
		{"docProps/core.xml", []byte(corePropsXML(title, creator, lang))},
		{"docProps/app.xml", []byte(appPropsXML)},
		{"word/document.xml", []byte(documentXML(body))},
		{"word/styles.xml", []byte(stylesXML())},
		{"word/numbering.xml", []byte(numberingXML)},
		{"word/_rels/document.xml.rels", []byte(documentRelsXML(imgTarget))},
	}
	if img != nil {
		parts = append(parts, part{"word/" + imgTarget, img.data})
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range parts {
		if err := addZipFile(zw, p.name, p.data); err != nil {
			_ = zw.Close()
			return nil, fmt.Errorf("write %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}

func addZipFile(zw *zip.Writer, name string, data []byte) error {
	hdr := &zip.FileHeader{Name: name, Method: zip.Deflate, Modified: fixedTime}
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
