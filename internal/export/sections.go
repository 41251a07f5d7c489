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
	"strconv"
	"strings"

	"competencematrix/internal/domain"
	"competencematrix/internal/locale"
	"competencematrix/internal/textlayout"
)

// layout holds the collaborators of one PDF generation. The vertical cursor is
// not part of it: every builder receives y and returns the next y.
type layout struct {
	ctx context.Context
	s   Surface
	m   Metrics
	str locale.Strings
	log *slog.Logger
}

// run is a piece of text in one style inside a column block.
type run struct {
	style string
	color Color
	text  string
}

func (l *layout) use(style string, c Color) textlayout.TextStyle {
	st := textlayout.MustStyle(style)
	l.s.SetStyle(st)
	l.s.SetTextColor(c)
	return st
}

// text draws s with its top edge at y.
func (l *layout) text(x, y float64, st textlayout.TextStyle, s string) {
	l.s.Text(x, y+st.Font.SizePt*0.85, s)
}

// newPage appends a page and returns the cursor at the continuation offset.
func (l *layout) newPage() float64 {
	l.s.AddPage()
	return l.m.ContinuationTop
}

// ensure moves to a fresh page when need points do not fit below y in a column that may break.
func (l *layout) ensure(y, need float64, c column) float64 {
	if y+need <= l.m.ContentBottom() || !c.Breaks || y <= l.m.ContinuationTop {
		return y
	}
	return l.newPage()
}

func (l *layout) rule(y float64, c column, width float64) {
	l.s.SetDrawColor(c.Rule)
	l.s.SetLineWidth(width)
	l.s.Line(c.X, y, c.X+c.Width, y)
}

// heading draws a bold title, a thin rule under it and the header gap.
func (l *layout) heading(y float64, c column, title string) float64 {
	name := textlayout.StyleSectionHeading
	if c.Sidebar {
		name = textlayout.StyleSidebarHeading
	}
	st := textlayout.MustStyle(name)
	y = l.ensure(y, l.headingHeight(c)+l.m.ItemLineHeight, c)
	l.use(name, c.Text)
	l.text(c.X, y, st, title)
	y += st.LineHeight() + l.m.HeadingUnderlineGap
	l.rule(y, c, 0.6)
	return y + l.m.SectionHeaderGap
}

// flow draws runs top to bottom, wrapping to the column width. In a breaking
// column, lines that do not fit continue on a new page; otherwise drawing stops
// at the bottom margin.
func (l *layout) flow(y float64, c column, runs []run) float64 {
	bottom := l.m.ContentBottom()
	for _, r := range runs {
		if !domain.HasText(r.text) {
			continue
		}
		st := l.use(r.style, r.color)
		for _, ln := range textlayout.Wrap(l.s, r.text, c.Width) {
			if y+st.LineHeight() > bottom {
				if !c.Breaks {
					l.log.WarnContext(l.ctx, "text clipped at bottom margin", slog.String("text", ln))
					return bottom
				}
				y = l.newPage()
				l.use(r.style, r.color)
			}
			l.text(c.X, y, st, ln)
			y += st.LineHeight()
		}
	}
	return y
}

// headingHeight is the vertical space heading consumes in column c.
func (l *layout) headingHeight(c column) float64 {
	name := textlayout.StyleSectionHeading
	if c.Sidebar {
		name = textlayout.StyleSidebarHeading
	}
	return textlayout.MustStyle(name).LineHeight() + l.m.HeadingUnderlineGap + l.m.SectionHeaderGap
}

// list draws a headed list of one-line items, optionally bulleted. Items that
// would cross the bottom margin are dropped and the cursor is clamped to it.
// In a column that cannot break, a list whose heading and first item do not
// fit is skipped entirely.
func (l *layout) list(y float64, c column, section, title string, items []string, bullets bool) float64 {
	items = nonEmpty(items)
	if len(items) == 0 {
		return y
	}
	textX := c.X
	if bullets {
		textX += 2*l.m.BulletRadius + l.m.BulletPadding
	}
	bottom := l.m.ContentBottom()
	if !c.Breaks {
		l.use(textlayout.StyleBody, c.Text)
		first := textlayout.Wrap(l.s, items[0], c.X+c.Width-textX)
		if y+l.headingHeight(c)+float64(len(first))*l.m.ItemLineHeight > bottom {
			l.log.WarnContext(l.ctx, "section skipped at bottom margin",
				slog.String("section", section), slog.Int("dropped", len(items)))
			return y
		}
	}
	y = l.heading(y, c, title)
	st := l.use(textlayout.StyleBody, c.Text)
	l.s.SetFillColor(c.Text)
	for i, item := range items {
		lines := textlayout.Wrap(l.s, item, c.X+c.Width-textX)
		if y+float64(len(lines))*l.m.ItemLineHeight > bottom {
			l.log.WarnContext(l.ctx, "list truncated at bottom margin",
				slog.String("section", section), slog.Int("dropped", len(items)-i))
			return bottom
		}
		if bullets {
			l.s.Circle(c.X+l.m.BulletRadius, y+st.Font.SizePt*0.55, l.m.BulletRadius, "F")
		}
		for _, ln := range lines {
			l.text(textX, y, st, ln)
			y += l.m.ItemLineHeight
		}
	}
	return y + l.m.SectionSpacing
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if t := strings.TrimSpace(it); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (l *layout) contact(y float64, c column, p domain.Profile) float64 {
	return l.list(y, c, "contact", l.str.ContactTitle, []string{p.Email, p.Phone, p.Location, p.LinkedIn}, false)
}

func (l *layout) roles(y float64, c column, roles []string) float64 {
	return l.list(y, c, "roles", l.str.RolesTitle, roles, true)
}

func (l *layout) languages(y float64, c column, langs []string) float64 {
	return l.list(y, c, "languages", l.str.LanguagesTitle, langs, true)
}

func (l *layout) expertise(y float64, c column, items []string) float64 {
	return l.list(y, c, "expertise", l.str.ExpertiseTitle, items, true)
}

// identity draws the name and professional title at the top of the main column.
func (l *layout) identity(y float64, c column, p domain.Profile) float64 {
	start := y
	y = l.flow(y, c, []run{
		{style: textlayout.StyleName, color: colorBlack, text: p.DisplayName},
		{style: textlayout.StyleTitle, color: colorMuted, text: p.Title},
	})
	if y == start {
		return y
	}
	return y + l.m.SectionSpacing
}

func (l *layout) summary(y float64, c column, text string) float64 {
	if !domain.HasText(text) {
		return y
	}
	y = l.heading(y, c, l.str.Summary)
	y = l.flow(y, c, []run{{style: textlayout.StyleBody, color: c.Text, text: text}})
	return y + l.m.SectionSpacing
}

func (l *layout) projects(y float64, c column, projects []domain.Project) float64 {
	var kept []domain.Project
	for _, p := range projects {
		if domain.HasText(p.Title) || domain.HasText(p.Customer) || domain.HasText(p.Description) {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return y
	}
	y = l.heading(y, c, l.str.SelectedProjectsTitle)
	for i, p := range kept {
		if i > 0 {
			y += l.m.EntryGap
		}
		y = l.ensure(y, 2*l.m.ItemLineHeight, c)
		y = l.flow(y, c, []run{
			{style: textlayout.StyleBodyBold, color: c.Text, text: p.Title},
			{style: textlayout.StyleItalic, color: colorMuted, text: p.Customer},
			{style: textlayout.StyleBody, color: c.Text, text: p.Description},
		})
	}
	return y + l.m.SectionSpacing
}

// entry draws one two-column row: a short left block that never breaks and a
// right block that may continue on following pages. A thin divider follows
// unless last is set.
func (l *layout) entry(y float64, c column, left, right []run, last bool) float64 {
	lc, rc := l.m.split(c)
	lc.Breaks = false
	need := l.blockHeight(lc, left)
	if first := l.blockHeight(rc, right[:1]); first > need {
		need = first
	}
	y = l.ensure(y, need, c)
	page := l.s.PageCount()
	ly := l.flow(y, lc, left)
	ry := l.flow(y, rc, right)
	if l.s.PageCount() == page && ly > ry {
		ry = ly
	}
	y = ry
	if last {
		return y
	}
	y += l.m.EntryGap
	if y < l.m.ContentBottom() {
		l.rule(y, c, 0.3)
	}
	return y + l.m.EntryGap
}

func (l *layout) blockHeight(c column, runs []run) float64 {
	h := 0.0
	for _, r := range runs {
		if !domain.HasText(r.text) {
			continue
		}
		st := l.use(r.style, r.color)
		h += float64(len(textlayout.Wrap(l.s, r.text, c.Width))) * st.LineHeight()
	}
	return h
}

func (l *layout) experience(y float64, c column, exps []domain.Experience) float64 {
	if len(exps) == 0 {
		return y
	}
	y = l.heading(y, c, l.str.ExperienceTitle)
	for i, e := range exps {
		left := []run{
			{style: textlayout.StyleBodyBold, color: c.Text, text: DateRange(l.str, e)},
			{style: textlayout.StyleSmall, color: colorMuted, text: e.Employer},
		}
		right := []run{
			{style: textlayout.StyleBodyBold, color: c.Text, text: e.Title},
			{style: textlayout.StyleBody, color: c.Text, text: e.Description},
		}
		if comp := nonEmpty(e.Competences); len(comp) > 0 {
			right = append(right, run{style: textlayout.StyleItalic, color: colorMuted, text: strings.Join(comp, " • ")})
		}
		y = l.entry(y, c, left, right, i == len(exps)-1)
	}
	return y + l.m.SectionSpacing
}

func (l *layout) education(y float64, c column, eds []domain.Education) float64 {
	if len(eds) == 0 {
		return y
	}
	y = l.heading(y, c, l.str.EducationTitle)
	for i, e := range eds {
		degree := e.Degree
		if domain.HasText(e.FieldOfStudy) {
			if domain.HasText(degree) {
				degree += ", "
			}
			degree += e.FieldOfStudy
		}
		left := []run{{style: textlayout.StyleBodyBold, color: c.Text, text: YearRange(l.str, e.StartYear, e.EndYear, e.Ongoing)}}
		right := []run{
			{style: textlayout.StyleBodyBold, color: c.Text, text: degree},
			{style: textlayout.StyleSmall, color: colorMuted, text: e.School},
			{style: textlayout.StyleBody, color: c.Text, text: e.Description},
		}
		y = l.entry(y, c, left, right, i == len(eds)-1)
	}
	return y + l.m.SectionSpacing
}

func (l *layout) courses(y float64, c column, courses []domain.Course) float64 {
	if len(courses) == 0 {
		return y
	}
	y = l.heading(y, c, l.str.CoursesTitle)
	for i, cr := range courses {
		left := []run{{style: textlayout.StyleBodyBold, color: c.Text, text: yearString(cr.Year)}}
		right := []run{
			{style: textlayout.StyleBodyBold, color: c.Text, text: cr.Name},
			{style: textlayout.StyleSmall, color: colorMuted, text: cr.Organization},
		}
		y = l.entry(y, c, left, right, i == len(courses)-1)
	}
	return y + l.m.SectionSpacing
}

func (l *layout) engagements(y float64, c column, items []domain.EngagementPublication) float64 {
	if len(items) == 0 {
		return y
	}
	y = l.heading(y, c, l.str.EngagementsPublicationsTitle)
	for i, it := range items {
		left := []run{
			{style: textlayout.StyleBodyBold, color: c.Text, text: yearString(it.Year)},
			{style: textlayout.StyleSmall, color: colorMuted, text: l.str.KindName(it.Kind)},
		}
		right := []run{
			{style: textlayout.StyleBodyBold, color: c.Text, text: it.Title},
			{style: textlayout.StyleSmall, color: colorMuted, text: it.Venue},
			{style: textlayout.StyleBody, color: c.Text, text: it.Description},
			{style: textlayout.StyleSmall, color: colorMuted, text: it.URL},
		}
		y = l.entry(y, c, left, right, i == len(items)-1)
	}
	return y + l.m.SectionSpacing
}

// competenceGroups draws level groups, highest level first. A group that runs
// past the bottom margin continues on a new page with its label printed again.
func (l *layout) competenceGroups(y float64, c column, groups []domain.LevelGroup) float64 {
	lc, rc := l.m.split(c)
	label := textlayout.MustStyle(textlayout.StyleBodyBold)
	body := textlayout.MustStyle(textlayout.StyleBody)
	bottom := l.m.ContentBottom()
	for i, g := range groups {
		if i > 0 {
			y += l.m.EntryGap
		}
		name := l.str.LevelName(g.Level)
		l.use(textlayout.StyleBody, c.Text)
		lines := textlayout.JoinInline(l.s, g.Names(), ", ", rc.Width)
		y = l.ensure(y, body.LineHeight(), c)
		l.use(textlayout.StyleBodyBold, c.Text)
		l.text(lc.X, y, label, name)
		for _, ln := range lines {
			if y+body.LineHeight() > bottom {
				y = l.newPage()
				l.use(textlayout.StyleBodyBold, c.Text)
				l.text(lc.X, y, label, name)
			}
			l.use(textlayout.StyleBody, c.Text)
			l.text(rc.X, y, body, ln)
			y += body.LineHeight()
		}
	}
	return y
}

func yearString(y int) string {
	if y <= 0 {
		return ""
	}
	return strconv.Itoa(y)
}

func monthYear(str locale.Strings, month, year int) string {
	if year <= 0 {
		return ""
	}
	if m := str.Month(month); m != "" {
		return m + " " + strconv.Itoa(year)
	}
	return strconv.Itoa(year)
}

func joinRange(start, end string) string {
	switch {
	case start == "":
		return end
	case end == "":
		return start
	}
	return start + " - " + end
}

// DateRange formats "{startMonth} {startYear} - {endMonth} {endYear}". When the
// experience is ongoing the end is replaced by the localized ongoing token,
// whatever end values the record carries.
func DateRange(str locale.Strings, e domain.Experience) string {
	end := monthYear(str, e.EndMonth, e.EndYear)
	if e.Ongoing {
		end = str.Ongoing
	}
	return joinRange(monthYear(str, e.StartMonth, e.StartYear), end)
}

// YearRange is DateRange for year-only records.
func YearRange(str locale.Strings, start, end int, ongoing bool) string {
	e := yearString(end)
	if ongoing {
		e = str.Ongoing
	}
	return joinRange(yearString(start), e)
}
