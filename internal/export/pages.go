/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"log/slog"

	"competencematrix/internal/domain"
)

// avatarImage is a prepared avatar ready to be placed on the page.
type avatarImage struct {
	data []byte
	typ  string
}

// compose lays out the fixed page sequence: personal page, experience (only when
// there is any), education and more, competences.
func (l *layout) compose(p domain.Profile, avatar *avatarImage) {
	l.buildPage1(p, avatar)
	l.buildExperiencePage(p.Experiences)
	l.buildEducationAndMorePage(p)
	l.buildCompetencesPage(p.AllCompetences())
}

func (l *layout) pageDone(name string, first int) {
	l.log.DebugContext(l.ctx, "page composed", slog.String("page", name),
		slog.Int("first", first), slog.Int("last", l.s.PageCount()))
}

// buildPage1 draws the dark sidebar (avatar, contact, roles, languages,
// expertise) and the main column (name, title, summary, selected projects).
// The sidebar is drawn first since the main column may spill onto more pages.
func (l *layout) buildPage1(p domain.Profile, avatar *avatarImage) {
	l.s.AddPage()
	first := l.s.PageCount()
	m := l.m

	l.s.SetFillColor(colorSidebar)
	l.s.Rect(0, 0, m.LeftColumnWidth, m.PageHeight, "F")

	side := m.sidebarColumn()
	y := m.TopMargin
	if avatar != nil {
		d := m.AvatarDiameter
		x := (m.LeftColumnWidth - d) / 2
		l.s.Image("avatar", avatar.data, avatar.typ, x, y, d, d)
		l.s.SetDrawColor(colorWhite)
		l.s.SetLineWidth(1.5)
		l.s.Circle(x+d/2, y+d/2, d/2, "D")
		y += d + m.SectionSpacing
	}
	y = l.contact(y, side, p)
	y = l.roles(y, side, p.Roles)
	y = l.languages(y, side, p.Languages)
	l.expertise(y, side, p.Expertise)

	main := m.mainColumn()
	y = m.TopMargin
	y = l.identity(y, main, p)
	y = l.summary(y, main, p.Summary)
	l.projects(y, main, p.Projects)
	l.pageDone("personal", first)
}

// buildExperiencePage is a no-op for an empty experience list.
func (l *layout) buildExperiencePage(exps []domain.Experience) {
	if len(exps) == 0 {
		return
	}
	l.s.AddPage()
	first := l.s.PageCount()
	l.experience(l.m.TopMargin, l.m.fullColumn(), exps)
	l.pageDone("experience", first)
}

// buildEducationAndMorePage is always emitted, even when all three sections are empty.
func (l *layout) buildEducationAndMorePage(p domain.Profile) {
	l.s.AddPage()
	first := l.s.PageCount()
	c := l.m.fullColumn()
	y := l.education(l.m.TopMargin, c, p.Educations)
	y = l.courses(y, c, p.Courses)
	l.engagements(y, c, p.Engagements)
	l.pageDone("education", first)
}

// buildCompetencesPage draws the title and the level groups. Without any
// competence at levels 2 to 4 only the title and its rule remain.
func (l *layout) buildCompetencesPage(items []domain.Competence) {
	l.s.AddPage()
	first := l.s.PageCount()
	c := l.m.fullColumn()
	y := l.heading(l.m.TopMargin, c, l.str.CompetencesTitle)
	groups := domain.GroupByLevel(items)
	if len(groups) == 0 && len(items) > 0 {
		l.log.InfoContext(l.ctx, "no exportable competences", slog.Int("filtered", len(items)))
	}
	l.competenceGroups(y, c, groups)
	l.pageDone("competences", first)
}
