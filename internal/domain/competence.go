/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"sort"

	"github.com/samber/lo"
)

// Level is a competence proficiency rating.
type Level int

const (
	LevelWantToLearn Level = 1
	LevelBeginner    Level = 2
	LevelProficient  Level = 3
	LevelExpert      Level = 4
)

// Exportable reports whether competences at this level appear in generated documents.
// Level 1 is aspirational and never exported.
func (l Level) Exportable() bool { return l >= LevelBeginner && l <= LevelExpert }

// Competence is a single rated skill.
type Competence struct {
	Name  string `json:"name"`
	Level Level  `json:"level"`
}

// CompetenceCategory is a labeled group of competences, labeled by level name.
type CompetenceCategory struct {
	Label string       `json:"label"`
	Items []Competence `json:"items"`
}

// LevelGroup holds the exportable competences of a single level in input order.
type LevelGroup struct {
	Level Level
	Items []Competence
}

// Names returns the competence names of the group.
func (g LevelGroup) Names() []string {
	return lo.Map(g.Items, func(c Competence, _ int) string { return c.Name })
}

// GroupByLevel drops non-exportable competences and groups the rest by level,
// highest level first. Empty levels are omitted.
func GroupByLevel(items []Competence) []LevelGroup {
	kept := lo.Filter(items, func(c Competence, _ int) bool {
		return c.Level.Exportable() && HasText(c.Name)
	})
	byLevel := lo.GroupBy(kept, func(c Competence) Level { return c.Level })
	groups := make([]LevelGroup, 0, len(byLevel))
	for lvl, list := range byLevel {
		groups = append(groups, LevelGroup{Level: lvl, Items: list})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Level > groups[j].Level })
	return groups
}

// CategoriesFromCompetences builds level-labeled categories in descending level order.
// label maps a level to its display name.
func CategoriesFromCompetences(items []Competence, label func(Level) string) []CompetenceCategory {
	groups := GroupByLevel(items)
	out := make([]CompetenceCategory, 0, len(groups))
	for _, g := range groups {
		out = append(out, CompetenceCategory{Label: label(g.Level), Items: g.Items})
	}
	return out
}

// ExportCategories returns the categories to render for p. Pre-grouped categories win
// when present; their level-1 items are still dropped and empty categories skipped.
func (p Profile) ExportCategories(label func(Level) string) []CompetenceCategory {
	if len(p.Categories) == 0 {
		return CategoriesFromCompetences(p.Competences, label)
	}
	out := make([]CompetenceCategory, 0, len(p.Categories))
	for _, c := range p.Categories {
		items := lo.Filter(c.Items, func(it Competence, _ int) bool {
			return it.Level.Exportable() && HasText(it.Name)
		})
		if len(items) == 0 {
			continue
		}
		out = append(out, CompetenceCategory{Label: c.Label, Items: items})
	}
	return out
}

// AllCompetences returns the flat competence list, falling back to the items of
// pre-grouped categories when no flat list is present.
func (p Profile) AllCompetences() []Competence {
	if len(p.Competences) > 0 {
		return p.Competences
	}
	return lo.FlatMap(p.Categories, func(c CompetenceCategory, _ int) []Competence { return c.Items })
}
