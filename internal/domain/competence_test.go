/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"fmt"
	"testing"
)

func TestGroupByLevelFiltersAndSortsDescending(t *testing.T) {
	items := []Competence{
		{Name: "Rust", Level: LevelWantToLearn},
		{Name: "Go", Level: LevelExpert},
		{Name: "SQL", Level: LevelBeginner},
		{Name: "Kotlin", Level: LevelWantToLearn},
		{Name: "Docker", Level: LevelExpert},
		{Name: "Bogus", Level: 7},
	}
	groups := GroupByLevel(items)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups (4 and 2), got %d: %+v", len(groups), groups)
	}
	if groups[0].Level != LevelExpert || groups[1].Level != LevelBeginner {
		t.Fatalf("groups not in descending order: %v, %v", groups[0].Level, groups[1].Level)
	}
	if got := fmt.Sprint(groups[0].Names()); got != "[Go Docker]" {
		t.Fatalf("expert group should keep input order, got %s", got)
	}
	for _, g := range groups {
		for _, c := range g.Items {
			if c.Level == LevelWantToLearn {
				t.Fatalf("level 1 competence %q leaked into export", c.Name)
			}
		}
	}
}

func TestGroupByLevelAllAspirational(t *testing.T) {
	groups := GroupByLevel([]Competence{{Name: "Haskell", Level: LevelWantToLearn}})
	if len(groups) != 0 {
		t.Fatalf("expected no groups, got %+v", groups)
	}
}

func TestExportCategoriesDerivedAndPregrouped(t *testing.T) {
	label := func(l Level) string { return fmt.Sprintf("L%d", l) }

	derived := Profile{Competences: []Competence{{Name: "Go", Level: 3}, {Name: "Elm", Level: 1}}}.ExportCategories(label)
	if len(derived) != 1 || derived[0].Label != "L3" || len(derived[0].Items) != 1 {
		t.Fatalf("unexpected derived categories: %+v", derived)
	}

	pre := Profile{Categories: []CompetenceCategory{
		{Label: "Backend", Items: []Competence{{Name: "Go", Level: 4}, {Name: "Zig", Level: 1}}},
		{Label: "Dreams", Items: []Competence{{Name: "Elm", Level: 1}}},
	}}
	cats := pre.ExportCategories(label)
	if len(cats) != 1 || cats[0].Label != "Backend" || len(cats[0].Items) != 1 {
		t.Fatalf("unexpected pre-grouped categories: %+v", cats)
	}
	if all := pre.AllCompetences(); len(all) != 3 {
		t.Fatalf("AllCompetences should flatten categories, got %d", len(all))
	}
}
