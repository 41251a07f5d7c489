/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package locale holds the localized heading tables used by the exporters.
// Tables are embedded YAML files keyed by language tag; unknown tags fall back to English.
package locale

import (
	"embed"
	"fmt"
	"strings"

	"competencematrix/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed tables/*.yaml
var tablesFS embed.FS

// LevelNames are the display names of the four competence levels.
type LevelNames struct {
	WantToLearn string `yaml:"want_to_learn"`
	Beginner    string `yaml:"beginner"`
	Proficient  string `yaml:"proficient"`
	Expert      string `yaml:"expert"`
}

// Strings is one language's heading table.
type Strings struct {
	Lang                         string     `yaml:"-"`
	ContactTitle                 string     `yaml:"contact_title"`
	RolesTitle                   string     `yaml:"roles_title"`
	LanguagesTitle               string     `yaml:"languages_title"`
	ExpertiseTitle               string     `yaml:"expertise_title"`
	SelectedProjectsTitle        string     `yaml:"selected_projects_title"`
	Summary                      string     `yaml:"summary"`
	ExperienceTitle              string     `yaml:"experience_title"`
	EducationTitle               string     `yaml:"education_title"`
	CoursesTitle                 string     `yaml:"courses_title"`
	EngagementsPublicationsTitle string     `yaml:"engagements_publications_title"`
	CompetencesTitle             string     `yaml:"competences_title"`
	Ongoing                      string     `yaml:"ongoing"`
	Engagement                   string     `yaml:"engagement"`
	Publication                  string     `yaml:"publication"`
	Levels                       LevelNames `yaml:"levels"`
	Months                       []string   `yaml:"months"`
}

var tables = mustLoadTables()

func mustLoadTables() map[string]Strings {
	out := map[string]Strings{}
	for _, lang := range Supported() {
		data, err := tablesFS.ReadFile("tables/" + lang + ".yaml")
		if err != nil {
			panic(fmt.Sprintf("locale: read table %s: %v", lang, err))
		}
		var s Strings
		if err := yaml.Unmarshal(data, &s); err != nil {
			panic(fmt.Sprintf("locale: parse table %s: %v", lang, err))
		}
		if len(s.Months) != 12 {
			panic(fmt.Sprintf("locale: table %s has %d months", lang, len(s.Months)))
		}
		s.Lang = lang
		out[lang] = s
	}
	return out
}

// Supported lists the language tags with a table, in stable order.
func Supported() []string { return []string{domain.LangEnglish, domain.LangSwedish} }

// Normalize maps a language tag to a supported one ("sv-SE" -> "sv"), defaulting to English.
func Normalize(lang string) string {
	l := strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(l, "-_"); i > 0 {
		l = l[:i]
	}
	if _, ok := tables[l]; ok {
		return l
	}
	return domain.LangEnglish
}

// For returns the string table for lang. The returned value is a private copy.
func For(lang string) Strings {
	s := tables[Normalize(lang)]
	s.Months = append([]string(nil), s.Months...)
	return s
}

// LevelName returns the display name of a competence level.
func (s Strings) LevelName(l domain.Level) string {
	switch l {
	case domain.LevelWantToLearn:
		return s.Levels.WantToLearn
	case domain.LevelBeginner:
		return s.Levels.Beginner
	case domain.LevelProficient:
		return s.Levels.Proficient
	case domain.LevelExpert:
		return s.Levels.Expert
	default:
		return ""
	}
}

// Month returns the short month name for 1..12 and "" otherwise.
func (s Strings) Month(m int) string {
	if m < 1 || m > len(s.Months) {
		return ""
	}
	return s.Months[m-1]
}

// KindName returns the display label for an engagement/publication kind.
func (s Strings) KindName(k domain.EngagementKind) string {
	if k == domain.KindPublication {
		return s.Publication
	}
	return s.Engagement
}
