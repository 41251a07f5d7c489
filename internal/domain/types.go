/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany..
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the CV data model consumed by the exporters.
// A Profile is assembled by the caller (UI, store, backend) and handed to an
// exporter as part of ExportData. Nothing here is mutated during export.

// Profile is the canonical export input.
type Profile struct {
	DisplayName string `json:"displayName"`
	Title       string `json:"title,omitempty"`
	Summary     string `json:"summary,omitempty"`
	// Avatar is either a data URI or a remote reference (URL).
	Avatar string `json:"avatar,omitempty"`

	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	LinkedIn string `json:"linkedIn,omitempty"`

	Roles     []string `json:"roles,omitempty"`
	Languages []string `json:"languages,omitempty"`
	Expertise []string `json:"expertise,omitempty"`

	Projects    []Project               `json:"projects,omitempty"`
	Experiences []Experience            `json:"experiences,omitempty"`
	Educations  []Education             `json:"educations,omitempty"`
	Courses     []Course                `json:"courses,omitempty"`
	Engagements []EngagementPublication `json:"engagementsPublications,omitempty"`
	Competences []Competence            `json:"competences,omitempty"`
	Categories  []CompetenceCategory    `json:"competenceCategories,omitempty"`
}

// Project is a selected customer project shown on the first page.
type Project struct {
	Customer    string `json:"customer"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Experience is one employment entry. Months are 1..12; 0 means unknown.
type Experience struct {
	Title       string   `json:"title"`
	Employer    string   `json:"employer"`
	Description string   `json:"description,omitempty"`
	StartMonth  int      `json:"startMonth,omitempty"`
	StartYear   int      `json:"startYear,omitempty"`
	EndMonth    int      `json:"endMonth,omitempty"`
	EndYear     int      `json:"endYear,omitempty"`
	Ongoing     bool     `json:"ongoing,omitempty"`
	Competences []string `json:"competences,omitempty"`
}

// Education is one school entry.
type Education struct {
	School       string `json:"school"`
	Degree       string `json:"degree,omitempty"`
	FieldOfStudy string `json:"fieldOfStudy,omitempty"`
	StartYear    int    `json:"startYear,omitempty"`
	EndYear      int    `json:"endYear,omitempty"`
	Ongoing      bool   `json:"ongoing,omitempty"`
	Description  string `json:"description,omitempty"`
}

// Course is a course or certification.
type Course struct {
	Name         string `json:"name"`
	Organization string `json:"organization,omitempty"`
	Year         int    `json:"year,omitempty"`
}

// EngagementKind distinguishes speaking engagements from publications.
type EngagementKind string

const (
	KindEngagement  EngagementKind = "engagement"
	KindPublication EngagementKind = "publication"
)

// EngagementPublication is a talk, workshop or written publication.
// Venue holds the location for engagements and the publication name otherwise.
type EngagementPublication struct {
	Kind        EngagementKind `json:"kind"`
	Title       string         `json:"title"`
	Year        int            `json:"year,omitempty"`
	Venue       string         `json:"venue,omitempty"`
	Description string         `json:"description,omitempty"`
	URL         string         `json:"url,omitempty"`
}

// Language tags supported by the string tables.
const (
	LangEnglish = "en"
	LangSwedish = "sv"
)

// ExportData is the full input of one export call.
type ExportData struct {
	Profile  Profile `json:"profile"`
	Language string  `json:"language"`
}

// HasText reports whether s contains anything besides whitespace.
func HasText(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return true
		}
	}
	return false
}
