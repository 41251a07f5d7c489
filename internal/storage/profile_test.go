/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"competencematrix/internal/domain"
)

func testProfile() domain.Profile {
	return domain.Profile{
		DisplayName: "Anna Berg",
		Title:       "Engineer",
		Roles:       []string{"Developer"},
		Experiences: []domain.Experience{{Title: "Engineer", Employer: "Acme", StartMonth: 3, StartYear: 2019, Ongoing: true}},
		Engagements: []domain.EngagementPublication{{Kind: domain.KindEngagement, Title: "Talk", Year: 2023}},
		Competences: []domain.Competence{{Name: "Go", Level: domain.LevelExpert}, {Name: "Elm", Level: domain.LevelWantToLearn}},
	}
}

func TestSaveAndLoadProfileFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anna.json")
	if err := SaveProfileFile(path, testProfile()); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := LoadProfileFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.DisplayName != "Anna Berg" || len(got.Competences) != 2 || !got.Experiences[0].Ongoing {
		t.Fatalf("unexpected profile: %+v", got)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestSaveProfileFileCreatesBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anna.json")
	p := testProfile()
	if err := SaveProfileFile(path, p); err != nil {
		t.Fatalf("save: %v", err)
	}
	if b, _ := Backups(path); len(b) != 0 {
		t.Fatalf("first save must not create a backup, got %v", b)
	}
	p.Title = "Staff Engineer"
	if err := SaveProfileFile(path, p); err != nil {
		t.Fatalf("save again: %v", err)
	}
	backups, err := Backups(path)
	if err != nil || len(backups) != 1 {
		t.Fatalf("expected one backup, got %v (%v)", backups, err)
	}
	b, _ := os.ReadFile(backups[0])
	if !strings.Contains(string(b), `"title": "Engineer"`) {
		t.Fatalf("backup should hold the previous content")
	}
}

func TestLoadProfileFileFallsBackToBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anna.json")
	p := testProfile()
	if err := SaveProfileFile(path, p); err != nil {
		t.Fatalf("save: %v", err)
	}
	p.Title = "touched"
	if err := SaveProfileFile(path, p); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := os.WriteFile(path, []byte("{ this is not json"), 0o644); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	got, err := LoadProfileFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Title != "Engineer" {
		t.Fatalf("expected backup content, got title %q", got.Title)
	}
}

func TestLoadProfileFileWithoutBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte(`{"displayName": 42}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := LoadProfileFile(path)
	if !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("expected ErrInvalidProfile, got %v", err)
	}
	if _, err := LoadProfileFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
