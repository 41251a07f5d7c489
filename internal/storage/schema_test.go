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
	"strings"
	"testing"

	"competencematrix/internal/domain"
)

func TestEncodedProfileConformsToSchema(t *testing.T) {
	b, err := EncodeProfile(testProfile())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := ValidateProfileJSON(b); err != nil {
		t.Fatalf("schema: %v", err)
	}
}

func TestValidateProfileJSONRejects(t *testing.T) {
	cases := map[string]string{
		"missing name":  `{}`,
		"level range":   `{"displayName":"A","competences":[{"name":"Go","level":5}]}`,
		"bad kind":      `{"displayName":"A","engagementsPublications":[{"kind":"podcast","title":"x"}]}`,
		"month range":   `{"displayName":"A","experiences":[{"title":"t","employer":"e","startMonth":13}]}`,
		"not json":      `{"displayName":`,
		"wrong scalars": `{"displayName":"A","roles":"Developer"}`,
	}
	for name, doc := range cases {
		err := ValidateProfileJSON([]byte(doc))
		if !errors.Is(err, ErrInvalidProfile) {
			t.Fatalf("%s: expected ErrInvalidProfile, got %v", name, err)
		}
	}
}

func TestDecodeProfile(t *testing.T) {
	p, err := DecodeProfile([]byte(`{"displayName":"Åsa","competenceCategories":[{"label":"Cloud","items":[{"name":"AWS","level":3}]}]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.DisplayName != "Åsa" || len(p.Categories) != 1 || p.Categories[0].Items[0].Level != domain.LevelProficient {
		t.Fatalf("unexpected profile: %+v", p)
	}
	if !strings.Contains(string(ProfileSchema()), `"displayName"`) {
		t.Fatalf("schema not embedded")
	}
}
