/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"competencematrix/internal/domain"
)

var (
	// ErrNotFound is returned when no document exists for an id.
	ErrNotFound = errors.New("profile not found")
	// ErrInvalidProfile is returned when a document does not conform to the profile schema.
	ErrInvalidProfile = errors.New("invalid profile")
)

//go:embed schemas/profile.schema.json
var schemaFS embed.FS

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func profileSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		b, err := schemaFS.ReadFile("schemas/profile.schema.json")
		if err != nil {
			schemaErr = fmt.Errorf("read profile schema: %w", err)
			return
		}
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(b))
	})
	return schema, schemaErr
}

// ProfileSchema returns the raw JSON schema profile documents are validated against.
func ProfileSchema() []byte {
	b, _ := schemaFS.ReadFile("schemas/profile.schema.json")
	return b
}

// ValidateProfileJSON checks data against the profile schema. Violations are reported as
// ErrInvalidProfile with the individual problems joined into the message.
func ValidateProfileJSON(data []byte) error {
	s, err := profileSchema()
	if err != nil {
		return err
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	if res.Valid() {
		return nil
	}
	problems := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		problems = append(problems, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidProfile, strings.Join(problems, "; "))
}

// DecodeProfile validates data and unmarshals it into a Profile.
func DecodeProfile(data []byte) (domain.Profile, error) {
	var p domain.Profile
	if err := ValidateProfileJSON(data); err != nil {
		return p, err
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	return p, nil
}

// EncodeProfile marshals p in the indented on-disk form.
func EncodeProfile(p domain.Profile) ([]byte, error) {
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal profile: %w", err)
	}
	return append(b, '\n'), nil
}
