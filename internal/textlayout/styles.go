/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

// FontSpec selects one of the standard document fonts.
type FontSpec struct {
	Family string
	SizePt float64
	Bold   bool
	Italic bool
}

// StyleString returns the gofpdf style letters ("", "B", "I" or "BI").
func (f FontSpec) StyleString() string {
	s := ""
	if f.Bold {
		s += "B"
	}
	if f.Italic {
		s += "I"
	}
	return s
}

// TextStyle is a named text preset used by both exporters.
// Leading is extra space in points added below each line.
type TextStyle struct {
	Name    string
	Font    FontSpec
	Leading float64
}

// LineHeight is the vertical advance of one line of this style.
func (s TextStyle) LineHeight() float64 { return s.Font.SizePt*1.2 + s.Leading }

// HalfPoints is the font size in OOXML half-point units.
func (s TextStyle) HalfPoints() int { return int(s.Font.SizePt*2 + 0.5) }

const (
	StyleName           = "Name"
	StyleTitle          = "Title"
	StyleSidebarHeading = "SidebarHeading"
	StyleSectionHeading = "SectionHeading"
	StyleBody           = "Body"
	StyleBodyBold       = "BodyBold"
	StyleSmall          = "Small"
	StyleItalic         = "Italic"
)

const defaultFamily = "Helvetica"

var builtinStyles = map[string]TextStyle{
	StyleName:           {Name: StyleName, Font: FontSpec{Family: defaultFamily, SizePt: 20, Bold: true}, Leading: 2},
	StyleTitle:          {Name: StyleTitle, Font: FontSpec{Family: defaultFamily, SizePt: 12}, Leading: 2},
	StyleSidebarHeading: {Name: StyleSidebarHeading, Font: FontSpec{Family: defaultFamily, SizePt: 11, Bold: true}, Leading: 3},
	StyleSectionHeading: {Name: StyleSectionHeading, Font: FontSpec{Family: defaultFamily, SizePt: 16, Bold: true}, Leading: 4},
	StyleBody:           {Name: StyleBody, Font: FontSpec{Family: defaultFamily, SizePt: 10}, Leading: 1},
	StyleBodyBold:       {Name: StyleBodyBold, Font: FontSpec{Family: defaultFamily, SizePt: 10, Bold: true}, Leading: 1},
	StyleSmall:          {Name: StyleSmall, Font: FontSpec{Family: defaultFamily, SizePt: 9}, Leading: 1},
	StyleItalic:         {Name: StyleItalic, Font: FontSpec{Family: defaultFamily, SizePt: 9, Italic: true}, Leading: 1},
}

// GetStyle returns a builtin style preset by name. The second return value is false if
// the style is not found.
func GetStyle(name string) (TextStyle, bool) { s, ok := builtinStyles[name]; return s, ok }

// MustStyle is GetStyle for the names declared in this package.
func MustStyle(name string) TextStyle {
	s, ok := GetStyle(name)
	if !ok {
		panic("textlayout: unknown style " + name)
	}
	return s
}

// ListStyles lists the names of the builtin styles in stable order.
func ListStyles() []string {
	return []string{StyleName, StyleTitle, StyleSidebarHeading, StyleSectionHeading, StyleBody, StyleBodyBold, StyleSmall, StyleItalic}
}
