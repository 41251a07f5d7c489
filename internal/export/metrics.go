/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

// Metrics is the fixed page geometry in points. Origin is the top-left corner.
type Metrics struct {
	PageWidth       float64
	PageHeight      float64
	LeftColumnWidth float64
	Padding         float64
	TopMargin       float64
	BottomMargin    float64
	// ContinuationTop is where the cursor restarts on a page appended mid-section.
	ContinuationTop float64

	HeadingUnderlineGap float64
	SectionHeaderGap    float64
	SectionSpacing      float64
	ItemLineHeight      float64
	BulletRadius        float64
	BulletPadding       float64

	AvatarDiameter float64
	// DateColumnWidth is the left sub-column of two-column rows (dates, level labels).
	DateColumnWidth float64
	ColumnGutter    float64
	EntryGap        float64
}

// ComputeMetrics returns the A4 layout: 595x842pt, a sidebar of 40% page width,
// 24pt side padding and a 30pt bottom margin.
func ComputeMetrics() Metrics {
	const w = 595.0
	return Metrics{
		PageWidth:           w,
		PageHeight:          842,
		LeftColumnWidth:     w * 0.4,
		Padding:             24,
		TopMargin:           40,
		BottomMargin:        30,
		ContinuationTop:     40,
		HeadingUnderlineGap: 4,
		SectionHeaderGap:    8,
		SectionSpacing:      16,
		ItemLineHeight:      14,
		BulletRadius:        1.8,
		BulletPadding:       9,
		AvatarDiameter:      110,
		DateColumnWidth:     120,
		ColumnGutter:        12,
		EntryGap:            8,
	}
}

// ContentBottom is the lowest y any content may reach.
func (m Metrics) ContentBottom() float64 { return m.PageHeight - m.BottomMargin }

// column is a vertical strip content flows in.
type column struct {
	X, Width float64
	Text     Color
	Rule     Color
	// Breaks reports whether overflowing content may append a page. The sidebar
	// cannot, since the next page has no sidebar.
	Breaks bool
	// Sidebar selects the smaller sidebar heading style.
	Sidebar bool
}

func (m Metrics) sidebarColumn() column {
	return column{X: m.Padding, Width: m.LeftColumnWidth - 2*m.Padding, Text: colorWhite, Rule: colorSidebarRule, Sidebar: true}
}

func (m Metrics) mainColumn() column {
	x := m.LeftColumnWidth + m.Padding
	return column{X: x, Width: m.PageWidth - x - m.Padding, Text: colorBlack, Rule: colorRule, Breaks: true}
}

func (m Metrics) fullColumn() column {
	return column{X: m.Padding, Width: m.PageWidth - 2*m.Padding, Text: colorBlack, Rule: colorRule, Breaks: true}
}

// split divides c into a left sub-column of DateColumnWidth and the remainder.
func (m Metrics) split(c column) (left, right column) {
	left, right = c, c
	left.Width = m.DateColumnWidth
	right.X = c.X + m.DateColumnWidth + m.ColumnGutter
	right.Width = c.Width - m.DateColumnWidth - m.ColumnGutter
	return left, right
}
