/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

// Line breaking is isolated behind a Measurer so that each output format can
// supply its own width function (the PDF surface measures with the active core
// font). Wrapping is deterministic and lossless: every non-space rune of the
// input appears exactly once across the returned lines.

import "strings"

// Measurer reports the rendered width of a string in points.
type Measurer interface {
	StringWidth(s string) float64
}

// Wrap breaks text into lines no wider than maxWidth. Explicit newlines start a new
// line; runs of spaces collapse to one. A word wider than maxWidth on its own is split
// at rune boundaries. A non-positive maxWidth disables wrapping.
func Wrap(m Measurer, text string, maxWidth float64) []string {
	var out []string
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			continue
		}
		out = append(out, wrapWords(m, words, maxWidth)...)
	}
	return out
}

func wrapWords(m Measurer, words []string, maxWidth float64) []string {
	if maxWidth <= 0 {
		return []string{strings.Join(words, " ")}
	}
	var lines []string
	cur := ""
	for _, w := range words {
		if cur == "" {
			if m.StringWidth(w) <= maxWidth {
				cur = w
				continue
			}
			pieces := splitWord(m, w, maxWidth)
			lines = append(lines, pieces[:len(pieces)-1]...)
			cur = pieces[len(pieces)-1]
			continue
		}
		candidate := cur + " " + w
		if m.StringWidth(candidate) <= maxWidth {
			cur = candidate
			continue
		}
		lines = append(lines, cur)
		cur = ""
		if m.StringWidth(w) <= maxWidth {
			cur = w
			continue
		}
		pieces := splitWord(m, w, maxWidth)
		lines = append(lines, pieces[:len(pieces)-1]...)
		cur = pieces[len(pieces)-1]
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

// splitWord cuts an over-long word into pieces that fit; each piece holds at
// least one rune. Rune widths are summed, so each rune is measured once.
func splitWord(m Measurer, w string, maxWidth float64) []string {
	var pieces []string
	start, width := 0, 0.0
	for i, r := range w {
		rw := m.StringWidth(string(r))
		if i > start && width+rw > maxWidth {
			pieces = append(pieces, w[start:i])
			start, width = i, 0
		}
		width += rw
	}
	return append(pieces, w[start:])
}

// JoinInline joins items with sep and wraps the result, used for inline lists such as
// "Go • Docker • Kubernetes" or comma-separated competence names.
func JoinInline(m Measurer, items []string, sep string, maxWidth float64) []string {
	kept := make([]string, 0, len(items))
	for _, it := range items {
		if t := strings.TrimSpace(it); t != "" {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return Wrap(m, strings.Join(kept, sep), maxWidth)
}
