/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import "testing"

func TestBuiltinStyles(t *testing.T) {
	names := ListStyles()
	if len(names) != len(builtinStyles) {
		t.Fatalf("ListStyles and builtin table disagree: %v", names)
	}
	for _, n := range names {
		s, ok := GetStyle(n)
		if !ok {
			t.Fatalf("%s style missing", n)
		}
		if s.Font.SizePt <= 0 || s.LineHeight() <= s.Font.SizePt {
			t.Fatalf("%s has bad metrics: %+v", n, s)
		}
	}
	if _, ok := GetStyle("Dialogue"); ok {
		t.Fatalf("unexpected style found")
	}
}

func TestStyleString(t *testing.T) {
	cases := map[string]FontSpec{
		"":   {},
		"B":  {Bold: true},
		"I":  {Italic: true},
		"BI": {Bold: true, Italic: true},
	}
	for want, f := range cases {
		if got := f.StyleString(); got != want {
			t.Fatalf("StyleString(%+v) = %q, want %q", f, got, want)
		}
	}
}

func TestHalfPoints(t *testing.T) {
	if got := MustStyle(StyleBody).HalfPoints(); got != 20 {
		t.Fatalf("body half points = %d, want 20", got)
	}
	if got := MustStyle(StyleItalic).HalfPoints(); got != 18 {
		t.Fatalf("italic half points = %d, want 18", got)
	}
}
