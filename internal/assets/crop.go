/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package assets

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"
)

// circleMask is an alpha mask that is opaque inside a circle and transparent outside.
type circleMask struct {
	center image.Point
	r      int
}

func (c *circleMask) ColorModel() color.Model { return color.AlphaModel }

func (c *circleMask) Bounds() image.Rectangle {
	return image.Rect(c.center.X-c.r, c.center.Y-c.r, c.center.X+c.r, c.center.Y+c.r)
}

func (c *circleMask) At(x, y int) color.Color {
	// sample at pixel centres
	xx := float64(x-c.center.X) + 0.5
	yy := float64(y-c.center.Y) + 0.5
	rr := float64(c.r)
	if xx*xx+yy*yy <= rr*rr {
		return color.Alpha{A: 255}
	}
	return color.Alpha{}
}

// CoverRect returns the centred region of a srcW x srcH image that, scaled by
// max(dst/srcW, dst/srcH), exactly covers a dst x dst square.
func CoverRect(srcW, srcH, dst int) image.Rectangle {
	sx := float64(dst) / float64(srcW)
	sy := float64(dst) / float64(srcH)
	scale := sx
	if sy > scale {
		scale = sy
	}
	w := int(float64(dst)/scale + 0.5)
	h := int(float64(dst)/scale + 0.5)
	if w > srcW {
		w = srcW
	}
	if h > srcH {
		h = srcH
	}
	x0 := (srcW - w) / 2
	y0 := (srcH - h) / 2
	return image.Rect(x0, y0, x0+w, y0+h)
}

// CircleCrop scales src to cover a diameterPx square, centre-crops it and masks it
// to a circle, returning PNG bytes with transparent corners. On any decoding or
// drawing failure the original bytes are returned unchanged.
func CircleCrop(src []byte, diameterPx int) []byte {
	out, err := circleCrop(src, diameterPx)
	if err != nil {
		return src
	}
	return out
}

func circleCrop(src []byte, d int) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("circle crop: %v", r)
		}
	}()
	if d <= 0 {
		return nil, fmt.Errorf("circle crop: diameter %d", d)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(src))
	if err == nil {
		err = checkPixels(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("circle crop: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("circle crop: %w", err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("circle crop: empty image")
	}
	crop := CoverRect(b.Dx(), b.Dy(), d).Add(b.Min)

	scaled := image.NewNRGBA(image.Rect(0, 0, d, d))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, crop, draw.Src, nil)

	dst := image.NewNRGBA(image.Rect(0, 0, d, d))
	mask := &circleMask{center: image.Pt(d/2, d/2), r: d / 2}
	draw.DrawMask(dst, dst.Bounds(), scaled, image.Point{}, mask, image.Point{}, draw.Over)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("circle crop: %w", err)
	}
	return buf.Bytes(), nil
}
