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
	"image/png"
)

// Normalize returns image bytes in a format every document writer accepts
// (PNG, JPEG or GIF) together with the short type name "png", "jpg" or "gif".
// Other decodable formats (WebP, BMP) are re-encoded as PNG.
func Normalize(b []byte) ([]byte, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(b))
	if err == nil {
		err = checkPixels(cfg)
	}
	if err != nil {
		return nil, "", fmt.Errorf("normalize image: %w", err)
	}
	switch format {
	case "png", "gif":
		return b, format, nil
	case "jpeg":
		return b, "jpg", nil
	}
	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, "", fmt.Errorf("normalize image: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", fmt.Errorf("normalize image: %w", err)
	}
	return buf.Bytes(), "png", nil
}
