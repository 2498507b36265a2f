/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export writes generated panels to files: the PNG download and a
// single-page PDF rendition.
package export

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"mangastudio/internal/domain"
)

// WritePNG stores the payload at path as a PNG file. Payloads that are
// already PNG are written verbatim; other formats are transcoded so the
// file matches its extension.
func WritePNG(p domain.ImagePayload, path string) error {
	if p.IsZero() {
		return fmt.Errorf("no image to export")
	}
	data := p.Bytes
	if p.MimeType != "image/png" {
		img, _, err := image.Decode(bytes.NewReader(p.Bytes))
		if err != nil {
			return fmt.Errorf("decode %s payload: %w", p.MimeType, err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return fmt.Errorf("encode png: %w", err)
		}
		data = buf.Bytes()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}
