/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package imaging provides pure conversions between binary image payloads
// and portable encodings (data-URL, base64+mime), plus preview thumbnails.
package imaging

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"mangastudio/internal/domain"
)

// ErrInvalidDataURL is returned when a string is not a well-formed
// base64 data URL.
var ErrInvalidDataURL = errors.New("invalid data URL")

// ToDataURL encodes a payload as a data URL string.
func ToDataURL(p domain.ImagePayload) string {
	mime := p.MimeType
	if mime == "" {
		mime = http.DetectContentType(p.Bytes)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(p.Bytes)
}

// FromDataURL decodes a data URL string back into a payload.
func FromDataURL(url string) (domain.ImagePayload, error) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return domain.ImagePayload{}, ErrInvalidDataURL
	}
	meta, data, ok := strings.Cut(rest, ",")
	if !ok {
		return domain.ImagePayload{}, ErrInvalidDataURL
	}
	mime, enc, ok := strings.Cut(meta, ";")
	if !ok || enc != "base64" {
		return domain.ImagePayload{}, ErrInvalidDataURL
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return domain.ImagePayload{}, fmt.Errorf("decode data URL payload: %w", err)
	}
	return domain.ImagePayload{Bytes: raw, MimeType: mime}, nil
}

// FromBase64 builds a payload from a base64 string and an explicit mime type.
func FromBase64(b64, mime string) (domain.ImagePayload, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return domain.ImagePayload{}, fmt.Errorf("decode base64 image: %w", err)
	}
	if mime == "" {
		mime = http.DetectContentType(raw)
	}
	return domain.ImagePayload{Bytes: raw, MimeType: mime}, nil
}

// Base64 returns the payload bytes as a base64 string plus the mime type.
func Base64(p domain.ImagePayload) (b64, mime string) {
	mime = p.MimeType
	if mime == "" {
		mime = http.DetectContentType(p.Bytes)
	}
	return base64.StdEncoding.EncodeToString(p.Bytes), mime
}

// DetectPayload wraps raw bytes into a payload, sniffing the mime type.
func DetectPayload(raw []byte) domain.ImagePayload {
	return domain.ImagePayload{Bytes: raw, MimeType: http.DetectContentType(raw)}
}
