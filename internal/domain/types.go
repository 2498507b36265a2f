/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the core data model for Manga Studio: image payloads,
// normalized speech-bubble geometry, and the generation history record.

// ImagePayload is an immutable binary image plus its MIME type. It is the
// currency between intake, the drawing surface, the orchestrator and the
// remote capabilities.
type ImagePayload struct {
	Bytes    []byte
	MimeType string
}

// IsZero reports whether the payload carries no data.
func (p ImagePayload) IsZero() bool { return len(p.Bytes) == 0 }

// BoundingBox is an axis-aligned rectangle in normalized image coordinates.
// All values are fractions of the image width/height in [0,1], origin
// top-left, X2>=X1 and Y2>=Y1. Because the coordinates are relative the same
// box stays valid across any render size of the same image.
type BoundingBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Clamp returns the box constrained to [0,1] with inverted corners swapped.
// Detection occasionally returns coordinates slightly outside the image or a
// flipped corner pair; a clamped box is always safe to map onto a render.
func (b BoundingBox) Clamp() BoundingBox {
	c := BoundingBox{
		X1: clamp01(b.X1),
		Y1: clamp01(b.Y1),
		X2: clamp01(b.X2),
		Y2: clamp01(b.Y2),
	}
	if c.X2 < c.X1 {
		c.X1, c.X2 = c.X2, c.X1
	}
	if c.Y2 < c.Y1 {
		c.Y1, c.Y2 = c.Y2, c.Y1
	}
	return c
}

// Empty reports whether the box has zero area.
func (b BoundingBox) Empty() bool { return b.X2 <= b.X1 || b.Y2 <= b.Y1 }

// ScreenRect is a pixel-space rectangle produced by mapping a BoundingBox
// onto a concrete render size.
type ScreenRect struct {
	Left, Top, Width, Height float64
}

// RectIn maps the box onto a render of the given pixel dimensions. The
// mapping is linear, so callers may re-derive the rectangle on every layout
// pass instead of caching pixel positions.
func (b BoundingBox) RectIn(width, height float64) ScreenRect {
	return ScreenRect{
		Left:   b.X1 * width,
		Top:    b.Y1 * height,
		Width:  (b.X2 - b.X1) * width,
		Height: (b.Y2 - b.Y1) * height,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Bubble is one detected speech region: its normalized box, the recognized
// text, and a synthetic identifier assigned at detection time. Edit state is
// keyed by ID rather than slice position so a reordering between detection
// and save cannot mispair text with a region.
type Bubble struct {
	ID   string      `json:"id"`
	Box  BoundingBox `json:"box"`
	Text string      `json:"text"`
}

// EditedBubble is a Bubble plus its user-entered replacement text. Only
// bubbles whose NewText differs from Text are forwarded to the re-render
// capability.
type EditedBubble struct {
	Bubble
	NewText string `json:"newText"`
}

// HistoryItem records one successful generation. ImageURL and the optional
// ReferenceImageURL are data-URL strings so the record is self-contained
// when serialized.
type HistoryItem struct {
	ID                string `json:"id"`
	ImageURL          string `json:"imageUrl"`
	Style             string `json:"style"` // style key, or StyleReference
	Genre             string `json:"genre"`
	Prompt            string `json:"prompt"`
	Timestamp         int64  `json:"timestamp"` // epoch milliseconds
	ReferenceImageURL string `json:"referenceImageUrl,omitempty"`
}
