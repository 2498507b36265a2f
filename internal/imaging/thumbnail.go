/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	// register decoders for the formats users typically drop in
	_ "image/gif"
	_ "image/jpeg"

	xdraw "golang.org/x/image/draw"

	"mangastudio/internal/domain"
)

// DefaultThumbnailEdge is the bounding edge (in pixels) for gallery previews.
const DefaultThumbnailEdge = 256

// Thumbnail decodes a payload and returns a PNG preview scaled to fit within
// maxEdge on its longer side. Images already within bounds are re-encoded
// unscaled so the preview is always PNG regardless of the source format.
func Thumbnail(p domain.ImagePayload, maxEdge int) (domain.ImagePayload, error) {
	if maxEdge <= 0 {
		maxEdge = DefaultThumbnailEdge
	}
	src, _, err := image.Decode(bytes.NewReader(p.Bytes))
	if err != nil {
		return domain.ImagePayload{}, fmt.Errorf("decode preview source: %w", err)
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return domain.ImagePayload{}, fmt.Errorf("preview source has empty bounds")
	}

	tw, th := w, h
	if w > maxEdge || h > maxEdge {
		if w >= h {
			tw = maxEdge
			th = h * maxEdge / w
		} else {
			th = maxEdge
			tw = w * maxEdge / h
		}
		if tw < 1 {
			tw = 1
		}
		if th < 1 {
			th = 1
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return domain.ImagePayload{}, fmt.Errorf("encode preview: %w", err)
	}
	return domain.ImagePayload{Bytes: buf.Bytes(), MimeType: "image/png"}, nil
}
