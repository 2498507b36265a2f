/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package canvas implements the freehand drawing surface: a raster canvas
// with pen and eraser tools that exports a finished bitmap on demand.
package canvas

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"mangastudio/internal/domain"
)

// Tool selects the stroke semantics for subsequent strokes.
type Tool string

const (
	ToolPen    Tool = "pen"
	ToolEraser Tool = "eraser"
)

// eraserWidthFactor widens the eraser relative to the configured brush size;
// erasing at pen width is impractical at small sizes.
const eraserWidthFactor = 3

// Background is the opaque surface fill. Downstream encoding assumes an
// opaque image, so clearing never produces transparency.
var Background = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// Pt is a point in logical (CSS-pixel) surface coordinates.
type Pt struct{ X, Y float64 }

// Surface is an interactive raster canvas. Input coordinates are logical;
// the pixel buffer is scaled by the device pixel ratio so exported bitmaps
// stay sharp on high-DPI displays.
//
// Surface is not safe for concurrent use; it is owned by the single UI flow
// of control.
type Surface struct {
	logicalW, logicalH int
	scale              float64

	tool       Tool
	brushSize  float64
	brushColor color.RGBA

	img    *image.RGBA
	active bool
	last   Pt
}

// Options configures a new surface. Zero values fall back to defaults.
type Options struct {
	Width, Height int     // logical size
	Scale         float64 // device pixel ratio, default 1
	BrushSize     float64 // default 5
	BrushColor    color.RGBA
}

// NewSurface allocates an opaque surface ready for drawing.
func NewSurface(opts Options) (*Surface, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, errors.New("surface size must be positive")
	}
	s := &Surface{
		tool:       ToolPen,
		brushSize:  opts.BrushSize,
		brushColor: opts.BrushColor,
	}
	if s.brushSize <= 0 {
		s.brushSize = 5
	}
	if s.brushColor.A == 0 {
		s.brushColor = color.RGBA{A: 255} // black
	}
	s.Resize(opts.Width, opts.Height, opts.Scale)
	return s, nil
}

// SetTool switches stroke semantics. Takes effect atomically before the next
// stroke; an in-progress stroke keeps its semantics.
func (s *Surface) SetTool(t Tool) {
	if t == ToolPen || t == ToolEraser {
		s.tool = t
	}
}

// Tool returns the active tool.
func (s *Surface) Tool() Tool { return s.tool }

// SetBrushSize sets the pen diameter in logical pixels.
func (s *Surface) SetBrushSize(d float64) {
	if d > 0 {
		s.brushSize = d
	}
}

// SetBrushColor sets the pen color. The eraser always paints the background.
func (s *Surface) SetBrushColor(c color.RGBA) { s.brushColor = c }

// Begin starts a stroke at p. A stroke already in progress is ended first.
func (s *Surface) Begin(p Pt) {
	if s.active {
		s.End()
	}
	s.active = true
	s.last = p
	// A tap with no movement still leaves a dot.
	s.stamp(p)
}

// Extend appends a segment from the previous point to p and renders it
// immediately. No-op unless a stroke is active.
func (s *Surface) Extend(p Pt) {
	if !s.active {
		return
	}
	s.segment(s.last, p)
	s.last = p
}

// End closes the active stroke.
func (s *Surface) End() { s.active = false }

// Clear resets the whole surface to the opaque background fill.
func (s *Surface) Clear() {
	draw.Draw(s.img, s.img.Bounds(), &image.Uniform{C: Background}, image.Point{}, draw.Src)
}

// Resize re-acquires a pixel buffer for the new logical size and device
// pixel ratio and re-establishes the background fill. Content drawn before
// the resize is not preserved; this mirrors the host-viewport resize
// behavior and is documented, accepted data loss.
func (s *Surface) Resize(logicalW, logicalH int, scale float64) {
	if scale <= 0 {
		scale = 1
	}
	if logicalW <= 0 {
		logicalW = 1
	}
	if logicalH <= 0 {
		logicalH = 1
	}
	s.logicalW, s.logicalH, s.scale = logicalW, logicalH, scale
	pw := int(math.Ceil(float64(logicalW) * scale))
	ph := int(math.Ceil(float64(logicalH) * scale))
	s.img = image.NewRGBA(image.Rect(0, 0, pw, ph))
	s.Clear()
	s.active = false
}

// Size returns the logical dimensions.
func (s *Surface) Size() (w, h int) { return s.logicalW, s.logicalH }

// PixelSize returns the backing buffer dimensions.
func (s *Surface) PixelSize() (w, h int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// At returns the pixel color at logical coordinates, for inspection.
func (s *Surface) At(x, y float64) color.RGBA {
	return s.img.RGBAAt(int(math.Round(x*s.scale)), int(math.Round(y*s.scale)))
}

// Image returns the live backing image for display. Callers must not draw
// on it directly.
func (s *Surface) Image() image.Image { return s.img }

// Export serializes the raster to a PNG ImagePayload and abandons the
// drawing session: the surface is cleared and control returns to the caller.
// No undo history is kept.
func (s *Surface) Export() (domain.ImagePayload, error) {
	s.End()
	var buf bytes.Buffer
	if err := png.Encode(&buf, s.img); err != nil {
		return domain.ImagePayload{}, err
	}
	s.Clear()
	return domain.ImagePayload{Bytes: buf.Bytes(), MimeType: "image/png"}, nil
}

// strokeColorWidth resolves color and diameter for the active tool. The
// eraser paints the background at eraserWidthFactor times the brush size,
// which on an opaque surface is equivalent to a destination-clearing
// composite.
func (s *Surface) strokeColorWidth() (color.RGBA, float64) {
	if s.tool == ToolEraser {
		return Background, s.brushSize * eraserWidthFactor
	}
	return s.brushColor, s.brushSize
}

// stamp draws a single round brush dab centered at p.
func (s *Surface) stamp(p Pt) {
	col, width := s.strokeColorWidth()
	s.disc(p.X*s.scale, p.Y*s.scale, width*s.scale/2, col)
}

// segment renders a round-capped line by stamping discs along it at
// half-radius spacing, giving visually continuous strokes for any brush
// size.
func (s *Surface) segment(a, b Pt) {
	col, width := s.strokeColorWidth()
	r := width * s.scale / 2
	ax, ay := a.X*s.scale, a.Y*s.scale
	bx, by := b.X*s.scale, b.Y*s.scale
	dist := math.Hypot(bx-ax, by-ay)
	step := r / 2
	if step < 0.5 {
		step = 0.5
	}
	n := int(dist/step) + 1
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		s.disc(ax+(bx-ax)*t, ay+(by-ay)*t, r, col)
	}
}

// disc fills a circle in pixel coordinates, clipped to the buffer.
func (s *Surface) disc(cx, cy, r float64, col color.RGBA) {
	if r < 0.5 {
		r = 0.5
	}
	b := s.img.Bounds()
	x0 := int(math.Floor(cx - r))
	x1 := int(math.Ceil(cx + r))
	y0 := int(math.Floor(cy - r))
	y1 := int(math.Ceil(cy + r))
	if x0 < b.Min.X {
		x0 = b.Min.X
	}
	if y0 < b.Min.Y {
		y0 = b.Min.Y
	}
	if x1 >= b.Max.X {
		x1 = b.Max.X - 1
	}
	if y1 >= b.Max.Y {
		y1 = b.Max.Y - 1
	}
	rr := r * r
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			if dx*dx+dy*dy <= rr {
				s.img.SetRGBA(x, y, col)
			}
		}
	}
}
