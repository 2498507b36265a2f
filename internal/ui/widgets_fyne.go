//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"bytes"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	draw "mangastudio/internal/canvas"
	"mangastudio/internal/domain"
)

// PanelView shows the generated panel and, during an edit session, overlay
// rectangles for the detected speech bubbles. Bubble boxes are normalized
// coordinates; the pixel rectangles are re-derived from the fitted image
// area on every layout pass, so the overlay survives window resizes.
type PanelView struct {
	widget.BaseWidget
	img     image.Image
	bubbles []domain.Bubble
}

func NewPanelView() *PanelView {
	v := &PanelView{}
	v.ExtendBaseWidget(v)
	return v
}

// SetPayload decodes and displays the payload. A zero payload clears the
// view.
func (v *PanelView) SetPayload(p domain.ImagePayload) error {
	if p.IsZero() {
		v.img = nil
		v.Refresh()
		return nil
	}
	img, _, err := image.Decode(bytes.NewReader(p.Bytes))
	if err != nil {
		return err
	}
	v.img = img
	v.Refresh()
	return nil
}

// SetBubbles replaces the overlay boxes. Nil hides the overlay.
func (v *PanelView) SetBubbles(bubbles []domain.Bubble) {
	v.bubbles = bubbles
	v.Refresh()
}

func (v *PanelView) CreateRenderer() fyne.WidgetRenderer {
	img := canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	img.FillMode = canvas.ImageFillContain
	r := &panelViewRenderer{view: v, img: img}
	r.Refresh()
	return r
}

type panelViewRenderer struct {
	view  *PanelView
	img   *canvas.Image
	rects []*canvas.Rectangle
}

func (r *panelViewRenderer) Destroy() {}

func (r *panelViewRenderer) MinSize() fyne.Size { return fyne.NewSize(480, 480) }

func (r *panelViewRenderer) Objects() []fyne.CanvasObject {
	objs := make([]fyne.CanvasObject, 0, 1+len(r.rects))
	objs = append(objs, r.img)
	for _, rc := range r.rects {
		objs = append(objs, rc)
	}
	return objs
}

func (r *panelViewRenderer) Refresh() {
	if r.view.img != nil {
		r.img.Image = r.view.img
	} else {
		r.img.Image = image.NewRGBA(image.Rect(0, 0, 1, 1))
	}
	r.img.Refresh()

	for len(r.rects) < len(r.view.bubbles) {
		rc := canvas.NewRectangle(color.RGBA{})
		rc.StrokeColor = color.RGBA{R: 0, G: 170, B: 255, A: 255}
		rc.StrokeWidth = 2
		r.rects = append(r.rects, rc)
	}
	r.rects = r.rects[:len(r.view.bubbles)]
	r.Layout(r.view.Size())
	canvas.Refresh(r.view)
}

func (r *panelViewRenderer) Layout(size fyne.Size) {
	r.img.Resize(size)
	r.img.Move(fyne.NewPos(0, 0))
	if r.view.img == nil || len(r.rects) == 0 {
		for _, rc := range r.rects {
			rc.Hide()
		}
		return
	}
	// Fitted content area of ImageFillContain: scale to fit, centered.
	b := r.view.img.Bounds()
	iw, ih := float32(b.Dx()), float32(b.Dy())
	if iw <= 0 || ih <= 0 || size.Width <= 0 || size.Height <= 0 {
		return
	}
	scale := size.Width / iw
	if s := size.Height / ih; s < scale {
		scale = s
	}
	fw, fh := iw*scale, ih*scale
	ox, oy := (size.Width-fw)/2, (size.Height-fh)/2
	for i, bb := range r.view.bubbles {
		sr := bb.Box.RectIn(float64(fw), float64(fh))
		rc := r.rects[i]
		rc.Move(fyne.NewPos(ox+float32(sr.Left), oy+float32(sr.Top)))
		rc.Resize(fyne.NewSize(float32(sr.Width), float32(sr.Height)))
		rc.Show()
	}
}

// SketchPad is an interactive drawing widget backed by a raster surface.
// Pointer positions are mapped from widget units to the surface's logical
// coordinate space.
type SketchPad struct {
	widget.BaseWidget
	surface  *draw.Surface
	dragging bool
}

var _ fyne.Draggable = (*SketchPad)(nil)
var _ fyne.Tappable = (*SketchPad)(nil)

func NewSketchPad(w, h int) *SketchPad {
	surface, err := draw.NewSurface(draw.Options{Width: w, Height: h})
	if err != nil {
		panic(err) // static positive dimensions
	}
	p := &SketchPad{surface: surface}
	p.ExtendBaseWidget(p)
	return p
}

// Surface exposes the backing surface for tool and brush configuration.
func (p *SketchPad) Surface() *draw.Surface { return p.surface }

func (p *SketchPad) toSurface(pos fyne.Position) draw.Pt {
	sz := p.Size()
	w, h := p.surface.Size()
	if sz.Width <= 0 || sz.Height <= 0 {
		return draw.Pt{}
	}
	return draw.Pt{
		X: float64(pos.X) / float64(sz.Width) * float64(w),
		Y: float64(pos.Y) / float64(sz.Height) * float64(h),
	}
}

// Tapped leaves a single dot.
func (p *SketchPad) Tapped(e *fyne.PointEvent) {
	pt := p.toSurface(e.Position)
	p.surface.Begin(pt)
	p.surface.End()
	p.Refresh()
}

func (p *SketchPad) Dragged(e *fyne.DragEvent) {
	pt := p.toSurface(e.Position)
	if !p.dragging {
		p.dragging = true
		p.surface.Begin(pt)
	} else {
		p.surface.Extend(pt)
	}
	p.Refresh()
}

func (p *SketchPad) DragEnd() {
	p.dragging = false
	p.surface.End()
}

func (p *SketchPad) CreateRenderer() fyne.WidgetRenderer {
	img := canvas.NewImageFromImage(p.surface.Image())
	img.FillMode = canvas.ImageFillStretch
	return &sketchPadRenderer{pad: p, img: img}
}

type sketchPadRenderer struct {
	pad *SketchPad
	img *canvas.Image
}

func (r *sketchPadRenderer) Destroy() {}

func (r *sketchPadRenderer) MinSize() fyne.Size {
	w, h := r.pad.surface.Size()
	return fyne.NewSize(float32(w)/2, float32(h)/2)
}

func (r *sketchPadRenderer) Objects() []fyne.CanvasObject { return []fyne.CanvasObject{r.img} }

func (r *sketchPadRenderer) Refresh() {
	r.img.Image = r.pad.surface.Image()
	r.img.Refresh()
}

func (r *sketchPadRenderer) Layout(size fyne.Size) {
	r.img.Resize(size)
	r.img.Move(fyne.NewPos(0, 0))
}
