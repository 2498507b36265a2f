/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package canvas

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

var black = color.RGBA{A: 255}

func newTestSurface(t *testing.T) *Surface {
	t.Helper()
	s, err := NewSurface(Options{Width: 100, Height: 80})
	if err != nil {
		t.Fatalf("NewSurface: %v", err)
	}
	return s
}

func TestNewSurfaceStartsWhite(t *testing.T) {
	s := newTestSurface(t)
	if got := s.At(50, 40); got != Background {
		t.Fatalf("fresh surface pixel = %v, want background", got)
	}
	if w, h := s.PixelSize(); w != 100 || h != 80 {
		t.Fatalf("pixel size %dx%d, want 100x80", w, h)
	}
}

func TestNewSurfaceRejectsNonPositiveSize(t *testing.T) {
	if _, err := NewSurface(Options{Width: 0, Height: 10}); err == nil {
		t.Fatal("expected error for zero width")
	}
}

func TestStrokeLeavesInk(t *testing.T) {
	s := newTestSurface(t)
	s.Begin(Pt{X: 10, Y: 10})
	s.Extend(Pt{X: 40, Y: 10})
	s.End()
	for _, x := range []float64{10, 25, 40} {
		if got := s.At(x, 10); got != black {
			t.Fatalf("pixel at x=%v is %v, want black", x, got)
		}
	}
	// Far away from the stroke stays untouched.
	if got := s.At(80, 60); got != Background {
		t.Fatalf("distant pixel %v, want background", got)
	}
}

func TestTapLeavesDot(t *testing.T) {
	s := newTestSurface(t)
	s.Begin(Pt{X: 20, Y: 20})
	s.End()
	if got := s.At(20, 20); got != black {
		t.Fatalf("tap pixel %v, want black", got)
	}
}

func TestEraserPaintsBackgroundAtTripleWidth(t *testing.T) {
	s := newTestSurface(t)
	s.SetBrushSize(4)

	// Lay down a thick horizontal band of ink.
	s.SetBrushSize(10)
	s.Begin(Pt{X: 10, Y: 40})
	s.Extend(Pt{X: 90, Y: 40})
	s.End()

	s.SetBrushSize(4)
	s.SetTool(ToolEraser)
	s.Begin(Pt{X: 50, Y: 40})
	s.End()

	// Eraser diameter is 3x brush size = 12, so radius 6 covers offsets
	// the 4px pen would miss.
	if got := s.At(50, 40); got != Background {
		t.Fatalf("erased center %v, want background", got)
	}
	if got := s.At(50, 44); got != Background {
		t.Fatalf("pixel inside widened eraser radius %v, want background", got)
	}
	// Ink outside the eraser disc survives.
	if got := s.At(70, 40); got != black {
		t.Fatalf("pixel outside eraser %v, want black", got)
	}
}

func TestClearResetsEverything(t *testing.T) {
	s := newTestSurface(t)
	s.Begin(Pt{X: 30, Y: 30})
	s.Extend(Pt{X: 60, Y: 60})
	s.End()
	s.Clear()
	for _, p := range []Pt{{30, 30}, {45, 45}, {60, 60}} {
		if got := s.At(p.X, p.Y); got != Background {
			t.Fatalf("pixel %v after clear = %v, want background", p, got)
		}
	}
}

func TestResizeScalesBufferAndDropsContent(t *testing.T) {
	s := newTestSurface(t)
	s.Begin(Pt{X: 10, Y: 10})
	s.End()

	s.Resize(50, 40, 2)
	if w, h := s.PixelSize(); w != 100 || h != 80 {
		t.Fatalf("pixel size %dx%d, want 100x80 at scale 2", w, h)
	}
	if w, h := s.Size(); w != 50 || h != 40 {
		t.Fatalf("logical size %dx%d, want 50x40", w, h)
	}
	if got := s.At(10, 10); got != Background {
		t.Fatalf("content survived resize: %v", got)
	}
}

func TestHighDPIStrokeHitsScaledPixels(t *testing.T) {
	s, err := NewSurface(Options{Width: 40, Height: 40, Scale: 2})
	if err != nil {
		t.Fatalf("NewSurface: %v", err)
	}
	s.Begin(Pt{X: 20, Y: 20})
	s.End()
	img := s.Image().(*image.RGBA)
	if got := img.RGBAAt(40, 40); got != black {
		t.Fatalf("device pixel (40,40) = %v, want black", got)
	}
}

func TestExtendWithoutBeginIsNoop(t *testing.T) {
	s := newTestSurface(t)
	s.Extend(Pt{X: 10, Y: 10})
	if got := s.At(10, 10); got != Background {
		t.Fatalf("orphan extend painted %v", got)
	}
}

func TestExportProducesPNGAndClears(t *testing.T) {
	s := newTestSurface(t)
	s.Begin(Pt{X: 15, Y: 15})
	s.End()

	p, err := s.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if p.MimeType != "image/png" {
		t.Fatalf("mime = %q", p.MimeType)
	}
	img, _, err := image.Decode(bytes.NewReader(p.Bytes))
	if err != nil {
		t.Fatalf("decode exported PNG: %v", err)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 80 {
		t.Fatalf("exported bounds %v", img.Bounds())
	}
	// Export ends the session; the surface is ready for a fresh drawing.
	if got := s.At(15, 15); got != Background {
		t.Fatalf("surface not cleared after export: %v", got)
	}
}

func TestToolSwitchIgnoresUnknown(t *testing.T) {
	s := newTestSurface(t)
	s.SetTool(ToolEraser)
	s.SetTool(Tool("spray"))
	if s.Tool() != ToolEraser {
		t.Fatalf("tool = %q, want eraser", s.Tool())
	}
}
