/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package archive

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"mangastudio/internal/domain"
	"mangastudio/internal/imaging"
)

func dataURL(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return imaging.ToDataURL(domain.ImagePayload{Bytes: buf.Bytes(), MimeType: "image/png"})
}

func TestExportImportRoundTrip(t *testing.T) {
	items := []domain.HistoryItem{
		{
			ID:                "2026-08-29T10:00:00.000Z",
			ImageURL:          dataURL(t, 8, 6),
			Style:             "reference",
			Genre:             "fantasy",
			Prompt:            "castle at dusk",
			Timestamp:         1700000001000,
			ReferenceImageURL: dataURL(t, 4, 4),
		},
		{
			ID:        "2026-08-29T09:00:00.000Z",
			ImageURL:  dataURL(t, 10, 10),
			Style:     "shonen",
			Genre:     "action",
			Timestamp: 1700000000000,
		},
	}
	zipPath := filepath.Join(t.TempDir(), "out", "history.zip")
	if err := ExportHistory(items, zipPath); err != nil {
		t.Fatalf("export: %v", err)
	}

	got, err := ImportHistory(zipPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("imported %d items, want 2", len(got))
	}
	for i := range items {
		if got[i].ID != items[i].ID || got[i].Style != items[i].Style || got[i].Genre != items[i].Genre {
			t.Fatalf("item %d metadata mismatch: %+v", i, got[i])
		}
		if got[i].ImageURL != items[i].ImageURL {
			t.Fatalf("item %d image did not survive the round trip", i)
		}
	}
	if got[0].ReferenceImageURL != items[0].ReferenceImageURL {
		t.Fatal("reference image did not survive the round trip")
	}
	if got[1].ReferenceImageURL != "" {
		t.Fatal("item without reference gained one")
	}
}

func TestExportLayout(t *testing.T) {
	items := []domain.HistoryItem{{ID: "a", ImageURL: dataURL(t, 3, 3), Timestamp: 1}}
	zipPath := filepath.Join(t.TempDir(), "history.zip")
	if err := ExportHistory(items, zipPath); err != nil {
		t.Fatalf("export: %v", err)
	}
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer r.Close()
	want := map[string]bool{
		"history.manifest.txt":  false,
		"history.json":          false,
		"images/panel-0001.png": false,
	}
	for _, f := range r.File {
		if _, ok := want[f.Name]; ok {
			want[f.Name] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Fatalf("archive is missing %s", name)
		}
	}
}

func TestExportSkipsUndecodableImage(t *testing.T) {
	items := []domain.HistoryItem{
		{ID: "bad", ImageURL: "not-a-data-url", Timestamp: 1},
		{ID: "good", ImageURL: dataURL(t, 3, 3), Timestamp: 2},
	}
	zipPath := filepath.Join(t.TempDir(), "history.zip")
	if err := ExportHistory(items, zipPath); err != nil {
		t.Fatalf("export: %v", err)
	}
	got, err := ImportHistory(zipPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(got) != 1 || got[0].ID != "good" {
		t.Fatalf("got %+v, want only the decodable item", got)
	}
}

func TestExportRequiresPath(t *testing.T) {
	if err := ExportHistory(nil, "  "); err == nil {
		t.Fatal("expected error for empty destination")
	}
}

func TestImportRejectsArchiveWithoutIndex(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "plain.zip")
	f, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("readme.txt")
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	if _, err := w.Write([]byte("hi")); err != nil {
		t.Fatalf("write member: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	if _, err := ImportHistory(zipPath); err == nil {
		t.Fatal("expected error for archive without index")
	}
}
