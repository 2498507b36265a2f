/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"mangastudio/internal/domain"
)

// PDFOptions controls PDF export behavior. Units are points (pt).
type PDFOptions struct {
	// DPI converts pixel dimensions into page size; default 96.
	DPI int
	// Title is set as PDF metadata when non-empty.
	Title string
}

// WritePDF renders the panel as a single-page PDF whose page size matches
// the image aspect ratio. Built-in image support of gofpdf covers PNG and
// JPEG payloads.
func WritePDF(p domain.ImagePayload, path string, opt PDFOptions) error {
	if p.IsZero() {
		return fmt.Errorf("no image to export")
	}
	imgType, err := pdfImageType(p.MimeType)
	if err != nil {
		return err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(p.Bytes))
	if err != nil {
		return fmt.Errorf("read image dimensions: %w", err)
	}
	dpi := opt.DPI
	if dpi <= 0 {
		dpi = 96
	}
	// Points per pixel at the chosen DPI.
	scale := 72.0 / float64(dpi)
	w := float64(cfg.Width) * scale
	h := float64(cfg.Height) * scale

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: w, Ht: h},
	})
	if opt.Title != "" {
		pdf.SetTitle(opt.Title, true)
	}
	pdf.AddPage()
	imgOpt := gofpdf.ImageOptions{ImageType: imgType}
	pdf.RegisterImageOptionsReader("panel", imgOpt, bytes.NewReader(p.Bytes))
	pdf.ImageOptions("panel", 0, 0, w, h, false, imgOpt, 0, "")

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func pdfImageType(mime string) (string, error) {
	switch mime {
	case "image/png":
		return "PNG", nil
	case "image/jpeg":
		return "JPG", nil
	case "image/gif":
		return "GIF", nil
	default:
		return "", fmt.Errorf("unsupported image type for PDF export: %s", mime)
	}
}
