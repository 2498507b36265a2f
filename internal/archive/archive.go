/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package archive bundles history entries into a portable .zip so a user
// can move their generated panels between machines. The archive carries
// the decoded images next to a JSON index, so the panels open in any
// image viewer without the app.
package archive

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mangastudio/internal/domain"
	"mangastudio/internal/imaging"
	applog "mangastudio/internal/log"
)

const (
	manifestName = "history.manifest.txt"
	indexName    = "history.json"
	imageDir     = "images"
	referenceDir = "references"
)

// indexEntry is one history item inside the archive. Images live as files
// in the zip; the entry points at them by path instead of embedding data
// URLs.
type indexEntry struct {
	ID            string `json:"id"`
	Style         string `json:"style"`
	Genre         string `json:"genre"`
	Prompt        string `json:"prompt"`
	Timestamp     int64  `json:"timestamp"`
	ImagePath     string `json:"imagePath"`
	ReferencePath string `json:"referencePath,omitempty"`
}

// ExportHistory writes the given items into a .zip at destZipPath. The
// archive holds a manifest, a JSON index and one image file per item
// (plus the style reference where an item carries one). Items whose image
// data cannot be decoded are skipped with a warning rather than failing
// the whole export.
func ExportHistory(items []domain.HistoryItem, destZipPath string) error {
	l := applog.WithOperation(applog.WithComponent("archive"), "export").With(slog.String("zip", destZipPath))
	if strings.TrimSpace(destZipPath) == "" {
		return errors.New("destZipPath is required")
	}
	if err := os.MkdirAll(filepath.Dir(destZipPath), 0o755); err != nil {
		return fmt.Errorf("ensure zip dir: %w", err)
	}
	_ = os.Remove(destZipPath)

	zf, err := os.Create(destZipPath)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	defer func() { _ = zf.Close() }()
	zw := zip.NewWriter(zf)
	defer func() { _ = zw.Close() }()

	manifest := fmt.Sprintf("Manga Studio History Archive\nCreated: %s\nItems: %d\n\nImages live under /%s, style references under /%s.\n",
		time.Now().Format(time.RFC3339), len(items), imageDir, referenceDir)
	w, err := zw.Create(manifestName)
	if err != nil {
		return fmt.Errorf("add manifest: %w", err)
	}
	if _, err := w.Write([]byte(manifest)); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	index := make([]indexEntry, 0, len(items))
	for i, item := range items {
		payload, err := imaging.FromDataURL(item.ImageURL)
		if err != nil {
			l.Warn("skip item with undecodable image", slog.String("id", item.ID), slog.Any("err", err))
			continue
		}
		entry := indexEntry{
			ID:        item.ID,
			Style:     item.Style,
			Genre:     item.Genre,
			Prompt:    item.Prompt,
			Timestamp: item.Timestamp,
			ImagePath: memberPath(imageDir, i, payload.MimeType),
		}
		if err := addMember(zw, entry.ImagePath, payload.Bytes); err != nil {
			return err
		}
		if item.ReferenceImageURL != "" {
			ref, err := imaging.FromDataURL(item.ReferenceImageURL)
			if err != nil {
				l.Warn("skip undecodable reference image", slog.String("id", item.ID), slog.Any("err", err))
			} else {
				entry.ReferencePath = memberPath(referenceDir, i, ref.MimeType)
				if err := addMember(zw, entry.ReferencePath, ref.Bytes); err != nil {
					return err
				}
			}
		}
		index = append(index, entry)
	}

	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	if err := addMember(zw, indexName, data); err != nil {
		return err
	}
	l.Info("history archive exported", slog.Int("items", len(index)))
	return nil
}

// ImportHistory reads an archive produced by ExportHistory and returns
// the contained history items with their images re-encoded as data URLs,
// newest first as they were stored. Members the index does not reference
// are ignored.
func ImportHistory(packZipPath string) ([]domain.HistoryItem, error) {
	l := applog.WithOperation(applog.WithComponent("archive"), "import").With(slog.String("zip", packZipPath))
	if strings.TrimSpace(packZipPath) == "" {
		return nil, errors.New("packZipPath is required")
	}
	r, err := zip.OpenReader(packZipPath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = r.Close() }()

	members := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		members[f.Name] = f
	}
	idx, ok := members[indexName]
	if !ok {
		return nil, fmt.Errorf("archive has no %s", indexName)
	}
	data, err := readMember(idx)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	var index []indexEntry
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}

	items := make([]domain.HistoryItem, 0, len(index))
	for _, entry := range index {
		img, ok := members[entry.ImagePath]
		if !ok {
			l.Warn("index references missing member", slog.String("path", entry.ImagePath))
			continue
		}
		raw, err := readMember(img)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.ImagePath, err)
		}
		item := domain.HistoryItem{
			ID:        entry.ID,
			Style:     entry.Style,
			Genre:     entry.Genre,
			Prompt:    entry.Prompt,
			Timestamp: entry.Timestamp,
			ImageURL:  imaging.ToDataURL(domain.ImagePayload{Bytes: raw, MimeType: mimeForPath(entry.ImagePath)}),
		}
		if entry.ReferencePath != "" {
			if ref, ok := members[entry.ReferencePath]; ok {
				raw, err := readMember(ref)
				if err != nil {
					return nil, fmt.Errorf("read %s: %w", entry.ReferencePath, err)
				}
				item.ReferenceImageURL = imaging.ToDataURL(domain.ImagePayload{Bytes: raw, MimeType: mimeForPath(entry.ReferencePath)})
			}
		}
		items = append(items, item)
	}
	l.Info("history archive imported", slog.Int("items", len(items)))
	return items, nil
}

func addMember(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func readMember(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}

// memberPath names image members by position so item IDs, which contain
// characters some filesystems reject, never leak into filenames.
func memberPath(dir string, i int, mime string) string {
	return fmt.Sprintf("%s/panel-%04d%s", dir, i+1, extForMime(mime))
}

func extForMime(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

func mimeForPath(p string) string {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}
