/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package intake manages the images a user brings into a session: the
// ordered source gallery feeding generation, and the single reference-style
// image used when the "reference" style is selected.
package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"mangastudio/internal/domain"
	"mangastudio/internal/imaging"
	applog "mangastudio/internal/log"
)

// ErrEmptyBatch is returned when Add is called with no images.
var ErrEmptyBatch = errors.New("intake: no images in batch")

// Gallery holds the ordered source images plus a same-length list of PNG
// previews. The two slices stay index-aligned at all times.
//
// Gallery is not safe for concurrent use.
type Gallery struct {
	images   []domain.ImagePayload
	previews []domain.ImagePayload

	reference        domain.ImagePayload
	referencePreview domain.ImagePayload

	previewEdge int
	log         *slog.Logger
}

// NewGallery returns an empty gallery whose previews fit previewEdge pixels
// on the longer side (0 uses the default).
func NewGallery(previewEdge int) *Gallery {
	if previewEdge <= 0 {
		previewEdge = imaging.DefaultThumbnailEdge
	}
	return &Gallery{previewEdge: previewEdge, log: applog.WithComponent("intake")}
}

// Add appends a batch of images in the given order. Previews for the batch
// are generated concurrently and land all-or-none: when any preview fails,
// the images are still kept and each failed slot gets the original payload
// as its preview so alignment holds, and the first error is returned.
func (g *Gallery) Add(ctx context.Context, batch []domain.ImagePayload) error {
	if len(batch) == 0 {
		return ErrEmptyBatch
	}
	previews, err := g.previewBatch(ctx, batch)
	g.images = append(g.images, batch...)
	g.previews = append(g.previews, previews...)
	if err != nil {
		g.log.Warn("preview batch failed, falling back to full images",
			slog.Int("batch", len(batch)), slog.Any("err", err))
		return fmt.Errorf("generate previews: %w", err)
	}
	return nil
}

// previewBatch scales every image in the batch concurrently. The returned
// slice always has len(batch) entries; failed slots carry the source image
// unscaled.
func (g *Gallery) previewBatch(ctx context.Context, batch []domain.ImagePayload) ([]domain.ImagePayload, error) {
	previews := make([]domain.ImagePayload, len(batch))
	eg, gctx := errgroup.WithContext(ctx)
	for i, img := range batch {
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				previews[i] = img
				return err
			}
			th, err := imaging.Thumbnail(img, g.previewEdge)
			if err != nil {
				previews[i] = img
				return fmt.Errorf("image %d: %w", i, err)
			}
			previews[i] = th
			return nil
		})
	}
	err := eg.Wait()
	return previews, err
}

// Images returns the gallery in upload order.
func (g *Gallery) Images() []domain.ImagePayload {
	out := make([]domain.ImagePayload, len(g.images))
	copy(out, g.images)
	return out
}

// Previews returns the preview list, index-aligned with Images.
func (g *Gallery) Previews() []domain.ImagePayload {
	out := make([]domain.ImagePayload, len(g.previews))
	copy(out, g.previews)
	return out
}

// Len reports the number of gallery images.
func (g *Gallery) Len() int { return len(g.images) }

// Remove drops the image and preview at index. Out-of-range indexes are
// rejected.
func (g *Gallery) Remove(index int) error {
	if index < 0 || index >= len(g.images) {
		return fmt.Errorf("intake: index %d out of range (%d images)", index, len(g.images))
	}
	g.images = append(g.images[:index], g.images[index+1:]...)
	g.previews = append(g.previews[:index], g.previews[index+1:]...)
	return nil
}

// Clear empties the gallery. The reference-style image is unaffected.
func (g *Gallery) Clear() {
	g.images = nil
	g.previews = nil
}

// SetReference installs the reference-style image, replacing any previous
// one. The preview falls back to the original payload on scaling failure,
// mirroring Add.
func (g *Gallery) SetReference(ctx context.Context, img domain.ImagePayload) error {
	g.reference = img
	th, err := imaging.Thumbnail(img, g.previewEdge)
	if err != nil {
		g.referencePreview = img
		return fmt.Errorf("reference preview: %w", err)
	}
	g.referencePreview = th
	return nil
}

// SetReferencePreviewOnly restores a reference preview without the full
// payload, as happens when replaying a history item that stored only the
// preview data URL.
func (g *Gallery) SetReferencePreviewOnly(preview domain.ImagePayload) {
	g.reference = domain.ImagePayload{}
	g.referencePreview = preview
}

// Reference returns the current reference-style image, which may be zero.
func (g *Gallery) Reference() domain.ImagePayload { return g.reference }

// ReferencePreview returns the preview for the reference-style image.
func (g *Gallery) ReferencePreview() domain.ImagePayload { return g.referencePreview }

// ClearReference drops the reference-style image and preview.
func (g *Gallery) ClearReference() {
	g.reference = domain.ImagePayload{}
	g.referencePreview = domain.ImagePayload{}
}
