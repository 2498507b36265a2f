/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package studio holds the application state and orchestrates the workflows:
// panel generation from the intake gallery, the bubble-edit session, and
// history replay. All methods are driven from a single flow of control.
package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mangastudio/internal/ai"
	"mangastudio/internal/domain"
	"mangastudio/internal/history"
	"mangastudio/internal/imaging"
	"mangastudio/internal/intake"
	applog "mangastudio/internal/log"
)

// Validation and sequencing errors. Remote failures from the Generator pass
// through verbatim.
var (
	ErrBusy             = errors.New("a request is already in flight; wait for it to finish")
	ErrNoSourceImages   = errors.New("upload at least one image before generating")
	ErrNoReferenceImage = errors.New("upload a reference image for the reference style")
	ErrUnknownStyle     = errors.New("unknown style selection")
	ErrUnknownGenre     = errors.New("unknown genre selection")
	ErrNoResult         = errors.New("no generated panel available yet")
)

// Generator is the remote capability surface the studio drives. *ai.Client
// implements it.
type Generator interface {
	GeneratePanel(ctx context.Context, images []domain.ImagePayload, prompt string) (domain.ImagePayload, error)
	DetectBubbles(ctx context.Context, image domain.ImagePayload) ([]domain.Bubble, error)
	RerenderText(ctx context.Context, image domain.ImagePayload, bubbles []domain.EditedBubble) (domain.ImagePayload, error)
}

// Studio is the explicit application-state struct: generation controls, the
// current result, the intake gallery, the history store, and the edit
// session. It replaces ambient UI state with one owner.
type Studio struct {
	gen     Generator
	gallery *intake.Gallery
	hist    *history.Store
	log     *slog.Logger

	// Generation controls.
	Style  string
	Genre  string
	Prompt string

	result domain.ImagePayload
	busy   bool

	edit editSession
}

// New wires a studio over its collaborators. Style and genre start on the
// first presets the UI shows.
func New(gen Generator, gallery *intake.Gallery, hist *history.Store) *Studio {
	return &Studio{
		gen:     gen,
		gallery: gallery,
		hist:    hist,
		log:     applog.WithComponent("studio"),
		Style:   "shonen",
		Genre:   "action",
	}
}

// Gallery exposes the intake gallery for image management.
func (s *Studio) Gallery() *intake.Gallery { return s.gallery }

// History exposes the history store for listing and deletion.
func (s *Studio) History() *history.Store { return s.hist }

// Result returns the currently displayed panel, which may be zero.
func (s *Studio) Result() domain.ImagePayload { return s.result }

// Busy reports whether a generation request is outstanding; the UI disables
// the generate action while true.
func (s *Studio) Busy() bool { return s.busy }

// Generate runs one panel generation with the current controls. It checks
// preconditions before any remote call, enforces a single in-flight
// request, and records a history item on success. Remote failures are
// returned verbatim. Calling it again with unchanged controls is the
// "regenerate" action.
func (s *Studio) Generate(ctx context.Context) error {
	if s.busy {
		return ErrBusy
	}
	if !domain.ValidStyle(s.Style) {
		return fmt.Errorf("%w: %q", ErrUnknownStyle, s.Style)
	}
	if !domain.ValidGenre(s.Genre) {
		return fmt.Errorf("%w: %q", ErrUnknownGenre, s.Genre)
	}

	images := s.gallery.Images()
	reference := s.Style == domain.StyleReference
	if reference {
		ref := s.gallery.Reference()
		if ref.IsZero() {
			return ErrNoReferenceImage
		}
		// The reference image rides last so the prompt's "last uploaded
		// image" phrasing points at it.
		images = append(images, ref)
	} else if len(images) == 0 {
		return ErrNoSourceImages
	}

	prompt := ai.PanelPrompt(s.Style, s.Genre, s.Prompt)

	s.busy = true
	defer func() { s.busy = false }()

	result, err := s.gen.GeneratePanel(ctx, images, prompt)
	if err != nil {
		return err
	}
	s.result = result

	item := domain.HistoryItem{
		ImageURL:  imaging.ToDataURL(result),
		Style:     s.Style,
		Genre:     s.Genre,
		Prompt:    s.Prompt,
		Timestamp: time.Now().UnixMilli(),
	}
	if reference {
		if prev := s.gallery.ReferencePreview(); !prev.IsZero() {
			item.ReferenceImageURL = imaging.ToDataURL(prev)
		}
	}
	// History is not essential to generation; a persistence failure is
	// logged and the successful result stands.
	if err := s.hist.Record(ctx, item); err != nil {
		s.log.Warn("recording history failed", slog.Any("err", err))
	}
	return nil
}

// SelectHistory replays a past item into the controls: style, genre,
// prompt, and the displayed image. The gallery is cleared, a reference
// preview is restored when the item used reference mode, and any edit
// session ends. History itself is never mutated.
func (s *Studio) SelectHistory(id string) error {
	item, ok := s.hist.Find(id)
	if !ok {
		return fmt.Errorf("history item %q not found", id)
	}
	payload, err := imaging.FromDataURL(item.ImageURL)
	if err != nil {
		return fmt.Errorf("history item %q: %w", id, err)
	}

	s.CancelEdit()
	s.result = payload
	s.Style = item.Style
	s.Genre = item.Genre
	s.Prompt = item.Prompt
	s.gallery.Clear()
	if item.Style == domain.StyleReference && item.ReferenceImageURL != "" {
		if prev, err := imaging.FromDataURL(item.ReferenceImageURL); err == nil {
			s.gallery.SetReferencePreviewOnly(prev)
		}
	}
	return nil
}

// RemoveHistory deletes one item by id.
func (s *Studio) RemoveHistory(ctx context.Context, id string) error {
	return s.hist.Remove(ctx, id)
}

// DownloadName yields the file name for saving the current result.
func DownloadName(now time.Time) string {
	return fmt.Sprintf("manga-studio-ai-%d.png", now.UnixMilli())
}
