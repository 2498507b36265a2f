/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"mangastudio/internal/domain"
)

// EditState names the phases of a bubble-edit session.
type EditState string

const (
	EditIdle      EditState = "idle"
	EditDetecting EditState = "detecting"
	EditEditing   EditState = "editing"
	EditSaving    EditState = "saving"
)

// ErrStaleSession signals that a remote result arrived for a session that
// was cancelled or superseded; the result was discarded, nothing changed.
var ErrStaleSession = errors.New("edit session is no longer current; result discarded")

// editSession is the per-session state. The token changes on every start
// and cancel so late remote results can be recognized and dropped.
type editSession struct {
	state    EditState
	token    uint64
	original domain.ImagePayload
	bubbles  []domain.Bubble
	edits    map[string]string // bubble ID -> current edit text
}

// EditState reports the current session phase.
func (s *Studio) EditState() EditState {
	if s.edit.state == "" {
		return EditIdle
	}
	return s.edit.state
}

// Bubbles returns the detected bubbles of the active session in detection
// order.
func (s *Studio) Bubbles() []domain.Bubble {
	out := make([]domain.Bubble, len(s.edit.bubbles))
	copy(out, s.edit.bubbles)
	return out
}

// BubbleText returns the current edit text for a bubble ID.
func (s *Studio) BubbleText(id string) (string, bool) {
	t, ok := s.edit.edits[id]
	return t, ok
}

// BeginEdit captures the current result as the immutable original for this
// session and runs bubble detection on it. On success the session enters
// editing with each bubble's text seeded from detection; on failure the
// session returns to idle and edit mode is never entered.
func (s *Studio) BeginEdit(ctx context.Context) error {
	if s.result.IsZero() {
		return ErrNoResult
	}
	if st := s.EditState(); st != EditIdle {
		return fmt.Errorf("%w (edit session is %s)", ErrBusy, st)
	}

	s.edit.token++
	token := s.edit.token
	s.edit.state = EditDetecting
	s.edit.original = s.result
	s.edit.bubbles = nil
	s.edit.edits = nil

	bubbles, err := s.gen.DetectBubbles(ctx, s.edit.original)
	if s.edit.token != token {
		// Cancelled while detecting; drop whatever came back.
		return ErrStaleSession
	}
	if err != nil {
		s.resetEdit()
		return err
	}

	edits := make(map[string]string, len(bubbles))
	for _, b := range bubbles {
		edits[b.ID] = b.Text
	}
	s.edit.state = EditEditing
	s.edit.bubbles = bubbles
	s.edit.edits = edits
	return nil
}

// SetBubbleText updates the edit text for one bubble, keyed by its stable
// ID.
func (s *Studio) SetBubbleText(id, text string) error {
	if s.EditState() != EditEditing {
		return fmt.Errorf("no active edit session")
	}
	if _, ok := s.edit.edits[id]; !ok {
		return fmt.Errorf("unknown bubble %q", id)
	}
	s.edit.edits[id] = text
	return nil
}

// changedBubbles computes the changed-only subset: bubbles whose edit text
// differs from the detected original, in detection order. Running it twice
// without further edits yields the same subset; after a successful save the
// session is gone, so nothing is ever re-sent.
func (s *Studio) changedBubbles() []domain.EditedBubble {
	var out []domain.EditedBubble
	for _, b := range s.edit.bubbles {
		text, ok := s.edit.edits[b.ID]
		if !ok || text == b.Text {
			continue
		}
		out = append(out, domain.EditedBubble{Bubble: b, NewText: text})
	}
	return out
}

// SaveEdit sends the changed bubbles for re-rendering. A save with no
// changes is valid: the session just ends without a remote call. On remote
// failure the session stays in editing with the original intact so the
// user can retry; on success the displayed image is replaced and the
// session ends.
func (s *Studio) SaveEdit(ctx context.Context) error {
	if s.EditState() != EditEditing {
		return fmt.Errorf("no active edit session")
	}
	changed := s.changedBubbles()
	if len(changed) == 0 {
		s.resetEdit()
		return nil
	}

	token := s.edit.token
	s.edit.state = EditSaving
	s.log.Info("saving bubble edits", slog.Int("changed", len(changed)))

	result, err := s.gen.RerenderText(ctx, s.edit.original, changed)
	if s.edit.token != token {
		return ErrStaleSession
	}
	if err != nil {
		s.edit.state = EditEditing
		return err
	}
	s.result = result
	s.resetEdit()
	return nil
}

// CancelEdit unconditionally discards all session state and returns to
// idle. An in-flight detection or save is not aborted; its result will be
// recognized as stale and dropped.
func (s *Studio) CancelEdit() {
	s.edit.token++
	s.resetEdit()
}

func (s *Studio) resetEdit() {
	s.edit.state = EditIdle
	s.edit.original = domain.ImagePayload{}
	s.edit.bubbles = nil
	s.edit.edits = nil
}
