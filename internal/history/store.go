/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mangastudio/internal/domain"
	applog "mangastudio/internal/log"
)

const (
	// storageKey is the single key holding the serialized history list.
	storageKey = "mangaHistory"

	// MaxItems caps the in-memory and persisted history length.
	MaxItems = 50
)

// Store maintains the newest-first list of generated panels and mirrors it
// into a KVStore under a single key. All mutation methods persist before
// returning.
//
// Store methods are not safe for concurrent use; the app serializes access.
type Store struct {
	kv    KVStore
	items []domain.HistoryItem
	log   *slog.Logger
}

// NewStore wraps kv. Call Load before first use to pick up persisted state.
func NewStore(kv KVStore) *Store {
	return &Store{kv: kv, log: applog.WithComponent("history")}
}

// Load reads the persisted list. A missing key yields an empty history.
// A value that fails to parse is treated the same way: the corrupt record
// is deleted and the session starts empty rather than failing startup.
func (s *Store) Load(ctx context.Context) error {
	raw, ok, err := s.kv.Get(ctx, storageKey)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	if !ok {
		s.items = nil
		return nil
	}
	var items []domain.HistoryItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.log.Warn("history record corrupt, discarding", slog.Any("err", err))
		if derr := s.kv.Delete(ctx, storageKey); derr != nil {
			return fmt.Errorf("discard corrupt history: %w", derr)
		}
		s.items = nil
		return nil
	}
	if len(items) > MaxItems {
		items = items[:MaxItems]
	}
	s.items = items
	return nil
}

// Items returns a copy of the current list, newest first.
func (s *Store) Items() []domain.HistoryItem {
	out := make([]domain.HistoryItem, len(s.items))
	copy(out, s.items)
	return out
}

// Len reports the current item count.
func (s *Store) Len() int { return len(s.items) }

// Find returns the item with the given id.
func (s *Store) Find(id string) (domain.HistoryItem, bool) {
	for _, it := range s.items {
		if it.ID == id {
			return it, true
		}
	}
	return domain.HistoryItem{}, false
}

// Record prepends the item, trims the list to MaxItems, and persists. An
// empty ID or timestamp is filled in from the clock.
func (s *Store) Record(ctx context.Context, item domain.HistoryItem) error {
	now := time.Now()
	if item.ID == "" {
		item.ID = now.UTC().Format(time.RFC3339Nano)
	}
	if item.Timestamp == 0 {
		item.Timestamp = now.UnixMilli()
	}
	next := make([]domain.HistoryItem, 0, len(s.items)+1)
	next = append(next, item)
	if len(s.items) >= MaxItems {
		next = append(next, s.items[:MaxItems-1]...)
	} else {
		next = append(next, s.items...)
	}
	return s.persist(ctx, next)
}

// Remove deletes the item with the given id and persists. Removing an
// unknown id is a no-op.
func (s *Store) Remove(ctx context.Context, id string) error {
	next := make([]domain.HistoryItem, 0, len(s.items))
	for _, it := range s.items {
		if it.ID != id {
			next = append(next, it)
		}
	}
	if len(next) == len(s.items) {
		return nil
	}
	return s.persist(ctx, next)
}

// Clear drops every item and removes the persisted record.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, storageKey); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	s.items = nil
	return nil
}

// persist writes the list, shedding the oldest entries while the store
// reports quota overflow. When even a single item does not fit, the record
// is deleted and the history ends up empty. The in-memory list always
// matches what was actually persisted.
func (s *Store) persist(ctx context.Context, items []domain.HistoryItem) error {
	for len(items) > 0 {
		raw, err := json.Marshal(items)
		if err != nil {
			return fmt.Errorf("encode history: %w", err)
		}
		err = s.kv.Set(ctx, storageKey, string(raw))
		if err == nil {
			if len(items) < len(s.items) {
				s.log.Warn("history truncated to fit storage quota",
					slog.Int("kept", len(items)))
			}
			s.items = items
			return nil
		}
		if !errors.Is(err, ErrQuotaExceeded) {
			return fmt.Errorf("persist history: %w", err)
		}
		// Oldest item goes first; retry with the shorter list.
		items = items[:len(items)-1]
	}
	if err := s.kv.Delete(ctx, storageKey); err != nil {
		return fmt.Errorf("clear oversized history: %w", err)
	}
	s.log.Warn("history dropped entirely, no item fits the storage quota")
	s.items = nil
	return nil
}
