/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package history

import (
	"context"
	"fmt"
	"testing"

	"mangastudio/internal/domain"
)

// memKV is an in-memory KVStore with an optional byte quota, standing in
// for browser local storage in tests.
type memKV struct {
	data  map[string]string
	quota int
	sets  int
}

func newMemKV(quota int) *memKV { return &memKV{data: map[string]string{}, quota: quota} }

func (m *memKV) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Set(_ context.Context, key, value string) error {
	m.sets++
	if m.quota > 0 {
		total := len(key) + len(value)
		for k, v := range m.data {
			if k != key {
				total += len(k) + len(v)
			}
		}
		if total > m.quota {
			return fmt.Errorf("set %q: %w", key, ErrQuotaExceeded)
		}
	}
	m.data[key] = value
	return nil
}

func (m *memKV) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func item(id, url string) domain.HistoryItem {
	return domain.HistoryItem{ID: id, ImageURL: url, Style: "shonen", Genre: "action", Timestamp: 1}
}

func TestLoadMissingKeyYieldsEmpty(t *testing.T) {
	s := NewStore(newMemKV(0))
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty history, got %d items", s.Len())
	}
}

func TestRecordPrependsAndPersists(t *testing.T) {
	kv := newMemKV(0)
	s := NewStore(kv)
	ctx := context.Background()
	if err := s.Record(ctx, item("a", "url-a")); err != nil {
		t.Fatalf("Record a: %v", err)
	}
	if err := s.Record(ctx, item("b", "url-b")); err != nil {
		t.Fatalf("Record b: %v", err)
	}
	items := s.Items()
	if len(items) != 2 || items[0].ID != "b" || items[1].ID != "a" {
		t.Fatalf("order wrong: %+v", items)
	}

	// A fresh store over the same KV sees the same list.
	s2 := NewStore(kv)
	if err := s2.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s2.Len() != 2 || s2.Items()[0].ID != "b" {
		t.Fatalf("reload mismatch: %+v", s2.Items())
	}
}

func TestRecordFillsIDAndTimestamp(t *testing.T) {
	s := NewStore(newMemKV(0))
	if err := s.Record(context.Background(), domain.HistoryItem{ImageURL: "u"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	got := s.Items()[0]
	if got.ID == "" || got.Timestamp == 0 {
		t.Fatalf("identity not filled: %+v", got)
	}
}

func TestRecordCapsAtMaxItems(t *testing.T) {
	s := NewStore(newMemKV(0))
	ctx := context.Background()
	for i := 0; i < MaxItems+5; i++ {
		if err := s.Record(ctx, item(fmt.Sprintf("id-%d", i), "u")); err != nil {
			t.Fatalf("Record %d: %v", i, err)
		}
	}
	if s.Len() != MaxItems {
		t.Fatalf("len = %d, want %d", s.Len(), MaxItems)
	}
	items := s.Items()
	if items[0].ID != fmt.Sprintf("id-%d", MaxItems+4) {
		t.Fatalf("newest item wrong: %s", items[0].ID)
	}
	// Oldest surviving item: the cap drops one old entry per insert.
	if items[MaxItems-1].ID != "id-5" {
		t.Fatalf("oldest item wrong: %s", items[MaxItems-1].ID)
	}
}

func TestQuotaShedsOldestUntilFit(t *testing.T) {
	// Room for roughly two serialized items.
	kv := newMemKV(500)
	s := NewStore(kv)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := s.Record(ctx, item(fmt.Sprintf("q-%d", i), "0123456789012345678901234567890123456789")); err != nil {
			t.Fatalf("Record %d: %v", i, err)
		}
	}
	items := s.Items()
	if len(items) == 0 || len(items) >= 5 {
		t.Fatalf("expected partial shedding, got %d items", len(items))
	}
	// The newest item always survives shedding.
	if items[0].ID != "q-4" {
		t.Fatalf("newest item lost: %+v", items)
	}
	// Persisted state matches memory.
	s2 := NewStore(kv)
	if err := s2.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s2.Len() != len(items) {
		t.Fatalf("persisted %d != memory %d", s2.Len(), len(items))
	}
}

func TestQuotaTooSmallForAnythingClearsRecord(t *testing.T) {
	kv := newMemKV(10)
	s := NewStore(kv)
	ctx := context.Background()
	if err := s.Record(ctx, item("big", "0123456789012345678901234567890123456789")); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty history, got %d", s.Len())
	}
	if _, ok := kv.data[storageKey]; ok {
		t.Fatal("record should have been deleted")
	}
}

func TestRemoveByID(t *testing.T) {
	kv := newMemKV(0)
	s := NewStore(kv)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := s.Record(ctx, item(id, "u")); err != nil {
			t.Fatalf("Record %s: %v", id, err)
		}
	}
	if err := s.Remove(ctx, "b"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	items := s.Items()
	if len(items) != 2 || items[0].ID != "c" || items[1].ID != "a" {
		t.Fatalf("remove left %+v", items)
	}
	sets := kv.sets
	if err := s.Remove(ctx, "nope"); err != nil {
		t.Fatalf("Remove unknown: %v", err)
	}
	if kv.sets != sets {
		t.Fatal("removing an unknown id should not persist")
	}
}

func TestLoadCorruptRecordStartsEmpty(t *testing.T) {
	kv := newMemKV(0)
	kv.data[storageKey] = "{not json"
	s := NewStore(kv)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("corrupt record should load empty, got %d", s.Len())
	}
	if _, ok := kv.data[storageKey]; ok {
		t.Fatal("corrupt record should be deleted")
	}
}

func TestFind(t *testing.T) {
	s := NewStore(newMemKV(0))
	ctx := context.Background()
	if err := s.Record(ctx, item("x", "url-x")); err != nil {
		t.Fatalf("Record: %v", err)
	}
	got, ok := s.Find("x")
	if !ok || got.ImageURL != "url-x" {
		t.Fatalf("Find x = %+v ok=%v", got, ok)
	}
	if _, ok := s.Find("y"); ok {
		t.Fatal("found nonexistent id")
	}
}
