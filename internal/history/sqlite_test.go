/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package history

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func openTestKV(t *testing.T, quota int64) *SQLiteKV {
	t.Helper()
	kv, err := OpenSQLiteKV(t.TempDir(), quota)
	if err != nil {
		t.Fatalf("OpenSQLiteKV: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func TestSQLiteKVRoundTrip(t *testing.T) {
	kv := openTestKV(t, 0)
	ctx := context.Background()

	if _, ok, err := kv.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}
	if err := kv.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := kv.Set(ctx, "k", "v2"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	v, ok, err := kv.Get(ctx, "k")
	if err != nil || !ok || v != "v2" {
		t.Fatalf("Get = %q ok=%v err=%v", v, ok, err)
	}
	if err := kv.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := kv.Get(ctx, "k"); ok {
		t.Fatal("key survived delete")
	}
	// Deleting again is fine.
	if err := kv.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
}

func TestSQLiteKVQuota(t *testing.T) {
	kv := openTestKV(t, 64)
	ctx := context.Background()

	if err := kv.Set(ctx, "a", strings.Repeat("x", 40)); err != nil {
		t.Fatalf("Set within quota: %v", err)
	}
	err := kv.Set(ctx, "b", strings.Repeat("y", 40))
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	// The rejected write must not have landed.
	if _, ok, _ := kv.Get(ctx, "b"); ok {
		t.Fatal("rejected key was stored")
	}

	// Replacing an existing key counts the new size, not old plus new.
	if err := kv.Set(ctx, "a", strings.Repeat("z", 50)); err != nil {
		t.Fatalf("replace within quota: %v", err)
	}
	total, err := kv.TotalBytes(ctx)
	if err != nil {
		t.Fatalf("TotalBytes: %v", err)
	}
	if total != 51 {
		t.Fatalf("total = %d, want 51", total)
	}
}

func TestSQLiteKVPersistsAcrossOpens(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	kv, err := OpenSQLiteKV(dir, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := kv.Set(ctx, "key", "value"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := kv.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	kv2, err := OpenSQLiteKV(dir, 0)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer kv2.Close()
	v, ok, err := kv2.Get(ctx, "key")
	if err != nil || !ok || v != "value" {
		t.Fatalf("reloaded Get = %q ok=%v err=%v", v, ok, err)
	}
}

func TestQuotaFromEnv(t *testing.T) {
	t.Setenv("MGS_HISTORY_MAX_BYTES", "1234")
	if got := QuotaFromEnv(); got != 1234 {
		t.Fatalf("QuotaFromEnv = %d", got)
	}
	t.Setenv("MGS_HISTORY_MAX_BYTES", "garbage")
	if got := QuotaFromEnv(); got != DefaultQuotaBytes {
		t.Fatalf("fallback = %d", got)
	}
}
