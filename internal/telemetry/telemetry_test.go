/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestDisabledByDefault(t *testing.T) {
	c := New(Config{})
	defer c.Close()
	if c.Enabled() {
		t.Fatal("telemetry must be disabled without opt-in")
	}
	// Opt-in without an endpoint still drops everything.
	c2 := New(Config{OptIn: true})
	defer c2.Close()
	if c2.Enabled() {
		t.Fatal("telemetry must be disabled without an endpoint")
	}
	c2.Event("generate", nil)
}

func TestEventDelivery(t *testing.T) {
	var mu sync.Mutex
	var got []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var m map[string]any
		if err := json.Unmarshal(body, &m); err != nil {
			t.Errorf("bad event payload: %v", err)
		}
		mu.Lock()
		got = append(got, m)
		mu.Unlock()
	}))
	defer srv.Close()

	c := New(Config{OptIn: true, EventsURL: srv.URL, Timeout: time.Second})
	defer c.Close()
	c.Event("panel_generated", map[string]any{"style": "shonen"})
	c.Flush(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
	ev := got[0]
	if ev["name"] != "panel_generated" || ev["style"] != "shonen" {
		t.Fatalf("event = %v", ev)
	}
	if ev["app"] != "mangastudio" || ev["version"] == "" {
		t.Fatalf("event missing app identity: %v", ev)
	}
}

func TestEventDropsWhenQueueFull(t *testing.T) {
	// No server: sends fail, but Event must never block.
	c := New(Config{OptIn: true, EventsURL: "http://127.0.0.1:0", Timeout: 50 * time.Millisecond})
	defer c.Close()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 500; i++ {
			c.Event("spam", nil)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Event blocked with a full queue")
	}
}

func TestUploadCrashRespectsOptIn(t *testing.T) {
	hits := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		hits <- body
	}))
	defer srv.Close()

	off := New(Config{CrashURL: srv.URL, Timeout: time.Second})
	defer off.Close()
	off.UploadCrash([]byte("report"))

	on := New(Config{OptIn: true, CrashURL: srv.URL, Timeout: time.Second})
	defer on.Close()
	on.UploadCrash([]byte("report"))

	select {
	case body := <-hits:
		if string(body) != "report" {
			t.Fatalf("uploaded %q, want %q", body, "report")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("opt-in crash upload never arrived")
	}
	select {
	case <-hits:
		t.Fatal("crash uploaded without opt-in")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("MGS_TELEMETRY_OPT_IN", "yes")
	t.Setenv("MGS_TELEMETRY_URL", "https://example.com/events")
	t.Setenv("MGS_CRASH_UPLOAD_URL", "https://example.com/crash")
	t.Setenv("MGS_TELEMETRY_TIMEOUT_MS", "250")

	cfg := FromEnv()
	if !cfg.OptIn {
		t.Fatal("opt-in not read")
	}
	if cfg.EventsURL != "https://example.com/events" || cfg.CrashURL != "https://example.com/crash" {
		t.Fatalf("urls = %q / %q", cfg.EventsURL, cfg.CrashURL)
	}
	if cfg.Timeout != 250*time.Millisecond {
		t.Fatalf("timeout = %v, want 250ms", cfg.Timeout)
	}
}
