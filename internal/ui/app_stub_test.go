//go:build !fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package ui

import (
	"strings"
	"testing"
)

func TestRunStubExplainsBuildTag(t *testing.T) {
	err := Run()
	if err == nil {
		t.Fatal("stub Run must fail")
	}
	if !strings.Contains(err.Error(), "-tags fyne") {
		t.Fatalf("error should point at the fyne build tag: %v", err)
	}
}
