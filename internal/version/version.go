/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

// Package version exposes the application version string.
package version

// Version is the semantic version of the application. Overridden at build
// time via -ldflags "-X mangastudio/internal/version.Version=...".
var Version = "0.1.0-dev"

// String returns the version in a human-readable form.
func String() string { return "v" + Version }
