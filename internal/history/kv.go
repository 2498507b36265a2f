/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package history keeps the gallery of previously generated panels in a
// quota-bounded key-value store and degrades gracefully when the quota or
// the stored payload misbehaves.
package history

import (
	"context"
	"errors"
)

// ErrQuotaExceeded is returned by KVStore.Set when storing the value would
// push the store past its byte quota. The caller decides what to shed.
var ErrQuotaExceeded = errors.New("history: storage quota exceeded")

// KVStore is the persistence contract for history. Implementations enforce
// their own byte quota and signal overflow with ErrQuotaExceeded instead of
// evicting silently.
type KVStore interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores the value, replacing any previous one. Returns
	// ErrQuotaExceeded (possibly wrapped) when the value does not fit.
	Set(ctx context.Context, key, value string) error
	// Delete removes the key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
