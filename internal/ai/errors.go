/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ai

import (
	"errors"
	"fmt"
)

// The remote service can fail in several user-visible ways; each gets its
// own error value so the UI can show a specific message instead of a
// generic one.
var (
	// ErrMissingAPIKey is raised before any network call when no
	// credential is configured.
	ErrMissingAPIKey = errors.New("API key is not set; configure the Gemini API key before generating")

	// ErrSafetyBlocked means the request was declined by the provider's
	// safety policy.
	ErrSafetyBlocked = errors.New("the request was declined by the safety policy; try a different image or description")

	// ErrNoCandidates means the model returned an empty result set.
	ErrNoCandidates = errors.New("the model returned no result; try again with a different image or instruction")

	// ErrNoImage means the model answered but no image part was present
	// and no text explains why.
	ErrNoImage = errors.New("the model did not return an image; try again")
)

// BlockedError reports a prompt block with a reason other than safety.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("generation was blocked (%s); adjust the request", e.Reason)
}

// TextResponseError reports that the model replied with text where an image
// was expected. The text is surfaced so the user can see what the model
// said.
type TextResponseError struct {
	Text string
}

func (e *TextResponseError) Error() string {
	return fmt.Sprintf("the model returned text instead of an image: %q", e.Text)
}
