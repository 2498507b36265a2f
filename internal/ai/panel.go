/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"mangastudio/internal/domain"
)

// GeneratePanel renders a manga panel from the source images and the
// assembled prompt. When a reference-style image is used it must be the
// last element of images, matching the prompt's wording. Exactly one image
// payload is returned on success.
func (c *Client) GeneratePanel(ctx context.Context, images []domain.ImagePayload, prompt string) (domain.ImagePayload, error) {
	if len(images) == 0 {
		return domain.ImagePayload{}, errors.New("ai: at least one source image is required")
	}
	parts := make([]*genai.Part, 0, len(images)+1)
	for _, img := range images {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{Data: img.Bytes, MIMEType: img.MimeType}})
	}
	parts = append(parts, &genai.Part{Text: prompt})

	c.log.Info("generating panel", slog.Int("images", len(images)))
	resp, err := c.caller.GenerateContent(ctx, c.imageModel,
		[]*genai.Content{{Parts: parts}},
		&genai.GenerateContentConfig{ResponseModalities: []string{"IMAGE", "TEXT"}},
	)
	if err != nil {
		return domain.ImagePayload{}, fmt.Errorf("generate panel: %w", err)
	}
	return extractImage(resp)
}

// RerenderText asks the image model to in-paint the given bubbles with
// their replacement text, leaving everything outside the boxes untouched.
func (c *Client) RerenderText(ctx context.Context, image domain.ImagePayload, bubbles []domain.EditedBubble) (domain.ImagePayload, error) {
	if image.IsZero() {
		return domain.ImagePayload{}, errors.New("ai: source image is required")
	}
	if len(bubbles) == 0 {
		return domain.ImagePayload{}, errors.New("ai: no bubbles to re-render")
	}
	parts := []*genai.Part{
		{InlineData: &genai.Blob{Data: image.Bytes, MIMEType: image.MimeType}},
		{Text: RerenderPrompt(bubbles)},
	}

	c.log.Info("re-rendering bubble text", slog.Int("bubbles", len(bubbles)))
	resp, err := c.caller.GenerateContent(ctx, c.imageModel,
		[]*genai.Content{{Parts: parts}},
		&genai.GenerateContentConfig{ResponseModalities: []string{"IMAGE", "TEXT"}},
	)
	if err != nil {
		return domain.ImagePayload{}, fmt.Errorf("re-render text: %w", err)
	}
	return extractImage(resp)
}

// extractImage walks a response in the order failures must be reported:
// prompt block first, then missing candidates, then the first inline image,
// then a text-only reply, and finally a silent empty answer.
func extractImage(resp *genai.GenerateContentResponse) (domain.ImagePayload, error) {
	if err := blockedErr(resp); err != nil {
		return domain.ImagePayload{}, err
	}
	if len(resp.Candidates) == 0 {
		return domain.ImagePayload{}, ErrNoCandidates
	}
	if content := resp.Candidates[0].Content; content != nil {
		for _, part := range content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return domain.ImagePayload{
					Bytes:    part.InlineData.Data,
					MimeType: part.InlineData.MIMEType,
				}, nil
			}
		}
	}
	if text := strings.TrimSpace(resp.Text()); text != "" {
		return domain.ImagePayload{}, &TextResponseError{Text: text}
	}
	return domain.ImagePayload{}, ErrNoImage
}

func blockedErr(resp *genai.GenerateContentResponse) error {
	if resp.PromptFeedback == nil || resp.PromptFeedback.BlockReason == "" {
		return nil
	}
	if resp.PromptFeedback.BlockReason == genai.BlockedReasonSafety {
		return ErrSafetyBlocked
	}
	return &BlockedError{Reason: string(resp.PromptFeedback.BlockReason)}
}
