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
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"google.golang.org/genai"

	"mangastudio/internal/domain"
)

// ErrDetectionFailed is the generic wrapper for bubble detection problems
// that are not a missing credential.
var ErrDetectionFailed = errors.New("could not detect speech bubbles in the image")

// bubbleResponseSchema constrains the model output: an array of objects
// with a normalized box and the text inside it.
var bubbleResponseSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"box": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"x1": {Type: genai.TypeNumber},
					"y1": {Type: genai.TypeNumber},
					"x2": {Type: genai.TypeNumber},
					"y2": {Type: genai.TypeNumber},
				},
				Required: []string{"x1", "y1", "x2", "y2"},
			},
			"text": {Type: genai.TypeString},
		},
		Required: []string{"box", "text"},
	},
}

// bubbleListJSONSchema re-validates what actually came back; the model is
// asked for the shape above but is not guaranteed to honor it.
const bubbleListJSONSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"properties": {
			"box": {
				"type": "object",
				"properties": {
					"x1": {"type": "number"},
					"y1": {"type": "number"},
					"x2": {"type": "number"},
					"y2": {"type": "number"}
				},
				"required": ["x1", "y1", "x2", "y2"]
			},
			"text": {"type": "string"}
		},
		"required": ["box", "text"]
	}
}`

var bubbleListSchema = gojsonschema.NewStringLoader(bubbleListJSONSchema)

type bubbleWire struct {
	Box  domain.BoundingBox `json:"box"`
	Text string             `json:"text"`
}

// DetectBubbles asks the text model for every speech bubble in the image.
// Returned bubbles carry stable synthetic IDs assigned in detection order,
// and their boxes are clamped into the unit square.
func (c *Client) DetectBubbles(ctx context.Context, image domain.ImagePayload) ([]domain.Bubble, error) {
	if image.IsZero() {
		return nil, errors.New("ai: image to analyze is required")
	}
	parts := []*genai.Part{
		{InlineData: &genai.Blob{Data: image.Bytes, MIMEType: image.MimeType}},
		{Text: detectionPrompt},
	}

	c.log.Info("detecting speech bubbles")
	resp, err := c.caller.GenerateContent(ctx, c.textModel,
		[]*genai.Content{{Parts: parts}},
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   bubbleResponseSchema,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDetectionFailed, err)
	}

	bubbles, err := parseBubbles(resp.Text())
	if err != nil {
		c.log.Warn("detection response rejected", slog.Any("err", err))
		return nil, fmt.Errorf("%w: %w", ErrDetectionFailed, err)
	}
	return bubbles, nil
}

// parseBubbles validates the raw model output against the JSON schema and
// converts it into domain bubbles with synthetic IDs.
func parseBubbles(raw string) ([]domain.Bubble, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("empty detection response")
	}
	res, err := gojsonschema.Validate(bubbleListSchema, gojsonschema.NewStringLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("validate detection JSON: %w", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("detection JSON does not match schema: %s", strings.Join(msgs, "; "))
	}

	var wire []bubbleWire
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("decode detection JSON: %w", err)
	}
	bubbles := make([]domain.Bubble, len(wire))
	for i, w := range wire {
		bubbles[i] = domain.Bubble{
			ID:   fmt.Sprintf("bubble-%d", i+1),
			Box:  w.Box.Clamp(),
			Text: w.Text,
		}
	}
	return bubbles, nil
}
