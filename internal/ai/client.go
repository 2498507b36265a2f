/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package ai talks to the Gemini API: panel generation from source images,
// speech-bubble detection, and text re-rendering inside detected bubbles.
package ai

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	applog "mangastudio/internal/log"
)

// Model names. Image work goes to the image-capable model; structured
// detection runs on the text model.
const (
	ImageModel = "gemini-2.5-flash-image"
	TextModel  = "gemini-2.5-flash"
)

// Caller is the slice of the genai SDK the client needs. It exists so tests
// can substitute canned responses without network access.
type Caller interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client wraps a Caller with the application's request and response
// conventions.
type Client struct {
	caller     Caller
	log        *slog.Logger
	imageModel string
	textModel  string
}

// genaiCaller adapts the real SDK client to the Caller interface.
type genaiCaller struct {
	c *genai.Client
}

func (g *genaiCaller) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return g.c.Models.GenerateContent(ctx, model, contents, config)
}

// NewClient builds a client against the Gemini API. The key is validated
// up front so a missing credential fails with a clear message instead of a
// network error later.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return NewClientWithCaller(&genaiCaller{c: c}), nil
}

// NewClientWithCaller wires an arbitrary Caller, primarily for tests.
func NewClientWithCaller(c Caller) *Client {
	return &Client{
		caller:     c,
		log:        applog.WithComponent("ai"),
		imageModel: ImageModel,
		textModel:  TextModel,
	}
}

// SetModels overrides the model names from configuration. Empty values
// keep the defaults.
func (c *Client) SetModels(imageModel, textModel string) {
	if imageModel != "" {
		c.imageModel = imageModel
	}
	if textModel != "" {
		c.textModel = textModel
	}
}
