/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"mangastudio/internal/domain"
)

// fakeCaller returns canned responses and records the last request.
type fakeCaller struct {
	resp *genai.GenerateContentResponse
	err  error

	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	calls    int
}

func (f *fakeCaller) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.model = model
	f.contents = contents
	f.config = config
	return f.resp, f.err
}

func imageResponse(data []byte, mime string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{InlineData: &genai.Blob{Data: data, MIMEType: mime}},
			}},
		}},
	}
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func srcImage() domain.ImagePayload {
	return domain.ImagePayload{Bytes: []byte("png-bytes"), MimeType: "image/png"}
}

func TestGeneratePanelReturnsImage(t *testing.T) {
	fake := &fakeCaller{resp: imageResponse([]byte("result"), "image/png")}
	c := NewClientWithCaller(fake)

	out, err := c.GeneratePanel(context.Background(), []domain.ImagePayload{srcImage()}, "a prompt")
	require.NoError(t, err)
	assert.Equal(t, []byte("result"), out.Bytes)
	assert.Equal(t, "image/png", out.MimeType)

	assert.Equal(t, ImageModel, fake.model)
	require.Len(t, fake.contents, 1)
	parts := fake.contents[0].Parts
	require.Len(t, parts, 2)
	assert.NotNil(t, parts[0].InlineData)
	assert.Equal(t, "a prompt", parts[1].Text)
	require.NotNil(t, fake.config)
	assert.Equal(t, []string{"IMAGE", "TEXT"}, fake.config.ResponseModalities)
}

func TestGeneratePanelOrdersImagesBeforePrompt(t *testing.T) {
	fake := &fakeCaller{resp: imageResponse([]byte("r"), "image/png")}
	c := NewClientWithCaller(fake)

	imgs := []domain.ImagePayload{
		{Bytes: []byte("first"), MimeType: "image/png"},
		{Bytes: []byte("second"), MimeType: "image/jpeg"},
		{Bytes: []byte("reference"), MimeType: "image/png"},
	}
	_, err := c.GeneratePanel(context.Background(), imgs, "p")
	require.NoError(t, err)

	parts := fake.contents[0].Parts
	require.Len(t, parts, 4)
	assert.Equal(t, []byte("first"), parts[0].InlineData.Data)
	assert.Equal(t, []byte("second"), parts[1].InlineData.Data)
	// The reference image stays last so "the last uploaded image" in the
	// prompt points at it.
	assert.Equal(t, []byte("reference"), parts[2].InlineData.Data)
	assert.Equal(t, "p", parts[3].Text)
}

func TestGeneratePanelRequiresImages(t *testing.T) {
	c := NewClientWithCaller(&fakeCaller{})
	_, err := c.GeneratePanel(context.Background(), nil, "p")
	require.Error(t, err)
}

func TestGeneratePanelSafetyBlock(t *testing.T) {
	fake := &fakeCaller{resp: &genai.GenerateContentResponse{
		PromptFeedback: &genai.GenerateContentResponsePromptFeedback{
			BlockReason: genai.BlockedReasonSafety,
		},
	}}
	c := NewClientWithCaller(fake)
	_, err := c.GeneratePanel(context.Background(), []domain.ImagePayload{srcImage()}, "p")
	assert.ErrorIs(t, err, ErrSafetyBlocked)
}

func TestGeneratePanelOtherBlockReason(t *testing.T) {
	fake := &fakeCaller{resp: &genai.GenerateContentResponse{
		PromptFeedback: &genai.GenerateContentResponsePromptFeedback{
			BlockReason: genai.BlockedReasonOther,
		},
	}}
	c := NewClientWithCaller(fake)
	_, err := c.GeneratePanel(context.Background(), []domain.ImagePayload{srcImage()}, "p")
	var be *BlockedError
	require.ErrorAs(t, err, &be)
	assert.Contains(t, be.Reason, "OTHER")
}

func TestGeneratePanelNoCandidates(t *testing.T) {
	fake := &fakeCaller{resp: &genai.GenerateContentResponse{}}
	c := NewClientWithCaller(fake)
	_, err := c.GeneratePanel(context.Background(), []domain.ImagePayload{srcImage()}, "p")
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestGeneratePanelTextOnlyResponse(t *testing.T) {
	fake := &fakeCaller{resp: textResponse("I cannot draw that.")}
	c := NewClientWithCaller(fake)
	_, err := c.GeneratePanel(context.Background(), []domain.ImagePayload{srcImage()}, "p")
	var te *TextResponseError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "I cannot draw that.", te.Text)
}

func TestGeneratePanelEmptyAnswer(t *testing.T) {
	fake := &fakeCaller{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{}}},
	}}
	c := NewClientWithCaller(fake)
	_, err := c.GeneratePanel(context.Background(), []domain.ImagePayload{srcImage()}, "p")
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestGeneratePanelTransportError(t *testing.T) {
	fake := &fakeCaller{err: errors.New("connection refused")}
	c := NewClientWithCaller(fake)
	_, err := c.GeneratePanel(context.Background(), []domain.ImagePayload{srcImage()}, "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRerenderTextSendsImageAndPrompt(t *testing.T) {
	fake := &fakeCaller{resp: imageResponse([]byte("edited"), "image/png")}
	c := NewClientWithCaller(fake)

	bubbles := []domain.EditedBubble{{
		Bubble: domain.Bubble{
			ID:   "bubble-1",
			Box:  domain.BoundingBox{X1: 0.1, Y1: 0.2, X2: 0.5, Y2: 0.6},
			Text: "Hello",
		},
		NewText: "Goodbye",
	}}
	out, err := c.RerenderText(context.Background(), srcImage(), bubbles)
	require.NoError(t, err)
	assert.Equal(t, []byte("edited"), out.Bytes)

	assert.Equal(t, ImageModel, fake.model)
	parts := fake.contents[0].Parts
	require.Len(t, parts, 2)
	assert.NotNil(t, parts[0].InlineData)
	assert.Contains(t, parts[1].Text, "Region 1:")
	assert.Contains(t, parts[1].Text, `"Hello"`)
	assert.Contains(t, parts[1].Text, `"Goodbye"`)
	assert.Contains(t, parts[1].Text, "x1=0.1000")
}

func TestRerenderTextRequiresInput(t *testing.T) {
	c := NewClientWithCaller(&fakeCaller{})
	_, err := c.RerenderText(context.Background(), domain.ImagePayload{}, []domain.EditedBubble{{}})
	require.Error(t, err)
	_, err = c.RerenderText(context.Background(), srcImage(), nil)
	require.Error(t, err)
}

func TestNewClientRejectsMissingKey(t *testing.T) {
	_, err := NewClient(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}
