/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mangastudio/internal/domain"
)

const goodDetectionJSON = `[
	{"box": {"x1": 0.1, "y1": 0.2, "x2": 0.5, "y2": 0.6}, "text": "Hello!"},
	{"box": {"x1": 0.6, "y1": 0.1, "x2": 0.9, "y2": 0.3}, "text": "Run!"}
]`

func TestDetectBubblesParsesResponse(t *testing.T) {
	fake := &fakeCaller{resp: textResponse(goodDetectionJSON)}
	c := NewClientWithCaller(fake)

	bubbles, err := c.DetectBubbles(context.Background(), srcImage())
	require.NoError(t, err)
	require.Len(t, bubbles, 2)

	assert.Equal(t, "bubble-1", bubbles[0].ID)
	assert.Equal(t, "Hello!", bubbles[0].Text)
	assert.InDelta(t, 0.1, bubbles[0].Box.X1, 1e-9)
	assert.Equal(t, "bubble-2", bubbles[1].ID)
	assert.Equal(t, "Run!", bubbles[1].Text)

	assert.Equal(t, TextModel, fake.model)
	require.NotNil(t, fake.config)
	assert.Equal(t, "application/json", fake.config.ResponseMIMEType)
	require.NotNil(t, fake.config.ResponseSchema)
}

func TestDetectBubblesEmptyListIsValid(t *testing.T) {
	fake := &fakeCaller{resp: textResponse("[]")}
	c := NewClientWithCaller(fake)
	bubbles, err := c.DetectBubbles(context.Background(), srcImage())
	require.NoError(t, err)
	assert.Empty(t, bubbles)
}

func TestDetectBubblesClampsBoxes(t *testing.T) {
	fake := &fakeCaller{resp: textResponse(
		`[{"box": {"x1": -0.2, "y1": 0.9, "x2": 1.4, "y2": 0.1}, "text": "x"}]`)}
	c := NewClientWithCaller(fake)
	bubbles, err := c.DetectBubbles(context.Background(), srcImage())
	require.NoError(t, err)
	require.Len(t, bubbles, 1)
	assert.Equal(t, domain.BoundingBox{X1: 0, Y1: 0.1, X2: 1, Y2: 0.9}, bubbles[0].Box)
}

func TestDetectBubblesRejectsMalformedJSON(t *testing.T) {
	cases := map[string]string{
		"not json":      "this is not JSON",
		"wrong shape":   `{"bubbles": []}`,
		"missing text":  `[{"box": {"x1": 0, "y1": 0, "x2": 1, "y2": 1}}]`,
		"missing coord": `[{"box": {"x1": 0, "y1": 0, "x2": 1}, "text": "a"}]`,
		"empty":         "",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			c := NewClientWithCaller(&fakeCaller{resp: textResponse(raw)})
			_, err := c.DetectBubbles(context.Background(), srcImage())
			assert.ErrorIs(t, err, ErrDetectionFailed)
		})
	}
}

func TestDetectBubblesTransportError(t *testing.T) {
	fake := &fakeCaller{err: assert.AnError}
	c := NewClientWithCaller(fake)
	_, err := c.DetectBubbles(context.Background(), srcImage())
	assert.ErrorIs(t, err, ErrDetectionFailed)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestDetectBubblesRequiresImage(t *testing.T) {
	c := NewClientWithCaller(&fakeCaller{})
	_, err := c.DetectBubbles(context.Background(), domain.ImagePayload{})
	require.Error(t, err)
}
