package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockLLM_CannedResponses(t *testing.T) {
	m := NewMockLLM("test-model")
	m.AddResponse("classify this", "intent: optimization")

	// Exact match.
	resp, err := m.Ask(context.Background(), Request{Prompt: "classify this"})
	require.NoError(t, err)
	assert.Equal(t, "intent: optimization", resp.Text)

	// Substring match.
	resp, err = m.Ask(context.Background(), Request{Prompt: "please classify this request"})
	require.NoError(t, err)
	assert.Equal(t, "intent: optimization", resp.Text)

	// Fallback echo.
	resp, err = m.Ask(context.Background(), Request{Prompt: "something else"})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "something else")

	assert.Len(t, m.Prompts(), 3)
}

func TestMockLLM_FailWith(t *testing.T) {
	m := NewMockLLM("test-model")
	m.FailWith(errors.New("quota exceeded"))

	_, err := m.Ask(context.Background(), Request{Prompt: "anything"})
	assert.EqualError(t, err, "quota exceeded")
}

func TestMockLLM_RespectsContext(t *testing.T) {
	m := NewMockLLM("test-model")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Ask(ctx, Request{Prompt: "anything"})
	assert.ErrorIs(t, err, context.Canceled)
}
