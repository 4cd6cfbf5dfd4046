package model

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Request captures the normalized LLM input produced by agent units.
type Request struct {
	Instructions string `json:"instructions"` // System-level guidance for the model
	Prompt       string `json:"prompt"`       // User-level prompt text
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the completed model output for one Ask call.
type Response struct {
	Text         string      `json:"text"`
	FinishReason string      `json:"finish_reason"` // "stop", "length", etc.
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// LLM is the minimal interface required by agent units to drive generation.
// Implementations must be safe for concurrent use: one handle is shared
// across all executions.
type LLM interface {
	Ask(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockLLM is a lightweight in‑memory LLM useful for tests & examples. Canned
// completions are matched by exact prompt first, then by substring, then a
// generic echo response is produced. Prompts are recorded for assertions.
type MockLLM struct {
	info Info

	mu        sync.Mutex
	responses map[string]string
	err       error
	prompts   []string
}

// NewMockLLM constructs a MockLLM.
func NewMockLLM(name string) *MockLLM {
	return &MockLLM{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for a prompt. The
// key matches exactly or as a substring of the incoming prompt.
func (m *MockLLM) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// FailWith arms the mock to return err from every subsequent Ask call.
func (m *MockLLM) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Prompts returns every prompt asked so far, in call order.
func (m *MockLLM) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// Ask implements LLM.
func (m *MockLLM) Ask(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, req.Prompt)
	if m.err != nil {
		return nil, m.err
	}

	text, ok := m.responses[req.Prompt]
	if !ok {
		for key, canned := range m.responses {
			if key != "" && strings.Contains(req.Prompt, key) {
				text = canned
				ok = true
				break
			}
		}
	}
	if !ok {
		text = fmt.Sprintf("Mock response to: %s", req.Prompt)
	}
	return &Response{Text: text, FinishReason: "stop"}, nil
}

// Info implements LLM.
func (m *MockLLM) Info() Info { return m.info }
