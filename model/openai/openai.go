// Package openai provides an implementation of model.LLM using the OpenAI
// Chat Completions API. It adapts AgentCrew's normalized Request/Response
// structures into the SDK's message format and back.
package openai

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentcrew/model"
	"github.com/openai/openai-go"
)

// Options configure the OpenAI LLM adapter.
// Fields mirror a subset of Chat Completion parameters intentionally kept
// minimal; extend via functional options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// LLM wraps the OpenAI Chat Completions API behind the generic model.LLM interface.
type LLM struct {
	client *openai.Client
	opts   Options
}

// New creates a new OpenAI LLM using the official client
func New(optFns ...func(o *Options)) *LLM {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a new OpenAI LLM from an existing client
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *LLM {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &LLM{client: client, opts: opts}
}

// Ask implements model.LLM via a non-streaming chat completion. Instructions
// become the system message; the prompt becomes a single user message.
func (l *LLM) Ask(ctx context.Context, req model.Request) (*model.Response, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               l.opts.Model,
		Temperature:         openai.Float(l.opts.Temperature),
		MaxCompletionTokens: openai.Int(l.opts.MaxCompletionTokens),
	}

	resp, err := l.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned")
	}

	ch0 := resp.Choices[0]
	return &model.Response{
		Text:         ch0.Message.Content,
		FinishReason: ch0.FinishReason,
		Usage: &model.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

// Info returns metadata describing this OpenAI LLM implementation.
func (l *LLM) Info() model.Info {
	return model.Info{
		Name:     l.opts.Model,
		Provider: "openai",
	}
}
