// Package anthropic provides an LLM wrapper for the Anthropic Claude API.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/hupe1980/agentcrew/model"
)

// Options configures the Anthropic LLM adapter (temperature, model id,
// max tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// LLM wraps the Anthropic Messages API behind the generic model.LLM interface.
type LLM struct {
	client *anthropic.Client
	opts   Options
}

// New creates a new Anthropic LLM using the official client
func New(optFns ...func(o *Options)) *LLM {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &LLM{
		client: &client,
		opts:   opts,
	}
}

// NewFromClient creates a new Anthropic LLM from an existing client
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *LLM {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &LLM{
		client: client,
		opts:   opts,
	}
}

// Ask implements model.LLM via the non-streaming Messages API. Instructions
// map to the system blocks; the prompt becomes a single user message.
func (l *LLM) Ask(ctx context.Context, req model.Request) (*model.Response, error) {
	params := anthropic.MessageNewParams{
		Model:       l.opts.Model,
		MaxTokens:   l.opts.MaxTokens,
		Temperature: anthropic.Float(l.opts.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.Instructions != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.Instructions}}
	}

	resp, err := l.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.AsText().Text
		}
	}

	finishReason := "stop"
	if resp.StopReason != "" {
		finishReason = string(resp.StopReason)
	}

	return &model.Response{
		Text:         text,
		FinishReason: finishReason,
		Usage: &model.TokenUsage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}, nil
}

// Info returns metadata describing this Anthropic LLM implementation.
func (l *LLM) Info() model.Info {
	return model.Info{
		Name:     string(l.opts.Model),
		Provider: "anthropic",
	}
}
