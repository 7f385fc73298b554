// Copyright Tales Pardini, 2026. All rights reserved.

package generate

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// systemMessage frames every chat completion request.
const systemMessage = "You are an assistant specialized in biomedical research."

// Low temperature keeps query syntax stable across calls; 500 tokens is
// ample for a boolean query string.
const (
	completionTemperature = 0.1
	completionMaxTokens   = 500
)

// OpenAIBackend calls an OpenAI-compatible chat completions API. It
// serves both OpenAI itself and DeepSeek, which exposes the same
// protocol under its own base URL.
type OpenAIBackend struct {
	name   string
	model  string
	client *openai.Client
}

// NewOpenAIBackend builds a backend for the given provider name. An
// empty baseURL selects the official OpenAI endpoint.
func NewOpenAIBackend(name, apiKey, baseURL, model string) *OpenAIBackend {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIBackend{
		name:   name,
		model:  model,
		client: openai.NewClientWithConfig(cfg),
	}
}

// Name returns the provider identifier ("openai" or "deepseek").
func (b *OpenAIBackend) Name() string { return b.name }

// Generate sends the prompt as a single-turn chat completion and returns
// the model's text.
func (b *OpenAIBackend) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       b.model,
		Temperature: completionTemperature,
		MaxTokens:   completionMaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%s chat completion: %w", b.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", b.name)
	}
	return resp.Choices[0].Message.Content, nil
}
