// Package llmclient provides the OpenAI-compatible chat/completions client
// backing the Planner and Generator stages.
package llmclient

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Provider is the narrow interface the Planner (C4) and Generator (C6)
// consume: one system+user prompt in, one raw JSON-ish text response out.
// Temperature is passed explicitly since both stages cap it low
// (Planner <=0.1, Generator <=0.2) to keep structured output deterministic.
type Provider interface {
	Complete(ctx context.Context, model, system, user string, temperature float64) (string, error)
}

// OpenAICompatibleProvider talks to any OpenAI-compatible chat/completions
// endpoint (the default provider; base URL and API key are
// operator-configured so the same client also serves ollama-style REST
// backends that share the request shape).
type OpenAICompatibleProvider struct {
	client openai.Client
}

// NewOpenAICompatibleProvider builds a provider pointed at baseURL with the
// given API key.
func NewOpenAICompatibleProvider(baseURL, apiKey string) *OpenAICompatibleProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAICompatibleProvider{client: openai.NewClient(opts...)}
}

// Complete implements Provider.
func (p *OpenAICompatibleProvider) Complete(ctx context.Context, model, system, user string, temperature float64) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		return "", fmt.Errorf("llmclient: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llmclient: empty choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}
