package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAI generates with an OpenAI-compatible chat model.
type OpenAI struct {
	client      llms.Model
	temperature float64
}

// NewOpenAI creates a chat client for model. baseURL may be empty.
func NewOpenAI(apiKey, model, baseURL string, temperature float64) (*OpenAI, error) {
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("openai client: %w", err)
	}
	return &OpenAI{client: client, temperature: temperature}, nil
}

// Generate sends prompt as a single user message.
func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, o.client, prompt, llms.WithTemperature(o.temperature))
	if err != nil {
		return "", fmt.Errorf("openai generate: %w", err)
	}
	return out, nil
}

func (o *OpenAI) Close() error { return nil }
