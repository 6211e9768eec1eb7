// Package llm wraps text generation providers behind a single-prompt interface.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/lectern/internal/config"
)

// ErrNoCredential is returned by New when the provider has no API key.
var ErrNoCredential = errors.New("llm: api key not configured")

// Generator turns a prompt into raw model text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Close() error
}

// New builds the generator for cfg.Provider.
func New(ctx context.Context, cfg *config.QuestionConfig) (Generator, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoCredential
	}
	switch cfg.Provider {
	case config.ProviderOpenAI, "":
		return NewOpenAI(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.Temperature)
	case config.ProviderGemini:
		return NewGemini(ctx, cfg.APIKey, cfg.Model, cfg.Temperature)
	default:
		return nil, fmt.Errorf("unknown question provider %q", cfg.Provider)
	}
}
