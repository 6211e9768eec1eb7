package embedding

import (
	"context"
	"fmt"

	"github.com/hyperjump/lectern/internal/config"
)

// DefaultDimensions is used when no dimension is configured.
const DefaultDimensions = 1024

// NewEmbedder builds the configured provider, wrapped in an LRU cache when
// cache_size is positive.
func NewEmbedder(ctx context.Context, cfg *config.EmbeddingConfig) (Embedder, error) {
	var (
		e   Embedder
		err error
	)
	switch cfg.Provider {
	case config.ProviderOpenAI:
		e, err = NewOpenAIEmbedder(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.Dimensions, cfg.BatchSize)
	case config.ProviderGemini:
		e, err = NewGeminiEmbedder(ctx, cfg.APIKey, cfg.Model, cfg.Dimensions)
	case config.ProviderMock:
		e = NewMockEmbedder(cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	if cfg.CacheSize > 0 {
		e = NewCachedEmbedder(e, cfg.CacheSize)
	}
	return e, nil
}
