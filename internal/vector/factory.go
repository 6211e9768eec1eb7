package vector

import (
	"context"
	"fmt"

	"github.com/hyperjump/lectern/internal/config"
)

// NewStore creates the vector store named by cfg.Backend.
// Supported backends: "qdrant" (default), "pgvector", "memory".
func NewStore(ctx context.Context, cfg *config.VectorConfig) (Store, error) {
	switch cfg.Backend {
	case config.VectorQdrant, "":
		return NewQdrantStore(QdrantConfig{
			Host:   cfg.Host,
			Port:   cfg.Port,
			APIKey: cfg.APIKey,
			UseTLS: cfg.UseTLS,
		})
	case config.VectorPgvector:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("vector backend pgvector requires a dsn")
		}
		return NewPgvectorStore(ctx, cfg.DSN)
	case config.VectorMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown vector backend: %s (supported: qdrant, pgvector, memory)", cfg.Backend)
	}
}
