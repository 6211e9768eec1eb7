// Package embedding turns chunk text into dense vectors using a remote
// provider, with an LRU cache and provider-sized batching on top.
package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/lectern/pkg/utils"
	"go.uber.org/zap"
)

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// ErrCountMismatch is returned when a provider answers a batch with a
// different number of vectors than it was sent.
var ErrCountMismatch = errors.New("embedding count mismatch")

// DefaultBatchSize is the number of texts sent to the provider per call.
const DefaultBatchSize = 96

// Batcher splits an arbitrary list of texts into provider-sized batches and
// reassembles the vectors in input order. A failed batch fails the whole call.
type Batcher struct {
	embedder  Embedder
	batchSize int
	logger    *zap.Logger
}

// BatcherOption configures a Batcher.
type BatcherOption func(*Batcher)

// WithBatcherLogger sets a logger for per-batch debug output.
func WithBatcherLogger(l *zap.Logger) BatcherOption {
	return func(b *Batcher) { b.logger = l }
}

// NewBatcher wraps e so that at most batchSize texts go out per provider call.
func NewBatcher(e Embedder, batchSize int, opts ...BatcherOption) *Batcher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	b := &Batcher{embedder: e, batchSize: batchSize}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = utils.OrNop(b.logger)
	return b
}

// BatchSize returns the maximum number of texts per provider call.
func (b *Batcher) BatchSize() int { return b.batchSize }

// Dimensions returns the vector length of the wrapped embedder.
func (b *Batcher) Dimensions() int { return b.embedder.Dimensions() }

// EmbedAll returns one vector per text, in order. Empty input makes no calls.
func (b *Batcher) EmbedAll(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	dims := b.embedder.Dimensions()
	b.logger.Debug("embedding texts",
		zap.Int("texts", len(texts)),
		zap.Int("batches", utils.CeilDiv(len(texts), b.batchSize)))
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += b.batchSize {
		end := start + b.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := b.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch %d-%d: %w", start, end, err)
		}
		if len(vecs) != end-start {
			return nil, fmt.Errorf("%w: sent %d, got %d", ErrCountMismatch, end-start, len(vecs))
		}
		for i, v := range vecs {
			if dims > 0 && len(v) != dims {
				return nil, fmt.Errorf("embedding %d has dimension %d, want %d", start+i, len(v), dims)
			}
		}
		b.logger.Debug("embedded batch", zap.Int("from", start), zap.Int("to", end))
		out = append(out, vecs...)
	}
	return out, nil
}
