package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint through langchaingo.
type OpenAIEmbedder struct {
	embedder   embeddings.Embedder
	dimensions int
}

// NewOpenAIEmbedder builds an embedder for model. baseURL may be empty for api.openai.com.
func NewOpenAIEmbedder(apiKey, model, baseURL string, dimensions, batchSize int) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, errors.New("openai embedder: api key is required")
	}
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithEmbeddingModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("openai client: %w", err)
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	// the Batcher above already bounds request size; keep langchaingo from splitting further
	e, err := embeddings.NewEmbedder(client, embeddings.WithBatchSize(batchSize))
	if err != nil {
		return nil, err
	}
	return &OpenAIEmbedder{embedder: e, dimensions: dimensions}, nil
}

func (o *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := o.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	return v, nil
}

func (o *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vecs, err := o.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("openai batch embed: %w", err)
	}
	return vecs, nil
}

func (o *OpenAIEmbedder) Dimensions() int { return o.dimensions }

func (o *OpenAIEmbedder) Close() error { return nil }
