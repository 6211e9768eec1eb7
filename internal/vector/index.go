// Package vector writes chunk embeddings to a vector index collection.
package vector

import (
	"context"

	"github.com/hyperjump/lectern/internal/models"
)

// Distance is the similarity metric a collection is created with.
type Distance string

// DistanceCosine is the only metric used for course chunks.
const DistanceCosine Distance = "cosine"

// Store is a vector database that holds named collections of points.
type Store interface {
	CollectionExists(ctx context.Context, name string) (bool, error)
	CreateCollection(ctx context.Context, name string, dimensions int, distance Distance) error
	Upsert(ctx context.Context, name string, points []models.IndexPoint) error
	Close() error
}
