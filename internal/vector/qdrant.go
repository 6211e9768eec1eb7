package vector

import (
	"context"
	"fmt"

	"github.com/hyperjump/lectern/internal/models"
	"github.com/qdrant/go-client/qdrant"
)

// QdrantStore talks to a Qdrant server over gRPC.
type QdrantStore struct {
	client *qdrant.Client
}

// QdrantConfig is the connection to a Qdrant server.
type QdrantConfig struct {
	Host   string
	Port   int
	APIKey string
	UseTLS bool
}

// NewQdrantStore connects to Qdrant. The gRPC port is usually 6334.
func NewQdrantStore(cfg QdrantConfig) (*QdrantStore, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant client: %w", err)
	}
	return &QdrantStore{client: client}, nil
}

func (q *QdrantStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	return q.client.CollectionExists(ctx, name)
}

func (q *QdrantStore) CreateCollection(ctx context.Context, name string, dimensions int, distance Distance) error {
	if distance != DistanceCosine {
		return fmt.Errorf("unsupported distance %q", distance)
	}
	return q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimensions),
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

// Upsert waits for the write to be applied before returning.
func (q *QdrantStore) Upsert(ctx context.Context, name string, points []models.IndexPoint) error {
	structs := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		structs = append(structs, &qdrant.PointStruct{
			Id:      qdrant.NewID(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: qdrant.NewValueMap(p.Payload.Map()),
		})
	}
	wait := true
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: name,
		Wait:           &wait,
		Points:         structs,
	})
	return err
}

func (q *QdrantStore) Close() error {
	return q.client.Close()
}
