package vector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hyperjump/lectern/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PgvectorStore keeps each collection in its own Postgres table with a
// vector column and a jsonb payload.
type PgvectorStore struct {
	pool *pgxpool.Pool
}

// NewPgvectorStore connects to dsn and checks the connection.
func NewPgvectorStore(ctx context.Context, dsn string) (*PgvectorStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &PgvectorStore{pool: pool}, nil
}

func (p *PgvectorStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", tableName(name)).Scan(&exists)
	return exists, err
}

func (p *PgvectorStore) CreateCollection(ctx context.Context, name string, dimensions int, distance Distance) error {
	if distance != DistanceCosine {
		return fmt.Errorf("unsupported distance %q", distance)
	}
	table := tableName(name)
	index := pgx.Identifier{name + "_embedding_idx"}.Sanitize()
	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			embedding vector(%d) NOT NULL,
			payload JSONB NOT NULL
		)`, table, dimensions),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)", index, table),
	}
	for _, s := range stmts {
		if _, err := p.pool.Exec(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// Upsert sends all points in one pgx batch.
func (p *PgvectorStore) Upsert(ctx context.Context, name string, points []models.IndexPoint) error {
	query := fmt.Sprintf(`INSERT INTO %s (id, embedding, payload) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET embedding = EXCLUDED.embedding, payload = EXCLUDED.payload`, tableName(name))

	batch := &pgx.Batch{}
	for _, pt := range points {
		id, err := uuid.Parse(pt.ID)
		if err != nil {
			return fmt.Errorf("point id %q: %w", pt.ID, err)
		}
		payload, err := json.Marshal(pt.Payload)
		if err != nil {
			return err
		}
		batch.Queue(query, id, pgvector.NewVector(pt.Vector), string(payload))
	}
	br := p.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range points {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (p *PgvectorStore) Close() error {
	p.pool.Close()
	return nil
}

func tableName(collection string) string {
	return pgx.Identifier{collection}.Sanitize()
}
