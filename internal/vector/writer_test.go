package vector

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperjump/lectern/internal/models"
	"github.com/hyperjump/lectern/internal/pointid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore wraps MemoryStore and records calls.
type countingStore struct {
	*MemoryStore
	creates int
	batches []int
	failAt  int
}

func (c *countingStore) CreateCollection(ctx context.Context, name string, dim int, d Distance) error {
	c.creates++
	return c.MemoryStore.CreateCollection(ctx, name, dim, d)
}

func (c *countingStore) Upsert(ctx context.Context, name string, pts []models.IndexPoint) error {
	c.batches = append(c.batches, len(pts))
	if c.failAt > 0 && len(c.batches) == c.failAt {
		return errors.New("index unavailable")
	}
	return c.MemoryStore.Upsert(ctx, name, pts)
}

func makePoints(n, dim int) []models.IndexPoint {
	pts := make([]models.IndexPoint, n)
	for i := range pts {
		v := make([]float32, dim)
		v[i%dim] = 1
		pts[i] = models.IndexPoint{
			Vector:  v,
			Payload: models.PointPayload{CourseID: 7, FileID: 9, ChunkIndex: i, ChunkText: "t"},
		}
	}
	return pts
}

func TestWriter_EnsureCollectionIdempotent(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStore()}
	w := NewWriter(store, "course_chunks", 4)
	ctx := context.Background()

	require.NoError(t, w.EnsureCollection(ctx))
	require.NoError(t, w.EnsureCollection(ctx))
	assert.Equal(t, 1, store.creates)
	ok, _ := store.CollectionExists(ctx, "course_chunks")
	assert.True(t, ok)
}

func TestWriter_UpsertBatches(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStore()}
	w := NewWriter(store, "c", 4)
	ctx := context.Background()
	require.NoError(t, w.EnsureCollection(ctx))

	require.NoError(t, w.Upsert(ctx, makePoints(250, 4)))
	assert.Equal(t, []int{100, 100, 50}, store.batches)
	assert.Equal(t, 250, store.Count("c"))
}

func TestWriter_UpsertEmptyMakesNoCalls(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStore()}
	w := NewWriter(store, "c", 4)
	require.NoError(t, w.Upsert(context.Background(), nil))
	assert.Empty(t, store.batches)
}

func TestWriter_UpsertFailureKeepsEarlierBatches(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStore(), failAt: 2}
	w := NewWriter(store, "c", 4, WithBatchSize(10))
	ctx := context.Background()
	require.NoError(t, w.EnsureCollection(ctx))

	err := w.Upsert(ctx, makePoints(25, 4))
	require.Error(t, err)
	assert.Len(t, store.batches, 2, "third batch must not be attempted")
	assert.Equal(t, 10, store.Count("c"))
}

func TestWriter_UpsertRejectsWrongDimension(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStore()}
	w := NewWriter(store, "c", 8)
	require.NoError(t, w.EnsureCollection(context.Background()))
	err := w.Upsert(context.Background(), makePoints(2, 4))
	require.Error(t, err)
	assert.Empty(t, store.batches)
}

func TestWriter_AssignsIDs(t *testing.T) {
	ctx := context.Background()

	store := NewMemoryStore()
	w := NewWriter(store, "c", 4, WithIDs(pointid.Content))
	require.NoError(t, w.EnsureCollection(ctx))
	require.NoError(t, w.Upsert(ctx, makePoints(3, 4)))
	require.NoError(t, w.Upsert(ctx, makePoints(3, 4)))
	assert.Equal(t, 3, store.Count("c"), "content IDs make re-ingest overwrite")
	assert.Equal(t, pointid.Content(7, 9, 0), store.Points("c")[0].ID)

	random := NewMemoryStore()
	w = NewWriter(random, "c", 4)
	require.NoError(t, w.EnsureCollection(ctx))
	require.NoError(t, w.Upsert(ctx, makePoints(3, 4)))
	require.NoError(t, w.Upsert(ctx, makePoints(3, 4)))
	assert.Equal(t, 6, random.Count("c"), "random IDs accumulate")
}

func TestWriter_UpsertLeavesCallerPointsUnchanged(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	w := NewWriter(store, "c", 4)
	require.NoError(t, w.EnsureCollection(ctx))

	points := makePoints(3, 4)
	require.NoError(t, w.Upsert(ctx, points))
	for _, p := range points {
		assert.Empty(t, p.ID)
	}

	// a retry with the same slice gets fresh random IDs, not the first call's
	require.NoError(t, w.Upsert(ctx, points))
	assert.Equal(t, 6, store.Count("c"))
}
