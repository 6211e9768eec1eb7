package vector

import (
	"context"
	"fmt"

	"github.com/hyperjump/lectern/internal/models"
	"github.com/hyperjump/lectern/internal/pointid"
	"github.com/hyperjump/lectern/pkg/utils"
	"go.uber.org/zap"
)

// DefaultUpsertBatchSize is the number of points sent per upsert request.
const DefaultUpsertBatchSize = 100

// Writer owns one collection: it creates it on first use and upserts points
// in bounded batches, assigning IDs to points that have none.
type Writer struct {
	store      Store
	collection string
	dimensions int
	batchSize  int
	ids        pointid.Generator
	logger     *zap.Logger
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithLogger sets a logger for collection and batch events.
func WithLogger(l *zap.Logger) WriterOption {
	return func(w *Writer) { w.logger = l }
}

// WithBatchSize overrides DefaultUpsertBatchSize.
func WithBatchSize(n int) WriterOption {
	return func(w *Writer) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

// WithIDs sets the point ID generator. Defaults to pointid.Random.
func WithIDs(g pointid.Generator) WriterOption {
	return func(w *Writer) {
		if g != nil {
			w.ids = g
		}
	}
}

// NewWriter returns a writer for collection with vectors of the given dimensions.
func NewWriter(store Store, collection string, dimensions int, opts ...WriterOption) *Writer {
	w := &Writer{
		store:      store,
		collection: collection,
		dimensions: dimensions,
		batchSize:  DefaultUpsertBatchSize,
		ids:        pointid.Random,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = utils.OrNop(w.logger)
	return w
}

// Collection returns the collection name.
func (w *Writer) Collection() string { return w.collection }

// EnsureCollection creates the collection with cosine distance if it does
// not already exist. An existing collection is left untouched.
func (w *Writer) EnsureCollection(ctx context.Context) error {
	exists, err := w.store.CollectionExists(ctx, w.collection)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", w.collection, err)
	}
	if exists {
		return nil
	}
	if err := w.store.CreateCollection(ctx, w.collection, w.dimensions, DistanceCosine); err != nil {
		return fmt.Errorf("create collection %s: %w", w.collection, err)
	}
	w.logger.Info("created vector collection",
		zap.String("collection", w.collection),
		zap.Int("dimensions", w.dimensions))
	return nil
}

// Upsert writes points in sequential batches. Batches written before a
// failing one stay written. IDs are assigned on a copy; the caller's points
// are not modified.
func (w *Writer) Upsert(ctx context.Context, in []models.IndexPoint) error {
	if len(in) == 0 {
		return nil
	}
	points := make([]models.IndexPoint, len(in))
	copy(points, in)
	for i := range points {
		if len(points[i].Vector) != w.dimensions {
			return fmt.Errorf("point %d: vector dimension %d, collection expects %d", i, len(points[i].Vector), w.dimensions)
		}
		if points[i].ID == "" {
			p := points[i].Payload
			points[i].ID = w.ids(p.CourseID, p.FileID, p.ChunkIndex)
		}
	}
	for start := 0; start < len(points); start += w.batchSize {
		end := start + w.batchSize
		if end > len(points) {
			end = len(points)
		}
		if err := w.store.Upsert(ctx, w.collection, points[start:end]); err != nil {
			return fmt.Errorf("upsert points %d-%d: %w", start, end, err)
		}
		w.logger.Debug("upserted batch",
			zap.String("collection", w.collection),
			zap.Int("from", start),
			zap.Int("to", end))
	}
	return nil
}

// Close closes the underlying store.
func (w *Writer) Close() error {
	return w.store.Close()
}
