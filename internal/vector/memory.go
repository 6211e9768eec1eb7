package vector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/hyperjump/lectern/internal/models"
)

// MemoryStore is an in-process vector store with brute-force cosine search.
// Suitable for tests and single-process development runs.
type MemoryStore struct {
	collections map[string]*memoryCollection
	mu          sync.RWMutex
}

type memoryCollection struct {
	dimensions int
	distance   Distance
	order      []string
	points     map[string]models.IndexPoint
}

// SearchResult is a single similarity search hit.
type SearchResult struct {
	Point models.IndexPoint
	Score float64
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memoryCollection)}
}

func (m *MemoryStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.collections[name]
	return ok, nil
}

func (m *MemoryStore) CreateCollection(ctx context.Context, name string, dimensions int, distance Distance) error {
	if dimensions <= 0 {
		return fmt.Errorf("dimensions must be positive")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[name]; ok {
		return fmt.Errorf("collection %s already exists", name)
	}
	m.collections[name] = &memoryCollection{
		dimensions: dimensions,
		distance:   distance,
		points:     make(map[string]models.IndexPoint),
	}
	return nil
}

// Upsert inserts points or replaces those whose ID already exists.
func (m *MemoryStore) Upsert(ctx context.Context, name string, points []models.IndexPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[name]
	if !ok {
		return fmt.Errorf("collection %s not found", name)
	}
	for _, p := range points {
		if len(p.Vector) != c.dimensions {
			return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(p.Vector), c.dimensions)
		}
	}
	for _, p := range points {
		vec := make([]float32, c.dimensions)
		copy(vec, p.Vector)
		p.Vector = vec
		if _, exists := c.points[p.ID]; !exists {
			c.order = append(c.order, p.ID)
		}
		c.points[p.ID] = p
	}
	return nil
}

// Count returns the number of points in a collection.
func (m *MemoryStore) Count(name string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.collections[name]; ok {
		return len(c.points)
	}
	return 0
}

// Points returns a copy of a collection's points in insertion order.
func (m *MemoryStore) Points(name string) []models.IndexPoint {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.collections[name]
	if !ok {
		return nil
	}
	out := make([]models.IndexPoint, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.points[id])
	}
	return out
}

// Search returns the top-k points by cosine similarity to query.
func (m *MemoryStore) Search(ctx context.Context, name string, query []float32, k int) ([]SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %s not found", name)
	}
	if len(query) != c.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), c.dimensions)
	}
	if k <= 0 || len(c.points) == 0 {
		return nil, nil
	}
	results := make([]SearchResult, 0, len(c.points))
	for _, id := range c.order {
		p := c.points[id]
		results = append(results, SearchResult{Point: p, Score: CosineSimilarity(query, p.Vector)})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Close is a no-op for MemoryStore.
func (m *MemoryStore) Close() error {
	return nil
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0
// when either is empty, zero, or the lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
