package storage

import (
	"context"
	"sync"

	"github.com/hyperjump/lectern/internal/models"
)

// MemoryStore keeps jobs and cache entries in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	jobs  map[int64]models.JobStatus
	cache map[int64]CacheEntry
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:  make(map[int64]models.JobStatus),
		cache: make(map[int64]CacheEntry),
	}
}

func (m *MemoryStore) GetJob(_ context.Context, courseID int64) (models.JobStatus, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.jobs[courseID]
	return st, ok, nil
}

func (m *MemoryStore) PutJob(_ context.Context, status models.JobStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[status.CourseID] = status
	return nil
}

func (m *MemoryStore) SwapJob(_ context.Context, old models.JobState, next models.JobStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current := models.JobNotStarted
	if st, ok := m.jobs[next.CourseID]; ok {
		current = st.State
	}
	if current != old {
		return false, nil
	}
	m.jobs[next.CourseID] = next
	return true, nil
}

func (m *MemoryStore) FailRunningJobs(_ context.Context, message string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, st := range m.jobs {
		if st.State != models.JobRunning {
			continue
		}
		st.State = models.JobFailed
		st.Error = message
		m.jobs[id] = st
		n++
	}
	return n, nil
}

func (m *MemoryStore) GetCached(_ context.Context, fileID int64) (CacheEntry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.cache[fileID]
	return e, ok, nil
}

func (m *MemoryStore) PutCached(_ context.Context, fileID int64, entry CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[fileID] = entry
	return nil
}

func (m *MemoryStore) DeleteCached(_ context.Context, fileID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, fileID)
	return nil
}

// Close is a no-op for MemoryStore.
func (m *MemoryStore) Close() error {
	return nil
}
