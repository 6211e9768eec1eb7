// Package storage holds shared mutable state: per-course ingestion status and the
// question cache. Both have an in-process implementation and a SQLite one that
// several processes can share.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperjump/lectern/internal/models"
)

// JobStore persists ingestion status records keyed by course id.
type JobStore interface {
	// GetJob returns the stored status; ok is false when the course was never ingested.
	GetJob(ctx context.Context, courseID int64) (status models.JobStatus, ok bool, err error)
	// PutJob overwrites the stored status for status.CourseID.
	PutJob(ctx context.Context, status models.JobStatus) error
	// SwapJob stores next only if the current state equals old, where a missing record
	// counts as JobNotStarted. It reports whether the swap happened.
	SwapJob(ctx context.Context, old models.JobState, next models.JobStatus) (bool, error)
	// FailRunningJobs moves every running record to failed with message as its error,
	// keeping the progress counters. It returns how many records changed.
	FailRunningJobs(ctx context.Context, message string) (int, error)
}

// CacheEntry is one cached question with its expiry.
type CacheEntry struct {
	ExpiresAt time.Time
	Question  models.Question
}

// CacheStore persists generated questions keyed by file id. Expiry is checked by the caller.
type CacheStore interface {
	GetCached(ctx context.Context, fileID int64) (entry CacheEntry, ok bool, err error)
	PutCached(ctx context.Context, fileID int64, entry CacheEntry) error
	DeleteCached(ctx context.Context, fileID int64) error
}

// Store is a JobStore and CacheStore backed by one resource.
type Store interface {
	JobStore
	CacheStore
	Close() error
}

// Driver names accepted by NewStore.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// NewStore opens the store for driver. databasePath is used by the sqlite driver only.
func NewStore(driver, databasePath string) (Store, error) {
	switch driver {
	case DriverMemory, "":
		return NewMemoryStore(), nil
	case DriverSQLite:
		return NewSQLiteStore(databasePath)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s (supported: memory, sqlite)", driver)
	}
}
