package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/lectern/internal/models"
)

// SQLiteStore implements Store using SQLite. Every write is a single statement, so
// processes sharing the database file see consistent job transitions.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, path: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS ingest_jobs (
		course_id INTEGER PRIMARY KEY,
		status TEXT NOT NULL,
		files_total INTEGER NOT NULL DEFAULT 0,
		files_processed INTEGER NOT NULL DEFAULT 0,
		files_skipped INTEGER NOT NULL DEFAULT 0,
		chunks_indexed INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS question_cache (
		file_id INTEGER PRIMARY KEY,
		expires_at INTEGER NOT NULL,
		payload TEXT NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// GetJob returns the status row for courseID.
func (s *SQLiteStore) GetJob(ctx context.Context, courseID int64) (models.JobStatus, bool, error) {
	st := models.JobStatus{CourseID: courseID}
	var state string
	err := s.db.QueryRowContext(ctx,
		`SELECT status, files_total, files_processed, files_skipped, chunks_indexed, error
		 FROM ingest_jobs WHERE course_id = ?`, courseID,
	).Scan(&state, &st.FilesTotal, &st.FilesProcessed, &st.FilesSkipped, &st.ChunksIndexed, &st.Error)
	if errors.Is(err, sql.ErrNoRows) {
		return models.JobStatus{}, false, nil
	}
	if err != nil {
		return models.JobStatus{}, false, fmt.Errorf("get job %d: %w", courseID, err)
	}
	st.State = models.JobState(state)
	return st, true, nil
}

// PutJob inserts or replaces the status row.
func (s *SQLiteStore) PutJob(ctx context.Context, st models.JobStatus) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingest_jobs (course_id, status, files_total, files_processed, files_skipped, chunks_indexed, error, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(course_id) DO UPDATE SET
			status = excluded.status,
			files_total = excluded.files_total,
			files_processed = excluded.files_processed,
			files_skipped = excluded.files_skipped,
			chunks_indexed = excluded.chunks_indexed,
			error = excluded.error,
			updated_at = excluded.updated_at`,
		st.CourseID, string(st.State), st.FilesTotal, st.FilesProcessed, st.FilesSkipped, st.ChunksIndexed, st.Error, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("put job %d: %w", st.CourseID, err)
	}
	return nil
}

// SwapJob writes next only when the stored state equals old.
func (s *SQLiteStore) SwapJob(ctx context.Context, old models.JobState, next models.JobStatus) (bool, error) {
	var (
		res sql.Result
		err error
	)
	if old == models.JobNotStarted {
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO ingest_jobs (course_id, status, files_total, files_processed, files_skipped, chunks_indexed, error, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(course_id) DO NOTHING`,
			next.CourseID, string(next.State), next.FilesTotal, next.FilesProcessed, next.FilesSkipped, next.ChunksIndexed, next.Error, time.Now(),
		)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE ingest_jobs SET status = ?, files_total = ?, files_processed = ?, files_skipped = ?,
				chunks_indexed = ?, error = ?, updated_at = ?
			 WHERE course_id = ? AND status = ?`,
			string(next.State), next.FilesTotal, next.FilesProcessed, next.FilesSkipped, next.ChunksIndexed, next.Error, time.Now(),
			next.CourseID, string(old),
		)
	}
	if err != nil {
		return false, fmt.Errorf("swap job %d: %w", next.CourseID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// FailRunningJobs marks every running row failed in one statement.
func (s *SQLiteStore) FailRunningJobs(ctx context.Context, message string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE ingest_jobs SET status = ?, error = ?, updated_at = ? WHERE status = ?`,
		string(models.JobFailed), message, time.Now(), string(models.JobRunning),
	)
	if err != nil {
		return 0, fmt.Errorf("fail running jobs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// GetCached returns the cached question for fileID, expired or not.
func (s *SQLiteStore) GetCached(ctx context.Context, fileID int64) (CacheEntry, bool, error) {
	var expires int64
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT expires_at, payload FROM question_cache WHERE file_id = ?`, fileID,
	).Scan(&expires, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return CacheEntry{}, false, nil
	}
	if err != nil {
		return CacheEntry{}, false, fmt.Errorf("get cached %d: %w", fileID, err)
	}
	e := CacheEntry{ExpiresAt: time.Unix(0, expires)}
	if err := json.Unmarshal([]byte(payload), &e.Question); err != nil {
		return CacheEntry{}, false, fmt.Errorf("failed to unmarshal cached question: %w", err)
	}
	return e, true, nil
}

// PutCached inserts or replaces the cache row for fileID.
func (s *SQLiteStore) PutCached(ctx context.Context, fileID int64, entry CacheEntry) error {
	payload, err := json.Marshal(entry.Question)
	if err != nil {
		return fmt.Errorf("failed to marshal question: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO question_cache (file_id, expires_at, payload) VALUES (?, ?, ?)`,
		fileID, entry.ExpiresAt.UnixNano(), string(payload),
	)
	return err
}

// DeleteCached removes the cache row for fileID.
func (s *SQLiteStore) DeleteCached(ctx context.Context, fileID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM question_cache WHERE file_id = ?`, fileID)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
