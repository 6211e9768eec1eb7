package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDatabaseSizeBytes(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "lectern.db")

	got, err := DatabaseSizeBytes(db)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Errorf("missing database: got %d bytes, want 0", got)
	}

	if err := os.WriteFile(db, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err = DatabaseSizeBytes(db)
	if err != nil {
		t.Fatal(err)
	}
	if got != 5 {
		t.Errorf("database only: got %d bytes, want 5", got)
	}

	if err := os.WriteFile(db+"-wal", []byte("abc"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(db+"-shm", []byte("z"), 0644); err != nil {
		t.Fatal(err)
	}
	// Unrelated files in the same directory are not counted.
	if err := os.WriteFile(filepath.Join(dir, "other.db"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err = DatabaseSizeBytes(db)
	if err != nil {
		t.Fatal(err)
	}
	if got != 9 {
		t.Errorf("with sidecars: got %d bytes, want 9", got)
	}

	got, err = DatabaseSizeBytes("")
	if err != nil || got != 0 {
		t.Errorf("empty path: got %d, %v", got, err)
	}
}

func TestDatabaseSizeBytes_liveStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	got, err := DatabaseSizeBytes(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if got <= 0 {
		t.Errorf("open store should occupy disk, got %d bytes", got)
	}
}
