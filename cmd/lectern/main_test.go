package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperjump/lectern/internal/models"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
}

func TestParseCourseID(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    int64
		wantErr bool
	}{
		{"valid", []string{"1234"}, 1234, false},
		{"extra args ignored", []string{"7", "more"}, 7, false},
		{"missing", nil, 0, true},
		{"not a number", []string{"abc"}, 0, true},
		{"zero", []string{"0"}, 0, true},
		{"negative", []string{"-3"}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCourseID(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseCourseID(%v) err = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseCourseID(%v) = %d, want %d", tt.args, got, tt.want)
			}
		})
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
storage:
  driver: memory
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while configPath from t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s (canon %s), want %s (canon %s)", resolved, resolvedCanon, configPath, configPathCanon)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_defaultPathMissingFallsBackToEnvironment(t *testing.T) {
	if _, err := os.Stat(defaultConfigPath); err == nil {
		t.Skip("a system config exists at the default path")
	}
	chdir(t, t.TempDir())
	t.Setenv("QDRANT_COLLECTION_NAME", "from_env")

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != "" {
		t.Errorf("resolved path = %q, want empty", resolved)
	}
	if cfg.Vector.Collection != "from_env" {
		t.Errorf("collection = %q", cfg.Vector.Collection)
	}
}

func TestLoadConfig_readsDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("QDRANT_COLLECTION_NAME=dotenv_chunks\n"), 0600); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(dir, "lectern.yaml")
	if err := os.WriteFile(configPath, []byte("storage:\n  driver: memory\n"), 0600); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)
	t.Setenv("QDRANT_COLLECTION_NAME", "")
	os.Unsetenv("QDRANT_COLLECTION_NAME")

	cfg, _, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Vector.Collection != "dotenv_chunks" {
		t.Errorf("collection = %q, want dotenv_chunks", cfg.Vector.Collection)
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  driver: memory
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
}

func TestStartIngestViaHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/api/v1/courses/9/ingest" {
			w.WriteHeader(http.StatusConflict)
			fmt.Fprint(w, `{"error":"Ingestion is already running for course 9."}`)
			return
		}
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprint(w, `{"course_id":1,"message":"Ingestion started. Poll /status to check progress."}`)
	}))
	defer srv.Close()

	msg, err := startIngestViaHTTP(srv.URL, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(msg, "Ingestion started.") {
		t.Errorf("message = %q", msg)
	}

	_, err = startIngestViaHTTP(srv.URL, 9)
	if err == nil || !strings.Contains(err.Error(), "409") || !strings.Contains(err.Error(), "already running") {
		t.Errorf("conflict error = %v", err)
	}
}

func TestWaitForJob(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/courses/4/ingest/status" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) < 3 {
			fmt.Fprint(w, `{"course_id":4,"status":"running","files_total":2,"files_processed":0,"files_skipped":0,"chunks_indexed":0}`)
			return
		}
		fmt.Fprint(w, `{"course_id":4,"status":"complete","files_total":2,"files_processed":2,"files_skipped":0,"chunks_indexed":6}`)
	}))
	defer srv.Close()

	st, err := waitForJob(context.Background(), srv.URL, 4, time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if st.State != models.JobComplete || st.ChunksIndexed != 6 {
		t.Errorf("status = %+v", st)
	}
	if calls.Load() != 3 {
		t.Errorf("polled %d times, want 3", calls.Load())
	}
}

func TestWaitForJob_canceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"running"}`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := waitForJob(ctx, srv.URL, 1, time.Hour); err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestAPIGet_errorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"No courses found."}`)
	}))
	defer srv.Close()

	var q models.Question
	err := apiGet(srv.URL+"/api/v1/questions/from-file", &q)
	if err == nil || err.Error() != "server returned 404: No courses found." {
		t.Errorf("err = %v", err)
	}
}
