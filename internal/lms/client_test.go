package lms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/hyperjump/lectern/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pagedServer serves pages of {"id": n} records at path, linking each page to the next.
func pagedServer(t *testing.T, path string, pages [][]int64) (*httptest.Server, *int32, *[]url.Values) {
	t.Helper()
	var calls int32
	var mu sync.Mutex
	var queries []url.Values
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(&calls, 1)
		mu.Lock()
		queries = append(queries, r.URL.Query())
		mu.Unlock()
		page := 0
		if p := r.URL.Query().Get("page"); p != "" {
			_, _ = fmt.Sscan(p, &page)
		}
		if page+1 < len(pages) {
			w.Header().Set("Link", fmt.Sprintf(`<%s%s?page=%d&per_page=2>; rel="next", <%s%s?page=0>; rel="first"`,
				srv.URL, path, page+1, srv.URL, path))
		}
		recs := make([]map[string]int64, 0, len(pages[page]))
		for _, id := range pages[page] {
			recs = append(recs, map[string]int64{"id": id})
		}
		_ = json.NewEncoder(w).Encode(recs)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls, &queries
}

func TestFetchAll_followsNextLinks(t *testing.T) {
	srv, calls, queries := pagedServer(t, "/api/v1/courses", [][]int64{{1, 2}, {3, 4}, {5}})
	c := New(srv.URL, "tok")

	got, err := c.FetchAll(context.Background(), "/api/v1/courses", url.Values{"enrollment_state": {"active"}})
	require.NoError(t, err)
	require.Len(t, got, 5)
	for i, raw := range got {
		var rec struct{ ID int64 }
		require.NoError(t, json.Unmarshal(raw, &rec))
		assert.Equal(t, int64(i+1), rec.ID)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(calls), "one request per page")

	// Query parameters are only sent on the first request.
	assert.Equal(t, "active", (*queries)[0].Get("enrollment_state"))
	assert.Equal(t, "100", (*queries)[0].Get("per_page"))
	assert.Empty(t, (*queries)[1].Get("enrollment_state"))
	assert.Equal(t, "2", (*queries)[1].Get("per_page"))
}

func TestFetchAll_singlePage(t *testing.T) {
	srv, calls, _ := pagedServer(t, "/api/v1/courses", [][]int64{{9}})
	c := New(srv.URL, "tok")
	courses, err := c.ListCourses(context.Background(), CourseQuery{})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, int64(9), courses[0].ID)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestFetchAll_relativeNextLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "" {
			w.Header().Set("Link", `</api/v1/courses/1/files?page=2>; rel="next"`)
			_, _ = w.Write([]byte(`[{"id": 1}]`))
			return
		}
		_, _ = w.Write([]byte(`[{"id": 2}]`))
	}))
	defer srv.Close()
	files, err := New(srv.URL, "tok").ListCourseFiles(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, int64(2), files[1].ID)
}

func TestClient_sendsBearerToken(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()
	_, err := New(srv.URL, "secret").ListCourses(context.Background(), CourseQuery{})
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", auth)
}

func TestClient_errorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
		wantMsg  string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"errors":[{"message":"Invalid access token."}]}`, ErrUnauthorized, "Canvas access token invalid or expired"},
		{"forbidden passes message through", http.StatusForbidden, `{"errors":[{"message":"user not authorized to perform that action"}]}`, ErrForbidden, "user not authorized to perform that action"},
		{"not found", http.StatusNotFound, `{"errors":[{"message":"The specified resource does not exist."}]}`, ErrNotFound, "The specified resource does not exist."},
		{"server error keeps body", http.StatusInternalServerError, `boom`, nil, "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()
			_, err := New(srv.URL, "tok").ListCourseFiles(context.Background(), 42)
			require.Error(t, err)
			var re *RemoteError
			require.True(t, errors.As(err, &re))
			assert.Equal(t, tt.status, re.StatusCode)
			assert.Equal(t, tt.body, re.Body)
			assert.Equal(t, tt.wantMsg, re.Message)
			assert.Equal(t, tt.status, StatusCode(err))
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			} else {
				assert.NotErrorIs(t, err, ErrUnauthorized)
				assert.NotErrorIs(t, err, ErrForbidden)
				assert.NotErrorIs(t, err, ErrNotFound)
			}
		})
	}
}

func TestListCourseFilesViaModules(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/courses/7/modules":
			if r.URL.Query().Get("page") == "" {
				w.Header().Set("Link", fmt.Sprintf(`<%s/api/v1/courses/7/modules?page=2>; rel="next"`, srv.URL))
				_, _ = w.Write([]byte(`[{"id": 10, "name": "Week 1"}]`))
				return
			}
			_, _ = w.Write([]byte(`[{"id": 11, "name": "Week 2"}]`))
		case "/api/v1/courses/7/modules/10/items":
			_, _ = w.Write([]byte(`[
				{"id": 100, "type": "File", "content_id": 555, "title": "Slides", "position": 1},
				{"id": 101, "type": "Page", "content_id": 556, "title": "Intro page", "position": 2}
			]`))
		case "/api/v1/courses/7/modules/11/items":
			_, _ = w.Write([]byte(`[{"id": 102, "type": "File", "content_id": 557, "title": "Notes", "position": 1, "html_url": "h", "url": "u"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	refs, err := New(srv.URL, "tok").ListCourseFilesViaModules(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, int64(555), refs[0].TargetID)
	assert.Equal(t, int64(10), refs[0].ModuleID)
	assert.Equal(t, "Week 1", refs[0].ModuleName)
	assert.Equal(t, int64(100), refs[0].ItemID)
	assert.Equal(t, "Slides", refs[0].Title)
	assert.Equal(t, int64(557), refs[1].TargetID)
	assert.Equal(t, "Week 2", refs[1].ModuleName)
	assert.Equal(t, "u", refs[1].URL)
}

func TestGetFileAndDownload(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/files/5":
			_, _ = fmt.Fprintf(w, `{"id": 5, "display_name": "Notes.txt", "filename": "notes.txt",
				"content-type": "text/plain", "size": 11, "url": "%s/files/5/download",
				"updated_at": "2024-03-01T10:00:00Z"}`, srv.URL)
		case "/files/5/download":
			if r.Header.Get("Authorization") != "Bearer tok" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte("hello world"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	f, err := c.GetFile(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "Notes.txt", f.Name())
	assert.Equal(t, "text/plain", f.ContentType)
	assert.Equal(t, 2024, f.UpdatedAt.Year())

	data, err := c.Download(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	_, err = c.GetFile(context.Background(), 6)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDownload_noURL(t *testing.T) {
	c := New("http://example.invalid", "tok")
	_, err := c.Download(context.Background(), &models.SourceFile{ID: 1})
	assert.Error(t, err)
}

func TestNextLink(t *testing.T) {
	next, err := nextLink("https://x.test/api/v1/courses?page=1", `<https://x.test/api/v1/courses?page=2>; rel="next", <https://x.test/api/v1/courses?page=9>; rel="last"`)
	require.NoError(t, err)
	assert.Equal(t, "https://x.test/api/v1/courses?page=2", next)

	next, err = nextLink("https://x.test/a", `<https://x.test/a?page=1>; rel="first"`)
	require.NoError(t, err)
	assert.Empty(t, next)

	next, err = nextLink("https://x.test/a", "")
	require.NoError(t, err)
	assert.Empty(t, next)
}
