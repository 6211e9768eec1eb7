package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/lectern/internal/config"
	"github.com/hyperjump/lectern/internal/indexer"
	"github.com/hyperjump/lectern/internal/lms"
	"github.com/hyperjump/lectern/internal/models"
	"github.com/hyperjump/lectern/internal/question"
	"github.com/hyperjump/lectern/internal/storage"
	"go.uber.org/zap"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "lectern API",
		"health":  "/health",
		"api_v1": map[string]string{
			"courses":                  "GET /api/v1/courses",
			"course_files":             "GET /api/v1/courses/{course_id}/files",
			"course_files_via_modules": "GET /api/v1/courses/{course_id}/files/via_modules",
			"start_ingest":             "POST /api/v1/courses/{course_id}/ingest",
			"ingest_status":            "GET /api/v1/courses/{course_id}/ingest/status",
			"question_from_file":       "GET /api/v1/questions/from-file",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":            "ok",
		"canvas_configured": strings.TrimSpace(s.config.LMS.AccessToken) != "",
		"storage_driver":    s.config.Storage.Driver,
		"vector_backend":    s.config.Vector.Backend,
		"collection":        s.config.Vector.Collection,
	}
	if s.config.LMS.AccessToken == "" {
		resp["hint"] = "If /api/v1/courses fails, set CANVAS_ACCESS_TOKEN (and CANVAS_BASE_URL) in the environment."
	}
	if s.config.Storage.Driver == config.StorageSQLite {
		if n, err := storage.DatabaseSizeBytes(s.config.Storage.DatabasePath); err == nil {
			resp["disk_usage_bytes"] = n
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := lms.CourseQuery{
		EnrollmentState: q.Get("enrollment_state"),
		Include:         append(q["include"], q["include[]"]...),
	}
	if pp := q.Get("per_page"); pp != "" {
		n, err := strconv.Atoi(pp)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "per_page must be a positive integer")
			return
		}
		query.PerPage = n
	}
	courses, err := s.catalog.ListCourses(r.Context(), query)
	if err != nil {
		s.respondLMSError(w, err)
		return
	}
	if courses == nil {
		courses = []models.Course{}
	}
	s.respondJSON(w, http.StatusOK, courses)
}

type fileView struct {
	ID          int64   `json:"id"`
	DisplayName string  `json:"display_name"`
	Filename    string  `json:"filename"`
	ContentType string  `json:"content_type"`
	SizeKB      float64 `json:"size_kb"`
	URL         string  `json:"url"`
	UpdatedAt   *string `json:"updated_at"`
}

func newFileView(f *models.SourceFile) fileView {
	v := fileView{
		ID:          f.ID,
		DisplayName: f.Name(),
		Filename:    f.Filename,
		ContentType: f.ContentType,
		SizeKB:      f.SizeKB(),
		URL:         f.URL,
	}
	if v.ContentType == "" {
		v.ContentType = "application/octet-stream"
	}
	if !f.UpdatedAt.IsZero() {
		ts := f.UpdatedAt.Format(time.RFC3339)
		v.UpdatedAt = &ts
	}
	return v
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	courseID, ok := s.courseID(w, r)
	if !ok {
		return
	}
	files, err := s.catalog.ListCourseFiles(r.Context(), courseID)
	if err != nil {
		s.respondLMSError(w, err)
		return
	}
	views := make([]fileView, len(files))
	for i := range files {
		views[i] = newFileView(&files[i])
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"course_id":   courseID,
		"total_files": len(views),
		"files":       views,
	})
}

func (s *Server) handleListModuleFiles(w http.ResponseWriter, r *http.Request) {
	courseID, ok := s.courseID(w, r)
	if !ok {
		return
	}
	refs, err := s.catalog.ListCourseFilesViaModules(r.Context(), courseID)
	if err != nil {
		s.respondLMSError(w, err)
		return
	}
	if refs == nil {
		refs = []models.ModuleFileRef{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"course_id":   courseID,
		"total_files": len(refs),
		"files":       refs,
	})
}

func (s *Server) handleStartIngest(w http.ResponseWriter, r *http.Request) {
	courseID, ok := s.courseID(w, r)
	if !ok {
		return
	}
	err := s.ingest.Start(r.Context(), courseID)
	if errors.Is(err, indexer.ErrJobRunning) {
		s.respondError(w, http.StatusConflict, fmt.Sprintf("Ingestion is already running for course %d.", courseID))
		return
	}
	if err != nil {
		s.logger.Error("start ingestion failed", zap.Int64("course_id", courseID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Debug("ingestion accepted", zap.Int64("course_id", courseID))
	s.respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"course_id": courseID,
		"message":   "Ingestion started. Poll /status to check progress.",
	})
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	courseID, ok := s.courseID(w, r)
	if !ok {
		return
	}
	st, err := s.ingest.Status(r.Context(), courseID)
	if err != nil {
		s.logger.Error("read ingestion status failed", zap.Int64("course_id", courseID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, st)
}

func (s *Server) handleQuestionFromFile(w http.ResponseWriter, r *http.Request) {
	q, err := s.questions.Generate(r.Context())
	if err != nil {
		status := questionStatus(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("question generation failed", zap.Error(err))
		}
		s.respondError(w, status, questionMessage(err))
		return
	}
	s.respondJSON(w, http.StatusOK, q)
}

// questionStatus keeps "nothing to generate from", "dependency unavailable"
// and "bad model output" apart.
func questionStatus(err error) int {
	switch {
	case errors.Is(err, question.ErrNoCourses), errors.Is(err, question.ErrNoUsableFiles):
		return http.StatusNotFound
	case errors.Is(err, question.ErrGeneratorUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, question.ErrEmptyDocument):
		return http.StatusUnprocessableEntity
	case errors.Is(err, question.ErrMalformedOutput):
		return http.StatusBadGateway
	}
	if code := lms.StatusCode(err); code != 0 {
		return code
	}
	return http.StatusInternalServerError
}

// questionMessage is the error text shown to users for err.
func questionMessage(err error) string {
	switch {
	case errors.Is(err, question.ErrNoCourses):
		return "No active courses found for the configured Canvas user."
	case errors.Is(err, question.ErrNoUsableFiles):
		return "No usable files found in any active course. Add a PPTX/DOCX/TXT/PDF file to a course module, or use a teacher token."
	case errors.Is(err, question.ErrGeneratorUnavailable):
		return "Question generation is not configured. Set OPENAI_API_KEY to generate questions from course files."
	case errors.Is(err, question.ErrEmptyDocument):
		return "File could not be parsed or produced no text."
	}
	return err.Error()
}

func (s *Server) courseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "courseID"), 10, 64)
	if err != nil || id <= 0 {
		s.respondError(w, http.StatusBadRequest, "course id must be a positive integer")
		return 0, false
	}
	return id, true
}

// respondLMSError mirrors the LMS status and body so callers see what Canvas said.
func (s *Server) respondLMSError(w http.ResponseWriter, err error) {
	var re *lms.RemoteError
	if errors.As(err, &re) {
		msg := re.Body
		if msg == "" {
			msg = re.Error()
		}
		s.respondError(w, re.StatusCode, msg)
		return
	}
	s.logger.Error("lms request failed", zap.Error(err))
	s.respondError(w, http.StatusBadGateway, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
