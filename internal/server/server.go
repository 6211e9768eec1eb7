// Package server provides the HTTP API for lectern.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hyperjump/lectern/internal/config"
	"github.com/hyperjump/lectern/internal/lms"
	"github.com/hyperjump/lectern/internal/models"
	"github.com/hyperjump/lectern/pkg/utils"
	"go.uber.org/zap"
)

// Ingestion starts course jobs and reports their status.
type Ingestion interface {
	Start(ctx context.Context, courseID int64) error
	Status(ctx context.Context, courseID int64) (models.JobStatus, error)
}

// Questions generates a question from course material.
type Questions interface {
	Generate(ctx context.Context) (*models.Question, error)
}

// Catalog lists what the LMS user can see.
type Catalog interface {
	ListCourses(ctx context.Context, q lms.CourseQuery) ([]models.Course, error)
	ListCourseFiles(ctx context.Context, courseID int64) ([]models.SourceFile, error)
	ListCourseFilesViaModules(ctx context.Context, courseID int64) ([]models.ModuleFileRef, error)
}

// Server is the HTTP server for the lectern API.
type Server struct {
	ingest    Ingestion
	questions Questions
	catalog   Catalog
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	ingest Ingestion,
	questions Questions,
	catalog Catalog,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		ingest:    ingest,
		questions: questions,
		catalog:   catalog,
		config:    cfg,
		logger:    utils.OrNop(logger),
	}
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(api chi.Router) {
		api.Get("/courses", s.handleListCourses)
		api.Get("/courses/{courseID}/files", s.handleListFiles)
		api.Get("/courses/{courseID}/files/via_modules", s.handleListModuleFiles)
		api.Post("/courses/{courseID}/ingest", s.handleStartIngest)
		api.Get("/courses/{courseID}/ingest/status", s.handleIngestStatus)
		api.Get("/questions/from-file", s.handleQuestionFromFile)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Server.Addr()
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
