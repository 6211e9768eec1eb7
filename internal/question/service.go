package question

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperjump/lectern/internal/llm"
	"github.com/hyperjump/lectern/internal/models"
	"github.com/hyperjump/lectern/pkg/utils"
	"go.uber.org/zap"
)

// Parser extracts sections from a downloaded file.
type Parser interface {
	Parse(content []byte, f *models.SourceFile) []models.Section
}

// Service generates one question from a freshly selected course file.
type Service struct {
	lms       LMS
	selector  *Selector
	parser    Parser
	generator llm.Generator
	cache     *TTLCache
	maxChars  int
	now       func() time.Time
	logger    *zap.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets a logger.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// WithMaxChars overrides DefaultMaxChars.
func WithMaxChars(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.maxChars = n
		}
	}
}

// NewService builds the pipeline. generator may be nil, in which case
// Generate reports ErrGeneratorUnavailable.
func NewService(client LMS, selector *Selector, parser Parser, generator llm.Generator, cache *TTLCache, opts ...ServiceOption) *Service {
	s := &Service{
		lms:       client,
		selector:  selector,
		parser:    parser,
		generator: generator,
		cache:     cache,
		maxChars:  DefaultMaxChars,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = utils.OrNop(s.logger)
	return s
}

// Generate selects a file and returns a question for it, from cache when a
// live entry exists.
func (s *Service) Generate(ctx context.Context) (*models.Question, error) {
	if s.generator == nil {
		return nil, ErrGeneratorUnavailable
	}
	sel, err := s.selector.Pick(ctx)
	if err != nil {
		return nil, err
	}
	file := &sel.File
	log := s.logger.With(zap.Int64("course_id", sel.Course.ID), zap.Int64("file_id", file.ID))

	if q, ok, err := s.cache.Get(ctx, file.ID); err != nil {
		log.Warn("question cache read failed", zap.Error(err))
	} else if ok {
		log.Debug("question cache hit")
		return q, nil
	}

	content, err := s.lms.Download(ctx, file)
	if err != nil {
		return nil, err
	}
	sections := s.parser.Parse(content, file)
	if len(sections) == 0 {
		return nil, ErrEmptyDocument
	}
	prompt := buildPrompt(courseName(sel.Course), combineSections(sections, s.maxChars))
	raw, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate question: %w", err)
	}
	q, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}
	q.ID = fmt.Sprintf("gen-%d-%d-%d", sel.Course.ID, file.ID, s.now().Unix())

	if err := s.cache.Put(ctx, file.ID, q); err != nil {
		log.Warn("question cache write failed", zap.Error(err))
	}
	log.Info("question generated", zap.String("name", file.Name()), zap.String("topic", q.Topic))
	return q, nil
}

func courseName(c models.Course) string {
	if c.Name != "" {
		return c.Name
	}
	return "Course"
}
