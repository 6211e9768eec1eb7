package question

import (
	"context"
	"errors"
	"math/rand/v2"
	"sort"

	"github.com/hyperjump/lectern/internal/lms"
	"github.com/hyperjump/lectern/internal/models"
	"github.com/hyperjump/lectern/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// LMS is the part of the Canvas client the selector and service use.
type LMS interface {
	ListCourses(ctx context.Context, q lms.CourseQuery) ([]models.Course, error)
	ListCourseFilesViaModules(ctx context.Context, courseID int64) ([]models.ModuleFileRef, error)
	ListCourseFiles(ctx context.Context, courseID int64) ([]models.SourceFile, error)
	GetFile(ctx context.Context, fileID int64) (*models.SourceFile, error)
	Download(ctx context.Context, f *models.SourceFile) ([]byte, error)
}

// Selection is the course and file a question will be generated from.
type Selection struct {
	Course models.Course
	File   models.SourceFile
}

// Selector picks a random active course and its most recent supported file.
type Selector struct {
	lms          LMS
	supported    func(*models.SourceFile) bool
	maxCourses   int
	maxFileMetas int
	shuffle      func(n int, swap func(i, j int))
	logger       *zap.Logger
}

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithShuffle replaces the random permutation, for deterministic tests.
func WithShuffle(fn func(n int, swap func(i, j int))) SelectorOption {
	return func(s *Selector) { s.shuffle = fn }
}

// WithSelectorLogger sets a logger.
func WithSelectorLogger(l *zap.Logger) SelectorOption {
	return func(s *Selector) { s.logger = l }
}

// NewSelector tries at most maxCourses courses and looks up metadata for at
// most maxFileMetas module files per course, in parallel.
func NewSelector(client LMS, supported func(*models.SourceFile) bool, maxCourses, maxFileMetas int, opts ...SelectorOption) *Selector {
	s := &Selector{
		lms:          client,
		supported:    supported,
		maxCourses:   maxCourses,
		maxFileMetas: maxFileMetas,
		shuffle:      rand.Shuffle,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = utils.OrNop(s.logger)
	return s
}

// Pick returns a usable file, ErrNoCourses when the user has no active
// courses, or ErrNoUsableFiles when none of the tried courses has one.
func (s *Selector) Pick(ctx context.Context) (*Selection, error) {
	courses, err := s.lms.ListCourses(ctx, lms.CourseQuery{EnrollmentState: "active"})
	if err != nil {
		return nil, err
	}
	if len(courses) == 0 {
		return nil, ErrNoCourses
	}
	s.shuffle(len(courses), func(i, j int) { courses[i], courses[j] = courses[j], courses[i] })
	if len(courses) > s.maxCourses {
		courses = courses[:s.maxCourses]
	}
	for _, c := range courses {
		if c.ID == 0 {
			continue
		}
		f, err := s.pickFromCourse(ctx, c)
		if err != nil {
			return nil, err
		}
		if f != nil {
			s.logger.Debug("selected file",
				zap.Int64("course_id", c.ID),
				zap.Int64("file_id", f.ID),
				zap.String("name", f.Name()))
			return &Selection{Course: c, File: *f}, nil
		}
	}
	return nil, ErrNoUsableFiles
}

func (s *Selector) pickFromCourse(ctx context.Context, c models.Course) (*models.SourceFile, error) {
	refs, err := s.lms.ListCourseFilesViaModules(ctx, c.ID)
	if err != nil {
		s.logger.Debug("module listing failed", zap.Int64("course_id", c.ID), zap.Error(err))
		refs = nil
	}
	if len(refs) == 0 {
		return s.pickDirect(ctx, c)
	}

	s.shuffle(len(refs), func(i, j int) { refs[i], refs[j] = refs[j], refs[i] })
	if len(refs) > s.maxFileMetas {
		refs = refs[:s.maxFileMetas]
	}
	found := make([]*models.SourceFile, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxFileMetas)
	for i, ref := range refs {
		g.Go(func() error {
			if ref.TargetID == 0 {
				return nil
			}
			f, err := s.lms.GetFile(gctx, ref.TargetID)
			if err != nil {
				s.logger.Debug("file metadata failed", zap.Int64("file_id", ref.TargetID), zap.Error(err))
				return nil
			}
			if !s.supported(f) {
				return nil
			}
			mod := ref
			f.Module = &mod
			found[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var candidates []models.SourceFile
	for _, f := range found {
		if f != nil {
			candidates = append(candidates, *f)
		}
	}
	return mostRecent(candidates), nil
}

// pickDirect uses the course file listing. Students usually get 403 there,
// which counts as no files.
func (s *Selector) pickDirect(ctx context.Context, c models.Course) (*models.SourceFile, error) {
	files, err := s.lms.ListCourseFiles(ctx, c.ID)
	if err != nil {
		var re *lms.RemoteError
		if !errors.As(err, &re) {
			return nil, err
		}
		s.logger.Debug("direct file listing refused", zap.Int64("course_id", c.ID), zap.Error(err))
		return nil, nil
	}
	var supported []models.SourceFile
	for _, f := range files {
		if s.supported(&f) {
			supported = append(supported, f)
		}
	}
	return mostRecent(supported), nil
}

// mostRecent returns the file with the latest update (or creation) time.
// Ties keep the earlier position.
func mostRecent(files []models.SourceFile) *models.SourceFile {
	if len(files) == 0 {
		return nil
	}
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Recency().After(files[j].Recency())
	})
	f := files[0]
	return &f
}
