package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hyperjump/lectern/internal/config"
	"github.com/hyperjump/lectern/internal/lms"
	"github.com/hyperjump/lectern/internal/models"
	"github.com/hyperjump/lectern/internal/storage"
	"github.com/hyperjump/lectern/pkg/utils"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// ErrJobRunning is returned when a course already has a running ingestion job.
var ErrJobRunning = errors.New("ingestion already running for this course")

// interruptedMessage is recorded for jobs a previous process left running.
const interruptedMessage = "ingestion interrupted: the process stopped before the job finished"

// FileSource lists and downloads a course's files.
type FileSource interface {
	ListCourseFiles(ctx context.Context, courseID int64) ([]models.SourceFile, error)
	Download(ctx context.Context, f *models.SourceFile) ([]byte, error)
}

// Parser decides which files can be read and extracts their sections.
type Parser interface {
	IsSupported(f *models.SourceFile) bool
	Parse(content []byte, f *models.SourceFile) []models.Section
}

// Embedder returns one vector per text, in order.
type Embedder interface {
	EmbedAll(ctx context.Context, texts []string) ([][]float32, error)
}

// IndexWriter creates the collection and writes points to it.
type IndexWriter interface {
	EnsureCollection(ctx context.Context) error
	Upsert(ctx context.Context, points []models.IndexPoint) error
}

// Ingestor runs one job per course: list, filter, download, parse, chunk,
// embed and upsert, recording progress in a JobStore after every file.
type Ingestor struct {
	files    FileSource
	parser   Parser
	embedder Embedder
	writer   IndexWriter
	jobs     storage.JobStore
	chunker  *Chunker
	pool     *ants.Pool
	wg       sync.WaitGroup
	logger   *zap.Logger
}

// IngestorOption configures an Ingestor.
type IngestorOption func(*Ingestor)

// WithLogger sets a logger for job lifecycle and per-file events.
func WithLogger(l *zap.Logger) IngestorOption {
	return func(in *Ingestor) { in.logger = l }
}

// NewIngestor wires the pipeline. cfg supplies chunk sizing and the number of
// jobs that may run at once across courses.
func NewIngestor(
	files FileSource,
	parser Parser,
	embedder Embedder,
	writer IndexWriter,
	jobs storage.JobStore,
	cfg *config.IngestConfig,
	opts ...IngestorOption,
) (*Ingestor, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create job pool: %w", err)
	}
	in := &Ingestor{
		files:    files,
		parser:   parser,
		embedder: embedder,
		writer:   writer,
		jobs:     jobs,
		chunker:  NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		pool:     pool,
	}
	for _, opt := range opts {
		opt(in)
	}
	in.logger = utils.OrNop(in.logger)
	return in, nil
}

// Status returns the course's job record, or not_started if it never ran.
func (in *Ingestor) Status(ctx context.Context, courseID int64) (models.JobStatus, error) {
	st, ok, err := in.jobs.GetJob(ctx, courseID)
	if err != nil {
		return models.JobStatus{}, err
	}
	if !ok {
		return models.NotStarted(courseID), nil
	}
	return st, nil
}

// Start marks the course running and queues the job on the worker pool. It
// returns ErrJobRunning if a job for the course is already running. The job
// outlives ctx; its outcome is only visible through Status.
func (in *Ingestor) Start(ctx context.Context, courseID int64) error {
	if err := in.claim(ctx, courseID); err != nil {
		return err
	}
	jobCtx := context.WithoutCancel(ctx)
	in.wg.Add(1)
	err := in.pool.Submit(func() {
		defer in.wg.Done()
		in.run(jobCtx, courseID)
	})
	if err != nil {
		in.wg.Done()
		failed := models.JobStatus{CourseID: courseID, State: models.JobFailed, Error: err.Error()}
		if perr := in.jobs.PutJob(ctx, failed); perr != nil {
			in.logger.Error("record job failure", zap.Int64("course_id", courseID), zap.Error(perr))
		}
		return fmt.Errorf("submit ingestion job: %w", err)
	}
	return nil
}

// Ingest runs a job for the course in the calling goroutine and returns its
// final status. A failed run is reported in the status, not as an error.
func (in *Ingestor) Ingest(ctx context.Context, courseID int64) (models.JobStatus, error) {
	if err := in.claim(ctx, courseID); err != nil {
		return models.JobStatus{}, err
	}
	return in.run(ctx, courseID), nil
}

// Recover marks jobs left running by a previous process as failed so their
// courses can be started again. Call it once at startup, before any Start.
func (in *Ingestor) Recover(ctx context.Context) (int, error) {
	n, err := in.jobs.FailRunningJobs(ctx, interruptedMessage)
	if err != nil {
		return 0, fmt.Errorf("recover interrupted jobs: %w", err)
	}
	if n > 0 {
		in.logger.Warn("marked interrupted jobs failed", zap.Int("jobs", n))
	}
	return n, nil
}

// Wait blocks until every submitted job has finished.
func (in *Ingestor) Wait() {
	in.wg.Wait()
}

// Close waits for running jobs and releases the pool.
func (in *Ingestor) Close() {
	in.wg.Wait()
	in.pool.Release()
}

// claim moves the course to running unless it already is.
func (in *Ingestor) claim(ctx context.Context, courseID int64) error {
	current, err := in.Status(ctx, courseID)
	if err != nil {
		return err
	}
	if current.State == models.JobRunning {
		return ErrJobRunning
	}
	ok, err := in.jobs.SwapJob(ctx, current.State, models.JobStatus{CourseID: courseID, State: models.JobRunning})
	if err != nil {
		return err
	}
	if !ok {
		return ErrJobRunning
	}
	return nil
}

func (in *Ingestor) run(ctx context.Context, courseID int64) models.JobStatus {
	st := models.JobStatus{CourseID: courseID, State: models.JobRunning}
	log := in.logger.With(zap.Int64("course_id", courseID))
	log.Info("ingestion started")

	if err := in.safeProcess(ctx, &st, log); err != nil {
		st.State = models.JobFailed
		st.Error = failureMessage(err)
		log.Error("ingestion failed",
			zap.Int("files_processed", st.FilesProcessed),
			zap.Int("chunks_indexed", st.ChunksIndexed),
			zap.Error(err))
	} else {
		st.State = models.JobComplete
		log.Info("ingestion complete",
			zap.Int("files_total", st.FilesTotal),
			zap.Int("files_skipped", st.FilesSkipped),
			zap.Int("chunks_indexed", st.ChunksIndexed))
	}
	in.save(ctx, st, log)
	return st
}

// safeProcess turns a panic in the pipeline into a job failure.
func (in *Ingestor) safeProcess(ctx context.Context, st *models.JobStatus, log *zap.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return in.process(ctx, st, log)
}

func (in *Ingestor) process(ctx context.Context, st *models.JobStatus, log *zap.Logger) error {
	if err := in.writer.EnsureCollection(ctx); err != nil {
		return err
	}
	all, err := in.files.ListCourseFiles(ctx, st.CourseID)
	if err != nil {
		return err
	}
	supported := make([]models.SourceFile, 0, len(all))
	for _, f := range all {
		if in.parser.IsSupported(&f) {
			supported = append(supported, f)
		}
	}
	st.FilesTotal = len(supported)
	st.FilesSkipped = len(all) - len(supported)
	in.save(ctx, *st, log)

	for i := range supported {
		n, err := in.indexFile(ctx, st.CourseID, &supported[i])
		if err != nil {
			return err
		}
		st.FilesProcessed++
		st.ChunksIndexed += n
		in.save(ctx, *st, log)
	}
	return nil
}

// indexFile returns the number of chunks written for f.
func (in *Ingestor) indexFile(ctx context.Context, courseID int64, f *models.SourceFile) (int, error) {
	content, err := in.files.Download(ctx, f)
	if err != nil {
		return 0, err
	}
	sections := in.parser.Parse(content, f)
	if len(sections) == 0 {
		in.logger.Debug("file produced no text", zap.Int64("file_id", f.ID), zap.String("name", f.Name()))
		return 0, nil
	}
	chunks := in.chunker.Chunk(sections)
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	vectors, err := in.embedder.EmbedAll(ctx, texts)
	if err != nil {
		return 0, err
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}
	points := make([]models.IndexPoint, len(chunks))
	for i, ch := range chunks {
		points[i] = models.IndexPoint{
			Vector: vectors[i],
			Payload: models.PointPayload{
				CourseID:       courseID,
				FileID:         f.ID,
				FileName:       f.Name(),
				ChunkIndex:     ch.Index,
				ChunkText:      ch.Text,
				SourceLocation: ch.Location,
			},
		}
	}
	if err := in.writer.Upsert(ctx, points); err != nil {
		return 0, err
	}
	in.logger.Debug("file indexed",
		zap.Int64("file_id", f.ID),
		zap.String("name", f.Name()),
		zap.Int("sections", len(sections)),
		zap.Int("chunks", len(chunks)))
	return len(chunks), nil
}

// save records st even when ctx is canceled, so a canceled run still ends failed.
func (in *Ingestor) save(ctx context.Context, st models.JobStatus, log *zap.Logger) {
	if err := in.jobs.PutJob(context.WithoutCancel(ctx), st); err != nil {
		log.Error("save job status", zap.Error(err))
	}
}

// failureMessage is what the job record shows for err. LMS errors carry the
// raw response body so permission problems stay debuggable.
func failureMessage(err error) string {
	var re *lms.RemoteError
	if errors.As(err, &re) {
		return fmt.Sprintf("Canvas error %d: %s", re.StatusCode, re.Body)
	}
	return err.Error()
}
