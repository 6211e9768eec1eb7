// Package main is the lectern CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/hyperjump/lectern/internal/cli"
	"github.com/hyperjump/lectern/internal/config"
	"github.com/hyperjump/lectern/internal/embedding"
	"github.com/hyperjump/lectern/internal/extract"
	"github.com/hyperjump/lectern/internal/indexer"
	"github.com/hyperjump/lectern/internal/llm"
	"github.com/hyperjump/lectern/internal/lms"
	"github.com/hyperjump/lectern/internal/models"
	"github.com/hyperjump/lectern/internal/pointid"
	"github.com/hyperjump/lectern/internal/question"
	"github.com/hyperjump/lectern/internal/server"
	"github.com/hyperjump/lectern/internal/storage"
	"github.com/hyperjump/lectern/internal/vector"
	"github.com/hyperjump/lectern/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/lectern/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory wins if present; when neither exists the environment and
// defaults are used alone. Returns the config and the path that was loaded ("" for none).
func loadConfig(path string) (*config.Config, string, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, "", err
	}
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				path = fallback
			}
		}
		if path == defaultConfigPath {
			if _, statErr := os.Stat(path); statErr != nil {
				path = ""
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ingest":
		runIngest()
	case "status":
		runStatus()
	case "question":
		runQuestion()
	case "courses":
		runCourses()
	case "files":
		runFiles()
	case "version", "--version", "-v":
		fmt.Printf("lectern version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (per-page, per-file and per-batch events)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.String("vector_backend", cfg.Vector.Backend),
		zap.String("storage_driver", cfg.Storage.Driver),
	)
	if cfg.LMS.AccessToken == "" {
		logger.Warn("CANVAS_ACCESS_TOKEN is not set; LMS calls will be rejected")
	}

	ctx := context.Background()
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	// Only the server recovers: a direct-mode ingest may share the database
	// with a server whose jobs are still running.
	if _, err := components.Ingestor.Recover(ctx); err != nil {
		logger.Fatal("Failed to recover interrupted jobs", zap.Error(err))
	}

	srv := server.NewServer(components.Ingestor, components.Questions, components.LMS, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(stopCtx)
}

// parseCourseID reads the first positional argument as a course id.
func parseCourseID(args []string) (int64, error) {
	if len(args) < 1 {
		return 0, errors.New("missing course id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid course id %q", args[0])
	}
	return id, nil
}

func outputFormat(s string) cli.OutputFormat {
	format, err := cli.ParseOutputFormat(s)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return format
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = run the job in this process)")
	wait := fs.Bool("wait", false, "poll the server until the job finishes")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	courseID, err := parseCourseID(fs.Args())
	if err != nil {
		fmt.Println("Usage: lectern ingest [flags] <course-id>")
		os.Exit(1)
	}
	format := outputFormat(*output)

	if *serverURL != "" {
		msg, err := startIngestViaHTTP(*serverURL, courseID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
			os.Exit(1)
		}
		if !*wait {
			fmt.Println(msg)
			return
		}
		st, err := waitForJob(context.Background(), *serverURL, courseID, 2*time.Second)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		exitOnWriteErr(cli.WriteJobStatus(os.Stdout, st, format))
		if st.State == models.JobFailed {
			os.Exit(1)
		}
		return
	}

	cfg, logger, components := direct(*configPath)
	defer logger.Sync()
	defer components.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	st, err := components.Ingestor.Ingest(ctx, courseID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("ingest finished", zap.String("collection", cfg.Vector.Collection))
	exitOnWriteErr(cli.WriteJobStatus(os.Stdout, st, format))
	if st.State == models.JobFailed {
		os.Exit(1)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = read the job store directly)")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	courseID, err := parseCourseID(fs.Args())
	if err != nil {
		fmt.Println("Usage: lectern status [flags] <course-id>")
		os.Exit(1)
	}
	format := outputFormat(*output)

	var st models.JobStatus
	if *serverURL != "" {
		if err := apiGet(*serverURL+fmt.Sprintf("/api/v1/courses/%d/ingest/status", courseID), &st); err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		store, err := storage.NewStore(cfg.Storage.Driver, cfg.Storage.DatabasePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open storage: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
		got, ok, err := store.GetJob(context.Background(), courseID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		st = models.NotStarted(courseID)
		if ok {
			st = got
		}
	}
	exitOnWriteErr(cli.WriteJobStatus(os.Stdout, st, format))
}

func runQuestion() {
	fs := flag.NewFlagSet("question", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = generate in this process)")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format := outputFormat(*output)

	var q *models.Question
	if *serverURL != "" {
		q = &models.Question{}
		if err := apiGet(*serverURL+"/api/v1/questions/from-file", q); err != nil {
			fmt.Fprintf(os.Stderr, "Question failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		_, logger, components := direct(*configPath)
		defer logger.Sync()
		defer components.Close()
		var err error
		q, err = components.Questions.Generate(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Question failed: %v\n", err)
			os.Exit(1)
		}
	}
	exitOnWriteErr(cli.WriteQuestion(os.Stdout, q, format))
}

func runCourses() {
	fs := flag.NewFlagSet("courses", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	state := fs.String("enrollment-state", "", "filter by enrollment state (active, invited_or_pending, completed)")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format := outputFormat(*output)

	client, logger := lmsOnly(*configPath)
	defer logger.Sync()
	courses, err := client.ListCourses(context.Background(), lms.CourseQuery{EnrollmentState: *state})
	if err != nil {
		fmt.Fprintf(os.Stderr, "List courses failed: %v\n", err)
		os.Exit(1)
	}
	exitOnWriteErr(cli.WriteCourses(os.Stdout, courses, format))
}

func runFiles() {
	fs := flag.NewFlagSet("files", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	courseID, err := parseCourseID(fs.Args())
	if err != nil {
		fmt.Println("Usage: lectern files [flags] <course-id>")
		os.Exit(1)
	}
	format := outputFormat(*output)

	client, logger := lmsOnly(*configPath)
	defer logger.Sync()
	files, err := client.ListCourseFiles(context.Background(), courseID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "List files failed: %v\n", err)
		os.Exit(1)
	}
	exitOnWriteErr(cli.WriteFiles(os.Stdout, files, format))
}

func exitOnWriteErr(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// direct loads config and builds every component for in-process commands.
func direct(configPath string) (*config.Config, *zap.Logger, *Components) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(context.Background(), cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	return cfg, logger, components
}

func lmsOnly(configPath string) (*lms.Client, *zap.Logger) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return newLMSClient(cfg, logger), logger
}

func startIngestViaHTTP(serverURL string, courseID int64) (string, error) {
	resp, err := http.Post(fmt.Sprintf("%s/api/v1/courses/%d/ingest", serverURL, courseID), "application/json", nil)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusAccepted {
		return "", fmt.Errorf("server returned %d: %s", resp.StatusCode, cli.ErrorMessage(b))
	}
	var out struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return out.Message, nil
}

// waitForJob polls the status endpoint until the job leaves running.
func waitForJob(ctx context.Context, serverURL string, courseID int64, interval time.Duration) (models.JobStatus, error) {
	statusURL := fmt.Sprintf("%s/api/v1/courses/%d/ingest/status", serverURL, courseID)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		var st models.JobStatus
		if err := apiGet(statusURL, &st); err != nil {
			return st, err
		}
		if st.State != models.JobRunning {
			return st, nil
		}
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case <-ticker.C:
		}
	}
}

func apiGet(rawURL string, v any) error {
	resp, err := http.Get(rawURL)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, cli.ErrorMessage(b))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Components holds initialized services.
type Components struct {
	Store     storage.Store
	LMS       *lms.Client
	Embedder  embedding.Embedder
	Writer    *vector.Writer
	Ingestor  *indexer.Ingestor
	Generator llm.Generator
	Questions *question.Service
}

func (c *Components) Close() {
	if c.Ingestor != nil {
		c.Ingestor.Close()
	}
	if c.Writer != nil {
		_ = c.Writer.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Generator != nil {
		_ = c.Generator.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

func newLMSClient(cfg *config.Config, logger *zap.Logger) *lms.Client {
	return lms.New(cfg.LMS.BaseURL, cfg.LMS.AccessToken,
		lms.WithLogger(logger),
		lms.WithRateLimit(cfg.LMS.RequestsPerSecond, cfg.LMS.Burst),
		lms.WithPerPage(cfg.LMS.PerPage),
		lms.WithTimeout(cfg.LMS.Timeout),
	)
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	c := &Components{}
	fail := func(err error) (*Components, error) {
		c.Close()
		return nil, err
	}

	store, err := storage.NewStore(cfg.Storage.Driver, cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.Store = store
	c.LMS = newLMSClient(cfg, logger)
	ext := extract.NewExtractor(extract.WithLogger(logger))

	embedder, err := embedding.NewEmbedder(ctx, &cfg.Embedding)
	if err != nil {
		return fail(fmt.Errorf("failed to initialize embedder: %w", err))
	}
	c.Embedder = embedder
	batcher := embedding.NewBatcher(embedder, cfg.Embedding.BatchSize, embedding.WithBatcherLogger(logger))

	vstore, err := vector.NewStore(ctx, &cfg.Vector)
	if err != nil {
		return fail(fmt.Errorf("failed to initialize vector store: %w", err))
	}
	c.Writer = vector.NewWriter(vstore, cfg.Vector.Collection, embedder.Dimensions(),
		vector.WithLogger(logger),
		vector.WithBatchSize(cfg.Vector.UpsertBatchSize),
		vector.WithIDs(pointid.ForPolicy(cfg.Vector.PointIDs)),
	)
	logger.Info("vector store initialized",
		zap.String("backend", cfg.Vector.Backend),
		zap.String("collection", cfg.Vector.Collection),
		zap.Int("dimensions", embedder.Dimensions()))

	ing, err := indexer.NewIngestor(c.LMS, ext, batcher, c.Writer, store, &cfg.Ingest, indexer.WithLogger(logger))
	if err != nil {
		return fail(err)
	}
	c.Ingestor = ing

	gen, err := llm.New(ctx, &cfg.Question)
	switch {
	case errors.Is(err, llm.ErrNoCredential):
		logger.Warn("question generation disabled: no API key configured",
			zap.String("provider", cfg.Question.Provider))
	case err != nil:
		return fail(fmt.Errorf("failed to initialize question generator: %w", err))
	default:
		c.Generator = gen
	}

	selector := question.NewSelector(c.LMS, ext.IsSupported, cfg.Question.MaxCourses, cfg.Question.MaxFileMetas,
		question.WithSelectorLogger(logger))
	cache := question.NewTTLCache(store, cfg.Question.CacheTTL)
	c.Questions = question.NewService(c.LMS, selector, ext, c.Generator, cache,
		question.WithLogger(logger),
		question.WithMaxChars(cfg.Question.MaxChars))
	return c, nil
}

func printUsage() {
	fmt.Println(`lectern - Course material ingestion and question generation for Canvas

Usage:
  lectern server [flags]                Start the HTTP server
  lectern ingest [flags] <course-id>    Ingest a course's files into the vector index
  lectern status [flags] <course-id>    Show ingestion status for a course
  lectern question [flags]              Generate a question from a recent course file
  lectern courses [flags]               List courses visible to the token
  lectern files [flags] <course-id>     List a course's files
  lectern version                       Show version
  lectern help                          Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/lectern/config.yaml)
  --debug            Enable debug logging

Ingest/Status/Question Flags:
  --config string    Config file path (for direct mode)
  --server string    Server URL (default: http://localhost:8080). Use --server "" to run in this process.
  --output string    Output format: text or json (default: text)
  --wait             (ingest) poll until the job finishes

Courses/Files Flags:
  --config string            Config file path
  --enrollment-state string  (courses) filter by enrollment state
  --output string            Output format: text or json

Environment:
  CANVAS_BASE_URL, CANVAS_ACCESS_TOKEN, OPENAI_API_KEY, GEMINI_API_KEY,
  QDRANT_HOST, QDRANT_PORT, QDRANT_API_KEY, QDRANT_COLLECTION_NAME, DATABASE_URL
  A .env file in the working directory is loaded first.

Examples:
  lectern server
  lectern ingest 1234
  lectern ingest --wait 1234
  lectern ingest --server "" 1234      # run in this process
  lectern status --output json 1234
  lectern question
  lectern courses --enrollment-state active`)
}
