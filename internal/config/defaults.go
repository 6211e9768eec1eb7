package config

import "time"

// Storage drivers.
const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
)

// Vector backends.
const (
	VectorQdrant   = "qdrant"
	VectorPgvector = "pgvector"
	VectorMemory   = "memory"
)

// Point ID policies.
const (
	PointIDsRandom  = "random"
	PointIDsContent = "content"
)

// Provider names shared by embedding and question settings.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderMock   = "mock"
)

const defaultDimensions = 1024

// modelDimensions lists output sizes of embedding models we know about.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
	"text-embedding-004":     768,
	"gemini-embedding-001":   3072,
	"embed-english-v3.0":     1024,
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	if cfg.LMS.PerPage == 0 {
		cfg.LMS.PerPage = 100
	}
	if cfg.LMS.Timeout == 0 {
		cfg.LMS.Timeout = 30 * time.Second
	}
	if cfg.LMS.RequestsPerSecond == 0 {
		cfg.LMS.RequestsPerSecond = 10
	}
	if cfg.LMS.Burst == 0 {
		cfg.LMS.Burst = 20
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = StorageSQLite
	}
	if cfg.Storage.DatabasePath == "" && cfg.Storage.Driver == StorageSQLite {
		cfg.Storage.DatabasePath = "/usr/local/var/lectern/data/lectern.db"
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = ProviderOpenAI
	}
	if cfg.Embedding.Model == "" {
		switch cfg.Embedding.Provider {
		case ProviderGemini:
			cfg.Embedding.Model = "text-embedding-004"
		case ProviderOpenAI:
			cfg.Embedding.Model = "text-embedding-3-small"
		}
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = defaultDimensions
		if d, ok := modelDimensions[cfg.Embedding.Model]; ok && cfg.Embedding.Provider != ProviderMock {
			cfg.Embedding.Dimensions = d
		}
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 96
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}

	if cfg.Vector.Backend == "" {
		cfg.Vector.Backend = VectorQdrant
	}
	if cfg.Vector.Host == "" {
		cfg.Vector.Host = "localhost"
	}
	if cfg.Vector.Port == 0 {
		cfg.Vector.Port = 6334
	}
	if cfg.Vector.Collection == "" {
		cfg.Vector.Collection = "course_chunks"
	}
	if cfg.Vector.UpsertBatchSize == 0 {
		cfg.Vector.UpsertBatchSize = 100
	}
	if cfg.Vector.PointIDs == "" {
		cfg.Vector.PointIDs = PointIDsRandom
	}

	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 800
	}
	if cfg.Ingest.ChunkOverlap == 0 {
		cfg.Ingest.ChunkOverlap = 150
	}
	if cfg.Ingest.Workers == 0 {
		cfg.Ingest.Workers = 2
	}

	if cfg.Question.Provider == "" {
		cfg.Question.Provider = ProviderOpenAI
	}
	if cfg.Question.Model == "" {
		switch cfg.Question.Provider {
		case ProviderGemini:
			cfg.Question.Model = "gemini-1.5-flash"
		default:
			cfg.Question.Model = "gpt-4o-mini"
		}
	}
	if cfg.Question.Temperature == 0 {
		cfg.Question.Temperature = 0.5
	}
	if cfg.Question.MaxCourses == 0 {
		cfg.Question.MaxCourses = 1
	}
	if cfg.Question.MaxFileMetas == 0 {
		cfg.Question.MaxFileMetas = 8
	}
	if cfg.Question.CacheTTL == 0 {
		cfg.Question.CacheTTL = 24 * time.Hour
	}
	if cfg.Question.MaxChars == 0 {
		cfg.Question.MaxChars = 12000
	}
}
