// Package config provides configuration loading and structs for the lectern server and CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	LMS       LMSConfig       `yaml:"lms"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Vector    VectorConfig    `yaml:"vector"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Question  QuestionConfig  `yaml:"question"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LMSConfig holds the Canvas REST API connection.
type LMSConfig struct {
	BaseURL           string        `yaml:"base_url"`
	AccessToken       string        `yaml:"access_token"`
	PerPage           int           `yaml:"per_page"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
}

// StorageConfig selects where job status and the question cache live.
type StorageConfig struct {
	Driver       string `yaml:"driver"`
	DatabasePath string `yaml:"database_path"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	Dimensions int    `yaml:"dimensions"`
	BatchSize  int    `yaml:"batch_size"`
	CacheSize  int    `yaml:"cache_size"`
}

// VectorConfig holds the vector index connection.
type VectorConfig struct {
	Backend         string `yaml:"backend"`
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	APIKey          string `yaml:"api_key"`
	UseTLS          bool   `yaml:"use_tls"`
	DSN             string `yaml:"dsn"`
	Collection      string `yaml:"collection"`
	UpsertBatchSize int    `yaml:"upsert_batch_size"`
	PointIDs        string `yaml:"point_ids"`
}

// IngestConfig holds chunking and job pool settings.
type IngestConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	Workers      int `yaml:"workers"`
}

// QuestionConfig holds question generation settings.
type QuestionConfig struct {
	Provider     string        `yaml:"provider"`
	Model        string        `yaml:"model"`
	BaseURL      string        `yaml:"base_url"`
	APIKey       string        `yaml:"api_key"`
	Temperature  float64       `yaml:"temperature"`
	MaxCourses   int           `yaml:"max_courses"`
	MaxFileMetas int           `yaml:"max_file_metas"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	MaxChars     int           `yaml:"max_chars"`
}

// Load reads and parses the config file at path, overlays the environment,
// applies defaults and validates the result.
// An empty path skips the file and uses environment and defaults only.
func Load(path string) (*Config, error) {
	var cfg Config
	configDir := "."
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		configDir = filepath.Dir(path)
	}

	ApplyEnv(&cfg, os.LookupEnv)
	ApplyDefaults(&cfg)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate reports settings that would make ingestion or selection misbehave.
func (c *Config) Validate() error {
	var errs []error
	if c.Ingest.ChunkSize <= 0 {
		errs = append(errs, errors.New("ingest.chunk_size must be positive"))
	}
	if c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		errs = append(errs, fmt.Errorf("ingest.chunk_overlap must be in [0, %d)", c.Ingest.ChunkSize))
	}
	if c.Embedding.Dimensions <= 0 {
		errs = append(errs, errors.New("embedding.dimensions must be positive"))
	}
	switch c.Storage.Driver {
	case StorageMemory, StorageSQLite:
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is not one of memory, sqlite", c.Storage.Driver))
	}
	switch c.Vector.Backend {
	case VectorQdrant, VectorPgvector, VectorMemory:
	default:
		errs = append(errs, fmt.Errorf("vector.backend %q is not one of qdrant, pgvector, memory", c.Vector.Backend))
	}
	switch c.Vector.PointIDs {
	case PointIDsRandom, PointIDsContent:
	default:
		errs = append(errs, fmt.Errorf("vector.point_ids %q is not one of random, content", c.Vector.PointIDs))
	}
	if c.Question.MaxCourses <= 0 || c.Question.MaxFileMetas <= 0 {
		errs = append(errs, errors.New("question.max_courses and question.max_file_metas must be positive"))
	}
	return errors.Join(errs...)
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
