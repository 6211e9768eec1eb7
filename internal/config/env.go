package config

import (
	"errors"
	"io/fs"
	"strconv"

	"github.com/joho/godotenv"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// LoadDotEnv reads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ApplyEnv overlays well-known environment variables onto cfg. Set
// variables win over the config file.
func ApplyEnv(cfg *Config, lookup LookupFunc) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("CANVAS_BASE_URL", &cfg.LMS.BaseURL)
	str("CANVAS_ACCESS_TOKEN", &cfg.LMS.AccessToken)
	str("QDRANT_HOST", &cfg.Vector.Host)
	str("QDRANT_API_KEY", &cfg.Vector.APIKey)
	str("QDRANT_COLLECTION_NAME", &cfg.Vector.Collection)
	str("DATABASE_URL", &cfg.Vector.DSN)
	str("OPENAI_QUESTION_MODEL", &cfg.Question.Model)

	if v, ok := lookup("QDRANT_PORT"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Vector.Port = n
		}
	}

	if v, ok := lookup("OPENAI_API_KEY"); ok && v != "" {
		if cfg.Question.APIKey == "" && cfg.Question.Provider != ProviderGemini {
			cfg.Question.APIKey = v
		}
		if cfg.Embedding.APIKey == "" && (cfg.Embedding.Provider == "" || cfg.Embedding.Provider == ProviderOpenAI) {
			cfg.Embedding.APIKey = v
		}
	}
	if v, ok := lookup("GEMINI_API_KEY"); ok && v != "" {
		if cfg.Question.APIKey == "" && cfg.Question.Provider == ProviderGemini {
			cfg.Question.APIKey = v
		}
		if cfg.Embedding.APIKey == "" && cfg.Embedding.Provider == ProviderGemini {
			cfg.Embedding.APIKey = v
		}
	}
}
