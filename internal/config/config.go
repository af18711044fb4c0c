// Package config loads the engine configuration from YAML with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the complete engine configuration.
type Config struct {
	Chunking ChunkingConfig `yaml:"chunking"`
	Search   SearchConfig   `yaml:"search"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ChunkingConfig tunes statute segmentation.
type ChunkingConfig struct {
	// MaxTokens is the split threshold for oversized sections.
	MaxTokens int `yaml:"max_tokens"`

	// MinTokens is the merge threshold for undersized fragments.
	MinTokens int `yaml:"min_tokens"`
}

// SearchConfig tunes hybrid retrieval.
//
// Weights and the RRF constant are configurable via the config file and
// via env vars (KANUN_SEMANTIC_WEIGHT, KANUN_KEYWORD_WEIGHT,
// KANUN_RRF_CONSTANT), env taking priority.
type SearchConfig struct {
	// SemanticWeight scales semantic rank contributions in fusion.
	SemanticWeight float64 `yaml:"semantic_weight"`

	// KeywordWeight scales keyword rank contributions in fusion.
	// Raised above SemanticWeight for terminology-heavy corpora.
	KeywordWeight float64 `yaml:"keyword_weight"`

	// RRFConstant is the RRF damping parameter k (default: 60).
	RRFConstant int `yaml:"rrf_constant"`

	// TopK is the default result count per query.
	TopK int `yaml:"top_k"`

	// MaxResults caps the per-query result count.
	MaxResults int `yaml:"max_results"`

	// Method is the default retrieval method (semantic, keyword, hybrid).
	Method string `yaml:"method"`
}

// StorageConfig locates the persisted corpus.
type StorageConfig struct {
	// DBPath is the SQLite chunk database path.
	DBPath string `yaml:"db_path"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level"`
}

// Default returns the standard configuration.
func Default() *Config {
	return &Config{
		Chunking: ChunkingConfig{
			MaxTokens: 1000,
			MinTokens: 50,
		},
		Search: SearchConfig{
			SemanticWeight: 0.5,
			KeywordWeight:  0.5,
			RRFConstant:    60,
			TopK:           5,
			MaxResults:     100,
			Method:         "hybrid",
		},
		Storage: StorageConfig{
			DBPath: "kanun.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the config file at path, layered over defaults, then applies
// environment overrides. An empty path skips the file and loads
// defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides applies KANUN_* environment variables, which take
// priority over file values. Unparseable values are ignored.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("KANUN_SEMANTIC_WEIGHT"); v != "" {
		if w, err := strconv.ParseFloat(v, 64); err == nil && w >= 0 {
			c.Search.SemanticWeight = w
		}
	}
	if v := os.Getenv("KANUN_KEYWORD_WEIGHT"); v != "" {
		if w, err := strconv.ParseFloat(v, 64); err == nil && w >= 0 {
			c.Search.KeywordWeight = w
		}
	}
	if v := os.Getenv("KANUN_RRF_CONSTANT"); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			c.Search.RRFConstant = k
		}
	}
	if v := os.Getenv("KANUN_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Search.TopK = n
		}
	}
	if v := os.Getenv("KANUN_DB_PATH"); v != "" {
		c.Storage.DBPath = v
	}
	if v := os.Getenv("KANUN_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate rejects configurations the engine cannot start with.
func (c *Config) Validate() error {
	if c.Chunking.MaxTokens <= 0 {
		return fmt.Errorf("chunking.max_tokens must be positive, got %d", c.Chunking.MaxTokens)
	}
	if c.Chunking.MinTokens < 0 {
		return fmt.Errorf("chunking.min_tokens must be non-negative, got %d", c.Chunking.MinTokens)
	}
	if c.Chunking.MinTokens >= c.Chunking.MaxTokens {
		return fmt.Errorf("chunking.min_tokens %d must be below max_tokens %d",
			c.Chunking.MinTokens, c.Chunking.MaxTokens)
	}
	if c.Search.SemanticWeight < 0 {
		return fmt.Errorf("search.semantic_weight must be non-negative, got %v", c.Search.SemanticWeight)
	}
	if c.Search.KeywordWeight < 0 {
		return fmt.Errorf("search.keyword_weight must be non-negative, got %v", c.Search.KeywordWeight)
	}
	if c.Search.RRFConstant <= 0 {
		return fmt.Errorf("search.rrf_constant must be positive, got %d", c.Search.RRFConstant)
	}
	if c.Search.TopK <= 0 {
		return fmt.Errorf("search.top_k must be positive, got %d", c.Search.TopK)
	}
	if c.Search.MaxResults < c.Search.TopK {
		return fmt.Errorf("search.max_results %d below top_k %d", c.Search.MaxResults, c.Search.TopK)
	}
	switch c.Search.Method {
	case "semantic", "keyword", "hybrid":
	default:
		return fmt.Errorf("search.method must be semantic, keyword, or hybrid, got %q", c.Search.Method)
	}
	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path must not be empty")
	}
	return nil
}
