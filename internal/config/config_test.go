package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.Chunking.MaxTokens)
	assert.Equal(t, 50, cfg.Chunking.MinTokens)
	assert.Equal(t, 0.5, cfg.Search.SemanticWeight)
	assert.Equal(t, 0.5, cfg.Search.KeywordWeight)
	assert.Equal(t, 60, cfg.Search.RRFConstant)
	assert.Equal(t, 5, cfg.Search.TopK)
	assert.Equal(t, "hybrid", cfg.Search.Method)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
chunking:
  max_tokens: 800
search:
  keyword_weight: 0.7
  semantic_weight: 0.3
  top_k: 10
storage:
  db_path: /tmp/corpus.db
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 800, cfg.Chunking.MaxTokens)
	assert.Equal(t, 0.7, cfg.Search.KeywordWeight)
	assert.Equal(t, 0.3, cfg.Search.SemanticWeight)
	assert.Equal(t, 10, cfg.Search.TopK)
	assert.Equal(t, "/tmp/corpus.db", cfg.Storage.DBPath)

	// Untouched fields keep their defaults.
	assert.Equal(t, 50, cfg.Chunking.MinTokens)
	assert.Equal(t, 60, cfg.Search.RRFConstant)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search:\n  rrf_constant: 30\n"), 0o644))

	t.Setenv("KANUN_RRF_CONSTANT", "90")
	t.Setenv("KANUN_KEYWORD_WEIGHT", "0.8")
	t.Setenv("KANUN_DB_PATH", "/var/lib/kanun/corpus.db")
	t.Setenv("KANUN_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 90, cfg.Search.RRFConstant)
	assert.Equal(t, 0.8, cfg.Search.KeywordWeight)
	assert.Equal(t, "/var/lib/kanun/corpus.db", cfg.Storage.DBPath)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_InvalidEnvIgnored(t *testing.T) {
	t.Setenv("KANUN_RRF_CONSTANT", "not-a-number")
	t.Setenv("KANUN_SEMANTIC_WEIGHT", "-3")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Search.RRFConstant)
	assert.Equal(t, 0.5, cfg.Search.SemanticWeight)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search: [not a map"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero max tokens", func(c *Config) { c.Chunking.MaxTokens = 0 }},
		{"min above max", func(c *Config) { c.Chunking.MinTokens = 2000 }},
		{"negative keyword weight", func(c *Config) { c.Search.KeywordWeight = -1 }},
		{"zero rrf constant", func(c *Config) { c.Search.RRFConstant = 0 }},
		{"zero top k", func(c *Config) { c.Search.TopK = 0 }},
		{"max results below top k", func(c *Config) { c.Search.MaxResults = 1 }},
		{"bad method", func(c *Config) { c.Search.Method = "fuzzy" }},
		{"empty db path", func(c *Config) { c.Storage.DBPath = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}
