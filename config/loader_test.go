package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderLoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 50, cfg.Retrieval.CandidateLimit)
	assert.True(t, cfg.Retrieval.SemanticEnabled)
	assert.Equal(t, "memory", cfg.Session.Backend)
	// empty base URLs select the mock providers
	assert.Empty(t, cfg.Providers.Embedding.BaseURL)
}

func TestLoaderLoadFromYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "epihelix.yaml")

	yamlContent := `
server:
  http_port: 8888
  read_timeout: 60s

retrieval:
  candidate_limit: 25
  semantic_enabled: false
  default_page_size: 5

fusion:
  keyword_weight: 0.7
  semantic_weight: 0.3

session:
  backend: redis
  ttl: 1h

redis:
  addr: "redis.example.com:6379"
  password: "secret"
  db: 1

providers:
  generation:
    base_url: "http://llm.internal:9000"
    timeout: 45s

log:
  level: "debug"
  format: "console"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)

	assert.Equal(t, 8888, cfg.Server.HTTPPort)
	assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)

	assert.Equal(t, 25, cfg.Retrieval.CandidateLimit)
	assert.False(t, cfg.Retrieval.SemanticEnabled)
	assert.Equal(t, 5, cfg.Retrieval.DefaultPageSize)

	assert.Equal(t, 0.7, cfg.Fusion.KeywordWeight)
	assert.Equal(t, 0.3, cfg.Fusion.SemanticWeight)

	assert.Equal(t, "redis", cfg.Session.Backend)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.Equal(t, "redis.example.com:6379", cfg.Redis.Addr)
	assert.Equal(t, "secret", cfg.Redis.Password)
	assert.Equal(t, 1, cfg.Redis.DB)

	assert.Equal(t, "http://llm.internal:9000", cfg.Providers.Generation.BaseURL)
	assert.Equal(t, 45*time.Second, cfg.Providers.Generation.Timeout)
	// untouched sections keep their defaults
	assert.Equal(t, 30*time.Second, cfg.Providers.Embedding.Timeout)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoaderMissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath("/nonexistent/epihelix.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
}

func TestLoaderEnvOverrides(t *testing.T) {
	t.Setenv("EPIHELIX_SERVER_HTTP_PORT", "9999")
	t.Setenv("EPIHELIX_RETRIEVAL_SEMANTIC_ENABLED", "false")
	t.Setenv("EPIHELIX_FUSION_KEYWORD_WEIGHT", "0.8")
	t.Setenv("EPIHELIX_PROVIDERS_EMBEDDING_TIMEOUT", "5s")
	t.Setenv("EPIHELIX_LOG_LEVEL", "warn")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.HTTPPort)
	assert.False(t, cfg.Retrieval.SemanticEnabled)
	assert.Equal(t, 0.8, cfg.Fusion.KeywordWeight)
	assert.Equal(t, 5*time.Second, cfg.Providers.Embedding.Timeout)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoaderEnvBeatsFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "epihelix.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  http_port: 8888\n"), 0644))

	t.Setenv("EPIHELIX_SERVER_HTTP_PORT", "7777")

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Server.HTTPPort)
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.HTTPPort = 0 }},
		{"bad candidate limit", func(c *Config) { c.Retrieval.CandidateLimit = -1 }},
		{"default page above max", func(c *Config) { c.Retrieval.DefaultPageSize = 500 }},
		{"zero fusion weights", func(c *Config) { c.Fusion.KeywordWeight = 0; c.Fusion.SemanticWeight = 0 }},
		{"negative fusion weight", func(c *Config) { c.Fusion.SemanticWeight = -0.5 }},
		{"bad estimator", func(c *Config) { c.Context.Estimator = "gpt" }},
		{"bad session backend", func(c *Config) { c.Session.Backend = "dynamo" }},
		{"redis backend without addr", func(c *Config) { c.Session.Backend = "redis"; c.Redis.Addr = "" }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, DefaultConfig().Validate())
}

func TestLoaderCustomValidator(t *testing.T) {
	_, err := NewLoader().
		WithValidator(func(c *Config) error {
			if c.Providers.Generation.BaseURL == "" {
				return assert.AnError
			}
			return nil
		}).
		Load()
	require.Error(t, err)
}

func TestBuildLogger(t *testing.T) {
	logger, err := DefaultLogConfig().BuildLogger()
	require.NoError(t, err)
	require.NotNil(t, logger)

	_, err = LogConfig{Level: "loud", Format: "json"}.BuildLogger()
	assert.Error(t, err)
}
