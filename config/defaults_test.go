package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigContainsAllSubConfigs(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.NotEqual(t, ServerConfig{}, cfg.Server)
	assert.NotEqual(t, RetrievalConfig{}, cfg.Retrieval)
	assert.NotEqual(t, FusionConfig{}, cfg.Fusion)
	assert.NotEqual(t, RerankConfig{}, cfg.Rerank)
	assert.NotEqual(t, ContextConfig{}, cfg.Context)
	assert.NotEqual(t, SessionConfig{}, cfg.Session)
	assert.NotEqual(t, RedisConfig{}, cfg.Redis)
	assert.NotEqual(t, ProvidersConfig{}, cfg.Providers)
	assert.NotEqual(t, LogConfig{}, cfg.Log)
}

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestDefaultProvidersSelectMocks(t *testing.T) {
	cfg := DefaultProvidersConfig()
	assert.Empty(t, cfg.Embedding.BaseURL)
	assert.Empty(t, cfg.Rerank.BaseURL)
	assert.Empty(t, cfg.Generation.BaseURL)
	assert.Equal(t, 1536, cfg.Embedding.Dimensions)
	assert.Equal(t, 60*time.Second, cfg.Generation.Timeout)
}

func TestDefaultFusionWeightsAreBalanced(t *testing.T) {
	cfg := DefaultFusionConfig()
	assert.Equal(t, 0.5, cfg.KeywordWeight)
	assert.Equal(t, 0.5, cfg.SemanticWeight)
}
