package config

import "time"

// DefaultConfig returns the full default configuration: an offline,
// single-instance deployment with mock providers and the in-memory session
// store.
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		Retrieval: DefaultRetrievalConfig(),
		Fusion:    DefaultFusionConfig(),
		Rerank:    DefaultRerankConfig(),
		Context:   DefaultContextConfig(),
		Session:   DefaultSessionConfig(),
		Redis:     DefaultRedisConfig(),
		Providers: DefaultProvidersConfig(),
		Log:       DefaultLogConfig(),
	}
}

// DefaultServerConfig returns the default HTTP server settings.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    90 * time.Second, // generation calls can be slow
		ShutdownTimeout: 15 * time.Second,
	}
}

// DefaultRetrievalConfig returns the default retrieval bounds.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		CandidateLimit:  50,
		SemanticEnabled: true,
		DefaultPageSize: 10,
		MaxPageSize:     100,
	}
}

// DefaultFusionConfig weights both retrieval signals equally.
func DefaultFusionConfig() FusionConfig {
	return FusionConfig{KeywordWeight: 0.5, SemanticWeight: 0.5}
}

// DefaultRerankConfig returns the default rerank bounds.
func DefaultRerankConfig() RerankConfig {
	return RerankConfig{Enabled: true, TopN: 50, TextLength: 300}
}

// DefaultContextConfig returns the default context assembly bounds.
func DefaultContextConfig() ContextConfig {
	return ContextConfig{
		TokenBudget:  3000,
		HistoryShare: 0.25,
		MaxRelations: 5,
		Estimator:    "heuristic",
	}
}

// DefaultSessionConfig returns the default session store settings.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Backend:     "memory",
		TTL:         30 * time.Minute,
		MaxMessages: 100,
	}
}

// DefaultRedisConfig returns the default Redis connection settings.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// DefaultProvidersConfig returns empty provider endpoints, which selects the
// deterministic mocks.
func DefaultProvidersConfig() ProvidersConfig {
	return ProvidersConfig{
		Embedding: ProviderConfig{
			Timeout:           30 * time.Second,
			RetryBackoff:      500 * time.Millisecond,
			RequestsPerSecond: 10,
			Dimensions:        1536,
		},
		Rerank: ProviderConfig{
			Timeout:           30 * time.Second,
			RetryBackoff:      500 * time.Millisecond,
			RequestsPerSecond: 10,
		},
		Generation: ProviderConfig{
			Timeout:           60 * time.Second,
			RetryBackoff:      time.Second,
			RequestsPerSecond: 5,
		},
	}
}

// DefaultLogConfig returns the default logger settings.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  "info",
		Format: "json",
	}
}
