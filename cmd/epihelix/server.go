package main

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/epihelix/epihelix/api/handlers"
	"github.com/epihelix/epihelix/config"
	"github.com/epihelix/epihelix/internal/metrics"
	"github.com/epihelix/epihelix/internal/server"
	"github.com/epihelix/epihelix/kg"
	"github.com/epihelix/epihelix/promptctx"
	"github.com/epihelix/epihelix/providers/embedding"
	"github.com/epihelix/epihelix/providers/generation"
	"github.com/epihelix/epihelix/providers/rerank"
	"github.com/epihelix/epihelix/rag"
	"github.com/epihelix/epihelix/retrieval"
	"github.com/epihelix/epihelix/session"
)

// Server wires the whole pipeline: knowledge graph store, providers,
// retrieval stages, orchestrator, HTTP handlers, and the listener manager.
type Server struct {
	cfg      *config.Config
	logger   *zap.Logger
	manager  *server.Manager
	sessions session.Store
	memStore *session.MemoryStore
	redisCli *redis.Client
}

// NewServer builds everything from configuration. Providers with an empty
// base URL fall back to their deterministic mocks, so the server runs
// standalone with no external services.
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	collector := metrics.NewCollector("epihelix", prometheus.DefaultRegisterer, logger)

	store := kg.SeededMemoryStore(logger)

	embedder := buildEmbedder(cfg.Providers.Embedding, collector, logger)
	rerankProvider := buildRerankProvider(cfg.Providers.Rerank, collector, logger)
	generator := buildGenerator(cfg.Providers.Generation, collector, logger)

	keyword := retrieval.NewKeywordRetriever(store, logger)
	semantic := retrieval.NewSemanticRetriever(store, embedder, logger)
	fuser := retrieval.NewFuser(retrieval.FusionConfig{
		KeywordWeight:  cfg.Fusion.KeywordWeight,
		SemanticWeight: cfg.Fusion.SemanticWeight,
	}, logger)
	reranker := retrieval.NewReranker(rerankProvider, retrieval.RerankConfig{
		TopN:       cfg.Rerank.TopN,
		TextLength: cfg.Rerank.TextLength,
	}, logger)
	paginator := retrieval.NewPaginator(cfg.Retrieval.MaxPageSize)

	estimator := buildEstimator(cfg.Context, logger)
	assembler := promptctx.NewAssembler(estimator, promptctx.AssemblerConfig{
		TokenBudget:  cfg.Context.TokenBudget,
		HistoryShare: cfg.Context.HistoryShare,
		MaxRelations: cfg.Context.MaxRelations,
	}, logger)

	srv := &Server{cfg: cfg, logger: logger}
	if err := srv.buildSessions(); err != nil {
		return nil, err
	}

	orch := rag.NewOrchestrator(rag.Deps{
		Store:     store,
		Keyword:   keyword,
		Semantic:  semantic,
		Fuser:     fuser,
		Reranker:  reranker,
		Paginator: paginator,
		Assembler: assembler,
		Generator: generator,
		Sessions:  srv.sessions,
		Metrics:   collector,
	}, rag.Config{
		CandidateLimit:  cfg.Retrieval.CandidateLimit,
		SemanticEnabled: cfg.Retrieval.SemanticEnabled,
		RerankEnabled:   cfg.Rerank.Enabled,
		DefaultPageSize: cfg.Retrieval.DefaultPageSize,
		TokenBudget:     cfg.Context.TokenBudget,
	}, logger)

	mux := buildMux(orch, store, collector, logger)

	srv.manager = server.NewManager(mux, server.Config{
		Addr:            fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     server.DefaultConfig().IdleTimeout,
		MaxHeaderBytes:  server.DefaultConfig().MaxHeaderBytes,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, logger)

	return srv, nil
}

// buildSessions selects the session backend. Redis connectivity is not
// probed at startup; a dead Redis surfaces as INTERNAL_ERROR on first use.
func (s *Server) buildSessions() error {
	switch s.cfg.Session.Backend {
	case "redis":
		s.redisCli = redis.NewClient(&redis.Options{
			Addr:         s.cfg.Redis.Addr,
			Password:     s.cfg.Redis.Password,
			DB:           s.cfg.Redis.DB,
			PoolSize:     s.cfg.Redis.PoolSize,
			MinIdleConns: s.cfg.Redis.MinIdleConns,
		})
		s.sessions = session.NewRedisStore(s.redisCli, session.RedisConfig{
			TTL:         s.cfg.Session.TTL,
			MaxMessages: s.cfg.Session.MaxMessages,
		}, s.logger)
		s.logger.Info("using redis session store", zap.String("addr", s.cfg.Redis.Addr))
	case "memory", "":
		s.memStore = session.NewMemoryStore(session.MemoryConfig{
			TTL:         s.cfg.Session.TTL,
			MaxMessages: s.cfg.Session.MaxMessages,
		}, s.logger)
		s.sessions = s.memStore
		s.logger.Info("using in-memory session store")
	default:
		return fmt.Errorf("unknown session backend: %s", s.cfg.Session.Backend)
	}
	return nil
}

func buildMux(orch *rag.Orchestrator, store kg.Store, collector *metrics.Collector, logger *zap.Logger) *http.ServeMux {
	searchHandler := handlers.NewSearchHandler(orch, logger)
	entityHandler := handlers.NewEntityHandler(store, logger)
	summaryHandler := handlers.NewSummaryHandler(orch, logger)
	chatHandler := handlers.NewChatHandler(orch, logger)
	healthHandler := handlers.NewHealthHandler(Version)

	route := func(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, handlers.Instrument(pattern, collector, logger, h))
	}

	mux := http.NewServeMux()
	route(mux, "GET /search", searchHandler.Handle)
	route(mux, "GET /entity/{id}", entityHandler.Handle)
	route(mux, "POST /summary/generate", summaryHandler.Handle)
	route(mux, "POST /chat", chatHandler.HandleTurn)
	route(mux, "DELETE /chat", chatHandler.HandleClear)
	route(mux, "GET /health", healthHandler.Handle)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func buildEmbedder(cfg config.ProviderConfig, collector *metrics.Collector, logger *zap.Logger) embedding.Provider {
	if cfg.BaseURL == "" {
		logger.Info("embedding provider not configured, using mock")
		return embedding.NewMock(cfg.Dimensions)
	}
	return embedding.NewHTTPProvider(embedding.HTTPConfig{
		BaseURL:           cfg.BaseURL,
		APIKey:            cfg.APIKey,
		Dimensions:        cfg.Dimensions,
		Timeout:           cfg.Timeout,
		RetryBackoff:      cfg.RetryBackoff,
		RequestsPerSecond: cfg.RequestsPerSecond,
	}, logger).WithMetrics(collector)
}

func buildRerankProvider(cfg config.ProviderConfig, collector *metrics.Collector, logger *zap.Logger) rerank.Provider {
	if cfg.BaseURL == "" {
		logger.Info("rerank provider not configured, using mock")
		return rerank.NewMock()
	}
	return rerank.NewHTTPProvider(rerank.HTTPConfig{
		BaseURL:           cfg.BaseURL,
		APIKey:            cfg.APIKey,
		Timeout:           cfg.Timeout,
		RetryBackoff:      cfg.RetryBackoff,
		RequestsPerSecond: cfg.RequestsPerSecond,
	}, logger).WithMetrics(collector)
}

func buildGenerator(cfg config.ProviderConfig, collector *metrics.Collector, logger *zap.Logger) generation.Provider {
	if cfg.BaseURL == "" {
		logger.Info("generation provider not configured, using mock")
		return generation.NewMock()
	}
	return generation.NewHTTPProvider(generation.HTTPConfig{
		BaseURL:           cfg.BaseURL,
		APIKey:            cfg.APIKey,
		Timeout:           cfg.Timeout,
		RetryBackoff:      cfg.RetryBackoff,
		RequestsPerSecond: cfg.RequestsPerSecond,
	}, logger).WithMetrics(collector)
}

// buildEstimator falls back to the heuristic estimator when the tiktoken
// encoding cannot be loaded, so a missing encoding file never blocks startup.
func buildEstimator(cfg config.ContextConfig, logger *zap.Logger) promptctx.Estimator {
	if cfg.Estimator == "tiktoken" {
		est, err := promptctx.NewTiktokenEstimator()
		if err == nil {
			return est
		}
		logger.Warn("tiktoken estimator unavailable, falling back to heuristic", zap.Error(err))
	}
	return promptctx.NewHeuristicEstimator()
}

// Start brings the HTTP server up without blocking.
func (s *Server) Start() error {
	return s.manager.Start()
}

// WaitForShutdown blocks until the server stops, then releases the session
// backend resources.
func (s *Server) WaitForShutdown() {
	s.manager.WaitForShutdown()

	if s.memStore != nil {
		s.memStore.Close()
	}
	if s.redisCli != nil {
		if err := s.redisCli.Close(); err != nil {
			s.logger.Warn("failed to close redis client", zap.Error(err))
		}
	}
}
