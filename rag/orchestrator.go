package rag

import (
	"context"

	"go.uber.org/zap"

	"github.com/epihelix/epihelix/internal/metrics"
	"github.com/epihelix/epihelix/kg"
	"github.com/epihelix/epihelix/promptctx"
	"github.com/epihelix/epihelix/providers/generation"
	"github.com/epihelix/epihelix/retrieval"
	"github.com/epihelix/epihelix/session"
)

// Config bounds one orchestrator.
type Config struct {
	// CandidateLimit is how many candidates each retriever contributes
	// before fusion.
	CandidateLimit int `json:"candidate_limit" yaml:"candidate_limit"`

	// SemanticEnabled gates the semantic leg for the whole deployment.
	SemanticEnabled bool `json:"semantic_enabled" yaml:"semantic_enabled"`

	// RerankEnabled gates reranking for the whole deployment.
	RerankEnabled bool `json:"rerank_enabled" yaml:"rerank_enabled"`

	DefaultPageSize int `json:"default_page_size" yaml:"default_page_size"`

	// ContextEntities is how many top candidates feed the prompt context.
	ContextEntities int `json:"context_entities" yaml:"context_entities"`

	// TokenBudget bounds the assembled prompt context.
	TokenBudget int `json:"token_budget" yaml:"token_budget"`

	// MaxTokens and Temperature are passed through to generation.
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// SummaryMaxTokens bounds search and entity summaries.
	SummaryMaxTokens int `json:"summary_max_tokens" yaml:"summary_max_tokens"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		CandidateLimit:   50,
		SemanticEnabled:  true,
		RerankEnabled:    true,
		DefaultPageSize:  10,
		ContextEntities:  5,
		TokenBudget:      3000,
		MaxTokens:        1024,
		Temperature:      0.3,
		SummaryMaxTokens: 256,
	}
}

// Deps are the orchestrator's collaborators, all constructed by the caller.
type Deps struct {
	Store     kg.Store
	Keyword   *retrieval.KeywordRetriever
	Semantic  *retrieval.SemanticRetriever
	Fuser     *retrieval.Fuser
	Reranker  *retrieval.Reranker
	Paginator *retrieval.Paginator
	Assembler *promptctx.Assembler
	Generator generation.Provider
	Sessions  session.Store

	// Metrics may be nil; recording is then skipped.
	Metrics *metrics.Collector
}

// Orchestrator drives the full pipeline. It is stateless between calls and
// safe for concurrent use; per-run state lives on the stack of each call.
type Orchestrator struct {
	deps   Deps
	config Config
	logger *zap.Logger
}

// NewOrchestrator wires the pipeline.
func NewOrchestrator(deps Deps, config Config, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultConfig()
	if config.CandidateLimit <= 0 {
		config.CandidateLimit = def.CandidateLimit
	}
	if config.DefaultPageSize <= 0 {
		config.DefaultPageSize = def.DefaultPageSize
	}
	if config.ContextEntities <= 0 {
		config.ContextEntities = def.ContextEntities
	}
	if config.TokenBudget <= 0 {
		config.TokenBudget = def.TokenBudget
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = def.MaxTokens
	}
	if config.SummaryMaxTokens <= 0 {
		config.SummaryMaxTokens = def.SummaryMaxTokens
	}
	return &Orchestrator{
		deps:   deps,
		config: config,
		logger: logger.With(zap.String("component", "orchestrator")),
	}
}

// run tracks one pipeline execution through its states.
type run struct {
	op     string
	state  State
	logger *zap.Logger
}

func (o *Orchestrator) newRun(op string) *run {
	return &run{op: op, state: StateIdle, logger: o.logger}
}

func (r *run) transition(to State) {
	r.logger.Debug("state transition",
		zap.String("op", r.op),
		zap.String("from", string(r.state)),
		zap.String("to", string(to)))
	r.state = to
}

// abortIfCancelled moves the run to Aborted when the caller gave up.
func (r *run) abortIfCancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		r.state = StateAborted
		return err
	}
	return nil
}

func (o *Orchestrator) recordDegradation(kind string) {
	if o.deps.Metrics != nil {
		o.deps.Metrics.RecordDegradation(kind)
	}
}
