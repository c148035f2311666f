package rag

import (
	"testing"

	"go.uber.org/zap"

	"github.com/epihelix/epihelix/kg"
	"github.com/epihelix/epihelix/promptctx"
	"github.com/epihelix/epihelix/providers/embedding"
	"github.com/epihelix/epihelix/providers/generation"
	"github.com/epihelix/epihelix/providers/rerank"
	"github.com/epihelix/epihelix/retrieval"
	"github.com/epihelix/epihelix/session"
)

// testPipeline bundles an orchestrator with the fakes behind it so tests can
// reach in and break individual providers.
type testPipeline struct {
	orch     *Orchestrator
	store    *kg.MemoryStore
	embedder *embedding.Mock
	reranker *rerank.Mock
	genMock  *generation.Mock
	sessions *session.MemoryStore
}

func newTestPipeline(t *testing.T) *testPipeline {
	t.Helper()

	logger := zap.NewNop()
	store := kg.SeededMemoryStore(logger)
	embedder := embedding.NewMock(3)
	rerankMock := rerank.NewMock()
	genMock := generation.NewMock()
	sessions := session.NewMemoryStore(session.MemoryConfig{}, logger)
	t.Cleanup(func() { sessions.Close() })

	deps := Deps{
		Store:     store,
		Keyword:   retrieval.NewKeywordRetriever(store, logger),
		Semantic:  retrieval.NewSemanticRetriever(store, embedder, logger),
		Fuser:     retrieval.NewFuser(retrieval.DefaultFusionConfig(), logger),
		Reranker:  retrieval.NewReranker(rerankMock, retrieval.DefaultRerankConfig(), logger),
		Paginator: retrieval.NewPaginator(100),
		Assembler: promptctx.NewAssembler(promptctx.NewHeuristicEstimator(), promptctx.DefaultAssemblerConfig(), logger),
		Generator: genMock,
		Sessions:  sessions,
	}

	return &testPipeline{
		orch:     NewOrchestrator(deps, DefaultConfig(), logger),
		store:    store,
		embedder: embedder,
		reranker: rerankMock,
		genMock:  genMock,
		sessions: sessions,
	}
}
