package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/epihelix/epihelix/kg"
	"github.com/epihelix/epihelix/promptctx"
	"github.com/epihelix/epihelix/providers/embedding"
	"github.com/epihelix/epihelix/providers/generation"
	"github.com/epihelix/epihelix/providers/rerank"
	"github.com/epihelix/epihelix/rag"
	"github.com/epihelix/epihelix/retrieval"
	"github.com/epihelix/epihelix/session"
)

type testServer struct {
	orch     *rag.Orchestrator
	store    *kg.MemoryStore
	embedder *embedding.Mock
	genMock  *generation.Mock
	sessions *session.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := zap.NewNop()
	store := kg.SeededMemoryStore(logger)
	embedder := embedding.NewMock(3)
	genMock := generation.NewMock()
	sessions := session.NewMemoryStore(session.MemoryConfig{}, logger)
	t.Cleanup(func() { sessions.Close() })

	deps := rag.Deps{
		Store:     store,
		Keyword:   retrieval.NewKeywordRetriever(store, logger),
		Semantic:  retrieval.NewSemanticRetriever(store, embedder, logger),
		Fuser:     retrieval.NewFuser(retrieval.DefaultFusionConfig(), logger),
		Reranker:  retrieval.NewReranker(rerank.NewMock(), retrieval.DefaultRerankConfig(), logger),
		Paginator: retrieval.NewPaginator(100),
		Assembler: promptctx.NewAssembler(promptctx.NewHeuristicEstimator(), promptctx.DefaultAssemblerConfig(), logger),
		Generator: genMock,
		Sessions:  sessions,
	}

	return &testServer{
		orch:     rag.NewOrchestrator(deps, rag.DefaultConfig(), logger),
		store:    store,
		embedder: embedder,
		genMock:  genMock,
		sessions: sessions,
	}
}

// decodeEnvelope unmarshals the response envelope and its data payload.
func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) Response {
	t.Helper()

	var envelope Response
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid envelope: %v\n%s", err, rec.Body.String())
	}
	if data != nil && envelope.Data != nil {
		raw, err := json.Marshal(envelope.Data)
		if err != nil {
			t.Fatalf("re-marshal data: %v", err)
		}
		if err := json.Unmarshal(raw, data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
	return envelope
}
