package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/epihelix/epihelix/types"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *HTTPProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultHTTPConfig()
	cfg.BaseURL = srv.URL
	cfg.Dimensions = 3
	cfg.RetryBackoff = 1 // keep retries fast in tests
	return NewHTTPProvider(cfg, zap.NewNop())
}

func TestHTTPProviderEmbedBatch(t *testing.T) {
	t.Parallel()

	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		out := embedResponse{Embeddings: make([][]float64, len(req.Texts))}
		for i := range req.Texts {
			out.Embeddings[i] = []float64{1, 0, 0}
		}
		json.NewEncoder(w).Encode(out)
	})

	vecs, err := p.EmbedBatch(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(vecs) != 2 || len(vecs[0]) != 3 {
		t.Fatalf("unexpected shape: %d x %d", len(vecs), len(vecs[0]))
	}
}

func TestHTTPProviderRetriesOnceOn5xx(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float64{{0, 1, 0}}})
	})

	vec, err := p.EmbedQuery(context.Background(), "q")
	if err != nil {
		t.Fatalf("EmbedQuery after retry: %v", err)
	}
	if vec[1] != 1 {
		t.Errorf("unexpected vector %v", vec)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("expected 2 calls, got %d", got)
	}
}

func TestHTTPProviderNoRetryOn4xx(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	})

	_, err := p.EmbedQuery(context.Background(), "q")
	if err == nil {
		t.Fatal("expected error")
	}
	if types.IsRetryable(err) {
		t.Error("4xx must not be retryable")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected exactly 1 call, got %d", got)
	}
}

func TestHTTPProviderGivesUpAfterOneRetry(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	if _, err := p.EmbedQuery(context.Background(), "q"); err == nil {
		t.Fatal("expected error after exhausting the retry")
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("expected exactly 2 calls, got %d", got)
	}
}

func TestHTTPProviderDimensionMismatch(t *testing.T) {
	t.Parallel()

	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float64{{1, 2}}})
	})

	if _, err := p.EmbedQuery(context.Background(), "q"); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

type recordedCall struct {
	provider, operation, status string
}

type fakeMetrics struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (f *fakeMetrics) RecordProviderRequest(provider, operation, status string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{provider, operation, status})
}

func TestHTTPProviderRecordsMetrics(t *testing.T) {
	t.Parallel()

	sink := &fakeMetrics{}

	ok := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float64{{1, 0, 0}}})
	}).WithMetrics(sink)
	if _, err := ok.EmbedQuery(context.Background(), "q"); err != nil {
		t.Fatalf("EmbedQuery: %v", err)
	}

	failing := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}).WithMetrics(sink)
	if _, err := failing.EmbedQuery(context.Background(), "q"); err == nil {
		t.Fatal("expected error")
	}

	want := []recordedCall{
		{"http-embedder", "embed", "ok"},
		{"http-embedder", "embed", "error"},
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.calls) != len(want) {
		t.Fatalf("recorded %d calls, want %d: %+v", len(sink.calls), len(want), sink.calls)
	}
	for i, w := range want {
		if sink.calls[i] != w {
			t.Errorf("call %d = %+v, want %+v", i, sink.calls[i], w)
		}
	}
}
