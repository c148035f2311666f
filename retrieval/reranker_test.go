package retrieval

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/epihelix/epihelix/providers/rerank"
)

func TestRerankInvertsFusedOrder(t *testing.T) {
	t.Parallel()

	// The cross-encoder disagrees with fusion: it prefers the runner-up.
	mock := rerank.NewMock().WithScore("covid19", 0.2).WithScore("cholera", 0.9)
	r := NewReranker(mock, DefaultRerankConfig(), zap.NewNop())

	fused := []Candidate{keywordCandidate("covid19", 0.8), keywordCandidate("cholera", 0.4)}
	got, applied := r.Rerank(context.Background(), "cholera outbreak", fused, 2)
	if !applied {
		t.Fatal("expected rerank to apply")
	}
	if got[0].Entity.ID != "cholera" || got[1].Entity.ID != "covid19" {
		t.Fatalf("expected inverted order, got [%s %s]", got[0].Entity.ID, got[1].Entity.ID)
	}
	if got[0].FusedScore != 0.9 || got[1].FusedScore != 0.2 {
		t.Errorf("provider scores must replace fused scores: %v %v", got[0].FusedScore, got[1].FusedScore)
	}
}

func TestRerankProviderFailureKeepsOrder(t *testing.T) {
	t.Parallel()

	mock := rerank.NewMock()
	mock.FailWith(errors.New("status 503"))
	r := NewReranker(mock, DefaultRerankConfig(), zap.NewNop())

	fused := []Candidate{keywordCandidate("covid19", 0.8), keywordCandidate("cholera", 0.4)}
	got, applied := r.Rerank(context.Background(), "cholera outbreak", fused, 2)
	if applied {
		t.Fatal("rerank must report skipped on provider failure")
	}
	if got[0].Entity.ID != "covid19" || got[1].Entity.ID != "cholera" {
		t.Fatal("provider failure must not disturb fused order")
	}
	if got[0].FusedScore != 0.8 || got[1].FusedScore != 0.4 {
		t.Error("fused scores must survive a skipped rerank")
	}
}

func TestRerankTailBeyondTopNPassesThrough(t *testing.T) {
	t.Parallel()

	// Only the top two go to the provider; the third keeps its slot even
	// though the provider would have scored it highest.
	mock := rerank.NewMock().
		WithScore("aaa", 0.1).
		WithScore("bbb", 0.5).
		WithScore("ccc", 0.99)
	r := NewReranker(mock, DefaultRerankConfig(), zap.NewNop())

	fused := []Candidate{
		keywordCandidate("aaa", 0.9),
		keywordCandidate("bbb", 0.8),
		keywordCandidate("ccc", 0.7),
	}
	got, applied := r.Rerank(context.Background(), "q", fused, 2)
	if !applied {
		t.Fatal("expected rerank to apply")
	}
	if got[0].Entity.ID != "bbb" || got[1].Entity.ID != "aaa" || got[2].Entity.ID != "ccc" {
		t.Fatalf("got order [%s %s %s], want [bbb aaa ccc]",
			got[0].Entity.ID, got[1].Entity.ID, got[2].Entity.ID)
	}
	if got[2].FusedScore != 0.7 {
		t.Error("passthrough tail must keep its fused score")
	}
}

func TestRerankEmptyAndNilProvider(t *testing.T) {
	t.Parallel()

	r := NewReranker(rerank.NewMock(), DefaultRerankConfig(), zap.NewNop())
	if got, applied := r.Rerank(context.Background(), "q", nil, 10); applied || len(got) != 0 {
		t.Fatal("empty input must be a no-op")
	}

	noProvider := NewReranker(nil, DefaultRerankConfig(), zap.NewNop())
	fused := []Candidate{keywordCandidate("covid19", 0.8)}
	if got, applied := noProvider.Rerank(context.Background(), "q", fused, 10); applied || len(got) != 1 {
		t.Fatal("nil provider must pass candidates through unchanged")
	}
}

func TestRerankDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	mock := rerank.NewMock().WithScore("covid19", 0.1).WithScore("cholera", 0.9)
	r := NewReranker(mock, DefaultRerankConfig(), zap.NewNop())

	fused := []Candidate{keywordCandidate("covid19", 0.8), keywordCandidate("cholera", 0.4)}
	_, _ = r.Rerank(context.Background(), "q", fused, 2)
	if fused[0].Entity.ID != "covid19" || fused[0].FusedScore != 0.8 {
		t.Fatal("input slice was mutated")
	}
}
