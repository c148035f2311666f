package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/epihelix/epihelix/retrieval"
	"github.com/epihelix/epihelix/types"
)

// Search runs the full retrieval pipeline: keyword and semantic legs in
// parallel, fusion, optional rerank, pagination, optional summary.
//
// The semantic leg never fails the request. Its error is absorbed into the
// SemanticDegraded flag and the keyword results stand alone. The keyword leg
// is fatal: without it there is no lexical recall to fall back on.
func (o *Orchestrator) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	if req == nil || strings.TrimSpace(req.Query) == "" {
		return nil, types.NewError(types.ErrInvalidRequest, "query must not be empty")
	}
	// Zero means "use the default"; anything else out of range is a client
	// error, not something to silently clamp.
	if req.Page < 0 {
		return nil, types.NewError(types.ErrInvalidRequest, "page must be 1 or greater")
	}
	if req.PageSize < 0 {
		return nil, types.NewError(types.ErrInvalidRequest, "page_size must be 1 or greater")
	}
	if max := o.deps.Paginator.MaxPageSize(); req.PageSize > max {
		return nil, types.NewError(types.ErrInvalidRequest,
			fmt.Sprintf("page_size must not exceed %d", max))
	}

	start := time.Now()
	r := o.newRun("search")

	wantSemantic := req.Semantic && o.config.SemanticEnabled && o.deps.Semantic != nil
	resp := &SearchResponse{}

	r.transition(StateRetrieving)
	keyword, semantic, semErr, err := o.retrieve(ctx, req.Query, wantSemantic)
	if err != nil {
		if cancelErr := r.abortIfCancelled(ctx); cancelErr != nil {
			return nil, cancelErr
		}
		o.recordSearch(wantSemantic, "error", start, 0)
		return nil, err
	}
	if semErr != nil {
		resp.SemanticDegraded = true
		o.recordDegradation("semantic_degraded")
		o.logger.Warn("semantic retrieval degraded, serving keyword-only results",
			zap.String("query", req.Query), zap.Error(semErr))
	}

	fused := o.deps.Fuser.Fuse(keyword, semantic)

	if req.Rerank && o.config.RerankEnabled && o.deps.Reranker != nil && len(fused) > 0 {
		r.transition(StateReranking)
		reranked, applied := o.deps.Reranker.Rerank(ctx, req.Query, fused, 0)
		if applied {
			fused = reranked
		} else {
			resp.RerankSkipped = true
			o.recordDegradation("rerank_skipped")
		}
	}

	if err := r.abortIfCancelled(ctx); err != nil {
		return nil, err
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = o.config.DefaultPageSize
	}
	resp.Page = o.deps.Paginator.Paginate(fused, req.Page, pageSize)

	if req.Summarize && len(resp.Page.Results) > 0 && o.deps.Generator != nil {
		r.transition(StateGenerating)
		summary, err := o.summarizeResults(ctx, req.Query, resp.Page.Results)
		if err != nil {
			resp.GenerationFailed = true
			o.recordDegradation("generation_failed")
			o.logger.Warn("search summary generation failed", zap.Error(err))
		} else {
			resp.Summary = summary
		}
	}

	r.transition(StateComplete)
	resp.State = StateComplete

	status := "ok"
	if resp.SemanticDegraded || resp.RerankSkipped || resp.GenerationFailed {
		status = "degraded"
	}
	o.recordSearch(wantSemantic, status, start, len(fused))

	o.logger.Info("search done",
		zap.String("query", req.Query),
		zap.Int("fused", len(fused)),
		zap.Int("returned", len(resp.Page.Results)),
		zap.Bool("semantic_degraded", resp.SemanticDegraded),
		zap.Bool("rerank_skipped", resp.RerankSkipped),
		zap.Duration("took", time.Since(start)))
	return resp, nil
}

// retrieve runs both retrieval legs concurrently. The semantic error comes
// back separately so the caller can degrade instead of failing; returning it
// from the errgroup would cancel the keyword leg mid-flight.
func (o *Orchestrator) retrieve(ctx context.Context, query string, wantSemantic bool) (keyword, semantic []retrieval.Candidate, semErr, err error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var kwErr error
		keyword, kwErr = o.deps.Keyword.Search(gctx, query, o.config.CandidateLimit)
		return kwErr
	})

	if wantSemantic {
		g.Go(func() error {
			var sErr error
			semantic, sErr = o.deps.Semantic.Search(gctx, query, o.config.CandidateLimit)
			if sErr != nil {
				semErr = sErr
				semantic = nil
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// the keyword leg failed; semantic-only results are still better
		// than nothing
		if len(semantic) > 0 && semErr == nil {
			o.logger.Warn("keyword retrieval failed, serving semantic-only results", zap.Error(err))
			return nil, semantic, nil, nil
		}
		return nil, nil, nil, err
	}
	return keyword, semantic, semErr, nil
}

func (o *Orchestrator) recordSearch(semantic bool, status string, start time.Time, fused int) {
	if o.deps.Metrics == nil {
		return
	}
	mode := "keyword"
	if semantic {
		mode = "hybrid"
	}
	o.deps.Metrics.RecordSearch(mode, status, time.Since(start), fused)
}
