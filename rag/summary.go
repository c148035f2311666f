package rag

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/epihelix/epihelix/providers/generation"
	"github.com/epihelix/epihelix/types"
)

// Summarize generates a grounded summary of a single entity. Unlike search
// and chat there is nothing to degrade to here: the summary IS the result,
// so a generation failure is a real error.
func (o *Orchestrator) Summarize(ctx context.Context, req *SummaryRequest) (*SummaryResponse, error) {
	if req == nil || strings.TrimSpace(req.EntityID) == "" {
		return nil, types.NewError(types.ErrInvalidRequest, "entity_id must not be empty")
	}

	r := o.newRun("summary")

	r.transition(StateRetrieving)
	entity, err := o.deps.Store.GetByID(ctx, req.EntityID)
	if err != nil {
		return nil, err
	}

	r.transition(StateContextBuilding)
	subject := *entity
	if !req.IncludeRelations {
		subject.Relations = nil
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		query = entity.Label
	}

	pc := o.deps.Assembler.Assemble(query, []types.Entity{subject}, nil, o.config.TokenBudget)
	o.recordContextTokens(pc.TokensUsed)

	r.transition(StateGenerating)
	genReq := &generation.Request{
		Messages: []generation.Message{
			{Role: string(types.RoleSystem), Content: fmt.Sprintf(
				"%s\n\nKnowledge graph context:\n\n%s", systemPrompt, pc.ContextText())},
			{Role: string(types.RoleUser), Content: fmt.Sprintf(
				"Write a short factual summary of %s, focused on: %s", entity.Label, query)},
		},
		MaxTokens:   o.config.SummaryMaxTokens,
		Temperature: o.config.Temperature,
	}
	genResp, err := o.deps.Generator.Generate(ctx, genReq)
	if err != nil {
		if cancelErr := r.abortIfCancelled(ctx); cancelErr != nil {
			return nil, cancelErr
		}
		return nil, types.NewError(types.ErrGeneration, "summary generation failed").WithCause(err)
	}

	r.transition(StateComplete)
	o.logger.Info("entity summary done",
		zap.String("entity_id", entity.ID),
		zap.Int("context_tokens", pc.TokensUsed))

	return &SummaryResponse{
		EntityID: entity.ID,
		Summary:  genResp.Text,
		Source:   entity.Ref(),
	}, nil
}
