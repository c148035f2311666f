package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/epihelix/epihelix/promptctx"
	"github.com/epihelix/epihelix/providers/generation"
	"github.com/epihelix/epihelix/retrieval"
	"github.com/epihelix/epihelix/types"
)

// systemPrompt grounds the model in the knowledge graph. Answers must come
// from the supplied context; the model is told to admit gaps rather than
// fill them.
const systemPrompt = `You are EpiHelix AI, an assistant for a pandemic knowledge graph covering diseases, outbreaks, countries, vaccines and health organizations.

Answer ONLY from the knowledge graph context provided below. If the context does not contain the answer, say so plainly instead of guessing. When you use information from a context entry, mention the entity it came from. Be concise and factual.`

// buildChatRequest turns an assembled context and the live question into a
// provider request.
func (o *Orchestrator) buildChatRequest(pc *promptctx.PromptContext) *generation.Request {
	msgs := make([]generation.Message, 0, len(pc.History)+2)

	system := systemPrompt
	if ctxText := pc.ContextText(); ctxText != "" {
		system = fmt.Sprintf("%s\n\nKnowledge graph context:\n\n%s", systemPrompt, ctxText)
	}
	msgs = append(msgs, generation.Message{Role: string(types.RoleSystem), Content: system})

	for _, m := range pc.History {
		msgs = append(msgs, generation.Message{Role: string(m.Role), Content: m.Content})
	}
	msgs = append(msgs, generation.Message{Role: string(types.RoleUser), Content: pc.Query})

	return &generation.Request{
		Messages:    msgs,
		MaxTokens:   o.config.MaxTokens,
		Temperature: o.config.Temperature,
	}
}

// summarizeResults generates a short grounded summary over the top search
// results.
func (o *Orchestrator) summarizeResults(ctx context.Context, query string, results []retrieval.Candidate) (string, error) {
	n := len(results)
	if n > o.config.ContextEntities {
		n = o.config.ContextEntities
	}
	entities := make([]types.Entity, n)
	for i := 0; i < n; i++ {
		entities[i] = results[i].Entity
	}

	pc := o.deps.Assembler.Assemble(query, entities, nil, o.config.TokenBudget)
	o.recordContextTokens(pc.TokensUsed)

	req := &generation.Request{
		Messages: []generation.Message{
			{Role: string(types.RoleSystem), Content: fmt.Sprintf(
				"%s\n\nKnowledge graph context:\n\n%s", systemPrompt, pc.ContextText())},
			{Role: string(types.RoleUser), Content: fmt.Sprintf(
				"Summarize what the context says about: %s", strings.TrimSpace(query))},
		},
		MaxTokens:   o.config.SummaryMaxTokens,
		Temperature: o.config.Temperature,
	}

	resp, err := o.deps.Generator.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

func (o *Orchestrator) recordContextTokens(tokens int) {
	if o.deps.Metrics != nil {
		o.deps.Metrics.RecordContextTokens(tokens)
	}
}
