package rag

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/epihelix/epihelix/types"
)

// Chat answers one conversational turn grounded in the knowledge graph.
//
// The user message is persisted to the session whether or not generation
// succeeds, so the conversation record stays truthful. The assistant message
// is only persisted when generation produced an answer. On generation
// failure the retrieved sources are still returned with the
// GenerationFailed flag set; the turn is PartialComplete, not an error.
func (o *Orchestrator) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if req == nil || strings.TrimSpace(req.Message) == "" {
		return nil, types.NewError(types.ErrInvalidRequest, "message must not be empty")
	}

	r := o.newRun("chat")

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	resp := &ChatResponse{SessionID: sessionID, Sources: []types.EntityRef{}}

	var history []types.ChatMessage
	if req.IncludeHistory && req.SessionID != "" {
		o.recordSessionOp("get")
		s, err := o.deps.Sessions.Get(ctx, sessionID)
		switch {
		case err == nil:
			history = s.Messages
		case types.IsCode(err, types.ErrNotFound):
			// first turn on a caller-chosen id
		default:
			return nil, err
		}
	}

	r.transition(StateRetrieving)
	wantSemantic := o.config.SemanticEnabled && o.deps.Semantic != nil
	keyword, semantic, semErr, err := o.retrieve(ctx, req.Message, wantSemantic)
	if err != nil {
		if cancelErr := r.abortIfCancelled(ctx); cancelErr != nil {
			return nil, cancelErr
		}
		o.recordChatTurn("error")
		return nil, err
	}
	if semErr != nil {
		resp.SemanticDegraded = true
		o.recordDegradation("semantic_degraded")
	}
	fused := o.deps.Fuser.Fuse(keyword, semantic)

	r.transition(StateContextBuilding)
	n := len(fused)
	if n > o.config.ContextEntities {
		n = o.config.ContextEntities
	}
	entities := make([]types.Entity, n)
	for i := 0; i < n; i++ {
		entities[i] = fused[i].Entity
	}
	pc := o.deps.Assembler.Assemble(req.Message, entities, history, o.config.TokenBudget)
	o.recordContextTokens(pc.TokensUsed)
	resp.Sources = pc.Sources()

	userMsg := types.NewUserMessage(req.Message)

	r.transition(StateGenerating)
	genResp, genErr := o.deps.Generator.Generate(ctx, o.buildChatRequest(&pc))
	if cancelErr := r.abortIfCancelled(ctx); cancelErr != nil {
		return nil, cancelErr
	}

	if genErr != nil {
		// record the question even though the answer never came
		o.recordSessionOp("append")
		if err := o.deps.Sessions.Append(ctx, sessionID, userMsg); err != nil {
			o.logger.Error("failed to persist user message", zap.Error(err))
		}
		resp.GenerationFailed = true
		resp.State = StatePartialComplete
		o.recordDegradation("generation_failed")
		o.recordChatTurn("partial")
		o.logger.Warn("generation failed, returning sources only",
			zap.String("session_id", sessionID), zap.Error(genErr))
		return resp, nil
	}

	resp.Answer = genResp.Text
	assistantMsg := types.NewAssistantMessage(genResp.Text, resp.Sources)
	o.recordSessionOp("append")
	if err := o.deps.Sessions.Append(ctx, sessionID, userMsg, assistantMsg); err != nil {
		o.logger.Error("failed to persist chat turn", zap.Error(err))
	}

	r.transition(StateComplete)
	resp.State = StateComplete
	o.recordChatTurn("ok")

	o.logger.Info("chat turn done",
		zap.String("session_id", sessionID),
		zap.Int("sources", len(resp.Sources)),
		zap.Int("history", len(history)),
		zap.Bool("semantic_degraded", resp.SemanticDegraded))
	return resp, nil
}

// ClearSession deletes the conversation history. Clearing an unknown session
// is not an error.
func (o *Orchestrator) ClearSession(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return types.NewError(types.ErrInvalidRequest, "session_id must not be empty")
	}
	o.recordSessionOp("clear")
	return o.deps.Sessions.Clear(ctx, id)
}

func (o *Orchestrator) recordChatTurn(status string) {
	if o.deps.Metrics != nil {
		o.deps.Metrics.RecordChatTurn(status)
	}
}

func (o *Orchestrator) recordSessionOp(op string) {
	if o.deps.Metrics != nil {
		o.deps.Metrics.RecordSessionOp(op)
	}
}
