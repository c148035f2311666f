package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/epihelix/epihelix/rag"
	"github.com/epihelix/epihelix/types"
)

// ChatHandler serves POST /chat and DELETE /chat.
type ChatHandler struct {
	orch   *rag.Orchestrator
	logger *zap.Logger
}

// NewChatHandler creates the chat handler.
func NewChatHandler(orch *rag.Orchestrator, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{orch: orch, logger: logger}
}

// HandleTurn serves one conversational turn.
func (h *ChatHandler) HandleTurn(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req rag.ChatRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	resp, err := h.orch.Chat(r.Context(), &req)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteSuccess(w, resp)
}

// HandleClear deletes a session's history. The session id comes from the
// session_id query parameter.
func (h *ChatHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session_id")
	if id == "" {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "missing query parameter: session_id"), h.logger)
		return
	}

	if err := h.orch.ClearSession(r.Context(), id); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteSuccess(w, map[string]string{"session_id": id, "status": "cleared"})
}
