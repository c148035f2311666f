package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/epihelix/epihelix/rag"
)

// SummaryHandler serves POST /summary/generate.
type SummaryHandler struct {
	orch   *rag.Orchestrator
	logger *zap.Logger
}

// NewSummaryHandler creates the summary handler.
func NewSummaryHandler(orch *rag.Orchestrator, logger *zap.Logger) *SummaryHandler {
	return &SummaryHandler{orch: orch, logger: logger}
}

// Handle generates a grounded summary for one entity.
func (h *SummaryHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req rag.SummaryRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	resp, err := h.orch.Summarize(r.Context(), &req)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteSuccess(w, resp)
}
