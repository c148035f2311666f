package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/epihelix/epihelix/kg"
	"github.com/epihelix/epihelix/types"
)

// EntityHandler serves GET /entity/{id}.
type EntityHandler struct {
	store  kg.Store
	logger *zap.Logger
}

// NewEntityHandler creates the entity lookup handler.
func NewEntityHandler(store kg.Store, logger *zap.Logger) *EntityHandler {
	return &EntityHandler{store: store, logger: logger}
}

// EntityResponse is the entity payload. The cached embedding vector is
// internal and never serialized.
type EntityResponse struct {
	ID         string           `json:"id"`
	Label      string           `json:"label"`
	Type       string           `json:"type"`
	Properties []types.Property `json:"properties,omitempty"`
	Relations  []types.Relation `json:"relations,omitempty"`
}

// Handle serves one entity lookup. The include_related parameter (default
// true) controls whether graph edges are returned.
func (h *EntityHandler) Handle(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "missing entity id"), h.logger)
		return
	}

	entity, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	resp := &EntityResponse{
		ID:         entity.ID,
		Label:      entity.Label,
		Type:       string(entity.Type),
		Properties: entity.Properties,
	}
	if queryBool(r.URL.Query().Get("include_related"), true) {
		resp.Relations = entity.Relations
	}

	WriteSuccess(w, resp)
}
