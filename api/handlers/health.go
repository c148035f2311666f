package handlers

import (
	"net/http"
	"time"
)

var startTime = time.Now()

// HealthHandler serves GET /health.
type HealthHandler struct {
	version string
}

// NewHealthHandler creates the health handler.
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{version: version}
}

// Handle reports liveness.
func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, map[string]interface{}{
		"status":  "ok",
		"version": h.version,
		"uptime":  time.Since(startTime).Round(time.Second).String(),
	})
}
