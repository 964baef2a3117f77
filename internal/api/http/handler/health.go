package handler

import (
	"context"
	"net/http"

	"github.com/dtroode/filedepot-server/internal/logger"
)

// Pinger reports database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health handles the unauthenticated health endpoint.
type Health struct {
	pinger Pinger
	logger *logger.Logger
}

// NewHealth creates a new Health handler.
func NewHealth(pinger Pinger, logger *logger.Logger) *Health {
	return &Health{pinger: pinger, logger: logger}
}

// Check handles GET /api/health.
func (h *Health) Check(w http.ResponseWriter, r *http.Request) {
	if err := h.pinger.Ping(r.Context()); err != nil {
		h.logger.Error("Health handler: database unreachable", "error", err.Error())
		WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded"})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
