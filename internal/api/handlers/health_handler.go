package handlers

import (
	"net/http"

	"github.com/isdelr/yellownote-be/internal/monitoring"
)

// StatsSource provides the latest process stats.
type StatsSource interface {
	Snapshot() monitoring.Stats
}

// HealthHandler reports liveness and cached process stats.
type HealthHandler struct {
	stats StatsSource
}

// NewHealthHandler creates a new HealthHandler. stats may be nil.
func NewHealthHandler(stats StatsSource) *HealthHandler {
	return &HealthHandler{stats: stats}
}

type healthResponse struct {
	Status string            `json:"status"`
	Stats  *monitoring.Stats `json:"stats,omitempty"`
}

// Get handles the health check.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if h.stats != nil {
		snapshot := h.stats.Snapshot()
		resp.Stats = &snapshot
	}
	writeJSON(w, http.StatusOK, resp)
}
