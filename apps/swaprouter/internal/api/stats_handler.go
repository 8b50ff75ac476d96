package api

import (
	"net/http"

	"go.uber.org/zap"
	"swaprouter/apps/swaprouter/internal/queue"
)

// StatsSource exposes a read-only snapshot of queue activity.
type StatsSource interface {
	Stats() queue.Stats
}

// StatsHandler handles queue statistics endpoints
type StatsHandler struct {
	source StatsSource
	logger *zap.Logger
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(source StatsSource, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{source: source, logger: logger}
}

// GetQueueStats handles GET /api/queue/stats
func (h *StatsHandler) GetQueueStats(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, h.logger, http.StatusOK, h.source.Stats())
}
