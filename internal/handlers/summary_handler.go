package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/linklens/internal/services/summary"
)

// SummaryHandler handles HTTP requests for cross-campaign coverage rollups
type SummaryHandler struct {
	summary *summary.Service
	logger  arbor.ILogger
}

// NewSummaryHandler creates a new SummaryHandler
func NewSummaryHandler(summaryService *summary.Service, logger arbor.ILogger) *SummaryHandler {
	return &SummaryHandler{
		summary: summaryService,
		logger:  logger,
	}
}

// GetAggregateSummaryHandler handles GET /api/summary
func (h *SummaryHandler) GetAggregateSummaryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	userEmail, ok := RequireUser(w, r)
	if !ok {
		return
	}

	aggregate, err := h.summary.SummarizeAll(r.Context(), userEmail)
	if err != nil {
		h.logger.Error().Err(err).Msg("Aggregate summary failed")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	WriteJSON(w, http.StatusOK, aggregate)
}
