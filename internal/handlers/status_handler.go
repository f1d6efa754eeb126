package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/linklens/internal/common"
	"github.com/ternarybob/linklens/internal/interfaces"
)

// SchedulerStatus reports whether the monitoring schedule is active
type SchedulerStatus interface {
	IsRunning() bool
}

// StatusHandler handles HTTP requests for application status
type StatusHandler struct {
	runtime   interfaces.RuntimeService
	scheduler SchedulerStatus
	ws        *WebSocketHandler
	startedAt time.Time
	logger    arbor.ILogger
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(runtime interfaces.RuntimeService, scheduler SchedulerStatus, ws *WebSocketHandler, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		runtime:   runtime,
		scheduler: scheduler,
		ws:        ws,
		startedAt: time.Now().UTC(),
		logger:    logger,
	}
}

// GetStatusHandler handles GET /api/status
func (h *StatusHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	status := map[string]interface{}{
		"status":            "ok",
		"version":           common.GetVersion(),
		"uptime_seconds":    int(time.Since(h.startedAt).Seconds()),
		"mock_mode":         h.runtime.IsMockMode(),
		"websocket_clients": h.ws.ClientCount(),
		"goroutines":        common.GetGoroutineCount(),
	}
	if h.scheduler != nil {
		status["scheduler_running"] = h.scheduler.IsRunning()
	}

	WriteJSON(w, http.StatusOK, status)
}
