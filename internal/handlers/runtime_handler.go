package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/linklens/internal/interfaces"
)

// RuntimeHandler handles HTTP requests for the process-wide runtime
// configuration: the mock/live provider toggle and last provider errors.
type RuntimeHandler struct {
	runtime interfaces.RuntimeService
	logger  arbor.ILogger
}

// NewRuntimeHandler creates a new RuntimeHandler
func NewRuntimeHandler(runtimeService interfaces.RuntimeService, logger arbor.ILogger) *RuntimeHandler {
	return &RuntimeHandler{
		runtime: runtimeService,
		logger:  logger,
	}
}

// runtimeUpdateRequest is the PUT /api/runtime payload
type runtimeUpdateRequest struct {
	MockMode *bool `json:"mock_mode,omitempty"`
	// ClearProviderErrors wipes the recorded last error per provider
	ClearProviderErrors bool `json:"clear_provider_errors,omitempty"`
}

// RuntimeHandler routes GET and PUT on /api/runtime
func (h *RuntimeHandler) RuntimeHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		h.getRuntime(w, r)
	case "PUT":
		h.updateRuntime(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *RuntimeHandler) getRuntime(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.runtime.Snapshot())
}

func (h *RuntimeHandler) updateRuntime(w http.ResponseWriter, r *http.Request) {
	var req runtimeUpdateRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.MockMode != nil {
		h.runtime.SetMockMode(*req.MockMode)
	}
	if req.ClearProviderErrors {
		h.runtime.ClearProviderErrors()
	}

	WriteJSON(w, http.StatusOK, h.runtime.Snapshot())
}
