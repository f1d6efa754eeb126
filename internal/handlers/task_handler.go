package handlers

import (
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/linklens/internal/interfaces"
	"github.com/ternarybob/linklens/internal/models"
	"github.com/ternarybob/linklens/internal/tasks"
)

// TaskHandler handles HTTP requests for the task orchestrator
type TaskHandler struct {
	tasks  interfaces.TaskService
	logger arbor.ILogger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskService interfaces.TaskService, logger arbor.ILogger) *TaskHandler {
	return &TaskHandler{
		tasks:  taskService,
		logger: logger,
	}
}

// createTaskRequest is the POST /api/tasks payload
type createTaskRequest struct {
	Type       string                 `json:"type"`
	CampaignID string                 `json:"campaign_id,omitempty"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// CreateTaskHandler handles POST /api/tasks
func (h *TaskHandler) CreateTaskHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}
	userEmail, ok := RequireUser(w, r)
	if !ok {
		return
	}

	var req createTaskRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	taskID, err := h.tasks.CreateTask(r.Context(), models.TaskType(req.Type), req.CampaignID, userEmail, req.Parameters)
	if err != nil {
		h.writeTaskError(w, err)
		return
	}

	h.logger.Info().
		Str("task_id", taskID).
		Str("task_type", req.Type).
		Msg("Task created via API")

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"task_id": taskID,
		"status":  string(models.TaskStatusPending),
	})
}

// ListTasksHandler handles GET /api/tasks with an optional ?status= filter
func (h *TaskHandler) ListTasksHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	userEmail, ok := RequireUser(w, r)
	if !ok {
		return
	}

	statusFilter := models.TaskStatus(r.URL.Query().Get("status"))
	snapshots := h.tasks.ListTasks(userEmail, statusFilter)

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"tasks": snapshots,
		"count": len(snapshots),
	})
}

// GetTaskHandler handles GET /api/tasks/{id}
func (h *TaskHandler) GetTaskHandler(w http.ResponseWriter, r *http.Request, taskID string) {
	userEmail, ok := RequireUser(w, r)
	if !ok {
		return
	}

	snapshot, err := h.tasks.GetTaskStatus(taskID, userEmail)
	if err != nil {
		h.writeTaskError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, snapshot)
}

// GetTaskResultHandler handles GET /api/tasks/{id}/result
func (h *TaskHandler) GetTaskResultHandler(w http.ResponseWriter, r *http.Request, taskID string) {
	userEmail, ok := RequireUser(w, r)
	if !ok {
		return
	}

	result, err := h.tasks.GetTaskResult(taskID, userEmail)
	if err != nil {
		h.writeTaskError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"task_id": taskID,
		"result":  result,
	})
}

// CancelTaskHandler handles POST /api/tasks/{id}/cancel
func (h *TaskHandler) CancelTaskHandler(w http.ResponseWriter, r *http.Request, taskID string) {
	userEmail, ok := RequireUser(w, r)
	if !ok {
		return
	}

	if err := h.tasks.CancelTask(taskID, userEmail); err != nil {
		h.writeTaskError(w, err)
		return
	}

	h.logger.Info().
		Str("task_id", taskID).
		Msg("Task cancellation requested via API")

	WriteSuccess(w, "Cancellation requested")
}

// writeTaskError maps orchestrator errors onto HTTP status codes
func (h *TaskHandler) writeTaskError(w http.ResponseWriter, err error) {
	var validationErr *tasks.ValidationError
	switch {
	case errors.As(err, &validationErr):
		WriteError(w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, tasks.ErrNotFound):
		WriteError(w, http.StatusNotFound, "Task not found")
	case errors.Is(err, tasks.ErrNotReady):
		WriteError(w, http.StatusConflict, "Task has not completed")
	case errors.Is(err, tasks.ErrInvalidState):
		WriteError(w, http.StatusConflict, "Task is already in a terminal state")
	case errors.Is(err, tasks.ErrQueueFull):
		WriteError(w, http.StatusServiceUnavailable, "Task queue is full, retry later")
	default:
		h.logger.Error().Err(err).Msg("Task operation failed")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}
