package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/linklens/internal/models"
	"github.com/ternarybob/linklens/internal/tasks"
)

type stubTaskService struct {
	createErr error
	statusErr error
	resultErr error
	cancelErr error
	snapshot  *models.TaskSnapshot
	result    map[string]interface{}
	listed    []*models.TaskSnapshot

	lastUserEmail string
	lastTaskType  models.TaskType
}

func (s *stubTaskService) CreateTask(ctx context.Context, taskType models.TaskType, campaignID, userEmail string, params map[string]interface{}) (string, error) {
	s.lastUserEmail = userEmail
	s.lastTaskType = taskType
	if s.createErr != nil {
		return "", s.createErr
	}
	return "task_123", nil
}

func (s *stubTaskService) GetTaskStatus(taskID, userEmail string) (*models.TaskSnapshot, error) {
	if s.statusErr != nil {
		return nil, s.statusErr
	}
	return s.snapshot, nil
}

func (s *stubTaskService) GetTaskResult(taskID, userEmail string) (map[string]interface{}, error) {
	if s.resultErr != nil {
		return nil, s.resultErr
	}
	return s.result, nil
}

func (s *stubTaskService) ListTasks(userEmail string, statusFilter models.TaskStatus) []*models.TaskSnapshot {
	s.lastUserEmail = userEmail
	return s.listed
}

func (s *stubTaskService) CancelTask(taskID, userEmail string) error {
	return s.cancelErr
}

func newTaskHandler(stub *stubTaskService) *TaskHandler {
	return NewTaskHandler(stub, arbor.NewLogger())
}

func authedRequest(method, target string, body string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set("X-User-Email", "user@example.com")
	return req
}

func TestCreateTaskHandler(t *testing.T) {
	stub := &stubTaskService{}
	h := newTaskHandler(stub)

	rec := httptest.NewRecorder()
	req := authedRequest("POST", "/api/tasks", `{"type": "campaign_analysis", "campaign_id": "camp_1"}`)
	h.CreateTaskHandler(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "task_123", resp["task_id"])
	assert.Equal(t, "pending", resp["status"])
	assert.Equal(t, "user@example.com", stub.lastUserEmail)
	assert.Equal(t, models.TaskTypeCampaignAnalysis, stub.lastTaskType)
}

func TestCreateTaskHandler_RequiresIdentity(t *testing.T) {
	h := newTaskHandler(&stubTaskService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/tasks", strings.NewReader(`{"type": "campaign_analysis"}`))
	h.CreateTaskHandler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateTaskHandler_RejectsUnknownFields(t *testing.T) {
	h := newTaskHandler(&stubTaskService{})

	rec := httptest.NewRecorder()
	req := authedRequest("POST", "/api/tasks", `{"type": "campaign_analysis", "bogus": 1}`)
	h.CreateTaskHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTaskHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation error", &tasks.ValidationError{Field: "type", Message: "unknown"}, http.StatusBadRequest},
		{"queue full", tasks.ErrQueueFull, http.StatusServiceUnavailable},
		{"internal error", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTaskHandler(&stubTaskService{createErr: tt.err})

			rec := httptest.NewRecorder()
			req := authedRequest("POST", "/api/tasks", `{"type": "campaign_analysis"}`)
			h.CreateTaskHandler(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestListTasksHandler(t *testing.T) {
	stub := &stubTaskService{
		listed: []*models.TaskSnapshot{
			{Task: models.AnalysisTask{ID: "task_1"}},
			{Task: models.AnalysisTask{ID: "task_2"}},
		},
	}
	h := newTaskHandler(stub)

	rec := httptest.NewRecorder()
	req := authedRequest("GET", "/api/tasks?status=running", "")
	h.ListTasksHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(2), resp["count"])
}

func TestGetTaskHandler_NotFound(t *testing.T) {
	h := newTaskHandler(&stubTaskService{statusErr: tasks.ErrNotFound})

	rec := httptest.NewRecorder()
	req := authedRequest("GET", "/api/tasks/task_x", "")
	h.GetTaskHandler(rec, req, "task_x")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetTaskHandler(t *testing.T) {
	snapshot := &models.TaskSnapshot{
		Task:  models.AnalysisTask{ID: "task_1", Type: models.TaskTypeCampaignAnalysis},
		State: models.TaskState{Status: models.TaskStatusRunning, Progress: 40},
	}
	h := newTaskHandler(&stubTaskService{snapshot: snapshot})

	rec := httptest.NewRecorder()
	req := authedRequest("GET", "/api/tasks/task_1", "")
	h.GetTaskHandler(rec, req, "task_1")

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp models.TaskSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "task_1", resp.Task.ID)
	assert.Equal(t, models.TaskStatusRunning, resp.State.Status)
}

func TestGetTaskResultHandler_NotReady(t *testing.T) {
	h := newTaskHandler(&stubTaskService{resultErr: tasks.ErrNotReady})

	rec := httptest.NewRecorder()
	req := authedRequest("GET", "/api/tasks/task_1/result", "")
	h.GetTaskResultHandler(rec, req, "task_1")

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetTaskResultHandler(t *testing.T) {
	h := newTaskHandler(&stubTaskService{result: map[string]interface{}{"records": 12}})

	rec := httptest.NewRecorder()
	req := authedRequest("GET", "/api/tasks/task_1/result", "")
	h.GetTaskResultHandler(rec, req, "task_1")

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "task_1", resp["task_id"])
}

func TestCancelTaskHandler(t *testing.T) {
	h := newTaskHandler(&stubTaskService{})

	rec := httptest.NewRecorder()
	req := authedRequest("POST", "/api/tasks/task_1/cancel", "")
	h.CancelTaskHandler(rec, req, "task_1")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCancelTaskHandler_TerminalTask(t *testing.T) {
	h := newTaskHandler(&stubTaskService{cancelErr: tasks.ErrInvalidState})

	rec := httptest.NewRecorder()
	req := authedRequest("POST", "/api/tasks/task_1/cancel", "")
	h.CancelTaskHandler(rec, req, "task_1")

	assert.Equal(t, http.StatusConflict, rec.Code)
}
