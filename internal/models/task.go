// -----------------------------------------------------------------------
// Analysis Task - Immutable task structure plus runtime state
// -----------------------------------------------------------------------

package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// TaskType identifies the kind of work a task performs
type TaskType string

const (
	TaskTypeCampaignAnalysis    TaskType = "campaign_analysis"
	TaskTypeContentVerification TaskType = "content_verification"
	TaskTypeScheduledMonitoring TaskType = "scheduled_monitoring"
	TaskTypeBatchUpdate         TaskType = "batch_update"
)

// ValidTaskType reports whether the given string names a known task type
func ValidTaskType(t string) bool {
	switch TaskType(t) {
	case TaskTypeCampaignAnalysis, TaskTypeContentVerification,
		TaskTypeScheduledMonitoring, TaskTypeBatchUpdate:
		return true
	}
	return false
}

// TaskStatus represents the lifecycle state of a task
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusCancelled TaskStatus = "cancelled"
)

// AnalysisTask represents the immutable task submitted to the orchestrator.
// Once created and enqueued, this struct should not be modified; runtime
// progress lives in TaskState.
//
// Task Lifecycle:
//  1. AnalysisTask (this struct) - Immutable snapshot at creation time
//  2. TaskState - Runtime state during execution (Status, Progress, Result)
//  3. TaskSnapshot - Combined view persisted on every state transition
type AnalysisTask struct {
	// Core identification
	ID         string `json:"id"`                    // Unique task ID (task_<uuid>)
	CampaignID string `json:"campaign_id,omitempty"` // Optional campaign reference
	UserEmail  string `json:"user_email"`            // Owner; ownership filtering is exact match

	// Task classification
	Type TaskType `json:"type"`

	// Parameters (immutable snapshot at creation time)
	Parameters map[string]interface{} `json:"parameters"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`

	// EstimatedDurationMinutes bounds execution; zero means the configured default
	EstimatedDurationMinutes int `json:"estimated_duration_minutes,omitempty"`
}

// NewAnalysisTask creates a new task in its initial immutable form
func NewAnalysisTask(id string, taskType TaskType, campaignID, userEmail string, params map[string]interface{}) *AnalysisTask {
	if params == nil {
		params = make(map[string]interface{})
	}
	return &AnalysisTask{
		ID:         id,
		CampaignID: campaignID,
		UserEmail:  userEmail,
		Type:       taskType,
		Parameters: params,
		CreatedAt:  time.Now().UTC(),
	}
}

// Validate checks that the task carries the fields execution requires
func (t *AnalysisTask) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("task ID is required")
	}
	if t.UserEmail == "" {
		return fmt.Errorf("task user email is required")
	}
	if !ValidTaskType(string(t.Type)) {
		return fmt.Errorf("unknown task type: %s", t.Type)
	}
	return nil
}

// GetParamString retrieves a string parameter with a fallback default
func (t *AnalysisTask) GetParamString(key, defaultValue string) string {
	if v, ok := t.Parameters[key].(string); ok {
		return v
	}
	return defaultValue
}

// GetParamInt retrieves an integer parameter with a fallback default.
// JSON round-trips store numbers as float64, so both forms are accepted.
func (t *AnalysisTask) GetParamInt(key string, defaultValue int) int {
	switch v := t.Parameters[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return defaultValue
}

// GetParamBool retrieves a boolean parameter with a fallback default
func (t *AnalysisTask) GetParamBool(key string, defaultValue bool) bool {
	if v, ok := t.Parameters[key].(bool); ok {
		return v
	}
	return defaultValue
}

// ToJSON serializes the task for storage
func (t *AnalysisTask) ToJSON() (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// TaskState holds the mutable runtime state of a task. Mutated only by the
// worker executing the task or by a cancellation request; the orchestrator
// serializes access.
type TaskState struct {
	Status      TaskStatus             `json:"status"`
	Progress    float64                `json:"progress"` // 0-100, monotonic while running
	StartedAt   *time.Time             `json:"started_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	// ErrorMessage contains a concise, non-sensitive description of why the
	// task failed. Raw provider bodies and credentials are never included.
	ErrorMessage string                 `json:"error_message,omitempty"`
	Result       map[string]interface{} `json:"result,omitempty"` // Present only when completed
}

// NewTaskState creates the initial pending state
func NewTaskState() *TaskState {
	return &TaskState{
		Status:   TaskStatusPending,
		Progress: 0,
	}
}

// MarkStarted transitions pending -> running
func (s *TaskState) MarkStarted() {
	now := time.Now().UTC()
	s.Status = TaskStatusRunning
	s.StartedAt = &now
}

// MarkCompleted transitions running -> completed and attaches the result
func (s *TaskState) MarkCompleted(result map[string]interface{}) {
	now := time.Now().UTC()
	s.Status = TaskStatusCompleted
	s.CompletedAt = &now
	s.Progress = 100
	s.Result = result
}

// MarkFailed transitions running -> failed with a short error message
func (s *TaskState) MarkFailed(errorMsg string) {
	now := time.Now().UTC()
	s.Status = TaskStatusFailed
	s.CompletedAt = &now
	s.ErrorMessage = errorMsg
}

// MarkCancelled transitions pending|running -> cancelled
func (s *TaskState) MarkCancelled() {
	now := time.Now().UTC()
	s.Status = TaskStatusCancelled
	s.CompletedAt = &now
}

// SetProgress updates progress, never moving backwards while running.
// Progress is frozen once the state is terminal.
func (s *TaskState) SetProgress(progress float64) {
	if s.IsTerminal() {
		return
	}
	if progress < s.Progress {
		return
	}
	if progress > 100 {
		progress = 100
	}
	s.Progress = progress
}

// IsTerminal returns true when no further transitions are possible
func (s *TaskState) IsTerminal() bool {
	return s.Status == TaskStatusCompleted ||
		s.Status == TaskStatusFailed ||
		s.Status == TaskStatusCancelled
}

// Clone returns a deep copy of the state so readers never share maps with
// the executing worker
func (s *TaskState) Clone() *TaskState {
	clone := *s
	if s.Result != nil {
		clone.Result = make(map[string]interface{}, len(s.Result))
		for k, v := range s.Result {
			clone.Result[k] = v
		}
	}
	return &clone
}

// TaskSnapshot is the combined task + state view returned to callers and
// checkpointed to storage on every transition.
type TaskSnapshot struct {
	Task  AnalysisTask `json:"task"`
	State TaskState    `json:"state"`
}

// SnapshotID keys snapshots in storage by the task ID
func (s *TaskSnapshot) SnapshotID() string {
	return s.Task.ID
}
