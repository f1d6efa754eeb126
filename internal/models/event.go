package models

import "time"

// TaskEventType identifies a task lifecycle event broadcast to clients
type TaskEventType string

const (
	TaskEventCreated   TaskEventType = "task_created"
	TaskEventStarted   TaskEventType = "task_started"
	TaskEventProgress  TaskEventType = "task_progress"
	TaskEventCompleted TaskEventType = "task_completed"
	TaskEventFailed    TaskEventType = "task_failed"
	TaskEventCancelled TaskEventType = "task_cancelled"
)

// TaskEvent is pushed over the websocket on every task state change
type TaskEvent struct {
	Type       TaskEventType `json:"type"`
	TaskID     string        `json:"task_id"`
	TaskType   TaskType      `json:"task_type"`
	CampaignID string        `json:"campaign_id,omitempty"`
	Status     TaskStatus    `json:"status"`
	Progress   float64       `json:"progress"`
	Error      string        `json:"error,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
}
