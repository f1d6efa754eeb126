// Package tasks implements the asynchronous task orchestrator: a bounded
// worker pool executing analysis tasks with cooperative cancellation,
// per-task deadlines and snapshot checkpointing.
package tasks

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound - the task does not exist or belongs to another user.
	// The two cases are indistinguishable so task IDs cannot be probed.
	ErrNotFound = errors.New("task not found")

	// ErrNotReady - the task has not completed yet, so no result exists
	ErrNotReady = errors.New("task result not ready")

	// ErrInvalidState - the requested transition is not allowed from the
	// task's current state (e.g. cancelling a terminal task)
	ErrInvalidState = errors.New("invalid task state for operation")

	// ErrQueueFull - the task queue is at capacity; creation is rejected
	// rather than blocking the caller
	ErrQueueFull = errors.New("task queue is full")
)

// ValidationError rejects malformed task creation requests synchronously,
// before anything is enqueued.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}
