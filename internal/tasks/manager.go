package tasks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/linklens/internal/common"
	"github.com/ternarybob/linklens/internal/interfaces"
	"github.com/ternarybob/linklens/internal/models"
)

// taskEntry pairs the immutable task with its runtime state and the cancel
// function of its execution context. Guarded by the manager mutex.
type taskEntry struct {
	task   *models.AnalysisTask
	state  *models.TaskState
	cancel context.CancelFunc
}

// Manager is the task orchestrator. The in-memory table is authoritative
// while the process lives; snapshots are checkpointed to storage on every
// transition so terminal tasks stay queryable after a restart.
type Manager struct {
	mu      sync.RWMutex
	entries map[string]*taskEntry

	queue     chan string
	executors map[models.TaskType]interfaces.TaskExecutor

	campaigns interfaces.CampaignService
	store     interfaces.TaskStorage
	events    interfaces.EventPublisher

	config common.TasksConfig
	logger arbor.ILogger

	baseCtx context.Context
	stop    context.CancelFunc
	workers sync.WaitGroup
}

// NewManager creates a task manager. Executors register the task types the
// manager accepts; unknown types are rejected at creation time.
func NewManager(config common.TasksConfig, campaigns interfaces.CampaignService, store interfaces.TaskStorage, events interfaces.EventPublisher, logger arbor.ILogger, executors ...interfaces.TaskExecutor) *Manager {
	if config.Workers <= 0 {
		config.Workers = 3
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 100
	}
	if config.DefaultTimeoutMinutes <= 0 {
		config.DefaultTimeoutMinutes = 10
	}

	registry := make(map[models.TaskType]interfaces.TaskExecutor, len(executors))
	for _, executor := range executors {
		registry[executor.Type()] = executor
	}

	return &Manager{
		entries:   make(map[string]*taskEntry),
		queue:     make(chan string, config.QueueSize),
		executors: registry,
		campaigns: campaigns,
		store:     store,
		events:    events,
		config:    config,
		logger:    logger,
	}
}

// Start recovers interrupted tasks from storage, then launches the worker
// pool and the retention janitor.
func (m *Manager) Start(ctx context.Context) error {
	m.baseCtx, m.stop = context.WithCancel(ctx)

	if err := m.recoverInterrupted(ctx); err != nil {
		return fmt.Errorf("failed to recover task snapshots: %w", err)
	}

	for i := 0; i < m.config.Workers; i++ {
		m.workers.Add(1)
		worker := i
		common.SafeGo(m.logger, fmt.Sprintf("task-worker-%d", worker), func() {
			defer m.workers.Done()
			m.runWorker(worker)
		})
	}

	common.SafeGoWithContext(m.baseCtx, m.logger, "task-janitor", m.runJanitor)

	m.logger.Info().
		Int("workers", m.config.Workers).
		Int("queue_size", m.config.QueueSize).
		Msg("Task manager started")

	return nil
}

// Stop cancels all running tasks and waits for the workers to drain
func (m *Manager) Stop() {
	if m.stop != nil {
		m.stop()
	}
	close(m.queue)
	m.workers.Wait()
	m.logger.Info().Msg("Task manager stopped")
}

// CreateTask validates the request, registers the task as pending and
// enqueues it. Validation never touches the providers; only campaign
// existence is checked, through the campaign service.
func (m *Manager) CreateTask(ctx context.Context, taskType models.TaskType, campaignID, userEmail string, params map[string]interface{}) (string, error) {
	if userEmail == "" {
		return "", &ValidationError{Field: "user_email", Message: "required"}
	}
	if !models.ValidTaskType(string(taskType)) {
		return "", &ValidationError{Field: "type", Message: fmt.Sprintf("unknown task type %q", taskType)}
	}
	if _, ok := m.executors[taskType]; !ok {
		return "", &ValidationError{Field: "type", Message: fmt.Sprintf("no executor registered for %q", taskType)}
	}

	// Tasks operating on one campaign must reference a campaign the caller owns
	if taskType == models.TaskTypeCampaignAnalysis || taskType == models.TaskTypeContentVerification {
		if campaignID == "" {
			return "", &ValidationError{Field: "campaign_id", Message: "required for " + string(taskType)}
		}
		if _, err := m.campaigns.Get(ctx, campaignID, userEmail); err != nil {
			return "", &ValidationError{Field: "campaign_id", Message: "campaign not found"}
		}
	}

	task := models.NewAnalysisTask(common.NewTaskID(), taskType, campaignID, userEmail, params)
	if minutes := task.GetParamInt("estimated_duration_minutes", 0); minutes > 0 {
		task.EstimatedDurationMinutes = minutes
	}

	entry := &taskEntry{
		task:  task,
		state: models.NewTaskState(),
	}

	m.mu.Lock()
	m.entries[task.ID] = entry
	m.mu.Unlock()

	select {
	case m.queue <- task.ID:
	default:
		m.mu.Lock()
		delete(m.entries, task.ID)
		m.mu.Unlock()
		return "", ErrQueueFull
	}

	m.checkpoint(task.ID)
	m.publishEvent(models.TaskEventCreated, entry)

	m.logger.Info().
		Str("task_id", task.ID).
		Str("type", string(taskType)).
		Str("campaign_id", campaignID).
		Msg("Task created")

	return task.ID, nil
}

// GetTaskStatus returns a snapshot of one task owned by the user
func (m *Manager) GetTaskStatus(taskID, userEmail string) (*models.TaskSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[taskID]
	if !ok || entry.task.UserEmail != userEmail {
		return nil, ErrNotFound
	}

	return &models.TaskSnapshot{
		Task:  *entry.task,
		State: *entry.state.Clone(),
	}, nil
}

// GetTaskResult returns the result payload of a completed task
func (m *Manager) GetTaskResult(taskID, userEmail string) (map[string]interface{}, error) {
	snapshot, err := m.GetTaskStatus(taskID, userEmail)
	if err != nil {
		return nil, err
	}
	if snapshot.State.Status != models.TaskStatusCompleted {
		return nil, ErrNotReady
	}
	return snapshot.State.Result, nil
}

// ListTasks returns the user's tasks, most recent first, optionally
// filtered by status.
func (m *Manager) ListTasks(userEmail string, statusFilter models.TaskStatus) []*models.TaskSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var snapshots []*models.TaskSnapshot
	for _, entry := range m.entries {
		if entry.task.UserEmail != userEmail {
			continue
		}
		if statusFilter != "" && entry.state.Status != statusFilter {
			continue
		}
		snapshots = append(snapshots, &models.TaskSnapshot{
			Task:  *entry.task,
			State: *entry.state.Clone(),
		})
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Task.CreatedAt.After(snapshots[j].Task.CreatedAt)
	})

	return snapshots
}

// CancelTask cancels a pending task directly or signals a running one
// through its context. Terminal tasks return ErrInvalidState.
func (m *Manager) CancelTask(taskID, userEmail string) error {
	m.mu.Lock()

	entry, ok := m.entries[taskID]
	if !ok || entry.task.UserEmail != userEmail {
		m.mu.Unlock()
		return ErrNotFound
	}

	if entry.state.IsTerminal() {
		m.mu.Unlock()
		return ErrInvalidState
	}

	switch entry.state.Status {
	case models.TaskStatusPending:
		// Not yet picked up: mark cancelled directly, the worker skips it
		entry.state.MarkCancelled()
		m.mu.Unlock()
		m.checkpoint(taskID)
		m.publishEvent(models.TaskEventCancelled, entry)

	case models.TaskStatusRunning:
		// Signal the worker; the terminal transition happens there, at the
		// next cooperative checkpoint
		cancel := entry.cancel
		m.mu.Unlock()
		if cancel != nil {
			cancel()
		}
	}

	m.logger.Info().
		Str("task_id", taskID).
		Msg("Task cancellation requested")

	return nil
}

// runWorker pulls task IDs off the queue until the queue closes
func (m *Manager) runWorker(worker int) {
	for taskID := range m.queue {
		m.executeTask(taskID, worker)
	}
}

// executeTask drives one task through its lifecycle
func (m *Manager) executeTask(taskID string, worker int) {
	m.mu.Lock()
	entry, ok := m.entries[taskID]
	if !ok || entry.state.Status != models.TaskStatusPending {
		// Cancelled while queued, or pruned
		m.mu.Unlock()
		return
	}

	timeout := time.Duration(m.config.DefaultTimeoutMinutes) * time.Minute
	if entry.task.EstimatedDurationMinutes > 0 {
		timeout = time.Duration(entry.task.EstimatedDurationMinutes) * time.Minute
	}

	ctx, cancel := context.WithTimeout(m.baseCtx, timeout)
	defer cancel()

	entry.cancel = cancel
	entry.state.MarkStarted()
	task := entry.task
	m.mu.Unlock()

	m.checkpoint(taskID)
	m.publishEvent(models.TaskEventStarted, entry)

	m.logger.Info().
		Str("task_id", taskID).
		Str("type", string(task.Type)).
		Int("worker", worker).
		Msg("Task started")

	executor := m.executors[task.Type]
	result, err := executor.Execute(ctx, task, func(progress float64) {
		m.setProgress(taskID, progress)
	})

	m.mu.Lock()
	entry.cancel = nil
	switch {
	case ctx.Err() == context.Canceled:
		entry.state.MarkCancelled()
	case ctx.Err() == context.DeadlineExceeded:
		entry.state.MarkFailed(fmt.Sprintf("task exceeded its %s deadline", timeout))
	case err != nil:
		entry.state.MarkFailed(err.Error())
	default:
		entry.state.MarkCompleted(result)
	}
	status := entry.state.Status
	m.mu.Unlock()

	m.checkpoint(taskID)
	m.publishEvent(terminalEventType(status), entry)

	m.logger.Info().
		Str("task_id", taskID).
		Str("status", string(status)).
		Msg("Task finished")
}

// setProgress applies a monotonic progress update and broadcasts it
func (m *Manager) setProgress(taskID string, progress float64) {
	m.mu.Lock()
	entry, ok := m.entries[taskID]
	if !ok {
		m.mu.Unlock()
		return
	}
	entry.state.SetProgress(progress)
	m.mu.Unlock()

	m.publishEvent(models.TaskEventProgress, entry)
}

// recoverInterrupted loads stored snapshots. Terminal tasks become
// queryable again; tasks that were pending or running when the process
// died are marked failed, since their in-memory state is gone.
func (m *Manager) recoverInterrupted(ctx context.Context) error {
	if m.store == nil {
		return nil
	}

	snapshots, err := m.store.ListSnapshots(ctx)
	if err != nil {
		return err
	}

	recovered := 0
	interrupted := 0

	m.mu.Lock()
	for _, snapshot := range snapshots {
		task := snapshot.Task
		state := snapshot.State

		if !state.IsTerminal() {
			state.MarkFailed("interrupted by restart")
			interrupted++
		}

		m.entries[task.ID] = &taskEntry{
			task:  &task,
			state: &state,
		}
		recovered++
	}
	m.mu.Unlock()

	for _, snapshot := range snapshots {
		if !snapshot.State.IsTerminal() {
			m.checkpoint(snapshot.Task.ID)
		}
	}

	if recovered > 0 {
		m.logger.Info().
			Int("recovered", recovered).
			Int("interrupted", interrupted).
			Msg("Task snapshots recovered")
	}

	return nil
}

// runJanitor prunes terminal tasks older than the retention window
func (m *Manager) runJanitor() {
	interval := m.config.JanitorInterval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.baseCtx.Done():
			return
		case <-ticker.C:
			m.pruneExpired()
		}
	}
}

// pruneExpired removes terminal tasks past retention from memory and storage
func (m *Manager) pruneExpired() {
	if m.config.RetentionDays <= 0 {
		return
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -m.config.RetentionDays)

	m.mu.Lock()
	var expired []string
	for id, entry := range m.entries {
		if !entry.state.IsTerminal() {
			continue
		}
		if entry.state.CompletedAt != nil && entry.state.CompletedAt.Before(cutoff) {
			expired = append(expired, id)
			delete(m.entries, id)
		}
	}
	m.mu.Unlock()

	for _, id := range expired {
		if m.store != nil {
			if err := m.store.DeleteSnapshot(context.Background(), id); err != nil {
				m.logger.Warn().Err(err).Str("task_id", id).Msg("Failed to delete task snapshot")
			}
		}
	}

	if len(expired) > 0 {
		m.logger.Info().
			Int("pruned", len(expired)).
			Msg("Expired tasks pruned")
	}
}

// checkpoint persists the current snapshot of one task
func (m *Manager) checkpoint(taskID string) {
	if m.store == nil {
		return
	}

	m.mu.RLock()
	entry, ok := m.entries[taskID]
	if !ok {
		m.mu.RUnlock()
		return
	}
	snapshot := &models.TaskSnapshot{
		Task:  *entry.task,
		State: *entry.state.Clone(),
	}
	m.mu.RUnlock()

	if err := m.store.SaveSnapshot(context.Background(), snapshot); err != nil {
		m.logger.Warn().Err(err).Str("task_id", taskID).Msg("Failed to checkpoint task snapshot")
	}
}

// publishEvent broadcasts a task lifecycle event when a publisher is wired
func (m *Manager) publishEvent(eventType models.TaskEventType, entry *taskEntry) {
	if m.events == nil {
		return
	}

	m.mu.RLock()
	event := models.TaskEvent{
		Type:       eventType,
		TaskID:     entry.task.ID,
		TaskType:   entry.task.Type,
		CampaignID: entry.task.CampaignID,
		Status:     entry.state.Status,
		Progress:   entry.state.Progress,
		Error:      entry.state.ErrorMessage,
		Timestamp:  time.Now().UTC(),
	}
	m.mu.RUnlock()

	m.events.PublishTaskEvent(event)
}

func terminalEventType(status models.TaskStatus) models.TaskEventType {
	switch status {
	case models.TaskStatusCompleted:
		return models.TaskEventCompleted
	case models.TaskStatusCancelled:
		return models.TaskEventCancelled
	default:
		return models.TaskEventFailed
	}
}
