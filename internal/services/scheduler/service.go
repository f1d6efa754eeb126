// Package scheduler drives periodic campaign monitoring: on each tick it
// submits one scheduled_monitoring task covering every Live campaign.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/linklens/internal/interfaces"
	"github.com/ternarybob/linklens/internal/models"
	"github.com/ternarybob/linklens/internal/tasks"
)

// Service runs the monitoring schedule. The created task carries the
// scheduler's synthetic identity, which scopes it to all Live campaigns.
type Service struct {
	tasks   interfaces.TaskService
	cron    *cron.Cron
	logger  arbor.ILogger
	mu      sync.Mutex
	running bool
}

// NewService creates a scheduler service. Schedules use six-field cron
// expressions with a seconds column.
func NewService(taskService interfaces.TaskService, logger arbor.ILogger) *Service {
	return &Service{
		tasks:  taskService,
		cron:   cron.New(cron.WithSeconds()),
		logger: logger,
	}
}

// Start registers the monitoring job and starts the cron loop
func (s *Service) Start(schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	if schedule == "" {
		schedule = "0 0 * * * *" // Hourly
	}

	if _, err := s.cron.AddFunc(schedule, s.runMonitoringCycle); err != nil {
		return fmt.Errorf("failed to register monitoring schedule: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", schedule).
		Msg("Scheduler started")

	return nil
}

// Stop halts the cron loop, waiting for an in-flight tick to return
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false

	s.logger.Info().Msg("Scheduler stopped")
}

// IsRunning reports whether the cron loop is active
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// TriggerNow submits a monitoring task outside the schedule
func (s *Service) TriggerNow() (string, error) {
	return s.tasks.CreateTask(context.Background(), models.TaskTypeScheduledMonitoring, "", tasks.SchedulerUserEmail, nil)
}

// runMonitoringCycle submits one monitoring task per tick. A full queue is
// logged and skipped; the next tick tries again.
func (s *Service) runMonitoringCycle() {
	taskID, err := s.tasks.CreateTask(context.Background(), models.TaskTypeScheduledMonitoring, "", tasks.SchedulerUserEmail, nil)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Msg("Failed to submit scheduled monitoring task")
		return
	}

	s.logger.Info().
		Str("task_id", taskID).
		Msg("Scheduled monitoring task submitted")
}
