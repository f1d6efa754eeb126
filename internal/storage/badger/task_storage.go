package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/linklens/internal/interfaces"
	"github.com/ternarybob/linklens/internal/models"
)

// TaskStorage implements the TaskStorage interface for Badger. The
// orchestrator's in-memory table stays authoritative; these snapshots make
// terminal tasks queryable after a restart.
type TaskStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewTaskStorage creates a new TaskStorage instance
func NewTaskStorage(db *BadgerDB, logger arbor.ILogger) interfaces.TaskStorage {
	return &TaskStorage{
		db:     db,
		logger: logger,
	}
}

func (s *TaskStorage) SaveSnapshot(ctx context.Context, snapshot *models.TaskSnapshot) error {
	if snapshot.Task.ID == "" {
		return fmt.Errorf("task ID is required")
	}

	if err := s.db.Store().Upsert(snapshot.SnapshotID(), snapshot); err != nil {
		return fmt.Errorf("failed to save task snapshot: %w", err)
	}
	return nil
}

func (s *TaskStorage) GetSnapshot(ctx context.Context, taskID string) (*models.TaskSnapshot, error) {
	var snapshot models.TaskSnapshot
	if err := s.db.Store().Get(taskID, &snapshot); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("task snapshot not found: %s", taskID)
		}
		return nil, fmt.Errorf("failed to get task snapshot: %w", err)
	}
	return &snapshot, nil
}

func (s *TaskStorage) ListSnapshots(ctx context.Context) ([]*models.TaskSnapshot, error) {
	var snapshots []models.TaskSnapshot
	if err := s.db.Store().Find(&snapshots, nil); err != nil {
		return nil, fmt.Errorf("failed to list task snapshots: %w", err)
	}

	result := make([]*models.TaskSnapshot, len(snapshots))
	for i := range snapshots {
		result[i] = &snapshots[i]
	}
	return result, nil
}

func (s *TaskStorage) DeleteSnapshot(ctx context.Context, taskID string) error {
	if err := s.db.Store().Delete(taskID, &models.TaskSnapshot{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete task snapshot: %w", err)
	}
	return nil
}
