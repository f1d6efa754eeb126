package tasks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/linklens/internal/common"
	"github.com/ternarybob/linklens/internal/interfaces"
	"github.com/ternarybob/linklens/internal/models"
)

type stubCampaignService struct {
	campaigns map[string]*models.Campaign
}

func (s *stubCampaignService) Create(_ context.Context, c *models.Campaign) (*models.Campaign, error) {
	return c, nil
}
func (s *stubCampaignService) Get(_ context.Context, id, userEmail string) (*models.Campaign, error) {
	c, ok := s.campaigns[id]
	if !ok || c.UserEmail != userEmail {
		return nil, errors.New("campaign not found")
	}
	return c, nil
}
func (s *stubCampaignService) List(_ context.Context, userEmail string) ([]*models.Campaign, error) {
	var out []*models.Campaign
	for _, c := range s.campaigns {
		if c.UserEmail == userEmail {
			out = append(out, c)
		}
	}
	return out, nil
}
func (s *stubCampaignService) ListLive(_ context.Context) ([]*models.Campaign, error) {
	return nil, nil
}
func (s *stubCampaignService) Update(_ context.Context, id, userEmail string, _ *models.CampaignUpdate) (*models.Campaign, error) {
	return s.campaigns[id], nil
}
func (s *stubCampaignService) Delete(_ context.Context, id, userEmail string) error { return nil }

type memTaskStore struct {
	mu        sync.Mutex
	snapshots map[string]*models.TaskSnapshot
}

func newMemTaskStore() *memTaskStore {
	return &memTaskStore{snapshots: make(map[string]*models.TaskSnapshot)}
}

func (m *memTaskStore) SaveSnapshot(_ context.Context, snapshot *models.TaskSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *snapshot
	m.snapshots[snapshot.SnapshotID()] = &clone
	return nil
}
func (m *memTaskStore) GetSnapshot(_ context.Context, taskID string) (*models.TaskSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.snapshots[taskID]
	if !ok {
		return nil, errors.New("snapshot not found")
	}
	return s, nil
}
func (m *memTaskStore) ListSnapshots(_ context.Context) ([]*models.TaskSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.TaskSnapshot
	for _, s := range m.snapshots {
		out = append(out, s)
	}
	return out, nil
}
func (m *memTaskStore) DeleteSnapshot(_ context.Context, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, taskID)
	return nil
}

type stubExecutor struct {
	taskType models.TaskType
	run      func(ctx context.Context, task *models.AnalysisTask, progress func(float64)) (map[string]interface{}, error)
}

func (s *stubExecutor) Type() models.TaskType { return s.taskType }
func (s *stubExecutor) Execute(ctx context.Context, task *models.AnalysisTask, progress func(float64)) (map[string]interface{}, error) {
	return s.run(ctx, task, progress)
}

func testConfig() common.TasksConfig {
	return common.TasksConfig{
		Workers:               3,
		QueueSize:             16,
		DefaultTimeoutMinutes: 1,
		RetentionDays:         7,
		JanitorInterval:       time.Hour,
	}
}

func campaignsWith(c *models.Campaign) *stubCampaignService {
	svc := &stubCampaignService{campaigns: make(map[string]*models.Campaign)}
	if c != nil {
		svc.campaigns[c.ID] = c
	}
	return svc
}

func ownedCampaign() *models.Campaign {
	return &models.Campaign{
		ID:           "camp_1",
		UserEmail:    "owner@example.com",
		ClientDomain: "acme.io",
	}
}

func waitForStatus(t *testing.T, m *Manager, taskID, userEmail string, want models.TaskStatus) *models.TaskSnapshot {
	t.Helper()
	var snapshot *models.TaskSnapshot
	require.Eventually(t, func() bool {
		s, err := m.GetTaskStatus(taskID, userEmail)
		if err != nil {
			return false
		}
		snapshot = s
		return s.State.Status == want
	}, 5*time.Second, 10*time.Millisecond)
	return snapshot
}

func TestCreateTask_ValidationErrors(t *testing.T) {
	m := NewManager(testConfig(), campaignsWith(ownedCampaign()), nil, nil, arbor.NewLogger(),
		&stubExecutor{taskType: models.TaskTypeCampaignAnalysis, run: func(ctx context.Context, task *models.AnalysisTask, progress func(float64)) (map[string]interface{}, error) {
			return nil, nil
		}})

	var vErr *ValidationError

	_, err := m.CreateTask(context.Background(), "bogus_type", "camp_1", "owner@example.com", nil)
	require.ErrorAs(t, err, &vErr)

	_, err = m.CreateTask(context.Background(), models.TaskTypeCampaignAnalysis, "camp_1", "", nil)
	require.ErrorAs(t, err, &vErr)

	_, err = m.CreateTask(context.Background(), models.TaskTypeCampaignAnalysis, "", "owner@example.com", nil)
	require.ErrorAs(t, err, &vErr)

	// Foreign campaign looks like a missing campaign
	_, err = m.CreateTask(context.Background(), models.TaskTypeCampaignAnalysis, "camp_1", "intruder@example.com", nil)
	require.ErrorAs(t, err, &vErr)

	// No executor registered for the type
	_, err = m.CreateTask(context.Background(), models.TaskTypeBatchUpdate, "", "owner@example.com", nil)
	require.ErrorAs(t, err, &vErr)
}

func TestTaskLifecycle_CompletesWithResult(t *testing.T) {
	executor := &stubExecutor{
		taskType: models.TaskTypeCampaignAnalysis,
		run: func(ctx context.Context, task *models.AnalysisTask, progress func(float64)) (map[string]interface{}, error) {
			progress(50)
			return map[string]interface{}{"total_results": 4}, nil
		},
	}

	m := NewManager(testConfig(), campaignsWith(ownedCampaign()), newMemTaskStore(), nil, arbor.NewLogger(), executor)
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	taskID, err := m.CreateTask(context.Background(), models.TaskTypeCampaignAnalysis, "camp_1", "owner@example.com", nil)
	require.NoError(t, err)

	snapshot := waitForStatus(t, m, taskID, "owner@example.com", models.TaskStatusCompleted)
	assert.Equal(t, float64(100), snapshot.State.Progress)
	assert.NotNil(t, snapshot.State.StartedAt)
	assert.NotNil(t, snapshot.State.CompletedAt)

	result, err := m.GetTaskResult(taskID, "owner@example.com")
	require.NoError(t, err)
	assert.Equal(t, 4, result["total_results"])
}

func TestTaskLifecycle_FailureCarriesMessage(t *testing.T) {
	executor := &stubExecutor{
		taskType: models.TaskTypeBatchUpdate,
		run: func(ctx context.Context, task *models.AnalysisTask, progress func(float64)) (map[string]interface{}, error) {
			return nil, errors.New("storage unavailable")
		},
	}

	m := NewManager(testConfig(), campaignsWith(nil), nil, nil, arbor.NewLogger(), executor)
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	taskID, err := m.CreateTask(context.Background(), models.TaskTypeBatchUpdate, "", "owner@example.com", nil)
	require.NoError(t, err)

	snapshot := waitForStatus(t, m, taskID, "owner@example.com", models.TaskStatusFailed)
	assert.Equal(t, "storage unavailable", snapshot.State.ErrorMessage)

	_, err = m.GetTaskResult(taskID, "owner@example.com")
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestGetTaskStatus_OwnershipAndNotFound(t *testing.T) {
	executor := &stubExecutor{
		taskType: models.TaskTypeBatchUpdate,
		run: func(ctx context.Context, task *models.AnalysisTask, progress func(float64)) (map[string]interface{}, error) {
			return nil, nil
		},
	}

	m := NewManager(testConfig(), campaignsWith(nil), nil, nil, arbor.NewLogger(), executor)

	taskID, err := m.CreateTask(context.Background(), models.TaskTypeBatchUpdate, "", "owner@example.com", nil)
	require.NoError(t, err)

	_, err = m.GetTaskStatus("task_missing", "owner@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	// A foreign task is indistinguishable from a missing one
	_, err = m.GetTaskStatus(taskID, "intruder@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelTask_PendingAndTerminal(t *testing.T) {
	executor := &stubExecutor{
		taskType: models.TaskTypeBatchUpdate,
		run: func(ctx context.Context, task *models.AnalysisTask, progress func(float64)) (map[string]interface{}, error) {
			return nil, nil
		},
	}

	// No Start: tasks stay pending
	m := NewManager(testConfig(), campaignsWith(nil), nil, nil, arbor.NewLogger(), executor)

	taskID, err := m.CreateTask(context.Background(), models.TaskTypeBatchUpdate, "", "owner@example.com", nil)
	require.NoError(t, err)

	require.NoError(t, m.CancelTask(taskID, "owner@example.com"))

	snapshot, err := m.GetTaskStatus(taskID, "owner@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCancelled, snapshot.State.Status)

	// Cancelling a terminal task is an invalid transition
	assert.ErrorIs(t, m.CancelTask(taskID, "owner@example.com"), ErrInvalidState)

	assert.ErrorIs(t, m.CancelTask("task_missing", "owner@example.com"), ErrNotFound)
	assert.ErrorIs(t, m.CancelTask(taskID, "intruder@example.com"), ErrNotFound)
}

func TestCancelTask_RunningStopsAtCheckpoint(t *testing.T) {
	started := make(chan struct{})
	executor := &stubExecutor{
		taskType: models.TaskTypeBatchUpdate,
		run: func(ctx context.Context, task *models.AnalysisTask, progress func(float64)) (map[string]interface{}, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}

	m := NewManager(testConfig(), campaignsWith(nil), nil, nil, arbor.NewLogger(), executor)
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	taskID, err := m.CreateTask(context.Background(), models.TaskTypeBatchUpdate, "", "owner@example.com", nil)
	require.NoError(t, err)

	<-started
	require.NoError(t, m.CancelTask(taskID, "owner@example.com"))

	waitForStatus(t, m, taskID, "owner@example.com", models.TaskStatusCancelled)
}

func TestWorkerPool_RespectsBound(t *testing.T) {
	var running int32
	var peak int32
	release := make(chan struct{})

	executor := &stubExecutor{
		taskType: models.TaskTypeBatchUpdate,
		run: func(ctx context.Context, task *models.AnalysisTask, progress func(float64)) (map[string]interface{}, error) {
			current := atomic.AddInt32(&running, 1)
			for {
				prev := atomic.LoadInt32(&peak)
				if current <= prev || atomic.CompareAndSwapInt32(&peak, prev, current) {
					break
				}
			}
			<-release
			atomic.AddInt32(&running, -1)
			return nil, nil
		},
	}

	config := testConfig()
	config.Workers = 2

	m := NewManager(config, campaignsWith(nil), nil, nil, arbor.NewLogger(), executor)
	require.NoError(t, m.Start(context.Background()))

	var taskIDs []string
	for i := 0; i < 6; i++ {
		id, err := m.CreateTask(context.Background(), models.TaskTypeBatchUpdate, "", "owner@example.com", nil)
		require.NoError(t, err)
		taskIDs = append(taskIDs, id)
	}

	// Let the pool pick up as much as it can, then release everything
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&running) == 2
	}, 5*time.Second, 10*time.Millisecond)
	close(release)

	for _, id := range taskIDs {
		waitForStatus(t, m, id, "owner@example.com", models.TaskStatusCompleted)
	}
	m.Stop()

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestListTasks_FilterAndOrder(t *testing.T) {
	executor := &stubExecutor{
		taskType: models.TaskTypeBatchUpdate,
		run: func(ctx context.Context, task *models.AnalysisTask, progress func(float64)) (map[string]interface{}, error) {
			return nil, nil
		},
	}

	m := NewManager(testConfig(), campaignsWith(nil), nil, nil, arbor.NewLogger(), executor)

	first, err := m.CreateTask(context.Background(), models.TaskTypeBatchUpdate, "", "owner@example.com", nil)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := m.CreateTask(context.Background(), models.TaskTypeBatchUpdate, "", "owner@example.com", nil)
	require.NoError(t, err)
	_, err = m.CreateTask(context.Background(), models.TaskTypeBatchUpdate, "", "other@example.com", nil)
	require.NoError(t, err)

	tasks := m.ListTasks("owner@example.com", "")
	require.Len(t, tasks, 2)
	assert.Equal(t, second, tasks[0].Task.ID)
	assert.Equal(t, first, tasks[1].Task.ID)

	require.NoError(t, m.CancelTask(first, "owner@example.com"))
	cancelled := m.ListTasks("owner@example.com", models.TaskStatusCancelled)
	require.Len(t, cancelled, 1)
	assert.Equal(t, first, cancelled[0].Task.ID)
}

func TestRecovery_InterruptedTasksMarkedFailed(t *testing.T) {
	store := newMemTaskStore()

	runningTask := models.NewAnalysisTask("task_running", models.TaskTypeBatchUpdate, "", "owner@example.com", nil)
	runningState := models.NewTaskState()
	runningState.MarkStarted()
	require.NoError(t, store.SaveSnapshot(context.Background(), &models.TaskSnapshot{
		Task: *runningTask, State: *runningState,
	}))

	doneTask := models.NewAnalysisTask("task_done", models.TaskTypeBatchUpdate, "", "owner@example.com", nil)
	doneState := models.NewTaskState()
	doneState.MarkStarted()
	doneState.MarkCompleted(map[string]interface{}{"records_scanned": 2})
	require.NoError(t, store.SaveSnapshot(context.Background(), &models.TaskSnapshot{
		Task: *doneTask, State: *doneState,
	}))

	executor := &stubExecutor{
		taskType: models.TaskTypeBatchUpdate,
		run: func(ctx context.Context, task *models.AnalysisTask, progress func(float64)) (map[string]interface{}, error) {
			return nil, nil
		},
	}

	m := NewManager(testConfig(), campaignsWith(nil), store, nil, arbor.NewLogger(), executor)
	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	interrupted, err := m.GetTaskStatus("task_running", "owner@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusFailed, interrupted.State.Status)
	assert.Equal(t, "interrupted by restart", interrupted.State.ErrorMessage)

	completed, err := m.GetTaskStatus("task_done", "owner@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, completed.State.Status)

	result, err := m.GetTaskResult("task_done", "owner@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, result["records_scanned"])
}

var _ interfaces.TaskService = (*Manager)(nil)
