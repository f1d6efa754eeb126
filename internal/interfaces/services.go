package interfaces

import (
	"context"

	"github.com/ternarybob/linklens/internal/models"
)

// TaskService is the orchestrator contract. Creation enqueues and returns
// immediately; execution happens on a bounded worker pool.
type TaskService interface {
	CreateTask(ctx context.Context, taskType models.TaskType, campaignID, userEmail string, params map[string]interface{}) (string, error)
	GetTaskStatus(taskID, userEmail string) (*models.TaskSnapshot, error)
	GetTaskResult(taskID, userEmail string) (map[string]interface{}, error)
	ListTasks(userEmail string, statusFilter models.TaskStatus) []*models.TaskSnapshot
	CancelTask(taskID, userEmail string) error
}

// TaskExecutor runs one task type. Implementations must honor ctx
// cancellation at phase boundaries and report progress through the callback.
type TaskExecutor interface {
	Type() models.TaskType
	Execute(ctx context.Context, task *models.AnalysisTask, progress func(float64)) (map[string]interface{}, error)
}

// ProviderGateway is the uniform interface over the external data sources.
// It owns rate limiting, retry/backoff and the mock-vs-live dispatch.
type ProviderGateway interface {
	FetchBacklinks(ctx context.Context, provider models.Provider, target string) models.ProviderQueryResult
	FetchSerp(ctx context.Context, keyword string, topN int) ([]*models.SerpRanking, error)
}

// RuntimeService holds the process-wide runtime configuration: the
// mock/live toggle and the last error per provider. All methods are safe
// for concurrent use.
type RuntimeService interface {
	IsMockMode() bool
	SetMockMode(enabled bool)
	SetProviderError(provider models.Provider, message string)
	ClearProviderErrors()
	Snapshot() models.RuntimeSnapshot
}

// CampaignService - validated campaign CRUD plus the read-side lookups the
// orchestrator needs
type CampaignService interface {
	Create(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error)
	Get(ctx context.Context, id, userEmail string) (*models.Campaign, error)
	List(ctx context.Context, userEmail string) ([]*models.Campaign, error)
	ListLive(ctx context.Context) ([]*models.Campaign, error)
	Update(ctx context.Context, id, userEmail string, update *models.CampaignUpdate) (*models.Campaign, error)
	Delete(ctx context.Context, id, userEmail string) error
}

// EventPublisher broadcasts task lifecycle events to connected clients.
// Implementations must be non-blocking; slow consumers are dropped, not
// waited on.
type EventPublisher interface {
	PublishTaskEvent(event models.TaskEvent)
}
