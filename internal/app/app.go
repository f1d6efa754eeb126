package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/linklens/internal/common"
	"github.com/ternarybob/linklens/internal/handlers"
	"github.com/ternarybob/linklens/internal/interfaces"
	"github.com/ternarybob/linklens/internal/providers"
	"github.com/ternarybob/linklens/internal/services/analysis"
	"github.com/ternarybob/linklens/internal/services/campaigns"
	"github.com/ternarybob/linklens/internal/services/content"
	"github.com/ternarybob/linklens/internal/services/export"
	"github.com/ternarybob/linklens/internal/services/risk"
	"github.com/ternarybob/linklens/internal/services/runtime"
	"github.com/ternarybob/linklens/internal/services/scheduler"
	"github.com/ternarybob/linklens/internal/services/summary"
	"github.com/ternarybob/linklens/internal/storage/badger"
	"github.com/ternarybob/linklens/internal/tasks"
)

// App holds all application components and dependencies
type App struct {
	Config    *common.Config
	Logger    arbor.ILogger
	ctx       context.Context
	cancelCtx context.CancelFunc

	// Storage
	StorageManager *badger.Manager

	// Provider access
	RuntimeService interfaces.RuntimeService
	Gateway        interfaces.ProviderGateway

	// Domain services
	CampaignService *campaigns.Service
	AnalysisService *analysis.Service
	RiskService     *risk.Service
	SummaryService  *summary.Service
	ContentService  *content.Service
	ExportService   *export.Service

	// Orchestration
	TaskManager      *tasks.Manager
	SchedulerService *scheduler.Service

	// Log streaming
	LogStreamer *handlers.LogStreamer

	// HTTP handlers
	APIHandler      *handlers.APIHandler
	TaskHandler     *handlers.TaskHandler
	CampaignHandler *handlers.CampaignHandler
	SummaryHandler  *handlers.SummaryHandler
	RuntimeHandler  *handlers.RuntimeHandler
	StatusHandler   *handlers.StatusHandler
	WSHandler       *handlers.WebSocketHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Config:    cfg,
		Logger:    logger,
		ctx:       ctx,
		cancelCtx: cancel,
	}

	if err := app.initDatabase(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// WebSocket handler is created early so task events and logs have a
	// broadcast target from the first service onwards
	app.WSHandler = handlers.NewWebSocketHandler(logger)

	// Route filtered log lines to websocket clients
	app.LogStreamer = handlers.NewLogStreamer(app.WSHandler, &cfg.WebSocket)
	app.LogStreamer.Start(ctx)
	logger.SetChannel("websocket", app.LogStreamer.Channel())

	if err := app.initServices(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	logger.Info().
		Bool("mock_mode", app.RuntimeService.IsMockMode()).
		Bool("scheduler_enabled", cfg.Scheduler.Enabled).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	manager, err := badger.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = manager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// initServices wires the domain services, provider gateway and the task
// orchestrator in dependency order
func (a *App) initServices() error {
	// Runtime state seeds from config; it can be flipped at runtime via the API
	a.RuntimeService = runtime.NewService(a.Config.Providers.MockMode, a.Logger)

	a.Gateway = providers.NewGateway(&a.Config.Providers, a.RuntimeService, a.Logger)

	a.CampaignService = campaigns.NewService(
		a.StorageManager.CampaignStorage(),
		a.StorageManager.BacklinkStorage(),
		a.StorageManager.SerpStorage(),
		a.Logger,
	)
	a.AnalysisService = analysis.NewService(a.Logger)
	a.RiskService = risk.NewService(a.Logger)
	a.SummaryService = summary.NewService(
		a.StorageManager.CampaignStorage(),
		a.StorageManager.BacklinkStorage(),
		a.StorageManager.SerpStorage(),
		a.Logger,
	)
	a.ContentService = content.NewService(a.Config.Content, a.Logger)
	a.ExportService = export.NewService(a.Logger)

	analysisExec := tasks.NewAnalysisExecutor(
		a.CampaignService,
		a.Gateway,
		a.AnalysisService,
		a.RiskService,
		a.StorageManager.BacklinkStorage(),
		a.StorageManager.SerpStorage(),
		a.Config.Providers.DataForSEO.SerpTopN,
		a.Logger,
	)
	verificationExec := tasks.NewVerificationExecutor(
		a.CampaignService,
		a.StorageManager.BacklinkStorage(),
		a.ContentService,
		a.Config.Content.MaxPages,
		a.Logger,
	)
	monitoringExec := tasks.NewMonitoringExecutor(a.CampaignService, analysisExec, a.Logger)
	batchExec := tasks.NewBatchUpdateExecutor(
		a.CampaignService,
		a.StorageManager.BacklinkStorage(),
		a.AnalysisService,
		a.Logger,
	)

	a.TaskManager = tasks.NewManager(
		a.Config.Tasks,
		a.CampaignService,
		a.StorageManager.TaskStorage(),
		a.WSHandler,
		a.Logger,
		analysisExec,
		verificationExec,
		monitoringExec,
		batchExec,
	)

	a.SchedulerService = scheduler.NewService(a.TaskManager, a.Logger)

	return nil
}

// initHandlers wires the HTTP handlers onto the services
func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler()
	a.TaskHandler = handlers.NewTaskHandler(a.TaskManager, a.Logger)
	a.CampaignHandler = handlers.NewCampaignHandler(
		a.CampaignService,
		a.SummaryService,
		a.RiskService,
		a.ExportService,
		a.StorageManager.BacklinkStorage(),
		a.StorageManager.SerpStorage(),
		a.Logger,
	)
	a.SummaryHandler = handlers.NewSummaryHandler(a.SummaryService, a.Logger)
	a.RuntimeHandler = handlers.NewRuntimeHandler(a.RuntimeService, a.Logger)
	a.StatusHandler = handlers.NewStatusHandler(a.RuntimeService, a.SchedulerService, a.WSHandler, a.Logger)
}

// Start brings up the background components: task workers, the retention
// janitor and, when enabled, the monitoring scheduler.
func (a *App) Start() error {
	if err := a.TaskManager.Start(a.ctx); err != nil {
		return fmt.Errorf("failed to start task manager: %w", err)
	}

	if a.Config.Scheduler.Enabled {
		if err := a.SchedulerService.Start(a.Config.Scheduler.Schedule); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	return nil
}

// Shutdown stops background components and closes storage
func (a *App) Shutdown() {
	a.SchedulerService.Stop()
	a.TaskManager.Stop()
	a.cancelCtx()

	if err := a.StorageManager.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Storage close failed")
	}

	a.Logger.Info().Msg("Application shutdown complete")
}
