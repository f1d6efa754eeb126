package server

import (
	"net/http"

	"github.com/ternarybob/linklens/internal/handlers"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route (task events + filtered logs)
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Tasks (async orchestrator)
	mux.HandleFunc("/api/tasks", s.handleTasksRoute)
	mux.HandleFunc("/api/tasks/", s.handleTaskRoutes) // /{id}, /{id}/result, /{id}/cancel

	// API routes - Campaigns
	mux.HandleFunc("/api/campaigns", s.handleCampaignsRoute)
	mux.HandleFunc("/api/campaigns/", s.handleCampaignRoutes) // /{id} and subresources

	// API routes - Cross-campaign summary
	mux.HandleFunc("/api/summary", s.app.SummaryHandler.GetAggregateSummaryHandler)

	// API routes - Runtime configuration (mock/live toggle)
	mux.HandleFunc("/api/runtime", s.app.RuntimeHandler.RuntimeHandler)

	// API routes - Logs
	mux.HandleFunc("/api/logs/recent", s.app.WSHandler.GetRecentLogsHandler)

	// API routes - System
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler)
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleTasksRoute routes /api/tasks requests (list and create)
func (s *Server) handleTasksRoute(w http.ResponseWriter, r *http.Request) {
	RouteResourceCollection(w, r,
		s.app.TaskHandler.ListTasksHandler,
		s.app.TaskHandler.CreateTaskHandler,
	)
}

// handleTaskRoutes routes /api/tasks/{id} requests and subpaths
func (s *Server) handleTaskRoutes(w http.ResponseWriter, r *http.Request) {
	segments := handlers.PathSegments(r, "/api/tasks/")
	if len(segments) == 0 {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	taskID := segments[0]

	if len(segments) == 1 {
		if r.Method != "GET" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.app.TaskHandler.GetTaskHandler(w, r, taskID)
		return
	}

	switch segments[1] {
	case "result":
		if r.Method != "GET" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.app.TaskHandler.GetTaskResultHandler(w, r, taskID)
	case "cancel":
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.app.TaskHandler.CancelTaskHandler(w, r, taskID)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// handleCampaignsRoute routes /api/campaigns requests (list and create)
func (s *Server) handleCampaignsRoute(w http.ResponseWriter, r *http.Request) {
	RouteResourceCollection(w, r,
		s.app.CampaignHandler.ListCampaignsHandler,
		s.app.CampaignHandler.CreateCampaignHandler,
	)
}

// handleCampaignRoutes routes /api/campaigns/{id} requests and subresources
func (s *Server) handleCampaignRoutes(w http.ResponseWriter, r *http.Request) {
	segments := handlers.PathSegments(r, "/api/campaigns/")
	if len(segments) == 0 {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	campaignID := segments[0]

	if len(segments) == 1 {
		RouteResourceItem(w, r,
			func(w http.ResponseWriter, r *http.Request) { s.app.CampaignHandler.GetCampaignHandler(w, r, campaignID) },
			func(w http.ResponseWriter, r *http.Request) { s.app.CampaignHandler.UpdateCampaignHandler(w, r, campaignID) },
			func(w http.ResponseWriter, r *http.Request) { s.app.CampaignHandler.DeleteCampaignHandler(w, r, campaignID) },
		)
		return
	}

	if r.Method != "GET" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch segments[1] {
	case "summary":
		s.app.CampaignHandler.GetSummaryHandler(w, r, campaignID)
	case "records":
		s.app.CampaignHandler.GetRecordsHandler(w, r, campaignID)
	case "serp":
		s.app.CampaignHandler.GetSerpHandler(w, r, campaignID)
	case "risk":
		s.app.CampaignHandler.GetRiskHandler(w, r, campaignID)
	case "report.pdf":
		s.app.CampaignHandler.GetReportHandler(w, r, campaignID)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}
