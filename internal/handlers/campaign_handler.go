package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/linklens/internal/interfaces"
	"github.com/ternarybob/linklens/internal/models"
	"github.com/ternarybob/linklens/internal/services/campaigns"
	"github.com/ternarybob/linklens/internal/services/export"
	"github.com/ternarybob/linklens/internal/services/risk"
	"github.com/ternarybob/linklens/internal/services/summary"
)

// CampaignHandler handles HTTP requests for campaign CRUD and the read-side
// views derived from a campaign's persisted records.
type CampaignHandler struct {
	campaigns *campaigns.Service
	summary   *summary.Service
	risk      *risk.Service
	export    *export.Service
	backlinks interfaces.BacklinkStorage
	serp      interfaces.SerpStorage
	logger    arbor.ILogger
}

// NewCampaignHandler creates a new CampaignHandler
func NewCampaignHandler(
	campaignService *campaigns.Service,
	summaryService *summary.Service,
	riskService *risk.Service,
	exportService *export.Service,
	backlinks interfaces.BacklinkStorage,
	serp interfaces.SerpStorage,
	logger arbor.ILogger,
) *CampaignHandler {
	return &CampaignHandler{
		campaigns: campaignService,
		summary:   summaryService,
		risk:      riskService,
		export:    exportService,
		backlinks: backlinks,
		serp:      serp,
		logger:    logger,
	}
}

// CreateCampaignHandler handles POST /api/campaigns
func (h *CampaignHandler) CreateCampaignHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}
	userEmail, ok := RequireUser(w, r)
	if !ok {
		return
	}

	var campaign models.Campaign
	if err := DecodeJSON(r, &campaign); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	campaign.UserEmail = userEmail

	created, err := h.campaigns.Create(r.Context(), &campaign)
	if err != nil {
		h.writeCampaignError(w, err)
		return
	}

	h.logger.Info().
		Str("campaign_id", created.ID).
		Str("client_domain", created.ClientDomain).
		Msg("Campaign created via API")

	WriteJSON(w, http.StatusCreated, created)
}

// ListCampaignsHandler handles GET /api/campaigns
func (h *CampaignHandler) ListCampaignsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	userEmail, ok := RequireUser(w, r)
	if !ok {
		return
	}

	list, err := h.campaigns.List(r.Context(), userEmail)
	if err != nil {
		h.writeCampaignError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"campaigns": list,
		"count":     len(list),
	})
}

// GetCampaignHandler handles GET /api/campaigns/{id}
func (h *CampaignHandler) GetCampaignHandler(w http.ResponseWriter, r *http.Request, campaignID string) {
	userEmail, ok := RequireUser(w, r)
	if !ok {
		return
	}

	campaign, err := h.campaigns.Get(r.Context(), campaignID, userEmail)
	if err != nil {
		h.writeCampaignError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, campaign)
}

// UpdateCampaignHandler handles PUT /api/campaigns/{id}
func (h *CampaignHandler) UpdateCampaignHandler(w http.ResponseWriter, r *http.Request, campaignID string) {
	userEmail, ok := RequireUser(w, r)
	if !ok {
		return
	}

	var update models.CampaignUpdate
	if err := DecodeJSON(r, &update); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	updated, err := h.campaigns.Update(r.Context(), campaignID, userEmail, &update)
	if err != nil {
		h.writeCampaignError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, updated)
}

// DeleteCampaignHandler handles DELETE /api/campaigns/{id}
func (h *CampaignHandler) DeleteCampaignHandler(w http.ResponseWriter, r *http.Request, campaignID string) {
	userEmail, ok := RequireUser(w, r)
	if !ok {
		return
	}

	if err := h.campaigns.Delete(r.Context(), campaignID, userEmail); err != nil {
		h.writeCampaignError(w, err)
		return
	}

	h.logger.Info().
		Str("campaign_id", campaignID).
		Msg("Campaign deleted via API")

	WriteSuccess(w, "Campaign deleted")
}

// GetSummaryHandler handles GET /api/campaigns/{id}/summary
func (h *CampaignHandler) GetSummaryHandler(w http.ResponseWriter, r *http.Request, campaignID string) {
	userEmail, ok := RequireUser(w, r)
	if !ok {
		return
	}

	if _, err := h.campaigns.Get(r.Context(), campaignID, userEmail); err != nil {
		h.writeCampaignError(w, err)
		return
	}

	coverageSummary, err := h.summary.Summarize(r.Context(), campaignID)
	if err != nil {
		h.writeCampaignError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, coverageSummary)
}

// GetRecordsHandler handles GET /api/campaigns/{id}/records with optional
// status, destination, min_dr and source_api query filters
func (h *CampaignHandler) GetRecordsHandler(w http.ResponseWriter, r *http.Request, campaignID string) {
	userEmail, ok := RequireUser(w, r)
	if !ok {
		return
	}

	if _, err := h.campaigns.Get(r.Context(), campaignID, userEmail); err != nil {
		h.writeCampaignError(w, err)
		return
	}

	filter := interfaces.BacklinkRecordFilter{
		CoverageStatus:  models.CoverageStatus(r.URL.Query().Get("status")),
		LinkDestination: models.LinkDestination(r.URL.Query().Get("destination")),
		SourceAPI:       r.URL.Query().Get("source_api"),
	}
	if minDR := r.URL.Query().Get("min_dr"); minDR != "" {
		if dr, err := strconv.Atoi(minDR); err == nil && dr > 0 {
			filter.MinDomainRating = dr
		}
	}

	records, err := h.backlinks.QueryRecords(r.Context(), campaignID, filter)
	if err != nil {
		h.writeCampaignError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"campaign_id": campaignID,
		"records":     records,
		"count":       len(records),
	})
}

// GetSerpHandler handles GET /api/campaigns/{id}/serp
func (h *CampaignHandler) GetSerpHandler(w http.ResponseWriter, r *http.Request, campaignID string) {
	userEmail, ok := RequireUser(w, r)
	if !ok {
		return
	}

	if _, err := h.campaigns.Get(r.Context(), campaignID, userEmail); err != nil {
		h.writeCampaignError(w, err)
		return
	}

	rankings, err := h.serp.GetRankings(r.Context(), campaignID)
	if err != nil {
		h.writeCampaignError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"campaign_id": campaignID,
		"rankings":    rankings,
		"count":       len(rankings),
	})
}

// GetRiskHandler handles GET /api/campaigns/{id}/risk
func (h *CampaignHandler) GetRiskHandler(w http.ResponseWriter, r *http.Request, campaignID string) {
	userEmail, ok := RequireUser(w, r)
	if !ok {
		return
	}

	if _, err := h.campaigns.Get(r.Context(), campaignID, userEmail); err != nil {
		h.writeCampaignError(w, err)
		return
	}

	records, err := h.backlinks.QueryRecords(r.Context(), campaignID, interfaces.BacklinkRecordFilter{})
	if err != nil {
		h.writeCampaignError(w, err)
		return
	}

	assessment := h.risk.Assess(records)
	WriteJSON(w, http.StatusOK, assessment)
}

// GetReportHandler handles GET /api/campaigns/{id}/report.pdf
func (h *CampaignHandler) GetReportHandler(w http.ResponseWriter, r *http.Request, campaignID string) {
	userEmail, ok := RequireUser(w, r)
	if !ok {
		return
	}

	campaign, err := h.campaigns.Get(r.Context(), campaignID, userEmail)
	if err != nil {
		h.writeCampaignError(w, err)
		return
	}

	coverageSummary, err := h.summary.Summarize(r.Context(), campaignID)
	if err != nil {
		h.writeCampaignError(w, err)
		return
	}

	records, err := h.backlinks.QueryRecords(r.Context(), campaignID, interfaces.BacklinkRecordFilter{})
	if err != nil {
		h.writeCampaignError(w, err)
		return
	}

	pdfBytes, err := h.export.CoverageReport(campaign, coverageSummary, records, h.risk.Assess(records))
	if err != nil {
		h.logger.Error().Err(err).Str("campaign_id", campaignID).Msg("Report generation failed")
		WriteError(w, http.StatusInternalServerError, "Failed to generate report")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", campaignID+"-coverage.pdf"))
	w.WriteHeader(http.StatusOK)
	w.Write(pdfBytes)
}

// writeCampaignError maps campaign service errors onto HTTP status codes
func (h *CampaignHandler) writeCampaignError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, campaigns.ErrCampaignNotFound):
		WriteError(w, http.StatusNotFound, "Campaign not found")
	case errors.As(err, &validationErrs):
		WriteError(w, http.StatusBadRequest, "Validation failed: "+validationErrs.Error())
	default:
		h.logger.Error().Err(err).Msg("Campaign operation failed")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}
