package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/linklens/internal/interfaces"
	"github.com/ternarybob/linklens/internal/models"
	"github.com/ternarybob/linklens/internal/services/analysis"
	"github.com/ternarybob/linklens/internal/services/risk"
)

// AnalysisExecutor runs campaign_analysis tasks: fetch both providers in
// parallel, aggregate, persist, track SERP positions and assess risk.
type AnalysisExecutor struct {
	campaigns interfaces.CampaignService
	gateway   interfaces.ProviderGateway
	analysis  *analysis.Service
	risk      *risk.Service
	backlinks interfaces.BacklinkStorage
	serp      interfaces.SerpStorage
	serpTopN  int
	logger    arbor.ILogger
}

// NewAnalysisExecutor creates the campaign analysis executor
func NewAnalysisExecutor(campaigns interfaces.CampaignService, gateway interfaces.ProviderGateway, analysisSvc *analysis.Service, riskSvc *risk.Service, backlinks interfaces.BacklinkStorage, serp interfaces.SerpStorage, serpTopN int, logger arbor.ILogger) *AnalysisExecutor {
	if serpTopN <= 0 {
		serpTopN = 20
	}
	return &AnalysisExecutor{
		campaigns: campaigns,
		gateway:   gateway,
		analysis:  analysisSvc,
		risk:      riskSvc,
		backlinks: backlinks,
		serp:      serp,
		serpTopN:  serpTopN,
		logger:    logger,
	}
}

// Type returns the task type this executor handles
func (e *AnalysisExecutor) Type() models.TaskType {
	return models.TaskTypeCampaignAnalysis
}

// Execute runs one campaign analysis. Cancellation is checked at every
// phase boundary: before the provider calls, before persistence and before
// SERP tracking.
func (e *AnalysisExecutor) Execute(ctx context.Context, task *models.AnalysisTask, progress func(float64)) (map[string]interface{}, error) {
	campaign, err := e.campaigns.Get(ctx, task.CampaignID, task.UserEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}

	return e.analyzeCampaign(ctx, campaign, progress)
}

// analyzeCampaign is the analysis pipeline shared with scheduled monitoring
func (e *AnalysisExecutor) analyzeCampaign(ctx context.Context, campaign *models.Campaign, progress func(float64)) (map[string]interface{}, error) {
	progress(5)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := e.fetchProviders(ctx, campaign.TargetURL())
	progress(40)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, diag := e.analysis.Aggregate(campaign, results)
	progress(60)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := e.backlinks.UpsertRecords(ctx, campaign.ID, records); err != nil {
		return nil, fmt.Errorf("failed to persist records: %w", err)
	}
	progress(70)

	serpCount, err := e.trackSerpRankings(ctx, campaign)
	if err != nil {
		return nil, err
	}
	progress(85)

	assessment := e.risk.Assess(records)

	summary := countCoverage(records)
	statuses := make(map[string]string, len(diag.ProviderStatuses))
	for provider, status := range diag.ProviderStatuses {
		statuses[string(provider)] = string(status)
	}

	return map[string]interface{}{
		"campaign_id":        campaign.ID,
		"total_results":      len(records),
		"verified_coverage":  summary.verified,
		"potential_coverage": summary.potential,
		"skipped_entries":    diag.SkippedEntries,
		"blacklisted":        diag.BlacklistedEntries,
		"provider_statuses":  statuses,
		"serp_rankings":      serpCount,
		"risk_alert_count":   len(assessment.Alerts),
	}, nil
}

// fetchProviders queries every provider in parallel. The gateway handles
// failures per provider, so every goroutine returns a usable result.
func (e *AnalysisExecutor) fetchProviders(ctx context.Context, target string) []models.ProviderQueryResult {
	providers := models.AllProviders()
	results := make([]models.ProviderQueryResult, len(providers))

	var wg sync.WaitGroup
	for i, provider := range providers {
		wg.Add(1)
		go func(i int, provider models.Provider) {
			defer wg.Done()
			results[i] = e.gateway.FetchBacklinks(ctx, provider, target)
		}(i, provider)
	}
	wg.Wait()

	return results
}

// trackSerpRankings fetches and stores positions for the campaign's SERP
// keywords. A rate-limited SERP fetch skips the remaining keywords instead
// of failing the task.
func (e *AnalysisExecutor) trackSerpRankings(ctx context.Context, campaign *models.Campaign) (int, error) {
	if len(campaign.SerpKeywords) == 0 {
		return 0, nil
	}

	if err := e.serp.DeleteRankings(ctx, campaign.ID); err != nil {
		return 0, fmt.Errorf("failed to clear previous serp rankings: %w", err)
	}

	stored := 0
	for _, keyword := range campaign.SerpKeywords {
		if err := ctx.Err(); err != nil {
			return stored, err
		}

		rankings, err := e.gateway.FetchSerp(ctx, keyword, e.serpTopN)
		if err != nil {
			e.logger.Warn().
				Str("keyword", keyword).
				Err(err).
				Msg("SERP fetch failed, skipping remaining keywords")
			break
		}

		for _, ranking := range rankings {
			ranking.CampaignID = campaign.ID
		}
		if err := e.serp.StoreRankings(ctx, rankings); err != nil {
			return stored, fmt.Errorf("failed to store serp rankings: %w", err)
		}
		stored += len(rankings)
	}

	return stored, nil
}

type coverageCounts struct {
	verified  int
	potential int
}

func countCoverage(records []*models.BacklinkRecord) coverageCounts {
	var counts coverageCounts
	for _, record := range records {
		switch record.CoverageStatus {
		case models.CoverageVerified:
			counts.verified++
		case models.CoveragePotential:
			counts.potential++
		}
	}
	return counts
}
