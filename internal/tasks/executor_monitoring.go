package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/linklens/internal/interfaces"
	"github.com/ternarybob/linklens/internal/models"
)

// SchedulerUserEmail is the synthetic identity scheduled tasks run under.
// Monitoring tasks created by this user span every Live campaign; tasks
// created by a real user cover only that user's Live campaigns.
const SchedulerUserEmail = "scheduler@linklens.internal"

// MonitoringExecutor runs scheduled_monitoring tasks: re-analyze Live
// campaigns and enforce auto-pause dates.
type MonitoringExecutor struct {
	campaigns interfaces.CampaignService
	analysis  *AnalysisExecutor
	logger    arbor.ILogger
}

// NewMonitoringExecutor creates the scheduled monitoring executor
func NewMonitoringExecutor(campaigns interfaces.CampaignService, analysisExec *AnalysisExecutor, logger arbor.ILogger) *MonitoringExecutor {
	return &MonitoringExecutor{
		campaigns: campaigns,
		analysis:  analysisExec,
		logger:    logger,
	}
}

// Type returns the task type this executor handles
func (e *MonitoringExecutor) Type() models.TaskType {
	return models.TaskTypeScheduledMonitoring
}

// Execute analyzes every in-scope Live campaign. One failing campaign is
// recorded and skipped; the run only fails when no campaign succeeds.
func (e *MonitoringExecutor) Execute(ctx context.Context, task *models.AnalysisTask, progress func(float64)) (map[string]interface{}, error) {
	campaigns, err := e.liveCampaigns(ctx, task.UserEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to list live campaigns: %w", err)
	}
	progress(5)

	if len(campaigns) == 0 {
		return map[string]interface{}{
			"campaigns_analyzed": 0,
			"campaigns_paused":   0,
		}, nil
	}

	analyzed := 0
	paused := 0
	failures := make(map[string]string)
	now := time.Now().UTC()

	for i, campaign := range campaigns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if campaign.AutoPauseDate != nil && campaign.AutoPauseDate.Before(now) {
			if err := e.pauseCampaign(ctx, campaign); err != nil {
				failures[campaign.ID] = err.Error()
			} else {
				paused++
			}
			continue
		}

		if _, err := e.analysis.analyzeCampaign(ctx, campaign, func(float64) {}); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.logger.Warn().
				Str("campaign_id", campaign.ID).
				Err(err).
				Msg("Scheduled analysis failed for campaign")
			failures[campaign.ID] = err.Error()
			continue
		}
		analyzed++

		progress(5 + float64(i+1)/float64(len(campaigns))*95)
	}

	if analyzed == 0 && paused == 0 && len(failures) > 0 {
		return nil, fmt.Errorf("all %d campaigns failed analysis", len(failures))
	}

	result := map[string]interface{}{
		"campaigns_analyzed": analyzed,
		"campaigns_paused":   paused,
	}
	if len(failures) > 0 {
		result["failures"] = failures
	}
	return result, nil
}

// liveCampaigns resolves the campaign scope for the requesting identity
func (e *MonitoringExecutor) liveCampaigns(ctx context.Context, userEmail string) ([]*models.Campaign, error) {
	if userEmail == SchedulerUserEmail {
		return e.campaigns.ListLive(ctx)
	}

	all, err := e.campaigns.List(ctx, userEmail)
	if err != nil {
		return nil, err
	}
	var live []*models.Campaign
	for _, campaign := range all {
		if campaign.IsLive() {
			live = append(live, campaign)
		}
	}
	return live, nil
}

// pauseCampaign flips a campaign past its auto-pause date to Paused
func (e *MonitoringExecutor) pauseCampaign(ctx context.Context, campaign *models.Campaign) error {
	status := models.MonitoringStatusPaused
	_, err := e.campaigns.Update(ctx, campaign.ID, campaign.UserEmail, &models.CampaignUpdate{
		MonitoringStatus: &status,
	})
	if err == nil {
		e.logger.Info().
			Str("campaign_id", campaign.ID).
			Msg("Campaign auto-paused")
	}
	return err
}
