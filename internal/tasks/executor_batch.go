package tasks

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/linklens/internal/interfaces"
	"github.com/ternarybob/linklens/internal/models"
	"github.com/ternarybob/linklens/internal/services/analysis"
)

// BatchUpdateExecutor runs batch_update tasks: recompute classification and
// confidence for the stored records of every campaign the user owns,
// without any provider calls. Useful after keyword or blacklist edits.
type BatchUpdateExecutor struct {
	campaigns interfaces.CampaignService
	backlinks interfaces.BacklinkStorage
	analysis  *analysis.Service
	logger    arbor.ILogger
}

// NewBatchUpdateExecutor creates the batch update executor
func NewBatchUpdateExecutor(campaigns interfaces.CampaignService, backlinks interfaces.BacklinkStorage, analysisSvc *analysis.Service, logger arbor.ILogger) *BatchUpdateExecutor {
	return &BatchUpdateExecutor{
		campaigns: campaigns,
		backlinks: backlinks,
		analysis:  analysisSvc,
		logger:    logger,
	}
}

// Type returns the task type this executor handles
func (e *BatchUpdateExecutor) Type() models.TaskType {
	return models.TaskTypeBatchUpdate
}

// Execute reclassifies stored records campaign by campaign, checking for
// cancellation between campaigns.
func (e *BatchUpdateExecutor) Execute(ctx context.Context, task *models.AnalysisTask, progress func(float64)) (map[string]interface{}, error) {
	campaigns, err := e.campaigns.List(ctx, task.UserEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	progress(5)

	scanned := 0
	updated := 0

	for i, campaign := range campaigns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		records, err := e.backlinks.QueryRecords(ctx, campaign.ID, interfaces.BacklinkRecordFilter{})
		if err != nil {
			return nil, fmt.Errorf("failed to query records for campaign %s: %w", campaign.ID, err)
		}
		scanned += len(records)

		changed := e.analysis.Reclassify(campaign, records)
		if changed > 0 {
			var dirty []*models.BacklinkRecord
			for _, record := range records {
				dirty = append(dirty, record)
			}
			if err := e.backlinks.UpsertRecords(ctx, campaign.ID, dirty); err != nil {
				return nil, fmt.Errorf("failed to persist reclassified records: %w", err)
			}
			updated += changed
		}

		progress(5 + float64(i+1)/float64(len(campaigns))*95)
	}

	return map[string]interface{}{
		"campaigns_processed": len(campaigns),
		"records_scanned":     scanned,
		"records_updated":     updated,
	}, nil
}
