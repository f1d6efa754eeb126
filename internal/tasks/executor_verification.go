package tasks

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/linklens/internal/interfaces"
	"github.com/ternarybob/linklens/internal/models"
	"github.com/ternarybob/linklens/internal/services/content"
)

const (
	// verifiedFloorConfidence is the minimum confidence assigned when a
	// direct link to the target is found on the source page itself
	verifiedFloorConfidence = 75

	// keywordHitBonus is added per verification keyword found on the page
	keywordHitBonus = 5
)

// VerificationExecutor runs content_verification tasks: fetch the source
// pages behind a campaign's potential records and upgrade the ones whose
// pages actually link at the target.
type VerificationExecutor struct {
	campaigns interfaces.CampaignService
	backlinks interfaces.BacklinkStorage
	content   *content.Service
	maxPages  int
	logger    arbor.ILogger
}

// NewVerificationExecutor creates the content verification executor
func NewVerificationExecutor(campaigns interfaces.CampaignService, backlinks interfaces.BacklinkStorage, contentSvc *content.Service, maxPages int, logger arbor.ILogger) *VerificationExecutor {
	if maxPages <= 0 {
		maxPages = 25
	}
	return &VerificationExecutor{
		campaigns: campaigns,
		backlinks: backlinks,
		content:   contentSvc,
		maxPages:  maxPages,
		logger:    logger,
	}
}

// Type returns the task type this executor handles
func (e *VerificationExecutor) Type() models.TaskType {
	return models.TaskTypeContentVerification
}

// Execute fetches each candidate page, rescoring records whose pages show
// keyword coverage and upgrading records whose pages link at the target
// directly. Dead pages are counted, not fatal.
func (e *VerificationExecutor) Execute(ctx context.Context, task *models.AnalysisTask, progress func(float64)) (map[string]interface{}, error) {
	campaign, err := e.campaigns.Get(ctx, task.CampaignID, task.UserEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}
	progress(5)

	records, err := e.backlinks.QueryRecords(ctx, campaign.ID, interfaces.BacklinkRecordFilter{
		CoverageStatus: models.CoveragePotential,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query potential records: %w", err)
	}

	if len(records) > e.maxPages {
		records = records[:e.maxPages]
	}
	progress(10)

	target := campaign.TargetURL()

	checked := 0
	fetched := 0
	upgraded := 0
	var changed []*models.BacklinkRecord

	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		verification := e.content.VerifyPage(ctx, record.SourceURL, target, campaign.VerificationKeywords)
		checked++
		if verification.Fetched {
			fetched++
		}

		if applyVerification(record, verification) {
			if verification.DirectLink {
				upgraded++
			}
			changed = append(changed, record)
		}

		progress(10 + float64(i+1)/float64(len(records))*80)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(changed) > 0 {
		if err := e.backlinks.UpsertRecords(ctx, campaign.ID, changed); err != nil {
			return nil, fmt.Errorf("failed to persist verified records: %w", err)
		}
	}

	return map[string]interface{}{
		"campaign_id":     campaign.ID,
		"pages_checked":   checked,
		"pages_fetched":   fetched,
		"records_updated": len(changed),
		"upgraded":        upgraded,
	}, nil
}

// applyVerification folds a page verification into a record, reporting
// whether anything changed. Confidence only ever moves up.
func applyVerification(record *models.BacklinkRecord, verification content.PageVerification) bool {
	changed := false

	if verification.DirectLink {
		if record.CoverageStatus != models.CoverageVerified {
			record.CoverageStatus = models.CoverageVerified
			changed = true
		}
		if record.ConfidenceScore < verifiedFloorConfidence {
			record.ConfidenceScore = verifiedFloorConfidence
			changed = true
		}
	}

	if hits := len(verification.KeywordHits); hits > 0 {
		score := record.ConfidenceScore + hits*keywordHitBonus
		if score > 100 {
			score = 100
		}
		if score > record.ConfidenceScore {
			record.ConfidenceScore = score
			changed = true
		}
	}

	return changed
}
