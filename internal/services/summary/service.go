// Package summary builds read-side coverage rollups from persisted records.
package summary

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/linklens/internal/interfaces"
	"github.com/ternarybob/linklens/internal/models"
)

// Service recomputes coverage summaries on read. Nothing is cached or
// stored; the persisted records are the single source of truth.
type Service struct {
	campaigns interfaces.CampaignStorage
	backlinks interfaces.BacklinkStorage
	serp      interfaces.SerpStorage
	logger    arbor.ILogger
}

// NewService creates a coverage summary service
func NewService(campaigns interfaces.CampaignStorage, backlinks interfaces.BacklinkStorage, serp interfaces.SerpStorage, logger arbor.ILogger) *Service {
	return &Service{
		campaigns: campaigns,
		backlinks: backlinks,
		serp:      serp,
		logger:    logger,
	}
}

// Summarize builds the coverage rollup for one campaign. A campaign with no
// records yields the zero-value summary, never an error.
func (s *Service) Summarize(ctx context.Context, campaignID string) (*models.CampaignCoverageSummary, error) {
	records, err := s.backlinks.QueryRecords(ctx, campaignID, interfaces.BacklinkRecordFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}

	serpCount, err := s.serp.CountRankings(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to count serp rankings: %w", err)
	}

	result := summarizeRecords(campaignID, records)
	result.SerpRankings = serpCount
	return result, nil
}

// SummarizeAll rolls coverage up across every campaign owned by the user.
// Zero campaigns produce an all-zero aggregate without error.
func (s *Service) SummarizeAll(ctx context.Context, userEmail string) (*models.AggregateCoverageSummary, error) {
	campaigns, err := s.campaigns.ListCampaigns(ctx, userEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}

	aggregate := &models.AggregateCoverageSummary{
		TotalCampaigns: len(campaigns),
	}

	ratingSum := 0.0
	ratedCount := 0

	for _, campaign := range campaigns {
		if campaign.IsLive() {
			aggregate.LiveCampaigns++
		}

		records, err := s.backlinks.QueryRecords(ctx, campaign.ID, interfaces.BacklinkRecordFilter{})
		if err != nil {
			return nil, fmt.Errorf("failed to query records for campaign %s: %w", campaign.ID, err)
		}

		for _, record := range records {
			aggregate.TotalBacklinks++
			switch record.CoverageStatus {
			case models.CoverageVerified:
				aggregate.VerifiedCoverage++
			case models.CoveragePotential:
				aggregate.PotentialCoverage++
			}
			if record.DomainRating > 0 {
				ratingSum += float64(record.DomainRating)
				ratedCount++
			}
		}
	}

	if aggregate.TotalBacklinks > 0 {
		aggregate.OverallVerificationRate = float64(aggregate.VerifiedCoverage) / float64(aggregate.TotalBacklinks) * 100
	}
	if ratedCount > 0 {
		aggregate.AverageDomainRating = ratingSum / float64(ratedCount)
	}

	return aggregate, nil
}

// summarizeRecords computes the per-campaign rollup from a record set
func summarizeRecords(campaignID string, records []*models.BacklinkRecord) *models.CampaignCoverageSummary {
	result := &models.CampaignCoverageSummary{
		CampaignID:           campaignID,
		TotalResults:         len(records),
		DestinationBreakdown: make(map[models.LinkDestination]int),
	}

	ratingSum := 0.0
	ratedCount := 0
	confidenceSum := 0.0

	for _, record := range records {
		switch record.CoverageStatus {
		case models.CoverageVerified:
			result.VerifiedCoverage++
		case models.CoveragePotential:
			result.PotentialCoverage++
		}

		if record.DomainRating > 0 {
			ratingSum += float64(record.DomainRating)
			ratedCount++
		}
		confidenceSum += float64(record.ConfidenceScore)

		if record.LinkDestination != "" {
			result.DestinationBreakdown[record.LinkDestination]++
		}
	}

	if result.TotalResults > 0 {
		result.VerificationRate = float64(result.VerifiedCoverage) / float64(result.TotalResults) * 100
		result.AverageConfidence = confidenceSum / float64(result.TotalResults)
	}
	if ratedCount > 0 {
		result.AverageDomainRating = ratingSum / float64(ratedCount)
	}

	return result
}
