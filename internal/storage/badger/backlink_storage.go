package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/linklens/internal/interfaces"
	"github.com/ternarybob/linklens/internal/models"
)

// BacklinkStorage implements the BacklinkStorage interface for Badger
type BacklinkStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewBacklinkStorage creates a new BacklinkStorage instance
func NewBacklinkStorage(db *BadgerDB, logger arbor.ILogger) interfaces.BacklinkStorage {
	return &BacklinkStorage{
		db:     db,
		logger: logger,
	}
}

// UpsertRecords writes canonical records keyed by (campaign, source,
// destination). Re-running aggregation for a campaign overwrites matching
// keys, so concurrent analyses converge rather than duplicate.
func (s *BacklinkStorage) UpsertRecords(ctx context.Context, campaignID string, records []*models.BacklinkRecord) error {
	for _, record := range records {
		if record.Key == "" {
			record.Key = models.RecordKey(campaignID, record.SourceURL, record.DestinationURL)
		}
		record.CampaignID = campaignID
		record.UpdatedAt = time.Now().UTC()

		if err := s.db.Store().Upsert(record.Key, record); err != nil {
			return fmt.Errorf("failed to upsert backlink record %s: %w", record.Key, err)
		}
	}

	s.logger.Debug().
		Str("campaign_id", campaignID).
		Int("records", len(records)).
		Msg("Upserted backlink records")
	return nil
}

func (s *BacklinkStorage) QueryRecords(ctx context.Context, campaignID string, filter interfaces.BacklinkRecordFilter) ([]*models.BacklinkRecord, error) {
	query := badgerhold.Where("CampaignID").Eq(campaignID)
	if filter.CoverageStatus != "" {
		query = query.And("CoverageStatus").Eq(filter.CoverageStatus)
	}
	if filter.LinkDestination != "" {
		query = query.And("LinkDestination").Eq(filter.LinkDestination)
	}
	if filter.MinDomainRating > 0 {
		query = query.And("DomainRating").Ge(filter.MinDomainRating)
	}
	if filter.SourceAPI != "" {
		query = query.And("SourceAPI").Eq(filter.SourceAPI)
	}

	var records []models.BacklinkRecord
	if err := s.db.Store().Find(&records, query.SortBy("ConfidenceScore").Reverse()); err != nil {
		return nil, fmt.Errorf("failed to query backlink records: %w", err)
	}

	result := make([]*models.BacklinkRecord, len(records))
	for i := range records {
		result[i] = &records[i]
	}
	return result, nil
}

func (s *BacklinkStorage) DeleteRecords(ctx context.Context, campaignID string) error {
	if err := s.db.Store().DeleteMatching(&models.BacklinkRecord{}, badgerhold.Where("CampaignID").Eq(campaignID)); err != nil {
		return fmt.Errorf("failed to delete backlink records: %w", err)
	}
	return nil
}

func (s *BacklinkStorage) CountRecords(ctx context.Context, campaignID string) (int, error) {
	count, err := s.db.Store().Count(&models.BacklinkRecord{}, badgerhold.Where("CampaignID").Eq(campaignID))
	if err != nil {
		return 0, fmt.Errorf("failed to count backlink records: %w", err)
	}
	return int(count), nil
}
