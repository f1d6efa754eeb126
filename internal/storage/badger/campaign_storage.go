package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/linklens/internal/interfaces"
	"github.com/ternarybob/linklens/internal/models"
)

// CampaignStorage implements the CampaignStorage interface for Badger
type CampaignStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCampaignStorage creates a new CampaignStorage instance
func NewCampaignStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CampaignStorage {
	return &CampaignStorage{
		db:     db,
		logger: logger,
	}
}

func (s *CampaignStorage) StoreCampaign(ctx context.Context, campaign *models.Campaign) error {
	if campaign.ID == "" {
		return fmt.Errorf("campaign ID is required")
	}

	if err := s.db.Store().Upsert(campaign.ID, campaign); err != nil {
		return fmt.Errorf("failed to save campaign: %w", err)
	}
	return nil
}

func (s *CampaignStorage) GetCampaign(ctx context.Context, id string) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := s.db.Store().Get(id, &campaign); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("campaign not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return &campaign, nil
}

func (s *CampaignStorage) ListCampaigns(ctx context.Context, userEmail string) ([]*models.Campaign, error) {
	var campaigns []models.Campaign
	query := badgerhold.Where("UserEmail").Eq(userEmail).SortBy("CreatedAt").Reverse()
	if err := s.db.Store().Find(&campaigns, query); err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}

	result := make([]*models.Campaign, len(campaigns))
	for i := range campaigns {
		result[i] = &campaigns[i]
	}
	return result, nil
}

func (s *CampaignStorage) ListLiveCampaigns(ctx context.Context) ([]*models.Campaign, error) {
	var campaigns []models.Campaign
	query := badgerhold.Where("MonitoringStatus").Eq(models.MonitoringStatusLive).SortBy("CreatedAt").Reverse()
	if err := s.db.Store().Find(&campaigns, query); err != nil {
		return nil, fmt.Errorf("failed to list live campaigns: %w", err)
	}

	result := make([]*models.Campaign, len(campaigns))
	for i := range campaigns {
		result[i] = &campaigns[i]
	}
	return result, nil
}

func (s *CampaignStorage) DeleteCampaign(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.Campaign{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return fmt.Errorf("campaign not found: %s", id)
		}
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	return nil
}

func (s *CampaignStorage) CountCampaigns(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Campaign{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count campaigns: %w", err)
	}
	return int(count), nil
}
