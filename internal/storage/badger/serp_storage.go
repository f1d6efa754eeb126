package badger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/linklens/internal/interfaces"
	"github.com/ternarybob/linklens/internal/models"
)

// SerpStorage implements the SerpStorage interface for Badger
type SerpStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSerpStorage creates a new SerpStorage instance
func NewSerpStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SerpStorage {
	return &SerpStorage{
		db:     db,
		logger: logger,
	}
}

func (s *SerpStorage) StoreRankings(ctx context.Context, rankings []*models.SerpRanking) error {
	for _, ranking := range rankings {
		if ranking.ID == "" {
			ranking.ID = "serp_" + uuid.New().String()
		}
		if err := s.db.Store().Upsert(ranking.ID, ranking); err != nil {
			return fmt.Errorf("failed to save serp ranking: %w", err)
		}
	}
	return nil
}

func (s *SerpStorage) GetRankings(ctx context.Context, campaignID string) ([]*models.SerpRanking, error) {
	var rankings []models.SerpRanking
	query := badgerhold.Where("CampaignID").Eq(campaignID).SortBy("CheckDate").Reverse()
	if err := s.db.Store().Find(&rankings, query); err != nil {
		return nil, fmt.Errorf("failed to get serp rankings: %w", err)
	}

	result := make([]*models.SerpRanking, len(rankings))
	for i := range rankings {
		result[i] = &rankings[i]
	}
	return result, nil
}

func (s *SerpStorage) DeleteRankings(ctx context.Context, campaignID string) error {
	if err := s.db.Store().DeleteMatching(&models.SerpRanking{}, badgerhold.Where("CampaignID").Eq(campaignID)); err != nil {
		return fmt.Errorf("failed to delete serp rankings: %w", err)
	}
	return nil
}

func (s *SerpStorage) CountRankings(ctx context.Context, campaignID string) (int, error) {
	count, err := s.db.Store().Count(&models.SerpRanking{}, badgerhold.Where("CampaignID").Eq(campaignID))
	if err != nil {
		return 0, fmt.Errorf("failed to count serp rankings: %w", err)
	}
	return int(count), nil
}
