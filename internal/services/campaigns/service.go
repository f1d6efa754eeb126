// Package campaigns provides validated campaign CRUD scoped by user,
// backed by the Badger stores.
package campaigns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/linklens/internal/common"
	"github.com/ternarybob/linklens/internal/interfaces"
	"github.com/ternarybob/linklens/internal/models"
)

// ErrCampaignNotFound is returned for missing campaigns and for campaigns
// owned by a different user. The two cases are indistinguishable to the
// caller so campaign IDs cannot be probed across users.
var ErrCampaignNotFound = errors.New("campaign not found")

// Service implements validated campaign CRUD. Deletes cascade to the
// campaign's backlink records and SERP rankings.
type Service struct {
	campaigns interfaces.CampaignStorage
	backlinks interfaces.BacklinkStorage
	serp      interfaces.SerpStorage
	validate  *validator.Validate
	logger    arbor.ILogger
}

// NewService creates a campaign service
func NewService(campaigns interfaces.CampaignStorage, backlinks interfaces.BacklinkStorage, serp interfaces.SerpStorage, logger arbor.ILogger) *Service {
	return &Service{
		campaigns: campaigns,
		backlinks: backlinks,
		serp:      serp,
		validate:  validator.New(),
		logger:    logger,
	}
}

// Create validates and stores a new campaign. ID, timestamps and the
// default Live monitoring status are assigned here.
func (s *Service) Create(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
	if campaign.ID == "" {
		campaign.ID = common.NewCampaignID()
	}
	if campaign.MonitoringStatus == "" {
		campaign.MonitoringStatus = models.MonitoringStatusLive
	}

	now := time.Now().UTC()
	campaign.CreatedAt = now
	campaign.UpdatedAt = now

	if err := s.validate.Struct(campaign); err != nil {
		return nil, fmt.Errorf("campaign validation failed: %w", err)
	}

	if err := s.campaigns.StoreCampaign(ctx, campaign); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("campaign_id", campaign.ID).
		Str("client_domain", campaign.ClientDomain).
		Msg("Campaign created")

	return campaign, nil
}

// Get returns a campaign owned by the given user
func (s *Service) Get(ctx context.Context, id, userEmail string) (*models.Campaign, error) {
	campaign, err := s.campaigns.GetCampaign(ctx, id)
	if err != nil {
		return nil, ErrCampaignNotFound
	}
	if campaign.UserEmail != userEmail {
		return nil, ErrCampaignNotFound
	}
	return campaign, nil
}

// List returns the user's campaigns, most recent first
func (s *Service) List(ctx context.Context, userEmail string) ([]*models.Campaign, error) {
	return s.campaigns.ListCampaigns(ctx, userEmail)
}

// ListLive returns every Live campaign regardless of owner. Used by the
// scheduler, which acts across users.
func (s *Service) ListLive(ctx context.Context) ([]*models.Campaign, error) {
	return s.campaigns.ListLiveCampaigns(ctx)
}

// Update applies the non-nil fields of the update to an owned campaign
func (s *Service) Update(ctx context.Context, id, userEmail string, update *models.CampaignUpdate) (*models.Campaign, error) {
	if err := s.validate.Struct(update); err != nil {
		return nil, fmt.Errorf("campaign update validation failed: %w", err)
	}

	campaign, err := s.Get(ctx, id, userEmail)
	if err != nil {
		return nil, err
	}

	applyUpdate(campaign, update)
	campaign.UpdatedAt = time.Now().UTC()

	if err := s.validate.Struct(campaign); err != nil {
		return nil, fmt.Errorf("campaign validation failed: %w", err)
	}

	if err := s.campaigns.StoreCampaign(ctx, campaign); err != nil {
		return nil, err
	}

	return campaign, nil
}

// Delete removes an owned campaign along with its backlink records and
// SERP rankings.
func (s *Service) Delete(ctx context.Context, id, userEmail string) error {
	if _, err := s.Get(ctx, id, userEmail); err != nil {
		return err
	}

	if err := s.backlinks.DeleteRecords(ctx, id); err != nil {
		return fmt.Errorf("failed to delete campaign records: %w", err)
	}
	if err := s.serp.DeleteRankings(ctx, id); err != nil {
		return fmt.Errorf("failed to delete campaign serp rankings: %w", err)
	}
	if err := s.campaigns.DeleteCampaign(ctx, id); err != nil {
		return err
	}

	s.logger.Info().
		Str("campaign_id", id).
		Msg("Campaign deleted")

	return nil
}

func applyUpdate(campaign *models.Campaign, update *models.CampaignUpdate) {
	if update.ClientName != nil {
		campaign.ClientName = *update.ClientName
	}
	if update.CampaignName != nil {
		campaign.CampaignName = *update.CampaignName
	}
	if update.ClientDomain != nil {
		campaign.ClientDomain = *update.ClientDomain
	}
	if update.CampaignURL != nil {
		campaign.CampaignURL = *update.CampaignURL
	}
	if update.LaunchDate != nil {
		campaign.LaunchDate = update.LaunchDate
	}
	if update.MonitoringStatus != nil {
		campaign.MonitoringStatus = *update.MonitoringStatus
	}
	if update.AutoPauseDate != nil {
		campaign.AutoPauseDate = update.AutoPauseDate
	}
	if update.SerpKeywords != nil {
		campaign.SerpKeywords = update.SerpKeywords
	}
	if update.VerificationKeywords != nil {
		campaign.VerificationKeywords = update.VerificationKeywords
	}
	if update.BlacklistDomains != nil {
		campaign.BlacklistDomains = update.BlacklistDomains
	}
}
