package interfaces

import (
	"context"

	"github.com/ternarybob/linklens/internal/models"
)

// CampaignStorage - interface for campaign persistence
type CampaignStorage interface {
	StoreCampaign(ctx context.Context, campaign *models.Campaign) error
	GetCampaign(ctx context.Context, id string) (*models.Campaign, error)
	ListCampaigns(ctx context.Context, userEmail string) ([]*models.Campaign, error)
	ListLiveCampaigns(ctx context.Context) ([]*models.Campaign, error)
	DeleteCampaign(ctx context.Context, id string) error
	CountCampaigns(ctx context.Context) (int, error)
}

// BacklinkRecordFilter narrows record queries; zero values mean "any"
type BacklinkRecordFilter struct {
	CoverageStatus  models.CoverageStatus
	LinkDestination models.LinkDestination
	MinDomainRating int
	SourceAPI       string
}

// BacklinkStorage - interface for canonical record persistence.
// Upserts are keyed by (campaign, normalized source, normalized destination)
// so concurrent re-aggregation of the same campaign converges.
type BacklinkStorage interface {
	UpsertRecords(ctx context.Context, campaignID string, records []*models.BacklinkRecord) error
	QueryRecords(ctx context.Context, campaignID string, filter BacklinkRecordFilter) ([]*models.BacklinkRecord, error)
	DeleteRecords(ctx context.Context, campaignID string) error
	CountRecords(ctx context.Context, campaignID string) (int, error)
}

// SerpStorage - interface for SERP ranking persistence
type SerpStorage interface {
	StoreRankings(ctx context.Context, rankings []*models.SerpRanking) error
	GetRankings(ctx context.Context, campaignID string) ([]*models.SerpRanking, error)
	DeleteRankings(ctx context.Context, campaignID string) error
	CountRankings(ctx context.Context, campaignID string) (int, error)
}

// TaskStorage - interface for task snapshot checkpoints. In-memory state is
// authoritative while the process lives; snapshots make terminal tasks
// queryable after restart. Exactly-once execution across restarts is not
// guaranteed.
type TaskStorage interface {
	SaveSnapshot(ctx context.Context, snapshot *models.TaskSnapshot) error
	GetSnapshot(ctx context.Context, taskID string) (*models.TaskSnapshot, error)
	ListSnapshots(ctx context.Context) ([]*models.TaskSnapshot, error)
	DeleteSnapshot(ctx context.Context, taskID string) error
}
