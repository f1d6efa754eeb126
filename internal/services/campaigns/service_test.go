package campaigns

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/linklens/internal/interfaces"
	"github.com/ternarybob/linklens/internal/models"
)

type memCampaignStore struct {
	campaigns map[string]*models.Campaign
}

func newMemCampaignStore() *memCampaignStore {
	return &memCampaignStore{campaigns: make(map[string]*models.Campaign)}
}

func (m *memCampaignStore) StoreCampaign(_ context.Context, c *models.Campaign) error {
	clone := *c
	m.campaigns[c.ID] = &clone
	return nil
}
func (m *memCampaignStore) GetCampaign(_ context.Context, id string) (*models.Campaign, error) {
	c, ok := m.campaigns[id]
	if !ok {
		return nil, ErrCampaignNotFound
	}
	clone := *c
	return &clone, nil
}
func (m *memCampaignStore) ListCampaigns(_ context.Context, userEmail string) ([]*models.Campaign, error) {
	var out []*models.Campaign
	for _, c := range m.campaigns {
		if c.UserEmail == userEmail {
			out = append(out, c)
		}
	}
	return out, nil
}
func (m *memCampaignStore) ListLiveCampaigns(_ context.Context) ([]*models.Campaign, error) {
	var out []*models.Campaign
	for _, c := range m.campaigns {
		if c.IsLive() {
			out = append(out, c)
		}
	}
	return out, nil
}
func (m *memCampaignStore) DeleteCampaign(_ context.Context, id string) error {
	delete(m.campaigns, id)
	return nil
}
func (m *memCampaignStore) CountCampaigns(_ context.Context) (int, error) {
	return len(m.campaigns), nil
}

type cascadeTracker struct {
	deletedRecords  []string
	deletedRankings []string
}

func (c *cascadeTracker) UpsertRecords(_ context.Context, _ string, _ []*models.BacklinkRecord) error {
	return nil
}
func (c *cascadeTracker) QueryRecords(_ context.Context, _ string, _ interfaces.BacklinkRecordFilter) ([]*models.BacklinkRecord, error) {
	return nil, nil
}
func (c *cascadeTracker) DeleteRecords(_ context.Context, campaignID string) error {
	c.deletedRecords = append(c.deletedRecords, campaignID)
	return nil
}
func (c *cascadeTracker) CountRecords(_ context.Context, _ string) (int, error) { return 0, nil }

func (c *cascadeTracker) StoreRankings(_ context.Context, _ []*models.SerpRanking) error { return nil }
func (c *cascadeTracker) GetRankings(_ context.Context, _ string) ([]*models.SerpRanking, error) {
	return nil, nil
}
func (c *cascadeTracker) DeleteRankings(_ context.Context, campaignID string) error {
	c.deletedRankings = append(c.deletedRankings, campaignID)
	return nil
}
func (c *cascadeTracker) CountRankings(_ context.Context, _ string) (int, error) { return 0, nil }

func validCampaign() *models.Campaign {
	return &models.Campaign{
		UserEmail:    "owner@example.com",
		ClientName:   "Acme",
		CampaignName: "Autumn Launch",
		ClientDomain: "acme.io",
	}
}

func newTestService() (*Service, *cascadeTracker) {
	tracker := &cascadeTracker{}
	svc := NewService(newMemCampaignStore(), tracker, tracker, arbor.NewLogger())
	return svc, tracker
}

func TestCreate_AssignsDefaults(t *testing.T) {
	svc, _ := newTestService()

	created, err := svc.Create(context.Background(), validCampaign())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.MonitoringStatusLive, created.MonitoringStatus)
	assert.False(t, created.CreatedAt.IsZero())
}

func TestCreate_RejectsInvalidCampaign(t *testing.T) {
	svc, _ := newTestService()

	campaign := validCampaign()
	campaign.UserEmail = "not-an-email"
	_, err := svc.Create(context.Background(), campaign)
	assert.Error(t, err)

	campaign = validCampaign()
	campaign.ClientDomain = ""
	_, err = svc.Create(context.Background(), campaign)
	assert.Error(t, err)
}

func TestGet_ScopedByUser(t *testing.T) {
	svc, _ := newTestService()

	created, err := svc.Create(context.Background(), validCampaign())
	require.NoError(t, err)

	found, err := svc.Get(context.Background(), created.ID, "owner@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = svc.Get(context.Background(), created.ID, "intruder@example.com")
	assert.ErrorIs(t, err, ErrCampaignNotFound)

	_, err = svc.Get(context.Background(), "camp_missing", "owner@example.com")
	assert.ErrorIs(t, err, ErrCampaignNotFound)
}

func TestUpdate_AppliesOnlyProvidedFields(t *testing.T) {
	svc, _ := newTestService()

	created, err := svc.Create(context.Background(), validCampaign())
	require.NoError(t, err)

	paused := models.MonitoringStatusPaused
	name := "Winter Launch"
	updated, err := svc.Update(context.Background(), created.ID, "owner@example.com", &models.CampaignUpdate{
		CampaignName:     &name,
		MonitoringStatus: &paused,
	})
	require.NoError(t, err)

	assert.Equal(t, "Winter Launch", updated.CampaignName)
	assert.Equal(t, models.MonitoringStatusPaused, updated.MonitoringStatus)
	// Untouched fields survive
	assert.Equal(t, "acme.io", updated.ClientDomain)
	assert.Equal(t, "Acme", updated.ClientName)
}

func TestDelete_CascadesToRecordsAndRankings(t *testing.T) {
	svc, tracker := newTestService()

	created, err := svc.Create(context.Background(), validCampaign())
	require.NoError(t, err)

	err = svc.Delete(context.Background(), created.ID, "owner@example.com")
	require.NoError(t, err)

	assert.Equal(t, []string{created.ID}, tracker.deletedRecords)
	assert.Equal(t, []string{created.ID}, tracker.deletedRankings)

	_, err = svc.Get(context.Background(), created.ID, "owner@example.com")
	assert.ErrorIs(t, err, ErrCampaignNotFound)
}

func TestDelete_ForeignCampaignRefused(t *testing.T) {
	svc, tracker := newTestService()

	created, err := svc.Create(context.Background(), validCampaign())
	require.NoError(t, err)

	err = svc.Delete(context.Background(), created.ID, "intruder@example.com")
	assert.ErrorIs(t, err, ErrCampaignNotFound)
	assert.Empty(t, tracker.deletedRecords)
}
