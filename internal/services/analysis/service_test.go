package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/linklens/internal/models"
)

func testCampaign() *models.Campaign {
	return &models.Campaign{
		ID:                   "camp_test",
		UserEmail:            "analyst@example.com",
		ClientName:           "Acme",
		CampaignName:         "Autumn Launch",
		ClientDomain:         "acme.io",
		CampaignURL:          "https://acme.io/launch",
		MonitoringStatus:     models.MonitoringStatusLive,
		VerificationKeywords: []string{"acme", "autumn launch"},
	}
}

func okResult(provider models.Provider, entries ...models.ProviderEntry) models.ProviderQueryResult {
	return models.ProviderQueryResult{
		Provider: provider,
		Status:   models.QueryStatusOK,
		Entries:  entries,
	}
}

func TestAggregate_ClassifiesVerifiedAndPotential(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	campaign := testCampaign()

	results := []models.ProviderQueryResult{
		okResult(models.ProviderAhrefs,
			models.ProviderEntry{
				SourceURL:      "https://news.example.net/story-a",
				DestinationURL: "https://acme.io/launch",
				AnchorText:     "acme",
				DomainRating:   55,
			},
			models.ProviderEntry{
				SourceURL:      "https://blog.sample.io/post-b",
				DestinationURL: "https://other.example.com/page",
				AnchorText:     "the Autumn Launch coverage",
				DomainRating:   30,
			},
			models.ProviderEntry{
				SourceURL:      "https://random.example.org/x",
				DestinationURL: "https://unrelated.example.com/y",
				AnchorText:     "click here",
			},
		),
	}

	records, diag := svc.Aggregate(campaign, results)
	require.Len(t, records, 3)
	assert.Equal(t, 3, diag.TotalEntries)
	assert.Zero(t, diag.SkippedEntries)

	bySource := make(map[string]*models.BacklinkRecord)
	for _, r := range records {
		bySource[r.SourceURL] = r
	}

	verified := bySource["https://news.example.net/story-a"]
	require.NotNil(t, verified)
	assert.Equal(t, models.CoverageVerified, verified.CoverageStatus)

	keyword := bySource["https://blog.sample.io/post-b"]
	require.NotNil(t, keyword)
	assert.Equal(t, models.CoveragePotential, keyword.CoverageStatus)
	assert.Greater(t, keyword.ConfidenceScore, 0)

	unmatched := bySource["https://random.example.org/x"]
	require.NotNil(t, unmatched)
	assert.Equal(t, models.CoveragePotential, unmatched.CoverageStatus)
	assert.Less(t, unmatched.ConfidenceScore, keyword.ConfidenceScore)
}

func TestAggregate_DedupePrefersHigherRatingAndMergesProvenance(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	campaign := testCampaign()

	early := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC)

	results := []models.ProviderQueryResult{
		okResult(models.ProviderAhrefs, models.ProviderEntry{
			SourceURL:      "https://Example.com/article-1/",
			DestinationURL: "https://acme.io/launch",
			DomainRating:   42,
			FirstSeen:      &late,
		}),
		okResult(models.ProviderDataForSEO, models.ProviderEntry{
			SourceURL:      "https://example.com/article-1",
			DestinationURL: "https://acme.io/launch/",
			DomainRating:   60,
			URLRating:      33,
			FirstSeen:      &early,
		}),
	}

	records, diag := svc.Aggregate(campaign, results)
	require.Len(t, records, 1)
	assert.Equal(t, 1, diag.MergedEntries)

	record := records[0]
	assert.Equal(t, 60, record.DomainRating)
	assert.Equal(t, 33, record.URLRating)
	assert.Equal(t, "ahrefs+dataforseo", record.SourceAPI)
	require.NotNil(t, record.FirstSeen)
	assert.Equal(t, early, *record.FirstSeen)
}

func TestAggregate_SkipsMalformedEntries(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	campaign := testCampaign()

	results := []models.ProviderQueryResult{
		okResult(models.ProviderAhrefs,
			models.ProviderEntry{SourceURL: "", DestinationURL: "https://acme.io"},
			models.ProviderEntry{SourceURL: "https://example.com/a", DestinationURL: "  "},
			models.ProviderEntry{SourceURL: "https://example.com/b", DestinationURL: "https://acme.io"},
		),
	}

	records, diag := svc.Aggregate(campaign, results)
	assert.Len(t, records, 1)
	assert.Equal(t, 2, diag.SkippedEntries)
}

func TestAggregate_DropsBlacklistedSources(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	campaign := testCampaign()
	campaign.BlacklistDomains = []string{"spam.com"}

	results := []models.ProviderQueryResult{
		okResult(models.ProviderAhrefs,
			models.ProviderEntry{SourceURL: "https://spam.com/p", DestinationURL: "https://acme.io"},
			models.ProviderEntry{SourceURL: "https://sub.spam.com/q", DestinationURL: "https://acme.io"},
			models.ProviderEntry{SourceURL: "https://clean.example.com/r", DestinationURL: "https://acme.io"},
		),
	}

	records, diag := svc.Aggregate(campaign, results)
	assert.Len(t, records, 1)
	assert.Equal(t, 2, diag.BlacklistedEntries)
	assert.Equal(t, "https://clean.example.com/r", records[0].SourceURL)
}

func TestAggregate_IsIdempotent(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	campaign := testCampaign()

	results := []models.ProviderQueryResult{
		okResult(models.ProviderAhrefs,
			models.ProviderEntry{SourceURL: "https://example.com/a", DestinationURL: "https://acme.io/blog/post", AnchorText: "acme", DomainRating: 40},
			models.ProviderEntry{SourceURL: "https://example.com/b", DestinationURL: "https://acme.io", DomainRating: 20},
		),
		okResult(models.ProviderDataForSEO,
			models.ProviderEntry{SourceURL: "https://example.com/a", DestinationURL: "https://acme.io/blog/post", DomainRating: 10},
		),
	}

	first, _ := svc.Aggregate(campaign, results)
	second, _ := svc.Aggregate(campaign, results)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Key, second[i].Key)
		assert.Equal(t, first[i].ConfidenceScore, second[i].ConfidenceScore)
		assert.Equal(t, first[i].CoverageStatus, second[i].CoverageStatus)
		assert.Equal(t, first[i].SourceAPI, second[i].SourceAPI)
	}
}

func TestConfidenceScore_Monotonic(t *testing.T) {
	base := confidenceScore(false, false, 0, 0)

	withKeyword := confidenceScore(false, false, 1, 0)
	assert.GreaterOrEqual(t, withKeyword, base)

	moreKeywords := confidenceScore(false, false, 3, 0)
	assert.GreaterOrEqual(t, moreKeywords, withKeyword)

	withAuthority := confidenceScore(false, false, 3, 80)
	assert.GreaterOrEqual(t, withAuthority, moreKeywords)

	withDirect := confidenceScore(true, false, 3, 80)
	assert.GreaterOrEqual(t, withDirect, withAuthority)

	withExact := confidenceScore(true, true, 3, 80)
	assert.GreaterOrEqual(t, withExact, withDirect)
	assert.LessOrEqual(t, withExact, 100)
}

func TestClassifyDestination(t *testing.T) {
	tests := []struct {
		url  string
		want models.LinkDestination
	}{
		{"https://acme.io", models.DestinationHomepage},
		{"https://acme.io/", models.DestinationHomepage},
		{"https://acme.io/blog/post-1", models.DestinationBlogPage},
		{"https://acme.io/news/2025/launch", models.DestinationBlogPage},
		{"https://acme.io/products/widget", models.DestinationProduct},
		{"https://acme.io/shop", models.DestinationProduct},
		{"https://acme.io/about", models.DestinationOther},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyDestination(tt.url), tt.url)
	}
}

func TestCountKeywordMatches_WholeWord(t *testing.T) {
	keywords := []string{"acme", "launch"}

	assert.Equal(t, 2, countKeywordMatches("The Acme product launch event", keywords))
	assert.Equal(t, 0, countKeywordMatches("acmeism launchpadless", keywords))
	assert.Equal(t, 0, countKeywordMatches("", keywords))
}
