package providers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/linklens/internal/models"
)

func writeDataset(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestMockDataService_CuratedDataset(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, "chill_ie.yaml", `
target_domain: chill.ie
providers:
  ahrefs:
    - source_url: https://irishtimes.example.com/insurance-roundup
      anchor_text: chill.ie
      page_title: Insurance Roundup
      first_seen: "2025-09-01"
      domain_rating: 78
      link_type: dofollow
      is_content: true
    - source_url: https://blog.example.ie/press
`)

	svc := NewMockDataService(dir, arbor.NewLogger())
	entries := svc.Backlinks(models.ProviderAhrefs, "https://chill.ie/car-insurance")

	require.Len(t, entries, 2)
	assert.Equal(t, "https://irishtimes.example.com/insurance-roundup", entries[0].SourceURL)
	assert.Equal(t, 78, entries[0].DomainRating)
	require.NotNil(t, entries[0].FirstSeen)
	// Rows without a destination default to the query target
	assert.Equal(t, "https://chill.ie/car-insurance", entries[1].DestinationURL)
}

func TestMockDataService_DomainDerivedFromFilename(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, "acme_example_com.yaml", `
providers:
  dataforseo:
    - source_url: https://press.example.net/acme
`)

	svc := NewMockDataService(dir, arbor.NewLogger())
	entries := svc.Backlinks(models.ProviderDataForSEO, "https://acme.example.com")

	require.Len(t, entries, 1)
	assert.Equal(t, "https://press.example.net/acme", entries[0].SourceURL)
}

func TestMockDataService_GeneratedBacklinksAreDeterministic(t *testing.T) {
	svc := NewMockDataService("", arbor.NewLogger())

	first := svc.Backlinks(models.ProviderAhrefs, "https://unknown-domain.com")
	second := svc.Backlinks(models.ProviderAhrefs, "https://unknown-domain.com")

	require.NotEmpty(t, first)
	assert.Equal(t, first, second)

	// Different providers produce different seeded sets
	other := svc.Backlinks(models.ProviderDataForSEO, "https://unknown-domain.com")
	assert.NotEqual(t, first, other)
}

func TestMockDataService_CuratedSerp(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, "chill_ie.yaml", `
target_domain: chill.ie
serp_results:
  "car insurance ireland":
    - url: https://chill.ie/car-insurance
      position: 4
      title: Car Insurance Quotes
    - url: https://competitor.ie/car
      position: 1
`)

	svc := NewMockDataService(dir, arbor.NewLogger())

	rankings := svc.Serp("Car Insurance Ireland", 10)
	require.Len(t, rankings, 2)
	assert.Equal(t, "https://chill.ie/car-insurance", rankings[0].URL)
	assert.Equal(t, 4, rankings[0].Position)

	capped := svc.Serp("car insurance ireland", 1)
	assert.Len(t, capped, 1)
}

func TestMockDataService_Serp(t *testing.T) {
	svc := NewMockDataService("", arbor.NewLogger())

	rankings := svc.Serp("car insurance", 10)
	require.Len(t, rankings, 2)
	assert.Equal(t, 1, rankings[0].Position)
	assert.Equal(t, "car insurance", rankings[0].Keyword)

	capped := svc.Serp("car insurance", 1)
	assert.Len(t, capped, 1)
}

func TestDomainAuthorityScore(t *testing.T) {
	assert.Equal(t, 95, domainAuthorityScore("cloud.google.com"))
	assert.Equal(t, 90, domainAuthorityScore("github.io"))
	assert.Equal(t, 85, domainAuthorityScore("mit.edu"))
	assert.Equal(t, 75, domainAuthorityScore("charity.org"))
	assert.Equal(t, 70, domainAuthorityScore("tech-news.com"))
	assert.Equal(t, 50, domainAuthorityScore("random-site.ie"))
}

func TestClampRating(t *testing.T) {
	assert.Equal(t, 10, clampRating(-5))
	assert.Equal(t, 55, clampRating(55))
	assert.Equal(t, 100, clampRating(140))
}
