// -----------------------------------------------------------------------
// Backlink Records - Raw provider entries and the canonical merged form
// -----------------------------------------------------------------------

package models

import (
	"sort"
	"strings"
	"time"
)

// Provider identifies an external backlink data source
type Provider string

const (
	ProviderAhrefs     Provider = "ahrefs"
	ProviderDataForSEO Provider = "dataforseo"
)

// AllProviders returns the configured provider set in a stable order
func AllProviders() []Provider {
	return []Provider{ProviderAhrefs, ProviderDataForSEO}
}

// QueryStatus tags the outcome of a single provider query
type QueryStatus string

const (
	QueryStatusOK          QueryStatus = "ok"
	QueryStatusRateLimited QueryStatus = "rate_limited"
	QueryStatusAuthError   QueryStatus = "auth_error"
	QueryStatusEmpty       QueryStatus = "empty"
)

// ProviderEntry is one raw backlink row as returned by a provider, before
// normalization. Field availability varies by provider; aggregation skips
// entries missing source or destination URLs.
type ProviderEntry struct {
	SourceURL      string     `json:"source_url"`
	DestinationURL string     `json:"destination_url"`
	AnchorText     string     `json:"anchor_text,omitempty"`
	PageTitle      string     `json:"page_title,omitempty"`
	PageText       string     `json:"page_text,omitempty"` // Source page excerpt when the provider supplies one
	FirstSeen      *time.Time `json:"first_seen,omitempty"`
	DomainRating   int        `json:"domain_rating,omitempty"`
	URLRating      int        `json:"url_rating,omitempty"`
	LinkType       string     `json:"link_type,omitempty"` // "dofollow", "nofollow", "redirect", ...
	IsContent      bool       `json:"is_content,omitempty"`
	IsRedirect     bool       `json:"is_redirect,omitempty"`
	IsCanonical    bool       `json:"is_canonical,omitempty"`
}

// ProviderQueryResult is the transient outcome of one gateway fetch. It is
// consumed by the aggregation engine within a single task execution and
// never persisted.
type ProviderQueryResult struct {
	Provider Provider        `json:"provider"`
	Status   QueryStatus     `json:"status"`
	Entries  []ProviderEntry `json:"entries"`
	// Err is a short, non-sensitive description for degraded statuses
	Err string `json:"error,omitempty"`
	// MockData marks results served from deterministic mock datasets
	MockData bool `json:"mock_data,omitempty"`
}

// CoverageStatus classifies how strongly a record evidences coverage
type CoverageStatus string

const (
	CoverageVerified  CoverageStatus = "verified"
	CoveragePotential CoverageStatus = "potential"
)

// LinkDestination classifies where on the target site a backlink points
type LinkDestination string

const (
	DestinationHomepage LinkDestination = "homepage"
	DestinationBlogPage LinkDestination = "blog_page"
	DestinationProduct  LinkDestination = "product"
	DestinationOther    LinkDestination = "other"
)

// BacklinkRecord is the canonical, deduplicated representation of a
// backlink after aggregation. A single record may merge entries from both
// providers that refer to the same (source, destination) pair; SourceAPI
// then carries the combined provenance ("ahrefs+dataforseo").
type BacklinkRecord struct {
	// Key is campaignID|normalized source|normalized destination and makes
	// re-aggregation an idempotent upsert
	Key        string `json:"key" badgerhold:"key"`
	CampaignID string `json:"campaign_id" badgerhold:"index"`

	SourceURL      string `json:"source_url"`      // Normalized
	DestinationURL string `json:"destination_url"` // Normalized

	AnchorText string     `json:"anchor_text,omitempty"`
	PageTitle  string     `json:"page_title,omitempty"`
	FirstSeen  *time.Time `json:"first_seen,omitempty"`

	DomainRating int    `json:"domain_rating,omitempty"`
	URLRating    int    `json:"url_rating,omitempty"`
	LinkType     string `json:"link_type,omitempty"`
	IsContent    bool   `json:"is_content"`
	IsRedirect   bool   `json:"is_redirect"`
	IsCanonical  bool   `json:"is_canonical"`

	CoverageStatus  CoverageStatus  `json:"coverage_status"`
	LinkDestination LinkDestination `json:"link_destination"`

	// ConfidenceScore is 0-100 and monotonic in its inputs: a direct link,
	// more keyword matches or higher source authority never lower it
	ConfidenceScore int `json:"confidence_score"`

	// SourceAPI records provenance, "+"-joined and sorted when merged
	SourceAPI string `json:"source_api"`

	UpdatedAt time.Time `json:"updated_at"`
}

// RecordKey builds the storage key for a canonical record
func RecordKey(campaignID, normalizedSource, normalizedDestination string) string {
	return campaignID + "|" + normalizedSource + "|" + normalizedDestination
}

// MergeProvenance combines two source_api tags into a sorted "+"-joined set
func MergeProvenance(a, b string) string {
	seen := make(map[string]bool)
	var parts []string
	for _, tag := range append(strings.Split(a, "+"), strings.Split(b, "+")...) {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		parts = append(parts, tag)
	}
	sort.Strings(parts)
	return strings.Join(parts, "+")
}

// SerpRanking records one SERP position observation for a campaign keyword
type SerpRanking struct {
	ID         string    `json:"id" badgerhold:"key"`
	CampaignID string    `json:"campaign_id" badgerhold:"index"`
	Keyword    string    `json:"keyword"`
	URL        string    `json:"url"`
	Position   int       `json:"position"`
	PageTitle  string    `json:"page_title,omitempty"`
	CheckDate  time.Time `json:"check_date"`
}
