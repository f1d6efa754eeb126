// Package analysis merges raw provider entries into the canonical,
// deduplicated, scored backlink record set for a campaign.
package analysis

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/linklens/internal/common"
	"github.com/ternarybob/linklens/internal/models"
)

const (
	confidenceDirectLink    = 60
	confidenceExactURLBonus = 15
	confidencePerKeyword    = 5
	confidenceKeywordCap    = 15
	confidenceAuthorityCap  = 10
)

// Diagnostics reports what aggregation did with the raw entries. Skipped
// and blacklisted entries are counted, never silently dropped.
type Diagnostics struct {
	TotalEntries       int                                   `json:"total_entries"`
	SkippedEntries     int                                   `json:"skipped_entries"`
	BlacklistedEntries int                                   `json:"blacklisted_entries"`
	MergedEntries      int                                   `json:"merged_entries"`
	ProviderStatuses   map[models.Provider]models.QueryStatus `json:"provider_statuses"`
}

// Service is the aggregation engine. Aggregate is pure: no I/O, no clock
// reads beyond the UpdatedAt stamp, identical input gives identical output.
type Service struct {
	logger arbor.ILogger
}

// NewService creates an aggregation service
func NewService(logger arbor.ILogger) *Service {
	return &Service{logger: logger}
}

// Aggregate normalizes, dedupes, classifies and scores the raw entries from
// every provider result. Running it twice over the same input produces the
// same records with the same keys, so persisting the output is an
// idempotent upsert.
func (s *Service) Aggregate(campaign *models.Campaign, results []models.ProviderQueryResult) ([]*models.BacklinkRecord, Diagnostics) {
	diag := Diagnostics{
		ProviderStatuses: make(map[models.Provider]models.QueryStatus, len(results)),
	}

	merged := make(map[string]*models.BacklinkRecord)
	now := time.Now().UTC()

	for _, result := range results {
		diag.ProviderStatuses[result.Provider] = result.Status
		provenance := provenanceTag(result)

		for _, entry := range result.Entries {
			diag.TotalEntries++

			if strings.TrimSpace(entry.SourceURL) == "" || strings.TrimSpace(entry.DestinationURL) == "" {
				diag.SkippedEntries++
				continue
			}

			source := common.NormalizeURL(entry.SourceURL)
			destination := common.NormalizeURL(entry.DestinationURL)

			if isBlacklisted(source, campaign.BlacklistDomains) {
				diag.BlacklistedEntries++
				continue
			}

			key := models.RecordKey(campaign.ID, source, destination)
			if existing, ok := merged[key]; ok {
				diag.MergedEntries++
				mergeEntry(existing, &entry, provenance)
				continue
			}

			merged[key] = &models.BacklinkRecord{
				Key:            key,
				CampaignID:     campaign.ID,
				SourceURL:      source,
				DestinationURL: destination,
				AnchorText:     entry.AnchorText,
				PageTitle:      entry.PageTitle,
				FirstSeen:      entry.FirstSeen,
				DomainRating:   entry.DomainRating,
				URLRating:      entry.URLRating,
				LinkType:       entry.LinkType,
				IsContent:      entry.IsContent,
				IsRedirect:     entry.IsRedirect,
				IsCanonical:    entry.IsCanonical,
				SourceAPI:      provenance,
				UpdatedAt:      now,
			}
		}
	}

	records := make([]*models.BacklinkRecord, 0, len(merged))
	for _, record := range merged {
		s.classify(campaign, record)
		records = append(records, record)
	}

	// Deterministic output order: confidence desc, key breaks ties
	sort.Slice(records, func(i, j int) bool {
		if records[i].ConfidenceScore != records[j].ConfidenceScore {
			return records[i].ConfidenceScore > records[j].ConfidenceScore
		}
		return records[i].Key < records[j].Key
	})

	if s.logger != nil {
		s.logger.Debug().
			Str("campaign_id", campaign.ID).
			Int("records", len(records)).
			Int("skipped", diag.SkippedEntries).
			Int("blacklisted", diag.BlacklistedEntries).
			Msg("Aggregation completed")
	}

	return records, diag
}

// Reclassify recomputes classification and confidence for already stored
// records, without provider calls. Used when campaign keywords or targets
// changed after the records were aggregated.
func (s *Service) Reclassify(campaign *models.Campaign, records []*models.BacklinkRecord) int {
	changed := 0
	now := time.Now().UTC()

	for _, record := range records {
		prevStatus := record.CoverageStatus
		prevDestination := record.LinkDestination
		prevScore := record.ConfidenceScore

		s.classify(campaign, record)

		if record.CoverageStatus != prevStatus ||
			record.LinkDestination != prevDestination ||
			record.ConfidenceScore != prevScore {
			record.UpdatedAt = now
			changed++
		}
	}

	return changed
}

// classify sets coverage status, link destination and confidence for one
// merged record.
func (s *Service) classify(campaign *models.Campaign, record *models.BacklinkRecord) {
	target := campaign.TargetURL()

	directDomain := common.SameDomain(record.DestinationURL, campaign.ClientDomain)
	exactURL := common.SameURL(record.DestinationURL, target)
	keywordHits := countKeywordMatches(record.AnchorText+" "+record.PageTitle, campaign.VerificationKeywords)

	if directDomain || exactURL {
		record.CoverageStatus = models.CoverageVerified
	} else {
		record.CoverageStatus = models.CoveragePotential
	}

	record.LinkDestination = classifyDestination(record.DestinationURL)
	record.ConfidenceScore = confidenceScore(directDomain, exactURL, keywordHits, record.DomainRating)
}

// confidenceScore is monotonic: a direct link, more keyword matches or a
// higher source authority never lower the score.
func confidenceScore(directLink, exactURL bool, keywordHits, domainRating int) int {
	score := 0
	if directLink {
		score += confidenceDirectLink
	}
	if exactURL {
		score += confidenceExactURLBonus
	}

	keywordScore := keywordHits * confidencePerKeyword
	if keywordScore > confidenceKeywordCap {
		keywordScore = confidenceKeywordCap
	}
	score += keywordScore

	authority := domainRating / 10
	if authority > confidenceAuthorityCap {
		authority = confidenceAuthorityCap
	}
	if authority > 0 {
		score += authority
	}

	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}

// classifyDestination buckets a destination URL by its path segments
func classifyDestination(destination string) models.LinkDestination {
	path := strings.Trim(common.URLPath(destination), "/")
	if path == "" {
		return models.DestinationHomepage
	}

	for _, segment := range strings.Split(path, "/") {
		switch {
		case segmentMatches(segment, "blog", "news", "article", "articles", "story", "stories", "post", "posts"):
			return models.DestinationBlogPage
		case segmentMatches(segment, "product", "products", "shop", "store", "catalog", "item", "items"):
			return models.DestinationProduct
		}
	}
	return models.DestinationOther
}

func segmentMatches(segment string, names ...string) bool {
	for _, name := range names {
		if segment == name {
			return true
		}
	}
	return false
}

// countKeywordMatches counts case-insensitive whole-word keyword hits
func countKeywordMatches(text string, keywords []string) int {
	if text == "" {
		return 0
	}
	hits := 0
	for _, keyword := range keywords {
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		pattern, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(keyword) + `\b`)
		if err != nil {
			continue
		}
		if pattern.MatchString(text) {
			hits++
		}
	}
	return hits
}

// isBlacklisted matches the source against the blacklist by registrable
// domain suffix, so "spam.com" also drops "sub.spam.com" sources.
func isBlacklisted(sourceURL string, blacklist []string) bool {
	for _, domain := range blacklist {
		domain = strings.TrimSpace(domain)
		if domain == "" {
			continue
		}
		if common.SameDomain(sourceURL, domain) {
			return true
		}
	}
	return false
}

// mergeEntry folds a duplicate (source, destination) entry into an existing
// record, preferring the higher ratings and the earliest first-seen date.
func mergeEntry(record *models.BacklinkRecord, entry *models.ProviderEntry, provenance string) {
	if entry.DomainRating > record.DomainRating {
		record.DomainRating = entry.DomainRating
	}
	if entry.URLRating > record.URLRating {
		record.URLRating = entry.URLRating
	}
	if entry.FirstSeen != nil && (record.FirstSeen == nil || entry.FirstSeen.Before(*record.FirstSeen)) {
		record.FirstSeen = entry.FirstSeen
	}
	if record.AnchorText == "" {
		record.AnchorText = entry.AnchorText
	}
	if record.PageTitle == "" {
		record.PageTitle = entry.PageTitle
	}
	if entry.IsContent {
		record.IsContent = true
	}
	record.SourceAPI = models.MergeProvenance(record.SourceAPI, provenance)
}

// provenanceTag labels records by originating provider, with a mock suffix
// when the gateway served fallback data.
func provenanceTag(result models.ProviderQueryResult) string {
	tag := string(result.Provider)
	if result.MockData {
		tag += "-mock"
	}
	return tag
}
