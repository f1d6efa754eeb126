// Package risk scans aggregated backlink records for toxicity signals:
// spam anchor patterns, link velocity spikes, low-quality TLDs and
// low-authority sources.
package risk

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/linklens/internal/common"
	"github.com/ternarybob/linklens/internal/models"
)

const (
	// lowAuthorityRating marks a source domain as low authority
	lowAuthorityRating = 20

	// veryLowAuthorityRating triggers the low_authority_source signal
	veryLowAuthorityRating = 10

	// spamAnchorDomainThreshold is the distinct low-authority domain count
	// that turns a repeated anchor into a spam pattern
	spamAnchorDomainThreshold = 3

	// velocityThreshold is how many records sharing one first-seen day
	// count as a velocity spike
	velocityThreshold = 5
)

// toxicTLDs are TLDs commonly seen on link farms
var toxicTLDs = map[string]bool{
	"xyz": true, "top": true, "click": true, "loan": true,
	"win": true, "gq": true, "cf": true, "tk": true, "ml": true,
}

// Service detects link-profile risks over a record set
type Service struct {
	logger arbor.ILogger
}

// NewService creates a risk assessment service
func NewService(logger arbor.ILogger) *Service {
	return &Service{logger: logger}
}

// Assess scans the records and returns the detected alerts sorted by
// severity, high first. Pure derivation, the records are never mutated.
func (s *Service) Assess(records []*models.BacklinkRecord) models.RiskAssessment {
	assessment := models.RiskAssessment{
		ScannedRecords: len(records),
	}
	if len(records) == 0 {
		return assessment
	}

	assessment.Alerts = append(assessment.Alerts, s.spamAnchorAlerts(records)...)
	assessment.Alerts = append(assessment.Alerts, s.velocityAlerts(records)...)
	assessment.Alerts = append(assessment.Alerts, s.toxicTLDAlerts(records)...)
	assessment.Alerts = append(assessment.Alerts, s.lowAuthorityAlerts(records)...)

	sort.SliceStable(assessment.Alerts, func(i, j int) bool {
		return models.SeverityWeight(assessment.Alerts[i].Severity) > models.SeverityWeight(assessment.Alerts[j].Severity)
	})

	if s.logger != nil && len(assessment.Alerts) > 0 {
		s.logger.Info().
			Int("records", len(records)).
			Int("alerts", len(assessment.Alerts)).
			Str("highest", string(assessment.HighestSeverity())).
			Msg("Risk signals detected")
	}

	return assessment
}

// spamAnchorAlerts flags anchor text repeated across several distinct
// low-authority domains.
func (s *Service) spamAnchorAlerts(records []*models.BacklinkRecord) []models.RiskAlert {
	type anchorGroup struct {
		domains map[string]bool
		urls    []string
	}
	groups := make(map[string]*anchorGroup)

	for _, record := range records {
		anchor := strings.ToLower(strings.TrimSpace(record.AnchorText))
		if anchor == "" || record.DomainRating >= lowAuthorityRating {
			continue
		}
		group, ok := groups[anchor]
		if !ok {
			group = &anchorGroup{domains: make(map[string]bool)}
			groups[anchor] = group
		}
		group.domains[common.URLDomain(record.SourceURL)] = true
		group.urls = append(group.urls, record.SourceURL)
	}

	anchors := make([]string, 0, len(groups))
	for anchor, group := range groups {
		if len(group.domains) >= spamAnchorDomainThreshold {
			anchors = append(anchors, anchor)
		}
	}
	sort.Strings(anchors)

	var alerts []models.RiskAlert
	for _, anchor := range anchors {
		group := groups[anchor]
		alerts = append(alerts, models.RiskAlert{
			Severity:       models.RiskSeverityHigh,
			Type:           "spam_anchor_pattern",
			Description:    fmt.Sprintf("anchor %q repeated across %d low-authority domains", anchor, len(group.domains)),
			AffectedURLs:   group.urls,
			Recommendation: "Review these links for manipulative anchor usage and consider disavowing the source domains",
		})
	}
	return alerts
}

// velocityAlerts flags bursts of links first seen on the same day
func (s *Service) velocityAlerts(records []*models.BacklinkRecord) []models.RiskAlert {
	byDay := make(map[string][]string)
	for _, record := range records {
		if record.FirstSeen == nil {
			continue
		}
		day := record.FirstSeen.UTC().Format("2006-01-02")
		byDay[day] = append(byDay[day], record.SourceURL)
	}

	days := make([]string, 0, len(byDay))
	for day, urls := range byDay {
		if len(urls) >= velocityThreshold {
			days = append(days, day)
		}
	}
	sort.Strings(days)

	var alerts []models.RiskAlert
	for _, day := range days {
		urls := byDay[day]
		alerts = append(alerts, models.RiskAlert{
			Severity:       models.RiskSeverityMedium,
			Type:           "link_velocity_spike",
			Description:    fmt.Sprintf("%d links first seen on %s", len(urls), day),
			AffectedURLs:   urls,
			Recommendation: "Confirm the spike maps to a real publication event rather than a paid link burst",
		})
	}
	return alerts
}

// toxicTLDAlerts flags low-authority sources on link-farm TLDs
func (s *Service) toxicTLDAlerts(records []*models.BacklinkRecord) []models.RiskAlert {
	var urls []string
	for _, record := range records {
		if record.DomainRating >= lowAuthorityRating {
			continue
		}
		if toxicTLDs[common.URLTLD(record.SourceURL)] {
			urls = append(urls, record.SourceURL)
		}
	}
	if len(urls) == 0 {
		return nil
	}

	return []models.RiskAlert{{
		Severity:       models.RiskSeverityMedium,
		Type:           "toxic_tld",
		Description:    fmt.Sprintf("%d low-authority sources on link-farm TLDs", len(urls)),
		AffectedURLs:   urls,
		Recommendation: "Audit these sources and disavow confirmed link-farm domains",
	}}
}

// lowAuthorityAlerts flags sources with very low domain ratings
func (s *Service) lowAuthorityAlerts(records []*models.BacklinkRecord) []models.RiskAlert {
	var urls []string
	for _, record := range records {
		if record.DomainRating > 0 && record.DomainRating < veryLowAuthorityRating {
			urls = append(urls, record.SourceURL)
		}
	}
	if len(urls) == 0 {
		return nil
	}

	return []models.RiskAlert{{
		Severity:       models.RiskSeverityLow,
		Type:           "low_authority_source",
		Description:    fmt.Sprintf("%d sources with domain rating below %d", len(urls), veryLowAuthorityRating),
		AffectedURLs:   urls,
		Recommendation: "Low-authority links add little value; deprioritize outreach to these domains",
	}}
}
