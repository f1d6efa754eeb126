package risk

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/linklens/internal/models"
)

func day(d int) *time.Time {
	t := time.Date(2025, 9, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestAssess_EmptyRecordsIsClean(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	assessment := svc.Assess(nil)
	assert.Zero(t, assessment.ScannedRecords)
	assert.Empty(t, assessment.Alerts)
	assert.Empty(t, assessment.HighestSeverity())
}

func TestAssess_SpamAnchorPattern(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	var records []*models.BacklinkRecord
	for i := 1; i <= 3; i++ {
		records = append(records, &models.BacklinkRecord{
			SourceURL:    fmt.Sprintf("https://farm%d.example.com/p", i),
			AnchorText:   "best cheap widgets",
			DomainRating: 12,
		})
	}
	// Same anchor on a reputable domain does not count toward the pattern
	records = append(records, &models.BacklinkRecord{
		SourceURL:    "https://reputable.example.org/review",
		AnchorText:   "best cheap widgets",
		DomainRating: 80,
	})

	assessment := svc.Assess(records)
	require.NotEmpty(t, assessment.Alerts)
	assert.Equal(t, "spam_anchor_pattern", assessment.Alerts[0].Type)
	assert.Equal(t, models.RiskSeverityHigh, assessment.Alerts[0].Severity)
	assert.Len(t, assessment.Alerts[0].AffectedURLs, 3)
}

func TestAssess_VelocitySpike(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	var records []*models.BacklinkRecord
	for i := 0; i < 5; i++ {
		records = append(records, &models.BacklinkRecord{
			SourceURL:    fmt.Sprintf("https://site%d.example.com/a", i),
			FirstSeen:    day(10),
			DomainRating: 50,
		})
	}
	records = append(records, &models.BacklinkRecord{
		SourceURL:    "https://other.example.com/b",
		FirstSeen:    day(11),
		DomainRating: 50,
	})

	assessment := svc.Assess(records)
	require.Len(t, assessment.Alerts, 1)
	assert.Equal(t, "link_velocity_spike", assessment.Alerts[0].Type)
	assert.Equal(t, models.RiskSeverityMedium, assessment.Alerts[0].Severity)
	assert.Len(t, assessment.Alerts[0].AffectedURLs, 5)
}

func TestAssess_ToxicTLDRequiresLowAuthority(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	records := []*models.BacklinkRecord{
		{SourceURL: "https://cheap.xyz/p", DomainRating: 8},
		{SourceURL: "https://legit.xyz/q", DomainRating: 65},
	}

	assessment := svc.Assess(records)

	var toxic *models.RiskAlert
	for i := range assessment.Alerts {
		if assessment.Alerts[i].Type == "toxic_tld" {
			toxic = &assessment.Alerts[i]
		}
	}
	require.NotNil(t, toxic)
	assert.Equal(t, []string{"https://cheap.xyz/p"}, toxic.AffectedURLs)
}

func TestAssess_AlertsSortedBySeverity(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	var records []*models.BacklinkRecord
	// Low severity signal
	records = append(records, &models.BacklinkRecord{
		SourceURL:    "https://tiny.example.com/x",
		DomainRating: 5,
	})
	// High severity signal
	for i := 1; i <= 3; i++ {
		records = append(records, &models.BacklinkRecord{
			SourceURL:    fmt.Sprintf("https://spam%d.example.net/y", i),
			AnchorText:   "buy now",
			DomainRating: 15,
		})
	}

	assessment := svc.Assess(records)
	require.GreaterOrEqual(t, len(assessment.Alerts), 2)
	assert.Equal(t, models.RiskSeverityHigh, assessment.Alerts[0].Severity)
	assert.Equal(t, models.RiskSeverityHigh, assessment.HighestSeverity())

	for i := 1; i < len(assessment.Alerts); i++ {
		assert.GreaterOrEqual(t,
			models.SeverityWeight(assessment.Alerts[i-1].Severity),
			models.SeverityWeight(assessment.Alerts[i].Severity))
	}
}
