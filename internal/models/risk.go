package models

// RiskSeverity buckets risk alerts for sorting and display
type RiskSeverity string

const (
	RiskSeverityHigh   RiskSeverity = "high"
	RiskSeverityMedium RiskSeverity = "medium"
	RiskSeverityLow    RiskSeverity = "low"
)

// SeverityWeight orders severities for sorting (high first)
func SeverityWeight(s RiskSeverity) int {
	switch s {
	case RiskSeverityHigh:
		return 3
	case RiskSeverityMedium:
		return 2
	case RiskSeverityLow:
		return 1
	}
	return 0
}

// RiskAlert describes one detected toxicity signal across a record set
type RiskAlert struct {
	Severity       RiskSeverity `json:"severity"`
	Type           string       `json:"type"` // "spam_anchor_pattern", "link_velocity_spike", ...
	Description    string       `json:"description"`
	AffectedURLs   []string     `json:"affected_urls"`
	Recommendation string       `json:"recommendation"`
}

// RiskAssessment is the result of scanning an aggregated record set for
// toxicity signals. Pure derivation - the scanned records are never mutated.
type RiskAssessment struct {
	ScannedRecords int         `json:"scanned_records"`
	Alerts         []RiskAlert `json:"alerts"` // Sorted by severity, high first
}

// HighestSeverity returns the top severity present, empty when clean
func (r *RiskAssessment) HighestSeverity() RiskSeverity {
	if len(r.Alerts) == 0 {
		return ""
	}
	return r.Alerts[0].Severity
}
