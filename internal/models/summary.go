package models

// CampaignCoverageSummary is a read-side rollup over the persisted canonical
// records of one campaign. Recomputed on read, never stored. A campaign
// with no records yields the zero-value summary, not an error.
type CampaignCoverageSummary struct {
	CampaignID        string  `json:"campaign_id"`
	TotalResults      int     `json:"total_results"`
	VerifiedCoverage  int     `json:"verified_coverage"`
	PotentialCoverage int     `json:"potential_coverage"`
	// VerificationRate is verified/total in percent, 0 when there are no records
	VerificationRate  float64 `json:"verification_rate"`
	// AverageDomainRating covers only records that carry a rating
	AverageDomainRating float64 `json:"average_domain_rating"`
	AverageConfidence   float64 `json:"average_confidence"`

	// DestinationBreakdown is a histogram over link_destination values
	DestinationBreakdown map[LinkDestination]int `json:"destination_breakdown"`

	SerpRankings int `json:"serp_rankings"`
}

// AggregateCoverageSummary rolls up coverage across every campaign visible
// to a user.
type AggregateCoverageSummary struct {
	TotalCampaigns          int     `json:"total_campaigns"`
	LiveCampaigns           int     `json:"live_campaigns"`
	TotalBacklinks          int     `json:"total_backlinks"`
	VerifiedCoverage        int     `json:"verified_coverage"`
	PotentialCoverage       int     `json:"potential_coverage"`
	OverallVerificationRate float64 `json:"overall_verification_rate"`
	AverageDomainRating     float64 `json:"average_domain_rating"`
}
