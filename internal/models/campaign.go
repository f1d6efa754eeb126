package models

import (
	"time"
)

// MonitoringStatus represents the monitoring lifecycle of a campaign
type MonitoringStatus string

const (
	MonitoringStatusLive      MonitoringStatus = "Live"
	MonitoringStatusPaused    MonitoringStatus = "Paused"
	MonitoringStatusCompleted MonitoringStatus = "Completed"
)

// Campaign represents a PR/marketing campaign whose web coverage is tracked.
// The orchestrator reads domain, URL and keyword sets from here; analysis
// results reference the campaign by ID.
type Campaign struct {
	ID        string `json:"id" badgerhold:"key"`
	UserEmail string `json:"user_email" validate:"required,email"`

	ClientName   string `json:"client_name" validate:"required,max=255"`
	CampaignName string `json:"campaign_name" validate:"required,max=255"`
	ClientDomain string `json:"client_domain" validate:"required,max=255"`
	CampaignURL  string `json:"campaign_url,omitempty" validate:"omitempty,url"`

	LaunchDate       *time.Time       `json:"launch_date,omitempty"`
	MonitoringStatus MonitoringStatus `json:"monitoring_status"`
	AutoPauseDate    *time.Time       `json:"auto_pause_date,omitempty"`

	// SerpKeywords drive SERP position tracking; VerificationKeywords drive
	// potential-coverage classification during aggregation.
	SerpKeywords         []string `json:"serp_keywords"`
	VerificationKeywords []string `json:"verification_keywords"`

	// BlacklistDomains are dropped from aggregation output entirely
	BlacklistDomains []string `json:"blacklist_domains"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TargetURL returns the campaign page to match direct backlinks against,
// falling back to the client domain root when no explicit URL is set.
func (c *Campaign) TargetURL() string {
	if c.CampaignURL != "" {
		return c.CampaignURL
	}
	return "https://" + c.ClientDomain
}

// IsLive reports whether the campaign is actively monitored
func (c *Campaign) IsLive() bool {
	return c.MonitoringStatus == MonitoringStatusLive
}

// CampaignUpdate carries optional field updates; nil pointers leave the
// existing value untouched.
type CampaignUpdate struct {
	ClientName           *string           `json:"client_name,omitempty" validate:"omitempty,max=255"`
	CampaignName         *string           `json:"campaign_name,omitempty" validate:"omitempty,max=255"`
	ClientDomain         *string           `json:"client_domain,omitempty" validate:"omitempty,max=255"`
	CampaignURL          *string           `json:"campaign_url,omitempty" validate:"omitempty,url"`
	LaunchDate           *time.Time        `json:"launch_date,omitempty"`
	MonitoringStatus     *MonitoringStatus `json:"monitoring_status,omitempty"`
	AutoPauseDate        *time.Time        `json:"auto_pause_date,omitempty"`
	SerpKeywords         []string          `json:"serp_keywords,omitempty"`
	VerificationKeywords []string          `json:"verification_keywords,omitempty"`
	BlacklistDomains     []string          `json:"blacklist_domains,omitempty"`
}
