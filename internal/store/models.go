package store

import "time"

// Stage is a lead's pipeline stage, ordered by progression.
type Stage string

const (
	StageMQL         Stage = "MQL"
	StageSQL         Stage = "SQL"
	StageOpportunity Stage = "Opportunity"
	StageWon         Stage = "Won"
	StageLost        Stage = "Lost"
)

// Stages lists all pipeline stages in funnel order.
func Stages() []Stage {
	return []Stage{StageMQL, StageSQL, StageOpportunity, StageWon, StageLost}
}

// ValidStage reports whether s is one of the known pipeline stages.
func ValidStage(s Stage) bool {
	switch s {
	case StageMQL, StageSQL, StageOpportunity, StageWon, StageLost:
		return true
	}
	return false
}

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FullName     string
	Role         string
	CreatedAt    time.Time
}

type Company struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Industry      string    `json:"industry"`
	AnnualAdSpend float64   `json:"annual_ad_spend"`
	CreatedAt     time.Time `json:"created_at"`
}

type Campaign struct {
	ID          int64     `json:"id"`
	CompanyID   int64     `json:"company_id"`
	Name        string    `json:"name"`
	Platform    string    `json:"platform"` // e.g. Google, LinkedIn, Meta
	Budget      float64   `json:"budget"`
	Impressions int64     `json:"impressions"`
	Clicks      int64     `json:"clicks"`
	Cost        float64   `json:"cost"`
	CreatedAt   time.Time `json:"created_at"`
}

type Lead struct {
	ID               int64     `json:"id"`
	CompanyID        int64     `json:"company_id"`
	SourceCampaignID *int64    `json:"source_campaign_id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	Touchpoints      []int64   `json:"touchpoints"` // campaign IDs in chronological order, decoded from JSON
	Stage            Stage     `json:"stage"`
	DealValue        float64   `json:"deal_value"`
	CreatedAt        time.Time `json:"created_at"`
}

type AttributionResult struct {
	ID                int64
	LeadID            int64
	CampaignID        *int64
	Model             string // linear, first_touch, last_touch, time_decay
	Weight            float64
	AttributedRevenue float64
	CreatedAt         time.Time
}

// CampaignAggregate carries the per-campaign counts and attributed
// revenue the budget optimizer derives its metrics from.
type CampaignAggregate struct {
	CampaignID        int64
	Leads             int
	Conversions       int
	AttributedRevenue float64
}

// CampaignRevenue is a campaign's total attributed revenue under one model.
type CampaignRevenue struct {
	CampaignID        int64   `json:"campaign_id"`
	CampaignName      string  `json:"campaign_name"`
	Platform          string  `json:"platform"`
	AttributedRevenue float64 `json:"attributed_revenue"`
}

// ChannelRevenue groups attributed revenue and spend by platform.
type ChannelRevenue struct {
	Platform          string  `json:"platform"`
	AttributedRevenue float64 `json:"attributed_revenue"`
	Spend             float64 `json:"spend"`
	Campaigns         int     `json:"num_campaigns"`
}

// ModelSummary is the aggregate attribution picture for one model.
type ModelSummary struct {
	TotalAttributedRevenue float64
	ResultCount            int
}

// StageCount is one funnel row: leads and pipeline value at a stage.
type StageCount struct {
	Stage Stage
	Count int
	Value float64
}

// Overview holds the company-level KPIs served by the analytics API.
type Overview struct {
	TotalAdSpend      float64
	PipelineValue     float64
	RevenueAttributed float64
	Campaigns         int
	Leads             int
	Conversions       int
}
