package budget

import "github.com/pipelineiq/pipelineiq/internal/store"

// CampaignMetrics is the derived per-campaign picture the optimizer
// evaluates: delivery ratios plus attribution-backed efficiency.
type CampaignMetrics struct {
	CampaignID        int64   `json:"campaign_id"`
	CampaignName      string  `json:"campaign_name"`
	Platform          string  `json:"platform"`
	Budget            float64 `json:"budget"`
	Spend             float64 `json:"spend"`
	Impressions       int64   `json:"impressions"`
	Clicks            int64   `json:"clicks"`
	CTR               float64 `json:"ctr"`
	CPC               float64 `json:"cpc"`
	Leads             int     `json:"num_leads"`
	Conversions       int     `json:"num_conversions"`
	AttributedRevenue float64 `json:"attributed_revenue"`
	ROAS              float64 `json:"roas"`
	CAC               float64 `json:"cac"`
}

// ROAS is return on ad spend: attributed revenue per unit of spend.
// Zero spend yields zero rather than a division fault.
func ROAS(revenue, spend float64) float64 {
	if spend == 0 {
		return 0
	}
	return revenue / spend
}

// CAC is customer acquisition cost. With zero leads it equals the
// spend itself, not an error.
func CAC(spend float64, leads int) float64 {
	if leads == 0 {
		return spend
	}
	return spend / float64(leads)
}

// Derive builds the metric record for one campaign from its raw
// delivery numbers and its attribution aggregate.
func Derive(c store.Campaign, agg store.CampaignAggregate) CampaignMetrics {
	var ctr float64
	if c.Impressions > 0 {
		ctr = float64(c.Clicks) / float64(c.Impressions) * 100
	}
	var cpc float64
	if c.Clicks > 0 {
		cpc = c.Cost / float64(c.Clicks)
	}

	return CampaignMetrics{
		CampaignID:        c.ID,
		CampaignName:      c.Name,
		Platform:          c.Platform,
		Budget:            c.Budget,
		Spend:             c.Cost,
		Impressions:       c.Impressions,
		Clicks:            c.Clicks,
		CTR:               ctr,
		CPC:               cpc,
		Leads:             agg.Leads,
		Conversions:       agg.Conversions,
		AttributedRevenue: agg.AttributedRevenue,
		ROAS:              ROAS(agg.AttributedRevenue, c.Cost),
		CAC:               CAC(c.Cost, agg.Leads),
	}
}

// DeriveAll builds metrics for every campaign, joining each to its
// aggregate by campaign ID. Campaigns with no aggregate get zeros.
func DeriveAll(campaigns []store.Campaign, aggs []store.CampaignAggregate) []CampaignMetrics {
	byID := make(map[int64]store.CampaignAggregate, len(aggs))
	for _, a := range aggs {
		byID[a.CampaignID] = a
	}

	metrics := make([]CampaignMetrics, 0, len(campaigns))
	for _, c := range campaigns {
		metrics = append(metrics, Derive(c, byID[c.ID]))
	}
	return metrics
}
