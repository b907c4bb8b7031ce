package attribution

import (
	"context"

	"github.com/pipelineiq/pipelineiq/internal/store"
)

// LeadStore is the slice of the store the attribution flow needs.
type LeadStore interface {
	GetLead(ctx context.Context, id int64) (*store.Lead, error)
	ReplaceAttributionResults(ctx context.Context, leadID int64, model string, results []store.AttributionResult) error
}

// AttributeLead recomputes attribution for one lead under one model
// and replaces the stored result set for that (lead, model) pair. A
// lead with no touchpoints ends up with no stored results, which also
// clears out anything stale from before its sequence was emptied.
func AttributeLead(ctx context.Context, st LeadStore, leadID int64, model Model) ([]store.AttributionResult, error) {
	lead, err := st.GetLead(ctx, leadID)
	if err != nil {
		return nil, err
	}

	credits := Compute(lead.Touchpoints, lead.DealValue, model)
	results := make([]store.AttributionResult, 0, len(credits))
	for i := range credits {
		results = append(results, store.AttributionResult{
			LeadID:            lead.ID,
			CampaignID:        &credits[i].CampaignID,
			Model:             string(model),
			Weight:            credits[i].Weight,
			AttributedRevenue: credits[i].Revenue,
		})
	}

	if err := st.ReplaceAttributionResults(ctx, lead.ID, string(model), results); err != nil {
		return nil, err
	}
	return results, nil
}
