package scoring

import "github.com/pipelineiq/pipelineiq/internal/store"

// dealValueScale keeps the deal-value feature comparable in magnitude
// to the count features.
const dealValueScale = 1000

// industryCodes is the closed industry vocabulary. Anything else maps
// to the "other" code 0.
var industryCodes = map[string]float64{
	"SaaS":       1,
	"Fintech":    2,
	"Healthcare": 3,
	"Enterprise": 4,
}

var stageCodes = map[store.Stage]float64{
	store.StageMQL:         1,
	store.StageSQL:         2,
	store.StageOpportunity: 3,
	store.StageWon:         4,
	store.StageLost:        0,
}

// LeadFeatures is the raw per-lead input to the deal scorer.
type LeadFeatures struct {
	Touchpoints   int
	CampaignSpend float64 // summed cost of campaigns in the touchpoint sequence
	Industry      string
	Stage         store.Stage
	DealValue     float64
}

// Vector encodes the features in the fixed order the model is trained
// on: touchpoint count, campaign spend, industry ordinal, stage
// ordinal, scaled deal value.
func (f LeadFeatures) Vector() []float64 {
	var dv float64
	if f.DealValue > 0 {
		dv = f.DealValue / dealValueScale
	}
	return []float64{
		float64(f.Touchpoints),
		f.CampaignSpend,
		industryCodes[f.Industry],
		stageCodes[f.Stage],
		dv,
	}
}

// numFeatures is the width of every feature vector.
const numFeatures = 5

// BuildFeatures derives the scorer input for one stored lead. The
// spend feature sums the cost of every campaign in the touchpoint
// sequence; unknown campaign IDs contribute nothing.
func BuildFeatures(l store.Lead, industry string, campaignCosts map[int64]float64) LeadFeatures {
	var spend float64
	for _, id := range l.Touchpoints {
		spend += campaignCosts[id]
	}
	return LeadFeatures{
		Touchpoints:   len(l.Touchpoints),
		CampaignSpend: spend,
		Industry:      industry,
		Stage:         l.Stage,
		DealValue:     l.DealValue,
	}
}
