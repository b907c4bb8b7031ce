package attribution

// Model names a revenue-splitting rule.
type Model string

const (
	Linear     Model = "linear"
	FirstTouch Model = "first_touch"
	LastTouch  Model = "last_touch"
	TimeDecay  Model = "time_decay"
)

// DefaultDecayRate is the exponential decay rate for the time-decay model.
const DefaultDecayRate = 0.5

// Models lists every supported attribution model.
func Models() []Model {
	return []Model{Linear, FirstTouch, LastTouch, TimeDecay}
}

// Valid reports whether m is a known model. Compute itself is
// permissive and returns no credits for unknown models; callers that
// want strict validation check here first.
func (m Model) Valid() bool {
	switch m {
	case Linear, FirstTouch, LastTouch, TimeDecay:
		return true
	}
	return false
}

// Credit is one touchpoint's share of a deal. A campaign appearing k
// times in a lead's touchpoint sequence receives k separate credits.
type Credit struct {
	CampaignID int64
	Weight     float64
	Revenue    float64
}

// Compute splits dealValue across the ordered touchpoint sequence
// under the given model. Weights always sum to 1 for a non-empty
// sequence. An empty sequence or an unknown model yields no credits.
func Compute(touchpoints []int64, dealValue float64, model Model) []Credit {
	if len(touchpoints) == 0 {
		return nil
	}

	switch model {
	case Linear:
		return computeLinear(touchpoints, dealValue)
	case FirstTouch:
		return computePositional(touchpoints, dealValue, 0)
	case LastTouch:
		return computePositional(touchpoints, dealValue, len(touchpoints)-1)
	case TimeDecay:
		return computeTimeDecay(touchpoints, dealValue, DefaultDecayRate)
	default:
		return nil
	}
}

// computeLinear gives every touchpoint equal credit.
func computeLinear(touchpoints []int64, dealValue float64) []Credit {
	n := len(touchpoints)
	weight := 1.0 / float64(n)
	revenue := dealValue * weight

	credits := make([]Credit, 0, n)
	for _, campaignID := range touchpoints {
		credits = append(credits, Credit{
			CampaignID: campaignID,
			Weight:     weight,
			Revenue:    revenue,
		})
	}
	return credits
}

// computePositional gives 100% credit to the touchpoint at winner and
// zero to the rest. Used for both first-touch and last-touch.
func computePositional(touchpoints []int64, dealValue float64, winner int) []Credit {
	credits := make([]Credit, 0, len(touchpoints))
	for i, campaignID := range touchpoints {
		c := Credit{CampaignID: campaignID}
		if i == winner {
			c.Weight = 1.0
			c.Revenue = dealValue
		}
		credits = append(credits, c)
	}
	return credits
}

// computeTimeDecay weights touchpoints by rate^(n-1-i), so credit
// grows exponentially toward the conversion, then normalizes the
// weights to sum to 1. A single touchpoint gets full credit.
func computeTimeDecay(touchpoints []int64, dealValue, rate float64) []Credit {
	n := len(touchpoints)

	weights := make([]float64, n)
	var total float64
	for i := range weights {
		weights[i] = pow(rate, n-1-i)
		total += weights[i]
	}

	credits := make([]Credit, 0, n)
	for i, campaignID := range touchpoints {
		w := weights[i] / total
		credits = append(credits, Credit{
			CampaignID: campaignID,
			Weight:     w,
			Revenue:    dealValue * w,
		})
	}
	return credits
}

// pow is an integer-exponent power; math.Pow is overkill here and this
// keeps the decay weights exactly reproducible.
func pow(base float64, exp int) float64 {
	out := 1.0
	for i := 0; i < exp; i++ {
		out *= base
	}
	return out
}
