package budget

import (
	"fmt"
	"sort"
)

// Recommendation kinds. A kind fires at most once per campaign.
const (
	KindLaunch        = "Launch Campaign"
	KindIncrease      = "Increase Budget"
	KindReduceOrPause = "Reduce or Pause Campaign"
	KindReduce        = "Reduce Budget"
	KindHighPerformer = "High-Performing Segment"
	KindEfficientCAC  = "Efficient Acquisition"
	KindImproveAds    = "Improve Ad Creative"
)

const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// maxRecommendations caps the ranked list returned to callers.
const maxRecommendations = 10

type Recommendation struct {
	CampaignID   int64    `json:"campaign_id"`
	CampaignName string   `json:"campaign_name"`
	Kind         string   `json:"recommendation"`
	Action       string   `json:"action"`
	TargetBudget *float64 `json:"target_budget,omitempty"`
	Confidence   float64  `json:"confidence"`
	Priority     string   `json:"priority"`
}

func priorityRank(p string) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	}
	return 3
}

// Recommend evaluates every campaign against the cohort's mean ROAS
// and mean CAC and emits ranked budget actions. Rules are independent
// except that a zero-spend campaign only ever gets the launch
// recommendation. Output is deduplicated by (campaign, kind), stably
// sorted by priority then confidence, and capped at 10.
func Recommend(metrics []CampaignMetrics) []Recommendation {
	if len(metrics) == 0 {
		return nil
	}

	var sumROAS, sumCAC float64
	for _, m := range metrics {
		sumROAS += m.ROAS
		sumCAC += m.CAC
	}
	avgROAS := sumROAS / float64(len(metrics))
	avgCAC := sumCAC / float64(len(metrics))

	var recs []Recommendation
	for _, m := range metrics {
		recs = append(recs, evaluate(m, avgROAS, avgCAC)...)
	}

	recs = dedupe(recs)

	sort.SliceStable(recs, func(i, j int) bool {
		ri, rj := priorityRank(recs[i].Priority), priorityRank(recs[j].Priority)
		if ri != rj {
			return ri < rj
		}
		return recs[i].Confidence > recs[j].Confidence
	})

	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}

func evaluate(m CampaignMetrics, avgROAS, avgCAC float64) []Recommendation {
	var recs []Recommendation

	rec := func(kind, action, priority string, confidence float64, targetBudget *float64) {
		recs = append(recs, Recommendation{
			CampaignID:   m.CampaignID,
			CampaignName: m.CampaignName,
			Kind:         kind,
			Action:       action,
			TargetBudget: targetBudget,
			Confidence:   confidence,
			Priority:     priority,
		})
	}

	// A campaign that never spent has nothing else to say about it.
	if m.Spend == 0 {
		rec(KindLaunch, "This campaign has no spend yet. Consider allocating budget.", PriorityLow, 0.7, nil)
		return recs
	}

	switch {
	case m.ROAS > avgROAS*1.5:
		pct := 20 + int((m.ROAS-avgROAS)/avgROAS*10)
		if pct > 50 {
			pct = 50
		}
		target := m.Budget * (1 + float64(pct)/100)
		rec(KindIncrease,
			fmt.Sprintf("This campaign has %d%% above-average ROAS. Increase budget by %d%%", pct, pct),
			PriorityHigh, 0.85, &target)

	case m.ROAS < avgROAS*0.7:
		if m.Conversions < 1 {
			rec(KindReduceOrPause,
				fmt.Sprintf("Low ROAS %.2f with minimal conversions. Consider pausing or reallocating.", m.ROAS),
				PriorityHigh, 0.8, nil)
		} else {
			pct := int((avgROAS - m.ROAS) / avgROAS * 30)
			if pct > 50 {
				pct = 50
			}
			target := m.Budget * (1 - float64(pct)/100)
			rec(KindReduce,
				fmt.Sprintf("ROAS is %d%% below average. Reduce budget by %d%%", pct, pct),
				PriorityMedium, 0.75, &target)
		}
	}

	if m.ROAS > 2.0 && m.Conversions >= 2 {
		rec(KindHighPerformer,
			fmt.Sprintf("Excellent ROAS of %.2f. This is a high-performing segment - test expanding audience.", m.ROAS),
			PriorityHigh, 0.9, nil)
	}

	if m.CAC < avgCAC*0.5 {
		rec(KindEfficientCAC, "CAC is 50% below average. Consider scaling this channel.", PriorityMedium, 0.8, nil)
	}

	if m.CTR < 0.5 && m.Impressions > 1000 {
		rec(KindImproveAds,
			fmt.Sprintf("Low CTR of %.2f%%. Test new creative or audience targeting.", m.CTR),
			PriorityMedium, 0.7, nil)
	}

	return recs
}

// dedupe keeps the first recommendation emitted per (campaign, kind).
func dedupe(recs []Recommendation) []Recommendation {
	type key struct {
		campaignID int64
		kind       string
	}
	seen := make(map[key]struct{}, len(recs))
	out := recs[:0]
	for _, r := range recs {
		k := key{r.CampaignID, r.Kind}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}
