package budget_test

import (
	"testing"

	"github.com/pipelineiq/pipelineiq/internal/budget"
)

func kindsFor(recs []budget.Recommendation, campaignID int64) []string {
	var kinds []string
	for _, r := range recs {
		if r.CampaignID == campaignID {
			kinds = append(kinds, r.Kind)
		}
	}
	return kinds
}

func TestRecommend_EmptyCohort(t *testing.T) {
	if recs := budget.Recommend(nil); len(recs) != 0 {
		t.Errorf("got %d recommendations for empty cohort, want 0", len(recs))
	}
}

func TestRecommend_ZeroSpendOnlyLaunch(t *testing.T) {
	metrics := []budget.CampaignMetrics{
		{CampaignID: 1, CampaignName: "New Channel", Spend: 0, Impressions: 5000, CTR: 0.1},
		{CampaignID: 2, CampaignName: "Steady", Spend: 1000, ROAS: 1.0, Leads: 5, CAC: 200},
	}

	recs := budget.Recommend(metrics)

	kinds := kindsFor(recs, 1)
	if len(kinds) != 1 || kinds[0] != budget.KindLaunch {
		t.Fatalf("zero-spend campaign got %v, want exactly [%s]", kinds, budget.KindLaunch)
	}
	for _, r := range recs {
		if r.CampaignID == 1 {
			if r.Priority != budget.PriorityLow || r.Confidence != 0.7 {
				t.Errorf("launch rec got (%s, %f), want (low, 0.70)", r.Priority, r.Confidence)
			}
		}
	}
}

func TestRecommend_HighROASTriggersIncreaseAndSegment(t *testing.T) {
	// Campaign 1 sits at exactly 2x the cohort mean ROAS (6 vs mean 3)
	// with enough conversions for the segment rule.
	metrics := []budget.CampaignMetrics{
		{CampaignID: 1, CampaignName: "Winner", Spend: 1000, Budget: 10000, ROAS: 6, Conversions: 3, Leads: 10, CAC: 100},
		{CampaignID: 2, CampaignName: "Middling", Spend: 1000, Budget: 10000, ROAS: 2, Conversions: 1, Leads: 10, CAC: 100},
		{CampaignID: 3, CampaignName: "Weak", Spend: 1000, Budget: 10000, ROAS: 1, Conversions: 1, Leads: 10, CAC: 100},
	}

	recs := budget.Recommend(metrics)

	kinds := kindsFor(recs, 1)
	var hasIncrease, hasSegment bool
	for _, k := range kinds {
		if k == budget.KindIncrease {
			hasIncrease = true
		}
		if k == budget.KindHighPerformer {
			hasSegment = true
		}
	}
	if !hasIncrease || !hasSegment {
		t.Errorf("campaign at 2x mean ROAS with 3 conversions got %v, want both increase and segment", kinds)
	}
}

func TestRecommend_IncreasePercentCapped(t *testing.T) {
	// One runaway campaign against nine flat ones pushes the raw
	// increase percentage far past the cap.
	metrics := []budget.CampaignMetrics{
		{CampaignID: 1, CampaignName: "Runaway", Spend: 100, Budget: 1000, ROAS: 100, Leads: 1, CAC: 100},
	}
	for i := int64(2); i <= 10; i++ {
		metrics = append(metrics, budget.CampaignMetrics{
			CampaignID: i, CampaignName: "Flat", Spend: 100, Budget: 1000, ROAS: 1, Conversions: 1, Leads: 1, CAC: 100,
		})
	}

	recs := budget.Recommend(metrics)

	for _, r := range recs {
		if r.CampaignID == 1 && r.Kind == budget.KindIncrease {
			if r.TargetBudget == nil {
				t.Fatal("increase recommendation missing target budget")
			}
			// Capped at +50% of the planned budget.
			if *r.TargetBudget != 1500 {
				t.Errorf("got target budget %f, want 1500", *r.TargetBudget)
			}
			return
		}
	}
	t.Fatal("no increase recommendation emitted")
}

func TestRecommend_LowROASWithoutConversionsPauses(t *testing.T) {
	metrics := []budget.CampaignMetrics{
		{CampaignID: 1, CampaignName: "Sink", Spend: 1000, ROAS: 0.1, Conversions: 0, Leads: 2, CAC: 500},
		{CampaignID: 2, CampaignName: "Fine", Spend: 1000, ROAS: 3, Conversions: 2, Leads: 10, CAC: 100},
		{CampaignID: 3, CampaignName: "Fine2", Spend: 1000, ROAS: 3, Conversions: 2, Leads: 10, CAC: 100},
	}

	recs := budget.Recommend(metrics)

	var found *budget.Recommendation
	for i := range recs {
		if recs[i].CampaignID == 1 && recs[i].Kind == budget.KindReduceOrPause {
			found = &recs[i]
		}
	}
	if found == nil {
		t.Fatal("expected reduce-or-pause for low-ROAS zero-conversion campaign")
	}
	if found.Priority != budget.PriorityHigh || found.Confidence != 0.8 {
		t.Errorf("got (%s, %f), want (high, 0.80)", found.Priority, found.Confidence)
	}
}

func TestRecommend_LowROASWithConversionsReduces(t *testing.T) {
	metrics := []budget.CampaignMetrics{
		{CampaignID: 1, CampaignName: "Laggard", Spend: 1000, Budget: 10000, ROAS: 1, Conversions: 2, Leads: 10, CAC: 100},
		{CampaignID: 2, CampaignName: "Fine", Spend: 1000, Budget: 10000, ROAS: 5, Conversions: 2, Leads: 10, CAC: 100},
	}

	recs := budget.Recommend(metrics)

	for _, r := range recs {
		if r.CampaignID == 1 && r.Kind == budget.KindReduce {
			if r.Priority != budget.PriorityMedium || r.Confidence != 0.75 {
				t.Errorf("got (%s, %f), want (medium, 0.75)", r.Priority, r.Confidence)
			}
			if r.TargetBudget == nil {
				t.Error("reduce recommendation missing target budget")
			}
			return
		}
	}
	t.Fatal("no reduce recommendation emitted")
}

func TestRecommend_LowCTRHighImpressions(t *testing.T) {
	metrics := []budget.CampaignMetrics{
		{CampaignID: 1, CampaignName: "Stale Ads", Spend: 1000, ROAS: 1, Impressions: 100000, CTR: 0.1, Leads: 5, CAC: 200},
		{CampaignID: 2, CampaignName: "Other", Spend: 1000, ROAS: 1, Impressions: 500, CTR: 0.1, Leads: 5, CAC: 200},
	}

	recs := budget.Recommend(metrics)

	kinds1 := kindsFor(recs, 1)
	if len(kinds1) != 1 || kinds1[0] != budget.KindImproveAds {
		t.Errorf("campaign 1 got %v, want [%s]", kinds1, budget.KindImproveAds)
	}
	// Too few impressions to judge creative on campaign 2.
	for _, k := range kindsFor(recs, 2) {
		if k == budget.KindImproveAds {
			t.Error("campaign with 500 impressions should not trigger creative advice")
		}
	}
}

func TestRecommend_OrderingAndCap(t *testing.T) {
	// Build a cohort noisy enough to emit more than 10 recommendations.
	var metrics []budget.CampaignMetrics
	for i := int64(1); i <= 8; i++ {
		metrics = append(metrics, budget.CampaignMetrics{
			CampaignID:   i,
			CampaignName: "C",
			Spend:        0, // each yields a low-priority launch rec
		})
	}
	for i := int64(9); i <= 14; i++ {
		metrics = append(metrics, budget.CampaignMetrics{
			CampaignID:   i,
			CampaignName: "Hot",
			Spend:        1000,
			Budget:       10000,
			ROAS:         50,
			Conversions:  3,
			Leads:        10,
			CAC:          100,
		})
	}

	recs := budget.Recommend(metrics)

	if len(recs) != 10 {
		t.Fatalf("got %d recommendations, want cap of 10", len(recs))
	}
	for i := 1; i < len(recs); i++ {
		prev, cur := recs[i-1], recs[i]
		if rank(prev.Priority) > rank(cur.Priority) {
			t.Fatalf("priority order violated at %d: %s before %s", i, prev.Priority, cur.Priority)
		}
		if prev.Priority == cur.Priority && prev.Confidence < cur.Confidence {
			t.Fatalf("confidence order violated at %d: %f before %f", i, prev.Confidence, cur.Confidence)
		}
	}
}

func rank(p string) int {
	switch p {
	case budget.PriorityHigh:
		return 0
	case budget.PriorityMedium:
		return 1
	default:
		return 2
	}
}
