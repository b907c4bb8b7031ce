// Package seed populates a fresh database with a realistic demo
// company so the attribution and recommendation surfaces have data to
// chew on. Generation is deterministic: the same binary always
// produces the same dataset.
package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/pipelineiq/pipelineiq/internal/attribution"
	"github.com/pipelineiq/pipelineiq/internal/store"
)

// ErrAlreadySeeded is returned when the demo company already exists.
var ErrAlreadySeeded = errors.New("database already seeded")

const (
	demoCompany  = "TechFlow SaaS"
	demoIndustry = "SaaS"
	demoAdSpend  = 240000.0
	numLeads     = 300
	randSeed     = 42
)

// Result summarizes what a seed run created.
type Result struct {
	CompanyID int64
	Campaigns int
	Leads     int
	Results   int
}

type campaignSpec struct {
	name        string
	platform    string
	budget      float64
	impressions int64
	clicks      int64
	cost        float64
}

var campaignSpecs = []campaignSpec{
	{"Google Search - Growth", "Google", 50000, 500000, 25000, 15000},
	{"Google Search - Brand", "Google", 30000, 800000, 32000, 8000},
	{"LinkedIn Ads - ABM", "LinkedIn", 40000, 200000, 4000, 12000},
	{"LinkedIn Ads - Thought Leadership", "LinkedIn", 25000, 150000, 3000, 7500},
	{"Facebook - Awareness", "Meta", 20000, 1000000, 30000, 5000},
	{"Instagram - Engagement", "Meta", 15000, 800000, 24000, 3600},
	{"Google Display - Retargeting", "Google", 18000, 2000000, 80000, 5400},
	{"LinkedIn InMail - Nurture", "LinkedIn", 22000, 50000, 2000, 6600},
	{"TikTok - Brand", "Meta", 12000, 500000, 15000, 3600},
	{"YouTube - Pre-Roll", "Google", 16000, 400000, 12000, 4800},
	{"Twitter - Community", "Meta", 10000, 300000, 9000, 3000},
	{"Outbound Email - List1", "Google", 8000, 100000, 100, 2400},
}

var leadNames = []string{
	"Alice Johnson", "Bob Smith", "Carol White", "David Brown", "Emma Davis",
	"Frank Wilson", "Grace Lee", "Henry Miller", "Isabel Martinez", "Jack Taylor",
	"Karen Anderson", "Liam Thomas", "Mia Jackson", "Noah Harris", "Olivia Martin",
	"Peter Thompson", "Quinn Robinson", "Rachel Clark", "Samuel Jones", "Tina Williams",
	"Uma Rodriguez", "Victor Lopez", "Wendy Hall", "Xavier Rivera", "Yara Ahmed",
	"Zoe Green", "Aaron King", "Bella Scott", "Charles Green", "Diana Adams",
}

// Stage rotation weighted toward the middle of the funnel.
var stageRotation = []store.Stage{
	store.StageMQL,
	store.StageSQL, store.StageSQL,
	store.StageOpportunity, store.StageOpportunity, store.StageOpportunity,
	store.StageWon, store.StageWon, store.StageWon,
	store.StageLost,
}

var dealValuesByStage = map[store.Stage][]float64{
	store.StageWon:         {15000, 20000, 25000, 30000, 35000, 40000, 50000},
	store.StageOpportunity: {10000, 15000, 20000, 25000},
	store.StageSQL:         {5000, 10000, 15000},
	store.StageMQL:         {0, 5000, 10000},
	store.StageLost:        {0, 5000, 10000},
}

// Run creates the demo company, campaigns and leads, then computes
// attribution for every lead under all four models.
func Run(ctx context.Context, s store.Store) (*Result, error) {
	if _, err := s.GetCompanyByName(ctx, demoCompany); err == nil {
		return nil, ErrAlreadySeeded
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	company, err := s.CreateCompany(ctx, demoCompany, demoIndustry, demoAdSpend)
	if err != nil {
		return nil, err
	}

	campaignIDs := make([]int64, 0, len(campaignSpecs))
	for _, spec := range campaignSpecs {
		campaign, err := s.CreateCampaign(ctx, store.Campaign{
			CompanyID:   company.ID,
			Name:        spec.name,
			Platform:    spec.platform,
			Budget:      spec.budget,
			Impressions: spec.impressions,
			Clicks:      spec.clicks,
			Cost:        spec.cost,
		})
		if err != nil {
			return nil, err
		}
		campaignIDs = append(campaignIDs, campaign.ID)
	}

	rng := rand.New(rand.NewSource(randSeed))
	result := &Result{CompanyID: company.ID, Campaigns: len(campaignIDs)}

	for i := 0; i < numLeads; i++ {
		stage := stageRotation[i%len(stageRotation)]
		values := dealValuesByStage[stage]
		dealValue := values[rng.Intn(len(values))]
		touchpoints := randomTouchpoints(rng, campaignIDs)

		lead := store.Lead{
			CompanyID:   company.ID,
			Email:       fmt.Sprintf("lead_%d@company.com", i),
			Name:        fmt.Sprintf("%s %d", leadNames[i%len(leadNames)], i),
			Touchpoints: touchpoints,
			Stage:       stage,
			DealValue:   dealValue,
		}
		if len(touchpoints) > 0 {
			lead.SourceCampaignID = &touchpoints[0]
		}

		created, err := s.CreateLead(ctx, lead)
		if err != nil {
			return nil, err
		}
		result.Leads++

		n, err := attributeAll(ctx, s, created)
		if err != nil {
			return nil, err
		}
		result.Results += n
	}

	return result, nil
}

// randomTouchpoints draws 1-4 campaigns, keeping each at most once.
func randomTouchpoints(rng *rand.Rand, campaignIDs []int64) []int64 {
	n := 1 + rng.Intn(4)
	seen := make(map[int64]bool, n)
	var touchpoints []int64
	for i := 0; i < n; i++ {
		id := campaignIDs[rng.Intn(len(campaignIDs))]
		if seen[id] {
			continue
		}
		seen[id] = true
		touchpoints = append(touchpoints, id)
	}
	return touchpoints
}

func attributeAll(ctx context.Context, s store.Store, lead *store.Lead) (int, error) {
	if len(lead.Touchpoints) == 0 {
		return 0, nil
	}

	total := 0
	for _, model := range attribution.Models() {
		credits := attribution.Compute(lead.Touchpoints, lead.DealValue, model)
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
		if err := s.ReplaceAttributionResults(ctx, lead.ID, string(model), results); err != nil {
			return 0, err
		}
		total += len(results)
	}
	return total, nil
}
