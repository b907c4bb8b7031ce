package seed

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/pipelineiq/pipelineiq/internal/store"
)

func openTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "seed.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunCreatesDemoDataset(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	result, err := Run(ctx, s)
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if result.Campaigns != len(campaignSpecs) {
		t.Errorf("created %d campaigns, want %d", result.Campaigns, len(campaignSpecs))
	}
	if result.Leads != numLeads {
		t.Errorf("created %d leads, want %d", result.Leads, numLeads)
	}
	if result.Results == 0 {
		t.Error("no attribution results created")
	}

	company, err := s.GetCompanyByName(ctx, demoCompany)
	if err != nil {
		t.Fatalf("demo company missing after seed: %v", err)
	}

	// Attribution should be stored under every model.
	for _, model := range []string{"linear", "first_touch", "last_touch", "time_decay"} {
		aggs, err := s.CampaignAggregates(ctx, company.ID, model)
		if err != nil {
			t.Fatalf("failed to aggregate %s: %v", model, err)
		}
		var revenue float64
		for _, a := range aggs {
			revenue += a.AttributedRevenue
		}
		if revenue <= 0 {
			t.Errorf("model %s has no attributed revenue", model)
		}
	}
}

func TestRunIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := Run(ctx, s); err != nil {
		t.Fatalf("first seed failed: %v", err)
	}
	_, err := Run(ctx, s)
	if !errors.Is(err, ErrAlreadySeeded) {
		t.Fatalf("second seed returned %v, want ErrAlreadySeeded", err)
	}
}

// Two seeds into fresh databases must produce identical data.
func TestRunIsDeterministic(t *testing.T) {
	ctx := context.Background()
	s1 := openTestStore(t)
	s2 := openTestStore(t)

	r1, err := Run(ctx, s1)
	if err != nil {
		t.Fatalf("first seed failed: %v", err)
	}
	r2, err := Run(ctx, s2)
	if err != nil {
		t.Fatalf("second seed failed: %v", err)
	}

	if r1.Results != r2.Results {
		t.Errorf("result counts differ: %d vs %d", r1.Results, r2.Results)
	}

	l1, err := s1.ListLeads(ctx, r1.CompanyID)
	if err != nil {
		t.Fatal(err)
	}
	l2, err := s2.ListLeads(ctx, r2.CompanyID)
	if err != nil {
		t.Fatal(err)
	}
	if len(l1) != len(l2) {
		t.Fatalf("lead counts differ: %d vs %d", len(l1), len(l2))
	}
	for i := range l1 {
		if l1[i].Stage != l2[i].Stage || l1[i].DealValue != l2[i].DealValue {
			t.Fatalf("lead %d differs: %v/%v vs %v/%v",
				i, l1[i].Stage, l1[i].DealValue, l2[i].Stage, l2[i].DealValue)
		}
		if len(l1[i].Touchpoints) != len(l2[i].Touchpoints) {
			t.Fatalf("lead %d touchpoint counts differ", i)
		}
	}
}
