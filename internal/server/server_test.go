package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/pipelineiq/pipelineiq/internal/config"
	"github.com/pipelineiq/pipelineiq/internal/server"
	"github.com/pipelineiq/pipelineiq/internal/store"
)

func newTestServer(t *testing.T) *server.Server {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := config.Config{
		DBPath:    "",
		Port:      0,
		JWTSecret: "test-secret",
		TokenTTL:  time.Minute,
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return server.New(st, cfg, log)
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

// signup + login, returning a valid bearer token.
func authToken(t *testing.T, h http.Handler) string {
	t.Helper()

	rec := doJSON(t, h, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":     "ana@example.com",
		"password":  "supersecret",
		"full_name": "Ana Tester",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "ana@example.com",
		"password": "supersecret",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", rec.Code, rec.Body.String())
	}
	body := decode[map[string]string](t, rec)
	if body["access_token"] == "" {
		t.Fatal("login response missing access_token")
	}
	return body["access_token"]
}

func TestHealth(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := doJSON(t, h, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health returned %d", rec.Code)
	}
	body := decode[map[string]any](t, rec)
	if body["status"] != "ok" {
		t.Fatalf("health status = %v, want ok", body["status"])
	}
}

func TestAuthMiddleware(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := doJSON(t, h, http.MethodGet, "/api/auth/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token returned %d, want 401", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/auth/me", "not-a-real-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token returned %d, want 401", rec.Code)
	}
}

func TestSignupLoginMe(t *testing.T) {
	h := newTestServer(t).Handler()
	token := authToken(t, h)

	rec := doJSON(t, h, http.MethodGet, "/api/auth/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me returned %d: %s", rec.Code, rec.Body.String())
	}
	body := decode[map[string]any](t, rec)
	if body["email"] != "ana@example.com" {
		t.Fatalf("me email = %v", body["email"])
	}
}

func TestSignupRejectsWeakPassword(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":    "bob@example.com",
		"password": "short",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("weak password returned %d, want 400", rec.Code)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	h := newTestServer(t).Handler()
	authToken(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "ana@example.com",
		"password": "wrongpassword",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password returned %d, want 401", rec.Code)
	}
}

// seedFixture creates a company, two campaigns and a lead directly
// through the store and returns their IDs.
func seedFixture(t *testing.T, srv *server.Server) (companyID int64, campaignIDs []int64, leadID int64) {
	t.Helper()
	ctx := context.Background()
	st := srv.Store()

	company, err := st.CreateCompany(ctx, "Acme Corp", "SaaS", 120000)
	if err != nil {
		t.Fatalf("failed to create company: %v", err)
	}

	for i, spend := range []float64{5000, 2000} {
		c, err := st.CreateCampaign(ctx, store.Campaign{
			CompanyID:   company.ID,
			Name:        fmt.Sprintf("Campaign %d", i+1),
			Platform:    "Google",
			Budget:      spend,
			Impressions: 10000,
			Clicks:      300,
			Cost:        spend,
		})
		if err != nil {
			t.Fatalf("failed to create campaign: %v", err)
		}
		campaignIDs = append(campaignIDs, c.ID)
	}

	lead, err := st.CreateLead(ctx, store.Lead{
		CompanyID:        company.ID,
		SourceCampaignID: &campaignIDs[0],
		Email:            "lead@example.com",
		Name:             "Big Deal",
		Touchpoints:      campaignIDs,
		Stage:            store.StageWon,
		DealValue:        40000,
	})
	if err != nil {
		t.Fatalf("failed to create lead: %v", err)
	}
	return company.ID, campaignIDs, lead.ID
}

func TestCalculateAttribution(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()
	token := authToken(t, h)
	_, campaignIDs, leadID := seedFixture(t, srv)

	path := fmt.Sprintf("/api/attribution/calculate/%d?model=linear", leadID)
	rec := doJSON(t, h, http.MethodPost, path, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("calculate returned %d: %s", rec.Code, rec.Body.String())
	}

	body := decode[struct {
		LeadID  int64 `json:"lead_id"`
		Count   int   `json:"attribution_count"`
		Results []struct {
			CampaignID        *int64  `json:"campaign_id"`
			Weight            float64 `json:"weighted_attribution"`
			AttributedRevenue float64 `json:"attributed_revenue"`
		} `json:"results"`
	}](t, rec)

	if body.LeadID != leadID {
		t.Fatalf("lead_id = %d, want %d", body.LeadID, leadID)
	}
	if body.Count != len(campaignIDs) {
		t.Fatalf("attribution_count = %d, want %d", body.Count, len(campaignIDs))
	}
	var totalRevenue float64
	for _, res := range body.Results {
		if res.Weight != 0.5 {
			t.Fatalf("linear weight = %v, want 0.5", res.Weight)
		}
		totalRevenue += res.AttributedRevenue
	}
	if totalRevenue != 40000 {
		t.Fatalf("attributed revenue sums to %v, want 40000", totalRevenue)
	}
}

func TestCalculateAttributionRejectsBadModel(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()
	token := authToken(t, h)
	_, _, leadID := seedFixture(t, srv)

	path := fmt.Sprintf("/api/attribution/calculate/%d?model=quantum", leadID)
	rec := doJSON(t, h, http.MethodPost, path, token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad model returned %d, want 400", rec.Code)
	}
}

func TestCalculateAttributionMissingLead(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()
	token := authToken(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/attribution/calculate/9999", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing lead returned %d, want 404", rec.Code)
	}
}

func TestAttributionSummaryZeroFills(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()
	token := authToken(t, h)
	companyID, _, _ := seedFixture(t, srv)

	rec := doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/attribution/summary/%d", companyID), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary returned %d: %s", rec.Code, rec.Body.String())
	}
	body := decode[struct {
		Summary map[string]map[string]float64 `json:"attribution_summary"`
	}](t, rec)

	for _, model := range []string{"linear", "first_touch", "last_touch", "time_decay"} {
		if _, ok := body.Summary[model]; !ok {
			t.Fatalf("summary missing model %q", model)
		}
	}
}

func TestBudgetOptimization(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()
	token := authToken(t, h)
	companyID, _, leadID := seedFixture(t, srv)

	rec := doJSON(t, h, http.MethodPost, fmt.Sprintf("/api/attribution/calculate/%d", leadID), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("calculate returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/analytics/budget-optimization/%d", companyID), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("budget-optimization returned %d: %s", rec.Code, rec.Body.String())
	}
	body := decode[struct {
		Recommendations []map[string]any `json:"recommendations"`
		Metrics         []map[string]any `json:"campaign_metrics"`
	}](t, rec)
	if len(body.Metrics) != 2 {
		t.Fatalf("campaign_metrics has %d rows, want 2", len(body.Metrics))
	}
	if body.Recommendations == nil {
		t.Fatal("recommendations should be an array, not null")
	}
}

func TestOverview(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()
	token := authToken(t, h)
	companyID, _, leadID := seedFixture(t, srv)

	rec := doJSON(t, h, http.MethodPost, fmt.Sprintf("/api/attribution/calculate/%d", leadID), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("calculate returned %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/analytics/overview/%d", companyID), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("overview returned %d: %s", rec.Code, rec.Body.String())
	}
	body := decode[map[string]any](t, rec)
	if body["total_ad_spend"].(float64) != 7000 {
		t.Fatalf("total_ad_spend = %v, want 7000", body["total_ad_spend"])
	}
	if body["num_leads"].(float64) != 1 {
		t.Fatalf("num_leads = %v, want 1", body["num_leads"])
	}
	if body["revenue_attributed"].(float64) != 40000 {
		t.Fatalf("revenue_attributed = %v, want 40000", body["revenue_attributed"])
	}
}

func TestFunnelZeroFills(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()
	token := authToken(t, h)
	companyID, _, _ := seedFixture(t, srv)

	rec := doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/analytics/funnel/%d", companyID), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("funnel returned %d: %s", rec.Code, rec.Body.String())
	}
	body := decode[struct {
		Funnel []struct {
			Stage string  `json:"stage"`
			Count int     `json:"count"`
			Value float64 `json:"value"`
		} `json:"funnel"`
	}](t, rec)
	if len(body.Funnel) != 5 {
		t.Fatalf("funnel has %d stages, want 5", len(body.Funnel))
	}
	var won int
	for _, row := range body.Funnel {
		if row.Stage == "Won" {
			won = row.Count
		}
	}
	if won != 1 {
		t.Fatalf("Won count = %d, want 1", won)
	}
}

func TestDealProbability(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()
	token := authToken(t, h)
	companyID, _, _ := seedFixture(t, srv)

	rec := doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/analytics/deal-probability/%d", companyID), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("deal-probability returned %d: %s", rec.Code, rec.Body.String())
	}
	body := decode[struct {
		Leads []struct {
			LeadID      int64   `json:"lead_id"`
			Probability float64 `json:"probability"`
		} `json:"high_probability_leads"`
	}](t, rec)
	for _, l := range body.Leads {
		if l.Probability < 0 || l.Probability > 100 {
			t.Fatalf("probability %v out of range", l.Probability)
		}
	}
}

func TestCreateAndListCampaigns(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()
	token := authToken(t, h)
	companyID, _, _ := seedFixture(t, srv)

	rec := doJSON(t, h, http.MethodPost, "/api/campaigns", token, map[string]any{
		"company_id": companyID,
		"name":       "Brand Retargeting",
		"platform":   "Meta",
		"budget":     1500.0,
		"cost":       900.0,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create campaign returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/campaigns/%d", companyID), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list campaigns returned %d", rec.Code)
	}
	campaigns := decode[[]map[string]any](t, rec)
	if len(campaigns) != 3 {
		t.Fatalf("listed %d campaigns, want 3", len(campaigns))
	}
}

func TestCreateCampaignValidation(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()
	token := authToken(t, h)
	companyID, _, _ := seedFixture(t, srv)

	rec := doJSON(t, h, http.MethodPost, "/api/campaigns", token, map[string]any{
		"company_id": companyID,
		"platform":   "Meta",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("nameless campaign returned %d, want 400", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/campaigns", token, map[string]any{
		"company_id": companyID,
		"name":       "Bad",
		"platform":   "Meta",
		"budget":     -5.0,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("negative budget returned %d, want 400", rec.Code)
	}
}

func TestCreateLead(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()
	token := authToken(t, h)
	companyID, campaignIDs, _ := seedFixture(t, srv)

	rec := doJSON(t, h, http.MethodPost, "/api/leads", token, map[string]any{
		"company_id":  companyID,
		"email":       "new@example.com",
		"name":        "New Lead",
		"touchpoints": campaignIDs,
		"stage":       "SQL",
		"deal_value":  12000.0,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create lead returned %d: %s", rec.Code, rec.Body.String())
	}
	body := decode[map[string]any](t, rec)
	if body["source_campaign_id"].(float64) != float64(campaignIDs[0]) {
		t.Fatalf("source_campaign_id = %v, want first touchpoint %d", body["source_campaign_id"], campaignIDs[0])
	}

	rec = doJSON(t, h, http.MethodPost, "/api/leads", token, map[string]any{
		"company_id": companyID,
		"email":      "bad@example.com",
		"name":       "Bad Stage",
		"stage":      "Daydreaming",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid stage returned %d, want 400", rec.Code)
	}
}

func TestSeedEndpoint(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/seed", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("seed returned %d: %s", rec.Code, rec.Body.String())
	}
	body := decode[map[string]any](t, rec)
	if body["leads"].(float64) != 300 {
		t.Fatalf("seed created %v leads, want 300", body["leads"])
	}

	rec = doJSON(t, h, http.MethodPost, "/api/seed", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("second seed returned %d", rec.Code)
	}
	second := decode[map[string]string](t, rec)
	if second["message"] != "database already seeded" {
		t.Fatalf("second seed message = %q", second["message"])
	}
}
