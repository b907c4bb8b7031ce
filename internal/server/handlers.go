package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pipelineiq/pipelineiq/internal/attribution"
	"github.com/pipelineiq/pipelineiq/internal/budget"
	"github.com/pipelineiq/pipelineiq/internal/seed"
	"github.com/pipelineiq/pipelineiq/internal/store"
)

// highProbabilityThreshold feeds the deal-probability endpoint; leads
// scoring below it are not worth surfacing.
const highProbabilityThreshold = 50.0

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// storeError maps persistence failures: a missing row is the caller's
// 404, anything else is the store being unavailable.
func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	s.log.Error("store failure", slog.String("rid", RID(r.Context())), slog.String("err", err.Error()))
	writeError(w, http.StatusBadGateway, "input unavailable")
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

// modelParam reads ?model= with strict validation, defaulting to linear.
func modelParam(r *http.Request) (attribution.Model, bool) {
	raw := r.URL.Query().Get("model")
	if raw == "" {
		return attribution.Linear, true
	}
	model := attribution.Model(raw)
	return model, model.Valid()
}

func (s *Server) getCompany(w http.ResponseWriter, r *http.Request) (*store.Company, bool) {
	id, ok := pathID(r, "companyID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid company id")
		return nil, false
	}
	company, err := s.store.GetCompany(r.Context(), id)
	if err != nil {
		s.storeError(w, r, err)
		return nil, false
	}
	return company, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// --- Health ---

type healthResponse struct {
	Status        string `json:"status"`
	Companies     int    `json:"companies"`
	Campaigns     int    `json:"campaigns"`
	Leads         int    `json:"leads"`
	DBSizeBytes   int64  `json:"db_size_bytes"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	companies, err := s.store.ListCompanies(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}

	db := s.store.DB()
	var campaigns, leads int
	_ = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM campaigns").Scan(&campaigns)
	_ = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM leads").Scan(&leads)

	var dbSize int64
	_ = db.QueryRowContext(ctx, "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()").Scan(&dbSize)

	writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		Companies:     len(companies),
		Campaigns:     campaigns,
		Leads:         leads,
		DBSizeBytes:   dbSize,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	})
}

// --- Seed ---

func (s *Server) handleSeed(w http.ResponseWriter, r *http.Request) {
	result, err := seed.Run(r.Context(), s.store)
	if errors.Is(err, seed.ErrAlreadySeeded) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "database already seeded"})
		return
	}
	if err != nil {
		s.storeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "database seeded with all attribution models",
		"company_id": result.CompanyID,
		"campaigns":  result.Campaigns,
		"leads":      result.Leads,
		"results":    result.Results,
	})
}

// --- Attribution ---

type attributionCredit struct {
	CampaignID        *int64  `json:"campaign_id"`
	Weight            float64 `json:"weighted_attribution"`
	AttributedRevenue float64 `json:"attributed_revenue"`
}

func (s *Server) handleCalculateAttribution(w http.ResponseWriter, r *http.Request) {
	leadID, ok := pathID(r, "leadID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid lead id")
		return
	}
	model, ok := modelParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid attribution model")
		return
	}

	results, err := attribution.AttributeLead(r.Context(), s.store, leadID, model)
	if err != nil {
		s.storeError(w, r, err)
		return
	}

	credits := make([]attributionCredit, 0, len(results))
	for _, res := range results {
		credits = append(credits, attributionCredit{
			CampaignID:        res.CampaignID,
			Weight:            res.Weight,
			AttributedRevenue: res.AttributedRevenue,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"lead_id":           leadID,
		"model":             model,
		"attribution_count": len(credits),
		"results":           credits,
	})
}

func (s *Server) handleRevenueByCampaign(w http.ResponseWriter, r *http.Request) {
	company, ok := s.getCompany(w, r)
	if !ok {
		return
	}
	model, ok := modelParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid attribution model")
		return
	}

	revenues, err := s.store.RevenueByCampaign(r.Context(), company.ID, string(model))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	if revenues == nil {
		revenues = []store.CampaignRevenue{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"model": model, "data": revenues})
}

func (s *Server) handleAttributionSummary(w http.ResponseWriter, r *http.Request) {
	company, ok := s.getCompany(w, r)
	if !ok {
		return
	}

	totals, err := s.store.AttributionSummary(r.Context(), company.ID)
	if err != nil {
		s.storeError(w, r, err)
		return
	}

	// Every model shows up, zero-filled when nothing is stored.
	summary := make(map[string]map[string]any, len(attribution.Models()))
	for _, model := range attribution.Models() {
		ms := totals[string(model)]
		summary[string(model)] = map[string]any{
			"total_attributed_revenue": ms.TotalAttributedRevenue,
			"leads_attributed":         ms.ResultCount,
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"company_id":          company.ID,
		"company_name":        company.Name,
		"attribution_summary": summary,
	})
}

// --- Analytics ---

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	company, ok := s.getCompany(w, r)
	if !ok {
		return
	}
	model, ok := modelParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid attribution model")
		return
	}

	o, err := s.store.Overview(r.Context(), company.ID, string(model))
	if err != nil {
		s.storeError(w, r, err)
		return
	}

	roas := budget.ROAS(o.RevenueAttributed, o.TotalAdSpend)
	var cac, conversionRate float64
	if o.Leads > 0 {
		cac = o.TotalAdSpend / float64(o.Leads)
		conversionRate = float64(o.Conversions) / float64(o.Leads) * 100
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"company_id":         company.ID,
		"company_name":       company.Name,
		"total_ad_spend":     o.TotalAdSpend,
		"pipeline_value":     o.PipelineValue,
		"revenue_attributed": o.RevenueAttributed,
		"roas":               round2(roas),
		"cac":                round2(cac),
		"num_campaigns":      o.Campaigns,
		"num_leads":          o.Leads,
		"conversion_rate":    round2(conversionRate),
		"num_conversions":    o.Conversions,
	})
}

func (s *Server) handleFunnel(w http.ResponseWriter, r *http.Request) {
	company, ok := s.getCompany(w, r)
	if !ok {
		return
	}

	funnel, err := s.store.Funnel(r.Context(), company.ID)
	if err != nil {
		s.storeError(w, r, err)
		return
	}

	type funnelRow struct {
		Stage store.Stage `json:"stage"`
		Count int         `json:"count"`
		Value float64     `json:"value"`
	}
	rows := make([]funnelRow, 0, len(funnel))
	for _, f := range funnel {
		rows = append(rows, funnelRow{Stage: f.Stage, Count: f.Count, Value: f.Value})
	}

	writeJSON(w, http.StatusOK, map[string]any{"company_id": company.ID, "funnel": rows})
}

func (s *Server) handleRevenueByChannel(w http.ResponseWriter, r *http.Request) {
	company, ok := s.getCompany(w, r)
	if !ok {
		return
	}
	model, ok := modelParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid attribution model")
		return
	}

	channels, err := s.store.RevenueByChannel(r.Context(), company.ID, string(model))
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	if channels == nil {
		channels = []store.ChannelRevenue{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"company_id": company.ID, "channels": channels})
}

func (s *Server) handleTopCampaigns(w http.ResponseWriter, r *http.Request) {
	company, ok := s.getCompany(w, r)
	if !ok {
		return
	}
	model, ok := modelParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid attribution model")
		return
	}

	limit := 5
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	metrics, err := s.companyMetrics(r, company.ID, model)
	if err != nil {
		s.storeError(w, r, err)
		return
	}

	sort.SliceStable(metrics, func(i, j int) bool { return metrics[i].ROAS > metrics[j].ROAS })
	if len(metrics) > limit {
		metrics = metrics[:limit]
	}

	writeJSON(w, http.StatusOK, map[string]any{"company_id": company.ID, "campaigns": metrics})
}

func (s *Server) handleDealProbability(w http.ResponseWriter, r *http.Request) {
	company, ok := s.getCompany(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	leads, err := s.store.ListLeads(ctx, company.ID)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	costs, err := s.store.CampaignCosts(ctx, company.ID)
	if err != nil {
		s.storeError(w, r, err)
		return
	}

	ranked := s.scorer.ScoreLeads(ctx, leads, company.Industry, costs, highProbabilityThreshold)
	if len(ranked) > 10 {
		ranked = ranked[:10]
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"company_id":             company.ID,
		"high_probability_leads": ranked,
	})
}

func (s *Server) handleBudgetOptimization(w http.ResponseWriter, r *http.Request) {
	company, ok := s.getCompany(w, r)
	if !ok {
		return
	}
	model, ok := modelParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid attribution model")
		return
	}

	metrics, err := s.companyMetrics(r, company.ID, model)
	if err != nil {
		s.storeError(w, r, err)
		return
	}

	recommendations := budget.Recommend(metrics)
	if recommendations == nil {
		recommendations = []budget.Recommendation{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"company_id":       company.ID,
		"recommendations":  recommendations,
		"campaign_metrics": metrics,
	})
}

func (s *Server) companyMetrics(r *http.Request, companyID int64, model attribution.Model) ([]budget.CampaignMetrics, error) {
	ctx := r.Context()
	campaigns, err := s.store.ListCampaigns(ctx, companyID)
	if err != nil {
		return nil, err
	}
	aggs, err := s.store.CampaignAggregates(ctx, companyID, string(model))
	if err != nil {
		return nil, err
	}
	return budget.DeriveAll(campaigns, aggs), nil
}

// --- Campaigns ---

func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	company, ok := s.getCompany(w, r)
	if !ok {
		return
	}

	campaigns, err := s.store.ListCampaigns(r.Context(), company.ID)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	if campaigns == nil {
		campaigns = []store.Campaign{}
	}
	writeJSON(w, http.StatusOK, campaigns)
}

type createCampaignRequest struct {
	CompanyID   int64   `json:"company_id"`
	Name        string  `json:"name"`
	Platform    string  `json:"platform"`
	Budget      float64 `json:"budget"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Cost        float64 `json:"cost"`
}

func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Name == "" || req.Platform == "" {
		writeError(w, http.StatusBadRequest, "name and platform are required")
		return
	}
	if req.Budget < 0 || req.Cost < 0 || req.Impressions < 0 || req.Clicks < 0 {
		writeError(w, http.StatusBadRequest, "delivery numbers must be non-negative")
		return
	}

	if _, err := s.store.GetCompany(r.Context(), req.CompanyID); err != nil {
		s.storeError(w, r, err)
		return
	}

	campaign, err := s.store.CreateCampaign(r.Context(), store.Campaign{
		CompanyID:   req.CompanyID,
		Name:        req.Name,
		Platform:    req.Platform,
		Budget:      req.Budget,
		Impressions: req.Impressions,
		Clicks:      req.Clicks,
		Cost:        req.Cost,
	})
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, campaign)
}

// --- Leads ---

func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	company, ok := s.getCompany(w, r)
	if !ok {
		return
	}

	leads, err := s.store.ListLeads(r.Context(), company.ID)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	if leads == nil {
		leads = []store.Lead{}
	}
	writeJSON(w, http.StatusOK, leads)
}

type createLeadRequest struct {
	CompanyID   int64       `json:"company_id"`
	Email       string      `json:"email"`
	Name        string      `json:"name"`
	Touchpoints []int64     `json:"touchpoints"`
	Stage       store.Stage `json:"stage"`
	DealValue   float64     `json:"deal_value"`
}

func (s *Server) handleCreateLead(w http.ResponseWriter, r *http.Request) {
	var req createLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Email == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "email and name are required")
		return
	}
	if req.Stage == "" {
		req.Stage = store.StageMQL
	}
	if !store.ValidStage(req.Stage) {
		writeError(w, http.StatusBadRequest, "invalid pipeline stage")
		return
	}
	if req.DealValue < 0 {
		writeError(w, http.StatusBadRequest, "deal value must be non-negative")
		return
	}

	if _, err := s.store.GetCompany(r.Context(), req.CompanyID); err != nil {
		s.storeError(w, r, err)
		return
	}

	lead := store.Lead{
		CompanyID:   req.CompanyID,
		Email:       req.Email,
		Name:        req.Name,
		Touchpoints: req.Touchpoints,
		Stage:       req.Stage,
		DealValue:   req.DealValue,
	}
	if len(req.Touchpoints) > 0 {
		lead.SourceCampaignID = &req.Touchpoints[0]
	}

	created, err := s.store.CreateLead(r.Context(), lead)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}
