package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pipelineiq/pipelineiq/internal/config"
	"github.com/pipelineiq/pipelineiq/internal/scoring"
	"github.com/pipelineiq/pipelineiq/internal/store"
)

type Server struct {
	store     *store.SQLiteStore
	cfg       config.Config
	log       *slog.Logger
	jwt       *JWTManager
	scorer    *scoring.Scorer
	router    chi.Router
	startTime time.Time
}

func New(s *store.SQLiteStore, cfg config.Config, log *slog.Logger) *Server {
	srv := &Server{
		store:     s,
		cfg:       cfg,
		log:       log,
		jwt:       NewJWTManager(cfg.JWTSecret, cfg.TokenTTL),
		scorer:    scoring.NewScorer(s),
		router:    chi.NewRouter(),
		startTime: time.Now(),
	}

	srv.setupRoutes()
	return srv
}

func (s *Server) setupRoutes() {
	s.router.Use(RequestID)
	s.router.Use(Logger(s.log))
	s.router.Use(Metrics)

	// Public endpoints
	s.router.Get("/health", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", promhttp.Handler())
	s.router.Post("/api/auth/signup", s.handleSignup)
	s.router.Post("/api/auth/login", s.handleLogin)
	s.router.Post("/api/seed", s.handleSeed)

	// Everything else requires a valid token
	s.router.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/api/auth/me", s.handleMe)

		r.Post("/api/attribution/calculate/{leadID}", s.handleCalculateAttribution)
		r.Get("/api/attribution/revenue/{companyID}", s.handleRevenueByCampaign)
		r.Get("/api/attribution/summary/{companyID}", s.handleAttributionSummary)

		r.Get("/api/analytics/overview/{companyID}", s.handleOverview)
		r.Get("/api/analytics/funnel/{companyID}", s.handleFunnel)
		r.Get("/api/analytics/revenue-by-channel/{companyID}", s.handleRevenueByChannel)
		r.Get("/api/analytics/top-campaigns/{companyID}", s.handleTopCampaigns)
		r.Get("/api/analytics/deal-probability/{companyID}", s.handleDealProbability)
		r.Get("/api/analytics/budget-optimization/{companyID}", s.handleBudgetOptimization)

		r.Get("/api/campaigns/{companyID}", s.handleListCampaigns)
		r.Post("/api/campaigns", s.handleCreateCampaign)
		r.Get("/api/leads/{companyID}", s.handleListLeads)
		r.Post("/api/leads", s.handleCreateLead)
	})
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.log.Info("server listening", slog.String("addr", addr))
	return http.ListenAndServe(addr, s.router)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Store() *store.SQLiteStore {
	return s.store
}
