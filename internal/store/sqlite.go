package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    email TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL,
    full_name TEXT NOT NULL DEFAULT '',
    role TEXT NOT NULL DEFAULT 'member',
    created_at INTEGER NOT NULL DEFAULT (unixepoch())
);

CREATE TABLE IF NOT EXISTS companies (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT UNIQUE NOT NULL,
    industry TEXT NOT NULL,
    annual_ad_spend REAL NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL DEFAULT (unixepoch())
);

CREATE TABLE IF NOT EXISTS campaigns (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    company_id INTEGER NOT NULL,
    name TEXT NOT NULL,
    platform TEXT NOT NULL,
    budget REAL NOT NULL DEFAULT 0,
    impressions INTEGER NOT NULL DEFAULT 0,
    clicks INTEGER NOT NULL DEFAULT 0,
    cost REAL NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL DEFAULT (unixepoch()),
    FOREIGN KEY (company_id) REFERENCES companies(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_campaigns_company ON campaigns(company_id);

CREATE TABLE IF NOT EXISTS leads (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    company_id INTEGER NOT NULL,
    source_campaign_id INTEGER,
    email TEXT NOT NULL,
    name TEXT NOT NULL,
    touchpoints TEXT NOT NULL DEFAULT '[]',
    stage TEXT NOT NULL DEFAULT 'MQL',
    deal_value REAL NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL DEFAULT (unixepoch()),
    FOREIGN KEY (company_id) REFERENCES companies(id) ON DELETE CASCADE,
    FOREIGN KEY (source_campaign_id) REFERENCES campaigns(id)
);

CREATE INDEX IF NOT EXISTS idx_leads_company ON leads(company_id);
CREATE INDEX IF NOT EXISTS idx_leads_source ON leads(source_campaign_id);
CREATE INDEX IF NOT EXISTS idx_leads_stage ON leads(company_id, stage);

CREATE TABLE IF NOT EXISTS attribution_results (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    lead_id INTEGER NOT NULL,
    campaign_id INTEGER,
    attribution_model TEXT NOT NULL,
    weight REAL NOT NULL DEFAULT 0,
    attributed_revenue REAL NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL DEFAULT (unixepoch()),
    FOREIGN KEY (lead_id) REFERENCES leads(id) ON DELETE CASCADE,
    FOREIGN KEY (campaign_id) REFERENCES campaigns(id)
);

CREATE INDEX IF NOT EXISTS idx_attribution_lead_model ON attribution_results(lead_id, attribution_model);
CREATE INDEX IF NOT EXISTS idx_attribution_campaign ON attribution_results(campaign_id, attribution_model);

CREATE TABLE IF NOT EXISTS model_artifacts (
    name TEXT PRIMARY KEY,
    payload BLOB NOT NULL,
    updated_at INTEGER NOT NULL DEFAULT (unixepoch())
);
`

func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Apply schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for health checks
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// --- Users ---

func (s *SQLiteStore) CreateUser(ctx context.Context, email, passwordHash, fullName, role string) (*User, error) {
	now := time.Now().Unix()
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, full_name, role, created_at) VALUES (?, ?, ?, ?, ?)`,
		email, passwordHash, fullName, role, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return &User{ID: id, Email: email, PasswordHash: passwordHash, FullName: fullName, Role: role, CreatedAt: time.Unix(now, 0)}, nil
}

func (s *SQLiteStore) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, full_name, role, created_at FROM users WHERE id = ?`, id))
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, full_name, role, created_at FROM users WHERE email = ?`, email))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*User, error) {
	var u User
	var createdAt int64
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.CreatedAt = time.Unix(createdAt, 0)
	return &u, nil
}

// --- Companies ---

func (s *SQLiteStore) CreateCompany(ctx context.Context, name, industry string, annualAdSpend float64) (*Company, error) {
	now := time.Now().Unix()
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO companies (name, industry, annual_ad_spend, created_at) VALUES (?, ?, ?, ?)`,
		name, industry, annualAdSpend, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert company: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return &Company{ID: id, Name: name, Industry: industry, AnnualAdSpend: annualAdSpend, CreatedAt: time.Unix(now, 0)}, nil
}

func (s *SQLiteStore) GetCompany(ctx context.Context, id int64) (*Company, error) {
	return s.scanCompany(s.db.QueryRowContext(ctx,
		`SELECT id, name, industry, annual_ad_spend, created_at FROM companies WHERE id = ?`, id))
}

func (s *SQLiteStore) GetCompanyByName(ctx context.Context, name string) (*Company, error) {
	return s.scanCompany(s.db.QueryRowContext(ctx,
		`SELECT id, name, industry, annual_ad_spend, created_at FROM companies WHERE name = ?`, name))
}

func (s *SQLiteStore) scanCompany(row *sql.Row) (*Company, error) {
	var c Company
	var createdAt int64
	err := row.Scan(&c.ID, &c.Name, &c.Industry, &c.AnnualAdSpend, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	c.CreatedAt = time.Unix(createdAt, 0)
	return &c, nil
}

func (s *SQLiteStore) ListCompanies(ctx context.Context) ([]*Company, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, industry, annual_ad_spend, created_at FROM companies ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var companies []*Company
	for rows.Next() {
		var c Company
		var createdAt int64
		if err := rows.Scan(&c.ID, &c.Name, &c.Industry, &c.AnnualAdSpend, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		c.CreatedAt = time.Unix(createdAt, 0)
		companies = append(companies, &c)
	}
	return companies, rows.Err()
}

// --- Campaigns ---

func (s *SQLiteStore) CreateCampaign(ctx context.Context, c Campaign) (*Campaign, error) {
	now := time.Now().Unix()
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO campaigns (company_id, name, platform, budget, impressions, clicks, cost, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.CompanyID, c.Name, c.Platform, c.Budget, c.Impressions, c.Clicks, c.Cost, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert campaign: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}
	c.ID = id
	c.CreatedAt = time.Unix(now, 0)
	return &c, nil
}

func (s *SQLiteStore) GetCampaign(ctx context.Context, id int64) (*Campaign, error) {
	var c Campaign
	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, company_id, name, platform, budget, impressions, clicks, cost, created_at
		 FROM campaigns WHERE id = ?`, id,
	).Scan(&c.ID, &c.CompanyID, &c.Name, &c.Platform, &c.Budget, &c.Impressions, &c.Clicks, &c.Cost, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	c.CreatedAt = time.Unix(createdAt, 0)
	return &c, nil
}

func (s *SQLiteStore) ListCampaigns(ctx context.Context, companyID int64) ([]Campaign, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company_id, name, platform, budget, impressions, clicks, cost, created_at
		 FROM campaigns WHERE company_id = ? ORDER BY id`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []Campaign
	for rows.Next() {
		var c Campaign
		var createdAt int64
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Platform, &c.Budget, &c.Impressions, &c.Clicks, &c.Cost, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		c.CreatedAt = time.Unix(createdAt, 0)
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// CampaignCosts maps campaign ID to actual spend for one company,
// used to derive the scorer's campaign-spend feature.
func (s *SQLiteStore) CampaignCosts(ctx context.Context, companyID int64) (map[int64]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, cost FROM campaigns WHERE company_id = ?`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query campaign costs: %w", err)
	}
	defer rows.Close()

	costs := make(map[int64]float64)
	for rows.Next() {
		var id int64
		var cost float64
		if err := rows.Scan(&id, &cost); err != nil {
			return nil, fmt.Errorf("failed to scan campaign cost: %w", err)
		}
		costs[id] = cost
	}
	return costs, rows.Err()
}

// --- Leads ---

func (s *SQLiteStore) CreateLead(ctx context.Context, l Lead) (*Lead, error) {
	touchpointsJSON, err := json.Marshal(touchpointsOrEmpty(l.Touchpoints))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal touchpoints: %w", err)
	}

	now := time.Now().Unix()
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO leads (company_id, source_campaign_id, email, name, touchpoints, stage, deal_value, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.CompanyID, l.SourceCampaignID, l.Email, l.Name, string(touchpointsJSON), string(l.Stage), l.DealValue, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert lead: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}
	l.ID = id
	l.CreatedAt = time.Unix(now, 0)
	return &l, nil
}

func (s *SQLiteStore) GetLead(ctx context.Context, id int64) (*Lead, error) {
	var l Lead
	var touchpointsJSON string
	var sourceCampaignID sql.NullInt64
	var createdAt int64

	err := s.db.QueryRowContext(ctx,
		`SELECT id, company_id, source_campaign_id, email, name, touchpoints, stage, deal_value, created_at
		 FROM leads WHERE id = ?`, id,
	).Scan(&l.ID, &l.CompanyID, &sourceCampaignID, &l.Email, &l.Name, &touchpointsJSON, &l.Stage, &l.DealValue, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}

	if err := json.Unmarshal([]byte(touchpointsJSON), &l.Touchpoints); err != nil {
		return nil, fmt.Errorf("failed to unmarshal touchpoints: %w", err)
	}
	if sourceCampaignID.Valid {
		v := sourceCampaignID.Int64
		l.SourceCampaignID = &v
	}
	l.CreatedAt = time.Unix(createdAt, 0)
	return &l, nil
}

func (s *SQLiteStore) ListLeads(ctx context.Context, companyID int64) ([]Lead, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company_id, source_campaign_id, email, name, touchpoints, stage, deal_value, created_at
		 FROM leads WHERE company_id = ? ORDER BY id`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		var l Lead
		var touchpointsJSON string
		var sourceCampaignID sql.NullInt64
		var createdAt int64

		if err := rows.Scan(&l.ID, &l.CompanyID, &sourceCampaignID, &l.Email, &l.Name, &touchpointsJSON, &l.Stage, &l.DealValue, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		if err := json.Unmarshal([]byte(touchpointsJSON), &l.Touchpoints); err != nil {
			return nil, fmt.Errorf("failed to unmarshal touchpoints: %w", err)
		}
		if sourceCampaignID.Valid {
			v := sourceCampaignID.Int64
			l.SourceCampaignID = &v
		}
		l.CreatedAt = time.Unix(createdAt, 0)
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

// --- Attribution results ---

// ReplaceAttributionResults removes any stored results for the
// (lead, model) pair and inserts the fresh set in one transaction, so
// recomputation is idempotent and readers never see a partial set.
func (s *SQLiteStore) ReplaceAttributionResults(ctx context.Context, leadID int64, model string, results []AttributionResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM attribution_results WHERE lead_id = ? AND attribution_model = ?`,
		leadID, model,
	); err != nil {
		return fmt.Errorf("failed to delete stale results: %w", err)
	}

	now := time.Now().Unix()
	for _, r := range results {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO attribution_results (lead_id, campaign_id, attribution_model, weight, attributed_revenue, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			leadID, r.CampaignID, model, r.Weight, r.AttributedRevenue, now,
		); err != nil {
			return fmt.Errorf("failed to insert result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit results: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetAttributionResults(ctx context.Context, leadID int64, model string) ([]AttributionResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, lead_id, campaign_id, attribution_model, weight, attributed_revenue, created_at
		 FROM attribution_results WHERE lead_id = ? AND attribution_model = ? ORDER BY id`,
		leadID, model)
	if err != nil {
		return nil, fmt.Errorf("failed to get attribution results: %w", err)
	}
	defer rows.Close()

	var results []AttributionResult
	for rows.Next() {
		var r AttributionResult
		var campaignID sql.NullInt64
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.LeadID, &campaignID, &r.Model, &r.Weight, &r.AttributedRevenue, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		if campaignID.Valid {
			v := campaignID.Int64
			r.CampaignID = &v
		}
		r.CreatedAt = time.Unix(createdAt, 0)
		results = append(results, r)
	}
	return results, rows.Err()
}

// CampaignAggregates joins lead counts, Won counts and attributed
// revenue (under one model) per campaign of a company.
func (s *SQLiteStore) CampaignAggregates(ctx context.Context, companyID int64, model string) ([]CampaignAggregate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			c.id,
			COUNT(DISTINCT l.id),
			COUNT(DISTINCT CASE WHEN l.stage = 'Won' THEN l.id END),
			COALESCE(MAX(r.total), 0)
		FROM campaigns c
		LEFT JOIN leads l ON l.source_campaign_id = c.id
		LEFT JOIN (
			SELECT campaign_id, SUM(attributed_revenue) AS total
			FROM attribution_results
			WHERE attribution_model = ?
			GROUP BY campaign_id
		) r ON r.campaign_id = c.id
		WHERE c.company_id = ?
		GROUP BY c.id
		ORDER BY c.id
	`, model, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query campaign aggregates: %w", err)
	}
	defer rows.Close()

	var aggs []CampaignAggregate
	for rows.Next() {
		var a CampaignAggregate
		if err := rows.Scan(&a.CampaignID, &a.Leads, &a.Conversions, &a.AttributedRevenue); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate: %w", err)
		}
		aggs = append(aggs, a)
	}
	return aggs, rows.Err()
}

func (s *SQLiteStore) RevenueByCampaign(ctx context.Context, companyID int64, model string) ([]CampaignRevenue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.platform, SUM(r.attributed_revenue)
		FROM campaigns c
		JOIN attribution_results r ON r.campaign_id = c.id
		WHERE c.company_id = ? AND r.attribution_model = ?
		GROUP BY c.id, c.name, c.platform
		ORDER BY c.id
	`, companyID, model)
	if err != nil {
		return nil, fmt.Errorf("failed to query revenue by campaign: %w", err)
	}
	defer rows.Close()

	var revenues []CampaignRevenue
	for rows.Next() {
		var r CampaignRevenue
		if err := rows.Scan(&r.CampaignID, &r.CampaignName, &r.Platform, &r.AttributedRevenue); err != nil {
			return nil, fmt.Errorf("failed to scan revenue: %w", err)
		}
		revenues = append(revenues, r)
	}
	return revenues, rows.Err()
}

func (s *SQLiteStore) RevenueByChannel(ctx context.Context, companyID int64, model string) ([]ChannelRevenue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.platform, COALESCE(SUM(r.total), 0), SUM(c.cost), COUNT(c.id)
		FROM campaigns c
		LEFT JOIN (
			SELECT campaign_id, SUM(attributed_revenue) AS total
			FROM attribution_results
			WHERE attribution_model = ?
			GROUP BY campaign_id
		) r ON r.campaign_id = c.id
		WHERE c.company_id = ?
		GROUP BY c.platform
		ORDER BY c.platform
	`, model, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query revenue by channel: %w", err)
	}
	defer rows.Close()

	var channels []ChannelRevenue
	for rows.Next() {
		var c ChannelRevenue
		if err := rows.Scan(&c.Platform, &c.AttributedRevenue, &c.Spend, &c.Campaigns); err != nil {
			return nil, fmt.Errorf("failed to scan channel revenue: %w", err)
		}
		channels = append(channels, c)
	}
	return channels, rows.Err()
}

// AttributionSummary totals attributed revenue and result counts per
// model across a company's leads.
func (s *SQLiteStore) AttributionSummary(ctx context.Context, companyID int64) (map[string]ModelSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.attribution_model, SUM(r.attributed_revenue), COUNT(r.id)
		FROM attribution_results r
		JOIN leads l ON l.id = r.lead_id
		WHERE l.company_id = ?
		GROUP BY r.attribution_model
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attribution summary: %w", err)
	}
	defer rows.Close()

	summary := make(map[string]ModelSummary)
	for rows.Next() {
		var model string
		var ms ModelSummary
		if err := rows.Scan(&model, &ms.TotalAttributedRevenue, &ms.ResultCount); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		summary[model] = ms
	}
	return summary, rows.Err()
}

// --- Analytics ---

func (s *SQLiteStore) Funnel(ctx context.Context, companyID int64) ([]StageCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT stage, COUNT(id), COALESCE(SUM(deal_value), 0)
		FROM leads WHERE company_id = ?
		GROUP BY stage
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query funnel: %w", err)
	}
	defer rows.Close()

	byStage := make(map[Stage]StageCount)
	for rows.Next() {
		var sc StageCount
		if err := rows.Scan(&sc.Stage, &sc.Count, &sc.Value); err != nil {
			return nil, fmt.Errorf("failed to scan funnel row: %w", err)
		}
		byStage[sc.Stage] = sc
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Every stage appears in funnel order, zero-filled when empty.
	funnel := make([]StageCount, 0, len(Stages()))
	for _, stage := range Stages() {
		sc := byStage[stage]
		sc.Stage = stage
		funnel = append(funnel, sc)
	}
	return funnel, nil
}

func (s *SQLiteStore) Overview(ctx context.Context, companyID int64, model string) (*Overview, error) {
	var o Overview

	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(cost), 0), COUNT(id) FROM campaigns WHERE company_id = ?
	`, companyID).Scan(&o.TotalAdSpend, &o.Campaigns)
	if err != nil {
		return nil, fmt.Errorf("failed to query campaign totals: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(deal_value), 0), COUNT(id),
		       COUNT(CASE WHEN stage = 'Won' THEN 1 END)
		FROM leads WHERE company_id = ?
	`, companyID).Scan(&o.PipelineValue, &o.Leads, &o.Conversions)
	if err != nil {
		return nil, fmt.Errorf("failed to query lead totals: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(r.attributed_revenue), 0)
		FROM attribution_results r
		JOIN leads l ON l.id = r.lead_id
		WHERE l.company_id = ? AND r.attribution_model = ?
	`, companyID, model).Scan(&o.RevenueAttributed)
	if err != nil {
		return nil, fmt.Errorf("failed to query attributed revenue: %w", err)
	}

	return &o, nil
}

// --- Model artifacts ---

// SaveModelArtifact replaces the named artifact wholesale. The upsert
// runs as one statement, so a concurrent reader sees the old payload
// or the new one, never a mix.
func (s *SQLiteStore) SaveModelArtifact(ctx context.Context, name string, payload []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO model_artifacts (name, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`, name, payload, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save model artifact: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetModelArtifact(ctx context.Context, name string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM model_artifacts WHERE name = ?`, name).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get model artifact: %w", err)
	}
	return payload, nil
}

func touchpointsOrEmpty(t []int64) []int64 {
	if t == nil {
		return []int64{}
	}
	return t
}
