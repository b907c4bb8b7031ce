package store

import "context"

// Store defines the persistence operations the engine and API layers use.
type Store interface {
	// Users
	CreateUser(ctx context.Context, email, passwordHash, fullName, role string) (*User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// Companies
	CreateCompany(ctx context.Context, name, industry string, annualAdSpend float64) (*Company, error)
	GetCompany(ctx context.Context, id int64) (*Company, error)
	GetCompanyByName(ctx context.Context, name string) (*Company, error)
	ListCompanies(ctx context.Context) ([]*Company, error)

	// Campaigns
	CreateCampaign(ctx context.Context, c Campaign) (*Campaign, error)
	GetCampaign(ctx context.Context, id int64) (*Campaign, error)
	ListCampaigns(ctx context.Context, companyID int64) ([]Campaign, error)
	CampaignCosts(ctx context.Context, companyID int64) (map[int64]float64, error)

	// Leads
	CreateLead(ctx context.Context, l Lead) (*Lead, error)
	GetLead(ctx context.Context, id int64) (*Lead, error)
	ListLeads(ctx context.Context, companyID int64) ([]Lead, error)

	// Attribution results
	ReplaceAttributionResults(ctx context.Context, leadID int64, model string, results []AttributionResult) error
	GetAttributionResults(ctx context.Context, leadID int64, model string) ([]AttributionResult, error)
	CampaignAggregates(ctx context.Context, companyID int64, model string) ([]CampaignAggregate, error)
	RevenueByCampaign(ctx context.Context, companyID int64, model string) ([]CampaignRevenue, error)
	RevenueByChannel(ctx context.Context, companyID int64, model string) ([]ChannelRevenue, error)
	AttributionSummary(ctx context.Context, companyID int64) (map[string]ModelSummary, error)

	// Analytics
	Funnel(ctx context.Context, companyID int64) ([]StageCount, error)
	Overview(ctx context.Context, companyID int64, model string) (*Overview, error)

	// Model artifacts
	SaveModelArtifact(ctx context.Context, name string, payload []byte) error
	GetModelArtifact(ctx context.Context, name string) ([]byte, error)

	// Lifecycle
	Close() error
}
