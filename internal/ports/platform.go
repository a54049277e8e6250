package ports

import (
	"context"

	"thunder-text-core/internal/domain"
)

// AdDraftSpec is the generic creative payload handed to an adapter; each
// adapter maps it onto its platform's own request shape.
type AdDraftSpec struct {
	AdAccountID string
	CampaignID  string
	Title       string
	PrimaryText string
	Description string
	ImageURLs   []string
	LandingURL  string
	Metadata    map[string]string
}

// SubmitResult is the outcome of a successful remote submission. Status is
// the remote status; adapters always create ads paused, never active.
type SubmitResult struct {
	RemoteAdID string
	Status     string
}

// AdPlatform is the per-provider adapter contract. Implementations translate
// these calls into the platform's REST/GraphQL surface and map its error
// payloads onto *domain.ProviderError.
type AdPlatform interface {
	Name() domain.Provider

	// OAuth
	AuthURL(state, redirectURI string) (string, error)
	ExchangeCode(ctx context.Context, code, redirectURI string) (*domain.TokenGrant, error)
	RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenGrant, error)

	// Ad management
	ListAdAccounts(ctx context.Context, accessToken string) ([]domain.AdAccount, error)
	ListCampaigns(ctx context.Context, accessToken, adAccountID string) ([]domain.Campaign, error)
	CreateAdDraft(ctx context.Context, accessToken string, spec AdDraftSpec) (remoteDraftID string, err error)
	SubmitDraft(ctx context.Context, accessToken string, spec AdDraftSpec, remoteDraftID string) (*SubmitResult, error)

	// Insights
	FetchInsights(ctx context.Context, accessToken, adAccountID string, dateRange domain.DateRange) ([]domain.CampaignInsight, error)
}

// PlatformRegistry resolves adapters by provider name.
type PlatformRegistry interface {
	Platform(provider domain.Provider) (AdPlatform, error)
}
