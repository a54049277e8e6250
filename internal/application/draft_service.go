package application

import (
	"context"
	"fmt"

	"thunder-text-core/internal/domain"
	"thunder-text-core/internal/ports"

	"github.com/rs/zerolog"
)

// DraftService orchestrates the local ad-draft lifecycle:
// draft -> submitting -> submitted | submit_failed.
type DraftService struct {
	shops     ports.ShopRepository
	drafts    ports.AdDraftRepository
	tokens    *TokenService
	platforms ports.PlatformRegistry
	logger    zerolog.Logger
}

// NewDraftService creates a draft service.
func NewDraftService(
	shops ports.ShopRepository,
	drafts ports.AdDraftRepository,
	tokens *TokenService,
	platforms ports.PlatformRegistry,
	logger zerolog.Logger,
) *DraftService {
	return &DraftService{
		shops:     shops,
		drafts:    drafts,
		tokens:    tokens,
		platforms: platforms,
		logger:    logger,
	}
}

// CreateDraftInput is the creative payload for a new local draft.
type CreateDraftInput struct {
	ShopDomain  string            `json:"shop"`
	Provider    domain.Provider   `json:"provider"`
	ProductID   string            `json:"product_id"`
	Title       string            `json:"title"`
	PrimaryText string            `json:"primary_text"`
	Description string            `json:"description"`
	ImageURLs   []string          `json:"image_urls"`
	AdAccountID string            `json:"ad_account_id"`
	CampaignID  string            `json:"campaign_id"`
	LandingURL  string            `json:"landing_url"`
	Metadata    map[string]string `json:"metadata"`
}

func (in *CreateDraftInput) validate() error {
	var missing []string
	if in.ShopDomain == "" {
		missing = append(missing, "shop")
	}
	if in.Title == "" {
		missing = append(missing, "title")
	}
	if in.AdAccountID == "" {
		missing = append(missing, "ad_account_id")
	}
	if !in.Provider.Valid() || in.Provider == domain.ProviderShopify {
		missing = append(missing, "provider")
	}
	if len(missing) > 0 {
		return domain.NewValidationError(missing...)
	}
	return nil
}

// CreateDraft persists a new local draft in the draft state.
func (s *DraftService) CreateDraft(ctx context.Context, input CreateDraftInput) (*domain.AdDraft, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	shop, err := s.shops.GetByAnyDomain(ctx, input.ShopDomain)
	if err != nil {
		return nil, err
	}
	if shop == nil {
		return nil, fmt.Errorf("shop %s: %w", input.ShopDomain, domain.ErrNotFound)
	}

	metadata := input.Metadata
	if input.LandingURL != "" {
		if metadata == nil {
			metadata = map[string]string{}
		}
		metadata["landing_url"] = input.LandingURL
	}
	draft := &domain.AdDraft{
		ShopID:      shop.ID,
		Provider:    input.Provider,
		ProductID:   input.ProductID,
		Title:       input.Title,
		PrimaryText: input.PrimaryText,
		Description: input.Description,
		ImageURLs:   input.ImageURLs,
		AdAccountID: input.AdAccountID,
		CampaignID:  input.CampaignID,
		Metadata:    metadata,
		Status:      domain.DraftStatusDraft,
	}
	if err := s.drafts.Create(ctx, draft); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("draft_id", draft.ID).
		Str("shop", shop.Domain).
		Str("provider", string(draft.Provider)).
		Msg("Created ad draft")
	return draft, nil
}

// Submit pushes a draft to its provider: create the remote draft, then submit
// it. The remote ad is always created paused. A submitted status is only ever
// recorded when the remote submission actually succeeded; any failure lands
// the draft in submit_failed with the error preserved.
func (s *DraftService) Submit(ctx context.Context, draftID string) (*domain.AdDraft, error) {
	draft, err := s.drafts.Get(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, fmt.Errorf("draft %s: %w", draftID, domain.ErrNotFound)
	}
	if draft.Status.Terminal() || draft.Status == domain.DraftStatusSubmitting {
		return nil, domain.NewValidationError("status")
	}

	shop, err := s.shops.GetByID(ctx, draft.ShopID)
	if err != nil {
		return nil, err
	}
	if shop == nil {
		return nil, fmt.Errorf("shop %s: %w", draft.ShopID, domain.ErrNotFound)
	}

	token, err := s.tokens.Resolve(ctx, shop.Domain, draft.Provider, ResolveOptions{})
	if err != nil {
		return nil, err
	}
	platform, err := s.platforms.Platform(draft.Provider)
	if err != nil {
		return nil, err
	}

	draft.Status = domain.DraftStatusSubmitting
	draft.SubmitError = ""
	if err := s.drafts.Update(ctx, draft); err != nil {
		return nil, err
	}

	spec := ports.AdDraftSpec{
		AdAccountID: draft.AdAccountID,
		CampaignID:  draft.CampaignID,
		Title:       draft.Title,
		PrimaryText: draft.PrimaryText,
		Description: draft.Description,
		ImageURLs:   draft.ImageURLs,
		LandingURL:  draft.Metadata["landing_url"],
		Metadata:    draft.Metadata,
	}

	remoteDraftID, err := platform.CreateAdDraft(ctx, token.AccessToken, spec)
	if err != nil {
		return s.failSubmit(ctx, draft, err)
	}
	draft.RemoteDraftID = remoteDraftID

	result, err := platform.SubmitDraft(ctx, token.AccessToken, spec, remoteDraftID)
	if err != nil {
		return s.failSubmit(ctx, draft, err)
	}

	draft.Status = domain.DraftStatusSubmitted
	draft.RemoteAdID = result.RemoteAdID
	if err := s.drafts.Update(ctx, draft); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("draft_id", draft.ID).
		Str("remote_ad_id", result.RemoteAdID).
		Str("remote_status", result.Status).
		Msg("Submitted ad draft")
	return draft, nil
}

func (s *DraftService) failSubmit(ctx context.Context, draft *domain.AdDraft, cause error) (*domain.AdDraft, error) {
	draft.Status = domain.DraftStatusSubmitFailed
	draft.SubmitError = cause.Error()
	if uerr := s.drafts.Update(ctx, draft); uerr != nil {
		s.logger.Error().Err(uerr).Str("draft_id", draft.ID).Msg("Failed to record submit failure")
	}
	s.logger.Warn().
		Err(cause).
		Str("draft_id", draft.ID).
		Str("provider", string(draft.Provider)).
		Msg("Ad draft submission failed")
	return nil, cause
}

// Abandon marks a non-submitted draft as abandoned.
func (s *DraftService) Abandon(ctx context.Context, draftID string) (*domain.AdDraft, error) {
	draft, err := s.drafts.Get(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, fmt.Errorf("draft %s: %w", draftID, domain.ErrNotFound)
	}
	if draft.Status == domain.DraftStatusSubmitted {
		return nil, domain.NewValidationError("status")
	}
	draft.Status = domain.DraftStatusAbandoned
	if err := s.drafts.Update(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// Get returns one draft.
func (s *DraftService) Get(ctx context.Context, draftID string) (*domain.AdDraft, error) {
	draft, err := s.drafts.Get(ctx, draftID)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, fmt.Errorf("draft %s: %w", draftID, domain.ErrNotFound)
	}
	return draft, nil
}

// List returns a shop's drafts for a provider.
func (s *DraftService) List(ctx context.Context, shopIdentifier string, provider domain.Provider) ([]*domain.AdDraft, error) {
	shop, err := s.shops.GetByAnyDomain(ctx, shopIdentifier)
	if err != nil {
		return nil, err
	}
	if shop == nil {
		return nil, fmt.Errorf("shop %s: %w", shopIdentifier, domain.ErrNotFound)
	}
	return s.drafts.ListByShop(ctx, shop.ID, provider)
}
