package application

import (
	"context"
	"fmt"
	"time"

	"thunder-text-core/internal/domain"
	"thunder-text-core/internal/ports"

	"github.com/rs/zerolog"
)

// PlatformService exposes read-only ad-platform lookups (accounts,
// campaigns) and the per-shop connection list.
type PlatformService struct {
	shops       ports.ShopRepository
	connections ports.ConnectionRepository
	tokens      *TokenService
	registry    ports.PlatformRegistry
	logger      zerolog.Logger
}

// NewPlatformService creates a platform lookup service.
func NewPlatformService(
	shops ports.ShopRepository,
	connections ports.ConnectionRepository,
	tokens *TokenService,
	registry ports.PlatformRegistry,
	logger zerolog.Logger,
) *PlatformService {
	return &PlatformService{
		shops:       shops,
		connections: connections,
		tokens:      tokens,
		registry:    registry,
		logger:      logger,
	}
}

// ListAdAccounts returns the ad accounts reachable with the shop's token.
func (s *PlatformService) ListAdAccounts(ctx context.Context, shopIdentifier string, provider domain.Provider) ([]domain.AdAccount, error) {
	platform, err := s.registry.Platform(provider)
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.Resolve(ctx, shopIdentifier, provider, ResolveOptions{})
	if err != nil {
		return nil, err
	}
	accounts, err := platform.ListAdAccounts(ctx, token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list ad accounts: %w", err)
	}
	return accounts, nil
}

// ListCampaigns returns the campaigns under one of the shop's ad accounts.
// When adAccountID is empty the account stored on the connection is used.
func (s *PlatformService) ListCampaigns(ctx context.Context, shopIdentifier string, provider domain.Provider, adAccountID string) ([]domain.Campaign, error) {
	platform, err := s.registry.Platform(provider)
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.Resolve(ctx, shopIdentifier, provider, ResolveOptions{})
	if err != nil {
		return nil, err
	}
	if adAccountID == "" {
		adAccountID = token.AdAccountID
	}
	if adAccountID == "" {
		return nil, domain.NewValidationError("ad_account_id")
	}
	campaigns, err := platform.ListCampaigns(ctx, token.AccessToken, adAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return campaigns, nil
}

// ConnectionStatus is one row in the per-shop connection listing. Token
// material never leaves the service layer.
type ConnectionStatus struct {
	Provider      domain.Provider `json:"provider"`
	Connected     bool            `json:"connected"`
	AdAccountID   string          `json:"ad_account_id,omitempty"`
	AdAccountName string          `json:"ad_account_name,omitempty"`
	Expired       bool            `json:"expired"`
}

// ListConnections reports connection status for every supported provider.
func (s *PlatformService) ListConnections(ctx context.Context, shopIdentifier string) ([]ConnectionStatus, error) {
	shop, err := s.shops.GetByAnyDomain(ctx, shopIdentifier)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve shop: %w", err)
	}
	if shop == nil {
		return nil, domain.ErrNotFound
	}
	conns, err := s.connections.ListByShop(ctx, shop.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}

	byProvider := make(map[domain.Provider]*domain.Connection, len(conns))
	for _, c := range conns {
		if c.Active {
			byProvider[c.Provider] = c
		}
	}

	providers := append([]domain.Provider{domain.ProviderShopify}, domain.AdPlatforms...)
	statuses := make([]ConnectionStatus, 0, len(providers))
	for _, p := range providers {
		status := ConnectionStatus{Provider: p}
		if c, ok := byProvider[p]; ok {
			status.Connected = true
			status.AdAccountID = c.AdAccountID
			status.AdAccountName = c.AdAccountName
			status.Expired = c.Expired(time.Now().UTC())
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
