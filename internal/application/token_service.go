package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"thunder-text-core/internal/domain"
	"thunder-text-core/internal/infrastructure/metrics"
	"thunder-text-core/internal/ports"

	"github.com/rs/zerolog"
)

// TokenService is the single boundary through which token material is read,
// refreshed and written. Decryption never leaves this service.
type TokenService struct {
	shops       ports.ShopRepository
	connections ports.ConnectionRepository
	encryption  ports.EncryptionService
	platforms   ports.PlatformRegistry
	shopify     ports.ShopifyClient
	logger      zerolog.Logger
	now         func() time.Time

	// refreshMu guards refreshLocks; each (shop, provider) pair gets its own
	// mutex so concurrent refreshes collapse into one exchange.
	refreshMu    sync.Mutex
	refreshLocks map[string]*sync.Mutex
}

// NewTokenService creates a token service.
func NewTokenService(
	shops ports.ShopRepository,
	connections ports.ConnectionRepository,
	encryption ports.EncryptionService,
	platforms ports.PlatformRegistry,
	shopify ports.ShopifyClient,
	logger zerolog.Logger,
) *TokenService {
	return &TokenService{
		shops:        shops,
		connections:  connections,
		encryption:   encryption,
		platforms:    platforms,
		shopify:      shopify,
		logger:       logger,
		now:          time.Now,
		refreshLocks: make(map[string]*sync.Mutex),
	}
}

// ResolveOptions carries per-request context for token resolution.
type ResolveOptions struct {
	// SessionToken, when set, allows a Shopify session-token exchange as the
	// final fallback after stored lookups fail.
	SessionToken string
}

// Resolve returns a usable access token for (shop, provider), following one
// canonical order: stored connection by primary domain, stored connection by
// linked alias, session-token exchange (Shopify only), then ErrNotConnected.
func (s *TokenService) Resolve(ctx context.Context, shopIdentifier string, provider domain.Provider, opts ResolveOptions) (*domain.Token, error) {
	shop, err := s.shops.GetByAnyDomain(ctx, shopIdentifier)
	if err != nil {
		return nil, err
	}
	if shop == nil {
		if provider == domain.ProviderShopify && opts.SessionToken != "" {
			return s.exchangeSessionToken(ctx, shopIdentifier, opts.SessionToken)
		}
		return nil, fmt.Errorf("shop %s: %w", shopIdentifier, domain.ErrNotConnected)
	}

	conn, err := s.connections.GetActive(ctx, shop.ID, provider)
	if err != nil {
		return nil, err
	}
	if conn != nil {
		if !conn.Expired(s.now()) {
			return s.decrypt(conn)
		}
		return s.refresh(ctx, shop, conn)
	}

	if provider == domain.ProviderShopify && opts.SessionToken != "" {
		return s.exchangeSessionToken(ctx, shop.Domain, opts.SessionToken)
	}
	return nil, fmt.Errorf("shop %s has no %s connection: %w", shop.Domain, provider, domain.ErrNotConnected)
}

// Save encrypts and upserts a grant for (shop, provider). The repository
// deactivates any previous active connection, keeping the one-active
// invariant.
func (s *TokenService) Save(ctx context.Context, shopID string, provider domain.Provider, grant *domain.TokenGrant) (*domain.Connection, error) {
	encAccess, err := s.encryption.Encrypt(grant.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}
	conn := &domain.Connection{
		ShopID:               shopID,
		Provider:             provider,
		EncryptedAccessToken: encAccess,
		ExpiresAt:            grant.ExpiresAtFrom(s.now()),
		Scope:                grant.Scope,
		AdAccountID:          grant.AdAccountID,
		AdAccountName:        grant.AdAccountName,
	}
	if grant.RefreshToken != "" {
		encRefresh, err := s.encryption.Encrypt(grant.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt refresh token: %w", err)
		}
		conn.EncryptedRefreshToken = encRefresh
	}
	if err := s.connections.Upsert(ctx, conn); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("shop_id", shopID).
		Str("provider", string(provider)).
		Msg("Stored provider connection")
	return conn, nil
}

// Revoke soft-disables the connection for (shop, provider).
func (s *TokenService) Revoke(ctx context.Context, shopIdentifier string, provider domain.Provider) error {
	shop, err := s.shops.GetByAnyDomain(ctx, shopIdentifier)
	if err != nil {
		return err
	}
	if shop == nil {
		return fmt.Errorf("shop %s: %w", shopIdentifier, domain.ErrNotFound)
	}
	if err := s.connections.Deactivate(ctx, shop.ID, provider); err != nil {
		return err
	}
	s.logger.Info().
		Str("shop", shop.Domain).
		Str("provider", string(provider)).
		Msg("Revoked provider connection")
	return nil
}

func (s *TokenService) decrypt(conn *domain.Connection) (*domain.Token, error) {
	access, err := s.encryption.Decrypt(conn.EncryptedAccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}
	return &domain.Token{
		AccessToken:   access,
		ExpiresAt:     conn.ExpiresAt,
		Scope:         conn.Scope,
		AdAccountID:   conn.AdAccountID,
		AdAccountName: conn.AdAccountName,
	}, nil
}

func (s *TokenService) lockFor(shopID string, provider domain.Provider) *sync.Mutex {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	key := shopID + ":" + string(provider)
	mu, ok := s.refreshLocks[key]
	if !ok {
		mu = &sync.Mutex{}
		s.refreshLocks[key] = mu
	}
	return mu
}

// refresh performs a refresh exchange under a per-(shop, provider) lock.
// Losers of the race re-read the connection and reuse the winner's token
// instead of minting their own.
func (s *TokenService) refresh(ctx context.Context, shop *domain.Shop, conn *domain.Connection) (*domain.Token, error) {
	mu := s.lockFor(shop.ID, conn.Provider)
	mu.Lock()
	defer mu.Unlock()

	current, err := s.connections.GetActive(ctx, shop.ID, conn.Provider)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("shop %s has no %s connection: %w", shop.Domain, conn.Provider, domain.ErrNotConnected)
	}
	if !current.Expired(s.now()) {
		return s.decrypt(current)
	}

	if current.EncryptedRefreshToken == "" {
		return nil, fmt.Errorf("shop %s %s token expired without refresh token: %w", shop.Domain, conn.Provider, domain.ErrNotConnected)
	}
	refreshToken, err := s.encryption.Decrypt(current.EncryptedRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
	}

	platform, err := s.platforms.Platform(current.Provider)
	if err != nil {
		return nil, err
	}
	grant, err := platform.RefreshToken(ctx, refreshToken)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues(string(current.Provider), "error").Inc()
		s.logger.Warn().
			Err(err).
			Str("shop", shop.Domain).
			Str("provider", string(current.Provider)).
			Msg("Token refresh failed")
		return nil, err
	}
	metrics.TokenRefreshes.WithLabelValues(string(current.Provider), "ok").Inc()

	// Keep account metadata across rotations.
	grant.AdAccountID = current.AdAccountID
	grant.AdAccountName = current.AdAccountName
	if grant.Scope == "" {
		grant.Scope = current.Scope
	}
	if grant.RefreshToken == "" {
		grant.RefreshToken = refreshToken
	}
	if _, err := s.Save(ctx, shop.ID, current.Provider, grant); err != nil {
		return nil, err
	}
	return &domain.Token{
		AccessToken:   grant.AccessToken,
		ExpiresAt:     grant.ExpiresAtFrom(s.now()),
		Scope:         grant.Scope,
		AdAccountID:   grant.AdAccountID,
		AdAccountName: grant.AdAccountName,
	}, nil
}

// exchangeSessionToken mints an offline token from a short-lived session
// token and persists it so subsequent calls skip the exchange.
func (s *TokenService) exchangeSessionToken(ctx context.Context, shopDomain, sessionToken string) (*domain.Token, error) {
	grant, err := s.shopify.ExchangeSessionToken(ctx, shopDomain, sessionToken)
	if err != nil {
		return nil, err
	}

	shop, err := s.shops.GetByDomain(ctx, shopDomain)
	if err != nil {
		return nil, err
	}
	if shop == nil {
		shop = &domain.Shop{Domain: shopDomain, Active: true}
		if err := s.shops.Save(ctx, shop); err != nil {
			return nil, err
		}
	}
	if _, err := s.Save(ctx, shop.ID, domain.ProviderShopify, grant); err != nil {
		return nil, err
	}
	s.logger.Info().Str("shop", shopDomain).Msg("Exchanged session token for offline token")
	return &domain.Token{AccessToken: grant.AccessToken, Scope: grant.Scope}, nil
}
