package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"

	"thunder-text-core/internal/domain"
	"thunder-text-core/internal/ports"

	"github.com/rs/zerolog"
)

// shopifyScopes is the scope set requested on install.
const shopifyScopes = "read_products,write_products,read_orders"

// OAuthService drives connect/disconnect flows for Shopify and the ad
// platforms. CSRF state lives in the session store with a TTL.
type OAuthService struct {
	shops         ports.ShopRepository
	sessions      ports.SessionStore
	platforms     ports.PlatformRegistry
	shopify       ports.ShopifyClient
	tokens        *TokenService
	logger        zerolog.Logger
	appURL        string
	shopifyAPIKey string
}

// NewOAuthService creates an OAuth service.
func NewOAuthService(
	shops ports.ShopRepository,
	sessions ports.SessionStore,
	platforms ports.PlatformRegistry,
	shopify ports.ShopifyClient,
	tokens *TokenService,
	logger zerolog.Logger,
	appURL string,
	shopifyAPIKey string,
) *OAuthService {
	return &OAuthService{
		shops:         shops,
		sessions:      sessions,
		platforms:     platforms,
		shopify:       shopify,
		tokens:        tokens,
		logger:        logger,
		appURL:        appURL,
		shopifyAPIKey: shopifyAPIKey,
	}
}

func (s *OAuthService) redirectURI(provider domain.Provider) string {
	return fmt.Sprintf("%s/auth/%s/callback", s.appURL, provider)
}

func newState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// BeginConnect starts an OAuth flow and returns the authorization URL to
// redirect the user to.
func (s *OAuthService) BeginConnect(ctx context.Context, provider domain.Provider, shopDomain, returnURL string) (string, error) {
	if shopDomain == "" {
		return "", domain.NewValidationError("shop")
	}
	state, err := newState()
	if err != nil {
		return "", err
	}

	var authURL string
	if provider == domain.ProviderShopify {
		if s.shopifyAPIKey == "" {
			return "", fmt.Errorf("shopify api key: %w", domain.ErrNotConfigured)
		}
		authURL = fmt.Sprintf(
			"https://%s/admin/oauth/authorize?client_id=%s&scope=%s&redirect_uri=%s&state=%s",
			shopDomain,
			s.shopifyAPIKey,
			url.QueryEscape(shopifyScopes),
			url.QueryEscape(s.redirectURI(provider)),
			state,
		)
	} else {
		platform, err := s.platforms.Platform(provider)
		if err != nil {
			return "", err
		}
		authURL, err = platform.AuthURL(state, s.redirectURI(provider))
		if err != nil {
			return "", err
		}
	}

	session := &ports.OAuthSession{
		State:      state,
		Provider:   provider,
		ShopDomain: shopDomain,
		ReturnURL:  returnURL,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", err
	}

	s.logger.Info().
		Str("shop", shopDomain).
		Str("provider", string(provider)).
		Msg("Started OAuth connect flow")
	return authURL, nil
}

// ConnectResult is returned from a completed callback so the handler can
// redirect back to the frontend.
type ConnectResult struct {
	ShopDomain string
	Provider   domain.Provider
	ReturnURL  string
}

// CompleteConnect validates the callback state, exchanges the code, and
// stores the encrypted grant. For ad platforms it also captures the first ad
// account's metadata, best-effort.
func (s *OAuthService) CompleteConnect(ctx context.Context, provider domain.Provider, state, code string) (*ConnectResult, error) {
	if state == "" || code == "" {
		return nil, domain.NewValidationError("state", "code")
	}
	session, err := s.sessions.Get(ctx, state)
	if err != nil {
		return nil, err
	}
	if session == nil || session.Provider != provider {
		return nil, fmt.Errorf("oauth state invalid or expired: %w", domain.ErrNotConnected)
	}
	// Consume the state before exchanging so a replayed callback fails.
	if err := s.sessions.Delete(ctx, state); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to delete consumed OAuth session")
	}

	shop, err := s.shops.GetByAnyDomain(ctx, session.ShopDomain)
	if err != nil {
		return nil, err
	}
	if shop == nil {
		shop = &domain.Shop{Domain: session.ShopDomain, Active: true}
	}
	shop.Active = true
	if err := s.shops.Save(ctx, shop); err != nil {
		return nil, err
	}

	var grant *domain.TokenGrant
	if provider == domain.ProviderShopify {
		grant, err = s.shopify.ExchangeCode(ctx, session.ShopDomain, code)
	} else {
		var platform ports.AdPlatform
		platform, err = s.platforms.Platform(provider)
		if err == nil {
			grant, err = platform.ExchangeCode(ctx, code, s.redirectURI(provider))
		}
	}
	if err != nil {
		return nil, err
	}

	// Capture ad-account metadata while we hold the cleartext token. A
	// listing failure must not fail the connect itself.
	if provider != domain.ProviderShopify && grant.AdAccountID == "" {
		if platform, perr := s.platforms.Platform(provider); perr == nil {
			accounts, lerr := platform.ListAdAccounts(ctx, grant.AccessToken)
			if lerr != nil {
				s.logger.Warn().
					Err(lerr).
					Str("shop", shop.Domain).
					Str("provider", string(provider)).
					Msg("Could not list ad accounts after connect")
			} else if len(accounts) > 0 {
				grant.AdAccountID = accounts[0].ID
				grant.AdAccountName = accounts[0].Name
			}
		}
	}

	if _, err := s.tokens.Save(ctx, shop.ID, provider, grant); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("shop", shop.Domain).
		Str("provider", string(provider)).
		Msg("Completed OAuth connect flow")
	return &ConnectResult{
		ShopDomain: shop.Domain,
		Provider:   provider,
		ReturnURL:  session.ReturnURL,
	}, nil
}

// Disconnect revokes the stored connection for (shop, provider).
func (s *OAuthService) Disconnect(ctx context.Context, shopIdentifier string, provider domain.Provider) error {
	return s.tokens.Revoke(ctx, shopIdentifier, provider)
}

// HandleUninstall reacts to Shopify's app/uninstalled webhook: the shop is
// soft-deactivated and every connection revoked; rows are never deleted.
func (s *OAuthService) HandleUninstall(ctx context.Context, shopDomain string) error {
	shop, err := s.shops.GetByDomain(ctx, shopDomain)
	if err != nil {
		return err
	}
	if shop == nil {
		s.logger.Warn().Str("shop", shopDomain).Msg("Uninstall webhook for unknown shop")
		return nil
	}
	conns, err := s.tokens.connections.ListByShop(ctx, shop.ID)
	if err != nil {
		return err
	}
	for _, conn := range conns {
		if err := s.tokens.connections.Deactivate(ctx, shop.ID, conn.Provider); err != nil {
			s.logger.Error().
				Err(err).
				Str("shop", shopDomain).
				Str("provider", string(conn.Provider)).
				Msg("Failed to revoke connection on uninstall")
		}
	}
	if err := s.shops.Deactivate(ctx, shopDomain); err != nil {
		return err
	}
	s.logger.Info().Str("shop", shopDomain).Msg("Shop deactivated after uninstall")
	return nil
}
