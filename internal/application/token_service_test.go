package application

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"thunder-text-core/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenFixture(t *testing.T, shops *fakeShopRepo, conns *fakeConnRepo, registry *fakeRegistry, shopify *fakeShopifyClient) *TokenService {
	t.Helper()
	if registry == nil {
		registry = newFakeRegistry()
	}
	if shopify == nil {
		shopify = &fakeShopifyClient{}
	}
	return NewTokenService(shops, conns, plainEncryption{}, registry, shopify, zerolog.Nop())
}

func storeConnection(t *testing.T, conns *fakeConnRepo, shopID string, provider domain.Provider, conn domain.Connection) {
	t.Helper()
	conn.ShopID = shopID
	conn.Provider = provider
	require.NoError(t, conns.Upsert(context.Background(), &conn))
}

func TestResolveReturnsStoredToken(t *testing.T) {
	shop := &domain.Shop{Domain: "alpha.myshopify.com", Active: true}
	shops := newFakeShopRepo(shop)
	conns := newFakeConnRepo()
	storeConnection(t, conns, shop.ID, domain.ProviderFacebook, domain.Connection{
		EncryptedAccessToken: "enc:fb-token",
		AdAccountID:          "act_1",
		AdAccountName:        "Alpha Ads",
	})
	svc := newTokenFixture(t, shops, conns, nil, nil)

	token, err := svc.Resolve(context.Background(), "alpha.myshopify.com", domain.ProviderFacebook, ResolveOptions{})

	require.NoError(t, err)
	assert.Equal(t, "fb-token", token.AccessToken)
	assert.Equal(t, "act_1", token.AdAccountID)
	assert.Equal(t, "Alpha Ads", token.AdAccountName)
}

func TestResolveByLinkedAliasMatchesPrimary(t *testing.T) {
	shop := &domain.Shop{Domain: "alpha.myshopify.com", LinkedDomain: "owner@example.com", Active: true}
	shops := newFakeShopRepo(shop)
	conns := newFakeConnRepo()
	storeConnection(t, conns, shop.ID, domain.ProviderFacebook, domain.Connection{
		EncryptedAccessToken: "enc:fb-token",
	})
	svc := newTokenFixture(t, shops, conns, nil, nil)

	byDomain, err := svc.Resolve(context.Background(), "alpha.myshopify.com", domain.ProviderFacebook, ResolveOptions{})
	require.NoError(t, err)
	byAlias, err := svc.Resolve(context.Background(), "owner@example.com", domain.ProviderFacebook, ResolveOptions{})
	require.NoError(t, err)

	assert.Equal(t, byDomain.AccessToken, byAlias.AccessToken)
}

func TestResolveUnknownShopReturnsNotConnected(t *testing.T) {
	svc := newTokenFixture(t, newFakeShopRepo(), newFakeConnRepo(), nil, nil)

	_, err := svc.Resolve(context.Background(), "nobody.myshopify.com", domain.ProviderFacebook, ResolveOptions{})

	assert.ErrorIs(t, err, domain.ErrNotConnected)
}

func TestResolveNoConnectionReturnsNotConnected(t *testing.T) {
	shop := &domain.Shop{Domain: "alpha.myshopify.com", Active: true}
	svc := newTokenFixture(t, newFakeShopRepo(shop), newFakeConnRepo(), nil, nil)

	_, err := svc.Resolve(context.Background(), "alpha.myshopify.com", domain.ProviderTikTok, ResolveOptions{})

	assert.ErrorIs(t, err, domain.ErrNotConnected)
}

func TestResolveRefreshesExpiredToken(t *testing.T) {
	shop := &domain.Shop{Domain: "alpha.myshopify.com", Active: true}
	shops := newFakeShopRepo(shop)
	conns := newFakeConnRepo()
	expired := time.Now().Add(-time.Hour)
	storeConnection(t, conns, shop.ID, domain.ProviderGoogle, domain.Connection{
		EncryptedAccessToken:  "enc:stale",
		EncryptedRefreshToken: "enc:refresh-1",
		ExpiresAt:             &expired,
		AdAccountID:           "123-456-7890",
		Scope:                 "adwords",
	})
	platform := &fakePlatform{
		name: domain.ProviderGoogle,
		refreshTokenFn: func(ctx context.Context, refreshToken string) (*domain.TokenGrant, error) {
			assert.Equal(t, "refresh-1", refreshToken)
			return &domain.TokenGrant{AccessToken: "fresh", ExpiresIn: 3600}, nil
		},
	}
	svc := newTokenFixture(t, shops, conns, newFakeRegistry(platform), nil)

	token, err := svc.Resolve(context.Background(), "alpha.myshopify.com", domain.ProviderGoogle, ResolveOptions{})

	require.NoError(t, err)
	assert.Equal(t, "fresh", token.AccessToken)
	assert.Equal(t, "123-456-7890", token.AdAccountID, "account metadata survives rotation")
	assert.Equal(t, "adwords", token.Scope)

	stored, err := conns.GetActive(context.Background(), shop.ID, domain.ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, "enc:fresh", stored.EncryptedAccessToken)
	assert.Equal(t, "enc:refresh-1", stored.EncryptedRefreshToken, "old refresh token kept when the grant omits one")
}

func TestResolveExpiredWithoutRefreshTokenFails(t *testing.T) {
	shop := &domain.Shop{Domain: "alpha.myshopify.com", Active: true}
	shops := newFakeShopRepo(shop)
	conns := newFakeConnRepo()
	expired := time.Now().Add(-time.Hour)
	storeConnection(t, conns, shop.ID, domain.ProviderTikTok, domain.Connection{
		EncryptedAccessToken: "enc:stale",
		ExpiresAt:            &expired,
	})
	svc := newTokenFixture(t, shops, conns, nil, nil)

	_, err := svc.Resolve(context.Background(), "alpha.myshopify.com", domain.ProviderTikTok, ResolveOptions{})

	assert.ErrorIs(t, err, domain.ErrNotConnected)
}

func TestConcurrentResolvesRefreshOnce(t *testing.T) {
	shop := &domain.Shop{Domain: "alpha.myshopify.com", Active: true}
	shops := newFakeShopRepo(shop)
	conns := newFakeConnRepo()
	expired := time.Now().Add(-time.Hour)
	storeConnection(t, conns, shop.ID, domain.ProviderGoogle, domain.Connection{
		EncryptedAccessToken:  "enc:stale",
		EncryptedRefreshToken: "enc:refresh-1",
		ExpiresAt:             &expired,
	})
	var refreshes int64
	platform := &fakePlatform{
		name: domain.ProviderGoogle,
		refreshTokenFn: func(ctx context.Context, refreshToken string) (*domain.TokenGrant, error) {
			atomic.AddInt64(&refreshes, 1)
			time.Sleep(10 * time.Millisecond)
			return &domain.TokenGrant{AccessToken: "fresh", ExpiresIn: 3600}, nil
		},
	}
	svc := newTokenFixture(t, shops, conns, newFakeRegistry(platform), nil)

	const n = 8
	var wg sync.WaitGroup
	tokens := make([]*domain.Token, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = svc.Resolve(context.Background(), "alpha.myshopify.com", domain.ProviderGoogle, ResolveOptions{})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&refreshes), "losers reuse the winner's token")
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "fresh", tokens[i].AccessToken)
	}
}

func TestResolveSessionTokenFallbackCreatesShop(t *testing.T) {
	shops := newFakeShopRepo()
	conns := newFakeConnRepo()
	shopify := &fakeShopifyClient{
		exchangeSessionFn: func(ctx context.Context, shopDomain, sessionToken string) (*domain.TokenGrant, error) {
			assert.Equal(t, "new.myshopify.com", shopDomain)
			assert.Equal(t, "jwt-123", sessionToken)
			return &domain.TokenGrant{AccessToken: "offline-token", Scope: "write_products"}, nil
		},
	}
	svc := newTokenFixture(t, shops, conns, nil, shopify)

	token, err := svc.Resolve(context.Background(), "new.myshopify.com", domain.ProviderShopify, ResolveOptions{SessionToken: "jwt-123"})

	require.NoError(t, err)
	assert.Equal(t, "offline-token", token.AccessToken)

	shop, err := shops.GetByDomain(context.Background(), "new.myshopify.com")
	require.NoError(t, err)
	require.NotNil(t, shop, "shop row created on first session exchange")

	stored, err := conns.GetActive(context.Background(), shop.ID, domain.ProviderShopify)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "enc:offline-token", stored.EncryptedAccessToken, "token persisted so later calls skip the exchange")
}

func TestResolveStoredShopifyTokenBeatsSessionExchange(t *testing.T) {
	shop := &domain.Shop{Domain: "alpha.myshopify.com", Active: true}
	shops := newFakeShopRepo(shop)
	conns := newFakeConnRepo()
	storeConnection(t, conns, shop.ID, domain.ProviderShopify, domain.Connection{
		EncryptedAccessToken: "enc:stored-token",
	})
	shopify := &fakeShopifyClient{
		exchangeSessionFn: func(ctx context.Context, shopDomain, sessionToken string) (*domain.TokenGrant, error) {
			t.Fatal("session exchange must not run when a stored token exists")
			return nil, nil
		},
	}
	svc := newTokenFixture(t, shops, conns, nil, shopify)

	token, err := svc.Resolve(context.Background(), "alpha.myshopify.com", domain.ProviderShopify, ResolveOptions{SessionToken: "jwt-123"})

	require.NoError(t, err)
	assert.Equal(t, "stored-token", token.AccessToken)
}

func TestRevoke(t *testing.T) {
	shop := &domain.Shop{Domain: "alpha.myshopify.com", Active: true}
	shops := newFakeShopRepo(shop)
	conns := newFakeConnRepo()
	storeConnection(t, conns, shop.ID, domain.ProviderFacebook, domain.Connection{
		EncryptedAccessToken: "enc:fb-token",
	})
	svc := newTokenFixture(t, shops, conns, nil, nil)

	require.NoError(t, svc.Revoke(context.Background(), "alpha.myshopify.com", domain.ProviderFacebook))

	_, err := svc.Resolve(context.Background(), "alpha.myshopify.com", domain.ProviderFacebook, ResolveOptions{})
	assert.ErrorIs(t, err, domain.ErrNotConnected)
}
