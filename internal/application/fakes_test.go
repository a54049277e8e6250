package application

import (
	"context"
	"fmt"
	"sync"

	"thunder-text-core/internal/domain"
	"thunder-text-core/internal/ports"

	"github.com/google/uuid"
)

type fakeShopRepo struct {
	mu    sync.Mutex
	shops map[string]*domain.Shop
}

func newFakeShopRepo(shops ...*domain.Shop) *fakeShopRepo {
	r := &fakeShopRepo{shops: map[string]*domain.Shop{}}
	for _, s := range shops {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		r.shops[s.ID] = s
	}
	return r
}

func (r *fakeShopRepo) Save(ctx context.Context, shop *domain.Shop) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if shop.ID == "" {
		shop.ID = uuid.NewString()
	}
	r.shops[shop.ID] = shop
	return nil
}

func (r *fakeShopRepo) GetByID(ctx context.Context, id string) (*domain.Shop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shops[id], nil
}

func (r *fakeShopRepo) GetByDomain(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.shops {
		if s.Domain == shopDomain {
			return s, nil
		}
	}
	return nil, nil
}

func (r *fakeShopRepo) GetByAnyDomain(ctx context.Context, identifier string) (*domain.Shop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.shops {
		if s.Domain == identifier || (s.LinkedDomain != "" && s.LinkedDomain == identifier) {
			return s, nil
		}
	}
	return nil, nil
}

func (r *fakeShopRepo) ListActive(ctx context.Context) ([]*domain.Shop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Shop
	for _, s := range r.shops {
		if s.Active {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeShopRepo) Deactivate(ctx context.Context, shopDomain string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.shops {
		if s.Domain == shopDomain {
			s.Active = false
			return nil
		}
	}
	return domain.ErrNotFound
}

type fakeConnRepo struct {
	mu    sync.Mutex
	conns map[string]*domain.Connection
}

func newFakeConnRepo() *fakeConnRepo {
	return &fakeConnRepo{conns: map[string]*domain.Connection{}}
}

func connKey(shopID string, provider domain.Provider) string {
	return shopID + ":" + string(provider)
}

func (r *fakeConnRepo) Upsert(ctx context.Context, conn *domain.Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conn.ID == "" {
		conn.ID = uuid.NewString()
	}
	conn.Active = true
	cp := *conn
	r.conns[connKey(conn.ShopID, conn.Provider)] = &cp
	return nil
}

func (r *fakeConnRepo) GetActive(ctx context.Context, shopID string, provider domain.Provider) (*domain.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.conns[connKey(shopID, provider)]
	if !ok || !conn.Active {
		return nil, nil
	}
	cp := *conn
	return &cp, nil
}

func (r *fakeConnRepo) ListByShop(ctx context.Context, shopID string) ([]*domain.Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Connection
	for _, c := range r.conns {
		if c.ShopID == shopID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeConnRepo) Deactivate(ctx context.Context, shopID string, provider domain.Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conn, ok := r.conns[connKey(shopID, provider)]; ok {
		conn.Active = false
	}
	return nil
}

type fakeDraftRepo struct {
	mu     sync.Mutex
	drafts map[string]*domain.AdDraft
}

func newFakeDraftRepo() *fakeDraftRepo {
	return &fakeDraftRepo{drafts: map[string]*domain.AdDraft{}}
}

func (r *fakeDraftRepo) Create(ctx context.Context, draft *domain.AdDraft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if draft.ID == "" {
		draft.ID = uuid.NewString()
	}
	cp := *draft
	r.drafts[draft.ID] = &cp
	return nil
}

func (r *fakeDraftRepo) Update(ctx context.Context, draft *domain.AdDraft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.drafts[draft.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *draft
	r.drafts[draft.ID] = &cp
	return nil
}

func (r *fakeDraftRepo) Get(ctx context.Context, id string) (*domain.AdDraft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	draft, ok := r.drafts[id]
	if !ok {
		return nil, nil
	}
	cp := *draft
	return &cp, nil
}

func (r *fakeDraftRepo) ListByShop(ctx context.Context, shopID string, provider domain.Provider) ([]*domain.AdDraft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.AdDraft
	for _, d := range r.drafts {
		if d.ShopID == shopID && (provider == "" || d.Provider == provider) {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeSavedAdRepo struct {
	mu  sync.Mutex
	ads map[string]*domain.SavedAd
}

func newFakeSavedAdRepo() *fakeSavedAdRepo {
	return &fakeSavedAdRepo{ads: map[string]*domain.SavedAd{}}
}

func (r *fakeSavedAdRepo) Create(ctx context.Context, ad *domain.SavedAd) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *ad
	r.ads[ad.ID] = &cp
	return nil
}

func (r *fakeSavedAdRepo) Update(ctx context.Context, ad *domain.SavedAd) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ads[ad.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *ad
	r.ads[ad.ID] = &cp
	return nil
}

func (r *fakeSavedAdRepo) Get(ctx context.Context, id string) (*domain.SavedAd, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ad, ok := r.ads[id]
	if !ok {
		return nil, nil
	}
	cp := *ad
	return &cp, nil
}

func (r *fakeSavedAdRepo) ListByShop(ctx context.Context, shopID string) ([]*domain.SavedAd, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.SavedAd
	for _, a := range r.ads {
		if a.ShopID == shopID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeSavedAdRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ads[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.ads, id)
	return nil
}

type fakeBestPracticeRepo struct {
	mu    sync.Mutex
	items map[string]*domain.BestPractice
}

func newFakeBestPracticeRepo() *fakeBestPracticeRepo {
	return &fakeBestPracticeRepo{items: map[string]*domain.BestPractice{}}
}

func (r *fakeBestPracticeRepo) Create(ctx context.Context, bp *domain.BestPractice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *bp
	r.items[bp.ID] = &cp
	return nil
}

func (r *fakeBestPracticeRepo) Get(ctx context.Context, id string) (*domain.BestPractice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bp, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	cp := *bp
	return &cp, nil
}

func (r *fakeBestPracticeRepo) List(ctx context.Context) ([]*domain.BestPractice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.BestPractice
	for _, bp := range r.items {
		cp := *bp
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeBestPracticeRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

// plainEncryption prefixes instead of encrypting so tests can assert on
// stored values.
type plainEncryption struct{}

func (plainEncryption) Encrypt(plaintext string) (string, error) {
	return "enc:" + plaintext, nil
}

func (plainEncryption) Decrypt(ciphertext string) (string, error) {
	if len(ciphertext) < 4 || ciphertext[:4] != "enc:" {
		return "", fmt.Errorf("not encrypted: %q", ciphertext)
	}
	return ciphertext[4:], nil
}

// fakePlatform implements ports.AdPlatform with per-method hooks.
type fakePlatform struct {
	name            domain.Provider
	authURLFn       func(state, redirectURI string) (string, error)
	exchangeCodeFn  func(ctx context.Context, code, redirectURI string) (*domain.TokenGrant, error)
	refreshTokenFn  func(ctx context.Context, refreshToken string) (*domain.TokenGrant, error)
	listAccountsFn  func(ctx context.Context, accessToken string) ([]domain.AdAccount, error)
	listCampaignsFn func(ctx context.Context, accessToken, adAccountID string) ([]domain.Campaign, error)
	createDraftFn   func(ctx context.Context, accessToken string, spec ports.AdDraftSpec) (string, error)
	submitDraftFn   func(ctx context.Context, accessToken string, spec ports.AdDraftSpec, remoteDraftID string) (*ports.SubmitResult, error)
	fetchInsightsFn func(ctx context.Context, accessToken, adAccountID string, dateRange domain.DateRange) ([]domain.CampaignInsight, error)
}

func (p *fakePlatform) Name() domain.Provider { return p.name }

func (p *fakePlatform) AuthURL(state, redirectURI string) (string, error) {
	if p.authURLFn != nil {
		return p.authURLFn(state, redirectURI)
	}
	return "https://auth.example.com/?state=" + state, nil
}

func (p *fakePlatform) ExchangeCode(ctx context.Context, code, redirectURI string) (*domain.TokenGrant, error) {
	if p.exchangeCodeFn != nil {
		return p.exchangeCodeFn(ctx, code, redirectURI)
	}
	return &domain.TokenGrant{AccessToken: "access-" + code}, nil
}

func (p *fakePlatform) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenGrant, error) {
	if p.refreshTokenFn != nil {
		return p.refreshTokenFn(ctx, refreshToken)
	}
	return &domain.TokenGrant{AccessToken: "refreshed", RefreshToken: refreshToken, ExpiresIn: 3600}, nil
}

func (p *fakePlatform) ListAdAccounts(ctx context.Context, accessToken string) ([]domain.AdAccount, error) {
	if p.listAccountsFn != nil {
		return p.listAccountsFn(ctx, accessToken)
	}
	return nil, nil
}

func (p *fakePlatform) ListCampaigns(ctx context.Context, accessToken, adAccountID string) ([]domain.Campaign, error) {
	if p.listCampaignsFn != nil {
		return p.listCampaignsFn(ctx, accessToken, adAccountID)
	}
	return nil, nil
}

func (p *fakePlatform) CreateAdDraft(ctx context.Context, accessToken string, spec ports.AdDraftSpec) (string, error) {
	if p.createDraftFn != nil {
		return p.createDraftFn(ctx, accessToken, spec)
	}
	return "remote-draft-1", nil
}

func (p *fakePlatform) SubmitDraft(ctx context.Context, accessToken string, spec ports.AdDraftSpec, remoteDraftID string) (*ports.SubmitResult, error) {
	if p.submitDraftFn != nil {
		return p.submitDraftFn(ctx, accessToken, spec, remoteDraftID)
	}
	return &ports.SubmitResult{RemoteAdID: "remote-ad-1", Status: "PAUSED"}, nil
}

func (p *fakePlatform) FetchInsights(ctx context.Context, accessToken, adAccountID string, dateRange domain.DateRange) ([]domain.CampaignInsight, error) {
	if p.fetchInsightsFn != nil {
		return p.fetchInsightsFn(ctx, accessToken, adAccountID, dateRange)
	}
	return nil, nil
}

type fakeRegistry struct {
	platforms map[domain.Provider]ports.AdPlatform
}

func newFakeRegistry(platforms ...ports.AdPlatform) *fakeRegistry {
	r := &fakeRegistry{platforms: map[domain.Provider]ports.AdPlatform{}}
	for _, p := range platforms {
		r.platforms[p.Name()] = p
	}
	return r
}

func (r *fakeRegistry) Platform(provider domain.Provider) (ports.AdPlatform, error) {
	p, ok := r.platforms[provider]
	if !ok {
		return nil, fmt.Errorf("provider %s: %w", provider, domain.ErrNotConfigured)
	}
	return p, nil
}

// fakeShopifyClient implements ports.ShopifyClient with per-method hooks.
type fakeShopifyClient struct {
	exchangeCodeFn    func(ctx context.Context, shopDomain, code string) (*domain.TokenGrant, error)
	exchangeSessionFn func(ctx context.Context, shopDomain, sessionToken string) (*domain.TokenGrant, error)
	createProductFn   func(ctx context.Context, shopDomain, accessToken string, spec ports.ProductSpec) (int64, error)
	updateProductFn   func(ctx context.Context, shopDomain, accessToken string, spec ports.ProductSpec) error
	setMetafieldFn    func(ctx context.Context, shopDomain, accessToken string, productID int64, mf ports.MetafieldSpec) error
	updateVariantFn   func(ctx context.Context, shopDomain, accessToken string, v ports.VariantSpec) error
	attachImageFn     func(ctx context.Context, shopDomain, accessToken string, productID int64, imageURL string) error
}

func (c *fakeShopifyClient) ExchangeCode(ctx context.Context, shopDomain, code string) (*domain.TokenGrant, error) {
	if c.exchangeCodeFn != nil {
		return c.exchangeCodeFn(ctx, shopDomain, code)
	}
	return &domain.TokenGrant{AccessToken: "shopify-access"}, nil
}

func (c *fakeShopifyClient) ExchangeSessionToken(ctx context.Context, shopDomain, sessionToken string) (*domain.TokenGrant, error) {
	if c.exchangeSessionFn != nil {
		return c.exchangeSessionFn(ctx, shopDomain, sessionToken)
	}
	return &domain.TokenGrant{AccessToken: "exchanged-offline"}, nil
}

func (c *fakeShopifyClient) GetShop(ctx context.Context, shopDomain, accessToken string) (string, error) {
	return shopDomain, nil
}

func (c *fakeShopifyClient) CreateProduct(ctx context.Context, shopDomain, accessToken string, spec ports.ProductSpec) (int64, error) {
	if c.createProductFn != nil {
		return c.createProductFn(ctx, shopDomain, accessToken, spec)
	}
	return 1001, nil
}

func (c *fakeShopifyClient) UpdateProduct(ctx context.Context, shopDomain, accessToken string, spec ports.ProductSpec) error {
	if c.updateProductFn != nil {
		return c.updateProductFn(ctx, shopDomain, accessToken, spec)
	}
	return nil
}

func (c *fakeShopifyClient) SetMetafield(ctx context.Context, shopDomain, accessToken string, productID int64, mf ports.MetafieldSpec) error {
	if c.setMetafieldFn != nil {
		return c.setMetafieldFn(ctx, shopDomain, accessToken, productID, mf)
	}
	return nil
}

func (c *fakeShopifyClient) UpdateVariant(ctx context.Context, shopDomain, accessToken string, v ports.VariantSpec) error {
	if c.updateVariantFn != nil {
		return c.updateVariantFn(ctx, shopDomain, accessToken, v)
	}
	return nil
}

func (c *fakeShopifyClient) AttachImage(ctx context.Context, shopDomain, accessToken string, productID int64, imageURL string) error {
	if c.attachImageFn != nil {
		return c.attachImageFn(ctx, shopDomain, accessToken, productID, imageURL)
	}
	return nil
}

// fakeSessionStore keeps OAuth sessions in memory.
type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*ports.OAuthSession
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[string]*ports.OAuthSession{}}
}

func (s *fakeSessionStore) Create(ctx context.Context, session *ports.OAuthSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *session
	s.sessions[session.State] = &cp
	return nil
}

func (s *fakeSessionStore) Get(ctx context.Context, state string) (*ports.OAuthSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[state]
	if !ok {
		return nil, nil
	}
	cp := *session
	return &cp, nil
}

func (s *fakeSessionStore) Delete(ctx context.Context, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, state)
	return nil
}
