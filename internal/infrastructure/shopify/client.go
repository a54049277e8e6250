package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"thunder-text-core/internal/domain"
	"thunder-text-core/internal/ports"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"
)

// tokenExchangeGrantType is Shopify's token-exchange grant for embedded apps.
const (
	tokenExchangeGrantType   = "urn:ietf:params:oauth:grant-type:token-exchange"
	sessionTokenType         = "urn:ietf:params:oauth:token-type:id_token"
	offlineAccessTokenType   = "urn:shopify:params:oauth:token-type:offline-access-token"
	tokenExchangeHTTPTimeout = 15 * time.Second
)

type client struct {
	apiKey    string
	apiSecret string
	app       goshopify.App
	http      *http.Client
	logger    zerolog.Logger
}

// NewClient creates a Shopify client adapter.
func NewClient(apiKey, apiSecret string, logger zerolog.Logger) ports.ShopifyClient {
	app := goshopify.App{
		ApiKey:    apiKey,
		ApiSecret: apiSecret,
	}
	return &client{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		app:       app,
		http:      &http.Client{Timeout: tokenExchangeHTTPTimeout},
		logger:    logger,
	}
}

func (c *client) createClient(shopDomain, accessToken string) (*goshopify.Client, error) {
	sc, err := goshopify.NewClient(c.app, shopDomain, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return sc, nil
}

func (c *client) configured() error {
	if c.apiKey == "" || c.apiSecret == "" {
		return fmt.Errorf("shopify credentials: %w", domain.ErrNotConfigured)
	}
	return nil
}

// ExchangeCode exchanges the install-time authorization code for an offline
// token.
func (c *client) ExchangeCode(ctx context.Context, shopDomain, code string) (*domain.TokenGrant, error) {
	if err := c.configured(); err != nil {
		return nil, err
	}
	token, err := c.app.GetAccessToken(ctx, shopDomain, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return &domain.TokenGrant{AccessToken: token}, nil
}

// ExchangeSessionToken exchanges a short-lived embedded-app session token for
// an offline access token. The go-shopify library does not expose this
// endpoint, so the call is made directly.
func (c *client) ExchangeSessionToken(ctx context.Context, shopDomain, sessionToken string) (*domain.TokenGrant, error) {
	if err := c.configured(); err != nil {
		return nil, err
	}
	body := map[string]string{
		"client_id":            c.apiKey,
		"client_secret":        c.apiSecret,
		"grant_type":           tokenExchangeGrantType,
		"subject_token":        sessionToken,
		"subject_token_type":   sessionTokenType,
		"requested_token_type": offlineAccessTokenType,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal exchange request: %w", err)
	}

	exchangeURL := fmt.Sprintf("https://%s/admin/oauth/access_token", normalizeDomain(shopDomain))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, exchangeURL, strings.NewReader(string(payload)))
	if err != nil {
		return nil, fmt.Errorf("failed to create exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange session token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		c.logger.Warn().
			Str("shop", shopDomain).
			Int("status", resp.StatusCode).
			Msg("Session token exchange rejected")
		return nil, &domain.ProviderError{
			Provider: string(domain.ProviderShopify),
			Status:   resp.StatusCode,
			Message:  string(raw),
			Auth:     resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden,
		}
	}

	var result struct {
		AccessToken string `json:"access_token"`
		Scope       string `json:"scope"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode exchange response: %w", err)
	}
	return &domain.TokenGrant{AccessToken: result.AccessToken, Scope: result.Scope}, nil
}

// GetShop fetches the shop name; used as a lightweight token validity probe.
func (c *client) GetShop(ctx context.Context, shopDomain, accessToken string) (string, error) {
	sc, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return "", err
	}
	shop, err := sc.Shop.Get(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get shop: %w", err)
	}
	return shop.Name, nil
}

// CreateProduct creates a product and returns its id.
func (c *client) CreateProduct(ctx context.Context, shopDomain, accessToken string, spec ports.ProductSpec) (int64, error) {
	sc, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return 0, err
	}
	created, err := sc.Product.Create(ctx, goshopify.Product{
		Title:       spec.Title,
		BodyHTML:    spec.BodyHTML,
		Vendor:      spec.Vendor,
		ProductType: spec.ProductType,
		Tags:        spec.Tags,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create product: %w", err)
	}
	return int64(created.Id), nil
}

// UpdateProduct updates an existing product's descriptive fields.
func (c *client) UpdateProduct(ctx context.Context, shopDomain, accessToken string, spec ports.ProductSpec) error {
	sc, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return err
	}
	_, err = sc.Product.Update(ctx, goshopify.Product{
		Id:          uint64(spec.ID),
		Title:       spec.Title,
		BodyHTML:    spec.BodyHTML,
		Vendor:      spec.Vendor,
		ProductType: spec.ProductType,
		Tags:        spec.Tags,
	})
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

// SetMetafield writes one product metafield.
func (c *client) SetMetafield(ctx context.Context, shopDomain, accessToken string, productID int64, mf ports.MetafieldSpec) error {
	sc, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return err
	}
	_, err = sc.Metafield.Create(ctx, goshopify.Metafield{
		Namespace:     mf.Namespace,
		Key:           mf.Key,
		Type:          goshopify.MetafieldType(mf.Type),
		Value:         mf.Value,
		OwnerId:       uint64(productID),
		OwnerResource: "product",
	})
	if err != nil {
		return fmt.Errorf("failed to set metafield %s.%s: %w", mf.Namespace, mf.Key, err)
	}
	return nil
}

// UpdateVariant updates one product variant.
func (c *client) UpdateVariant(ctx context.Context, shopDomain, accessToken string, v ports.VariantSpec) error {
	sc, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return err
	}
	variant := goshopify.Variant{Id: uint64(v.ID), Sku: v.SKU}
	if v.Price != "" {
		price, perr := decimalFromString(v.Price)
		if perr != nil {
			return perr
		}
		variant.Price = price
	}
	if _, err := sc.Variant.Update(ctx, variant); err != nil {
		return fmt.Errorf("failed to update variant %d: %w", v.ID, err)
	}
	return nil
}

// AttachImage attaches an image by source URL to a product.
func (c *client) AttachImage(ctx context.Context, shopDomain, accessToken string, productID int64, imageURL string) error {
	sc, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return err
	}
	if _, err := url.ParseRequestURI(imageURL); err != nil {
		return fmt.Errorf("invalid image url: %w", err)
	}
	_, err = sc.Image.Create(ctx, uint64(productID), goshopify.Image{
		ProductId: uint64(productID),
		Src:       imageURL,
	})
	if err != nil {
		return fmt.Errorf("failed to attach image: %w", err)
	}
	return nil
}

func normalizeDomain(shopDomain string) string {
	d := strings.TrimPrefix(strings.TrimPrefix(shopDomain, "https://"), "http://")
	if !strings.Contains(d, ".") {
		d += ".myshopify.com"
	}
	return d
}
