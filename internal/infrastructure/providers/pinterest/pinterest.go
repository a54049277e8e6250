// Package pinterest adapts the generic ad-platform contract onto the
// Pinterest API v5.
package pinterest

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"thunder-text-core/internal/domain"
	"thunder-text-core/internal/infrastructure/metrics"
	"thunder-text-core/internal/ports"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const (
	apiBaseURL  = "https://api.pinterest.com/v5"
	oauthDialog = "https://www.pinterest.com/oauth"
	scopes      = "ads:read,ads:write"
	httpTimeout = 20 * time.Second
)

// Adapter implements ports.AdPlatform for Pinterest.
type Adapter struct {
	clientID     string
	clientSecret string
	rest         *resty.Client
	logger       zerolog.Logger
}

// New creates a Pinterest adapter. baseURL overrides the API endpoint in
// tests.
func New(clientID, clientSecret, baseURL string, logger zerolog.Logger) *Adapter {
	if baseURL == "" {
		baseURL = apiBaseURL
	}
	return &Adapter{
		clientID:     clientID,
		clientSecret: clientSecret,
		rest:         resty.New().SetBaseURL(baseURL).SetTimeout(httpTimeout),
		logger:       logger,
	}
}

var _ ports.AdPlatform = (*Adapter)(nil)

// Name returns the provider identifier.
func (a *Adapter) Name() domain.Provider { return domain.ProviderPinterest }

// apiError is Pinterest's error envelope.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (a *Adapter) providerError(status int, e apiError, raw []byte) error {
	msg := e.Message
	if msg == "" {
		msg = string(raw)
	}
	return &domain.ProviderError{
		Provider: string(domain.ProviderPinterest),
		Status:   status,
		Code:     fmt.Sprintf("%d", e.Code),
		Message:  msg,
		Auth:     status == 401 || status == 403,
	}
}

// AuthURL builds the consent URL.
func (a *Adapter) AuthURL(state, redirectURI string) (string, error) {
	if a.clientID == "" {
		return "", fmt.Errorf("pinterest client id: %w", domain.ErrNotConfigured)
	}
	q := url.Values{}
	q.Set("client_id", a.clientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("response_type", "code")
	q.Set("scope", scopes)
	q.Set("state", state)
	return oauthDialog + "/?" + q.Encode(), nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
}

func (a *Adapter) tokenGrant(ctx context.Context, form map[string]string, operation string) (*domain.TokenGrant, error) {
	var ok tokenResponse
	var apiErr apiError
	resp, err := a.rest.R().
		SetContext(ctx).
		SetBasicAuth(a.clientID, a.clientSecret).
		SetFormData(form).
		SetResult(&ok).
		SetError(&apiErr).
		Post("/oauth/token")
	metrics.ObserveProviderCall("pinterest", operation, err)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", strings.ReplaceAll(operation, "_", " "), err)
	}
	if resp.IsError() {
		return nil, a.providerError(resp.StatusCode(), apiErr, resp.Body())
	}
	return &domain.TokenGrant{
		AccessToken:  ok.AccessToken,
		RefreshToken: ok.RefreshToken,
		ExpiresIn:    ok.ExpiresIn,
		Scope:        ok.Scope,
	}, nil
}

// ExchangeCode exchanges the callback code for tokens.
func (a *Adapter) ExchangeCode(ctx context.Context, code, redirectURI string) (*domain.TokenGrant, error) {
	return a.tokenGrant(ctx, map[string]string{
		"grant_type":   "authorization_code",
		"code":         code,
		"redirect_uri": redirectURI,
	}, "exchange_code")
}

// RefreshToken exchanges a refresh token for a fresh access token.
func (a *Adapter) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenGrant, error) {
	return a.tokenGrant(ctx, map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
	}, "refresh_token")
}

// ListAdAccounts lists the token's ad accounts.
func (a *Adapter) ListAdAccounts(ctx context.Context, accessToken string) ([]domain.AdAccount, error) {
	var ok struct {
		Items []struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			Currency string `json:"currency"`
		} `json:"items"`
	}
	var apiErr apiError
	resp, err := a.rest.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&ok).
		SetError(&apiErr).
		Get("/ad_accounts")
	metrics.ObserveProviderCall("pinterest", "list_ad_accounts", err)
	if err != nil {
		return nil, fmt.Errorf("failed to list ad accounts: %w", err)
	}
	if resp.IsError() {
		return nil, a.providerError(resp.StatusCode(), apiErr, resp.Body())
	}
	accounts := make([]domain.AdAccount, 0, len(ok.Items))
	for _, it := range ok.Items {
		accounts = append(accounts, domain.AdAccount{ID: it.ID, Name: it.Name, Currency: it.Currency})
	}
	return accounts, nil
}

// ListCampaigns lists campaigns under an ad account.
func (a *Adapter) ListCampaigns(ctx context.Context, accessToken, adAccountID string) ([]domain.Campaign, error) {
	var ok struct {
		Items []struct {
			ID        string `json:"id"`
			Name      string `json:"name"`
			Status    string `json:"status"`
			Objective string `json:"objective_type"`
		} `json:"items"`
	}
	var apiErr apiError
	resp, err := a.rest.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&ok).
		SetError(&apiErr).
		Get("/ad_accounts/" + adAccountID + "/campaigns")
	metrics.ObserveProviderCall("pinterest", "list_campaigns", err)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	if resp.IsError() {
		return nil, a.providerError(resp.StatusCode(), apiErr, resp.Body())
	}
	campaigns := make([]domain.Campaign, 0, len(ok.Items))
	for _, it := range ok.Items {
		campaigns = append(campaigns, domain.Campaign{ID: it.ID, Name: it.Name, Status: it.Status, Objective: it.Objective})
	}
	return campaigns, nil
}

// CreateAdDraft creates a promotable pin for the creative.
func (a *Adapter) CreateAdDraft(ctx context.Context, accessToken string, spec ports.AdDraftSpec) (string, error) {
	body := map[string]interface{}{
		"title":       spec.Title,
		"description": spec.Description,
		"link":        spec.LandingURL,
	}
	if len(spec.ImageURLs) > 0 {
		body["media_source"] = map[string]string{
			"source_type": "image_url",
			"url":         spec.ImageURLs[0],
		}
	}
	var ok struct {
		ID string `json:"id"`
	}
	var apiErr apiError
	resp, err := a.rest.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetBody(body).
		SetResult(&ok).
		SetError(&apiErr).
		Post("/pins")
	metrics.ObserveProviderCall("pinterest", "create_ad_draft", err)
	if err != nil {
		return "", fmt.Errorf("failed to create pin: %w", err)
	}
	if resp.IsError() {
		return "", a.providerError(resp.StatusCode(), apiErr, resp.Body())
	}
	return ok.ID, nil
}

// SubmitDraft promotes the pin as an ad in PAUSED entity status.
func (a *Adapter) SubmitDraft(ctx context.Context, accessToken string, spec ports.AdDraftSpec, remoteDraftID string) (*ports.SubmitResult, error) {
	var ok struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	var apiErr apiError
	resp, err := a.rest.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetBody([]map[string]interface{}{{
			"ad_group_id":   spec.Metadata["ad_group_id"],
			"pin_id":        remoteDraftID,
			"name":          spec.Title,
			"entity_status": "PAUSED",
		}}).
		SetResult(&ok).
		SetError(&apiErr).
		Post("/ad_accounts/" + spec.AdAccountID + "/ads")
	metrics.ObserveProviderCall("pinterest", "submit_draft", err)
	if err != nil {
		return nil, fmt.Errorf("failed to submit ad: %w", err)
	}
	if resp.IsError() {
		return nil, a.providerError(resp.StatusCode(), apiErr, resp.Body())
	}
	remoteAdID := remoteDraftID
	if len(ok.Items) > 0 {
		remoteAdID = ok.Items[0].ID
	}
	return &ports.SubmitResult{RemoteAdID: remoteAdID, Status: "PAUSED"}, nil
}

// FetchInsights pulls campaign analytics over the given window.
func (a *Adapter) FetchInsights(ctx context.Context, accessToken, adAccountID string, dateRange domain.DateRange) ([]domain.CampaignInsight, error) {
	var ok []struct {
		CampaignID    string  `json:"CAMPAIGN_ID"`
		CampaignName  string  `json:"CAMPAIGN_NAME"`
		Spend         float64 `json:"SPEND_IN_DOLLAR"`
		Clicks        int64   `json:"TOTAL_CLICKTHROUGH"`
		Impressions   int64   `json:"TOTAL_IMPRESSION"`
		Checkouts     int64   `json:"TOTAL_CHECKOUT"`
		CheckoutValue float64 `json:"TOTAL_CHECKOUT_VALUE_IN_DOLLAR"`
	}
	var apiErr apiError
	resp, err := a.rest.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetQueryParams(map[string]string{
			"start_date":  dateRange.Since.Format("2006-01-02"),
			"end_date":    dateRange.Until.Format("2006-01-02"),
			"granularity": "TOTAL",
			"columns":     "CAMPAIGN_ID,CAMPAIGN_NAME,SPEND_IN_DOLLAR,TOTAL_CLICKTHROUGH,TOTAL_IMPRESSION,TOTAL_CHECKOUT,TOTAL_CHECKOUT_VALUE_IN_DOLLAR",
		}).
		SetResult(&ok).
		SetError(&apiErr).
		Get("/ad_accounts/" + adAccountID + "/campaigns/analytics")
	metrics.ObserveProviderCall("pinterest", "fetch_insights", err)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch analytics: %w", err)
	}
	if resp.IsError() {
		return nil, a.providerError(resp.StatusCode(), apiErr, resp.Body())
	}
	insights := make([]domain.CampaignInsight, 0, len(ok))
	for _, row := range ok {
		ci := domain.CampaignInsight{
			CampaignID:    row.CampaignID,
			CampaignName:  row.CampaignName,
			Spend:         row.Spend,
			Clicks:        row.Clicks,
			Impressions:   row.Impressions,
			Purchases:     row.Checkouts,
			PurchaseValue: row.CheckoutValue,
		}
		ci.Derive()
		insights = append(insights, ci)
	}
	return insights, nil
}
