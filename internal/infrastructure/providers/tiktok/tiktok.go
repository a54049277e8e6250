// Package tiktok adapts the generic ad-platform contract onto the TikTok
// Business API (open_api v1.3).
package tiktok

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"thunder-text-core/internal/domain"
	"thunder-text-core/internal/infrastructure/metrics"
	"thunder-text-core/internal/ports"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const (
	apiBaseURL  = "https://business-api.tiktok.com/open_api/v1.3"
	authDialog  = "https://business-api.tiktok.com/portal/auth"
	httpTimeout = 20 * time.Second
)

// Adapter implements ports.AdPlatform for TikTok.
type Adapter struct {
	appID  string
	secret string
	rest   *resty.Client
	logger zerolog.Logger
}

// New creates a TikTok adapter. baseURL overrides the API endpoint in tests.
func New(appID, secret, baseURL string, logger zerolog.Logger) *Adapter {
	if baseURL == "" {
		baseURL = apiBaseURL
	}
	return &Adapter{
		appID:  appID,
		secret: secret,
		rest:   resty.New().SetBaseURL(baseURL).SetTimeout(httpTimeout),
		logger: logger,
	}
}

var _ ports.AdPlatform = (*Adapter)(nil)

// Name returns the provider identifier.
func (a *Adapter) Name() domain.Provider { return domain.ProviderTikTok }

// envelope is TikTok's uniform response wrapper; code 0 means success.
type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// authErrorCodes are TikTok auth failure codes (invalid/expired token).
var authErrorCodes = map[int]bool{40001: true, 40100: true, 40105: true}

func (a *Adapter) envelopeError(status int, env envelope) error {
	return &domain.ProviderError{
		Provider: string(domain.ProviderTikTok),
		Status:   status,
		Code:     fmt.Sprintf("%d", env.Code),
		Message:  env.Message,
		Auth:     authErrorCodes[env.Code] || status == 401,
	}
}

// AuthURL builds the authorization portal URL.
func (a *Adapter) AuthURL(state, redirectURI string) (string, error) {
	if a.appID == "" {
		return "", fmt.Errorf("tiktok app id: %w", domain.ErrNotConfigured)
	}
	q := url.Values{}
	q.Set("app_id", a.appID)
	q.Set("state", state)
	q.Set("redirect_uri", redirectURI)
	return authDialog + "?" + q.Encode(), nil
}

// ExchangeCode exchanges the auth code for an advertiser access token.
func (a *Adapter) ExchangeCode(ctx context.Context, code, redirectURI string) (*domain.TokenGrant, error) {
	var ok struct {
		envelope
		Data struct {
			AccessToken   string   `json:"access_token"`
			AdvertiserIDs []string `json:"advertiser_ids"`
		} `json:"data"`
	}
	resp, err := a.rest.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"app_id":    a.appID,
			"secret":    a.secret,
			"auth_code": code,
		}).
		SetResult(&ok).
		Post("/oauth2/access_token/")
	metrics.ObserveProviderCall("tiktok", "exchange_code", err)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	if resp.IsError() || ok.Code != 0 {
		return nil, a.envelopeError(resp.StatusCode(), ok.envelope)
	}
	grant := &domain.TokenGrant{AccessToken: ok.Data.AccessToken}
	if len(ok.Data.AdvertiserIDs) > 0 {
		grant.AdAccountID = ok.Data.AdvertiserIDs[0]
	}
	return grant, nil
}

// RefreshToken is not offered for TikTok advertiser tokens; they are
// long-lived until revoked.
func (a *Adapter) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenGrant, error) {
	return nil, fmt.Errorf("tiktok tokens are long-lived: %w", domain.ErrNotConnected)
}

// ListAdAccounts lists advertiser accounts authorized for the token.
func (a *Adapter) ListAdAccounts(ctx context.Context, accessToken string) ([]domain.AdAccount, error) {
	var ok struct {
		envelope
		Data struct {
			List []struct {
				AdvertiserID   string `json:"advertiser_id"`
				AdvertiserName string `json:"advertiser_name"`
				Currency       string `json:"currency"`
			} `json:"list"`
		} `json:"data"`
	}
	resp, err := a.rest.R().
		SetContext(ctx).
		SetHeader("Access-Token", accessToken).
		SetQueryParams(map[string]string{"app_id": a.appID, "secret": a.secret}).
		SetResult(&ok).
		Get("/oauth2/advertiser/get/")
	metrics.ObserveProviderCall("tiktok", "list_ad_accounts", err)
	if err != nil {
		return nil, fmt.Errorf("failed to list advertisers: %w", err)
	}
	if resp.IsError() || ok.Code != 0 {
		return nil, a.envelopeError(resp.StatusCode(), ok.envelope)
	}
	accounts := make([]domain.AdAccount, 0, len(ok.Data.List))
	for _, d := range ok.Data.List {
		accounts = append(accounts, domain.AdAccount{ID: d.AdvertiserID, Name: d.AdvertiserName, Currency: d.Currency})
	}
	return accounts, nil
}

// ListCampaigns lists campaigns for an advertiser.
func (a *Adapter) ListCampaigns(ctx context.Context, accessToken, adAccountID string) ([]domain.Campaign, error) {
	var ok struct {
		envelope
		Data struct {
			List []struct {
				CampaignID      string `json:"campaign_id"`
				CampaignName    string `json:"campaign_name"`
				OperationStatus string `json:"operation_status"`
				ObjectiveType   string `json:"objective_type"`
			} `json:"list"`
		} `json:"data"`
	}
	resp, err := a.rest.R().
		SetContext(ctx).
		SetHeader("Access-Token", accessToken).
		SetQueryParam("advertiser_id", adAccountID).
		SetResult(&ok).
		Get("/campaign/get/")
	metrics.ObserveProviderCall("tiktok", "list_campaigns", err)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	if resp.IsError() || ok.Code != 0 {
		return nil, a.envelopeError(resp.StatusCode(), ok.envelope)
	}
	campaigns := make([]domain.Campaign, 0, len(ok.Data.List))
	for _, d := range ok.Data.List {
		campaigns = append(campaigns, domain.Campaign{
			ID:        d.CampaignID,
			Name:      d.CampaignName,
			Status:    d.OperationStatus,
			Objective: d.ObjectiveType,
		})
	}
	return campaigns, nil
}

// CreateAdDraft uploads the creative text as a TikTok ad in DISABLE state and
// returns its id; TikTok has no separate creative object for this flow, so
// draft creation and submission share the ad entity.
func (a *Adapter) CreateAdDraft(ctx context.Context, accessToken string, spec ports.AdDraftSpec) (string, error) {
	body := map[string]interface{}{
		"advertiser_id":    spec.AdAccountID,
		"campaign_id":      spec.CampaignID,
		"ad_name":          spec.Title,
		"ad_text":          spec.PrimaryText,
		"landing_page_url": spec.LandingURL,
		// DISABLE is TikTok's paused state; never ENABLE here.
		"operation_status": "DISABLE",
	}
	if len(spec.ImageURLs) > 0 {
		body["image_urls"] = spec.ImageURLs
	}
	var ok struct {
		envelope
		Data struct {
			AdID string `json:"ad_id"`
		} `json:"data"`
	}
	resp, err := a.rest.R().
		SetContext(ctx).
		SetHeader("Access-Token", accessToken).
		SetBody(body).
		SetResult(&ok).
		Post("/ad/create/")
	metrics.ObserveProviderCall("tiktok", "create_ad_draft", err)
	if err != nil {
		return "", fmt.Errorf("failed to create ad: %w", err)
	}
	if resp.IsError() || ok.Code != 0 {
		return "", a.envelopeError(resp.StatusCode(), ok.envelope)
	}
	return ok.Data.AdID, nil
}

// SubmitDraft confirms the drafted ad stays DISABLE (paused) and reports it.
func (a *Adapter) SubmitDraft(ctx context.Context, accessToken string, spec ports.AdDraftSpec, remoteDraftID string) (*ports.SubmitResult, error) {
	var ok struct {
		envelope
	}
	resp, err := a.rest.R().
		SetContext(ctx).
		SetHeader("Access-Token", accessToken).
		SetBody(map[string]interface{}{
			"advertiser_id":    spec.AdAccountID,
			"ad_ids":           []string{remoteDraftID},
			"operation_status": "DISABLE",
		}).
		SetResult(&ok).
		Post("/ad/status/update/")
	metrics.ObserveProviderCall("tiktok", "submit_draft", err)
	if err != nil {
		return nil, fmt.Errorf("failed to submit ad: %w", err)
	}
	if resp.IsError() || ok.Code != 0 {
		return nil, a.envelopeError(resp.StatusCode(), ok.envelope)
	}
	return &ports.SubmitResult{RemoteAdID: remoteDraftID, Status: "PAUSED"}, nil
}

// FetchInsights pulls campaign-level reporting over the given window.
func (a *Adapter) FetchInsights(ctx context.Context, accessToken, adAccountID string, dateRange domain.DateRange) ([]domain.CampaignInsight, error) {
	var ok struct {
		envelope
		Data struct {
			List []struct {
				Dimensions struct {
					CampaignID string `json:"campaign_id"`
				} `json:"dimensions"`
				Metrics struct {
					CampaignName  string  `json:"campaign_name"`
					Spend         float64 `json:"spend,string"`
					Clicks        int64   `json:"clicks,string"`
					Impressions   int64   `json:"impressions,string"`
					Conversions   int64   `json:"conversion,string"`
					PurchaseValue float64 `json:"total_purchase_value,string"`
				} `json:"metrics"`
			} `json:"list"`
		} `json:"data"`
	}
	resp, err := a.rest.R().
		SetContext(ctx).
		SetHeader("Access-Token", accessToken).
		SetQueryParams(map[string]string{
			"advertiser_id": adAccountID,
			"report_type":   "BASIC",
			"data_level":    "AUCTION_CAMPAIGN",
			"dimensions":    `["campaign_id"]`,
			"metrics":       `["campaign_name","spend","clicks","impressions","conversion","total_purchase_value"]`,
			"start_date":    dateRange.Since.Format("2006-01-02"),
			"end_date":      dateRange.Until.Format("2006-01-02"),
		}).
		SetResult(&ok).
		Get("/report/integrated/get/")
	metrics.ObserveProviderCall("tiktok", "fetch_insights", err)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch insights: %w", err)
	}
	if resp.IsError() || ok.Code != 0 {
		return nil, a.envelopeError(resp.StatusCode(), ok.envelope)
	}
	insights := make([]domain.CampaignInsight, 0, len(ok.Data.List))
	for _, d := range ok.Data.List {
		ci := domain.CampaignInsight{
			CampaignID:    d.Dimensions.CampaignID,
			CampaignName:  d.Metrics.CampaignName,
			Spend:         d.Metrics.Spend,
			Clicks:        d.Metrics.Clicks,
			Impressions:   d.Metrics.Impressions,
			Purchases:     d.Metrics.Conversions,
			PurchaseValue: d.Metrics.PurchaseValue,
		}
		ci.Derive()
		insights = append(insights, ci)
	}
	return insights, nil
}
