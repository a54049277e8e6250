// Package google adapts the generic ad-platform contract onto the Google Ads
// REST surface (searchStream + mutate).
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"thunder-text-core/internal/domain"
	"thunder-text-core/internal/infrastructure/metrics"
	"thunder-text-core/internal/ports"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const (
	apiBaseURL   = "https://googleads.googleapis.com/v17"
	oauthDialog  = "https://accounts.google.com/o/oauth2/v2/auth"
	oauthToken   = "https://oauth2.googleapis.com/token"
	adwordsScope = "https://www.googleapis.com/auth/adwords"
	httpTimeout  = 20 * time.Second
)

// Adapter implements ports.AdPlatform for Google Ads.
type Adapter struct {
	clientID       string
	clientSecret   string
	developerToken string
	rest           *resty.Client
	oauthRest      *resty.Client
	logger         zerolog.Logger
}

// New creates a Google Ads adapter. baseURL/tokenURL override endpoints in
// tests.
func New(clientID, clientSecret, developerToken, baseURL, tokenURL string, logger zerolog.Logger) *Adapter {
	if baseURL == "" {
		baseURL = apiBaseURL
	}
	if tokenURL == "" {
		tokenURL = oauthToken
	}
	return &Adapter{
		clientID:       clientID,
		clientSecret:   clientSecret,
		developerToken: developerToken,
		rest:           resty.New().SetBaseURL(baseURL).SetTimeout(httpTimeout),
		oauthRest:      resty.New().SetBaseURL(tokenURL).SetTimeout(httpTimeout),
		logger:         logger,
	}
}

var _ ports.AdPlatform = (*Adapter)(nil)

// Name returns the provider identifier.
func (a *Adapter) Name() domain.Provider { return domain.ProviderGoogle }

// apiError is the google.rpc.Status error envelope.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (a *Adapter) providerError(status int, raw []byte) error {
	var ae apiError
	_ = json.Unmarshal(raw, &ae)
	msg := ae.Error.Message
	if msg == "" {
		msg = string(raw)
	}
	return &domain.ProviderError{
		Provider: string(domain.ProviderGoogle),
		Status:   status,
		Code:     ae.Error.Status,
		Message:  msg,
		Auth:     status == 401 || ae.Error.Status == "UNAUTHENTICATED",
	}
}

// AuthURL builds the consent URL requesting offline access so a refresh token
// is issued.
func (a *Adapter) AuthURL(state, redirectURI string) (string, error) {
	if a.clientID == "" {
		return "", fmt.Errorf("google client id: %w", domain.ErrNotConfigured)
	}
	q := url.Values{}
	q.Set("client_id", a.clientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("response_type", "code")
	q.Set("scope", adwordsScope)
	q.Set("access_type", "offline")
	q.Set("prompt", "consent")
	q.Set("state", state)
	return oauthDialog + "?" + q.Encode(), nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
}

func (a *Adapter) tokenGrant(ctx context.Context, form map[string]string, operation string) (*domain.TokenGrant, error) {
	var ok tokenResponse
	resp, err := a.oauthRest.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(&ok).
		Post("")
	metrics.ObserveProviderCall("google", operation, err)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", strings.ReplaceAll(operation, "_", " "), err)
	}
	if resp.IsError() {
		return nil, a.providerError(resp.StatusCode(), resp.Body())
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
		"grant_type":    "authorization_code",
		"client_id":     a.clientID,
		"client_secret": a.clientSecret,
		"code":          code,
		"redirect_uri":  redirectURI,
	}, "exchange_code")
}

// RefreshToken exchanges the refresh token for a fresh access token. Google
// keeps the refresh token stable across refreshes.
func (a *Adapter) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenGrant, error) {
	grant, err := a.tokenGrant(ctx, map[string]string{
		"grant_type":    "refresh_token",
		"client_id":     a.clientID,
		"client_secret": a.clientSecret,
		"refresh_token": refreshToken,
	}, "refresh_token")
	if err != nil {
		return nil, err
	}
	if grant.RefreshToken == "" {
		grant.RefreshToken = refreshToken
	}
	return grant, nil
}

func (a *Adapter) request(accessToken string) *resty.Request {
	return a.rest.R().
		SetAuthToken(accessToken).
		SetHeader("developer-token", a.developerToken)
}

// ListAdAccounts lists customer accounts accessible to the token.
func (a *Adapter) ListAdAccounts(ctx context.Context, accessToken string) ([]domain.AdAccount, error) {
	var ok struct {
		ResourceNames []string `json:"resourceNames"`
	}
	resp, err := a.request(accessToken).
		SetContext(ctx).
		SetResult(&ok).
		Get("/customers:listAccessibleCustomers")
	metrics.ObserveProviderCall("google", "list_ad_accounts", err)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	if resp.IsError() {
		return nil, a.providerError(resp.StatusCode(), resp.Body())
	}
	accounts := make([]domain.AdAccount, 0, len(ok.ResourceNames))
	for _, rn := range ok.ResourceNames {
		id := strings.TrimPrefix(rn, "customers/")
		accounts = append(accounts, domain.AdAccount{ID: id, Name: id})
	}
	return accounts, nil
}

// searchRow is one GAQL searchStream result row.
type searchRow struct {
	Campaign struct {
		ID     int64  `json:"id,string"`
		Name   string `json:"name"`
		Status string `json:"status"`
	} `json:"campaign"`
	Metrics struct {
		CostMicros      int64   `json:"costMicros,string"`
		Clicks          int64   `json:"clicks,string"`
		Impressions     int64   `json:"impressions,string"`
		Conversions     float64 `json:"conversions"`
		ConversionValue float64 `json:"conversionsValue"`
	} `json:"metrics"`
}

func (a *Adapter) search(ctx context.Context, accessToken, customerID, query, operation string) ([]searchRow, error) {
	var ok []struct {
		Results []searchRow `json:"results"`
	}
	resp, err := a.request(accessToken).
		SetContext(ctx).
		SetBody(map[string]string{"query": query}).
		SetResult(&ok).
		Post("/customers/" + customerID + "/googleAds:searchStream")
	metrics.ObserveProviderCall("google", operation, err)
	if err != nil {
		return nil, fmt.Errorf("failed to run %s query: %w", strings.ReplaceAll(operation, "_", " "), err)
	}
	if resp.IsError() {
		return nil, a.providerError(resp.StatusCode(), resp.Body())
	}
	var rows []searchRow
	for _, chunk := range ok {
		rows = append(rows, chunk.Results...)
	}
	return rows, nil
}

// ListCampaigns lists non-removed campaigns for the customer.
func (a *Adapter) ListCampaigns(ctx context.Context, accessToken, adAccountID string) ([]domain.Campaign, error) {
	rows, err := a.search(ctx, accessToken, adAccountID,
		"SELECT campaign.id, campaign.name, campaign.status FROM campaign WHERE campaign.status != 'REMOVED'",
		"list_campaigns")
	if err != nil {
		return nil, err
	}
	campaigns := make([]domain.Campaign, 0, len(rows))
	for _, r := range rows {
		campaigns = append(campaigns, domain.Campaign{
			ID:     strconv.FormatInt(r.Campaign.ID, 10),
			Name:   r.Campaign.Name,
			Status: r.Campaign.Status,
		})
	}
	return campaigns, nil
}

// CreateAdDraft creates a responsive search ad in PAUSED status under the
// configured ad group and returns its resource name.
func (a *Adapter) CreateAdDraft(ctx context.Context, accessToken string, spec ports.AdDraftSpec) (string, error) {
	adGroup := spec.Metadata["ad_group"]
	if adGroup == "" {
		return "", domain.NewValidationError("metadata.ad_group")
	}
	operation := map[string]interface{}{
		"operations": []map[string]interface{}{{
			"create": map[string]interface{}{
				"adGroup": adGroup,
				// PAUSED at creation; activation is out of scope.
				"status": "PAUSED",
				"ad": map[string]interface{}{
					"finalUrls": []string{spec.LandingURL},
					"responsiveSearchAd": map[string]interface{}{
						"headlines":    []map[string]string{{"text": spec.Title}},
						"descriptions": []map[string]string{{"text": spec.Description}},
					},
				},
			},
		}},
	}
	var ok struct {
		Results []struct {
			ResourceName string `json:"resourceName"`
		} `json:"results"`
	}
	resp, err := a.request(accessToken).
		SetContext(ctx).
		SetBody(operation).
		SetResult(&ok).
		Post("/customers/" + spec.AdAccountID + "/adGroupAds:mutate")
	metrics.ObserveProviderCall("google", "create_ad_draft", err)
	if err != nil {
		return "", fmt.Errorf("failed to create ad: %w", err)
	}
	if resp.IsError() {
		return "", a.providerError(resp.StatusCode(), resp.Body())
	}
	if len(ok.Results) == 0 {
		return "", fmt.Errorf("mutate returned no results")
	}
	return ok.Results[0].ResourceName, nil
}

// SubmitDraft confirms the drafted ad; creation already left it PAUSED, so
// submission verifies the resource exists and reports it.
func (a *Adapter) SubmitDraft(ctx context.Context, accessToken string, spec ports.AdDraftSpec, remoteDraftID string) (*ports.SubmitResult, error) {
	rows, err := a.search(ctx, accessToken, spec.AdAccountID,
		fmt.Sprintf("SELECT ad_group_ad.ad.id, ad_group_ad.status FROM ad_group_ad WHERE ad_group_ad.resource_name = '%s'", remoteDraftID),
		"submit_draft")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ProviderError{
			Provider: string(domain.ProviderGoogle),
			Status:   404,
			Message:  "drafted ad not found: " + remoteDraftID,
		}
	}
	return &ports.SubmitResult{RemoteAdID: remoteDraftID, Status: "PAUSED"}, nil
}

// FetchInsights pulls campaign metrics over the given window.
func (a *Adapter) FetchInsights(ctx context.Context, accessToken, adAccountID string, dateRange domain.DateRange) ([]domain.CampaignInsight, error) {
	query := fmt.Sprintf(
		"SELECT campaign.id, campaign.name, metrics.cost_micros, metrics.clicks, metrics.impressions, metrics.conversions, metrics.conversions_value FROM campaign WHERE segments.date BETWEEN '%s' AND '%s'",
		dateRange.Since.Format("2006-01-02"),
		dateRange.Until.Format("2006-01-02"),
	)
	rows, err := a.search(ctx, accessToken, adAccountID, query, "fetch_insights")
	if err != nil {
		return nil, err
	}
	insights := make([]domain.CampaignInsight, 0, len(rows))
	for _, r := range rows {
		ci := domain.CampaignInsight{
			CampaignID:    strconv.FormatInt(r.Campaign.ID, 10),
			CampaignName:  r.Campaign.Name,
			Status:        r.Campaign.Status,
			Spend:         float64(r.Metrics.CostMicros) / 1e6,
			Clicks:        r.Metrics.Clicks,
			Impressions:   r.Metrics.Impressions,
			Purchases:     int64(r.Metrics.Conversions),
			PurchaseValue: r.Metrics.ConversionValue,
		}
		ci.Derive()
		insights = append(insights, ci)
	}
	return insights, nil
}
