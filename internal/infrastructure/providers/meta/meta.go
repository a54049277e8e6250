// Package meta adapts the generic ad-platform contract onto the Meta
// Marketing API (Graph API v21.0).
package meta

import (
	"context"
	"encoding/json"
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
	graphBaseURL = "https://graph.facebook.com/v21.0"
	oauthDialog  = "https://www.facebook.com/v21.0/dialog/oauth"
	scopes       = "ads_management,ads_read,business_management"
	httpTimeout  = 20 * time.Second
)

// Adapter implements ports.AdPlatform for Meta/Facebook.
type Adapter struct {
	appID     string
	appSecret string
	rest      *resty.Client
	logger    zerolog.Logger
}

// New creates a Meta adapter. baseURL overrides the Graph endpoint in tests;
// pass "" for production.
func New(appID, appSecret, baseURL string, logger zerolog.Logger) *Adapter {
	if baseURL == "" {
		baseURL = graphBaseURL
	}
	rest := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(httpTimeout)
	return &Adapter{appID: appID, appSecret: appSecret, rest: rest, logger: logger}
}

var _ ports.AdPlatform = (*Adapter)(nil)

// Name returns the provider identifier.
func (a *Adapter) Name() domain.Provider { return domain.ProviderFacebook }

// graphError is Meta's error envelope.
type graphError struct {
	Error struct {
		Message   string `json:"message"`
		Type      string `json:"type"`
		Code      int    `json:"code"`
		Subcode   int    `json:"error_subcode"`
		FBTraceID string `json:"fbtrace_id"`
	} `json:"error"`
}

func (a *Adapter) providerError(status int, body []byte) error {
	var ge graphError
	_ = json.Unmarshal(body, &ge)
	msg := ge.Error.Message
	if msg == "" {
		msg = string(body)
	}
	// Code 190 is Meta's invalid/expired token family.
	return &domain.ProviderError{
		Provider: string(domain.ProviderFacebook),
		Status:   status,
		Code:     fmt.Sprintf("%d", ge.Error.Code),
		Message:  msg,
		Auth:     ge.Error.Code == 190 || ge.Error.Type == "OAuthException" || status == 401,
	}
}

// AuthURL builds the OAuth dialog URL.
func (a *Adapter) AuthURL(state, redirectURI string) (string, error) {
	if a.appID == "" {
		return "", fmt.Errorf("facebook app id: %w", domain.ErrNotConfigured)
	}
	q := url.Values{}
	q.Set("client_id", a.appID)
	q.Set("redirect_uri", redirectURI)
	q.Set("state", state)
	q.Set("scope", scopes)
	return oauthDialog + "?" + q.Encode(), nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// ExchangeCode exchanges the callback code for a user access token.
func (a *Adapter) ExchangeCode(ctx context.Context, code, redirectURI string) (*domain.TokenGrant, error) {
	var ok tokenResponse
	resp, err := a.rest.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"client_id":     a.appID,
			"client_secret": a.appSecret,
			"redirect_uri":  redirectURI,
			"code":          code,
		}).
		SetResult(&ok).
		Get("/oauth/access_token")
	metrics.ObserveProviderCall("facebook", "exchange_code", err)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	if resp.IsError() {
		return nil, a.providerError(resp.StatusCode(), resp.Body())
	}
	return &domain.TokenGrant{AccessToken: ok.AccessToken, ExpiresIn: ok.ExpiresIn}, nil
}

// RefreshToken trades a token for a long-lived one (fb_exchange_token grant).
// Meta has no classic refresh token; the current access token is the input.
func (a *Adapter) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenGrant, error) {
	var ok tokenResponse
	resp, err := a.rest.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"grant_type":        "fb_exchange_token",
			"client_id":         a.appID,
			"client_secret":     a.appSecret,
			"fb_exchange_token": refreshToken,
		}).
		SetResult(&ok).
		Get("/oauth/access_token")
	metrics.ObserveProviderCall("facebook", "refresh_token", err)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	if resp.IsError() {
		return nil, a.providerError(resp.StatusCode(), resp.Body())
	}
	// Long-lived tokens also serve as the next refresh input.
	return &domain.TokenGrant{AccessToken: ok.AccessToken, RefreshToken: ok.AccessToken, ExpiresIn: ok.ExpiresIn}, nil
}

// ListAdAccounts lists the ad accounts visible to the token.
func (a *Adapter) ListAdAccounts(ctx context.Context, accessToken string) ([]domain.AdAccount, error) {
	var ok struct {
		Data []struct {
			ID        string `json:"id"`
			AccountID string `json:"account_id"`
			Name      string `json:"name"`
			Currency  string `json:"currency"`
		} `json:"data"`
	}
	resp, err := a.rest.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"fields":       "id,account_id,name,currency",
			"access_token": accessToken,
		}).
		SetResult(&ok).
		Get("/me/adaccounts")
	metrics.ObserveProviderCall("facebook", "list_ad_accounts", err)
	if err != nil {
		return nil, fmt.Errorf("failed to list ad accounts: %w", err)
	}
	if resp.IsError() {
		return nil, a.providerError(resp.StatusCode(), resp.Body())
	}
	accounts := make([]domain.AdAccount, 0, len(ok.Data))
	for _, d := range ok.Data {
		accounts = append(accounts, domain.AdAccount{ID: d.ID, Name: d.Name, Currency: d.Currency})
	}
	return accounts, nil
}

// ListCampaigns lists campaigns filtered to active and paused states.
func (a *Adapter) ListCampaigns(ctx context.Context, accessToken, adAccountID string) ([]domain.Campaign, error) {
	filtering := `[{"field":"effective_status","operator":"IN","value":["ACTIVE","PAUSED"]}]`
	var ok struct {
		Data []struct {
			ID        string `json:"id"`
			Name      string `json:"name"`
			Status    string `json:"effective_status"`
			Objective string `json:"objective"`
		} `json:"data"`
	}
	resp, err := a.rest.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"fields":       "id,name,effective_status,objective",
			"filtering":    filtering,
			"access_token": accessToken,
		}).
		SetResult(&ok).
		Get("/" + actPath(adAccountID) + "/campaigns")
	metrics.ObserveProviderCall("facebook", "list_campaigns", err)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	if resp.IsError() {
		return nil, a.providerError(resp.StatusCode(), resp.Body())
	}
	campaigns := make([]domain.Campaign, 0, len(ok.Data))
	for _, d := range ok.Data {
		campaigns = append(campaigns, domain.Campaign{ID: d.ID, Name: d.Name, Status: d.Status, Objective: d.Objective})
	}
	return campaigns, nil
}

// CreateAdDraft creates the ad creative; the returned id is the remote draft.
func (a *Adapter) CreateAdDraft(ctx context.Context, accessToken string, spec ports.AdDraftSpec) (string, error) {
	linkData := map[string]interface{}{
		"message":     spec.PrimaryText,
		"name":        spec.Title,
		"description": spec.Description,
		"link":        spec.LandingURL,
	}
	if len(spec.ImageURLs) > 0 {
		linkData["picture"] = spec.ImageURLs[0]
	}
	storySpec := map[string]interface{}{"link_data": linkData}
	if pageID := spec.Metadata["page_id"]; pageID != "" {
		storySpec["page_id"] = pageID
	}
	rawStory, err := json.Marshal(storySpec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal story spec: %w", err)
	}

	var ok struct {
		ID string `json:"id"`
	}
	resp, err := a.rest.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"name":              spec.Title,
			"object_story_spec": string(rawStory),
			"access_token":      accessToken,
		}).
		SetResult(&ok).
		Post("/" + actPath(spec.AdAccountID) + "/adcreatives")
	metrics.ObserveProviderCall("facebook", "create_ad_draft", err)
	if err != nil {
		return "", fmt.Errorf("failed to create ad creative: %w", err)
	}
	if resp.IsError() {
		return "", a.providerError(resp.StatusCode(), resp.Body())
	}
	return ok.ID, nil
}

// SubmitDraft creates the ad referencing the draft creative. Ads are always
// created PAUSED; activation is a separate user action outside this system.
func (a *Adapter) SubmitDraft(ctx context.Context, accessToken string, spec ports.AdDraftSpec, remoteDraftID string) (*ports.SubmitResult, error) {
	creative, err := json.Marshal(map[string]string{"creative_id": remoteDraftID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal creative ref: %w", err)
	}
	form := map[string]string{
		"name":         spec.Title,
		"creative":     string(creative),
		"status":       "PAUSED",
		"access_token": accessToken,
	}
	if adsetID := spec.Metadata["adset_id"]; adsetID != "" {
		form["adset_id"] = adsetID
	} else if spec.CampaignID != "" {
		form["campaign_id"] = spec.CampaignID
	}

	var ok struct {
		ID string `json:"id"`
	}
	resp, err := a.rest.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(&ok).
		Post("/" + actPath(spec.AdAccountID) + "/ads")
	metrics.ObserveProviderCall("facebook", "submit_draft", err)
	if err != nil {
		return nil, fmt.Errorf("failed to submit ad: %w", err)
	}
	if resp.IsError() {
		return nil, a.providerError(resp.StatusCode(), resp.Body())
	}
	return &ports.SubmitResult{RemoteAdID: ok.ID, Status: "PAUSED"}, nil
}

// insightAction is one entry of Meta's actions / action_values arrays.
type insightAction struct {
	ActionType string `json:"action_type"`
	Value      string `json:"value"`
}

// FetchInsights pulls campaign-level insights over the given window.
func (a *Adapter) FetchInsights(ctx context.Context, accessToken, adAccountID string, dateRange domain.DateRange) ([]domain.CampaignInsight, error) {
	timeRange, err := json.Marshal(map[string]string{
		"since": dateRange.Since.Format("2006-01-02"),
		"until": dateRange.Until.Format("2006-01-02"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal time range: %w", err)
	}

	var ok struct {
		Data []struct {
			CampaignID   string          `json:"campaign_id"`
			CampaignName string          `json:"campaign_name"`
			Spend        string          `json:"spend"`
			Clicks       string          `json:"clicks"`
			Impressions  string          `json:"impressions"`
			Actions      []insightAction `json:"actions"`
			ActionValues []insightAction `json:"action_values"`
		} `json:"data"`
	}
	resp, err := a.rest.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"level":        "campaign",
			"fields":       "campaign_id,campaign_name,spend,clicks,impressions,actions,action_values",
			"time_range":   string(timeRange),
			"access_token": accessToken,
		}).
		SetResult(&ok).
		Get("/" + actPath(adAccountID) + "/insights")
	metrics.ObserveProviderCall("facebook", "fetch_insights", err)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch insights: %w", err)
	}
	if resp.IsError() {
		return nil, a.providerError(resp.StatusCode(), resp.Body())
	}

	insights := make([]domain.CampaignInsight, 0, len(ok.Data))
	for _, d := range ok.Data {
		ci := domain.CampaignInsight{
			CampaignID:    d.CampaignID,
			CampaignName:  d.CampaignName,
			Spend:         parseFloat(d.Spend),
			Clicks:        parseInt(d.Clicks),
			Impressions:   parseInt(d.Impressions),
			Purchases:     sumActions(d.Actions),
			PurchaseValue: sumActionValues(d.ActionValues),
		}
		ci.Derive()
		insights = append(insights, ci)
	}
	return insights, nil
}

// purchaseActionTypes are the action types counted as purchases. Meta reports
// both pixel and omni variants depending on attribution setup.
var purchaseActionTypes = map[string]bool{
	"purchase":                             true,
	"omni_purchase":                        true,
	"offsite_conversion.fb_pixel_purchase": true,
}

func sumActions(actions []insightAction) int64 {
	var total int64
	for _, a := range actions {
		if purchaseActionTypes[a.ActionType] {
			total += parseInt(a.Value)
		}
	}
	return total
}

func sumActionValues(values []insightAction) float64 {
	var total float64
	for _, v := range values {
		if purchaseActionTypes[v.ActionType] {
			total += parseFloat(v.Value)
		}
	}
	return total
}
