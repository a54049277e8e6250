package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"thunder-text-core/internal/application"
	"thunder-text-core/internal/domain"
	"thunder-text-core/internal/infrastructure/shopify"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handlers bundles the application services behind the REST surface.
type Handlers struct {
	oauth     *application.OAuthService
	platforms *application.PlatformService
	drafts    *application.DraftService
	insights  *application.InsightsService
	products  *application.ProductService
	library   *application.LibraryService
	verifier  *shopify.WebhookVerifier
	logger    zerolog.Logger
}

// NewHandlers wires the handler set.
func NewHandlers(
	oauth *application.OAuthService,
	platforms *application.PlatformService,
	drafts *application.DraftService,
	insights *application.InsightsService,
	products *application.ProductService,
	library *application.LibraryService,
	verifier *shopify.WebhookVerifier,
	logger zerolog.Logger,
) *Handlers {
	return &Handlers{
		oauth:     oauth,
		platforms: platforms,
		drafts:    drafts,
		insights:  insights,
		products:  products,
		library:   library,
		verifier:  verifier,
		logger:    logger,
	}
}

func providerParam(r *http.Request) (domain.Provider, error) {
	p := domain.Provider(chi.URLParam(r, "provider"))
	if !p.Valid() {
		return "", domain.NewValidationError("provider")
	}
	return p, nil
}

// BeginAuth starts the OAuth connect flow and redirects to the provider's
// consent screen.
func (h *Handlers) BeginAuth(w http.ResponseWriter, r *http.Request) {
	provider, err := providerParam(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	shop := shopFrom(r)
	if shop == "" {
		respondError(w, h.logger, domain.NewValidationError("shop"))
		return
	}
	authURL, err := h.oauth.BeginConnect(r.Context(), provider, shop, r.URL.Query().Get("return_url"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// AuthCallback completes the connect flow and bounces back to the frontend.
func (h *Handlers) AuthCallback(w http.ResponseWriter, r *http.Request) {
	provider, err := providerParam(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	result, err := h.oauth.CompleteConnect(r.Context(), provider, r.URL.Query().Get("state"), r.URL.Query().Get("code"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if result.ReturnURL != "" {
		http.Redirect(w, r, result.ReturnURL, http.StatusFound)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"shop":     result.ShopDomain,
		"provider": string(result.Provider),
	})
}

// ListConnections reports connection status per provider for a shop.
func (h *Handlers) ListConnections(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.platforms.ListConnections(r.Context(), shopFrom(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, statuses)
}

// Disconnect revokes the shop's connection for one provider.
func (h *Handlers) Disconnect(w http.ResponseWriter, r *http.Request) {
	provider, err := providerParam(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if err := h.oauth.Disconnect(r.Context(), shopFrom(r), provider); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"provider": string(provider), "status": "disconnected"})
}

// ListAdAccounts lists the ad accounts reachable with the shop's token.
func (h *Handlers) ListAdAccounts(w http.ResponseWriter, r *http.Request) {
	provider, err := providerParam(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	accounts, err := h.platforms.ListAdAccounts(r.Context(), shopFrom(r), provider)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, accounts)
}

// ListCampaigns lists campaigns in an ad account.
func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	provider, err := providerParam(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	campaigns, err := h.platforms.ListCampaigns(r.Context(), shopFrom(r), provider, r.URL.Query().Get("ad_account_id"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, campaigns)
}

// CreateAdDraft stages a new local draft.
func (h *Handlers) CreateAdDraft(w http.ResponseWriter, r *http.Request) {
	provider, err := providerParam(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	var input application.CreateDraftInput
	if err := decodeBody(r, &input); err != nil {
		respondError(w, h.logger, err)
		return
	}
	input.Provider = provider
	if input.ShopDomain == "" {
		input.ShopDomain = shopFrom(r)
	}
	draft, err := h.drafts.CreateDraft(r.Context(), input)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, draft)
}

// ListAdDrafts lists a shop's drafts for one provider.
func (h *Handlers) ListAdDrafts(w http.ResponseWriter, r *http.Request) {
	provider, err := providerParam(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	drafts, err := h.drafts.List(r.Context(), shopFrom(r), provider)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, drafts)
}

// GetAdDraft returns one draft by id.
func (h *Handlers) GetAdDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := h.drafts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, draft)
}

// SubmitAdDraft pushes a draft to the remote platform, paused.
func (h *Handlers) SubmitAdDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := h.drafts.Submit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, draft)
}

// AbandonAdDraft marks a draft abandoned.
func (h *Handlers) AbandonAdDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := h.drafts.Abandon(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, draft)
}

// AggregateInsights returns the cross-shop performance summary.
func (h *Handlers) AggregateInsights(w http.ResponseWriter, r *http.Request) {
	summary, err := h.insights.Aggregate(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// ShopInsights returns the performance snapshot for one shop.
func (h *Handlers) ShopInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := h.insights.ShopInsights(r.Context(), chi.URLParam(r, "shop"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, insights)
}

// CreateProduct creates a Shopify product with its secondary writes.
func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var input application.ProductInput
	if err := decodeBody(r, &input); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if input.ShopDomain == "" {
		input.ShopDomain = shopFrom(r)
	}
	result, err := h.products.CreateProduct(r.Context(), input)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

// UpdateProduct updates a Shopify product with its secondary writes.
func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var input application.ProductInput
	if err := decodeBody(r, &input); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if input.ShopDomain == "" {
		input.ShopDomain = shopFrom(r)
	}
	if raw := chi.URLParam(r, "id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(w, h.logger, &domain.ValidationError{Fields: []string{"product.id"}})
			return
		}
		input.Product.ID = id
	}
	result, err := h.products.UpdateProduct(r.Context(), input)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// SaveLibraryAd stores a new ads-library entry.
func (h *Handlers) SaveLibraryAd(w http.ResponseWriter, r *http.Request) {
	var input application.SavedAdInput
	if err := decodeBody(r, &input); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if input.ShopDomain == "" {
		input.ShopDomain = shopFrom(r)
	}
	ad, err := h.library.SaveAd(r.Context(), input)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, ad)
}

// ListLibraryAds lists a shop's ads-library entries.
func (h *Handlers) ListLibraryAds(w http.ResponseWriter, r *http.Request) {
	ads, err := h.library.ListAds(r.Context(), shopFrom(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, ads)
}

// UpdateLibraryAd updates an ads-library entry owned by the shop.
func (h *Handlers) UpdateLibraryAd(w http.ResponseWriter, r *http.Request) {
	var input application.SavedAdInput
	if err := decodeBody(r, &input); err != nil {
		respondError(w, h.logger, err)
		return
	}
	ad, err := h.library.UpdateAd(r.Context(), shopFrom(r), chi.URLParam(r, "id"), input)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, ad)
}

// DeleteLibraryAd removes an ads-library entry owned by the shop.
func (h *Handlers) DeleteLibraryAd(w http.ResponseWriter, r *http.Request) {
	if err := h.library.DeleteAd(r.Context(), shopFrom(r), chi.URLParam(r, "id")); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// CreateBestPractice stores a new best-practice resource.
func (h *Handlers) CreateBestPractice(w http.ResponseWriter, r *http.Request) {
	var input application.BestPracticeInput
	if err := decodeBody(r, &input); err != nil {
		respondError(w, h.logger, err)
		return
	}
	bp, err := h.library.CreateBestPractice(r.Context(), input)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, bp)
}

// ListBestPractices lists every best-practice resource.
func (h *Handlers) ListBestPractices(w http.ResponseWriter, r *http.Request) {
	items, err := h.library.ListBestPractices(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// DeleteBestPractice removes a best-practice resource.
func (h *Handlers) DeleteBestPractice(w http.ResponseWriter, r *http.Request) {
	if err := h.library.DeleteBestPractice(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ShopifyWebhook verifies the HMAC signature and dispatches the topic.
// Unknown topics are acknowledged so Shopify does not retry them.
func (h *Handlers) ShopifyWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if err := h.verifier.Verify(payload, r.Header.Get("X-Shopify-Hmac-SHA256")); err != nil {
		h.logger.Warn().Err(err).Msg("Rejected webhook with bad signature")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	topic := r.Header.Get("X-Shopify-Topic")
	shopDomain := r.Header.Get("X-Shopify-Shop-Domain")
	h.logger.Info().Str("topic", topic).Str("shop", shopDomain).Msg("Received Shopify webhook")

	switch topic {
	case "app/uninstalled":
		if shopDomain == "" {
			var body struct {
				Domain string `json:"myshopify_domain"`
			}
			if err := json.Unmarshal(payload, &body); err == nil {
				shopDomain = body.Domain
			}
		}
		if err := h.oauth.HandleUninstall(r.Context(), shopDomain); err != nil {
			respondError(w, h.logger, err)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}
