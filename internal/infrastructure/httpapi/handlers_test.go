package httpapi

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"thunder-text-core/internal/infrastructure/shopify"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func signPayload(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestShopifyWebhookRejectsBadSignature(t *testing.T) {
	h := &Handlers{
		verifier: shopify.NewWebhookVerifier("webhook-secret"),
		logger:   zerolog.Nop(),
	}

	payload := []byte(`{"myshopify_domain":"alpha.myshopify.com"}`)
	r := httptest.NewRequest(http.MethodPost, "/webhooks/shopify", bytes.NewReader(payload))
	r.Header.Set("X-Shopify-Hmac-SHA256", "forged")
	r.Header.Set("X-Shopify-Topic", "app/uninstalled")
	rec := httptest.NewRecorder()

	h.ShopifyWebhook(rec, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestShopifyWebhookAcknowledgesUnknownTopics(t *testing.T) {
	h := &Handlers{
		verifier: shopify.NewWebhookVerifier("webhook-secret"),
		logger:   zerolog.Nop(),
	}

	payload := []byte(`{"id":1}`)
	r := httptest.NewRequest(http.MethodPost, "/webhooks/shopify", bytes.NewReader(payload))
	r.Header.Set("X-Shopify-Hmac-SHA256", signPayload("webhook-secret", payload))
	r.Header.Set("X-Shopify-Topic", "orders/create")
	rec := httptest.NewRecorder()

	h.ShopifyWebhook(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code, "unknown topics are acknowledged so Shopify stops retrying")
}

func TestProviderParamRejectsUnknownProvider(t *testing.T) {
	h := &Handlers{logger: zerolog.Nop()}
	router := NewRouter(h)

	r := httptest.NewRequest(http.MethodGet, "/api/snapchat/ad-accounts", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "provider")
}

func TestNewHandlersWiresRouter(t *testing.T) {
	h := NewHandlers(nil, nil, nil, nil, nil, nil, shopify.NewWebhookVerifier("webhook-secret"), zerolog.Nop())
	router := NewRouter(h)

	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	router := NewRouter(&Handlers{logger: zerolog.Nop()})

	r := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
