package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// WebhookVerifier checks Shopify webhook HMAC signatures.
type WebhookVerifier struct {
	secret string
}

// NewWebhookVerifier creates a verifier for the given shared secret.
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

// Verify validates the X-Shopify-Hmac-SHA256 header against the raw payload.
func (v *WebhookVerifier) Verify(payload []byte, hmacHeader string) error {
	if v.secret == "" {
		return fmt.Errorf("webhook secret not configured")
	}
	if hmacHeader == "" {
		return fmt.Errorf("missing hmac header")
	}
	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write(payload)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(hmacHeader)) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}
