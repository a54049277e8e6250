package domain

import "time"

// Shop is the tenant. Domain is the primary Shopify domain; LinkedDomain is
// the alias used by standalone (email-identified) accounts that connected a
// Shopify store after signing up outside Shopify. A shop can be addressed by
// either identifier.
type Shop struct {
	ID           string    `json:"id"`
	Domain       string    `json:"domain"`
	LinkedDomain string    `json:"linked_domain,omitempty"`
	Email        string    `json:"email,omitempty"`
	CoachID      string    `json:"coach_id,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Provider identifies an ad platform or Shopify itself.
type Provider string

const (
	ProviderShopify   Provider = "shopify"
	ProviderFacebook  Provider = "facebook"
	ProviderGoogle    Provider = "google"
	ProviderTikTok    Provider = "tiktok"
	ProviderPinterest Provider = "pinterest"
)

// AdPlatforms lists the providers that accept ad submissions.
var AdPlatforms = []Provider{ProviderFacebook, ProviderGoogle, ProviderTikTok, ProviderPinterest}

// Valid reports whether p names a known provider.
func (p Provider) Valid() bool {
	switch p {
	case ProviderShopify, ProviderFacebook, ProviderGoogle, ProviderTikTok, ProviderPinterest:
		return true
	}
	return false
}
