package ports

import (
	"context"

	"thunder-text-core/internal/domain"
)

// ProductSpec is the generic product payload for Shopify mutations.
type ProductSpec struct {
	ID          int64
	Title       string
	BodyHTML    string
	Vendor      string
	ProductType string
	Tags        string
}

// MetafieldSpec is one metafield write attached to a product.
type MetafieldSpec struct {
	Namespace string
	Key       string
	Type      string
	Value     string
}

// VariantSpec is one variant update attached to a product.
type VariantSpec struct {
	ID    int64
	Price string
	SKU   string
}

// ShopifyClient wraps the Shopify Admin API for the operations this system
// performs: token exchange and product mutations with their side-effect
// writes.
type ShopifyClient interface {
	// ExchangeCode performs the install-time code-for-token exchange.
	ExchangeCode(ctx context.Context, shopDomain, code string) (*domain.TokenGrant, error)
	// ExchangeSessionToken performs the embedded-app session-token to
	// offline-token exchange.
	ExchangeSessionToken(ctx context.Context, shopDomain, sessionToken string) (*domain.TokenGrant, error)

	GetShop(ctx context.Context, shopDomain, accessToken string) (string, error)

	CreateProduct(ctx context.Context, shopDomain, accessToken string, spec ProductSpec) (productID int64, err error)
	UpdateProduct(ctx context.Context, shopDomain, accessToken string, spec ProductSpec) error
	SetMetafield(ctx context.Context, shopDomain, accessToken string, productID int64, mf MetafieldSpec) error
	UpdateVariant(ctx context.Context, shopDomain, accessToken string, v VariantSpec) error
	AttachImage(ctx context.Context, shopDomain, accessToken string, productID int64, imageURL string) error
}

// EncryptionService encrypts token material before storage and decrypts it
// inside the token service boundary only.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// OAuthSession is a short-lived CSRF state record for an in-flight connect
// flow.
type OAuthSession struct {
	State      string          `json:"state"`
	Provider   domain.Provider `json:"provider"`
	ShopDomain string          `json:"shop_domain"`
	ReturnURL  string          `json:"return_url,omitempty"`
}

// SessionStore keeps OAuth sessions with a TTL; Get returns (nil, nil) when
// the state is unknown or expired.
type SessionStore interface {
	Create(ctx context.Context, session *OAuthSession) error
	Get(ctx context.Context, state string) (*OAuthSession, error)
	Delete(ctx context.Context, state string) error
}
