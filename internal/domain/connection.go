package domain

import "time"

// Connection is one (shop, provider) integration. Token material is stored
// encrypted and only the token service may decrypt it. At most one active
// connection exists per (shop, provider).
type Connection struct {
	ID                    string     `json:"id"`
	ShopID                string     `json:"shop_id"`
	Provider              Provider   `json:"provider"`
	EncryptedAccessToken  string     `json:"-"`
	EncryptedRefreshToken string     `json:"-"`
	ExpiresAt             *time.Time `json:"expires_at,omitempty"`
	Scope                 string     `json:"scope,omitempty"`
	AdAccountID           string     `json:"ad_account_id,omitempty"`
	AdAccountName         string     `json:"ad_account_name,omitempty"`
	Active                bool       `json:"active"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// Expired reports whether the stored access token has passed its expiry.
// Connections without an expiry (Shopify offline tokens) never expire.
func (c *Connection) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// Token is a decrypted, ready-to-use access token handed out by the token
// service. It never leaves the application layer.
type Token struct {
	AccessToken   string
	ExpiresAt     *time.Time
	Scope         string
	AdAccountID   string
	AdAccountName string
}

// TokenGrant is the result of an OAuth code or refresh exchange, in cleartext,
// before it is encrypted for storage.
type TokenGrant struct {
	AccessToken   string
	RefreshToken  string
	ExpiresIn     int64
	Scope         string
	AdAccountID   string
	AdAccountName string
}

// ExpiresAtFrom converts ExpiresIn to an absolute time, or nil for
// non-expiring tokens.
func (g *TokenGrant) ExpiresAtFrom(now time.Time) *time.Time {
	if g.ExpiresIn <= 0 {
		return nil
	}
	t := now.Add(time.Duration(g.ExpiresIn) * time.Second)
	return &t
}
