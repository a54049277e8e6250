package entity

import (
	"strings"
	"time"

	"thunder-text-core/internal/domain"
)

// ShopRow maps shops to Postgres.
type ShopRow struct {
	ID           string    `gorm:"primaryKey;type:uuid"`
	Domain       string    `gorm:"uniqueIndex;not null"`
	LinkedDomain *string   `gorm:"index"`
	Email        string
	CoachID      *string
	Active       bool `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (ShopRow) TableName() string { return "shops" }

func (r *ShopRow) ToDomain() *domain.Shop {
	shop := &domain.Shop{
		ID:        r.ID,
		Domain:    r.Domain,
		Email:     r.Email,
		Active:    r.Active,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.LinkedDomain != nil {
		shop.LinkedDomain = *r.LinkedDomain
	}
	if r.CoachID != nil {
		shop.CoachID = *r.CoachID
	}
	return shop
}

func ShopRowFromDomain(s *domain.Shop) *ShopRow {
	row := &ShopRow{
		ID:        s.ID,
		Domain:    s.Domain,
		Email:     s.Email,
		Active:    s.Active,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if s.LinkedDomain != "" {
		row.LinkedDomain = &s.LinkedDomain
	}
	if s.CoachID != "" {
		row.CoachID = &s.CoachID
	}
	return row
}

// ConnectionRow maps provider connections to Postgres. Token columns hold
// ciphertext only.
type ConnectionRow struct {
	ID                    string `gorm:"primaryKey;type:uuid"`
	ShopID                string `gorm:"index:idx_conn_shop_provider;not null;type:uuid"`
	Provider              string `gorm:"index:idx_conn_shop_provider;not null"`
	EncryptedAccessToken  string `gorm:"not null"`
	EncryptedRefreshToken string
	ExpiresAt             *time.Time
	Scope                 string
	AdAccountID           string
	AdAccountName         string
	Active                bool `gorm:"not null;default:true"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (ConnectionRow) TableName() string { return "connections" }

func (r *ConnectionRow) ToDomain() *domain.Connection {
	return &domain.Connection{
		ID:                    r.ID,
		ShopID:                r.ShopID,
		Provider:              domain.Provider(r.Provider),
		EncryptedAccessToken:  r.EncryptedAccessToken,
		EncryptedRefreshToken: r.EncryptedRefreshToken,
		ExpiresAt:             r.ExpiresAt,
		Scope:                 r.Scope,
		AdAccountID:           r.AdAccountID,
		AdAccountName:         r.AdAccountName,
		Active:                r.Active,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}
}

func ConnectionRowFromDomain(c *domain.Connection) *ConnectionRow {
	return &ConnectionRow{
		ID:                    c.ID,
		ShopID:                c.ShopID,
		Provider:              string(c.Provider),
		EncryptedAccessToken:  c.EncryptedAccessToken,
		EncryptedRefreshToken: c.EncryptedRefreshToken,
		ExpiresAt:             c.ExpiresAt,
		Scope:                 c.Scope,
		AdAccountID:           c.AdAccountID,
		AdAccountName:         c.AdAccountName,
		Active:                c.Active,
		CreatedAt:             c.CreatedAt,
		UpdatedAt:             c.UpdatedAt,
	}
}

// AdDraftRow maps ad drafts to Postgres. Image URLs and metadata are kept in
// text columns to stay portable across Supabase plans.
type AdDraftRow struct {
	ID            string `gorm:"primaryKey;type:uuid"`
	ShopID        string `gorm:"index;not null;type:uuid"`
	Provider      string `gorm:"not null"`
	ProductID     string
	Title         string `gorm:"not null"`
	PrimaryText   string
	Description   string
	ImageURLs     string `gorm:"column:image_urls"`
	AdAccountID   string `gorm:"not null"`
	CampaignID    string
	Metadata      string `gorm:"type:jsonb"`
	Status        string `gorm:"not null;default:draft"`
	RemoteDraftID string
	RemoteAdID    string
	SubmitError   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (AdDraftRow) TableName() string { return "ad_drafts" }

func (r *AdDraftRow) ToDomain() *domain.AdDraft {
	return &domain.AdDraft{
		ID:            r.ID,
		ShopID:        r.ShopID,
		Provider:      domain.Provider(r.Provider),
		ProductID:     r.ProductID,
		Title:         r.Title,
		PrimaryText:   r.PrimaryText,
		Description:   r.Description,
		ImageURLs:     splitList(r.ImageURLs),
		AdAccountID:   r.AdAccountID,
		CampaignID:    r.CampaignID,
		Metadata:      decodeMetadata(r.Metadata),
		Status:        domain.DraftStatus(r.Status),
		RemoteDraftID: r.RemoteDraftID,
		RemoteAdID:    r.RemoteAdID,
		SubmitError:   r.SubmitError,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func AdDraftRowFromDomain(d *domain.AdDraft) *AdDraftRow {
	return &AdDraftRow{
		ID:            d.ID,
		ShopID:        d.ShopID,
		Provider:      string(d.Provider),
		ProductID:     d.ProductID,
		Title:         d.Title,
		PrimaryText:   d.PrimaryText,
		Description:   d.Description,
		ImageURLs:     joinList(d.ImageURLs),
		AdAccountID:   d.AdAccountID,
		CampaignID:    d.CampaignID,
		Metadata:      encodeMetadata(d.Metadata),
		Status:        string(d.Status),
		RemoteDraftID: d.RemoteDraftID,
		RemoteAdID:    d.RemoteAdID,
		SubmitError:   d.SubmitError,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// SavedAdRow maps library ads to Postgres.
type SavedAdRow struct {
	ID        string `gorm:"primaryKey;type:uuid"`
	ShopID    string `gorm:"index;not null;type:uuid"`
	Title     string `gorm:"not null"`
	Content   string
	ImageURL  string
	Status    string `gorm:"not null;default:active"`
	Tags      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (SavedAdRow) TableName() string { return "saved_ads" }

func (r *SavedAdRow) ToDomain() *domain.SavedAd {
	return &domain.SavedAd{
		ID:        r.ID,
		ShopID:    r.ShopID,
		Title:     r.Title,
		Content:   r.Content,
		ImageURL:  r.ImageURL,
		Status:    r.Status,
		Tags:      splitList(r.Tags),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func SavedAdRowFromDomain(a *domain.SavedAd) *SavedAdRow {
	return &SavedAdRow{
		ID:        a.ID,
		ShopID:    a.ShopID,
		Title:     a.Title,
		Content:   a.Content,
		ImageURL:  a.ImageURL,
		Status:    a.Status,
		Tags:      joinList(a.Tags),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// BestPracticeRow maps uploaded resource metadata to Postgres.
type BestPracticeRow struct {
	ID        string `gorm:"primaryKey;type:uuid"`
	Title     string `gorm:"not null"`
	Category  string
	Content   string
	FileURL   string
	FileName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (BestPracticeRow) TableName() string { return "best_practices" }

func (r *BestPracticeRow) ToDomain() *domain.BestPractice {
	return &domain.BestPractice{
		ID:        r.ID,
		Title:     r.Title,
		Category:  r.Category,
		Content:   r.Content,
		FileURL:   r.FileURL,
		FileName:  r.FileName,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func BestPracticeRowFromDomain(b *domain.BestPractice) *BestPracticeRow {
	return &BestPracticeRow{
		ID:        b.ID,
		Title:     b.Title,
		Category:  b.Category,
		Content:   b.Content,
		FileURL:   b.FileURL,
		FileName:  b.FileName,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func joinList(items []string) string {
	return strings.Join(items, "\n")
}
