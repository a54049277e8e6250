package ports

import (
	"context"

	"thunder-text-core/internal/domain"
)

// ShopRepository persists tenants. Get* methods return (nil, nil) when the
// shop does not exist.
type ShopRepository interface {
	Save(ctx context.Context, shop *domain.Shop) error
	GetByID(ctx context.Context, id string) (*domain.Shop, error)
	GetByDomain(ctx context.Context, shopDomain string) (*domain.Shop, error)
	// GetByAnyDomain resolves a shop by primary domain or linked alias.
	GetByAnyDomain(ctx context.Context, identifier string) (*domain.Shop, error)
	ListActive(ctx context.Context) ([]*domain.Shop, error)
	Deactivate(ctx context.Context, shopDomain string) error
}

// ConnectionRepository persists per-shop provider credentials. Token material
// is already encrypted when it reaches this layer.
type ConnectionRepository interface {
	// Upsert saves a connection and deactivates any previous active row for
	// the same (shop, provider).
	Upsert(ctx context.Context, conn *domain.Connection) error
	GetActive(ctx context.Context, shopID string, provider domain.Provider) (*domain.Connection, error)
	ListByShop(ctx context.Context, shopID string) ([]*domain.Connection, error)
	Deactivate(ctx context.Context, shopID string, provider domain.Provider) error
}

// AdDraftRepository persists locally staged ads.
type AdDraftRepository interface {
	Create(ctx context.Context, draft *domain.AdDraft) error
	Update(ctx context.Context, draft *domain.AdDraft) error
	Get(ctx context.Context, id string) (*domain.AdDraft, error)
	ListByShop(ctx context.Context, shopID string, provider domain.Provider) ([]*domain.AdDraft, error)
}

// SavedAdRepository persists ads-library content.
type SavedAdRepository interface {
	Create(ctx context.Context, ad *domain.SavedAd) error
	Update(ctx context.Context, ad *domain.SavedAd) error
	Get(ctx context.Context, id string) (*domain.SavedAd, error)
	ListByShop(ctx context.Context, shopID string) ([]*domain.SavedAd, error)
	Delete(ctx context.Context, id string) error
}

// BestPracticeRepository persists uploaded resource metadata.
type BestPracticeRepository interface {
	Create(ctx context.Context, bp *domain.BestPractice) error
	Get(ctx context.Context, id string) (*domain.BestPractice, error)
	List(ctx context.Context) ([]*domain.BestPractice, error)
	Delete(ctx context.Context, id string) error
}
