package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"thunder-text-core/internal/domain"
	"thunder-text-core/internal/infrastructure/repository/entity"
	"thunder-text-core/internal/ports"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostgresShopRepository implements ShopRepository on gorm/Postgres.
type PostgresShopRepository struct {
	db *gorm.DB
}

// NewPostgresShopRepository creates a new shop repository.
func NewPostgresShopRepository(db *gorm.DB) ports.ShopRepository {
	return &PostgresShopRepository{db: db}
}

// Save upserts a shop keyed by its primary domain.
func (r *PostgresShopRepository) Save(ctx context.Context, shop *domain.Shop) error {
	if shop.ID == "" {
		shop.ID = uuid.NewString()
	}
	if shop.CreatedAt.IsZero() {
		shop.CreatedAt = time.Now()
	}
	shop.UpdatedAt = time.Now()

	row := entity.ShopRowFromDomain(shop)

	var existing entity.ShopRow
	err := r.db.WithContext(ctx).Where("domain = ?", shop.Domain).First(&existing).Error
	switch {
	case err == nil:
		row.ID = existing.ID
		row.CreatedAt = existing.CreatedAt
		shop.ID = existing.ID
		if err := r.db.WithContext(ctx).Model(&entity.ShopRow{}).Where("id = ?", existing.ID).Updates(row).Error; err != nil {
			return fmt.Errorf("failed to update shop: %w", err)
		}
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
			return fmt.Errorf("failed to create shop: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("failed to look up shop: %w", err)
	}
}

// GetByID retrieves a shop by its primary key.
func (r *PostgresShopRepository) GetByID(ctx context.Context, id string) (*domain.Shop, error) {
	var row entity.ShopRow
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	return row.ToDomain(), nil
}

// GetByDomain retrieves a shop by its primary domain.
func (r *PostgresShopRepository) GetByDomain(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	var row entity.ShopRow
	err := r.db.WithContext(ctx).Where("domain = ?", shopDomain).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	return row.ToDomain(), nil
}

// GetByAnyDomain resolves a shop by primary domain first, then by linked
// alias.
func (r *PostgresShopRepository) GetByAnyDomain(ctx context.Context, identifier string) (*domain.Shop, error) {
	shop, err := r.GetByDomain(ctx, identifier)
	if err != nil || shop != nil {
		return shop, err
	}
	var row entity.ShopRow
	err = r.db.WithContext(ctx).Where("linked_domain = ?", identifier).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shop by linked domain: %w", err)
	}
	return row.ToDomain(), nil
}

// ListActive returns all active shops.
func (r *PostgresShopRepository) ListActive(ctx context.Context) ([]*domain.Shop, error) {
	var rows []entity.ShopRow
	if err := r.db.WithContext(ctx).Where("active = ?", true).Order("domain").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list shops: %w", err)
	}
	shops := make([]*domain.Shop, 0, len(rows))
	for i := range rows {
		shops = append(shops, rows[i].ToDomain())
	}
	return shops, nil
}

// Deactivate soft-disables a shop; rows are never hard-deleted here.
func (r *PostgresShopRepository) Deactivate(ctx context.Context, shopDomain string) error {
	res := r.db.WithContext(ctx).Model(&entity.ShopRow{}).
		Where("domain = ?", shopDomain).
		Updates(map[string]interface{}{"active": false, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("failed to deactivate shop: %w", res.Error)
	}
	return nil
}
