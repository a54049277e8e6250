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

// PostgresConnectionRepository implements ConnectionRepository on
// gorm/Postgres.
type PostgresConnectionRepository struct {
	db *gorm.DB
}

// NewPostgresConnectionRepository creates a new connection repository.
func NewPostgresConnectionRepository(db *gorm.DB) ports.ConnectionRepository {
	return &PostgresConnectionRepository{db: db}
}

// Upsert writes a connection inside a transaction that first deactivates any
// previous active row for the same (shop, provider), keeping the one-active
// invariant.
func (r *PostgresConnectionRepository) Upsert(ctx context.Context, conn *domain.Connection) error {
	if conn.ID == "" {
		conn.ID = uuid.NewString()
	}
	if conn.CreatedAt.IsZero() {
		conn.CreatedAt = time.Now()
	}
	conn.UpdatedAt = time.Now()
	conn.Active = true

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.ConnectionRow{}).
			Where("shop_id = ? AND provider = ? AND active = ?", conn.ShopID, string(conn.Provider), true).
			Updates(map[string]interface{}{"active": false, "updated_at": time.Now()}).Error; err != nil {
			return fmt.Errorf("failed to deactivate prior connection: %w", err)
		}
		if err := tx.Create(entity.ConnectionRowFromDomain(conn)).Error; err != nil {
			return fmt.Errorf("failed to create connection: %w", err)
		}
		return nil
	})
}

// GetActive retrieves the single active connection for (shop, provider).
func (r *PostgresConnectionRepository) GetActive(ctx context.Context, shopID string, provider domain.Provider) (*domain.Connection, error) {
	var row entity.ConnectionRow
	err := r.db.WithContext(ctx).
		Where("shop_id = ? AND provider = ? AND active = ?", shopID, string(provider), true).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	return row.ToDomain(), nil
}

// ListByShop returns all active connections for a shop.
func (r *PostgresConnectionRepository) ListByShop(ctx context.Context, shopID string) ([]*domain.Connection, error) {
	var rows []entity.ConnectionRow
	err := r.db.WithContext(ctx).
		Where("shop_id = ? AND active = ?", shopID, true).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	conns := make([]*domain.Connection, 0, len(rows))
	for i := range rows {
		conns = append(conns, rows[i].ToDomain())
	}
	return conns, nil
}

// Deactivate soft-disables the active connection for (shop, provider).
func (r *PostgresConnectionRepository) Deactivate(ctx context.Context, shopID string, provider domain.Provider) error {
	res := r.db.WithContext(ctx).Model(&entity.ConnectionRow{}).
		Where("shop_id = ? AND provider = ? AND active = ?", shopID, string(provider), true).
		Updates(map[string]interface{}{"active": false, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("failed to deactivate connection: %w", res.Error)
	}
	return nil
}
