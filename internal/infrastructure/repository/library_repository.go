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

// PostgresSavedAdRepository implements SavedAdRepository on gorm/Postgres.
type PostgresSavedAdRepository struct {
	db *gorm.DB
}

// NewPostgresSavedAdRepository creates a new saved-ad repository.
func NewPostgresSavedAdRepository(db *gorm.DB) ports.SavedAdRepository {
	return &PostgresSavedAdRepository{db: db}
}

func (r *PostgresSavedAdRepository) Create(ctx context.Context, ad *domain.SavedAd) error {
	if ad.ID == "" {
		ad.ID = uuid.NewString()
	}
	now := time.Now()
	ad.CreatedAt = now
	ad.UpdatedAt = now
	if ad.Status == "" {
		ad.Status = domain.SavedAdStatusActive
	}
	if err := r.db.WithContext(ctx).Create(entity.SavedAdRowFromDomain(ad)).Error; err != nil {
		return fmt.Errorf("failed to create saved ad: %w", err)
	}
	return nil
}

func (r *PostgresSavedAdRepository) Update(ctx context.Context, ad *domain.SavedAd) error {
	ad.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).Model(&entity.SavedAdRow{}).
		Where("id = ?", ad.ID).
		Updates(entity.SavedAdRowFromDomain(ad))
	if res.Error != nil {
		return fmt.Errorf("failed to update saved ad: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresSavedAdRepository) Get(ctx context.Context, id string) (*domain.SavedAd, error) {
	var row entity.SavedAdRow
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get saved ad: %w", err)
	}
	return row.ToDomain(), nil
}

func (r *PostgresSavedAdRepository) ListByShop(ctx context.Context, shopID string) ([]*domain.SavedAd, error) {
	var rows []entity.SavedAdRow
	err := r.db.WithContext(ctx).Where("shop_id = ?", shopID).Order("created_at DESC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list saved ads: %w", err)
	}
	ads := make([]*domain.SavedAd, 0, len(rows))
	for i := range rows {
		ads = append(ads, rows[i].ToDomain())
	}
	return ads, nil
}

func (r *PostgresSavedAdRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.SavedAdRow{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete saved ad: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// PostgresBestPracticeRepository implements BestPracticeRepository on
// gorm/Postgres.
type PostgresBestPracticeRepository struct {
	db *gorm.DB
}

// NewPostgresBestPracticeRepository creates a new best-practice repository.
func NewPostgresBestPracticeRepository(db *gorm.DB) ports.BestPracticeRepository {
	return &PostgresBestPracticeRepository{db: db}
}

func (r *PostgresBestPracticeRepository) Create(ctx context.Context, bp *domain.BestPractice) error {
	if bp.ID == "" {
		bp.ID = uuid.NewString()
	}
	now := time.Now()
	bp.CreatedAt = now
	bp.UpdatedAt = now
	if err := r.db.WithContext(ctx).Create(entity.BestPracticeRowFromDomain(bp)).Error; err != nil {
		return fmt.Errorf("failed to create best practice: %w", err)
	}
	return nil
}

func (r *PostgresBestPracticeRepository) Get(ctx context.Context, id string) (*domain.BestPractice, error) {
	var row entity.BestPracticeRow
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get best practice: %w", err)
	}
	return row.ToDomain(), nil
}

func (r *PostgresBestPracticeRepository) List(ctx context.Context) ([]*domain.BestPractice, error) {
	var rows []entity.BestPracticeRow
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list best practices: %w", err)
	}
	items := make([]*domain.BestPractice, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].ToDomain())
	}
	return items, nil
}

func (r *PostgresBestPracticeRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.BestPracticeRow{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete best practice: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
