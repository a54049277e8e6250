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

// PostgresAdDraftRepository implements AdDraftRepository on gorm/Postgres.
type PostgresAdDraftRepository struct {
	db *gorm.DB
}

// NewPostgresAdDraftRepository creates a new ad-draft repository.
func NewPostgresAdDraftRepository(db *gorm.DB) ports.AdDraftRepository {
	return &PostgresAdDraftRepository{db: db}
}

// Create persists a new draft.
func (r *PostgresAdDraftRepository) Create(ctx context.Context, draft *domain.AdDraft) error {
	if draft.ID == "" {
		draft.ID = uuid.NewString()
	}
	now := time.Now()
	draft.CreatedAt = now
	draft.UpdatedAt = now
	if draft.Status == "" {
		draft.Status = domain.DraftStatusDraft
	}
	if err := r.db.WithContext(ctx).Create(entity.AdDraftRowFromDomain(draft)).Error; err != nil {
		return fmt.Errorf("failed to create ad draft: %w", err)
	}
	return nil
}

// Update writes the full draft row back.
func (r *PostgresAdDraftRepository) Update(ctx context.Context, draft *domain.AdDraft) error {
	draft.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).Model(&entity.AdDraftRow{}).
		Where("id = ?", draft.ID).
		Updates(entity.AdDraftRowFromDomain(draft))
	if res.Error != nil {
		return fmt.Errorf("failed to update ad draft: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Get retrieves a draft by id.
func (r *PostgresAdDraftRepository) Get(ctx context.Context, id string) (*domain.AdDraft, error) {
	var row entity.AdDraftRow
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ad draft: %w", err)
	}
	return row.ToDomain(), nil
}

// ListByShop returns a shop's drafts, optionally filtered by provider, newest
// first.
func (r *PostgresAdDraftRepository) ListByShop(ctx context.Context, shopID string, provider domain.Provider) ([]*domain.AdDraft, error) {
	q := r.db.WithContext(ctx).Where("shop_id = ?", shopID)
	if provider != "" {
		q = q.Where("provider = ?", string(provider))
	}
	var rows []entity.AdDraftRow
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list ad drafts: %w", err)
	}
	drafts := make([]*domain.AdDraft, 0, len(rows))
	for i := range rows {
		drafts = append(drafts, rows[i].ToDomain())
	}
	return drafts, nil
}
