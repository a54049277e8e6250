package application

import (
	"context"
	"fmt"
	"time"

	"thunder-text-core/internal/domain"
	"thunder-text-core/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LibraryService manages the ads library and best-practice resources. Saved
// ads are shop scoped; best practices are global.
type LibraryService struct {
	shops         ports.ShopRepository
	savedAds      ports.SavedAdRepository
	bestPractices ports.BestPracticeRepository
	logger        zerolog.Logger
	now           func() time.Time
}

// NewLibraryService creates a library service.
func NewLibraryService(
	shops ports.ShopRepository,
	savedAds ports.SavedAdRepository,
	bestPractices ports.BestPracticeRepository,
	logger zerolog.Logger,
) *LibraryService {
	return &LibraryService{
		shops:         shops,
		savedAds:      savedAds,
		bestPractices: bestPractices,
		logger:        logger,
		now:           time.Now,
	}
}

// SavedAdInput is the create/update payload for library ads.
type SavedAdInput struct {
	ShopDomain string   `json:"shop"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	ImageURL   string   `json:"image_url,omitempty"`
	Status     string   `json:"status,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

func (in *SavedAdInput) validate() error {
	var missing []string
	if in.ShopDomain == "" {
		missing = append(missing, "shop")
	}
	if in.Title == "" {
		missing = append(missing, "title")
	}
	if in.Content == "" {
		missing = append(missing, "content")
	}
	if len(missing) > 0 {
		return domain.NewValidationError(missing...)
	}
	return nil
}

func (s *LibraryService) resolveShop(ctx context.Context, identifier string) (*domain.Shop, error) {
	shop, err := s.shops.GetByAnyDomain(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve shop: %w", err)
	}
	if shop == nil {
		return nil, domain.ErrNotFound
	}
	return shop, nil
}

// SaveAd stores a new library ad for a shop.
func (s *LibraryService) SaveAd(ctx context.Context, input SavedAdInput) (*domain.SavedAd, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	shop, err := s.resolveShop(ctx, input.ShopDomain)
	if err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = domain.SavedAdStatusActive
	}
	now := s.now()
	ad := &domain.SavedAd{
		ID:        uuid.NewString(),
		ShopID:    shop.ID,
		Title:     input.Title,
		Content:   input.Content,
		ImageURL:  input.ImageURL,
		Status:    status,
		Tags:      input.Tags,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.savedAds.Create(ctx, ad); err != nil {
		return nil, fmt.Errorf("failed to save ad: %w", err)
	}
	s.logger.Info().Str("shop", shop.Domain).Str("saved_ad_id", ad.ID).Msg("Saved library ad")
	return ad, nil
}

// UpdateAd updates a library ad owned by the shop.
func (s *LibraryService) UpdateAd(ctx context.Context, shopIdentifier, adID string, input SavedAdInput) (*domain.SavedAd, error) {
	input.ShopDomain = shopIdentifier
	if err := input.validate(); err != nil {
		return nil, err
	}
	shop, err := s.resolveShop(ctx, shopIdentifier)
	if err != nil {
		return nil, err
	}
	ad, err := s.savedAds.Get(ctx, adID)
	if err != nil {
		return nil, err
	}
	if ad == nil || ad.ShopID != shop.ID {
		return nil, domain.ErrNotFound
	}

	ad.Title = input.Title
	ad.Content = input.Content
	ad.ImageURL = input.ImageURL
	ad.Tags = input.Tags
	if input.Status != "" {
		ad.Status = input.Status
	}
	ad.UpdatedAt = s.now()
	if err := s.savedAds.Update(ctx, ad); err != nil {
		return nil, fmt.Errorf("failed to update ad: %w", err)
	}
	return ad, nil
}

// ListAds returns a shop's library ads.
func (s *LibraryService) ListAds(ctx context.Context, shopIdentifier string) ([]*domain.SavedAd, error) {
	shop, err := s.resolveShop(ctx, shopIdentifier)
	if err != nil {
		return nil, err
	}
	ads, err := s.savedAds.ListByShop(ctx, shop.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ads: %w", err)
	}
	return ads, nil
}

// DeleteAd removes a library ad owned by the shop.
func (s *LibraryService) DeleteAd(ctx context.Context, shopIdentifier, adID string) error {
	shop, err := s.resolveShop(ctx, shopIdentifier)
	if err != nil {
		return err
	}
	ad, err := s.savedAds.Get(ctx, adID)
	if err != nil {
		return err
	}
	if ad == nil || ad.ShopID != shop.ID {
		return domain.ErrNotFound
	}
	if err := s.savedAds.Delete(ctx, adID); err != nil {
		return fmt.Errorf("failed to delete ad: %w", err)
	}
	s.logger.Info().Str("shop", shop.Domain).Str("saved_ad_id", adID).Msg("Deleted library ad")
	return nil
}

// BestPracticeInput is the create payload for an uploaded resource.
type BestPracticeInput struct {
	Title    string `json:"title"`
	Category string `json:"category,omitempty"`
	Content  string `json:"content,omitempty"`
	FileURL  string `json:"file_url,omitempty"`
	FileName string `json:"file_name,omitempty"`
}

// CreateBestPractice stores a new resource record.
func (s *LibraryService) CreateBestPractice(ctx context.Context, input BestPracticeInput) (*domain.BestPractice, error) {
	if input.Title == "" {
		return nil, domain.NewValidationError("title")
	}
	now := s.now()
	bp := &domain.BestPractice{
		ID:        uuid.NewString(),
		Title:     input.Title,
		Category:  input.Category,
		Content:   input.Content,
		FileURL:   input.FileURL,
		FileName:  input.FileName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.bestPractices.Create(ctx, bp); err != nil {
		return nil, fmt.Errorf("failed to create best practice: %w", err)
	}
	s.logger.Info().Str("best_practice_id", bp.ID).Str("title", bp.Title).Msg("Created best practice")
	return bp, nil
}

// ListBestPractices returns all resource records.
func (s *LibraryService) ListBestPractices(ctx context.Context) ([]*domain.BestPractice, error) {
	items, err := s.bestPractices.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list best practices: %w", err)
	}
	return items, nil
}

// DeleteBestPractice removes a resource record.
func (s *LibraryService) DeleteBestPractice(ctx context.Context, id string) error {
	if err := s.bestPractices.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete best practice: %w", err)
	}
	return nil
}
