package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"thunder-text-core/internal/domain"
	"thunder-text-core/internal/ports"

	"github.com/rs/zerolog"
)

// InsightsService fans out over every active shop and reduces live provider
// numbers into per-shop and global summaries. Snapshots are recomputed every
// call and never persisted.
type InsightsService struct {
	shops     ports.ShopRepository
	tokens    *TokenService
	platforms ports.PlatformRegistry
	logger    zerolog.Logger
	now       func() time.Time
}

// NewInsightsService creates an insights service.
func NewInsightsService(
	shops ports.ShopRepository,
	tokens *TokenService,
	platforms ports.PlatformRegistry,
	logger zerolog.Logger,
) *InsightsService {
	return &InsightsService{
		shops:     shops,
		tokens:    tokens,
		platforms: platforms,
		logger:    logger,
		now:       time.Now,
	}
}

// Aggregate fetches trailing-30-day campaign performance for every active
// shop. All shops are fetched concurrently; one shop's provider failure is
// captured in its entry and never cancels siblings. Shops without a
// connection still count toward total_shops, distinguishing "no data" from
// "error fetching data".
func (s *InsightsService) Aggregate(ctx context.Context) (*domain.InsightsSummary, error) {
	shops, err := s.shops.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]domain.ShopInsights, len(shops))
	var wg sync.WaitGroup
	for i, shop := range shops {
		wg.Add(1)
		go func(i int, shop *domain.Shop) {
			defer wg.Done()
			results[i] = s.fetchShop(ctx, shop)
		}(i, shop)
	}
	wg.Wait()

	summary := domain.Summarize(results)
	return &summary, nil
}

// ShopInsights computes the trailing-30-day view for one shop.
func (s *InsightsService) ShopInsights(ctx context.Context, shopIdentifier string) (*domain.ShopInsights, error) {
	shop, err := s.shops.GetByAnyDomain(ctx, shopIdentifier)
	if err != nil {
		return nil, err
	}
	if shop == nil {
		return nil, fmt.Errorf("shop %s: %w", shopIdentifier, domain.ErrNotFound)
	}
	insights := s.fetchShop(ctx, shop)
	return &insights, nil
}

func (s *InsightsService) fetchShop(ctx context.Context, shop *domain.Shop) domain.ShopInsights {
	insights := domain.ShopInsights{
		ShopDomain: shop.Domain,
		Campaigns:  []domain.CampaignInsight{},
	}

	token, err := s.tokens.Resolve(ctx, shop.Domain, domain.ProviderFacebook, ResolveOptions{})
	if err != nil {
		if errors.Is(err, domain.ErrNotConnected) {
			// No connection is expected state, not an error.
			return insights
		}
		insights.FetchError = err.Error()
		return insights
	}
	insights.Connected = true

	if token.AdAccountID == "" {
		insights.FetchError = "connection has no ad account"
		return insights
	}

	platform, err := s.platforms.Platform(domain.ProviderFacebook)
	if err != nil {
		insights.FetchError = err.Error()
		return insights
	}

	dateRange := domain.LastDays(s.now(), domain.InsightsLookback)
	campaigns, err := platform.FetchInsights(ctx, token.AccessToken, token.AdAccountID, dateRange)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("shop", shop.Domain).
			Msg("Insights fetch failed")
		insights.FetchError = err.Error()
		return insights
	}

	insights.Campaigns = append(insights.Campaigns, campaigns...)
	insights.Reduce()
	return insights
}
