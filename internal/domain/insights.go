package domain

import "time"

// PerformanceTier classifies a campaign from ROAS, conversion rate and spend.
type PerformanceTier string

const (
	TierCritical  PerformanceTier = "critical"
	TierExcellent PerformanceTier = "excellent"
	TierGood      PerformanceTier = "good"
	TierAverage   PerformanceTier = "average"
	TierPoor      PerformanceTier = "poor"
)

// InsightsLookback is the fixed trailing window applied to every provider
// insights fetch.
const InsightsLookback = 30 * 24 * time.Hour

// CampaignInsight is one campaign's raw provider numbers plus derived metrics.
// Derived fields are filled by Derive; snapshots are computed per request and
// never persisted.
type CampaignInsight struct {
	CampaignID     string          `json:"campaign_id"`
	CampaignName   string          `json:"campaign_name"`
	Status         string          `json:"status,omitempty"`
	Spend          float64         `json:"spend"`
	Impressions    int64           `json:"impressions"`
	Clicks         int64           `json:"clicks"`
	Purchases      int64           `json:"purchases"`
	PurchaseValue  float64         `json:"purchase_value"`
	ROAS           float64         `json:"roas"`
	ConversionRate float64         `json:"conversion_rate"`
	Tier           PerformanceTier `json:"performance_tier"`
}

// Derive computes ROAS, conversion rate and the performance tier from the raw
// numbers. Zero spend yields zero ROAS; zero clicks yields zero conversion.
func (c *CampaignInsight) Derive() {
	c.ROAS = 0
	if c.Spend > 0 {
		c.ROAS = c.PurchaseValue / c.Spend
	}
	c.ConversionRate = 0
	if c.Clicks > 0 {
		c.ConversionRate = float64(c.Purchases) / float64(c.Clicks) * 100
	}
	c.Tier = ClassifyTier(c.Spend, c.ROAS, c.ConversionRate)
}

// ClassifyTier applies the tier rules top to bottom; the first match wins.
func ClassifyTier(spend, roas, conversionRate float64) PerformanceTier {
	switch {
	case spend > 500 && roas < 1.0:
		return TierCritical
	case roas >= 4.0 && conversionRate >= 3.0 && spend >= 100:
		return TierExcellent
	case roas >= 2.5 || (conversionRate >= 2.0 && spend >= 50):
		return TierGood
	case roas >= 1.5 || conversionRate >= 1.0:
		return TierAverage
	default:
		return TierPoor
	}
}

// ShopInsights is one shop's slice of the aggregation. FetchError holds a
// provider failure for this shop without failing siblings; a shop with no
// connection has Connected=false, no campaigns and no error.
type ShopInsights struct {
	ShopDomain        string            `json:"shop_domain"`
	Connected         bool              `json:"facebook_connected"`
	Campaigns         []CampaignInsight `json:"campaigns"`
	TotalSpend        float64           `json:"total_spend"`
	TotalPurchases    int64             `json:"total_purchases"`
	TotalValue        float64           `json:"total_purchase_value"`
	AvgROAS           float64           `json:"average_roas"`
	AvgConversionRate float64           `json:"average_conversion_rate"`
	FetchError        string            `json:"fetch_error,omitempty"`
}

// Reduce fills the per-shop totals from the campaign list.
func (s *ShopInsights) Reduce() {
	s.TotalSpend, s.TotalValue, s.TotalPurchases = 0, 0, 0
	var roasSum, convSum float64
	for _, c := range s.Campaigns {
		s.TotalSpend += c.Spend
		s.TotalValue += c.PurchaseValue
		s.TotalPurchases += c.Purchases
		roasSum += c.ROAS
		convSum += c.ConversionRate
	}
	s.AvgROAS, s.AvgConversionRate = 0, 0
	if n := len(s.Campaigns); n > 0 {
		s.AvgROAS = roasSum / float64(n)
		s.AvgConversionRate = convSum / float64(n)
	}
}

// InsightsSummary is the global reduction across all active shops.
type InsightsSummary struct {
	TotalShops     int                     `json:"total_shops"`
	ConnectedShops int                     `json:"connected_shops"`
	TotalCampaigns int                     `json:"total_campaigns"`
	TotalSpend     float64                 `json:"total_spend"`
	TotalPurchases int64                   `json:"total_purchases"`
	TotalValue     float64                 `json:"total_purchase_value"`
	TierCounts     map[PerformanceTier]int `json:"tier_counts"`
	Shops          []ShopInsights          `json:"shops"`
}

// Summarize builds the global summary from per-shop results.
func Summarize(shops []ShopInsights) InsightsSummary {
	summary := InsightsSummary{
		TotalShops: len(shops),
		TierCounts: map[PerformanceTier]int{},
		Shops:      shops,
	}
	for _, s := range shops {
		if s.Connected {
			summary.ConnectedShops++
		}
		summary.TotalCampaigns += len(s.Campaigns)
		summary.TotalSpend += s.TotalSpend
		summary.TotalPurchases += s.TotalPurchases
		summary.TotalValue += s.TotalValue
		for _, c := range s.Campaigns {
			summary.TierCounts[c.Tier]++
		}
	}
	return summary
}

// AdAccount is a provider billing/management container under which campaigns
// run.
type AdAccount struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency,omitempty"`
}

// Campaign is a remote provider campaign, listed when targeting a draft.
type Campaign struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status,omitempty"`
	Objective string `json:"objective,omitempty"`
}

// DateRange bounds an insights fetch.
type DateRange struct {
	Since time.Time
	Until time.Time
}

// LastDays returns the fixed trailing window ending at now.
func LastDays(now time.Time, d time.Duration) DateRange {
	return DateRange{Since: now.Add(-d), Until: now}
}
