package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyTier(t *testing.T) {
	tests := []struct {
		name           string
		spend          float64
		roas           float64
		conversionRate float64
		want           PerformanceTier
	}{
		{name: "high spend with low return", spend: 600, roas: 400.0 / 600.0, conversionRate: 0.5, want: TierCritical},
		{name: "critical boundary needs spend above 500", spend: 500, roas: 0.5, conversionRate: 0, want: TierPoor},
		{name: "critical wins over good on roas", spend: 600, roas: 0.9, conversionRate: 2.5, want: TierCritical},
		{name: "excellent", spend: 150, roas: 5, conversionRate: 4, want: TierExcellent},
		{name: "excellent boundary", spend: 100, roas: 4, conversionRate: 3, want: TierExcellent},
		{name: "high roas but low spend is good not excellent", spend: 50, roas: 4.5, conversionRate: 3.5, want: TierGood},
		{name: "good via roas alone", spend: 10, roas: 2.5, conversionRate: 0, want: TierGood},
		{name: "good via conversion with spend floor", spend: 50, roas: 0, conversionRate: 2, want: TierGood},
		{name: "conversion without spend floor falls through", spend: 40, roas: 0, conversionRate: 2.5, want: TierAverage},
		{name: "average via roas", spend: 20, roas: 1.5, conversionRate: 0, want: TierAverage},
		{name: "average via conversion", spend: 20, roas: 0, conversionRate: 1, want: TierAverage},
		{name: "poor", spend: 20, roas: 1.2, conversionRate: 0.4, want: TierPoor},
		{name: "zero everything", spend: 0, roas: 0, conversionRate: 0, want: TierPoor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyTier(tt.spend, tt.roas, tt.conversionRate))
		})
	}
}

func TestCampaignInsightDerive(t *testing.T) {
	c := CampaignInsight{Spend: 200, Clicks: 50, Purchases: 2, PurchaseValue: 600}
	c.Derive()

	assert.Equal(t, 3.0, c.ROAS)
	assert.Equal(t, 4.0, c.ConversionRate)
	assert.Equal(t, TierGood, c.Tier)
}

func TestCampaignInsightDeriveZeroDenominators(t *testing.T) {
	c := CampaignInsight{Spend: 0, Clicks: 0, Purchases: 3, PurchaseValue: 100}
	c.Derive()

	assert.Equal(t, 0.0, c.ROAS)
	assert.Equal(t, 0.0, c.ConversionRate)
	assert.Equal(t, TierPoor, c.Tier)
}

func TestCampaignInsightDeriveCritical(t *testing.T) {
	c := CampaignInsight{Spend: 600, Clicks: 1000, Purchases: 1, PurchaseValue: 400}
	c.Derive()

	assert.InDelta(t, 0.667, c.ROAS, 0.001)
	assert.Equal(t, TierCritical, c.Tier)
}

func TestShopInsightsReduce(t *testing.T) {
	s := ShopInsights{
		Campaigns: []CampaignInsight{
			{Spend: 100, PurchaseValue: 300, Purchases: 3, ROAS: 3, ConversionRate: 2},
			{Spend: 50, PurchaseValue: 50, Purchases: 1, ROAS: 1, ConversionRate: 4},
		},
	}
	s.Reduce()

	assert.Equal(t, 150.0, s.TotalSpend)
	assert.Equal(t, 350.0, s.TotalValue)
	assert.Equal(t, int64(4), s.TotalPurchases)
	assert.Equal(t, 2.0, s.AvgROAS)
	assert.Equal(t, 3.0, s.AvgConversionRate)
}

func TestShopInsightsReduceEmpty(t *testing.T) {
	s := ShopInsights{}
	s.Reduce()

	assert.Zero(t, s.TotalSpend)
	assert.Zero(t, s.AvgROAS)
	assert.Zero(t, s.AvgConversionRate)
}

func TestSummarize(t *testing.T) {
	shops := []ShopInsights{
		{
			ShopDomain: "a.myshopify.com",
			Connected:  true,
			Campaigns: []CampaignInsight{
				{Tier: TierGood, Spend: 100},
				{Tier: TierPoor, Spend: 10},
			},
			TotalSpend:     110,
			TotalPurchases: 5,
			TotalValue:     400,
		},
		{ShopDomain: "b.myshopify.com", Connected: false},
	}

	summary := Summarize(shops)

	assert.Equal(t, 2, summary.TotalShops)
	assert.Equal(t, 1, summary.ConnectedShops)
	assert.Equal(t, 2, summary.TotalCampaigns)
	assert.Equal(t, 110.0, summary.TotalSpend)
	assert.Equal(t, int64(5), summary.TotalPurchases)
	assert.Equal(t, 400.0, summary.TotalValue)
	assert.Equal(t, 1, summary.TierCounts[TierGood])
	assert.Equal(t, 1, summary.TierCounts[TierPoor])
}

func TestLastDays(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	r := LastDays(now, InsightsLookback)

	assert.Equal(t, now, r.Until)
	assert.Equal(t, now.AddDate(0, 0, -30), r.Since)
}
