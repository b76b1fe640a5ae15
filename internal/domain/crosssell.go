package domain

import "github.com/shopspring/decimal"

// CategoryStats is the portfolio-wide aggregate for one category.
type CategoryStats struct {
	Category   string
	Revenue    decimal.Decimal
	Cost       decimal.Decimal
	BuyerCount int
}

// CrossSellOpportunity proposes a category a target entity does not buy yet.
// Unique per (EntityID, RecommendedCategory).
type CrossSellOpportunity struct {
	EntityID            string
	EntityName          string
	RecommendedCategory string
	AffinityScore       float64 // 0..100
	SimilarEntityCount  int
	EstimatedRevenue    float64
	AvgMarginPct        float64
}
