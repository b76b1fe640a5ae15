// Package attrition scores per-entity churn risk from two comparison windows.
package attrition

import (
	"math"
	"sort"
	"time"

	"sales-intelligence/internal/aggregation"
	"sales-intelligence/internal/domain"
)

// Component weights. They sum to 1.
const (
	WeightRecency    = 0.35
	WeightFrequency  = 0.30
	WeightMonetary   = 0.25
	WeightProductMix = 0.10
)

// Status thresholds.
const (
	ChurnedAfterDays   = 365
	AtRiskAfterDays    = 180
	AtRiskScore        = 70.0
	DecliningScore     = 40.0
	recencyHorizonDays = 365.0
)

// ScoreAttrition scores every entity with an established relationship, i.e.
// activity in the prior window. Recency is measured from asOf.
// Results are sorted by score descending, then entity ID.
func ScoreAttrition(aggs aggregation.Aggregates, asOf time.Time) []domain.AttritionScore {
	out := make([]domain.AttritionScore, 0, len(aggs))
	for _, e := range aggs.Sorted() {
		if e.Prior.Empty() {
			continue
		}
		out = append(out, Score(e, asOf))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].EntityID < out[j].EntityID
	})
	return out
}

// Score computes the attrition score of a single entity.
func Score(e *domain.EntityWindows, asOf time.Time) domain.AttritionScore {
	daysSince := 0
	if last := e.LastTransactionDate(); !last.IsZero() {
		daysSince = domain.DaysBetween(last, asOf)
		if daysSince < 0 {
			daysSince = 0
		}
	}

	curRev := e.Current.RevenueTotal.InexactFloat64()
	priorRev := e.Prior.RevenueTotal.InexactFloat64()
	freqChange := changeRatio(float64(e.Current.OrderCount), float64(e.Prior.OrderCount))
	revChange := changeRatio(curRev, priorRev)

	c := domain.ComponentScores{
		Recency:    clamp(float64(daysSince)/recencyHorizonDays*100, 0, 100),
		Frequency:  declineScore(freqChange),
		Monetary:   declineScore(revChange),
		ProductMix: productMixScore(len(e.Prior.Categories), len(e.Current.Categories)),
	}
	score := clamp(
		WeightRecency*c.Recency+
			WeightFrequency*c.Frequency+
			WeightMonetary*c.Monetary+
			WeightProductMix*c.ProductMix,
		0, 100)

	return domain.AttritionScore{
		EntityID:        e.EntityID,
		EntityName:      e.EntityName,
		Score:           score,
		Status:          classify(score, daysSince, freqChange, revChange),
		Components:      c,
		RevenueAtRisk:   math.Max(curRev, priorRev) * score / 100,
		DaysSinceLast:   daysSince,
		FrequencyChange: freqChange,
		RevenueChange:   revChange,
		CurrentRevenue:  curRev,
		PriorRevenue:    priorRev,
	}
}

// changeRatio returns (current-prior)/prior. With no prior it is -1 when
// current is positive and 0 otherwise.
func changeRatio(current, prior float64) float64 {
	if prior == 0 {
		if current > 0 {
			return -1
		}
		return 0
	}
	return (current - prior) / prior
}

// declineScore maps a negative change to 0..100; growth scores 0.
func declineScore(change float64) float64 {
	return clamp(math.Max(0, -change)*100, 0, 100)
}

func productMixScore(prior, current int) float64 {
	if current >= prior {
		return 0
	}
	return clamp(float64(prior-current)/math.Max(1, float64(prior))*100, 0, 100)
}

func classify(score float64, daysSince int, freqChange, revChange float64) domain.AttritionStatus {
	switch {
	case daysSince > ChurnedAfterDays:
		return domain.StatusChurned
	case score > AtRiskScore || daysSince > AtRiskAfterDays:
		return domain.StatusAtRisk
	case score > DecliningScore && (freqChange < 0 || revChange < 0):
		return domain.StatusDeclining
	default:
		return domain.StatusActive
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
