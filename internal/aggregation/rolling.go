package aggregation

import (
	"sort"

	"sales-intelligence/internal/domain"
)

// TrendThresholdPct is the change beyond which an entity is growing or declining.
const TrendThresholdPct = 10.0

// ComputeRollingPerformance compares current and prior revenue per entity.
// Results are ordered by current revenue descending, then entity ID.
func ComputeRollingPerformance(a Aggregates) []domain.RollingPerformance {
	out := make([]domain.RollingPerformance, 0, len(a))
	for _, e := range a.Sorted() {
		cur := e.Current.RevenueTotal.InexactFloat64()
		prior := e.Prior.RevenueTotal.InexactFloat64()

		p := domain.RollingPerformance{
			EntityID:       e.EntityID,
			EntityName:     e.EntityName,
			CurrentRevenue: cur,
			PriorRevenue:   prior,
		}
		switch {
		case prior <= 0 && cur <= 0:
			continue
		case prior <= 0:
			p.ChangePct = 100
			p.Trend = domain.TrendNew
		case cur <= 0:
			p.ChangePct = -100
			p.Trend = domain.TrendLost
		default:
			p.ChangePct = (cur - prior) / prior * 100
			switch {
			case p.ChangePct > TrendThresholdPct:
				p.Trend = domain.TrendGrowing
			case p.ChangePct < -TrendThresholdPct:
				p.Trend = domain.TrendDeclining
			default:
				p.Trend = domain.TrendStable
			}
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CurrentRevenue != out[j].CurrentRevenue {
			return out[i].CurrentRevenue > out[j].CurrentRevenue
		}
		return out[i].EntityID < out[j].EntityID
	})
	return out
}
