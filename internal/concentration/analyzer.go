// Package concentration measures how revenue is spread across the portfolio.
package concentration

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"sales-intelligence/internal/domain"
)

// Thresholds.
const (
	HHIModerateFrom      = 1500.0
	HHIConcentratedAbove = 2500.0
	SingleCustomerPct    = 25.0
	ParetoTargetPct      = 80
)

// Tier population cut-offs, as cumulative percent of entities.
const (
	platinumPct = 5
	goldPct     = 20
	silverPct   = 50
)

// AnalyzeConcentration computes Pareto, HHI, single-customer risk and tiers
// over one window. Entities without positive revenue are ignored. An empty
// or zero-revenue portfolio yields zero metrics with empty tiers.
func AnalyzeConcentration(entities []domain.EntityAggregate) domain.ConcentrationMetrics {
	ranked := make([]domain.EntityAggregate, 0, len(entities))
	total := decimal.Zero
	for _, e := range entities {
		if !e.Aggregate.RevenueTotal.IsPositive() {
			continue
		}
		ranked = append(ranked, e)
		total = total.Add(e.Aggregate.RevenueTotal)
	}

	m := domain.ConcentrationMetrics{
		HHIBand: domain.HHIDiversified,
		Tiers:   emptyTiers(),
	}
	if len(ranked) == 0 || !total.IsPositive() {
		return m
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		c := ranked[i].Aggregate.RevenueTotal.Cmp(ranked[j].Aggregate.RevenueTotal)
		if c != 0 {
			return c > 0
		}
		return ranked[i].EntityID < ranked[j].EntityID
	})

	n := len(ranked)
	totalF := total.InexactFloat64()
	m.EntityCount = n
	m.TotalRevenue = totalF

	// prefix[i] is the revenue of the top i entities.
	prefix := make([]decimal.Decimal, n+1)
	prefix[0] = decimal.Zero
	var hhi float64
	for i, e := range ranked {
		prefix[i+1] = prefix[i].Add(e.Aggregate.RevenueTotal)
		share := e.Aggregate.RevenueTotal.InexactFloat64() / totalF * 100
		hhi += share * share
	}
	m.HHIIndex = clamp(hhi, 0, 10000)
	m.HHIBand = band(m.HHIIndex)

	top := ranked[0]
	m.TopCustomerID = top.EntityID
	m.TopCustomerName = top.EntityName
	m.TopCustomerPct = top.Aggregate.RevenueTotal.InexactFloat64() / totalF * 100
	m.SingleCustomerRisk = m.TopCustomerPct > SingleCustomerPct

	shareOf := func(k int) float64 {
		return clamp(prefix[k].InexactFloat64()/totalF*100, 0, 100)
	}
	top10 := atLeastOne(ceilPct(n, 10), n)
	top20 := atLeastOne(ceilPct(n, 20), n)
	m.Pareto = domain.ParetoBreakdown{
		Top10PctCount: top10,
		Top10PctShare: shareOf(top10),
		Top20PctCount: top20,
		Top20PctShare: shareOf(top20),
	}
	threshold := total.Mul(decimal.NewFromInt(ParetoTargetPct)).Div(decimal.NewFromInt(100))
	for k := 1; k <= n; k++ {
		if prefix[k].GreaterThanOrEqual(threshold) {
			m.Pareto.EntitiesFor80Pct = k
			break
		}
	}
	m.Pareto.PopulationFor80 = float64(m.Pareto.EntitiesFor80Pct) / float64(n) * 100

	m.Tiers = tiers(prefix, n, total)
	return m
}

// tiers splits the ranked population by count. Boundaries are cumulative
// and clamped so that every entity lands in exactly one tier.
func tiers(prefix []decimal.Decimal, n int, total decimal.Decimal) []domain.Tier {
	platinumEnd := atLeastOne(ceilPct(n, platinumPct), n)
	goldEnd := clampInt(ceilPct(n, goldPct), platinumEnd, n)
	silverEnd := clampInt(ceilPct(n, silverPct), goldEnd, n)

	bounds := []struct {
		name       domain.TierName
		start, end int
	}{
		{domain.TierPlatinum, 0, platinumEnd},
		{domain.TierGold, platinumEnd, goldEnd},
		{domain.TierSilver, goldEnd, silverEnd},
		{domain.TierBronze, silverEnd, n},
	}

	totalF := total.InexactFloat64()
	out := make([]domain.Tier, 0, len(bounds))
	for _, b := range bounds {
		rev := prefix[b.end].Sub(prefix[b.start])
		out = append(out, domain.Tier{
			Name:         b.name,
			Count:        b.end - b.start,
			TotalRevenue: rev.InexactFloat64(),
			PctOfTotal:   rev.InexactFloat64() / totalF * 100,
		})
	}
	return out
}

func emptyTiers() []domain.Tier {
	return []domain.Tier{
		{Name: domain.TierPlatinum},
		{Name: domain.TierGold},
		{Name: domain.TierSilver},
		{Name: domain.TierBronze},
	}
}

func band(hhi float64) domain.HHIBand {
	switch {
	case hhi > HHIConcentratedAbove:
		return domain.HHIConcentrated
	case hhi >= HHIModerateFrom:
		return domain.HHIModerate
	default:
		return domain.HHIDiversified
	}
}

// ceilPct returns ceil(n * pct / 100) in integer arithmetic.
func ceilPct(n, pct int) int {
	return (n*pct + 99) / 100
}

func atLeastOne(k, n int) int {
	return clampInt(k, 1, n)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
