package behavior

import (
	"sort"
	"time"

	"sales-intelligence/internal/domain"
)

// Eligibility thresholds for irregular buyers.
const (
	IrregularRecentDays     = 180
	IrregularMinConsistency = 20.0
)

// ClassifyBehavior profiles every entity with orders in the 24 months up to
// asOf. Results are ordered by entity ID.
func ClassifyBehavior(records []domain.TransactionRecord, asOf time.Time) []domain.CustomerBehavior {
	profiles := BuildProfiles(records, asOf)

	out := make([]domain.CustomerBehavior, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, Describe(p, Rules))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out
}

// Describe classifies p with rules and derives its eligibility.
func Describe(p *Profile, rules []Rule) domain.CustomerBehavior {
	segment, verdict := Classify(p, rules)

	b := domain.CustomerBehavior{
		EntityID:            p.EntityID,
		EntityName:          p.EntityName,
		Segment:             segment,
		SegmentConfidence:   verdict.Confidence,
		SegmentReason:       verdict.Reason,
		ProductFocus:        p.Focus,
		OrderConsistencyPct: p.ConsistencyPct,
		RevenueVolatility:   p.Volatility,
		TotalOrders:         p.Orders(),
		TotalRevenue:        p.TotalRevenue,
		FirstOrder:          p.FirstOrder,
		LastOrder:           p.LastOrder,
		DaysSinceLast:       p.DaysSinceLast,
		AvgOrderGapDays:     p.AvgGapDays,
		AvgOrderValue:       p.AvgOrderValue(),
	}
	if isSeasonal(p) {
		b.SeasonalMonths = p.Season.Months()
	}
	b.Eligibility = eligibility(segment, p)
	return b
}

func eligibility(segment domain.Segment, p *Profile) domain.Eligibility {
	e := domain.Eligibility{
		CrossSell: p.Focus != domain.FocusSingleProduct,
	}
	switch segment {
	case domain.SegmentSteadyRepeater:
		e.Attrition = true
		e.RepeatOrder = true
	case domain.SegmentIrregular:
		e.Attrition = p.DaysSinceLast <= IrregularRecentDays && p.ConsistencyPct >= IrregularMinConsistency
	case domain.SegmentSeasonal:
		month := p.AsOf.Month()
		e.RepeatOrder = p.Season.Contains(month) || p.Season.Contains(monthAdd(month, 1))
	}
	return e
}

// Index maps behaviors by entity ID.
func Index(behaviors []domain.CustomerBehavior) map[string]domain.CustomerBehavior {
	out := make(map[string]domain.CustomerBehavior, len(behaviors))
	for _, b := range behaviors {
		out[b.EntityID] = b
	}
	return out
}
