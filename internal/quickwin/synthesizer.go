// Package quickwin synthesizes ranked sales actions from overdue reorders and
// cross-sell gaps, gated by behavioral eligibility.
package quickwin

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"sales-intelligence/internal/aggregation"
	"sales-intelligence/internal/domain"
	"sales-intelligence/internal/idhash"
)

// Defaults.
const (
	DefaultMinTrailingRevenue = 1_000.0
	DefaultLimit              = 20
)

// Thresholds.
const (
	OverdueFactor        = 1.5
	MaxReorderGapDays    = 90.0
	maxCrossSellPerEntry = 3
)

// Options tunes synthesis. Zero values take the defaults.
type Options struct {
	MinTrailingRevenue float64
	Limit              int
}

func (o Options) withDefaults() Options {
	if o.MinTrailingRevenue <= 0 {
		o.MinTrailingRevenue = DefaultMinTrailingRevenue
	}
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	return o
}

// BuildContexts assembles the per-entity synthesis input from current-window
// aggregates, behavior profiles and cross-sell gaps. Ordered by entity ID.
func BuildContexts(
	aggs aggregation.Aggregates,
	behaviors []domain.CustomerBehavior,
	crossSell []domain.CrossSellOpportunity,
	asOf time.Time,
) []domain.QuickWinContext {
	byEntity := make(map[string]domain.CustomerBehavior, len(behaviors))
	for _, b := range behaviors {
		byEntity[b.EntityID] = b
	}
	gaps := make(map[string][]domain.CrossSellOpportunity)
	for _, o := range crossSell {
		gaps[o.EntityID] = append(gaps[o.EntityID], o)
	}

	out := make([]domain.QuickWinContext, 0, len(aggs))
	for _, e := range aggs.Sorted() {
		if e.Current.Empty() {
			continue
		}
		c := domain.QuickWinContext{
			EntityID:        e.EntityID,
			EntityName:      e.EntityName,
			TrailingRevenue: e.Current.RevenueTotal.InexactFloat64(),
			DaysSinceLast:   domain.DaysBetween(e.Current.LastTransactionDate, asOf),
			OrderCount:      e.Current.OrderCount,
			CrossSellGaps:   gaps[e.EntityID],
		}
		c.TypicalOrderValue = c.TrailingRevenue / float64(c.OrderCount)
		if b, ok := byEntity[e.EntityID]; ok {
			c.AvgOrderGapDays = b.AvgOrderGapDays
		}
		out = append(out, c)
	}
	return out
}

// GenerateQuickWins emits at most one repeat-order and one cross-sell action
// per entity. An entity without a behavior profile gets no actions.
// Ranked by priority, then estimated value descending; capped at opts.Limit.
func GenerateQuickWins(
	contexts []domain.QuickWinContext,
	behaviors []domain.CustomerBehavior,
	opts Options,
) []domain.QuickWinOpportunity {
	opts = opts.withDefaults()
	byEntity := make(map[string]domain.CustomerBehavior, len(behaviors))
	for _, b := range behaviors {
		byEntity[b.EntityID] = b
	}

	var out []domain.QuickWinOpportunity
	for _, c := range contexts {
		if c.TrailingRevenue < opts.MinTrailingRevenue {
			continue
		}
		b, ok := byEntity[c.EntityID]
		if !ok {
			continue
		}
		if b.Eligibility.RepeatOrder {
			if q, ok := repeatOrder(c); ok {
				out = append(out, q)
			}
		}
		if b.Eligibility.CrossSell && len(c.CrossSellGaps) > 0 {
			out = append(out, crossSell(c))
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() < b.Priority.Rank()
		}
		if a.EstimatedValue != b.EstimatedValue {
			return a.EstimatedValue > b.EstimatedValue
		}
		if a.EntityID != b.EntityID {
			return a.EntityID < b.EntityID
		}
		return a.Type < b.Type
	})
	if len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

func repeatOrder(c domain.QuickWinContext) (domain.QuickWinOpportunity, bool) {
	gap := c.AvgOrderGapDays
	if gap <= 0 || gap >= MaxReorderGapDays || float64(c.DaysSinceLast) <= OverdueFactor*gap {
		return domain.QuickWinOpportunity{}, false
	}
	overdue := int(math.Round(float64(c.DaysSinceLast) - gap))

	return domain.QuickWinOpportunity{
		ID:             idhash.QuickWinID(string(domain.QuickWinRepeatOrder), c.EntityID, ""),
		Type:           domain.QuickWinRepeatOrder,
		Priority:       repeatPriority(c.TypicalOrderValue, overdue),
		EntityID:       c.EntityID,
		EntityName:     c.EntityName,
		ActionSummary:  fmt.Sprintf("Call %s about a reorder: %d days overdue", c.EntityName, overdue),
		EstimatedValue: c.TypicalOrderValue,
		SupportingFacts: []string{
			fmt.Sprintf("Orders every %.0f days on average", gap),
			fmt.Sprintf("Last order %d days ago", c.DaysSinceLast),
			fmt.Sprintf("Typical order value %.2f", c.TypicalOrderValue),
			fmt.Sprintf("Trailing 12-month revenue %.2f", c.TrailingRevenue),
		},
	}, true
}

func repeatPriority(value float64, overdueDays int) domain.Priority {
	switch {
	case value >= 5000 || overdueDays >= 60:
		return domain.PriorityHigh
	case value >= 1000 || overdueDays >= 30:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}

func crossSell(c domain.QuickWinContext) domain.QuickWinOpportunity {
	gaps := c.CrossSellGaps
	if len(gaps) > maxCrossSellPerEntry {
		gaps = gaps[:maxCrossSellPerEntry]
	}

	var value float64
	cats := make([]string, 0, len(gaps))
	facts := make([]string, 0, len(gaps)+1)
	for _, g := range gaps {
		value += g.EstimatedRevenue * g.AffinityScore / 100
		cats = append(cats, g.RecommendedCategory)
		facts = append(facts, fmt.Sprintf("%.0f%% of %d similar customers buy %s (avg %.2f, margin %.1f%%)",
			g.AffinityScore, g.SimilarEntityCount, g.RecommendedCategory, g.EstimatedRevenue, g.AvgMarginPct))
	}
	facts = append(facts, fmt.Sprintf("Trailing 12-month revenue %.2f", c.TrailingRevenue))

	return domain.QuickWinOpportunity{
		ID:              idhash.QuickWinID(string(domain.QuickWinCrossSell), c.EntityID, strings.Join(cats, ",")),
		Type:            domain.QuickWinCrossSell,
		Priority:        crossSellPriority(value),
		EntityID:        c.EntityID,
		EntityName:      c.EntityName,
		ActionSummary:   fmt.Sprintf("Offer %s to %s", strings.Join(cats, ", "), c.EntityName),
		EstimatedValue:  value,
		SupportingFacts: facts,
	}
}

func crossSellPriority(value float64) domain.Priority {
	switch {
	case value >= 10_000:
		return domain.PriorityHigh
	case value >= 2_500:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}
