// Package alerts thresholds attrition, concentration and rolling performance
// into a prioritized alert list.
package alerts

import (
	"fmt"
	"math"
	"sort"

	"sales-intelligence/internal/domain"
	"sales-intelligence/internal/idhash"
)

// Defaults.
const (
	DefaultMinRevenueAtRisk = 100_000.0
	DefaultDeclinePct       = -30.0
	DefaultMinPriorRevenue  = 50_000.0
	DefaultGrowthPct        = 50.0
	DefaultMinGrowthRevenue = 50_000.0
	severeDeclinePct        = -50.0
)

// Metric labels.
const (
	LabelRevenueAtRisk  = "revenue_at_risk"
	LabelTopCustomerPct = "top_customer_pct"
	LabelHHI            = "hhi_index"
	LabelChangePct      = "change_pct"
)

// Options holds alert thresholds. Zero values take the defaults.
type Options struct {
	MinRevenueAtRisk float64
	DeclinePct       float64 // negative
	MinPriorRevenue  float64
	GrowthPct        float64
	MinGrowthRevenue float64
}

func (o Options) withDefaults() Options {
	if o.MinRevenueAtRisk <= 0 {
		o.MinRevenueAtRisk = DefaultMinRevenueAtRisk
	}
	if o.DeclinePct >= 0 {
		o.DeclinePct = DefaultDeclinePct
	}
	if o.MinPriorRevenue <= 0 {
		o.MinPriorRevenue = DefaultMinPriorRevenue
	}
	if o.GrowthPct <= 0 {
		o.GrowthPct = DefaultGrowthPct
	}
	if o.MinGrowthRevenue <= 0 {
		o.MinGrowthRevenue = DefaultMinGrowthRevenue
	}
	return o
}

// GenerateAlerts builds the alert list. Attrition alerts require a behavior
// profile that is attrition-eligible; decline alerts skip project buyers.
// Sorted by priority, type, metric magnitude descending, then ID.
func GenerateAlerts(
	attrition []domain.AttritionScore,
	concentration domain.ConcentrationMetrics,
	performance []domain.RollingPerformance,
	behaviors []domain.CustomerBehavior,
	opts Options,
) []domain.InsightAlert {
	opts = opts.withDefaults()
	byEntity := make(map[string]domain.CustomerBehavior, len(behaviors))
	for _, b := range behaviors {
		byEntity[b.EntityID] = b
	}

	var out []domain.InsightAlert

	for _, s := range attrition {
		if s.Status != domain.StatusAtRisk || s.RevenueAtRisk <= opts.MinRevenueAtRisk {
			continue
		}
		b, ok := byEntity[s.EntityID]
		if !ok || !b.Eligibility.Attrition {
			continue
		}
		out = append(out, newAlert(
			domain.AlertAttritionRisk, domain.PriorityHigh, s.EntityID,
			fmt.Sprintf("Attrition risk: %s", s.EntityName),
			fmt.Sprintf("%s scores %.0f/100 (%d days since last order); %.2f revenue at risk",
				s.EntityName, s.Score, s.DaysSinceLast, s.RevenueAtRisk),
			s.RevenueAtRisk, LabelRevenueAtRisk,
		))
	}

	if concentration.SingleCustomerRisk {
		out = append(out, newAlert(
			domain.AlertConcentrationRisk, domain.PriorityHigh, concentration.TopCustomerID,
			fmt.Sprintf("Revenue concentration: %s", concentration.TopCustomerName),
			fmt.Sprintf("%s accounts for %.1f%% of revenue", concentration.TopCustomerName, concentration.TopCustomerPct),
			concentration.TopCustomerPct, LabelTopCustomerPct,
		))
	}
	if concentration.HHIBand == domain.HHIConcentrated {
		out = append(out, newAlert(
			domain.AlertPortfolioHHI, domain.PriorityMedium, "",
			"Portfolio is highly concentrated",
			fmt.Sprintf("HHI %.0f across %d customers", concentration.HHIIndex, concentration.EntityCount),
			concentration.HHIIndex, LabelHHI,
		))
	}

	for _, p := range performance {
		switch {
		case p.ChangePct < opts.DeclinePct && p.PriorRevenue > opts.MinPriorRevenue:
			if b, ok := byEntity[p.EntityID]; ok && b.Segment == domain.SegmentProjectBuyer {
				continue
			}
			priority := domain.PriorityMedium
			if p.ChangePct < severeDeclinePct {
				priority = domain.PriorityHigh
			}
			out = append(out, newAlert(
				domain.AlertRevenueDecline, priority, p.EntityID,
				fmt.Sprintf("Revenue decline: %s", p.EntityName),
				fmt.Sprintf("%s revenue fell %.1f%% (%.2f to %.2f)",
					p.EntityName, -p.ChangePct, p.PriorRevenue, p.CurrentRevenue),
				p.ChangePct, LabelChangePct,
			))
		case p.Trend == domain.TrendGrowing && p.ChangePct > opts.GrowthPct && p.CurrentRevenue > opts.MinGrowthRevenue:
			out = append(out, newAlert(
				domain.AlertRevenueGrowth, domain.PriorityLow, p.EntityID,
				fmt.Sprintf("Revenue growth: %s", p.EntityName),
				fmt.Sprintf("%s revenue grew %.1f%% (%.2f to %.2f)",
					p.EntityName, p.ChangePct, p.PriorRevenue, p.CurrentRevenue),
				p.ChangePct, LabelChangePct,
			))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() < b.Priority.Rank()
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		ma, mb := math.Abs(a.MetricValue), math.Abs(b.MetricValue)
		if ma != mb {
			return ma > mb
		}
		return a.ID < b.ID
	})
	return out
}

func newAlert(t domain.AlertType, p domain.Priority, entityRef, title, msg string, value float64, label string) domain.InsightAlert {
	return domain.InsightAlert{
		ID:          idhash.AlertID(string(t), entityRef, label, value),
		Type:        t,
		Priority:    p,
		Title:       title,
		Message:     msg,
		MetricValue: value,
		MetricLabel: label,
		EntityRef:   entityRef,
	}
}
