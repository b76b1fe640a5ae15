package behavior

import (
	"fmt"
	"math"

	"sales-intelligence/internal/domain"
)

// Segment rule thresholds.
const (
	NewAccountDays        = 180
	NewAccountMinOrders   = 3
	ProjectMaxOrders      = 3
	ProjectMinRevenue     = 10_000.0
	ProjectQuietDays      = 180
	ProjectMaxSpanDays    = 90
	SteadyMinConsistency  = 40.0
	SteadyMaxVolatility   = 1.5
	SteadyMaxSilenceDays  = 90
	SeasonalMinCoverage   = 0.60
	SeasonalMaxConsistent = 50.0
)

// Verdict is a matched rule's confidence (0..100) and explanation.
type Verdict struct {
	Confidence float64
	Reason     string
}

// Rule assigns Segment to profiles accepted by Match.
type Rule struct {
	Segment domain.Segment
	Match   func(p *Profile) (Verdict, bool)
}

// Rules is evaluated top to bottom; the first match wins. The last rule
// always matches.
var Rules = []Rule{
	{Segment: domain.SegmentNewAccount, Match: matchNewAccount},
	{Segment: domain.SegmentProjectBuyer, Match: matchProjectBuyer},
	{Segment: domain.SegmentSteadyRepeater, Match: matchSteadyRepeater},
	{Segment: domain.SegmentSeasonal, Match: matchSeasonal},
	{Segment: domain.SegmentIrregular, Match: matchIrregular},
}

// Classify applies rules to p and returns the first matching segment.
func Classify(p *Profile, rules []Rule) (domain.Segment, Verdict) {
	for _, r := range rules {
		if v, ok := r.Match(p); ok {
			return r.Segment, v
		}
	}
	return domain.SegmentIrregular, Verdict{Confidence: 0, Reason: "no rule matched"}
}

func matchNewAccount(p *Profile) (Verdict, bool) {
	switch {
	case p.DaysSinceFirst < NewAccountDays:
		return Verdict{
			Confidence: 90,
			Reason:     fmt.Sprintf("first order %d days ago", p.DaysSinceFirst),
		}, true
	case p.Orders() < NewAccountMinOrders:
		return Verdict{
			Confidence: 70,
			Reason:     fmt.Sprintf("only %d orders in %d months", p.Orders(), LookbackMonths),
		}, true
	}
	return Verdict{}, false
}

func isSeasonal(p *Profile) bool {
	return p.Season.Coverage >= SeasonalMinCoverage && p.ConsistencyPct < SeasonalMaxConsistent
}

func matchProjectBuyer(p *Profile) (Verdict, bool) {
	if p.Orders() > ProjectMaxOrders ||
		p.TotalRevenue <= ProjectMinRevenue ||
		p.DaysSinceLast <= ProjectQuietDays ||
		p.SpanDays > ProjectMaxSpanDays {
		return Verdict{}, false
	}
	return Verdict{
		Confidence: 85,
		Reason: fmt.Sprintf("%d orders worth %.0f within %d days, quiet for %d days",
			p.Orders(), p.TotalRevenue, p.SpanDays, p.DaysSinceLast),
	}, true
}

func matchSteadyRepeater(p *Profile) (Verdict, bool) {
	if p.ConsistencyPct < SteadyMinConsistency ||
		p.Volatility >= SteadyMaxVolatility ||
		p.DaysSinceLast >= SteadyMaxSilenceDays {
		return Verdict{}, false
	}
	conf := clamp(50+p.ConsistencyPct/2-p.Volatility*10, 50, 95)
	return Verdict{
		Confidence: conf,
		Reason: fmt.Sprintf("ordered in %.0f%% of months, volatility %.2f, last order %d days ago",
			p.ConsistencyPct, p.Volatility, p.DaysSinceLast),
	}, true
}

func matchSeasonal(p *Profile) (Verdict, bool) {
	if !isSeasonal(p) {
		return Verdict{}, false
	}
	months := p.Season.Months()
	return Verdict{
		Confidence: clamp(p.Season.Coverage*100, 0, 100),
		Reason: fmt.Sprintf("%.0f%% of orders fall in %s-%s",
			p.Season.Coverage*100, months[0].String()[:3], months[len(months)-1].String()[:3]),
	}, true
}

func matchIrregular(p *Profile) (Verdict, bool) {
	return Verdict{
		Confidence: 50,
		Reason:     fmt.Sprintf("no stable pattern across %d orders", p.Orders()),
	}, true
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
