// Package behavior classifies each entity's buying rhythm over a 24-month
// lookback and derives the eligibility flags other analyses honor.
package behavior

import (
	"math"
	"sort"
	"time"

	"sales-intelligence/internal/domain"
)

// LookbackMonths is the behavior history length.
const LookbackMonths = 24

// seasonSpan is the number of consecutive months in a seasonal window.
const seasonSpan = 4

// Season is the best 4-month window of an entity's orders.
type Season struct {
	Start    time.Month
	Coverage float64 // share of orders inside the window, 0..1
}

// Months returns the calendar months of the window in order.
func (s Season) Months() []time.Month {
	out := make([]time.Month, 0, seasonSpan)
	for i := 0; i < seasonSpan; i++ {
		out = append(out, monthAdd(s.Start, i))
	}
	return out
}

// Contains reports whether m falls in the window.
func (s Season) Contains(m time.Month) bool {
	for i := 0; i < seasonSpan; i++ {
		if monthAdd(s.Start, i) == m {
			return true
		}
	}
	return false
}

// Profile holds the derived statistics the segment rules evaluate.
type Profile struct {
	EntityID   string
	EntityName string
	AsOf       time.Time

	OrderDays       []time.Time // distinct, ascending
	OrderValues     []float64   // revenue per order day
	TotalRevenue    float64
	CategoryRevenue map[string]float64

	FirstOrder     time.Time
	LastOrder      time.Time
	DaysSinceFirst int
	DaysSinceLast  int
	SpanDays       int // first to last order
	AvgGapDays     float64

	ConsistencyPct float64
	Volatility     float64
	Focus          domain.ProductFocus
	Season         Season
}

// Orders returns the number of distinct order days.
func (p *Profile) Orders() int {
	return len(p.OrderDays)
}

// AvgOrderValue returns revenue per order.
func (p *Profile) AvgOrderValue() float64 {
	if len(p.OrderDays) == 0 {
		return 0
	}
	return p.TotalRevenue / float64(len(p.OrderDays))
}

// LookbackRange returns the 24 calendar months ending with asOf's month,
// through asOf inclusive, as a half-open day range.
func LookbackRange(asOf time.Time) domain.DateRange {
	day := domain.TruncateDay(asOf)
	start := time.Date(day.Year(), day.Month()-(LookbackMonths-1), 1, 0, 0, 0, 0, day.Location())
	return domain.DateRange{Start: start, End: day.AddDate(0, 0, 1)}
}

// BuildProfiles groups records inside the lookback by entity and derives
// their statistics. Invalid records are ignored.
func BuildProfiles(records []domain.TransactionRecord, asOf time.Time) map[string]*Profile {
	asOf = domain.TruncateDay(asOf)
	lookback := LookbackRange(asOf)

	type acc struct {
		name    string
		nameDay time.Time
		byDay   map[time.Time]float64
		byCat   map[string]float64
	}
	accs := make(map[string]*acc)
	for _, r := range records {
		if !r.Valid() {
			continue
		}
		day := r.Day()
		if !lookback.Contains(day) {
			continue
		}
		a, ok := accs[r.EntityID]
		if !ok {
			a = &acc{byDay: map[time.Time]float64{}, byCat: map[string]float64{}}
			accs[r.EntityID] = a
		}
		if r.EntityName != "" && (a.name == "" || day.After(a.nameDay) || (day.Equal(a.nameDay) && r.EntityName > a.name)) {
			a.name, a.nameDay = r.EntityName, day
		}
		rev := r.Revenue.InexactFloat64()
		a.byDay[day] += rev
		if r.Category != "" {
			a.byCat[r.Category] += rev
		}
	}

	out := make(map[string]*Profile, len(accs))
	for id, a := range accs {
		p := &Profile{
			EntityID:        id,
			EntityName:      a.name,
			AsOf:            asOf,
			CategoryRevenue: a.byCat,
		}
		if p.EntityName == "" {
			p.EntityName = id
		}
		for d := range a.byDay {
			p.OrderDays = append(p.OrderDays, d)
		}
		sort.Slice(p.OrderDays, func(i, j int) bool { return p.OrderDays[i].Before(p.OrderDays[j]) })
		for _, d := range p.OrderDays {
			v := a.byDay[d]
			p.OrderValues = append(p.OrderValues, v)
			p.TotalRevenue += v
		}
		p.derive()
		out[id] = p
	}
	return out
}

func (p *Profile) derive() {
	n := len(p.OrderDays)
	if n == 0 {
		return
	}
	p.FirstOrder = p.OrderDays[0]
	p.LastOrder = p.OrderDays[n-1]
	p.DaysSinceFirst = domain.DaysBetween(p.FirstOrder, p.AsOf)
	p.DaysSinceLast = domain.DaysBetween(p.LastOrder, p.AsOf)
	p.SpanDays = domain.DaysBetween(p.FirstOrder, p.LastOrder)
	if n > 1 {
		p.AvgGapDays = float64(p.SpanDays) / float64(n-1)
	}

	months := make(map[[2]int]struct{})
	for _, d := range p.OrderDays {
		months[[2]int{d.Year(), int(d.Month())}] = struct{}{}
	}
	p.ConsistencyPct = float64(len(months)) / LookbackMonths * 100
	p.Volatility = coefficientOfVariation(p.OrderValues)
	p.Focus = productFocus(p.CategoryRevenue, p.TotalRevenue)
	p.Season = bestSeason(p.OrderDays)
}

// coefficientOfVariation is the sample stddev over the mean; 0 with fewer
// than two values or a non-positive mean.
func coefficientOfVariation(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	if mean <= 0 {
		return 0
	}
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq/float64(len(values)-1)) / mean
}

func productFocus(byCat map[string]float64, total float64) domain.ProductFocus {
	if len(byCat) <= 1 {
		return domain.FocusSingleProduct
	}
	if total > 0 {
		var top float64
		for _, v := range byCat {
			top = math.Max(top, v)
		}
		if top/total > 0.80 {
			return domain.FocusSingleProduct
		}
	}
	if len(byCat) <= 3 {
		return domain.FocusNarrow
	}
	return domain.FocusDiverse
}

// bestSeason tests all twelve 4-month windows and keeps the highest order
// coverage. Ties go to the earliest starting month.
func bestSeason(days []time.Time) Season {
	if len(days) == 0 {
		return Season{Start: time.January}
	}
	var perMonth [13]int
	for _, d := range days {
		perMonth[d.Month()]++
	}
	best := Season{Start: time.January, Coverage: -1}
	for start := time.January; start <= time.December; start++ {
		inside := 0
		for i := 0; i < seasonSpan; i++ {
			inside += perMonth[monthAdd(start, i)]
		}
		coverage := float64(inside) / float64(len(days))
		if coverage > best.Coverage {
			best = Season{Start: start, Coverage: coverage}
		}
	}
	return best
}

func monthAdd(m time.Month, n int) time.Month {
	return time.Month((int(m)-1+n)%12 + 1)
}
