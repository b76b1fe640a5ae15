package behavior

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-intelligence/internal/domain"
)

var asOf = time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func txn(entity, category string, on time.Time, revenue int64) domain.TransactionRecord {
	return domain.TransactionRecord{
		EntityID:   entity,
		EntityName: "Customer " + entity,
		Category:   category,
		OccurredOn: on,
		Revenue:    decimal.NewFromInt(revenue),
		Cost:       decimal.NewFromInt(revenue / 2),
		Quantity:   1,
	}
}

func classifyOne(t *testing.T, records []domain.TransactionRecord, at time.Time) domain.CustomerBehavior {
	t.Helper()
	got := ClassifyBehavior(records, at)
	require.Len(t, got, 1)
	return got[0]
}

func TestClassifyBehavior_ProjectBuyer(t *testing.T) {
	// Three orders totaling $50,000 within 30 days, the last 200 days ago.
	last := asOf.AddDate(0, 0, -200)
	records := []domain.TransactionRecord{
		txn("proj", "Installation", last.AddDate(0, 0, -30), 20_000),
		txn("proj", "Analytical Balances", last.AddDate(0, 0, -15), 20_000),
		txn("proj", "Installation", last, 10_000),
	}

	b := classifyOne(t, records, asOf)

	assert.Equal(t, domain.SegmentProjectBuyer, b.Segment)
	assert.False(t, b.Eligibility.Attrition)
	assert.False(t, b.Eligibility.RepeatOrder)
	assert.Equal(t, 3, b.TotalOrders)
	assert.Equal(t, 200, b.DaysSinceLast)
	assert.NotEmpty(t, b.SegmentReason)
}

func TestClassifyBehavior_SteadyRepeater(t *testing.T) {
	var records []domain.TransactionRecord
	for i := 0; i < 24; i++ {
		cat := "Pipette Tips"
		if i%2 == 1 {
			cat = "Buffer Solution"
		}
		records = append(records, txn("steady", cat, date(2022, 7, 15).AddDate(0, i, 0), 1000))
	}

	b := classifyOne(t, records, asOf)

	assert.Equal(t, domain.SegmentSteadyRepeater, b.Segment)
	assert.Equal(t, 100.0, b.OrderConsistencyPct)
	assert.Equal(t, 0.0, b.RevenueVolatility)
	assert.Equal(t, domain.FocusNarrow, b.ProductFocus)
	assert.Equal(t, domain.Eligibility{Attrition: true, CrossSell: true, RepeatOrder: true}, b.Eligibility)
	assert.Equal(t, 15, b.DaysSinceLast)
	assert.InDelta(t, 1000.0, b.AvgOrderValue, 1e-9)
	assert.Greater(t, b.AvgOrderGapDays, 29.0)
	assert.Less(t, b.AvgOrderGapDays, 32.0)
}

func TestClassifyBehavior_Seasonal(t *testing.T) {
	var records []domain.TransactionRecord
	for _, y := range []int{2022, 2023} {
		for _, m := range []time.Month{time.October, time.November, time.December} {
			records = append(records, txn("season", "Heaters", date(y, m, 10), 3000))
		}
	}

	tests := []struct {
		name   string
		at     time.Time
		repeat bool
	}{
		{"outside the season", asOf, false},
		{"month before the season", date(2024, time.August, 15), true},
		{"inside the season", date(2024, time.November, 5), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := classifyOne(t, records, tt.at)
			assert.Equal(t, domain.SegmentSeasonal, b.Segment)
			assert.Equal(t, tt.repeat, b.Eligibility.RepeatOrder)
			assert.False(t, b.Eligibility.Attrition, "seasonal silence is expected")
			assert.Contains(t, b.SeasonalMonths, time.October)
			assert.Contains(t, b.SeasonalMonths, time.December)
		})
	}
}

func TestClassifyBehavior_NewAccount(t *testing.T) {
	records := []domain.TransactionRecord{
		txn("new", "Pumps", asOf.AddDate(0, 0, -100), 500),
		txn("new", "Pumps", asOf.AddDate(0, 0, -70), 500),
		txn("new", "Pumps", asOf.AddDate(0, 0, -40), 500),
		txn("new", "Pumps", asOf.AddDate(0, 0, -10), 500),
	}
	b := classifyOne(t, records, asOf)
	assert.Equal(t, domain.SegmentNewAccount, b.Segment)
	assert.False(t, b.Eligibility.Attrition)

	few := []domain.TransactionRecord{
		txn("few", "Pumps", date(2023, 1, 1), 500),
		txn("few", "Pumps", date(2024, 1, 1), 500),
	}
	b = classifyOne(t, few, asOf)
	assert.Equal(t, domain.SegmentNewAccount, b.Segment)
}

func TestClassifyBehavior_Irregular(t *testing.T) {
	months := []time.Time{
		date(2022, 8, 3), date(2022, 11, 3), date(2023, 2, 3), date(2023, 5, 3),
		date(2023, 8, 3), date(2023, 11, 3), date(2024, 2, 3), date(2024, 5, 3),
	}
	var records []domain.TransactionRecord
	for i, d := range months {
		records = append(records, txn("irr", "Pumps", d, int64(500+i*700)))
	}

	b := classifyOne(t, records, asOf)

	assert.Equal(t, domain.SegmentIrregular, b.Segment)
	assert.True(t, b.Eligibility.Attrition, "recent with some consistency")
	assert.False(t, b.Eligibility.RepeatOrder)
	assert.Empty(t, b.SeasonalMonths)

	stale := classifyOne(t, records, asOf.AddDate(0, 7, 0))
	assert.False(t, stale.Eligibility.Attrition)
}

func TestClassifyBehavior_IgnoresHistoryBeyondLookback(t *testing.T) {
	records := []domain.TransactionRecord{
		txn("old", "Pumps", date(2021, 1, 1), 1000),
		txn("old", "Pumps", date(2024, 6, 1), 1000),
	}
	b := classifyOne(t, records, asOf)
	assert.Equal(t, 1, b.TotalOrders)
	assert.Equal(t, date(2024, 6, 1), b.FirstOrder)
}

func TestLookbackRange_TwentyFourCalendarMonths(t *testing.T) {
	r := LookbackRange(date(2024, 6, 15))
	assert.Equal(t, date(2022, 7, 1), r.Start)
	assert.Equal(t, date(2024, 6, 16), r.End)

	r = LookbackRange(date(2024, 1, 31))
	assert.Equal(t, date(2022, 2, 1), r.Start)
}

func TestClassifyBehavior_ConsistencyNeverExceedsLookback(t *testing.T) {
	// Monthly orders from June 2022; the month 24 months back falls outside.
	at := date(2024, 6, 15)
	var records []domain.TransactionRecord
	for i := 0; i < 25; i++ {
		records = append(records, txn("c", "Pipette Tips", date(2022, 6, 20).AddDate(0, i, 0), 1000))
	}
	records = append(records, txn("c", "Buffer Solution", date(2024, 6, 1), 1000))

	b := classifyOne(t, records, at)

	assert.Equal(t, 100.0, b.OrderConsistencyPct)
	assert.Equal(t, date(2022, 7, 20), b.FirstOrder)
}

func TestClassifyBehavior_ProjectBuyerNeverAttritionEligible(t *testing.T) {
	var records []domain.TransactionRecord
	for i, days := range []int{190, 250, 400, 600} {
		id := string(rune('a' + i))
		last := asOf.AddDate(0, 0, -days)
		records = append(records,
			txn(id, "Install", last.AddDate(0, 0, -60), 40_000),
			txn(id, "Install", last.AddDate(0, 0, -20), 40_000),
			txn(id, "Install", last, 40_000),
		)
	}
	for _, b := range ClassifyBehavior(records, asOf) {
		if b.Segment == domain.SegmentProjectBuyer {
			assert.False(t, b.Eligibility.Attrition, b.EntityID)
		}
	}
}

func TestClassify_FirstMatchWins(t *testing.T) {
	// Qualifies as both a new account and a project buyer.
	p := &Profile{
		OrderDays:      []time.Time{asOf, asOf, asOf},
		TotalRevenue:   50_000,
		DaysSinceFirst: 10,
		DaysSinceLast:  200,
	}
	seg, _ := Classify(p, Rules)
	assert.Equal(t, domain.SegmentNewAccount, seg)

	reordered := []Rule{Rules[1], Rules[0], Rules[2], Rules[3], Rules[4]}
	seg, v := Classify(p, reordered)
	assert.Equal(t, domain.SegmentProjectBuyer, seg)
	assert.Equal(t, 85.0, v.Confidence)

	seg, _ = Classify(p, nil)
	assert.Equal(t, domain.SegmentIrregular, seg)
}

func TestRules_LastAlwaysMatches(t *testing.T) {
	last := Rules[len(Rules)-1]
	require.Equal(t, domain.SegmentIrregular, last.Segment)
	_, ok := last.Match(&Profile{})
	assert.True(t, ok)
}

func TestBestSeason_TieBreaksToEarliestStart(t *testing.T) {
	// Orders only in March and April: Jan, Feb and Mar windows all cover 100%.
	days := []time.Time{date(2023, 3, 1), date(2023, 4, 1), date(2024, 3, 1)}
	s := bestSeason(days)
	assert.Equal(t, time.January, s.Start)
	assert.Equal(t, 1.0, s.Coverage)

	// Wrap-around: orders in December and January. Oct, Nov and Dec windows
	// all cover both; Jan-Apr misses December.
	s = bestSeason([]time.Time{date(2022, 12, 1), date(2023, 12, 2), date(2023, 1, 1)})
	assert.Equal(t, time.October, s.Start)
	assert.Equal(t, 1.0, s.Coverage)
	assert.Equal(t, []time.Month{time.October, time.November, time.December, time.January}, s.Months())
	assert.True(t, s.Contains(time.January))
	assert.False(t, s.Contains(time.February))
}

func TestProductFocus(t *testing.T) {
	tests := []struct {
		name string
		cats map[string]float64
		want domain.ProductFocus
	}{
		{"one category", map[string]float64{"a": 10}, domain.FocusSingleProduct},
		{"dominant category", map[string]float64{"a": 90, "b": 5, "c": 5}, domain.FocusSingleProduct},
		{"three balanced", map[string]float64{"a": 40, "b": 30, "c": 30}, domain.FocusNarrow},
		{"four balanced", map[string]float64{"a": 25, "b": 25, "c": 25, "d": 25}, domain.FocusDiverse},
		{"none", map[string]float64{}, domain.FocusSingleProduct},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var total float64
			for _, v := range tt.cats {
				total += v
			}
			assert.Equal(t, tt.want, productFocus(tt.cats, total))
		})
	}
}

func TestCoefficientOfVariation(t *testing.T) {
	assert.Equal(t, 0.0, coefficientOfVariation(nil))
	assert.Equal(t, 0.0, coefficientOfVariation([]float64{5}))
	assert.Equal(t, 0.0, coefficientOfVariation([]float64{3, 3, 3}))
	assert.InDelta(t, math.Sqrt2/2, coefficientOfVariation([]float64{1, 3}), 1e-12)
	assert.InDelta(t, math.Sqrt(2.5)/3, coefficientOfVariation([]float64{1, 2, 3, 4, 5}), 1e-12)
	assert.Equal(t, 0.0, coefficientOfVariation([]float64{0, 0}))
}

func TestClassifyBehavior_Deterministic(t *testing.T) {
	var records []domain.TransactionRecord
	for i := 0; i < 30; i++ {
		id := string(rune('a' + i%6))
		records = append(records, txn(id, "Cat"+id, asOf.AddDate(0, 0, -i*23), int64(100*(i+1))))
	}
	assert.Equal(t, ClassifyBehavior(records, asOf), ClassifyBehavior(records, asOf))
}
