package aggregation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-intelligence/internal/domain"
)

func TestAggregateWindows_Rolling(t *testing.T) {
	spec := domain.RollingWindow(day("2024-06-30"))
	records := []domain.TransactionRecord{
		rec("A", "Pumps", "2024-06-30", 100), // current, last day inclusive
		rec("A", "Pumps", "2024-06-30", 50),  // same day, same order
		rec("A", "Seals", "2024-01-15", 200), // current
		rec("A", "Pumps", "2023-03-01", 400), // prior
		rec("B", "Seals", "2023-06-30", 300), // current start bound
		rec("C", "Seals", "2023-06-29", 700), // prior end bound
		rec("D", "Seals", "2022-06-29", 900), // outside both
	}

	aggs := AggregateWindows(records, spec)

	require.Len(t, aggs, 3)
	a := aggs["A"]
	assert.True(t, a.Current.RevenueTotal.Equal(decimal.NewFromInt(350)))
	assert.Equal(t, 2, a.Current.OrderCount, "orders are distinct days")
	assert.ElementsMatch(t, []string{"Pumps", "Seals"}, a.Current.Categories.Sorted())
	assert.Equal(t, day("2024-06-30"), a.Current.LastTransactionDate)
	assert.True(t, a.Current.ByCategory["Pumps"].Revenue.Equal(decimal.NewFromInt(150)))
	assert.True(t, a.Prior.RevenueTotal.Equal(decimal.NewFromInt(400)))
	assert.Equal(t, 1, a.Prior.OrderCount)

	b := aggs["B"]
	assert.Equal(t, 1, b.Current.OrderCount)
	assert.True(t, b.Prior.Empty(), "new entity has all-zero prior")
	assert.True(t, b.Prior.RevenueTotal.IsZero())

	c := aggs["C"]
	assert.True(t, c.Current.Empty())
	assert.Equal(t, 1, c.Prior.OrderCount)
}

func TestAggregateWindows_Calendar(t *testing.T) {
	spec := domain.CalendarYears(2023, 2022, day("2024-03-01"))
	records := []domain.TransactionRecord{
		rec("A", "Pumps", "2023-12-31", 100),
		rec("A", "Pumps", "2022-01-01", 50),
		rec("A", "Pumps", "2024-01-01", 999),
	}

	aggs := AggregateWindows(records, spec)

	a := aggs["A"]
	assert.True(t, a.Current.RevenueTotal.Equal(decimal.NewFromInt(100)))
	assert.True(t, a.Prior.RevenueTotal.Equal(decimal.NewFromInt(50)))
}

func TestAggregateWindows_SkipsInvalidAndUsesLatestName(t *testing.T) {
	spec := domain.RollingWindow(day("2024-06-30"))
	bad := rec("A", "Pumps", "2024-05-01", 100)
	bad.Revenue = decimal.NewFromInt(-1)
	older := rec("A", "Pumps", "2024-01-01", 10)
	older.EntityName = "Acme Old"
	newer := rec("A", "Pumps", "2024-04-01", 10)
	newer.EntityName = "Acme Corp"

	aggs := AggregateWindows([]domain.TransactionRecord{newer, bad, older}, spec)

	require.Contains(t, aggs, "A")
	assert.Equal(t, "Acme Corp", aggs["A"].EntityName)
	assert.True(t, aggs["A"].Current.RevenueTotal.Equal(decimal.NewFromInt(20)))
}

func TestAggregateWindows_OrderIndependent(t *testing.T) {
	spec := domain.RollingWindow(day("2024-06-30"))
	records := []domain.TransactionRecord{
		rec("A", "Pumps", "2024-02-01", 100),
		rec("B", "Seals", "2024-03-01", 200),
		rec("A", "Seals", "2023-02-01", 300),
	}
	reversed := []domain.TransactionRecord{records[2], records[1], records[0]}

	assert.Equal(t, AggregateWindows(records, spec), AggregateWindows(reversed, spec))
}

func TestBuildCategoryIndex(t *testing.T) {
	spec := domain.RollingWindow(day("2024-06-30"))
	aggs := AggregateWindows([]domain.TransactionRecord{
		rec("A", "Pumps", "2024-02-01", 100),
		rec("A", "Seals", "2024-02-02", 50),
		rec("B", "Pumps", "2024-03-01", 300),
		rec("C", "Valves", "2023-01-01", 300), // prior only
	}, spec)

	idx := BuildCategoryIndex(aggs, domain.WindowCurrent)

	assert.Len(t, idx.Sets, 2)
	assert.NotContains(t, idx.Sets, "C")
	pumps := idx.Stats["Pumps"]
	assert.Equal(t, 2, pumps.BuyerCount)
	assert.True(t, pumps.Revenue.Equal(decimal.NewFromInt(400)))
	assert.True(t, pumps.Cost.Equal(decimal.NewFromInt(200)))
}

func TestSelectWindowAndTotals(t *testing.T) {
	spec := domain.RollingWindow(day("2024-06-30"))
	aggs := AggregateWindows([]domain.TransactionRecord{
		rec("B", "Pumps", "2024-02-01", 100),
		rec("A", "Pumps", "2024-02-01", 200),
		rec("C", "Pumps", "2023-02-01", 50),
	}, spec)

	cur := SelectWindow(aggs, domain.WindowCurrent)
	require.Len(t, cur, 2)
	assert.Equal(t, "A", cur[0].EntityID)

	rev, cost := Totals(aggs, domain.WindowCurrent)
	assert.True(t, rev.Equal(decimal.NewFromInt(300)))
	assert.True(t, cost.Equal(decimal.NewFromInt(150)))
}
