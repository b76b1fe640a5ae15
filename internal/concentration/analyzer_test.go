package concentration

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-intelligence/internal/domain"
)

func entity(id string, revenue string) domain.EntityAggregate {
	return domain.EntityAggregate{
		EntityID:   id,
		EntityName: "Customer " + id,
		Aggregate: domain.WindowAggregate{
			RevenueTotal: decimal.RequireFromString(revenue),
			OrderCount:   1,
		},
	}
}

func tierSum(m domain.ConcentrationMetrics) (revenue float64, count int) {
	for _, t := range m.Tiers {
		revenue += t.TotalRevenue
		count += t.Count
	}
	return revenue, count
}

func TestAnalyzeConcentration_SingleCustomerRisk(t *testing.T) {
	// Top customer holds 40%; the remaining 60% is spread over six.
	entities := []domain.EntityAggregate{entity("big", "40000")}
	for i := 0; i < 6; i++ {
		entities = append(entities, entity(fmt.Sprintf("s%d", i), "10000"))
	}

	m := AnalyzeConcentration(entities)

	assert.True(t, m.SingleCustomerRisk)
	assert.InDelta(t, 40.0, m.TopCustomerPct, 1e-9)
	assert.Equal(t, "big", m.TopCustomerID)
	assert.Equal(t, 7, m.EntityCount)
	// 40^2 + 6 * 10^2
	assert.InDelta(t, 2200.0, m.HHIIndex, 1e-6)
	assert.Equal(t, domain.HHIModerate, m.HHIBand)
}

func TestAnalyzeConcentration_EmptyAndZeroRevenue(t *testing.T) {
	for name, input := range map[string][]domain.EntityAggregate{
		"no entities":  nil,
		"zero revenue": {entity("a", "0"), entity("b", "0")},
	} {
		t.Run(name, func(t *testing.T) {
			m := AnalyzeConcentration(input)
			assert.Equal(t, 0, m.EntityCount)
			assert.Equal(t, 0.0, m.HHIIndex)
			assert.False(t, m.SingleCustomerRisk)
			require.Len(t, m.Tiers, 4)
			rev, count := tierSum(m)
			assert.Equal(t, 0.0, rev)
			assert.Equal(t, 0, count)
		})
	}
}

func TestAnalyzeConcentration_TiersByPopulation(t *testing.T) {
	// 20 entities with revenue 20, 19, ..., 1.
	var entities []domain.EntityAggregate
	for i := 1; i <= 20; i++ {
		entities = append(entities, entity(fmt.Sprintf("e%02d", i), fmt.Sprint(i)))
	}

	m := AnalyzeConcentration(entities)

	require.Len(t, m.Tiers, 4)
	assert.Equal(t, domain.TierPlatinum, m.Tiers[0].Name)
	assert.Equal(t, 1, m.Tiers[0].Count)
	assert.Equal(t, 3, m.Tiers[1].Count)
	assert.Equal(t, 6, m.Tiers[2].Count)
	assert.Equal(t, 10, m.Tiers[3].Count)
	assert.Equal(t, 20.0, m.Tiers[0].TotalRevenue)
	assert.Equal(t, 19.0+18+17, m.Tiers[1].TotalRevenue)

	rev, count := tierSum(m)
	assert.InDelta(t, m.TotalRevenue, rev, 1e-6)
	assert.Equal(t, m.EntityCount, count)
}

func TestAnalyzeConcentration_TierInvariantAcrossSizes(t *testing.T) {
	for n := 1; n <= 45; n++ {
		var entities []domain.EntityAggregate
		for i := 0; i < n; i++ {
			entities = append(entities, entity(fmt.Sprintf("e%03d", i), fmt.Sprintf("%d.37", (i*7919)%1000+1)))
		}
		m := AnalyzeConcentration(entities)

		rev, count := tierSum(m)
		assert.InDelta(t, m.TotalRevenue, rev, 1e-6, "n=%d", n)
		assert.Equal(t, n, count, "n=%d", n)
		assert.GreaterOrEqual(t, m.Tiers[0].Count, 1, "n=%d", n)
		assert.GreaterOrEqual(t, m.HHIIndex, 0.0)
		assert.LessOrEqual(t, m.HHIIndex, 10000.0)
	}
}

func TestAnalyzeConcentration_Pareto(t *testing.T) {
	entities := []domain.EntityAggregate{
		entity("a", "500"),
		entity("b", "300"),
		entity("c", "100"),
		entity("d", "50"),
		entity("e", "50"),
	}

	m := AnalyzeConcentration(entities)

	assert.Equal(t, 1, m.Pareto.Top10PctCount)
	assert.InDelta(t, 50.0, m.Pareto.Top10PctShare, 1e-9)
	assert.Equal(t, 1, m.Pareto.Top20PctCount)
	assert.Equal(t, 2, m.Pareto.EntitiesFor80Pct)
	assert.InDelta(t, 40.0, m.Pareto.PopulationFor80, 1e-9)
}

func TestAnalyzeConcentration_Monopoly(t *testing.T) {
	m := AnalyzeConcentration([]domain.EntityAggregate{entity("only", "123.45")})

	assert.InDelta(t, 10000.0, m.HHIIndex, 1e-6)
	assert.Equal(t, domain.HHIConcentrated, m.HHIBand)
	assert.Equal(t, 1, m.Tiers[0].Count)
	assert.Equal(t, 0, m.Tiers[3].Count)
}

func TestBand(t *testing.T) {
	assert.Equal(t, domain.HHIDiversified, band(1499.9))
	assert.Equal(t, domain.HHIModerate, band(1500))
	assert.Equal(t, domain.HHIModerate, band(2500))
	assert.Equal(t, domain.HHIConcentrated, band(2500.1))
}
