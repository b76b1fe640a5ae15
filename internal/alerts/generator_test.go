package alerts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-intelligence/internal/domain"
)

func atRisk(id string, rar float64) domain.AttritionScore {
	return domain.AttritionScore{
		EntityID:      id,
		EntityName:    "Customer " + id,
		Score:         80,
		Status:        domain.StatusAtRisk,
		RevenueAtRisk: rar,
		DaysSinceLast: 200,
	}
}

func behavior(id string, seg domain.Segment, attritionEligible bool) domain.CustomerBehavior {
	return domain.CustomerBehavior{
		EntityID:    id,
		Segment:     seg,
		Eligibility: domain.Eligibility{Attrition: attritionEligible},
	}
}

func ofType(alerts []domain.InsightAlert, t domain.AlertType) []domain.InsightAlert {
	var out []domain.InsightAlert
	for _, a := range alerts {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

func TestGenerateAlerts_Attrition(t *testing.T) {
	scores := []domain.AttritionScore{
		atRisk("steady", 150_000),
		atRisk("project", 400_000),
		atRisk("small", 90_000),
		atRisk("unprofiled", 300_000),
		{EntityID: "churned", Status: domain.StatusChurned, RevenueAtRisk: 500_000},
	}
	behaviors := []domain.CustomerBehavior{
		behavior("steady", domain.SegmentSteadyRepeater, true),
		behavior("project", domain.SegmentProjectBuyer, false),
		behavior("small", domain.SegmentSteadyRepeater, true),
		behavior("churned", domain.SegmentSteadyRepeater, true),
	}

	got := ofType(GenerateAlerts(scores, domain.ConcentrationMetrics{}, nil, behaviors, Options{}), domain.AlertAttritionRisk)

	require.Len(t, got, 1)
	a := got[0]
	assert.Equal(t, "steady", a.EntityRef)
	assert.Equal(t, domain.PriorityHigh, a.Priority)
	assert.Equal(t, 150_000.0, a.MetricValue)
	assert.Equal(t, LabelRevenueAtRisk, a.MetricLabel)
	assert.NotEmpty(t, a.ID)
}

func TestGenerateAlerts_ProjectBuyerNeverInAttritionAlerts(t *testing.T) {
	scores := []domain.AttritionScore{atRisk("p", 1_000_000)}
	behaviors := []domain.CustomerBehavior{behavior("p", domain.SegmentProjectBuyer, false)}

	got := GenerateAlerts(scores, domain.ConcentrationMetrics{}, nil, behaviors, Options{})
	assert.Empty(t, ofType(got, domain.AlertAttritionRisk))
}

func TestGenerateAlerts_Concentration(t *testing.T) {
	m := domain.ConcentrationMetrics{
		EntityCount:        4,
		HHIIndex:           3100,
		HHIBand:            domain.HHIConcentrated,
		TopCustomerID:      "big",
		TopCustomerName:    "Big Co",
		TopCustomerPct:     45,
		SingleCustomerRisk: true,
	}

	got := GenerateAlerts(nil, m, nil, nil, Options{})

	require.Len(t, got, 2)
	assert.Equal(t, domain.AlertConcentrationRisk, got[0].Type)
	assert.Equal(t, domain.PriorityHigh, got[0].Priority)
	assert.Equal(t, "big", got[0].EntityRef)
	assert.Equal(t, 45.0, got[0].MetricValue)
	assert.Equal(t, domain.AlertPortfolioHHI, got[1].Type)
	assert.Equal(t, domain.PriorityMedium, got[1].Priority)
	assert.Empty(t, got[1].EntityRef)
}

func TestGenerateAlerts_RollingPerformance(t *testing.T) {
	perf := []domain.RollingPerformance{
		{EntityID: "drop", EntityName: "Drop", PriorRevenue: 100_000, CurrentRevenue: 60_000, ChangePct: -40, Trend: domain.TrendDeclining},
		{EntityID: "crash", PriorRevenue: 200_000, CurrentRevenue: 20_000, ChangePct: -90, Trend: domain.TrendDeclining},
		{EntityID: "lost", PriorRevenue: 80_000, ChangePct: -100, Trend: domain.TrendLost},
		{EntityID: "tiny", PriorRevenue: 40_000, CurrentRevenue: 1_000, ChangePct: -97.5, Trend: domain.TrendDeclining},
		{EntityID: "project", PriorRevenue: 500_000, ChangePct: -100, Trend: domain.TrendLost},
		{EntityID: "mild", PriorRevenue: 100_000, CurrentRevenue: 80_000, ChangePct: -20, Trend: domain.TrendDeclining},
		{EntityID: "boom", PriorRevenue: 60_000, CurrentRevenue: 120_000, ChangePct: 100, Trend: domain.TrendGrowing},
		{EntityID: "new", CurrentRevenue: 900_000, ChangePct: 100, Trend: domain.TrendNew},
	}
	behaviors := []domain.CustomerBehavior{behavior("project", domain.SegmentProjectBuyer, false)}

	got := GenerateAlerts(nil, domain.ConcentrationMetrics{}, perf, behaviors, Options{})

	declines := ofType(got, domain.AlertRevenueDecline)
	require.Len(t, declines, 3)
	assert.Equal(t, "lost", declines[0].EntityRef)
	assert.Equal(t, domain.PriorityHigh, declines[0].Priority)
	assert.Equal(t, "crash", declines[1].EntityRef)
	assert.Equal(t, "drop", declines[2].EntityRef)
	assert.Equal(t, domain.PriorityMedium, declines[2].Priority)

	growth := ofType(got, domain.AlertRevenueGrowth)
	require.Len(t, growth, 1)
	assert.Equal(t, "boom", growth[0].EntityRef)
	assert.Equal(t, domain.PriorityLow, growth[0].Priority)
}

func TestGenerateAlerts_PrioritySortedAndDeterministic(t *testing.T) {
	scores := []domain.AttritionScore{atRisk("a", 200_000)}
	behaviors := []domain.CustomerBehavior{behavior("a", domain.SegmentIrregular, true)}
	m := domain.ConcentrationMetrics{HHIBand: domain.HHIConcentrated, HHIIndex: 2600, SingleCustomerRisk: true, TopCustomerID: "a", TopCustomerPct: 30}
	perf := []domain.RollingPerformance{
		{EntityID: "g", PriorRevenue: 60_000, CurrentRevenue: 100_000, ChangePct: 66, Trend: domain.TrendGrowing},
		{EntityID: "d", PriorRevenue: 60_000, CurrentRevenue: 40_000, ChangePct: -33, Trend: domain.TrendDeclining},
	}

	first := GenerateAlerts(scores, m, perf, behaviors, Options{})
	second := GenerateAlerts(scores, m, perf, behaviors, Options{})

	assert.Equal(t, first, second)
	require.Len(t, first, 5)
	for i := 1; i < len(first); i++ {
		assert.LessOrEqual(t, first[i-1].Priority.Rank(), first[i].Priority.Rank())
	}
	assert.Equal(t, domain.PriorityLow, first[len(first)-1].Priority)
}

func TestGenerateAlerts_ThresholdOverrides(t *testing.T) {
	scores := []domain.AttritionScore{atRisk("a", 60_000)}
	behaviors := []domain.CustomerBehavior{behavior("a", domain.SegmentSteadyRepeater, true)}

	assert.Empty(t, GenerateAlerts(scores, domain.ConcentrationMetrics{}, nil, behaviors, Options{}))
	assert.Len(t, GenerateAlerts(scores, domain.ConcentrationMetrics{}, nil, behaviors, Options{MinRevenueAtRisk: 50_000}), 1)
}
