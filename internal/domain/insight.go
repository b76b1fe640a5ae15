package domain

// Priority orders actions and alerts. Lower rank sorts first.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank returns the sort rank of p; unknown priorities sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// QuickWinType is the kind of synthesized sales action.
type QuickWinType string

const (
	QuickWinRepeatOrder QuickWinType = "repeat_order"
	QuickWinCrossSell   QuickWinType = "cross_sell"
)

// QuickWinContext is the per-entity input of the quick-win synthesizer.
type QuickWinContext struct {
	EntityID          string
	EntityName        string
	TrailingRevenue   float64 // last 12 months
	DaysSinceLast     int
	AvgOrderGapDays   float64
	TypicalOrderValue float64
	OrderCount        int
	CrossSellGaps     []CrossSellOpportunity // sorted by estimated revenue desc
}

// QuickWinOpportunity is a ranked, actionable sales recommendation.
type QuickWinOpportunity struct {
	ID              string
	Type            QuickWinType
	Priority        Priority
	EntityID        string
	EntityName      string
	ActionSummary   string
	EstimatedValue  float64
	SupportingFacts []string
}

// AlertType classifies an insight alert.
type AlertType string

const (
	AlertAttritionRisk     AlertType = "attrition_risk"
	AlertConcentrationRisk AlertType = "concentration_risk"
	AlertPortfolioHHI      AlertType = "portfolio_concentration"
	AlertRevenueDecline    AlertType = "revenue_decline"
	AlertRevenueGrowth     AlertType = "revenue_growth"
)

// InsightAlert is one entry of the prioritized summary alert list.
type InsightAlert struct {
	ID          string
	Type        AlertType
	Priority    Priority
	Title       string
	Message     string
	MetricValue float64
	MetricLabel string
	EntityRef   string // empty for portfolio-level alerts
}

// Trend classifies rolling revenue movement.
type Trend string

const (
	TrendGrowing   Trend = "growing"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
	TrendNew       Trend = "new"
	TrendLost      Trend = "lost"
)

// RollingPerformance compares an entity's current and prior window revenue.
type RollingPerformance struct {
	EntityID       string
	EntityName     string
	CurrentRevenue float64
	PriorRevenue   float64
	ChangePct      float64 // 100 for new entities, -100 for lost ones
	Trend          Trend
}

// PortfolioSummary is the headline view of one run.
type PortfolioSummary struct {
	EntityCount        int
	CurrentRevenue     float64
	PriorRevenue       float64
	RevenueChangePct   float64
	MarginPct          float64
	StatusCounts       map[AttritionStatus]int
	SegmentCounts      map[Segment]int
	TotalRevenueAtRisk float64
}
