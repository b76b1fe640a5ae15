package reporting

import "time"

// Report is the rendered view of one pipeline run.
type Report struct {
	// Metadata
	RunID         string
	EngineVersion string
	GeneratedAt   time.Time
	Window        string
	RecordsRead   int
	Truncated     bool

	Summary       SummarySection
	DataQuality   DataQualitySection
	Concentration ConcentrationSection

	// Views, in the order produced by the engine
	Alerts      []AlertRow
	QuickWins   []QuickWinRow
	Attrition   []AttritionRow
	CrossSell   []CrossSellRow
	Behaviors   []BehaviorRow
	Performance []PerformanceRow
}

// SummarySection contains the portfolio headline numbers.
type SummarySection struct {
	EntityCount        int
	CurrentRevenue     float64
	PriorRevenue       float64
	RevenueChangePct   float64
	MarginPct          float64
	TotalRevenueAtRisk float64
	StatusCounts       []CountRow // sorted by label
	SegmentCounts      []CountRow // sorted by label
}

// CountRow is one labelled count.
type CountRow struct {
	Label string
	Count int
}

// DataQualitySection contains data sufficiency checks and integrity errors.
type DataQualitySection struct {
	SufficiencyChecks []SufficiencyCheckRow
	IntegrityErrors   []string
	AllChecksPassed   bool
}

// SufficiencyCheckRow represents one sufficiency criterion.
type SufficiencyCheckRow struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// ConcentrationSection describes revenue concentration in the current window.
type ConcentrationSection struct {
	EntityCount        int
	TotalRevenue       float64
	HHIIndex           float64
	HHIBand            string
	TopCustomer        string
	TopCustomerPct     float64
	SingleCustomerRisk bool
	Top10PctShare      float64
	Top20PctShare      float64
	EntitiesFor80Pct   int
	Tiers              []TierRow
}

// TierRow is one customer tier.
type TierRow struct {
	Name         string
	Count        int
	TotalRevenue float64
	PctOfTotal   float64
}

// AlertRow is one prioritized alert.
type AlertRow struct {
	ID          string
	Priority    string
	Type        string
	Entity      string
	Title       string
	Message     string
	MetricLabel string
	MetricValue float64
}

// QuickWinRow is one ranked sales action.
type QuickWinRow struct {
	ID             string
	Priority       string
	Type           string
	EntityID       string
	EntityName     string
	Action         string
	EstimatedValue float64
	Facts          string
}

// AttritionRow is one entity's churn score.
type AttritionRow struct {
	EntityID       string
	EntityName     string
	Score          float64
	Status         string
	RevenueAtRisk  float64
	DaysSinceLast  int
	CurrentRevenue float64
	PriorRevenue   float64
	Recency        float64
	Frequency      float64
	Monetary       float64
	ProductMix     float64
}

// CrossSellRow is one recommended category.
type CrossSellRow struct {
	EntityID         string
	EntityName       string
	Category         string
	AffinityScore    float64
	SimilarEntities  int
	EstimatedRevenue float64
	AvgMarginPct     float64
}

// BehaviorRow is one entity's buying pattern.
type BehaviorRow struct {
	EntityID        string
	EntityName      string
	Segment         string
	Confidence      float64
	ProductFocus    string
	ConsistencyPct  float64
	Volatility      float64
	SeasonalMonths  string
	TotalOrders     int
	AvgOrderGapDays float64
	DaysSinceLast   int
	Attrition       bool
	CrossSell       bool
	RepeatOrder     bool
	Reason          string
}

// PerformanceRow is one entity's rolling revenue movement.
type PerformanceRow struct {
	EntityID       string
	EntityName     string
	CurrentRevenue float64
	PriorRevenue   float64
	ChangePct      float64
	Trend          string
}
