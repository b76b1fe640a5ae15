package domain

import "time"

// Segment is a buying-pattern classification.
type Segment string

const (
	SegmentSteadyRepeater Segment = "steady_repeater"
	SegmentProjectBuyer   Segment = "project_buyer"
	SegmentSeasonal       Segment = "seasonal"
	SegmentNewAccount     Segment = "new_account"
	SegmentIrregular      Segment = "irregular"
)

// ProductFocus describes basket breadth.
type ProductFocus string

const (
	FocusSingleProduct ProductFocus = "single_product"
	FocusNarrow        ProductFocus = "narrow"
	FocusDiverse       ProductFocus = "diverse"
)

// Eligibility gates which downstream insights apply to an entity.
// Set by the segmenter only.
type Eligibility struct {
	Attrition   bool
	CrossSell   bool
	RepeatOrder bool
}

// CustomerBehavior is the per-entity behavioral profile over the lookback.
type CustomerBehavior struct {
	EntityID            string
	EntityName          string
	Segment             Segment
	SegmentConfidence   float64 // 0..100
	SegmentReason       string
	ProductFocus        ProductFocus
	OrderConsistencyPct float64 // months with an order / lookback months * 100
	RevenueVolatility   float64 // coefficient of variation of order values
	SeasonalMonths      []time.Month
	Eligibility         Eligibility

	TotalOrders     int
	TotalRevenue    float64
	FirstOrder      time.Time
	LastOrder       time.Time
	DaysSinceLast   int
	AvgOrderGapDays float64
	AvgOrderValue   float64
}
