package domain

// AttritionStatus labels an entity's churn risk.
type AttritionStatus string

const (
	StatusActive    AttritionStatus = "active"
	StatusDeclining AttritionStatus = "declining"
	StatusAtRisk    AttritionStatus = "at_risk"
	StatusChurned   AttritionStatus = "churned"
)

// ComponentScores holds the weighted inputs of an attrition score, each 0..100.
type ComponentScores struct {
	Recency    float64
	Frequency  float64
	Monetary   float64
	ProductMix float64
}

// AttritionScore is the per-entity churn risk computed from two windows.
// Computed fresh each invocation; never stored.
type AttritionScore struct {
	EntityID        string
	EntityName      string
	Score           float64 // 0..100
	Status          AttritionStatus
	Components      ComponentScores
	RevenueAtRisk   float64
	DaysSinceLast   int
	FrequencyChange float64 // (current - prior) / prior orders
	RevenueChange   float64 // (current - prior) / prior revenue
	CurrentRevenue  float64
	PriorRevenue    float64
}
