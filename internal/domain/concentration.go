package domain

// HHIBand buckets a Herfindahl-Hirschman index.
type HHIBand string

const (
	HHIDiversified  HHIBand = "diversified"  // < 1500
	HHIModerate     HHIBand = "moderate"     // 1500..2500
	HHIConcentrated HHIBand = "concentrated" // > 2500
)

// TierName is a population-percentile customer tier.
type TierName string

const (
	TierPlatinum TierName = "platinum"
	TierGold     TierName = "gold"
	TierSilver   TierName = "silver"
	TierBronze   TierName = "bronze"
)

// Tier is one band of the tiered segment breakdown.
type Tier struct {
	Name         TierName
	Count        int
	TotalRevenue float64
	PctOfTotal   float64
}

// ParetoBreakdown reports revenue share by population percentile.
type ParetoBreakdown struct {
	Top10PctCount    int
	Top10PctShare    float64 // % of revenue
	Top20PctCount    int
	Top20PctShare    float64 // % of revenue
	EntitiesFor80Pct int     // minimum entities reaching 80% of revenue
	PopulationFor80  float64 // EntitiesFor80Pct as % of entities
}

// ConcentrationMetrics is the whole-portfolio snapshot for one window.
type ConcentrationMetrics struct {
	EntityCount        int
	TotalRevenue       float64
	HHIIndex           float64 // 0..10000
	HHIBand            HHIBand
	Pareto             ParetoBreakdown
	TopCustomerID      string
	TopCustomerName    string
	TopCustomerPct     float64
	SingleCustomerRisk bool
	Tiers              []Tier // platinum, gold, silver, bronze
}
