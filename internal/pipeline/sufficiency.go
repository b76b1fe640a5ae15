package pipeline

import (
	"fmt"
	"time"

	"sales-intelligence/internal/aggregation"
	"sales-intelligence/internal/behavior"
	"sales-intelligence/internal/domain"
)

// Sufficiency thresholds.
const (
	MinCurrentEntities   = 1
	MinPriorEntities     = 1
	MinHistoryMonths     = 18
	maxReportedErrorRows = 20
)

// SufficiencyCheck represents one data sufficiency criterion.
type SufficiencyCheck struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// SufficiencyResult contains all checks.
type SufficiencyResult struct {
	Checks  []SufficiencyCheck
	AllPass bool
	Errors  []string // data integrity errors
}

func (r *SufficiencyResult) add(c SufficiencyCheck, errs []string) {
	r.Checks = append(r.Checks, c)
	if !c.Pass {
		r.AllPass = false
	}
	r.Errors = append(r.Errors, errs...)
}

// CheckSufficiency evaluates whether a run's inputs support its conclusions.
// Failures never block the run; they are reported alongside the results.
func CheckSufficiency(
	snap *aggregation.Snapshot,
	behaviorSnap *aggregation.Snapshot,
	aggs aggregation.Aggregates,
	spec domain.WindowSpec,
) SufficiencyResult {
	result := SufficiencyResult{AllPass: true, Errors: []string{}}

	// Check 1: Ledger read completely
	result.add(checkComplete("Ledger read complete", snap))
	if behaviorSnap != snap {
		result.add(checkComplete("Behavior history read complete", behaviorSnap))
	}

	// Check 2: Current window has entities
	current := len(aggregation.SelectWindow(aggs, domain.WindowCurrent))
	result.add(SufficiencyCheck{
		Name:      "Entities in current window",
		Threshold: fmt.Sprintf(">= %d", MinCurrentEntities),
		Actual:    fmt.Sprintf("%d", current),
		Pass:      current >= MinCurrentEntities,
	}, nil)

	// Check 3: Prior window has entities (attrition needs a baseline)
	prior := len(aggregation.SelectWindow(aggs, domain.WindowPrior))
	result.add(SufficiencyCheck{
		Name:      "Entities in prior window",
		Threshold: fmt.Sprintf(">= %d", MinPriorEntities),
		Actual:    fmt.Sprintf("%d", prior),
		Pass:      prior >= MinPriorEntities,
	}, nil)

	// Check 4: Behavior history spans enough months for seasonality
	result.add(checkHistory(behaviorSnap, spec.AsOf))

	// Check 5: Invalid ledger rows == 0
	result.add(checkInvalid(snap))

	return result
}

func checkComplete(name string, snap *aggregation.Snapshot) (SufficiencyCheck, []string) {
	c := SufficiencyCheck{
		Name:      name,
		Threshold: "no failed pages",
		Actual:    fmt.Sprintf("%d pages, %d failed", snap.Pages, len(snap.Errors)),
		Pass:      !snap.Truncated,
	}
	var errs []string
	for _, e := range snap.Errors {
		errs = append(errs, e.Error())
	}
	return c, errs
}

func checkHistory(snap *aggregation.Snapshot, asOf time.Time) (SufficiencyCheck, []string) {
	lookback := behavior.LookbackRange(asOf)
	var earliest time.Time
	for _, r := range snap.Records {
		day := r.Day()
		if !lookback.Contains(day) {
			continue
		}
		if earliest.IsZero() || day.Before(earliest) {
			earliest = day
		}
	}
	months := 0
	if !earliest.IsZero() {
		months = monthsBetween(earliest, domain.TruncateDay(asOf))
	}
	return SufficiencyCheck{
		Name:      "Behavior history span",
		Threshold: fmt.Sprintf(">= %d months", MinHistoryMonths),
		Actual:    fmt.Sprintf("%d months", months),
		Pass:      months >= MinHistoryMonths,
	}, nil
}

func checkInvalid(snap *aggregation.Snapshot) (SufficiencyCheck, []string) {
	invalid := 0
	var errs []string
	for _, r := range snap.Records {
		if r.Valid() {
			continue
		}
		invalid++
		if len(errs) < maxReportedErrorRows {
			errs = append(errs, fmt.Sprintf("invalid ledger row: entity=%q date=%s revenue=%s cost=%s quantity=%d",
				r.EntityID, r.OccurredOn.Format(time.DateOnly), r.Revenue, r.Cost, r.Quantity))
		}
	}
	return SufficiencyCheck{
		Name:      "Invalid ledger rows",
		Threshold: "== 0",
		Actual:    fmt.Sprintf("%d", invalid),
		Pass:      invalid == 0,
	}, errs
}

func monthsBetween(a, b time.Time) int {
	m := (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
	if b.Day() < a.Day() {
		m--
	}
	if m < 0 {
		return 0
	}
	return m
}
