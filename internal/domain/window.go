package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// WindowKind selects how comparison windows are derived.
type WindowKind string

const (
	// WindowRolling compares the trailing 12 months with the 12 months before.
	WindowRolling WindowKind = "rolling"
	// WindowCalendar compares two explicit calendar years.
	WindowCalendar WindowKind = "calendar"
)

// Window identifies one side of a comparison.
type Window string

const (
	WindowCurrent Window = "current"
	WindowPrior   Window = "prior"
)

// DateRange is a half-open day range [Start, End).
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether day falls in [Start, End).
func (r DateRange) Contains(day time.Time) bool {
	return !day.Before(r.Start) && day.Before(r.End)
}

// WindowSpec describes the current/prior comparison windows of one run.
type WindowSpec struct {
	Kind        WindowKind
	AsOf        time.Time // reference day for recency; "today" for rolling
	CurrentYear int       // calendar only
	PriorYear   int       // calendar only
}

// RollingWindow returns the canonical rolling-12-month spec anchored at asOf.
func RollingWindow(asOf time.Time) WindowSpec {
	return WindowSpec{Kind: WindowRolling, AsOf: TruncateDay(asOf)}
}

// CalendarYears compares two calendar years. Recency is measured from the
// last day of the current year, or from asOf when that is earlier.
func CalendarYears(current, prior int, asOf time.Time) WindowSpec {
	ref := time.Date(current, time.December, 31, 0, 0, 0, 0, time.UTC)
	if !asOf.IsZero() && TruncateDay(asOf).Before(ref) {
		ref = TruncateDay(asOf)
	}
	return WindowSpec{Kind: WindowCalendar, AsOf: ref, CurrentYear: current, PriorYear: prior}
}

// CalendarYearsFromList builds a calendar spec from a list of years. The
// latest year is current, the one before it prior. A single year is compared
// with the year preceding it.
func CalendarYearsFromList(years []int, asOf time.Time) (WindowSpec, error) {
	if len(years) == 0 {
		return WindowSpec{}, fmt.Errorf("calendar window: no years given")
	}
	ys := append([]int(nil), years...)
	sort.Ints(ys)
	current := ys[len(ys)-1]
	prior := current - 1
	if len(ys) > 1 {
		prior = ys[len(ys)-2]
	}
	if prior == current {
		return WindowSpec{}, fmt.Errorf("calendar window: duplicate year %d", current)
	}
	return CalendarYears(current, prior, asOf), nil
}

// Ranges returns the current and prior day ranges.
//
// Rolling: current = [asOf-12mo, asOf], prior = [asOf-24mo, asOf-12mo).
func (s WindowSpec) Ranges() (current, prior DateRange) {
	if s.Kind == WindowCalendar {
		current = DateRange{
			Start: time.Date(s.CurrentYear, time.January, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(s.CurrentYear+1, time.January, 1, 0, 0, 0, 0, time.UTC),
		}
		prior = DateRange{
			Start: time.Date(s.PriorYear, time.January, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(s.PriorYear+1, time.January, 1, 0, 0, 0, 0, time.UTC),
		}
		return current, prior
	}
	asOf := TruncateDay(s.AsOf)
	yearAgo := asOf.AddDate(-1, 0, 0)
	current = DateRange{Start: yearAgo, End: asOf.AddDate(0, 0, 1)}
	prior = DateRange{Start: asOf.AddDate(-2, 0, 0), End: yearAgo}
	return current, prior
}

// Filter returns the source filter covering both windows.
func (s WindowSpec) Filter() TransactionFilter {
	cur, prior := s.Ranges()
	start, end := cur.Start, cur.End
	if prior.Start.Before(start) {
		start = prior.Start
	}
	if prior.End.After(end) {
		end = prior.End
	}
	return TransactionFilter{Start: start, End: end}
}

// String renders the spec for logs and reports.
func (s WindowSpec) String() string {
	if s.Kind == WindowCalendar {
		return fmt.Sprintf("calendar %d vs %d", s.CurrentYear, s.PriorYear)
	}
	return fmt.Sprintf("rolling 12m as of %s", s.AsOf.Format("2006-01-02"))
}

// CategorySet is a set of product categories.
type CategorySet map[string]struct{}

// NewCategorySet builds a set from names.
func NewCategorySet(names ...string) CategorySet {
	s := make(CategorySet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s CategorySet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns members in ascending order.
func (s CategorySet) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// CategoryTotals is an entity's spend on one category within a window.
type CategoryTotals struct {
	Revenue decimal.Decimal
	Cost    decimal.Decimal
}

// WindowAggregate summarizes one entity over one window.
// Derived on every run; never persisted.
type WindowAggregate struct {
	RevenueTotal        decimal.Decimal
	CostTotal           decimal.Decimal
	OrderCount          int // distinct order days
	Categories          CategorySet
	ByCategory          map[string]CategoryTotals
	LastTransactionDate time.Time // zero when the window is empty
}

// Empty reports whether the entity had no activity in the window.
func (a WindowAggregate) Empty() bool {
	return a.OrderCount == 0
}

// EntityWindows pairs an entity's current and prior aggregates.
type EntityWindows struct {
	EntityID   string
	EntityName string
	Current    WindowAggregate
	Prior      WindowAggregate
}

// LastTransactionDate returns the most recent activity across both windows.
func (e *EntityWindows) LastTransactionDate() time.Time {
	if e.Current.LastTransactionDate.After(e.Prior.LastTransactionDate) {
		return e.Current.LastTransactionDate
	}
	return e.Prior.LastTransactionDate
}

// Window returns the aggregate for w.
func (e *EntityWindows) Window(w Window) WindowAggregate {
	if w == WindowPrior {
		return e.Prior
	}
	return e.Current
}

// EntityAggregate is one entity's aggregate for a single window.
type EntityAggregate struct {
	EntityID   string
	EntityName string
	Aggregate  WindowAggregate
}
