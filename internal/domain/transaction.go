package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRecord is one ledger line as read from the transaction source.
// Records are immutable facts; the engine never mutates them.
type TransactionRecord struct {
	EntityID        string          // customer natural key
	EntityName      string          // display name
	Category        string          // product class
	ItemName        string          // item / SKU name
	ItemDescription string          // free-form item description
	OccurredOn      time.Time       // transaction date (day granularity, UTC)
	Revenue         decimal.Decimal // >= 0
	Cost            decimal.Decimal // >= 0
	Quantity        int64           // >= 0
}

// Day returns OccurredOn truncated to midnight UTC.
func (t TransactionRecord) Day() time.Time {
	return TruncateDay(t.OccurredOn)
}

// Valid reports whether the record satisfies the ledger invariants.
func (t TransactionRecord) Valid() bool {
	return t.EntityID != "" &&
		!t.OccurredOn.IsZero() &&
		!t.Revenue.IsNegative() &&
		!t.Cost.IsNegative() &&
		t.Quantity >= 0
}

// TransactionFilter restricts a source read to the half-open range [Start, End).
// A zero bound is unbounded on that side.
type TransactionFilter struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether day falls inside the filter.
func (f TransactionFilter) Contains(day time.Time) bool {
	if !f.Start.IsZero() && day.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && !day.Before(f.End) {
		return false
	}
	return true
}

// TruncateDay normalizes t to midnight UTC.
func TruncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns whole days from a to b (b - a), both truncated to days.
func DaysBetween(a, b time.Time) int {
	return int(TruncateDay(b).Sub(TruncateDay(a)).Hours() / 24)
}
