package storage

import (
	"context"

	"sales-intelligence/internal/domain"
)

// DefaultPageSize is the page size used when a request leaves Limit unset.
const DefaultPageSize = 1000

// PageRequest addresses one page of a filtered ledger read.
type PageRequest struct {
	Filter domain.TransactionFilter
	Offset int
	Limit  int
}

// TransactionSource is a read-only, paginated view over the transaction ledger.
// Pages are ordered by (occurred_on ASC, entity_id ASC, row key ASC) so that
// offset pagination is stable across calls.
type TransactionSource interface {
	// FetchPage returns at most req.Limit records starting at req.Offset.
	// A page shorter than req.Limit marks the end of the stream.
	// Returns ErrSourceUnavailable when the backend cannot be reached at all.
	FetchPage(ctx context.Context, req PageRequest) ([]domain.TransactionRecord, error)
}

// TransactionWriter loads ledger rows. Used by fixtures and tests only;
// the analytics engine never writes.
type TransactionWriter interface {
	// InsertBulk adds records atomically. Fails the batch on any invalid record.
	InsertBulk(ctx context.Context, records []domain.TransactionRecord) error
}
