// Package aggregation turns the paginated transaction ledger into per-entity
// window aggregates.
package aggregation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/phuslu/log"

	"sales-intelligence/internal/domain"
	"sales-intelligence/internal/observability"
	"sales-intelligence/internal/storage"
)

// SourceFetchError records a failed ledger page. It is non-fatal: the fetch
// stops at the failing page and keeps what was read before it.
type SourceFetchError struct {
	Page   int
	Offset int
	Err    error
}

func (e *SourceFetchError) Error() string {
	return fmt.Sprintf("fetch page %d (offset %d): %v", e.Page, e.Offset, e.Err)
}

func (e *SourceFetchError) Unwrap() error {
	return e.Err
}

// Snapshot is the immutable set of records read for one run.
type Snapshot struct {
	Filter    domain.TransactionFilter
	Records   []domain.TransactionRecord
	Pages     int
	Truncated bool
	Errors    []*SourceFetchError
}

// PageHook is called after each successful page.
type PageHook func(page, records int)

// Fetcher reads the ledger page by page.
type Fetcher struct {
	source   storage.TransactionSource
	pageSize int
	logger   *log.Logger
	metrics  *observability.Metrics
	onPage   PageHook
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithPageSize sets the page size. Non-positive values keep the default.
func WithPageSize(n int) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.pageSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) FetcherOption {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.Metrics) FetcherOption {
	return func(f *Fetcher) { f.metrics = m }
}

// WithPageHook registers a per-page progress callback.
func WithPageHook(h PageHook) FetcherOption {
	return func(f *Fetcher) { f.onPage = h }
}

// NewFetcher creates a Fetcher over source.
func NewFetcher(source storage.TransactionSource, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		source:   source,
		pageSize: storage.DefaultPageSize,
		logger:   &log.DefaultLogger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch reads every page matching filter until a short page.
//
// A page error truncates the fetch: it is logged, recorded in the snapshot
// and the records read so far are returned. Only an unreachable source on the
// first page, or a cancelled context, is returned as an error.
func (f *Fetcher) Fetch(ctx context.Context, filter domain.TransactionFilter) (*Snapshot, error) {
	snap := &Snapshot{Filter: filter}

	for page := 0; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		offset := page * f.pageSize
		start := time.Now()
		records, err := f.source.FetchPage(ctx, storage.PageRequest{
			Filter: filter,
			Offset: offset,
			Limit:  f.pageSize,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if page == 0 && errors.Is(err, storage.ErrSourceUnavailable) {
				return nil, fmt.Errorf("fetch transactions: %w", err)
			}
			fetchErr := &SourceFetchError{Page: page, Offset: offset, Err: err}
			snap.Errors = append(snap.Errors, fetchErr)
			snap.Truncated = true
			f.metrics.RecordPageError()
			f.logger.Warn().
				Err(err).
				Int("page", page).
				Int("offset", offset).
				Int("records_kept", len(snap.Records)).
				Msg("transaction page failed, keeping partial snapshot")
			break
		}

		f.metrics.RecordPage(len(records), time.Since(start).Seconds())
		snap.Records = append(snap.Records, records...)
		snap.Pages++
		if f.onPage != nil {
			f.onPage(page, len(records))
		}

		if len(records) < f.pageSize {
			break
		}
	}

	f.logger.Debug().
		Int("pages", snap.Pages).
		Int("records", len(snap.Records)).
		Bool("truncated", snap.Truncated).
		Msg("transaction fetch complete")

	return snap, nil
}
