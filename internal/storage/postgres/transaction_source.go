package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"sales-intelligence/internal/domain"
	"sales-intelligence/internal/storage"
)

// TransactionSource implements storage.TransactionSource over the
// sales_transactions table.
type TransactionSource struct {
	pool *Pool
}

// NewTransactionSource creates a new TransactionSource.
func NewTransactionSource(pool *Pool) *TransactionSource {
	return &TransactionSource{pool: pool}
}

// Compile-time interface checks.
var (
	_ storage.TransactionSource = (*TransactionSource)(nil)
	_ storage.TransactionWriter = (*TransactionSource)(nil)
)

// FetchPage returns one page of the ledger within req.Filter.
// Numeric columns are read as text to keep full decimal precision.
func (s *TransactionSource) FetchPage(ctx context.Context, req storage.PageRequest) ([]domain.TransactionRecord, error) {
	if req.Offset < 0 || req.Limit < 0 {
		return nil, storage.ErrInvalidInput
	}
	limit := req.Limit
	if limit == 0 {
		limit = storage.DefaultPageSize
	}

	query := `
		SELECT entity_id, entity_name, category, item_name, item_description,
		       occurred_on, revenue::text, cost::text, quantity
		FROM sales_transactions
		WHERE ($1::date IS NULL OR occurred_on >= $1::date)
		  AND ($2::date IS NULL OR occurred_on < $2::date)
		ORDER BY occurred_on ASC, entity_id ASC, id ASC
		OFFSET $3 LIMIT $4
	`

	rows, err := s.pool.Query(ctx, query,
		nullableDate(req.Filter.Start),
		nullableDate(req.Filter.End),
		req.Offset,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query transactions page: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// InsertBulk adds multiple records atomically. Fails entire batch on any invalid record.
func (s *TransactionSource) InsertBulk(ctx context.Context, records []domain.TransactionRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		if !r.Valid() {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO sales_transactions (
			entity_id, entity_name, category, item_name, item_description,
			occurred_on, revenue, cost, quantity
		) VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8::numeric, $9)
	`

	for _, r := range records {
		_, err := tx.Exec(ctx, query,
			r.EntityID,
			r.EntityName,
			r.Category,
			r.ItemName,
			r.ItemDescription,
			r.Day(),
			r.Revenue.String(),
			r.Cost.String(),
			r.Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert transaction in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// scanTransactions scans multiple rows into a slice of TransactionRecord.
func scanTransactions(rows pgx.Rows) ([]domain.TransactionRecord, error) {
	var records []domain.TransactionRecord

	for rows.Next() {
		var (
			r                   domain.TransactionRecord
			revenueStr, costStr string
			occurredOn          time.Time
		)
		err := rows.Scan(
			&r.EntityID,
			&r.EntityName,
			&r.Category,
			&r.ItemName,
			&r.ItemDescription,
			&occurredOn,
			&revenueStr,
			&costStr,
			&r.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}

		if r.Revenue, err = decimal.NewFromString(revenueStr); err != nil {
			return nil, fmt.Errorf("parse revenue %q: %w", revenueStr, err)
		}
		if r.Cost, err = decimal.NewFromString(costStr); err != nil {
			return nil, fmt.Errorf("parse cost %q: %w", costStr, err)
		}
		r.OccurredOn = domain.TruncateDay(occurredOn)

		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}

	return records, nil
}

// nullableDate maps a zero bound to SQL NULL.
func nullableDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	d := domain.TruncateDay(t)
	return &d
}
