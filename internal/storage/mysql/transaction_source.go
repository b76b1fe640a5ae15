package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sales-intelligence/internal/domain"
	"sales-intelligence/internal/storage"
)

// TransactionSource implements storage.TransactionSource over database/sql.
type TransactionSource struct {
	db *sql.DB
}

// NewTransactionSource creates a new TransactionSource.
func NewTransactionSource(db *sql.DB) *TransactionSource {
	return &TransactionSource{db: db}
}

// Compile-time interface checks.
var (
	_ storage.TransactionSource = (*TransactionSource)(nil)
	_ storage.TransactionWriter = (*TransactionSource)(nil)
)

// maxDate bounds open-ended filters.
var maxDate = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// FetchPage returns one page of the ledger within req.Filter.
func (s *TransactionSource) FetchPage(ctx context.Context, req storage.PageRequest) ([]domain.TransactionRecord, error) {
	if req.Offset < 0 || req.Limit < 0 {
		return nil, storage.ErrInvalidInput
	}
	limit := req.Limit
	if limit == 0 {
		limit = storage.DefaultPageSize
	}

	start := time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	if !req.Filter.Start.IsZero() {
		start = domain.TruncateDay(req.Filter.Start)
	}
	end := maxDate
	if !req.Filter.End.IsZero() {
		end = domain.TruncateDay(req.Filter.End)
	}

	const layout = "2006-01-02"
	rows, err := s.db.QueryContext(ctx, `
		SELECT entity_id, entity_name, category, item_name, item_description,
		       occurred_on, revenue, cost, quantity
		FROM sales_transactions
		WHERE occurred_on >= ? AND occurred_on < ?
		ORDER BY occurred_on ASC, entity_id ASC, id ASC
		LIMIT ? OFFSET ?
	`, start.Format(layout), end.Format(layout), limit, req.Offset)
	if err != nil {
		return nil, fmt.Errorf("query transactions page: %w", err)
	}
	defer rows.Close()

	var records []domain.TransactionRecord
	for rows.Next() {
		var r domain.TransactionRecord
		if err := rows.Scan(
			&r.EntityID,
			&r.EntityName,
			&r.Category,
			&r.ItemName,
			&r.ItemDescription,
			&r.OccurredOn,
			&r.Revenue,
			&r.Cost,
			&r.Quantity,
		); err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		r.OccurredOn = domain.TruncateDay(r.OccurredOn)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return records, nil
}

// InsertBulk adds records in one transaction. Fails entire batch on any invalid record.
func (s *TransactionSource) InsertBulk(ctx context.Context, records []domain.TransactionRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		if !r.Valid() {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sales_transactions (
			entity_id, entity_name, category, item_name, item_description,
			occurred_on, revenue, cost, quantity
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.EntityID,
			r.EntityName,
			r.Category,
			r.ItemName,
			r.ItemDescription,
			r.Day().Format("2006-01-02"),
			r.Revenue.String(),
			r.Cost.String(),
			r.Quantity,
		); err != nil {
			return fmt.Errorf("insert transaction in bulk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
