package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"sales-intelligence/internal/domain"
	"sales-intelligence/internal/storage"
)

// TransactionSource implements storage.TransactionSource over a ClickHouse
// sales_transactions MergeTree table. Decimal columns scan straight into
// decimal.Decimal.
type TransactionSource struct {
	conn *Conn
}

// NewTransactionSource creates a new TransactionSource.
func NewTransactionSource(conn *Conn) *TransactionSource {
	return &TransactionSource{conn: conn}
}

// Compile-time interface checks.
var (
	_ storage.TransactionSource = (*TransactionSource)(nil)
	_ storage.TransactionWriter = (*TransactionSource)(nil)
)

// farFuture bounds open-ended filters; ClickHouse Date tops out in 2149.
var farFuture = time.Date(2149, time.January, 1, 0, 0, 0, 0, time.UTC)

// FetchPage returns one page of the ledger within req.Filter.
func (s *TransactionSource) FetchPage(ctx context.Context, req storage.PageRequest) ([]domain.TransactionRecord, error) {
	if req.Offset < 0 || req.Limit < 0 {
		return nil, storage.ErrInvalidInput
	}
	limit := req.Limit
	if limit == 0 {
		limit = storage.DefaultPageSize
	}

	start := time.Unix(0, 0).UTC()
	if !req.Filter.Start.IsZero() {
		start = domain.TruncateDay(req.Filter.Start)
	}
	end := farFuture
	if !req.Filter.End.IsZero() {
		end = domain.TruncateDay(req.Filter.End)
	}

	query := `
		SELECT entity_id, entity_name, category, item_name, item_description,
		       occurred_on, revenue, cost, quantity
		FROM sales_transactions
		WHERE occurred_on >= ? AND occurred_on < ?
		ORDER BY occurred_on ASC, entity_id ASC, row_id ASC
		LIMIT ? OFFSET ?
	`

	rows, err := s.conn.Query(ctx, query, start, end, limit, req.Offset)
	if err != nil {
		return nil, fmt.Errorf("query transactions page: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// InsertBulk appends records in a single batch.
func (s *TransactionSource) InsertBulk(ctx context.Context, records []domain.TransactionRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		if !r.Valid() {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO sales_transactions (
			entity_id, entity_name, category, item_name, item_description,
			occurred_on, revenue, cost, quantity
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range records {
		err := batch.Append(
			r.EntityID,
			r.EntityName,
			r.Category,
			r.ItemName,
			r.ItemDescription,
			r.Day(),
			r.Revenue,
			r.Cost,
			r.Quantity,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

func scanTransactions(rows driver.Rows) ([]domain.TransactionRecord, error) {
	var records []domain.TransactionRecord

	for rows.Next() {
		var r domain.TransactionRecord
		err := rows.Scan(
			&r.EntityID,
			&r.EntityName,
			&r.Category,
			&r.ItemName,
			&r.ItemDescription,
			&r.OccurredOn,
			&r.Revenue,
			&r.Cost,
			&r.Quantity,
		)
		if err != nil {
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
