package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-intelligence/internal/domain"
	"sales-intelligence/internal/storage"
)

func record(entity string, day time.Time, revenue int64) domain.TransactionRecord {
	return domain.TransactionRecord{
		EntityID:   entity,
		EntityName: "Entity " + entity,
		Category:   "Reagents",
		ItemName:   "item",
		OccurredOn: day,
		Revenue:    decimal.NewFromInt(revenue),
		Cost:       decimal.NewFromInt(revenue / 2),
		Quantity:   1,
	}
}

func TestTransactionSource_FetchPageOrdersAndPaginates(t *testing.T) {
	ctx := context.Background()
	src := NewTransactionSource()

	d1 := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	d3 := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, src.InsertBulk(ctx, []domain.TransactionRecord{
		record("b", d3, 30),
		record("a", d1, 10),
		record("c", d2, 20),
	}))

	page1, err := src.FetchPage(ctx, storage.PageRequest{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, "a", page1[0].EntityID)
	assert.Equal(t, "c", page1[1].EntityID)

	page2, err := src.FetchPage(ctx, storage.PageRequest{Offset: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, "b", page2[0].EntityID)
}

func TestTransactionSource_FilterIsHalfOpen(t *testing.T) {
	ctx := context.Background()
	src := NewTransactionSource()

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, src.InsertBulk(ctx, []domain.TransactionRecord{
		record("a", start, 10),
		record("b", end, 10),
	}))

	page, err := src.FetchPage(ctx, storage.PageRequest{
		Filter: domain.TransactionFilter{Start: start, End: end},
		Limit:  10,
	})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "a", page[0].EntityID)
}

func TestTransactionSource_InsertBulkRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	src := NewTransactionSource()

	bad := record("a", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 10)
	bad.Revenue = decimal.NewFromInt(-5)

	err := src.InsertBulk(ctx, []domain.TransactionRecord{
		record("b", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 10),
		bad,
	})
	assert.True(t, errors.Is(err, storage.ErrInvalidInput))
	assert.Equal(t, 0, src.Len(), "batch must be atomic")
}

func TestTransactionSource_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTransactionSource().FetchPage(ctx, storage.PageRequest{Limit: 1})
	assert.ErrorIs(t, err, context.Canceled)
}
