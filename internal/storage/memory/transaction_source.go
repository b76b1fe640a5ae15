package memory

import (
	"context"
	"sort"
	"sync"

	"sales-intelligence/internal/domain"
	"sales-intelligence/internal/storage"
)

// TransactionSource is an in-memory implementation of storage.TransactionSource
// and storage.TransactionWriter.
type TransactionSource struct {
	mu     sync.RWMutex
	data   []domain.TransactionRecord
	sorted bool
}

// NewTransactionSource creates an in-memory ledger.
func NewTransactionSource() *TransactionSource {
	return &TransactionSource{sorted: true}
}

// Compile-time interface checks.
var (
	_ storage.TransactionSource = (*TransactionSource)(nil)
	_ storage.TransactionWriter = (*TransactionSource)(nil)
)

// InsertBulk adds records atomically. Fails entire batch on any invalid record.
func (s *TransactionSource) InsertBulk(_ context.Context, records []domain.TransactionRecord) error {
	if len(records) == 0 {
		return nil
	}

	// First pass: validate
	for _, r := range records {
		if !r.Valid() {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Second pass: insert copies
	for _, r := range records {
		r.OccurredOn = r.Day()
		s.data = append(s.data, r)
	}
	s.sorted = false
	return nil
}

// FetchPage returns one page of records matching req.Filter.
func (s *TransactionSource) FetchPage(ctx context.Context, req storage.PageRequest) ([]domain.TransactionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Offset < 0 || req.Limit < 0 {
		return nil, storage.ErrInvalidInput
	}
	limit := req.Limit
	if limit == 0 {
		limit = storage.DefaultPageSize
	}

	s.ensureSorted()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var page []domain.TransactionRecord
	skipped := 0
	for _, r := range s.data {
		if !req.Filter.Contains(r.OccurredOn) {
			continue
		}
		if skipped < req.Offset {
			skipped++
			continue
		}
		page = append(page, r)
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

// Len returns the number of stored records.
func (s *TransactionSource) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// ensureSorted orders records by (occurred_on, entity_id, insertion order).
func (s *TransactionSource) ensureSorted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sorted {
		return
	}
	sort.SliceStable(s.data, func(i, j int) bool {
		if !s.data[i].OccurredOn.Equal(s.data[j].OccurredOn) {
			return s.data[i].OccurredOn.Before(s.data[j].OccurredOn)
		}
		return s.data[i].EntityID < s.data[j].EntityID
	})
	s.sorted = true
}
