// Package cache provides a process-scoped, clearable enrichment cache keyed
// by natural entity identifiers. Instances are created and passed explicitly;
// there is no package-level cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"sales-intelligence/internal/observability"
)

// DefaultTTL bounds the lifetime of an entry when none is configured.
const DefaultTTL = time.Hour

// EnrichmentCache stores JSON-encoded values in an in-memory Badger instance.
// Every entry expires after the configured TTL; Clear drops all entries.
type EnrichmentCache struct {
	db      *badger.DB
	ttl     time.Duration
	metrics *observability.Metrics
}

// Option configures an EnrichmentCache.
type Option func(*EnrichmentCache)

// WithMetrics records hits and misses.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *EnrichmentCache) { c.metrics = m }
}

// New opens an in-memory cache whose entries live for ttl.
// A non-positive ttl uses DefaultTTL.
func New(ttl time.Duration, opts ...Option) (*EnrichmentCache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	options := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(nil)

	db, err := badger.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open enrichment cache: %w", err)
	}
	c := &EnrichmentCache{db: db, ttl: ttl}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Set stores v under key.
func (c *EnrichmentCache) Set(ctx context.Context, key string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache entry %q: %w", key, err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(key), data).WithTTL(c.ttl))
	})
}

// Get decodes the entry under key into v. It reports false when the key is
// absent or expired.
func (c *EnrichmentCache) Get(ctx context.Context, key string, v any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var data []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		c.metrics.RecordCacheLookup(false)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read cache entry %q: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode cache entry %q: %w", key, err)
	}
	c.metrics.RecordCacheLookup(true)
	return true, nil
}

// Clear drops every entry.
func (c *EnrichmentCache) Clear() error {
	return c.db.DropAll()
}

// Close releases the cache. It must not be used afterwards.
func (c *EnrichmentCache) Close() error {
	return c.db.Close()
}
