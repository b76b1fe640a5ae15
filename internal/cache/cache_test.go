package cache

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-intelligence/internal/observability"
)

type profile struct {
	Name    string  `json:"name"`
	Revenue float64 `json:"revenue"`
}

func newCache(t *testing.T, ttl time.Duration, opts ...Option) *EnrichmentCache {
	t.Helper()
	c, err := New(ttl, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestEnrichmentCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := newCache(t, time.Minute)

	require.NoError(t, c.Set(ctx, "entity:C-1", profile{Name: "Acme", Revenue: 12.5}))

	var got profile
	ok, err := c.Get(ctx, "entity:C-1", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, profile{Name: "Acme", Revenue: 12.5}, got)

	ok, err = c.Get(ctx, "entity:missing", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEnrichmentCache_Clear(t *testing.T) {
	ctx := context.Background()
	c := newCache(t, time.Minute)
	require.NoError(t, c.Set(ctx, "a", 1))
	require.NoError(t, c.Set(ctx, "b", 2))

	require.NoError(t, c.Clear())

	var v int
	ok, err := c.Get(ctx, "a", &v)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEnrichmentCache_Expires(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for TTL expiry")
	}
	ctx := context.Background()
	c := newCache(t, time.Second)
	require.NoError(t, c.Set(ctx, "a", 1))

	time.Sleep(2 * time.Second)

	var v int
	ok, err := c.Get(ctx, "a", &v)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEnrichmentCache_InstancesAreIsolated(t *testing.T) {
	ctx := context.Background()
	a := newCache(t, time.Minute)
	b := newCache(t, time.Minute)
	require.NoError(t, a.Set(ctx, "k", "only in a"))

	var v string
	ok, err := b.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEnrichmentCache_Metrics(t *testing.T) {
	ctx := context.Background()
	m := observability.NewMetrics("test", prometheus.NewRegistry())
	c := newCache(t, time.Minute, WithMetrics(m))
	require.NoError(t, c.Set(ctx, "k", 1))

	var v int
	_, _ = c.Get(ctx, "k", &v)
	_, _ = c.Get(ctx, "nope", &v)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))
}

func TestEnrichmentCache_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := newCache(t, time.Minute)

	assert.ErrorIs(t, c.Set(ctx, "k", 1), context.Canceled)
	var v int
	_, err := c.Get(ctx, "k", &v)
	assert.ErrorIs(t, err, context.Canceled)
}
