package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type point struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

func TestMemoryCacheRoundTripAndExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	mc := NewMemoryCache(WithMemoryClock(clock.Now))
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "p", point{"BTC", 42}, time.Second))

	var got point
	require.NoError(t, mc.Get(ctx, "p", &got))
	assert.Equal(t, point{"BTC", 42}, got)

	clock.Advance(2 * time.Second)
	assert.ErrorIs(t, mc.Get(ctx, "p", &got), ErrCacheMiss)
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	mc := NewMemoryCache(WithMemoryMaxSize(2), WithMemoryClock(clock.Now))
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "a", 1, time.Minute))
	clock.Advance(time.Millisecond)
	require.NoError(t, mc.Set(ctx, "b", 2, time.Minute))
	clock.Advance(time.Millisecond)

	var v int
	require.NoError(t, mc.Get(ctx, "a", &v))
	clock.Advance(time.Millisecond)
	require.NoError(t, mc.Set(ctx, "c", 3, time.Minute))

	assert.Equal(t, 2, mc.Len())
	assert.ErrorIs(t, mc.Get(ctx, "b", &v), ErrCacheMiss)
	require.NoError(t, mc.Get(ctx, "a", &v))
	assert.Equal(t, 1, v)
}

func TestLayeredCacheFillsL1FromL2(t *testing.T) {
	l2 := NewMemoryCache()
	lc := NewLayeredCache(l2, WithLayeredL1TTL(time.Minute))
	defer lc.Close()
	ctx := context.Background()

	require.NoError(t, l2.Set(ctx, "k", point{"ETH", 7}, time.Minute))

	var got point
	require.NoError(t, lc.Get(ctx, "k", &got))
	assert.Equal(t, "ETH", got.Symbol)

	require.NoError(t, l2.Delete(ctx, "k"))
	require.NoError(t, lc.Get(ctx, "k", &got), "served from L1")

	require.NoError(t, lc.Delete(ctx, "k"))
	assert.ErrorIs(t, lc.Get(ctx, "k", &got), ErrCacheMiss)
}

func TestGenerateKeyWithParams(t *testing.T) {
	assert.Equal(t, "snapshot:BTC:15m:50", GenerateKeyWithParams("snapshot", "BTC", "15m", 50))
}
