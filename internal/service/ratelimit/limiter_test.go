package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowConsumesBurstThenRefills(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(2, 1)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("5.6.7.8"), "keys have separate buckets")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"))
}

func TestZeroCapacityDisablesLimiting(t *testing.T) {
	l := New(0, 0)
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("k"))
	}
	var nilLimiter *Limiter
	assert.True(t, nilLimiter.Allow("k"))
}

func TestPruneDropsIdleKeys(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(5, 1)
	l.maxKeys = 2
	l.now = func() time.Time { return now }

	l.Allow("a")
	l.Allow("b")
	now = now.Add(idleAfter + time.Second)
	l.Allow("c")

	assert.Equal(t, 1, l.Len())
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, 2*time.Second, New(5, 0.5).RetryAfter())
	assert.Equal(t, 250*time.Millisecond, New(5, 4).RetryAfter())
	assert.Zero(t, New(0, 1).RetryAfter())

	var nilLimiter *Limiter
	assert.Zero(t, nilLimiter.RetryAfter())
}
