package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleAfter is how long a key may go unused before prune drops it.
const idleAfter = 10 * time.Minute

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per key (client IP, route).
type Limiter struct {
	mu      sync.Mutex
	m       map[string]*entry
	limit   rate.Limit
	burst   int
	maxKeys int
	now     func() time.Time
}

// New builds a limiter whose buckets hold capacity tokens and refill at
// refillPerSec. A non-positive capacity disables limiting.
func New(capacity, refillPerSec float64) *Limiter {
	return &Limiter{
		m:       make(map[string]*entry),
		limit:   rate.Limit(refillPerSec),
		burst:   int(capacity),
		maxKeys: 10000,
		now:     time.Now,
	}
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
	if l == nil || l.burst <= 0 {
		return true
	}
	now := l.now()

	l.mu.Lock()
	e, ok := l.m[key]
	if !ok {
		if len(l.m) >= l.maxKeys {
			l.prune(now)
		}
		e = &entry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.m[key] = e
	}
	e.lastSeen = now
	l.mu.Unlock()

	return e.limiter.AllowN(now, 1)
}

// RetryAfter is how long a drained bucket takes to earn one token back.
// Zero when limiting is off.
func (l *Limiter) RetryAfter() time.Duration {
	if l == nil || l.burst <= 0 || l.limit <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / float64(l.limit))
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}

// prune drops idle keys; caller holds mu.
func (l *Limiter) prune(now time.Time) {
	for k, e := range l.m {
		if now.Sub(e.lastSeen) > idleAfter {
			delete(l.m, k)
		}
	}
}
