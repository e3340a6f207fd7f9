package middleware

import (
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"SmartSignal/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bookEntry struct {
	price float64
	at    time.Time
}

type fakeBook struct {
	m map[string]bookEntry
}

func (b *fakeBook) Set(symbol string, price float64, at time.Time) {
	b.m[symbol] = bookEntry{price, at}
}

func (b *fakeBook) Get(symbol string) (float64, time.Time, bool) {
	e, ok := b.m[symbol]
	return e.price, e.at, ok
}

type countingMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func (m *countingMetrics) RecordSignal(string, models.ConfidenceTier) {}
func (m *countingMetrics) RecordLastPrice(string, float64)           {}
func (m *countingMetrics) RecordLatency(string, float64)             {}
func (m *countingMetrics) RecordFallback(string)                     {}
func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func newTestPipeline(opts ...PipelineOption) (*TickPipeline, *fakeBook, *countingMetrics, *time.Time) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	book := &fakeBook{m: map[string]bookEntry{}}
	metrics := &countingMetrics{errors: map[string]int{}}
	p := NewTickPipeline(book, metrics, opts...)
	p.now = func() time.Time { return now }
	return p, book, metrics, &now
}

func TestTickPipelineRejectsInvalidTicks(t *testing.T) {
	p, book, metrics, now := newTestPipeline()

	p.Set("", 100, *now)
	p.Set("BTC", 0, *now)
	p.Set("BTC", math.Inf(1), *now)
	p.Set("BTC", 100, time.Time{})
	p.Set("BTC", 100, now.Add(time.Minute))

	assert.Empty(t, book.m)
	assert.Equal(t, 5, metrics.errors["pipeline_validate"])

	p.Set("BTC", 100, now.Add(-time.Second))
	price, _, ok := p.Get("BTC")
	require.True(t, ok)
	assert.Equal(t, 100.0, price)
}

func TestTickPipelineThrottlesPerSymbol(t *testing.T) {
	p, book, metrics, now := newTestPipeline(WithMaxRPS(2))

	p.Set("BTC", 100, *now)
	p.Set("BTC", 101, *now)
	p.Set("ETH", 10, *now)
	assert.Equal(t, 100.0, book.m["BTC"].price)
	assert.Equal(t, 1, metrics.errors["pipeline_throttle"])
	assert.Equal(t, 10.0, book.m["ETH"].price)

	*now = now.Add(500 * time.Millisecond)
	p.Set("BTC", 102, *now)
	assert.Equal(t, 102.0, book.m["BTC"].price)
}

func TestTickPipelineTransform(t *testing.T) {
	p, book, _, now := newTestPipeline(WithTransform(func(t *models.PriceTick) *models.PriceTick {
		if strings.HasPrefix(strings.ToUpper(t.Symbol), "TEST") {
			return nil
		}
		t.Symbol = strings.ToUpper(t.Symbol)
		return t
	}))

	p.Set("testcoin", 1, *now)
	p.Set("sol", 150, *now)
	assert.Len(t, book.m, 1)
	assert.Equal(t, 150.0, book.m["SOL"].price)
}
