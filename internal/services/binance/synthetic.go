package binance

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"SmartSignal/internal/domain/models"
	drepo "SmartSignal/internal/domain/repository"
	"SmartSignal/pkg/util"

	"github.com/shopspring/decimal"
)

const (
	syntheticMaxPrice   = 50000
	syntheticCandles    = 50
	syntheticBookLevels = 10
)

// SyntheticProvider produces random but well-formed market data. It stands
// in for the exchange when the REST API is unreachable or disabled.
type SyntheticProvider struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

var _ drepo.MarketDataProvider = (*SyntheticProvider)(nil)

// NewSyntheticProvider returns a provider seeded with seed.
func NewSyntheticProvider(seed int64) *SyntheticProvider {
	return &SyntheticProvider{rng: rand.New(rand.NewSource(seed)), now: time.Now}
}

func (p *SyntheticProvider) Name() string { return "synthetic" }

func (p *SyntheticProvider) float() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Float64()
}

func (p *SyntheticProvider) basePrice() float64 {
	v := round2(p.float() * syntheticMaxPrice)
	if v <= 0 {
		v = 0.01
	}
	return v
}

func (p *SyntheticProvider) CurrentPrice(context.Context, string) (float64, error) {
	return p.basePrice(), nil
}

// Klines walks a random path from a random start. Candles are spaced by the
// interval and end at the current bucket.
func (p *SyntheticProvider) Klines(_ context.Context, symbol string, interval drepo.Interval, limit int) ([]models.Candle, error) {
	if limit <= 0 {
		limit = syntheticCandles
	}
	step, ok := util.IntervalDuration(string(interval))
	if !ok {
		step = 15 * time.Minute
	}
	now := util.AlignDown(p.now(), step)
	sym := util.NormalizeSymbol(symbol)

	p.mu.Lock()
	defer p.mu.Unlock()

	current := p.rng.Float64() * syntheticMaxPrice
	if current <= 0 {
		current = 1
	}
	out := make([]models.Candle, 0, limit)
	for i := 0; i < limit; i++ {
		open := current
		high := open * (1 + p.rng.Float64()*0.02)
		low := open * (1 - p.rng.Float64()*0.02)
		cls := open * (0.99 + p.rng.Float64()*0.02)
		current = cls

		out = append(out, models.Candle{
			Bucket: now.Add(-time.Duration(limit-i) * step),
			Symbol: sym,
			Open:   round2(open),
			High:   round2(high),
			Low:    round2(low),
			Close:  round2(cls),
			Volume: round2(p.rng.Float64() * 10000),
		})
	}
	return out, nil
}

// OrderBook builds ten levels a tenth of a percent apart around a random base.
func (p *SyntheticProvider) OrderBook(context.Context, string, int) (models.OrderBook, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	base := p.rng.Float64() * syntheticMaxPrice
	book := models.OrderBook{
		Bids: make([]models.BookLevel, 0, syntheticBookLevels),
		Asks: make([]models.BookLevel, 0, syntheticBookLevels),
	}
	for i := 0; i < syntheticBookLevels; i++ {
		off := 0.001 * float64(i)
		book.Bids = append(book.Bids, models.BookLevel{Price: round2(base * (1 - off)), Size: round2(p.rng.Float64() * 1000)})
		book.Asks = append(book.Asks, models.BookLevel{Price: round2(base * (1 + off)), Size: round2(p.rng.Float64() * 1000)})
	}
	return book, nil
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
