package binance

import (
	"context"
	"sync"
	"time"

	drepo "SmartSignal/internal/domain/repository"
	"SmartSignal/pkg/util"
)

type quote struct {
	price float64
	at    time.Time
}

// PriceBook is a concurrency-safe last-price table keyed by asset symbol.
type PriceBook struct {
	mu     sync.RWMutex
	prices map[string]quote
}

var _ drepo.PriceBook = (*PriceBook)(nil)

func NewPriceBook() *PriceBook {
	return &PriceBook{prices: make(map[string]quote)}
}

func (b *PriceBook) Set(symbol string, price float64, at time.Time) {
	if price <= 0 {
		return
	}
	sym := util.NormalizeSymbol(symbol)
	b.mu.Lock()
	defer b.mu.Unlock()
	// out-of-order ticks never overwrite a newer price
	if cur, ok := b.prices[sym]; ok && cur.at.After(at) {
		return
	}
	b.prices[sym] = quote{price: price, at: at}
}

func (b *PriceBook) Get(symbol string) (float64, time.Time, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	q, ok := b.prices[util.NormalizeSymbol(symbol)]
	return q.price, q.at, ok
}

// StreamPriceProvider answers CurrentPrice from the live PriceBook when its
// quote is fresh and delegates everything else.
type StreamPriceProvider struct {
	drepo.MarketDataProvider
	book         drepo.PriceBook
	maxStaleness time.Duration
	now          func() time.Time
}

func NewStreamPriceProvider(next drepo.MarketDataProvider, book drepo.PriceBook, maxStaleness time.Duration) *StreamPriceProvider {
	return &StreamPriceProvider{MarketDataProvider: next, book: book, maxStaleness: maxStaleness, now: time.Now}
}

func (p *StreamPriceProvider) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	if price, at, ok := p.book.Get(symbol); ok && p.now().Sub(at) <= p.maxStaleness {
		drepo.RecordSource(ctx, p.MarketDataProvider.Name())
		return price, nil
	}
	return p.MarketDataProvider.CurrentPrice(ctx, symbol)
}
