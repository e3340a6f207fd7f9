package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"SmartSignal/internal/domain/models"
	domrepo "SmartSignal/internal/domain/repository"
	"SmartSignal/internal/repository"
	"SmartSignal/internal/services/engine"
	"SmartSignal/pkg/logger"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func risingCandles(n int) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		c := 100 + float64(i)
		out[i] = models.Candle{
			Bucket: fixedNow.Add(time.Duration(i-n) * 15 * time.Minute),
			Open:   c - 0.5,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 100,
		}
	}
	return out
}

type fakeProvider struct {
	mu      sync.Mutex
	price   float64
	candles []models.Candle
	failFor map[string]error
	calls   int
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) CurrentPrice(_ context.Context, symbol string) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if err := p.failFor[symbol]; err != nil {
		return 0, err
	}
	return p.price, nil
}

func (p *fakeProvider) Klines(_ context.Context, symbol string, _ domrepo.Interval, _ int) ([]models.Candle, error) {
	if err := p.failFor[symbol]; err != nil {
		return nil, err
	}
	return p.candles, nil
}

func (p *fakeProvider) OrderBook(context.Context, string, int) (models.OrderBook, error) {
	return models.OrderBook{Bids: []models.BookLevel{{Price: 99, Size: 1}}}, nil
}

func (p *fakeProvider) priceCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type fakeInsight struct {
	err   error
	calls int
}

func (f *fakeInsight) Generate(_ context.Context, s models.TradingSignal, rr float64) (models.Insight, error) {
	f.calls++
	if f.err != nil {
		return models.Insight{}, f.err
	}
	return models.Insight{Analysis: "insight for " + s.Symbol, Confidence: 95, Source: "fallback"}, nil
}

type fakePublisher struct {
	mu      sync.Mutex
	reports []*models.SignalReport
	err     error
}

func (p *fakePublisher) Publish(_ context.Context, r *models.SignalReport) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reports = append(p.reports, r)
	return p.err
}

func (p *fakePublisher) Close() error { return nil }

type fakeMetrics struct {
	mu      sync.Mutex
	signals map[string]models.ConfidenceTier
	errors  []string
	prices  map[string]float64
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{signals: map[string]models.ConfidenceTier{}, prices: map[string]float64{}}
}

func (m *fakeMetrics) RecordSignal(symbol string, tier models.ConfidenceTier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signals[symbol] = tier
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, kind)
}

func (m *fakeMetrics) RecordLastPrice(symbol string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[symbol] = price
}

func (m *fakeMetrics) RecordLatency(string, float64) {}
func (m *fakeMetrics) RecordFallback(string)         {}

type failingStore struct {
	*repository.MemorySignalStore
}

func (failingStore) Save(context.Context, *models.SignalRecord) error {
	return errors.New("db down")
}

type harness struct {
	uc        *SignalsUseCase
	provider  *fakeProvider
	insight   *fakeInsight
	store     *repository.MemorySignalStore
	archive   *repository.MemorySignalArchive
	publisher *fakePublisher
	metrics   *fakeMetrics
}

func newHarness(opts ...func(*harness)) *harness {
	h := &harness{
		provider:  &fakeProvider{price: 125, candles: risingCandles(30)},
		insight:   &fakeInsight{},
		store:     repository.NewMemorySignalStore(),
		archive:   repository.NewMemorySignalArchive(100),
		publisher: &fakePublisher{},
		metrics:   newFakeMetrics(),
	}
	for _, o := range opts {
		o(h)
	}
	eng, err := engine.New(engine.DefaultParams(), engine.WithClock(func() time.Time { return fixedNow }))
	if err != nil {
		panic(err)
	}
	loader := NewSnapshotLoader(h.provider, nil, h.metrics, time.Second, 0, 10)
	h.uc = NewSignalsUseCase(loader, eng, h.insight, h.store, h.archive, h.publisher, h.metrics, logger.Nop(),
		SignalsConfig{ScanMaxSymbols: 3, ScanConcurrency: 2})
	h.uc.now = func() time.Time { return fixedNow }
	h.uc.seeds = func() int64 { return 99 }
	return h
}
