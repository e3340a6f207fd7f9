package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SmartSignal/internal/domain/models"
	domrepo "SmartSignal/internal/domain/repository"
	"SmartSignal/pkg/cache"
)

// SnapshotLoader assembles a MarketSnapshot from the provider, fetching
// price, klines and depth concurrently under one timeout.
type SnapshotLoader struct {
	provider   domrepo.MarketDataProvider
	cache      domrepo.SnapshotCache
	metrics    domrepo.Metrics
	timeout    time.Duration
	cacheTTL   time.Duration
	depthLimit int
}

func NewSnapshotLoader(provider domrepo.MarketDataProvider, snapCache domrepo.SnapshotCache, metrics domrepo.Metrics, timeout, cacheTTL time.Duration, depthLimit int) *SnapshotLoader {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if depthLimit <= 0 {
		depthLimit = 100
	}
	return &SnapshotLoader{
		provider:   provider,
		cache:      snapCache,
		metrics:    metrics,
		timeout:    timeout,
		cacheTTL:   cacheTTL,
		depthLimit: depthLimit,
	}
}

func snapshotKey(symbol string, interval domrepo.Interval, limit int) string {
	return cache.GenerateKeyWithParams("snapshot", symbol, string(interval), limit)
}

// Load returns a cached snapshot when one is fresh, otherwise fetches one.
func (l *SnapshotLoader) Load(ctx context.Context, symbol string, interval domrepo.Interval, limit int) (*models.MarketSnapshot, error) {
	key := snapshotKey(symbol, interval, limit)
	if l.cache != nil && l.cacheTTL > 0 {
		if snap, ok := l.cache.Get(ctx, key); ok {
			return snap, nil
		}
	}

	start := time.Now()
	snap, err := l.fetch(ctx, symbol, interval, limit)
	l.metrics.RecordLatency("snapshot_fetch", time.Since(start).Seconds())
	if err != nil {
		l.metrics.RecordError("snapshot_fetch")
		return nil, err
	}

	if l.cache != nil && l.cacheTTL > 0 {
		_ = l.cache.Set(ctx, key, snap, l.cacheTTL)
	}
	return snap, nil
}

func (l *SnapshotLoader) fetch(ctx context.Context, symbol string, interval domrepo.Interval, limit int) (*models.MarketSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	ctx, trace := domrepo.WithSourceTrace(ctx)

	type item struct {
		name string
		val  interface{}
		err  error
	}
	ch := make(chan item, 3)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := l.provider.CurrentPrice(ctx, symbol)
		ch <- item{"price", v, err}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := l.provider.Klines(ctx, symbol, interval, limit)
		ch <- item{"klines", v, err}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := l.provider.OrderBook(ctx, symbol, l.depthLimit)
		ch <- item{"depth", v, err}
	}()

	go func() { wg.Wait(); close(ch) }()

	snap := &models.MarketSnapshot{Symbol: symbol}
	var firstErr error
	for it := range ch {
		if it.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("fetch %s for %s: %w", it.name, symbol, it.err)
			}
			continue
		}
		switch it.name {
		case "price":
			snap.Price = it.val.(float64)
		case "klines":
			snap.Candles = it.val.([]models.Candle)
		case "depth":
			snap.OrderBook = it.val.(models.OrderBook)
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	// Providers that do not report fall back to the configured name.
	snap.Source = trace.String()
	if snap.Source == "" {
		snap.Source = l.provider.Name()
	}
	return snap, nil
}
