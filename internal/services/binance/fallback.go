package binance

import (
	"context"

	"SmartSignal/internal/domain/models"
	drepo "SmartSignal/internal/domain/repository"
	"SmartSignal/pkg/logger"
)

// FallbackProvider serves data from primary and, per call, switches to the
// secondary source when primary fails.
type FallbackProvider struct {
	primary   drepo.MarketDataProvider
	secondary drepo.MarketDataProvider
	enabled   bool
	metrics   drepo.Metrics
	log       *logger.Logger
}

var _ drepo.MarketDataProvider = (*FallbackProvider)(nil)

// NewFallbackProvider wraps primary. With enabled=false primary errors are
// returned unchanged.
func NewFallbackProvider(primary, secondary drepo.MarketDataProvider, enabled bool, metrics drepo.Metrics, log *logger.Logger) *FallbackProvider {
	return &FallbackProvider{
		primary:   primary,
		secondary: secondary,
		enabled:   enabled && secondary != nil,
		metrics:   metrics,
		log:       log.With(logger.String("component", "market_fallback")),
	}
}

// Name is the primary's name. Which source served a given call is recorded
// on the context's SourceTrace.
func (p *FallbackProvider) Name() string { return p.primary.Name() }

// served records src on the trace when its call succeeded.
func (p *FallbackProvider) served(ctx context.Context, src drepo.MarketDataProvider, err error) {
	if err == nil {
		drepo.RecordSource(ctx, src.Name())
	}
}

func (p *FallbackProvider) fellBack(op, symbol string, err error) {
	p.log.Warn("market data fallback",
		logger.String("op", op),
		logger.String("symbol", symbol),
		logger.String("source", p.secondary.Name()),
		logger.Error(err),
	)
	if p.metrics != nil {
		p.metrics.RecordFallback(op)
	}
}

func (p *FallbackProvider) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	price, err := p.primary.CurrentPrice(ctx, symbol)
	if err == nil || !p.enabled {
		p.served(ctx, p.primary, err)
		return price, err
	}
	p.fellBack("price", symbol, err)
	price, err = p.secondary.CurrentPrice(ctx, symbol)
	p.served(ctx, p.secondary, err)
	return price, err
}

func (p *FallbackProvider) Klines(ctx context.Context, symbol string, interval drepo.Interval, limit int) ([]models.Candle, error) {
	candles, err := p.primary.Klines(ctx, symbol, interval, limit)
	if err == nil || !p.enabled {
		p.served(ctx, p.primary, err)
		return candles, err
	}
	p.fellBack("klines", symbol, err)
	candles, err = p.secondary.Klines(ctx, symbol, interval, limit)
	p.served(ctx, p.secondary, err)
	return candles, err
}

func (p *FallbackProvider) OrderBook(ctx context.Context, symbol string, limit int) (models.OrderBook, error) {
	book, err := p.primary.OrderBook(ctx, symbol, limit)
	if err == nil || !p.enabled {
		p.served(ctx, p.primary, err)
		return book, err
	}
	p.fellBack("depth", symbol, err)
	book, err = p.secondary.OrderBook(ctx, symbol, limit)
	p.served(ctx, p.secondary, err)
	return book, err
}
