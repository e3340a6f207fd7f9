// Package engine turns a market snapshot into a trading signal.
//
// Every stage is a pure function over value types. The only non-determinism
// (pattern name and per-timeframe labels) comes from the Source passed to
// Generate, so equal snapshots and equally seeded sources give equal signals.
package engine

import (
	"fmt"
	"math"
	"strings"
	"time"

	"SmartSignal/internal/domain/models"
)

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the clock used to stamp signals.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine runs the signal pipeline with a fixed parameter set. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	params Params
	now    func() time.Time
}

// New validates params and builds an Engine.
func New(params Params, opts ...Option) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("engine params: %w", err)
	}
	e := &Engine{params: params, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Params returns a copy of the engine parameters.
func (e *Engine) Params() Params { return e.params }

// GenerateSignal is Generate with the snapshot given field by field.
func (e *Engine) GenerateSignal(symbol string, price float64, candles []models.Candle, book models.OrderBook, src Source) (models.TradingSignal, error) {
	return e.Generate(models.MarketSnapshot{Symbol: symbol, Price: price, Candles: candles, OrderBook: book}, src)
}

// Generate runs every stage over snap and assembles the signal.
func (e *Engine) Generate(snap models.MarketSnapshot, src Source) (models.TradingSignal, error) {
	p := e.params
	symbol := strings.TrimSpace(snap.Symbol)
	price := snap.Price

	if symbol == "" {
		return models.TradingSignal{}, fmt.Errorf("%w: empty symbol", ErrInvalidInput)
	}
	if !(price > 0) || math.IsInf(price, 0) {
		return models.TradingSignal{}, fmt.Errorf("%w: price must be positive, got %v", ErrInvalidInput, price)
	}
	if src == nil {
		return models.TradingSignal{}, fmt.Errorf("%w: nil random source", ErrInvalidInput)
	}

	swingHigh, swingLow, err := SwingLevels(snap.Candles, p.SwingWindow)
	if err != nil {
		return models.TradingSignal{}, err
	}
	atr, err := ATR(snap.Candles, p.ATRPeriod)
	if err != nil {
		return models.TradingSignal{}, err
	}

	levels := Pivots(swingHigh, swingLow, snap.LastClose())
	if err := validateLevels(levels); err != nil {
		return models.TradingSignal{}, err
	}
	trend := Trend(price, levels.Pivot, p)

	zones, err := Zones(price, trend.IsBullish, p)
	if err != nil {
		return models.TradingSignal{}, err
	}
	volume := VolumeImbalance(snap.Candles, p)
	setup := Setup(price, trend.IsBullish, p)

	pattern := PickPattern(src, p.Patterns)
	alignment := TimeframeAlignment(src, p)

	confluence := Confluence(ConfluenceInput{
		Price:   price,
		Trend:   trend,
		Levels:  levels,
		Volume:  volume,
		Pattern: pattern,
		Zones:   zones,
	}, p)

	return Assemble(AssemblyInput{
		Symbol:     symbol,
		Price:      price,
		Trend:      trend,
		Levels:     levels,
		ATR:        atr,
		Zones:      zones,
		Volume:     volume,
		Setup:      setup,
		Confluence: confluence,
		Pattern:    pattern,
		Alignment:  alignment,
		Timestamp:  e.now().UTC(),
	}, p), nil
}

// RiskReward is SignalRiskReward bound to the engine for callers holding one.
func (e *Engine) RiskReward(s models.TradingSignal) (float64, error) {
	return SignalRiskReward(s)
}
