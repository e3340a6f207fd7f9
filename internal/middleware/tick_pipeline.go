package middleware

import (
	"math"
	"sync"
	"time"

	"SmartSignal/internal/domain/models"
	domrepo "SmartSignal/internal/domain/repository"
)

// TickPipeline sits between the market stream and the PriceBook. It drops
// invalid ticks, ticks stamped too far in the future and ticks arriving
// faster than maxRPS per symbol.
type TickPipeline struct {
	book      domrepo.PriceBook
	metrics   domrepo.Metrics
	maxRPS    int
	maxSkew   time.Duration
	now       func() time.Time
	transform func(*models.PriceTick) *models.PriceTick

	mu       sync.Mutex
	lastSeen map[string]time.Time // per-symbol last accepted arrival
}

var _ domrepo.PriceBook = (*TickPipeline)(nil)

type PipelineOption func(*TickPipeline)

// WithMaxRPS sets the max accepted ticks per second per symbol.
func WithMaxRPS(n int) PipelineOption {
	return func(p *TickPipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithMaxSkew bounds how far ahead of the local clock a tick may be stamped.
func WithMaxSkew(d time.Duration) PipelineOption {
	return func(p *TickPipeline) {
		if d > 0 {
			p.maxSkew = d
		}
	}
}

// WithTransform sets a hook that rewrites ticks before validation.
func WithTransform(fn func(*models.PriceTick) *models.PriceTick) PipelineOption {
	return func(p *TickPipeline) { p.transform = fn }
}

func NewTickPipeline(book domrepo.PriceBook, metrics domrepo.Metrics, opts ...PipelineOption) *TickPipeline {
	p := &TickPipeline{
		book:     book,
		metrics:  metrics,
		maxRPS:   20,
		maxSkew:  5 * time.Second,
		now:      time.Now,
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Set accepts one tick. Rejected ticks are counted, never surfaced.
func (p *TickPipeline) Set(symbol string, price float64, at time.Time) {
	t := &models.PriceTick{Symbol: symbol, Price: price, Time: at}
	if p.transform != nil {
		if t = p.transform(t); t == nil {
			return
		}
	}
	now := p.now()
	if !p.valid(t, now) {
		p.metrics.RecordError("pipeline_validate")
		return
	}
	if !p.allow(t.Symbol, now) {
		p.metrics.RecordError("pipeline_throttle")
		return
	}
	p.book.Set(t.Symbol, t.Price, t.Time)
}

func (p *TickPipeline) Get(symbol string) (float64, time.Time, bool) {
	return p.book.Get(symbol)
}

func (p *TickPipeline) valid(t *models.PriceTick, now time.Time) bool {
	if t.Symbol == "" || t.Time.IsZero() {
		return false
	}
	if !(t.Price > 0) || math.IsInf(t.Price, 0) {
		return false
	}
	return !t.Time.After(now.Add(p.maxSkew))
}

func (p *TickPipeline) allow(symbol string, now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	last, ok := p.lastSeen[symbol]
	if ok && now.Sub(last) < time.Second/time.Duration(p.maxRPS) {
		return false
	}
	p.lastSeen[symbol] = now
	return true
}
