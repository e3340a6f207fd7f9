package usecase

import (
	"context"
	"sync"

	"SmartSignal/internal/domain/models"
	drepo "SmartSignal/internal/domain/repository"
	"SmartSignal/pkg/logger"
)

// PriceCollector keeps the PriceBook current from the live market stream.
type PriceCollector struct {
	stream  drepo.MarketStream
	book    drepo.PriceBook
	metrics drepo.Metrics
	log     *logger.Logger

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewPriceCollector creates a new PriceCollector instance.
func NewPriceCollector(stream drepo.MarketStream, book drepo.PriceBook, metrics drepo.Metrics, log *logger.Logger) *PriceCollector {
	return &PriceCollector{
		stream:  stream,
		book:    book,
		metrics: metrics,
		log:     log.With(logger.String("component", "price_collector")),
	}
}

// IsConnected returns true if the market stream is connected.
func (c *PriceCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

// Start connects and subscribes, then consumes in the background until
// Shutdown or ctx ends.
func (c *PriceCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		_ = c.stream.Close()
		return err
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.run(runCtx)
	return nil
}

func (c *PriceCollector) run(ctx context.Context) {
	defer close(c.done)
	for {
		ticks, errs := c.stream.Read(ctx)
		c.consume(ctx, ticks, errs)
		if ctx.Err() != nil {
			return
		}
		c.metrics.RecordError("stream")
		for {
			err := c.stream.Reconnect(ctx)
			if err == nil {
				c.log.Info("stream reconnected")
				break
			}
			if ctx.Err() != nil {
				return
			}
			c.log.Warn("stream reconnect failed", logger.Error(err))
		}
	}
}

// consume returns when the read channels close or ctx ends.
func (c *PriceCollector) consume(ctx context.Context, ticks <-chan *models.PriceTick, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if ok && err != nil {
				c.log.Warn("stream read", logger.Error(err))
			}
			if !ok {
				errs = nil
			}
		case t, ok := <-ticks:
			if !ok {
				return
			}
			if t == nil {
				continue
			}
			c.book.Set(t.Symbol, t.Price, t.Time)
			c.metrics.RecordLastPrice(t.Symbol, t.Price)
		}
	}
}

// Shutdown stops consuming and closes the stream.
func (c *PriceCollector) Shutdown(ctx context.Context) error {
	var err error
	c.once.Do(func() {
		if c.cancel != nil {
			c.cancel()
		}
		err = c.stream.Close()
		if c.done != nil {
			select {
			case <-c.done:
			case <-ctx.Done():
			}
		}
	})
	return err
}
