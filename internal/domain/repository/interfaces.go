package repository

import (
	"context"
	"time"

	"SmartSignal/internal/domain/models"
)

// MarketDataProvider supplies the inputs of one signal generation.
type MarketDataProvider interface {
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
	Klines(ctx context.Context, symbol string, interval Interval, limit int) ([]models.Candle, error)
	OrderBook(ctx context.Context, symbol string, limit int) (models.OrderBook, error)
	Name() string
}

type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.PriceTick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// PriceBook holds the latest streamed price per symbol.
type PriceBook interface {
	Set(symbol string, price float64, at time.Time)
	Get(symbol string) (price float64, updatedAt time.Time, ok bool)
}

type SignalStore interface {
	Init(ctx context.Context) error // ensure tables
	Save(ctx context.Context, rec *models.SignalRecord) error
	Get(ctx context.Context, id string) (*models.SignalRecord, error)
	ListByUser(ctx context.Context, userID string, f models.SignalFilter) ([]*models.SignalRecord, error)
	ListAll(ctx context.Context, f models.SignalFilter) ([]*models.SignalRecord, error)
	UpdateStatus(ctx context.Context, id string, status models.SignalStatus) (*models.SignalRecord, error)
	Delete(ctx context.Context, id string) error
	Health(ctx context.Context) error
	Close() error
}

type SignalArchive interface {
	Init(ctx context.Context) error
	Append(ctx context.Context, rows ...models.ArchivedSignal) error
	Recent(ctx context.Context, symbol string, limit int) ([]models.ArchivedSignal, error)
	Health(ctx context.Context) error
	Close() error
}

type Publisher interface {
	Publish(ctx context.Context, report *models.SignalReport) error
	Close() error
}

// RequestPublisher hands a generation request to the async workers.
type RequestPublisher interface {
	PublishRequest(ctx context.Context, req models.SignalRequestEvent) error
}

// SnapshotCache keeps recently fetched market snapshots.
type SnapshotCache interface {
	Get(ctx context.Context, key string) (*models.MarketSnapshot, bool)
	Set(ctx context.Context, key string, snap *models.MarketSnapshot, ttl time.Duration) error
}

type Metrics interface {
	RecordSignal(symbol string, tier models.ConfidenceTier)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordFallback(source string)
}
