package repository

import (
	"context"
	"fmt"
	"time"

	"SmartSignal/internal/domain/models"
	domrepo "SmartSignal/internal/domain/repository"
	pkgkafka "SmartSignal/pkg/kafka"
)

// eventProducer is the part of *pkgkafka.Producer the publisher needs.
type eventProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}, headers ...pkgkafka.Header) error
	Close() error
}

// SignalEvent is the JSON body written to the generated-signals topic.
type SignalEvent struct {
	Symbol     string               `json:"symbol"`
	Mode       models.TradingMode   `json:"mode"`
	Signal     models.TradingSignal `json:"signal"`
	RiskReward *float64             `json:"risk_reward,omitempty"`
	RecordID   string               `json:"record_id,omitempty"`
	Seed       int64                `json:"seed"`
	EmittedAt  time.Time            `json:"emitted_at"`
}

// KafkaPublisher implements Publisher for Kafka. Events are keyed by symbol
// so one symbol's signals stay ordered within a partition.
type KafkaPublisher struct {
	producer eventProducer
	topic    string
	now      func() time.Time
}

var _ domrepo.Publisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic, now: time.Now}
}

func (p *KafkaPublisher) Publish(ctx context.Context, r *models.SignalReport) error {
	if r == nil {
		return nil
	}
	ev := SignalEvent{
		Symbol:     r.Signal.Symbol,
		Mode:       r.Mode,
		Signal:     r.Signal,
		RiskReward: r.RiskReward,
		RecordID:   r.RecordID,
		Seed:       r.Seed,
		EmittedAt:  p.now().UTC(),
	}
	headers := []pkgkafka.Header{
		{Key: "action", Value: []byte(r.Signal.Action)},
		{Key: "confidence", Value: []byte(r.Signal.Confidence.Level())},
	}
	if err := p.producer.Publish(ctx, p.topic, []byte(r.Signal.Symbol), ev, headers...); err != nil {
		return fmt.Errorf("publish signal event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
