package repository

import (
	"context"
	"fmt"

	"SmartSignal/internal/domain/models"
	domrepo "SmartSignal/internal/domain/repository"
	pkgkafka "SmartSignal/pkg/kafka"
	"SmartSignal/pkg/queue"
)

// KafkaRequestPublisher writes generation requests to the request topic.
// It shares the producer with KafkaPublisher and does not close it.
type KafkaRequestPublisher struct {
	producer eventProducer
	topic    string
}

var _ domrepo.RequestPublisher = (*KafkaRequestPublisher)(nil)

func NewKafkaRequestPublisher(producer *pkgkafka.Producer, topic string) *KafkaRequestPublisher {
	return &KafkaRequestPublisher{producer: producer, topic: topic}
}

func (p *KafkaRequestPublisher) PublishRequest(ctx context.Context, req models.SignalRequestEvent) error {
	headers := []pkgkafka.Header{{Key: pkgkafka.HeaderTraceID, Value: []byte(req.RequestID)}}
	if err := p.producer.Publish(ctx, p.topic, []byte(req.Symbol), req, headers...); err != nil {
		return fmt.Errorf("publish signal request: %w", err)
	}
	return nil
}

// QueueRequestPublisher enqueues generation requests on the Redis queue.
type QueueRequestPublisher struct {
	queue   queue.QueueService
	msgType string
}

var _ domrepo.RequestPublisher = (*QueueRequestPublisher)(nil)

func NewQueueRequestPublisher(q queue.QueueService, msgType string) *QueueRequestPublisher {
	return &QueueRequestPublisher{queue: q, msgType: msgType}
}

func (p *QueueRequestPublisher) PublishRequest(ctx context.Context, req models.SignalRequestEvent) error {
	if err := p.queue.PublishMessage(ctx, p.msgType, req); err != nil {
		return fmt.Errorf("enqueue signal request: %w", err)
	}
	return nil
}
