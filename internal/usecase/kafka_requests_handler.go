package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"SmartSignal/internal/domain/models"
	domrepo "SmartSignal/internal/domain/repository"
	"SmartSignal/internal/services/engine"
	pkghttp "SmartSignal/pkg/http"
	pkgkafka "SmartSignal/pkg/kafka"
)

// errBadRequest marks a request payload that can never be served.
var errBadRequest = errors.New("bad signal request")

// signalGenerator is the part of SignalsUseCase the async handlers drive.
type signalGenerator interface {
	Generate(ctx context.Context, p GenerateParams) (*models.SignalReport, error)
}

// requestParams decodes and validates one generation request.
func requestParams(b []byte) (GenerateParams, error) {
	var req models.SignalRequestEvent
	if err := json.Unmarshal(b, &req); err != nil {
		return GenerateParams{}, fmt.Errorf("%w: decode: %v", errBadRequest, err)
	}
	if verrs := pkghttp.ValidateStruct(&req); len(verrs) > 0 {
		return GenerateParams{}, fmt.Errorf("%w: %s: %s", errBadRequest, verrs[0].Field, verrs[0].Message)
	}
	return GenerateParams{
		Symbol: req.Symbol,
		Mode:   models.TradingMode(req.Mode),
		UserID: req.UserID,
		Seed:   req.Seed,
	}, nil
}

// serveRequest runs one request; permanent reports whether a retry could
// ever change the outcome.
func serveRequest(ctx context.Context, gen signalGenerator, metrics domrepo.Metrics, source string, b []byte) (permanent bool, err error) {
	p, err := requestParams(b)
	if err != nil {
		metrics.RecordError(source + "_decode")
		return true, err
	}
	start := time.Now()
	_, err = gen.Generate(ctx, p)
	metrics.RecordLatency(source+"_generate", time.Since(start).Seconds())
	if err != nil {
		return errors.Is(err, engine.ErrInvalidInput) || errors.Is(err, engine.ErrInsufficientData), err
	}
	return false, nil
}

// KafkaRequestsHandler turns generation requests from Kafka into signals.
// Malformed or unanswerable requests are marked permanent so the consumer
// parks them on the DLQ instead of retrying.
type KafkaRequestsHandler struct {
	topic   string
	signals signalGenerator
	metrics domrepo.Metrics
}

func NewKafkaRequestsHandler(topic string, signals *SignalsUseCase, metrics domrepo.Metrics) *KafkaRequestsHandler {
	return &KafkaRequestsHandler{topic: topic, signals: signals, metrics: metrics}
}

func (h *KafkaRequestsHandler) Topic() string { return h.topic }

// incoming message schema: {request_id, symbol, mode, user_id, seed}
func (h *KafkaRequestsHandler) Handle(ctx context.Context, b []byte) error {
	permanent, err := serveRequest(ctx, h.signals, h.metrics, "consumer", b)
	if permanent {
		return fmt.Errorf("%w: %w", err, pkgkafka.ErrPermanent)
	}
	return err
}

var _ pkgkafka.MessageHandler = (*KafkaRequestsHandler)(nil)
