package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	domrepo "SmartSignal/internal/domain/repository"
	"SmartSignal/pkg/queue"
)

// JobTypeGenerate is the queue message type of a generation request.
const JobTypeGenerate = "signal.generate"

// GenerateJob serves generation requests from the Redis queue.
type GenerateJob struct {
	signals signalGenerator
	metrics domrepo.Metrics
}

func NewGenerateJob(signals *SignalsUseCase, metrics domrepo.Metrics) *GenerateJob {
	return &GenerateJob{signals: signals, metrics: metrics}
}

func (j *GenerateJob) Name() string { return "generate_signal" }
func (j *GenerateJob) Type() string { return JobTypeGenerate }

func (j *GenerateJob) Handle(ctx context.Context, payload json.RawMessage) error {
	permanent, err := serveRequest(ctx, j.signals, j.metrics, "queue", payload)
	if permanent {
		return fmt.Errorf("%w: %w", err, queue.ErrPermanent)
	}
	return err
}

var _ queue.Job = (*GenerateJob)(nil)
