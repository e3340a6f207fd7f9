package repository

import (
	"context"
	"errors"
	"testing"

	"SmartSignal/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	msgType string
	payload interface{}
	err     error
}

func (q *fakeQueue) PublishMessage(_ context.Context, msgType string, payload interface{}) error {
	q.msgType, q.payload = msgType, payload
	return q.err
}

func TestKafkaRequestPublisher(t *testing.T) {
	fp := &fakeProducer{}
	p := &KafkaRequestPublisher{producer: fp, topic: "signals.requests"}
	req := models.SignalRequestEvent{RequestID: "r-1", Symbol: "ETH", Mode: "2"}

	require.NoError(t, p.PublishRequest(context.Background(), req))
	assert.Equal(t, "signals.requests", fp.topic)
	assert.Equal(t, []byte("ETH"), fp.key)
	assert.Equal(t, req, fp.value)
	assert.Equal(t, "trace_id", fp.headers[0].Key)
	assert.Equal(t, []byte("r-1"), fp.headers[0].Value)
}

func TestQueueRequestPublisher(t *testing.T) {
	q := &fakeQueue{}
	p := NewQueueRequestPublisher(q, "signal.generate")
	req := models.SignalRequestEvent{Symbol: "BTC"}

	require.NoError(t, p.PublishRequest(context.Background(), req))
	assert.Equal(t, "signal.generate", q.msgType)
	assert.Equal(t, req, q.payload)

	q.err = errors.New("redis down")
	assert.ErrorContains(t, p.PublishRequest(context.Background(), req), "enqueue signal request")
}
