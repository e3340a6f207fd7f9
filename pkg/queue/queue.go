package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrPermanent marks a payload that will never succeed; it goes straight to
// the dead letter list.
var ErrPermanent = errors.New("permanent job failure")

type QueueService interface {
	PublishMessage(ctx context.Context, msgType string, payload interface{}) error
}

// QueueConfig contains the configuration for the queue
type QueueConfig struct {
	Workers     int           // number of workers
	RetryLimit  int           // number of maximum retries
	RetryDelay  time.Duration // time delay between retries
	PollTimeout time.Duration // blocking pop timeout
	RetryEvery  time.Duration // how often due retries are promoted
}

func (c QueueConfig) normalized() QueueConfig {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.RetryLimit < 0 {
		c.RetryLimit = 0
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 10 * time.Second
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = time.Second
	}
	if c.RetryEvery <= 0 {
		c.RetryEvery = 5 * time.Second
	}
	return c
}

// Message is the envelope stored in Redis.
type Message struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	LastError  string          `json:"last_error,omitempty"`
}
