package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"SmartSignal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// store is the list/sorted-set surface the queue needs from Redis.
type store interface {
	Ping(ctx context.Context) error
	Push(ctx context.Context, key string, data []byte) error
	// Pop blocks up to timeout; it returns nil, nil when nothing arrived.
	Pop(ctx context.Context, key string, timeout time.Duration) ([]byte, error)
	Schedule(ctx context.Context, key string, data []byte, at time.Time) error
	// Promote moves members of from scored at or before now onto list to.
	Promote(ctx context.Context, from, to string, now time.Time) (int, error)
}

type redisStore struct {
	client *redis.Client
}

func (s redisStore) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func (s redisStore) Push(ctx context.Context, key string, data []byte) error {
	return s.client.LPush(ctx, key, data).Err()
}

func (s redisStore) Pop(ctx context.Context, key string, timeout time.Duration) ([]byte, error) {
	res, err := s.client.BRPop(ctx, timeout, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(res) < 2 {
		return nil, nil
	}
	return []byte(res[1]), nil
}

func (s redisStore) Schedule(ctx context.Context, key string, data []byte, at time.Time) error {
	return s.client.ZAdd(ctx, key, redis.Z{Score: float64(at.Unix()), Member: data}).Err()
}

func (s redisStore) Promote(ctx context.Context, from, to string, now time.Time) (int, error) {
	due, err := s.client.ZRangeByScore(ctx, from, &redis.ZRangeBy{
		Min: "0",
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil {
		return 0, err
	}
	moved := 0
	for _, member := range due {
		pipe := s.client.TxPipeline()
		pipe.ZRem(ctx, from, member)
		pipe.LPush(ctx, to, member)
		if _, err := pipe.Exec(ctx); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

// RedisQueueOption configures RedisQueue.
type RedisQueueOption func(*RedisQueue)

// WithKeyPrefix sets custom key prefix.
func WithKeyPrefix(prefix string) RedisQueueOption {
	return func(r *RedisQueue) {
		r.keyPrefix = prefix
	}
}

// RedisQueue is a list-backed job queue with delayed retries and a dead
// letter list.
type RedisQueue struct {
	logger    *logger.Logger
	config    QueueConfig
	store     store
	jobs      map[string]Job
	keyPrefix string
	now       func() time.Time

	mu        sync.RWMutex
	isRunning bool
	wg        sync.WaitGroup
	cancel    context.CancelFunc
}

// NewRedisQueue creates a queue over client.
func NewRedisQueue(lgr *logger.Logger, config QueueConfig, client *redis.Client, opts ...RedisQueueOption) *RedisQueue {
	return newQueue(lgr, config, redisStore{client: client}, opts...)
}

func newQueue(lgr *logger.Logger, config QueueConfig, st store, opts ...RedisQueueOption) *RedisQueue {
	rq := &RedisQueue{
		logger:    lgr.With(logger.String("component", "redis_queue")),
		config:    config.normalized(),
		store:     st,
		jobs:      make(map[string]Job),
		keyPrefix: "smartsignal:queue",
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(rq)
	}
	return rq
}

// RegisterJob registers a single job. Registration after Start is ignored.
func (r *RedisQueue) RegisterJob(job Job) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isRunning {
		r.logger.Warn("job registered after start ignored", logger.String("job", job.Name()))
		return
	}
	if _, exists := r.jobs[job.Type()]; exists {
		r.logger.Warn("job already registered", logger.String("job", job.Name()))
		return
	}
	r.jobs[job.Type()] = job
	r.logger.Info("job registered",
		logger.String("job", job.Name()),
		logger.String("type", job.Type()))
}

// Start pings Redis and launches the workers and the retry promoter. A queue
// without jobs only publishes.
func (r *RedisQueue) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.isRunning {
		return fmt.Errorf("queue already running")
	}

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := r.store.Ping(pingCtx); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.isRunning = true

	if len(r.jobs) == 0 {
		r.logger.Info("redis queue started in publish-only mode")
		return nil
	}
	for i := 0; i < r.config.Workers; i++ {
		r.wg.Add(1)
		go r.worker(ctx, i)
	}
	r.wg.Add(1)
	go r.retryProcessor(ctx)

	r.logger.Info("redis queue started", logger.Int("workers", r.config.Workers))
	return nil
}

// Stop gracefully stops the queue.
func (r *RedisQueue) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.isRunning {
		r.mu.Unlock()
		return nil
	}
	r.isRunning = false
	r.cancel()
	r.mu.Unlock()

	doneCh := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(doneCh)
	}()

	select {
	case <-ctx.Done():
		r.logger.Warn("timeout waiting for queue workers", logger.Error(ctx.Err()))
		return fmt.Errorf("timeout: %w", ctx.Err())
	case <-doneCh:
		r.logger.Info("redis queue stopped")
		return nil
	}
}

// Enqueue adds a message to the queue.
func (r *RedisQueue) Enqueue(ctx context.Context, msgType string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	msg := Message{
		ID:         uuid.NewString(),
		Type:       msgType,
		Payload:    raw,
		EnqueuedAt: r.now().UTC(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := r.store.Push(ctx, r.queueKey(), data); err != nil {
		return fmt.Errorf("lpush: %w", err)
	}
	return nil
}

// PublishMessage publishes a message (implements QueueService).
func (r *RedisQueue) PublishMessage(ctx context.Context, msgType string, payload interface{}) error {
	return r.Enqueue(ctx, msgType, payload)
}

func (r *RedisQueue) worker(ctx context.Context, id int) {
	defer r.wg.Done()
	r.logger.Debug("queue worker started", logger.Int("worker_id", id))

	for ctx.Err() == nil {
		data, err := r.store.Pop(ctx, r.queueKey(), r.config.PollTimeout)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			r.logger.Error("brpop error", logger.Error(err))
			sleepCtx(ctx, time.Second)
			continue
		}
		if data == nil {
			continue
		}
		r.process(ctx, data)
	}
}

// process runs one raw message and routes failures to retry or dead letter.
func (r *RedisQueue) process(ctx context.Context, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		r.logger.Error("unmarshal message", logger.Error(err))
		r.deadLetter(ctx, data)
		return
	}

	r.mu.RLock()
	job, exists := r.jobs[msg.Type]
	r.mu.RUnlock()
	if !exists {
		r.logger.Error("no job found", logger.String("type", msg.Type), logger.String("id", msg.ID))
		r.deadLetter(ctx, data)
		return
	}

	start := r.now()
	err := job.Handle(ctx, msg.Payload)
	if err == nil {
		r.logger.Debug("message processed",
			logger.String("id", msg.ID),
			logger.String("job", job.Name()),
			logger.Duration("elapsed", r.now().Sub(start)))
		return
	}
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		// Shutdown interrupted the job; put it back for the next run.
		_ = r.store.Push(context.Background(), r.queueKey(), data)
		return
	}

	msg.Attempts++
	msg.LastError = err.Error()
	r.logger.Warn("message processing error",
		logger.String("id", msg.ID),
		logger.String("job", job.Name()),
		logger.Int("attempt", msg.Attempts),
		logger.Error(err))

	retry, _ := json.Marshal(msg)
	if errors.Is(err, ErrPermanent) || msg.Attempts > r.config.RetryLimit {
		r.deadLetter(ctx, retry)
		return
	}
	at := r.now().Add(r.config.RetryDelay)
	if err := r.store.Schedule(ctx, r.retryKey(), retry, at); err != nil {
		r.logger.Error("zadd retry", logger.Error(err))
	}
}

func (r *RedisQueue) deadLetter(ctx context.Context, data []byte) {
	if err := r.store.Push(ctx, r.deadLetterKey(), data); err != nil {
		r.logger.Error("lpush dlq", logger.Error(err))
	}
}

func (r *RedisQueue) retryProcessor(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.RetryEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.store.Promote(ctx, r.retryKey(), r.queueKey(), r.now()); err != nil && ctx.Err() == nil {
				r.logger.Error("move retry to queue", logger.Error(err))
			}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (r *RedisQueue) queueKey() string {
	return r.keyPrefix + ":messages"
}

func (r *RedisQueue) retryKey() string {
	return r.keyPrefix + ":retry"
}

func (r *RedisQueue) deadLetterKey() string {
	return r.keyPrefix + ":dlq"
}
