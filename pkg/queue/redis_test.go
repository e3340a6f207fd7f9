package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"SmartSignal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	lists   map[string][][]byte
	delayed map[string]map[string]time.Time
	pingErr error
}

func newMemStore() *memStore {
	return &memStore{lists: map[string][][]byte{}, delayed: map[string]map[string]time.Time{}}
}

func (s *memStore) Ping(context.Context) error { return s.pingErr }

func (s *memStore) Push(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[key] = append([][]byte{data}, s.lists[key]...)
	return nil
}

func (s *memStore) Pop(ctx context.Context, key string, timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		l := s.lists[key]
		if n := len(l); n > 0 {
			data := l[n-1]
			s.lists[key] = l[:n-1]
			s.mu.Unlock()
			return data, nil
		}
		s.mu.Unlock()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
	return nil, nil
}

func (s *memStore) Schedule(_ context.Context, key string, data []byte, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.delayed[key] == nil {
		s.delayed[key] = map[string]time.Time{}
	}
	s.delayed[key][string(data)] = at
	return nil
}

func (s *memStore) Promote(_ context.Context, from, to string, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	moved := 0
	for member, at := range s.delayed[from] {
		if at.After(now) {
			continue
		}
		delete(s.delayed[from], member)
		s.lists[to] = append([][]byte{[]byte(member)}, s.lists[to]...)
		moved++
	}
	return moved, nil
}

func (s *memStore) messages(key string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, 0, len(s.lists[key]))
	for _, d := range s.lists[key] {
		var m Message
		if json.Unmarshal(d, &m) == nil {
			out = append(out, m)
		}
	}
	return out
}

func (s *memStore) scheduled(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.delayed[key])
}

type recordingJob struct {
	mu    sync.Mutex
	got   []string
	errs  []error
	calls int
}

func (j *recordingJob) Name() string { return "recording" }
func (j *recordingJob) Type() string { return "signal.generate" }

func (j *recordingJob) Handle(_ context.Context, payload json.RawMessage) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls++
	j.got = append(j.got, string(payload))
	if len(j.errs) > 0 {
		err := j.errs[0]
		j.errs = j.errs[1:]
		return err
	}
	return nil
}

func (j *recordingJob) count() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.calls
}

func newTestQueue(st *memStore, cfg QueueConfig) *RedisQueue {
	q := newQueue(logger.Nop(), cfg, st, WithKeyPrefix("test"))
	return q
}

func TestEnqueueAndProcess(t *testing.T) {
	st := newMemStore()
	job := &recordingJob{}
	q := newTestQueue(st, QueueConfig{Workers: 2, PollTimeout: 10 * time.Millisecond})
	q.RegisterJob(job)
	require.NoError(t, q.Start())
	defer q.Stop(context.Background())

	require.NoError(t, q.Enqueue(context.Background(), "signal.generate", map[string]string{"symbol": "BTC"}))

	assert.Eventually(t, func() bool { return job.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.JSONEq(t, `{"symbol":"BTC"}`, job.got[0])
}

func TestProcessSchedulesRetryThenDeadLetters(t *testing.T) {
	st := newMemStore()
	job := &recordingJob{errs: []error{errors.New("timeout"), errors.New("timeout")}}
	q := newTestQueue(st, QueueConfig{RetryLimit: 1, RetryDelay: time.Minute})
	q.RegisterJob(job)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	q.now = func() time.Time { return now }

	data, _ := json.Marshal(Message{ID: "m1", Type: "signal.generate", Payload: json.RawMessage(`{}`)})
	q.process(context.Background(), data)
	assert.Equal(t, 1, st.scheduled("test:retry"))

	n, err := st.Promote(context.Background(), "test:retry", "test:messages", now.Add(2*time.Minute))
	require.NoError(t, err)
	require.Equal(t, 1, n)
	retried, err := st.Pop(context.Background(), "test:messages", time.Millisecond)
	require.NoError(t, err)

	q.process(context.Background(), retried)
	dlq := st.messages("test:dlq")
	require.Len(t, dlq, 1)
	assert.Equal(t, "m1", dlq[0].ID)
	assert.Equal(t, 2, dlq[0].Attempts)
	assert.Equal(t, "timeout", dlq[0].LastError)
}

func TestPermanentErrorSkipsRetry(t *testing.T) {
	st := newMemStore()
	job := &recordingJob{errs: []error{fmt.Errorf("bad symbol: %w", ErrPermanent)}}
	q := newTestQueue(st, QueueConfig{RetryLimit: 5})
	q.RegisterJob(job)

	data, _ := json.Marshal(Message{ID: "m2", Type: "signal.generate"})
	q.process(context.Background(), data)

	assert.Zero(t, st.scheduled("test:retry"))
	assert.Len(t, st.messages("test:dlq"), 1)
}

func TestUnknownTypeAndGarbageGoToDeadLetter(t *testing.T) {
	st := newMemStore()
	q := newTestQueue(st, QueueConfig{})
	q.RegisterJob(&recordingJob{})

	unknown, _ := json.Marshal(Message{ID: "m3", Type: "other"})
	q.process(context.Background(), unknown)
	q.process(context.Background(), []byte("not json"))

	st.mu.Lock()
	defer st.mu.Unlock()
	assert.Len(t, st.lists["test:dlq"], 2)
}

func TestStartFailsWhenRedisDown(t *testing.T) {
	st := newMemStore()
	st.pingErr = errors.New("connection refused")
	q := newTestQueue(st, QueueConfig{})
	err := q.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping")
	assert.NoError(t, q.Stop(context.Background()))
}

func TestRegisterAfterStartIgnored(t *testing.T) {
	q := newTestQueue(newMemStore(), QueueConfig{})
	require.NoError(t, q.Start())
	defer q.Stop(context.Background())
	q.RegisterJob(&recordingJob{})
	assert.Empty(t, q.jobs)
	assert.Error(t, q.Start())
}
