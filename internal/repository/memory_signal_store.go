package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"SmartSignal/internal/domain/models"
	domrepo "SmartSignal/internal/domain/repository"
)

// MemorySignalStore keeps signal records in process memory. It backs
// storage.type=memory and tests.
type MemorySignalStore struct {
	mu   sync.RWMutex
	recs map[string]models.SignalRecord
	now  func() time.Time
}

var _ domrepo.SignalStore = (*MemorySignalStore)(nil)

var errNilRecord = errors.New("record without id")

func NewMemorySignalStore() *MemorySignalStore {
	return &MemorySignalStore{recs: make(map[string]models.SignalRecord), now: time.Now}
}

func (s *MemorySignalStore) Init(context.Context) error { return nil }

func (s *MemorySignalStore) Save(_ context.Context, rec *models.SignalRecord) error {
	if rec == nil || rec.ID == "" {
		return errNilRecord
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[rec.ID] = *rec
	return nil
}

func (s *MemorySignalStore) Get(_ context.Context, id string) (*models.SignalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &rec, nil
}

func (s *MemorySignalStore) ListByUser(ctx context.Context, userID string, f models.SignalFilter) ([]*models.SignalRecord, error) {
	f.UserID = userID
	return s.ListAll(ctx, f)
}

func (s *MemorySignalStore) ListAll(_ context.Context, f models.SignalFilter) ([]*models.SignalRecord, error) {
	f = normalizeFilter(f)

	s.mu.RLock()
	matched := make([]*models.SignalRecord, 0, len(s.recs))
	for _, rec := range s.recs {
		if !matches(rec, f) {
			continue
		}
		r := rec
		matched = append(matched, &r)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if f.Offset >= len(matched) {
		return []*models.SignalRecord{}, nil
	}
	end := f.Offset + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[f.Offset:end], nil
}

func matches(rec models.SignalRecord, f models.SignalFilter) bool {
	if f.UserID != "" && rec.UserID != f.UserID {
		return false
	}
	if f.Symbol != "" && rec.Symbol != f.Symbol {
		return false
	}
	if f.Status != "" && rec.Status != f.Status {
		return false
	}
	if !f.Since.IsZero() && rec.CreatedAt.Before(f.Since) {
		return false
	}
	return true
}

func (s *MemorySignalStore) UpdateStatus(_ context.Context, id string, status models.SignalStatus) (*models.SignalRecord, error) {
	if _, err := models.ParseStatus(string(status)); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	rec.Status = status
	rec.UpdatedAt = s.now().UTC()
	s.recs[id] = rec
	return &rec, nil
}

func (s *MemorySignalStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recs[id]; !ok {
		return models.ErrNotFound
	}
	delete(s.recs, id)
	return nil
}

func (s *MemorySignalStore) Health(context.Context) error { return nil }

func (s *MemorySignalStore) Close() error { return nil }
