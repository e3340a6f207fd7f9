package repository

import (
	"context"
	"sync"

	"SmartSignal/internal/domain/models"
	domrepo "SmartSignal/internal/domain/repository"
)

// MemorySignalArchive is used when ClickHouse is disabled. It keeps at most
// capacity rows and drops the oldest first.
type MemorySignalArchive struct {
	mu       sync.RWMutex
	rows     []models.ArchivedSignal
	capacity int
}

var _ domrepo.SignalArchive = (*MemorySignalArchive)(nil)

func NewMemorySignalArchive(capacity int) *MemorySignalArchive {
	if capacity <= 0 {
		capacity = 10000
	}
	return &MemorySignalArchive{capacity: capacity}
}

func (a *MemorySignalArchive) Init(context.Context) error { return nil }

func (a *MemorySignalArchive) Append(_ context.Context, rows ...models.ArchivedSignal) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rows = append(a.rows, rows...)
	if over := len(a.rows) - a.capacity; over > 0 {
		a.rows = append(a.rows[:0:0], a.rows[over:]...)
	}
	return nil
}

func (a *MemorySignalArchive) Recent(_ context.Context, symbol string, limit int) ([]models.ArchivedSignal, error) {
	if limit <= 0 {
		limit = 100
	}
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]models.ArchivedSignal, 0, limit)
	for i := len(a.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if symbol == "" || a.rows[i].Symbol == symbol {
			out = append(out, a.rows[i])
		}
	}
	return out, nil
}

func (a *MemorySignalArchive) Health(context.Context) error { return nil }

func (a *MemorySignalArchive) Close() error { return nil }
