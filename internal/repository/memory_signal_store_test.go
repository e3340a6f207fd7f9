package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"SmartSignal/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id, user, symbol string, created time.Time) *models.SignalRecord {
	return &models.SignalRecord{
		ID:         id,
		UserID:     user,
		Symbol:     symbol,
		SignalType: "bullish",
		Status:     models.StatusActive,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}

func TestMemorySignalStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySignalStore()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		user := "alice"
		if i%2 == 1 {
			user = "bob"
		}
		require.NoError(t, s.Save(ctx, record(fmt.Sprintf("id-%d", i), user, "BTC", base.Add(time.Duration(i)*time.Minute))))
	}

	all, err := s.ListAll(ctx, models.SignalFilter{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "id-4", all[0].ID)
	assert.Equal(t, "id-0", all[4].ID)

	alice, err := s.ListByUser(ctx, "alice", models.SignalFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, alice, 2)
	assert.Equal(t, "id-4", alice[0].ID)
	assert.Equal(t, "id-2", alice[1].ID)

	page, err := s.ListAll(ctx, models.SignalFilter{Offset: 4})
	require.NoError(t, err)
	require.Len(t, page, 1)

	empty, err := s.ListAll(ctx, models.SignalFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)

	since, err := s.ListAll(ctx, models.SignalFilter{Since: base.Add(3 * time.Minute)})
	require.NoError(t, err)
	assert.Len(t, since, 2)
}

func TestMemorySignalStoreStatusLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySignalStore()
	now := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	require.NoError(t, s.Save(ctx, record("a", "alice", "ETH", now.Add(-time.Hour))))

	rec, err := s.UpdateStatus(ctx, "a", models.StatusClosed)
	require.NoError(t, err)
	assert.Equal(t, models.StatusClosed, rec.Status)
	assert.Equal(t, now, rec.UpdatedAt)

	closed, err := s.ListAll(ctx, models.SignalFilter{Status: models.StatusClosed})
	require.NoError(t, err)
	assert.Len(t, closed, 1)

	_, err = s.UpdateStatus(ctx, "a", "paused")
	assert.ErrorIs(t, err, models.ErrInvalidStatus)
	_, err = s.UpdateStatus(ctx, "missing", models.StatusStopped)
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, s.Delete(ctx, "a"))
	assert.ErrorIs(t, s.Delete(ctx, "a"), models.ErrNotFound)
	_, err = s.Get(ctx, "a")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMemorySignalStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySignalStore()
	require.NoError(t, s.Save(ctx, record("a", "alice", "BTC", time.Now())))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	got.Symbol = "MUTATED"

	again, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "BTC", again.Symbol)
}

func TestBuildListQuery(t *testing.T) {
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	q, args := buildListQuery(models.SignalFilter{
		UserID: "u1",
		Status: models.StatusActive,
		Since:  since,
		Limit:  20,
		Offset: 40,
	})

	assert.Contains(t, q, "where user_id = $1 and status = $2 and created_at >= $3")
	assert.Contains(t, q, "order by created_at desc limit $4 offset $5")
	assert.Equal(t, []any{"u1", "active", since, 20, 40}, args)

	q, args = buildListQuery(models.SignalFilter{Limit: 50})
	assert.NotContains(t, q, "where")
	assert.Equal(t, []any{50, 0}, args)
}

func TestNormalizeFilter(t *testing.T) {
	f := normalizeFilter(models.SignalFilter{Limit: 10000, Offset: -3})
	assert.Equal(t, maxListLimit, f.Limit)
	assert.Zero(t, f.Offset)
	assert.Equal(t, defaultListLimit, normalizeFilter(models.SignalFilter{}).Limit)
}
