package repository

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"SmartSignal/internal/domain/models"
	"SmartSignal/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRow scans values into the destinations in column order.
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r.values[i]))
	}
	return nil
}

type execCall struct {
	sql  string
	args []any
}

type fakeQuerier struct {
	execTag  string
	execErr  error
	row      fakeRow
	queryErr error

	execs []execCall
	rowQ  execCall
}

func (q *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.execs = append(q.execs, execCall{sql, args})
	if q.execErr != nil {
		return pgconn.CommandTag{}, q.execErr
	}
	return pgconn.NewCommandTag(q.execTag), nil
}

func (q *fakeQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, q.queryErr
}

func (q *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.rowQ = execCall{sql, args}
	return q.row
}

func newFakeStore(q *fakeQuerier) *PostgresSignalStore {
	return &PostgresSignalStore{db: q, log: logger.Nop()}
}

func recordRow(rec models.SignalRecord) fakeRow {
	return fakeRow{values: []any{
		rec.ID, rec.UserID, rec.Symbol, rec.SignalType, rec.EntryPrice, rec.StopLoss,
		rec.TakeProfit1, rec.TakeProfit2, rec.TakeProfit3, rec.ConfidenceLevel, rec.ConfluenceCount,
		rec.AIInsight, rec.TechnicalData, rec.MarketData, string(rec.Status), rec.CreatedAt, rec.UpdatedAt,
	}}
}

func sampleRecord() models.SignalRecord {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return models.SignalRecord{
		ID:              "7d8f2c1e-0000-4000-8000-000000000001",
		UserID:          "user-1",
		Symbol:          "BTC",
		SignalType:      "bullish",
		EntryPrice:      29700,
		StopLoss:        29100,
		TakeProfit1:     30900,
		TakeProfit2:     31500,
		TakeProfit3:     32100,
		ConfidenceLevel: "high",
		ConfluenceCount: 5,
		Status:          models.StatusActive,
		CreatedAt:       at,
		UpdatedAt:       at,
	}
}

func TestPostgresSave(t *testing.T) {
	ctx := context.Background()
	q := &fakeQuerier{execTag: "INSERT 0 1"}
	store := newFakeStore(q)

	rec := sampleRecord()
	require.NoError(t, store.Save(ctx, &rec))
	require.Len(t, q.execs, 1)
	assert.Contains(t, q.execs[0].sql, "insert into trading_signals")
	require.Len(t, q.execs[0].args, 17)
	assert.Equal(t, rec.ID, q.execs[0].args[0])
	assert.Nil(t, q.execs[0].args[11], "empty insight is stored as null")
	assert.Equal(t, "active", q.execs[0].args[14])

	rec.AIInsight = "Strong bullish setup."
	require.NoError(t, store.Save(ctx, &rec))
	insight, ok := q.execs[1].args[11].(*string)
	require.True(t, ok)
	assert.Equal(t, "Strong bullish setup.", *insight)

	assert.Error(t, store.Save(ctx, nil))
	assert.Error(t, store.Save(ctx, &models.SignalRecord{}))

	q.execErr = errors.New("connection reset")
	err := store.Save(ctx, &rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert signal")
}

func TestPostgresGet(t *testing.T) {
	ctx := context.Background()
	rec := sampleRecord()
	q := &fakeQuerier{row: recordRow(rec)}
	store := newFakeStore(q)

	got, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, *got)
	assert.Equal(t, []any{rec.ID}, q.rowQ.args)

	q.row = fakeRow{err: pgx.ErrNoRows}
	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	q.row = fakeRow{err: errors.New("timeout")}
	_, err = store.Get(ctx, rec.ID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrNotFound)
	assert.Contains(t, err.Error(), "get signal")
}

func TestPostgresUpdateStatus(t *testing.T) {
	ctx := context.Background()
	rec := sampleRecord()
	rec.Status = models.StatusClosed
	q := &fakeQuerier{row: recordRow(rec)}
	store := newFakeStore(q)

	got, err := store.UpdateStatus(ctx, rec.ID, models.StatusClosed)
	require.NoError(t, err)
	assert.Equal(t, models.StatusClosed, got.Status)
	assert.True(t, strings.Contains(q.rowQ.sql, "returning"))
	assert.Equal(t, []any{rec.ID, "closed"}, q.rowQ.args)

	q.rowQ = execCall{}
	_, err = store.UpdateStatus(ctx, rec.ID, models.SignalStatus("open"))
	assert.ErrorIs(t, err, models.ErrInvalidStatus)
	assert.Empty(t, q.rowQ.sql, "invalid status never reaches the database")

	q.row = fakeRow{err: pgx.ErrNoRows}
	_, err = store.UpdateStatus(ctx, "missing", models.StatusStopped)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPostgresDelete(t *testing.T) {
	ctx := context.Background()
	q := &fakeQuerier{execTag: "DELETE 1"}
	store := newFakeStore(q)

	require.NoError(t, store.Delete(ctx, "id-1"))
	assert.Equal(t, []any{"id-1"}, q.execs[0].args)

	q.execTag = "DELETE 0"
	assert.ErrorIs(t, store.Delete(ctx, "missing"), models.ErrNotFound)

	q.execErr = errors.New("connection reset")
	err := store.Delete(ctx, "id-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrNotFound)
}

func TestPostgresListQueryError(t *testing.T) {
	store := newFakeStore(&fakeQuerier{queryErr: errors.New("relation does not exist")})
	_, err := store.ListAll(context.Background(), models.SignalFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list signals")
}
