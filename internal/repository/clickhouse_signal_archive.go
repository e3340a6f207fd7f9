package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"SmartSignal/internal/domain/models"
	domrepo "SmartSignal/internal/domain/repository"
	pkgch "SmartSignal/pkg/clickhouse"
	applogger "SmartSignal/pkg/logger"
)

const archiveChunkSize = 2000

// CHSignalArchive appends generated signals to <db>.signal_history.
type CHSignalArchive struct {
	ch    *pkgch.Client
	db    *sql.DB
	table string
	l     *applogger.Logger
}

var _ domrepo.SignalArchive = (*CHSignalArchive)(nil)

func NewCHSignalArchive(ch *pkgch.Client, l *applogger.Logger) *CHSignalArchive {
	return &CHSignalArchive{
		ch:    ch,
		db:    ch.DB(),
		table: ch.Database() + ".signal_history",
		l:     l.With(applogger.String("component", "clickhouse_archive")),
	}
}

func archiveSchema(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			ts DateTime64(3, 'UTC'),
			symbol LowCardinality(String),
			action LowCardinality(String),
			price Float64,
			entry Float64,
			stop_loss Float64,
			tp1 Float64,
			confidence LowCardinality(String),
			confluence_count UInt8,
			atr Float64,
			risk_reward Float64,
			mode LowCardinality(String)
		) ENGINE = MergeTree
		PARTITION BY toYYYYMM(ts)
		ORDER BY (symbol, ts)`, table),
	}
}

func (a *CHSignalArchive) Init(ctx context.Context) error {
	return a.ch.InitSchema(ctx, archiveSchema(a.ch.Database(), a.table))
}

// Append writes rows with multi-row VALUES inserts to reduce round-trips.
func (a *CHSignalArchive) Append(ctx context.Context, rows ...models.ArchivedSignal) error {
	for start := 0; start < len(rows); start += archiveChunkSize {
		end := start + archiveChunkSize
		if end > len(rows) {
			end = len(rows)
		}
		q, args := buildArchiveInsert(a.table, rows[start:end])
		if q == "" {
			continue
		}
		if _, err := a.db.ExecContext(ctx, q, args...); err != nil {
			a.l.Error("clickhouse append error",
				applogger.String("table", a.table),
				applogger.Int("rows", end-start),
				applogger.Error(err),
			)
			return fmt.Errorf("append signals: %w", err)
		}
	}
	return nil
}

func buildArchiveInsert(table string, rows []models.ArchivedSignal) (string, []interface{}) {
	values := make([]string, 0, len(rows))
	args := make([]interface{}, 0, len(rows)*12)
	for _, r := range rows {
		if r.Symbol == "" || r.Timestamp.IsZero() {
			continue
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			r.Timestamp.UTC(),
			r.Symbol,
			string(r.Action),
			r.Price,
			r.Entry,
			r.StopLoss,
			r.TakeProfit1,
			r.Confidence,
			uint8(r.ConfluenceCount),
			r.ATR,
			r.RiskReward,
			r.Mode,
		)
	}
	if len(values) == 0 {
		return "", nil
	}
	q := fmt.Sprintf("INSERT INTO %s (ts, symbol, action, price, entry, stop_loss, tp1, confidence, confluence_count, atr, risk_reward, mode) VALUES %s",
		table, strings.Join(values, ","))
	return q, args
}

// Recent returns the newest rows first. An empty symbol means every symbol.
func (a *CHSignalArchive) Recent(ctx context.Context, symbol string, limit int) ([]models.ArchivedSignal, error) {
	if limit <= 0 {
		limit = 100
	}
	q := fmt.Sprintf(`
		SELECT ts, symbol, action, price, entry, stop_loss, tp1, confidence, confluence_count, atr, risk_reward, mode
		FROM %s
		WHERE (? = '' OR symbol = ?)
		ORDER BY ts DESC
		LIMIT ?`, a.table)
	rows, err := a.db.QueryContext(ctx, q, symbol, symbol, limit)
	if err != nil {
		a.l.Error("clickhouse recent query error", applogger.String("symbol", symbol), applogger.Error(err))
		return nil, fmt.Errorf("recent signals: %w", err)
	}
	defer rows.Close()

	out := make([]models.ArchivedSignal, 0, limit)
	for rows.Next() {
		var (
			r      models.ArchivedSignal
			action string
			count  uint8
		)
		if err := rows.Scan(&r.Timestamp, &r.Symbol, &action, &r.Price, &r.Entry, &r.StopLoss,
			&r.TakeProfit1, &r.Confidence, &count, &r.ATR, &r.RiskReward, &r.Mode); err != nil {
			return nil, fmt.Errorf("scan archived signal: %w", err)
		}
		r.Action = models.Action(action)
		r.ConfluenceCount = int(count)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (a *CHSignalArchive) Health(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

// Close is a no-op; the client is owned by the caller.
func (a *CHSignalArchive) Close() error {
	return nil
}
