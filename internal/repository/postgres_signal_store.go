package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"SmartSignal/internal/domain/models"
	domrepo "SmartSignal/internal/domain/repository"
	"SmartSignal/pkg/logger"
	"SmartSignal/pkg/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// signalSchema is safe to re-run on every start.
var signalSchema = []string{
	`create table if not exists trading_signals (
		id uuid primary key,
		user_id text not null,
		symbol text not null,
		signal_type text not null check (signal_type in ('bullish','bearish')),
		entry_price double precision not null,
		stop_loss double precision not null,
		take_profit_1 double precision not null,
		take_profit_2 double precision not null,
		take_profit_3 double precision not null,
		confidence_level text not null check (confidence_level in ('low','medium','high','very_high')),
		confluence_count int not null default 0,
		ai_insight text null,
		technical_data jsonb not null default '{}'::jsonb,
		market_data jsonb not null default '{}'::jsonb,
		status text not null default 'active' check (status in ('active','closed','stopped')),
		created_at timestamptz not null default now(),
		updated_at timestamptz not null default now()
	);`,
	`create index if not exists trading_signals_user_created_idx on trading_signals(user_id, created_at desc);`,
	`create index if not exists trading_signals_symbol_created_idx on trading_signals(symbol, created_at desc);`,
	`create index if not exists trading_signals_status_idx on trading_signals(status);`,
}

const signalColumns = `id::text, user_id, symbol, signal_type, entry_price, stop_loss,
	take_profit_1, take_profit_2, take_profit_3, confidence_level, confluence_count,
	coalesce(ai_insight, ''), technical_data, market_data, status, created_at, updated_at`

// pgxQuerier is the part of *pgxpool.Pool the store uses.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresSignalStore persists trading_signals rows through pgx.
type PostgresSignalStore struct {
	pool *pgxpool.Pool
	db   pgxQuerier
	log  *logger.Logger
}

var _ domrepo.SignalStore = (*PostgresSignalStore)(nil)

func NewPostgresSignalStore(pool *pgxpool.Pool, log *logger.Logger) *PostgresSignalStore {
	return &PostgresSignalStore{
		pool: pool,
		db:   pool,
		log:  log.With(logger.String("component", "postgres_signal_store")),
	}
}

func (s *PostgresSignalStore) Init(ctx context.Context) error {
	if err := postgres.Migrate(ctx, s.pool, signalSchema); err != nil {
		return err
	}
	s.log.Info("trading_signals schema ready")
	return nil
}

func (s *PostgresSignalStore) Save(ctx context.Context, rec *models.SignalRecord) error {
	if rec == nil || rec.ID == "" {
		return errNilRecord
	}
	var insight *string
	if rec.AIInsight != "" {
		insight = &rec.AIInsight
	}

	_, err := s.db.Exec(ctx, `
		insert into trading_signals(
			id, user_id, symbol, signal_type, entry_price, stop_loss,
			take_profit_1, take_profit_2, take_profit_3, confidence_level, confluence_count,
			ai_insight, technical_data, market_data, status, created_at, updated_at
		) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`,
		rec.ID,
		rec.UserID,
		rec.Symbol,
		rec.SignalType,
		rec.EntryPrice,
		rec.StopLoss,
		rec.TakeProfit1,
		rec.TakeProfit2,
		rec.TakeProfit3,
		rec.ConfidenceLevel,
		rec.ConfluenceCount,
		insight,
		rec.TechnicalData,
		rec.MarketData,
		string(rec.Status),
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert signal: %w", err)
	}
	return nil
}

func (s *PostgresSignalStore) Get(ctx context.Context, id string) (*models.SignalRecord, error) {
	row := s.db.QueryRow(ctx, `select `+signalColumns+` from trading_signals where id = $1`, id)
	rec, err := scanSignal(row)
	if err != nil {
		return nil, notFound(err, "get signal")
	}
	return rec, nil
}

func (s *PostgresSignalStore) ListByUser(ctx context.Context, userID string, f models.SignalFilter) ([]*models.SignalRecord, error) {
	f.UserID = userID
	return s.ListAll(ctx, f)
}

func (s *PostgresSignalStore) ListAll(ctx context.Context, f models.SignalFilter) ([]*models.SignalRecord, error) {
	f = normalizeFilter(f)
	q, args := buildListQuery(f)
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		s.log.Error("list signals query", logger.Error(err))
		return nil, fmt.Errorf("list signals: %w", err)
	}
	defer rows.Close()

	out := make([]*models.SignalRecord, 0, f.Limit)
	for rows.Next() {
		rec, err := scanSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// buildListQuery renders the filtered list statement with positional args.
func buildListQuery(f models.SignalFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.UserID != "" {
		add("user_id = $%d", f.UserID)
	}
	if f.Symbol != "" {
		add("symbol = $%d", f.Symbol)
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if !f.Since.IsZero() {
		add("created_at >= $%d", f.Since)
	}

	var b strings.Builder
	b.WriteString("select " + signalColumns + " from trading_signals")
	if len(where) > 0 {
		b.WriteString(" where " + strings.Join(where, " and "))
	}
	args = append(args, f.Limit, f.Offset)
	fmt.Fprintf(&b, " order by created_at desc limit $%d offset $%d", len(args)-1, len(args))
	return b.String(), args
}

func (s *PostgresSignalStore) UpdateStatus(ctx context.Context, id string, status models.SignalStatus) (*models.SignalRecord, error) {
	if _, err := models.ParseStatus(string(status)); err != nil {
		return nil, err
	}
	row := s.db.QueryRow(ctx, `
		update trading_signals set status = $2, updated_at = now()
		where id = $1
		returning `+signalColumns, id, string(status))
	rec, err := scanSignal(row)
	if err != nil {
		return nil, notFound(err, "update status")
	}
	return rec, nil
}

func (s *PostgresSignalStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `delete from trading_signals where id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete signal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *PostgresSignalStore) Health(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresSignalStore) Close() error {
	s.pool.Close()
	return nil
}

func scanSignal(row pgx.Row) (*models.SignalRecord, error) {
	var (
		rec    models.SignalRecord
		status string
	)
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Symbol,
		&rec.SignalType,
		&rec.EntryPrice,
		&rec.StopLoss,
		&rec.TakeProfit1,
		&rec.TakeProfit2,
		&rec.TakeProfit3,
		&rec.ConfidenceLevel,
		&rec.ConfluenceCount,
		&rec.AIInsight,
		&rec.TechnicalData,
		&rec.MarketData,
		&status,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Status = models.SignalStatus(status)
	return &rec, nil
}

func notFound(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
