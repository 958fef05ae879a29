package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// PostgresConfig holds connection settings for the trade store.
type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"ssl_mode"`
}

// PostgresStore is the pgx-backed TradeStore.
type PostgresStore struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// NewPostgresStore connects, configures the pool and runs the schema
// migration.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig, log zerolog.Logger) (*PostgresStore, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.HealthCheckPeriod = time.Minute

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &PostgresStore{pool: pool, log: log.With().Str("component", "trade_store").Logger()}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	s.log.Info().Str("database", cfg.Database).Msg("trade store connected")
	return s, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS positions (
			id UUID PRIMARY KEY,
			account_id VARCHAR(64) NOT NULL,
			symbol VARCHAR(32) NOT NULL,
			direction VARCHAR(8) NOT NULL,
			size DECIMAL(20, 8) NOT NULL,
			entry_price DECIMAL(20, 8) NOT NULL,
			stop_loss DECIMAL(20, 8) NOT NULL,
			take_profit DECIMAL(20, 8) NOT NULL,
			leverage INT NOT NULL DEFAULT 1,
			opened_at TIMESTAMPTZ NOT NULL,
			status VARCHAR(8) NOT NULL DEFAULT 'open',
			close_price DECIMAL(20, 8),
			close_reason VARCHAR(32),
			closed_at TIMESTAMPTZ,
			realized_pnl DECIMAL(20, 8) NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_positions_account_open
			ON positions (account_id, symbol) WHERE status = 'open';
		CREATE INDEX IF NOT EXISTS idx_positions_account_closed_at
			ON positions (account_id, closed_at DESC);`
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("run migration: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreatePosition(ctx context.Context, p *Position) error {
	const q = `
		INSERT INTO positions
			(id, account_id, symbol, direction, size, entry_price, stop_loss,
			 take_profit, leverage, opened_at, status, realized_pnl)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0)`
	_, err := s.pool.Exec(ctx, q,
		p.ID, p.AccountID, p.Symbol, p.Direction, p.Size, p.EntryPrice,
		p.StopLoss, p.TakeProfit, p.Leverage, p.OpenedAt, p.Status)
	if err != nil {
		return fmt.Errorf("insert position: %w", err)
	}
	s.log.Debug().Str("id", p.ID).Str("symbol", p.Symbol).Str("direction", p.Direction).Msg("position persisted")
	return nil
}

func (s *PostgresStore) ClosePosition(ctx context.Context, id string, closePrice float64, reason string, pnl float64) error {
	const q = `
		UPDATE positions
		SET status = 'closed', close_price = $2, close_reason = $3,
		    closed_at = NOW(), realized_pnl = $4
		WHERE id = $1 AND status = 'open'`
	tag, err := s.pool.Exec(ctx, q, id, closePrice, reason, pnl)
	if err != nil {
		return fmt.Errorf("close position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPositionNotFound
	}
	return nil
}

func (s *PostgresStore) GetOpenPositions(ctx context.Context, accountID, symbol string) ([]Position, error) {
	q := `
		SELECT id, account_id, symbol, direction, size, entry_price, stop_loss,
		       take_profit, leverage, opened_at, status,
		       COALESCE(close_price, 0), COALESCE(close_reason, ''), closed_at, realized_pnl
		FROM positions
		WHERE account_id = $1 AND status = 'open'`
	args := []any{accountID}
	if symbol != "" {
		q += ` AND symbol = $2`
		args = append(args, symbol)
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query open positions: %w", err)
	}
	defer rows.Close()

	var out []Position
	for rows.Next() {
		var p Position
		if err := rows.Scan(&p.ID, &p.AccountID, &p.Symbol, &p.Direction, &p.Size,
			&p.EntryPrice, &p.StopLoss, &p.TakeProfit, &p.Leverage, &p.OpenedAt,
			&p.Status, &p.ClosePrice, &p.CloseReason, &p.ClosedAt, &p.RealizedPnL); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdatePosition(ctx context.Context, p *Position) error {
	const q = `
		UPDATE positions
		SET stop_loss = $2, take_profit = $3, size = $4
		WHERE id = $1 AND status = 'open'`
	tag, err := s.pool.Exec(ctx, q, p.ID, p.StopLoss, p.TakeProfit, p.Size)
	if err != nil {
		return fmt.Errorf("update position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPositionNotFound
	}
	return nil
}

// RecentClosed returns the most recent closed positions for an account,
// newest first. The HTTP API uses this for trade history.
func (s *PostgresStore) RecentClosed(ctx context.Context, accountID string, limit int) ([]Position, error) {
	const q = `
		SELECT id, account_id, symbol, direction, size, entry_price, stop_loss,
		       take_profit, leverage, opened_at, status,
		       COALESCE(close_price, 0), COALESCE(close_reason, ''), closed_at, realized_pnl
		FROM positions
		WHERE account_id = $1 AND status = 'closed'
		ORDER BY closed_at DESC
		LIMIT $2`
	rows, err := s.pool.Query(ctx, q, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("query closed positions: %w", err)
	}
	defer rows.Close()

	var out []Position
	for rows.Next() {
		var p Position
		if err := rows.Scan(&p.ID, &p.AccountID, &p.Symbol, &p.Direction, &p.Size,
			&p.EntryPrice, &p.StopLoss, &p.TakeProfit, &p.Leverage, &p.OpenedAt,
			&p.Status, &p.ClosePrice, &p.CloseReason, &p.ClosedAt, &p.RealizedPnL); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
