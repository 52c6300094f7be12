// Package postgres is the reference implementation of
// internal/core/store.Store over pgx/pgxpool, grounded on
// pi5-trading-system-go/internal/data's orders/portfolio repositories
// (InitSchema, upsert-on-conflict) and wrapped in the project's
// circuit breaker so a flaky database degrades persistence without
// stalling the matching worker.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/pi5trading/tradecore/internal/circuitbreaker"
	"github.com/pi5trading/tradecore/internal/config"
	"github.com/pi5trading/tradecore/internal/core/types"
)

// Store persists orders, trades, and positions to Postgres/Timescale.
// It satisfies internal/core/store.Store.
type Store struct {
	pool    *pgxpool.Pool
	logger  zerolog.Logger
	breaker *circuitbreaker.CircuitBreaker
}

// New connects to the configured database and verifies it is reachable.
func New(ctx context.Context, cfg config.DatabaseConfig, breakers *circuitbreaker.Manager, logger zerolog.Logger) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLife

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{
		pool:    pool,
		logger:  logger,
		breaker: breakers.GetOrCreate("postgres", circuitbreaker.DefaultDatabaseConfig()),
	}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// InitSchema creates the orders/trades/positions tables if absent.
func (s *Store) InitSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS orders (
			id VARCHAR(64) PRIMARY KEY,
			symbol VARCHAR(20) NOT NULL,
			side VARCHAR(10) NOT NULL,
			type VARCHAR(10) NOT NULL,
			quantity NUMERIC(28, 10) NOT NULL,
			limit_price NUMERIC(28, 10),
			filled_quantity NUMERIC(28, 10) NOT NULL DEFAULT 0,
			filled_notional NUMERIC(28, 10) NOT NULL DEFAULT 0,
			status VARCHAR(20) NOT NULL,
			rejection_reason TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			last_modified TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS trades (
			id VARCHAR(64) PRIMARY KEY,
			match_id VARCHAR(64) NOT NULL,
			order_id VARCHAR(64) NOT NULL REFERENCES orders(id),
			symbol VARCHAR(20) NOT NULL,
			side VARCHAR(10) NOT NULL,
			quantity NUMERIC(28, 10) NOT NULL,
			price NUMERIC(28, 10) NOT NULL,
			is_aggressor BOOLEAN NOT NULL,
			executed_at TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS positions (
			symbol VARCHAR(20) PRIMARY KEY,
			quantity NUMERIC(28, 10) NOT NULL,
			average_cost NUMERIC(28, 10) NOT NULL,
			realized_pnl NUMERIC(28, 10) NOT NULL,
			unrealized_pnl NUMERIC(28, 10) NOT NULL,
			last_updated TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_trades_executed_at ON trades(executed_at DESC);
		CREATE INDEX IF NOT EXISTS idx_trades_order_id ON trades(order_id);
	`
	if err := s.breaker.Execute(func() error {
		_, err := s.pool.Exec(ctx, schema)
		return err
	}); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	s.logger.Info().Msg("store schema initialized")
	return nil
}

// SaveOrder upserts order by id.
func (s *Store) SaveOrder(order types.Order) error {
	query := `
		INSERT INTO orders (id, symbol, side, type, quantity, limit_price,
			filled_quantity, filled_notional, status, rejection_reason, created_at, last_modified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			filled_quantity = EXCLUDED.filled_quantity,
			filled_notional = EXCLUDED.filled_notional,
			status = EXCLUDED.status,
			rejection_reason = EXCLUDED.rejection_reason,
			last_modified = EXCLUDED.last_modified
	`
	return s.breaker.Execute(func() error {
		_, err := s.pool.Exec(context.Background(), query,
			order.ID, order.Symbol, order.Side, order.Type,
			order.Quantity, order.LimitPrice,
			order.FilledQuantity, order.FilledNotional,
			order.Status, order.RejectionReason,
			order.CreatedAt, order.LastModified,
		)
		if err != nil {
			return fmt.Errorf("failed to save order %s: %w", order.ID, err)
		}
		return nil
	})
}

// SaveTrade inserts trade, idempotent on id.
func (s *Store) SaveTrade(trade types.Trade) error {
	query := `
		INSERT INTO trades (id, match_id, order_id, symbol, side, quantity, price, is_aggressor, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`
	return s.breaker.Execute(func() error {
		_, err := s.pool.Exec(context.Background(), query,
			trade.ID, trade.MatchID, trade.OrderID, trade.Symbol, trade.Side,
			trade.Quantity, trade.Price, trade.IsAggressor, trade.ExecutedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to save trade %s: %w", trade.ID, err)
		}
		return nil
	})
}

// UpsertPosition writes the current snapshot for position.Symbol.
func (s *Store) UpsertPosition(position types.Position) error {
	query := `
		INSERT INTO positions (symbol, quantity, average_cost, realized_pnl, unrealized_pnl, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (symbol) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			average_cost = EXCLUDED.average_cost,
			realized_pnl = EXCLUDED.realized_pnl,
			unrealized_pnl = EXCLUDED.unrealized_pnl,
			last_updated = EXCLUDED.last_updated
	`
	return s.breaker.Execute(func() error {
		_, err := s.pool.Exec(context.Background(), query,
			position.Symbol, position.Quantity, position.AverageCost,
			position.RealizedPnL, position.UnrealizedPnL, position.LastUpdated,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert position %s: %w", position.Symbol, err)
		}
		return nil
	})
}

// LoadPositions returns every persisted position.
func (s *Store) LoadPositions() ([]types.Position, error) {
	query := `SELECT symbol, quantity, average_cost, realized_pnl, unrealized_pnl, last_updated FROM positions`
	var out []types.Position
	err := s.breaker.Execute(func() error {
		rows, err := s.pool.Query(context.Background(), query)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var p types.Position
			if err := rows.Scan(&p.Symbol, &p.Quantity, &p.AverageCost, &p.RealizedPnL, &p.UnrealizedPnL, &p.LastUpdated); err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load positions: %w", err)
	}
	return out, nil
}

// LoadTradesByDay returns every trade executed on day's calendar date (UTC).
func (s *Store) LoadTradesByDay(day time.Time) ([]types.Trade, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	query := `
		SELECT id, match_id, order_id, symbol, side, quantity, price, is_aggressor, executed_at
		FROM trades WHERE executed_at >= $1 AND executed_at < $2
		ORDER BY executed_at ASC
	`
	var out []types.Trade
	err := s.breaker.Execute(func() error {
		rows, err := s.pool.Query(context.Background(), query, start, end)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var t types.Trade
			if err := rows.Scan(&t.ID, &t.MatchID, &t.OrderID, &t.Symbol, &t.Side, &t.Quantity, &t.Price, &t.IsAggressor, &t.ExecutedAt); err != nil {
				return err
			}
			out = append(out, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load trades for %s: %w", start.Format("2006-01-02"), err)
	}
	return out, nil
}

// LoadOrdersByDay returns every order created on day's calendar date (UTC).
func (s *Store) LoadOrdersByDay(day time.Time) ([]types.Order, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	query := `
		SELECT id, symbol, side, type, quantity, limit_price, filled_quantity, filled_notional,
			status, rejection_reason, created_at, last_modified
		FROM orders WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at ASC
	`
	var out []types.Order
	err := s.breaker.Execute(func() error {
		rows, err := s.pool.Query(context.Background(), query, start, end)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var o types.Order
			if err := rows.Scan(&o.ID, &o.Symbol, &o.Side, &o.Type, &o.Quantity, &o.LimitPrice,
				&o.FilledQuantity, &o.FilledNotional, &o.Status, &o.RejectionReason,
				&o.CreatedAt, &o.LastModified); err != nil {
				return err
			}
			out = append(out, o)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load orders for %s: %w", start.Format("2006-01-02"), err)
	}
	return out, nil
}

// IsAvailable reports whether the circuit breaker currently allows calls.
func (s *Store) IsAvailable() bool {
	return s.breaker.GetState() != circuitbreaker.StateOpen
}

// Status describes the breaker state for diagnostics.
func (s *Store) Status() string {
	return s.breaker.GetState().String()
}
