// Package audit persists a durable trail of lifecycle events
// (acceptance, fills, rejections, cancellations, risk rejections) to
// Postgres, adapted from pi5-trading-system-go/internal/audit/logger.go
// and rewritten for this domain's event set instead of the teacher's
// strategy/user-auth events.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/pi5trading/tradecore/internal/core/types"
)

// EventType is the category of a logged lifecycle event.
type EventType string

const (
	EventOrderAccepted EventType = "order_accepted"
	EventOrderFilled   EventType = "order_filled"
	EventOrderRejected EventType = "order_rejected"
	EventOrderCanceled EventType = "order_canceled"
	EventTradeExecuted EventType = "trade_executed"
	EventRiskRejected  EventType = "risk_rejected"
)

// Event is one audit log row.
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"event_type"`
	Timestamp time.Time              `json:"timestamp"`
	OrderID   string                 `json:"order_id,omitempty"`
	Symbol    string                 `json:"symbol,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// Logger writes Events to the audit_logs table.
type Logger struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewLogger(pool *pgxpool.Pool, logger zerolog.Logger) *Logger {
	return &Logger{pool: pool, logger: logger}
}

// InitSchema creates the audit_logs table if absent.
func (l *Logger) InitSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS audit_logs (
			id TEXT PRIMARY KEY,
			event_type TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			order_id TEXT,
			symbol TEXT,
			details JSONB
		);
		CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_logs(timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_audit_order_id ON audit_logs(order_id);
	`
	if _, err := l.pool.Exec(ctx, schema); err != nil {
		return err
	}
	l.logger.Info().Msg("audit schema initialized")
	return nil
}

// Log writes one event, generating an id and timestamp if unset.
func (l *Logger) Log(ctx context.Context, event Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	detailsJSON, err := json.Marshal(event.Details)
	if err != nil {
		l.logger.Warn().Err(err).Msg("failed to marshal audit event details")
		detailsJSON = []byte("{}")
	}

	query := `INSERT INTO audit_logs (id, event_type, timestamp, order_id, symbol, details) VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := l.pool.Exec(ctx, query, event.ID, event.Type, event.Timestamp, event.OrderID, event.Symbol, detailsJSON); err != nil {
		l.logger.Error().Err(err).Str("event_type", string(event.Type)).Msg("failed to write audit event")
	}
}

// LogOrderAccepted records an order transitioning to ACCEPTED.
func (l *Logger) LogOrderAccepted(ctx context.Context, o types.Order) {
	l.Log(ctx, Event{
		Type:    EventOrderAccepted,
		OrderID: string(o.ID),
		Symbol:  string(o.Symbol),
		Details: map[string]interface{}{"side": o.Side, "type": o.Type, "quantity": o.Quantity.String()},
	})
}

// LogOrderFilled records a fill (partial or complete).
func (l *Logger) LogOrderFilled(ctx context.Context, o types.Order) {
	l.Log(ctx, Event{
		Type:    EventOrderFilled,
		OrderID: string(o.ID),
		Symbol:  string(o.Symbol),
		Details: map[string]interface{}{"status": o.Status, "filled_quantity": o.FilledQuantity.String()},
	})
}

// LogOrderRejected records a rejection, pre- or post-acceptance.
func (l *Logger) LogOrderRejected(ctx context.Context, o types.Order) {
	l.Log(ctx, Event{
		Type:    EventOrderRejected,
		OrderID: string(o.ID),
		Symbol:  string(o.Symbol),
		Details: map[string]interface{}{"reason": o.RejectionReason},
	})
}

// LogOrderCanceled records a successful cancellation.
func (l *Logger) LogOrderCanceled(ctx context.Context, o types.Order) {
	l.Log(ctx, Event{
		Type:    EventOrderCanceled,
		OrderID: string(o.ID),
		Symbol:  string(o.Symbol),
	})
}

// LogTradeExecuted records one trade leg of a cross.
func (l *Logger) LogTradeExecuted(ctx context.Context, t types.Trade) {
	l.Log(ctx, Event{
		Type:    EventTradeExecuted,
		OrderID: string(t.OrderID),
		Symbol:  string(t.Symbol),
		Details: map[string]interface{}{
			"trade_id":     t.ID,
			"match_id":     t.MatchID,
			"quantity":     t.Quantity.String(),
			"price":        t.Price.String(),
			"is_aggressor": t.IsAggressor,
		},
	})
}

// LogRiskRejected records a pre-trade rejection with its reason.
func (l *Logger) LogRiskRejected(ctx context.Context, symbol types.Symbol, reason string) {
	l.Log(ctx, Event{
		Type:    EventRiskRejected,
		Symbol:  string(symbol),
		Details: map[string]interface{}{"reason": reason},
	})
}
