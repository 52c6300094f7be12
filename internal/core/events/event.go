package events

import (
	"time"

	"github.com/pi5trading/tradecore/internal/core/types"
)

// EventType represents the category of an outbound notification.
type EventType string

const (
	// EventTypeExecutionReport fires on every order status or fill change.
	EventTypeExecutionReport EventType = "execution_report"

	// EventTypeTrade fires on every peel produced by a cross.
	EventTypeTrade EventType = "trade"

	// EventTypePosition fires on every ledger update.
	EventTypePosition EventType = "position"
)

// Event is the base interface for all outbound notifications.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	EventType EventType
	EventTime time.Time
}

func (e BaseEvent) Type() EventType {
	return e.EventType
}

func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// ExecutionReportEvent carries one types.ExecutionReport.
type ExecutionReportEvent struct {
	BaseEvent
	Report types.ExecutionReport
}

func NewExecutionReportEvent(report types.ExecutionReport) *ExecutionReportEvent {
	return &ExecutionReportEvent{
		BaseEvent: BaseEvent{EventType: EventTypeExecutionReport, EventTime: report.Timestamp},
		Report:    report,
	}
}

// TradeEvent carries one types.Trade.
type TradeEvent struct {
	BaseEvent
	Trade types.Trade
}

func NewTradeEvent(trade types.Trade) *TradeEvent {
	return &TradeEvent{
		BaseEvent: BaseEvent{EventType: EventTypeTrade, EventTime: trade.ExecutedAt},
		Trade:     trade,
	}
}

// PositionEvent carries one types.Position snapshot.
type PositionEvent struct {
	BaseEvent
	Position types.Position
}

func NewPositionEvent(position types.Position) *PositionEvent {
	return &PositionEvent{
		BaseEvent: BaseEvent{EventType: EventTypePosition, EventTime: position.LastUpdated},
		Position:  position,
	}
}
