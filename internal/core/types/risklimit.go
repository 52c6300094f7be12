package types

import "github.com/shopspring/decimal"

// LimitKind distinguishes the four risk cap types a RiskLimit can express.
type LimitKind string

const (
	LimitMaxOrderSize   LimitKind = "MAX_ORDER_SIZE"
	LimitMaxPosition    LimitKind = "MAX_POSITION_SIZE"
	LimitMaxDailyVolume LimitKind = "MAX_DAILY_VOLUME"
	LimitMaxDailyLoss   LimitKind = "MAX_DAILY_LOSS"
)

// RiskLimit is one row of the risk configuration surface. An empty
// Symbol means the limit applies globally; at most one active limit
// should exist per (Symbol, Kind) pair, enforced by the risk package's
// Limits container (one entry per Symbol and Kind) rather than here.
type RiskLimit struct {
	Symbol Symbol // empty => global
	Kind   LimitKind
	Cap    decimal.Decimal
	Active bool
}
