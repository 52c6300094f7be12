package types

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// OrderID identifies an order for its entire lifetime.
type OrderID string

// TradeID identifies a single trade leg. A cross produces two trades
// sharing a MatchID but with distinct TradeIDs.
type TradeID string

// MatchID groups the aggressor and resting trade legs produced by one
// crossing event.
type MatchID string

// Symbol identifies a tradable instrument.
type Symbol string

// IDGenerator produces monotone order and trade ids of the form
// prefix + zero-padded sequence + millisecond timestamp, per spec.md
// §4.6's "monotone order_id" requirement. A generator is safe for
// concurrent use: submission (order ids) and the matching worker
// (trade ids) may call it from different goroutines.
type IDGenerator struct {
	orderPrefix string
	tradePrefix string
	orderSeq    atomic.Uint64
	tradeSeq    atomic.Uint64
}

func NewIDGenerator(orderPrefix, tradePrefix string) *IDGenerator {
	return &IDGenerator{orderPrefix: orderPrefix, tradePrefix: tradePrefix}
}

// NextOrderID returns the next monotone order id.
func (g *IDGenerator) NextOrderID(now time.Time) OrderID {
	seq := g.orderSeq.Add(1)
	return OrderID(fmt.Sprintf("%s%010d%d", g.orderPrefix, seq, now.UnixMilli()))
}

// NextTradeID returns the next monotone trade id.
func (g *IDGenerator) NextTradeID(now time.Time) TradeID {
	seq := g.tradeSeq.Add(1)
	return TradeID(fmt.Sprintf("%s%010d%d", g.tradePrefix, seq, now.UnixMilli()))
}

// NewMatchID generates a new match id grouping the two legs of a cross.
func NewMatchID() MatchID {
	return MatchID(uuid.NewString())
}
