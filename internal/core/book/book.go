// Package book implements the price-time priority limit order book:
// two price-indexed ordered containers (bids descending, asks
// ascending), each price level a FIFO of resting orders. Grounded on
// other_examples/...saiputravu-Exchange.../orderbook.go for the
// tidwall/btree container choice and comparator shape; the FIFO at
// each level uses container/list so a resting order can be
// canceled in O(1) given its handle.
package book

import (
	"container/list"

	"github.com/tidwall/btree"

	"github.com/pi5trading/tradecore/internal/core/types"
)

// Level is one price point on one side of the book: a FIFO queue of
// resting order ids, in arrival order.
type Level struct {
	Price  types.Price
	orders *list.List // of types.OrderID
}

// Handle is the stable reference an order index keeps so a resting
// order can be removed from its FIFO in O(1) without the book owning
// the *types.Order itself. It carries no generation counter. This is
// the handle-based resolution to spec.md §9's shared-pointer-graph
// redesign note: the book stores handles, the order index is the
// single owner of the order value.
type Handle struct {
	Side    types.Side
	Price   types.Price
	element *list.Element
}

// Book is one instrument's resting order book. It is not safe for
// concurrent use; the matching engine is its sole caller.
type Book struct {
	bids *btree.BTreeG[*Level]
	asks *btree.BTreeG[*Level]
}

func New() *Book {
	bids := btree.NewBTreeG(func(a, b *Level) bool {
		return a.Price.GreaterThan(b.Price) // descending
	})
	asks := btree.NewBTreeG(func(a, b *Level) bool {
		return a.Price.LessThan(b.Price) // ascending
	})
	return &Book{bids: bids, asks: asks}
}

func (b *Book) sideTree(side types.Side) *btree.BTreeG[*Level] {
	if side == types.SideBuy {
		return b.bids
	}
	return b.asks
}

// BestBid returns the highest resting bid price, if any.
func (b *Book) BestBid() (types.Price, bool) {
	lvl, ok := b.bids.Min()
	if !ok {
		return types.ZeroPrice, false
	}
	return lvl.Price, true
}

// BestAsk returns the lowest resting ask price, if any.
func (b *Book) BestAsk() (types.Price, bool) {
	lvl, ok := b.asks.Min()
	if !ok {
		return types.ZeroPrice, false
	}
	return lvl.Price, true
}

// BestOpposite returns the best resting price level on the side
// opposite to side, for walking during matching.
func (b *Book) BestOpposite(side types.Side) (*Level, bool) {
	if side == types.SideBuy {
		return b.asks.Min()
	}
	return b.bids.Min()
}

// Rest appends id to the FIFO at price on side, creating the level if
// necessary, and returns a handle for O(1) later removal.
func (b *Book) Rest(side types.Side, price types.Price, id types.OrderID) Handle {
	tree := b.sideTree(side)
	probe := &Level{Price: price}
	lvl, ok := tree.GetMut(probe)
	if !ok {
		lvl = &Level{Price: price, orders: list.New()}
		tree.Set(lvl)
	}
	elem := lvl.orders.PushBack(id)
	return Handle{Side: side, Price: price, element: elem}
}

// Front returns the order id at the head of the level's FIFO.
func (l *Level) Front() (types.OrderID, bool) {
	if l.orders.Len() == 0 {
		return "", false
	}
	return l.orders.Front().Value.(types.OrderID), true
}

// PopFront removes and returns the order id at the head of the level's
// FIFO.
func (l *Level) PopFront() (types.OrderID, bool) {
	front := l.orders.Front()
	if front == nil {
		return "", false
	}
	l.orders.Remove(front)
	return front.Value.(types.OrderID), true
}

// Len reports how many resting orders remain at this level.
func (l *Level) Len() int {
	return l.orders.Len()
}

// Remove deletes the order referenced by h from its book level in
// O(1), deleting the level itself if it becomes empty. It reports
// false if the level no longer exists (already emptied and deleted).
func (b *Book) Remove(h Handle) bool {
	tree := b.sideTree(h.Side)
	probe := &Level{Price: h.Price}
	lvl, ok := tree.GetMut(probe)
	if !ok {
		return false
	}
	lvl.orders.Remove(h.element)
	if lvl.orders.Len() == 0 {
		tree.Delete(probe)
	}
	return true
}

// DeleteLevelIfEmpty removes the price level on side at price from the
// tree if its FIFO has emptied. Called by the matching engine after a
// peel fully consumes a level's front order.
func (b *Book) DeleteLevelIfEmpty(side types.Side, price types.Price) {
	tree := b.sideTree(side)
	probe := &Level{Price: price}
	if lvl, ok := tree.GetMut(probe); ok && lvl.orders.Len() == 0 {
		tree.Delete(probe)
	}
}
