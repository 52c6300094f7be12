// Package queue implements the bounded single-producer/single-consumer
// event ring that feeds the matching engine worker. It is a direct
// port of the original matching engine's lock-free SPSC queue: fixed
// power-of-two capacity, atomic head/tail indices, no allocation on
// the hot path.
package queue

import (
	"sync/atomic"
	"time"

	"github.com/pi5trading/tradecore/internal/core/engineerr"
)

// Event is the tagged sum the ring carries. Exactly one of the
// pointer fields is non-nil.
type Event struct {
	NewOrder   *NewOrderEvent
	Cancel     *CancelEvent
	Execute    *ExecuteEvent
	MarketTick *MarketTickEvent
	Shutdown   bool
}

// Ring is a fixed-capacity single-producer/single-consumer lock-free
// queue of Event. Capacity must be a power of two.
type Ring struct {
	mask   uint64
	buffer []Event
	head   atomic.Uint64 // next write slot, producer-owned
	tail   atomic.Uint64 // next read slot, consumer-owned
}

// NewRing constructs a ring of the given capacity, which must be a
// power of two. It panics otherwise, mirroring the original
// SPSCQueue's constructor throwing on a non-power-of-two capacity —
// this is a construction-time programmer error, not a runtime
// condition callers should recover from.
func NewRing(capacity uint64) *Ring {
	if capacity == 0 || capacity&(capacity-1) != 0 {
		panic("queue: capacity must be a power of two")
	}
	return &Ring{
		mask:   capacity - 1,
		buffer: make([]Event, capacity),
	}
}

// Capacity returns the ring's fixed slot count.
func (r *Ring) Capacity() int {
	return int(r.mask) + 1
}

// TryPush attempts to enqueue ev without blocking. It reports false if
// the ring is full.
func (r *Ring) TryPush(ev Event) bool {
	head := r.head.Load()
	next := (head + 1) & r.mask
	if next == r.tail.Load() {
		return false
	}
	r.buffer[head] = ev
	r.head.Store(next)
	return true
}

// Push enqueues ev, returning QueueFull if the ring has no room.
func (r *Ring) Push(ev Event) error {
	if !r.TryPush(ev) {
		return engineerr.New(engineerr.QueueFull, "event queue is full")
	}
	return nil
}

// PushTimeout retries TryPush until it succeeds or timeout elapses,
// returning Timeout on expiry. It backs off with a short sleep between
// attempts rather than spinning continuously, since the caller is a
// submission path, not the matching worker.
func (r *Ring) PushTimeout(ev Event, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if r.TryPush(ev) {
			return nil
		}
		if time.Now().After(deadline) {
			return engineerr.New(engineerr.Timeout, "timed out pushing to event queue")
		}
		time.Sleep(time.Microsecond * 50)
	}
}

// Pop dequeues the next event. The second return is false if the ring
// is empty.
func (r *Ring) Pop() (Event, bool) {
	tail := r.tail.Load()
	if tail == r.head.Load() {
		return Event{}, false
	}
	ev := r.buffer[tail]
	r.buffer[tail] = Event{}
	r.tail.Store((tail + 1) & r.mask)
	return ev, true
}

// Empty reports whether the ring currently holds no events. It is a
// snapshot; the result may be stale the instant it returns.
func (r *Ring) Empty() bool {
	return r.head.Load() == r.tail.Load()
}
