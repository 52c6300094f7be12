package queue

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/pi5trading/tradecore/internal/core/engineerr"
	"github.com/pi5trading/tradecore/internal/core/types"
)

func TestNewRingPanicsOnNonPowerOfTwo(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Fatal("NewRing(3) should panic, 3 is not a power of two")
		}
	}()
	NewRing(3)
}

func TestRingPushPopFIFO(t *testing.T) {
	t.Parallel()
	r := NewRing(4)

	for i := 0; i < 3; i++ {
		ev := Event{Cancel: &CancelEvent{OrderID: "ORD1"}}
		if !r.TryPush(ev) {
			t.Fatalf("push %d should have succeeded", i)
		}
	}

	// capacity 4 reserves one slot to distinguish full from empty, so a
	// fourth push should fail.
	if r.TryPush(Event{}) {
		t.Fatal("ring should be full after 3 pushes into a 4-slot ring")
	}

	for i := 0; i < 3; i++ {
		if _, ok := r.Pop(); !ok {
			t.Fatalf("pop %d should have succeeded", i)
		}
	}
	if _, ok := r.Pop(); ok {
		t.Fatal("ring should be empty")
	}
}

func TestRingPushReturnsQueueFull(t *testing.T) {
	t.Parallel()
	r := NewRing(2)
	if err := r.Push(Event{}); err != nil {
		t.Fatalf("first push should succeed: %v", err)
	}
	err := r.Push(Event{})
	if engineerr.KindOf(err) != engineerr.QueueFull {
		t.Fatalf("second push into a 2-slot ring should report QueueFull, got %v", err)
	}
}

func TestRingPushTimeoutExpiresOnFullRing(t *testing.T) {
	t.Parallel()
	r := NewRing(2)
	if err := r.Push(Event{}); err != nil {
		t.Fatal(err)
	}
	err := r.PushTimeout(Event{}, 10*time.Millisecond)
	if engineerr.KindOf(err) != engineerr.Timeout {
		t.Fatalf("PushTimeout on a full ring should time out, got %v", err)
	}
}

func TestRingPushTimeoutSucceedsOnceConsumerDrains(t *testing.T) {
	t.Parallel()
	r := NewRing(2)
	if err := r.Push(Event{}); err != nil {
		t.Fatal(err)
	}

	go func() {
		time.Sleep(5 * time.Millisecond)
		r.Pop()
	}()

	if err := r.PushTimeout(Event{}, 200*time.Millisecond); err != nil {
		t.Fatalf("PushTimeout should succeed once the consumer drains a slot: %v", err)
	}
}

func TestRingSingleProducerSingleConsumerPreservesOrder(t *testing.T) {
	t.Parallel()
	r := NewRing(64)
	const n = 10000

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			ev := Event{Cancel: &CancelEvent{OrderID: types.OrderID(strconv.Itoa(i))}}
			for !r.TryPush(ev) {
			}
		}
	}()

	received := 0
	outOfOrder := -1
	go func() {
		defer wg.Done()
		for received < n {
			if ev, ok := r.Pop(); ok {
				if outOfOrder < 0 && string(ev.Cancel.OrderID) != strconv.Itoa(received) {
					outOfOrder = received
				}
				received++
			}
		}
	}()

	wg.Wait()
	if received != n {
		t.Fatalf("received %d events, want %d", received, n)
	}
	if outOfOrder >= 0 {
		t.Fatalf("event at position %d arrived out of producer order", outOfOrder)
	}
}
