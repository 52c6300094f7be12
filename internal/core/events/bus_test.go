package events

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pi5trading/tradecore/internal/core/types"
)

func TestSubscribePublishDeliversToSubscriber(t *testing.T) {
	t.Parallel()
	b := NewBus(4, zerolog.Nop())
	ch := b.Subscribe(EventTypeTrade)

	b.Publish(context.Background(), NewTradeEvent(types.Trade{ID: "T1"}))

	select {
	case ev := <-ch:
		te, ok := ev.(*TradeEvent)
		if !ok || te.Trade.ID != "T1" {
			t.Fatalf("received %+v, want TradeEvent with ID T1", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for published event")
	}
}

func TestPublishDoesNotDeliverToOtherEventTypes(t *testing.T) {
	t.Parallel()
	b := NewBus(4, zerolog.Nop())
	tradeCh := b.Subscribe(EventTypeTrade)

	b.Publish(context.Background(), NewPositionEvent(types.Position{Symbol: "AAPL"}))

	select {
	case ev := <-tradeCh:
		t.Fatalf("trade subscriber should not receive a position event, got %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishDropsOnFullSubscriberChannel(t *testing.T) {
	t.Parallel()
	b := NewBus(1, zerolog.Nop())
	ch := b.Subscribe(EventTypeTrade)

	b.Publish(context.Background(), NewTradeEvent(types.Trade{ID: "T1"})) // fills the buffer
	b.Publish(context.Background(), NewTradeEvent(types.Trade{ID: "T2"})) // should be dropped

	metrics := b.GetMetrics()[EventTypeTrade]
	if metrics.DroppedCount != 1 {
		t.Fatalf("dropped count = %d, want 1", metrics.DroppedCount)
	}
	if metrics.PublishedCount != 1 {
		t.Fatalf("published count = %d, want 1", metrics.PublishedCount)
	}

	got := <-ch
	if got.(*TradeEvent).Trade.ID != "T1" {
		t.Fatal("only the first event should have made it through")
	}
}

func TestPublishBlockingWaitsForSlowSubscriber(t *testing.T) {
	t.Parallel()
	b := NewBus(1, zerolog.Nop())
	ch := b.Subscribe(EventTypeTrade)
	b.PublishBlocking(context.Background(), NewTradeEvent(types.Trade{ID: "T1"}))

	done := make(chan error, 1)
	go func() {
		done <- b.PublishBlocking(context.Background(), NewTradeEvent(types.Trade{ID: "T2"}))
	}()

	<-ch // drain the first event, unblocking the second publish

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("PublishBlocking returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("PublishBlocking should unblock once the subscriber drains a slot")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	t.Parallel()
	b := NewBus(4, zerolog.Nop())
	ch := b.Subscribe(EventTypeTrade)
	b.Unsubscribe(EventTypeTrade, ch)

	b.Publish(context.Background(), NewTradeEvent(types.Trade{ID: "T1"}))

	if _, open := <-ch; open {
		t.Fatal("channel should be closed after Unsubscribe")
	}
}
