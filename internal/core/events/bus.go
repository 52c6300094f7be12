package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Bus distributes ExecutionReport/Trade/Position notifications to
// registered observers using buffered Go channels, adapted from the
// teacher's EventBus mechanism: non-blocking Publish with
// per-subscriber drop-on-full, PublishBlocking for callers that must
// not drop, Close to tear down at shutdown.
type Bus struct {
	subscribers map[EventType][]chan Event
	mu          sync.RWMutex
	bufferSize  int
	logger      zerolog.Logger

	publishedCount map[EventType]int64
	droppedCount   map[EventType]int64
	metricsLock    sync.RWMutex
}

func NewBus(bufferSize int, logger zerolog.Logger) *Bus {
	return &Bus{
		subscribers:    make(map[EventType][]chan Event),
		bufferSize:     bufferSize,
		logger:         logger,
		publishedCount: make(map[EventType]int64),
		droppedCount:   make(map[EventType]int64),
	}
}

// Subscribe returns a read-only channel receiving every future event
// of eventType.
func (b *Bus) Subscribe(eventType EventType) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.bufferSize)
	b.subscribers[eventType] = append(b.subscribers[eventType], ch)
	b.logger.Debug().
		Str("event_type", string(eventType)).
		Int("total_subscribers", len(b.subscribers[eventType])).
		Msg("new event subscriber registered")
	return ch
}

// Publish sends event to every subscriber of its type without
// blocking: a subscriber whose channel is full has this event dropped
// for it only, logged at Warn.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	subscribers := b.subscribers[event.Type()]
	b.mu.RUnlock()

	if len(subscribers) == 0 {
		return
	}

	var dropped int
	for i, ch := range subscribers {
		select {
		case ch <- event:
		case <-ctx.Done():
			return
		default:
			dropped++
			b.logger.Warn().
				Str("event_type", string(event.Type())).
				Int("subscriber_index", i).
				Msg("subscriber channel full, event dropped")
		}
	}
	b.updateMetrics(event.Type(), len(subscribers)-dropped, dropped)
}

// PublishBlocking sends event and blocks until every subscriber has
// received it, or ctx is canceled.
func (b *Bus) PublishBlocking(ctx context.Context, event Event) error {
	b.mu.RLock()
	subscribers := b.subscribers[event.Type()]
	b.mu.RUnlock()

	if len(subscribers) == 0 {
		return nil
	}
	for _, ch := range subscribers {
		select {
		case ch <- event:
		case <-ctx.Done():
			return fmt.Errorf("publish canceled: %w", ctx.Err())
		}
	}
	b.updateMetrics(event.Type(), len(subscribers), 0)
	return nil
}

// Unsubscribe removes ch from eventType's subscriber list and closes it.
func (b *Bus) Unsubscribe(eventType EventType, ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[eventType]
	for i, sub := range subs {
		if sub == ch {
			b.subscribers[eventType] = append(subs[:i], subs[i+1:]...)
			close(sub)
			return
		}
	}
}

// Close closes every subscriber channel and clears the registry.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, subs := range b.subscribers {
		for _, ch := range subs {
			close(ch)
		}
	}
	b.subscribers = make(map[EventType][]chan Event)
}

func (b *Bus) updateMetrics(eventType EventType, published, dropped int) {
	b.metricsLock.Lock()
	defer b.metricsLock.Unlock()
	b.publishedCount[eventType] += int64(published)
	b.droppedCount[eventType] += int64(dropped)
}

// Metrics is published/dropped counters for one event type.
type Metrics struct {
	EventType      EventType
	PublishedCount int64
	DroppedCount   int64
}

// GetMetrics returns a snapshot of publish/drop counters per event type.
func (b *Bus) GetMetrics() map[EventType]Metrics {
	b.metricsLock.RLock()
	defer b.metricsLock.RUnlock()

	out := make(map[EventType]Metrics, len(b.publishedCount))
	for t := range b.publishedCount {
		out[t] = Metrics{EventType: t, PublishedCount: b.publishedCount[t], DroppedCount: b.droppedCount[t]}
	}
	return out
}
