package events

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// subscription is one receiver on the bus; match selects what it gets.
type subscription struct {
	ch    chan Event
	match func(Event) bool
}

// Bus fans events out to subscribers and records them in the event log.
// Delivery never blocks: a subscriber whose buffer is full misses the event.
type Bus struct {
	mu     sync.RWMutex
	subs   []*subscription
	log    *EventLog
	logger *slog.Logger
	closed bool
}

// NewBus creates a bus. A nil log disables persistence.
func NewBus(log *EventLog, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{log: log, logger: logger.With("component", "events")}
}

// Publish persists e, then hands it to every matching subscriber.
// Persistence failures are logged; the event is still delivered.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return nil
	}

	if b.log != nil {
		id, err := b.log.Append(ctx, e)
		if err != nil {
			b.logger.Error("failed to persist event", "type", e.EventType(), "error", err)
		} else if le, ok := e.(logged); ok {
			le.setLogID(id)
		}
	}

	// Sends happen under the read lock so Close cannot close a channel mid-send.
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		if !s.match(e) {
			continue
		}
		select {
		case s.ch <- e:
		default:
			b.logger.Warn("subscriber full, dropping event",
				"type", e.EventType(),
				"entity_type", e.EntityType(),
				"entity_id", e.EntityID())
		}
	}
	return nil
}

func (b *Bus) subscribe(bufferSize int, match func(Event) bool) <-chan Event {
	ch := make(chan Event, bufferSize)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, &subscription{ch: ch, match: match})
	return ch
}

// Subscribe returns a channel for events of one type.
func (b *Bus) Subscribe(eventType string, bufferSize int) <-chan Event {
	return b.SubscribeTypes(bufferSize, eventType)
}

// SubscribeTypes returns one channel carrying events of any of the given types.
func (b *Bus) SubscribeTypes(bufferSize int, eventTypes ...string) <-chan Event {
	types := slices.Clone(eventTypes)
	return b.subscribe(bufferSize, func(e Event) bool {
		return slices.Contains(types, e.EventType())
	})
}

// SubscribeAll returns a channel for every event.
func (b *Bus) SubscribeAll(bufferSize int) <-chan Event {
	return b.subscribe(bufferSize, func(Event) bool { return true })
}

// SubscribeEntity returns events about one entity, such as a media identity
// or a profile.
func (b *Bus) SubscribeEntity(entityType, entityID string, bufferSize int) <-chan Event {
	return b.subscribe(bufferSize, func(e Event) bool {
		return e.EntityType() == entityType && e.EntityID() == entityID
	})
}

// Unsubscribe removes and closes ch. Unknown channels are ignored.
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := slices.IndexFunc(b.subs, func(s *subscription) bool { return s.ch == ch })
	if i < 0 {
		return
	}
	close(b.subs[i].ch)
	b.subs = slices.Delete(b.subs, i, i+1)
}

// Close closes every subscriber channel. Later publishes are dropped and
// later subscriptions receive a closed channel.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for _, s := range b.subs {
		close(s.ch)
	}
	b.subs = nil
	return nil
}
