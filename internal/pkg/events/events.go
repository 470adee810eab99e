// Package events carries catalog change notifications between the components that
// produce them (admin tooling, inventory sync, damage reports) and the ones that
// react (catalog reload, cart re-validation).
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type Topic string

const (
	TopicInventoryUpdated      Topic = "inventory_updated"
	TopicDamageReportProcessed Topic = "damage_report_processed"
	TopicRentalItemsChanged    Topic = "rental_items_changed"
	TopicInventoryChanged      Topic = "inventory_changed"
)

// Event is one change notification.
type Event struct {
	Topic      Topic           `json:"topic"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Handler reacts to an event. Handlers run on the publishing goroutine.
type Handler func(ctx context.Context, e Event)

// Bus is the observer interface components register against.
type Bus interface {
	Publish(ctx context.Context, e Event) error
	// Subscribe registers h for topic and returns the func that removes it.
	Subscribe(topic Topic, h Handler) (unsubscribe func())
}

// LocalBus dispatches events in process.
type LocalBus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[Topic]map[int]Handler
}

func NewLocalBus() *LocalBus {
	return &LocalBus{handlers: make(map[Topic]map[int]Handler)}
}

func (b *LocalBus) Publish(ctx context.Context, e Event) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	b.dispatch(ctx, e)
	return nil
}

func (b *LocalBus) Subscribe(topic Topic, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.handlers[topic] == nil {
		b.handlers[topic] = make(map[int]Handler)
	}
	b.handlers[topic][id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.handlers[topic], id)
			if len(b.handlers[topic]) == 0 {
				delete(b.handlers, topic)
			}
		})
	}
}

// SubscriberCount returns the number of handlers registered for topic.
func (b *LocalBus) SubscriberCount(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[topic])
}

func (b *LocalBus) dispatch(ctx context.Context, e Event) {
	b.mu.RLock()
	hs := make([]Handler, 0, len(b.handlers[e.Topic]))
	for _, h := range b.handlers[e.Topic] {
		hs = append(hs, h)
	}
	b.mu.RUnlock()

	for _, h := range hs {
		h(ctx, e)
	}
}
