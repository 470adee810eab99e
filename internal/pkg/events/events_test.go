package events

import (
	"context"
	"testing"
)

func TestLocalBusDeliversToTopicSubscribers(t *testing.T) {
	bus := NewLocalBus()

	var inventory, damage int
	unsubscribe := bus.Subscribe(TopicInventoryUpdated, func(context.Context, Event) { inventory++ })
	bus.Subscribe(TopicDamageReportProcessed, func(context.Context, Event) { damage++ })

	if err := bus.Publish(context.Background(), Event{Topic: TopicInventoryUpdated}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if inventory != 1 || damage != 0 {
		t.Fatalf("expected inventory=1 damage=0, got %d %d", inventory, damage)
	}

	unsubscribe()
	unsubscribe()
	bus.Publish(context.Background(), Event{Topic: TopicInventoryUpdated})
	if inventory != 1 {
		t.Fatalf("handler ran after unsubscribe")
	}
	if bus.SubscriberCount(TopicInventoryUpdated) != 0 {
		t.Fatalf("expected no subscribers left")
	}
}

func TestLocalBusStampsOccurredAt(t *testing.T) {
	bus := NewLocalBus()
	var got Event
	bus.Subscribe(TopicInventoryChanged, func(_ context.Context, e Event) { got = e })
	bus.Publish(context.Background(), Event{Topic: TopicInventoryChanged})
	if got.OccurredAt.IsZero() {
		t.Fatal("expected OccurredAt to be set")
	}
}
