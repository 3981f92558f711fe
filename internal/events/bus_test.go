package events

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	bus := New()
	ch := bus.Subscribe(4)
	defer bus.Unsubscribe(ch)

	bus.Publish(Event{
		Timestamp: time.Now(),
		Source:    SourceEngine,
		Kind:      KindReason,
		Data:      map[string]any{"cycle": 0},
	})

	select {
	case e := <-ch:
		if e.Source != SourceEngine || e.Kind != KindReason {
			t.Errorf("got event %s/%s, want engine/reason", e.Source, e.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestPublishNilBusIsNoOp(t *testing.T) {
	var bus *Bus
	bus.Publish(Event{Kind: KindError}) // must not panic
	if got := bus.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount() on nil bus = %d, want 0", got)
	}
}

func TestFullSubscriberDropsEvents(t *testing.T) {
	bus := New()
	ch := bus.Subscribe(1)
	defer bus.Unsubscribe(ch)

	// Fill the buffer, then publish more. Publish must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			bus.Publish(Event{Kind: KindActStart})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}

	if len(ch) != 1 {
		t.Errorf("subscriber buffer = %d events, want 1", len(ch))
	}
}

func TestUnsubscribeTwiceIsSafe(t *testing.T) {
	bus := New()
	ch := bus.Subscribe(1)
	bus.Unsubscribe(ch)
	bus.Unsubscribe(ch) // no-op, must not panic

	if got := bus.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", got)
	}
}
