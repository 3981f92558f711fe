// Package events provides a publish/subscribe event bus for operational
// observability. Events flow from components (the agent engine, the HTTP
// server) to subscribers (the WebSocket handler, tests). The bus is
// nil-safe: calling Publish on a nil *Bus is a no-op, so components do
// not need guard checks.
package events

import (
	"sync"
	"time"
)

// Source constants identify which component published an event.
const (
	// SourceEngine identifies events from the reason/act/fold loop.
	SourceEngine = "engine"
	// SourceAPI identifies events from the HTTP server.
	SourceAPI = "api"
)

// Kind constants describe the type of event within a source. The engine
// kinds mirror the phase tags of the agent log callback.
const (
	// KindReason signals a completed reasoning step.
	// Data: request_id, cycle, thought, elapsed_ms.
	KindReason = "reason"
	// KindActStart signals the start of a tool batch.
	// Data: request_id, cycle, actions.
	KindActStart = "act_start"
	// KindActFinish signals completion of a tool batch.
	// Data: request_id, cycle, results (per-action ok/error).
	KindActFinish = "act_finish"
	// KindFold signals a context folding pass.
	// Data: request_id, cycle, folded.
	KindFold = "fold"
	// KindError signals a non-fatal or fatal engine error.
	// Data: request_id, error.
	KindError = "error"

	// KindTurnStart signals an incoming chat turn.
	// Data: request_id, conversation_id, sender.
	KindTurnStart = "turn_start"
	// KindTurnComplete signals a finished chat turn.
	// Data: request_id, conversation_id, cycles, elapsed_ms, topic_change.
	KindTurnComplete = "turn_complete"
)

// Event represents a single operational event published by a component.
type Event struct {
	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"ts"`
	// Source identifies the component that published the event.
	Source string `json:"source"`
	// Kind describes the type of event within the source.
	Kind string `json:"kind"`
	// Data holds event-specific key/value pairs.
	Data map[string]any `json:"data,omitempty"`
}

// Bus is a non-blocking broadcast event bus. Subscribers receive events
// on buffered channels; slow subscribers miss events rather than
// blocking publishers.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
	// recvToSend maps the receive-only channel returned by Subscribe
	// back to the bidirectional channel stored in subs, so Unsubscribe
	// can accept the caller's <-chan Event view.
	recvToSend map[<-chan Event]chan Event
}

// New creates a new event bus ready for use.
func New() *Bus {
	return &Bus{
		subs:       make(map[chan Event]struct{}),
		recvToSend: make(map[<-chan Event]chan Event),
	}
}

// Publish sends an event to all subscribers. Non-blocking: if a
// subscriber's channel is full, the event is dropped for that
// subscriber. Safe to call on a nil receiver (no-op).
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			// Subscriber is full — drop the event rather than block.
		}
	}
}

// Subscribe returns a channel that receives published events. The
// caller must eventually call Unsubscribe to avoid resource leaks.
// bufSize controls the channel buffer; 64 is a reasonable default for
// WebSocket consumers.
func (b *Bus) Subscribe(bufSize int) <-chan Event {
	ch := make(chan Event, bufSize)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[ch] = struct{}{}
	b.recvToSend[ch] = ch
	return ch
}

// Unsubscribe removes a subscription and closes the channel. Safe to
// call with a channel that is already unsubscribed (no-op).
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sendCh, ok := b.recvToSend[ch]
	if !ok {
		return
	}
	delete(b.subs, sendCh)
	delete(b.recvToSend, ch)
	close(sendCh)
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
