// Package events provides the in-process event bus used to decouple the
// scoring engine from its observers (notification fan-out, SSE/WebSocket
// streams, logging).
package events

import (
	"sync"
	"time"
)

// EventType identifies a class of event
type EventType string

const (
	// Community write events
	VoteRecorded    EventType = "vote_recorded"
	VoteRetracted   EventType = "vote_retracted"
	ReviewSubmitted EventType = "review_submitted"
	ReviewVerified  EventType = "review_verified"
	PromiseCreated  EventType = "promise_created"
	PromiseResolved EventType = "promise_resolved"

	// Scoring engine events
	ScoreRecalculated EventType = "score_recalculated"
	ScoreChanged      EventType = "score_changed"

	// Background job lifecycle events
	JobStarted   EventType = "job_started"
	JobCompleted EventType = "job_completed"
	JobFailed    EventType = "job_failed"

	// System events
	ErrorOccurred EventType = "error_occurred"
)

// Event is a single published event with its payload.
type Event struct {
	Type      EventType   `json:"type"`
	Module    string      `json:"module"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Handler receives published events. Handlers must not block; slow consumers
// should buffer internally (the SSE stream drops on a full channel).
type Handler func(*Event)

// Bus is a simple in-process publish/subscribe bus. Publishing is
// asynchronous with respect to the publisher: handlers run on a dedicated
// goroutine per Publish call, so a slow subscriber never blocks the scoring
// pipeline.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]*subscription
}

type subscription struct {
	handler Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]*subscription),
	}
}

// Subscribe registers a handler for an event type. The returned function
// removes the subscription; long-lived stream consumers must call it on
// disconnect.
func (b *Bus) Subscribe(eventType EventType, handler Handler) func() {
	sub := &subscription{handler: handler}

	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], sub)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.handlers[eventType]
		for i, s := range subs {
			if s == sub {
				b.handlers[eventType] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers an event to all subscribers of its type.
// Delivery is asynchronous; Publish returns immediately.
func (b *Bus) Publish(event *Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.RLock()
	subs := make([]*subscription, len(b.handlers[event.Type]))
	copy(subs, b.handlers[event.Type])
	b.mu.RUnlock()

	if len(subs) == 0 {
		return
	}

	go func() {
		for _, s := range subs {
			s.handler(event)
		}
	}()
}

// Emit is a convenience wrapper that builds and publishes an event.
func (b *Bus) Emit(eventType EventType, module string, data interface{}) {
	b.Publish(&Event{
		Type:      eventType,
		Module:    module,
		Timestamp: time.Now(),
		Data:      data,
	})
}

// EmitTyped publishes an event with a typed payload. Prefer this over Emit
// for events that cross module boundaries - subscribers can type-assert the
// payload instead of digging through maps.
func (b *Bus) EmitTyped(eventType EventType, module string, data EventData) {
	b.Publish(&Event{
		Type:      eventType,
		Module:    module,
		Timestamp: time.Now(),
		Data:      data,
	})
}
