// Package events provides a lightweight in-process event bus used to push
// run lifecycle and progress notifications to the SSE stream.
package events

import (
	"sync"
	"time"
)

// EventType identifies the kind of event
type EventType string

const (
	// RunStarted - a batch run was accepted and is loading geometry
	RunStarted EventType = "run_started"
	// RunProgress - a unit finished processing (current/total)
	RunProgress EventType = "run_progress"
	// RunCompleted - the batch reached a terminal successful state
	RunCompleted EventType = "run_completed"
	// RunFailed - the batch aborted with a structural error
	RunFailed EventType = "run_failed"
	// RunCancelled - the batch was cancelled; finished units' results are kept
	RunCancelled EventType = "run_cancelled"
)

// Event is a single bus message
type Event struct {
	Type      EventType   `json:"type"`
	Source    string      `json:"source"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Handler processes an event. Handlers must not block.
type Handler func(event *Event)

// Bus is a simple synchronous publish/subscribe event bus
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[EventType]map[int]Handler
}

// NewBus creates an empty event bus
func NewBus() *Bus {
	return &Bus{handlers: make(map[EventType]map[int]Handler)}
}

// Subscribe registers a handler for an event type. The returned function
// removes the subscription; long-lived consumers (the SSE stream) call it
// on disconnect.
func (b *Bus) Subscribe(t EventType, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[t] == nil {
		b.handlers[t] = make(map[int]Handler)
	}
	id := b.nextID
	b.nextID++
	b.handlers[t][id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[t], id)
	}
}

// Emit delivers an event to all handlers registered for its type
func (b *Bus) Emit(t EventType, source string, data interface{}) {
	event := &Event{
		Type:      t,
		Source:    source,
		Data:      data,
		Timestamp: time.Now(),
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[t]))
	for _, h := range b.handlers[t] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}
