// Package events is a small in-process pub/sub bus connecting the capture
// pipeline, the inspection queue, and the MCP notification surface.
package events

import "sync"

// Topics published across the process.
const (
	TopicElementInspected   = "element-inspected"
	TopicInspectorCancelled = "inspector-cancelled"
	TopicResultReceived     = "inspection-result-received"
	TopicPlanProgress       = "plan-progress-reported"
	TopicInspectionDeleted  = "inspection-deleted"
)

// Handler receives the payload published on a topic.
type Handler func(payload any)

// Bus delivers published payloads to topic subscribers synchronously on
// the publisher's goroutine. Handlers must not block.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[string]map[int]Handler
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[int]Handler)}
}

// Subscribe registers a handler for a topic and returns its unsubscribe
// function. Unsubscribing twice is harmless.
func (b *Bus) Subscribe(topic string, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]Handler)
	}
	b.subs[topic][id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[topic], id)
	}
}

// Publish invokes every handler subscribed to the topic with the payload.
func (b *Bus) Publish(topic string, payload any) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[topic]))
	for _, h := range b.subs[topic] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(payload)
	}
}
