package eventbus

import (
	"sync"

	"github.com/mwaldron/shopfloor-go/internal/domain/events"
)

// Bus provides pub/sub for simulation lifecycle events.
// It is an explicitly constructed instance owned by the simulation session
// and injected into the scheduler and ledger - there is no process-wide bus.
//
// Dispatch is synchronous: Emit invokes every matching handler before it
// returns, so subscribers observe transitions in the exact order the core
// performed them. The mutex only protects the subscriber table, allowing an
// outer driver to tick independent facilities concurrently against one bus.
type Bus struct {
	mu       sync.RWMutex
	nextSub  int
	seq      uint64
	handlers map[events.EventType]map[int]events.Handler
}

// Compile-time interface check
var _ events.Publisher = (*Bus)(nil)

// New creates an empty event bus.
func New() *Bus {
	return &Bus{
		handlers: make(map[events.EventType]map[int]events.Handler),
	}
}

// Subscribe registers a handler for one event type.
// Returns an unsubscribe function; calling it more than once is a no-op.
func (b *Bus) Subscribe(eventType events.EventType, handler events.Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextSub
	b.nextSub++

	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make(map[int]events.Handler)
	}
	b.handlers[eventType][id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.handlers[eventType], id)
			if len(b.handlers[eventType]) == 0 {
				delete(b.handlers, eventType)
			}
		})
	}
}

// SubscribeToMany registers one handler for several event types.
// Returns a single unsubscribe function covering all of them.
func (b *Bus) SubscribeToMany(types []events.EventType, handler events.Handler) func() {
	unsubs := make([]func(), 0, len(types))
	for _, t := range types {
		unsubs = append(unsubs, b.Subscribe(t, handler))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Emit delivers an event to every subscriber of its type.
// The sequence number increases monotonically across all event kinds.
func (b *Bus) Emit(eventType events.EventType, payload events.Payload, sourceID string) {
	b.mu.Lock()
	b.seq++
	evt := events.Event{
		Type:     eventType,
		Seq:      b.seq,
		SourceID: sourceID,
		Payload:  payload,
	}
	// Snapshot handlers so a handler may unsubscribe (itself or others)
	// without deadlocking or mutating the iteration.
	snapshot := make([]events.Handler, 0, len(b.handlers[eventType]))
	for _, h := range b.handlers[eventType] {
		snapshot = append(snapshot, h)
	}
	b.mu.Unlock()

	for _, h := range snapshot {
		h(evt)
	}
}

// SubscriberCount returns the number of handlers registered for a type.
// Useful for testing and monitoring.
func (b *Bus) SubscriberCount(eventType events.EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}

// LastSeq returns the sequence number of the most recently emitted event.
func (b *Bus) LastSeq() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.seq
}
