// Package events carries the pipeline events the block lifecycle projects
// at each state boundary and a small synchronous pub/sub broker to
// deliver them.
package events

import (
	"log"
	"sync"

	"github.com/ledgerforge/corechain/crypto"
)

// Entity identifies what an Event is about.
type Entity string

const (
	EntityTransaction Entity = "transaction"
	EntityBlock       Entity = "block"
)

// Status is the pipeline stage an entity has reached.
type Status string

const (
	StatusValidating Status = "validating"
	StatusCommitted  Status = "committed"
	StatusRejected   Status = "rejected"
)

// Event is a single pipeline event recommendation.
type Event struct {
	Entity Entity
	Status Status
	Hash   crypto.Hash
	// Reason is set only for StatusRejected transaction events.
	Reason string
}

// Handler is a callback invoked for matching events.
type Handler func(Event)

// Emitter is a simple synchronous pub/sub broker. Subscribe before Emit.
type Emitter struct {
	mu       sync.RWMutex
	handlers map[Entity][]Handler
}

// NewEmitter creates an Emitter with no subscribers.
func NewEmitter() *Emitter {
	return &Emitter{handlers: make(map[Entity][]Handler)}
}

// Subscribe registers h to be called whenever an event for entity is emitted.
func (e *Emitter) Subscribe(entity Entity, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[entity] = append(e.handlers[entity], h)
}

// Emit delivers ev to all subscribers for ev.Entity synchronously, in
// subscription order. Each handler is guarded by panic recovery so a
// misbehaving subscriber cannot halt block production.
func (e *Emitter) Emit(ev Event) {
	e.mu.RLock()
	handlers := e.handlers[ev.Entity]
	e.mu.RUnlock()
	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[events] handler panicked for %s/%s: %v", ev.Entity, ev.Status, r)
				}
			}()
			h(ev)
		}()
	}
}

// EmitAll delivers a batch of events in order. Event projection depends
// on that order being preserved end to end.
func (e *Emitter) EmitAll(evs []Event) {
	for _, ev := range evs {
		e.Emit(ev)
	}
}
