// pkg/event/event.go
package event

import (
	"sync"

	"github.com/opd-ai/go-broadphase/pkg/collision"
	"github.com/opd-ai/go-broadphase/pkg/physics"
)

// Type represents the type of event
type Type string

// Event types published by the simulation
const (
	Collision         Type = "collision"
	BodyAdded         Type = "body_added"
	BodyRemoved       Type = "body_removed"
	PoolOverflow      Type = "pool_overflow"
	SimulationStarted Type = "simulation_started"
	SimulationStopped Type = "simulation_stopped"
)

// Event is the base interface for all events
type Event interface {
	GetType() Type
	GetSource() interface{}
}

// BaseEvent provides common functionality for all events
type BaseEvent struct {
	EventType Type
	Source    interface{}
}

// GetType returns the event type
func (e *BaseEvent) GetType() Type {
	return e.EventType
}

// GetSource returns the event source
func (e *BaseEvent) GetSource() interface{} {
	return e.Source
}

// Handler is a function that handles events
type Handler func(Event)

// Subscription identifies one registered handler. Cancel removes it; calling
// Cancel more than once is harmless.
type Subscription struct {
	ID     uint64
	Cancel func()
}

type registration struct {
	id      uint64
	handler Handler
}

// Bus manages event subscriptions and dispatching. Handlers run synchronously
// on the publishing goroutine.
type Bus struct {
	handlers map[Type][]registration
	nextID   uint64
	mu       sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]registration),
		nextID:   1,
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType Type, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], registration{id: id, handler: handler})

	return &Subscription{
		ID:     id,
		Cancel: func() { b.unsubscribe(eventType, id) },
	}
}

func (b *Bus) unsubscribe(eventType Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	current := b.handlers[eventType]
	// Publish may be iterating the old slice, so build a new one.
	kept := make([]registration, 0, len(current))
	for _, r := range current {
		if r.id != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		delete(b.handlers, eventType)
		return
	}
	b.handlers[eventType] = kept
}

// Publish sends an event to all subscribed handlers
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := b.handlers[event.GetType()]
	b.mu.RUnlock()

	for _, r := range handlers {
		r.handler(event)
	}
}

// CollisionEvent reports one resolved pair.
type CollisionEvent struct {
	BaseEvent
	Tick    uint64
	Details physics.CollisionDetails
}

// NewCollisionEvent creates a new collision event
func NewCollisionEvent(source interface{}, tick uint64, details physics.CollisionDetails) *CollisionEvent {
	return &CollisionEvent{
		BaseEvent: BaseEvent{EventType: Collision, Source: source},
		Tick:      tick,
		Details:   details,
	}
}

// BodyEvent reports a body entering or leaving the world.
type BodyEvent struct {
	BaseEvent
	Body  physics.BodyID
	Group string
	Tag   string
}

// NewBodyEvent creates a BodyAdded or BodyRemoved event.
func NewBodyEvent(eventType Type, source interface{}, id physics.BodyID, group, tag string) *BodyEvent {
	return &BodyEvent{
		BaseEvent: BaseEvent{EventType: eventType, Source: source},
		Body:      id,
		Group:     group,
		Tag:       tag,
	}
}

// PoolOverflowEvent reports a quadtree rebuild that outgrew its node pool.
type PoolOverflowEvent struct {
	BaseEvent
	Group string
	Stats collision.Stats
}

// NewPoolOverflowEvent creates a new pool overflow event
func NewPoolOverflowEvent(source interface{}, group string, stats collision.Stats) *PoolOverflowEvent {
	return &PoolOverflowEvent{
		BaseEvent: BaseEvent{EventType: PoolOverflow, Source: source},
		Group:     group,
		Stats:     stats,
	}
}

// SimulationEvent marks the simulation starting or stopping.
type SimulationEvent struct {
	BaseEvent
	Tick uint64
}

// NewSimulationEvent creates a SimulationStarted or SimulationStopped event.
func NewSimulationEvent(eventType Type, source interface{}, tick uint64) *SimulationEvent {
	return &SimulationEvent{
		BaseEvent: BaseEvent{EventType: eventType, Source: source},
		Tick:      tick,
	}
}
