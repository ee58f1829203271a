// pkg/simulation/system.go
package simulation

import (
	"context"

	"github.com/EngoEngine/ecs"

	"github.com/opd-ai/go-broadphase/pkg/physics"
)

// CollisionSystem plugs a World into an ecs.World. Entities are linked to
// bodies; removing an entity removes its body.
type CollisionSystem struct {
	World *World

	entities map[uint64]physics.BodyID
}

// NewCollisionSystem creates a system stepping w.
func NewCollisionSystem(w *World) *CollisionSystem {
	return &CollisionSystem{
		World:    w,
		entities: make(map[uint64]physics.BodyID),
	}
}

// Add links an entity to a body already in the world.
func (s *CollisionSystem) Add(basic *ecs.BasicEntity, id physics.BodyID) {
	s.entities[basic.ID()] = id
}

// BodyOf returns the body linked to an entity.
func (s *CollisionSystem) BodyOf(basic ecs.BasicEntity) (physics.BodyID, bool) {
	id, ok := s.entities[basic.ID()]
	return id, ok
}

// Remove unlinks the entity and removes its body from the world.
func (s *CollisionSystem) Remove(basic ecs.BasicEntity) {
	id, ok := s.entities[basic.ID()]
	if !ok {
		return
	}
	delete(s.entities, basic.ID())
	if err := s.World.RemoveBody(id); err != nil {
		s.World.logger.Debug(context.Background(), "entity body already gone", "entity", basic.ID(), "body", id)
	}
}

// Update steps the world by dt.
func (s *CollisionSystem) Update(dt float32) {
	s.World.Step(float64(dt))
}
