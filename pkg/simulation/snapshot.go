// pkg/simulation/snapshot.go
package simulation

import (
	"github.com/opd-ai/go-broadphase/pkg/collision"
	"github.com/opd-ai/go-broadphase/pkg/physics"
)

// Snapshot is a copy of the world after a step, safe to hand to other
// goroutines and to serialize.
type Snapshot struct {
	Tick       uint64                     `json:"tick" msgpack:"tick"`
	Bodies     []BodyState                `json:"bodies" msgpack:"bodies"`
	Collisions []physics.CollisionDetails `json:"collisions" msgpack:"collisions"`
	LineHits   int                        `json:"line_hits" msgpack:"line_hits"`
	Groups     map[string]collision.Stats `json:"groups" msgpack:"groups"`
}

// BodyState represents a snapshot of a body's state
type BodyState struct {
	ID       physics.BodyID   `json:"id" msgpack:"id"`
	Tag      string           `json:"tag,omitempty" msgpack:"tag,omitempty"`
	Group    string           `json:"group" msgpack:"group"`
	Box      physics.AABB     `json:"box" msgpack:"box"`
	Velocity physics.Vector2D `json:"velocity" msgpack:"velocity"`
	Static   bool             `json:"static,omitempty" msgpack:"static,omitempty"`
}

// Snapshot returns the state of every body, last step's collisions and the
// per-group tree statistics.
func (w *World) Snapshot() *Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	s := &Snapshot{
		Tick:       w.tick,
		Bodies:     make([]BodyState, 0, w.store.Len()),
		Collisions: append([]physics.CollisionDetails(nil), w.collisions...),
		LineHits:   w.lineHits,
		Groups:     make(map[string]collision.Stats, len(w.groups)),
	}

	w.store.Each(func(id physics.BodyID, b *physics.Body) {
		s.Bodies = append(s.Bodies, BodyState{
			ID:       id,
			Tag:      b.Tag,
			Group:    w.membership[id],
			Box:      b.AABB(),
			Velocity: b.Velocity,
			Static:   b.Static,
		})
	})

	for name, g := range w.groups {
		s.Groups[name] = g.Stats()
	}
	return s
}

// Filter returns a copy of s keeping only bodies whose tag is in tags, and
// the collisions that involve one of them. An empty tag list keeps everything.
func (s *Snapshot) Filter(tags []string) *Snapshot {
	if len(tags) == 0 {
		return s
	}
	keep := make(map[string]bool, len(tags))
	for _, t := range tags {
		keep[t] = true
	}

	out := &Snapshot{Tick: s.Tick, LineHits: s.LineHits, Groups: s.Groups}
	ids := make(map[physics.BodyID]bool)
	for _, b := range s.Bodies {
		if keep[b.Tag] {
			out.Bodies = append(out.Bodies, b)
			ids[b.ID] = true
		}
	}
	for _, d := range s.Collisions {
		if ids[d.Body1] || ids[d.Body2] {
			out.Collisions = append(out.Collisions, d)
		}
	}
	return out
}
