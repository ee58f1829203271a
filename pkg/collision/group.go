// Package collision implements the broad phase: a quadtree over a group of
// bodies, rebuilt from scratch every frame, that narrows collision tests down
// to bodies sharing a region.
package collision

import (
	"context"
	"slices"

	"github.com/opd-ai/go-broadphase/pkg/logging"
	"github.com/opd-ai/go-broadphase/pkg/physics"
)

// DefaultDepth is the subdivision depth used when none is configured.
const DefaultDepth = 5

// BodySource resolves body handles. *physics.Store implements it.
type BodySource interface {
	Get(id physics.BodyID) (*physics.Body, bool)
}

// Group is a set of bodies indexed by a quadtree. The tree only exists after
// Update and reflects body boxes at that moment; it is never patched
// incrementally.
type Group struct {
	src     BodySource
	bodies  []physics.BodyID
	members map[physics.BodyID]struct{}

	root      int32
	depth     uint
	tmpDepth  uint
	bounds    physics.AABB
	poolDepth uint
	nodes     *arena
	queue     []int32

	stats       Stats
	overflowing bool
	onOverflow  func(Stats)
	logger      *logging.Logger
}

// NewGroup creates an empty group. bounds is the region the tree covers before
// it grows, depth the number of subdivisions below the root, and poolDepth the
// depth of the complete tree the node pool is sized for.
func NewGroup(src BodySource, bounds physics.AABB, depth, poolDepth uint) *Group {
	return &Group{
		src:       src,
		members:   make(map[physics.BodyID]struct{}),
		root:      nilNode,
		depth:     depth,
		bounds:    normalizeBounds(bounds),
		poolDepth: poolDepth,
		nodes:     newArena(CalculatePoolSize(poolDepth)),
		logger:    logging.Discard(),
	}
}

// SetLogger sets the logger used for overflow warnings and dropped handles.
func (g *Group) SetLogger(l *logging.Logger) {
	if l == nil {
		l = logging.Discard()
	}
	g.logger = l
}

// OnOverflow registers fn to run after every rebuild that needed more nodes
// than the pool holds.
func (g *Group) OnOverflow(fn func(Stats)) {
	g.onOverflow = fn
}

// Add inserts id into the group. It reports false if id is already a member.
// The tree picks the body up on the next Update.
func (g *Group) Add(id physics.BodyID) bool {
	if _, ok := g.members[id]; ok {
		return false
	}
	g.members[id] = struct{}{}
	g.bodies = append(g.bodies, id)
	return true
}

// Remove takes id out of the group. The current tree may still reference it
// until the next Update.
func (g *Group) Remove(id physics.BodyID) bool {
	if _, ok := g.members[id]; !ok {
		return false
	}
	delete(g.members, id)
	if i := slices.Index(g.bodies, id); i >= 0 {
		g.bodies = slices.Delete(g.bodies, i, i+1)
	}
	return true
}

// Has reports whether id is a member.
func (g *Group) Has(id physics.BodyID) bool {
	_, ok := g.members[id]
	return ok
}

// Bodies returns the members in insertion order.
func (g *Group) Bodies() []physics.BodyID {
	return slices.Clone(g.bodies)
}

// Len returns the number of members.
func (g *Group) Len() int {
	return len(g.bodies)
}

func (g *Group) Depth() uint { return g.depth }

// SetDepth changes the subdivision depth from the next Update on.
func (g *Group) SetDepth(depth uint) { g.depth = depth }

func (g *Group) Bounds() physics.AABB { return g.bounds }

// SetBounds changes the initial root region from the next Update on.
func (g *Group) SetBounds(bounds physics.AABB) { g.bounds = normalizeBounds(bounds) }

func (g *Group) PoolDepth() uint { return g.poolDepth }

// SetPoolDepth resizes the node pool and drops the current tree.
func (g *Group) SetPoolDepth(poolDepth uint) {
	g.poolDepth = poolDepth
	g.nodes.resize(CalculatePoolSize(poolDepth))
	g.root = nilNode
}

// Clear drops the tree and any overflow nodes. Members are kept and the
// effective depth falls back to the configured one.
func (g *Group) Clear() {
	g.nodes.reset()
	g.root = nilNode
	g.tmpDepth = g.depth
	g.stats.EffectiveDepth = g.depth
}

// Built reports whether a tree is available for queries.
func (g *Group) Built() bool {
	return g.root != nilNode
}

// Stats returns counters from the latest rebuild and running totals.
func (g *Group) Stats() Stats {
	return g.stats
}

func (g *Group) recordRebuild(unplaced int) {
	s := &g.stats
	if unplaced > 0 && s.Unplaced == 0 {
		g.logger.Warn(context.Background(), "bodies left out of the quadtree",
			"unplaced", unplaced,
			"bodies", len(g.bodies))
	}
	s.Unplaced = unplaced
	s.Rebuilds++
	s.Bodies = len(g.bodies)
	s.Nodes = g.nodes.len()
	s.PoolCapacity = g.nodes.poolSize
	s.Overflow = g.nodes.overflow
	s.EffectiveDepth = g.tmpDepth

	if s.Overflow == 0 {
		g.overflowing = false
		s.OverflowStreak = 0
		return
	}

	s.TotalOverflow += uint64(s.Overflow)
	s.OverflowFrames++
	s.OverflowStreak++
	if !g.overflowing {
		g.logger.Warn(context.Background(), "quadtree node pool exhausted",
			"overflow", s.Overflow,
			"pool_capacity", s.PoolCapacity,
			"pool_depth", g.poolDepth,
			"bodies", s.Bodies)
	}
	g.overflowing = true
	if g.onOverflow != nil {
		g.onOverflow(*s)
	}
}

// normalizeBounds gives degenerate bounds a unit size so the tree can always
// grow by doubling.
func normalizeBounds(b physics.AABB) physics.AABB {
	if !(b.Size.X > 0) {
		b.Size.X = 1
	}
	if !(b.Size.Y > 0) {
		b.Size.Y = 1
	}
	return b
}
