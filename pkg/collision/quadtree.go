// pkg/collision/quadtree.go
package collision

import (
	"context"
	"math"

	"github.com/opd-ai/go-broadphase/pkg/physics"
)

// Update rebuilds the tree from the current box of every member, in insertion
// order. Members whose handle no longer resolves are dropped from the group.
// Members whose box has a non-finite edge stay in the group but are left out
// of the tree and counted in Stats.Unplaced.
func (g *Group) Update() {
	if len(g.bodies) == 0 {
		return
	}

	g.nodes.reset()
	g.tmpDepth = g.depth
	g.root = g.nodes.alloc(g.bounds)

	unplaced := 0
	kept := g.bodies[:0]
	for _, id := range g.bodies {
		body, ok := g.src.Get(id)
		if !ok {
			delete(g.members, id)
			g.logger.Debug(context.Background(), "dropping unresolved body", "id", id.String())
			continue
		}
		kept = append(kept, id)

		box := body.AABB()
		if !finite(box) {
			g.logger.Debug(context.Background(), "skipping body with non-finite box", "id", id.String())
			unplaced++
			continue
		}
		if box.IsCompletelyInside(g.nodes.nodes[g.root].bounds) {
			g.subInsert(g.root, id, box, g.tmpDepth)
		} else {
			g.supInsert(id, box)
		}
	}
	g.bodies = kept

	g.recordRebuild(unplaced)
}

// subInsert walks down from n while depth remains and box fits entirely in one
// quadrant, creating children on demand, and stores id where it stops.
func (g *Group) subInsert(n int32, id physics.BodyID, box physics.AABB, depth uint) {
	for ; depth > 0; depth-- {
		child := g.childFor(n, box)
		if child == nilNode {
			break
		}
		n = child
	}
	target := &g.nodes.nodes[n]
	target.bodies = append(target.bodies, id)
}

// childFor returns the child of n whose quadrant contains box, allocating it
// if needed, or nilNode when box straddles the split lines.
func (g *Group) childFor(n int32, box physics.AABB) int32 {
	parent := g.nodes.nodes[n].bounds
	for q := physics.NorthWest; q <= physics.SouthEast; q++ {
		quadrant := parent.Quadrant(q)
		if !box.IsCompletelyInside(quadrant) {
			continue
		}
		child := g.nodes.nodes[n].children[q]
		if child == nilNode {
			child = g.nodes.alloc(quadrant)
			g.nodes.nodes[n].children[q] = child
		}
		return child
	}
	return nilNode
}

// supInsert grows the tree upward until the root contains box. Each new root
// doubles the old one toward the box, adopts the old root as the matching
// quadrant and adds one level of depth. Growth stops before the root would
// leave the float64 range; the body is then stored at the current root.
func (g *Group) supInsert(id physics.BodyID, box physics.AABB) {
	for {
		old := g.nodes.nodes[g.root].bounds
		if box.IsCompletelyInside(old) {
			break
		}

		grown := physics.AABB{Position: old.Position, Size: old.Size.Scale(2)}
		quadrant := physics.NorthWest
		if box.Left() < old.Left() {
			grown.Position.X -= old.Width()
			quadrant += physics.NorthEast
		}
		if box.Top() < old.Top() {
			grown.Position.Y -= old.Height()
			quadrant += physics.SouthWest
		}
		if !finite(grown) {
			g.logger.Debug(context.Background(), "tree cannot grow further, storing body at root",
				"id", id.String(),
				"root", old)
			break
		}

		root := g.nodes.alloc(grown)
		g.nodes.nodes[root].children[quadrant] = g.root
		g.root = root
		g.tmpDepth++
	}
	g.subInsert(g.root, id, box, g.tmpDepth)
}

// finite reports whether every edge and the size of b are real numbers.
func finite(b physics.AABB) bool {
	for _, v := range [...]float64{b.Left(), b.Top(), b.Right(), b.Bottom(), b.Size.X, b.Size.Y} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
