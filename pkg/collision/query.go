// pkg/collision/query.go
package collision

import "github.com/opd-ai/go-broadphase/pkg/physics"

// Collide resolves id against every body stored in a node its box reaches,
// breadth first from the root. Bodies are moved and their velocities updated
// as pairs are resolved. It returns the details of every pair that collided;
// nothing when the tree is not built or id does not resolve.
func (g *Group) Collide(id physics.BodyID) []physics.CollisionDetails {
	if g.root == nilNode {
		return nil
	}
	query, ok := g.src.Get(id)
	if !ok {
		return nil
	}
	box := query.AABB()
	if !box.Overlaps(g.nodes.nodes[g.root].bounds) {
		return nil
	}

	var details []physics.CollisionDetails
	g.queue = append(g.queue[:0], g.root)
	for head := 0; head < len(g.queue); head++ {
		n := g.queue[head]

		hit := false
		for _, storedID := range g.nodes.nodes[n].bodies {
			stored, ok := g.src.Get(storedID)
			if !ok {
				continue
			}
			if collided, d := physics.Collide(stored, query); collided {
				details = append(details, d)
				hit = true
			}
		}
		if hit {
			box = query.AABB()
		}

		for _, child := range g.nodes.nodes[n].children {
			if child != nilNode && g.nodes.nodes[child].bounds.Overlaps(box) {
				g.queue = append(g.queue, child)
			}
		}
	}
	return details
}

// CollideGroup collides every body of other against g, in other's order, and
// concatenates the results.
func (g *Group) CollideGroup(other *Group) []physics.CollisionDetails {
	var details []physics.CollisionDetails
	for _, id := range other.Bodies() {
		details = append(details, g.Collide(id)...)
	}
	return details
}

// CollideSelf collides the group with itself. A body is never reported
// against itself.
func (g *Group) CollideSelf() []physics.CollisionDetails {
	return g.CollideGroup(g)
}

// Query calls fn for every member stored in a node whose bounds overlap box.
// Candidates are not tested against box themselves. Iteration stops when fn
// returns false.
func (g *Group) Query(box physics.AABB, fn func(id physics.BodyID) bool) {
	if g.root == nilNode || !box.Overlaps(g.nodes.nodes[g.root].bounds) {
		return
	}
	queue := []int32{g.root}
	for head := 0; head < len(queue); head++ {
		n := queue[head]
		for _, id := range g.nodes.nodes[n].bodies {
			if !fn(id) {
				return
			}
		}
		for _, child := range g.nodes.nodes[n].children {
			if child != nilNode && g.nodes.nodes[child].bounds.Overlaps(box) {
				queue = append(queue, child)
			}
		}
	}
}
