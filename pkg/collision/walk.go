// pkg/collision/walk.go
package collision

import "github.com/opd-ai/go-broadphase/pkg/physics"

// NodeInfo is a read-only view of one tree node.
type NodeInfo struct {
	Bounds physics.AABB
	Level  uint // 0 is the current root
	Leaf   bool
	Bodies []physics.BodyID
}

// Walk visits every node of the built tree breadth first, NW to SE within a
// level. It stops when fn returns false. Bodies slices are copies.
func (g *Group) Walk(fn func(NodeInfo) bool) {
	if g.root == nilNode {
		return
	}
	type entry struct {
		index int32
		level uint
	}
	queue := []entry{{g.root, 0}}
	for head := 0; head < len(queue); head++ {
		e := queue[head]
		n := &g.nodes.nodes[e.index]

		leaf := true
		for _, child := range n.children {
			if child != nilNode {
				leaf = false
				queue = append(queue, entry{child, e.level + 1})
			}
		}

		info := NodeInfo{
			Bounds: n.bounds,
			Level:  e.level,
			Leaf:   leaf,
			Bodies: append([]physics.BodyID(nil), n.bodies...),
		}
		if !fn(info) {
			return
		}
	}
}

// Root returns the bounds of the current root, which may be larger than the
// configured bounds after bodies left them.
func (g *Group) Root() (physics.AABB, bool) {
	if g.root == nilNode {
		return physics.AABB{}, false
	}
	return g.nodes.nodes[g.root].bounds, true
}
