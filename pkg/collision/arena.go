// pkg/collision/arena.go
package collision

import "github.com/opd-ai/go-broadphase/pkg/physics"

// nilNode marks a missing child or an unbuilt tree.
const nilNode int32 = -1

var noChildren = [4]int32{nilNode, nilNode, nilNode, nilNode}

// CalculatePoolSize returns the number of nodes in a complete quadtree with
// depth levels: ceil((1 - 4^depth) / -3), i.e. 1 + 4 + ... + 4^(depth-1).
func CalculatePoolSize(depth uint) int {
	size, level := 0, 1
	for i := uint(0); i < depth; i++ {
		size += level
		level *= 4
	}
	return size
}

type node struct {
	bounds   physics.AABB
	children [4]int32
	bodies   []physics.BodyID
}

// arena hands out quadtree nodes by index. The first poolSize slots are
// preallocated and reused every rebuild; anything past them is overflow,
// counted per rebuild and released on the next reset.
type arena struct {
	nodes    []node
	poolSize int
	overflow int
}

func newArena(poolSize int) *arena {
	return &arena{nodes: make([]node, 0, poolSize), poolSize: poolSize}
}

// alloc returns the index of a fresh leaf covering bounds. Indices stay valid
// until reset, but pointers into nodes do not survive the next alloc.
func (a *arena) alloc(bounds physics.AABB) int32 {
	idx := len(a.nodes)
	if idx < cap(a.nodes) {
		a.nodes = a.nodes[:idx+1]
		n := &a.nodes[idx]
		n.bounds = bounds
		n.children = noChildren
		n.bodies = n.bodies[:0]
	} else {
		a.nodes = append(a.nodes, node{bounds: bounds, children: noChildren})
	}
	if idx >= a.poolSize {
		a.overflow++
	}
	return int32(idx)
}

// reset forgets every node. Pool slots keep their body slices; overflow slots
// are dropped.
func (a *arena) reset() {
	if cap(a.nodes) > a.poolSize {
		kept := make([]node, a.poolSize)
		copy(kept, a.nodes[:a.poolSize])
		a.nodes = kept
	}
	a.nodes = a.nodes[:0]
	a.overflow = 0
}

// resize replaces the pool with one of poolSize slots.
func (a *arena) resize(poolSize int) {
	a.nodes = make([]node, 0, poolSize)
	a.poolSize = poolSize
	a.overflow = 0
}

func (a *arena) len() int {
	return len(a.nodes)
}
