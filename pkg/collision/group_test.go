// pkg/collision/group_test.go
package collision

import (
	"bytes"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-broadphase/pkg/logging"
	"github.com/opd-ai/go-broadphase/pkg/physics"
)

func addBox(s *physics.Store, x, y, w, h float64) physics.BodyID {
	return s.Add(physics.NewBody(physics.Vec(x, y), physics.Vec(w, h)))
}

// placements maps every stored body to the bounds of the node holding it and
// fails the test if a body is stored twice.
func placements(t *testing.T, g *Group) map[physics.BodyID]physics.AABB {
	t.Helper()
	out := make(map[physics.BodyID]physics.AABB)
	g.Walk(func(n NodeInfo) bool {
		for _, id := range n.Bodies {
			_, dup := out[id]
			require.False(t, dup, "body %v stored in more than one node", id)
			out[id] = n.Bounds
		}
		return true
	})
	return out
}

func TestCalculatePoolSize(t *testing.T) {
	tests := []struct {
		depth    uint
		expected int
	}{
		{0, 0},
		{1, 1},
		{2, 5},
		{3, 21},
		{5, 341},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, CalculatePoolSize(tt.depth), "depth %d", tt.depth)
	}
}

func TestGroup_Membership(t *testing.T) {
	s := physics.NewStore(4)
	g := NewGroup(s, physics.NewAABB(0, 0, 100, 100), DefaultDepth, 3)

	a, b, c := addBox(s, 1, 1, 1, 1), addBox(s, 2, 2, 1, 1), addBox(s, 3, 3, 1, 1)

	assert.True(t, g.Add(a))
	assert.True(t, g.Add(b))
	assert.True(t, g.Add(c))
	assert.False(t, g.Add(b), "duplicates must be rejected")
	assert.Equal(t, []physics.BodyID{a, b, c}, g.Bodies())

	assert.True(t, g.Remove(b))
	assert.False(t, g.Remove(b))
	assert.False(t, g.Has(b))
	assert.Equal(t, []physics.BodyID{a, c}, g.Bodies(), "insertion order must survive removal")
	assert.Equal(t, 2, g.Len())
}

func TestGroup_UpdateStoresEveryBodyOnce(t *testing.T) {
	s := physics.NewStore(64)
	g := NewGroup(s, physics.NewAABB(0, 0, 128, 128), 4, 4)

	for i := 0; i < 40; i++ {
		x := float64((i * 37) % 120)
		y := float64((i * 53) % 120)
		g.Add(addBox(s, x, y, float64(1+i%9), float64(1+i%5)))
	}
	// Outside the configured bounds on purpose.
	g.Add(addBox(s, -40, 10, 5, 5))
	g.Add(addBox(s, 300, 300, 5, 5))

	g.Update()

	got := placements(t, g)
	require.Len(t, got, g.Len())
	for _, id := range g.Bodies() {
		nodeBounds, ok := got[id]
		require.True(t, ok, "body %v missing from the tree", id)
		body, _ := s.Get(id)
		assert.True(t, body.AABB().IsCompletelyInside(nodeBounds),
			"body %v (%v) stored in node %v that does not contain it", id, body.AABB(), nodeBounds)
	}
}

func TestGroup_Placement(t *testing.T) {
	tests := []struct {
		name          string
		box           physics.AABB
		depth         uint
		expectedNode  physics.AABB
		expectedLevel uint
	}{
		{
			name:          "straddles_center",
			box:           physics.NewAABB(45, 45, 10, 10),
			depth:         3,
			expectedNode:  physics.NewAABB(0, 0, 100, 100),
			expectedLevel: 0,
		},
		{
			name:          "deep_north_west",
			box:           physics.NewAABB(1, 1, 2, 2),
			depth:         2,
			expectedNode:  physics.NewAABB(0, 0, 25, 25),
			expectedLevel: 2,
		},
		{
			name:          "south_east_limited_by_depth",
			box:           physics.NewAABB(90, 90, 1, 1),
			depth:         1,
			expectedNode:  physics.NewAABB(50, 50, 50, 50),
			expectedLevel: 1,
		},
		{
			name:          "depth_zero_keeps_root",
			box:           physics.NewAABB(1, 1, 1, 1),
			depth:         0,
			expectedNode:  physics.NewAABB(0, 0, 100, 100),
			expectedLevel: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := physics.NewStore(1)
			g := NewGroup(s, physics.NewAABB(0, 0, 100, 100), tt.depth, tt.depth+1)
			id := addBox(s, tt.box.Position.X, tt.box.Position.Y, tt.box.Size.X, tt.box.Size.Y)
			g.Add(id)
			g.Update()

			found := false
			g.Walk(func(n NodeInfo) bool {
				if len(n.Bodies) == 1 && n.Bodies[0] == id {
					found = true
					assert.Equal(t, tt.expectedNode, n.Bounds)
					assert.Equal(t, tt.expectedLevel, n.Level)
					assert.True(t, n.Leaf)
					return false
				}
				return true
			})
			assert.True(t, found, "body not found in tree")
		})
	}
}

func TestGroup_GrowsUpward(t *testing.T) {
	tests := []struct {
		name         string
		box          physics.AABB
		expectedRoot physics.AABB
	}{
		{"left", physics.NewAABB(-50, 10, 10, 10), physics.NewAABB(-100, 0, 200, 200)},
		{"below_right", physics.NewAABB(150, 150, 10, 10), physics.NewAABB(0, 0, 200, 200)},
		{"above_left", physics.NewAABB(-30, -30, 10, 10), physics.NewAABB(-100, -100, 200, 200)},
		{"far_right", physics.NewAABB(350, 10, 10, 10), physics.NewAABB(0, 0, 400, 400)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := physics.NewStore(2)
			g := NewGroup(s, physics.NewAABB(0, 0, 100, 100), 2, 3)
			inside := addBox(s, 10, 10, 5, 5)
			outside := addBox(s, tt.box.Position.X, tt.box.Position.Y, tt.box.Size.X, tt.box.Size.Y)
			g.Add(inside)
			g.Add(outside)

			g.Update()

			root, ok := g.Root()
			require.True(t, ok)
			assert.Equal(t, tt.expectedRoot, root)
			assert.Greater(t, g.Stats().EffectiveDepth, g.Depth())

			// The original root survives as a node of the grown tree.
			foundOriginal := false
			g.Walk(func(n NodeInfo) bool {
				if n.Bounds == physics.NewAABB(0, 0, 100, 100) {
					foundOriginal = true
				}
				return true
			})
			assert.True(t, foundOriginal)
			assert.Len(t, placements(t, g), 2)
		})
	}
}

func TestGroup_GrowthStopsAtFloatLimit(t *testing.T) {
	tests := []struct {
		name string
		x    float64
	}{
		{"far_left", -1.7e308},
		{"far_right", 1.7e308},
		{"left_within_range", -1e308},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := physics.NewStore(1)
			g := NewGroup(s, physics.NewAABB(0, 0, 100, 100), 2, 3)
			far := addBox(s, tt.x, 10, 16, 16)
			g.Add(far)

			done := make(chan struct{})
			go func() {
				g.Update()
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(3 * time.Second):
				t.Fatal("Update did not return")
			}

			root, ok := g.Root()
			require.True(t, ok)
			assert.True(t, finite(root), "root %v", root)
			assert.Less(t, g.Stats().Nodes, 2100)
			assert.Zero(t, g.Stats().Unplaced)

			placed := placements(t, g)
			assert.Len(t, placed, 1, "the far body is still stored")
			assert.Contains(t, placed, far)
		})
	}
}

func TestGroup_NonFiniteBoxesAreCounted(t *testing.T) {
	var buf bytes.Buffer
	s := physics.NewStore(3)
	g := NewGroup(s, physics.NewAABB(0, 0, 100, 100), 2, 3)
	g.SetLogger(logging.NewLoggerWithWriter(&buf, slog.LevelWarn))

	ok := addBox(s, 10, 10, 5, 5)
	nan := addBox(s, math.NaN(), 10, 5, 5)
	edge := addBox(s, 1.7e308, 10, 1e308, 5) // right edge overflows
	g.Add(ok)
	g.Add(nan)
	g.Add(edge)

	g.Update()
	g.Update()

	stats := g.Stats()
	assert.Equal(t, 3, stats.Bodies, "unplaced bodies stay members")
	assert.Equal(t, 2, stats.Unplaced)
	assert.Equal(t, stats.Bodies-stats.Unplaced, len(placements(t, g)))
	assert.Equal(t, 1, strings.Count(buf.String(), "bodies left out of the quadtree"),
		"warns once while the count stays nonzero")

	b, _ := s.Get(nan)
	b.SetPosition(physics.Vec(20, 20))
	g.Update()
	assert.Equal(t, 1, g.Stats().Unplaced)
}

func TestGroup_ClearResetsEffectiveDepth(t *testing.T) {
	s := physics.NewStore(1)
	g := NewGroup(s, physics.NewAABB(0, 0, 100, 100), 2, 3)
	g.Add(addBox(s, 350, 10, 10, 10))

	g.Update()
	require.Greater(t, g.Stats().EffectiveDepth, g.Depth())

	g.Clear()
	assert.Equal(t, g.Depth(), g.Stats().EffectiveDepth)
	assert.Equal(t, g.Depth(), g.tmpDepth)
}

func TestGroup_RebuildIsDeterministic(t *testing.T) {
	s := physics.NewStore(16)
	g := NewGroup(s, physics.NewAABB(0, 0, 64, 64), 3, 4)
	for i := 0; i < 16; i++ {
		g.Add(addBox(s, float64(i*4), float64((i*7)%60), 3, 3))
	}

	snapshot := func() []NodeInfo {
		var nodes []NodeInfo
		g.Walk(func(n NodeInfo) bool {
			nodes = append(nodes, n)
			return true
		})
		return nodes
	}

	g.Update()
	first := snapshot()
	g.Update()
	second := snapshot()

	assert.Equal(t, first, second)
	assert.Equal(t, uint64(2), g.Stats().Rebuilds)
}

func TestGroup_PoolReuse(t *testing.T) {
	s := physics.NewStore(8)
	g := NewGroup(s, physics.NewAABB(0, 0, 64, 64), 2, 3)
	for i := 0; i < 8; i++ {
		g.Add(addBox(s, float64(i*8), float64(i*8), 2, 2))
	}

	for frame := 0; frame < 3; frame++ {
		g.Update()
		stats := g.Stats()
		assert.Zero(t, stats.Overflow)
		assert.LessOrEqual(t, stats.Nodes, stats.PoolCapacity)
		assert.Equal(t, 21, cap(g.nodes.nodes), "pool must not reallocate")
	}
}

func TestGroup_PoolOverflow(t *testing.T) {
	var buf bytes.Buffer
	s := physics.NewStore(1)
	g := NewGroup(s, physics.NewAABB(0, 0, 64, 64), 3, 1)
	g.SetLogger(logging.NewLoggerWithWriter(&buf, slog.LevelWarn))

	var reported []Stats
	g.OnOverflow(func(st Stats) { reported = append(reported, st) })

	g.Add(addBox(s, 1, 1, 1, 1))

	g.Update()
	g.Update()

	stats := g.Stats()
	assert.Equal(t, 1, stats.PoolCapacity)
	assert.Equal(t, 4, stats.Nodes, "root plus three levels of north-west children")
	assert.Equal(t, 3, stats.Overflow)
	assert.Equal(t, uint64(6), stats.TotalOverflow)
	assert.Equal(t, uint64(2), stats.OverflowFrames)
	assert.Equal(t, uint64(2), stats.OverflowStreak)
	require.Len(t, reported, 2)
	assert.Equal(t, 1, strings.Count(buf.String(), "quadtree node pool exhausted"),
		"a streak of overflowing frames warns once")

	g.Clear()
	assert.Equal(t, 1, cap(g.nodes.nodes), "overflow nodes are released on Clear")
	assert.False(t, g.Built())
	assert.Equal(t, 1, g.Len(), "Clear keeps members")

	g.SetPoolDepth(4)
	g.Update()
	assert.Zero(t, g.Stats().Overflow)
	assert.Zero(t, g.Stats().OverflowStreak)
}

func TestGroup_SetPoolDepthDropsTree(t *testing.T) {
	s := physics.NewStore(1)
	g := NewGroup(s, physics.NewAABB(0, 0, 10, 10), 2, 2)
	g.Add(addBox(s, 1, 1, 1, 1))
	g.Update()
	require.True(t, g.Built())

	g.SetPoolDepth(3)

	assert.False(t, g.Built())
	assert.Equal(t, uint(3), g.PoolDepth())
	_, ok := g.Root()
	assert.False(t, ok)
}

func TestGroup_UpdateDropsStaleHandles(t *testing.T) {
	s := physics.NewStore(2)
	g := NewGroup(s, physics.NewAABB(0, 0, 10, 10), 2, 2)
	keep, gone := addBox(s, 1, 1, 1, 1), addBox(s, 2, 2, 1, 1)
	g.Add(keep)
	g.Add(gone)
	s.Remove(gone)

	g.Update()

	assert.Equal(t, []physics.BodyID{keep}, g.Bodies())
	assert.False(t, g.Has(gone))
	assert.Len(t, placements(t, g), 1)
}

func TestGroup_UpdateEmptyIsNoop(t *testing.T) {
	g := NewGroup(physics.NewStore(0), physics.NewAABB(0, 0, 10, 10), 2, 2)
	g.Update()
	assert.False(t, g.Built())
	assert.Zero(t, g.Stats().Rebuilds)
}
