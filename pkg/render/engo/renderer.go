// pkg/render/engo/renderer.go
package engo

import (
	"hash/fnv"
	"image/color"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-broadphase/pkg/collision"
	"github.com/opd-ai/go-broadphase/pkg/physics"
	"github.com/opd-ai/go-broadphase/pkg/simulation"
)

// SpriteSink receives the entities the renderer draws with.
// *common.RenderSystem satisfies it.
type SpriteSink interface {
	Add(basic *ecs.BasicEntity, render *common.RenderComponent, space *common.SpaceComponent)
	Remove(basic ecs.BasicEntity)
}

// Z layers
const (
	zNodes  = 0
	zBodies = 1
)

var (
	staticColor = color.RGBA{110, 110, 120, 255}
	nodeColor   = color.RGBA{60, 200, 90, 255}
	groupColors = []color.Color{
		color.RGBA{230, 80, 70, 255},
		color.RGBA{70, 140, 230, 255},
		color.RGBA{240, 200, 60, 255},
		color.RGBA{180, 90, 220, 255},
		color.RGBA{80, 210, 200, 255},
	}
)

// sprite is one drawable rectangle.
type sprite struct {
	ecs.BasicEntity
	common.RenderComponent
	common.SpaceComponent

	seen bool
}

// EngoRenderer implements render.Renderer with engo rectangles. Bodies keep
// their entity between frames; quadtree leaves reuse a pool of outlines.
type EngoRenderer struct {
	sink SpriteSink

	bodies    map[physics.BodyID]*sprite
	nodes     []*sprite
	nodesUsed int
}

// NewEngoRenderer creates a renderer that adds its sprites to sink.
func NewEngoRenderer(sink SpriteSink) *EngoRenderer {
	return &EngoRenderer{
		sink:   sink,
		bodies: make(map[physics.BodyID]*sprite),
	}
}

// Clear implements render.Renderer.
func (r *EngoRenderer) Clear() {
	for _, s := range r.bodies {
		s.seen = false
	}
	r.nodesUsed = 0
}

// RenderBody implements render.Renderer.
func (r *EngoRenderer) RenderBody(body simulation.BodyState) {
	s, ok := r.bodies[body.ID]
	if !ok {
		s = r.newSprite(common.Rectangle{}, zBodies)
		r.bodies[body.ID] = s
	}
	s.seen = true
	place(s, body.Box)
	s.RenderComponent.Color = bodyColor(body)
}

// RenderNode implements render.Renderer. Only leaves are drawn.
func (r *EngoRenderer) RenderNode(node collision.NodeInfo) {
	if !node.Leaf {
		return
	}
	if r.nodesUsed == len(r.nodes) {
		outline := common.Rectangle{BorderWidth: 1, BorderColor: nodeColor}
		s := r.newSprite(outline, zNodes)
		s.RenderComponent.Color = color.Transparent
		r.nodes = append(r.nodes, s)
	}
	s := r.nodes[r.nodesUsed]
	r.nodesUsed++
	s.RenderComponent.Hidden = false
	place(s, node.Bounds)
}

// Present implements render.Renderer. Bodies not drawn this frame are
// removed and spare node outlines are hidden.
func (r *EngoRenderer) Present() {
	for id, s := range r.bodies {
		if !s.seen {
			r.sink.Remove(s.BasicEntity)
			delete(r.bodies, id)
		}
	}
	for _, s := range r.nodes[r.nodesUsed:] {
		s.RenderComponent.Hidden = true
	}
}

// BodyCount returns the number of body sprites alive.
func (r *EngoRenderer) BodyCount() int {
	return len(r.bodies)
}

// VisibleNodes returns the number of node outlines shown this frame.
func (r *EngoRenderer) VisibleNodes() int {
	return r.nodesUsed
}

func (r *EngoRenderer) newSprite(d common.Drawable, z float32) *sprite {
	s := &sprite{BasicEntity: ecs.NewBasic()}
	s.RenderComponent.Drawable = d
	s.RenderComponent.SetZIndex(z)
	r.sink.Add(&s.BasicEntity, &s.RenderComponent, &s.SpaceComponent)
	return s
}

func place(s *sprite, box physics.AABB) {
	s.SpaceComponent.Position = engo.Point{X: float32(box.Position.X), Y: float32(box.Position.Y)}
	s.SpaceComponent.Width = float32(box.Size.X)
	s.SpaceComponent.Height = float32(box.Size.Y)
}

// bodyColor picks a stable color per group; static bodies are gray.
func bodyColor(b simulation.BodyState) color.Color {
	if b.Static {
		return staticColor
	}
	h := fnv.New32a()
	h.Write([]byte(b.Group))
	return groupColors[h.Sum32()%uint32(len(groupColors))]
}
