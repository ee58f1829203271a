// pkg/render/renderer.go
package render

import (
	"context"

	"github.com/opd-ai/go-broadphase/pkg/collision"
	"github.com/opd-ai/go-broadphase/pkg/logging"
	"github.com/opd-ai/go-broadphase/pkg/simulation"
)

// Renderer draws one frame of a world: Clear, any number of RenderNode and
// RenderBody calls, then Present.
type Renderer interface {
	Clear()
	RenderNode(node collision.NodeInfo)
	RenderBody(body simulation.BodyState)
	Present()
}

// DrawWorld renders w into r. The quadtree of each group in treeGroups is
// drawn first so bodies appear on top of node borders.
func DrawWorld(r Renderer, w *simulation.World, treeGroups ...string) error {
	r.Clear()
	for _, name := range treeGroups {
		err := w.WalkGroup(name, func(n collision.NodeInfo) bool {
			r.RenderNode(n)
			return true
		})
		if err != nil {
			return err
		}
	}
	for _, b := range w.Snapshot().Bodies {
		r.RenderBody(b)
	}
	r.Present()
	return nil
}

// DrawSnapshot renders the bodies of s into r. Snapshots carry no tree, so
// no nodes are drawn.
func DrawSnapshot(r Renderer, s *simulation.Snapshot) {
	r.Clear()
	for _, b := range s.Bodies {
		r.RenderBody(b)
	}
	r.Present()
}

// NullRenderer logs every call at debug level and draws nothing.
type NullRenderer struct {
	logger *logging.Logger
}

// NewNullRenderer creates a new NullRenderer with structured logging.
func NewNullRenderer() *NullRenderer {
	return &NullRenderer{
		logger: logging.NewLogger().Component("render"),
	}
}

// NewNullRendererWithLogger creates a NullRenderer that logs to l.
func NewNullRendererWithLogger(l *logging.Logger) *NullRenderer {
	return &NullRenderer{logger: l}
}

// Clear implements Renderer.
func (d *NullRenderer) Clear() {
	d.logger.Debug(context.Background(), "Clear called")
}

// Present implements Renderer.
func (d *NullRenderer) Present() {
	d.logger.Debug(context.Background(), "Present called")
}

// RenderNode implements Renderer.
func (d *NullRenderer) RenderNode(node collision.NodeInfo) {
	d.logger.Debug(context.Background(), "RenderNode called",
		"level", node.Level,
		"leaf", node.Leaf,
		"bodies", len(node.Bodies),
		"x", node.Bounds.Position.X,
		"y", node.Bounds.Position.Y,
		"width", node.Bounds.Size.X,
		"height", node.Bounds.Size.Y,
	)
}

// RenderBody implements Renderer.
func (d *NullRenderer) RenderBody(body simulation.BodyState) {
	d.logger.Debug(context.Background(), "RenderBody called",
		"body_id", uint64(body.ID),
		"tag", body.Tag,
		"group", body.Group,
		"static", body.Static,
	)
}

// NullRendererInstance is a global instance of NullRenderer for convenience.
var NullRendererInstance Renderer = NewNullRenderer()
