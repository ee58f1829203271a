package render

import (
	"io"
	"math"
	"os"
	"strings"

	"github.com/opd-ai/go-broadphase/pkg/collision"
	"github.com/opd-ai/go-broadphase/pkg/physics"
	"github.com/opd-ai/go-broadphase/pkg/simulation"
)

// Glyphs used by TerminalRenderer.
const (
	GlyphEmpty   = ' '
	GlyphNode    = '.'
	GlyphBody    = '@'
	GlyphStatic  = '#'
	GlyphCrowded = '*'
)

// TerminalRenderer provides a simple ASCII-based rendering for terminals.
// Bodies are filled boxes, quadtree leaves are dotted outlines.
type TerminalRenderer struct {
	width     int
	height    int
	buffer    [][]rune
	scale     float64
	centerPos physics.Vector2D
	out       io.Writer
}

// NewTerminalRenderer creates a new terminal renderer with the specified
// dimensions. One cell covers scale world units.
func NewTerminalRenderer(width, height int, scale float64) *TerminalRenderer {
	buffer := make([][]rune, height)
	for i := range buffer {
		buffer[i] = make([]rune, width)
	}

	r := &TerminalRenderer{
		width:  width,
		height: height,
		buffer: buffer,
		scale:  scale,
		out:    os.Stdout,
	}
	r.Clear()
	return r
}

// SetCenter sets the world position shown in the middle of the view.
func (r *TerminalRenderer) SetCenter(pos physics.Vector2D) {
	r.centerPos = pos
}

// SetOutput redirects Present.
func (r *TerminalRenderer) SetOutput(w io.Writer) {
	r.out = w
}

// Fit centers the view on box and picks the scale that shows all of it.
func (r *TerminalRenderer) Fit(box physics.AABB) {
	r.centerPos = box.Center()
	sx := box.Width() / float64(r.width)
	sy := box.Height() / float64(r.height)
	r.scale = math.Max(sx, sy)
	if r.scale <= 0 {
		r.scale = 1
	}
}

func (r *TerminalRenderer) worldToScreen(pos physics.Vector2D) (int, int) {
	screenX := int(math.Floor((pos.X-r.centerPos.X)/r.scale + float64(r.width)/2))
	screenY := int(math.Floor((pos.Y-r.centerPos.Y)/r.scale + float64(r.height)/2))
	return screenX, screenY
}

func (r *TerminalRenderer) inBounds(x, y int) bool {
	return x >= 0 && x < r.width && y >= 0 && y < r.height
}

// cells returns the screen rectangle covered by box, at least one cell wide.
func (r *TerminalRenderer) cells(box physics.AABB) (x0, y0, x1, y1 int) {
	x0, y0 = r.worldToScreen(box.Position)
	x1, y1 = r.worldToScreen(box.Position.Add(box.Size))
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	return x0, y0, x1, y1
}

// Clear implements Renderer.
func (r *TerminalRenderer) Clear() {
	for y := range r.buffer {
		for x := range r.buffer[y] {
			r.buffer[y][x] = GlyphEmpty
		}
	}
}

// RenderNode implements Renderer. Only leaves are drawn.
func (r *TerminalRenderer) RenderNode(node collision.NodeInfo) {
	if !node.Leaf {
		return
	}
	x0, y0, x1, y1 := r.cells(node.Bounds)
	plot := func(x, y int) {
		if r.inBounds(x, y) && r.buffer[y][x] == GlyphEmpty {
			r.buffer[y][x] = GlyphNode
		}
	}
	for x := x0; x < x1; x++ {
		plot(x, y0)
		plot(x, y1-1)
	}
	for y := y0; y < y1; y++ {
		plot(x0, y)
		plot(x1-1, y)
	}
}

// RenderBody implements Renderer. Cells shared by two bodies are marked
// with GlyphCrowded.
func (r *TerminalRenderer) RenderBody(body simulation.BodyState) {
	glyph := GlyphBody
	if body.Static {
		glyph = GlyphStatic
	}

	x0, y0, x1, y1 := r.cells(body.Box)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if !r.inBounds(x, y) {
				continue
			}
			switch r.buffer[y][x] {
			case GlyphBody, GlyphStatic, GlyphCrowded:
				r.buffer[y][x] = GlyphCrowded
			default:
				r.buffer[y][x] = glyph
			}
		}
	}
}

// String returns the frame with a border, one line per row.
func (r *TerminalRenderer) String() string {
	var sb strings.Builder
	border := "+" + strings.Repeat("-", r.width) + "+\n"
	sb.WriteString(border)
	for y := range r.buffer {
		sb.WriteByte('|')
		sb.WriteString(string(r.buffer[y]))
		sb.WriteString("|\n")
	}
	sb.WriteString(border)
	return sb.String()
}

// Present implements Renderer. It clears the terminal and writes the frame.
func (r *TerminalRenderer) Present() {
	io.WriteString(r.out, "\033[H\033[2J"+r.String())
}
