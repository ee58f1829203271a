// pkg/physics/aabb.go
package physics

// AABB is an axis-aligned bounding box anchored at its top-left corner.
// Y grows downward, so Top <= Bottom for any box with a non-negative size.
type AABB struct {
	Position Vector2D `json:"position" yaml:"position" msgpack:"position"`
	Size     Vector2D `json:"size" yaml:"size" msgpack:"size"`
}

// Quadrant identifies one of the four equal children of a box.
type Quadrant int

const (
	NorthWest Quadrant = iota
	NorthEast
	SouthWest
	SouthEast
)

// NewAABB creates a box from its top-left corner and its size.
func NewAABB(x, y, width, height float64) AABB {
	return AABB{Position: Vector2D{X: x, Y: y}, Size: Vector2D{X: width, Y: height}}
}

func (b AABB) Left() float64   { return b.Position.X }
func (b AABB) Right() float64  { return b.Position.X + b.Size.X }
func (b AABB) Top() float64    { return b.Position.Y }
func (b AABB) Bottom() float64 { return b.Position.Y + b.Size.Y }
func (b AABB) Width() float64  { return b.Size.X }
func (b AABB) Height() float64 { return b.Size.Y }

// Center returns the middle point of the box.
func (b AABB) Center() Vector2D {
	return b.Position.Add(b.Size.Scale(0.5))
}

// Move returns the box translated by delta.
func (b AABB) Move(delta Vector2D) AABB {
	b.Position = b.Position.Add(delta)
	return b
}

// MoveX returns the box translated horizontally.
func (b AABB) MoveX(dx float64) AABB {
	b.Position.X += dx
	return b
}

// MoveY returns the box translated vertically.
func (b AABB) MoveY(dy float64) AABB {
	b.Position.Y += dy
	return b
}

// Overlaps reports whether the interiors of the two boxes intersect.
// Boxes that only share an edge do not overlap.
func (b AABB) Overlaps(other AABB) bool {
	return b.Right() > other.Left() && b.Left() < other.Right() &&
		b.Bottom() > other.Top() && b.Top() < other.Bottom()
}

// ContainsPoint reports whether p lies inside the box or on its edges.
// Unlike Overlaps the test is closed, which is what pointer picking expects.
func (b AABB) ContainsPoint(p Vector2D) bool {
	return p.X >= b.Left() && p.X <= b.Right() &&
		p.Y >= b.Top() && p.Y <= b.Bottom()
}

// OverlapsHorizontalLine reports whether the segment at height y spanning
// [xMin, xMax] crosses the interior of the box. Reversed bounds are accepted.
func (b AABB) OverlapsHorizontalLine(y, xMin, xMax float64) bool {
	if xMin > xMax {
		xMin, xMax = xMax, xMin
	}
	return b.Bottom() > y && b.Top() < y &&
		b.Right() > xMin && b.Left() < xMax
}

// OverlapsHorizontalLineUnbounded reports whether the infinite line at height y
// crosses the interior of the box.
func (b AABB) OverlapsHorizontalLineUnbounded(y float64) bool {
	return b.Bottom() > y && b.Top() < y
}

// OverlapsVerticalLine reports whether the segment at x spanning [yMin, yMax]
// crosses the interior of the box. Reversed bounds are accepted.
func (b AABB) OverlapsVerticalLine(x, yMin, yMax float64) bool {
	if yMin > yMax {
		yMin, yMax = yMax, yMin
	}
	return b.Right() > x && b.Left() < x &&
		b.Bottom() > yMin && b.Top() < yMax
}

// OverlapsVerticalLineUnbounded reports whether the infinite line at x crosses
// the interior of the box.
func (b AABB) OverlapsVerticalLineUnbounded(x float64) bool {
	return b.Right() > x && b.Left() < x
}

// IsCompletelyInside reports whether every edge of b lies within or on the
// edges of other.
func (b AABB) IsCompletelyInside(other AABB) bool {
	return b.Left() >= other.Left() && b.Right() <= other.Right() &&
		b.Top() >= other.Top() && b.Bottom() <= other.Bottom()
}

// Quadrant returns the half-size child box in the given corner.
func (b AABB) Quadrant(q Quadrant) AABB {
	half := b.Size.Scale(0.5)
	child := AABB{Position: b.Position, Size: half}
	switch q {
	case NorthEast:
		child.Position.X += half.X
	case SouthWest:
		child.Position.Y += half.Y
	case SouthEast:
		child.Position = child.Position.Add(half)
	}
	return child
}

// Union returns the smallest box containing both b and other.
func (b AABB) Union(other AABB) AABB {
	left := min(b.Left(), other.Left())
	top := min(b.Top(), other.Top())
	right := max(b.Right(), other.Right())
	bottom := max(b.Bottom(), other.Bottom())
	return NewAABB(left, top, right-left, bottom-top)
}
