// pkg/physics/lines.go
package physics

// Lines are immovable, infinitely heavy obstacles. A body that crosses one is
// snapped back to the side it came from and bounces with its own elasticity.

// CollideHorizontalLine collides b with the segment at height y spanning
// [xMin, xMax].
func CollideHorizontalLine(b *Body, y, xMin, xMax float64) bool {
	if b.Static || !b.AABB().OverlapsHorizontalLine(y, xMin, xMax) {
		return false
	}
	snapToHorizontalLine(b, y)
	return true
}

// CollideHorizontalLineUnbounded collides b with the infinite line at height y.
func CollideHorizontalLineUnbounded(b *Body, y float64) bool {
	if b.Static || !b.AABB().OverlapsHorizontalLineUnbounded(y) {
		return false
	}
	snapToHorizontalLine(b, y)
	return true
}

// CollideVerticalLine collides b with the segment at x spanning [yMin, yMax].
func CollideVerticalLine(b *Body, x, yMin, yMax float64) bool {
	if b.Static || !b.AABB().OverlapsVerticalLine(x, yMin, yMax) {
		return false
	}
	snapToVerticalLine(b, x)
	return true
}

// CollideVerticalLineUnbounded collides b with the infinite line at x.
func CollideVerticalLineUnbounded(b *Body, x float64) bool {
	if b.Static || !b.AABB().OverlapsVerticalLineUnbounded(x) {
		return false
	}
	snapToVerticalLine(b, x)
	return true
}

func snapToHorizontalLine(b *Body, y float64) {
	box := b.AABB()
	switch {
	case b.Velocity.Y > 0:
		b.MoveY(y - box.Bottom())
	case b.Velocity.Y < 0:
		b.MoveY(y - box.Top())
	case box.Center().Y < y:
		b.MoveY(y - box.Bottom())
	default:
		b.MoveY(y - box.Top())
	}
	b.SetYVelocity(-b.Velocity.Y * b.Elasticity)
}

func snapToVerticalLine(b *Body, x float64) {
	box := b.AABB()
	switch {
	case b.Velocity.X > 0:
		b.MoveX(x - box.Right())
	case b.Velocity.X < 0:
		b.MoveX(x - box.Left())
	case box.Center().X < x:
		b.MoveX(x - box.Right())
	default:
		b.MoveX(x - box.Left())
	}
	b.SetXVelocity(-b.Velocity.X * b.Elasticity)
}
