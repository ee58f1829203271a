// pkg/physics/solve.go
package physics

import "math"

// OverlapBias is added to the combined displacement of two bodies to get the
// largest overlap the resolver accepts. Bigger overlaps are treated as no
// collision for this tick rather than corrected violently.
const OverlapBias = 4.0

// Collide resolves a collision between a and b, moving both bodies and
// updating their velocities in place. The X axis is solved first, then the Y
// axis; both are always attempted. A body never collides with itself and two
// static bodies never collide.
func Collide(a, b *Body) (bool, CollisionDetails) {
	details := CollisionDetails{Body1: a.ID(), Body2: b.ID()}
	if a == b {
		return false, details
	}
	hitX := solveX(a, b, &details)
	hitY := solveY(a, b, &details)
	return hitX || hitY, details
}

// Collide is the method form of the package-level Collide.
func (b *Body) Collide(other *Body) (bool, CollisionDetails) {
	return Collide(b, other)
}

// sweepX stretches the colliding box horizontally back to where it started
// this tick, at the vertical position it had before integrating.
func sweepX(b *Body, dx float64) AABB {
	box := b.AABB()
	box.Position.Y -= b.Position.Y - b.OldPosition.Y
	if dx > 0 {
		box.Position.X -= dx
	}
	box.Size.X += math.Abs(dx)
	return box
}

// sweepY stretches the colliding box vertically back to where it started this
// tick, at its current horizontal position.
func sweepY(b *Body, dy float64) AABB {
	box := b.AABB()
	if dy > 0 {
		box.Position.Y -= dy
	}
	box.Size.Y += math.Abs(dy)
	return box
}

func solveX(a, b *Body, details *CollisionDetails) bool {
	if a.Static && b.Static {
		return false
	}

	d1 := a.Position.X - a.OldPosition.X
	d2 := b.Position.X - b.OldPosition.X
	if d1 == d2 {
		return false
	}

	box1, box2 := sweepX(a, d1), sweepX(b, d2)
	if !box1.Overlaps(box2) {
		return false
	}

	maxOverlap := math.Abs(d1) + math.Abs(d2) + OverlapBias
	var overlap float64
	if d1 > d2 {
		overlap = box1.Right() - box2.Left()
		if overlap > maxOverlap || !a.CollidableSides.Has(SideRight) || !b.CollidableSides.Has(SideLeft) {
			return false
		}
		details.record(SideRight)
	} else {
		overlap = box1.Left() - box2.Right()
		if -overlap > maxOverlap || !a.CollidableSides.Has(SideLeft) || !b.CollidableSides.Has(SideRight) {
			return false
		}
		details.record(SideLeft)
	}

	v1, v2 := a.Velocity.X, b.Velocity.X
	switch {
	case a.Static:
		b.MoveX(overlap)
		b.SetXVelocity(v1 - v2*b.Elasticity)
	case b.Static:
		a.MoveX(-overlap)
		a.SetXVelocity(v2 - v1*a.Elasticity)
	default:
		overlap *= 0.5
		a.MoveX(-overlap)
		b.MoveX(overlap)
		average := (v1 + v2) * 0.5
		a.SetXVelocity(average + (v2-average)*a.Elasticity)
		b.SetXVelocity(average + (v1-average)*b.Elasticity)
	}
	return true
}

func solveY(a, b *Body, details *CollisionDetails) bool {
	if a.Static && b.Static {
		return false
	}

	d1 := a.Position.Y - a.OldPosition.Y
	d2 := b.Position.Y - b.OldPosition.Y
	if d1 == d2 {
		return false
	}

	box1, box2 := sweepY(a, d1), sweepY(b, d2)
	if !box1.Overlaps(box2) {
		return false
	}

	maxOverlap := math.Abs(d1) + math.Abs(d2) + OverlapBias
	var overlap float64
	if d1 > d2 {
		overlap = box1.Bottom() - box2.Top()
		if overlap > maxOverlap || !a.CollidableSides.Has(SideBottom) || !b.CollidableSides.Has(SideTop) {
			return false
		}
		details.record(SideBottom)
	} else {
		overlap = box1.Top() - box2.Bottom()
		if -overlap > maxOverlap || !a.CollidableSides.Has(SideTop) || !b.CollidableSides.Has(SideBottom) {
			return false
		}
		details.record(SideTop)
	}

	v1, v2 := a.Velocity.Y, b.Velocity.Y
	switch {
	case a.Static:
		b.MoveY(overlap)
		b.SetYVelocity(v1 - v2*b.Elasticity)
		// b landed on top of a moving platform and rides along with it.
		if d1 < d2 && !a.Velocity.IsZero() {
			b.MoveX(a.Position.X - a.OldPosition.X)
		}
	case b.Static:
		a.MoveY(-overlap)
		a.SetYVelocity(v2 - v1*a.Elasticity)
		if d1 > d2 && !b.Velocity.IsZero() {
			a.MoveX(b.Position.X - b.OldPosition.X)
		}
	default:
		overlap *= 0.5
		a.MoveY(-overlap)
		b.MoveY(overlap)
		average := (v1 + v2) * 0.5
		a.SetYVelocity(average + (v2-average)*a.Elasticity)
		b.SetYVelocity(average + (v1-average)*b.Elasticity)
	}
	return true
}
