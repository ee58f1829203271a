// pkg/physics/body.go
package physics

// NoMaxVelocity disables the velocity clamp on an axis.
const NoMaxVelocity = -1.0

// Body is the physical state of one collidable object. Bodies are plain
// values; the Store owns them and hands out BodyID handles. A body's colliding
// box may be smaller than, or offset from, its visual size.
type Body struct {
	id BodyID

	// Tag is a free-form label for gameplay code and debug tools.
	Tag string

	Position    Vector2D
	OldPosition Vector2D // position before the current tick's integration
	Size        Vector2D

	Velocity     Vector2D
	MaxVelocity  Vector2D // per axis; negative means unbounded
	Acceleration Vector2D
	Drag         Vector2D // per axis, applied only while that axis is not accelerating
	GlobalDrag   float64  // isotropic, applied only while not accelerating at all

	CollidableSides SideSet
	Elasticity      float64
	Static          bool
	// Kinematic bodies move at exactly their velocity: Update skips
	// acceleration, drag and the velocity clamp.
	Kinematic bool

	Offset            Vector2D
	OffsetRatio       bool // Offset is a fraction of the colliding size
	CollidingBoxRatio Vector2D
}

// NewBody returns a dynamic body at position with every side collidable, no
// velocity limit and a colliding box matching its size.
func NewBody(position, size Vector2D) Body {
	return Body{
		Position:          position,
		OldPosition:       position,
		Size:              size,
		MaxVelocity:       Vector2D{X: NoMaxVelocity, Y: NoMaxVelocity},
		CollidableSides:   AllSides,
		CollidingBoxRatio: Vector2D{X: 1, Y: 1},
	}
}

// NewStaticBody returns an immovable body at position.
func NewStaticBody(position, size Vector2D) Body {
	b := NewBody(position, size)
	b.Static = true
	return b
}

// ID returns the handle assigned by the Store, or zero if the body was never
// added to one.
func (b *Body) ID() BodyID {
	return b.id
}

// CollidingSize is the size of the colliding box.
func (b *Body) CollidingSize() Vector2D {
	return b.Size.Mul(b.CollidingBoxRatio)
}

// AABB computes the colliding box from the current position. It is never
// cached, so it always reflects the latest moves.
func (b *Body) AABB() AABB {
	size := b.CollidingSize()
	offset := b.Offset
	if b.OffsetRatio {
		offset = offset.Mul(size)
	}
	return AABB{Position: b.Position.Add(offset), Size: size}
}

// Delta is the displacement of the current tick.
func (b *Body) Delta() Vector2D {
	return b.Position.Sub(b.OldPosition)
}

// Move translates the body.
func (b *Body) Move(delta Vector2D) {
	b.Position = b.Position.Add(delta)
}

// MoveX translates the body horizontally.
func (b *Body) MoveX(dx float64) {
	b.Position.X += dx
}

// MoveY translates the body vertically.
func (b *Body) MoveY(dy float64) {
	b.Position.Y += dy
}

// SetPosition teleports the body. The old position follows, so the move does
// not count as motion for the swept collision tests.
func (b *Body) SetPosition(p Vector2D) {
	b.Position = p
	b.OldPosition = p
}

// SetVelocity sets both velocity components, clamped to MaxVelocity.
func (b *Body) SetVelocity(v Vector2D) {
	b.Velocity = Vector2D{
		X: clampVelocity(v.X, b.MaxVelocity.X),
		Y: clampVelocity(v.Y, b.MaxVelocity.Y),
	}
}

// SetXVelocity sets the horizontal velocity, clamped to MaxVelocity.X.
func (b *Body) SetXVelocity(vx float64) {
	b.Velocity.X = clampVelocity(vx, b.MaxVelocity.X)
}

// SetYVelocity sets the vertical velocity, clamped to MaxVelocity.Y.
func (b *Body) SetYVelocity(vy float64) {
	b.Velocity.Y = clampVelocity(vy, b.MaxVelocity.Y)
}

// SetMaxVelocity changes the limit and re-clamps the current velocity.
func (b *Body) SetMaxVelocity(max Vector2D) {
	b.MaxVelocity = max
	b.SetVelocity(b.Velocity)
}

// Update integrates one tick of motion: acceleration, per-axis drag, global
// drag, velocity clamp, then displacement.
func (b *Body) Update(dt float64) {
	b.OldPosition = b.Position
	if b.Kinematic {
		b.Position = b.Position.Add(b.Velocity.Scale(dt))
		return
	}

	b.Velocity = b.Velocity.Add(b.Acceleration.Scale(dt))
	if b.Acceleration.X == 0 {
		b.Velocity.X = applyDrag(b.Velocity.X, b.Drag.X*dt)
	}
	if b.Acceleration.Y == 0 {
		b.Velocity.Y = applyDrag(b.Velocity.Y, b.Drag.Y*dt)
	}
	if b.Acceleration.IsZero() && b.GlobalDrag > 0 {
		b.Velocity = shrink(b.Velocity, b.GlobalDrag*dt)
	}
	b.SetVelocity(b.Velocity)

	b.Position = b.Position.Add(b.Velocity.Scale(dt))
}

// applyDrag moves v toward zero by drag without crossing it.
func applyDrag(v, drag float64) float64 {
	if drag <= 0 {
		return v
	}
	switch {
	case v-drag > 0:
		return v - drag
	case v+drag < 0:
		return v + drag
	default:
		return 0
	}
}

// shrink reduces the length of v by amount, keeping its direction.
func shrink(v Vector2D, amount float64) Vector2D {
	length := v.Length()
	if length <= amount {
		return Vector2D{}
	}
	return v.Scale((length - amount) / length)
}

func clampVelocity(v, max float64) float64 {
	if max < 0 {
		return v
	}
	if v > max {
		return max
	}
	if v < -max {
		return -max
	}
	return v
}
