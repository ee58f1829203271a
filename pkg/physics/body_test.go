// pkg/physics/body_test.go
package physics

import "testing"

func TestBody_Update(t *testing.T) {
	tests := []struct {
		name             string
		setup            func(b *Body)
		expectedVelocity Vector2D
		expectedPosition Vector2D
	}{
		{
			name:             "constant_velocity",
			setup:            func(b *Body) { b.Velocity = Vec(5, -2) },
			expectedVelocity: Vec(5, -2),
			expectedPosition: Vec(5, -2),
		},
		{
			name:             "acceleration",
			setup:            func(b *Body) { b.Acceleration = Vec(0, 10) },
			expectedVelocity: Vec(0, 10),
			expectedPosition: Vec(0, 10),
		},
		{
			name: "axis_drag",
			setup: func(b *Body) {
				b.Velocity = Vec(10, -10)
				b.Drag = Vec(4, 4)
			},
			expectedVelocity: Vec(6, -6),
			expectedPosition: Vec(6, -6),
		},
		{
			name: "drag_stops_at_zero",
			setup: func(b *Body) {
				b.Velocity = Vec(2, 0)
				b.Drag = Vec(4, 0)
			},
			expectedVelocity: Vec(0, 0),
			expectedPosition: Vec(0, 0),
		},
		{
			name: "drag_skipped_while_accelerating",
			setup: func(b *Body) {
				b.Velocity = Vec(10, 0)
				b.Acceleration = Vec(1, 0)
				b.Drag = Vec(4, 0)
			},
			expectedVelocity: Vec(11, 0),
			expectedPosition: Vec(11, 0),
		},
		{
			name: "global_drag_keeps_direction",
			setup: func(b *Body) {
				b.Velocity = Vec(3, 4)
				b.GlobalDrag = 1
			},
			expectedVelocity: Vec(2.4, 3.2),
			expectedPosition: Vec(2.4, 3.2),
		},
		{
			name: "max_velocity_clamps",
			setup: func(b *Body) {
				b.Acceleration = Vec(100, -100)
				b.MaxVelocity = Vec(10, NoMaxVelocity)
			},
			expectedVelocity: Vec(10, -100),
			expectedPosition: Vec(10, -100),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBody(Vec(0, 0), Vec(10, 10))
			tt.setup(&b)
			b.Update(1.0)

			if !approxEqual(b.Velocity.X, tt.expectedVelocity.X) || !approxEqual(b.Velocity.Y, tt.expectedVelocity.Y) {
				t.Errorf("Velocity = %v, expected %v", b.Velocity, tt.expectedVelocity)
			}
			if !approxEqual(b.Position.X, tt.expectedPosition.X) || !approxEqual(b.Position.Y, tt.expectedPosition.Y) {
				t.Errorf("Position = %v, expected %v", b.Position, tt.expectedPosition)
			}
			if b.OldPosition != Vec(0, 0) {
				t.Errorf("OldPosition = %v, expected origin", b.OldPosition)
			}
		})
	}
}

func TestBody_AABB(t *testing.T) {
	b := NewBody(Vec(100, 50), Vec(20, 40))
	if got := b.AABB(); got != NewAABB(100, 50, 20, 40) {
		t.Errorf("default AABB() = %v", got)
	}

	b.CollidingBoxRatio = Vec(0.5, 0.5)
	b.Offset = Vec(5, 10)
	if got := b.AABB(); got != NewAABB(105, 60, 10, 20) {
		t.Errorf("absolute offset AABB() = %v", got)
	}

	b.OffsetRatio = true
	b.Offset = Vec(0.5, 0.5)
	if got := b.AABB(); got != NewAABB(105, 60, 10, 20) {
		t.Errorf("ratio offset AABB() = %v", got)
	}

	b.MoveX(1)
	if got := b.AABB().Left(); got != 106 {
		t.Errorf("AABB() should follow moves, left = %v", got)
	}
}

func TestBody_VelocityClamp(t *testing.T) {
	b := NewBody(Vec(0, 0), Vec(1, 1))
	b.SetVelocity(Vec(50, -50))
	b.SetMaxVelocity(Vec(20, 30))

	if b.Velocity != Vec(20, -30) {
		t.Errorf("SetMaxVelocity() did not re-clamp, velocity = %v", b.Velocity)
	}

	b.SetXVelocity(-25)
	if b.Velocity.X != -20 {
		t.Errorf("SetXVelocity() = %v, expected -20", b.Velocity.X)
	}

	b.SetPosition(Vec(7, 7))
	if !b.Delta().IsZero() {
		t.Errorf("SetPosition() should not produce a delta, got %v", b.Delta())
	}
}

func TestBody_UpdateKinematic(t *testing.T) {
	b := NewBody(Vec(0, 0), Vec(1, 1))
	b.Kinematic = true
	b.Velocity = Vec(30, -20)
	b.MaxVelocity = Vec(5, 5)
	b.Drag = Vec(100, 100)
	b.Acceleration = Vec(0, 50)

	b.Update(0.5)

	if b.Position != Vec(15, -10) {
		t.Errorf("Position = %v, want (15, -10)", b.Position)
	}
	if b.Velocity != Vec(30, -20) {
		t.Errorf("Velocity = %v, want it unchanged", b.Velocity)
	}
	if b.Delta() != Vec(15, -10) {
		t.Errorf("Delta() = %v, want (15, -10)", b.Delta())
	}
}
