// pkg/physics/details.go
package physics

import "fmt"

// CollisionDetails records which sides of two bodies touched during one
// resolution. The sets are always filled symmetrically: if Body1 was hit on its
// right side, Body2 was hit on its left side.
type CollisionDetails struct {
	Body1  BodyID  `json:"body1" msgpack:"body1"`
	Body2  BodyID  `json:"body2" msgpack:"body2"`
	Sides1 SideSet `json:"sides1" msgpack:"sides1"`
	Sides2 SideSet `json:"sides2" msgpack:"sides2"`
}

// Collided reports whether any side was recorded.
func (d CollisionDetails) Collided() bool {
	return !d.Sides1.Empty() || !d.Sides2.Empty()
}

// Swap returns the same record seen from Body2.
func (d CollisionDetails) Swap() CollisionDetails {
	return CollisionDetails{
		Body1:  d.Body2,
		Body2:  d.Body1,
		Sides1: d.Sides2,
		Sides2: d.Sides1,
	}
}

// SidesOf returns the sides recorded for id, if it took part.
func (d CollisionDetails) SidesOf(id BodyID) (SideSet, bool) {
	switch id {
	case d.Body1:
		return d.Sides1, true
	case d.Body2:
		return d.Sides2, true
	}
	return NoSides, false
}

func (d CollisionDetails) String() string {
	return fmt.Sprintf("%v[%v] <-> %v[%v]", d.Body1, d.Sides1, d.Body2, d.Sides2)
}

// record marks side on the first body and its opposite on the second.
func (d *CollisionDetails) record(side Side) {
	d.Sides1 = d.Sides1.With(side)
	d.Sides2 = d.Sides2.With(side.Opposite())
}

// Result pairs the outcome of one narrow-phase test with its details.
type Result struct {
	Collided bool
	Details  CollisionDetails
}
