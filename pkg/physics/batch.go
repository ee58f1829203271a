// pkg/physics/batch.go
package physics

// Lookup resolves body handles. *Store implements it.
type Lookup interface {
	Get(id BodyID) (*Body, bool)
}

// CollideAll collides the body behind id with every body in others, in order.
// The returned slice has one entry per element of others; handles that do not
// resolve yield an empty Result.
func CollideAll(l Lookup, id BodyID, others []BodyID) (bool, []Result) {
	results := make([]Result, 0, len(others))
	body, ok := l.Get(id)
	any := false
	for _, otherID := range others {
		other, found := l.Get(otherID)
		if !ok || !found {
			results = append(results, Result{})
			continue
		}
		hit, details := Collide(body, other)
		results = append(results, Result{Collided: hit, Details: details})
		any = any || hit
	}
	return any, results
}

// CollideCross collides every body of as with every body of bs. Pairs made of
// the same handle twice are skipped, so passing one list twice never reports a
// body colliding with itself.
func CollideCross(l Lookup, as, bs []BodyID) (bool, []Result) {
	var results []Result
	any := false
	for _, aID := range as {
		a, ok := l.Get(aID)
		if !ok {
			continue
		}
		for _, bID := range bs {
			if aID == bID {
				continue
			}
			b, found := l.Get(bID)
			if !found {
				results = append(results, Result{})
				continue
			}
			hit, details := Collide(a, b)
			results = append(results, Result{Collided: hit, Details: details})
			any = any || hit
		}
	}
	return any, results
}
