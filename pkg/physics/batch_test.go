// pkg/physics/batch_test.go
package physics

import "testing"

func TestCollideAll(t *testing.T) {
	s := NewStore(4)
	ball := NewBody(Vec(0, 0), Vec(10, 10))
	ball.Velocity = Vec(5, 0)
	ballID := s.Add(ball)
	wallID := s.Add(NewStaticBody(Vec(12, 0), Vec(10, 10)))
	farID := s.Add(NewStaticBody(Vec(100, 100), Vec(10, 10)))
	goneID := s.Add(NewStaticBody(Vec(0, 0), Vec(1, 1)))
	s.Remove(goneID)

	s.Update(1.0)
	hit, results := CollideAll(s, ballID, []BodyID{farID, goneID, wallID})

	if !hit {
		t.Fatal("expected at least one collision")
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, expected 3", len(results))
	}
	if results[0].Collided || results[1].Collided || !results[2].Collided {
		t.Errorf("results = %+v", results)
	}
	if results[2].Details.Body2 != wallID {
		t.Errorf("Details.Body2 = %v, expected %v", results[2].Details.Body2, wallID)
	}
}

func TestCollideCross_SkipsSelfPairs(t *testing.T) {
	s := NewStore(2)
	a := NewBody(Vec(0, 0), Vec(10, 10))
	a.Velocity = Vec(5, 0)
	b := NewBody(Vec(12, 0), Vec(10, 10))
	b.Velocity = Vec(-5, 0)
	ids := []BodyID{s.Add(a), s.Add(b)}

	s.Update(1.0)
	hit, results := CollideCross(s, ids, ids)

	if !hit {
		t.Fatal("expected a collision")
	}
	// a-b and b-a only; the second pair finds the bodies already separated.
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, expected 2", len(results))
	}
	for _, r := range results {
		if r.Details.Body1 == r.Details.Body2 {
			t.Errorf("self pair reported: %v", r.Details)
		}
	}
}
