// pkg/physics/store.go
package physics

import "fmt"

// BodyID is a handle to a body in a Store. The low 32 bits hold the slot index
// and the high 32 bits the slot generation, so a handle to a removed body
// never resolves to whatever reuses its slot. The zero value is never issued.
type BodyID uint64

func newBodyID(index, generation uint32) BodyID {
	return BodyID(uint64(generation)<<32 | uint64(index))
}

// Index returns the slot index of the handle.
func (id BodyID) Index() uint32 {
	return uint32(id)
}

// Generation returns the slot generation of the handle.
func (id BodyID) Generation() uint32 {
	return uint32(id >> 32)
}

// Valid reports whether the handle could have been issued by a Store.
func (id BodyID) Valid() bool {
	return id.Generation() != 0
}

func (id BodyID) String() string {
	return fmt.Sprintf("body#%d.%d", id.Index(), id.Generation())
}

type slot struct {
	body       Body
	generation uint32
	alive      bool
}

// Store is a contiguous arena of bodies addressed by BodyID.
//
// Pointers returned by Get and Each stay valid until the next Add, which may
// grow the arena. Keep handles, not pointers, across ticks.
type Store struct {
	slots []slot
	free  []uint32
	live  int
}

// NewStore creates an empty store with room for capacity bodies.
func NewStore(capacity int) *Store {
	return &Store{slots: make([]slot, 0, capacity)}
}

// Add copies b into the store and returns its handle.
func (s *Store) Add(b Body) BodyID {
	var index uint32
	if n := len(s.free); n > 0 {
		index = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		index = uint32(len(s.slots))
		s.slots = append(s.slots, slot{})
	}

	sl := &s.slots[index]
	sl.generation++
	sl.alive = true
	sl.body = b
	sl.body.id = newBodyID(index, sl.generation)
	s.live++
	return sl.body.id
}

// Remove deletes the body behind id. It reports false if id is stale.
func (s *Store) Remove(id BodyID) bool {
	sl := s.slot(id)
	if sl == nil {
		return false
	}
	sl.alive = false
	sl.body = Body{}
	s.free = append(s.free, id.Index())
	s.live--
	return true
}

// Get resolves id to its body.
func (s *Store) Get(id BodyID) (*Body, bool) {
	sl := s.slot(id)
	if sl == nil {
		return nil, false
	}
	return &sl.body, true
}

// Contains reports whether id resolves to a live body.
func (s *Store) Contains(id BodyID) bool {
	return s.slot(id) != nil
}

// Len returns the number of live bodies.
func (s *Store) Len() int {
	return s.live
}

// Each calls fn for every live body in slot order.
func (s *Store) Each(fn func(id BodyID, b *Body)) {
	for i := range s.slots {
		if s.slots[i].alive {
			fn(s.slots[i].body.id, &s.slots[i].body)
		}
	}
}

// IDs returns the handles of every live body in slot order.
func (s *Store) IDs() []BodyID {
	ids := make([]BodyID, 0, s.live)
	s.Each(func(id BodyID, _ *Body) {
		ids = append(ids, id)
	})
	return ids
}

// Update integrates every live body by dt.
func (s *Store) Update(dt float64) {
	for i := range s.slots {
		if s.slots[i].alive {
			s.slots[i].body.Update(dt)
		}
	}
}

func (s *Store) slot(id BodyID) *slot {
	index := id.Index()
	if !id.Valid() || int(index) >= len(s.slots) {
		return nil
	}
	sl := &s.slots[index]
	if !sl.alive || sl.generation != id.Generation() {
		return nil
	}
	return sl
}
