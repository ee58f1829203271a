// pkg/physics/side.go
package physics

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Side is one edge of a body's bounding box.
type Side uint8

const (
	SideLeft Side = 1 << iota
	SideRight
	SideTop
	SideBottom
)

var sideNames = []struct {
	side Side
	name string
}{
	{SideLeft, "left"},
	{SideRight, "right"},
	{SideTop, "top"},
	{SideBottom, "bottom"},
}

// String returns the lower-case name of the side.
func (s Side) String() string {
	for _, n := range sideNames {
		if n.side == s {
			return n.name
		}
	}
	return fmt.Sprintf("Side(%d)", uint8(s))
}

// Opposite returns the side facing s on another body.
func (s Side) Opposite() Side {
	switch s {
	case SideLeft:
		return SideRight
	case SideRight:
		return SideLeft
	case SideTop:
		return SideBottom
	case SideBottom:
		return SideTop
	}
	return s
}

// ParseSide converts a side name into a Side.
func ParseSide(name string) (Side, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, n := range sideNames {
		if n.name == name {
			return n.side, nil
		}
	}
	return 0, fmt.Errorf("unknown side %q", name)
}

// SideSet is a set of sides stored as a bitmask.
type SideSet uint8

const (
	NoSides  SideSet = 0
	AllSides SideSet = SideSet(SideLeft | SideRight | SideTop | SideBottom)
)

// SidesOf builds a set holding the given sides.
func SidesOf(sides ...Side) SideSet {
	var s SideSet
	for _, side := range sides {
		s |= SideSet(side)
	}
	return s
}

// Has reports whether side is in the set.
func (s SideSet) Has(side Side) bool {
	return s&SideSet(side) != 0
}

// With returns the set with side added.
func (s SideSet) With(side Side) SideSet {
	return s | SideSet(side)
}

// Without returns the set with side removed.
func (s SideSet) Without(side Side) SideSet {
	return s &^ SideSet(side)
}

// Empty reports whether no side is set.
func (s SideSet) Empty() bool {
	return s == NoSides
}

// Sides lists the members in left, right, top, bottom order.
func (s SideSet) Sides() []Side {
	var out []Side
	for _, n := range sideNames {
		if s.Has(n.side) {
			out = append(out, n.side)
		}
	}
	return out
}

func (s SideSet) names() []string {
	names := make([]string, 0, 4)
	for _, side := range s.Sides() {
		names = append(names, side.String())
	}
	return names
}

// String renders the set as "left|top", or "none".
func (s SideSet) String() string {
	if s.Empty() {
		return "none"
	}
	return strings.Join(s.names(), "|")
}

func parseSideNames(names []string) (SideSet, error) {
	var s SideSet
	for _, name := range names {
		if strings.EqualFold(name, "all") {
			s = AllSides
			continue
		}
		side, err := ParseSide(name)
		if err != nil {
			return NoSides, err
		}
		s = s.With(side)
	}
	return s, nil
}

// MarshalJSON encodes the set as a list of side names.
func (s SideSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.names())
}

// UnmarshalJSON accepts a list of side names; "all" selects every side.
func (s *SideSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return fmt.Errorf("sides must be a list of names: %w", err)
	}
	parsed, err := parseSideNames(names)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalYAML encodes the set as a list of side names.
func (s SideSet) MarshalYAML() (interface{}, error) {
	return s.names(), nil
}

// UnmarshalYAML accepts a list of side names; "all" selects every side.
func (s *SideSet) UnmarshalYAML(node *yaml.Node) error {
	var names []string
	if err := node.Decode(&names); err != nil {
		return fmt.Errorf("sides must be a list of names: %w", err)
	}
	parsed, err := parseSideNames(names)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
