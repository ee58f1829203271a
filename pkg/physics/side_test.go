// pkg/physics/side_test.go
package physics

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestSideSet_Operations(t *testing.T) {
	s := SidesOf(SideLeft, SideTop)

	if !s.Has(SideLeft) || !s.Has(SideTop) || s.Has(SideRight) {
		t.Errorf("SidesOf() = %v", s)
	}
	if got := s.With(SideBottom).Without(SideLeft); got != SidesOf(SideTop, SideBottom) {
		t.Errorf("With/Without = %v", got)
	}
	if got := s.String(); got != "left|top" {
		t.Errorf("String() = %q, expected %q", got, "left|top")
	}
	if got := NoSides.String(); got != "none" {
		t.Errorf("NoSides.String() = %q", got)
	}
	if SideRight.Opposite() != SideLeft || SideBottom.Opposite() != SideTop {
		t.Error("Opposite() mismatch")
	}
}

func TestSideSet_JSON(t *testing.T) {
	data, err := json.Marshal(SidesOf(SideRight, SideBottom))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `["right","bottom"]` {
		t.Errorf("Marshal = %s", data)
	}

	tests := []struct {
		name     string
		input    string
		expected SideSet
		wantErr  bool
	}{
		{"names", `["left","top"]`, SidesOf(SideLeft, SideTop), false},
		{"all", `["all"]`, AllSides, false},
		{"empty", `[]`, NoSides, false},
		{"case_insensitive", `["LEFT"]`, SidesOf(SideLeft), false},
		{"unknown_side", `["front"]`, NoSides, true},
		{"not_a_list", `"left"`, NoSides, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s SideSet
			err := json.Unmarshal([]byte(tt.input), &s)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && s != tt.expected {
				t.Errorf("Unmarshal = %v, expected %v", s, tt.expected)
			}
		})
	}
}

func TestSideSet_YAML(t *testing.T) {
	var holder struct {
		Sides SideSet `yaml:"sides"`
	}
	if err := yaml.Unmarshal([]byte("sides: [top, right]\n"), &holder); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if holder.Sides != SidesOf(SideTop, SideRight) {
		t.Errorf("Unmarshal = %v", holder.Sides)
	}

	out, err := yaml.Marshal(holder)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var back struct {
		Sides SideSet `yaml:"sides"`
	}
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatalf("Unmarshal of marshalled output failed: %v", err)
	}
	if back.Sides != holder.Sides {
		t.Errorf("YAML output %q decoded to %v", out, back.Sides)
	}
}

func TestCollisionDetails_Swap(t *testing.T) {
	d := CollisionDetails{Body1: 1, Body2: 2}
	d.record(SideRight)

	if d.Sides1 != SidesOf(SideRight) || d.Sides2 != SidesOf(SideLeft) {
		t.Fatalf("record() = %v", d)
	}

	swapped := d.Swap()
	if swapped.Body1 != 2 || swapped.Sides1 != SidesOf(SideLeft) {
		t.Errorf("Swap() = %v", swapped)
	}
	if sides, ok := d.SidesOf(2); !ok || sides != SidesOf(SideLeft) {
		t.Errorf("SidesOf(2) = %v, %v", sides, ok)
	}
	if _, ok := d.SidesOf(3); ok {
		t.Error("SidesOf() should miss unrelated bodies")
	}
}
