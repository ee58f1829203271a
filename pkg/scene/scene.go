// Package scene loads bodies, movers and rules from YAML or JSON files and
// adds them to a simulation.World.
package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/opd-ai/go-broadphase/pkg/physics"
	"github.com/opd-ai/go-broadphase/pkg/simulation"
	"github.com/opd-ai/go-broadphase/pkg/validation"
)

// Scene is a set of bodies and extra collision rules.
type Scene struct {
	Name   string     `json:"name" yaml:"name"`
	Bodies []BodySpec `json:"bodies" yaml:"bodies"`
	Rules  []RuleSpec `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// RuleSpec adds a collision rule on top of the configured ones.
type RuleSpec struct {
	A string `json:"a" yaml:"a"`
	B string `json:"b" yaml:"b"`
}

// BodySpec describes one body. Pointer fields are optional: a nil Sides
// collides on every side, a nil MaxVelocity is unbounded and a nil BoxRatio
// uses the full size.
type BodySpec struct {
	Group        string            `json:"group" yaml:"group"`
	Tag          string            `json:"tag,omitempty" yaml:"tag,omitempty"`
	Position     physics.Vector2D  `json:"position" yaml:"position"`
	Size         physics.Vector2D  `json:"size" yaml:"size"`
	Velocity     physics.Vector2D  `json:"velocity,omitempty" yaml:"velocity,omitempty"`
	Acceleration physics.Vector2D  `json:"acceleration,omitempty" yaml:"acceleration,omitempty"`
	Drag         physics.Vector2D  `json:"drag,omitempty" yaml:"drag,omitempty"`
	GlobalDrag   float64           `json:"globalDrag,omitempty" yaml:"globalDrag,omitempty"`
	MaxVelocity  *physics.Vector2D `json:"maxVelocity,omitempty" yaml:"maxVelocity,omitempty"`
	Elasticity   float64           `json:"elasticity,omitempty" yaml:"elasticity,omitempty"`
	Static       bool              `json:"static,omitempty" yaml:"static,omitempty"`
	Sides        *physics.SideSet  `json:"sides,omitempty" yaml:"sides,omitempty"`
	Offset       physics.Vector2D  `json:"offset,omitempty" yaml:"offset,omitempty"`
	OffsetRatio  bool              `json:"offsetRatio,omitempty" yaml:"offsetRatio,omitempty"`
	BoxRatio     *physics.Vector2D `json:"boxRatio,omitempty" yaml:"boxRatio,omitempty"`
	Path         *simulation.Path  `json:"path,omitempty" yaml:"path,omitempty"`
}

// Body builds the physics body described by the spec.
func (s BodySpec) Body() physics.Body {
	b := physics.NewBody(s.Position, s.Size)
	b.Tag = s.Tag
	b.Velocity = s.Velocity
	b.Acceleration = s.Acceleration
	b.Drag = s.Drag
	b.GlobalDrag = s.GlobalDrag
	b.Elasticity = s.Elasticity
	b.Static = s.Static
	b.Offset = s.Offset
	b.OffsetRatio = s.OffsetRatio
	if s.MaxVelocity != nil {
		b.SetMaxVelocity(*s.MaxVelocity)
	}
	if s.Sides != nil {
		b.CollidableSides = *s.Sides
	}
	if s.BoxRatio != nil {
		b.CollidingBoxRatio = *s.BoxRatio
	}
	return b
}

// Validate checks one body spec.
func (s BodySpec) Validate() error {
	if err := validation.ValidateGroupName(s.Group); err != nil {
		return err
	}
	if _, err := validation.ValidateTag(s.Tag); err != nil {
		return err
	}
	if err := validation.ValidateSize(s.Size); err != nil {
		return err
	}
	if err := validation.ValidateElasticity(s.Elasticity); err != nil {
		return err
	}
	vectors := []struct {
		name string
		v    physics.Vector2D
	}{
		{"position", s.Position},
		{"velocity", s.Velocity},
		{"acceleration", s.Acceleration},
		{"drag", s.Drag},
		{"offset", s.Offset},
	}
	for _, vec := range vectors {
		if err := validation.ValidateVector(vec.name, vec.v); err != nil {
			return err
		}
	}
	if s.BoxRatio != nil {
		if err := validation.ValidateSize(*s.BoxRatio); err != nil {
			return fmt.Errorf("boxRatio: %w", err)
		}
	}
	if s.Path != nil {
		if err := s.Path.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks every body and rule and reports all problems at once.
func (sc *Scene) Validate() error {
	var errs []error
	for i, b := range sc.Bodies {
		if err := b.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("body %d (%s): %w", i, b.Tag, err))
		}
	}
	for i, r := range sc.Rules {
		for _, name := range []string{r.A, r.B} {
			if err := validation.ValidateGroupName(name); err != nil {
				errs = append(errs, fmt.Errorf("rule %d: %w", i, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Apply validates the scene against w and adds its rules, bodies and movers.
// Nothing is added when validation fails. The returned handles follow the
// order of Bodies.
func (sc *Scene) Apply(w *simulation.World) ([]physics.BodyID, error) {
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("scene %q: %w", sc.Name, err)
	}

	groups := w.Groups()
	for i, b := range sc.Bodies {
		if !slices.Contains(groups, b.Group) {
			return nil, fmt.Errorf("scene %q body %d: %w: %q", sc.Name, i, simulation.ErrUnknownGroup, b.Group)
		}
	}
	for _, r := range sc.Rules {
		if err := w.AddRule(simulation.Rule{A: r.A, B: r.B}); err != nil {
			return nil, fmt.Errorf("scene %q: %w", sc.Name, err)
		}
	}

	ids := make([]physics.BodyID, 0, len(sc.Bodies))
	for i, spec := range sc.Bodies {
		id, err := w.AddBody(spec.Group, spec.Body())
		if err != nil {
			return ids, fmt.Errorf("scene %q body %d: %w", sc.Name, i, err)
		}
		ids = append(ids, id)

		if spec.Path != nil {
			if err := w.AttachMover(id, *spec.Path); err != nil {
				return ids, fmt.Errorf("scene %q body %d: %w", sc.Name, i, err)
			}
		}
	}
	return ids, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Load reads a scene from path. .yaml and .yml files are YAML, anything else
// is JSON.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}

	var sc Scene
	if isYAML(path) {
		err = yaml.Unmarshal(data, &sc)
	} else {
		err = json.Unmarshal(data, &sc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse scene file %s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &sc, nil
}

// Save writes the scene to path in the format chosen by its extension.
func (sc *Scene) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(sc)
	} else {
		data, err = json.MarshalIndent(sc, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal scene: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write scene file: %w", err)
	}
	return nil
}
