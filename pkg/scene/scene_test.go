package scene

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-broadphase/pkg/config"
	"github.com/opd-ai/go-broadphase/pkg/physics"
	"github.com/opd-ai/go-broadphase/pkg/simulation"
)

const platformerYAML = `name: demo
rules:
  - {a: walls, b: walls}
bodies:
  - group: walls
    tag: floor
    static: true
    position: {x: 0, y: 200}
    size: {x: 400, y: 20}
    sides: [top]
  - group: walls
    tag: lift
    static: true
    position: {x: 0, y: 150}
    size: {x: 50, y: 10}
    path:
      waypoints: [{x: 0, y: 150}, {x: 200, y: 150}]
      duration: 2
      ease: inOutSine
  - group: bodies
    tag: hero
    position: {x: 10, y: 100}
    size: {x: 16, y: 32}
    acceleration: {x: 0, y: 300}
    maxVelocity: {x: 120, y: 600}
    elasticity: 0.25
    boxRatio: {x: 0.5, y: 1}
    offset: {x: 0.25, y: 0}
    offsetRatio: true
`

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	sc, err := Load(writeFile(t, "demo.yaml", platformerYAML))
	require.NoError(t, err)

	assert.Equal(t, "demo", sc.Name)
	require.Len(t, sc.Bodies, 3)
	assert.Equal(t, []RuleSpec{{A: "walls", B: "walls"}}, sc.Rules)

	floor := sc.Bodies[0]
	require.NotNil(t, floor.Sides)
	assert.Equal(t, physics.SidesOf(physics.SideTop), *floor.Sides)

	lift := sc.Bodies[1]
	require.NotNil(t, lift.Path)
	assert.Equal(t, "inOutSine", lift.Path.Ease)
	assert.Len(t, lift.Path.Waypoints, 2)

	hero := sc.Bodies[2].Body()
	assert.Equal(t, physics.Vec(120, 600), hero.MaxVelocity)
	assert.Equal(t, physics.AllSides, hero.CollidableSides)
	assert.Equal(t, physics.Vec(0.5, 1), hero.CollidingBoxRatio)
	assert.True(t, hero.OffsetRatio)
	assert.Equal(t, 0.25, hero.Elasticity)
}

func TestLoad_NameFromFile(t *testing.T) {
	sc, err := Load(writeFile(t, "level-3.json", `{"bodies": []}`))
	require.NoError(t, err)
	assert.Equal(t, "level-3", sc.Name)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read")

	_, err = Load(writeFile(t, "bad.json", `{"bodies": [`))
	assert.ErrorContains(t, err, "failed to parse")

	_, err = Load(writeFile(t, "bad.yaml", "bodies:\n  - sides: [sideways]\n"))
	assert.ErrorContains(t, err, "failed to parse")
}

func TestSave_RoundTrip(t *testing.T) {
	original, err := Load(writeFile(t, "demo.yaml", platformerYAML))
	require.NoError(t, err)

	for _, name := range []string{"out.json", "out.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, original.Save(path))

			loaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, original, loaded)
		})
	}
}

func TestApply(t *testing.T) {
	sc, err := Load(writeFile(t, "demo.yaml", platformerYAML))
	require.NoError(t, err)

	w := simulation.NewWorld(nil)
	ids, err := sc.Apply(w)
	require.NoError(t, err)
	require.Len(t, ids, 3)

	assert.Contains(t, w.Rules(), simulation.Rule{A: "walls", B: "walls"})
	assert.Equal(t, 3, w.BodyCount())

	hero, ok := w.Body(ids[2])
	require.True(t, ok)
	assert.Equal(t, "hero", hero.Tag)

	// The lift is driven along its path.
	w.Step(0.5)
	lift, _ := w.Body(ids[1])
	assert.Greater(t, lift.Position.X, 0.0)
	assert.InDelta(t, 150.0, lift.Position.Y, 1e-3)
}

func TestApply_ValidationAddsNothing(t *testing.T) {
	tests := []struct {
		name  string
		scene Scene
		want  string
	}{
		{
			name:  "negative size",
			scene: Scene{Bodies: []BodySpec{{Group: "bodies", Size: physics.Vec(-1, 1)}}},
			want:  "negative",
		},
		{
			name:  "bad elasticity",
			scene: Scene{Bodies: []BodySpec{{Group: "bodies", Size: physics.Vec(1, 1), Elasticity: -2}}},
			want:  "elasticity",
		},
		{
			name: "unknown ease",
			scene: Scene{Bodies: []BodySpec{{
				Group: "walls", Size: physics.Vec(1, 1),
				Path: &simulation.Path{Waypoints: []physics.Vector2D{{}, {X: 5}}, Duration: 1, Ease: "wobble"},
			}}},
			want: "unknown ease",
		},
		{
			name:  "bad rule group",
			scene: Scene{Rules: []RuleSpec{{A: "", B: "bodies"}}},
			want:  "rule 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := simulation.NewWorld(nil)
			sc := tt.scene
			// A valid body first proves nothing is added on failure.
			sc.Bodies = append([]BodySpec{{Group: "bodies", Size: physics.Vec(1, 1)}}, sc.Bodies...)

			_, err := sc.Apply(w)
			assert.ErrorContains(t, err, tt.want)
			assert.Zero(t, w.BodyCount())
			assert.Len(t, w.Rules(), len(config.DefaultConfig().Rules))
		})
	}
}

func TestApply_UnknownGroup(t *testing.T) {
	sc := &Scene{Name: "x", Bodies: []BodySpec{
		{Group: "bodies", Size: physics.Vec(1, 1)},
		{Group: "ghosts", Size: physics.Vec(1, 1)},
	}}
	w := simulation.NewWorld(nil)

	_, err := sc.Apply(w)
	assert.True(t, errors.Is(err, simulation.ErrUnknownGroup), "got %v", err)
	assert.Zero(t, w.BodyCount())
}
