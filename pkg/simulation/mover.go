// pkg/simulation/mover.go
package simulation

import (
	"fmt"
	"sort"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/opd-ai/go-broadphase/pkg/physics"
)

// Path is a list of waypoints a Mover travels back and forth along.
// Duration is the time in seconds for one leg between neighbouring waypoints.
type Path struct {
	Waypoints []physics.Vector2D `json:"waypoints" yaml:"waypoints"`
	Duration  float64            `json:"duration" yaml:"duration"`
	Ease      string             `json:"ease,omitempty" yaml:"ease,omitempty"`
}

var easings = map[string]ease.TweenFunc{
	"linear":     ease.Linear,
	"inQuad":     ease.InQuad,
	"outQuad":    ease.OutQuad,
	"inOutQuad":  ease.InOutQuad,
	"inCubic":    ease.InCubic,
	"outCubic":   ease.OutCubic,
	"inOutCubic": ease.InOutCubic,
	"inSine":     ease.InSine,
	"outSine":    ease.OutSine,
	"inOutSine":  ease.InOutSine,
	"outBounce":  ease.OutBounce,
}

// EaseNames lists the easing names a Path accepts, sorted.
func EaseNames() []string {
	names := make([]string, 0, len(easings))
	for name := range easings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that the path has at least two waypoints, a positive leg
// duration and a known easing. An empty Ease means linear.
func (p Path) Validate() error {
	if len(p.Waypoints) < 2 {
		return fmt.Errorf("path needs at least 2 waypoints, got %d", len(p.Waypoints))
	}
	if !(p.Duration > 0) {
		return fmt.Errorf("path duration must be positive, got %v", p.Duration)
	}
	if _, ok := easings[p.easeName()]; !ok {
		return fmt.Errorf("unknown ease %q", p.Ease)
	}
	return nil
}

func (p Path) easeName() string {
	if p.Ease == "" {
		return "linear"
	}
	return p.Ease
}

// Mover drives a body along a Path, reversing at either end. It does not
// teleport the body: each step it sets the velocity that makes the next
// integration land on the tweened point, so the narrow phase sees a real
// displacement and bodies standing on a moving platform ride along.
type Mover struct {
	path   Path
	fn     ease.TweenFunc
	from   int
	dir    int
	tweenX *gween.Tween
	tweenY *gween.Tween
}

// NewMover creates a mover at the first waypoint, heading for the second.
func NewMover(p Path) (*Mover, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	m := &Mover{
		path: Path{
			Waypoints: append([]physics.Vector2D(nil), p.Waypoints...),
			Duration:  p.Duration,
			Ease:      p.Ease,
		},
		fn:  easings[p.easeName()],
		dir: 1,
	}
	m.startLeg()
	return m, nil
}

func (m *Mover) startLeg() {
	a := m.path.Waypoints[m.from]
	b := m.path.Waypoints[m.from+m.dir]
	d := float32(m.path.Duration)
	m.tweenX = gween.New(float32(a.X), float32(b.X), d, m.fn)
	m.tweenY = gween.New(float32(a.Y), float32(b.Y), d, m.fn)
}

// Start returns the first waypoint.
func (m *Mover) Start() physics.Vector2D {
	return m.path.Waypoints[0]
}

// Leg returns the indices of the waypoints the mover is travelling between.
func (m *Mover) Leg() (from, to int) {
	return m.from, m.from + m.dir
}

// Advance moves the tween forward by dt and returns the point on the path.
// Time left over at the end of a leg is dropped.
func (m *Mover) Advance(dt float64) physics.Vector2D {
	x, doneX := m.tweenX.Update(float32(dt))
	y, doneY := m.tweenY.Update(float32(dt))
	target := physics.Vec(float64(x), float64(y))

	if doneX && doneY {
		m.from += m.dir
		last := len(m.path.Waypoints) - 1
		if m.from == last || m.from == 0 {
			m.dir = -m.dir
		}
		m.startLeg()
		// Land exactly on the waypoint; float32 tweening drifts.
		target = m.path.Waypoints[m.from]
	}
	return target
}

// Drive advances the mover and sets b's velocity so that b.Update(dt)
// moves it onto the path. b is made kinematic, so its drag, acceleration and
// velocity limit no longer apply.
func (m *Mover) Drive(b *physics.Body, dt float64) {
	if dt <= 0 {
		return
	}
	target := m.Advance(dt)
	b.Kinematic = true
	b.Velocity = target.Sub(b.Position).Scale(1 / dt)
}
