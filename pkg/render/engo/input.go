// pkg/render/engo/input.go
package engo

import (
	"context"
	"math"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"

	"github.com/opd-ai/go-broadphase/pkg/logging"
	"github.com/opd-ai/go-broadphase/pkg/physics"
	"github.com/opd-ai/go-broadphase/pkg/simulation"
)

// Control button names registered by SetupInputBindings.
const (
	ButtonLeft  = "left"
	ButtonRight = "right"
	ButtonJump  = "jump"
	ButtonPause = "pause"
	ButtonTree  = "tree"
	ButtonStep  = "step"
)

// restingSpeed is the vertical speed below which a body may jump.
const restingSpeed = 1e-3

// Controls is one frame of viewer input.
type Controls struct {
	Left, Right bool
	Jump        bool
	Pause       bool // toggles
	Tree        bool // toggles
	Step        bool // advances one tick while paused
}

// ControlSystem drives one body from the keyboard and holds the viewer's
// pause and tree-overlay toggles.
type ControlSystem struct {
	world   *simulation.World
	target  physics.BodyID
	driving bool

	// Speed is the horizontal speed while a direction key is held.
	Speed float64
	// JumpSpeed is the upward speed given by a jump.
	JumpSpeed float64

	paused   bool
	showTree bool
	stepOnce bool

	logger *logging.Logger
}

// NewControlSystem creates a control system for w. It drives nothing until
// SetTarget is called.
func NewControlSystem(w *simulation.World) *ControlSystem {
	return &ControlSystem{
		world:     w,
		Speed:     160,
		JumpSpeed: 320,
		showTree:  true,
		logger:    logging.Discard(),
	}
}

// SetLogger replaces the system's logger.
func (cs *ControlSystem) SetLogger(l *logging.Logger) {
	cs.logger = l
}

// SetTarget selects the body driven by the keys.
func (cs *ControlSystem) SetTarget(id physics.BodyID) {
	cs.target = id
	cs.driving = true
}

// Target returns the driven body, if any.
func (cs *ControlSystem) Target() (physics.BodyID, bool) {
	return cs.target, cs.driving
}

// Paused reports whether the simulation is paused.
func (cs *ControlSystem) Paused() bool {
	return cs.paused
}

// ShowTree reports whether quadtree leaves are drawn.
func (cs *ControlSystem) ShowTree() bool {
	return cs.showTree
}

// TakeStep reports, once, whether a single step was requested while paused.
func (cs *ControlSystem) TakeStep() bool {
	s := cs.stepOnce
	cs.stepOnce = false
	return s
}

// Remove satisfies the ecs.System interface
func (cs *ControlSystem) Remove(basic ecs.BasicEntity) {}

// Update reads the keyboard and applies it.
func (cs *ControlSystem) Update(dt float32) {
	if engo.Input == nil {
		return
	}
	cs.Apply(Controls{
		Left:  engo.Input.Button(ButtonLeft).Down(),
		Right: engo.Input.Button(ButtonRight).Down(),
		Jump:  engo.Input.Button(ButtonJump).JustPressed(),
		Pause: engo.Input.Button(ButtonPause).JustPressed(),
		Tree:  engo.Input.Button(ButtonTree).JustPressed(),
		Step:  engo.Input.Button(ButtonStep).JustPressed(),
	})
}

// Apply handles one frame of input.
func (cs *ControlSystem) Apply(c Controls) {
	if c.Pause {
		cs.paused = !cs.paused
		cs.logger.Info(context.Background(), "simulation pause toggled", "paused", cs.paused)
	}
	if c.Tree {
		cs.showTree = !cs.showTree
	}
	if c.Step && cs.paused {
		cs.stepOnce = true
	}
	if !cs.driving {
		return
	}

	err := cs.world.ModifyBody(cs.target, func(b *physics.Body) {
		switch {
		case c.Left && !c.Right:
			b.Velocity.X = -cs.Speed
		case c.Right && !c.Left:
			b.Velocity.X = cs.Speed
		default:
			b.Velocity.X = 0
		}
		if c.Jump && math.Abs(b.Velocity.Y) < restingSpeed {
			b.Velocity.Y = -cs.JumpSpeed
		}
	})
	if err != nil {
		cs.logger.Warn(context.Background(), "controlled body is gone", "body_id", uint64(cs.target))
		cs.driving = false
	}
}

// SetupInputBindings registers the control key bindings.
func SetupInputBindings() {
	engo.Input.RegisterButton(ButtonLeft, engo.KeyA, engo.KeyArrowLeft)
	engo.Input.RegisterButton(ButtonRight, engo.KeyD, engo.KeyArrowRight)
	engo.Input.RegisterButton(ButtonJump, engo.KeyW, engo.KeyArrowUp, engo.KeySpace)
	engo.Input.RegisterButton(ButtonPause, engo.KeyP)
	engo.Input.RegisterButton(ButtonTree, engo.KeyT)
	engo.Input.RegisterButton(ButtonStep, engo.KeyN)
}
