// Package engo draws a simulation.World in an engo window: bodies as
// filled rectangles, quadtree leaves as outlines, with keyboard control
// over one body and a following camera.
package engo

import (
	"context"
	"image/color"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-broadphase/pkg/logging"
	"github.com/opd-ai/go-broadphase/pkg/render"
	"github.com/opd-ai/go-broadphase/pkg/simulation"
)

// ViewerScene is an engo.Scene showing a World.
type ViewerScene struct {
	World *simulation.World
	// Follow is the tag of the body driven by the keys and followed by
	// the camera. Empty disables both.
	Follow string
	// TreeGroups lists the groups whose quadtree leaves are drawn.
	TreeGroups []string

	ViewWidth, ViewHeight float64

	renderer *EngoRenderer
	camera   *CameraSystem
	controls *ControlSystem
	stepper  *simulation.CollisionSystem

	logger *logging.Logger
}

// NewViewerScene creates a scene for w. Every group's tree is drawn.
func NewViewerScene(w *simulation.World, follow string) *ViewerScene {
	return &ViewerScene{
		World:      w,
		Follow:     follow,
		TreeGroups: w.Groups(),
		ViewWidth:  800,
		ViewHeight: 600,
		logger:     logging.NewLogger().Component("viewer"),
	}
}

// Type returns the scene type (required by Engo)
func (scene *ViewerScene) Type() string {
	return "ViewerScene"
}

// Preload is called before the scene starts (required by Engo). The viewer
// only draws rectangles, so there is nothing to load.
func (scene *ViewerScene) Preload() {}

// Setup is called when the scene starts (required by Engo)
func (scene *ViewerScene) Setup(u engo.Updater) {
	world, _ := u.(*ecs.World)
	if world == nil {
		scene.logger.Warn(context.Background(), "unexpected updater, viewer not started")
		return
	}

	common.SetBackground(color.Black)
	rs := &common.RenderSystem{}
	world.AddSystem(rs)

	SetupInputBindings()
	SetupCameraControls()

	scene.setup(world, rs)
}

// setup builds the viewer systems on world, drawing into sink.
func (scene *ViewerScene) setup(world *ecs.World, sink SpriteSink) {
	scene.renderer = NewEngoRenderer(sink)
	scene.camera = NewCameraSystem(scene.ViewWidth, scene.ViewHeight)
	scene.camera.FitZoom(scene.World.Config.World.Bounds)
	scene.controls = NewControlSystem(scene.World)
	scene.controls.SetLogger(scene.logger)
	scene.stepper = simulation.NewCollisionSystem(scene.World)

	if scene.Follow != "" {
		if ids := scene.World.FindByTag(scene.Follow); len(ids) > 0 {
			scene.controls.SetTarget(ids[0])
		} else {
			scene.logger.Warn(context.Background(), "no body to follow", "tag", scene.Follow)
		}
	}

	world.AddSystem(scene.controls)
	world.AddSystem(&frameSystem{scene: scene})
	world.AddSystem(scene.camera)

	scene.World.Start()
}

// Exit is called when the scene is exiting (required by Engo)
func (scene *ViewerScene) Exit() {
	scene.World.Stop()
}

// Camera returns the scene camera, nil before Setup.
func (scene *ViewerScene) Camera() *CameraSystem {
	return scene.camera
}

// Controls returns the scene control system, nil before Setup.
func (scene *ViewerScene) Controls() *ControlSystem {
	return scene.controls
}

// frameSystem steps the world, points the camera and redraws.
type frameSystem struct {
	scene *ViewerScene
}

// Remove satisfies the ecs.System interface
func (fs *frameSystem) Remove(basic ecs.BasicEntity) {}

func (fs *frameSystem) Update(dt float32) {
	s := fs.scene

	if !s.controls.Paused() {
		if dt > simulation.MaxDeltaTime {
			dt = simulation.MaxDeltaTime
		}
		s.stepper.Update(dt)
	} else if s.controls.TakeStep() {
		s.stepper.Update(float32(s.World.Config.TimeStep))
	}

	if id, ok := s.controls.Target(); ok {
		if b, found := s.World.Body(id); found {
			s.camera.SetTarget(b.AABB().Center())
		} else {
			s.camera.ClearTarget()
		}
	}

	var groups []string
	if s.controls.ShowTree() {
		groups = s.TreeGroups
	}
	if err := render.DrawWorld(s.renderer, s.World, groups...); err != nil {
		s.logger.Error(context.Background(), "draw failed", err)
	}
}
