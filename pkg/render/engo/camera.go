// pkg/render/engo/camera.go
package engo

import (
	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"
	"github.com/EngoEngine/engo/common"

	"github.com/opd-ai/go-broadphase/pkg/physics"
)

// Camera button names registered by SetupCameraControls.
const (
	ButtonZoomIn    = "zoomIn"
	ButtonZoomOut   = "zoomOut"
	ButtonResetZoom = "resetZoom"
	ButtonPanLeft   = "panLeft"
	ButtonPanRight  = "panRight"
	ButtonPanUp     = "panUp"
	ButtonPanDown   = "panDown"
)

// CameraSystem follows a body or pans freely over the world.
type CameraSystem struct {
	target    physics.Vector2D
	targetSet bool

	zoom    float32
	minZoom float32
	maxZoom float32

	// Smooth following
	followSpeed float32
	smoothing   bool

	// Free panning, world units per second at zoom 1
	panSpeed float64

	// view is the screen size in pixels
	view physics.Vector2D

	currentPos physics.Vector2D
}

// NewCameraSystem creates a camera for a view of the given pixel size.
func NewCameraSystem(viewWidth, viewHeight float64) *CameraSystem {
	return &CameraSystem{
		zoom:        1.0,
		minZoom:     0.1,
		maxZoom:     3.0,
		followSpeed: 2.0,
		smoothing:   true,
		panSpeed:    400,
		view:        physics.Vec(viewWidth, viewHeight),
	}
}

// Remove satisfies the ecs.System interface
func (cs *CameraSystem) Remove(basic ecs.BasicEntity) {}

// Update reads camera input, moves toward the target and pushes the result
// to the engo camera.
func (cs *CameraSystem) Update(dt float32) {
	if engo.Input != nil {
		cs.handleInput(dt)
	}
	if cs.targetSet {
		cs.updateCameraPosition(dt)
	}
	cs.applyCameraTransform()
}

func (cs *CameraSystem) handleInput(dt float32) {
	if scrollY := engo.Input.Mouse.ScrollY; scrollY != 0 {
		cs.SetZoom(cs.zoom * (1.0 + scrollY*0.1))
	}
	if engo.Input.Button(ButtonZoomIn).Down() {
		cs.SetZoom(cs.zoom * 1.02)
	}
	if engo.Input.Button(ButtonZoomOut).Down() {
		cs.SetZoom(cs.zoom * 0.98)
	}
	if engo.Input.Button(ButtonResetZoom).JustPressed() {
		cs.SetZoom(1.0)
	}

	var dir physics.Vector2D
	if engo.Input.Button(ButtonPanLeft).Down() {
		dir.X--
	}
	if engo.Input.Button(ButtonPanRight).Down() {
		dir.X++
	}
	if engo.Input.Button(ButtonPanUp).Down() {
		dir.Y--
	}
	if engo.Input.Button(ButtonPanDown).Down() {
		dir.Y++
	}
	cs.Pan(dir, dt)
}

// Pan moves the camera along dir when it is not following a target. The
// distance shrinks as the zoom grows.
func (cs *CameraSystem) Pan(dir physics.Vector2D, dt float32) {
	if cs.targetSet || (dir.X == 0 && dir.Y == 0) {
		return
	}
	step := cs.panSpeed * float64(dt) / float64(cs.zoom)
	cs.currentPos = cs.currentPos.Add(dir.Normalize().Scale(step))
}

// updateCameraPosition moves the camera toward the target.
func (cs *CameraSystem) updateCameraPosition(dt float32) {
	if !cs.smoothing {
		cs.currentPos = cs.target
		return
	}
	t := float64(cs.followSpeed) * float64(dt)
	if t > 1 {
		t = 1
	}
	cs.currentPos = cs.currentPos.Add(cs.target.Sub(cs.currentPos).Scale(t))
}

func (cs *CameraSystem) applyCameraTransform() {
	if engo.Mailbox == nil {
		return
	}
	engo.Mailbox.Dispatch(common.CameraMessage{Axis: common.XAxis, Value: float32(cs.currentPos.X)})
	engo.Mailbox.Dispatch(common.CameraMessage{Axis: common.YAxis, Value: float32(cs.currentPos.Y)})
	engo.Mailbox.Dispatch(common.CameraMessage{Axis: common.ZAxis, Value: 1 / cs.zoom})
}

// SetTarget sets the position the camera follows. The first target snaps
// the camera there.
func (cs *CameraSystem) SetTarget(target physics.Vector2D) {
	first := !cs.targetSet
	cs.target = target
	cs.targetSet = true
	if !cs.smoothing || first {
		cs.currentPos = target
	}
}

// ClearTarget stops following and allows free panning.
func (cs *CameraSystem) ClearTarget() {
	cs.targetSet = false
}

// HasTarget reports whether the camera is following something.
func (cs *CameraSystem) HasTarget() bool {
	return cs.targetSet
}

// LookAt moves the camera immediately.
func (cs *CameraSystem) LookAt(pos physics.Vector2D) {
	cs.currentPos = pos
}

// SetZoom sets the camera zoom level
func (cs *CameraSystem) SetZoom(zoom float32) {
	cs.zoom = cs.clampZoom(zoom)
}

// GetZoom returns the current zoom level
func (cs *CameraSystem) GetZoom() float32 {
	return cs.zoom
}

// FitZoom picks the zoom that shows all of box, within the zoom limits.
func (cs *CameraSystem) FitZoom(box physics.AABB) {
	if box.Width() <= 0 || box.Height() <= 0 || cs.view.X <= 0 || cs.view.Y <= 0 {
		return
	}
	zx := cs.view.X / box.Width()
	zy := cs.view.Y / box.Height()
	z := zx
	if zy < z {
		z = zy
	}
	cs.SetZoom(float32(z))
	cs.LookAt(box.Center())
}

func (cs *CameraSystem) clampZoom(zoom float32) float32 {
	if zoom < cs.minZoom {
		return cs.minZoom
	}
	if zoom > cs.maxZoom {
		return cs.maxZoom
	}
	return zoom
}

// SetFollowSpeed sets the camera follow speed
func (cs *CameraSystem) SetFollowSpeed(speed float32) {
	cs.followSpeed = speed
}

// EnableSmoothing enables or disables camera smoothing
func (cs *CameraSystem) EnableSmoothing(enabled bool) {
	cs.smoothing = enabled
}

// GetCurrentPosition returns the world position at the center of the view.
func (cs *CameraSystem) GetCurrentPosition() physics.Vector2D {
	return cs.currentPos
}

// WorldToScreen converts world coordinates to screen pixels.
func (cs *CameraSystem) WorldToScreen(worldPos physics.Vector2D) physics.Vector2D {
	rel := worldPos.Sub(cs.currentPos).Scale(float64(cs.zoom))
	return rel.Add(cs.view.Scale(0.5))
}

// ScreenToWorld converts screen pixels to world coordinates.
func (cs *CameraSystem) ScreenToWorld(screenPos physics.Vector2D) physics.Vector2D {
	rel := screenPos.Sub(cs.view.Scale(0.5)).Scale(1 / float64(cs.zoom))
	return rel.Add(cs.currentPos)
}

// SetZoomLimits sets the minimum and maximum zoom levels
func (cs *CameraSystem) SetZoomLimits(min, max float32) {
	cs.minZoom = min
	cs.maxZoom = max
	cs.zoom = cs.clampZoom(cs.zoom)
}

// GetZoomLimits returns the current zoom limits
func (cs *CameraSystem) GetZoomLimits() (float32, float32) {
	return cs.minZoom, cs.maxZoom
}

// SetupCameraControls registers the camera key bindings.
func SetupCameraControls() {
	engo.Input.RegisterButton(ButtonZoomIn, engo.KeyE)
	engo.Input.RegisterButton(ButtonZoomOut, engo.KeyQ)
	engo.Input.RegisterButton(ButtonResetZoom, engo.KeyR)
	engo.Input.RegisterButton(ButtonPanLeft, engo.KeyJ)
	engo.Input.RegisterButton(ButtonPanRight, engo.KeyL)
	engo.Input.RegisterButton(ButtonPanUp, engo.KeyI)
	engo.Input.RegisterButton(ButtonPanDown, engo.KeyK)
}
