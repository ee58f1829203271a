// pkg/render/engo/camera_test.go
package engo

import (
	"math"
	"testing"

	"github.com/EngoEngine/ecs"

	"github.com/opd-ai/go-broadphase/pkg/physics"
)

func newTestCamera() *CameraSystem {
	return NewCameraSystem(800, 600)
}

func TestNewCameraSystem(t *testing.T) {
	camera := newTestCamera()

	if camera.zoom != 1.0 {
		t.Errorf("Expected default zoom 1.0, got %f", camera.zoom)
	}
	if camera.minZoom != 0.1 {
		t.Errorf("Expected default minZoom 0.1, got %f", camera.minZoom)
	}
	if camera.maxZoom != 3.0 {
		t.Errorf("Expected default maxZoom 3.0, got %f", camera.maxZoom)
	}
	if camera.followSpeed != 2.0 {
		t.Errorf("Expected default followSpeed 2.0, got %f", camera.followSpeed)
	}
	if !camera.smoothing {
		t.Error("Expected smoothing to be enabled by default")
	}
	if camera.HasTarget() {
		t.Error("Expected no target by default")
	}
	if camera.view != physics.Vec(800, 600) {
		t.Errorf("Expected view (800, 600), got %v", camera.view)
	}
}

func TestCameraSystem_SetTarget_ClearTarget(t *testing.T) {
	camera := newTestCamera()
	testTarget := physics.Vector2D{X: 100.0, Y: 200.0}

	t.Run("SetTarget_FirstTime", func(t *testing.T) {
		camera.SetTarget(testTarget)

		if !camera.HasTarget() {
			t.Error("Expected a target after SetTarget")
		}
		if camera.currentPos != testTarget {
			t.Errorf("Expected currentPos to snap to %v, got %v", testTarget, camera.currentPos)
		}
	})

	t.Run("SetTarget_Again_DoesNotSnap", func(t *testing.T) {
		camera.SetTarget(physics.Vec(500, 500))
		if camera.currentPos != testTarget {
			t.Errorf("Expected currentPos to stay at %v, got %v", testTarget, camera.currentPos)
		}
	})

	t.Run("ClearTarget", func(t *testing.T) {
		camera.ClearTarget()
		if camera.HasTarget() {
			t.Error("Expected no target after ClearTarget")
		}
	})
}

func TestCameraSystem_clampZoom(t *testing.T) {
	camera := newTestCamera()

	testCases := []struct {
		name     string
		input    float32
		expected float32
	}{
		{"ValidZoom", 1.5, 1.5},
		{"BelowMin", 0.05, 0.1},
		{"AboveMax", 5.0, 3.0},
		{"ExactMin", 0.1, 0.1},
		{"ExactMax", 3.0, 3.0},
		{"NegativeZoom", -1.0, 0.1},
		{"ZeroZoom", 0.0, 0.1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if result := camera.clampZoom(tc.input); result != tc.expected {
				t.Errorf("clampZoom(%f) = %f, want %f", tc.input, result, tc.expected)
			}
			camera.SetZoom(tc.input)
			if camera.GetZoom() != tc.expected {
				t.Errorf("SetZoom(%f) left zoom at %f, want %f", tc.input, camera.GetZoom(), tc.expected)
			}
		})
	}
}

func TestCameraSystem_ZoomLimits(t *testing.T) {
	camera := newTestCamera()

	camera.SetZoomLimits(0.5, 2.0)
	minZoom, maxZoom := camera.GetZoomLimits()
	if minZoom != 0.5 || maxZoom != 2.0 {
		t.Errorf("Expected limits (0.5, 2.0), got (%f, %f)", minZoom, maxZoom)
	}

	camera.SetZoom(2.0)
	camera.SetZoomLimits(0.2, 1.5)
	if camera.GetZoom() != 1.5 {
		t.Errorf("Expected zoom to be clamped to 1.5, got %f", camera.GetZoom())
	}
}

func TestCameraSystem_FitZoom(t *testing.T) {
	tests := []struct {
		name     string
		box      physics.AABB
		wantZoom float32
	}{
		{"wide world", physics.NewAABB(0, 0, 1600, 600), 0.5},
		{"tall world", physics.NewAABB(0, 0, 400, 1200), 0.5},
		{"small world clamps", physics.NewAABB(0, 0, 100, 100), 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			camera := newTestCamera()
			camera.FitZoom(tt.box)
			if camera.GetZoom() != tt.wantZoom {
				t.Errorf("zoom = %f, want %f", camera.GetZoom(), tt.wantZoom)
			}
			if camera.GetCurrentPosition() != tt.box.Center() {
				t.Errorf("position = %v, want %v", camera.GetCurrentPosition(), tt.box.Center())
			}
		})
	}

	t.Run("empty box ignored", func(t *testing.T) {
		camera := newTestCamera()
		camera.FitZoom(physics.AABB{})
		if camera.GetZoom() != 1.0 {
			t.Errorf("zoom = %f, want 1.0", camera.GetZoom())
		}
	})
}

func TestCameraSystem_updateCameraPosition(t *testing.T) {
	camera := newTestCamera()

	t.Run("SmoothingEnabled", func(t *testing.T) {
		camera.EnableSmoothing(true)
		camera.SetFollowSpeed(1.0)
		camera.SetTarget(physics.Vec(10, 10))
		camera.SetTarget(physics.Vec(100, 100))

		camera.updateCameraPosition(0.1)

		want := physics.Vec(19, 19)
		if math.Abs(camera.currentPos.X-want.X) > 1e-9 || math.Abs(camera.currentPos.Y-want.Y) > 1e-9 {
			t.Errorf("Expected %v after one step, got %v", want, camera.currentPos)
		}
	})

	t.Run("LargeStepDoesNotOvershoot", func(t *testing.T) {
		camera.SetFollowSpeed(5.0)
		camera.updateCameraPosition(1.0)
		if math.Abs(camera.currentPos.X-100) > 1e-9 || math.Abs(camera.currentPos.Y-100) > 1e-9 {
			t.Errorf("Expected to land on target, got %v", camera.currentPos)
		}
	})

	t.Run("SmoothingDisabled", func(t *testing.T) {
		camera.EnableSmoothing(false)
		target := physics.Vector2D{X: 200, Y: 200}
		camera.SetTarget(target)
		camera.updateCameraPosition(0.1)

		if camera.currentPos != target {
			t.Errorf("Expected immediate movement to %v, got %v", target, camera.currentPos)
		}
	})
}

func TestCameraSystem_Pan(t *testing.T) {
	camera := newTestCamera()

	camera.Pan(physics.Vec(1, 0), 0.5)
	if camera.GetCurrentPosition() != physics.Vec(200, 0) {
		t.Errorf("Expected (200, 0) after panning, got %v", camera.GetCurrentPosition())
	}

	camera.SetZoom(2.0)
	camera.Pan(physics.Vec(0, -1), 0.5)
	if camera.GetCurrentPosition() != physics.Vec(200, -100) {
		t.Errorf("Expected (200, -100) at zoom 2, got %v", camera.GetCurrentPosition())
	}

	camera.SetTarget(physics.Vec(0, 0))
	camera.Pan(physics.Vec(1, 0), 1)
	if camera.GetCurrentPosition() != physics.Vec(0, 0) {
		t.Errorf("Pan should be ignored while following, got %v", camera.GetCurrentPosition())
	}
}

func TestCameraSystem_Update_WithoutEngine(t *testing.T) {
	camera := newTestCamera()
	camera.EnableSmoothing(false)
	camera.SetTarget(physics.Vec(5, 5))

	camera.Update(0.016)

	if camera.GetCurrentPosition() != physics.Vec(5, 5) {
		t.Errorf("Expected camera at target, got %v", camera.GetCurrentPosition())
	}
}

func TestCameraSystem_WorldToScreen(t *testing.T) {
	camera := newTestCamera()
	camera.LookAt(physics.Vec(100, 100))

	if got := camera.WorldToScreen(physics.Vec(100, 100)); got != physics.Vec(400, 300) {
		t.Errorf("camera position should map to view center, got %v", got)
	}

	camera.SetZoom(2.0)
	if got := camera.WorldToScreen(physics.Vec(110, 120)); got != physics.Vec(420, 340) {
		t.Errorf("Expected (420, 340) at zoom 2, got %v", got)
	}
}

func TestCameraSystem_CoordinateTransformation_Consistency(t *testing.T) {
	camera := newTestCamera()

	testCases := []struct {
		name      string
		zoom      float32
		cameraPos physics.Vector2D
	}{
		{"ZoomOne_OriginCamera", 1.0, physics.Vector2D{X: 0, Y: 0}},
		{"ZoomTwo_OriginCamera", 2.0, physics.Vector2D{X: 0, Y: 0}},
		{"ZoomHalf_OffsetCamera", 0.5, physics.Vector2D{X: 100, Y: 200}},
		{"ZoomThree_OffsetCamera", 3.0, physics.Vector2D{X: -50, Y: -75}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			camera.SetZoom(tc.zoom)
			camera.LookAt(tc.cameraPos)

			testPoints := []physics.Vector2D{
				{X: 0, Y: 0},
				{X: 100, Y: 100},
				{X: -50, Y: 75},
				{X: 300, Y: -200},
			}

			for _, worldPoint := range testPoints {
				screenPoint := camera.WorldToScreen(worldPoint)
				backToWorld := camera.ScreenToWorld(screenPoint)

				tolerance := 0.001
				if math.Abs(backToWorld.X-worldPoint.X) > tolerance ||
					math.Abs(backToWorld.Y-worldPoint.Y) > tolerance {
					t.Errorf("Round-trip failed for point %v: got %v", worldPoint, backToWorld)
				}
			}
		})
	}
}

func TestCameraSystem_ECSInterface(t *testing.T) {
	camera := newTestCamera()

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Remove method panicked: %v", r)
		}
	}()

	var mockEntity ecs.BasicEntity
	camera.Remove(mockEntity)
}
