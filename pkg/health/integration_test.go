package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/opd-ai/go-broadphase/pkg/config"
	"github.com/opd-ai/go-broadphase/pkg/inspect"
	"github.com/opd-ai/go-broadphase/pkg/logging"
	"github.com/opd-ai/go-broadphase/pkg/physics"
	"github.com/opd-ai/go-broadphase/pkg/simulation"
)

// TestHealthCheckIntegration wires the checks to a real world and inspector.
func TestHealthCheckIntegration(t *testing.T) {
	cfg := config.DefaultConfig()
	world := simulation.NewWorld(cfg)
	world.SetLogger(logging.Discard())

	inspector := inspect.NewServer(world, cfg.Inspector)
	inspector.SetLogger(logging.Discard())
	defer inspector.Close()

	healthChecker := NewHealthChecker()
	healthChecker.AddCheck(NewSimulationHealthCheck(world.Running))
	healthChecker.AddCheck(NewInspectorHealthCheck(inspector.ListenerAddress))
	healthChecker.AddCheck(NewPoolHealthCheck(world.AllGroupStats, cfg.Health.OverflowStreakLimit))

	t.Run("health checks before start", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		health := healthChecker.CheckHealth(ctx)

		if health.Checks["simulation"].Status != StatusUnhealthy {
			t.Error("simulation should be unhealthy before Start")
		}
		if health.Checks["inspector"].Status != StatusUnhealthy {
			t.Error("inspector should be unhealthy before it listens")
		}
		if health.Checks["quadtree_pool"].Status != StatusHealthy {
			t.Error("pool should be healthy with no bodies")
		}
		if health.Status != StatusUnhealthy {
			t.Error("overall status should be unhealthy before start")
		}
	})

	world.Start()
	defer world.Stop()
	if err := inspector.Start("127.0.0.1:0"); err != nil {
		t.Fatalf("inspector.Start() = %v", err)
	}

	t.Run("health checks after start", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		health := healthChecker.CheckHealth(ctx)
		for name, c := range health.Checks {
			if c.Status != StatusHealthy {
				t.Errorf("check %s = %s (%s), want healthy", name, c.Status, c.Message)
			}
		}
		if health.Status != StatusHealthy {
			t.Errorf("overall status = %s, want healthy", health.Status)
		}
	})

	t.Run("readiness endpoint", func(t *testing.T) {
		ts := httptest.NewServer(healthChecker.Handler())
		defer ts.Close()

		resp, err := http.Get(ts.URL + "/health/ready")
		if err != nil {
			t.Fatalf("GET /health/ready: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("status code = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		var status HealthStatus
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(status.Checks) != 3 {
			t.Errorf("got %d checks, want 3", len(status.Checks))
		}
	})

	t.Run("inspector closed", func(t *testing.T) {
		inspector.Close()

		health := healthChecker.CheckHealth(context.Background())
		if health.Checks["inspector"].Status != StatusUnhealthy {
			t.Error("inspector should be unhealthy after Close")
		}
	})
}

// TestPoolHealthCheck_Overflow crowds a tiny pool until the streak passes
// the limit.
func TestPoolHealthCheck_Overflow(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.World.Bounds = physics.NewAABB(0, 0, 64, 64)
	cfg.World.Depth = 3
	cfg.World.PoolDepth = 1
	world := simulation.NewWorld(cfg)
	world.SetLogger(logging.Discard())

	for _, p := range []physics.Vector2D{{X: 1, Y: 1}, {X: 40, Y: 1}, {X: 1, Y: 40}, {X: 40, Y: 40}} {
		if _, err := world.AddBody("bodies", physics.NewBody(p, physics.Vec(2, 2))); err != nil {
			t.Fatalf("AddBody() = %v", err)
		}
	}

	const limit = 2
	check := NewPoolHealthCheck(world.AllGroupStats, limit)

	for i := 1; i <= limit+1; i++ {
		world.Step(1.0 / 60)
		err := check.Check(context.Background())
		if i <= limit && err != nil {
			t.Errorf("step %d: Check() = %v, want nil", i, err)
		}
		if i > limit && err == nil {
			t.Errorf("step %d: Check() = nil, want overflow error", i)
		}
	}
}
