// Package health provides liveness and readiness endpoints for the simulation
// daemon, plus checks for the simulation loop, the quadtree node pools, the
// inspector listener and process memory.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/opd-ai/go-broadphase/pkg/collision"
)

// Status values reported by checks and the aggregate.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// ReadinessTimeout bounds the time ReadinessHandler gives all checks.
const ReadinessTimeout = 5 * time.Second

// HealthCheck defines the interface for individual health checks.
type HealthCheck interface {
	// Name returns the unique name of this health check
	Name() string
	// Check performs the health check and returns an error if unhealthy
	Check(ctx context.Context) error
}

// HealthStatus represents the overall health status of the process.
type HealthStatus struct {
	Status string                     `json:"status"`
	Checks map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth represents the health status of an individual component.
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthChecker manages and executes health checks.
type HealthChecker struct {
	checks map[string]HealthCheck
	mu     sync.RWMutex
}

// NewHealthChecker creates a new health checker instance.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		checks: make(map[string]HealthCheck),
	}
}

// AddCheck registers a check, replacing any check with the same name.
func (hc *HealthChecker) AddCheck(check HealthCheck) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[check.Name()] = check
}

// RemoveCheck removes a health check by name.
func (hc *HealthChecker) RemoveCheck(name string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	delete(hc.checks, name)
}

// Names returns the registered check names, sorted.
func (hc *HealthChecker) Names() []string {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	names := make([]string, 0, len(hc.checks))
	for name := range hc.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckHealth runs every check and aggregates the results. The overall
// status is healthy only if all checks pass.
func (hc *HealthChecker) CheckHealth(ctx context.Context) HealthStatus {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	status := HealthStatus{
		Status: StatusHealthy,
		Checks: make(map[string]ComponentHealth, len(hc.checks)),
	}

	for name, check := range hc.checks {
		if err := check.Check(ctx); err != nil {
			status.Status = StatusUnhealthy
			status.Checks[name] = ComponentHealth{Status: StatusUnhealthy, Message: err.Error()}
			continue
		}
		status.Checks[name] = ComponentHealth{Status: StatusHealthy}
	}

	return status
}

// LivenessHandler answers 200 as long as the process can serve HTTP.
func (hc *HealthChecker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
}

// ReadinessHandler runs all checks and answers 200 when they pass or 503
// otherwise, with the per-check results as the body.
func (hc *HealthChecker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), ReadinessTimeout)
	defer cancel()

	health := hc.CheckHealth(ctx)

	w.Header().Set("Content-Type", "application/json")
	if health.Status == StatusHealthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(health)
}

// Handler returns a mux serving /health/live and /health/ready.
func (hc *HealthChecker) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", hc.LivenessHandler)
	mux.HandleFunc("/health/ready", hc.ReadinessHandler)
	return mux
}

// SimulationHealthCheck reports whether the world is stepping.
type SimulationHealthCheck struct {
	running func() bool
}

// NewSimulationHealthCheck creates a check backed by running, typically
// World.Running.
func NewSimulationHealthCheck(running func() bool) *SimulationHealthCheck {
	return &SimulationHealthCheck{running: running}
}

// Name returns the name of this health check.
func (s *SimulationHealthCheck) Name() string {
	return "simulation"
}

// Check verifies that the simulation loop is running.
func (s *SimulationHealthCheck) Check(ctx context.Context) error {
	if !s.running() {
		return fmt.Errorf("simulation is not running")
	}
	return nil
}

// PoolHealthCheck turns unhealthy while any group has overflowed its node
// pool for more than streakLimit consecutive rebuilds. Short bursts are
// tolerated; a standing overflow means the pool depth is too small.
type PoolHealthCheck struct {
	stats       func() map[string]collision.Stats
	streakLimit uint64
}

// NewPoolHealthCheck creates a check backed by stats, typically
// World.AllGroupStats.
func NewPoolHealthCheck(stats func() map[string]collision.Stats, streakLimit uint64) *PoolHealthCheck {
	return &PoolHealthCheck{stats: stats, streakLimit: streakLimit}
}

// Name returns the name of this health check.
func (p *PoolHealthCheck) Name() string {
	return "quadtree_pool"
}

// Check reports every group whose overflow streak is over the limit.
func (p *PoolHealthCheck) Check(ctx context.Context) error {
	var bad []string
	for name, s := range p.stats() {
		if s.OverflowStreak > p.streakLimit {
			bad = append(bad, fmt.Sprintf("%s (%d frames, %d extra nodes)", name, s.OverflowStreak, s.Overflow))
		}
	}
	if len(bad) == 0 {
		return nil
	}
	sort.Strings(bad)
	return fmt.Errorf("node pool overflowing: %s", strings.Join(bad, ", "))
}

// InspectorHealthCheck reports whether the inspector is listening.
type InspectorHealthCheck struct {
	listenerAddr func() string
}

// NewInspectorHealthCheck creates a check backed by listenerAddr, which
// returns "" while the inspector is not listening.
func NewInspectorHealthCheck(listenerAddr func() string) *InspectorHealthCheck {
	return &InspectorHealthCheck{listenerAddr: listenerAddr}
}

// Name returns the name of this health check.
func (i *InspectorHealthCheck) Name() string {
	return "inspector"
}

// Check verifies that the inspector listener is active.
func (i *InspectorHealthCheck) Check(ctx context.Context) error {
	if i.listenerAddr() == "" {
		return fmt.Errorf("inspector listener is not active")
	}
	return nil
}

// MemoryHealthCheck implements HealthCheck for memory usage monitoring.
type MemoryHealthCheck struct {
	maxMemoryMB    int64
	getMemoryUsage func() int64
}

// NewMemoryHealthCheck creates a health check for memory usage. A nil
// getMemoryUsage reads the Go heap with RuntimeMemoryUsageMB.
func NewMemoryHealthCheck(maxMemoryMB int64, getMemoryUsage func() int64) *MemoryHealthCheck {
	if getMemoryUsage == nil {
		getMemoryUsage = RuntimeMemoryUsageMB
	}
	return &MemoryHealthCheck{
		maxMemoryMB:    maxMemoryMB,
		getMemoryUsage: getMemoryUsage,
	}
}

// Name returns the name of this health check.
func (m *MemoryHealthCheck) Name() string {
	return "memory"
}

// Check verifies that memory usage is within acceptable limits.
func (m *MemoryHealthCheck) Check(ctx context.Context) error {
	currentMB := m.getMemoryUsage()
	if currentMB > m.maxMemoryMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB", currentMB, m.maxMemoryMB)
	}
	return nil
}

// RuntimeMemoryUsageMB returns the allocated Go heap in megabytes.
func RuntimeMemoryUsageMB() int64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return int64(ms.Alloc / 1024 / 1024)
}
