// Package simulation runs a collision world: it owns the body store, the
// broad-phase groups and the rules that pair them, and advances everything one
// fixed step at a time.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/opd-ai/go-broadphase/pkg/collision"
	"github.com/opd-ai/go-broadphase/pkg/config"
	"github.com/opd-ai/go-broadphase/pkg/event"
	"github.com/opd-ai/go-broadphase/pkg/logging"
	"github.com/opd-ai/go-broadphase/pkg/physics"
	"github.com/opd-ai/go-broadphase/pkg/validation"
)

// MaxDeltaTime caps the wall-clock step taken by Update.
const MaxDeltaTime = 0.1

var (
	// ErrUnknownGroup is returned when a group name is not configured.
	ErrUnknownGroup = errors.New("unknown group")
	// ErrUnknownBody is returned for handles that no longer resolve.
	ErrUnknownBody = errors.New("unknown body")
)

// Rule collides group A against group B every step. When A and B name the
// same group the group is collided with itself.
type Rule struct {
	A string
	B string
}

// Line is an immovable line bodies of the listed groups bounce off.
type Line struct {
	config.LineConfig
}

// World is a complete collision simulation. All exported methods are safe
// for concurrent use; stepping itself is single-threaded.
type World struct {
	Config   *config.SimulationConfig
	EventBus *event.Bus

	store      *physics.Store
	groups     map[string]*collision.Group
	groupOrder []string
	membership map[physics.BodyID]string
	rules      []Rule
	lines      []Line
	movers     map[physics.BodyID]*Mover

	mu         sync.RWMutex
	running    bool
	tick       uint64
	lastUpdate time.Time
	collisions []physics.CollisionDetails
	lineHits   int
	pending    []event.Event

	logger *logging.Logger
}

// NewWorld creates a world from cfg, or from DefaultConfig when cfg is nil.
// Rules and lines naming unknown groups are skipped with a warning; run
// validation.ValidateConfig first to reject them instead.
func NewWorld(cfg *config.SimulationConfig) *World {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	w := &World{
		Config:     cfg,
		EventBus:   event.NewEventBus(),
		store:      physics.NewStore(64),
		groups:     make(map[string]*collision.Group),
		membership: make(map[physics.BodyID]string),
		movers:     make(map[physics.BodyID]*Mover),
		lastUpdate: time.Now(),
		logger:     logging.Discard(),
	}

	w.initGroups()
	w.initRules()
	w.initLines()

	return w
}

// initGroups creates one quadtree per configured group.
func (w *World) initGroups() {
	for _, gc := range w.Config.Groups {
		bounds := w.Config.World.Bounds
		depth := w.Config.World.Depth
		poolDepth := w.Config.World.PoolDepth
		if gc.Bounds != nil {
			bounds = *gc.Bounds
		}
		if gc.Depth != nil {
			depth = *gc.Depth
		}
		if gc.PoolDepth != nil {
			poolDepth = *gc.PoolDepth
		}

		name := gc.Name
		g := collision.NewGroup(w.store, bounds, depth, poolDepth)
		g.OnOverflow(func(s collision.Stats) {
			w.pending = append(w.pending, event.NewPoolOverflowEvent(w, name, s))
		})
		w.groups[name] = g
		w.groupOrder = append(w.groupOrder, name)
	}
}

func (w *World) initRules() {
	for _, rc := range w.Config.Rules {
		if err := w.addRule(Rule{A: rc.A, B: rc.B}); err != nil {
			w.logger.Warn(context.Background(), "skipping rule", "error", err)
		}
	}
}

func (w *World) initLines() {
	for i, lc := range w.Config.Lines {
		if err := w.checkGroups(lc.Groups...); err != nil {
			w.logger.Warn(context.Background(), "skipping line", "index", i, "error", err)
			continue
		}
		w.lines = append(w.lines, Line{LineConfig: lc})
	}
}

// SetLogger sets the logger for the world and its groups.
func (w *World) SetLogger(l *logging.Logger) {
	if l == nil {
		l = logging.Discard()
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	w.logger = l.Component("simulation")
	for name, g := range w.groups {
		g.SetLogger(l.Component("collision").With("group", name))
	}
}

func (w *World) checkGroups(names ...string) error {
	for _, name := range names {
		if _, ok := w.groups[name]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownGroup, name)
		}
	}
	return nil
}

// AddRule appends a collision rule. Rules run in the order they were added.
func (w *World) AddRule(r Rule) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.addRule(r)
}

func (w *World) addRule(r Rule) error {
	if err := w.checkGroups(r.A, r.B); err != nil {
		return fmt.Errorf("rule %s/%s: %w", r.A, r.B, err)
	}
	w.rules = append(w.rules, r)
	return nil
}

// Rules returns the collision rules in execution order.
func (w *World) Rules() []Rule {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]Rule(nil), w.rules...)
}

// Groups returns the group names in configuration order.
func (w *World) Groups() []string {
	return append([]string(nil), w.groupOrder...)
}

// AddBody adds b to the store and to the named group. The body's tag is
// trimmed and validated.
func (w *World) AddBody(group string, b physics.Body) (physics.BodyID, error) {
	tag, err := validation.ValidateTag(b.Tag)
	if err != nil {
		return 0, fmt.Errorf("add body to %s: %w", group, err)
	}
	if err := validation.ValidateSize(b.Size); err != nil {
		return 0, fmt.Errorf("add body to %s: %w", group, err)
	}
	if err := validation.ValidateVector("position", b.Position); err != nil {
		return 0, fmt.Errorf("add body to %s: %w", group, err)
	}
	b.Tag = tag

	w.mu.Lock()
	g, ok := w.groups[group]
	if !ok {
		w.mu.Unlock()
		return 0, fmt.Errorf("add body: %w: %q", ErrUnknownGroup, group)
	}
	id := w.store.Add(b)
	g.Add(id)
	w.membership[id] = group
	w.mu.Unlock()

	w.EventBus.Publish(event.NewBodyEvent(event.BodyAdded, w, id, group, tag))
	return id, nil
}

// RemoveBody removes the body from its group and the store.
func (w *World) RemoveBody(id physics.BodyID) error {
	w.mu.Lock()
	b, ok := w.store.Get(id)
	if !ok {
		w.mu.Unlock()
		return fmt.Errorf("remove body %v: %w", id, ErrUnknownBody)
	}
	tag := b.Tag
	group := w.membership[id]

	w.groups[group].Remove(id)
	delete(w.membership, id)
	delete(w.movers, id)
	w.store.Remove(id)
	w.mu.Unlock()

	w.EventBus.Publish(event.NewBodyEvent(event.BodyRemoved, w, id, group, tag))
	return nil
}

// AttachMover makes id follow path. The body is placed on the first
// waypoint and any previous mover is replaced.
func (w *World) AttachMover(id physics.BodyID, path Path) error {
	m, err := NewMover(path)
	if err != nil {
		return fmt.Errorf("attach mover to %v: %w", id, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	b, ok := w.store.Get(id)
	if !ok {
		return fmt.Errorf("attach mover to %v: %w", id, ErrUnknownBody)
	}
	b.SetPosition(m.Start())
	w.movers[id] = m
	return nil
}

// Body returns a copy of the body behind id.
func (w *World) Body(id physics.BodyID) (physics.Body, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	b, ok := w.store.Get(id)
	if !ok {
		return physics.Body{}, false
	}
	return *b, true
}

// ModifyBody runs fn on the body behind id while holding the world lock.
// fn must not call back into the world.
func (w *World) ModifyBody(id physics.BodyID, fn func(b *physics.Body)) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	b, ok := w.store.Get(id)
	if !ok {
		return fmt.Errorf("modify body %v: %w", id, ErrUnknownBody)
	}
	fn(b)
	return nil
}

// FindByTag returns the handles of every body carrying tag, in slot order.
func (w *World) FindByTag(tag string) []physics.BodyID {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var ids []physics.BodyID
	w.store.Each(func(id physics.BodyID, b *physics.Body) {
		if b.Tag == tag {
			ids = append(ids, id)
		}
	})
	return ids
}

// BodyCount returns the number of bodies in the world.
func (w *World) BodyCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.store.Len()
}

// Tick returns the number of completed steps.
func (w *World) Tick() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.tick
}

// GroupStats returns the latest rebuild statistics of the named group.
func (w *World) GroupStats(name string) (collision.Stats, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	g, ok := w.groups[name]
	if !ok {
		return collision.Stats{}, fmt.Errorf("%w: %q", ErrUnknownGroup, name)
	}
	return g.Stats(), nil
}

// AllGroupStats returns the latest rebuild statistics of every group.
func (w *World) AllGroupStats() map[string]collision.Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()

	stats := make(map[string]collision.Stats, len(w.groups))
	for name, g := range w.groups {
		stats[name] = g.Stats()
	}
	return stats
}

// WalkGroup visits the quadtree nodes of the named group built by the last
// step. fn must not call back into the world.
func (w *World) WalkGroup(name string, fn func(collision.NodeInfo) bool) error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	g, ok := w.groups[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownGroup, name)
	}
	g.Walk(fn)
	return nil
}

// Step advances the world by dt seconds: movers, integration, lines, tree
// rebuilds and then every rule in order. Events are published after the
// world lock is released, so handlers may call back into the world.
func (w *World) Step(dt float64) {
	w.mu.Lock()
	events := w.step(dt)
	w.mu.Unlock()

	for _, e := range events {
		w.EventBus.Publish(e)
	}
}

func (w *World) step(dt float64) []event.Event {
	for id, m := range w.movers {
		if b, ok := w.store.Get(id); ok {
			m.Drive(b, dt)
		}
	}

	w.store.Update(dt)
	w.lineHits = w.applyLines()

	for _, name := range w.groupOrder {
		w.groups[name].Update()
	}

	w.collisions = w.collisions[:0]
	for _, r := range w.rules {
		a := w.groups[r.A]
		if r.A == r.B {
			w.collisions = append(w.collisions, a.CollideSelf()...)
		} else {
			w.collisions = append(w.collisions, a.CollideGroup(w.groups[r.B])...)
		}
	}

	events := w.pending
	w.pending = nil
	for _, d := range w.collisions {
		events = append(events, event.NewCollisionEvent(w, w.tick, d))
	}
	w.tick++
	return events
}

// applyLines bounces every body of each line's groups off the line and
// returns the number of hits.
func (w *World) applyLines() int {
	hits := 0
	for _, l := range w.lines {
		for _, name := range l.Groups {
			for _, id := range w.groups[name].Bodies() {
				b, ok := w.store.Get(id)
				if ok && l.collide(b) {
					hits++
				}
			}
		}
	}
	return hits
}

func (l Line) collide(b *physics.Body) bool {
	switch {
	case l.Axis == config.Horizontal && l.Unbounded:
		return physics.CollideHorizontalLineUnbounded(b, l.Position)
	case l.Axis == config.Horizontal:
		return physics.CollideHorizontalLine(b, l.Position, l.Min, l.Max)
	case l.Unbounded:
		return physics.CollideVerticalLineUnbounded(b, l.Position)
	default:
		return physics.CollideVerticalLine(b, l.Position, l.Min, l.Max)
	}
}

// Start marks the world running and resets the wall clock used by Update.
func (w *World) Start() {
	w.mu.Lock()
	w.running = true
	w.lastUpdate = time.Now()
	tick := w.tick
	w.mu.Unlock()

	w.logger.Info(context.Background(), "simulation started", "tick", tick)
	w.EventBus.Publish(event.NewSimulationEvent(event.SimulationStarted, w, tick))
}

// Stop marks the world stopped.
func (w *World) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	tick := w.tick
	w.mu.Unlock()

	w.logger.Info(context.Background(), "simulation stopped", "tick", tick)
	w.EventBus.Publish(event.NewSimulationEvent(event.SimulationStopped, w, tick))
}

// Running reports whether the world has been started and not stopped.
func (w *World) Running() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// Update steps the world by the wall-clock time since the previous Update,
// capped at MaxDeltaTime.
func (w *World) Update() {
	w.Step(w.calculateDeltaTime())
}

func (w *World) calculateDeltaTime() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	deltaTime := now.Sub(w.lastUpdate).Seconds()
	w.lastUpdate = now

	if deltaTime > MaxDeltaTime {
		deltaTime = MaxDeltaTime
	}
	return deltaTime
}

// Run starts the world and steps it by Config.TimeStep on a ticker until ctx
// is done. It returns ctx.Err().
func (w *World) Run(ctx context.Context) error {
	interval := time.Duration(w.Config.TimeStep * float64(time.Second))
	if interval <= 0 {
		return fmt.Errorf("invalid time step %v", w.Config.TimeStep)
	}

	w.Start()
	defer w.Stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.Step(w.Config.TimeStep)
		}
	}
}
