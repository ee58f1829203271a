package validation

import (
	"errors"
	"fmt"

	"github.com/opd-ai/go-broadphase/pkg/config"
)

// Tree sizing limits. A depth-12 pool is already ~5.6M nodes.
const (
	MaxDepth     = 16
	MaxPoolDepth = 12
	MaxTimeStep  = 0.1
)

// ValidateConfig reports every problem in cfg at once, joined into a single
// error, or nil when the configuration can build a World.
func ValidateConfig(cfg *config.SimulationConfig) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	var errs []error
	add := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if !(cfg.TimeStep > 0 && cfg.TimeStep <= MaxTimeStep) {
		add("timeStep %v must be in (0, %v]", cfg.TimeStep, MaxTimeStep)
	}

	if err := validateTree("world", cfg.World.Depth, cfg.World.PoolDepth); err != nil {
		errs = append(errs, err)
	}
	if err := ValidateVector("world position", cfg.World.Bounds.Position); err != nil {
		errs = append(errs, err)
	}
	if err := ValidateSize(cfg.World.Bounds.Size); err != nil {
		add("world bounds: %w", err)
	}

	if len(cfg.Groups) == 0 {
		add("at least one group is required")
	}
	known := make(map[string]bool, len(cfg.Groups))
	for i, g := range cfg.Groups {
		if err := ValidateGroupName(g.Name); err != nil {
			add("group %d: %w", i, err)
			continue
		}
		if known[g.Name] {
			add("group %q declared twice", g.Name)
		}
		known[g.Name] = true

		depth, pool := cfg.World.Depth, cfg.World.PoolDepth
		if g.Depth != nil {
			depth = *g.Depth
		}
		if g.PoolDepth != nil {
			pool = *g.PoolDepth
		}
		if err := validateTree("group "+g.Name, depth, pool); err != nil {
			errs = append(errs, err)
		}
		if g.Bounds != nil {
			if err := ValidateSize(g.Bounds.Size); err != nil {
				add("group %q bounds: %w", g.Name, err)
			}
		}
	}

	for i, r := range cfg.Rules {
		for _, name := range []string{r.A, r.B} {
			if !known[name] {
				add("rule %d: unknown group %q", i, name)
			}
		}
	}

	for i, l := range cfg.Lines {
		if l.Axis != config.Horizontal && l.Axis != config.Vertical {
			add("line %d: axis must be %q or %q, got %q", i, config.Horizontal, config.Vertical, l.Axis)
		}
		if !finite(l.Position) || !finite(l.Min) || !finite(l.Max) {
			add("line %d: coordinates must be finite", i)
		}
		if !l.Unbounded && l.Min == l.Max {
			add("line %d: bounded line has zero length", i)
		}
		if len(l.Groups) == 0 {
			add("line %d: no groups", i)
		}
		for _, name := range l.Groups {
			if !known[name] {
				add("line %d: unknown group %q", i, name)
			}
		}
	}

	if cfg.Inspector.Enabled {
		if cfg.Inspector.SnapshotRate < 1 {
			add("inspector snapshotRate must be positive")
		}
		if cfg.Inspector.Port == cfg.Health.Port {
			add("inspector and health ports must differ")
		}
	}

	return errors.Join(errs...)
}

func validateTree(owner string, depth, poolDepth uint) error {
	switch {
	case depth > MaxDepth:
		return fmt.Errorf("%s depth %d exceeds %d", owner, depth, MaxDepth)
	case poolDepth > MaxPoolDepth:
		return fmt.Errorf("%s poolDepth %d exceeds %d", owner, poolDepth, MaxPoolDepth)
	}
	return nil
}
