// pkg/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/opd-ai/go-broadphase/pkg/physics"
)

// SimulationConfig contains configuration for a simulated world
type SimulationConfig struct {
	// TimeStep is the fixed step, in seconds, used by World.Run.
	TimeStep  float64         `json:"timeStep" yaml:"timeStep"`
	World     WorldConfig     `json:"world" yaml:"world"`
	Groups    []GroupConfig   `json:"groups" yaml:"groups"`
	Rules     []RuleConfig    `json:"rules" yaml:"rules"`
	Lines     []LineConfig    `json:"lines,omitempty" yaml:"lines,omitempty"`
	Inspector InspectorConfig `json:"inspector" yaml:"inspector"`
	Health    HealthConfig    `json:"health" yaml:"health"`
}

// WorldConfig holds the quadtree defaults shared by every group
type WorldConfig struct {
	Bounds    physics.AABB `json:"bounds" yaml:"bounds"`
	Depth     uint         `json:"depth" yaml:"depth"`
	PoolDepth uint         `json:"poolDepth" yaml:"poolDepth"`
}

// GroupConfig declares a collision group. Zero-valued overrides fall back to
// the world settings.
type GroupConfig struct {
	Name      string        `json:"name" yaml:"name"`
	Bounds    *physics.AABB `json:"bounds,omitempty" yaml:"bounds,omitempty"`
	Depth     *uint         `json:"depth,omitempty" yaml:"depth,omitempty"`
	PoolDepth *uint         `json:"poolDepth,omitempty" yaml:"poolDepth,omitempty"`
}

// RuleConfig collides group A against group B every step. A == B collides a
// group with itself.
type RuleConfig struct {
	A string `json:"a" yaml:"a"`
	B string `json:"b" yaml:"b"`
}

// Line axes
const (
	Horizontal = "horizontal"
	Vertical   = "vertical"
)

// LineConfig is an immovable line that the bodies of Groups bounce off.
// Position is y for horizontal lines and x for vertical ones; Min and Max
// bound the segment unless Unbounded is set.
type LineConfig struct {
	Axis      string   `json:"axis" yaml:"axis"`
	Position  float64  `json:"position" yaml:"position"`
	Min       float64  `json:"min,omitempty" yaml:"min,omitempty"`
	Max       float64  `json:"max,omitempty" yaml:"max,omitempty"`
	Unbounded bool     `json:"unbounded,omitempty" yaml:"unbounded,omitempty"`
	Groups    []string `json:"groups" yaml:"groups"`
}

// InspectorConfig contains debug stream configuration
type InspectorConfig struct {
	Enabled           bool   `json:"enabled" yaml:"enabled"`
	Address           string `json:"address" yaml:"address"`
	Port              int    `json:"port" yaml:"port"`
	SnapshotRate      int    `json:"snapshotRate" yaml:"snapshotRate"`
	MaxClients        int    `json:"maxClients" yaml:"maxClients"`
	MaxMessageBytes   int    `json:"maxMessageBytes" yaml:"maxMessageBytes"`
	CommandsPerSecond int    `json:"commandsPerSecond" yaml:"commandsPerSecond"`
}

// HealthConfig contains health endpoint configuration
type HealthConfig struct {
	Port int `json:"port" yaml:"port"`
	// OverflowStreakLimit is how many consecutive overflowing rebuilds a
	// group may have before the pool check reports unhealthy.
	OverflowStreakLimit uint64 `json:"overflowStreakLimit" yaml:"overflowStreakLimit"`
}

// GroupNames lists the configured group names in order.
func (c *SimulationConfig) GroupNames() []string {
	names := make([]string, 0, len(c.Groups))
	for _, g := range c.Groups {
		names = append(names, g.Name)
	}
	return names
}

// isYAML reports whether path should be read and written as YAML.
func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// LoadConfig loads a configuration from a file. Files ending in .yaml or .yml
// are parsed as YAML, anything else as JSON. Fields missing from the file
// keep their DefaultConfig values.
func LoadConfig(path string) (*SimulationConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	defaults := DefaultConfig()
	// Decoders merge into existing slice elements, so start the lists empty.
	config.Groups, config.Rules = nil, nil

	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if config.Groups == nil {
		config.Groups = defaults.Groups
		if config.Rules == nil {
			config.Rules = defaults.Rules
		}
	}

	return config, nil
}

// SaveConfig saves a configuration to a file, choosing the format from the
// extension like LoadConfig.
func SaveConfig(config *SimulationConfig, path string) error {
	if config == nil {
		return fmt.Errorf("failed to marshal config: nil config")
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(config)
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a default simulation configuration: one dynamic
// "bodies" group colliding with itself and with a static "walls" group.
func DefaultConfig() *SimulationConfig {
	return &SimulationConfig{
		TimeStep: 1.0 / 60.0,
		World: WorldConfig{
			Bounds:    physics.NewAABB(0, 0, 1024, 1024),
			Depth:     5,
			PoolDepth: 6,
		},
		Groups: []GroupConfig{
			{Name: "bodies"},
			{Name: "walls"},
		},
		Rules: []RuleConfig{
			{A: "bodies", B: "bodies"},
			{A: "walls", B: "bodies"},
		},
		Inspector: InspectorConfig{
			Enabled:           false,
			Address:           "localhost",
			Port:              4680,
			SnapshotRate:      20,
			MaxClients:        8,
			MaxMessageBytes:   4096,
			CommandsPerSecond: 10,
		},
		Health: HealthConfig{
			Port:                8080,
			OverflowStreakLimit: 120,
		},
	}
}
