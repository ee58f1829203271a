// pkg/config/presets.go
package config

import (
	"fmt"
	"sort"

	"github.com/opd-ai/go-broadphase/pkg/physics"
)

// Preset is a named world layout: bounds, tree sizing, groups and rules.
type Preset struct {
	Name        string
	Description string
	World       WorldConfig
	Groups      []GroupConfig
	Rules       []RuleConfig
	Lines       []LineConfig
}

var presets = map[string]Preset{
	"platformer": {
		Name:        "Platformer",
		Description: "Side view with players, moving platforms and a floor line",
		World: WorldConfig{
			Bounds:    physics.NewAABB(0, 0, 2048, 1024),
			Depth:     5,
			PoolDepth: 6,
		},
		Groups: []GroupConfig{
			{Name: "players"},
			{Name: "platforms"},
			{Name: "pickups"},
		},
		Rules: []RuleConfig{
			{A: "platforms", B: "players"},
			{A: "pickups", B: "players"},
		},
		Lines: []LineConfig{
			{Axis: Horizontal, Position: 1024, Unbounded: true, Groups: []string{"players", "pickups"}},
		},
	},
	"arena": {
		Name:        "Arena",
		Description: "Closed square where every body bounces off every other",
		World: WorldConfig{
			Bounds:    physics.NewAABB(0, 0, 512, 512),
			Depth:     4,
			PoolDepth: 5,
		},
		Groups: []GroupConfig{{Name: "bodies"}},
		Rules:  []RuleConfig{{A: "bodies", B: "bodies"}},
		Lines: []LineConfig{
			{Axis: Horizontal, Position: 0, Min: 0, Max: 512, Groups: []string{"bodies"}},
			{Axis: Horizontal, Position: 512, Min: 0, Max: 512, Groups: []string{"bodies"}},
			{Axis: Vertical, Position: 0, Min: 0, Max: 512, Groups: []string{"bodies"}},
			{Axis: Vertical, Position: 512, Min: 0, Max: 512, Groups: []string{"bodies"}},
		},
	},
	"stress": {
		Name:        "Stress",
		Description: "Large sparse world with a deep tree for benchmarking rebuilds",
		World: WorldConfig{
			Bounds:    physics.NewAABB(0, 0, 16384, 16384),
			Depth:     8,
			PoolDepth: 7,
		},
		Groups: []GroupConfig{
			{Name: "bodies"},
			{Name: "walls"},
		},
		Rules: []RuleConfig{
			{A: "bodies", B: "bodies"},
			{A: "walls", B: "bodies"},
		},
	},
}

// GetPreset returns the preset registered under key, or nil.
func GetPreset(key string) *Preset {
	p, ok := presets[key]
	if !ok {
		return nil
	}
	return &p
}

// ListPresets returns the registered presets keyed by name.
func ListPresets() map[string]Preset {
	out := make(map[string]Preset, len(presets))
	for k, v := range presets {
		out[k] = v
	}
	return out
}

// PresetKeys returns the registered preset keys in sorted order.
func PresetKeys() []string {
	keys := make([]string, 0, len(presets))
	for k := range presets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ApplyPreset replaces the world, groups, rules and lines of config with the
// preset's. Time step, inspector and health settings are kept.
func ApplyPreset(config *SimulationConfig, key string) error {
	p := GetPreset(key)
	if p == nil {
		return fmt.Errorf("unknown preset %q", key)
	}

	config.World = p.World
	config.Groups = append([]GroupConfig(nil), p.Groups...)
	config.Rules = append([]RuleConfig(nil), p.Rules...)
	config.Lines = make([]LineConfig, len(p.Lines))
	for i, l := range p.Lines {
		l.Groups = append([]string(nil), l.Groups...)
		config.Lines[i] = l
	}
	return nil
}
