package config

import (
	"reflect"
	"testing"
)

func TestPresets(t *testing.T) {
	if got, want := PresetKeys(), []string{"arena", "platformer", "stress"}; !reflect.DeepEqual(got, want) {
		t.Errorf("PresetKeys() = %v, want %v", got, want)
	}
	if len(ListPresets()) != 3 {
		t.Errorf("ListPresets() returned %d presets", len(ListPresets()))
	}
	if GetPreset("missing") != nil {
		t.Error("GetPreset() should return nil for unknown keys")
	}

	platformer := GetPreset("platformer")
	if platformer == nil || platformer.Name != "Platformer" {
		t.Fatalf("GetPreset(platformer) = %+v", platformer)
	}
}

func TestApplyPreset(t *testing.T) {
	tests := []struct {
		key        string
		groups     []string
		rules      int
		lines      int
		depth      uint
		shouldFail bool
	}{
		{key: "platformer", groups: []string{"players", "platforms", "pickups"}, rules: 2, lines: 1, depth: 5},
		{key: "arena", groups: []string{"bodies"}, rules: 1, lines: 4, depth: 4},
		{key: "stress", groups: []string{"bodies", "walls"}, rules: 2, lines: 0, depth: 8},
		{key: "unknown", shouldFail: true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Inspector.Port = 7777

			err := ApplyPreset(cfg, tt.key)
			if tt.shouldFail {
				if err == nil {
					t.Error("Expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyPreset failed: %v", err)
			}

			if got := cfg.GroupNames(); !reflect.DeepEqual(got, tt.groups) {
				t.Errorf("groups = %v, want %v", got, tt.groups)
			}
			if len(cfg.Rules) != tt.rules || len(cfg.Lines) != tt.lines {
				t.Errorf("rules/lines = %d/%d, want %d/%d", len(cfg.Rules), len(cfg.Lines), tt.rules, tt.lines)
			}
			if cfg.World.Depth != tt.depth {
				t.Errorf("depth = %d, want %d", cfg.World.Depth, tt.depth)
			}
			if cfg.Inspector.Port != 7777 {
				t.Error("ApplyPreset must not touch inspector settings")
			}
		})
	}
}

func TestApplyPreset_DoesNotAliasRegistry(t *testing.T) {
	cfg := DefaultConfig()
	if err := ApplyPreset(cfg, "arena"); err != nil {
		t.Fatalf("ApplyPreset failed: %v", err)
	}
	cfg.Groups[0].Name = "changed"
	cfg.Lines[0].Groups[0] = "changed"

	arena := GetPreset("arena")
	if arena.Groups[0].Name != "bodies" || arena.Lines[0].Groups[0] != "bodies" {
		t.Error("mutating an applied preset changed the registry")
	}
}
