package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Width != 1024 || cfg.Height != 512 {
		t.Errorf("expected 1024x512, got %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Water.Dt != 0.6 {
		t.Errorf("expected dt 0.6, got %f", cfg.Water.Dt)
	}
	if cfg.StepsPerFrame != 6 {
		t.Errorf("expected 6 steps per frame, got %d", cfg.StepsPerFrame)
	}
	if cfg.RedrawInterval != 6*time.Millisecond {
		t.Errorf("expected 6ms redraw interval, got %v", cfg.RedrawInterval)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("deep")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Water.Depth != 6 {
		t.Errorf("expected depth 6, got %f", cfg.Water.Depth)
	}
	if cfg.Width != DefaultWidth {
		t.Errorf("preset should keep default width, got %d", cfg.Width)
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetsValidate(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("expected %d presets, got %d", len(Presets), len(names))
	}
	for i, name := range names {
		if i > 0 && names[i-1] > name {
			t.Errorf("presets not sorted: %v", names)
		}
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero width", func(c *Config) { c.Width = 0 }},
		{"negative height", func(c *Config) { c.Height = -1 }},
		{"zero dt", func(c *Config) { c.Water.Dt = 0 }},
		{"negative damping", func(c *Config) { c.Water.Damping = -0.1 }},
		{"zero radius", func(c *Config) { c.Water.MouseRadius = 0 }},
		{"refraction below one", func(c *Config) { c.Water.Refraction = 0.9 }},
		{"negative depth", func(c *Config) { c.Water.Depth = -1 }},
		{"zero steps", func(c *Config) { c.StepsPerFrame = 0 }},
		{"zero interval", func(c *Config) { c.RedrawInterval = 0 }},
		{"min above max", func(c *Config) { c.Input.MinForce = 0.5 }},
		{"unknown backend", func(c *Config) { c.Backend = "vulkan" }},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.modify(cfg)
		err := cfg.Validate()
		if !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: expected ErrInvalid, got %v", tt.name, err)
		}
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ripple.yaml")

	cfg := DefaultConfig()
	cfg.Water.Damping = 0.01
	cfg.Sky = "clouds.png"
	cfg.RedrawInterval = 10 * time.Millisecond
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Water.Damping != 0.01 {
		t.Errorf("expected damping 0.01, got %f", loaded.Water.Damping)
	}
	if loaded.Sky != "clouds.png" {
		t.Errorf("expected sky clouds.png, got %s", loaded.Sky)
	}
	if loaded.RedrawInterval != 10*time.Millisecond {
		t.Errorf("expected 10ms, got %v", loaded.RedrawInterval)
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("water:\n  depth: 3.5\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Water.Depth != 3.5 {
		t.Errorf("expected depth 3.5, got %f", cfg.Water.Depth)
	}
	if cfg.Water.Dt != DefaultDt {
		t.Errorf("expected default dt, got %f", cfg.Water.Dt)
	}
	if cfg.Width != DefaultWidth {
		t.Errorf("expected default width, got %d", cfg.Width)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadIntoPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "over.yaml")
	if err := os.WriteFile(path, []byte("light:\n  sun: 0.5\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := GetPreset("deep")
	if err := LoadInto(path, cfg); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Light.Sun != 0.5 {
		t.Errorf("expected sun from file, got %f", cfg.Light.Sun)
	}
	if cfg.Water.Depth != 6 {
		t.Errorf("expected preset depth to survive, got %f", cfg.Water.Depth)
	}
}
