package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/san-kum/ripple/internal/config"
)

func parsed(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	flagCfg = config.DefaultConfig()
	cmd := &cobra.Command{Use: "test"}
	addSimFlags(cmd.Flags())
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatal(err)
	}
	return cmd
}

func TestResolvePrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ripple.yaml")
	if err := os.WriteFile(path, []byte("water:\n  depth: 3\nlight:\n  sun: 0.5\n"), 0644); err != nil {
		t.Fatal(err)
	}
	preset, configFile = "deep", path
	defer func() { preset, configFile = "", "" }()

	cfg, err := resolveConfig(parsed(t, "--depth", "4"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Water.Depth != 4 {
		t.Errorf("flag should win, got depth %f", cfg.Water.Depth)
	}
	if cfg.Light.Sun != 0.5 {
		t.Errorf("file should override preset, got sun %f", cfg.Light.Sun)
	}
	if cfg.Light.Ambient != config.GetPreset("deep").Light.Ambient {
		t.Errorf("preset ambient lost, got %f", cfg.Light.Ambient)
	}
	if cfg.Water.Dt != config.DefaultDt {
		t.Errorf("default dt lost, got %f", cfg.Water.Dt)
	}
}

func TestResolveRejects(t *testing.T) {
	tests := []struct {
		name   string
		preset string
		args   []string
	}{
		{"unknown preset", "tsunami", nil},
		{"invalid flag value", "", []string{"--refraction", "0.5"}},
		{"unknown backend", "", []string{"--backend", "vulkan"}},
	}

	for _, tt := range tests {
		preset = tt.preset
		if _, err := resolveConfig(parsed(t, tt.args...)); err == nil {
			t.Errorf("%s: expected an error", tt.name)
		}
	}
	preset = ""
}

func TestEveryFlagHasOverride(t *testing.T) {
	cmd := parsed(t)
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if _, ok := overrides[f.Name]; !ok {
			t.Errorf("flag %s is never applied", f.Name)
		}
	})
}

func TestSetupLogger(t *testing.T) {
	for _, format := range []string{"text", "json"} {
		if err := setupLogger(format, true); err != nil {
			t.Errorf("%s: %v", format, err)
		}
	}
	if err := setupLogger("xml", false); err == nil {
		t.Error("expected error for unknown format")
	}
}
