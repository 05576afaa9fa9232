package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/san-kum/ripple/internal/config"
)

var (
	configFile string
	preset     string
	logFormat  string
	verbose    bool
	workers    int

	// flagCfg receives flag values; only flags the user set are copied
	// onto the resolved configuration.
	flagCfg = config.DefaultConfig()
)

// overrides copies one flag's value from src to dst.
var overrides = map[string]func(dst, src *config.Config){
	"width":           func(d, s *config.Config) { d.Width = s.Width },
	"height":          func(d, s *config.Config) { d.Height = s.Height },
	"sky":             func(d, s *config.Config) { d.Sky = s.Sky },
	"floor":           func(d, s *config.Config) { d.Floor = s.Floor },
	"damping":         func(d, s *config.Config) { d.Water.Damping = s.Water.Damping },
	"dt":              func(d, s *config.Config) { d.Water.Dt = s.Water.Dt },
	"mouse-radius":    func(d, s *config.Config) { d.Water.MouseRadius = s.Water.MouseRadius },
	"refraction":      func(d, s *config.Config) { d.Water.Refraction = s.Water.Refraction },
	"dispersion":      func(d, s *config.Config) { d.Water.Dispersion = s.Water.Dispersion },
	"depth":           func(d, s *config.Config) { d.Water.Depth = s.Water.Depth },
	"reflection":      func(d, s *config.Config) { d.Light.Reflection = s.Light.Reflection },
	"sky-height":      func(d, s *config.Config) { d.Light.SkyHeight = s.Light.SkyHeight },
	"ambient":         func(d, s *config.Config) { d.Light.Ambient = s.Light.Ambient },
	"caustics":        func(d, s *config.Config) { d.Light.Caustics = s.Light.Caustics },
	"sun":             func(d, s *config.Config) { d.Light.Sun = s.Light.Sun },
	"sun-x":           func(d, s *config.Config) { d.Light.SunX = s.Light.SunX },
	"sun-y":           func(d, s *config.Config) { d.Light.SunY = s.Light.SunY },
	"min-force":       func(d, s *config.Config) { d.Input.MinForce = s.Input.MinForce },
	"max-force":       func(d, s *config.Config) { d.Input.MaxForce = s.Input.MaxForce },
	"steps":           func(d, s *config.Config) { d.StepsPerFrame = s.StepsPerFrame },
	"redraw-interval": func(d, s *config.Config) { d.RedrawInterval = s.RedrawInterval },
	"backend":         func(d, s *config.Config) { d.Backend = s.Backend },
	"strict":          func(d, s *config.Config) { d.Strict = s.Strict },
	"vsync":           func(d, s *config.Config) { d.Vsync = s.Vsync },
	"fps":             func(d, s *config.Config) { d.FPS = s.FPS },
}

func addSimFlags(fs *pflag.FlagSet) {
	c := flagCfg
	fs.IntVar(&c.Width, "width", c.Width, "grid and window width")
	fs.IntVar(&c.Height, "height", c.Height, "grid and window height")
	fs.StringVar(&c.Sky, "sky", c.Sky, "sky image")
	fs.StringVar(&c.Floor, "floor", c.Floor, "floor image")
	fs.Float64Var(&c.Water.Damping, "damping", c.Water.Damping, "velocity damping")
	fs.Float64Var(&c.Water.Dt, "dt", c.Water.Dt, "substep length")
	fs.Float64Var(&c.Water.MouseRadius, "mouse-radius", c.Water.MouseRadius, "pointer force radius in cells")
	fs.Float64Var(&c.Water.Refraction, "refraction", c.Water.Refraction, "refractive index of water")
	fs.Float64Var(&c.Water.Dispersion, "dispersion", c.Water.Dispersion, "chromatic dispersion")
	fs.Float64Var(&c.Water.Depth, "depth", c.Water.Depth, "water depth")
	fs.Float64Var(&c.Light.Reflection, "reflection", c.Light.Reflection, "sky reflection strength")
	fs.Float64Var(&c.Light.SkyHeight, "sky-height", c.Light.SkyHeight, "height of the reflected sky")
	fs.Float64Var(&c.Light.Ambient, "ambient", c.Light.Ambient, "ambient light")
	fs.Float64Var(&c.Light.Caustics, "caustics", c.Light.Caustics, "caustic light strength")
	fs.Float64Var(&c.Light.Sun, "sun", c.Light.Sun, "sun highlight strength")
	fs.Float64Var(&c.Light.SunX, "sun-x", c.Light.SunX, "sun direction x")
	fs.Float64Var(&c.Light.SunY, "sun-y", c.Light.SunY, "sun direction y")
	fs.Float64Var(&c.Input.MinForce, "min-force", c.Input.MinForce, "pointer force while hovering")
	fs.Float64Var(&c.Input.MaxForce, "max-force", c.Input.MaxForce, "pointer force while pressed")
	fs.IntVar(&c.StepsPerFrame, "steps", c.StepsPerFrame, "substeps per frame")
	fs.DurationVar(&c.RedrawInterval, "redraw-interval", c.RedrawInterval, "redraw pacing interval")
	fs.StringVar(&c.Backend, "backend", c.Backend, "compute backend (opengl|cpu)")
	fs.BoolVar(&c.Strict, "strict", c.Strict, "abort on device errors")
	fs.BoolVar(&c.Vsync, "vsync", c.Vsync, "wait for vsync on swap")
	fs.BoolVar(&c.FPS, "fps", c.FPS, "log frames per second")
}

// resolveConfig layers defaults, the preset, the config file and the flags
// the user set, in that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		if err := config.LoadInto(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if apply, ok := overrides[f.Name]; ok {
			apply(cfg, flagCfg)
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// headlessBackground keeps explicitly chosen images and falls back to the
// generated textures when a default image is missing.
func headlessBackground(cmd *cobra.Command, cfg *config.Config) (sky, floor string) {
	pick := func(flag, path string) string {
		if cmd.Flags().Changed(flag) || configFile != "" {
			return path
		}
		if _, err := os.Stat(path); err != nil {
			slog.Debug("using generated texture", "image", flag, "missing", path)
			return ""
		}
		return path
	}
	return pick("sky", cfg.Sky), pick("floor", cfg.Floor)
}

func setupLogger(format string, verbose bool) error {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	var h slog.Handler
	switch format {
	case "text":
		h = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		h = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("unknown log format %q (text|json)", format)
	}
	slog.SetDefault(slog.New(h))
	return nil
}
