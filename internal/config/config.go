package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultWidth          = 1024
	DefaultHeight         = 512
	DefaultDamping        = 2e-3
	DefaultDt             = 0.6
	DefaultMouseRadius    = 50
	DefaultRefraction     = 1.33
	DefaultDispersion     = 0.06
	DefaultDepth          = 2.0
	DefaultReflection     = 0.3
	DefaultSkyHeight      = 20
	DefaultAmbient        = 0.5
	DefaultCaustics       = 0.2
	DefaultSun            = 0.1
	DefaultSunX           = 0.2
	DefaultSunY           = 0.1
	DefaultStepsPerFrame  = 6
	DefaultRedrawInterval = 6 * time.Millisecond
	DefaultMinForce       = 0.05
	DefaultMaxForce       = 0.2
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid value")

// Config is the full set of run options. It is read once at startup and
// not changed while the simulation runs.
type Config struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	Sky   string `yaml:"sky"`
	Floor string `yaml:"floor"`

	Water WaterConfig `yaml:"water"`
	Light LightConfig `yaml:"light"`
	Input InputConfig `yaml:"input"`

	StepsPerFrame  int           `yaml:"steps_per_frame"`
	RedrawInterval time.Duration `yaml:"redraw_interval"`
	Backend        string        `yaml:"backend"`
	Strict         bool          `yaml:"strict"`
	Vsync          bool          `yaml:"vsync"`
	FPS            bool          `yaml:"fps"`
}

type WaterConfig struct {
	Damping     float64 `yaml:"damping"`
	Dt          float64 `yaml:"dt"`
	MouseRadius float64 `yaml:"mouse_radius"`
	Refraction  float64 `yaml:"refraction"`
	Dispersion  float64 `yaml:"dispersion"`
	Depth       float64 `yaml:"depth"`
}

type LightConfig struct {
	Reflection float64 `yaml:"reflection"`
	SkyHeight  float64 `yaml:"sky_height"`
	Ambient    float64 `yaml:"ambient"`
	Caustics   float64 `yaml:"caustics"`
	Sun        float64 `yaml:"sun"`
	SunX       float64 `yaml:"sun_x"`
	SunY       float64 `yaml:"sun_y"`
}

type InputConfig struct {
	MinForce float64 `yaml:"min_force"`
	MaxForce float64 `yaml:"max_force"`
}

func DefaultConfig() *Config {
	return &Config{
		Width:  DefaultWidth,
		Height: DefaultHeight,
		Sky:    "sky.jpg",
		Floor:  "floor.jpg",
		Water: WaterConfig{
			Damping:     DefaultDamping,
			Dt:          DefaultDt,
			MouseRadius: DefaultMouseRadius,
			Refraction:  DefaultRefraction,
			Dispersion:  DefaultDispersion,
			Depth:       DefaultDepth,
		},
		Light: LightConfig{
			Reflection: DefaultReflection,
			SkyHeight:  DefaultSkyHeight,
			Ambient:    DefaultAmbient,
			Caustics:   DefaultCaustics,
			Sun:        DefaultSun,
			SunX:       DefaultSunX,
			SunY:       DefaultSunY,
		},
		Input: InputConfig{
			MinForce: DefaultMinForce,
			MaxForce: DefaultMaxForce,
		},
		StepsPerFrame:  DefaultStepsPerFrame,
		RedrawInterval: DefaultRedrawInterval,
		Backend:        "opengl",
		Strict:         true,
		Vsync:          true,
	}
}

// Load reads a YAML file over the defaults; keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := LoadInto(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadInto reads a YAML file over cfg, so a file can refine a preset.
func LoadInto(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate rejects settings the simulation cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, invalid("grid size %dx%d must be positive", c.Width, c.Height))
	}
	if c.Water.Dt <= 0 {
		errs = append(errs, invalid("dt must be positive, got %g", c.Water.Dt))
	}
	if c.Water.Damping < 0 {
		errs = append(errs, invalid("damping must not be negative, got %g", c.Water.Damping))
	}
	if c.Water.MouseRadius <= 0 {
		errs = append(errs, invalid("mouse_radius must be positive, got %g", c.Water.MouseRadius))
	}
	if c.Water.Refraction < 1 {
		errs = append(errs, invalid("refraction index must be at least 1, got %g", c.Water.Refraction))
	}
	if c.Water.Depth < 0 {
		errs = append(errs, invalid("depth must not be negative, got %g", c.Water.Depth))
	}
	if c.StepsPerFrame <= 0 {
		errs = append(errs, invalid("steps_per_frame must be positive, got %d", c.StepsPerFrame))
	}
	if c.RedrawInterval <= 0 {
		errs = append(errs, invalid("redraw_interval must be positive, got %v", c.RedrawInterval))
	}
	if c.Input.MinForce < 0 || c.Input.MinForce > c.Input.MaxForce {
		errs = append(errs, invalid("forces need 0 <= min_force <= max_force, got %g and %g", c.Input.MinForce, c.Input.MaxForce))
	}
	switch c.Backend {
	case "opengl", "cpu":
	default:
		errs = append(errs, invalid("unknown backend %q", c.Backend))
	}
	return errors.Join(errs...)
}
