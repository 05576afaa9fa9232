package config

import "sort"

// Preset adjusts a default configuration towards a named look.
type Preset func(*Config)

var Presets = map[string]Preset{
	"calm": func(c *Config) {
		c.Water.Damping = 5e-3
		c.Input.MaxForce = 0.1
		c.Light.Caustics = 0.15
	},
	"storm": func(c *Config) {
		c.Water.Damping = 5e-4
		c.Water.MouseRadius = 80
		c.Input.MinForce = 0.1
		c.Input.MaxForce = 0.5
		c.Light.Reflection = 0.5
		c.Light.Ambient = 0.35
	},
	"glass": func(c *Config) {
		c.Water.Dispersion = 0.15
		c.Light.Caustics = 0.35
		c.Light.Sun = 0.3
	},
	"deep": func(c *Config) {
		c.Water.Depth = 6
		c.Light.Ambient = 0.3
		c.Light.Caustics = 0.1
	},
}

// GetPreset returns the defaults with the named preset applied, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	p(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
