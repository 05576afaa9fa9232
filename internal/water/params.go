package water

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/san-kum/ripple/internal/compute"
	"github.com/san-kum/ripple/internal/config"
)

// Params are the simulation and shading constants fixed for a run.
type Params struct {
	Damping     float32
	Dt          float32
	MouseRadius float32
	Refraction  float32
	Dispersion  float32
	Depth       float32

	Reflection float32
	SkyHeight  float32
	Ambient    float32
	Caustics   float32
	Sun        float32
	SunX       float32
	SunY       float32

	StepsPerFrame int
	MinForce      float32
	MaxForce      float32

	// Strict turns device errors into frame errors instead of warnings.
	Strict bool
}

func ParamsFromConfig(cfg *config.Config) Params {
	return Params{
		Damping:       float32(cfg.Water.Damping),
		Dt:            float32(cfg.Water.Dt),
		MouseRadius:   float32(cfg.Water.MouseRadius),
		Refraction:    float32(cfg.Water.Refraction),
		Dispersion:    float32(cfg.Water.Dispersion),
		Depth:         float32(cfg.Water.Depth),
		Reflection:    float32(cfg.Light.Reflection),
		SkyHeight:     float32(cfg.Light.SkyHeight),
		Ambient:       float32(cfg.Light.Ambient),
		Caustics:      float32(cfg.Light.Caustics),
		Sun:           float32(cfg.Light.Sun),
		SunX:          float32(cfg.Light.SunX),
		SunY:          float32(cfg.Light.SunY),
		StepsPerFrame: cfg.StepsPerFrame,
		MinForce:      float32(cfg.Input.MinForce),
		MaxForce:      float32(cfg.Input.MaxForce),
		Strict:        cfg.Strict,
	}
}

// DefaultParams is ParamsFromConfig of the default configuration.
func DefaultParams() Params {
	return ParamsFromConfig(config.DefaultConfig())
}

// SunDir is the unit light direction.
func (p Params) SunDir() mgl32.Vec3 {
	return mgl32.Vec3{p.SunX, p.SunY, 1}.Normalize()
}

// apply pushes every constant into the program that reads it.
func (p Params) apply(dev compute.Device, progs programs) {
	dev.SetFloat(progs.accel, "damping", p.Damping)
	dev.SetFloat(progs.verlet, "dt", p.Dt)
	dev.SetFloat(progs.mouse, "mouse_rad", p.MouseRadius)

	dev.SetFloat(progs.photon, "depth", p.Depth)
	dev.SetFloat(progs.photon, "eta", p.Refraction)
	// spread over the five caustic bands
	dev.SetFloat(progs.photon, "dispersion", p.Dispersion/bands)

	dev.SetFloat(progs.render, "water_refraction_depth", p.Depth)
	dev.SetFloat(progs.render, "water_refraction", p.Refraction)
	dev.SetFloat(progs.render, "dispersion", p.Dispersion)
	dev.SetFloat(progs.render, "reflection_height", p.SkyHeight)
	dev.SetFloat(progs.render, "reflection_strength", p.Reflection)
	dev.SetFloat(progs.render, "sun_strength", p.Sun)
	dev.SetFloat(progs.render, "photon_strength", p.Caustics)
	dev.SetFloat(progs.render, "ambient", p.Ambient)
	sun := p.SunDir()
	dev.SetVec3(progs.render, "sun_dir", sun.X(), sun.Y(), sun.Z())
}
