package water

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/san-kum/ripple/internal/compute"
)

var (
	skySampler   = compute.Sampler{Filter: compute.Linear, Wrap: compute.ClampToEdge}
	floorSampler = compute.Sampler{Filter: compute.Linear, Wrap: compute.MirroredRepeat}
)

// State owns the simulation fields and background textures. All dynamic
// fields share the grid size fixed at construction.
type State struct {
	Width  int
	Height int

	Pos    compute.Field
	Vel    compute.Field
	Acc    compute.Field
	Normal compute.Field
	Photon compute.Field

	Sky   compute.Field
	Floor compute.Field

	dev compute.Device
}

// NewState allocates flat, still water on dev.
func NewState(dev compute.Device, width, height int) (*State, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrGridSize, width, height)
	}
	s := &State{Width: width, Height: height, dev: dev}

	fields := []struct {
		dst    *compute.Field
		format compute.Format
		label  string
	}{
		{&s.Pos, compute.R32F, "pos"},
		{&s.Vel, compute.R32F, "vel"},
		{&s.Acc, compute.R32F, "acc"},
		{&s.Normal, compute.RGBA32F, "normal"},
		{&s.Photon, compute.RGBA8UI, "photon"},
	}
	for _, f := range fields {
		field, err := dev.CreateField(width, height, f.format)
		if err != nil {
			return nil, fmt.Errorf("allocating %s: %w", f.label, err)
		}
		field.Label = f.label
		*f.dst = field
	}

	// the render pass filters normals between cells
	if err := dev.SetSampler(s.Normal, skySampler); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadBackground loads the sky and floor textures. An empty path selects a
// generated texture; a path that cannot be read is an error.
func (s *State) LoadBackground(skyPath, floorPath string) error {
	sky, err := s.loadTexture(skyPath, skySampler, skyImage)
	if err != nil {
		return fmt.Errorf("%w: sky: %w", ErrBackground, err)
	}
	floor, err := s.loadTexture(floorPath, floorSampler, floorImage)
	if err != nil {
		return fmt.Errorf("%w: floor: %w", ErrBackground, err)
	}
	sky.Label, floor.Label = "sky", "floor"
	s.Sky, s.Floor = sky, floor
	return nil
}

func (s *State) loadTexture(path string, sampler compute.Sampler, generate func(w, h int) image.Image) (compute.Field, error) {
	if path == "" {
		return s.dev.ImageField(generate(s.Width, s.Height), sampler)
	}
	return s.dev.LoadImage(path, sampler)
}

// Heights returns a copy of pos, row-major.
func (s *State) Heights() ([]float32, error) {
	return s.dev.ReadFloats(s.Pos)
}

// Velocities returns a copy of vel, row-major.
func (s *State) Velocities() ([]float32, error) {
	return s.dev.ReadFloats(s.Vel)
}

// Photons returns a copy of photon, four channels per cell.
func (s *State) Photons() ([]float32, error) {
	return s.dev.ReadFloats(s.Photon)
}

func (s *State) Normals() ([]float32, error) {
	return s.dev.ReadFloats(s.Normal)
}

// skyImage is a soft horizon gradient with a band of cloud.
func skyImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		t := float64(y) / float64(max(h-1, 1))
		for x := 0; x < w; x++ {
			cloud := 0.5 + 0.5*math.Sin(float64(x)*0.05+math.Sin(float64(y)*0.11)*2)
			cloud *= math.Exp(-math.Pow((t-0.35)*5, 2))
			img.Set(x, y, color.RGBA{
				R: shade(0.35 + 0.45*t + 0.3*cloud),
				G: shade(0.55 + 0.35*t + 0.3*cloud),
				B: shade(0.9 + 0.1*t),
				A: 255,
			})
		}
	}
	return img
}

// floorImage is a tiled sandy floor.
func floorImage(w, h int) image.Image {
	const tile = 32
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			k := 0.0
			if (x/tile+y/tile)%2 == 0 {
				k = 0.08
			}
			if x%tile == 0 || y%tile == 0 {
				k -= 0.15
			}
			img.Set(x, y, color.RGBA{R: shade(0.76 + k), G: shade(0.68 + k), B: shade(0.5 + k), A: 255})
		}
	}
	return img
}

func shade(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}
