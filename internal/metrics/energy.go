package metrics

import "math"

// Sample is one frame of host-side field data.
type Sample struct {
	Frame  int
	Width  int
	Height int
	Pos    []float32
	Vel    []float32
	// four channels per cell
	Photon []float32
}

// FieldEnergy is the kinetic energy of vel plus the elastic energy of the
// height differences between horizontal and vertical neighbours.
func FieldEnergy(pos, vel []float32, w, h int) float64 {
	var e float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if i < len(vel) {
				e += 0.5 * float64(vel[i]) * float64(vel[i])
			}
			if x+1 < w {
				d := float64(pos[i+1] - pos[i])
				e += 0.5 * d * d
			}
			if y+1 < h {
				d := float64(pos[i+w] - pos[i])
				e += 0.5 * d * d
			}
		}
	}
	return e
}

// AbsHeight is the total absolute displacement from still water.
func AbsHeight(pos []float32) float64 {
	var sum float64
	for _, p := range pos {
		sum += math.Abs(float64(p))
	}
	return sum
}

type Energy struct {
	name   string
	energy float64
}

func NewEnergy() *Energy {
	return &Energy{name: "energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(s Sample) {
	if len(s.Pos) < s.Width*s.Height {
		return
	}
	e.energy = FieldEnergy(s.Pos, s.Vel, s.Width, s.Height)
}

func (e *Energy) Value() float64 { return e.energy }

func (e *Energy) Reset() { e.energy = 0 }

// EnergyDrift tracks the largest relative rise of energy over the first
// observed sample. Without interaction it stays at zero.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(s Sample) {
	if len(s.Pos) < s.Width*s.Height {
		return
	}
	energy := FieldEnergy(s.Pos, s.Vel, s.Width, s.Height)
	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := (energy - e.initialEnergy) / e.initialEnergy
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

type Height struct {
	name  string
	total float64
}

func NewHeight() *Height {
	return &Height{name: "abs_height"}
}

func (h *Height) Name() string { return h.name }

func (h *Height) Observe(s Sample) { h.total = AbsHeight(s.Pos) }

func (h *Height) Value() float64 { return h.total }

func (h *Height) Reset() { h.total = 0 }
