package metrics

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/ripple/internal/compute"
	"github.com/san-kum/ripple/internal/water"
)

func TestFieldEnergy(t *testing.T) {
	pos := []float32{0, 1, 0, 0}
	vel := []float32{0, 0, 2, 0}

	// two unit height steps around cell 1, and 0.5*2^2 kinetic
	got := FieldEnergy(pos, vel, 2, 2)
	if math.Abs(got-3) > 1e-9 {
		t.Errorf("expected energy 3, got %f", got)
	}
}

func TestEnergyDrift(t *testing.T) {
	m := NewEnergyDrift()

	m.Observe(Sample{Width: 2, Height: 1, Pos: []float32{0, 1}, Vel: []float32{0, 0}})
	m.Observe(Sample{Width: 2, Height: 1, Pos: []float32{0, 0.5}, Vel: []float32{0, 0}})
	if m.Value() != 0 {
		t.Errorf("decaying energy should not drift, got %f", m.Value())
	}

	m.Observe(Sample{Width: 2, Height: 1, Pos: []float32{0, 2}, Vel: []float32{0, 0}})
	if math.Abs(m.Value()-3) > 1e-9 {
		t.Errorf("expected drift 3, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero drift after reset")
	}
}

func TestStability(t *testing.T) {
	m := NewStability(10)
	m.Observe(Sample{Pos: []float32{1, -2}, Vel: []float32{0, 0}})
	m.Observe(Sample{Pos: []float32{float32(math.NaN()), 0}, Vel: []float32{0, 0}})
	m.Observe(Sample{Pos: []float32{11, 0}, Vel: []float32{0, 0}})
	m.Observe(Sample{Pos: []float32{0, 0}, Vel: []float32{float32(math.Inf(1)), 0}})

	if got := m.Value(); got != 0.25 {
		t.Errorf("expected stability 0.25, got %f", got)
	}
}

func TestPhotonMean(t *testing.T) {
	m := NewPhotonMean()
	m.Observe(Sample{Photon: []float32{3, 4, 3, 0, 5, 7, 5, 99}})
	if got := m.Value(); math.Abs(got-4.5) > 1e-9 {
		t.Errorf("expected mean 4.5 ignoring alpha, got %f", got)
	}
}

func TestRecorder(t *testing.T) {
	dev := compute.NewCPUBackend(water.Kernels())
	st, err := water.NewState(dev, 16, 16)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.LoadBackground("", ""); err != nil {
		t.Fatal(err)
	}
	sim, err := water.New(dev, st, water.DefaultParams())
	if err != nil {
		t.Fatal(err)
	}

	rec := NewRecorder(2, NewEnergy(), NewHeight(), NewPhotonMean())
	sim.AddObserver(rec)
	sim.Interaction().PointerEnter()
	sim.Interaction().PointerMove(8, 8)
	sim.Interaction().ButtonDown(water.ButtonPrimary)

	if err := sim.Run(context.Background(), 6); err != nil {
		t.Fatal(err)
	}
	if err := rec.Err(); err != nil {
		t.Fatal(err)
	}

	if got := rec.Frames(); len(got) != 3 || got[0] != 2 || got[2] != 6 {
		t.Errorf("expected samples at frames 2, 4, 6, got %v", got)
	}
	heights := rec.Series("abs_height")
	if len(heights) != 3 || heights[0] <= 0 {
		t.Errorf("expected a disturbed surface, got %v", heights)
	}
	if photons := rec.Series("photon_mean"); len(photons) != 3 || photons[0] <= 0 {
		t.Errorf("expected caustic light, got %v", photons)
	}
}
