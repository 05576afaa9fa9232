package metrics

import (
	"fmt"

	"github.com/san-kum/ripple/internal/water"
)

// Metric accumulates a scalar from field samples.
type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

// Recorder reads the fields back every Every frames, feeds its metrics and
// keeps the history of each value. It is a water.Observer.
type Recorder struct {
	Every   int
	metrics []Metric
	series  map[string][]float64
	frames  []int
	err     error
}

func NewRecorder(every int, metrics ...Metric) *Recorder {
	if every < 1 {
		every = 1
	}
	return &Recorder{
		Every:   every,
		metrics: metrics,
		series:  make(map[string][]float64),
	}
}

func (r *Recorder) OnFrame(frame int, s *water.Sim) {
	if r.err != nil || frame%r.Every != 0 {
		return
	}
	sample, err := Capture(frame, s.State())
	if err != nil {
		r.err = err
		return
	}
	r.Observe(sample)
}

// Observe feeds one sample to every metric and appends the results.
func (r *Recorder) Observe(sample Sample) {
	r.frames = append(r.frames, sample.Frame)
	for _, m := range r.metrics {
		m.Observe(sample)
		r.series[m.Name()] = append(r.series[m.Name()], m.Value())
	}
}

// Series returns the recorded values of the named metric.
func (r *Recorder) Series(name string) []float64 { return r.series[name] }

// Frames returns the frame number of every recorded sample.
func (r *Recorder) Frames() []int { return r.frames }

func (r *Recorder) Metrics() []Metric { return r.metrics }

// Err returns the first readback failure; recording stops after it.
func (r *Recorder) Err() error { return r.err }

func (r *Recorder) Reset() {
	for _, m := range r.metrics {
		m.Reset()
	}
	r.series = make(map[string][]float64)
	r.frames = nil
	r.err = nil
}

// Capture reads the height, velocity and photon fields of st.
func Capture(frame int, st *water.State) (Sample, error) {
	pos, err := st.Heights()
	if err != nil {
		return Sample{}, fmt.Errorf("reading heights: %w", err)
	}
	vel, err := st.Velocities()
	if err != nil {
		return Sample{}, fmt.Errorf("reading velocities: %w", err)
	}
	photon, err := st.Photons()
	if err != nil {
		return Sample{}, fmt.Errorf("reading photons: %w", err)
	}
	return Sample{Frame: frame, Width: st.Width, Height: st.Height, Pos: pos, Vel: vel, Photon: photon}, nil
}
