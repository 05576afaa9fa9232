package metrics

import "math"

// Stability is the fraction of observed frames whose heights were all finite
// and within threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(sample Sample) {
	s.samples++
	if !Finite(sample.Pos) || !Finite(sample.Vel) {
		s.violations++
		return
	}
	for _, val := range sample.Pos {
		if math.Abs(float64(val)) > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// Finite reports whether every value is neither NaN nor infinite.
func Finite(values []float32) bool {
	for _, v := range values {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
