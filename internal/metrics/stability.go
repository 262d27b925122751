package metrics

import (
	"math"

	"github.com/san-kum/softbody/internal/model"
)

// Stability is the fraction of observations in which every particle stays
// finite and within threshold of its rest position.
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

func (s *Stability) Observe(m *model.TetModel, t float64) {
	s.samples++
	pd := m.Particles
	for i := 0; i < pd.Size(); i++ {
		d := pd.Position(i).Sub(pd.Position0(i)).Len()
		if math.IsNaN(d) || d > s.threshold {
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
