package metrics

import (
	"math"

	"github.com/san-kum/dronesim/internal/sim"
)

// Stability is the fraction of ticks whose orientation stayed within
// threshold radians of level.
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

func (s *Stability) Observe(snap sim.Snapshot) {
	s.samples++
	if a := snap.Body.Angle; math.IsNaN(a) || math.Abs(a) > s.threshold {
		s.violations++
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
