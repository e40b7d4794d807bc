package metrics

import (
	"math"

	"github.com/san-kum/dronesim/internal/sim"
)

// TrackingError is the RMS distance between the body and its target.
type TrackingError struct {
	name    string
	sumSq   float64
	samples int
}

func NewTrackingError() *TrackingError {
	return &TrackingError{
		name: "tracking_error",
	}
}

func (e *TrackingError) Name() string { return e.name }

func (e *TrackingError) Observe(s sim.Snapshot) {
	d := s.Body.Position.Distance(s.Target)
	e.sumSq += d * d
	e.samples++
}

func (e *TrackingError) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return math.Sqrt(e.sumSq / float64(e.samples))
}

func (e *TrackingError) Reset() {
	e.sumSq = 0
	e.samples = 0
}
