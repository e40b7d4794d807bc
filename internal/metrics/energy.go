package metrics

import (
	"github.com/san-kum/dronesim/internal/physics"
	"github.com/san-kum/dronesim/internal/sim"
)

// Energy is the mean mechanical energy of the body over the run.
type Energy struct {
	name        string
	params      physics.Params
	samples     int
	totalEnergy float64
}

func NewEnergy(p physics.Params) *Energy {
	return &Energy{
		name:   "energy",
		params: p,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(s sim.Snapshot) {
	b := physics.Body{
		Position:        s.Body.Position,
		Velocity:        s.Body.Velocity,
		AngularVelocity: s.Body.AngularVelocity,
		Mass:            e.params.Mass,
		Inertia:         e.params.Inertia,
		Gravity:         e.params.Gravity,
	}
	e.totalEnergy += b.Energy()
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// DefaultStabilityThreshold is the tilt, in radians, counted as unstable.
const DefaultStabilityThreshold = 0.5

// Default returns the metrics attached to every run.
func Default(p physics.Params) []sim.Metric {
	return []sim.Metric{
		NewTrackingError(),
		NewControlEffort(),
		NewStability(DefaultStabilityThreshold),
		NewEnergy(p),
	}
}
