package control

import (
	"errors"
	"fmt"
)

var ErrUnknownParam = errors.New("control: unknown parameter")

// Gains are the proportional, integral and derivative coefficients.
type Gains struct {
	Kp float64 `json:"kp" yaml:"kp"`
	Ki float64 `json:"ki" yaml:"ki"`
	Kd float64 `json:"kd" yaml:"kd"`
}

// Get returns the gain called name (Kp, Ki or Kd), or 0 for any other name.
func (g Gains) Get(name string) float64 {
	switch name {
	case "Kp":
		return g.Kp
	case "Ki":
		return g.Ki
	case "Kd":
		return g.Kd
	}
	return 0
}

// Terms are the individual contributions of the last Update.
type Terms struct {
	P, I, D float64
}

// PID is a discrete PID controller. The integral grows without bound unless
// IntegralLimit is positive, and the output is never saturated.
type PID struct {
	Kp float64
	Ki float64
	Kd float64

	// IntegralLimit clamps the accumulated error to ±IntegralLimit when > 0.
	IntegralLimit float64

	integral float64
	prevErr  float64
	last     Terms
}

func NewPID(kp, ki, kd float64) *PID {
	return &PID{
		Kp: kp,
		Ki: ki,
		Kd: kd,
	}
}

// Update computes the control action for one tick. The caller guarantees
// dt > 0; the derivative divides by it.
func (p *PID) Update(target, current, dt float64) float64 {
	err := target - current

	p.integral += err * dt
	if p.IntegralLimit > 0 {
		if p.integral > p.IntegralLimit {
			p.integral = p.IntegralLimit
		} else if p.integral < -p.IntegralLimit {
			p.integral = -p.IntegralLimit
		}
	}

	derivative := (err - p.prevErr) / dt
	p.prevErr = err

	p.last = Terms{
		P: p.Kp * err,
		I: p.Ki * p.integral,
		D: p.Kd * derivative,
	}
	return p.last.P + p.last.I + p.last.D
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.last = Terms{}
}

func (p *PID) Gains() Gains {
	return Gains{Kp: p.Kp, Ki: p.Ki, Kd: p.Kd}
}

func (p *PID) SetGains(g Gains) {
	p.Kp, p.Ki, p.Kd = g.Kp, g.Ki, g.Kd
}

func (p *PID) Integral() float64  { return p.integral }
func (p *PID) PrevError() float64 { return p.prevErr }
func (p *PID) Terms() Terms       { return p.last }

// GetParams returns tunable parameters for live adjustment
func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp": p.Kp,
		"Ki": p.Ki,
		"Kd": p.Kd,
	}
}

// SetParam adjusts a PID parameter
func (p *PID) SetParam(name string, value float64) error {
	switch name {
	case "Kp":
		p.Kp = value
	case "Ki":
		p.Ki = value
	case "Kd":
		p.Kd = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownParam, name)
	}
	return nil
}
