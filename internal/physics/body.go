package physics

import (
	"errors"
	"fmt"
	"math"
)

const (
	DefaultMass    = 1.0
	DefaultInertia = 1.0
	DefaultGravity = 9.81
)

var (
	ErrNonPositiveMass    = errors.New("physics: mass must be positive")
	ErrNonPositiveInertia = errors.New("physics: inertia must be positive")
)

// Params are the physical constants of a body.
type Params struct {
	Mass    float64 `json:"mass" yaml:"mass"`
	Inertia float64 `json:"inertia" yaml:"inertia"`
	Gravity float64 `json:"gravity" yaml:"gravity"`
}

func DefaultParams() Params {
	return Params{
		Mass:    DefaultMass,
		Inertia: DefaultInertia,
		Gravity: DefaultGravity,
	}
}

// Validate checks the mass > 0 and inertia > 0 invariants.
func (p Params) Validate() error {
	if !(p.Mass > 0) {
		return fmt.Errorf("%w, got %g", ErrNonPositiveMass, p.Mass)
	}
	if !(p.Inertia > 0) {
		return fmt.Errorf("%w, got %g", ErrNonPositiveInertia, p.Inertia)
	}
	return nil
}

// BodyState is a copy of the kinematic state of a Body.
type BodyState struct {
	Position        Vec2    `json:"position"`
	Velocity        Vec2    `json:"velocity"`
	Angle           float64 `json:"angle"`
	AngularVelocity float64 `json:"angular_velocity"`
}

// IsValid reports whether every component is finite.
func (s BodyState) IsValid() bool {
	if !s.Position.IsFinite() || !s.Velocity.IsFinite() {
		return false
	}
	for _, v := range []float64{s.Angle, s.AngularVelocity} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Body is a planar rigid body. Angle is in radians and is never wrapped.
type Body struct {
	Position        Vec2
	Velocity        Vec2
	Angle           float64
	AngularVelocity float64

	Mass    float64
	Inertia float64
	Gravity float64
}

// NewBody places a body at rest at pos.
func NewBody(pos Vec2, p Params) (*Body, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Body{
		Position: pos,
		Mass:     p.Mass,
		Inertia:  p.Inertia,
		Gravity:  p.Gravity,
	}, nil
}

// ApplyForce adds a force impulse to the velocity. Gravity acts as a constant
// downward force that fy counteracts; a force applied at offsetX from the
// centre of mass also spins the body by fy*offsetX/inertia.
func (b *Body) ApplyForce(fx, fy, offsetX float64) {
	b.Velocity.X += fx / b.Mass
	b.Velocity.Y += (fy - b.Mass*b.Gravity) / b.Mass
	b.AngularVelocity += fy * offsetX / b.Inertia
}

func (b *Body) ApplyTorque(torque float64) {
	b.AngularVelocity += torque / b.Inertia
}

// Update advances position and angle by one forward Euler step. Velocities
// are left as they are. dt must be positive.
func (b *Body) Update(dt float64) {
	b.Position.X += b.Velocity.X * dt
	b.Position.Y += b.Velocity.Y * dt
	b.Angle += b.AngularVelocity * dt
}

func (b *Body) State() BodyState {
	return BodyState{
		Position:        b.Position,
		Velocity:        b.Velocity,
		Angle:           b.Angle,
		AngularVelocity: b.AngularVelocity,
	}
}

func (b *Body) Params() Params {
	return Params{Mass: b.Mass, Inertia: b.Inertia, Gravity: b.Gravity}
}

// HoverThrust is the total vertical force that cancels gravity.
func (b *Body) HoverThrust() float64 {
	return b.Mass * b.Gravity
}

func (b *Body) Energy() float64 {
	vx, vy, omega := b.Velocity.X, b.Velocity.Y, b.AngularVelocity
	ke := 0.5 * b.Mass * (vx*vx + vy*vy)
	keRot := 0.5 * b.Inertia * omega * omega
	pe := b.Mass * b.Gravity * b.Position.Y
	return ke + keRot + pe
}
