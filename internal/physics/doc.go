// Package physics provides the planar rigid-body model flown by the simulator.
//
// A [Body] carries position, velocity, orientation and angular velocity
// alongside the constants fixed at construction (mass, moment of inertia,
// gravitational acceleration). Forces and torques change velocities
// directly; [Body.Update] then advances position and angle by one explicit
// Euler step:
//
//	b, _ := physics.NewBody(physics.Vec2{X: 200, Y: 300}, physics.DefaultParams())
//	b.ApplyForce(0, b.Mass*b.Gravity, 0) // exactly cancels gravity
//	b.Update(0.01)
//
// Explicit Euler is deterministic at a fixed step but not unconditionally
// stable; large dt or stiff gains diverge visibly instead of being clamped.
package physics
