// Package sim wires the controllers and the body into the fixed-step control
// loop.
//
// Each [Loop.Tick] reads the target and body state, runs the X, Y and
// orientation PIDs (the orientation setpoint is always zero), mixes lift and
// orientation correction into a left and right thrust with [Mix], applies
// both forces at their lateral offsets and integrates the body by dt.
//
// # Example
//
//	body, _ := physics.NewBody(physics.Vec2{X: 200, Y: 300}, physics.DefaultParams())
//	loop, err := sim.New(body,
//		control.NewPID(0.5, 0.1, 0.05),
//		control.NewPID(1.0, 0.2, 0.1),
//		control.NewPID(50, 0.5, 5),
//		physics.Vec2{X: 200, Y: 100}, sim.DefaultConfig())
//	snap := loop.Tick()
//
// A non-positive dt is rejected by [New]; it is never checked per tick.
//
// # Thread Safety
//
// A [Loop] may be ticked by [Run] on one goroutine while other goroutines
// call [Loop.SetTarget] or [Loop.SetGains]; the writes are totally ordered
// with respect to ticks.
package sim
