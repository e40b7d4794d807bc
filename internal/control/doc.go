// Package control provides the feedback controller that regulates each
// axis of the drone.
//
// A [PID] is bound to one controlled quantity and knows nothing about the
// body it steers. Each call to [PID.Update] is one tick: it consumes the
// caller's dt and mutates the error state exactly once, so calls must come
// in chronological order.
//
//	pid := control.NewPID(1.0, 0.2, 0.1)
//	u := pid.Update(target, measured, dt) // dt > 0
//
// Gains may be changed between ticks through [PID.SetGains] or the named
// [PID.SetParam] used by live tuning.
package control
