// Package viz is the interactive terminal front end for the control loop.
//
// [Model] is a Bubble Tea model that ticks a [sim.Loop] once per TickMsg and
// renders the body on a braille [Canvas]: a bar of [BarWidth] world units
// with a flame under each thruster whose length follows the thrust and which
// flips above the bar when the thrust is negative. The target is drawn as a
// ring and can be moved from the keyboard.
//
// # Key Bindings
//
//	Arrows/hjkl - Move the target
//	Tab         - Cycle the controller axis (x, y, orientation)
//	1 2 3       - Select Kp, Ki or Kd
//	+ -         - Scale the selected gain by 5%
//	Space       - Pause/Resume
//	R           - Reset body, target and gains
//	T           - Cycle color themes
//	?           - Show help overlay
package viz
