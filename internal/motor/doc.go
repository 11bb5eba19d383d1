// Package motor implements the per-axis control core: a mode state machine
// that turns sensed position and torque plus externally issued references
// into one PWM command per control tick.
//
// An [AxisController] owns a position PID, a torque PID and a trajectory
// generator. A single driver calls, in order each tick:
//
//	ctrl.ReadPosition(enc)
//	ctrl.ReadTorque(tq)
//	// reference setters, as commands arrive
//	pwm := ctrl.ComputePWM()
//
// # Modes
//
//   - Idle: output 0, references rejected
//   - Position: trajectory-tracked position loop
//   - Velocity: ramped velocity integrated into a position reference,
//     reverting to Position after the velocity timeout
//   - Torque: torque loop, references rejected
//   - ImpedancePosition, ImpedanceVelocity: accept references but have no
//     PWM law yet and output 0
//   - OpenLoop: output 0, references rejected
//
// Nothing here returns an error or blocks. Rejected commands are reported
// by a false return or ignored, and out-of-range values are clamped.
//
// # Thread Safety
//
// An AxisController is NOT safe for concurrent use. Each axis must be
// ticked by exactly one goroutine; separate axes may run in parallel.
package motor
