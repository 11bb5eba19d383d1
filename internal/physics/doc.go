// Package physics provides plant models the axis controller is closed
// around in simulation.
//
// Each model implements [dynamo.System]:
//
//   - [DCMotor]: geared brushed DC motor on a rigid joint, optionally
//     loaded by a spring and a gravity link
//
// Models also implement [dynamo.Configurable] for runtime parameter
// adjustment and [dynamo.Hamiltonian] for mechanical energy.
package physics
