// Package dynamo provides the simulation primitives the axis simulator is
// built from.
//
// The plant side of a closed-loop run is an ordinary differential
// equation (dX/dt = f(X, u, t)) advanced by a numerical integrator:
//
//   - [State]: vector representing plant state
//   - [System]: interface for plant models
//   - [Integrator]: numerical integrator interface
//   - [Metric]: per-tick observation reduced to a scalar
//   - [Observer]: per-tick callback
//
// The controller side lives in package motor and is not an ODE; it is
// ticked at a fixed period by package sim.
package dynamo
