// Package viz is the live terminal monitor for one axis.
//
// The view steps a sim.Runner in real time, draws the link on a Braille
// dial with the reference marked on the rim, and plots reference against
// position with asciigraph. Keys change the control mode, issue position
// steps and velocity jogs, and tune the plant through its Configurable
// parameters.
package viz
