package sim

import (
	"github.com/san-kum/axisctl/internal/dynamo"
)

// Plant is the physical side of the loop: an ODE plus the torque sensor
// and PWM driver it is measured and driven through.
type Plant interface {
	dynamo.System
	Torque(x dynamo.State, u dynamo.Control) float64
	Duty(u dynamo.Control) float64
	Saturated(u dynamo.Control) bool
}

type Config struct {
	Ticks           int
	Seed            int64
	PositionNoise   float64
	TorqueNoise     float64
	DivergenceBound float64
}

// Transition records a mode change and what caused it.
type Transition struct {
	Time  float64 `json:"time"`
	From  string  `json:"from"`
	To    string  `json:"to"`
	Cause string  `json:"cause"`
}

type Result struct {
	Axis        string
	Samples     []dynamo.Sample
	Metrics     map[string]float64
	Transitions []Transition
	Rejected    int
	StepsTaken  int
	FinalState  dynamo.State
}
