package dynamo

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// MaxAbs returns the largest absolute component.
func (s State) MaxAbs() float64 {
	m := 0.0
	for _, v := range s {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}

type Control []float64

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Hamiltonian interface {
	Energy(x State) float64
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

// Configurable is implemented by anything tunable at runtime.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnTick(s Sample)
}

// Sample is one control tick as seen from outside the controller.
type Sample struct {
	Time              float64 `json:"t"`
	Position          float64 `json:"position"`
	Velocity          float64 `json:"velocity"`
	Torque            float64 `json:"torque"`
	PositionReference float64 `json:"position_ref"`
	VelocityReference float64 `json:"velocity_ref"`
	PWM               float64 `json:"pwm"`
	Mode              string  `json:"mode"`
	Saturated         bool    `json:"saturated,omitempty"`
}
