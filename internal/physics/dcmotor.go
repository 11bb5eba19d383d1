package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/axisctl/internal/dynamo"
)

const (
	DefaultInertia       = 0.01
	DefaultDamping       = 0.05
	DefaultTorqueConst   = 0.5
	DefaultResistance    = 2.0
	DefaultSupplyVoltage = 24.0
	DefaultPWMMax        = 1000.0
)

// DCMotor is a geared brushed motor driving a rigid joint. The electrical
// pole is taken as instantaneous, so the state is just [θ, ω] and the
// control is the signed PWM duty in [-PWMMax, PWMMax].
type DCMotor struct {
	Inertia     float64 // kg·m² reflected to the joint
	Damping     float64 // viscous friction, N·m·s/rad
	TorqueConst float64 // N·m/A, also the back-EMF constant
	Resistance  float64 // Ω
	Supply      float64 // V at full duty
	PWMMax      float64
	Stiffness   float64 // load spring to ground, N·m/rad
	Gravity     float64 // m·g·L of the link, N·m
}

func NewDCMotor() *DCMotor {
	return &DCMotor{
		Inertia:     DefaultInertia,
		Damping:     DefaultDamping,
		TorqueConst: DefaultTorqueConst,
		Resistance:  DefaultResistance,
		Supply:      DefaultSupplyVoltage,
		PWMMax:      DefaultPWMMax,
	}
}

func (m *DCMotor) StateDim() int   { return 2 }
func (m *DCMotor) ControlDim() int { return 1 }

// Duty clips a raw controller output to the driver's range.
func (m *DCMotor) Duty(u dynamo.Control) float64 {
	if len(u) == 0 {
		return 0
	}
	return math.Max(-m.PWMMax, math.Min(m.PWMMax, u[0]))
}

// Saturated reports whether u is at or beyond the driver limit.
func (m *DCMotor) Saturated(u dynamo.Control) bool {
	return len(u) > 0 && math.Abs(u[0]) >= m.PWMMax
}

// Current returns the armature current for state x under control u.
func (m *DCMotor) Current(x dynamo.State, u dynamo.Control) float64 {
	v := 0.0
	if m.PWMMax > 0 {
		v = m.Duty(u) / m.PWMMax * m.Supply
	}
	return (v - m.TorqueConst*x[1]) / m.Resistance
}

// Torque is what a joint torque sensor between motor and link reads.
func (m *DCMotor) Torque(x dynamo.State, u dynamo.Control) float64 {
	return m.TorqueConst * m.Current(x, u)
}

func (m *DCMotor) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	theta, omega := x[0], x[1]
	load := m.Damping*omega + m.Stiffness*theta + m.Gravity*math.Sin(theta)
	alpha := (m.Torque(x, u) - load) / m.Inertia
	return dynamo.State{omega, alpha}
}

func (m *DCMotor) Energy(x dynamo.State) float64 {
	ke := 0.5 * m.Inertia * x[1] * x[1]
	pe := 0.5*m.Stiffness*x[0]*x[0] + m.Gravity*(1-math.Cos(x[0]))
	return ke + pe
}

func (m *DCMotor) GetParams() map[string]float64 {
	return map[string]float64{
		"inertia":      m.Inertia,
		"damping":      m.Damping,
		"torque_const": m.TorqueConst,
		"resistance":   m.Resistance,
		"supply":       m.Supply,
		"pwm_max":      m.PWMMax,
		"stiffness":    m.Stiffness,
		"gravity":      m.Gravity,
	}
}

func (m *DCMotor) SetParam(name string, value float64) error {
	switch name {
	case "inertia", "resistance", "pwm_max":
		if value <= 0 {
			return fmt.Errorf("%s must be positive: %w", name, dynamo.ErrParameterBounds)
		}
	}
	switch name {
	case "inertia":
		m.Inertia = value
	case "damping":
		m.Damping = value
	case "torque_const":
		m.TorqueConst = value
	case "resistance":
		m.Resistance = value
	case "supply":
		m.Supply = value
	case "pwm_max":
		m.PWMMax = value
	case "stiffness":
		m.Stiffness = value
	case "gravity":
		m.Gravity = value
	default:
		return fmt.Errorf("%s: %w", name, dynamo.ErrUnknownParameter)
	}
	return nil
}
