package motor

import (
	"math"

	"github.com/san-kum/axisctl/internal/pid"
	"github.com/san-kum/axisctl/internal/trajectory"
)

// DefaultPeriod is the nominal control tick, 1 kHz.
const DefaultPeriod = 0.001

// PID is the loop controller the axis feeds position or torque error into
// once per tick.
type PID interface {
	PWM(err float64) float64
}

// Trajectory plans the position path for Position mode and the
// non-velocity part of the reference in Velocity mode.
type Trajectory interface {
	SetReference(currentPosition, targetPosition, currentVelocity, targetVelocity float64)
	Step() float64
}

// Config is fixed for the life of a controller.
type Config struct {
	Name            string  `yaml:"name"`
	Period          float64 `yaml:"period"`
	PositionMin     float64 `yaml:"position_min"`
	PositionMax     float64 `yaml:"position_max"`
	MaxVelocity     float64 `yaml:"max_velocity"`
	VelocityTimeout float64 `yaml:"velocity_timeout"`
}

type Option func(*AxisController)

func WithPositionPID(p PID) Option {
	return func(c *AxisController) { c.pidP = p }
}

func WithTorquePID(p PID) Option {
	return func(c *AxisController) { c.pidT = p }
}

func WithTrajectory(t Trajectory) Option {
	return func(c *AxisController) { c.trajectory = t }
}

// AxisController is the control state of one axis.
type AxisController struct {
	name   string
	period float64

	mode Mode

	measuredPosition float64
	measuredTorque   float64

	stiffness float64

	velocity           float64
	maxVelocity        float64
	fakePositionOffset float64

	positionReference     float64
	velocityReference     float64
	accelerationReference float64
	torqueReference       float64

	positionMin float64
	positionMax float64

	velocityModeTimer   float64
	velocityModeTimeout float64

	pidP       PID
	pidT       PID
	trajectory Trajectory
}

// New creates an Idle controller. Collaborators not supplied through
// options are zero-gain PIDs and a minimum-jerk trajectory at cfg.Period.
func New(cfg Config, opts ...Option) *AxisController {
	period := cfg.Period
	if period <= 0 {
		period = DefaultPeriod
	}

	c := &AxisController{
		name:                cfg.Name,
		period:              period,
		mode:                ModeIdle,
		velocityModeTimeout: cfg.VelocityTimeout,
	}
	c.SetPositionLimits(cfg.PositionMin, cfg.PositionMax)
	c.SetVelocityLimit(cfg.MaxVelocity)

	for _, opt := range opts {
		opt(c)
	}
	if c.pidP == nil {
		c.pidP = pid.New(period)
	}
	if c.pidT == nil {
		c.pidT = pid.New(period)
	}
	if c.trajectory == nil {
		c.trajectory = trajectory.New(period)
	}
	return c
}

func (c *AxisController) Name() string           { return c.name }
func (c *AxisController) Period() float64        { return c.period }
func (c *AxisController) Mode() Mode             { return c.mode }
func (c *AxisController) Trajectory() Trajectory { return c.trajectory }

// SetVelocityLimit stores |maxVelocity|.
func (c *AxisController) SetVelocityLimit(maxVelocity float64) {
	c.maxVelocity = math.Abs(maxVelocity)
}

// SetControlMode switches mode unconditionally. The next reference command
// applies the transition rules.
func (c *AxisController) SetControlMode(mode Mode) bool {
	c.mode = mode
	return true
}

// SetImpedanceStiffness stores the impedance gain. No PWM law reads it yet.
func (c *AxisController) SetImpedanceStiffness(stiffness float64) {
	c.stiffness = stiffness
}

// SetPositionLimits sets the clamp for position references. Reversed
// bounds are swapped.
func (c *AxisController) SetPositionLimits(min, max float64) {
	if min > max {
		min, max = max, min
	}
	c.positionMin = min
	c.positionMax = max
}

// SetVelocityTimeout sets how long a velocity command stays in force.
func (c *AxisController) SetVelocityTimeout(timeout float64) {
	c.velocityModeTimeout = timeout
}

// SetTorqueReference sets the Torque mode target.
func (c *AxisController) SetTorqueReference(torque float64) {
	c.torqueReference = torque
}

func (c *AxisController) ReadPosition(position float64) {
	c.measuredPosition = position
}

func (c *AxisController) ReadTorque(torque float64) {
	c.measuredTorque = torque
}

// SetPositionReference starts a trajectory from the present state to the
// clamped target. It is rejected in Idle, Torque and OpenLoop.
func (c *AxisController) SetPositionReference(target, averageSpeed float64) bool {
	if !c.mode.acceptsReferences() {
		return false
	}

	if c.mode.isImpedance() {
		c.mode = ModeImpedancePosition
	} else {
		c.mode = ModePosition
	}

	c.positionReference = limit(target, c.positionMin, c.positionMax)
	c.velocityReference = averageSpeed
	c.accelerationReference = 0

	c.trajectory.SetReference(c.measuredPosition, c.positionReference, c.velocity, c.velocityReference)
	return true
}

// SetVelocityReference starts a velocity command anchored at the sensed
// position. Ignored in Idle, Torque and OpenLoop.
func (c *AxisController) SetVelocityReference(velocity, acceleration float64) {
	if !c.mode.acceptsReferences() {
		return
	}

	c.velocityModeTimer = 0

	c.velocityReference = limit(velocity, -c.maxVelocity, c.maxVelocity)
	// Per-tick ramp step. rampVelocity compares against ±step, so this
	// must stay a magnitude whatever the sign of acceleration.
	c.accelerationReference = math.Abs(acceleration) * c.period
	c.fakePositionOffset = 0
	c.positionReference = c.measuredPosition

	if c.mode == ModePosition || c.mode == ModeImpedancePosition {
		c.velocity = 0
	}

	if c.mode.isImpedance() {
		c.mode = ModeImpedanceVelocity
	} else {
		c.mode = ModeVelocity
	}
}

// ComputePWM runs one control tick and returns the actuation command.
func (c *AxisController) ComputePWM() float64 {
	switch c.mode {
	case ModeIdle:
		return 0

	case ModePosition:
		c.positionReference = c.trajectory.Step()
		return c.pidP.PWM(c.positionReference - c.measuredPosition)

	case ModeVelocity:
		c.rampVelocity()
		c.fakePositionOffset += c.velocity * c.period
		c.positionReference = c.trajectory.Step() + c.fakePositionOffset

		c.velocityModeTimer += c.period
		if c.velocityModeTimer >= c.velocityModeTimeout {
			c.velocityModeTimer = 0
			c.mode = ModePosition
		}
		return c.pidP.PWM(c.positionReference - c.measuredPosition)

	case ModeTorque:
		// no speed damping term yet
		return c.pidT.PWM(c.torqueReference - c.measuredTorque)

	case ModeImpedancePosition, ModeImpedanceVelocity:
		// impedance law not defined; stiffness is stored only
		return 0
	}
	return 0
}

func (c *AxisController) rampVelocity() {
	err := c.velocityReference - c.velocity
	switch {
	case err < -c.accelerationReference:
		c.velocity -= c.accelerationReference
	case err > c.accelerationReference:
		c.velocity += c.accelerationReference
	default:
		c.velocity = c.velocityReference
	}
}

func limit(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
