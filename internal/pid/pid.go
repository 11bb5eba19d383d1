// Package pid implements the discrete PID controller an axis runs its
// position and torque loops through.
//
// A PID is ticked at a fixed period and fed only the error; gains and
// limits are configured up front or tuned live through GetParams/SetParam.
//
//	p := pid.New(0.001)
//	p.SetGains(pid.Gains{Kp: 4000, Kd: 100, YMax: 1000})
//	pwm := p.PWM(ref - meas)
package pid

import (
	"fmt"
	"math"

	"github.com/san-kum/axisctl/internal/dynamo"
)

// Gains holds the tunable terms. A zero IMax or YMax means unbounded.
type Gains struct {
	Kp     float64 `yaml:"kp"`
	Ki     float64 `yaml:"ki"`
	Kd     float64 `yaml:"kd"`
	IMax   float64 `yaml:"imax"`
	YMax   float64 `yaml:"ymax"`
	Offset float64 `yaml:"offset"`
}

// PID is not safe for concurrent use.
type PID struct {
	gains    Gains
	period   float64
	integral float64
	prevErr  float64
	first    bool
}

// New returns a PID with all gains zero, so its output is zero until
// SetGains is called.
func New(period float64) *PID {
	return &PID{
		period: period,
		first:  true,
	}
}

func (p *PID) SetGains(g Gains) {
	p.gains = g
	p.gains.IMax = math.Abs(g.IMax)
	p.gains.YMax = math.Abs(g.YMax)
}

func (p *PID) Gains() Gains {
	return p.gains
}

// PWM advances the controller one period with the given error and returns
// the clamped output.
func (p *PID) PWM(err float64) float64 {
	g := p.gains

	p.integral += g.Ki * err * p.period
	p.integral = limit(p.integral, g.IMax)

	derivative := 0.0
	if !p.first && p.period > 0 {
		derivative = (err - p.prevErr) / p.period
	}
	p.prevErr = err
	p.first = false

	u := g.Offset + g.Kp*err + p.integral + g.Kd*derivative
	return limit(u, g.YMax)
}

// Reset clears integral and derivative state.
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.first = true
}

// GetParams returns tunable parameters for live adjustment.
func (p *PID) GetParams() map[string]float64 {
	return map[string]float64{
		"kp":     p.gains.Kp,
		"ki":     p.gains.Ki,
		"kd":     p.gains.Kd,
		"imax":   p.gains.IMax,
		"ymax":   p.gains.YMax,
		"offset": p.gains.Offset,
	}
}

// SetParam adjusts a single gain.
func (p *PID) SetParam(name string, value float64) error {
	g := p.gains
	switch name {
	case "kp":
		g.Kp = value
	case "ki":
		g.Ki = value
	case "kd":
		g.Kd = value
	case "imax":
		g.IMax = value
	case "ymax":
		g.YMax = value
	case "offset":
		g.Offset = value
	default:
		return fmt.Errorf("pid %s: %w", name, dynamo.ErrUnknownParameter)
	}
	p.SetGains(g)
	return nil
}

func limit(x, max float64) float64 {
	if max == 0 {
		return x
	}
	if x > max {
		return max
	}
	if x < -max {
		return -max
	}
	return x
}
