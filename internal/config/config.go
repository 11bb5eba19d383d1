package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/san-kum/axisctl/internal/motor"
	"github.com/san-kum/axisctl/internal/physics"
	"github.com/san-kum/axisctl/internal/pid"
	"github.com/san-kum/axisctl/internal/scenario"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPeriod          = motor.DefaultPeriod
	DefaultDuration        = 2.0
	DefaultPositionLimit   = 3.0
	DefaultMaxVelocity     = 4.0
	DefaultVelocityTimeout = 0.1
	DefaultIntegrator      = "rk4"
	DefaultSubsteps        = 4
	DefaultDivergenceBound = 1e3
)

var ErrInvalidConfig = errors.New("config: invalid")

type Config struct {
	Axis     AxisConfig        `yaml:"axis"`
	Plant    PlantConfig       `yaml:"plant"`
	Sim      SimConfig         `yaml:"sim"`
	Scenario scenario.Scenario `yaml:"scenario"`
}

type AxisConfig struct {
	motor.Config `yaml:",inline"`
	Stiffness    float64   `yaml:"stiffness"`
	PositionPID  pid.Gains `yaml:"position_pid"`
	TorquePID    pid.Gains `yaml:"torque_pid"`
}

type PlantConfig struct {
	Inertia         float64 `yaml:"inertia"`
	Damping         float64 `yaml:"damping"`
	TorqueConst     float64 `yaml:"torque_const"`
	Resistance      float64 `yaml:"resistance"`
	Supply          float64 `yaml:"supply"`
	PWMMax          float64 `yaml:"pwm_max"`
	Stiffness       float64 `yaml:"stiffness"`
	Gravity         float64 `yaml:"gravity"`
	InitialPosition float64 `yaml:"initial_position"`
}

type SimConfig struct {
	Duration        float64 `yaml:"duration"`
	Integrator      string  `yaml:"integrator"`
	Substeps        int     `yaml:"substeps"`
	Seed            int64   `yaml:"seed"`
	PositionNoise   float64 `yaml:"position_noise"`
	TorqueNoise     float64 `yaml:"torque_noise"`
	DivergenceBound float64 `yaml:"divergence_bound"`
}

func DefaultConfig() *Config {
	return &Config{
		Axis: AxisConfig{
			Config: motor.Config{
				Name:            "axis0",
				Period:          DefaultPeriod,
				PositionMin:     -DefaultPositionLimit,
				PositionMax:     DefaultPositionLimit,
				MaxVelocity:     DefaultMaxVelocity,
				VelocityTimeout: DefaultVelocityTimeout,
			},
			PositionPID: pid.Gains{Kp: 4000, Ki: 2000, Kd: 100, IMax: 300, YMax: physics.DefaultPWMMax},
			TorquePID:   pid.Gains{Kp: 50, Ki: 5000, IMax: physics.DefaultPWMMax, YMax: physics.DefaultPWMMax},
		},
		Plant: PlantConfig{
			Inertia:     physics.DefaultInertia,
			Damping:     physics.DefaultDamping,
			TorqueConst: physics.DefaultTorqueConst,
			Resistance:  physics.DefaultResistance,
			Supply:      physics.DefaultSupplyVoltage,
			PWMMax:      physics.DefaultPWMMax,
		},
		Sim: SimConfig{
			Duration:        DefaultDuration,
			Integrator:      DefaultIntegrator,
			Substeps:        DefaultSubsteps,
			DivergenceBound: DefaultDivergenceBound,
		},
	}
}

func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads path on top of base, so keys the file omits keep base's
// values. base is modified and returned.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, base); err != nil {
		return nil, err
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}
	return base, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Write encodes cfg as YAML to w.
func Write(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var err error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			err = multierr.Append(err, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
		}
	}

	a := c.Axis
	check(a.Period > 0, "axis.period must be positive, got %g", a.Period)
	check(a.PositionMin <= a.PositionMax, "axis.position_min %g above position_max %g", a.PositionMin, a.PositionMax)
	check(a.MaxVelocity >= 0, "axis.max_velocity must not be negative, got %g", a.MaxVelocity)
	check(a.VelocityTimeout > 0, "axis.velocity_timeout must be positive, got %g", a.VelocityTimeout)

	p := c.Plant
	check(p.Inertia > 0, "plant.inertia must be positive, got %g", p.Inertia)
	check(p.Resistance > 0, "plant.resistance must be positive, got %g", p.Resistance)
	check(p.PWMMax > 0, "plant.pwm_max must be positive, got %g", p.PWMMax)
	check(p.Damping >= 0, "plant.damping must not be negative, got %g", p.Damping)

	s := c.Sim
	check(s.Duration > 0, "sim.duration must be positive, got %g", s.Duration)
	check(s.Duration >= a.Period, "sim.duration %g shorter than one period", s.Duration)
	check(s.Substeps >= 0, "sim.substeps must not be negative, got %d", s.Substeps)
	check(s.PositionNoise >= 0 && s.TorqueNoise >= 0, "sim noise must not be negative")
	check(s.DivergenceBound >= 0, "sim.divergence_bound must not be negative, got %g", s.DivergenceBound)

	if serr := c.Scenario.Validate(); serr != nil {
		err = multierr.Append(err, fmt.Errorf("%w: scenario: %w", ErrInvalidConfig, serr))
	}
	return err
}

// NewPlant builds the motor model the configuration describes.
func (c *Config) NewPlant() *physics.DCMotor {
	p := c.Plant
	return &physics.DCMotor{
		Inertia:     p.Inertia,
		Damping:     p.Damping,
		TorqueConst: p.TorqueConst,
		Resistance:  p.Resistance,
		Supply:      p.Supply,
		PWMMax:      p.PWMMax,
		Stiffness:   p.Stiffness,
		Gravity:     p.Gravity,
	}
}

// Ticks is the number of control periods the run lasts.
func (c *Config) Ticks() int {
	return int(c.Sim.Duration/c.Axis.Period + 0.5)
}
