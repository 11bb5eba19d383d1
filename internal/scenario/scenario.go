// Package scenario scripts the commands an upstream layer would issue to
// an axis: mode changes, position and velocity setpoints, torque targets
// and limits, each stamped with the time it arrives.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/san-kum/axisctl/internal/motor"
	"gopkg.in/yaml.v3"
)

var (
	ErrEmptyCommand     = errors.New("scenario: command has no action")
	ErrAmbiguousCommand = errors.New("scenario: command has more than one action")
	ErrNegativeTime     = errors.New("scenario: command time is negative")
)

// Scenario is a named list of timed commands.
type Scenario struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	Commands    []Command `yaml:"commands"`
}

type PositionCommand struct {
	Target float64 `yaml:"target"`
	Speed  float64 `yaml:"speed"`
}

type VelocityCommand struct {
	Target       float64 `yaml:"target"`
	Acceleration float64 `yaml:"acceleration"`
}

// Command carries exactly one action.
type Command struct {
	At          float64          `yaml:"at"`
	Mode        string           `yaml:"mode,omitempty"`
	Position    *PositionCommand `yaml:"position,omitempty"`
	Velocity    *VelocityCommand `yaml:"velocity,omitempty"`
	Torque      *float64         `yaml:"torque,omitempty"`
	Stiffness   *float64         `yaml:"stiffness,omitempty"`
	MaxVelocity *float64         `yaml:"max_velocity,omitempty"`
}

// Load reads a scenario from a YAML file
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks every command and reports the first bad one.
func (s *Scenario) Validate() error {
	for i, c := range s.Commands {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("command %d (t=%.4f): %w", i+1, c.At, err)
		}
	}
	return nil
}

func (c Command) Validate() error {
	if c.At < 0 {
		return ErrNegativeTime
	}
	n := 0
	if c.Mode != "" {
		n++
		if _, err := motor.ParseMode(c.Mode); err != nil {
			return err
		}
	}
	for _, set := range []bool{c.Position != nil, c.Velocity != nil, c.Torque != nil, c.Stiffness != nil, c.MaxVelocity != nil} {
		if set {
			n++
		}
	}
	switch {
	case n == 0:
		return ErrEmptyCommand
	case n > 1:
		return ErrAmbiguousCommand
	}
	return nil
}

// Kind names the action a command carries.
func (c Command) Kind() string {
	switch {
	case c.Mode != "":
		return "mode"
	case c.Position != nil:
		return "position"
	case c.Velocity != nil:
		return "velocity"
	case c.Torque != nil:
		return "torque"
	case c.Stiffness != nil:
		return "stiffness"
	case c.MaxVelocity != nil:
		return "max_velocity"
	}
	return "none"
}

func (c Command) String() string {
	switch c.Kind() {
	case "mode":
		return fmt.Sprintf("mode %s", c.Mode)
	case "position":
		return fmt.Sprintf("position %.4f @ %.4f", c.Position.Target, c.Position.Speed)
	case "velocity":
		return fmt.Sprintf("velocity %.4f @ %.4f", c.Velocity.Target, c.Velocity.Acceleration)
	case "torque":
		return fmt.Sprintf("torque %.4f", *c.Torque)
	case "stiffness":
		return fmt.Sprintf("stiffness %.4f", *c.Stiffness)
	case "max_velocity":
		return fmt.Sprintf("max_velocity %.4f", *c.MaxVelocity)
	}
	return "none"
}

// Axis is the command surface of a motor.AxisController.
type Axis interface {
	Mode() motor.Mode
	SetControlMode(mode motor.Mode) bool
	SetPositionReference(target, averageSpeed float64) bool
	SetVelocityReference(velocity, acceleration float64)
	SetTorqueReference(torque float64)
	SetImpedanceStiffness(stiffness float64)
	SetVelocityLimit(maxVelocity float64)
}

// Apply issues the command and reports whether the axis accepted it.
func (c Command) Apply(a Axis) (bool, error) {
	switch {
	case c.Mode != "":
		m, err := motor.ParseMode(c.Mode)
		if err != nil {
			return false, err
		}
		return a.SetControlMode(m), nil
	case c.Position != nil:
		return a.SetPositionReference(c.Position.Target, c.Position.Speed), nil
	case c.Velocity != nil:
		a.SetVelocityReference(c.Velocity.Target, c.Velocity.Acceleration)
		m := a.Mode()
		return m == motor.ModeVelocity || m == motor.ModeImpedanceVelocity, nil
	case c.Torque != nil:
		a.SetTorqueReference(*c.Torque)
		return true, nil
	case c.Stiffness != nil:
		a.SetImpedanceStiffness(*c.Stiffness)
		return true, nil
	case c.MaxVelocity != nil:
		a.SetVelocityLimit(*c.MaxVelocity)
		return true, nil
	}
	return false, ErrEmptyCommand
}

// Schedule hands out commands in time order, each exactly once.
type Schedule struct {
	cmds []Command
	next int
}

func NewSchedule(cmds []Command) *Schedule {
	sorted := make([]Command, len(cmds))
	copy(sorted, cmds)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At < sorted[j].At })
	return &Schedule{cmds: sorted}
}

// Due returns the commands stamped at or before t not yet handed out.
func (s *Schedule) Due(t float64) []Command {
	start := s.next
	for s.next < len(s.cmds) && s.cmds[s.next].At <= t+1e-9 {
		s.next++
	}
	return s.cmds[start:s.next]
}

func (s *Schedule) Remaining() int {
	return len(s.cmds) - s.next
}

func (s *Schedule) Reset() {
	s.next = 0
}
