package motor

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects the PWM law ComputePWM applies.
type Mode int

const (
	ModeIdle Mode = iota
	ModePosition
	ModeVelocity
	ModeTorque
	ModeImpedancePosition
	ModeImpedanceVelocity
	ModeOpenLoop
)

var ErrUnknownMode = errors.New("motor: unknown control mode")

var modeNames = map[Mode]string{
	ModeIdle:              "idle",
	ModePosition:          "position",
	ModeVelocity:          "velocity",
	ModeTorque:            "torque",
	ModeImpedancePosition: "impedance_position",
	ModeImpedanceVelocity: "impedance_velocity",
	ModeOpenLoop:          "openloop",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode accepts the names String produces, case-insensitively.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return ModeIdle, fmt.Errorf("%q: %w", s, ErrUnknownMode)
}

// Modes lists every mode in declaration order.
func Modes() []Mode {
	return []Mode{
		ModeIdle,
		ModePosition,
		ModeVelocity,
		ModeTorque,
		ModeImpedancePosition,
		ModeImpedanceVelocity,
		ModeOpenLoop,
	}
}

func (m Mode) acceptsReferences() bool {
	switch m {
	case ModeIdle, ModeTorque, ModeOpenLoop:
		return false
	}
	return true
}

func (m Mode) isImpedance() bool {
	return m == ModeImpedancePosition || m == ModeImpedanceVelocity
}
