package config

import (
	"sort"

	"github.com/san-kum/axisctl/internal/scenario"
)

func f(v float64) *float64 { return &v }

var presets = map[string]func() *Config{
	// point-to-point move and back
	"step": func() *Config {
		cfg := DefaultConfig()
		cfg.Sim.Duration = 3.0
		cfg.Scenario = scenario.Scenario{
			Name: "step",
			Commands: []scenario.Command{
				{At: 0, Mode: "position"},
				{At: 0, Position: &scenario.PositionCommand{Target: 1.0, Speed: 1.0}},
				{At: 1.5, Position: &scenario.PositionCommand{Target: 0.0, Speed: 2.0}},
			},
		}
		return cfg
	},
	// velocity commands refreshed faster than the timeout
	"jog": func() *Config {
		cfg := DefaultConfig()
		cfg.Sim.Duration = 1.5
		cmds := []scenario.Command{{At: 0, Mode: "position"}}
		for t := 0.0; t < 1.0; t += 0.05 {
			cmds = append(cmds, scenario.Command{At: t, Velocity: &scenario.VelocityCommand{Target: 1.5, Acceleration: 10}})
		}
		cfg.Scenario = scenario.Scenario{Name: "jog", Commands: cmds}
		return cfg
	},
	// a single velocity command that lapses back to position hold
	"timeout": func() *Config {
		cfg := DefaultConfig()
		cfg.Sim.Duration = 1.0
		cfg.Axis.VelocityTimeout = 0.25
		cfg.Scenario = scenario.Scenario{
			Name: "timeout",
			Commands: []scenario.Command{
				{At: 0, Mode: "position"},
				{At: 0.1, Velocity: &scenario.VelocityCommand{Target: 2, Acceleration: 20}},
			},
		}
		return cfg
	},
	// torque tracking against a spring load
	"torque": func() *Config {
		cfg := DefaultConfig()
		cfg.Sim.Duration = 1.0
		cfg.Plant.Stiffness = 2.0
		cfg.Scenario = scenario.Scenario{
			Name: "torque",
			Commands: []scenario.Command{
				{At: 0, Mode: "torque"},
				{At: 0, Torque: f(0.5)},
				{At: 0.5, Torque: f(-0.25)},
			},
		}
		return cfg
	},
	// impedance modes accept references but drive nothing
	"impedance": func() *Config {
		cfg := DefaultConfig()
		cfg.Sim.Duration = 0.5
		cfg.Axis.Stiffness = 5
		cfg.Scenario = scenario.Scenario{
			Name: "impedance",
			Commands: []scenario.Command{
				{At: 0, Mode: "impedance_position"},
				{At: 0, Position: &scenario.PositionCommand{Target: 0.5, Speed: 1}},
				{At: 0.2, Velocity: &scenario.VelocityCommand{Target: 1, Acceleration: 5}},
			},
		}
		return cfg
	},
	// position hold on a link under gravity
	"gravity": func() *Config {
		cfg := DefaultConfig()
		cfg.Sim.Duration = 2.0
		cfg.Plant.Gravity = 1.0
		cfg.Scenario = scenario.Scenario{
			Name: "gravity",
			Commands: []scenario.Command{
				{At: 0, Mode: "position"},
				{At: 0, Position: &scenario.PositionCommand{Target: 1.2, Speed: 1.2}},
			},
		}
		return cfg
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	fn, ok := presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
