package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/axisctl/internal/config"
	"github.com/san-kum/axisctl/internal/dynamo"
	"github.com/san-kum/axisctl/internal/integrators"
	"github.com/san-kum/axisctl/internal/metrics"
	"github.com/san-kum/axisctl/internal/motor"
	"github.com/san-kum/axisctl/internal/sim"
)

type Registry struct {
	plants      map[string]func(*config.Config) sim.Plant
	integrators map[string]func(substeps int) dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		plants:      make(map[string]func(*config.Config) sim.Plant),
		integrators: make(map[string]func(int) dynamo.Integrator),
	}

	r.plants["dcmotor"] = func(cfg *config.Config) sim.Plant { return cfg.NewPlant() }

	r.integrators["euler"] = func(int) dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func(substeps int) dynamo.Integrator {
		if substeps <= 1 {
			return integrators.NewRK4()
		}
		return integrators.NewSubsteppedRK4(substeps)
	}

	return r
}

func (r *Registry) GetPlant(name string, cfg *config.Config) (sim.Plant, error) {
	fn, ok := r.plants[name]
	if !ok {
		return nil, fmt.Errorf("unknown plant: %s", name)
	}
	return fn(cfg), nil
}

func (r *Registry) GetIntegrator(name string, substeps int) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(substeps), nil
}

func (r *Registry) ListIntegrators() []string {
	names := make([]string, 0, len(r.integrators))
	for name := range r.integrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics are attached to every run. Tracking error only counts
// ticks where a position reference is being followed.
func (r *Registry) DefaultMetrics() []dynamo.Metric {
	return []dynamo.Metric{
		metrics.NewTrackingError(
			motor.ModeIdle.String(),
			motor.ModeTorque.String(),
			motor.ModeImpedancePosition.String(),
			motor.ModeImpedanceVelocity.String(),
			motor.ModeOpenLoop.String(),
		),
		metrics.NewControlEffort(),
		metrics.NewSaturation(),
	}
}
