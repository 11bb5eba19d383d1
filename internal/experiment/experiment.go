// Package experiment assembles a runnable axis from a configuration.
package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/axisctl/internal/config"
	"github.com/san-kum/axisctl/internal/dynamo"
	"github.com/san-kum/axisctl/internal/motor"
	"github.com/san-kum/axisctl/internal/pid"
	"github.com/san-kum/axisctl/internal/scenario"
	"github.com/san-kum/axisctl/internal/sim"
	"github.com/san-kum/axisctl/internal/trajectory"
	"go.uber.org/zap"
)

type Experiment struct {
	cfg    *config.Config
	runner *sim.Runner
}

// New validates cfg and wires controller, plant, integrator, metrics and
// scenario into a runner.
func New(cfg *config.Config, logger *zap.Logger) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	reg := NewRegistry()
	plant, err := reg.GetPlant("dcmotor", cfg)
	if err != nil {
		return nil, err
	}
	integ, err := reg.GetIntegrator(cfg.Sim.Integrator, cfg.Sim.Substeps)
	if err != nil {
		return nil, err
	}

	period := cfg.Axis.Period
	posPID := pid.New(period)
	posPID.SetGains(cfg.Axis.PositionPID)
	torquePID := pid.New(period)
	torquePID.SetGains(cfg.Axis.TorquePID)

	ctrl := motor.New(cfg.Axis.Config,
		motor.WithPositionPID(posPID),
		motor.WithTorquePID(torquePID),
		motor.WithTrajectory(trajectory.New(period)),
	)
	ctrl.SetImpedanceStiffness(cfg.Axis.Stiffness)

	runner := sim.New(ctrl, plant, integ, sim.Config{
		Ticks:           cfg.Ticks(),
		Seed:            cfg.Sim.Seed,
		PositionNoise:   cfg.Sim.PositionNoise,
		TorqueNoise:     cfg.Sim.TorqueNoise,
		DivergenceBound: cfg.Sim.DivergenceBound,
	})
	runner.SetLogger(logger)
	runner.SetSchedule(scenario.NewSchedule(cfg.Scenario.Commands))
	for _, m := range reg.DefaultMetrics() {
		runner.AddMetric(m)
	}

	x0 := make(dynamo.State, plant.StateDim())
	x0[0] = cfg.Plant.InitialPosition
	runner.Reset(x0)

	return &Experiment{cfg: cfg, runner: runner}, nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	res, err := e.runner.Run(ctx)
	if err != nil {
		return res, fmt.Errorf("axis %s: %w", e.cfg.Axis.Name, err)
	}
	return res, nil
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// Runner exposes the underlying runner for stepping and observers.
func (e *Experiment) Runner() *sim.Runner {
	return e.runner
}

// RunAll runs several experiments side by side, one goroutine per axis.
func RunAll(ctx context.Context, exps []*Experiment) ([]*sim.Result, error) {
	runners := make([]*sim.Runner, len(exps))
	for i, e := range exps {
		runners[i] = e.runner
	}
	return sim.RunAll(ctx, runners)
}
