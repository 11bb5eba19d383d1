// Package sim closes an axis controller around a simulated plant and ticks
// it at the controller's fixed period.
package sim

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/san-kum/axisctl/internal/dynamo"
	"github.com/san-kum/axisctl/internal/logging"
	"github.com/san-kum/axisctl/internal/motor"
	"github.com/san-kum/axisctl/internal/scenario"
	"go.uber.org/zap"
)

// Runner owns one axis for the length of a run. Not safe for concurrent
// use; see RunAll for ticking several axes at once.
type Runner struct {
	ctrl       *motor.AxisController
	plant      Plant
	integrator dynamo.Integrator
	schedule   *scenario.Schedule
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
	logger     *zap.Logger
	cfg        Config

	rng         *rand.Rand
	x0          dynamo.State
	x           dynamo.State
	u           dynamo.Control
	tick        int
	transitions []Transition
	rejected    int
}

func New(ctrl *motor.AxisController, plant Plant, integrator dynamo.Integrator, cfg Config) *Runner {
	r := &Runner{
		ctrl:       ctrl,
		plant:      plant,
		integrator: integrator,
		schedule:   scenario.NewSchedule(nil),
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
		logger:     zap.NewNop(),
		cfg:        cfg,
	}
	r.Reset(make(dynamo.State, plant.StateDim()))
	return r
}

func (r *Runner) AddMetric(m dynamo.Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o dynamo.Observer) { r.observers = append(r.observers, o) }

func (r *Runner) SetLogger(l *zap.Logger) {
	r.logger = logging.OrNop(l).With(zap.String("axis", r.ctrl.Name()))
}

func (r *Runner) SetSchedule(s *scenario.Schedule) {
	r.schedule = s
}

// Reset rewinds plant time and state. The controller keeps its state, as a
// real axis would across a plant reset.
func (r *Runner) Reset(x0 dynamo.State) {
	r.x0 = x0.Clone()
	r.x = x0.Clone()
	r.u = make(dynamo.Control, r.plant.ControlDim())
	r.tick = 0
	r.transitions = nil
	r.rejected = 0
	r.rng = rand.New(rand.NewSource(r.cfg.Seed))
	r.schedule.Reset()
	for _, m := range r.metrics {
		m.Reset()
	}
}

func (r *Runner) Controller() *motor.AxisController { return r.ctrl }
func (r *Runner) Plant() Plant                      { return r.plant }
func (r *Runner) State() dynamo.State               { return r.x.Clone() }
func (r *Runner) Time() float64                     { return float64(r.tick) * r.ctrl.Period() }
func (r *Runner) Transitions() []Transition         { return r.transitions }

// Done reports whether the configured number of ticks has run.
func (r *Runner) Done() bool {
	return r.tick >= r.cfg.Ticks
}

// Step runs one control tick: due commands, sensor reads, ComputePWM and
// one period of plant integration.
func (r *Runner) Step() (dynamo.Sample, error) {
	t := r.Time()

	for _, cmd := range r.schedule.Due(t) {
		before := r.ctrl.Mode()
		ok, err := cmd.Apply(r.ctrl)
		if err != nil {
			return dynamo.Sample{}, &dynamo.SimulationError{Step: r.tick, Time: t, State: r.x.Clone(), Wrapped: err}
		}
		if !ok {
			r.rejected++
			r.logger.Warn("command rejected",
				zap.Float64("t", t),
				zap.Stringer("cmd", cmd),
				zap.Stringer("mode", before))
		}
		r.noteTransition(t, before, cmd.Kind())
	}

	torque := r.plant.Torque(r.x, r.u)
	r.ctrl.ReadPosition(r.x[0] + r.noise(r.cfg.PositionNoise))
	r.ctrl.ReadTorque(torque + r.noise(r.cfg.TorqueNoise))

	before := r.ctrl.Mode()
	pwm := r.ctrl.ComputePWM()
	r.noteTransition(t, before, "timeout")

	r.u = dynamo.Control{pwm}
	st := r.ctrl.Status()
	sample := dynamo.Sample{
		Time:              t,
		Position:          r.x[0],
		Velocity:          r.x[1],
		Torque:            torque,
		PositionReference: st.PositionReference,
		VelocityReference: st.VelocityReference,
		PWM:               r.plant.Duty(r.u),
		Mode:              st.ModeName,
		Saturated:         r.plant.Saturated(r.u),
	}

	for _, m := range r.metrics {
		m.Observe(sample)
	}
	for _, o := range r.observers {
		o.OnTick(sample)
	}

	next := r.integrator.Step(r.plant, r.x, r.u, t, r.ctrl.Period())
	if !next.IsValid() {
		return sample, &dynamo.SimulationError{Step: r.tick, Time: t, State: r.x.Clone(), Wrapped: dynamo.ErrInvalidState}
	}
	if r.cfg.DivergenceBound > 0 && next.MaxAbs() > r.cfg.DivergenceBound {
		return sample, &dynamo.SimulationError{Step: r.tick, Time: t, State: next, Wrapped: dynamo.ErrUnstable}
	}
	r.x = next
	r.tick++
	return sample, nil
}

// Run ticks until the configured count or until ctx is done.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if r.cfg.Ticks <= 0 {
		return nil, fmt.Errorf("ticks must be positive, got %d", r.cfg.Ticks)
	}

	result := &Result{
		Axis:    r.ctrl.Name(),
		Samples: make([]dynamo.Sample, 0, max(0, r.cfg.Ticks-r.tick)),
		Metrics: make(map[string]float64),
	}

	var runErr error
	for !r.Done() {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
		default:
		}
		if runErr != nil {
			break
		}

		sample, err := r.Step()
		if err != nil {
			runErr = err
			break
		}
		result.Samples = append(result.Samples, sample)
		result.StepsTaken++
	}

	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	result.Transitions = append([]Transition(nil), r.transitions...)
	result.Rejected = r.rejected
	result.FinalState = r.x.Clone()

	if runErr != nil {
		r.logger.Error("run stopped", zap.Int("steps", result.StepsTaken), zap.Error(runErr))
		return result, runErr
	}
	r.logger.Debug("run complete",
		zap.Int("steps", result.StepsTaken),
		zap.Int("transitions", len(result.Transitions)),
		zap.Int("rejected", result.Rejected))
	return result, nil
}

func (r *Runner) noteTransition(t float64, before motor.Mode, cause string) {
	after := r.ctrl.Mode()
	if after == before {
		return
	}
	tr := Transition{Time: t, From: before.String(), To: after.String(), Cause: cause}
	r.transitions = append(r.transitions, tr)
	r.logger.Info("mode transition",
		zap.Float64("t", t),
		zap.String("from", tr.From),
		zap.String("to", tr.To),
		zap.String("cause", cause))
}

func (r *Runner) noise(sigma float64) float64 {
	if sigma == 0 {
		return 0
	}
	return r.rng.NormFloat64() * sigma
}
