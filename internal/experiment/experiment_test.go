package experiment

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/axisctl/internal/config"
)

func TestPresetsRun(t *testing.T) {
	for _, name := range config.ListPresets() {
		t.Run(name, func(t *testing.T) {
			exp, err := New(config.GetPreset(name), nil)
			if err != nil {
				t.Fatalf("setup failed: %v", err)
			}
			res, err := exp.Run(context.Background())
			if err != nil {
				t.Fatalf("run failed: %v", err)
			}
			if res.StepsTaken != exp.Config().Ticks() {
				t.Errorf("expected %d steps, got %d", exp.Config().Ticks(), res.StepsTaken)
			}
			for _, m := range []string{"tracking_rms", "control_effort", "saturation"} {
				if _, ok := res.Metrics[m]; !ok {
					t.Errorf("metric %s missing", m)
				}
			}
		})
	}
}

func TestStepPresetReturnsHome(t *testing.T) {
	exp, err := New(config.GetPreset("step"), nil)
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	peak := 0.0
	for _, s := range res.Samples {
		peak = math.Max(peak, s.Position)
	}
	if math.Abs(peak-1) > 0.05 {
		t.Errorf("expected to reach 1.0, peaked at %.4f", peak)
	}
	if math.Abs(res.FinalState[0]) > 0.02 {
		t.Errorf("expected to return to 0, ended at %.4f", res.FinalState[0])
	}
}

func TestTimeoutPresetReverts(t *testing.T) {
	exp, err := New(config.GetPreset("timeout"), nil)
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var timedOut bool
	for _, tr := range res.Transitions {
		if tr.Cause == "timeout" && tr.From == "velocity" && tr.To == "position" {
			timedOut = true
			if math.Abs(tr.Time-0.35) > 0.005 {
				t.Errorf("expected revert near 0.35s, got %.4f", tr.Time)
			}
		}
	}
	if !timedOut {
		t.Errorf("no timeout transition in %+v", res.Transitions)
	}
	if last := res.Samples[len(res.Samples)-1]; last.Mode != "position" {
		t.Errorf("expected position mode at end, got %s", last.Mode)
	}
}

func TestImpedancePresetDrivesNothing(t *testing.T) {
	exp, err := New(config.GetPreset("impedance"), nil)
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for _, s := range res.Samples {
		if s.PWM != 0 {
			t.Fatalf("impedance mode drove pwm %.4f at t=%.4f", s.PWM, s.Time)
		}
	}
	if got := exp.Runner().Controller().Status().Stiffness; got != 5 {
		t.Errorf("expected stiffness 5, got %.4f", got)
	}
	if last := res.Samples[len(res.Samples)-1]; last.Mode != "impedance_velocity" {
		t.Errorf("expected impedance_velocity at end, got %s", last.Mode)
	}
}

func TestInitialPosition(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Plant.InitialPosition = 0.3
	cfg.Sim.Duration = 0.01

	exp, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.Samples[0].Position != 0.3 {
		t.Errorf("expected first sample at 0.3, got %.4f", res.Samples[0].Position)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Plant.Inertia = 0
	if _, err := New(cfg, nil); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}

	cfg = config.DefaultConfig()
	cfg.Sim.Integrator = "leapfrog"
	if _, err := New(cfg, nil); err == nil {
		t.Error("expected error for unknown integrator")
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()

	names := reg.ListIntegrators()
	if len(names) != 2 || names[0] != "euler" || names[1] != "rk4" {
		t.Errorf("unexpected integrators %v", names)
	}
	if _, err := reg.GetPlant("pendulum", config.DefaultConfig()); err == nil {
		t.Error("expected error for unknown plant")
	}
	if got := len(reg.DefaultMetrics()); got != 3 {
		t.Errorf("expected 3 default metrics, got %d", got)
	}
}

func TestRunAllExperiments(t *testing.T) {
	var exps []*Experiment
	for _, name := range []string{"step", "torque"} {
		cfg := config.GetPreset(name)
		cfg.Axis.Name = name
		exp, err := New(cfg, nil)
		if err != nil {
			t.Fatalf("setup %s failed: %v", name, err)
		}
		exps = append(exps, exp)
	}

	results, err := RunAll(context.Background(), exps)
	if err != nil {
		t.Fatalf("run all failed: %v", err)
	}
	for i, name := range []string{"step", "torque"} {
		if results[i].Axis != name {
			t.Errorf("result %d: expected axis %s, got %s", i, name, results[i].Axis)
		}
	}
}
