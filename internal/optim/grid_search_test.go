package optim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/axisctl/internal/config"
	"github.com/san-kum/axisctl/internal/dynamo"
	"github.com/san-kum/axisctl/internal/experiment"
)

func TestPoints(t *testing.T) {
	g, err := NewGridSearch([]string{"a", "b"}, [][]float64{{1, 2}, {10, 20, 30}})
	if err != nil {
		t.Fatal(err)
	}
	pts := g.Points()
	if len(pts) != 6 {
		t.Fatalf("expected 6 points, got %d", len(pts))
	}
	if pts[0]["a"] != 1 || pts[0]["b"] != 10 || pts[5]["a"] != 2 || pts[5]["b"] != 30 {
		t.Errorf("unexpected order: first %v, last %v", pts[0], pts[5])
	}
}

func TestNewGridSearchMismatch(t *testing.T) {
	if _, err := NewGridSearch([]string{"a"}, nil); err == nil {
		t.Error("expected error for missing range")
	}
	if _, err := NewGridSearch([]string{"a"}, [][]float64{{}}); err == nil {
		t.Error("expected error for empty range")
	}
}

func TestApplyGains(t *testing.T) {
	base := config.DefaultConfig()
	cfg, err := ApplyGains(base, map[string]float64{"position.kp": 123, "torque.ki": -4, "position.imax": -7})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if cfg.Axis.PositionPID.Kp != 123 {
		t.Errorf("expected kp 123, got %f", cfg.Axis.PositionPID.Kp)
	}
	if cfg.Axis.TorquePID.Ki != -4 {
		t.Errorf("expected torque ki -4, got %f", cfg.Axis.TorquePID.Ki)
	}
	if cfg.Axis.PositionPID.IMax != 7 {
		t.Errorf("expected imax stored as magnitude 7, got %f", cfg.Axis.PositionPID.IMax)
	}
	if base.Axis.PositionPID.Kp == 123 {
		t.Error("base config was modified")
	}

	if _, err := ApplyGains(base, map[string]float64{"kp": 1}); err == nil {
		t.Error("expected error for unqualified name")
	}
	if _, err := ApplyGains(base, map[string]float64{"velocity.kp": 1}); err == nil {
		t.Error("expected error for unknown loop")
	}
	if _, err := ApplyGains(base, map[string]float64{"position.kx": 1}); !errors.Is(err, dynamo.ErrUnknownParameter) {
		t.Errorf("expected ErrUnknownParameter, got %v", err)
	}
}

func TestSearchPrefersDampedGains(t *testing.T) {
	base := config.GetPreset("step")
	base.Sim.Duration = 1.2

	g, err := NewGridSearch([]string{"position.kp"}, [][]float64{{100, 4000}})
	if err != nil {
		t.Fatal(err)
	}
	g.SetWorkers(2)

	build := func(p map[string]float64) (*experiment.Experiment, error) {
		cfg, err := ApplyGains(base, p)
		if err != nil {
			return nil, err
		}
		return experiment.New(cfg, nil)
	}

	best, all, err := g.Search(context.Background(), build, "tracking_rms")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(all))
	}
	if best.Params["position.kp"] != 4000 {
		t.Errorf("expected stiffer gain to track better, got %v (scores %.5f, %.5f)",
			best.Params, all[0].Score, all[1].Score)
	}
}

func TestSearchRecordsFailures(t *testing.T) {
	g, _ := NewGridSearch([]string{"x"}, [][]float64{{1, 2}})
	build := func(p map[string]float64) (*experiment.Experiment, error) {
		if p["x"] == 1 {
			return nil, errors.New("boom")
		}
		cfg := config.DefaultConfig()
		cfg.Sim.Duration = 0.01
		return experiment.New(cfg, nil)
	}

	best, all, err := g.Search(context.Background(), build, "control_effort")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if all[0].Err == nil || !math.IsInf(all[0].Score, 1) {
		t.Errorf("failed candidate not recorded: %+v", all[0])
	}
	if best.Params["x"] != 2 {
		t.Errorf("expected surviving candidate, got %v", best.Params)
	}
}

func TestSearchCancelled(t *testing.T) {
	g, _ := NewGridSearch([]string{"position.kp"}, [][]float64{{1000, 2000}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	build := func(p map[string]float64) (*experiment.Experiment, error) {
		return experiment.New(config.DefaultConfig(), nil)
	}
	if _, _, err := g.Search(ctx, build, "tracking_rms"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
