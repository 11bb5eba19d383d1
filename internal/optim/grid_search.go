// Package optim searches PID gains for the configured axis by running the
// same scenario once per grid point.
package optim

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"strings"

	"github.com/san-kum/axisctl/internal/config"
	"github.com/san-kum/axisctl/internal/experiment"
	"github.com/san-kum/axisctl/internal/pid"
	"golang.org/x/sync/errgroup"
)

type Candidate struct {
	Params map[string]float64
	Score  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	workers    int
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d parameters but %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("optim: empty range for %s", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges, workers: runtime.GOMAXPROCS(0)}, nil
}

func (g *GridSearch) SetWorkers(n int) {
	if n > 0 {
		g.workers = n
	}
}

// Points enumerates the cartesian product of the ranges, first parameter
// varying slowest.
func (g *GridSearch) Points() []map[string]float64 {
	points := []map[string]float64{{}}
	for i, name := range g.paramNames {
		next := make([]map[string]float64, 0, len(points)*len(g.ranges[i]))
		for _, p := range points {
			for _, v := range g.ranges[i] {
				q := make(map[string]float64, len(p)+1)
				for k, pv := range p {
					q[k] = pv
				}
				q[name] = v
				next = append(next, q)
			}
		}
		points = next
	}
	return points
}

// Search runs every point and returns the lowest-scoring one plus all
// candidates in grid order. A point whose run fails scores +Inf and keeps
// its error; only cancellation aborts the search.
func (g *GridSearch) Search(
	ctx context.Context,
	build func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
) (Candidate, []Candidate, error) {
	points := g.Points()
	all := make([]Candidate, len(points))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for i, p := range points {
		eg.Go(func() error {
			all[i] = Candidate{Params: p, Score: math.Inf(1)}
			if err := ctx.Err(); err != nil {
				return err
			}
			exp, err := build(p)
			if err != nil {
				all[i].Err = err
				return nil
			}
			result, err := exp.Run(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				all[i].Err = err
				return nil
			}
			score, ok := result.Metrics[metricName]
			if !ok {
				all[i].Err = fmt.Errorf("optim: no metric %q", metricName)
				return nil
			}
			all[i].Score = score
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Candidate{}, all, err
	}

	best := Candidate{Score: math.Inf(1)}
	for _, c := range all {
		if c.Err == nil && c.Score < best.Score {
			best = c
		}
	}
	if best.Params == nil {
		return best, all, fmt.Errorf("optim: every candidate failed")
	}
	return best, all, nil
}

// ApplyGains copies cfg and overrides PID gains named "position.<gain>" or
// "torque.<gain>", where gain is any pid parameter (kp, ki, kd, imax,
// ymax, offset).
func ApplyGains(cfg *config.Config, params map[string]float64) (*config.Config, error) {
	out := *cfg

	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)

	for _, name := range names {
		loop, gain, ok := strings.Cut(name, ".")
		if !ok {
			return nil, fmt.Errorf("optim: parameter %q is not loop.gain", name)
		}
		var target *pid.Gains
		switch loop {
		case "position":
			target = &out.Axis.PositionPID
		case "torque":
			target = &out.Axis.TorquePID
		default:
			return nil, fmt.Errorf("optim: unknown loop %q", loop)
		}

		p := pid.New(out.Axis.Period)
		p.SetGains(*target)
		if err := p.SetParam(gain, params[name]); err != nil {
			return nil, err
		}
		*target = p.Gains()
	}
	return &out, nil
}
