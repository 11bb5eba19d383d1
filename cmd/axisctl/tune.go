package main

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/san-kum/axisctl/internal/config"
	"github.com/san-kum/axisctl/internal/experiment"
	"github.com/san-kum/axisctl/internal/optim"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	grid    []string
	metric  string
	workers int
)

func newTuneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tune",
		Short: "grid-search PID gains against a scenario",
		Example: `  axisctl tune --preset step --grid position.kp=1000,2000,4000 --grid position.kd=50,100
  axisctl tune --preset torque --grid torque.ki=1000,5000 --metric control_effort`,
		Args: cobra.NoArgs,
		RunE: tuneGains,
	}
	addConfigFlags(cmd)
	cmd.Flags().StringArrayVar(&grid, "grid", nil, "loop.gain=v1,v2,... (repeatable)")
	cmd.Flags().StringVar(&metric, "metric", "tracking_rms", "metric to minimise")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel runs (default GOMAXPROCS)")
	return cmd
}

func parseGrid(entries []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(entries))
	ranges := make([][]float64, 0, len(entries))
	for _, entry := range entries {
		name, list, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, nil, fmt.Errorf("bad --grid %q, want loop.gain=v1,v2", entry)
		}
		var vals []float64
		for _, f := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("bad value in --grid %q: %w", entry, err)
			}
			vals = append(vals, v)
		}
		names = append(names, name)
		ranges = append(ranges, vals)
	}
	return names, ranges, nil
}

func tuneGains(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(grid) == 0 {
		return fmt.Errorf("at least one --grid is required")
	}
	names, ranges, err := parseGrid(grid)
	if err != nil {
		return err
	}

	search, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}
	search.SetWorkers(workers)

	build := func(p map[string]float64) (*experiment.Experiment, error) {
		cfg, err := optim.ApplyGains(base, p)
		if err != nil {
			return nil, err
		}
		return experiment.New(cfg, zap.NewNop())
	}

	ctx, stop := signalContext()
	defer stop()

	logger.Info("tuning", zap.Strings("params", names), zap.Int("points", len(search.Points())), zap.String("metric", metric))
	best, all, err := search.Search(ctx, build, metric)
	if err != nil {
		return err
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].Score < all[j].Score })
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\t"+strings.ToUpper(metric))
	for _, c := range all {
		row := make([]string, 0, len(names)+1)
		for _, n := range names {
			row = append(row, strconv.FormatFloat(c.Params[n], 'g', -1, 64))
		}
		if c.Err != nil || math.IsInf(c.Score, 1) {
			row = append(row, "failed")
		} else {
			row = append(row, fmt.Sprintf("%.6f", c.Score))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	tuned, err := optim.ApplyGains(base, best.Params)
	if err != nil {
		return err
	}
	fmt.Println("\nbest configuration:")
	return config.Write(os.Stdout, tuned)
}
