package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/axisctl/internal/config"
	"github.com/san-kum/axisctl/internal/experiment"
	"github.com/san-kum/axisctl/internal/export"
	"github.com/san-kum/axisctl/internal/logging"
	"github.com/san-kum/axisctl/internal/scenario"
	"github.com/san-kum/axisctl/internal/sim"
	"github.com/san-kum/axisctl/internal/storage"
	"github.com/san-kum/axisctl/internal/viz"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	dataDir      string
	verbose      bool
	configFile   string
	preset       string
	scenarioFile string
	duration     float64
	integrator   string
	seed         int64
	axes         int
	outFile      string

	logger = zap.NewNop()
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "axisctl",
		Short:         "single-axis motor controller simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logging.New(verbose)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".axisctl", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a scripted axis simulation",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().IntVar(&axes, "axes", 1, "number of identical axes to run in parallel")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "drive an axis interactively with a live view",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)

	compareCmd := &cobra.Command{
		Use:   "compare [integrator1] [integrator2] ...",
		Short: "run the same configuration under several integrators",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareIntegrators,
	}
	addConfigFlags(compareCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata and samples as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run samples as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render position, reference and pwm to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDURATION\tCOMMANDS")
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%.2fs\t%d\n", name, cfg.Sim.Duration, len(cfg.Scenario.Commands))
			}
			return w.Flush()
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if outFile != "" {
				return config.Save(outFile, cfg)
			}
			return config.Write(os.Stdout, cfg)
		},
	}
	addConfigFlags(configCmd)
	configCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	rootCmd.AddCommand(runCmd, liveCmd, compareCmd, newTuneCmd(), listCmd, plotCmd, exportCmd, exportCSVCmd, exportSVGCmd, presetsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use a built-in scenario")
	cmd.Flags().StringVar(&scenarioFile, "scenario", "", "scenario file replacing the configured one (yaml)")
	cmd.Flags().Float64Var(&duration, "time", 0, "duration in seconds")
	cmd.Flags().StringVar(&integrator, "integrator", "", "integrator (euler, rk4)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "sensor noise seed")
}

// loadConfig layers defaults, then a preset, then a config file, then
// flags that were set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %s)", preset, strings.Join(config.ListPresets(), ", "))
		}
	}

	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if scenarioFile != "" {
		sc, err := scenario.Load(scenarioFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load scenario: %w", err)
		}
		cfg.Scenario = *sc
	}

	if cmd.Flags().Changed("time") {
		cfg.Sim.Duration = duration
	}
	if cmd.Flags().Changed("integrator") {
		cfg.Sim.Integrator = integrator
	}
	if cmd.Flags().Changed("seed") {
		cfg.Sim.Seed = seed
	}

	return cfg, cfg.Validate()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	defer logger.Sync()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if axes < 1 {
		return fmt.Errorf("--axes must be at least 1, got %d", axes)
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exps := make([]*experiment.Experiment, axes)
	for i := range exps {
		axisCfg := *cfg
		if axes > 1 {
			axisCfg.Axis.Name = fmt.Sprintf("%s_%d", cfg.Axis.Name, i)
		}
		exps[i], err = experiment.New(&axisCfg, logger)
		if err != nil {
			return err
		}
	}

	ctx, stop := signalContext()
	defer stop()

	fmt.Printf("running %q on %d axis(es) for %.2fs...\n", cfg.Scenario.Name, axes, cfg.Sim.Duration)
	start := time.Now()

	results, err := experiment.RunAll(ctx, exps)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("completed in %v\n", elapsed)
	for i, result := range results {
		runID, err := st.Save(exps[i].Config(), result)
		if err != nil {
			return err
		}
		printResult(runID, result)
	}
	return nil
}

func printResult(runID string, result *sim.Result) {
	fmt.Printf("\nrun id: %s\n", runID)
	fmt.Printf("steps: %d  rejected: %d\n", result.StepsTaken, result.Rejected)
	if len(result.Transitions) > 0 {
		fmt.Println("transitions:")
		for _, tr := range result.Transitions {
			fmt.Printf("  %8.4fs  %s -> %s (%s)\n", tr.Time, tr.From, tr.To, tr.Cause)
		}
	}
	fmt.Println("metrics:")
	for _, name := range []string{"tracking_rms", "control_effort", "saturation"} {
		if v, ok := result.Metrics[name]; ok {
			fmt.Printf("  %s: %.6f\n", name, v)
		}
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// the TUI owns the terminal
	exp, err := experiment.New(cfg, zap.NewNop())
	if err != nil {
		return err
	}
	return viz.Run(exp.Runner())
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tTIME\tTRACKING\tEFFORT\tSATURATION\tFINAL")

	ctx, stop := signalContext()
	defer stop()

	for _, name := range args {
		cfg := *base
		cfg.Sim.Integrator = name
		exp, err := experiment.New(&cfg, logger)
		if err != nil {
			return err
		}

		start := time.Now()
		result, err := exp.Run(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%v\t%.6f\t%.2f\t%.4f\t%+.6f\n",
			name,
			time.Since(start).Round(time.Microsecond),
			result.Metrics["tracking_rms"],
			result.Metrics["control_effort"],
			result.Metrics["saturation"],
			result.FinalState[0],
		)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tAXIS\tSCENARIO\tTIME\tDURATION\tINTEG\tTRACKING")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fs\t%s\t%.6f\n",
			run.ID,
			run.Axis,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Integrator,
			run.Metrics["tracking_rms"],
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("axis: %s  scenario: %s\n", meta.Axis, meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(samples))

	pos := make([]float64, len(samples))
	ref := make([]float64, len(samples))
	vel := make([]float64, len(samples))
	pwm := make([]float64, len(samples))
	for i, s := range samples {
		pos[i], ref[i], vel[i], pwm[i] = s.Position, s.PositionReference, s.Velocity, s.PWM
	}

	fmt.Println(asciigraph.PlotMany([][]float64{ref, pos},
		asciigraph.Height(12), asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Yellow, asciigraph.Green),
		asciigraph.Caption("reference (yellow) / position (green)")))
	fmt.Println()
	fmt.Println(asciigraph.Plot(vel, asciigraph.Height(8), asciigraph.Width(80), asciigraph.Caption("velocity")))
	fmt.Println()
	fmt.Println(asciigraph.Plot(pwm, asciigraph.Height(8), asciigraph.Width(80), asciigraph.Caption("pwm")))
	return nil
}

func output() (*os.File, func() error, error) {
	if outFile == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(outFile)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}

	out, done, err := output()
	if err != nil {
		return err
	}
	if err := storage.ExportJSON(out, *meta, samples); err != nil {
		done()
		return err
	}
	return done()
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to export")
	}

	out, done, err := output()
	if err != nil {
		return err
	}
	if err := storage.WriteSamplesCSV(out, samples); err != nil {
		done()
		return err
	}
	return done()
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}

	out, done, err := output()
	if err != nil {
		return err
	}
	times, series := export.TraceSeries(samples)
	if err := export.WriteSVG(out, times, series, 960, 480); err != nil {
		done()
		return err
	}
	return done()
}
