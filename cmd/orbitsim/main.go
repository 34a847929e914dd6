package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/orbitsim/internal/analysis"
	"github.com/san-kum/orbitsim/internal/automation"
	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/dynamo"
	"github.com/san-kum/orbitsim/internal/experiment"
	"github.com/san-kum/orbitsim/internal/export"
	"github.com/san-kum/orbitsim/internal/logger"
	"github.com/san-kum/orbitsim/internal/optim"
	"github.com/san-kum/orbitsim/internal/sim"
	"github.com/san-kum/orbitsim/internal/storage"
	"github.com/san-kum/orbitsim/internal/trajectory"
	"github.com/san-kum/orbitsim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	debug      bool
	preset     string
	configFile string
	dtDays     float64
	days       float64
	parallel   bool
	body       string
	outPath    string
	svgOut     string
	svgWidth   int
	svgHeight  int
	sweepDts   []float64
	sweepLimit int
	benchRuns  int
	trials     int
	perturb    float64
	seed       int64
	tuneBody   string
	tuneMin    float64
	tuneMax    float64
	tunePoints int
	tuneMetric string

	closeLog func() error
)

var presetInfo = map[string]string{
	"earth":   "Earth around the Sun for one year",
	"inner":   "Mercury, Venus, Earth and Mars for one Martian year",
	"jupiter": "Earth and Jupiter for one Jovian year",
	"decade":  "Earth for ten years, for drift studies",
}

const secondsPerDay = config.DefaultDaySeconds

func main() {
	rootCmd := &cobra.Command{
		Use:          "orbitsim",
		Short:        "orbital gravity integrator",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cleanup, err := logger.Setup(logger.Config{Dir: dataDir, Debug: debug})
			if err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			closeLog = cleanup
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if closeLog != nil {
				return closeLog()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".orbitsim", "data directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run simulation and save it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot radius, coordinates and orbit of a body",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&body, "body", "", "body to plot (default: first orbiting body)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "estimate orbital periods",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&body, "body", "", "body to analyze (default: every orbiting body)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export trajectories to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	svgCmd := &cobra.Command{
		Use:   "svg [run_id]",
		Short: "render orbits to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	svgCmd.Flags().StringVarP(&svgOut, "out", "o", "orbit.svg", "output file")
	svgCmd.Flags().IntVar(&svgWidth, "width", 800, "image width")
	svgCmd.Flags().IntVar(&svgHeight, "height", 800, "image height")

	animateCmd := &cobra.Command{
		Use:   "animate [run_id]",
		Short: "replay a saved run, or simulate one, in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  animate,
	}
	addConfigFlags(animateCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Printf("  %-8s %-52s %5.0f days, %d bodies\n", name, presetInfo[name], cfg.DurationDays, len(cfg.Bodies))
			}
			return nil
		},
	}

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "compare time steps on the same configuration",
		Args:  cobra.NoArgs,
		RunE:  compareTimeSteps,
	}
	addConfigFlags(compareCmd)
	compareCmd.Flags().Float64SliceVar(&sweepDts, "steps", []float64{4, 2, 1, 0.5, 0.25}, "time steps in days")
	compareCmd.Flags().IntVar(&sweepLimit, "jobs", 4, "concurrent runs")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark the integrator",
		Args:  cobra.NoArgs,
		RunE:  bench,
	}
	addConfigFlags(benchCmd)
	benchCmd.Flags().IntVar(&benchRuns, "runs", 10, "number of runs")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run and save every step of a yaml scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "perturb aphelion velocities and count stable orbits",
		Args:  cobra.NoArgs,
		RunE:  monteCarlo,
	}
	addConfigFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 50, "number of trials")
	monteCarloCmd.Flags().Float64Var(&perturb, "perturb", 0.1, "relative velocity perturbation")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0: time based)")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search a body's aphelion velocity",
		Args:  cobra.NoArgs,
		RunE:  tune,
	}
	addConfigFlags(tuneCmd)
	tuneCmd.Flags().StringVar(&tuneBody, "body", "Earth", "body to tune")
	tuneCmd.Flags().Float64Var(&tuneMin, "min", 25000, "lowest velocity (m/s)")
	tuneCmd.Flags().Float64Var(&tuneMax, "max", 35000, "highest velocity (m/s)")
	tuneCmd.Flags().IntVar(&tunePoints, "points", 11, "grid points")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "", "metric to minimise (default radius_spread_<body>)")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, analyzeCmd, exportCSVCmd, exportJSONCmd, svgCmd, animateCmd, presetsCmd, compareCmd, benchCmd, scenarioCmd, monteCarloCmd, tuneCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().Float64Var(&dtDays, "dt-days", config.DefaultDtDays, "time step in days")
	cmd.Flags().Float64Var(&days, "days", config.DefaultDurationDays, "duration in days")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "advance bodies in parallel")
}

// resolveConfig layers defaults, preset, config file and explicit flags,
// in that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("dt-days") {
		cfg.DtDays = dtDays
	}
	if cmd.Flags().Changed("days") {
		cfg.DurationDays = days
	}
	if cmd.Flags().Changed("parallel") {
		cfg.Parallel = parallel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configName(cfg *config.Config) string {
	if cfg.Name != "" {
		return cfg.Name
	}
	return "custom"
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(filepath.Join(dataDir, "runs"))
	if err := st.Init(); err != nil {
		return err
	}

	exp := experiment.New(configName(cfg), cfg)
	if err := exp.Setup(experiment.NewRegistry()); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s: %d bodies, %.0f days at %.3g day steps...\n", exp.Name, len(cfg.Bodies), cfg.DurationDays, cfg.DtDays)
	start := time.Now()

	result, err := exp.Run(ctx)
	if err != nil {
		if errors.Is(err, dynamo.ErrCanceled) {
			fmt.Fprintf(os.Stderr, "interrupted after %d steps\n", exp.GetSimulator().StepsTaken())
		}
		return err
	}

	elapsed := time.Since(start)

	runID, err := st.Save(storage.RunMetadata{
		Preset:     exp.Name,
		Dt:         cfg.Dt(),
		Duration:   cfg.Duration(),
		Integrator: experiment.IntegratorFor(cfg),
		Metrics:    result.Metrics,
	}, result.Trajectories)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Println(viz.Metric("run id", runID))
	fmt.Println(viz.Metric("steps", fmt.Sprintf("%d", result.StepsTaken)))
	fmt.Println(viz.Metric("final time", fmt.Sprintf("%.1f days", result.FinalTime/secondsPerDay)))
	fmt.Println("\n" + viz.HeaderStyle.Render("metrics"))
	for _, name := range sortedKeys(result.Metrics) {
		fmt.Println(viz.Metric(name, fmt.Sprintf("%.6g", result.Metrics[name])))
	}

	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(filepath.Join(dataDir, "runs"))
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tDAYS\tDT\tSTEPS\tBODIES")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.0f\t%.3gd\t%d\t%s\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration/secondsPerDay,
			run.Dt/secondsPerDay,
			run.Steps,
			strings.Join(run.Bodies, ","),
		)
	}

	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, *trajectory.Store, error) {
	st := storage.New(filepath.Join(dataDir, "runs"))
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	store, err := st.LoadTrajectory(runID)
	if err != nil {
		return nil, nil, err
	}
	if store.Len() == 0 {
		return nil, nil, fmt.Errorf("no data in run %s", runID)
	}
	return meta, store, nil
}

// orbiting lists the bodies to report on: the one named by --body, or
// every non-central body.
func orbiting(store *trajectory.Store) ([]string, error) {
	if body != "" {
		if _, ok := store.Positions(body); !ok {
			return nil, fmt.Errorf("unknown body %q (have %v)", body, store.Bodies())
		}
		return []string{body}, nil
	}
	names := make([]string, 0)
	for _, name := range store.Bodies() {
		if !store.IsCentral(name) {
			names = append(names, name)
		}
	}
	return names, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, store, err := loadRun(args[0])
	if err != nil {
		return err
	}

	names, err := orbiting(store)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("no orbiting bodies to plot")
	}
	target := names[0]

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s\n", meta.Preset)
	fmt.Printf("samples: %d\n\n", store.Len())

	radius, err := viz.RadiusPlot(store, target, config.DefaultAU, 80, 10)
	if err != nil {
		return err
	}
	fmt.Println(radius)
	fmt.Println()

	coords, err := viz.CoordinatePlot(store, target, config.DefaultAU, 80, 10)
	if err != nil {
		return err
	}
	fmt.Println(coords)
	fmt.Println()

	// the plotted body goes first so it is drawn with the solid marker
	order := []string{target}
	for _, name := range store.Bodies() {
		if name != target {
			order = append(order, name)
		}
	}
	portraits := make([]*analysis.Portrait, 0, len(order))
	for _, name := range order {
		p, err := analysis.NewPortrait(store, name)
		if err != nil {
			return err
		}
		portraits = append(portraits, p)
	}
	fmt.Printf("orbit (xy, • %s):\n", target)
	fmt.Println(analysis.PortraitToASCII(portraits, 70, 30))

	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, store, err := loadRun(args[0])
	if err != nil {
		return err
	}

	names, err := orbiting(store)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s (%d samples, dt %.3g days)\n\n", meta.ID, store.Len(), store.Dt()/secondsPerDay)

	for _, name := range names {
		r, err := store.Radius(name)
		if err != nil {
			return err
		}

		padded := make([]float64, analysis.NextPow2(len(r)))
		copy(padded, r)
		ps := analysis.PowerSpectrum(padded)
		if len(ps) > 4 {
			graph := asciigraph.Plot(ps[1:len(ps)/4],
				asciigraph.Height(10),
				asciigraph.Width(80),
				asciigraph.Caption(fmt.Sprintf("%s radius power spectrum", name)),
			)
			fmt.Println(graph)
			fmt.Println()
		}

		fmt.Println(viz.HeaderStyle.Render(name))
		if period, err := analysis.OrbitalPeriod(store, name); err == nil {
			fmt.Println(viz.Metric("swept period", fmt.Sprintf("%.2f days", period/secondsPerDay)))
		}
		if period, err := analysis.DominantPeriod(r, store.Dt()); err == nil {
			fmt.Println(viz.Metric("radius period", fmt.Sprintf("%.2f days", period/secondsPerDay)))
		} else {
			fmt.Println(viz.Metric("radius period", err.Error()))
		}
		if swept, err := analysis.SweptAngle(store, name); err == nil {
			fmt.Println(viz.Metric("revolutions", fmt.Sprintf("%.3f", swept/(2*math.Pi))))
		}
		fmt.Println()
	}

	return nil
}

// output opens --out, or stdout when it is empty.
func output() (io.WriteCloser, error) {
	if outPath == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(outPath)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// writeOutput runs write against w and closes it. A close error is
// returned when the write itself succeeded, so a short write to --out
// fails the command.
func writeOutput(w io.WriteCloser, write func(io.Writer) error) error {
	if err := write(w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func exportCSV(cmd *cobra.Command, args []string) error {
	_, store, err := loadRun(args[0])
	if err != nil {
		return err
	}

	w, err := output()
	if err != nil {
		return err
	}

	return writeOutput(w, func(w io.Writer) error {
		return export.WriteCSV(w, store)
	})
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, store, err := loadRun(args[0])
	if err != nil {
		return err
	}

	w, err := output()
	if err != nil {
		return err
	}

	summary := export.Summary{
		Preset:   meta.Preset,
		Dt:       meta.Dt,
		Duration: meta.Duration,
		Metrics:  meta.Metrics,
	}
	return writeOutput(w, func(w io.Writer) error {
		return export.WriteJSON(w, summary, store)
	})
}

func exportSVG(cmd *cobra.Command, args []string) error {
	_, store, err := loadRun(args[0])
	if err != nil {
		return err
	}

	svg := export.TrajectorySVG(store, svgWidth, svgHeight)
	if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", svgOut)
	return nil
}

func animate(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		meta, store, err := loadRun(args[0])
		if err != nil {
			return err
		}
		return viz.Run(store, meta.Preset)
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	store, err := sim.Simulate(ctx, cfg)
	if err != nil {
		return err
	}
	return viz.Run(store, configName(cfg))
}

func compareTimeSteps(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	results, err := experiment.Sweep(ctx, cfg, sweepDts, sweepLimit)
	if err != nil {
		return err
	}

	fmt.Printf("%s, %.0f days, %d runs in %v\n\n", configName(cfg), cfg.DurationDays, len(results), time.Since(start).Round(time.Millisecond))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := []string{"DT", "STEPS", "MOMENTUM", "ENERGY"}
	for _, b := range cfg.Bodies {
		header = append(header, "CLOSURE "+strings.ToUpper(b.Name))
	}
	fmt.Fprintln(w, strings.Join(header, "\t"))

	for _, r := range results {
		row := []string{
			fmt.Sprintf("%gd", r.DtDays),
			fmt.Sprintf("%d", r.Steps),
			fmt.Sprintf("%.4e", r.Metrics["momentum_drift"]),
			fmt.Sprintf("%.4e", r.Metrics["energy_drift"]),
		}
		for _, b := range cfg.Bodies {
			row = append(row, fmt.Sprintf("%.4e", r.Metrics["closure_"+b.Name]))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}

	return w.Flush()
}

func bench(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if benchRuns < 1 {
		return fmt.Errorf("runs must be positive")
	}

	steps := sim.StepCount(cfg.Duration(), cfg.Dt())
	fmt.Printf("benchmarking %s (%d bodies, %d steps) over %d runs...\n", configName(cfg), len(cfg.Bodies), steps, benchRuns)

	var total time.Duration
	for i := 0; i < benchRuns; i++ {
		start := time.Now()
		if _, err := sim.Simulate(context.Background(), cfg); err != nil {
			return err
		}
		total += time.Since(start)
	}

	avg := total / time.Duration(benchRuns)
	perStep := avg / time.Duration(steps)

	fmt.Println(viz.Metric("per run", avg.String()))
	fmt.Println(viz.Metric("per step", perStep.String()))
	fmt.Println(viz.Metric("steps/sec", fmt.Sprintf("%.0f", float64(steps)/avg.Seconds())))
	fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("242")).Render(fmt.Sprintf("parallel=%v", cfg.Parallel)))

	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(filepath.Join(dataDir, "runs"))
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("scenario %s: %d steps\n", scenario.Name, len(scenario.Steps))
	results, err := automation.RunScenario(ctx, scenario, experiment.NewRegistry())
	for i, r := range results {
		runID, saveErr := st.Save(storage.RunMetadata{
			Preset:     configName(r.Config),
			Dt:         r.Config.Dt(),
			Duration:   r.Config.Duration(),
			Integrator: experiment.IntegratorFor(r.Config),
			Metrics:    r.Result.Metrics,
		}, r.Result.Trajectories)
		if saveErr != nil {
			return saveErr
		}
		fmt.Printf("  %d. %s  momentum %.3e  energy %.3e\n", i+1, runID, r.Result.Metrics["momentum_drift"], r.Result.Metrics["energy_drift"])
	}
	return err
}

func monteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("%d trials of %s, velocities perturbed by up to %.1f%%...\n", trials, configName(cfg), perturb*100)
	results, err := automation.RunMonteCarlo(ctx, &automation.MonteCarloConfig{
		Base:         cfg,
		Perturbation: perturb,
		NumTrials:    trials,
		Seed:         seed,
	}, experiment.NewRegistry())
	if err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Println(viz.Metric("stable", fmt.Sprintf("%d", stable)))
	fmt.Println(viz.Metric("unstable", fmt.Sprintf("%d", unstable)))
	fmt.Println(viz.ProgressBar(float64(stable)/float64(len(results)), 40))
	return nil
}

func tune(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	metric := tuneMetric
	if metric == "" {
		metric = "radius_spread_" + tuneBody
	}

	ctx, cancel := signalContext()
	defer cancel()

	grid := optim.Linspace(tuneMin, tuneMax, tunePoints)
	gs := optim.NewGridSearch([]string{tuneBody}, [][]float64{grid})

	fmt.Printf("searching %d velocities for %s in [%.0f, %.0f] m/s...\n", len(grid), tuneBody, tuneMin, tuneMax)
	params, best, err := gs.Search(ctx, optim.VelocityBuilder(cfg, experiment.NewRegistry()), metric)
	if err != nil {
		return err
	}

	fmt.Println(viz.Metric("velocity", fmt.Sprintf("%.1f m/s", params[tuneBody])))
	fmt.Println(viz.Metric(metric, fmt.Sprintf("%.6g", best)))
	return nil
}
