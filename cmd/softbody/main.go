package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/softbody/internal/config"
	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/experiment"
	"github.com/san-kum/softbody/internal/export"
	"github.com/san-kum/softbody/internal/sim"
	"github.com/san-kum/softbody/internal/storage"
	"github.com/san-kum/softbody/internal/timestep"
	"github.com/san-kum/softbody/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	method     string
	dt         float64
	duration   float64
	stiffness  float64
	poisson    float64
	normStr    bool
	normShear  bool
	mass       float64
	fixLeft    bool
	sample     int
	barWidth   int
	barHeight  int
	barDepth   int
	spacing    float64
	// plot / svg
	metricName string
	frameIdx   int
	outFile    string
	svgWidth   int
	svgHeight  int
	// bench
	benchSteps int
	// export-csv
	seriesCSV bool
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("softbody: ")

	rootCmd := &cobra.Command{
		Use:   "softbody",
		Short: "position based soft body simulation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPicker()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".softbody", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run simulation and save it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot metric series of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&metricName, "metric", "", "plot only this metric")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run frames to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().BoolVar(&seriesCSV, "series", false, "export metric series instead of frames")

	presetsCmd := &cobra.Command{
		Use:   "presets [scenario]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	liveCmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "run simulation with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSimFlags(liveCmd)

	compareCmd := &cobra.Command{
		Use:   "compare [scenario]",
		Short: "run every method on the same scenario",
		Args:  cobra.MaximumNArgs(1),
		RunE:  compareMethods,
	}
	addSimFlags(compareCmd)

	benchCmd := &cobra.Command{
		Use:   "bench [scenario]",
		Short: "measure step throughput per method",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchMethods,
	}
	addSimFlags(benchCmd)
	benchCmd.Flags().IntVar(&benchSteps, "steps", 200, "steps per method")

	svgCmd := &cobra.Command{
		Use:   "svg [run_id]",
		Short: "render a frame or a metric series of a run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  renderSVG,
	}
	svgCmd.Flags().IntVar(&frameIdx, "frame", -1, "frame index, negative counts from the end")
	svgCmd.Flags().StringVar(&metricName, "metric", "", "plot this metric series instead of a frame")
	svgCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	svgCmd.Flags().IntVar(&svgWidth, "width", 800, "image width")
	svgCmd.Flags().IntVar(&svgHeight, "height", 600, "image height")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, exportJSONCmd, exportCSVCmd, presetsCmd, liveCmd, compareCmd, benchCmd, svgCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	d := config.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.StringVar(&method, "method", d.Method, "method: distance, fem, sbd (or 1, 2, 3)")
	f.Float64Var(&dt, "dt", d.Dt, "timestep")
	f.Float64Var(&duration, "time", d.Duration, "duration")
	f.Float64Var(&stiffness, "stiffness", d.Stiffness, "constraint stiffness")
	f.Float64Var(&poisson, "poisson", d.PoissonRatio, "poisson ratio (fem)")
	f.BoolVar(&normStr, "normalize-stretch", d.NormalizeStretch, "normalize stretch (sbd)")
	f.BoolVar(&normShear, "normalize-shear", d.NormalizeShear, "normalize shear (sbd)")
	f.Float64Var(&mass, "mass", d.Mass, "particle mass")
	f.BoolVar(&fixLeft, "fix-left", d.FixLeftEnd, "pin the particles at minimum x")
	f.IntVar(&sample, "sample", d.SampleEvery, "record a frame every n steps")
	f.IntVar(&barWidth, "width", d.Bar.Width, "bar points along x")
	f.IntVar(&barHeight, "height", d.Bar.Height, "bar points along y")
	f.IntVar(&barDepth, "depth", d.Bar.Depth, "bar points along z")
	f.Float64Var(&spacing, "spacing", d.Bar.Spacing, "grid spacing")
}

// loadConfig resolves defaults, then preset, then config file, then flags
// that were set explicitly.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		cfg.Scenario = args[0]
	}

	if preset != "" {
		p := config.GetPreset(cfg.Scenario, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Scenario))
		}
		cfg = p
	}

	if configFile != "" {
		if err := config.LoadInto(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if len(args) > 0 {
			cfg.Scenario = args[0]
		}
	}

	f := cmd.Flags()
	if f.Changed("method") {
		cfg.Method = method
	}
	if f.Changed("dt") {
		cfg.Dt = dt
	}
	if f.Changed("time") {
		cfg.Duration = duration
	}
	if f.Changed("stiffness") {
		cfg.Stiffness = stiffness
	}
	if f.Changed("poisson") {
		cfg.PoissonRatio = poisson
	}
	if f.Changed("normalize-stretch") {
		cfg.NormalizeStretch = normStr
	}
	if f.Changed("normalize-shear") {
		cfg.NormalizeShear = normShear
	}
	if f.Changed("mass") {
		cfg.Mass = mass
	}
	if f.Changed("fix-left") {
		cfg.FixLeftEnd = fixLeft
	}
	if f.Changed("sample") {
		cfg.SampleEvery = sample
	}
	if f.Changed("width") {
		cfg.Bar.Width = barWidth
	}
	if f.Changed("height") {
		cfg.Bar.Height = barHeight
	}
	if f.Changed("depth") {
		cfg.Bar.Depth = barDepth
	}
	if f.Changed("spacing") {
		cfg.Bar.Spacing = spacing
	}

	return cfg, cfg.Validate()
}

func setup(cfg *config.Config) (*experiment.Experiment, error) {
	exp := experiment.New(cfg)
	if err := exp.Setup(experiment.NewRegistry()); err != nil {
		return nil, err
	}
	return exp, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp, err := setup(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s with %s (%d particles, %d tets)...\n",
		cfg.Scenario, cfg.Method, exp.Model().Particles.Size(), exp.Model().Mesh.NumTets())
	start := time.Now()

	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	for _, e := range result.Errors {
		log.Printf("run stopped early: %v", e)
	}

	runID, err := st.Save(metadata(cfg, exp), result)
	if err != nil {
		return err
	}
	log.Printf("saved run to %s", filepath.Join(dataDir, runID))

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Println("\nmetrics:")
	printMetrics(result.Metrics)

	return nil
}

func metadata(cfg *config.Config, exp *experiment.Experiment) storage.RunMetadata {
	m := exp.Model()
	return storage.RunMetadata{
		Scenario:         cfg.Scenario,
		Method:           exp.Stepper().Method().Kind().String(),
		Dt:               cfg.Dt,
		Duration:         cfg.Duration,
		Stiffness:        cfg.Stiffness,
		PoissonRatio:     cfg.PoissonRatio,
		NormalizeStretch: cfg.NormalizeStretch,
		NormalizeShear:   cfg.NormalizeShear,
		NumParticles:     m.Particles.Size(),
		NumTets:          m.Mesh.NumTets(),
		Edges:            m.Mesh.Edges(),
	}
}

func printMetrics(metrics map[string]float64) {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6g\n", name, metrics[name])
	}
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
	fmt.Fprintln(w, "ID\tSCENARIO\tMETHOD\tTIME\tDURATION\tDT\tSTEPS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fs\t%.4fs\t%d\n",
			run.ID,
			run.Scenario,
			run.Method,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.StepsTaken,
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

	times, series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s  method: %s\n", meta.Scenario, meta.Method)
	fmt.Printf("samples: %d\n\n", len(times))

	names := storage.SeriesNames(series)
	if metricName != "" {
		if _, ok := series[metricName]; !ok {
			return fmt.Errorf("no metric %q (available: %s)", metricName, strings.Join(names, ", "))
		}
		names = []string{metricName}
	}

	for _, name := range names {
		if len(series[name]) == 0 {
			continue
		}
		graph := asciigraph.Plot(series[name],
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name+" vs time"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func loadResult(st *storage.Store, runID string) (*storage.RunMetadata, *dynamo.Result, error) {
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return nil, nil, err
	}
	times, series, err := st.LoadSeries(runID)
	if err != nil {
		return nil, nil, err
	}

	return meta, &dynamo.Result{
		Frames:     frames,
		Times:      times,
		Series:     series,
		Metrics:    meta.Metrics,
		StepsTaken: meta.StepsTaken,
	}, nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, result, err := loadResult(storage.New(dataDir), args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, *meta, result)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)

	if seriesCSV {
		times, series, err := st.LoadSeries(args[0])
		if err != nil {
			return err
		}
		return storage.WriteSeriesCSV(os.Stdout, times, series)
	}

	frames, err := st.LoadFrames(args[0])
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no data to export")
	}
	return storage.WriteFramesCSV(os.Stdout, frames)
}

func listPresets(cmd *cobra.Command, args []string) error {
	scenarios := experiment.NewRegistry().ListScenarios()
	if len(args) > 0 {
		scenarios = args
	}

	for _, scenario := range scenarios {
		presets := config.ListPresets(scenario)
		if len(presets) == 0 {
			fmt.Printf("no presets for scenario: %s\n", scenario)
			continue
		}
		fmt.Printf("presets for %s:\n", scenario)
		for _, p := range presets {
			cfg := config.GetPreset(scenario, p)
			fmt.Printf("  %-10s method=%s stiffness=%g duration=%gs\n", p, cfg.Method, cfg.Stiffness, cfg.Duration)
		}
	}
	return nil
}

func liveModel(cfg *config.Config) (viz.Model, error) {
	exp, err := setup(cfg)
	if err != nil {
		return viz.Model{}, err
	}
	title := fmt.Sprintf("%s soft body", cfg.Scenario)
	return viz.NewModel(exp.Model(), exp.Stepper(), cfg.Dt, cfg.MethodParams(), title), nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	m, err := liveModel(cfg)
	if err != nil {
		return err
	}
	return viz.Run(m)
}

func runPicker() error {
	var items []viz.PresetItem
	for _, scenario := range experiment.NewRegistry().ListScenarios() {
		for _, name := range config.ListPresets(scenario) {
			items = append(items, viz.PresetItem{
				Scenario: scenario,
				Name:     name,
				Config:   config.GetPreset(scenario, name),
			})
		}
	}
	return viz.RunPicker(viz.NewPicker(items, liveModel))
}

func compareMethods(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	ens := sim.NewEnsemble()
	for _, k := range timestep.Kinds() {
		cfg := *base
		cfg.Method = k.String()
		exp, err := setup(&cfg)
		if err != nil {
			return err
		}
		ens.Add(k.String(), exp.GetSimulator())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	results, err := ens.Run(ctx, base.SimConfig())
	if err != nil {
		return err
	}

	header := fmt.Sprintf("comparing methods on %s (dt=%.4f, duration=%.1fs, %v)", base.Scenario, base.Dt, base.Duration, time.Since(start).Round(time.Millisecond))
	fmt.Println(viz.HeaderStyle.Render(header))
	fmt.Println()

	title := lipgloss.NewStyle().Bold(true)
	fmt.Println(title.Render(fmt.Sprintf("%-10s  %-12s  %-12s  %-12s  %s", "method", "volume_err", "edge_strain", "energy_drift", "volume error over time")))
	fmt.Println(strings.Repeat("─", 80))

	for i, k := range timestep.Kinds() {
		r := results[i]
		fmt.Printf("%-10s  %12.3e  %12.3e  %12.3e  %s\n",
			k.String(),
			r.Metrics["volume_error"],
			r.Metrics["edge_strain"],
			r.Metrics["energy_drift"],
			viz.SparklineChart(r.Series["volume_error"], 30),
		)
		for _, e := range r.Errors {
			log.Printf("%s: %v", k, e)
		}
	}

	return nil
}

func benchMethods(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if benchSteps <= 0 {
		return fmt.Errorf("steps must be positive: %w", dynamo.ErrParameterBounds)
	}

	fmt.Printf("benchmarking %s, %d steps per method\n\n", base.Scenario, benchSteps)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tPARTICLES\tTETS\tTIME\tNS/STEP\tSTEPS/SEC")

	for _, k := range timestep.Kinds() {
		cfg := *base
		cfg.Method = k.String()
		exp, err := setup(&cfg)
		if err != nil {
			return err
		}

		m := exp.Model()
		clock := dynamo.NewClock(cfg.Dt)
		start := time.Now()
		for i := 0; i < benchSteps; i++ {
			exp.Stepper().Step(clock, m)
		}
		elapsed := time.Since(start)

		fmt.Fprintf(w, "%s\t%d\t%d\t%v\t%d\t%.0f\n",
			k, m.Particles.Size(), m.Mesh.NumTets(), elapsed.Round(time.Microsecond),
			elapsed.Nanoseconds()/int64(benchSteps),
			float64(benchSteps)/elapsed.Seconds())
	}

	return w.Flush()
}

func renderSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	var svg string
	if metricName != "" {
		times, series, err := st.LoadSeries(runID)
		if err != nil {
			return err
		}
		values, ok := series[metricName]
		if !ok {
			return fmt.Errorf("no metric %q (available: %s)", metricName, strings.Join(storage.SeriesNames(series), ", "))
		}
		svg = export.SeriesToSVG(times, values, svgWidth, svgHeight, "#ffd700")
	} else {
		meta, err := st.Load(runID)
		if err != nil {
			return err
		}
		frames, err := st.LoadFrames(runID)
		if err != nil {
			return err
		}
		if len(frames) == 0 {
			return fmt.Errorf("no frames in run %s", runID)
		}

		idx := frameIdx
		if idx < 0 {
			idx += len(frames)
		}
		if idx < 0 || idx >= len(frames) {
			return fmt.Errorf("frame %d out of range [0, %d)", frameIdx, len(frames))
		}

		cam := viz.NewCamera()
		cam.Fit(frames[0].Positions)
		svg = export.MeshToSVG(frames[idx].Positions, meta.Edges, cam, svgWidth, svgHeight, "#00a8cc")
	}

	if svg == "" {
		return fmt.Errorf("nothing to render")
	}
	if outFile == "" {
		fmt.Println(svg)
		return nil
	}
	if err := os.WriteFile(outFile, []byte(svg), 0644); err != nil {
		return err
	}
	log.Printf("wrote %s", outFile)
	return nil
}
