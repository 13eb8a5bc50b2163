package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/ldodsn/internal/config"
	"github.com/san-kum/ldodsn/internal/export"
	"github.com/san-kum/ldodsn/internal/ldo"
	"github.com/san-kum/ldodsn/internal/mos"
	"github.com/san-kum/ldodsn/internal/storage"
	"github.com/san-kum/ldodsn/internal/tui"
	"github.com/san-kum/ldodsn/internal/viz"
)

var (
	dataDir  string
	logLevel string
	// design
	preset    string
	dumpPath  string
	format    string
	live      bool
	bodePath  string
	growthCap int
	// tabulate
	intent   string
	simEnv   string
	outPath  string
	axisVmax float64
	axisStep int
	// bode sampling, Hz
	fStart  = 1.0
	fStop   = 1e10
	fPoints = 201
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ldodsn",
		Short: "LDO regulator sizing from transistor tables",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logrus.SetLevel(lvl)
			logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".ldodsn", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	designCmd := &cobra.Command{
		Use:   "design [spec.yaml]",
		Short: "size an LDO for a spec file or preset",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDesign,
	}
	designCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration (group/name, e.g. p/1v8_1v2)")
	designCmd.Flags().StringVar(&dumpPath, "dump", "", "write schematic params to file instead of stdout")
	designCmd.Flags().StringVar(&format, "format", "yaml", "schematic params format (yaml, json)")
	designCmd.Flags().BoolVar(&live, "live", false, "show sweep progress while searching")
	designCmd.Flags().StringVar(&bodePath, "bode", "", "save loop gain Bode plot of the result (png, svg, pdf)")
	designCmd.Flags().IntVar(&growthCap, "max-growth", ldo.DefaultMaxGrowthSteps, "bound on amplifier current growth steps")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a stored design",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot sweep budget and loop gain of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset specs",
		RunE:  listPresets,
	}

	tabulateCmd := &cobra.Command{
		Use:   "tabulate [device.yaml|builtin:name]",
		Short: "sample a device's square-law models into lookup grids",
		Args:  cobra.ExactArgs(1),
		RunE:  tabulateDevice,
	}
	tabulateCmd.Flags().StringVar(&intent, "intent", "", "only tabulate this threshold flavor")
	tabulateCmd.Flags().StringVar(&simEnv, "env", "", "only tabulate this corner")
	tabulateCmd.Flags().StringVarP(&outPath, "out", "o", "", "output device file")
	tabulateCmd.Flags().Float64Var(&axisVmax, "vmax", 1.8, "largest |vgs| and |vds| sampled")
	tabulateCmd.Flags().IntVar(&axisStep, "steps", 37, "points per vgs/vds axis")
	tabulateCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(designCmd, listCmd, showCmd, plotCmd, presetsCmd, tabulateCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(args []string) (*config.Config, string, error) {
	switch {
	case preset != "":
		group, name, ok := strings.Cut(preset, "/")
		if !ok {
			return nil, "", fmt.Errorf("preset must be group/name, got %q", preset)
		}
		cfg := config.GetPreset(group, name)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(group))
		}
		return cfg, "preset:" + preset, nil
	case len(args) == 1:
		cfg, err := config.Load(args[0])
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, args[0], nil
	}
	return config.DefaultConfig(), "default", nil
}

func runDesign(cmd *cobra.Command, args []string) error {
	cfg, source, err := loadConfig(args)
	if err != nil {
		return err
	}
	spec, err := cfg.Spec()
	if err != nil {
		return err
	}
	tables, err := cfg.Tables()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := []ldo.Option{
		ldo.WithLogger(logrus.WithField("source", source)),
		ldo.WithMaxGrowthSteps(growthCap),
	}

	start := time.Now()
	var (
		sch    *ldo.SchematicParams
		best   []ldo.Candidate
		points []ldo.SweepPoint
	)
	if live {
		sch, best, points, err = tui.Run(ctx, spec, tables, opts...)
	} else {
		collect := ldo.ObserverFunc(func(p ldo.SweepPoint) { points = append(points, p) })
		var d *ldo.Designer
		d, err = ldo.NewDesigner(spec, tables, append(opts, ldo.WithObserver(collect))...)
		if err == nil {
			fmt.Printf("designing %s (%s pass device)...\n", source, spec.SerType)
			sch, best, err = d.Design(ctx)
		}
	}
	solved := !errors.Is(err, ldo.ErrNoSolution)
	if err != nil && solved {
		return err
	}
	elapsed := time.Since(start)

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(source, spec, best[0], points)
	if err != nil {
		return err
	}

	fmt.Println(viz.Report(spec, best[0]))
	fmt.Println(viz.SweepSummary(points))
	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)

	if !solved {
		fmt.Println(ldo.NoSolution)
		return nil
	}

	if dumpPath != "" {
		if err := export.SaveSchematic(dumpPath, sch, format); err != nil {
			return err
		}
		fmt.Printf("schematic params: %s\n", dumpPath)
	} else {
		fmt.Println()
		if err := export.WriteSchematic(os.Stdout, sch, format); err != nil {
			return err
		}
	}

	if bodePath != "" {
		freqs, resp, err := loopResponse(best[0], spec)
		if err != nil {
			return err
		}
		if err := export.SaveBode(bodePath, freqs, resp); err != nil {
			return err
		}
		fmt.Printf("bode plot: %s\n", bodePath)
	}
	return nil
}

func loopResponse(c ldo.Candidate, spec ldo.Spec) ([]float64, []complex128, error) {
	freqs := floats.LogSpan(make([]float64, fPoints), fStart, fStop)
	resp, err := ldo.LoopResponse(c, spec, freqs)
	return freqs, resp, err
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
	fmt.Fprintln(w, "ID\tSOURCE\tTIME\tSER\tVDD\tVOUT\tFOUND\tIBIAS\tPOINTS")

	for _, run := range runs {
		ibias := "-"
		if run.Found {
			ibias = viz.SI(run.Metrics["ibias"], "A")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%.2f\t%t\t%s\t%d\n",
			run.ID,
			run.Source,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Spec.SerType,
			run.Spec.Vdd,
			run.Spec.Vout,
			run.Found,
			ibias,
			run.Points,
		)
	}

	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, ldo.Candidate, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, ldo.Candidate{}, err
	}
	c, err := st.LoadCandidate(runID)
	if errors.Is(err, storage.ErrNoCandidate) {
		return meta, ldo.Sentinel(), nil
	}
	if err != nil {
		return nil, ldo.Candidate{}, err
	}
	return meta, *c, nil
}

func showRun(cmd *cobra.Command, args []string) error {
	meta, c, err := loadRun(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("source: %s\n\n", meta.Source)
	fmt.Println(viz.Report(meta.Spec, c))
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, c, err := loadRun(args[0])
	if err != nil {
		return err
	}
	points, err := storage.New(dataDir).LoadSweep(meta.ID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("sweep points: %d\n\n", len(points))
	fmt.Println(viz.SweepPlot(points))
	fmt.Println()

	if !c.Found() {
		fmt.Println(ldo.NoSolution)
		return nil
	}
	freqs, resp, err := loopResponse(c, meta.Spec)
	if err != nil {
		return err
	}
	fmt.Println(viz.BodePlot(freqs, resp))
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	for _, group := range []string{string(mos.P), string(mos.N)} {
		fmt.Printf("%s-series:\n", group)
		for _, name := range config.ListPresets(group) {
			cfg := config.GetPreset(group, name)
			fmt.Printf("  %s/%-14s vdd %.2f V  vout %.2f V  iload %s\n",
				group, name, cfg.Params.Vdd, cfg.Params.Vout, viz.SI(cfg.Params.Iload, "A"))
		}
	}
	fmt.Printf("builtin devices: %v\n", mos.ListBuiltins())
	return nil
}

func tabulateDevice(cmd *cobra.Command, args []string) error {
	dev, err := mos.LoadDevice(args[0])
	if err != nil {
		return err
	}
	if axisStep < 2 {
		return fmt.Errorf("need at least 2 steps per axis, got %d", axisStep)
	}

	sign := dev.Type.Sign()
	span := func(a, b float64, n int) []float64 {
		return floats.Span(make([]float64, n), sign*a, sign*b)
	}
	vgs := span(0, axisVmax, axisStep)
	vds := span(0, axisVmax, axisStep)
	vbs := span(-axisVmax/2, 0, max(2, axisStep/4))

	count := 0
	for env, intents := range dev.Envs {
		if simEnv != "" && env != simEnv {
			continue
		}
		for name, m := range intents {
			if intent != "" && name != intent {
				continue
			}
			if m.SquareLaw == nil {
				continue
			}
			t, err := dev.Table(name, env)
			if err != nil {
				return err
			}
			g, err := mos.Tabulate(t, vgs, vds, vbs)
			if err != nil {
				return err
			}
			intents[name] = mos.Model{Grid: g}
			count++
			logrus.WithFields(logrus.Fields{"env": env, "intent": name, "points": len(vgs) * len(vds) * len(vbs)}).Debug("tabulated")
		}
	}
	if count == 0 {
		return fmt.Errorf("nothing to tabulate in %s", args[0])
	}

	if err := mos.SaveDevice(outPath, dev); err != nil {
		return err
	}
	fmt.Printf("tabulated %d models into %s\n", count, outPath)
	return nil
}
