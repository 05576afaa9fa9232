package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/ripple/internal/compute"
	"github.com/san-kum/ripple/internal/config"
	"github.com/san-kum/ripple/internal/gui"
	"github.com/san-kum/ripple/internal/pipeline"
	"github.com/san-kum/ripple/internal/tui"
	"github.com/san-kum/ripple/internal/viz"
	"github.com/san-kum/ripple/internal/water"
)

var (
	theme string
	force bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "ripple",
		Short:         "interactive water surface simulation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger(logFormat, verbose)
		},
		RunE: runWindow,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "start from a preset configuration")
	pf.StringVar(&logFormat, "log-format", "text", "log format (text|json)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	pf.IntVar(&workers, "workers", 0, "cpu backend workers (0 = one per cpu)")
	pf.StringVar(&dataDir, "data", ".ripple", "directory for saved bench runs")
	addSimFlags(pf)

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "preview the surface in the terminal",
		RunE:  runTUI,
	}
	tuiCmd.Flags().StringVar(&theme, "theme", "ocean", "colour theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "run headless frames with a scripted press and report diagnostics",
		RunE:  runBench,
	}
	benchCmd.Flags().IntVar(&benchFrames, "frames", 120, "frames to run")
	benchCmd.Flags().IntVar(&benchEvery, "every", 5, "sample metrics every n frames")
	benchCmd.Flags().IntVar(&benchPress, "press", 20, "frames the pointer stays pressed")
	benchCmd.Flags().BoolVar(&benchSave, "save", false, "store the run under --data")
	benchCmd.Flags().StringVar(&benchSVG, "svg", "", "write the final height profile as svg")

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list saved bench runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a metric of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotMetric, "metric", "energy", "metric to plot")
	plotCmd.Flags().StringVar(&plotSVG, "svg", "", "also write the plot as svg")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print a saved run as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "print and validate the frame schedule",
		RunE:  printSchedule,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets, or show one as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showPresets,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "manage config files",
	}
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write the resolved configuration to a yaml file",
		Args:  cobra.ExactArgs(1),
		RunE:  initConfig,
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	configCmd.AddCommand(initCmd)

	rootCmd.AddCommand(tuiCmd, benchCmd, runsCmd, plotCmd, exportCmd, scheduleCmd, presetsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("ripple failed", "err", err)
		os.Exit(1)
	}
}

func runWindow(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Backend == "cpu" {
		slog.Info("cpu backend selected, using the terminal preview")
		return runPreview(cmd, cfg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	win, err := gui.Open(gui.Options{
		Width:    cfg.Width,
		Height:   cfg.Height,
		Sky:      cfg.Sky,
		Floor:    cfg.Floor,
		Params:   water.ParamsFromConfig(cfg),
		Interval: cfg.RedrawInterval,
		Vsync:    cfg.Vsync,
		FPS:      cfg.FPS,
		Logger:   slog.Default(),
	})
	if err != nil {
		return err
	}
	defer win.Close()
	return win.Run(ctx)
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	return runPreview(cmd, cfg)
}

func runPreview(cmd *cobra.Command, cfg *config.Config) error {
	sky, floor := headlessBackground(cmd, cfg)
	return tui.Run(tui.Options{
		Params:   water.ParamsFromConfig(cfg),
		Sky:      sky,
		Floor:    floor,
		Workers:  workers,
		Interval: cfg.RedrawInterval,
		Theme:    theme,
		Logger:   slog.Default(),
	})
}

// newCPUSim builds the simulation on the CPU backend, so commands that do
// not open a window need no GL context.
func newCPUSim(cmd *cobra.Command, cfg *config.Config) (*water.Sim, *compute.CPUBackend, error) {
	dev := compute.NewCPUBackend(water.Kernels())
	if workers > 0 {
		dev.SetWorkers(workers)
	}
	st, err := water.NewState(dev, cfg.Width, cfg.Height)
	if err != nil {
		return nil, nil, err
	}
	sky, floor := headlessBackground(cmd, cfg)
	if err := st.LoadBackground(sky, floor); err != nil {
		return nil, nil, err
	}
	sim, err := water.New(dev, st, water.ParamsFromConfig(cfg))
	if err != nil {
		return nil, nil, err
	}
	sim.SetLogger(slog.Default())
	return sim, dev, nil
}

func printSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	sim, dev, err := newCPUSim(cmd, cfg)
	if err != nil {
		return err
	}
	defer dev.Close()

	frame := sim.Schedule()
	fmt.Println(viz.Title.Render(fmt.Sprintf("%s: %d passes", frame.Name, len(frame.Passes))))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tPASS\tKIND\tBINDINGS\tBARRIER")
	for i, p := range frame.Passes {
		kind := "dispatch"
		if p.Draw {
			kind = "draw"
		}
		var bindings string
		for j, b := range p.Bindings {
			if j > 0 {
				bindings += " "
			}
			bindings += fmt.Sprintf("%d:%s(%s)", b.Slot, b.Field, b.Access)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%v\n", i, p.Name, kind, bindings, p.Barrier)
	}
	w.Flush()

	st := sim.State()
	fmt.Println()
	printReaders(os.Stdout, frame, []compute.Field{st.Pos, st.Vel, st.Acc, st.Normal, st.Photon, st.Sky, st.Floor})

	if err := pipeline.Repeat(frame, 2).Validate(); err != nil {
		fmt.Println(viz.StatusError.Render("invalid"))
		return err
	}
	fmt.Println(viz.StatusRunning.Render("valid across consecutive frames"))
	return nil
}

// printReaders lists, per field, the passes of frame that read it.
func printReaders(out io.Writer, frame pipeline.Schedule, fields []compute.Field) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FIELD\tREADERS")
	for _, f := range fields {
		readers := frame.Reads(f)
		if len(readers) == 0 {
			readers = []string{"-"}
		}
		fmt.Fprintf(w, "%s\t%s\n", f, strings.Join(readers, " "))
	}
	w.Flush()
}

func showPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		fmt.Println(viz.Title.Render("presets"))
		for _, name := range config.ListPresets() {
			fmt.Println("  " + name)
		}
		return nil
	}
	cfg := config.GetPreset(args[0])
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}

func initConfig(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	slog.Info("config written", "path", path)
	return nil
}
