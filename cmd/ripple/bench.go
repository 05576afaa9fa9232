package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/san-kum/ripple/internal/config"
	"github.com/san-kum/ripple/internal/export"
	"github.com/san-kum/ripple/internal/metrics"
	"github.com/san-kum/ripple/internal/storage"
	"github.com/san-kum/ripple/internal/viz"
	"github.com/san-kum/ripple/internal/water"
)

var (
	benchFrames int
	benchEvery  int
	benchPress  int
	benchSave   bool
	benchSVG    string
)

// pressScript presses at the grid centre for the first press frames, then
// hovers, and leaves the surface halfway through the run.
type pressScript struct {
	press, leave int
}

func (p pressScript) apply(frame int, s *water.Sim) {
	in := s.Interaction()
	st := s.State()
	switch frame {
	case 0:
		in.PointerEnter()
		in.PointerMove(float64(st.Width)/2, float64(st.Height)/2)
		in.ButtonDown(water.ButtonPrimary)
	case p.press:
		in.ButtonUp(water.ButtonPrimary)
	case p.leave:
		in.PointerLeave()
	}
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if benchFrames < 1 {
		return fmt.Errorf("frames must be positive, got %d", benchFrames)
	}

	sim, dev, err := newCPUSim(cmd, cfg)
	if err != nil {
		return err
	}
	defer dev.Close()

	rec := metrics.NewRecorder(benchEvery,
		metrics.NewEnergy(),
		metrics.NewEnergyDrift(),
		metrics.NewHeight(),
		metrics.NewPhotonMean(),
		metrics.NewStability(1e3),
	)
	sim.AddObserver(rec)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	script := pressScript{press: benchPress, leave: benchFrames / 2}
	slog.Info("bench started", "backend", dev.Name(), "grid", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height), "frames", benchFrames)

	var slowest time.Duration
	start := time.Now()
	for i := 0; i < benchFrames; i++ {
		if ctx.Err() != nil {
			slog.Warn("bench interrupted", "frame", i)
			break
		}
		script.apply(i, sim)
		t := time.Now()
		if err := sim.Advance(); err != nil {
			return err
		}
		slowest = max(slowest, time.Since(t))
	}
	elapsed := time.Since(start)
	if err := rec.Err(); err != nil {
		return err
	}

	frames := sim.Frames()
	fmt.Println(viz.HeaderStyle.Render(fmt.Sprintf("ripple bench  %dx%d  %s", cfg.Width, cfg.Height, dev.Name())))
	fmt.Println()
	fmt.Println(viz.Plot(rec.Series("energy"), "surface energy", 72, 10))
	fmt.Println()
	fmt.Println(viz.Plot(rec.Series("photon_mean"), "mean caustic light", 72, 8))
	fmt.Println()

	pos, err := sim.State().Heights()
	if err != nil {
		return err
	}
	row := cfg.Height / 2
	fmt.Println(viz.Subtle.Render(fmt.Sprintf("height profile, row %d", row)))
	profile := viz.Profile(pos[row*cfg.Width:(row+1)*cfg.Width], 72, 4, float32(cfg.Input.MaxForce))
	fmt.Println(profile.String())
	fmt.Println()
	if benchSVG != "" {
		if err := os.WriteFile(benchSVG, []byte(export.CanvasToSVG(profile, 4, "#00ccff")), 0644); err != nil {
			return err
		}
		slog.Info("profile written", "path", benchSVG)
	}

	perFrame := elapsed / time.Duration(max(frames, 1))
	stats := lipgloss.JoinVertical(lipgloss.Left,
		viz.Metric("frames       ", fmt.Sprintf("%d", frames)),
		viz.Metric("total        ", elapsed.Round(time.Millisecond).String()),
		viz.Metric("per frame    ", perFrame.Round(time.Microsecond).String()),
		viz.Metric("slowest      ", slowest.Round(time.Microsecond).String()),
		viz.Metric("frames/sec   ", fmt.Sprintf("%.1f", float64(frames)/elapsed.Seconds())),
		viz.Metric("cell updates ", fmt.Sprintf("%.3g/s", float64(frames*cfg.StepsPerFrame*cfg.Width*cfg.Height)/elapsed.Seconds())),
	)
	var results []string
	for _, m := range rec.Metrics() {
		results = append(results, viz.Metric(fmt.Sprintf("%-13s", m.Name()), fmt.Sprintf("%.4g", m.Value())))
	}
	fmt.Println(lipgloss.JoinHorizontal(lipgloss.Top,
		viz.Panel.Render(stats),
		"  ",
		viz.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, results...)),
	))

	if !benchSave {
		return nil
	}
	return saveRun(cfg, dev.Name(), frames, elapsed, rec)
}

func saveRun(cfg *config.Config, backend string, frames int, elapsed time.Duration, rec *metrics.Recorder) error {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	meta := storage.RunMetadata{
		Backend: backend,
		Width:   cfg.Width,
		Height:  cfg.Height,
		Frames:  frames,
		Elapsed: elapsed,
		Config:  cfg,
		Metrics: make(map[string]float64),
	}
	series := storage.Series{Frames: rec.Frames(), Values: make(map[string][]float64)}
	for _, m := range rec.Metrics() {
		meta.Metrics[m.Name()] = m.Value()
		series.Values[m.Name()] = rec.Series(m.Name())
	}
	id, err := st.Save(meta, series)
	if err != nil {
		return err
	}
	fmt.Println(viz.Metric("saved", id))
	return nil
}
