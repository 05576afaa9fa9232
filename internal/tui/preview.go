package tui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/ripple/internal/compute"
	"github.com/san-kum/ripple/internal/metrics"
	"github.com/san-kum/ripple/internal/viz"
	"github.com/san-kum/ripple/internal/water"
)

// chromeRows are the terminal rows below the water: status and key hints.
const chromeRows = 2

const historyLen = 120

// MinInterval is the fastest tick a terminal redraw keeps up with.
const MinInterval = 33 * time.Millisecond

// Options configure the terminal preview.
type Options struct {
	Params   water.Params
	Sky      string
	Floor    string
	Workers  int
	Interval time.Duration
	Theme    string
	Logger   *slog.Logger
}

// energyTrack is a water.Observer keeping the recent energy of the surface.
type energyTrack struct {
	energy  *metrics.Energy
	history []float64
	err     error
}

func (e *energyTrack) OnFrame(frame int, s *water.Sim) {
	sample, err := metrics.Capture(frame, s.State())
	if err != nil {
		e.err = err
		return
	}
	e.energy.Observe(sample)
	e.history = append(e.history, e.energy.Value())
	if len(e.history) > historyLen {
		e.history = e.history[len(e.history)-historyLen:]
	}
}

type model struct {
	opts  Options
	theme viz.Theme

	dev    *compute.CPUBackend
	sim    *water.Sim
	energy *energyTrack

	paused    bool
	err       error
	lastFrame time.Time
	fps       float64

	width  int
	height int
}

// New returns the preview model. The simulation is built on the first
// window size message, with one cell per column and two per row.
func New(opts Options) tea.Model {
	opts.Interval = max(opts.Interval, MinInterval)
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return model{opts: opts, theme: viz.GetTheme(opts.Theme)}
}

type tickMsg time.Time

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd { return tick(m.opts.Interval) }

// gridSize maps the terminal to the water grid.
func gridSize(cols, rows int) (int, int) {
	return max(cols, 4), max(rows-chromeRows, 2) * 2
}

func (m *model) build() error {
	w, h := gridSize(m.width, m.height)
	dev := compute.NewCPUBackend(water.Kernels())
	if m.opts.Workers > 0 {
		dev.SetWorkers(m.opts.Workers)
	}
	st, err := water.NewState(dev, w, h)
	if err != nil {
		return err
	}
	if err := st.LoadBackground(m.opts.Sky, m.opts.Floor); err != nil {
		return err
	}
	sim, err := water.New(dev, st, m.opts.Params)
	if err != nil {
		return err
	}
	sim.SetLogger(m.opts.Logger)
	dev.SetViewport(w, h)

	m.energy = &energyTrack{energy: metrics.NewEnergy()}
	sim.AddObserver(m.energy)
	if m.dev != nil {
		m.dev.Close()
	}
	m.dev, m.sim = dev, sim
	m.opts.Logger.Debug("preview grid", "width", w, "height", h, "backend", dev.Name())
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		if msg.Width == m.width && msg.Height == m.height && m.sim != nil {
			return m, nil
		}
		m.width, m.height = msg.Width, msg.Height
		if err := m.build(); err != nil {
			m.err = err
		}
		return m, nil
	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil
	case tea.FocusMsg:
		if m.sim != nil {
			m.sim.Interaction().PointerEnter()
		}
		return m, nil
	case tea.BlurMsg:
		if m.sim != nil {
			m.sim.Interaction().PointerLeave()
		}
		return m, nil
	case tickMsg:
		if m.err != nil {
			return m, nil
		}
		if m.sim != nil && !m.paused {
			now := time.Now()
			if !m.lastFrame.IsZero() {
				if dt := now.Sub(m.lastFrame).Seconds(); dt > 0 {
					m.fps = 1.0 / dt
				}
			}
			m.lastFrame = now
			if err := m.sim.Frame(); err != nil {
				m.err = err
				return m, nil
			}
			if m.energy.err != nil {
				m.err = m.energy.err
				return m, nil
			}
		}
		return m, tick(m.opts.Interval)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		if m.dev != nil {
			m.dev.Close()
		}
		return m, tea.Quit
	case " ", "p":
		m.paused = !m.paused
	case "t":
		m.theme = m.theme.Next()
	case "r":
		m.err = nil
		if err := m.build(); err != nil {
			m.err = err
			return m, nil
		}
		return m, tick(m.opts.Interval)
	}
	return m, nil
}

func (m model) handleMouse(msg tea.MouseMsg) {
	if m.sim == nil {
		return
	}
	in := m.sim.Interaction()
	// each terminal row shows two grid rows; aim at the upper one
	in.PointerMove(float64(msg.X), float64(msg.Y*2))

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			in.ButtonDown(water.ButtonPrimary)
		case tea.MouseButtonRight:
			in.ButtonDown(water.ButtonSecondary)
		case tea.MouseButtonMiddle:
			in.ButtonDown(water.ButtonMiddle)
		}
	case tea.MouseActionRelease:
		in.ButtonUp(water.ButtonPrimary)
	}
}

func (m model) View() string {
	if m.sim == nil && m.err == nil {
		return m.theme.Hint().Render("waiting for terminal size...")
	}

	var b strings.Builder
	if m.sim != nil {
		b.WriteString(viz.HalfBlocks(m.dev.Frame()))
		b.WriteByte('\n')
	}
	b.WriteString(m.status())
	b.WriteByte('\n')
	b.WriteString(viz.KeyHint.Render("drag to push  right-drag to pull  space pause  t theme  r reset  q quit"))
	return b.String()
}

func (m model) status() string {
	var state string
	switch {
	case m.err != nil:
		return viz.StatusError.Render("error: " + m.err.Error())
	case m.paused:
		state = viz.StatusPaused.Render("paused")
	default:
		state = viz.StatusRunning.Render("running")
	}

	st := m.sim.State()
	parts := []string{
		m.theme.Title().Render("ripple"),
		state,
		viz.Metric("grid", fmt.Sprintf("%dx%d", st.Width, st.Height)),
		viz.Metric("frame", fmt.Sprintf("%d", m.sim.Frames())),
		viz.Metric("fps", fmt.Sprintf("%.0f", m.fps)),
		viz.Metric("force", fmt.Sprintf("%+.2f", m.sim.Interaction().Strength())),
	}
	if m.energy != nil && len(m.energy.history) > 0 {
		parts = append(parts, viz.Metric("energy", fmt.Sprintf("%.3g", m.energy.history[len(m.energy.history)-1])))
		parts = append(parts, viz.SparklineChart(m.energy.history, 24))
	}
	return strings.Join(parts, "  ")
}

// Run starts the preview in the alternate screen with mouse motion and
// focus reporting enabled.
func Run(opts Options) error {
	p := tea.NewProgram(New(opts),
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithReportFocus(),
	)
	_, err := p.Run()
	return err
}
