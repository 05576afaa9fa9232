package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/ripple/internal/water"
)

func sized(t *testing.T, cols, rows int) model {
	t.Helper()
	m := New(Options{Params: water.DefaultParams(), Workers: 1})
	next, _ := m.Update(tea.WindowSizeMsg{Width: cols, Height: rows})
	pm := next.(model)
	if pm.err != nil {
		t.Fatalf("build failed: %v", pm.err)
	}
	return pm
}

func TestGridSize(t *testing.T) {
	tests := []struct {
		cols, rows int
		w, h       int
	}{
		{80, 24, 80, 44},
		{20, 12, 20, 20},
		{1, 1, 4, 4},
	}

	for _, tt := range tests {
		w, h := gridSize(tt.cols, tt.rows)
		if w != tt.w || h != tt.h {
			t.Errorf("gridSize(%d, %d) = %d, %d, want %d, %d", tt.cols, tt.rows, w, h, tt.w, tt.h)
		}
	}
}

func TestIntervalFloor(t *testing.T) {
	tests := []struct {
		in, want time.Duration
	}{
		{0, MinInterval},
		{6 * time.Millisecond, MinInterval},
		{100 * time.Millisecond, 100 * time.Millisecond},
	}

	for _, tt := range tests {
		m := New(Options{Interval: tt.in}).(model)
		if m.opts.Interval != tt.want {
			t.Errorf("interval %v: expected %v, got %v", tt.in, tt.want, m.opts.Interval)
		}
	}
}

func TestWindowSizeBuildsSim(t *testing.T) {
	m := sized(t, 20, 12)
	st := m.sim.State()
	if st.Width != 20 || st.Height != 20 {
		t.Errorf("expected a 20x20 grid, got %dx%d", st.Width, st.Height)
	}
}

func TestMouseDrivesInteraction(t *testing.T) {
	m := sized(t, 20, 12)
	in := m.sim.Interaction()

	m.Update(tea.FocusMsg{})
	if in.Strength() != m.opts.Params.MinForce {
		t.Errorf("focus should apply the ambient force, got %f", in.Strength())
	}

	m.Update(tea.MouseMsg{X: 5, Y: 3, Action: tea.MouseActionPress, Button: tea.MouseButtonRight})
	if x, y := in.Center(); x != 5 || y != 6 {
		t.Errorf("expected centre 5,6, got %d,%d", x, y)
	}
	if in.Strength() != -m.opts.Params.MaxForce {
		t.Errorf("right press should pull, got %f", in.Strength())
	}

	m.Update(tea.MouseMsg{X: 7, Y: 2, Action: tea.MouseActionRelease})
	if in.Strength() != m.opts.Params.MinForce*in.Sign() {
		t.Errorf("release should fall back to the ambient force, got %f", in.Strength())
	}

	m.Update(tea.BlurMsg{})
	if in.Strength() != 0 {
		t.Errorf("blur should remove the force, got %f", in.Strength())
	}
}

func TestTickAdvancesFrame(t *testing.T) {
	m := sized(t, 12, 6)
	next, cmd := m.Update(tickMsg{})
	m = next.(model)
	if cmd == nil {
		t.Error("expected another tick")
	}
	if m.sim.Frames() != 1 {
		t.Errorf("expected one frame, got %d", m.sim.Frames())
	}
	if len(m.energy.history) != 1 {
		t.Errorf("expected one energy sample, got %d", len(m.energy.history))
	}
	if !strings.Contains(m.View(), "▀") {
		t.Error("view should contain the rendered surface")
	}
}

func TestPauseStopsFrames(t *testing.T) {
	m := sized(t, 12, 6)
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})
	m = next.(model)
	next, _ = m.Update(tickMsg{})
	m = next.(model)
	if m.sim.Frames() != 0 {
		t.Errorf("paused preview advanced %d frames", m.sim.Frames())
	}
}

func TestQuit(t *testing.T) {
	m := sized(t, 12, 6)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}
