package viz

import (
	"image"
	"image/color"
	"strings"
	"testing"
)

func TestHexRoundTrip(t *testing.T) {
	tests := []struct {
		hex     string
		r, g, b int
	}{
		{"#000000", 0, 0, 0},
		{"#ff8000", 255, 128, 0},
		{"#00CCFF", 0, 204, 255},
	}

	for _, tt := range tests {
		r, g, b := parseHex(tt.hex)
		if r != tt.r || g != tt.g || b != tt.b {
			t.Errorf("parseHex(%q) = %d,%d,%d", tt.hex, r, g, b)
		}
		if got := hexColor(r, g, b); got != strings.ToLower(tt.hex) {
			t.Errorf("hexColor = %q, want %q", got, strings.ToLower(tt.hex))
		}
	}

	if got := hexColor(-4, 300, 16); got != "#00ff10" {
		t.Errorf("expected clamped colour, got %q", got)
	}
}

func TestHalfBlocks(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 5))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	out := HalfBlocks(img)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 rows for 5 pixel rows, got %d", len(lines))
	}
	for i, line := range lines {
		if n := strings.Count(line, "▀"); n != 3 {
			t.Errorf("row %d has %d cells, want 3", i, n)
		}
	}
	if HalfBlocks(nil) != "" {
		t.Error("nil image should render empty")
	}
}

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	c.Set(100, 100)
	if c.Grid[0][0] != 0x2801 {
		t.Errorf("expected dot 1, got %U", c.Grid[0][0])
	}
	if c.Grid[0][1] != 0x2880 {
		t.Errorf("expected dot 8, got %U", c.Grid[0][1])
	}
}

func TestProfile(t *testing.T) {
	flat := make([]float32, 16)
	c := Profile(flat, 8, 2, 1)

	// a flat surface lies on one dot row across the whole width
	for x := 0; x < 8; x++ {
		if c.Grid[1][x] == 0x2800 && c.Grid[0][x] == 0x2800 {
			t.Errorf("column %d is empty", x)
		}
	}
	if got := strings.Count(c.String(), "\n"); got != 1 {
		t.Errorf("expected two rows, got %d newlines", got)
	}

	empty := Profile(nil, 4, 1, 1)
	if strings.Trim(empty.String(), "⠀") != "" {
		t.Error("no heights should leave the canvas blank")
	}
}

func TestSparklineChart(t *testing.T) {
	if got := SparklineChart(nil, 5); got != "─────" {
		t.Errorf("unexpected empty sparkline %q", got)
	}
	got := SparklineChart([]float64{1, 2, 3, 4, 5, 6, 7, 8}, 4)
	if n := len([]rune(stripANSI(got))); n != 4 {
		t.Errorf("expected 4 bars, got %d", n)
	}
}

func TestThemes(t *testing.T) {
	if GetTheme("missing").Name != "ocean" {
		t.Error("unknown theme should fall back to ocean")
	}
	seen := map[string]bool{}
	th := ThemeOcean
	for range Themes {
		seen[th.Name] = true
		th = th.Next()
	}
	if len(seen) != len(Themes) || th.Name != ThemeOcean.Name {
		t.Errorf("Next should cycle through every theme, saw %v", seen)
	}
	names := ThemeNames()
	if len(names) != len(Themes) {
		t.Fatalf("expected %d names, got %v", len(Themes), names)
	}
	for _, name := range names {
		if GetTheme(name).Name != name {
			t.Errorf("theme %q does not resolve to itself", name)
		}
	}
}

func TestPlot(t *testing.T) {
	out := Plot([]float64{1, 3, 2, 5}, "energy", 20, 5)
	if !strings.Contains(out, "energy") {
		t.Error("plot should carry its caption")
	}
	if !strings.Contains(Plot(nil, "energy", 20, 5), "no samples") {
		t.Error("empty series should say so")
	}
}

func stripANSI(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEscape = true
		case inEscape:
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
