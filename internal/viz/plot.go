package viz

import (
	"github.com/guptarohit/asciigraph"
)

// Plot draws a captioned line chart of values.
func Plot(values []float64, caption string, width, height int) string {
	if len(values) == 0 {
		return Subtle.Render("no samples for " + caption)
	}
	return asciigraph.Plot(values,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// PlotMany overlays several equally long series, one colour each.
func PlotMany(series [][]float64, caption string, width, height int) string {
	if len(series) == 0 || len(series[0]) == 0 {
		return Subtle.Render("no samples for " + caption)
	}
	return asciigraph.PlotMany(series,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Yellow, asciigraph.Green),
	)
}
