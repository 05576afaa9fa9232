package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/ripple/internal/viz"
)

// CanvasToSVG converts a braille canvas to SVG, one circle per lit dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64, color string) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2
	height := float64(canvas.Height) * scale * 4

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="%s">
`, width, height, width, height, color)

	pixelMap := [4][2]int{
		{0x01, 0x08},
		{0x02, 0x10},
		{0x04, 0x20},
		{0x40, 0x80},
	}

	dotRadius := scale * 0.4

	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			r := canvas.Grid[row][col]
			if r < 0x2800 {
				continue
			}
			pattern := int(r - 0x2800)

			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4

			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] != 0 {
						cx := baseX + float64(dx)*scale + scale/2
						cy := baseY + float64(dy)*scale + scale/2
						fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
					}
				}
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// SeriesToSVG draws values against frames as a polyline scaled to fit.
func SeriesToSVG(frames []int, values []float64, width, height int, strokeColor string) string {
	n := min(len(frames), len(values))
	if n < 2 {
		return ""
	}

	minX, maxX := float64(frames[0]), float64(frames[0])
	minY, maxY := values[0], values[0]
	for i := 0; i < n; i++ {
		minX = min(minX, float64(frames[i]))
		maxX = max(maxX, float64(frames[i]))
		minY = min(minY, values[i])
		maxY = max(maxY, values[i])
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor)

	for i := 0; i < n; i++ {
		x := (float64(frames[i]) - minX) / rangeX * float64(width)
		y := float64(height) - (values[i]-minY)/rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
