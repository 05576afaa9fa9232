package viz

import (
	"image"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HalfBlocks renders img with one terminal cell per two pixel rows: the
// upper pixel is the foreground of '▀' and the lower one its background.
func HalfBlocks(img *image.RGBA) string {
	if img == nil {
		return ""
	}
	b := img.Bounds()
	var out strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		if y > b.Min.Y {
			out.WriteByte('\n')
		}
		for x := b.Min.X; x < b.Max.X; x++ {
			style := lipgloss.NewStyle().Foreground(pixelColor(img, x, y))
			if y+1 < b.Max.Y {
				style = style.Background(pixelColor(img, x, y+1))
			}
			out.WriteString(style.Render("▀"))
		}
	}
	return out.String()
}

func pixelColor(img *image.RGBA, x, y int) lipgloss.Color {
	c := img.RGBAAt(x, y)
	return lipgloss.Color(hexColor(int(c.R), int(c.G), int(c.B)))
}
