package viz

import (
	"strings"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a monochrome braille canvas of Width x Height cells, each
// holding 2x4 dots.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the dot at (x, y) in dot coordinates. Dots outside the canvas
// are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for i, row := range c.Grid {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(row))
	}
	return b.String()
}

// Profile draws a height cross-section into a w x h cell canvas. Heights
// in [-scale, scale] span the canvas vertically; larger ones are clipped.
func Profile(heights []float32, w, h int, scale float32) *Canvas {
	c := NewCanvas(w, h)
	if len(heights) == 0 || scale <= 0 {
		return c
	}
	dotsW, dotsH := w*2, h*4
	dotY := func(v float32) int {
		t := (1 - v/scale) / 2
		return min(max(int(t*float32(dotsH-1)+0.5), 0), dotsH-1)
	}

	prevX, prevY := -1, 0
	for x := 0; x < dotsW; x++ {
		i := x * len(heights) / dotsW
		y := dotY(heights[i])
		if prevX >= 0 {
			c.DrawLine(prevX, prevY, x, y)
		} else {
			c.Set(x, y)
		}
		prevX, prevY = x, y
	}
	return c
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
