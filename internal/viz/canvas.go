package viz

import (
	"math"
	"strings"

	"github.com/san-kum/dronesim/internal/physics"
)

// Braille cell dot layout, offset from U+2800:
// 1 4
// 2 5
// 3 6
// 7 8
const brailleBlank = 0x2800

var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a grid of braille cells addressed in dots. A canvas of
// Width x Height cells has (2*Width) x (4*Height) dots.
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

// Dots returns the canvas size in dots.
func (c *Canvas) Dots() (int, int) {
	return c.Width * 2, c.Height * 4
}

// Set lights the dot at (x, y). Dots outside the canvas are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= pixelMap[y%4][x%2]
}

func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 {
		return false
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return false
	}
	return c.Grid[row][col]&pixelMap[y%4][x%2] != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm.
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

// DrawCircle draws a circle outline with the midpoint algorithm.
func (c *Canvas) DrawCircle(cx, cy, r int) {
	if r <= 0 {
		c.Set(cx, cy)
		return
	}
	x, y, d := r, 0, 1-r
	for x >= y {
		c.Set(cx+x, cy+y)
		c.Set(cx+y, cy+x)
		c.Set(cx-y, cy+x)
		c.Set(cx-x, cy+y)
		c.Set(cx-x, cy-y)
		c.Set(cx-y, cy-x)
		c.Set(cx+y, cy-x)
		c.Set(cx+x, cy-y)
		y++
		if d < 0 {
			d += 2*y + 1
		} else {
			x--
			d += 2*(y-x) + 1
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// Viewport maps world coordinates (y up) onto canvas dots (y down).
type Viewport struct {
	Center physics.Vec2
	Scale  float64 // dots per world unit
}

// Project returns the dot for world point p on a canvas of cw x ch dots.
func (v Viewport) Project(p physics.Vec2, cw, ch int) (int, int) {
	x := float64(cw)/2 + (p.X-v.Center.X)*v.Scale
	y := float64(ch)/2 - (p.Y-v.Center.Y)*v.Scale
	return clampDot(x), clampDot(y)
}

// clampDot keeps diverged coordinates from overflowing int conversion.
func clampDot(v float64) int {
	const limit = 1 << 20
	switch {
	case math.IsNaN(v):
		return -limit
	case v > limit:
		return limit
	case v < -limit:
		return -limit
	}
	return int(math.Round(v))
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
