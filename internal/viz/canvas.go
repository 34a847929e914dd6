package viz

import (
	"math"
	"strings"

	"github.com/san-kum/orbitsim/internal/dynamo"
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

const blank = 0x2800

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
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
	return c
}

// Set lights the sub-pixel (x, y). The canvas is Width*2 by Height*4
// sub-pixels; anything outside is ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// IsSet reports whether the sub-pixel (x, y) is lit.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
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

// DrawDisc fills a square of side 2r+1 centred on (x, y).
func (c *Canvas) DrawDisc(x, y, r int) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			c.Set(x+dx, y+dy)
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Viewport maps the XY plane onto a canvas with one scale for both axes,
// centred on the middle of the given bounds.
type Viewport struct {
	cx, cy float64
	scale  float64
	w, h   int
}

// NewViewport fits the XY extent of lo..hi, plus a 10% margin, into a
// canvas of w by h cells.
func NewViewport(lo, hi dynamo.Vec3, w, h int) Viewport {
	sw, sh := w*2, h*4
	span := math.Max(hi.X-lo.X, hi.Y-lo.Y) * 1.2
	if span == 0 || math.IsInf(span, 0) || math.IsNaN(span) {
		span = 1
	}
	return Viewport{
		cx:    (lo.X + hi.X) / 2,
		cy:    (lo.Y + hi.Y) / 2,
		scale: float64(min(sw, sh)-1) / span,
		w:     sw,
		h:     sh,
	}
}

// Map returns the sub-pixel for world position p; y grows downwards.
func (v Viewport) Map(p dynamo.Vec3) (int, int) {
	x := float64(v.w)/2 + (p.X-v.cx)*v.scale
	y := float64(v.h)/2 - (p.Y-v.cy)*v.scale
	return int(math.Round(x)), int(math.Round(y))
}
