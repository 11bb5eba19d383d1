package viz

import (
	"math"
	"strings"
)

// Braille cells are 2x4 dots:
// 1 4
// 2 5
// 3 6
// 7 8
const brailleBlank = 0x2800

var dotBits = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a Width x Height character grid addressed in dots, so its
// resolution is (Width*2) x (Height*4).
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, Grid: make([][]rune, h)}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= dotBits[y%4][x%2]
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// DrawLine is Bresenham between two dot coordinates.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), absInt(y1-y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
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

// center and radius of the dial in dots.
func (c *Canvas) dial() (cx, cy int, r float64) {
	cx, cy = c.Width, c.Height*2
	r = math.Min(float64(cx), float64(cy)) - 2
	return
}

func (c *Canvas) polar(theta, frac float64) (int, int) {
	cx, cy, r := c.dial()
	// zero points up, positive angles turn clockwise on screen
	return cx + int(math.Round(r*frac*math.Sin(theta))),
		cy - int(math.Round(r*frac*math.Cos(theta)))
}

// DrawAxis draws the dial rim, the link at angle theta and a short tick
// on the rim at the reference angle.
func (c *Canvas) DrawAxis(theta, reference float64) {
	const rimDots = 96
	for i := 0; i < rimDots; i++ {
		x, y := c.polar(2*math.Pi*float64(i)/rimDots, 1)
		c.Set(x, y)
	}

	cx, cy, _ := c.dial()
	x, y := c.polar(theta, 0.85)
	c.DrawLine(cx, cy, x, y)

	x0, y0 := c.polar(reference, 0.9)
	x1, y1 := c.polar(reference, 1.1)
	c.DrawLine(x0, y0, x1, y1)
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
