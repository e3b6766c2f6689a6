// Package canvas implements a braille dot grid for terminal drawing.
//
// Each terminal cell holds a 2x4 block of dots, so a grid of w x h cells
// addresses 2w x 4h dots.
package canvas

import (
	"image"
	"math"
	"strings"
)

// Grid is a rectangle of braille cells addressed by dot coordinates.
type Grid struct {
	width  int
	height int
	cells  [][]uint8
}

// NewGrid allocates a grid of width x height cells.
func NewGrid(width, height int) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	cells := make([][]uint8, height)
	for y := 0; y < height; y++ {
		cells[y] = make([]uint8, width)
	}
	return &Grid{width: width, height: height, cells: cells}
}

// Width returns the grid width in cells.
func (g *Grid) Width() int { return g.width }

// Height returns the grid height in cells.
func (g *Grid) Height() int { return g.height }

// Set turns on the dot at (x, y). Out-of-range dots are ignored.
func (g *Grid) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	cellY := y / 4
	cellX := x / 2
	if cellY >= g.height || cellX >= g.width {
		return
	}
	g.cells[cellY][cellX] |= DotMask(x%2, y%4)
}

// Has reports whether the dot at (x, y) is on.
func (g *Grid) Has(x, y int) bool {
	if x < 0 || y < 0 || y/4 >= g.height || x/2 >= g.width {
		return false
	}
	return g.cells[y/4][x/2]&DotMask(x%2, y%4) != 0
}

// Mask returns the dot mask of the cell at (col, row).
func (g *Grid) Mask(col, row int) uint8 {
	if row < 0 || row >= g.height || col < 0 || col >= g.width {
		return 0
	}
	return g.cells[row][col]
}

// Clear turns every dot off.
func (g *Grid) Clear() {
	for y := range g.cells {
		clear(g.cells[y])
	}
}

// Line draws a Bresenham line between two dots.
func (g *Grid) Line(x0, y0, x1, y1 int) {
	DrawLine(x0, y0, x1, y1, g.Set)
}

// Disc fills every dot within r of (cx, cy).
func (g *Grid) Disc(cx, cy int, r float64) {
	ri := int(math.Ceil(r))
	for dy := -ri; dy <= ri; dy++ {
		for dx := -ri; dx <= ri; dx++ {
			if float64(dx*dx+dy*dy) <= r*r {
				g.Set(cx+dx, cy+dy)
			}
		}
	}
}

// Sample sets a dot wherever the alpha image is above threshold at the
// dot's centre. Dot (x, y) covers pixels [x*scale, (x+1)*scale).
func (g *Grid) Sample(img *image.Alpha, scale int, threshold uint8) {
	if img == nil {
		return
	}
	if scale < 1 {
		scale = 1
	}
	b := img.Bounds()
	for y := 0; y < g.height*4; y++ {
		py := y*scale + scale/2
		if py < b.Min.Y || py >= b.Max.Y {
			continue
		}
		for x := 0; x < g.width*2; x++ {
			px := x*scale + scale/2
			if px < b.Min.X || px >= b.Max.X {
				continue
			}
			if img.AlphaAt(px, py).A > threshold {
				g.Set(x, y)
			}
		}
	}
}

// String renders the grid as lines of braille runes.
func (g *Grid) String() string {
	var b strings.Builder
	for y := 0; y < g.height; y++ {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := 0; x < g.width; x++ {
			b.WriteRune(Rune(g.cells[y][x]))
		}
	}
	return b.String()
}

// DrawLine walks a Bresenham line from (x0, y0) to (x1, y1).
func DrawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := x1 - x0
	if dx < 0 {
		dx = -dx
	}
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := y1 - y0
	if dy > 0 {
		dy = -dy
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			if x0 == x1 {
				break
			}
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			if y0 == y1 {
				break
			}
			err += dx
			y0 += sy
		}
	}
}

// DotMask returns the bit for dot (x, y) within a cell, x in [0,2), y in [0,4).
func DotMask(x, y int) uint8 {
	switch {
	case x == 0 && y == 0:
		return 0x01
	case x == 0 && y == 1:
		return 0x02
	case x == 0 && y == 2:
		return 0x04
	case x == 0 && y == 3:
		return 0x40
	case x == 1 && y == 0:
		return 0x08
	case x == 1 && y == 1:
		return 0x10
	case x == 1 && y == 2:
		return 0x20
	case x == 1 && y == 3:
		return 0x80
	default:
		return 0
	}
}

// Rune converts a cell mask to its braille character.
func Rune(mask uint8) rune {
	return rune(0x2800 + int(mask))
}
