package tui

import "strings"

// brailleCanvas is a monochrome dot grid drawn with Unicode braille cells,
// two dots wide and four tall per character.
type brailleCanvas struct {
	width  int
	height int
	dots   [][]bool
}

func newBrailleCanvas(w, h int) *brailleCanvas {
	dots := make([][]bool, h*4)
	for i := range dots {
		dots[i] = make([]bool, w*2)
	}
	return &brailleCanvas{width: w, height: h, dots: dots}
}

func (bc *brailleCanvas) pixelWidth() int  { return bc.width * 2 }
func (bc *brailleCanvas) pixelHeight() int { return bc.height * 4 }

func (bc *brailleCanvas) set(x, y int) {
	if x >= 0 && x < bc.pixelWidth() && y >= 0 && y < bc.pixelHeight() {
		bc.dots[y][x] = true
	}
}

func (bc *brailleCanvas) drawLine(x0, y0, x1, y1 int) {
	dx := abs(x1 - x0)
	dy := abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx - dy

	for {
		bc.set(x0, y0)
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

// lines renders the canvas one string per character row.
func (bc *brailleCanvas) lines() []string {
	out := make([]string, bc.height)
	var b strings.Builder
	for cy := 0; cy < bc.height; cy++ {
		b.Reset()
		for cx := 0; cx < bc.width; cx++ {
			var cell rune = 0x2800
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if bc.dots[cy*4+dy][cx*2+dx] {
						cell |= brailleBit(dx, dy)
					}
				}
			}
			b.WriteRune(cell)
		}
		out[cy] = b.String()
	}
	return out
}

func brailleBit(x, y int) rune {
	offsets := [2][4]rune{
		{0x01, 0x02, 0x04, 0x40},
		{0x08, 0x10, 0x20, 0x80},
	}
	return offsets[x][y]
}

// plotStrip draws samples (millivolts) across the canvas with lo at the
// bottom row and hi at the top.
func plotStrip(samples []float64, cols, rows int, lo, hi float64) []string {
	bc := newBrailleCanvas(cols, rows)
	pw, ph := bc.pixelWidth(), bc.pixelHeight()
	if len(samples) == 0 || pw < 2 || hi <= lo {
		return bc.lines()
	}

	toY := func(v float64) int {
		y := int((hi - v) / (hi - lo) * float64(ph-1))
		return clampInt(y, 0, ph-1)
	}
	prev := toY(samples[0])
	for x := 1; x < pw; x++ {
		i := x * (len(samples) - 1) / (pw - 1)
		y := toY(samples[i])
		bc.drawLine(x-1, prev, x, y)
		prev = y
	}
	return bc.lines()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
