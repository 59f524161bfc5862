// Package board implements the 8x16 playfield and the placement engine that
// tests, commits and draws pieces on it.
package board

import (
	"math/bits"
	"strings"
)

const (
	Cols = 8
	Rows = 16

	// FullRow is the mask of a row with every column occupied.
	FullRow = 0xFF
)

// Board is the occupancy grid. Row 0 is the top; bit i of a row is column i.
type Board [Rows]uint8

// Occupied reports whether (col, row) holds a locked cell. Cells outside the
// board are never occupied.
func (b *Board) Occupied(col, row int) bool {
	if col < 0 || col >= Cols || row < 0 || row >= Rows {
		return false
	}
	return b[row]&(1<<col) != 0
}

// Set marks (col, row) occupied. Out-of-range cells are ignored.
func (b *Board) Set(col, row int) {
	if col < 0 || col >= Cols || row < 0 || row >= Rows {
		return
	}
	b[row] |= 1 << col
}

// Count returns the number of occupied cells.
func (b *Board) Count() int {
	n := 0
	for _, r := range b {
		n += bits.OnesCount8(r)
	}
	return n
}

// Reset empties the board.
func (b *Board) Reset() { *b = Board{} }

// String renders the board one row per line, '#' for occupied and '.' for empty.
func (b *Board) String() string {
	var sb strings.Builder
	sb.Grow(Rows * (Cols + 1))
	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			if b.Occupied(col, row) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Parse builds a board from the String format. Missing rows are filled from
// the top so short pictures describe the bottom of the board.
func Parse(s string) Board {
	var b Board
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > Rows {
		lines = lines[len(lines)-Rows:]
	}
	top := Rows - len(lines)
	for i, line := range lines {
		line = strings.TrimSpace(line)
		for col := 0; col < Cols && col < len(line); col++ {
			if line[col] == '#' {
				b.Set(col, top+i)
			}
		}
	}
	return b
}
