package board

// Sweep removes every full row, shifting the rows above it down, and returns
// how many rows were removed. The scan runs bottom-up and re-tests a row index
// after each shift because the row that drops into it may be full as well.
func (b *Board) Sweep() int {
	cleared := 0
	for row := Rows - 1; row >= 0; row-- {
		for b[row] == FullRow {
			cleared++
			copy(b[1:row+1], b[:row])
			b[0] = 0
		}
	}
	return cleared
}
