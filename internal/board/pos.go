package board

// Pos is a linear board position: 0RRRRCCC, column in the low three bits and
// row above them. It names the top-left anchor of a piece's 3-wide geometry.
type Pos uint8

const (
	// SpawnPos is the top-middle anchor where new pieces appear.
	SpawnPos Pos = 3

	// PreviewPos is the sentinel anchor of the next-piece preview. It lies
	// below the playfield and is only meaningful in Draw mode.
	PreviewPos Pos = 3 + Cols*19

	// posLimit bounds ordinary positions; row 16 may be named by a downward
	// probe but never passes Check.
	posLimit Pos = Cols * (Rows + 1)
)

// At returns the position of (col, row).
func At(col, row int) Pos { return Pos(row*Cols + col) }

func (p Pos) Col() int { return int(p & (Cols - 1)) }
func (p Pos) Row() int { return int(p >> 3) }

// Valid reports whether p is an ordinary position or the preview sentinel.
func (p Pos) Valid() bool { return p < posLimit || p == PreviewPos }

// Down is the position one row lower.
func (p Pos) Down() Pos { return p + Cols }

// Left is the position one column to the left; ok is false in column 0.
func (p Pos) Left() (Pos, bool) {
	if p.Col() == 0 {
		return p, false
	}
	return p - 1, true
}

// Right is the position one column to the right; ok is false in the last
// column, where the linear encoding would wrap into the next row.
func (p Pos) Right() (Pos, bool) {
	if p.Col() == Cols-1 {
		return p, false
	}
	return p + 1, true
}
