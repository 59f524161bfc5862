package board

import (
	"fmt"

	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/diag"
	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/shape"
)

// Mode selects what Resolve does with each cell of the piece.
type Mode uint8

const (
	// Check tests whether the piece fits; the board is not modified.
	Check Mode = iota
	// Commit stores the piece into the board. The caller must have run Check
	// at the same position first; occupancy is not validated again.
	Commit
	// Draw hands every cell to a TileDrawer; the board is not modified.
	Draw
)

func (m Mode) String() string {
	switch m {
	case Check:
		return "check"
	case Commit:
		return "commit"
	case Draw:
		return "draw"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// TileDrawer receives the cells visited in Draw mode.
type TileDrawer interface {
	DrawTile(col, row int) error
}

// Resolve walks the geometry of piece id anchored at pos and applies mode to
// every occupied cell. The boolean result is meaningful only for Check, where
// true means the placement is legal; Commit and Draw return true on success.
//
// A piece outside the id table, an invalid position, a committed cell outside
// the board or a Draw without a drawer are invariant violations reported as
// *diag.Fault.
func (b *Board) Resolve(id shape.ID, pos Pos, mode Mode, d TileDrawer) (bool, error) {
	if err := diag.Assertf(id.Valid(), "piece %d", id); err != nil {
		return false, err
	}
	if err := diag.Assertf(pos.Valid(), "pos %d", pos); err != nil {
		return false, err
	}
	if err := diag.Assert(mode != Draw || d != nil, "no drawer"); err != nil {
		return false, err
	}

	col, row := pos.Col(), pos.Row()
	if mode == Check && row >= Rows {
		return false, nil
	}

	mask := id.Mask()
	dx, dy := 0, 0
	for step, bit := 0, uint8(0x80); bit != 0; step, bit = step+1, bit>>1 {
		if mask&bit != 0 {
			x, y := col+dx, row+dy
			switch mode {
			case Check:
				if x >= Cols || y >= Rows || b[y]&(1<<x) != 0 {
					return false, nil
				}
			case Commit:
				if err := diag.Assertf(x < Cols && y < Rows, "store %d,%d", x, y); err != nil {
					return false, err
				}
				b[y] |= 1 << x
			case Draw:
				if err := d.DrawTile(x, y); err != nil {
					return false, fmt.Errorf("draw %s at %d,%d: %w", id, col, row, err)
				}
			}
		}

		dx++
		if step%shape.RowWidth == shape.RowWidth-1 {
			dx = 0
			dy++
		}
	}
	return true, nil
}

// Fits is Resolve in Check mode.
func (b *Board) Fits(id shape.ID, pos Pos) (bool, error) {
	return b.Resolve(id, pos, Check, nil)
}
