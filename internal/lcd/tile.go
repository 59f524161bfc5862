package lcd

import "github.com/FabianRolfMatthiasNoll/lcdtetris/internal/diag"

// The display is mounted rotated: board rows advance along the screen's x
// axis and board columns run up the screen. Rows 16 and beyond fall in the
// strip right of the playfield where the next piece is previewed.
const (
	TileSize = 4

	// TileRows bounds the board rows a tile can be drawn at, preview included.
	TileRows = 21
	tileCols = 8

	tileOriginY = Height - 8 - TileSize
)

// TileOrigin returns the screen coordinates of the top-left pixel of the tile
// at board cell (col, row).
func TileOrigin(col, row int) (x, y int) {
	return row * TileSize, tileOriginY - col*TileSize
}

// DrawTile draws a hollow block for board cell (col, row): a 4x4 square with
// the pen on and its 2x2 centre with the pen off. The pen is restored.
func (f *Frame) DrawTile(col, row int) error {
	if err := diag.Assertf(col >= 0 && col < tileCols, "tile x=%d", col); err != nil {
		return err
	}
	if err := diag.Assertf(row >= 0 && row < TileRows, "tile y=%d", row); err != nil {
		return err
	}
	x, y := TileOrigin(col, row)

	pen := f.pen
	defer func() { f.pen = pen }()

	f.pen = PenOn
	if err := f.Bar(x, y, TileSize, TileSize); err != nil {
		return err
	}
	f.pen = PenOff
	return f.Bar(x+1, y+1, TileSize-2, TileSize-2)
}
