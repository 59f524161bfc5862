package board

import (
	"errors"
	"testing"

	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/diag"
	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/shape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cellsOf lists the absolute cells of id at pos, decoded row by row from the
// geometry picture rather than by the bit walk under test.
func cellsOf(id shape.ID, pos Pos) [][2]int {
	var out [][2]int
	m := id.Mask()
	rows := [3][3]bool{
		{m&0x80 != 0, m&0x40 != 0, m&0x20 != 0},
		{m&0x10 != 0, m&0x08 != 0, m&0x04 != 0},
		{m&0x02 != 0, m&0x01 != 0, false},
	}
	for dy, r := range rows {
		for dx, on := range r {
			if on {
				out = append(out, [2]int{pos.Col() + dx, pos.Row() + dy})
			}
		}
	}
	return out
}

func sampleBoard() Board {
	return Parse(`
........
..#.....
.##..#..
###.##.#
#.######
`)
}

type recordingDrawer struct{ cells [][2]int }

func (r *recordingDrawer) DrawTile(col, row int) error {
	r.cells = append(r.cells, [2]int{col, row})
	return nil
}

func TestCheckMatchesCellBounds(t *testing.T) {
	boards := []Board{{}, sampleBoard()}
	for _, b := range boards {
		for id := shape.ID(0); id < shape.Count; id++ {
			for p := Pos(0); p < posLimit; p++ {
				want := true
				for _, c := range cellsOf(id, p) {
					if c[0] >= Cols || c[1] >= Rows || b.Occupied(c[0], c[1]) {
						want = false
						break
					}
				}
				before := b
				got, err := b.Fits(id, p)
				require.NoError(t, err)
				assert.Equal(t, want, got, "id %s pos %d,%d", id, p.Col(), p.Row())
				assert.Equal(t, before, b, "check must not mutate")
			}
		}
	}
}

func TestCommitAddsExactlyTheShapeCells(t *testing.T) {
	for id := shape.ID(0); id < shape.Count; id++ {
		for p := Pos(0); p < posLimit; p++ {
			b := sampleBoard()
			ok, err := b.Fits(id, p)
			require.NoError(t, err)
			if !ok {
				continue
			}
			before := b.Count()
			_, err = b.Resolve(id, p, Commit, nil)
			require.NoError(t, err)
			assert.Equal(t, before+id.Cells(), b.Count(), "id %s pos %d", id, p)
			for _, c := range cellsOf(id, p) {
				assert.True(t, b.Occupied(c[0], c[1]))
			}
		}
	}
}

func TestDrawVisitsCellsWithoutTouchingBoard(t *testing.T) {
	b := sampleBoard()
	before := b
	var d recordingDrawer

	id := shape.Make(shape.T, 1)
	ok, err := b.Resolve(id, At(6, 14), Draw, &d)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.ElementsMatch(t, cellsOf(id, At(6, 14)), d.cells)
	assert.Equal(t, before, b)
}

func TestDrawPreviewSentinel(t *testing.T) {
	var b Board
	var d recordingDrawer
	_, err := b.Resolve(shape.Make(shape.O, 0), PreviewPos, Draw, &d)
	require.NoError(t, err)
	assert.ElementsMatch(t, [][2]int{{3, 19}, {4, 19}, {3, 20}, {4, 20}}, d.cells)

	ok, err := b.Fits(shape.Make(shape.O, 0), PreviewPos)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckRejectsRowSixteen(t *testing.T) {
	var b Board
	ok, err := b.Fits(shape.Make(shape.Dot, 0), At(0, Rows))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInvariantViolations(t *testing.T) {
	var b Board
	var f *diag.Fault

	_, err := b.Fits(shape.ID(32), SpawnPos)
	assert.True(t, errors.As(err, &f))

	_, err = b.Fits(shape.Make(shape.I, 0), Pos(140))
	assert.True(t, errors.As(err, &f))

	_, err = b.Resolve(shape.Make(shape.I, 0), SpawnPos, Draw, nil)
	assert.True(t, errors.As(err, &f))

	// Commit without a passing Check, reaching below the board.
	_, err = b.Resolve(shape.Make(shape.I, 1), At(0, 14), Commit, nil)
	require.True(t, errors.As(err, &f))
	assert.Equal(t, "store 0,16", f.Msg)
}

func TestSweepClearsTwoBottomRows(t *testing.T) {
	b := Parse(`
#.......
.#......
..#.....
...#....
....#...
.....#..
......#.
.......#
#......#
##....##
###..###
####.###
#####.##
##.#####
########
########
`)
	want := b
	copy(want[2:], b[:14])
	want[0], want[1] = 0, 0

	// A piece completing no further row.
	ok, err := b.Fits(shape.Make(shape.Dot, 0), At(3, 0))
	require.NoError(t, err)
	require.True(t, ok)
	_, err = b.Resolve(shape.Make(shape.Dot, 0), At(3, 0), Commit, nil)
	require.NoError(t, err)
	want[2] |= 1 << 3

	assert.Equal(t, 2, b.Sweep())
	assert.Equal(t, want, b)
}

func TestSweepCascadesNonAdjacentRows(t *testing.T) {
	// A vertical I fills column 3 on rows 13 and 15 but row 14 stays open.
	b := Parse(`
........
###.####
###..###
###.####
`)
	id := shape.Make(shape.I, 1)
	ok, err := b.Fits(id, At(3, 13))
	require.NoError(t, err)
	require.True(t, ok)
	_, err = b.Resolve(id, At(3, 13), Commit, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, b.Sweep())
	assert.Equal(t, Parse(`
........
........
####.###
`), b)
}

func TestSweepStackedFullRows(t *testing.T) {
	b := Parse(`
.#......
########
########
########
..#.....
`)
	assert.Equal(t, 3, b.Sweep())
	assert.Equal(t, Parse(`
.#......
..#.....
`), b)
}

func TestPosArithmetic(t *testing.T) {
	p := At(7, 2)
	assert.Equal(t, 7, p.Col())
	assert.Equal(t, 2, p.Row())

	_, ok := p.Right()
	assert.False(t, ok)
	l, ok := p.Left()
	assert.True(t, ok)
	assert.Equal(t, At(6, 2), l)
	_, ok = At(0, 5).Left()
	assert.False(t, ok)
	assert.Equal(t, At(7, 3), p.Down())

	assert.True(t, PreviewPos.Valid())
	assert.True(t, At(7, 16).Valid())
	assert.False(t, At(0, 17).Valid())
}

func TestStringRoundTrip(t *testing.T) {
	b := sampleBoard()
	assert.Equal(t, b, Parse(b.String()))
	assert.Equal(t, 17, b.Count())
}
