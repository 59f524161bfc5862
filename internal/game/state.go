package game

import (
	"errors"
	"fmt"

	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/board"
	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/diag"
)

// Option configures a Game.
type Option func(*Game)

// WithBoard starts every game from a preset board instead of an empty one.
func WithBoard(b board.Board) Option {
	return func(g *Game) { g.preset = b }
}

// WithPrimeDraws sets how many ids are drawn before the first spawn. Values
// below one are treated as one.
func WithPrimeDraws(n int) Option {
	return func(g *Game) {
		if n < 1 {
			n = 1
		}
		g.primeDraws = n
	}
}

// Game owns the board, the active and next pieces and the score. It is not
// safe for concurrent use.
type Game struct {
	src PieceSource

	board  board.Board
	active Piece
	next   Piece
	score  int
	phase  Phase
	fault  error

	preset     board.Board
	primeDraws int
}

// New creates a game and spawns its first piece. A spawn that does not fit
// the preset board leaves the game in GameOver.
func New(src PieceSource, opts ...Option) (*Game, error) {
	g := &Game{src: src, primeDraws: DefaultPrimeDraws}
	for _, o := range opts {
		o(g)
	}
	if err := g.start(); err != nil {
		return g, err
	}
	return g, nil
}

// Reset clears the board and score and starts over.
func (g *Game) Reset() error {
	g.fault = nil
	return g.start()
}

func (g *Game) start() error {
	g.board = g.preset
	g.score = 0
	g.next = Piece{Pos: board.PreviewPos}
	for i := 1; i < g.primeDraws; i++ {
		id, err := g.src.Next()
		if err != nil {
			return g.halt(fmt.Errorf("prime: %w", err))
		}
		g.next.ID = id
	}
	if err := g.spawn(); err != nil {
		return g.halt(err)
	}
	return nil
}

// spawn promotes the next piece to the spawn position and draws a new next.
func (g *Game) spawn() error {
	g.phase = Spawning
	g.active = Piece{ID: g.next.ID, Pos: board.SpawnPos}
	id, err := g.src.Next()
	if err != nil {
		return fmt.Errorf("spawn: %w", err)
	}
	g.next = Piece{ID: id, Pos: board.PreviewPos}

	ok, err := g.board.Fits(g.active.ID, g.active.Pos)
	if err != nil {
		return fmt.Errorf("spawn %s: %w", g.active, err)
	}
	if !ok {
		g.phase = GameOver
		return nil
	}
	g.phase = Falling
	return nil
}

func (g *Game) halt(err error) error {
	g.phase = Halted
	g.fault = err
	return err
}

// Step runs one iteration of the main loop for the input snapshot: gravity
// or the down button first, then rotation, then one horizontal move with left
// taking precedence while the piece is not in column 0. After GameOver or a
// fault Step does nothing.
func (g *Game) Step(in Input) (Events, error) {
	var ev Events
	if g.phase.Terminal() {
		return ev, nil
	}

	if in.TimerExpired || in.Down {
		ev.RestartTimer = true
		if err := g.fall(&ev); err != nil {
			return ev, g.halt(err)
		}
		if g.phase == GameOver {
			ev.Over = true
			return ev, nil
		}
	}

	if in.Rotate {
		ok, err := g.Rotate()
		if err != nil {
			return ev, err
		}
		ev.Rotated = ok
	}

	var (
		ok  bool
		err error
	)
	switch {
	case in.Left && g.active.Pos.Col() != 0:
		ok, err = g.MoveLeft()
	case in.Right:
		ok, err = g.MoveRight()
	}
	if err != nil {
		return ev, err
	}
	ev.Shifted = ok
	return ev, nil
}

// fall moves the active piece down one row, or locks it, clears full rows
// and spawns the next piece when it cannot move.
func (g *Game) fall(ev *Events) error {
	ok, err := g.MoveDown()
	if err != nil {
		return err
	}
	if ok {
		ev.Dropped = true
		return nil
	}

	g.phase = Locking
	if _, err := g.board.Resolve(g.active.ID, g.active.Pos, board.Commit, nil); err != nil {
		return fmt.Errorf("lock %s: %w", g.active, err)
	}
	ev.Locked = true

	g.phase = ClearingLines
	ev.Lines = g.board.Sweep()
	g.score += ev.Lines

	if err := g.spawn(); err != nil {
		return err
	}
	ev.Spawned = true
	return nil
}

// try moves the active piece to p when it fits.
func (g *Game) try(p Piece) (bool, error) {
	if g.phase != Falling {
		return false, nil
	}
	ok, err := g.board.Fits(p.ID, p.Pos)
	if err != nil {
		return false, g.halt(fmt.Errorf("move %s: %w", p, err))
	}
	if ok {
		g.active = p
	}
	return ok, nil
}

// MoveDown moves the active piece one row down. It does not lock.
func (g *Game) MoveDown() (bool, error) {
	return g.try(Piece{ID: g.active.ID, Pos: g.active.Pos.Down()})
}

func (g *Game) MoveLeft() (bool, error) {
	pos, ok := g.active.Pos.Left()
	if !ok {
		return false, nil
	}
	return g.try(Piece{ID: g.active.ID, Pos: pos})
}

func (g *Game) MoveRight() (bool, error) {
	pos, ok := g.active.Pos.Right()
	if !ok {
		return false, nil
	}
	return g.try(Piece{ID: g.active.ID, Pos: pos})
}

// Rotate steps the orientation back by one (0 wraps to 3) around the same
// anchor. There are no wall kicks.
func (g *Game) Rotate() (bool, error) {
	return g.try(Piece{ID: g.active.ID.RotateCCW(), Pos: g.active.Pos})
}

// RotateBack steps the orientation forward by one.
func (g *Game) RotateBack() (bool, error) {
	return g.try(Piece{ID: g.active.ID.RotateCW(), Pos: g.active.Pos})
}

// DrawPieces draws the active piece and the next piece in its preview slot.
func (g *Game) DrawPieces(d board.TileDrawer) error {
	for _, p := range [...]Piece{g.active, g.next} {
		if _, err := g.board.Resolve(p.ID, p.Pos, board.Draw, d); err != nil {
			return err
		}
	}
	return nil
}

// DrawBoard draws every locked cell.
func (g *Game) DrawBoard(d board.TileDrawer) error {
	for row := 0; row < board.Rows; row++ {
		for col := 0; col < board.Cols; col++ {
			if !g.board.Occupied(col, row) {
				continue
			}
			if err := d.DrawTile(col, row); err != nil {
				return fmt.Errorf("board cell %d,%d: %w", col, row, err)
			}
		}
	}
	return nil
}

func (g *Game) Board() board.Board { return g.board }
func (g *Game) Active() Piece      { return g.active }
func (g *Game) Next() Piece        { return g.next }

// Score counts cleared lines, one point each.
func (g *Game) Score() int { return g.score }

func (g *Game) Phase() Phase { return g.phase }

// Fault returns the invariant violation that halted the game, if any.
func (g *Game) Fault() *diag.Fault {
	var f *diag.Fault
	if errors.As(g.fault, &f) {
		return f
	}
	return nil
}

// Err returns the error that halted the game, if any.
func (g *Game) Err() error { return g.fault }

// Snapshot is the restorable part of a game.
type Snapshot struct {
	Board        board.Board
	Active, Next Piece
	Score        int
	Phase        Phase
}

func (g *Game) Snapshot() Snapshot {
	return Snapshot{Board: g.board, Active: g.active, Next: g.next, Score: g.score, Phase: g.phase}
}

// Restore puts the game back into a state taken with Snapshot.
func (g *Game) Restore(s Snapshot) {
	g.board, g.active, g.next = s.Board, s.Active, s.Next
	g.score, g.phase = s.Score, s.Phase
	g.fault = nil
}
