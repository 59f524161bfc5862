// Package game drives the falling-block state machine: gravity, player
// moves, locking, line clears, spawning and game over.
package game

import (
	"fmt"

	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/board"
	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/shape"
)

// Phase is the lifecycle state of a game.
type Phase uint8

const (
	Spawning Phase = iota
	Falling
	Locking
	ClearingLines
	GameOver
	Halted // an invariant was violated
)

func (p Phase) String() string {
	switch p {
	case Spawning:
		return "spawning"
	case Falling:
		return "falling"
	case Locking:
		return "locking"
	case ClearingLines:
		return "clearing"
	case GameOver:
		return "game over"
	case Halted:
		return "halted"
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

// Terminal reports whether no further input is processed.
func (p Phase) Terminal() bool { return p == GameOver || p == Halted }

// PieceSource hands out the next piece id. rng.Generator implements it.
type PieceSource interface {
	Next() (shape.ID, error)
}

// Piece is a piece id anchored at a board position.
type Piece struct {
	ID  shape.ID
	Pos board.Pos
}

func (p Piece) String() string {
	return fmt.Sprintf("%s@%d,%d", p.ID, p.Pos.Col(), p.Pos.Row())
}

// Input is one snapshot of the buttons plus the gravity timer flag.
type Input struct {
	Left, Right, Down, Rotate bool
	TimerExpired              bool
}

// Pressed reports whether any button is held.
func (in Input) Pressed() bool { return in.Left || in.Right || in.Down || in.Rotate }

// Events reports what one Step did.
type Events struct {
	Dropped bool // the piece moved one row down
	Rotated bool
	Shifted bool // the piece moved one column
	Locked  bool
	Lines   int
	Spawned bool
	Over    bool

	// RestartTimer is set whenever the gravity or down branch ran; the
	// caller reloads the timer with GravityPeriod(Score()).
	RestartTimer bool
}

const (
	BasePeriod = 3580
	PeriodStep = 10
	MinPeriod  = 400

	// DefaultPrimeDraws is how many ids the generator is advanced before
	// the first spawn.
	DefaultPrimeDraws = 8
)

// GravityPeriod returns the number of timer ticks between gravity steps at
// the given score.
func GravityPeriod(score int) uint16 {
	p := BasePeriod - PeriodStep*score
	if p < MinPeriod {
		p = MinPeriod
	}
	return uint16(p)
}
