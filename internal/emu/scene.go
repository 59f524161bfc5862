package emu

import (
	"fmt"
	"strconv"

	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/diag"
	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/lcd"
)

// Screen layout. The playfield is drawn rotated, see lcd.TileOrigin.
const (
	frameW = 72
	frameH = lcd.Height

	fieldX = 0
	fieldY = 7
	fieldW = 65
	fieldH = 34

	scoreX   = 2
	scoreY   = 3
	scoreMax = 64 // bar width at score 0; it shrinks by one per four lines
)

// ScoreBarWidth returns the width of the score indicator, 0 when it is gone.
func ScoreBarWidth(score int) int {
	return max(scoreMax-score/4, 0)
}

// RenderScene rebuilds f from scratch: the frame, the playfield, the locked
// cells, the falling and next pieces and the score bar.
func (m *Machine) RenderScene(f *lcd.Frame) error {
	f.Clear()
	if err := f.SetPen(lcd.PenOn); err != nil {
		return err
	}
	if err := f.Bar(0, 0, frameW, frameH); err != nil {
		return err
	}
	if err := f.SetPen(lcd.PenOff); err != nil {
		return err
	}
	if err := f.Bar(fieldX, fieldY, fieldW, fieldH); err != nil {
		return err
	}
	if err := f.SetPen(lcd.PenOn); err != nil {
		return err
	}

	if err := m.game.DrawBoard(f); err != nil {
		return fmt.Errorf("draw board: %w", err)
	}
	if err := m.game.DrawPieces(f); err != nil {
		return fmt.Errorf("draw pieces: %w", err)
	}

	if w := ScoreBarWidth(m.game.Score()); w > 0 {
		if err := f.SetPen(lcd.PenOff); err != nil {
			return err
		}
		if err := f.Bar(scoreX, scoreY, w, 1); err != nil {
			return err
		}
		return f.SetPen(lcd.PenOn)
	}
	return nil
}

func (m *Machine) displayScene() error {
	if err := m.RenderScene(m.frame); err != nil {
		return err
	}
	return m.frame.Flush(m.port)
}

// showFault prints the assertion report over whatever the frame holds.
func (m *Machine) showFault(f *diag.Fault) error {
	lines := []string{"Assert:", f.File, "Line:" + strconv.Itoa(f.Line)}
	if err := m.frame.SetPen(lcd.PenOn); err != nil {
		return err
	}
	for i, s := range lines {
		if err := m.frame.GotoXYFont(1, i+1); err != nil {
			return err
		}
		m.frame.Str(s)
	}
	return m.frame.Flush(m.port)
}
