// Package emu wires the game firmware to the emulated board: the MCU
// peripherals, the PCD8544 display and the main loop that ties them
// together.
package emu

import (
	"errors"
	"fmt"
	"image"
	"log"

	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/diag"
	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/game"
	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/hw"
	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/lcd"
	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/pcd8544"
	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/rng"
)

type Buttons struct {
	Left, Right, Down, Rotate bool
}

// Mask returns the port D level for b.
func (b Buttons) Mask() byte {
	var mask byte
	if b.Left {
		mask |= hw.PinLeft
	}
	if b.Down {
		mask |= hw.PinDown
	}
	if b.Right {
		mask |= hw.PinRight
	}
	if b.Rotate {
		mask |= hw.PinRotate
	}
	return mask
}

// ButtonsFromMask decodes a port D level.
func ButtonsFromMask(mask byte) Buttons {
	return Buttons{
		Left:   mask&hw.PinLeft != 0,
		Right:  mask&hw.PinRight != 0,
		Down:   mask&hw.PinDown != 0,
		Rotate: mask&hw.PinRotate != 0,
	}
}

// State is the machine's run state.
type State uint8

const (
	Running State = iota
	Flashing      // game over, display inverted
	Over          // game over, frozen
	Halted        // stopped on a fault
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Flashing, Over:
		return "game over"
	case Halted:
		return "halted"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

type Machine struct {
	cfg Config

	mcu     *hw.MCU
	display *pcd8544.Controller
	port    lcd.Port
	frame   *lcd.Frame
	gen     *rng.Generator
	game    *game.Game

	state    State
	spin     int    // busy-wait iterations left
	flashEnd uint64 // cycle at which the game over flash ends
	deadline uint64 // end of the current RunCycles slice
	loops    uint64
	err      error
}

// New powers the board up: it initializes the ADC and the display, primes
// the piece generator and starts the gravity timer. A fault during start-up
// leaves the machine Halted with the diagnostic on screen; the error is also
// returned.
func New(cfg Config) (*Machine, error) {
	cfg.Defaults()
	m := &Machine{
		cfg:     cfg,
		mcu:     hw.New(hw.Config{ClockHz: cfg.ClockHz, NoiseSeed: cfg.NoiseSeed}),
		display: pcd8544.New(),
		frame:   lcd.New(),
	}
	m.mcu.AttachDisplay(m.display)
	m.port = m.mcu.SPI()
	m.mcu.EnableADC()
	m.gen = rng.New(m.mcu)

	g, err := game.New(m.gen, game.WithPrimeDraws(cfg.PrimeDraws))
	m.game = g
	if initErr := lcd.Init(m.port); initErr != nil {
		return m, initErr
	}
	if err != nil {
		m.halt(err)
		return m, err
	}
	m.mcu.StartTimer(game.GravityPeriod(0))
	m.deadline = m.mcu.Cycles()
	m.checkStart()
	return m, nil
}

// checkStart handles a game that is over before the first move.
func (m *Machine) checkStart() {
	if m.game.Phase() == game.GameOver {
		m.gameOver()
	}
}

// Reset restarts the game without power-cycling the board.
func (m *Machine) Reset() error {
	m.state = Running
	m.spin = 0
	m.err = nil
	m.frame.Clear()
	if err := lcd.Invert(m.port, false); err != nil {
		return err
	}
	if err := m.game.Reset(); err != nil {
		m.halt(err)
		return err
	}
	m.mcu.StartTimer(game.GravityPeriod(0))
	m.checkStart()
	return nil
}

func (m *Machine) SetButtons(b Buttons) { m.mcu.SetButtons(b.Mask()) }

// StepFrame runs one host frame worth of cycles.
func (m *Machine) StepFrame() { m.RunCycles(m.cfg.FrameCycles()) }

// RunCycles runs the main loop for n core cycles. A loop iteration is never
// cut short; the overshoot is taken off the next call. Once the game is over
// or halted the clock keeps running but nothing else happens.
func (m *Machine) RunCycles(n uint64) {
	m.deadline += n
	if m.deadline <= m.mcu.Cycles() {
		m.deadline = m.mcu.Cycles() + n
	}
	target := m.deadline
	for m.mcu.Cycles() < target {
		switch m.state {
		case Running:
			if m.spin > 0 {
				m.runSpin(target)
				continue
			}
			m.Iterate()
		case Flashing:
			now := m.mcu.Cycles()
			if now >= m.flashEnd {
				m.endFlash()
				continue
			}
			m.mcu.Tick(int(min(target, m.flashEnd) - now))
		default:
			m.mcu.Tick(int(target - m.mcu.Cycles()))
		}
	}
}

func (m *Machine) runSpin(target uint64) {
	budget := int((target-m.mcu.Cycles())/hw.SpinCycles) + 1
	n := min(m.spin, budget)
	if ran := m.mcu.Spin(n); ran < n {
		m.spin = 0 // released
		return
	}
	m.spin -= n
}

// Iterate runs one pass of the main loop: poll inputs, step the game,
// redraw and flush the scene, then arm the repeat delay if a button is
// still held. It does nothing unless the machine is Running.
func (m *Machine) Iterate() {
	if m.state != Running {
		return
	}
	pins := m.mcu.Buttons()
	in := game.Input{
		Left:         pins&hw.PinLeft != 0,
		Right:        pins&hw.PinRight != 0,
		Down:         pins&hw.PinDown != 0,
		Rotate:       pins&hw.PinRotate != 0,
		TimerExpired: m.mcu.TimerExpired(),
	}
	ev, err := m.game.Step(in)
	if ev.RestartTimer {
		m.mcu.StartTimer(game.GravityPeriod(m.game.Score()))
	}
	m.trace(ev)
	if err != nil {
		m.halt(err)
		return
	}
	if ev.Over {
		m.gameOver()
		return
	}
	if err := m.displayScene(); err != nil {
		m.halt(err)
		return
	}
	m.loops++
	m.mcu.Tick(m.cfg.LoopCycles)
	if m.mcu.Buttons() != 0 {
		m.spin = m.cfg.RepeatSpins
	}
}

func (m *Machine) trace(ev game.Events) {
	if !m.cfg.Trace {
		return
	}
	if ev.Locked {
		log.Printf("[emu] lock %s lines=%d score=%d", m.game.Active(), ev.Lines, m.game.Score())
	}
	if ev.Over {
		log.Printf("[emu] game over score=%d after %d loops", m.game.Score(), m.loops)
	}
}

func (m *Machine) gameOver() {
	m.state = Over
	if !m.cfg.FlashOnGameOver {
		return
	}
	if err := lcd.Invert(m.port, true); err != nil {
		m.halt(err)
		return
	}
	m.state = Flashing
	m.flashEnd = m.mcu.Cycles() + m.cfg.ClockHz*uint64(m.cfg.FlashMillis)/1000
}

func (m *Machine) endFlash() {
	m.state = Over
	if err := lcd.Invert(m.port, false); err != nil {
		m.halt(err)
	}
}

// halt stops the machine. Invariant violations are reported on the display
// the way the firmware does it: written over the last frame, then flushed.
func (m *Machine) halt(err error) {
	m.state = Halted
	m.err = err
	if m.cfg.Trace {
		log.Printf("[emu] halted: %v", err)
	}
	var f *diag.Fault
	if !errors.As(err, &f) {
		return
	}
	if err := m.showFault(f); err != nil {
		log.Printf("[emu] fault screen: %v", err)
	}
}

func (m *Machine) Framebuffer() []byte { return m.display.Framebuffer() }

func (m *Machine) State() State                 { return m.state }
func (m *Machine) Game() *game.Game             { return m.game }
func (m *Machine) MCU() *hw.MCU                 { return m.mcu }
func (m *Machine) Display() *pcd8544.Controller { return m.display }
func (m *Machine) Config() Config               { return m.cfg }

// Loops returns the number of completed main loop iterations.
func (m *Machine) Loops() uint64 { return m.loops }

// Err returns the error that halted the machine.
func (m *Machine) Err() error { return m.err }

// Fault returns the invariant violation that halted the machine, if any.
func (m *Machine) Fault() *diag.Fault {
	var f *diag.Fault
	if errors.As(m.err, &f) {
		return f
	}
	return nil
}

// Play feeds s to the machine one host frame at a time until frames frames
// have run (the script length when frames <= 0) or the game stops. It
// returns the number of frames run.
func (m *Machine) Play(s Script, frames int) int {
	if frames <= 0 {
		frames = s.Frames()
	}
	i := 0
	for ; i < frames && m.state == Running; i++ {
		m.SetButtons(s.At(i))
		m.StepFrame()
	}
	return i
}

// Image returns a copy of the current display as an RGBA image.
func (m *Machine) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, pcd8544.Width, pcd8544.Height))
	copy(img.Pix, m.Framebuffer())
	return img
}
