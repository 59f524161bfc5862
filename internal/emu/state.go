package emu

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/game"
)

// --- Save/Load state ---
type machineState struct {
	Game     game.Snapshot
	Seed     uint8
	MCU      []byte
	Display  []byte
	Frame    []byte
	State    State
	Spin     int
	FlashEnd uint64
	Deadline uint64
	Loops    uint64
}

// SaveState snapshots the whole board in memory. A halted machine cannot
// be saved.
func (m *Machine) SaveState() ([]byte, error) {
	if m.state == Halted {
		return nil, errors.New("machine is halted")
	}
	mcu, err := m.mcu.SaveState()
	if err != nil {
		return nil, fmt.Errorf("save mcu: %w", err)
	}
	display, err := m.display.SaveState()
	if err != nil {
		return nil, fmt.Errorf("save display: %w", err)
	}
	s := machineState{
		Game:     m.game.Snapshot(),
		Seed:     m.gen.Seed(),
		MCU:      mcu,
		Display:  display,
		Frame:    append([]byte(nil), m.frame.Bytes()...),
		State:    m.state,
		Spin:     m.spin,
		FlashEnd: m.flashEnd,
		Deadline: m.deadline,
		Loops:    m.loops,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (m *Machine) LoadState(data []byte) error {
	var s machineState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	if err := m.mcu.LoadState(s.MCU); err != nil {
		return err
	}
	if err := m.display.LoadState(s.Display); err != nil {
		return err
	}
	m.game.Restore(s.Game)
	m.gen.SetSeed(s.Seed)
	copy(m.frame.Bytes(), s.Frame)
	m.state, m.spin, m.flashEnd, m.deadline, m.loops = s.State, s.Spin, s.FlashEnd, s.Deadline, s.Loops
	m.err = nil
	return nil
}
