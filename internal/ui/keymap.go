package ui

import (
	"fmt"
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/kamstrup/intmap"

	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/emu"
	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/hw"
)

var buttonPins = map[string]byte{
	"left":   hw.PinLeft,
	"right":  hw.PinRight,
	"down":   hw.PinDown,
	"rotate": hw.PinRotate,
}

// Keymap binds keyboard keys to board buttons.
type Keymap struct {
	pins *intmap.Map[ebiten.Key, byte]
	keys []ebiten.Key
}

// NewKeymap parses a button name to key names table.
func NewKeymap(bindings map[string][]string) (*Keymap, error) {
	km := &Keymap{pins: intmap.New[ebiten.Key, byte](16)}
	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		pin, ok := buttonPins[name]
		if !ok {
			return nil, fmt.Errorf("unknown button %q", name)
		}
		for _, keyName := range bindings[name] {
			var k ebiten.Key
			if err := k.UnmarshalText([]byte(keyName)); err != nil {
				return nil, fmt.Errorf("button %s: %w", name, err)
			}
			prev, bound := km.pins.Get(k)
			if !bound {
				km.keys = append(km.keys, k)
			}
			km.pins.Put(k, prev|pin)
		}
	}
	return km, nil
}

// Buttons returns the buttons whose keys are held.
func (km *Keymap) Buttons() emu.Buttons {
	var mask byte
	for _, k := range km.keys {
		if ebiten.IsKeyPressed(k) {
			pin, _ := km.pins.Get(k)
			mask |= pin
		}
	}
	return emu.ButtonsFromMask(mask)
}

// Len returns the number of bound keys.
func (km *Keymap) Len() int { return km.pins.Len() }
