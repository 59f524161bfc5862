// Package pcd8544 emulates the receiving side of a PCD8544 84x48 LCD
// controller: the serial command decoder, the 6x84 display RAM with its
// address counters, and the display modes.
package pcd8544

import (
	"bytes"
	"encoding/gob"
)

const (
	Width  = 84
	Height = 48
	Banks  = Height / 8
)

// DisplayMode is the D/E pair of the display control command.
type DisplayMode uint8

const (
	Blank DisplayMode = iota
	AllOn
	Normal
	Inverse
)

func (m DisplayMode) String() string {
	switch m {
	case Blank:
		return "blank"
	case AllOn:
		return "all-on"
	case Normal:
		return "normal"
	case Inverse:
		return "inverse"
	}
	return "unknown"
}

// Controller implements lcd.Port. The zero value is not usable; call New.
type Controller struct {
	ddram [Banks][Width]byte
	x, y  int

	data bool // D/C line

	powerDown bool
	vertical  bool
	extended  bool

	mode DisplayMode

	// extended instruction set
	vop       byte
	tempCoeff byte
	bias      byte

	commands uint64
	written  uint64

	fb []byte // RGBA, rebuilt by Framebuffer
}

// New returns a controller in its reset state: powered down, blank, both
// address counters at zero.
func New() *Controller {
	c := &Controller{fb: make([]byte, Width*Height*4)}
	c.Reset()
	return c
}

// Reset applies the RES pin. Display RAM is left undefined on real parts;
// here it is cleared.
func (c *Controller) Reset() {
	c.ddram = [Banks][Width]byte{}
	c.x, c.y = 0, 0
	c.data = false
	c.powerDown = true
	c.vertical = false
	c.extended = false
	c.mode = Blank
	c.vop, c.tempCoeff, c.bias = 0, 0, 0
	c.commands, c.written = 0, 0
}

func (c *Controller) SetDataMode(data bool) { c.data = data }

// Write shifts bytes in as data or commands depending on the D/C line.
func (c *Controller) Write(p []byte) (int, error) {
	for _, b := range p {
		if c.data {
			c.WriteData(b)
		} else {
			c.WriteCommand(b)
		}
	}
	return len(p), nil
}

// WriteCommand decodes one instruction byte. Reserved encodings are ignored.
func (c *Controller) WriteCommand(b byte) {
	c.commands++
	switch {
	case b == 0x00:
		// NOP
	case b&0xF8 == 0x20:
		c.powerDown = b&0x04 != 0
		c.vertical = b&0x02 != 0
		c.extended = b&0x01 != 0
	case c.extended:
		c.writeExtended(b)
	case b&0xFA == 0x08:
		d := b&0x04 != 0
		e := b&0x01 != 0
		switch {
		case !d && !e:
			c.mode = Blank
		case !d && e:
			c.mode = AllOn
		case d && !e:
			c.mode = Normal
		default:
			c.mode = Inverse
		}
	case b&0xF8 == 0x40:
		if y := int(b & 0x07); y < Banks {
			c.y = y
		}
	case b&0x80 != 0:
		if x := int(b & 0x7F); x < Width {
			c.x = x
		}
	}
}

func (c *Controller) writeExtended(b byte) {
	switch {
	case b&0x80 != 0:
		c.vop = b & 0x7F
	case b&0xF8 == 0x10:
		c.bias = b & 0x07
	case b&0xFC == 0x04:
		c.tempCoeff = b & 0x03
	}
}

// WriteData stores one byte at the address counters and advances them.
func (c *Controller) WriteData(b byte) {
	c.written++
	c.ddram[c.y][c.x] = b
	if c.vertical {
		c.y++
		if c.y == Banks {
			c.y = 0
			c.x++
			if c.x == Width {
				c.x = 0
			}
		}
		return
	}
	c.x++
	if c.x == Width {
		c.x = 0
		c.y++
		if c.y == Banks {
			c.y = 0
		}
	}
}

// Address returns the X and Y address counters.
func (c *Controller) Address() (x, y int) { return c.x, c.y }

func (c *Controller) Mode() DisplayMode { return c.mode }
func (c *Controller) PoweredDown() bool { return c.powerDown }
func (c *Controller) Vertical() bool    { return c.vertical }
func (c *Controller) Extended() bool    { return c.extended }
func (c *Controller) Vop() byte         { return c.vop }
func (c *Controller) Bias() byte        { return c.bias }
func (c *Controller) TempCoeff() byte   { return c.tempCoeff }

// Counts returns the number of command and data bytes received since reset.
func (c *Controller) Counts() (commands, data uint64) { return c.commands, c.written }

// RAM returns a copy of display RAM in bank order, the layout of the host
// frame cache.
func (c *Controller) RAM() []byte {
	out := make([]byte, 0, Banks*Width)
	for bank := range c.ddram {
		out = append(out, c.ddram[bank][:]...)
	}
	return out
}

// Pixel reports whether the segment at (x, y) is dark, taking the display
// mode and power state into account.
func (c *Controller) Pixel(x, y int) bool {
	if x < 0 || x >= Width || y < 0 || y >= Height || c.powerDown {
		return false
	}
	switch c.mode {
	case AllOn:
		return true
	case Normal:
		return c.ddram[y>>3][x]&(1<<(y&7)) != 0
	case Inverse:
		return c.ddram[y>>3][x]&(1<<(y&7)) == 0
	}
	return false
}

type state struct {
	DDRAM                    [Banks][Width]byte
	X, Y                     int
	Data                     bool
	PowerDown, Vertical, Ext bool
	Mode                     DisplayMode
	Vop, TempCoeff, Bias     byte
	Commands, Written        uint64
}

// SaveState serializes the controller.
func (c *Controller) SaveState() ([]byte, error) {
	s := state{
		DDRAM: c.ddram, X: c.x, Y: c.y, Data: c.data,
		PowerDown: c.powerDown, Vertical: c.vertical, Ext: c.extended,
		Mode: c.mode, Vop: c.vop, TempCoeff: c.tempCoeff, Bias: c.bias,
		Commands: c.commands, Written: c.written,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LoadState restores a snapshot taken with SaveState.
func (c *Controller) LoadState(data []byte) error {
	var s state
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	c.ddram, c.x, c.y, c.data = s.DDRAM, s.X, s.Y, s.Data
	c.powerDown, c.vertical, c.extended = s.PowerDown, s.Vertical, s.Ext
	c.mode, c.vop, c.tempCoeff, c.bias = s.Mode, s.Vop, s.TempCoeff, s.Bias
	c.commands, c.written = s.Commands, s.Written
	return nil
}
