// Package lcd keeps the 84x48 monochrome frame buffer, draws into it and
// streams it to a PCD8544-style controller.
//
// The buffer is six banks of 84 bytes. Each byte is a vertical strip of eight
// pixels, bit 0 at the top, so pixel (x, y) lives in byte (y/8)*84+x at bit
// y%8. That is the order the controller consumes in horizontal addressing mode.
package lcd

import (
	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/diag"
)

const (
	Width     = 84
	Height    = 48
	Banks     = Height / 8
	CacheSize = Width * Banks
)

// Pen selects whether drawing primitives set or clear pixels.
type Pen uint8

const (
	PenOff Pen = iota
	PenOn
)

// Frame is the frame buffer plus drawing state.
type Frame struct {
	cache  [CacheSize]byte
	pen    Pen
	cursor int // text cursor, a cache index
}

func New() *Frame {
	return &Frame{pen: PenOn}
}

// Clear zeroes every pixel. The pen is left as it was.
func (f *Frame) Clear() {
	f.cache = [CacheSize]byte{}
}

// SetPen selects the drawing pen.
func (f *Frame) SetPen(p Pen) error {
	if err := diag.Assertf(p == PenOn || p == PenOff, "pen %d", p); err != nil {
		return err
	}
	f.pen = p
	return nil
}

// Pen returns the current drawing pen.
func (f *Frame) Pen() Pen { return f.pen }

// SetPixel sets or clears (x, y) according to the pen.
func (f *Frame) SetPixel(x, y int) error {
	if err := diag.Assertf(x >= 0 && x < Width && y >= 0 && y < Height, "pixel %d,%d", x, y); err != nil {
		return err
	}
	f.setPixel(x, y)
	return nil
}

func (f *Frame) setPixel(x, y int) {
	idx := (y>>3)*Width + x
	mask := byte(1) << (y & 7)
	if f.pen == PenOn {
		f.cache[idx] |= mask
	} else {
		f.cache[idx] &^= mask
	}
}

// Pixel reports whether (x, y) is lit. Coordinates off the screen are dark.
func (f *Frame) Pixel(x, y int) bool {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return false
	}
	return f.cache[(y>>3)*Width+x]&(1<<(y&7)) != 0
}

// Bar paints a w x h rectangle with its top-left corner at (x, y).
func (f *Frame) Bar(x, y, w, h int) error {
	if err := diag.Assertf(x >= 0 && x < Width && y >= 0 && y < Height, "bar at %d,%d", x, y); err != nil {
		return err
	}
	if err := diag.Assertf(w >= 0 && h >= 0 && x+w <= Width && y+h <= Height, "bar %dx%d", w, h); err != nil {
		return err
	}
	for row := y; row < y+h; row++ {
		for col := x; col < x+w; col++ {
			f.setPixel(col, row)
		}
	}
	return nil
}

// Bytes returns the frame buffer in transmission order. The slice aliases the
// buffer and changes with the next drawing call.
func (f *Frame) Bytes() []byte { return f.cache[:] }
