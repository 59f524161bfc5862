// Package shape holds the static piece geometry.
//
// Every (shape, orientation) pair is one byte. The byte is a 3-wide bitmap read
// MSB first, wrapping to a new row after every third bit:
//
//	bit 7 6 5 -> row 0, columns 0 1 2
//	bit 4 3 2 -> row 1, columns 0 1 2
//	bit 1 0   -> row 2, columns 0 1
//
// For example 0x5C (010 111 00) is
//
//	.#.
//	###
package shape

import "math/bits"

const (
	Shapes       = 8
	Orientations = 4
	Count        = Shapes * Orientations

	// RowWidth is the number of mask bits consumed per geometry row.
	RowWidth = 3
)

// Shape numbers in table order.
const (
	I = iota // three cells long to fit the 3-wide packing
	J
	L
	O
	S
	T
	Z
	Dot // bonus single cell
)

// ID packs a shape number and an orientation: 000SSSOO.
type ID uint8

var table = [Count]uint8{
	0xE0, 0x92, 0xE0, 0x92, // I
	0xE4, 0xD2, 0x9C, 0x4B, // J
	0xF0, 0x93, 0x3C, 0xC9, // L
	0xD8, 0xD8, 0xD8, 0xD8, // O
	0x78, 0x99, 0x78, 0x99, // S
	0xE8, 0x9A, 0x5C, 0x59, // T
	0xCC, 0x5A, 0xCC, 0x5A, // Z
	0x80, 0x80, 0x80, 0x80, // .
}

var names = [Shapes]string{"I", "J", "L", "O", "S", "T", "Z", "."}

// Make builds the ID for shape s in orientation o. Out-of-range arguments are
// masked into range.
func Make(s, o int) ID { return ID((s&0x7)<<2 | o&0x3) }

func (id ID) Shape() int       { return int(id >> 2) }
func (id ID) Orientation() int { return int(id & 0x3) }

// Valid reports whether id indexes the table.
func (id ID) Valid() bool { return id < Count }

// Mask returns the geometry byte. id must be Valid.
func (id ID) Mask() uint8 { return table[id] }

// Cells is the number of occupied cells in the geometry.
func (id ID) Cells() int { return bits.OnesCount8(table[id]) }

// RotateCW advances the orientation, staying on the same shape.
func (id ID) RotateCW() ID { return id&^0x3 | (id+1)&0x3 }

// RotateCCW steps the orientation back, 0 wraps to 3.
func (id ID) RotateCCW() ID { return id&^0x3 | (id-1)&0x3 }

func (id ID) String() string {
	if !id.Valid() {
		return "?"
	}
	return names[id.Shape()] + string(rune('0'+id.Orientation()))
}
