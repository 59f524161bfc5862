// Package rng draws piece ids from an analog noise channel.
package rng

import (
	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/diag"
	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/shape"
)

// NoiseSource returns one conversion of a floating analog input.
type NoiseSource interface {
	Sample() uint16
}

// NoiseFunc adapts a function to NoiseSource.
type NoiseFunc func() uint16

func (f NoiseFunc) Sample() uint16 { return f() }

// shapeBits selects the shape number of an id and leaves orientation 0.
const shapeBits = 0x1C

// Generator mixes noise samples into a persistent 8-bit seed. The sequence is
// not reproducible unless the noise source is.
type Generator struct {
	src  NoiseSource
	seed uint8
}

func New(src NoiseSource) *Generator {
	return &Generator{src: src}
}

// Next returns a piece id with orientation 0.
func (g *Generator) Next() (shape.ID, error) {
	g.seed = g.seed<<1 ^ uint8(g.src.Sample())
	id := shape.ID(g.seed & shapeBits)
	if err := diag.Assertf(id.Valid() && id.Orientation() == 0, "rand %d", id); err != nil {
		return 0, err
	}
	return id, nil
}

// Seed exposes the mixing state.
func (g *Generator) Seed() uint8 { return g.seed }

// SetSeed restores a mixing state returned by Seed.
func (g *Generator) SetSeed(s uint8) { g.seed = s }
