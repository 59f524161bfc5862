package pcd8544

// Palette of a green-backlit reflective panel.
var (
	colorOn  = [3]byte{0x1E, 0x2A, 0x1E}
	colorOff = [3]byte{0x9B, 0xBC, 0x0F}
	colorDim = [3]byte{0x8A, 0xA6, 0x10} // powered down
)

// Framebuffer renders the visible segments into an RGBA buffer of
// Width*Height*4 bytes. The returned slice is reused by later calls.
func (c *Controller) Framebuffer() []byte {
	i := 0
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			col := colorOff
			switch {
			case c.powerDown:
				col = colorDim
			case c.Pixel(x, y):
				col = colorOn
			}
			c.fb[i+0] = col[0]
			c.fb[i+1] = col[1]
			c.fb[i+2] = col[2]
			c.fb[i+3] = 0xFF
			i += 4
		}
	}
	return c.fb
}
