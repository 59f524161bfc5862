package hw

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMCU() *MCU {
	return New(Config{ClockHz: DefaultClockHz, NoiseSeed: 42})
}

func TestButtonPort(t *testing.T) {
	m := newTestMCU()
	assert.Zero(t, m.Buttons())

	m.SetButtons(PinLeft | PinRotate | 0xF0)
	assert.Equal(t, byte(PinLeft|PinRotate), m.Read(RegPIND), "upper pins are not wired")
}

func TestTimer1OverflowAfterPeriod(t *testing.T) {
	m := newTestMCU()
	m.StartTimer(3580)
	assert.False(t, m.TimerExpired())

	m.Tick(3579 * TimerPrescaler)
	assert.False(t, m.TimerExpired())

	m.Tick(TimerPrescaler)
	assert.True(t, m.TimerExpired())

	m.Tick(10 * TimerPrescaler)
	assert.True(t, m.TimerExpired(), "flag latches until restart")

	m.StartTimer(400)
	assert.False(t, m.TimerExpired())
}

func TestTimer1SixteenBitAccess(t *testing.T) {
	m := newTestMCU()
	m.Write(RegTCNT1H, 0x12)
	m.Write(RegTCNT1L, 0x34)
	lo := m.Read(RegTCNT1L)
	hi := m.Read(RegTCNT1H)
	assert.Equal(t, byte(0x34), lo)
	assert.Equal(t, byte(0x12), hi)
}

func TestTimer1StoppedWithoutClockSelect(t *testing.T) {
	m := newTestMCU()
	m.Write(RegTCNT1H, 0xFF)
	m.Write(RegTCNT1L, 0xFF)
	m.Tick(1 << 20)
	assert.False(t, m.TimerExpired())
}

func TestTIFRClearsOnWriteOne(t *testing.T) {
	m := newTestMCU()
	m.StartTimer(1)
	m.Tick(TimerPrescaler)
	require.True(t, m.TimerExpired())

	m.Write(RegTIFR, 0)
	assert.True(t, m.TimerExpired())
	m.Write(RegTIFR, TOV1)
	assert.False(t, m.TimerExpired())
}

func TestADCSamples(t *testing.T) {
	a := newTestMCU()
	b := newTestMCU()

	before := a.Cycles()
	for i := 0; i < 64; i++ {
		s := a.Sample()
		assert.Less(t, s, uint16(1<<10))
		assert.Equal(t, s, b.Sample(), "same seed, same noise")
	}
	assert.Equal(t, before+64*adcCycles, a.Cycles())
	assert.Zero(t, a.Read(RegADCSRA)&ADSC, "conversion complete")
}

func TestSpinAbortsOnRelease(t *testing.T) {
	m := newTestMCU()
	assert.Zero(t, m.Spin(100), "no button held")

	m.SetButtons(PinDown)
	assert.Equal(t, 100, m.Spin(100))
	assert.Equal(t, uint64(100*SpinCycles), m.Cycles())
}

type capture struct {
	modes []bool
	bytes []byte
	flags []bool
	data  bool
}

func (c *capture) SetDataMode(data bool) {
	c.data = data
	c.modes = append(c.modes, data)
}

func (c *capture) Write(p []byte) (int, error) {
	for _, b := range p {
		c.bytes = append(c.bytes, b)
		c.flags = append(c.flags, c.data)
	}
	return len(p), nil
}

func TestSPIForwardsWithDataCommandLine(t *testing.T) {
	m := newTestMCU()
	dev := &capture{}
	m.AttachDisplay(dev)

	spi := m.SPI()
	spi.SetDataMode(false)
	n, err := spi.Write([]byte{0x20, 0x0C})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	spi.SetDataMode(true)
	_, err = spi.Write([]byte{0xAA, 0x55, 0x01})
	require.NoError(t, err)

	assert.Equal(t, []byte{0x20, 0x0C, 0xAA, 0x55, 0x01}, dev.bytes)
	assert.Equal(t, []bool{false, false, true, true, true}, dev.flags)
	assert.Equal(t, []bool{false, true}, dev.modes, "D/C toggles only on change")
	assert.Equal(t, uint64(5), m.BytesSent())
	assert.Equal(t, uint64(5*spiCycles), m.Cycles())
	assert.NotZero(t, m.Read(RegSPSR)&SPIF)
	assert.NotZero(t, m.Read(RegPORTB)&PortCE, "chip released after the transfer")
}

func TestSPIWithChipDisabled(t *testing.T) {
	m := newTestMCU()
	dev := &capture{}
	m.AttachDisplay(dev)

	m.Write(RegSPDR, 0x42)
	assert.Empty(t, dev.bytes)
	assert.Equal(t, uint64(1), m.BytesSent())
}

type brokenLink struct{ capture }

func (b *brokenLink) Write(p []byte) (int, error) {
	if len(b.bytes) == 2 {
		return 0, errors.New("link down")
	}
	return b.capture.Write(p)
}

func TestSPIReportsDeviceErrors(t *testing.T) {
	m := newTestMCU()
	dev := &brokenLink{}
	m.AttachDisplay(dev)

	n, err := m.SPI().Write([]byte{0x20, 0x0C, 0x80, 0x40})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spi byte 2")
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte{0x20, 0x0C}, dev.bytes)
	assert.Equal(t, uint64(3), m.BytesSent(), "the failed byte was still shifted out")
	assert.NotZero(t, m.Read(RegPORTB)&PortCE, "chip released after the failure")
}

func TestUnmappedRegister(t *testing.T) {
	m := newTestMCU()
	assert.Equal(t, byte(0xFF), m.Read(0x3F))
}

func TestSaveLoadStateReplaysNoise(t *testing.T) {
	m := newTestMCU()
	m.StartTimer(100)
	m.Tick(1234)
	snap, err := m.SaveState()
	require.NoError(t, err)

	first := []uint16{m.Sample(), m.Sample(), m.Sample()}
	cycles := m.Cycles()

	require.NoError(t, m.LoadState(snap))
	assert.Equal(t, first, []uint16{m.Sample(), m.Sample(), m.Sample()})
	assert.Equal(t, cycles, m.Cycles())
	assert.Error(t, m.LoadState(nil))
}
