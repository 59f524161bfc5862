package hw

import (
	"fmt"

	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/lcd"
)

// SetButtons drives the port D input pins. Bits outside PinMask are ignored.
func (m *MCU) SetButtons(mask byte) { m.pind = mask & PinMask }

// Buttons returns the current port D level.
func (m *MCU) Buttons() byte { return m.Read(RegPIND) }

var timer1Prescalers = [8]uint64{0, 1, 8, 64, 256, 1024, 0, 0}

func (m *MCU) tickTimer1(cycles uint64) {
	div := timer1Prescalers[m.tccr1b&0x07]
	if div == 0 {
		return
	}
	m.timerAcc += cycles
	ticks := m.timerAcc / div
	m.timerAcc %= div
	if ticks == 0 {
		return
	}
	if uint64(m.tcnt1)+ticks > 0xFFFF {
		m.tifr |= TOV1
	}
	m.tcnt1 += uint16(ticks)
}

// StartTimer reloads Timer1 so that it overflows after period ticks of the
// 1024 prescaler, clears the overflow flag and starts counting.
func (m *MCU) StartTimer(period uint16) {
	m.Write(RegTIFR, TOV1)
	start := uint16(0x10000 - uint32(period))
	m.Write(RegTCNT1H, byte(start>>8))
	m.Write(RegTCNT1L, byte(start))
	m.Write(RegTCCR1B, TimerStart)
}

// TimerExpired reports the Timer1 overflow flag. It stays set until the
// timer is restarted.
func (m *MCU) TimerExpired() bool { return m.Read(RegTIFR)&TOV1 != 0 }

// EnableADC selects ADC0 against the internal reference and turns the
// converter on.
func (m *MCU) EnableADC() {
	m.Write(RegADMUX, 0xC0)
	m.Write(RegADCSRA, ADEN|0x06)
}

func (m *MCU) convert() {
	m.Tick(adcCycles)
	m.adc = uint16(m.noise.IntN(1 << 10))
	m.adcsra &^= ADSC
}

// Sample runs one conversion of the floating input and returns the 10-bit
// result.
func (m *MCU) Sample() uint16 {
	if m.adcsra&ADEN == 0 {
		m.EnableADC()
	}
	m.Write(RegADCSRA, m.adcsra|ADSC)
	lo := m.Read(RegADCL)
	hi := m.Read(RegADCH)
	return uint16(hi)<<8 | uint16(lo)
}

// AttachDisplay connects the device on the other end of the SPI link.
func (m *MCU) AttachDisplay(dev lcd.Port) {
	m.dev = dev
	m.devSynced = false
	m.spcr = 0x50 // enable, master, clk/4
}

// SPI returns the display link as an lcd.Port.
func (m *MCU) SPI() *SPI { return m.spi }

// BytesSent returns the number of bytes shifted out over SPI.
func (m *MCU) BytesSent() uint64 { return m.sent }

func (m *MCU) transmit(b byte) error {
	m.spdr = b
	m.Tick(spiCycles)
	m.spsr |= SPIF
	m.sent++
	if m.dev == nil || m.portb&PortCE != 0 {
		return nil
	}
	data := m.portb&PortDC != 0
	if data != m.devData || !m.devSynced {
		m.dev.SetDataMode(data)
		m.devData = data
		m.devSynced = true
	}
	_, err := m.dev.Write([]byte{b})
	return err
}

// Spin busy-waits for up to n iterations while any button is held and
// returns the number of iterations run.
func (m *MCU) Spin(n int) int {
	i := 0
	for ; i < n && m.pind != 0; i++ {
		m.Tick(SpinCycles)
	}
	return i
}

// SPI drives the display link: SetDataMode sets the D/C pin and Write shifts
// bytes out with the chip enabled.
type SPI struct {
	m *MCU
}

func (s *SPI) SetDataMode(data bool) {
	if data {
		s.m.portb |= PortDC
	} else {
		s.m.portb &^= PortDC
	}
}

func (s *SPI) Write(p []byte) (int, error) {
	s.m.portb &^= PortCE
	defer func() { s.m.portb |= PortCE }()
	for i, b := range p {
		if err := s.m.transmit(b); err != nil {
			return i, fmt.Errorf("spi byte %d: %w", i, err)
		}
	}
	return len(p), nil
}
