// Package hw emulates the microcontroller peripherals the game firmware
// touches: the button port, Timer1, the ADC used as a noise source and the
// SPI link with its D/C line. Registers are reached through Read/Write by I/O
// address like on the real part; the helper methods wrap the register
// sequences the firmware uses.
package hw

import (
	"log"
	"math/rand/v2"

	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/lcd"
)

// I/O register addresses (ATmega8 I/O space).
const (
	RegADCL   = 0x04
	RegADCH   = 0x05
	RegADCSRA = 0x06
	RegADMUX  = 0x07
	RegSPCR   = 0x0D
	RegSPSR   = 0x0E
	RegSPDR   = 0x0F
	RegPIND   = 0x10
	RegPORTB  = 0x18
	RegTCNT1L = 0x2C
	RegTCNT1H = 0x2D
	RegTCCR1B = 0x2E
	RegTIFR   = 0x38
)

// Button pins on port D, active high.
const (
	PinLeft   = 1 << 0 // PD0
	PinDown   = 1 << 1 // PD1
	PinRight  = 1 << 2 // PD2
	PinRotate = 1 << 3 // PD3

	PinMask = PinLeft | PinDown | PinRight | PinRotate
)

// Register bits.
const (
	TOV1 = 1 << 2 // TIFR: Timer1 overflow

	ADSC = 1 << 6 // ADCSRA: start conversion
	ADEN = 1 << 7 // ADCSRA: enable

	SPIF = 1 << 7 // SPSR: transfer complete

	PortDC = 1 << 0 // PB0: display data/command
	PortCE = 1 << 2 // PB2: display chip enable, active low
)

const (
	// DefaultClockHz is the crystal the firmware timings were tuned on.
	DefaultClockHz = 7_372_800

	// TimerPrescaler is the Timer1 divider selected by CS12|CS10.
	TimerPrescaler = 1024
	TimerStart     = 0x05 // CS12|CS10

	// SpinCycles is the cost of one busy-wait iteration.
	SpinCycles = 8

	adcCycles = 13 * 64 // one conversion at the 64 prescaler
	spiCycles = 8 * 4   // eight bits at clk/4
)

// Config selects the clock and the noise seed. A zero NoiseSeed picks a
// random one.
type Config struct {
	ClockHz   uint64
	NoiseSeed uint64
}

// Defaults fills missing fields.
func (c *Config) Defaults() {
	if c.ClockHz == 0 {
		c.ClockHz = DefaultClockHz
	}
	if c.NoiseSeed == 0 {
		c.NoiseSeed = rand.Uint64()
	}
}

type MCU struct {
	cfg    Config
	cycles uint64

	pind  byte
	portb byte

	// Timer1
	tcnt1    uint16
	tccr1b   byte
	tifr     byte
	tmp      byte // 16-bit access latch
	timerAcc uint64

	// ADC
	admux  byte
	adcsra byte
	adc    uint16
	pcg    *rand.PCG
	noise  *rand.Rand

	// SPI
	spcr      byte
	spsr      byte
	spdr      byte
	dev       lcd.Port
	devData   bool
	devSynced bool
	sent      uint64

	spi *SPI
}

func New(cfg Config) *MCU {
	cfg.Defaults()
	pcg := rand.NewPCG(cfg.NoiseSeed, cfg.NoiseSeed^0x9E3779B97F4A7C15)
	m := &MCU{
		cfg:   cfg,
		pcg:   pcg,
		noise: rand.New(pcg),
		portb: PortCE,
	}
	m.spi = &SPI{m: m}
	return m
}

// ClockHz returns the emulated core clock.
func (m *MCU) ClockHz() uint64 { return m.cfg.ClockHz }

// Cycles returns the number of core cycles elapsed since power-on.
func (m *MCU) Cycles() uint64 { return m.cycles }

// Tick advances the core clock by n cycles and runs the timers.
func (m *MCU) Tick(n int) {
	if n <= 0 {
		return
	}
	m.cycles += uint64(n)
	m.tickTimer1(uint64(n))
}

func (m *MCU) Read(addr byte) byte {
	switch addr {
	case RegPIND:
		return m.pind
	case RegPORTB:
		return m.portb
	case RegTIFR:
		return m.tifr
	case RegTCCR1B:
		return m.tccr1b
	case RegTCNT1L:
		m.tmp = byte(m.tcnt1 >> 8)
		return byte(m.tcnt1)
	case RegTCNT1H:
		return m.tmp
	case RegADMUX:
		return m.admux
	case RegADCSRA:
		return m.adcsra
	case RegADCL:
		m.tmp = byte(m.adc >> 8)
		return byte(m.adc)
	case RegADCH:
		return m.tmp
	case RegSPCR:
		return m.spcr
	case RegSPSR:
		return m.spsr
	case RegSPDR:
		return m.spdr
	default:
		return 0xFF // unmapped
	}
}

func (m *MCU) Write(addr, value byte) {
	switch addr {
	case RegPORTB:
		m.portb = value
	case RegTIFR:
		// Flags clear by writing one.
		m.tifr &^= value
	case RegTCCR1B:
		m.tccr1b = value & 0x07
	case RegTCNT1H:
		m.tmp = value
	case RegTCNT1L:
		m.tcnt1 = uint16(m.tmp)<<8 | uint16(value)
		m.timerAcc = 0
	case RegADMUX:
		m.admux = value
	case RegADCSRA:
		m.adcsra = value
		if value&ADSC != 0 && value&ADEN != 0 {
			m.convert()
		}
	case RegSPCR:
		m.spcr = value
	case RegSPDR:
		if err := m.transmit(value); err != nil {
			log.Printf("[hw] spi: %v", err)
		}
	}
}
