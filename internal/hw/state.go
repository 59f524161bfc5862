package hw

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

type mcuState struct {
	Cycles            uint64
	PIND, PORTB       byte
	TCNT1             uint16
	TCCR1B, TIFR, Tmp byte
	TimerAcc          uint64
	ADMUX, ADCSRA     byte
	ADC               uint16
	Noise             []byte
	SPCR, SPSR, SPDR  byte
	DevData           bool
	Sent              uint64
}

// SaveState serializes registers, clocks and the noise generator. The
// attached display is not included.
func (m *MCU) SaveState() ([]byte, error) {
	noise, err := m.pcg.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("noise state: %w", err)
	}
	s := mcuState{
		Cycles: m.cycles, PIND: m.pind, PORTB: m.portb,
		TCNT1: m.tcnt1, TCCR1B: m.tccr1b, TIFR: m.tifr, Tmp: m.tmp, TimerAcc: m.timerAcc,
		ADMUX: m.admux, ADCSRA: m.adcsra, ADC: m.adc, Noise: noise,
		SPCR: m.spcr, SPSR: m.spsr, SPDR: m.spdr, DevData: m.devData, Sent: m.sent,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (m *MCU) LoadState(data []byte) error {
	var s mcuState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	if err := m.pcg.UnmarshalBinary(s.Noise); err != nil {
		return err
	}
	m.cycles, m.pind, m.portb = s.Cycles, s.PIND, s.PORTB
	m.tcnt1, m.tccr1b, m.tifr, m.tmp, m.timerAcc = s.TCNT1, s.TCCR1B, s.TIFR, s.Tmp, s.TimerAcc
	m.admux, m.adcsra, m.adc = s.ADMUX, s.ADCSRA, s.ADC
	m.spcr, m.spsr, m.spdr, m.devData, m.sent = s.SPCR, s.SPSR, s.SPDR, s.DevData, s.Sent
	return nil
}
