package emu

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/game"
	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/hw"
)

// Config contains settings that affect emulation behavior.
type Config struct {
	Trace bool `json:"trace"` // log game events

	ClockHz   uint64 `json:"clock_hz"`
	NoiseSeed uint64 `json:"noise_seed"` // 0 picks a random seed
	FrameHz   int    `json:"frame_hz"`   // host frames per second

	// RepeatSpins is the busy-wait length after an iteration that saw a
	// button held. It sets the auto-repeat rate.
	RepeatSpins int `json:"repeat_spins"`
	// LoopCycles is charged per main loop iteration for scene composition.
	LoopCycles int `json:"loop_cycles"`

	PrimeDraws int `json:"prime_draws"`

	// FlashOnGameOver shows the display inverted for FlashMillis once the
	// game ends.
	FlashOnGameOver bool `json:"flash_on_game_over"`
	FlashMillis     int  `json:"flash_millis"`
}

const (
	DefaultFrameHz     = 60
	DefaultRepeatSpins = 165535
	DefaultLoopCycles  = 24000
	DefaultFlashMillis = 400
)

// DefaultConfig returns the timings of the reference board.
func DefaultConfig() Config {
	c := Config{FlashOnGameOver: true}
	c.Defaults()
	return c
}

// Defaults fills zero fields. NoiseSeed is left to the MCU.
func (c *Config) Defaults() {
	if c.ClockHz == 0 {
		c.ClockHz = hw.DefaultClockHz
	}
	if c.FrameHz <= 0 {
		c.FrameHz = DefaultFrameHz
	}
	if c.RepeatSpins <= 0 {
		c.RepeatSpins = DefaultRepeatSpins
	}
	if c.LoopCycles <= 0 {
		c.LoopCycles = DefaultLoopCycles
	}
	if c.PrimeDraws <= 0 {
		c.PrimeDraws = game.DefaultPrimeDraws
	}
	if c.FlashMillis <= 0 {
		c.FlashMillis = DefaultFlashMillis
	}
}

// FrameCycles is the number of core cycles per host frame.
func (c Config) FrameCycles() uint64 { return c.ClockHz / uint64(c.FrameHz) }

// LoadConfig overlays the "machine" object of the JSON file at path onto
// cfg. Fields absent from the file keep their value.
func LoadConfig(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read machine config: %w", err)
	}
	file := struct {
		Machine *Config `json:"machine"`
	}{Machine: cfg}
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to unmarshal machine config: %w", err)
	}
	cfg.Defaults()
	return nil
}
