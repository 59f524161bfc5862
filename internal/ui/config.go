package ui

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config contains window and input related settings.
type Config struct {
	Title string `json:"title"` // window title
	Scale int    `json:"scale"` // integer upscaling factor
	// Keys maps a button name (left, right, down, rotate) to key names as
	// understood by ebiten.Key.UnmarshalText, e.g. "ArrowLeft" or "A".
	Keys map[string][]string `json:"keys"`
	// ShowHelp draws the key reference over the display on start.
	ShowHelp bool `json:"show_help"`
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Title == "" {
		c.Title = "lcdtetris"
	}
	if c.Scale <= 0 {
		c.Scale = 8
	}
	if c.Keys == nil {
		c.Keys = DefaultKeys()
	}
}

// DefaultKeys returns the arrow keys plus WASD, with space also rotating.
func DefaultKeys() map[string][]string {
	return map[string][]string{
		"left":   {"ArrowLeft", "A"},
		"right":  {"ArrowRight", "D"},
		"down":   {"ArrowDown", "S"},
		"rotate": {"ArrowUp", "W", "Space"},
	}
}

// LoadConfig overlays the "ui" object of the JSON file at path onto cfg.
func LoadConfig(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read ui config: %w", err)
	}
	file := struct {
		UI *Config `json:"ui"`
	}{UI: cfg}
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to unmarshal ui config: %w", err)
	}
	cfg.Defaults()
	return nil
}
