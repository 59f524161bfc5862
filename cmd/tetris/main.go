package main

import (
	"flag"
	"fmt"
	"hash/crc32"
	"image/png"
	"log"
	"os"
	"strings"
	"time"

	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/emu"
	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/ui"
)

type CLIFlags struct {
	Config string
	Seed   uint64
	Scale  int
	Title  string
	Trace  bool

	// headless
	Headless bool
	Frames   int
	Script   string
	PNGOut   string
	Expect   string // expected framebuffer CRC32 hex (e.g., "1a2b3c4d")
}

func parseFlags() CLIFlags {
	var f CLIFlags
	flag.StringVar(&f.Config, "config", "", "optional JSON config with machine and ui sections")
	flag.Uint64Var(&f.Seed, "seed", 0, "ADC noise seed (0 = random)")
	flag.IntVar(&f.Scale, "scale", 0, "window scale")
	flag.StringVar(&f.Title, "title", "", "window title")
	flag.BoolVar(&f.Trace, "trace", false, "log game events")

	// headless options
	flag.BoolVar(&f.Headless, "headless", false, "run without a window")
	flag.IntVar(&f.Frames, "frames", 300, "frames to run in headless mode")
	flag.StringVar(&f.Script, "script", "", "input script for headless mode")
	flag.StringVar(&f.PNGOut, "outpng", "", "write last framebuffer to PNG at path")
	flag.StringVar(&f.Expect, "expect", "", "assert framebuffer CRC32 (hex)")
	flag.Parse()
	return f
}

func runHeadless(m *emu.Machine, script emu.Script, frames int, pngPath, expectCRC string) error {
	if frames <= 0 {
		frames = 1
	}

	start := time.Now()
	ran := m.Play(script, frames)
	// keep the clock running past a game over so the display settles
	for i := ran; i < frames; i++ {
		m.StepFrame()
	}
	dur := time.Since(start)

	fb := m.Framebuffer() // RGBA 84x48*4
	crc := crc32.ChecksumIEEE(fb)
	fps := float64(frames) / dur.Seconds()

	log.Printf("headless: frames=%d elapsed=%s fps=%.2f state=%s lines=%d fb_crc32=%08x",
		frames, dur.Truncate(time.Millisecond), fps, m.State(), m.Game().Score(), crc)

	if pngPath != "" {
		if err := savePNG(m, pngPath); err != nil {
			return fmt.Errorf("write PNG: %w", err)
		}
		log.Printf("wrote %s", pngPath)
	}

	if expectCRC != "" {
		// normalize expected hex (allow with/without 0x, upper/lowercase)
		want := strings.TrimPrefix(strings.ToLower(expectCRC), "0x")
		got := fmt.Sprintf("%08x", crc)
		if got != want {
			return fmt.Errorf("checksum mismatch: got %s, want %s", got, want)
		}
	}
	return nil
}

func savePNG(m *emu.Machine, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, m.Image())
}

func loadScript(path string) (emu.Script, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return emu.ParseScript(f)
}

func main() {
	f := parseFlags()

	emuCfg := emu.DefaultConfig()
	uiCfg := ui.Config{}
	if f.Config != "" {
		if err := emu.LoadConfig(f.Config, &emuCfg); err != nil {
			log.Fatalf("config: %v", err)
		}
		if err := ui.LoadConfig(f.Config, &uiCfg); err != nil {
			log.Fatalf("config: %v", err)
		}
	}
	if f.Seed != 0 {
		emuCfg.NoiseSeed = f.Seed
	}
	if f.Trace {
		emuCfg.Trace = true
	}
	if f.Scale > 0 {
		uiCfg.Scale = f.Scale
	}
	if f.Title != "" {
		uiCfg.Title = f.Title
	}

	m, err := emu.New(emuCfg)
	if err != nil {
		// the fault is on the display; keep going so it can be seen
		log.Printf("start: %v", err)
	}

	if f.Headless {
		script, err := loadScript(f.Script)
		if err != nil {
			log.Fatalf("script: %v", err)
		}
		if err := runHeadless(m, script, f.Frames, f.PNGOut, f.Expect); err != nil {
			log.Fatal(err)
		}
		return
	}

	app, err := ui.NewApp(uiCfg, m)
	if err != nil {
		log.Fatal(err)
	}
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
