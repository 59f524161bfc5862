// Command replay runs an input script against the emulated board without a
// window and prints the final board, score and optionally the LCD contents.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/emu"
	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/pcd8544"
)

func main() {
	scriptPath := flag.String("script", "", "input script, - for stdin")
	configPath := flag.String("config", "", "optional JSON config")
	seed := flag.Uint64("seed", 1, "ADC noise seed")
	frames := flag.Int("frames", 0, "frames to run; 0 runs the whole script")
	trace := flag.Bool("trace", false, "log game events")
	showLCD := flag.Bool("lcd", false, "print the LCD contents as text")
	expectLines := flag.Int("lines", -1, "exit 1 unless this many lines were cleared; -1 disables")
	expectOver := flag.Bool("over", false, "exit 1 unless the game ended")
	timeout := flag.Duration("timeout", 0, "optional wall-clock timeout (e.g. 30s, 2m); 0 disables")
	flag.Parse()

	if *scriptPath == "" {
		log.Fatal("-script is required")
	}
	script, err := readScript(*scriptPath)
	if err != nil {
		log.Fatalf("read script: %v", err)
	}

	cfg := emu.DefaultConfig()
	if *configPath != "" {
		if err := emu.LoadConfig(*configPath, &cfg); err != nil {
			log.Fatalf("config: %v", err)
		}
	}
	cfg.NoiseSeed = *seed
	cfg.Trace = cfg.Trace || *trace

	m, err := emu.New(cfg)
	if err != nil {
		log.Printf("start: %v", err)
	}

	n := *frames
	if n <= 0 {
		n = script.Frames()
	}
	start := time.Now()
	var deadline time.Time
	if *timeout > 0 {
		deadline = start.Add(*timeout)
	}
	ran := 0
	for ran < n && m.State() == emu.Running {
		m.SetButtons(script.At(ran))
		m.StepFrame()
		ran++
		if !deadline.IsZero() && time.Now().After(deadline) {
			fmt.Printf("\nTimeout after %s.\n", time.Since(start).Truncate(time.Millisecond))
			report(m, ran, *showLCD)
			os.Exit(2)
		}
	}

	report(m, ran, *showLCD)
	if f := m.Fault(); f != nil {
		os.Exit(3)
	}
	if *expectLines >= 0 && m.Game().Score() != *expectLines {
		fmt.Printf("\nExpected %d lines, got %d.\n", *expectLines, m.Game().Score())
		os.Exit(1)
	}
	if *expectOver && m.State() == emu.Running {
		fmt.Printf("\nExpected game over.\n")
		os.Exit(1)
	}
}

func readScript(path string) (emu.Script, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return emu.ParseScript(r)
}

func report(m *emu.Machine, frames int, showLCD bool) {
	g := m.Game()
	b := g.Board()
	fmt.Print(b.String())
	fmt.Printf("\nactive=%s next=%s\n", g.Active(), g.Next().ID)
	fmt.Printf("Done: frames=%d loops=%d cycles=%d state=%s lines=%d\n",
		frames, m.Loops(), m.MCU().Cycles(), m.State(), g.Score())
	if err := m.Err(); err != nil {
		fmt.Printf("error: %v\n", err)
	}
	if showLCD {
		fmt.Println()
		fmt.Print(lcdText(m.Display()))
	}
}

func lcdText(d *pcd8544.Controller) string {
	var sb strings.Builder
	for y := 0; y < pcd8544.Height; y++ {
		for x := 0; x < pcd8544.Width; x++ {
			if d.Pixel(x, y) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
