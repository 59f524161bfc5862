package ui

import (
	"fmt"
	"image/color"
	"image/png"
	"log"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/emu"
	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/pcd8544"
)

type App struct {
	cfg  Config
	m    *emu.Machine
	keys *Keymap
	tex  *ebiten.Image
	dim  *ebiten.Image

	paused   bool
	fast     bool
	showHelp bool

	slot []byte // quick save, kept in memory only

	status    string
	statusTTL int
}

func NewApp(cfg Config, m *emu.Machine) (*App, error) {
	cfg.Defaults()
	keys, err := NewKeymap(cfg.Keys)
	if err != nil {
		return nil, fmt.Errorf("key bindings: %w", err)
	}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(pcd8544.Width*cfg.Scale, pcd8544.Height*cfg.Scale)
	return &App{cfg: cfg, m: m, keys: keys, showHelp: cfg.ShowHelp}, nil
}

func (a *App) Run() error { return ebiten.RunGame(a) }

func (a *App) flash(format string, args ...any) {
	a.status = fmt.Sprintf(format, args...)
	a.statusTTL = 90
}

func (a *App) Update() error {
	a.m.SetButtons(a.keys.Buttons())

	// Pause toggle (P)
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.paused = !a.paused
	}

	// Fast-forward (Tab): while held, run multiple frames per Ebiten update
	a.fast = ebiten.IsKeyPressed(ebiten.KeyTab)

	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		if err := a.m.Reset(); err != nil {
			log.Printf("reset: %v", err)
		}
		a.flash("reset")
	}

	// Frame-step when paused (N)
	if a.paused && inpututil.IsKeyJustPressed(ebiten.KeyN) {
		a.m.StepFrame()
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		a.showHelp = !a.showHelp
	}

	// Quick save (F5) and load (F9)
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		if data, err := a.m.SaveState(); err != nil {
			a.flash("save: %v", err)
		} else {
			a.slot = data
			a.flash("saved")
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF9) && a.slot != nil {
		if err := a.m.LoadState(a.slot); err != nil {
			log.Printf("load state: %v", err)
		}
		a.flash("loaded")
	}

	// Screenshot (F12)
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		if name, err := a.saveScreenshot(); err != nil {
			log.Printf("screenshot: %v", err)
		} else {
			a.flash("wrote %s", name)
		}
	}

	if !a.paused {
		if a.fast {
			// Run a few frames to speed up
			for i := 0; i < 5; i++ {
				a.m.StepFrame()
			}
		} else {
			a.m.StepFrame()
		}
	}
	if a.statusTTL > 0 {
		a.statusTTL--
	}
	return nil
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(pcd8544.Width, pcd8544.Height)
	}
	a.tex.WritePixels(a.m.Framebuffer())
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(a.cfg.Scale), float64(a.cfg.Scale))
	screen.DrawImage(a.tex, op)

	var lines []string
	switch {
	case a.m.State() == emu.Halted:
		lines = append(lines, "HALTED", a.m.Err().Error())
	case a.m.State() != emu.Running:
		lines = append(lines, fmt.Sprintf("GAME OVER  lines %d", a.m.Game().Score()), "R to restart")
	case a.paused:
		lines = append(lines, "PAUSED  N: step")
	}
	if a.showHelp {
		lines = append(lines,
			"arrows/WASD move, up/space rotate",
			"P pause  R reset  Tab fast",
			"F5 save  F9 load  F12 shot",
		)
	}
	if a.statusTTL > 0 {
		lines = append(lines, a.status)
	}
	if len(lines) == 0 {
		return
	}

	if a.dim == nil {
		a.dim = ebiten.NewImage(screen.Bounds().Dx(), screen.Bounds().Dy())
		a.dim.Fill(color.RGBA{0, 0, 0, 128})
	}
	screen.DrawImage(a.dim, nil)
	for i, s := range lines {
		ebitenutil.DebugPrintAt(screen, s, 8, 8+i*16)
	}
}

func (a *App) Layout(outW, outH int) (int, int) {
	return pcd8544.Width * a.cfg.Scale, pcd8544.Height * a.cfg.Scale
}

func (a *App) saveScreenshot() (string, error) {
	ts := time.Now().Format("20060102_150405")
	name := fmt.Sprintf("lcdtetris_%s.png", ts)
	f, err := os.Create(name)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return name, png.Encode(f, a.m.Image())
}
