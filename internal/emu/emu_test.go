package emu

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/board"
	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/diag"
	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/game"
	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/lcd"
	"github.com/FabianRolfMatthiasNoll/lcdtetris/internal/pcd8544"
)

func testConfig() Config {
	c := DefaultConfig()
	c.NoiseSeed = 7
	c.RepeatSpins = 1
	return c
}

func newMachine(t *testing.T, cfg Config) *Machine {
	t.Helper()
	m, err := New(cfg)
	require.NoError(t, err)
	return m
}

func mustScript(t *testing.T, text string) Script {
	t.Helper()
	s, err := ParseScript(strings.NewReader(text))
	require.NoError(t, err)
	return s
}

func TestConfigDefaults(t *testing.T) {
	var c Config
	c.Defaults()
	assert.Equal(t, uint64(7_372_800), c.ClockHz)
	assert.Equal(t, 60, c.FrameHz)
	assert.Equal(t, DefaultRepeatSpins, c.RepeatSpins)
	assert.Equal(t, game.DefaultPrimeDraws, c.PrimeDraws)
	assert.Equal(t, uint64(122880), c.FrameCycles())
	assert.Zero(t, c.NoiseSeed)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"machine": {"noise_seed": 99, "repeat_spins": 5000, "trace": true},
		"keys": {"left": "A"}
	}`), 0o644))

	cfg := DefaultConfig()
	require.NoError(t, LoadConfig(path, &cfg))
	assert.Equal(t, uint64(99), cfg.NoiseSeed)
	assert.Equal(t, 5000, cfg.RepeatSpins)
	assert.True(t, cfg.Trace)
	assert.True(t, cfg.FlashOnGameOver, "absent fields keep their value")
	assert.Equal(t, DefaultLoopCycles, cfg.LoopCycles)

	assert.Error(t, LoadConfig(filepath.Join(t.TempDir(), "missing.json"), &cfg))
	require.NoError(t, os.WriteFile(path, []byte(`{"machine": [`), 0o644))
	assert.Error(t, LoadConfig(path, &cfg))
}

func TestPowerOn(t *testing.T) {
	m := newMachine(t, testConfig())
	assert.Equal(t, Running, m.State())
	assert.Equal(t, game.Falling, m.Game().Phase())
	assert.False(t, m.Display().PoweredDown())
	assert.Equal(t, pcd8544.Normal, m.Display().Mode())
	assert.False(t, m.MCU().TimerExpired())
}

func TestFrameShowsScene(t *testing.T) {
	m := newMachine(t, testConfig())
	m.StepFrame()
	require.NotZero(t, m.Loops())

	want := lcd.New()
	require.NoError(t, m.RenderScene(want))
	assert.Equal(t, want.Bytes(), m.Display().RAM())

	// frame border on, playfield off, score bar cleared out of the border
	d := m.Display()
	assert.True(t, d.Pixel(70, 0))
	assert.False(t, d.Pixel(30, 20))
	assert.False(t, d.Pixel(2, 3))
	assert.False(t, d.Pixel(65, 3))
	assert.True(t, d.Pixel(66, 3))
	assert.Len(t, m.Framebuffer(), pcd8544.Width*pcd8544.Height*4)
}

// decodeBoard reads the playfield back from a rendered frame: a cell is set
// when its tile outline is on and its centre is off.
func decodeBoard(f *lcd.Frame) board.Board {
	var b board.Board
	for row := 0; row < board.Rows; row++ {
		for col := 0; col < board.Cols; col++ {
			x, y := lcd.TileOrigin(col, row)
			if f.Pixel(x, y) && f.Pixel(x+3, y+3) && !f.Pixel(x+1, y+1) {
				b.Set(col, row)
			}
		}
	}
	return b
}

func TestSceneRoundTripsBoard(t *testing.T) {
	m := newMachine(t, testConfig())

	var preset board.Board
	for col := 0; col < board.Cols; col++ {
		if col != 4 {
			preset.Set(col, 15)
		}
	}
	preset.Set(0, 14)
	preset.Set(7, 14)
	preset.Set(2, 10)

	snap := m.Game().Snapshot()
	snap.Board = preset
	snap.Score = 8
	m.Game().Restore(snap)

	f := lcd.New()
	require.NoError(t, m.RenderScene(f))

	want := preset
	active := m.Game().Active()
	_, err := want.Resolve(active.ID, active.Pos, board.Commit, nil)
	require.NoError(t, err)
	assert.Equal(t, want, decodeBoard(f))

	// border on, empty playfield off, score bar two pixels shorter
	assert.True(t, f.Pixel(0, 0))
	assert.True(t, f.Pixel(71, 47))
	assert.False(t, f.Pixel(64, 20))
	assert.False(t, f.Pixel(63, 3))
	assert.True(t, f.Pixel(64, 3))
}

func TestScoreBarWidth(t *testing.T) {
	assert.Equal(t, 64, ScoreBarWidth(0))
	assert.Equal(t, 64, ScoreBarWidth(3))
	assert.Equal(t, 63, ScoreBarWidth(4))
	assert.Equal(t, 0, ScoreBarWidth(256))
	assert.Equal(t, 0, ScoreBarWidth(1000))
}

func TestGravityDropsAboutTwicePerSecond(t *testing.T) {
	m := newMachine(t, testConfig())
	for i := 0; i < 29; i++ {
		m.StepFrame()
	}
	assert.Equal(t, 0, m.Game().Active().Pos.Row())
	for i := 0; i < 3; i++ {
		m.StepFrame()
	}
	assert.Equal(t, 1, m.Game().Active().Pos.Row())
}

func TestHoldingButtonArmsRepeatDelay(t *testing.T) {
	cfg := testConfig()
	cfg.RepeatSpins = DefaultRepeatSpins
	m := newMachine(t, cfg)

	m.SetButtons(Buttons{Left: true})
	m.Iterate()
	assert.Equal(t, 2, m.Game().Active().Pos.Col())
	assert.Equal(t, DefaultRepeatSpins, m.spin)

	m.StepFrame()
	assert.Equal(t, 2, m.Game().Active().Pos.Col(), "still in the repeat delay")
	assert.Less(t, m.spin, DefaultRepeatSpins)

	m.SetButtons(Buttons{})
	m.StepFrame()
	assert.Zero(t, m.spin, "release aborts the delay")
}

func TestDownToGameOver(t *testing.T) {
	m := newMachine(t, testConfig())
	played := m.Play(mustScript(t, "100000 D"), 0)
	require.Less(t, played, 100000)

	assert.Equal(t, Flashing, m.State())
	assert.Equal(t, game.GameOver, m.Game().Phase())
	assert.Equal(t, pcd8544.Inverse, m.Display().Mode())

	frozen := m.Game().Board()
	m.SetButtons(Buttons{Down: true, Left: true})
	for i := 0; i < 60; i++ {
		m.StepFrame()
	}
	assert.Equal(t, Over, m.State())
	assert.Equal(t, pcd8544.Normal, m.Display().Mode())
	assert.Equal(t, frozen, m.Game().Board())

	require.NoError(t, m.Reset())
	assert.Equal(t, Running, m.State())
	assert.Equal(t, board.Board{}, m.Game().Board())
	assert.Zero(t, m.Game().Score())
}

func TestGameOverWithoutFlash(t *testing.T) {
	cfg := testConfig()
	cfg.FlashOnGameOver = false
	m := newMachine(t, cfg)
	m.Play(mustScript(t, "100000 D"), 0)
	assert.Equal(t, Over, m.State())
	assert.Equal(t, pcd8544.Normal, m.Display().Mode())
}

func TestHeadlessRunIsDeterministic(t *testing.T) {
	script := mustScript(t, `
# wiggle while dropping
20 L
10 UD
30 R
15 D
5 -
40 LU
`)
	run := func() (*Machine, []byte) {
		m := newMachine(t, testConfig())
		m.Play(script, 600)
		return m, append([]byte(nil), m.Framebuffer()...)
	}
	a, fbA := run()
	b, fbB := run()
	assert.Equal(t, fbA, fbB)
	assert.Equal(t, a.Game().Snapshot(), b.Game().Snapshot())
	assert.Equal(t, a.MCU().Cycles(), b.MCU().Cycles())
}

func TestSaveLoadStateResumesIdentically(t *testing.T) {
	script := mustScript(t, "15 R\n30 D\n20 UL\n60 -\n")
	m := newMachine(t, testConfig())
	m.Play(mustScript(t, "30 L"), 0)

	snap, err := m.SaveState()
	require.NoError(t, err)
	m.Play(script, 0)
	want := append([]byte(nil), m.Framebuffer()...)
	wantGame := m.Game().Snapshot()

	require.NoError(t, m.LoadState(snap))
	m.Play(script, 0)
	assert.Equal(t, want, m.Framebuffer())
	assert.Equal(t, wantGame, m.Game().Snapshot())

	assert.Error(t, m.LoadState([]byte("nope")))
}

func TestFaultScreen(t *testing.T) {
	m := newMachine(t, testConfig())
	m.StepFrame()

	fault := &diag.Fault{Msg: "pos 200", File: "placement.go", Line: 48}
	m.halt(fault)
	assert.Equal(t, Halted, m.State())
	assert.Same(t, fault, m.Fault())
	_, err := m.SaveState()
	assert.Error(t, err)

	want := lcd.New()
	for i, s := range []string{"Assert:", "placement.go", "Line:48"} {
		require.NoError(t, want.GotoXYFont(1, i+1))
		want.Str(s)
	}
	ram := m.Display().RAM()
	for bank, text := range []string{"Assert:", "placement.go", "Line:48"} {
		lo := bank * lcd.Width
		hi := lo + 6*len(text)
		assert.Equal(t, want.Bytes()[lo:hi], ram[lo:hi], "line %d", bank+1)
	}

	loops := m.Loops()
	m.StepFrame()
	assert.Equal(t, loops, m.Loops(), "halted machine does not loop")
}

func TestImageMatchesFramebuffer(t *testing.T) {
	m := newMachine(t, testConfig())
	m.StepFrame()
	img := m.Image()
	assert.Equal(t, pcd8544.Width, img.Bounds().Dx())
	assert.Equal(t, pcd8544.Height, img.Bounds().Dy())
	assert.Equal(t, m.Framebuffer(), img.Pix)
}
