package viz

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/softbody/internal/config"
	"github.com/san-kum/softbody/internal/mesh"
	"github.com/san-kum/softbody/internal/model"
	"github.com/san-kum/softbody/internal/timestep"
)

func TestCanvasSetAndClear(t *testing.T) {
	c := NewCanvas(4, 2)
	if c.SubWidth() != 8 || c.SubHeight() != 8 {
		t.Fatalf("sub-pixel size = %dx%d, want 8x8", c.SubWidth(), c.SubHeight())
	}

	c.Set(3, 5)
	if !c.IsSet(3, 5) {
		t.Error("expected (3,5) to be set")
	}
	if c.IsSet(2, 5) {
		t.Error("neighbour should not be set")
	}

	c.Set(-1, 0)
	c.Set(100, 100)
	if c.IsSet(-1, 0) || c.IsSet(100, 100) {
		t.Error("out of range points must be ignored")
	}

	c.Clear()
	if c.IsSet(3, 5) {
		t.Error("Clear should reset every dot")
	}
}

func TestCanvasDrawLine(t *testing.T) {
	c := NewCanvas(10, 5)
	c.DrawLine(0, 0, 7, 7)
	for i := 0; i <= 7; i++ {
		if !c.IsSet(i, i) {
			t.Errorf("diagonal dot (%d,%d) not set", i, i)
		}
	}

	c.Clear()
	c.DrawLine(6, 3, 0, 3)
	for x := 0; x <= 6; x++ {
		if !c.IsSet(x, 3) {
			t.Errorf("horizontal dot (%d,3) not set", x)
		}
	}
}

func TestCanvasString(t *testing.T) {
	c := NewCanvas(3, 2)
	lines := strings.Split(strings.TrimSuffix(c.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0] != strings.Repeat(string(rune(brailleBase)), 3) {
		t.Errorf("blank row = %q", lines[0])
	}

	c.Set(0, 0)
	if []rune(c.String())[0] != brailleBase|0x1 {
		t.Error("top-left dot should map to braille bit 0x1")
	}
}

func TestCameraProject(t *testing.T) {
	cam := NewCamera()
	cam.Fit(mesh.SingleTet().Positions)

	x, y, _, ok := cam.Project(cam.Center, 100, 80)
	if !ok || x != 50 || y != 40 {
		t.Errorf("center projects to (%d,%d,%v), want (50,40,true)", x, y, ok)
	}

	if _, _, _, ok := cam.Project(mgl64.Vec3{100, 0, 0}, 100, 80); ok {
		t.Error("far point should be off screen")
	}
}

func TestCameraZoomBounds(t *testing.T) {
	cam := NewCamera()
	for i := 0; i < 50; i++ {
		cam.ZoomIn()
	}
	if cam.Zoom > 10 {
		t.Errorf("zoom %f above limit", cam.Zoom)
	}
	for i := 0; i < 100; i++ {
		cam.ZoomOut()
	}
	if cam.Zoom < 0.1 {
		t.Errorf("zoom %f below limit", cam.Zoom)
	}
}

func lit(c *Canvas) int {
	n := 0
	for y := 0; y < c.SubHeight(); y++ {
		for x := 0; x < c.SubWidth(); x++ {
			if c.IsSet(x, y) {
				n++
			}
		}
	}
	return n
}

func TestDrawMesh(t *testing.T) {
	g := mesh.SingleTet()
	cam := NewCamera()
	cam.Fit(g.Positions)

	c := NewCanvas(30, 10)
	DrawMesh(c, cam, g.Positions, g.Mesh.Edges())
	if lit(c) == 0 {
		t.Fatal("expected edges to be drawn")
	}

	c.Clear()
	DrawMesh(c, cam, g.Positions, nil)
	if n := lit(c); n == 0 || n > len(g.Positions) {
		t.Errorf("point mode lit %d dots, want 1..%d", n, len(g.Positions))
	}

	DrawMesh(nil, cam, g.Positions, nil)
}

func TestCanvasImage(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(1, 2)

	img := CanvasImage(c)
	if b := img.Bounds(); b.Dx() != 4*dotW || b.Dy() != 4*dotH {
		t.Fatalf("image bounds %v", b)
	}
	if img.ColorIndexAt(1*dotW+1, 2*dotH+1) != 1 {
		t.Error("set dot should be white")
	}
	if img.ColorIndexAt(0, 0) != 0 {
		t.Error("unset dot should be black")
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline(nil, 5); got != strings.Repeat("─", 5) {
		t.Errorf("empty sparkline = %q", got)
	}
	if got := Sparkline([]float64{0, 1}, 2); got != "▁█" {
		t.Errorf("Sparkline = %q, want ▁█", got)
	}

	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i)
	}
	if n := len([]rune(Sparkline(values, 20))); n != 20 {
		t.Errorf("sparkline width = %d, want 20", n)
	}
}

func TestProgressBar(t *testing.T) {
	if got := ProgressBar(0.5, 4); got != "██░░" {
		t.Errorf("ProgressBar = %q", got)
	}
	if got := ProgressBar(2, 3); got != "███" {
		t.Errorf("overfull ProgressBar = %q", got)
	}
}

func TestNextThemeCycles(t *testing.T) {
	th := Themes[0]
	for range Themes {
		th = NextTheme(th)
	}
	if th.Name != Themes[0].Name {
		t.Errorf("expected to cycle back to %s, got %s", Themes[0].Name, th.Name)
	}
	if GetTheme("nope").Name != Themes[0].Name {
		t.Error("unknown theme should fall back to the first")
	}
}

func newLive(t *testing.T) Model {
	t.Helper()
	body, err := model.FromGeometry(mesh.SingleTet())
	if err != nil {
		t.Fatal(err)
	}
	return NewModel(body, timestep.New(nil), 0.005, timestep.DefaultParams(), "tet")
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestLiveSwitchesMethod(t *testing.T) {
	m := newLive(t)
	if m.Method() != timestep.KindDistanceVolume {
		t.Fatalf("initial method %v", m.Method())
	}

	m = send(m, key("2"))
	if m.Method() != timestep.KindFEM {
		t.Errorf("after 2: %v", m.Method())
	}
	m = send(m, key("3"))
	if m.Method() != timestep.KindStrainBased {
		t.Errorf("after 3: %v", m.Method())
	}
	m = send(m, key("1"))
	if m.Method() != timestep.KindDistanceVolume {
		t.Errorf("after 1: %v", m.Method())
	}
}

func TestLiveTickPauseAndReset(t *testing.T) {
	m := newLive(t)

	m = send(m, TickMsg{})
	if m.Time() <= 0 {
		t.Fatal("tick should advance time while running")
	}

	m = send(m, key(" "))
	if m.Running() {
		t.Fatal("space should pause")
	}
	paused := m.Time()
	m = send(m, TickMsg{})
	if m.Time() != paused {
		t.Error("tick must not step while paused")
	}

	m = send(m, key("n"))
	if m.Time() <= paused {
		t.Error("n should single step while paused")
	}

	m = send(m, key("r"))
	if m.Time() != 0 {
		t.Errorf("time after reset = %f", m.Time())
	}
	if got := m.body.Particles.Position(3); got != m.body.Particles.Position0(3) {
		t.Errorf("reset position = %v", got)
	}
}

func TestLiveStiffnessClamped(t *testing.T) {
	m := newLive(t)
	for i := 0; i < 200; i++ {
		m = send(m, key("]"))
	}
	if m.body.Stiffness() != maxStiffness {
		t.Errorf("stiffness = %f, want %f", m.body.Stiffness(), maxStiffness)
	}
	for i := 0; i < 200; i++ {
		m = send(m, key("["))
	}
	if m.body.Stiffness() != minStiffness {
		t.Errorf("stiffness = %f, want %f", m.body.Stiffness(), minStiffness)
	}
}

func TestLiveRecordsGIF(t *testing.T) {
	m := newLive(t)
	m.GIFPath = filepath.Join(t.TempDir(), "out.gif")

	m = send(m, key("g"))
	m = send(m, TickMsg{})
	m = send(m, TickMsg{})
	m = send(m, key("g"))

	if _, err := os.Stat(m.GIFPath); err != nil {
		t.Fatalf("gif not written: %v", err)
	}
}

func TestLiveView(t *testing.T) {
	m := newLive(t)
	view := m.View()
	if !strings.Contains(view, "TET") {
		t.Error("view should contain the title")
	}
	if !strings.Contains(view, "distance") {
		t.Error("view should name the method")
	}
}

func TestPickerStartsLiveView(t *testing.T) {
	items := []PresetItem{{Scenario: "tet", Name: "single", Config: config.GetPreset("tet", "single")}}
	built := 0
	p := NewPicker(items, func(cfg *config.Config) (Model, error) {
		built++
		return newLive(t), nil
	})

	if !strings.Contains(p.View(), "single") {
		t.Error("picker should list presets")
	}

	next, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	p = next.(Picker)
	if built != 1 || cmd == nil {
		t.Fatalf("enter should build the live view (built=%d)", built)
	}
	if strings.Contains(p.View(), "choose a preset") {
		t.Error("picker should hand over to the live view")
	}
}
