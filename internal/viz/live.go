package viz

import (
	"fmt"
	"image"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/softbody/internal/dynamo"
	"github.com/san-kum/softbody/internal/mesh"
	"github.com/san-kum/softbody/internal/metrics"
	"github.com/san-kum/softbody/internal/model"
	"github.com/san-kum/softbody/internal/timestep"
)

const (
	width           = 72
	height          = 22
	historyCapacity = 400

	DefaultStepsPerFrame = 2
	DefaultGIFPath       = "softbody.gif"

	minStiffness = 0.01
	maxStiffness = 10.0
)

type TickMsg time.Time

// Model is the live view: it steps the body on every tick and draws it.
type Model struct {
	body          *model.TetModel
	stepper       *timestep.TimeStep
	params        timestep.Params
	clock         *dynamo.Clock
	edges         []mesh.Edge
	canvas        *Canvas
	camera        *Camera
	theme         Theme
	styles        styles
	volumeError   *metrics.VolumeError
	volumeHistory []float64
	title         string
	running       bool
	stepsPerFrame int
	steps         int
	status        string
	recording     bool
	frames        []*image.Paletted
	GIFPath       string
	showHelp      bool
}

// NewModel builds a live view. params are used when the method is switched
// with the number keys.
func NewModel(body *model.TetModel, stepper *timestep.TimeStep, dt float64, params timestep.Params, title string) Model {
	cam := NewCamera()
	cam.Fit(body.Particles.Positions())

	theme := Themes[0]
	return Model{
		body:          body,
		stepper:       stepper,
		params:        params,
		clock:         dynamo.NewClock(dt),
		edges:         body.Mesh.Edges(),
		canvas:        NewCanvas(width, height),
		camera:        cam,
		theme:         theme,
		styles:        newStyles(theme),
		volumeError:   metrics.NewVolumeError(),
		volumeHistory: make([]float64, 0, historyCapacity),
		title:         title,
		running:       true,
		stepsPerFrame: DefaultStepsPerFrame,
		GIFPath:       DefaultGIFPath,
	}
}

func (m Model) Method() timestep.Kind { return m.stepper.Method().Kind() }
func (m Model) Time() float64         { return m.clock.Time }
func (m Model) Running() bool         { return m.running }

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "n":
			if !m.running {
				m.step()
			}
		case "r":
			m.reset()
		case "1":
			m.setMethod(timestep.KindDistanceVolume)
		case "2":
			m.setMethod(timestep.KindFEM)
		case "3":
			m.setMethod(timestep.KindStrainBased)
		case "[":
			m.scaleStiffness(1 / 1.1)
		case "]":
			m.scaleStiffness(1.1)
		case "x":
			m.camera.RotateX(0.1)
		case "X":
			m.camera.RotateX(-0.1)
		case "y":
			m.camera.RotateY(0.1)
		case "Y":
			m.camera.RotateY(-0.1)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		case "t":
			m.theme = NextTheme(m.theme)
			m.styles = newStyles(m.theme)
		case "g":
			m.toggleRecording()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			for i := 0; i < m.stepsPerFrame && m.running; i++ {
				m.step()
			}
			if m.recording {
				m.draw()
				m.frames = append(m.frames, CanvasImage(m.canvas))
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) step() {
	m.stepper.Step(m.clock, m.body)
	m.steps++

	if !dynamo.PositionsValid(m.body.Particles.Positions()) {
		m.running = false
		m.status = "state diverged, press r to reset"
		return
	}

	m.volumeError.Observe(m.body, m.clock.Time)
	m.volumeHistory = append(m.volumeHistory, m.volumeError.Last())
	if len(m.volumeHistory) > historyCapacity {
		m.volumeHistory = m.volumeHistory[1:]
	}
}

// setMethod takes effect on the next step.
func (m *Model) setMethod(k timestep.Kind) {
	method, err := timestep.NewMethod(k, m.params)
	if err != nil {
		m.status = err.Error()
		return
	}
	m.stepper.SetMethod(method)
	m.status = "method: " + k.String()
}

func (m *Model) scaleStiffness(factor float64) {
	k := m.body.Stiffness() * factor
	k = math.Max(minStiffness, math.Min(maxStiffness, k))
	m.body.SetStiffness(k)
}

func (m *Model) reset() {
	m.stepper.Reset(m.body)
	m.clock.Reset()
	m.steps = 0
	m.volumeError.Reset()
	m.volumeHistory = m.volumeHistory[:0]
	m.status = "reset"
}

func (m *Model) toggleRecording() {
	if !m.recording {
		m.recording = true
		m.frames = make([]*image.Paletted, 0)
		m.status = "recording"
		return
	}
	m.recording = false
	if len(m.frames) > 0 {
		if err := SaveGIF(m.GIFPath, m.frames); err != nil {
			m.status = err.Error()
		} else {
			m.status = fmt.Sprintf("saved %d frames to %s", len(m.frames), m.GIFPath)
		}
	}
	m.frames = nil
}

func (m *Model) draw() {
	m.canvas.Clear()
	DrawMesh(m.canvas, m.camera, m.body.Particles.Positions(), m.edges)
}

// View renders the TUI interface.
func (m Model) View() string {
	m.draw()
	st := m.styles
	canvasView := st.canvas.Render(m.canvas.String())

	status := "RUNNING"
	if !m.running {
		status = "PAUSED"
	}
	if m.recording {
		status += " ● REC"
	}

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(status + "\n")
	if m.status != "" {
		s.WriteString(st.warn.Render(m.status) + "\n")
	}
	s.WriteString("\n")

	if len(m.volumeHistory) > 1 {
		chart := asciigraph.Plot(m.volumeHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Volume error"))
		s.WriteString(st.graph.Render(chart) + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Method", st.active.Render(m.Method().String()))
	row("Time", fmt.Sprintf("%.3fs", m.clock.Time))
	row("Steps", fmt.Sprintf("%d", m.steps))
	row("Stiffness", fmt.Sprintf("%.3f", m.body.Stiffness()))
	row("Particles", fmt.Sprintf("%d (%d fixed)", m.body.Particles.Size(), m.body.Particles.Size()-m.body.Particles.NumDynamic()))
	row("Tets", fmt.Sprintf("%d", m.body.Mesh.NumTets()))
	row("Vol. error", fmt.Sprintf("%.2e", m.volumeError.Last()))

	s.WriteString(st.help.Render("─────────────────────\n1/2/3:Method R:Reset SP:Pause\n[ ]:Stiffness ?:Help Q:Quit"))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.stats.Render(s.String()))

	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  1/2/3    - Distance+volume/FEM/SBD  ║
║  Space    - Pause/Resume simulation  ║
║  N        - Single step when paused  ║
║  R        - Reset to rest shape      ║
║  [ / ]    - Stiffness -10% / +10%    ║
║  x/X y/Y  - Rotate view              ║
║  + / -    - Zoom                     ║
║  T        - Cycle themes             ║
║  G        - Toggle GIF recording     ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`

// Run starts the live view on the alternate screen.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
