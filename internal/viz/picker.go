package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/softbody/internal/config"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

type PresetItem struct {
	Scenario string
	Name     string
	Config   *config.Config
}

// Builder turns a chosen preset into a live view.
type Builder func(cfg *config.Config) (Model, error)

// Picker lists presets and hands over to the live view once one is chosen.
type Picker struct {
	items  []PresetItem
	cursor int
	build  Builder
	live   *Model
	err    error
}

func NewPicker(items []PresetItem, build Builder) Picker {
	return Picker{items: items, build: build}
}

func (p Picker) Init() tea.Cmd { return nil }

func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if p.live != nil {
		next, cmd := p.live.Update(msg)
		live := next.(Model)
		p.live = &live
		return p, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return p, tea.Quit
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.items)-1 {
			p.cursor++
		}
	case "enter":
		if len(p.items) == 0 {
			return p, nil
		}
		live, err := p.build(p.items[p.cursor].Config)
		if err != nil {
			p.err = err
			return p, nil
		}
		p.live = &live
		return p, live.Init()
	}
	return p, nil
}

func (p Picker) View() string {
	if p.live != nil {
		return p.live.View()
	}

	var b strings.Builder
	b.WriteString(cyan.Render("softbody") + dim.Render("  choose a preset") + "\n\n")
	for i, it := range p.items {
		line := fmt.Sprintf("%-6s %-10s %s", it.Scenario, it.Name, dim.Render(it.Config.Method))
		if i == p.cursor {
			b.WriteString(yellow.Render("> ") + white.Render(line) + "\n")
		} else {
			b.WriteString("  " + dim.Render(line) + "\n")
		}
	}
	if p.err != nil {
		b.WriteString("\n" + yellow.Render(p.err.Error()) + "\n")
	}
	b.WriteString("\n" + dim.Render("↑↓ select  enter start  q quit"))
	return b.String()
}

// RunPicker starts the preset menu on the alternate screen.
func RunPicker(p Picker) error {
	_, err := tea.NewProgram(p, tea.WithAltScreen()).Run()
	return err
}
