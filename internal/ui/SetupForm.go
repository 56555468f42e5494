package ui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/contestantbots/hackbots/internal/arena"
	"github.com/contestantbots/hackbots/internal/bot"
	"github.com/contestantbots/hackbots/internal/config"
)

const noOpponent = "none"

var (
	focusedColor = lipgloss.Color("205")
	blurredColor = lipgloss.Color("240")
	focusedStyle = lipgloss.NewStyle().Foreground(focusedColor)
	blurredStyle = lipgloss.NewStyle().Foreground(blurredColor)
	helpStyle    = blurredStyle
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	buttonStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder())

	submitButtonStyle = buttonStyle.
				BorderForeground(focusedColor).
				Padding(0, 1)

	blurredButtonStyle = buttonStyle.
				BorderForeground(blurredColor).
				Padding(0, 1)
)

// choice is one row of the form picked with the arrow keys.
type choice struct {
	label    string
	options  []string
	selected int
}

func newChoice(label string, options []string, current string) choice {
	c := choice{label: label, options: options}
	if current == "" {
		return c
	}
	i := slices.IndexFunc(options, func(o string) bool { return strings.EqualFold(o, current) })
	if i < 0 {
		// a script path or alias from the command line
		c.options = append(slices.Clone(options), current)
		i = len(c.options) - 1
	}
	c.selected = i
	return c
}

func (c choice) value() string {
	return c.options[c.selected]
}

func (c *choice) shift(delta int) {
	c.selected = (c.selected + delta + len(c.options)) % len(c.options)
}

// SetupModel is the lineup form: a name for our bot, then one row per choice
// and a submit button.
type SetupModel struct {
	nameInput  textinput.Model
	choices    []choice
	focusIndex int // 0: name, 1..len(choices): choices, then submit
	lineup     arena.Lineup
	err        error
	width      int
	height     int
}

func botOptions() []string {
	scripts := lo.Map(bot.BundledScripts(), func(name string, _ int) string { return "script:" + name })
	return append(bot.Kinds(), scripts...)
}

func NewSetupModel(defaults arena.Lineup, w, h int) SetupModel {
	ti := textinput.New()
	ti.Placeholder = "Your bot's name"
	ti.Focus()
	ti.CharLimit = 20
	ti.PromptStyle = focusedStyle
	ti.TextStyle = focusedStyle
	ti.SetValue(defaults.PlayerName)

	mapName := defaults.Map
	if defaults.MapFile != "" {
		mapName = defaults.MapFile
	}

	choices := []choice{
		newChoice("Your bot", botOptions(), defaults.Player),
		newChoice("Map", arena.PresetNames(), mapName),
	}
	for i := range config.MaxOpponents {
		current := noOpponent
		if i < len(defaults.Opponents) {
			current = defaults.Opponents[i]
		}
		choices = append(choices, newChoice(fmt.Sprintf("Opponent %d", i+1), append([]string{noOpponent}, botOptions()...), current))
	}

	return SetupModel{
		nameInput: ti,
		choices:   choices,
		lineup:    defaults,
		width:     w,
		height:    h,
	}
}

func (m SetupModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m SetupModel) submitIndex() int {
	return len(m.choices) + 1
}

func (m *SetupModel) focus(index int) {
	m.focusIndex = (index + m.submitIndex() + 1) % (m.submitIndex() + 1)
	if m.focusIndex == 0 {
		m.nameInput.Focus()
	} else {
		m.nameInput.Blur()
	}
}

// Lineup is what the form currently describes.
func (m SetupModel) Lineup() arena.Lineup {
	lineup := m.lineup
	lineup.PlayerName = strings.TrimSpace(m.nameInput.Value())
	lineup.Player = m.choices[0].value()

	mapChoice := m.choices[1].value()
	if slices.Contains(arena.PresetNames(), mapChoice) {
		lineup.Map, lineup.MapFile = mapChoice, ""
	} else {
		lineup.MapFile = mapChoice
	}

	lineup.Opponents = lo.Without(lo.Map(m.choices[2:], func(c choice, _ int) string { return c.value() }), noOpponent)
	return lineup
}

func (m SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case setupErrorMsg:
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		s := msg.String()
		switch s {
		case "tab", "down":
			m.focus(m.focusIndex + 1)
			return m, nil
		case "shift+tab", "up":
			m.focus(m.focusIndex - 1)
			return m, nil
		case "enter":
			if m.focusIndex == m.submitIndex() {
				m.err = nil
				lineup := m.Lineup()
				return m, func() tea.Msg { return SetupSubmitMsg{Lineup: lineup} }
			}
			m.focus(m.focusIndex + 1)
			return m, nil
		}

		if m.focusIndex > 0 && m.focusIndex < m.submitIndex() {
			c := &m.choices[m.focusIndex-1]
			switch s {
			case "left", "h":
				c.shift(-1)
			case "right", "l":
				c.shift(1)
			}
			return m, nil
		}

		if m.focusIndex == 0 {
			var cmd tea.Cmd
			m.nameInput, cmd = m.nameInput.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m SetupModel) View() string {
	center := func(s string) string {
		return lipgloss.NewStyle().Width(m.width).Align(lipgloss.Center).Render(s)
	}

	var b strings.Builder

	b.WriteString(center(m.nameInput.View()))
	b.WriteString("\n\n")

	for i, c := range m.choices {
		style := blurredStyle
		if m.focusIndex == i+1 {
			style = focusedStyle
		}
		b.WriteString(center(style.Render(fmt.Sprintf("%-11s ‹ %s ›", c.label, c.value()))))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	submitText := "Start Match"
	if m.focusIndex == m.submitIndex() {
		b.WriteString(center(submitButtonStyle.Render(submitText)))
	} else {
		b.WriteString(center(blurredButtonStyle.Render(submitText)))
	}
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(center(errorStyle.Render(m.err.Error())))
		b.WriteString("\n\n")
	}

	b.WriteString(center(helpStyle.Render("(left/right to choose, tab/shift+tab to navigate, enter to confirm, ctrl+c to quit)")))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, b.String())
}
