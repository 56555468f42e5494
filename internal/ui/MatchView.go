package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/contestantbots/hackbots/internal/arena"
	"github.com/contestantbots/hackbots/internal/game"
)

type matchState int

const (
	statePlaying matchState = iota
	stateGameOver
)

const (
	mapViewPercentage  = 0.70
	statusPanelPadding = 4
	maxEvents          = 6
)

var (
	voidColor    = "233"
	mapViewStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 0)

	statusPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("8")).
				Padding(1, 2)

	wallStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("172")).Render("▒")
	voidStyle        = lipgloss.NewStyle().Background(lipgloss.Color(voidColor)).Render(" ")
	collectableStyle = lipgloss.NewStyle().Background(lipgloss.Color(voidColor)).Foreground(lipgloss.Color("220")).Render("◆")
	headingStyle     = lipgloss.NewStyle().Bold(true)
	faintStyle       = lipgloss.NewStyle().Faint(true)

	botColors = []string{"205", "87", "118", "214"}
)

// autoplayTickMsg carries the autoplay generation it was scheduled for, so
// ticks left over from a paused run are dropped.
type autoplayTickMsg struct {
	generation int
}

type resultsSavedMsg struct {
	err error
}

// MatchModel shows one match on the grid and steps it on demand or on a
// timer.
type MatchModel struct {
	arena  *arena.Arena
	store  *arena.ResultStore
	logger *log.Logger

	colors map[uuid.UUID]lipgloss.Style
	ours   uuid.UUID

	autoplay   bool
	generation int
	events     []string

	state    matchState
	gameOver GameOverState

	ScreenWidth  int
	ScreenHeight int
}

func NewMatchModel(a *arena.Arena, store *arena.ResultStore, logger *log.Logger, screenWidth, screenHeight int) MatchModel {
	colors := make(map[uuid.UUID]lipgloss.Style)
	var ours uuid.UUID
	for i, b := range a.Bots() {
		if i == 0 {
			ours = b.ID()
		}
		colors[b.ID()] = lipgloss.NewStyle().
			Background(lipgloss.Color(voidColor)).
			Foreground(lipgloss.Color(botColors[i%len(botColors)])).
			Bold(true)
	}
	return MatchModel{
		arena:        a,
		store:        store,
		logger:       logger.With("match", a.ID()),
		colors:       colors,
		ours:         ours,
		ScreenWidth:  screenWidth,
		ScreenHeight: screenHeight,
	}
}

func (m MatchModel) Init() tea.Cmd { return nil }

func autoplayTick(generation int) tea.Cmd {
	return tea.Tick(arena.AutoplayTick, func(time.Time) tea.Msg {
		return autoplayTickMsg{generation: generation}
	})
}

func (m MatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ScreenWidth, m.ScreenHeight = msg.Width, msg.Height
		m.gameOver.ScreenWidth, m.gameOver.ScreenHeight = msg.Width, msg.Height
		return m, nil

	case resultsSavedMsg:
		m.gameOver.Saved = msg.err == nil
		m.gameOver.SaveErr = msg.err
		if msg.err != nil {
			m.logger.Error("Could not save match results", "error", msg.err)
		}
		return m, nil

	case autoplayTickMsg:
		if !m.autoplay || msg.generation != m.generation || m.state != statePlaying {
			return m, nil
		}
		var cmd tea.Cmd
		m, cmd = m.step()
		if m.autoplay {
			return m, tea.Batch(cmd, autoplayTick(m.generation))
		}
		return m, cmd

	case tea.KeyMsg:
		if m.state == stateGameOver {
			return m.updateGameOver(msg)
		}
		switch msg.String() {
		case "enter", " ", "n":
			if m.autoplay {
				return m, nil
			}
			return m.step()
		case "p":
			m.autoplay = !m.autoplay
			m.generation++
			if m.autoplay {
				return m, autoplayTick(m.generation)
			}
		case "esc":
			return m, func() tea.Msg { return BackToIntroMsg{} }
		}
	}
	return m, nil
}

func (m MatchModel) updateGameOver(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "h":
		m.gameOver.SelectedButton = max(0, m.gameOver.SelectedButton-1)
	case "right", "l":
		m.gameOver.SelectedButton = min(1, m.gameOver.SelectedButton+1)
	case "esc":
		return m, func() tea.Msg { return BackToIntroMsg{} }
	case "enter":
		if m.gameOver.SelectedButton == 0 {
			return m, func() tea.Msg { return BackToIntroMsg{} }
		}
		return m, func() tea.Msg { return ShowLeaderboardMsg{} }
	}
	return m, nil
}

// step plays a single phase. Bots are asked synchronously; the arena's turn
// timeout keeps a slow bot from freezing the screen for long.
func (m MatchModel) step() (MatchModel, tea.Cmd) {
	report, err := m.arena.Step(context.Background())
	if err != nil {
		m.logger.Error("Could not play phase", "error", err)
		m.autoplay = false
		return m, nil
	}
	m.events = append(m.events, describeReport(report)...)
	if len(m.events) > maxEvents {
		m.events = m.events[len(m.events)-maxEvents:]
	}

	if !m.arena.Finished() {
		return m, nil
	}

	m.autoplay = false
	m.state = stateGameOver
	m.gameOver = GameOverState{
		MapName:      m.arena.Layout().Name,
		Phases:       m.arena.Phase(),
		Standings:    m.arena.Standings(),
		ScreenWidth:  m.ScreenWidth,
		ScreenHeight: m.ScreenHeight,
	}
	m.logger.Info("Match over", "phases", m.arena.Phase(), "bots", len(m.gameOver.Standings))
	return m, m.saveResults()
}

func (m MatchModel) saveResults() tea.Cmd {
	if m.store == nil {
		return nil
	}
	store, a := m.store, m.arena
	return func() tea.Msg {
		return resultsSavedMsg{err: store.SaveMatch(context.Background(), a)}
	}
}

func describeReport(r arena.Report) []string {
	var events []string
	if r.Collected > 0 {
		events = append(events, fmt.Sprintf("#%d collected %d", r.Phase, r.Collected))
	}
	if r.Collisions > 0 {
		events = append(events, fmt.Sprintf("#%d %d collisions", r.Phase, r.Collisions))
	}
	if r.Destroyed > 0 {
		events = append(events, fmt.Sprintf("#%d %d spawn points lost", r.Phase, r.Destroyed))
	}
	if r.Spawned > 0 {
		events = append(events, fmt.Sprintf("#%d %d players spawned", r.Phase, r.Spawned))
	}
	for _, name := range r.Disqualified {
		events = append(events, fmt.Sprintf("#%d %s disqualified", r.Phase, name))
	}
	return events
}

func (m MatchModel) View() string {
	if m.state == stateGameOver {
		return m.gameOver.RenderGameOverScreen()
	}

	snapshot := m.arena.Snapshot()
	if m.ScreenWidth <= 0 || m.ScreenHeight <= 0 {
		return lipgloss.JoinVertical(lipgloss.Left, m.renderMap(snapshot, 0, 0), m.renderStatusPanel())
	}

	mapWidth := int(float64(m.ScreenWidth) * mapViewPercentage)
	statusPanelWidth := m.ScreenWidth - mapWidth - statusPanelPadding
	height := m.ScreenHeight - 2

	return lipgloss.JoinHorizontal(lipgloss.Top,
		mapViewStyle.Width(mapWidth).Height(height).Render(m.renderMap(snapshot, mapWidth, height)),
		statusPanelStyle.Width(statusPanelWidth).Height(height).Render(m.renderStatusPanel()),
	)
}

// renderMap draws the part of the grid that fits, centred on our first player
// when the map is larger than the view. A zero size draws the whole map.
func (m MatchModel) renderMap(snapshot *game.Snapshot, width, height int) string {
	layout := m.arena.Layout()
	viewW, viewH := layout.Width, layout.Height
	if width > 0 {
		viewW = min(viewW, width)
	}
	if height > 0 {
		viewH = min(viewH, height)
	}

	center := game.Position{X: layout.Width / 2, Y: layout.Height / 2}
	if ours := game.PlayersOf(snapshot, m.ours); len(ours) > 0 {
		center = ours[0].Position
	}
	startCol := max(0, min(center.X-viewW/2, layout.Width-viewW))
	startRow := max(0, min(center.Y-viewH/2, layout.Height-viewH))

	players := make(map[game.Position]uuid.UUID)
	for _, p := range snapshot.Players() {
		players[p.Position] = p.Owner
	}
	spawns := make(map[game.Position]uuid.UUID)
	for _, s := range snapshot.SpawnPoints() {
		spawns[s.Position] = s.Owner
	}
	collectables := game.NewPositionSet()
	for _, c := range snapshot.Collectables() {
		collectables.Add(c.Position)
	}
	outOfBounds := snapshot.OutOfBoundsPositions()

	var sb strings.Builder
	for row := startRow; row < startRow+viewH; row++ {
		for col := startCol; col < startCol+viewW; col++ {
			cell := game.Position{X: col, Y: row}
			if owner, ok := players[cell]; ok {
				sb.WriteString(m.colors[owner].Render("●"))
				continue
			}
			if owner, ok := spawns[cell]; ok {
				sb.WriteString(m.colors[owner].Render("⌂"))
				continue
			}
			switch {
			case outOfBounds.Has(cell):
				sb.WriteString(wallStyle)
			case collectables.Has(cell):
				sb.WriteString(collectableStyle)
			default:
				sb.WriteString(voidStyle)
			}
		}
		if row < startRow+viewH-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func (m MatchModel) renderStatusPanel() string {
	var statusContent strings.Builder

	layout := m.arena.Layout()
	statusContent.WriteString(headingStyle.Render("--- Match ---") + "\n")
	statusContent.WriteString(fmt.Sprintf("Map: %s (%dx%d)\n", layout.Name, layout.Width, layout.Height))
	statusContent.WriteString(fmt.Sprintf("Phase: %d\n", m.arena.Phase()))
	autoplay := "off"
	if m.autoplay {
		autoplay = "on"
	}
	statusContent.WriteString(fmt.Sprintf("Autoplay: %s\n", autoplay))

	statusContent.WriteString("\n" + headingStyle.Render("--- Standings ---") + "\n")
	for i, entry := range m.arena.Standings() {
		line := fmt.Sprintf("%d. %s%s: %d pts, %d players", i+1, m.colors[entry.BotID].Render("● "), entry.Name, entry.Score, entry.Players)
		if entry.Disqualified {
			line += faintStyle.Render(" (out)")
		}
		statusContent.WriteString(line + "\n")
	}

	if len(m.events) > 0 {
		statusContent.WriteString("\n" + headingStyle.Render("--- Events ---") + "\n")
		statusContent.WriteString(strings.Join(m.events, "\n") + "\n")
	}

	statusContent.WriteString("\n" + headingStyle.Render("--- Controls ---") + "\n")
	statusContent.WriteString("Enter / Space: Next phase\n")
	statusContent.WriteString("P: Toggle autoplay\n")
	statusContent.WriteString("Esc: Back to menu\n")
	statusContent.WriteString("Q / Ctrl+C: Quit\n")

	return statusContent.String()
}
