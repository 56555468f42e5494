package ui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/contestantbots/hackbots/internal/arena"
)

const leaderboardPageSize = 10

type leaderboardLoadedMsg struct {
	results []arena.Result
	total   int
	err     error
}

// LeaderboardModel pages through the saved match results, best score first.
type LeaderboardModel struct {
	store   *arena.ResultStore
	logger  *log.Logger
	page    int
	total   int
	results []arena.Result
	err     error
	loaded  bool

	ScreenWidth  int
	ScreenHeight int
}

func NewLeaderboardModel(store *arena.ResultStore, logger *log.Logger, screenWidth, screenHeight int) LeaderboardModel {
	return LeaderboardModel{store: store, logger: logger, ScreenWidth: screenWidth, ScreenHeight: screenHeight}
}

func (m LeaderboardModel) Init() tea.Cmd {
	return m.load(0)
}

func (m LeaderboardModel) load(page int) tea.Cmd {
	store := m.store
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		total, err := store.Count()
		if err != nil {
			return leaderboardLoadedMsg{err: err}
		}
		results, err := store.Leaderboard(leaderboardPageSize, page*leaderboardPageSize)
		return leaderboardLoadedMsg{results: results, total: total, err: err}
	}
}

func (m LeaderboardModel) pages() int {
	return max(1, (m.total+leaderboardPageSize-1)/leaderboardPageSize)
}

func (m LeaderboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ScreenWidth, m.ScreenHeight = msg.Width, msg.Height

	case leaderboardLoadedMsg:
		m.loaded = true
		m.err = msg.err
		if msg.err != nil {
			m.logger.Error("Could not load leaderboard", "error", msg.err)
			return m, nil
		}
		m.results, m.total = msg.results, msg.total

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "enter":
			return m, func() tea.Msg { return BackToIntroMsg{} }
		case "right", "l":
			if m.page+1 < m.pages() {
				m.page++
				return m, m.load(m.page)
			}
		case "left", "h":
			if m.page > 0 {
				m.page--
				return m, m.load(m.page)
			}
		}
	}
	return m, nil
}

// RenderLeaderboard draws one page of results as a table.
func (m LeaderboardModel) RenderLeaderboard() string {
	var tableContent strings.Builder

	mapWidth := 12
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		leaderboardHeaderStyle.Width(rankWidth).Render("#"),
		leaderboardHeaderStyle.Width(nameWidth).Render("Bot"),
		leaderboardHeaderStyle.Width(numberWidth).Render("Score"),
		leaderboardHeaderStyle.Width(mapWidth).Render("Map"),
		leaderboardHeaderStyle.Width(numberWidth).Render("Place"),
		leaderboardHeaderStyle.Width(numberWidth).Render("Phases"),
	)
	tableContent.WriteString(header + "\n")

	for i, result := range m.results {
		name := result.BotName
		if result.Disqualified {
			name += " (DQ)"
		}
		row := lipgloss.JoinHorizontal(lipgloss.Top,
			leaderboardRowStyle.Width(rankWidth).Render(strconv.Itoa(m.page*leaderboardPageSize+i+1)),
			leaderboardRowStyle.Width(nameWidth).Render(name),
			leaderboardRowStyle.Width(numberWidth).Render(strconv.Itoa(result.Score)),
			leaderboardRowStyle.Width(mapWidth).Render(result.MapName),
			leaderboardRowStyle.Width(numberWidth).Render(strconv.Itoa(result.Rank)),
			leaderboardRowStyle.Width(numberWidth).Render(strconv.Itoa(result.Phases)),
		)
		tableContent.WriteString(leaderboardBorderStyle.Render(row) + "\n")
	}

	var note string
	switch {
	case m.store == nil:
		note = "Results are not being kept."
	case m.err != nil:
		note = errorStyle.Render(m.err.Error())
	case !m.loaded:
		note = "Loading..."
	case m.total == 0:
		note = "No matches played yet."
	default:
		note = fmt.Sprintf("Page %d of %d", m.page+1, m.pages())
	}

	title := lipgloss.NewStyle().Bold(true).Padding(1, 0).Render("👑 LEADERBOARD 👑")
	instruction := faintStyle.Margin(1, 0).Render("left/right to page, ESC or ENTER to return to the menu.")

	return lipgloss.Place(m.ScreenWidth, m.ScreenHeight,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, title, tableContent.String(), note, instruction),
	)
}

func (m LeaderboardModel) View() string {
	return m.RenderLeaderboard()
}
