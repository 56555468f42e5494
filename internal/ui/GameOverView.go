package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/contestantbots/hackbots/internal/arena"
)

// GameOverState holds the final standings and which button is selected.
type GameOverState struct {
	MapName        string
	Phases         int
	Standings      []arena.Entry
	Saved          bool
	SaveErr        error
	SelectedButton int
	ScreenWidth    int
	ScreenHeight   int
}

var (
	gameOverButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Padding(0, 3).
				Margin(1, 1).
				Bold(true)

	selectedButtonStyle = gameOverButtonStyle.
				Background(lipgloss.Color("4")).
				Foreground(lipgloss.Color("15"))

	leaderboardHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("236")).
				Padding(0, 1).
				Align(lipgloss.Center)

	leaderboardRowStyle = lipgloss.NewStyle().
				Padding(0, 1)

	leaderboardBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder(), false, false, true, false).
				BorderForeground(lipgloss.Color("8"))
)

const (
	rankWidth   = 4
	nameWidth   = 20
	numberWidth = 9
)

func (g GameOverState) renderStandings() string {
	var table strings.Builder

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		leaderboardHeaderStyle.Width(rankWidth).Render("#"),
		leaderboardHeaderStyle.Width(nameWidth).Render("Bot"),
		leaderboardHeaderStyle.Width(numberWidth).Render("Score"),
		leaderboardHeaderStyle.Width(numberWidth).Render("Players"),
		leaderboardHeaderStyle.Width(numberWidth).Render("Spawns"),
	)
	table.WriteString(header + "\n")

	for i, entry := range g.Standings {
		name := entry.Name
		if entry.Disqualified {
			name += " (DQ)"
		}
		row := lipgloss.JoinHorizontal(lipgloss.Top,
			leaderboardRowStyle.Width(rankWidth).Render(strconv.Itoa(i+1)),
			leaderboardRowStyle.Width(nameWidth).Render(name),
			leaderboardRowStyle.Width(numberWidth).Render(strconv.Itoa(entry.Score)),
			leaderboardRowStyle.Width(numberWidth).Render(strconv.Itoa(entry.Players)),
			leaderboardRowStyle.Width(numberWidth).Render(strconv.Itoa(entry.SpawnPoints)),
		)
		table.WriteString(leaderboardBorderStyle.Render(row) + "\n")
	}
	return table.String()
}

// RenderGameOverScreen draws the final standings and the menu and
// leaderboard buttons.
func (g GameOverState) RenderGameOverScreen() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("9")).
		Padding(1, 5).
		Align(lipgloss.Center)

	title := titleStyle.Render("M A T C H   O V E R")
	if len(g.Standings) > 0 {
		title = lipgloss.JoinVertical(lipgloss.Center, title,
			headingStyle.Render(fmt.Sprintf("🏆 %s wins with %d points 🏆", g.Standings[0].Name, g.Standings[0].Score)))
	}

	stats := fmt.Sprintf("\n%s, %d phases\n", g.MapName, g.Phases)
	switch {
	case g.SaveErr != nil:
		stats += errorStyle.Render("results not saved: "+g.SaveErr.Error()) + "\n"
	case g.Saved:
		stats += faintStyle.Render("results saved") + "\n"
	}

	menuButton := gameOverButtonStyle.Render("MENU")
	leaderboardButton := gameOverButtonStyle.Render("LEADERBOARD")
	if g.SelectedButton == 0 {
		menuButton = selectedButtonStyle.Render("MENU")
	} else {
		leaderboardButton = selectedButtonStyle.Render("LEADERBOARD")
	}
	buttons := lipgloss.JoinHorizontal(lipgloss.Center, menuButton, leaderboardButton)

	content := lipgloss.JoinVertical(lipgloss.Center, title, stats, g.renderStandings(), buttons)

	return lipgloss.Place(g.ScreenWidth, g.ScreenHeight,
		lipgloss.Center, lipgloss.Center,
		lipgloss.NewStyle().Border(lipgloss.ThickBorder()).Render(content),
	)
}
