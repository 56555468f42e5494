package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/contestantbots/hackbots/internal/arena"
)

type Screen int

const (
	IntroScreen Screen = iota
	SetupScreen
	MatchScreen
	LeaderboardScreen
)

// Messages for screen transitions
type IntroSubmitMsg int // 0 to set up a match, 1 for the leaderboard
type SetupSubmitMsg struct {
	Lineup arena.Lineup
}
type setupErrorMsg struct {
	err error
}
type ShowLeaderboardMsg struct{}
type BackToIntroMsg struct{}

const (
	introStartMatch IntroSubmitMsg = iota
	introLeaderboard
)

// MatchFactory builds the arena for a submitted lineup.
type MatchFactory func(lineup arena.Lineup) (*arena.Arena, error)

type ControllerModel struct {
	CurrentScreen Screen

	newMatch MatchFactory
	store    *arena.ResultStore
	logger   *log.Logger

	IntroModel       tea.Model
	SetupModel       tea.Model
	MatchModel       tea.Model
	LeaderboardModel tea.Model

	ScreenWidth  int
	ScreenHeight int
}

// NewControllerModel wires the screens together. store may be nil, in which
// case results are not kept.
func NewControllerModel(newMatch MatchFactory, store *arena.ResultStore, defaults arena.Lineup, logger *log.Logger, screenWidth int, screenHeight int) ControllerModel {
	if logger == nil {
		logger = log.Default()
	}
	return ControllerModel{
		CurrentScreen: IntroScreen,
		newMatch:      newMatch,
		store:         store,
		logger:        logger,

		IntroModel: NewIntroModel(screenWidth, screenHeight),
		SetupModel: NewSetupModel(defaults, screenWidth, screenHeight),

		ScreenWidth:  screenWidth,
		ScreenHeight: screenHeight,
	}
}

func (m ControllerModel) Init() tea.Cmd {
	return m.IntroModel.Init()
}

func (m ControllerModel) View() string {
	switch m.CurrentScreen {
	case IntroScreen:
		return m.IntroModel.View()
	case SetupScreen:
		return m.SetupModel.View()
	case MatchScreen:
		if m.MatchModel != nil {
			return m.MatchModel.View()
		}
		return "Match loading..."
	case LeaderboardScreen:
		if m.LeaderboardModel != nil {
			return m.LeaderboardModel.View()
		}
		return "Leaderboard loading..."
	default:
		return "Unknown Screen"
	}
}

func (m ControllerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok {
		// q is a letter like any other while typing a name
		if msg.String() == "ctrl+c" || (msg.String() == "q" && m.CurrentScreen != SetupScreen) {
			m.closeMatch()
			return m, tea.Quit
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ScreenWidth, m.ScreenHeight = msg.Width, msg.Height
		m.IntroModel, _ = m.IntroModel.Update(msg)
		m.SetupModel, _ = m.SetupModel.Update(msg)
		if m.MatchModel != nil {
			m.MatchModel, _ = m.MatchModel.Update(msg)
		}
		if m.LeaderboardModel != nil {
			m.LeaderboardModel, _ = m.LeaderboardModel.Update(msg)
		}
		return m, nil

	case IntroSubmitMsg:
		switch msg {
		case introStartMatch:
			m.CurrentScreen = SetupScreen
			return m, m.SetupModel.Init()
		case introLeaderboard:
			return m.showLeaderboard()
		}

	case ShowLeaderboardMsg:
		return m.showLeaderboard()

	case SetupSubmitMsg:
		a, err := m.newMatch(msg.Lineup)
		if err != nil {
			m.logger.Error("Could not set up match", "error", err)
			m.SetupModel, cmd = m.SetupModel.Update(setupErrorMsg{err: err})
			return m, cmd
		}
		m.closeMatch()
		m.CurrentScreen = MatchScreen
		m.MatchModel = NewMatchModel(a, m.store, m.logger, m.ScreenWidth, m.ScreenHeight)
		return m, m.MatchModel.Init()

	case BackToIntroMsg:
		m.closeMatch()
		m.MatchModel = nil
		m.CurrentScreen = IntroScreen
		return m, m.IntroModel.Init()

	default:
		switch m.CurrentScreen {
		case IntroScreen:
			m.IntroModel, cmd = m.IntroModel.Update(msg)
		case SetupScreen:
			m.SetupModel, cmd = m.SetupModel.Update(msg)
		case MatchScreen:
			if m.MatchModel != nil {
				m.MatchModel, cmd = m.MatchModel.Update(msg)
			}
		case LeaderboardScreen:
			if m.LeaderboardModel != nil {
				m.LeaderboardModel, cmd = m.LeaderboardModel.Update(msg)
			}
		}
	}

	return m, cmd
}

func (m ControllerModel) showLeaderboard() (tea.Model, tea.Cmd) {
	m.CurrentScreen = LeaderboardScreen
	m.LeaderboardModel = NewLeaderboardModel(m.store, m.logger, m.ScreenWidth, m.ScreenHeight)
	return m, m.LeaderboardModel.Init()
}

func (m ControllerModel) closeMatch() {
	if match, ok := m.MatchModel.(MatchModel); ok {
		if err := match.arena.Close(); err != nil {
			m.logger.Warn("Could not release match", "error", err)
		}
	}
}
