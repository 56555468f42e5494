package bot

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/contestantbots/hackbots/internal/game"
)

var (
	sectionSeparator    = strings.Repeat("=", 100)
	subsectionSeparator = strings.Repeat("-", 100)
)

// StateLogger dumps the whole snapshot every phase. Purely diagnostic.
type StateLogger struct {
	botID   uuid.UUID
	logger  *log.Logger
	enabled bool
}

func NewStateLogger(botID uuid.UUID, logger *log.Logger, enabled bool) *StateLogger {
	return &StateLogger{botID: botID, logger: logger, enabled: enabled}
}

func (s *StateLogger) Process(state game.GameState) {
	if !s.enabled {
		return
	}
	s.logger.Debug("game state\n" + RenderState(s.botID, state))
}

// RenderState renders what botID can see this phase.
func RenderState(botID uuid.UUID, state game.GameState) string {
	var sb strings.Builder

	sb.WriteString(sectionSeparator + "\n")
	fmt.Fprintf(&sb, "turn: %d\nmap: %d wide by %d high\n", state.Phase(), state.Map().Width(), state.Map().Height())
	sb.WriteString(sectionSeparator + "\n")

	outOfBounds := state.OutOfBoundsPositions().Sorted()
	sb.WriteString(renderList("Out of Bounds", ": none visible", outOfBounds) + "\n")
	sb.WriteString(sectionSeparator + "\n")

	friendlySpawns, enemySpawns := lo.FilterReject(state.SpawnPoints(), func(s game.SpawnPoint, _ int) bool {
		return s.Owner == botID
	})
	sb.WriteString("SpawnPoints\n")
	sb.WriteString(renderList("Friendly", ": none", friendlySpawns) + "\n")
	sb.WriteString(subsectionSeparator + "\n")
	sb.WriteString(renderList("Enemy", ": none visible", enemySpawns) + "\n")
	sb.WriteString(subsectionSeparator + "\n")
	sb.WriteString(renderList("Removed", ": none", state.RemovedSpawnPoints()) + "\n")
	sb.WriteString(sectionSeparator + "\n")

	friendlyPlayers, enemyPlayers := lo.FilterReject(state.Players(), func(p game.Player, _ int) bool {
		return p.Owner == botID
	})
	sb.WriteString("Players\n")
	sb.WriteString(renderList("Friendly", "", friendlyPlayers) + "\n")
	sb.WriteString(subsectionSeparator + "\n")
	sb.WriteString(renderList("Enemy", ": none visible", enemyPlayers) + "\n")
	sb.WriteString(subsectionSeparator + "\n")
	sb.WriteString(renderList("Removed", ": none", state.RemovedPlayers()) + "\n")
	sb.WriteString(sectionSeparator + "\n")

	sb.WriteString(renderList("Collectables", ": none visible", state.Collectables()) + "\n")
	sb.WriteString(sectionSeparator + "\n")

	return sb.String()
}

func renderList[T fmt.Stringer](title string, empty string, items []T) string {
	if len(items) == 0 {
		return title + empty
	}
	lines := lo.Map(items, func(item T, _ int) string {
		return item.String()
	})
	return title + "\n" + strings.Join(lines, "\n")
}
