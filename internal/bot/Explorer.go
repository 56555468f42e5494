package bot

import (
	"github.com/contestantbots/hackbots/internal/game"
)

// explore tries the directions in random order and keeps the first legal
// one. When every direction is blocked the last one tried is returned anyway
// and the engine gets to reject it.
func explore(t *turn, rng Rand, player game.Player) game.Move {
	directions := game.Directions()
	direction := directions[0]
	for len(directions) > 0 {
		i := rng.Intn(len(directions))
		direction = directions[i]
		directions = append(directions[:i], directions[i+1:]...)

		if t.isLegal(player.Position, direction) {
			break
		}
	}
	return game.Move{Player: player.ID, Direction: direction}
}

// ExplorerBot wanders every player it owns around at random without walking
// into out-of-bounds cells or into each other.
type ExplorerBot struct {
	base
}

func NewExplorerBot(opts Options) *ExplorerBot {
	return &ExplorerBot{base: newBase("Example Bot James", opts)}
}

func (b *ExplorerBot) MakeMoves(state game.GameState) []game.Move {
	b.stateLogger.Process(state)

	t := newTurn(state)
	for _, player := range game.PlayersOf(state, b.id) {
		t.emit(explore(t, b.rng, player))
	}

	b.logger.Debug("players exploring", "count", len(t.moves))
	return t.moves
}

// RandomBot is the "Default" opponent: a random direction per player, with no
// regard for the map.
type RandomBot struct {
	base
}

func NewRandomBot(opts Options) *RandomBot {
	return &RandomBot{base: newBase("Default", opts)}
}

func (b *RandomBot) MakeMoves(state game.GameState) []game.Move {
	b.stateLogger.Process(state)

	directions := game.Directions()
	moves := []game.Move{}
	for _, player := range game.PlayersOf(state, b.id) {
		moves = append(moves, game.Move{
			Player:    player.ID,
			Direction: directions[b.rng.Intn(len(directions))],
		})
	}
	return moves
}
