package bot

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/contestantbots/hackbots/internal/game"
)

// sequenceRand replays fixed draws, clamped to the requested range.
type sequenceRand struct {
	draws []int
	next  int
}

func (r *sequenceRand) Intn(n int) int {
	if len(r.draws) == 0 {
		return 0
	}
	v := r.draws[r.next%len(r.draws)]
	r.next++
	return v % n
}

func quietOptions(id uuid.UUID, rng Rand) Options {
	return Options{
		ID:     id,
		Rand:   rng,
		Logger: log.New(io.Discard),
	}
}

type stateBuilder struct {
	params game.SnapshotParams
}

func newStateBuilder(width, height int) *stateBuilder {
	return &stateBuilder{params: game.SnapshotParams{Map: game.NewGridMap(width, height, false)}}
}

func (b *stateBuilder) phase(phase int) *stateBuilder {
	b.params.Phase = phase
	return b
}

func (b *stateBuilder) outOfBounds(positions ...game.Position) *stateBuilder {
	b.params.OutOfBounds = append(b.params.OutOfBounds, positions...)
	return b
}

func (b *stateBuilder) player(owner uuid.UUID, id uuid.UUID, position game.Position) *stateBuilder {
	b.params.Players = append(b.params.Players, game.Player{ID: id, Owner: owner, Position: position})
	return b
}

func (b *stateBuilder) removed(owner uuid.UUID, id uuid.UUID) *stateBuilder {
	b.params.RemovedPlayers = append(b.params.RemovedPlayers, game.Player{ID: id, Owner: owner})
	return b
}

func (b *stateBuilder) collectable(position game.Position) *stateBuilder {
	b.params.Collectables = append(b.params.Collectables, game.NewCollectable(position))
	return b
}

func (b *stateBuilder) spawn(owner uuid.UUID, position game.Position) *stateBuilder {
	b.params.SpawnPoints = append(b.params.SpawnPoints, game.NewSpawnPoint(owner, position))
	return b
}

func (b *stateBuilder) build() *game.Snapshot {
	return game.NewSnapshot(b.params)
}

func moveFor(moves []game.Move, id uuid.UUID) (game.Move, bool) {
	for _, m := range moves {
		if m.Player == id {
			return m, true
		}
	}
	return game.Move{}, false
}

// destinations applies the moves on the map, ignoring legality.
func destinations(state game.GameState, moves []game.Move) []game.Position {
	positions := map[uuid.UUID]game.Position{}
	for _, p := range state.Players() {
		positions[p.ID] = p.Position
	}
	result := []game.Position{}
	for _, m := range moves {
		result = append(result, state.Map().Neighbour(positions[m.Player], m.Direction))
	}
	return result
}
