package game

import (
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// GameState is everything a bot can see for one phase. Implementations must
// not change while a bot is deciding its moves.
type GameState interface {
	Phase() int
	Map() GameMap
	OutOfBoundsPositions() PositionSet
	Players() []Player
	Collectables() []Collectable
	RemovedPlayers() []Player
	IsRemoved(id uuid.UUID) bool
	SpawnPoints() []SpawnPoint
	RemovedSpawnPoints() []SpawnPoint
}

type SnapshotParams struct {
	Phase              int
	Map                GameMap
	OutOfBounds        []Position
	Players            []Player
	Collectables       []Collectable
	RemovedPlayers     []Player
	SpawnPoints        []SpawnPoint
	RemovedSpawnPoints []SpawnPoint
}

// Snapshot is the immutable GameState handed out by the arena once per phase.
type Snapshot struct {
	phase              int
	gameMap            GameMap
	outOfBounds        PositionSet
	players            []Player
	collectables       []Collectable
	removedPlayers     []Player
	removedIDs         map[uuid.UUID]struct{}
	spawnPoints        []SpawnPoint
	removedSpawnPoints []SpawnPoint
}

func NewSnapshot(params SnapshotParams) *Snapshot {
	removedIDs := make(map[uuid.UUID]struct{}, len(params.RemovedPlayers))
	for _, player := range params.RemovedPlayers {
		removedIDs[player.ID] = struct{}{}
	}

	return &Snapshot{
		phase:              params.Phase,
		gameMap:            params.Map,
		outOfBounds:        NewPositionSet(params.OutOfBounds...),
		players:            clone(params.Players),
		collectables:       clone(params.Collectables),
		removedPlayers:     clone(params.RemovedPlayers),
		removedIDs:         removedIDs,
		spawnPoints:        clone(params.SpawnPoints),
		removedSpawnPoints: clone(params.RemovedSpawnPoints),
	}
}

func (s *Snapshot) Phase() int { return s.phase }

func (s *Snapshot) Map() GameMap { return s.gameMap }

func (s *Snapshot) Players() []Player {
	return clone(s.players)
}

func (s *Snapshot) Collectables() []Collectable {
	return clone(s.collectables)
}

func (s *Snapshot) RemovedPlayers() []Player {
	return clone(s.removedPlayers)
}

func (s *Snapshot) SpawnPoints() []SpawnPoint {
	return clone(s.spawnPoints)
}

func (s *Snapshot) RemovedSpawnPoints() []SpawnPoint {
	return clone(s.removedSpawnPoints)
}

// OutOfBoundsPositions is shared, callers must treat it as read-only.
func (s *Snapshot) OutOfBoundsPositions() PositionSet {
	return s.outOfBounds
}

func (s *Snapshot) IsRemoved(id uuid.UUID) bool {
	_, ok := s.removedIDs[id]
	return ok
}

// PlayersOf filters the state's players by owner.
func PlayersOf(state GameState, owner uuid.UUID) []Player {
	return lo.Filter(state.Players(), func(p Player, _ int) bool {
		return p.Owner == owner
	})
}

// FindPlayer looks a live player up by id.
func FindPlayer(state GameState, id uuid.UUID) (Player, bool) {
	return lo.Find(state.Players(), func(p Player) bool {
		return p.ID == id
	})
}

func clone[T any](items []T) []T {
	if items == nil {
		return nil
	}
	return append(make([]T, 0, len(items)), items...)
}
