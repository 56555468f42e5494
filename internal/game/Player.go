package game

import (
	"fmt"

	"github.com/google/uuid"
)

type Player struct {
	ID       uuid.UUID
	Owner    uuid.UUID
	Position Position
}

func NewPlayer(owner uuid.UUID, position Position) Player {
	return Player{
		ID:       uuid.New(),
		Owner:    owner,
		Position: position,
	}
}

func (p Player) String() string {
	return fmt.Sprintf("Player[id=%s, owner=%s, position=%s]", p.ID, p.Owner, p.Position)
}

type Collectable struct {
	ID       uuid.UUID
	Position Position
}

func NewCollectable(position Position) Collectable {
	return Collectable{ID: uuid.New(), Position: position}
}

func (c Collectable) String() string {
	return fmt.Sprintf("Collectable[id=%s, position=%s]", c.ID, c.Position)
}

type SpawnPoint struct {
	ID       uuid.UUID
	Owner    uuid.UUID
	Position Position
}

func NewSpawnPoint(owner uuid.UUID, position Position) SpawnPoint {
	return SpawnPoint{ID: uuid.New(), Owner: owner, Position: position}
}

func (s SpawnPoint) String() string {
	return fmt.Sprintf("SpawnPoint[id=%s, owner=%s, position=%s]", s.ID, s.Owner, s.Position)
}

// Move is the only thing a bot hands back to the engine.
type Move struct {
	Player    uuid.UUID
	Direction Direction
}
