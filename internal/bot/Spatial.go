package bot

import (
	"github.com/google/uuid"

	"github.com/contestantbots/hackbots/internal/game"
)

// Claims holds the cells friendly players are moving into this phase, in the
// order they were claimed.
type Claims struct {
	order []game.Position
	set   game.PositionSet
}

func NewClaims() *Claims {
	return &Claims{set: game.PositionSet{}}
}

// Reserve claims p unless somebody already did.
func (c *Claims) Reserve(p game.Position) bool {
	if c.set.Has(p) {
		return false
	}
	c.Force(p)
	return true
}

// Force claims p without checking. Used for moves that are issued regardless
// of what is in the way (followers retracing the leader).
func (c *Claims) Force(p game.Position) {
	if c.set.Has(p) {
		return
	}
	c.set.Add(p)
	c.order = append(c.order, p)
}

func (c *Claims) Has(p game.Position) bool {
	return c.set.Has(p)
}

func (c *Claims) Len() int {
	return len(c.order)
}

func (c *Claims) Positions() []game.Position {
	return append([]game.Position(nil), c.order...)
}

// isLegal reports whether stepping from `from` towards dir lands on a playable
// cell nobody has claimed yet, and claims it if so.
func isLegal(state game.GameState, claims *Claims, from game.Position, dir game.Direction) bool {
	next := state.Map().Neighbour(from, dir)
	if !state.Map().Contains(next) || state.OutOfBoundsPositions().Has(next) {
		return false
	}
	return claims.Reserve(next)
}

func firstDirectionTowards(state game.GameState, from, to game.Position) (game.Direction, bool) {
	for dir := range state.Map().DirectionsTowards(from, to) {
		return dir, true
	}
	return game.North, false
}

// turn is the scratch state of a single MakeMoves call. Nothing in it
// survives to the next phase.
type turn struct {
	state  game.GameState
	claims *Claims
	moves  []game.Move
	moved  map[uuid.UUID]struct{}
}

func newTurn(state game.GameState) *turn {
	return &turn{
		state:  state,
		claims: NewClaims(),
		moved:  make(map[uuid.UUID]struct{}),
	}
}

func (t *turn) isLegal(from game.Position, dir game.Direction) bool {
	return isLegal(t.state, t.claims, from, dir)
}

// emit records a move; a second move for the same player is dropped.
func (t *turn) emit(move game.Move) {
	if t.hasMoved(move.Player) {
		return
	}
	t.moved[move.Player] = struct{}{}
	t.moves = append(t.moves, move)
}

func (t *turn) hasMoved(id uuid.UUID) bool {
	_, ok := t.moved[id]
	return ok
}
