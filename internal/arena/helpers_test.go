package arena

import (
	"io"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/contestantbots/hackbots/internal/game"
)

// puppet is a bot whose moves are decided by the test.
type puppet struct {
	id    uuid.UUID
	name  string
	plan  func(p *puppet, state game.GameState) []game.Move
	calls atomic.Int32
}

func newPuppet(name string, plan func(p *puppet, state game.GameState) []game.Move) *puppet {
	return &puppet{id: uuid.New(), name: name, plan: plan}
}

func (p *puppet) ID() uuid.UUID {
	return p.id
}

func (p *puppet) Name() string {
	return p.name
}

func (p *puppet) MakeMoves(state game.GameState) []game.Move {
	p.calls.Add(1)
	if p.plan == nil {
		return nil
	}
	return p.plan(p, state)
}

// closingPuppet notes whether it was closed while a MakeMoves call was still
// running.
type closingPuppet struct {
	*puppet
	busy            atomic.Bool
	closed          atomic.Bool
	closedWhileBusy atomic.Bool
}

func (c *closingPuppet) MakeMoves(state game.GameState) []game.Move {
	c.busy.Store(true)
	defer c.busy.Store(false)
	return c.puppet.MakeMoves(state)
}

func (c *closingPuppet) Close() error {
	c.closedWhileBusy.Store(c.busy.Load())
	c.closed.Store(true)
	return nil
}

func walk(dir game.Direction) func(p *puppet, state game.GameState) []game.Move {
	return func(p *puppet, state game.GameState) []game.Move {
		moves := []game.Move{}
		for _, player := range game.PlayersOf(state, p.id) {
			moves = append(moves, game.Move{Player: player.ID, Direction: dir})
		}
		return moves
	}
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func testLayout(width, height int, spawns ...game.Position) Layout {
	return Layout{Name: "test", Width: width, Height: height, SpawnPoints: spawns}
}

func untimed() Settings {
	s := DefaultSettings()
	s.TurnTimeout = 0
	s.Seed = 1
	return s
}

func positionsOf(state game.GameState, owner uuid.UUID) []game.Position {
	positions := []game.Position{}
	for _, p := range game.PlayersOf(state, owner) {
		positions = append(positions, p.Position)
	}
	return positions
}
