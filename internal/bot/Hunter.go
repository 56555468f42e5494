package bot

import (
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/contestantbots/hackbots/internal/game"
)

const maxFollowers = 2

// Before a group is ready its leader walks west, so west is also what the
// followers replay on their first ready phase.
const idleDirection = game.West

// Group is a leader trailed by up to two followers. The followers replay the
// leader's last two directions, so they walk the path it walked one and two
// phases later.
type Group struct {
	Leader    uuid.UUID
	Followers []uuid.UUID
	// history[0] is the leader's previous direction, history[1] the one
	// before that.
	history [maxFollowers]game.Direction
}

func NewGroup(leader uuid.UUID) *Group {
	return &Group{
		Leader:  leader,
		history: [maxFollowers]game.Direction{idleDirection, idleDirection},
	}
}

func (g *Group) IsReady() bool {
	return len(g.Followers) >= maxFollowers
}

func (g *Group) AddFollower(id uuid.UUID) {
	g.Followers = append(g.Followers, id)
}

func (g *Group) Members() []uuid.UUID {
	return append([]uuid.UUID{g.Leader}, g.Followers...)
}

func (g *Group) History() [maxFollowers]game.Direction {
	return g.history
}

func (g *Group) recordLeaderMove(dir game.Direction) {
	copy(g.history[1:], g.history[:len(g.history)-1])
	g.history[0] = dir
}

// dropMember removes a departed player. A departed leader hands over to the
// first follower and the history starts over. Returns false once the group
// has nobody left.
func (g *Group) dropMember(id uuid.UUID) bool {
	if id == g.Leader {
		if len(g.Followers) == 0 {
			return false
		}
		g.Leader = g.Followers[0]
		g.Followers = g.Followers[1:]
		g.history = [maxFollowers]game.Direction{idleDirection, idleDirection}
		return true
	}
	g.Followers = lo.Without(g.Followers, id)
	return true
}

// fixedMoves issues the moves that do not depend on the board: the west
// walk of a group that is not ready yet, and the followers' replay.
func (g *Group) fixedMoves(t *turn, positions map[uuid.UUID]game.Position) {
	fixed := func(id uuid.UUID, dir game.Direction) {
		t.claims.Force(t.state.Map().Neighbour(positions[id], dir))
		t.emit(game.Move{Player: id, Direction: dir})
	}

	switch len(g.Followers) {
	case 0:
		fixed(g.Leader, idleDirection)
	case 1:
		fixed(g.Leader, idleDirection)
		fixed(g.Followers[0], idleDirection)
	default:
		fixed(g.Followers[0], g.history[0])
		fixed(g.Followers[1], g.history[1])
	}
}

// leaderMove lets the leader of a ready group explore around every cell
// already claimed this phase.
func (g *Group) leaderMove(t *turn, rng Rand, positions map[uuid.UUID]game.Position) {
	if !g.IsReady() {
		return
	}
	leader := game.Player{ID: g.Leader, Position: positions[g.Leader]}
	move := explore(t, rng, leader)
	t.emit(move)
	g.recordLeaderMove(move.Direction)
}

// HunterBot moves its players in trains of three.
type HunterBot struct {
	base
	groups []*Group
}

func NewHunterBot(opts Options) *HunterBot {
	return &HunterBot{base: newBase("Hunter Bot", opts)}
}

func (b *HunterBot) Groups() []*Group {
	return b.groups
}

func (b *HunterBot) MakeMoves(state game.GameState) []game.Move {
	b.stateLogger.Process(state)

	mine := game.PlayersOf(state, b.id)
	positions := make(map[uuid.UUID]game.Position, len(mine))
	for _, player := range mine {
		positions[player.ID] = player.Position
	}

	b.dropDeparted(state, positions)
	for _, player := range mine {
		if !b.isGrouped(player.ID) {
			b.enlist(player.ID)
		}
	}

	t := newTurn(state)
	for _, group := range b.groups {
		group.fixedMoves(t, positions)
	}
	for _, group := range b.groups {
		group.leaderMove(t, b.rng, positions)
	}

	b.logger.Debug("groups moving", "groups", len(b.groups), "moves", len(t.moves))
	return t.moves
}

func (b *HunterBot) dropDeparted(state game.GameState, positions map[uuid.UUID]game.Position) {
	kept := b.groups[:0]
	for _, group := range b.groups {
		alive := true
		for _, id := range group.Members() {
			if _, present := positions[id]; present && !state.IsRemoved(id) {
				continue
			}
			b.logger.Debug("group member gone", "player", id, "leader", id == group.Leader)
			if !group.dropMember(id) {
				alive = false
				break
			}
		}
		if alive {
			kept = append(kept, group)
		}
	}
	b.groups = kept
}

func (b *HunterBot) isGrouped(id uuid.UUID) bool {
	return lo.ContainsBy(b.groups, func(g *Group) bool {
		return lo.Contains(g.Members(), id)
	})
}

func (b *HunterBot) enlist(id uuid.UUID) {
	for _, group := range b.groups {
		if !group.IsReady() {
			group.AddFollower(id)
			return
		}
	}
	b.groups = append(b.groups, NewGroup(id))
}
