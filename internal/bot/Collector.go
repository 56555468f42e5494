package bot

import (
	"sort"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/contestantbots/hackbots/internal/game"
)

type CollectorOptions struct {
	// NearestFirst sorts candidate routes by distance before handing them
	// out. Off, routes are taken in the order they were built.
	NearestFirst bool
	// PruneVanished releases assignments whose collectable is no longer
	// visible. Off, they are only released on arrival or removal.
	PruneVanished bool
}

// Assignments binds players to the cell they are heading for. It lives as
// long as the bot does.
type Assignments struct {
	byPlayer      map[uuid.UUID]game.Position
	byDestination map[game.Position]uuid.UUID
}

func NewAssignments() *Assignments {
	return &Assignments{
		byPlayer:      make(map[uuid.UUID]game.Position),
		byDestination: make(map[game.Position]uuid.UUID),
	}
}

func (a *Assignments) Assign(player uuid.UUID, destination game.Position) {
	a.Release(player)
	a.byPlayer[player] = destination
	a.byDestination[destination] = player
}

func (a *Assignments) Release(player uuid.UUID) {
	destination, ok := a.byPlayer[player]
	if !ok {
		return
	}
	delete(a.byPlayer, player)
	if a.byDestination[destination] == player {
		delete(a.byDestination, destination)
	}
}

func (a *Assignments) Destination(player uuid.UUID) (game.Position, bool) {
	destination, ok := a.byPlayer[player]
	return destination, ok
}

func (a *Assignments) IsAssigned(player uuid.UUID) bool {
	_, ok := a.byPlayer[player]
	return ok
}

func (a *Assignments) IsTargeted(destination game.Position) bool {
	_, ok := a.byDestination[destination]
	return ok
}

func (a *Assignments) Len() int {
	return len(a.byPlayer)
}

type route struct {
	player      game.Player
	destination game.Position
	distance    int
}

// CollectorBot sends players after collectables and lets the rest explore.
type CollectorBot struct {
	base
	options     CollectorOptions
	assignments *Assignments
}

func NewCollectorBot(opts Options) *CollectorBot {
	return &CollectorBot{
		base:        newBase("ExampleBotRobbie", opts),
		options:     opts.Collector,
		assignments: NewAssignments(),
	}
}

func (b *CollectorBot) Assignments() *Assignments {
	return b.assignments
}

func (b *CollectorBot) MakeMoves(state game.GameState) []game.Move {
	b.stateLogger.Process(state)

	t := newTurn(state)
	b.prune(state)
	b.logger.Debug("assignments after pruning", "count", b.assignments.Len())

	mine := game.PlayersOf(state, b.id)
	pursuing := b.pursue(t, mine)
	collecting := b.collect(t, mine)

	exploring := 0
	for _, player := range mine {
		if !t.hasMoved(player.ID) {
			t.emit(explore(t, b.rng, player))
			exploring++
		}
	}

	b.logger.Debug("turn planned",
		"pursuing", pursuing,
		"collecting", collecting,
		"exploring", exploring)
	return t.moves
}

func (b *CollectorBot) prune(state game.GameState) {
	visible := game.NewPositionSet(lo.Map(state.Collectables(), func(c game.Collectable, _ int) game.Position {
		return c.Position
	})...)

	for id, destination := range b.assignments.byPlayer {
		if state.IsRemoved(id) {
			b.assignments.Release(id)
			continue
		}
		if player, ok := game.FindPlayer(state, id); ok && player.Position == destination {
			b.assignments.Release(id)
			continue
		}
		if b.options.PruneVanished && !visible.Has(destination) {
			b.assignments.Release(id)
		}
	}
}

// pursue moves players assigned on an earlier phase one step closer.
func (b *CollectorBot) pursue(t *turn, mine []game.Player) int {
	count := 0
	for _, player := range mine {
		destination, ok := b.assignments.Destination(player.ID)
		if !ok {
			continue
		}
		dir, ok := firstDirectionTowards(t.state, player.Position, destination)
		if ok && t.isLegal(player.Position, dir) {
			t.emit(game.Move{Player: player.ID, Direction: dir})
		} else {
			t.emit(explore(t, b.rng, player))
		}
		count++
	}
	return count
}

func (b *CollectorBot) collect(t *turn, mine []game.Player) int {
	destinations := lo.Uniq(lo.Map(t.state.Collectables(), func(c game.Collectable, _ int) game.Position {
		return c.Position
	}))
	players := lo.Filter(mine, func(p game.Player, _ int) bool {
		return !b.assignments.IsAssigned(p.ID)
	})

	routes := make([]route, 0, len(destinations)*len(players))
	for _, destination := range destinations {
		for _, player := range players {
			routes = append(routes, route{
				player:      player,
				destination: destination,
				distance:    t.state.Map().Distance(player.Position, destination),
			})
		}
	}
	if b.options.NearestFirst {
		sortRoutes(routes)
	}

	count := 0
	for _, r := range routes {
		if b.assignments.IsAssigned(r.player.ID) || b.assignments.IsTargeted(r.destination) {
			continue
		}
		dir, ok := firstDirectionTowards(t.state, r.player.Position, r.destination)
		if ok && t.isLegal(r.player.Position, dir) {
			t.emit(game.Move{Player: r.player.ID, Direction: dir})
			b.assignments.Assign(r.player.ID, r.destination)
			count++
		}
	}
	return count
}

func sortRoutes(routes []route) {
	sort.SliceStable(routes, func(i, j int) bool {
		a, b := routes[i], routes[j]
		if a.distance != b.distance {
			return a.distance < b.distance
		}
		if a.player.ID != b.player.ID {
			return a.player.ID.String() < b.player.ID.String()
		}
		if a.destination.Y != b.destination.Y {
			return a.destination.Y < b.destination.Y
		}
		return a.destination.X < b.destination.X
	})
}
