package arena

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"github.com/contestantbots/hackbots/internal/bot"
	"github.com/contestantbots/hackbots/internal/game"
)

var (
	ErrMatchOver   = errors.New("match is over")
	ErrTurnTimeout = errors.New("bot ran out of time")
	ErrBotPanicked = errors.New("bot panicked")
	ErrTooManyBots = errors.New("more bots than spawn points")
)

// Entry is one bot's standing in the match.
type Entry struct {
	BotID        uuid.UUID
	Name         string
	Score        int
	Players      int
	SpawnPoints  int
	Disqualified bool
	Reason       string
}

// Report sums up what happened during one Step.
type Report struct {
	Phase        int
	Moved        int
	Collisions   int
	Collected    int
	Destroyed    int
	Spawned      int
	Disqualified []string
}

type contestant struct {
	bot          bot.Bot
	score        int
	disqualified bool
	reason       string
}

// Arena runs a match between bots on one map. It is driven from a single
// goroutine; only the bots' MakeMoves calls run concurrently.
type Arena struct {
	id              uuid.UUID
	settings        Settings
	layout          Layout
	gameMap         *game.GridMap
	outOfBounds     game.PositionSet
	maxCollectables int

	contestants    []*contestant
	byID           map[uuid.UUID]*contestant
	players        []game.Player
	removedPlayers []game.Player
	spawnPoints    []game.SpawnPoint
	removedSpawns  []game.SpawnPoint
	collectables   []game.Collectable

	phase    int
	finished bool
	rng      *frand.RNG
	logger   *log.Logger

	// timed MakeMoves calls, which can outlive their turn
	abandoned sync.WaitGroup
}

// New places every bot on its own spawn point with one player, and scatters
// the first collectables.
func New(layout Layout, bots []bot.Bot, settings Settings, logger *log.Logger) (*Arena, error) {
	if len(bots) > len(layout.SpawnPoints) {
		return nil, fmt.Errorf("%w: %d bots, %d spawn points on %s", ErrTooManyBots, len(bots), len(layout.SpawnPoints), layout.Name)
	}
	if logger == nil {
		logger = log.Default()
	}
	settings = settings.withDefaults()

	a := &Arena{
		id:              uuid.New(),
		settings:        settings,
		layout:          layout,
		gameMap:         layout.gameMap(),
		outOfBounds:     game.NewPositionSet(layout.OutOfBounds...),
		maxCollectables: settings.MaxCollectables,
		byID:            make(map[uuid.UUID]*contestant, len(bots)),
		rng:             newRNG(settings.Seed),
		logger:          logger.With("map", layout.Name),
	}
	if a.maxCollectables <= 0 {
		a.maxCollectables = layout.MaxCollectables
	}

	for i, b := range bots {
		c := &contestant{bot: b}
		a.contestants = append(a.contestants, c)
		a.byID[b.ID()] = c

		spawn := game.NewSpawnPoint(b.ID(), layout.SpawnPoints[i])
		a.spawnPoints = append(a.spawnPoints, spawn)
		a.players = append(a.players, game.NewPlayer(b.ID(), spawn.Position))
	}
	a.topUpCollectables()

	a.logger.Info("Match created", "bots", len(bots), "width", layout.Width, "height", layout.Height)
	return a, nil
}

func (a *Arena) ID() uuid.UUID {
	return a.id
}

func (a *Arena) Phase() int {
	return a.phase
}

func (a *Arena) Layout() Layout {
	return a.layout
}

func (a *Arena) Finished() bool {
	return a.finished
}

func (a *Arena) Bots() []bot.Bot {
	return lo.Map(a.contestants, func(c *contestant, _ int) bot.Bot { return c.bot })
}

// Snapshot is the state every bot sees for the current phase.
func (a *Arena) Snapshot() *game.Snapshot {
	return game.NewSnapshot(game.SnapshotParams{
		Phase:              a.phase,
		Map:                a.gameMap,
		OutOfBounds:        a.layout.OutOfBounds,
		Players:            a.players,
		Collectables:       a.collectables,
		RemovedPlayers:     a.removedPlayers,
		SpawnPoints:        a.spawnPoints,
		RemovedSpawnPoints: a.removedSpawns,
	})
}

// Step plays one phase. It only fails when ctx is cancelled or the match is
// already over; misbehaving bots are disqualified instead.
func (a *Arena) Step(ctx context.Context) (Report, error) {
	if a.finished {
		return Report{}, ErrMatchOver
	}

	state := a.Snapshot()
	answers, err := a.collectMoves(ctx, state)
	if err != nil {
		return Report{}, err
	}

	report := Report{Phase: a.phase}
	for i, c := range a.contestants {
		if answers[i].err == nil || c.disqualified {
			continue
		}
		c.disqualified = true
		c.reason = answers[i].err.Error()
		report.Disqualified = append(report.Disqualified, c.bot.Name())
		a.logger.Warn("Bot disqualified", "bot", c.bot.Name(), "phase", a.phase, "error", answers[i].err)
	}

	moves := a.validMoves(answers)
	report.Moved = a.applyMoves(moves)
	report.Collisions = a.resolveCollisions()
	report.Destroyed = a.destroySpawnPoints()
	report.Collected = a.collect()

	a.phase++
	if a.phase%a.settings.SpawnInterval == 0 {
		report.Spawned = a.spawn()
	}
	a.topUpCollectables()

	if a.phase >= a.settings.MaxPhases || (len(a.contestants) > 1 && a.contendersLeft() <= 1) {
		a.finished = true
		a.logger.Info("Match finished", "phases", a.phase)
	}

	a.logger.Debug("Phase played", "phase", report.Phase, "moved", report.Moved,
		"collisions", report.Collisions, "collected", report.Collected)
	return report, nil
}

// Run steps until the match is over.
func (a *Arena) Run(ctx context.Context) error {
	for !a.finished {
		if _, err := a.Step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close releases bots holding resources, such as Lua states.
func (a *Arena) Close() error {
	a.abandoned.Wait()
	return closeBots(a.Bots())
}

// Standings orders bots by score, then by players still on the map.
func (a *Arena) Standings() []Entry {
	entries := lo.Map(a.contestants, func(c *contestant, _ int) Entry {
		id := c.bot.ID()
		return Entry{
			BotID:        id,
			Name:         c.bot.Name(),
			Score:        c.score,
			Players:      len(lo.Filter(a.players, func(p game.Player, _ int) bool { return p.Owner == id })),
			SpawnPoints:  len(lo.Filter(a.spawnPoints, func(s game.SpawnPoint, _ int) bool { return s.Owner == id })),
			Disqualified: c.disqualified,
			Reason:       c.reason,
		}
	})
	slices.SortStableFunc(entries, func(x, y Entry) int {
		if x.Score != y.Score {
			return y.Score - x.Score
		}
		return y.Players - x.Players
	})
	return entries
}

type answer struct {
	moves []game.Move
	err   error
}

func (a *Arena) collectMoves(ctx context.Context, state game.GameState) ([]answer, error) {
	answers := make([]answer, len(a.contestants))
	g := errgroup.Group{}
	for i, c := range a.contestants {
		if c.disqualified {
			continue
		}
		g.Go(func() error {
			moves, err := a.ask(ctx, c.bot, state)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			answers[i] = answer{moves: moves, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return answers, nil
}

func (a *Arena) ask(ctx context.Context, b bot.Bot, state game.GameState) ([]game.Move, error) {
	if a.settings.Debug || a.settings.TurnTimeout <= 0 {
		return makeMoves(b, state)
	}

	ctx, cancel := context.WithTimeout(ctx, a.settings.TurnTimeout)
	defer cancel()

	done := make(chan answer, 1)
	a.abandoned.Add(1)
	go func() {
		defer a.abandoned.Done()
		moves, err := makeMoves(b, state)
		done <- answer{moves: moves, err: err}
	}()

	select {
	case ans := <-done:
		return ans.moves, ans.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: no moves after %s", ErrTurnTimeout, a.settings.TurnTimeout)
	}
}

func makeMoves(b bot.Bot, state game.GameState) (moves []game.Move, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrBotPanicked, r)
		}
	}()
	return b.MakeMoves(state), nil
}

// validMoves keeps the first move per player, and only for live players the
// answering bot owns.
func (a *Arena) validMoves(answers []answer) map[uuid.UUID]game.Direction {
	owners := make(map[uuid.UUID]uuid.UUID, len(a.players))
	for _, p := range a.players {
		owners[p.ID] = p.Owner
	}

	moves := make(map[uuid.UUID]game.Direction)
	for i, ans := range answers {
		botID := a.contestants[i].bot.ID()
		for _, m := range ans.moves {
			owner, alive := owners[m.Player]
			switch {
			case !alive:
				a.logger.Debug("Move for unknown or removed player dropped", "bot", a.contestants[i].bot.Name(), "player", m.Player)
			case owner != botID:
				a.logger.Debug("Move for foreign player dropped", "bot", a.contestants[i].bot.Name(), "player", m.Player)
			default:
				if _, seen := moves[m.Player]; !seen {
					moves[m.Player] = m.Direction
				}
			}
		}
	}
	return moves
}

func (a *Arena) passable(p game.Position) bool {
	return a.gameMap.Contains(p) && !a.outOfBounds.Has(p)
}

func (a *Arena) applyMoves(moves map[uuid.UUID]game.Direction) int {
	moved := 0
	for i, p := range a.players {
		dir, ok := moves[p.ID]
		if !ok {
			continue
		}
		next := a.gameMap.Neighbour(p.Position, dir)
		if !a.passable(next) {
			continue
		}
		a.players[i].Position = next
		moved++
	}
	return moved
}

// resolveCollisions removes every player sharing a cell with another.
func (a *Arena) resolveCollisions() int {
	counts := make(map[game.Position]int, len(a.players))
	for _, p := range a.players {
		counts[p.Position]++
	}
	survivors, crashed := lo.FilterReject(a.players, func(p game.Player, _ int) bool {
		return counts[p.Position] == 1
	})
	for _, p := range crashed {
		a.logger.Debug("Player removed in collision", "player", p.ID, "position", p.Position)
	}
	a.players = survivors
	a.removedPlayers = append(a.removedPlayers, crashed...)
	return len(crashed)
}

func (a *Arena) destroySpawnPoints() int {
	occupants := make(map[game.Position]uuid.UUID, len(a.players))
	for _, p := range a.players {
		occupants[p.Position] = p.Owner
	}
	kept, destroyed := lo.FilterReject(a.spawnPoints, func(s game.SpawnPoint, _ int) bool {
		owner, occupied := occupants[s.Position]
		return !occupied || owner == s.Owner
	})
	a.spawnPoints = kept
	a.removedSpawns = append(a.removedSpawns, destroyed...)
	return len(destroyed)
}

func (a *Arena) collect() int {
	occupants := make(map[game.Position]uuid.UUID, len(a.players))
	for _, p := range a.players {
		occupants[p.Position] = p.Owner
	}
	left, taken := lo.FilterReject(a.collectables, func(c game.Collectable, _ int) bool {
		_, occupied := occupants[c.Position]
		return !occupied
	})
	for _, c := range taken {
		if owner, ok := a.byID[occupants[c.Position]]; ok {
			owner.score++
		}
	}
	a.collectables = left
	return len(taken)
}

func (a *Arena) spawn() int {
	occupied := game.NewPositionSet(lo.Map(a.players, func(p game.Player, _ int) game.Position { return p.Position })...)
	counts := lo.CountValuesBy(a.players, func(p game.Player) uuid.UUID { return p.Owner })

	spawned := 0
	for _, s := range a.spawnPoints {
		c, ok := a.byID[s.Owner]
		if !ok || c.disqualified || occupied.Has(s.Position) || counts[s.Owner] >= a.settings.MaxPlayersPerBot {
			continue
		}
		a.players = append(a.players, game.NewPlayer(s.Owner, s.Position))
		occupied.Add(s.Position)
		counts[s.Owner]++
		spawned++
	}
	return spawned
}

func (a *Arena) topUpCollectables() {
	missing := a.maxCollectables - len(a.collectables)
	if missing <= 0 {
		return
	}

	taken := game.NewPositionSet()
	for _, p := range a.players {
		taken.Add(p.Position)
	}
	for _, s := range a.spawnPoints {
		taken.Add(s.Position)
	}
	for _, c := range a.collectables {
		taken.Add(c.Position)
	}

	free := []game.Position{}
	for y := 0; y < a.layout.Height; y++ {
		for x := 0; x < a.layout.Width; x++ {
			cell := game.Position{X: x, Y: y}
			if a.passable(cell) && !taken.Has(cell) {
				free = append(free, cell)
			}
		}
	}

	for ; missing > 0 && len(free) > 0; missing-- {
		i := a.rng.Intn(len(free))
		a.collectables = append(a.collectables, game.NewCollectable(free[i]))
		free[i] = free[len(free)-1]
		free = free[:len(free)-1]
	}
}

// contendersLeft counts bots still able to act: not disqualified, and with
// players or a spawn point left.
func (a *Arena) contendersLeft() int {
	return lo.CountBy(a.contestants, func(c *contestant) bool {
		if c.disqualified {
			return false
		}
		id := c.bot.ID()
		return lo.ContainsBy(a.players, func(p game.Player) bool { return p.Owner == id }) ||
			lo.ContainsBy(a.spawnPoints, func(s game.SpawnPoint) bool { return s.Owner == id })
	})
}
