package arena

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contestantbots/hackbots/internal/bot"
	"github.com/contestantbots/hackbots/internal/game"
)

func TestNewSeatsBotsOnSpawnPoints(t *testing.T) {
	a1, a2 := newPuppet("a", nil), newPuppet("b", nil)
	layout := testLayout(4, 4, game.Position{X: 0, Y: 0}, game.Position{X: 3, Y: 3})

	a, err := New(layout, []bot.Bot{a1, a2}, untimed(), quietLogger())
	require.NoError(t, err)

	state := a.Snapshot()
	assert.Equal(t, []game.Position{{X: 0, Y: 0}}, positionsOf(state, a1.ID()))
	assert.Equal(t, []game.Position{{X: 3, Y: 3}}, positionsOf(state, a2.ID()))
	assert.Len(t, state.SpawnPoints(), 2)
	assert.Equal(t, 0, a.Phase())
	assert.False(t, a.Finished())
}

func TestNewRejectsMoreBotsThanSpawnPoints(t *testing.T) {
	layout := testLayout(4, 4, game.Position{X: 0, Y: 0})
	_, err := New(layout, []bot.Bot{newPuppet("a", nil), newPuppet("b", nil)}, untimed(), quietLogger())
	assert.ErrorIs(t, err, ErrTooManyBots)
}

func TestStepMovesPlayers(t *testing.T) {
	tests := []struct {
		name  string
		dir   game.Direction
		want  game.Position
		moved int
	}{
		{name: "free cell", dir: game.East, want: game.Position{X: 2, Y: 1}, moved: 1},
		{name: "out of bounds cell", dir: game.North, want: game.Position{X: 1, Y: 1}, moved: 0},
		{name: "edge cell", dir: game.West, want: game.Position{X: 0, Y: 1}, moved: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPuppet("walker", walk(tt.dir))
			layout := testLayout(3, 3, game.Position{X: 1, Y: 1})
			layout.OutOfBounds = []game.Position{{X: 1, Y: 0}}
			a, err := New(layout, []bot.Bot{p}, untimed(), quietLogger())
			require.NoError(t, err)

			report, err := a.Step(context.Background())
			require.NoError(t, err)

			assert.Equal(t, tt.moved, report.Moved)
			assert.Equal(t, []game.Position{tt.want}, positionsOf(a.Snapshot(), p.ID()))
			assert.Equal(t, 1, a.Phase())
		})
	}
}

func TestStepKeepsPlayersOnTheMap(t *testing.T) {
	p := newPuppet("walker", walk(game.West))
	a, err := New(testLayout(3, 1, game.Position{X: 0, Y: 0}), []bot.Bot{p}, untimed(), quietLogger())
	require.NoError(t, err)

	report, err := a.Step(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, report.Moved)
	assert.Equal(t, []game.Position{{X: 0, Y: 0}}, positionsOf(a.Snapshot(), p.ID()))
}

func TestStepRemovesCollidingPlayers(t *testing.T) {
	left := newPuppet("left", walk(game.East))
	right := newPuppet("right", walk(game.West))
	a, err := New(testLayout(3, 1, game.Position{X: 0, Y: 0}, game.Position{X: 2, Y: 0}),
		[]bot.Bot{left, right}, untimed(), quietLogger())
	require.NoError(t, err)

	report, err := a.Step(context.Background())
	require.NoError(t, err)

	state := a.Snapshot()
	assert.Equal(t, 2, report.Collisions)
	assert.Empty(t, state.Players())
	assert.Len(t, state.RemovedPlayers(), 2)
	for _, p := range state.RemovedPlayers() {
		assert.True(t, state.IsRemoved(p.ID))
	}
	// both still own a spawn point
	assert.False(t, a.Finished())
}

func TestStepCollectsCollectables(t *testing.T) {
	p := newPuppet("collector", walk(game.East))
	a, err := New(testLayout(3, 1, game.Position{X: 0, Y: 0}), []bot.Bot{p}, untimed(), quietLogger())
	require.NoError(t, err)
	a.collectables = []game.Collectable{game.NewCollectable(game.Position{X: 1, Y: 0})}

	report, err := a.Step(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Collected)
	assert.Empty(t, a.Snapshot().Collectables())
	assert.Equal(t, 1, a.Standings()[0].Score)
}

func TestStepDestroysEnemySpawnPoints(t *testing.T) {
	raider := newPuppet("raider", walk(game.East))
	owner := newPuppet("owner", walk(game.South))
	a, err := New(testLayout(3, 2, game.Position{X: 0, Y: 0}, game.Position{X: 2, Y: 0}),
		[]bot.Bot{raider, owner}, untimed(), quietLogger())
	require.NoError(t, err)

	_, err = a.Step(context.Background())
	require.NoError(t, err)
	report, err := a.Step(context.Background())
	require.NoError(t, err)

	state := a.Snapshot()
	assert.Equal(t, 1, report.Destroyed)
	require.Len(t, state.RemovedSpawnPoints(), 1)
	assert.Equal(t, owner.ID(), state.RemovedSpawnPoints()[0].Owner)
	assert.Equal(t, []game.Position{{X: 2, Y: 1}}, positionsOf(state, owner.ID()))
	assert.False(t, a.Finished())
}

func TestStepSpawnsPlayersOnFreeSpawnPoints(t *testing.T) {
	mover := newPuppet("mover", walk(game.East))
	sitter := newPuppet("sitter", nil)
	settings := untimed()
	settings.SpawnInterval = 2
	a, err := New(testLayout(6, 1, game.Position{X: 0, Y: 0}, game.Position{X: 5, Y: 0}),
		[]bot.Bot{mover, sitter}, settings, quietLogger())
	require.NoError(t, err)

	report, err := a.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Spawned)

	report, err = a.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Spawned)

	state := a.Snapshot()
	assert.Equal(t, []game.Position{{X: 2, Y: 0}, {X: 0, Y: 0}}, positionsOf(state, mover.ID()))
	assert.Len(t, positionsOf(state, sitter.ID()), 1)
}

func TestStepCapsPlayersPerBot(t *testing.T) {
	mover := newPuppet("mover", walk(game.East))
	settings := untimed()
	settings.SpawnInterval = 1
	settings.MaxPlayersPerBot = 2
	a, err := New(testLayout(8, 1, game.Position{X: 0, Y: 0}), []bot.Bot{mover}, settings, quietLogger())
	require.NoError(t, err)

	for range 5 {
		_, err := a.Step(context.Background())
		require.NoError(t, err)
	}
	assert.Len(t, positionsOf(a.Snapshot(), mover.ID()), 2)
}

func TestStepIgnoresForeignAndDuplicateMoves(t *testing.T) {
	var victim *puppet
	cheat := newPuppet("cheat", func(p *puppet, state game.GameState) []game.Move {
		mine := game.PlayersOf(state, p.ID())[0]
		theirs := game.PlayersOf(state, victim.ID())[0]
		return []game.Move{
			{Player: theirs.ID, Direction: game.South},
			{Player: mine.ID, Direction: game.North},
			{Player: mine.ID, Direction: game.South},
		}
	})
	victim = newPuppet("victim", nil)
	a, err := New(testLayout(3, 3, game.Position{X: 0, Y: 0}, game.Position{X: 2, Y: 0}),
		[]bot.Bot{cheat, victim}, untimed(), quietLogger())
	require.NoError(t, err)

	report, err := a.Step(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, report.Moved)
	assert.Equal(t, []game.Position{{X: 0, Y: 0}}, positionsOf(a.Snapshot(), cheat.ID()))
	assert.Equal(t, []game.Position{{X: 2, Y: 0}}, positionsOf(a.Snapshot(), victim.ID()))
}

func TestStepDisqualifiesMisbehavingBots(t *testing.T) {
	tests := []struct {
		name     string
		plan     func(p *puppet, state game.GameState) []game.Move
		debug    bool
		wantDQ   bool
		wantText string
	}{
		{
			name:     "panic",
			plan:     func(*puppet, game.GameState) []game.Move { panic("boom") },
			wantDQ:   true,
			wantText: "bot panicked: boom",
		},
		{
			name: "too slow",
			plan: func(*puppet, game.GameState) []game.Move {
				time.Sleep(300 * time.Millisecond)
				return nil
			},
			wantDQ:   true,
			wantText: "bot ran out of time",
		},
		{
			name: "slow in debug mode",
			plan: func(*puppet, game.GameState) []game.Move {
				time.Sleep(80 * time.Millisecond)
				return nil
			},
			debug:  true,
			wantDQ: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := newPuppet("bad", tt.plan)
			good := newPuppet("good", walk(game.South))
			settings := untimed()
			settings.TurnTimeout = 50 * time.Millisecond
			settings.Debug = tt.debug
			a, err := New(testLayout(4, 4, game.Position{X: 0, Y: 0}, game.Position{X: 3, Y: 0}),
				[]bot.Bot{bad, good}, settings, quietLogger())
			require.NoError(t, err)

			report, err := a.Step(context.Background())
			require.NoError(t, err)

			if !tt.wantDQ {
				assert.Empty(t, report.Disqualified)
				assert.False(t, a.Finished())
				return
			}
			assert.Equal(t, []string{"bad"}, report.Disqualified)
			entry := findEntry(t, a.Standings(), "bad")
			assert.True(t, entry.Disqualified)
			assert.Contains(t, entry.Reason, tt.wantText)
			// the other bot is the only contender left
			assert.True(t, a.Finished())
			assert.Equal(t, []game.Position{{X: 3, Y: 1}}, positionsOf(a.Snapshot(), good.ID()))
		})
	}
}

func TestCloseWaitsForBotsThatRanOutOfTime(t *testing.T) {
	slow := &closingPuppet{puppet: newPuppet("slow", func(*puppet, game.GameState) []game.Move {
		time.Sleep(200 * time.Millisecond)
		return nil
	})}
	settings := untimed()
	settings.TurnTimeout = 20 * time.Millisecond
	a, err := New(testLayout(4, 4, game.Position{X: 0, Y: 0}, game.Position{X: 3, Y: 0}),
		[]bot.Bot{slow, newPuppet("good", nil)}, settings, quietLogger())
	require.NoError(t, err)

	report, err := a.Step(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"slow"}, report.Disqualified)

	require.NoError(t, a.Close())
	assert.True(t, slow.closed.Load())
	assert.False(t, slow.closedWhileBusy.Load())
	assert.Equal(t, int32(1), slow.calls.Load())
}

func TestDisqualifiedBotsAreNotAskedAgain(t *testing.T) {
	bad := newPuppet("bad", func(*puppet, game.GameState) []game.Move { panic("boom") })
	others := []bot.Bot{newPuppet("b", nil), newPuppet("c", nil)}
	a, err := New(testLayout(4, 4, game.Position{X: 0, Y: 0}, game.Position{X: 3, Y: 0}, game.Position{X: 0, Y: 3}),
		append([]bot.Bot{bad}, others...), untimed(), quietLogger())
	require.NoError(t, err)

	for range 3 {
		_, err := a.Step(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), bad.calls.Load())
	assert.Equal(t, []game.Position{{X: 0, Y: 0}}, positionsOf(a.Snapshot(), bad.ID()))
}

func TestMatchEndsAfterMaxPhases(t *testing.T) {
	settings := untimed()
	settings.MaxPhases = 3
	a, err := New(testLayout(4, 4, game.Position{X: 0, Y: 0}, game.Position{X: 3, Y: 3}),
		[]bot.Bot{newPuppet("a", nil), newPuppet("b", nil)}, settings, quietLogger())
	require.NoError(t, err)

	require.NoError(t, a.Run(context.Background()))

	assert.True(t, a.Finished())
	assert.Equal(t, 3, a.Phase())
	_, err = a.Step(context.Background())
	assert.ErrorIs(t, err, ErrMatchOver)
}

func TestStepStopsOnCancelledContext(t *testing.T) {
	a, err := New(testLayout(4, 4, game.Position{X: 0, Y: 0}, game.Position{X: 3, Y: 3}),
		[]bot.Bot{newPuppet("a", nil), newPuppet("b", nil)}, DefaultSettings(), quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = a.Step(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, a.Phase())
}

func TestStandingsOrder(t *testing.T) {
	a, err := New(testLayout(4, 4, game.Position{X: 0, Y: 0}, game.Position{X: 3, Y: 3}, game.Position{X: 0, Y: 3}),
		[]bot.Bot{newPuppet("low", nil), newPuppet("high", nil), newPuppet("none", nil)}, untimed(), quietLogger())
	require.NoError(t, err)
	a.contestants[0].score = 1
	a.contestants[1].score = 4
	a.players = a.players[:2]

	standings := a.Standings()
	names := []string{}
	for _, e := range standings {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"high", "low", "none"}, names)
	assert.Equal(t, 0, standings[2].Players)
	assert.Equal(t, 1, standings[2].SpawnPoints)
}

func TestCollectablesAreToppedUpOnFreeCells(t *testing.T) {
	layout := testLayout(3, 3, game.Position{X: 0, Y: 0})
	layout.OutOfBounds = []game.Position{{X: 1, Y: 1}}
	settings := untimed()
	settings.MaxCollectables = 3
	a, err := New(layout, []bot.Bot{newPuppet("a", nil)}, settings, quietLogger())
	require.NoError(t, err)

	state := a.Snapshot()
	require.Len(t, state.Collectables(), 3)
	seen := game.NewPositionSet()
	for _, c := range state.Collectables() {
		assert.NotEqual(t, game.Position{X: 1, Y: 1}, c.Position)
		assert.NotEqual(t, game.Position{X: 0, Y: 0}, c.Position)
		assert.False(t, seen.Has(c.Position))
		seen.Add(c.Position)
	}
}

func findEntry(t *testing.T, entries []Entry, name string) Entry {
	t.Helper()
	for _, e := range entries {
		if e.Name == name {
			return e
		}
	}
	t.Fatalf("no standing for %q", name)
	return Entry{}
}
