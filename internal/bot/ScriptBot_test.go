package bot

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/matryer/is"

	"github.com/contestantbots/hackbots/internal/game"
)

func TestScriptBotNorth(t *testing.T) {
	is := is.New(t)
	me, id := uuid.New(), uuid.New()
	b, err := LoadScriptBot("north", quietOptions(me, NewSeededRand(1)))
	is.NoErr(err)
	defer b.Close()

	is.Equal(b.Name(), "Script north")
	moves := b.MakeMoves(newStateBuilder(3, 3).player(me, id, game.Position{X: 1, Y: 0}).build())

	// off the map, but the script decides
	is.Equal(moves, []game.Move{{Player: id, Direction: game.North}})
}

func TestScriptBotWandererTurnsWhenBlocked(t *testing.T) {
	is := is.New(t)
	me, id := uuid.New(), uuid.New()
	b, err := LoadScriptBot("wanderer", quietOptions(me, NewSeededRand(1)))
	is.NoErr(err)
	defer b.Close()

	tests := []struct {
		from game.Position
		want game.Direction
	}{
		{from: game.Position{X: 0, Y: 0}, want: game.East},
		{from: game.Position{X: 1, Y: 0}, want: game.East},
		{from: game.Position{X: 2, Y: 0}, want: game.South},
		{from: game.Position{X: 2, Y: 1}, want: game.South},
	}
	for phase, tt := range tests {
		state := newStateBuilder(3, 3).phase(phase).player(me, id, tt.from).build()
		moves := b.MakeMoves(state)
		is.Equal(moves, []game.Move{{Player: id, Direction: tt.want}})
	}
}

func TestScriptBotAvoidsOutOfBounds(t *testing.T) {
	is := is.New(t)
	me, id := uuid.New(), uuid.New()
	b, err := LoadScriptBot("wanderer", quietOptions(me, NewSeededRand(1)))
	is.NoErr(err)
	defer b.Close()

	state := newStateBuilder(3, 3).
		player(me, id, game.Position{X: 1, Y: 1}).
		outOfBounds(game.Position{X: 1, Y: 0}, game.Position{X: 2, Y: 1}).
		build()

	is.Equal(b.MakeMoves(state), []game.Move{{Player: id, Direction: game.South}})
}

func TestScriptBotFallsBackToExploring(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{name: "runtime error", source: `function nextDirection(p, s) error("boom") end`},
		{name: "number returned", source: `function nextDirection(p, s) return 42 end`},
		{name: "unknown direction", source: `function nextDirection(p, s) return "UP" end`},
		{name: "nothing returned", source: `function nextDirection(p, s) end`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)
			me, id := uuid.New(), uuid.New()
			b, err := NewScriptBot(tt.source, quietOptions(me, &sequenceRand{draws: []int{0}}))
			is.NoErr(err)
			defer b.Close()

			moves := b.MakeMoves(newStateBuilder(3, 3).player(me, id, game.Position{X: 0, Y: 0}).build())

			// explore draws north first, which is off the map, then east
			is.Equal(moves, []game.Move{{Player: id, Direction: game.East}})
		})
	}
}

func TestScriptBotStopsRunawayScripts(t *testing.T) {
	is := is.New(t)
	me, id := uuid.New(), uuid.New()
	b, err := NewScriptBot(`function nextDirection(p, s) while true do end end`, quietOptions(me, &sequenceRand{draws: []int{0}}))
	is.NoErr(err)
	defer b.Close()

	moves := b.MakeMoves(newStateBuilder(3, 3).player(me, id, game.Position{X: 0, Y: 0}).build())

	is.Equal(len(moves), 1)
}

func TestNewScriptBotRejectsBadSource(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{name: "syntax error", source: `function nextDirection(`},
		{name: "missing entry point", source: `function somethingElse() return "NORTH" end`},
		{name: "entry point is not a function", source: `nextDirection = "NORTH"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)
			_, err := NewScriptBot(tt.source, quietOptions(uuid.New(), nil))
			is.True(err != nil)
		})
	}
}

func TestLoadScriptBotFromFile(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "south.lua")
	is.NoErr(os.WriteFile(path, []byte(`function nextDirection(p, s) return "south" end`), 0o644))

	me, id := uuid.New(), uuid.New()
	b, err := LoadScriptBot(path, quietOptions(me, nil))
	is.NoErr(err)
	defer b.Close()

	is.Equal(b.Name(), "Script south")
	is.Equal(b.MakeMoves(newStateBuilder(2, 2).player(me, id, game.Position{}).build()),
		[]game.Move{{Player: id, Direction: game.South}})
}

func TestLoadScriptBotMissingFile(t *testing.T) {
	is := is.New(t)
	_, err := LoadScriptBot(filepath.Join(t.TempDir(), "nope.lua"), quietOptions(uuid.New(), nil))
	is.True(errors.Is(err, fs.ErrNotExist))
}

func TestBundledScripts(t *testing.T) {
	is := is.New(t)
	names := BundledScripts()
	is.Equal(names, []string{"north", "wanderer"})
	for _, name := range names {
		b, err := New("script:"+name, quietOptions(uuid.New(), NewSeededRand(1)))
		is.NoErr(err)
		is.NoErr(b.(*ScriptBot).Close())
	}
}

func TestScriptBotSeesCellSets(t *testing.T) {
	is := is.New(t)
	me, id, other := uuid.New(), uuid.New(), uuid.New()
	source := `
function nextDirection(p, s)
	if s.wrap then return "NORTH" end
	if s.outOfBounds["1,0"] and s.occupied["2,1"] and #s.players == 2 and #s.collectables == 1 then
		return "WEST"
	end
	return "EAST"
end`
	b, err := NewScriptBot(source, quietOptions(me, nil))
	is.NoErr(err)
	defer b.Close()

	state := newStateBuilder(3, 3).
		player(me, id, game.Position{X: 1, Y: 1}).
		player(uuid.New(), other, game.Position{X: 2, Y: 1}).
		outOfBounds(game.Position{X: 1, Y: 0}).
		collectable(game.Position{X: 0, Y: 2}).
		build()

	is.Equal(b.MakeMoves(state), []game.Move{{Player: id, Direction: game.West}})
}
