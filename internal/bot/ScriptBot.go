package bot

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"
	lua "github.com/yuin/gopher-lua"

	"github.com/contestantbots/hackbots/internal/game"
)

//go:embed scripts/*.lua
var embeddedScripts embed.FS

const (
	scriptEntryPoint = "nextDirection"
	// A script that loops forever gets cut off after this long per phase.
	scriptPhaseBudget = 500 * time.Millisecond
)

// ScriptBot asks a Lua function for each player's direction:
//
//	function nextDirection(player, state) return "NORTH" end
//
// player is {id, x, y}. state carries phase, width, height and wrap, plus:
//
//	collectables  list of {x, y}
//	players       list of {id, x, y, friendly}
//	outOfBounds   set keyed by "x,y", e.g. state.outOfBounds["3,4"] == true
//	occupied      set of cells holding any player, keyed the same way
type ScriptBot struct {
	base
	luaState *lua.LState
}

// BundledScripts lists the scripts compiled into the binary, by name.
func BundledScripts() []string {
	entries, err := fs.ReadDir(embeddedScripts, "scripts")
	if err != nil {
		return nil
	}
	return lo.Map(entries, func(e fs.DirEntry, _ int) string {
		return strings.TrimSuffix(e.Name(), ".lua")
	})
}

// LoadScriptBot resolves nameOrPath against the embedded scripts first and
// the file system second.
func LoadScriptBot(nameOrPath string, opts Options) (*ScriptBot, error) {
	source, err := embeddedScripts.ReadFile("scripts/" + nameOrPath + ".lua")
	if err != nil {
		source, err = os.ReadFile(nameOrPath)
		if err != nil {
			return nil, fmt.Errorf("could not read lua script %q: %w", nameOrPath, err)
		}
	}
	if opts.Name == "" {
		opts.Name = "Script " + strings.TrimSuffix(filepath.Base(nameOrPath), ".lua")
	}
	return NewScriptBot(string(source), opts)
}

func NewScriptBot(source string, opts Options) (*ScriptBot, error) {
	luaState := lua.NewState()
	if err := luaState.DoString(source); err != nil {
		luaState.Close()
		return nil, fmt.Errorf("could not parse lua strategy definition: %w", err)
	}
	if fn := luaState.GetGlobal(scriptEntryPoint); fn.Type() != lua.LTFunction {
		luaState.Close()
		return nil, errors.New("lua strategy does not define " + scriptEntryPoint)
	}

	return &ScriptBot{
		base:     newBase("Script Bot", opts),
		luaState: luaState,
	}, nil
}

func (b *ScriptBot) Close() error {
	b.luaState.Close()
	return nil
}

func (b *ScriptBot) MakeMoves(state game.GameState) []game.Move {
	b.stateLogger.Process(state)

	ctx, cancel := context.WithTimeout(context.Background(), scriptPhaseBudget)
	defer cancel()
	b.luaState.SetContext(ctx)
	defer b.luaState.RemoveContext()

	t := newTurn(state)
	stateTable := b.stateTable(state)
	for _, player := range game.PlayersOf(state, b.id) {
		dir, err := b.nextDirection(player, stateTable)
		if err != nil {
			b.logger.Error("script failed, exploring instead", "player", player.ID, "error", err)
			t.emit(explore(t, b.rng, player))
			continue
		}
		// reserve the cell when it is free, but the script has the last word
		t.isLegal(player.Position, dir)
		t.emit(game.Move{Player: player.ID, Direction: dir})
	}
	return t.moves
}

func (b *ScriptBot) nextDirection(player game.Player, stateTable *lua.LTable) (game.Direction, error) {
	playerTable := b.luaState.NewTable()
	b.luaState.SetField(playerTable, "id", lua.LString(player.ID.String()))
	b.luaState.SetField(playerTable, "x", lua.LNumber(player.Position.X))
	b.luaState.SetField(playerTable, "y", lua.LNumber(player.Position.Y))

	err := b.luaState.CallByParam(lua.P{
		Fn:      b.luaState.GetGlobal(scriptEntryPoint),
		NRet:    1,
		Protect: true,
	}, playerTable, stateTable)
	if err != nil {
		return game.North, fmt.Errorf("could not execute lua strategy: %w", err)
	}

	luaReturn := b.luaState.Get(-1)
	b.luaState.Pop(1)
	if luaReturn.Type() != lua.LTString {
		return game.North, fmt.Errorf("lua return value was type %s, expected string", luaReturn.Type())
	}
	return game.ParseDirection(lua.LVAsString(luaReturn))
}

func (b *ScriptBot) stateTable(state game.GameState) *lua.LTable {
	L := b.luaState
	wraps := false
	if w, ok := state.Map().(interface{ Wraps() bool }); ok {
		wraps = w.Wraps()
	}

	table := L.NewTable()
	L.SetField(table, "phase", lua.LNumber(state.Phase()))
	L.SetField(table, "width", lua.LNumber(state.Map().Width()))
	L.SetField(table, "height", lua.LNumber(state.Map().Height()))
	L.SetField(table, "wrap", lua.LBool(wraps))

	outOfBounds := L.NewTable()
	for p := range state.OutOfBoundsPositions() {
		L.SetField(outOfBounds, cellKey(p), lua.LTrue)
	}
	L.SetField(table, "outOfBounds", outOfBounds)

	collectables := L.NewTable()
	for _, c := range state.Collectables() {
		collectables.Append(b.positionTable(c.Position))
	}
	L.SetField(table, "collectables", collectables)

	players := L.NewTable()
	occupied := L.NewTable()
	for _, p := range state.Players() {
		entry := b.positionTable(p.Position)
		L.SetField(entry, "id", lua.LString(p.ID.String()))
		L.SetField(entry, "friendly", lua.LBool(b.isMine(p)))
		players.Append(entry)
		L.SetField(occupied, cellKey(p.Position), lua.LTrue)
	}
	L.SetField(table, "players", players)
	L.SetField(table, "occupied", occupied)

	return table
}

func (b *ScriptBot) positionTable(p game.Position) *lua.LTable {
	t := b.luaState.NewTable()
	b.luaState.SetField(t, "x", lua.LNumber(p.X))
	b.luaState.SetField(t, "y", lua.LNumber(p.Y))
	return t
}

func cellKey(p game.Position) string {
	return fmt.Sprintf("%d,%d", p.X, p.Y)
}
