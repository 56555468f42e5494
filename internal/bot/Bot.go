package bot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"lukechampine.com/frand"

	"github.com/contestantbots/hackbots/internal/game"
)

var ErrUnknownBot = errors.New("unknown bot")

// Bot is called once per phase with a fresh snapshot and answers with at most
// one move per player it controls.
type Bot interface {
	ID() uuid.UUID
	Name() string
	MakeMoves(state game.GameState) []game.Move
}

// Rand is the only randomness the strategies use, so tests can hand in a
// seeded generator.
type Rand interface {
	Intn(n int) int
}

type frandSource struct{}

func (frandSource) Intn(n int) int {
	return frand.Intn(n)
}

// DefaultRand draws from the process-wide frand generator.
func DefaultRand() Rand {
	return frandSource{}
}

// NewSeededRand returns a deterministic generator. Not safe for concurrent use.
func NewSeededRand(seed uint64) Rand {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	return frand.NewCustom(key[:], 1024, 12)
}

type Options struct {
	ID        uuid.UUID
	Name      string
	Rand      Rand
	Logger    *log.Logger
	LogState  bool
	Collector CollectorOptions
}

type base struct {
	id          uuid.UUID
	name        string
	rng         Rand
	logger      *log.Logger
	stateLogger *StateLogger
}

func newBase(defaultName string, opts Options) base {
	id := opts.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	name := opts.Name
	if name == "" {
		name = defaultName
	}
	rng := opts.Rand
	if rng == nil {
		rng = DefaultRand()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.With("bot", name)

	return base{
		id:          id,
		name:        name,
		rng:         rng,
		logger:      logger,
		stateLogger: NewStateLogger(id, logger, opts.LogState),
	}
}

func (b *base) ID() uuid.UUID {
	return b.id
}

func (b *base) Name() string {
	return b.name
}

func (b *base) isMine(player game.Player) bool {
	return player.Owner == b.id
}

// Kinds lists the names New understands, scripts aside.
func Kinds() []string {
	return []string{"explorer", "collector", "hunter", "random"}
}

// New builds a bot by kind. The milestone aliases match the opponents offered
// by the hackathon client; "script:<name or path>" loads a Lua strategy.
func New(kind string, opts Options) (Bot, error) {
	kind = strings.TrimSpace(kind)
	switch strings.ToLower(kind) {
	case "explorer", "milestone1":
		return NewExplorerBot(opts), nil
	case "collector", "milestone2":
		return NewCollectorBot(opts), nil
	case "hunter":
		return NewHunterBot(opts), nil
	case "random", "default":
		return NewRandomBot(opts), nil
	}

	if script, ok := strings.CutPrefix(kind, "script:"); ok {
		scriptBot, err := LoadScriptBot(script, opts)
		if err != nil {
			return nil, err
		}
		return scriptBot, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownBot, kind)
}
