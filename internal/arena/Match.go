package arena

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/contestantbots/hackbots/internal/bot"
)

// Lineup is who plays on which map. The first bot is ours.
type Lineup struct {
	Player     string
	PlayerName string
	Opponents  []string
	Map        string
	MapFile    string
	Collector  bot.CollectorOptions
	LogState   bool
}

// NewMatch builds the bots of a lineup and seats them on its map. With a
// non-zero seed every bot gets its own deterministic generator.
func NewMatch(lineup Lineup, settings Settings, logger *log.Logger) (*Arena, error) {
	if logger == nil {
		logger = log.Default()
	}
	layout, err := ResolveLayout(lineup.Map, lineup.MapFile, settings.Seed)
	if err != nil {
		return nil, err
	}

	kinds := append([]string{lineup.Player}, lineup.Opponents...)
	bots := []bot.Bot{}
	for i, kind := range kinds {
		opts := bot.Options{
			Logger:    logger,
			LogState:  lineup.LogState && i == 0,
			Collector: lineup.Collector,
		}
		if i == 0 {
			opts.Name = lineup.PlayerName
		}
		if settings.Seed != 0 {
			opts.Rand = bot.NewSeededRand(settings.Seed + uint64(i) + 1)
		}

		b, err := bot.New(kind, opts)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("bot %d: %w", i+1, err), closeBots(bots))
		}
		bots = append(bots, b)
	}

	a, err := New(layout, bots, settings, logger)
	if err != nil {
		return nil, errors.Join(err, closeBots(bots))
	}
	return a, nil
}

func closeBots(bots []bot.Bot) error {
	var errs []error
	for _, b := range bots {
		if closer, ok := b.(interface{ Close() error }); ok {
			errs = append(errs, closer.Close())
		}
	}
	return errors.Join(errs...)
}
